package server

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"classroom-scores/internal/db"

	"github.com/gin-gonic/gin"
)

const (
	listDefaultLimit   = 200
	listMaxLimit       = 1000
	exportDefaultLimit = 1000
	exportMaxLimit     = 10000
)

// parseListOptions reads the filter, order and limit parameters shared by
// the list and export endpoints.
func parseListOptions(c *gin.Context, defaultLimit, maxLimit int) db.ListOptions {
	opts := db.ListOptions{
		Classe:   c.Query("classe"),
		GameType: c.Query("game_type"),
		Query:    c.Query("q"),
		OrderBy:  db.OrderTimeSeconds,
		Desc:     strings.EqualFold(c.Query("dir"), "desc"),
		Limit:    defaultLimit,
	}
	if c.Query("order") == db.OrderErrors {
		opts.OrderBy = db.OrderErrors
	}
	if value, ok := parseLeadingInt(c.Query("limit")); ok && value != 0 {
		opts.Limit = clamp(value, 1, maxLimit)
	}
	return opts
}

// parseLeadingInt reads an optional sign and the digits that follow it,
// ignoring anything after them, so "5abc" is 5. Values past the int range
// saturate toward their sign.
func parseLeadingInt(raw string) (int, bool) {
	raw = strings.TrimSpace(raw)
	end := 0
	if end < len(raw) && (raw[end] == '+' || raw[end] == '-') {
		end++
	}
	digits := end
	for end < len(raw) && raw[end] >= '0' && raw[end] <= '9' {
		end++
	}
	if end == digits {
		return 0, false
	}
	value, err := strconv.Atoi(raw[:end])
	if errors.Is(err, strconv.ErrRange) {
		if raw[0] == '-' {
			return math.MinInt, true
		}
		return math.MaxInt, true
	}
	if err != nil {
		return 0, false
	}
	return value, true
}

func clamp(value, lo, hi int) int {
	if value < lo {
		return lo
	}
	if value > hi {
		return hi
	}
	return value
}
