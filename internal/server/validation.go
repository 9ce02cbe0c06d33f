package server

import (
	"math"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

const (
	maxTextLength  = 64
	maxSubmitBytes = 16 << 10
)

var validatorOnce sync.Once

func registerValidators() {
	validatorOnce.Do(func() {
		engine, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = engine.RegisterValidation("displayname", func(fl validator.FieldLevel) bool {
			return validDisplayName(fl.Field().String())
		})
		_ = engine.RegisterValidation("whole", func(fl validator.FieldLevel) bool {
			return isWhole(fl.Field().Float())
		})
	})
}

func validDisplayName(name string) bool {
	trimmed := normalizeText(name)
	if trimmed == "" || utf8.RuneCountInString(trimmed) > maxTextLength {
		return false
	}
	for _, r := range trimmed {
		if unicode.IsControl(r) {
			return false
		}
	}
	return true
}

func isWhole(value float64) bool {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return false
	}
	return value == math.Trunc(value)
}

func normalizeText(text string) string {
	fields := strings.Fields(strings.TrimSpace(text))
	return strings.Join(fields, " ")
}
