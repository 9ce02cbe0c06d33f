package server

import (
	"errors"
	"log"
	"math"
	"net/http"
	"strconv"
	"strings"

	"classroom-scores/internal/db"

	"github.com/gin-gonic/gin"
)

// Counters decode as float64 so that 42.5 is rejected by "whole" instead of
// being truncated, and a string fails the JSON decode itself.
type submitRequest struct {
	Name          string   `json:"name" binding:"required,displayname"`
	Classe        string   `json:"classe" binding:"max=64"`
	StudentNumber string   `json:"student_number" binding:"max=64"`
	TimeSeconds   *float64 `json:"time_seconds" binding:"required,gte=0,lte=2147483647,whole"`
	Errors        *float64 `json:"errors" binding:"required,gte=0,lte=2147483647,whole"`
	GameType      string   `json:"game_type" binding:"max=64"`
}

func (r submitRequest) score() db.Score {
	return db.Score{
		Name:          normalizeText(r.Name),
		Classe:        strings.TrimSpace(r.Classe),
		StudentNumber: strings.TrimSpace(r.StudentNumber),
		TimeSeconds:   int(math.Trunc(*r.TimeSeconds)),
		Errors:        int(math.Trunc(*r.Errors)),
		GameType:      strings.TrimSpace(r.GameType),
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	writeOK(c, http.StatusOK, nil)
}

func (s *Server) handleSubmit(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxSubmitBytes)
	var req submitRequest
	if !bindJSON(c, &req, "invalid payload") {
		s.metrics.submission("invalid")
		return
	}
	row, err := s.store.Insert(c.Request.Context(), req.score())
	if err != nil {
		log.Printf("score insert failed name=%q error=%v", req.Name, err)
		s.metrics.submission("error")
		writeFail(c, http.StatusInternalServerError, "internal error")
		return
	}
	log.Printf("score submitted id=%d game_type=%s", row.ID, row.GameType)
	s.metrics.submission("ok")
	s.notifyInsert(row)
	writeOK(c, http.StatusOK, gin.H{"row": row})
}

func (s *Server) handleListScores(c *gin.Context) {
	opts := parseListOptions(c, listDefaultLimit, listMaxLimit)
	rows, err := s.store.List(c.Request.Context(), opts)
	if err != nil {
		log.Printf("score list failed error=%v", err)
		writeFail(c, http.StatusInternalServerError, "internal error")
		return
	}
	if rows == nil {
		rows = []db.Score{}
	}
	writeOK(c, http.StatusOK, gin.H{"rows": rows})
}

func (s *Server) handleDeleteScore(c *gin.Context) {
	id, err := strconv.ParseInt(strings.TrimSpace(c.Param("id")), 10, 64)
	if err != nil {
		s.metrics.deletion("invalid")
		writeFail(c, http.StatusBadRequest, "invalid id")
		return
	}
	if id <= 0 {
		s.metrics.deletion("not_found")
		writeFail(c, http.StatusNotFound, "not found")
		return
	}
	if err := s.store.Delete(c.Request.Context(), uint(id)); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			s.metrics.deletion("not_found")
			writeFail(c, http.StatusNotFound, "not found")
			return
		}
		log.Printf("score delete failed id=%d error=%v", id, err)
		s.metrics.deletion("error")
		writeFail(c, http.StatusInternalServerError, "internal error")
		return
	}
	log.Printf("score deleted id=%d by=%s", id, c.GetString(teacherUserKey))
	s.metrics.deletion("ok")
	s.notifyDelete(uint(id))
	writeOK(c, http.StatusOK, gin.H{"id": id})
}
