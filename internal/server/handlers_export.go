package server

import (
	"bytes"
	"fmt"
	"log"
	"net/http"
	"time"

	"classroom-scores/internal/db"

	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func exportFilename(ext string) string {
	return fmt.Sprintf("scores_export_%d.%s", time.Now().UnixMilli(), ext)
}

func (s *Server) exportRows(c *gin.Context) ([]db.Score, bool) {
	opts := parseListOptions(c, exportDefaultLimit, exportMaxLimit)
	rows, err := s.store.List(c.Request.Context(), opts)
	if err != nil {
		log.Printf("score export failed error=%v", err)
		writeFail(c, http.StatusInternalServerError, "internal error")
		return nil, false
	}
	return rows, true
}

func (s *Server) handleExportCSV(c *gin.Context) {
	rows, ok := s.exportRows(c)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := db.WriteScoresCSV(&buf, rows); err != nil {
		log.Printf("csv export failed error=%v", err)
		writeFail(c, http.StatusInternalServerError, "internal error")
		return
	}
	name := exportFilename("csv")
	log.Printf("csv export rows=%d file=%s", len(rows), name)
	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

func (s *Server) handleExportXLSX(c *gin.Context) {
	rows, ok := s.exportRows(c)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := db.WriteScoresXLSX(&buf, rows); err != nil {
		log.Printf("xlsx export failed error=%v", err)
		writeFail(c, http.StatusInternalServerError, "internal error")
		return
	}
	name := exportFilename("xlsx")
	log.Printf("xlsx export rows=%d file=%s", len(rows), name)
	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
