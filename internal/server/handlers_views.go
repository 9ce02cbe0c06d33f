package server

import (
	"log"
	"net/http"

	"classroom-scores/internal/web"

	"github.com/a-h/templ"
	"github.com/gin-gonic/gin"
)

func (s *Server) handleTeacherView(c *gin.Context) {
	data := web.DashboardData{
		User:          c.GetString(teacherUserKey),
		TokensEnabled: s.tokens != nil,
	}
	templ.Handler(web.TeacherDashboard(data)).ServeHTTP(c.Writer, c.Request)
}

func (s *Server) handleDashboardToken(c *gin.Context) {
	if s.tokens == nil {
		writeOK(c, http.StatusOK, gin.H{"token": ""})
		return
	}
	token, err := s.tokens.Issue(c.GetString(teacherUserKey))
	if err != nil {
		log.Printf("dashboard token failed error=%v", err)
		writeFail(c, http.StatusInternalServerError, "internal error")
		return
	}
	writeOK(c, http.StatusOK, gin.H{"token": token})
}

// handleStatic serves the game pages for any unmatched GET.
func (s *Server) handleStatic(c *gin.Context) {
	method := c.Request.Method
	if s.static == nil || (method != http.MethodGet && method != http.MethodHead) {
		writeFail(c, http.StatusNotFound, "not found")
		return
	}
	s.static.ServeHTTP(c.Writer, c.Request)
}
