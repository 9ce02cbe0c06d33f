package server

import (
	"github.com/gin-gonic/gin"
)

func writeOK(c *gin.Context, status int, payload gin.H) {
	body := gin.H{"ok": true}
	for key, value := range payload {
		body[key] = value
	}
	c.JSON(status, body)
}

func writeFail(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{
		"ok":    false,
		"error": message,
	})
}
