package server

import (
	"crypto/subtle"
	"log"
	"net/http"

	"classroom-scores/internal/config"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

const (
	authChallenge  = `Basic realm="Teacher"`
	teacherUserKey = "teacher_user"
)

// CredentialsProvider decides whether a Basic Auth pair may reach the
// teacher endpoints.
type CredentialsProvider interface {
	Verify(user, pass string) bool
}

// StaticCredentials accepts exactly one username/password pair.
type StaticCredentials struct {
	Username string
	Password string
}

// Verify compares both halves in constant time and always compares both,
// so the response time does not reveal which one was wrong.
func (c StaticCredentials) Verify(user, pass string) bool {
	if c.Username == "" || c.Password == "" {
		return false
	}
	userOK := subtle.ConstantTimeCompare([]byte(user), []byte(c.Username))
	passOK := subtle.ConstantTimeCompare([]byte(pass), []byte(c.Password))
	return userOK&passOK == 1
}

// HashedCredentials checks the password against a bcrypt hash, so the
// plain password never has to sit in the environment.
type HashedCredentials struct {
	Username string
	Hash     []byte
}

func (c HashedCredentials) Verify(user, pass string) bool {
	if c.Username == "" || len(c.Hash) == 0 {
		return false
	}
	userOK := subtle.ConstantTimeCompare([]byte(user), []byte(c.Username)) == 1
	passOK := bcrypt.CompareHashAndPassword(c.Hash, []byte(pass)) == nil
	return userOK && passOK
}

// CredentialsFromConfig prefers the bcrypt hash when one is configured.
func CredentialsFromConfig(cfg config.Config) CredentialsProvider {
	if cfg.TeacherPassHash != "" {
		return HashedCredentials{Username: cfg.TeacherUser, Hash: []byte(cfg.TeacherPassHash)}
	}
	return StaticCredentials{Username: cfg.TeacherUser, Password: cfg.TeacherPass}
}

func (s *Server) requireTeacher() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, pass, ok := c.Request.BasicAuth()
		if !ok || s.creds == nil || !s.creds.Verify(user, pass) {
			if ok {
				log.Printf("teacher auth rejected remote=%s path=%s", c.ClientIP(), c.Request.URL.Path)
			}
			c.Header("WWW-Authenticate", authChallenge)
			c.String(http.StatusUnauthorized, "Authentication required")
			c.Abort()
			return
		}
		c.Set(teacherUserKey, user)
		c.Next()
	}
}
