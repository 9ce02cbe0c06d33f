package server

import (
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

func bindJSON(c *gin.Context, req any, fallback string) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		log.Printf("bind rejected path=%s reason=%s", c.Request.URL.Path, resolveBindError(err))
		writeFail(c, http.StatusBadRequest, fallback)
		return false
	}
	return true
}

// resolveBindError names the first failing field and rule, for logs only.
func resolveBindError(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return fmt.Sprintf("%s:%s", verrs[0].Field(), verrs[0].Tag())
	}
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return "body_too_large"
	}
	return err.Error()
}
