package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/career-services-api/internal/middleware"
	"github.com/noah-isme/career-services-api/internal/models"
	appErrors "github.com/noah-isme/career-services-api/pkg/errors"
	"github.com/noah-isme/career-services-api/pkg/response"
)

const dateLayout = "2006-01-02"

func currentClaims(c *gin.Context) (*models.JWTClaims, bool) {
	claims, ok := middleware.Claims(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return nil, false
	}
	return claims, true
}

func bindJSON(c *gin.Context, dest interface{}, message string) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, message))
		return false
	}
	return true
}

// bindOptionalJSON accepts an empty body and leaves dest untouched.
func bindOptionalJSON(c *gin.Context, dest interface{}, message string) bool {
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		return true
	}
	if err := c.ShouldBindJSON(dest); err != nil && !errors.Is(err, io.EOF) {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, message))
		return false
	}
	return true
}

func dateParam(c *gin.Context, name string) (time.Time, bool) {
	date, err := time.Parse(dateLayout, c.Param(name))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, name+" must be formatted as YYYY-MM-DD"))
		return time.Time{}, false
	}
	return date, true
}

// timeQuery accepts RFC3339 timestamps or plain dates.
func timeQuery(c *gin.Context, name string) (*time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	for _, layout := range []string{time.RFC3339, dateLayout} {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return &parsed, true
		}
	}
	response.Error(c, appErrors.Clone(appErrors.ErrValidation, name+" must be an RFC3339 timestamp or YYYY-MM-DD"))
	return nil, false
}

func intQuery(c *gin.Context, name string, fallback int) int {
	if raw := c.Query(name); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			return v
		}
	}
	return fallback
}
