package api

import (
	"errors"
	"net/http"

	"wati-proxy/internal/database"
	"wati-proxy/internal/proxy"
	"wati-proxy/internal/wati"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// ValidationError marks a request the caller has to fix.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(msg string) error {
	return &ValidationError{Message: msg}
}

// bindError converts a binder failure into a ValidationError, keeping
// oversized bodies distinct.
func bindError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return err
	}
	return &ValidationError{Message: err.Error()}
}

// respondError maps err onto a status code and JSON body. Every handler
// reports failures through here.
func respondError(c *gin.Context, err error) {
	var (
		validation *ValidationError
		missing    *proxy.ConfigurationMissingError
		tooLarge   *http.MaxBytesError
	)

	switch {
	case errors.As(err, &validation),
		errors.Is(err, wati.ErrInvalidAction),
		errors.Is(err, wati.ErrInvalidPayload):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.As(err, &missing):
		c.JSON(http.StatusBadRequest, gin.H{
			"error": missing.Error(),
			"details": gin.H{
				"hasApiKey": missing.HasAPIKey,
				"hasApiUrl": missing.HasAPIURL,
			},
		})
	case errors.Is(err, database.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Resource not found"})
	case errors.As(err, &tooLarge):
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Request body too large"})
	default:
		log.Error().Err(err).Str("method", c.Request.Method).Str("path", c.FullPath()).Msg("Request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error", "message": err.Error()})
	}
}
