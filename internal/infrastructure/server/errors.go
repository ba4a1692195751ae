package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/doeshing/fieldx/internal/domain"
)

const (
	codeNotFound    = "NOT_FOUND"
	codeRateLimited = "RATE_LIMITED"
	codeBusy        = "BUSY"
	codeInternal    = "INTERNAL_ERROR"
	codeCanceled    = "CANCELED"
)

// statusClientClosedRequest is the de facto status for a request the client abandoned.
const statusClientClosedRequest = 499

var (
	errRateLimited = errors.New("extraction rate limit exceeded, try again shortly")
	errBusy        = errors.New("server busy")
)

var validationErrors = []error{
	domain.ErrFieldEmpty,
	domain.ErrFieldExists,
	domain.ErrFieldLimit,
	domain.ErrFieldIndex,
	domain.ErrNoFields,
	domain.ErrNoDocument,
	domain.ErrNotRequested,
	domain.ErrInvalidStyle,
	domain.ErrWordLimit,
	domain.ErrPageLimit,
	domain.ErrUnknownModel,
}

// statusFor maps an error to an HTTP status and error code.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		return http.StatusNotFound, codeNotFound
	case errors.Is(err, errRateLimited):
		return http.StatusTooManyRequests, codeRateLimited
	case errors.Is(err, errBusy):
		return http.StatusServiceUnavailable, codeBusy
	case errors.Is(err, context.Canceled):
		return statusClientClosedRequest, codeCanceled
	case errors.Is(err, domain.ErrDocumentTooLarge):
		return http.StatusRequestEntityTooLarge, domain.CodeDocument
	case errors.Is(err, domain.ErrUnsupportedDocument):
		return http.StatusUnsupportedMediaType, domain.CodeDocument
	}
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return http.StatusBadRequest, domain.CodeValidation
		}
	}
	switch code := domain.ErrorCode(err); code {
	case domain.CodeNetwork, domain.CodeAI:
		return http.StatusBadGateway, code
	case domain.CodeConfig:
		return http.StatusServiceUnavailable, code
	case "":
		return http.StatusInternalServerError, codeInternal
	default:
		return http.StatusInternalServerError, code
	}
}

// handleError writes {"error": {"code", "message"}}.
func handleError(c *gin.Context, err error) {
	status, code := statusFor(err)
	c.AbortWithStatusJSON(status, gin.H{"error": gin.H{"code": code, "message": err.Error()}})
}

func badRequest(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": gin.H{"code": domain.CodeValidation, "message": message}})
}
