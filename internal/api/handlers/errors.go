// server/internal/api/handlers/errors.go
package handlers

import (
	"errors"
	"net/http"

	"freight-exchange-api-server/internal/matching"

	"github.com/gin-gonic/gin"
)

// respondError maps engine error kinds to HTTP statuses. Anything the
// engine does not classify is a 500.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, matching.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, matching.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, matching.ErrDuplicateOffer):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, matching.ErrInvalidState):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
