package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "bookcatalog/internal/errors"
	"bookcatalog/internal/isbn"
)

// ValidateISBN checks an arbitrary ISBN-13 without touching the catalog
// @Summary     Validate an ISBN-13
// @Description Non-digit characters are treated as separators
// @Tags        isbn
// @Produce     json
// @Param       value query string true "Raw ISBN"
// @Success     200 {object} isbn.Result "Validation result"
// @Failure     400 {object} ErrorResponse "Missing value"
// @Router      /isbn/validate [get]
func ValidateISBN(c *gin.Context) {
	raw, ok := c.GetQuery("value")
	if !ok || raw == "" {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "value is required"))
		return
	}
	c.JSON(http.StatusOK, isbn.Validate(raw))
}
