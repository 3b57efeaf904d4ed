package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "bookcatalog/internal/errors"
	"bookcatalog/internal/services"
)

// GenreHandler handles genre hierarchy requests
type GenreHandler struct {
	genreService services.GenreServicer
	auditService services.AuditServicer
}

// NewGenreHandler creates a new GenreHandler
func NewGenreHandler(genreService services.GenreServicer, auditService services.AuditServicer) *GenreHandler {
	return &GenreHandler{genreService: genreService, auditService: auditService}
}

// CreateGenreRequest represents the request payload for creating a genre
type CreateGenreRequest struct {
	Name     string `json:"name" binding:"required,max=255"`
	ParentID *uint  `json:"parent_id" binding:"omitempty,min=1"`
	Notes    string `json:"notes" binding:"max=2000"`
	Color    int    `json:"color" binding:"min=0,max=11"`
}

// UpdateGenreRequest represents the request payload for updating a genre.
// Omitted fields are left unchanged; clear_parent moves the genre to the top level.
type UpdateGenreRequest struct {
	Name        *string `json:"name" binding:"omitempty,max=255"`
	ParentID    *uint   `json:"parent_id" binding:"omitempty,min=1"`
	ClearParent bool    `json:"clear_parent"`
	Notes       *string `json:"notes" binding:"omitempty,max=2000"`
	Color       *int    `json:"color" binding:"omitempty,min=0,max=11"`
}

// CreateGenre handles the creation of a new genre
// @Summary     Create a genre
// @Description Create a genre at the top level or under a parent genre
// @Tags        genres
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateGenreRequest true "Genre details"
// @Success     201 {object} models.Genre "Genre created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Parent genre not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /genres [post]
func (h *GenreHandler) CreateGenre(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateGenreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	genre, err := h.genreService.CreateGenre(req.Name, req.ParentID, req.Notes, req.Color)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "CREATE_GENRE", "genre", genre.ID, c.ClientIP(), map[string]any{
		"complete_name": genre.CompleteName,
	})
	c.JSON(http.StatusCreated, gin.H{"genre": genre})
}

// ListGenres handles listing genres
// @Summary     List genres
// @Description List genres ordered by complete name
// @Tags        genres
// @Produce     json
// @Param       page      query int false "Page number"
// @Param       page_size query int false "Page size"
// @Success     200 {object} map[string]interface{} "Paginated genres"
// @Failure     400 {object} ErrorResponse "Invalid pagination"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /genres [get]
func (h *GenreHandler) ListGenres(c *gin.Context) {
	page, err := bindPage(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.genreService.ListGenres(page)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetRootGenres handles listing the top-level genres
// @Summary     List top-level genres
// @Tags        genres
// @Produce     json
// @Success     200 {array} models.Genre "Top-level genres in display order"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /genres/roots [get]
func (h *GenreHandler) GetRootGenres(c *gin.Context) {
	roots, err := h.genreService.GetRootGenres()
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"genres": roots})
}

// GetGenre handles fetching one genre
// @Summary     Get genre by ID
// @Tags        genres
// @Produce     json
// @Param       id path int true "Genre ID"
// @Success     200 {object} models.Genre "Genre details"
// @Failure     400 {object} ErrorResponse "Invalid genre ID"
// @Failure     404 {object} ErrorResponse "Genre not found"
// @Router      /genres/{id} [get]
func (h *GenreHandler) GetGenre(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	genre, err := h.genreService.GetGenre(id)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"genre": genre})
}

// GetChildren handles listing the direct subgenres of a genre
// @Summary     List subgenres
// @Tags        genres
// @Produce     json
// @Param       id path int true "Genre ID"
// @Success     200 {array} models.Genre "Direct subgenres in display order"
// @Failure     404 {object} ErrorResponse "Genre not found"
// @Router      /genres/{id}/children [get]
func (h *GenreHandler) GetChildren(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	children, err := h.genreService.GetChildren(id)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"genres": children})
}

// GetAncestors handles listing the ancestors of a genre
// @Summary     List ancestor genres
// @Tags        genres
// @Produce     json
// @Param       id path int true "Genre ID"
// @Success     200 {array} models.Genre "Ancestors from the top level down"
// @Failure     404 {object} ErrorResponse "Genre not found"
// @Router      /genres/{id}/ancestors [get]
func (h *GenreHandler) GetAncestors(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	ancestors, err := h.genreService.GetAncestors(id)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"genres": ancestors})
}

// GetGenreProducts handles listing the products of a genre
// @Summary     List products in a genre
// @Tags        genres
// @Produce     json
// @Param       id                path  int  true  "Genre ID"
// @Param       include_subgenres query bool false "Also list products of every subgenre"
// @Param       page              query int  false "Page number"
// @Param       page_size         query int  false "Page size"
// @Success     200 {object} map[string]interface{} "Paginated products"
// @Failure     404 {object} ErrorResponse "Genre not found"
// @Router      /genres/{id}/products [get]
func (h *GenreHandler) GetGenreProducts(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}
	page, err := bindPage(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	include, err := queryBool(c, "include_subgenres")
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.genreService.GetGenreProducts(id, include != nil && *include, page)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// UpdateGenre handles renaming, moving and editing a genre
// @Summary     Update genre
// @Description Rename or move a genre; complete names of the whole subtree follow
// @Tags        genres
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path int                true "Genre ID"
// @Param       request body UpdateGenreRequest true "Changes"
// @Success     200 {object} models.Genre "Updated genre"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Genre not found"
// @Failure     409 {object} ErrorResponse "Move would create a cycle"
// @Router      /genres/{id} [put]
func (h *GenreHandler) UpdateGenre(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateGenreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	genre, err := h.genreService.UpdateGenre(id, services.GenreUpdate{
		Name:        req.Name,
		ParentID:    req.ParentID,
		ClearParent: req.ClearParent,
		Notes:       req.Notes,
		Color:       req.Color,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "UPDATE_GENRE", "genre", genre.ID, c.ClientIP(), map[string]any{
		"complete_name": genre.CompleteName,
		"parent_id":     genre.ParentID,
	})
	c.JSON(http.StatusOK, gin.H{"genre": genre})
}

// DeleteGenre handles deleting a genre and its subtree
// @Summary     Delete genre
// @Description Delete a genre together with all of its subgenres
// @Tags        genres
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Genre ID"
// @Success     200 {object} map[string]interface{} "Removed genre ids"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Genre not found"
// @Router      /genres/{id} [delete]
func (h *GenreHandler) DeleteGenre(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	removed, err := h.genreService.DeleteGenre(id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "DELETE_GENRE", "genre", id, c.ClientIP(), map[string]any{
		"removed_ids": removed,
	})
	c.JSON(http.StatusOK, gin.H{"removed_ids": removed})
}
