package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "bookcatalog/internal/errors"
	"bookcatalog/internal/models"
	"bookcatalog/internal/pagination"
	"bookcatalog/internal/services"
)

// PartnerHandler handles author and publisher requests
type PartnerHandler struct {
	partnerService services.PartnerServicer
	auditService   services.AuditServicer
}

// NewPartnerHandler creates a new PartnerHandler
func NewPartnerHandler(partnerService services.PartnerServicer, auditService services.AuditServicer) *PartnerHandler {
	return &PartnerHandler{partnerService: partnerService, auditService: auditService}
}

// PartnerRequest represents the request payload for creating or replacing a partner
type PartnerRequest struct {
	Name        string `json:"name" binding:"required,max=255"`
	CompanyType string `json:"company_type" binding:"omitempty,company_type"`
	IsAuthor    bool   `json:"is_author"`
	IsPublisher bool   `json:"is_publisher"`
	CountryCode string `json:"country_code" binding:"omitempty,country_code"`
	Email       string `json:"email" binding:"omitempty,email,max=255"`
}

func (r *PartnerRequest) toInput() services.PartnerInput {
	return services.PartnerInput{
		Name:        r.Name,
		CompanyType: models.CompanyType(r.CompanyType),
		IsAuthor:    r.IsAuthor,
		IsPublisher: r.IsPublisher,
		CountryCode: r.CountryCode,
		Email:       r.Email,
	}
}

// CreatePartner handles the creation of a new partner
// @Summary     Create a partner
// @Description Create an author, a publisher or both; people never publish and companies never author
// @Tags        partners
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body PartnerRequest true "Partner details"
// @Success     201 {object} models.Partner "Partner created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /partners [post]
func (h *PartnerHandler) CreatePartner(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req PartnerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	partner, err := h.partnerService.CreatePartner(req.toInput())
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "CREATE_PARTNER", "partner", partner.ID, c.ClientIP(), map[string]any{
		"name":         partner.Name,
		"is_author":    partner.IsAuthor,
		"is_publisher": partner.IsPublisher,
	})
	c.JSON(http.StatusCreated, gin.H{"partner": partner})
}

// ListPartners handles listing partners
// @Summary     List partners
// @Tags        partners
// @Produce     json
// @Param       is_author    query bool   false "Filter by author role"
// @Param       is_publisher query bool   false "Filter by publisher role"
// @Param       search       query string false "Substring of name"
// @Param       page         query int    false "Page number"
// @Param       page_size    query int    false "Page size"
// @Success     200 {object} map[string]interface{} "Paginated partners"
// @Failure     400 {object} ErrorResponse "Invalid filter"
// @Router      /partners [get]
func (h *PartnerHandler) ListPartners(c *gin.Context) {
	page, err := bindPage(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	isAuthor, err := queryBool(c, "is_author")
	if err != nil {
		respondWithError(c, err)
		return
	}
	isPublisher, err := queryBool(c, "is_publisher")
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.partnerService.ListPartners(page, services.PartnerFilter{
		IsAuthor:    isAuthor,
		IsPublisher: isPublisher,
		Search:      c.Query("search"),
	})
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetPartner handles fetching one partner
// @Summary     Get partner by ID
// @Tags        partners
// @Produce     json
// @Param       id path int true "Partner ID"
// @Success     200 {object} models.Partner "Partner details"
// @Failure     404 {object} ErrorResponse "Partner not found"
// @Router      /partners/{id} [get]
func (h *PartnerHandler) GetPartner(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	partner, err := h.partnerService.GetPartner(id)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"partner": partner})
}

// UpdatePartner handles replacing a partner
// @Summary     Update partner
// @Tags        partners
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path int            true "Partner ID"
// @Param       request body PartnerRequest true "Partner details"
// @Success     200 {object} models.Partner "Updated partner"
// @Failure     400 {object} ErrorResponse "Invalid input or role still in use"
// @Failure     404 {object} ErrorResponse "Partner not found"
// @Router      /partners/{id} [put]
func (h *PartnerHandler) UpdatePartner(c *gin.Context) {
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

	var req PartnerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	partner, err := h.partnerService.UpdatePartner(id, req.toInput())
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "UPDATE_PARTNER", "partner", partner.ID, c.ClientIP(), map[string]any{
		"name":         partner.Name,
		"country_code": partner.CountryCode,
	})
	c.JSON(http.StatusOK, gin.H{"partner": partner})
}

// DeletePartner handles deleting a partner
// @Summary     Delete partner
// @Description Delete a partner; its products lose the publisher and author links
// @Tags        partners
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Partner ID"
// @Success     200 {object} map[string]interface{} "Deletion confirmed"
// @Failure     404 {object} ErrorResponse "Partner not found"
// @Router      /partners/{id} [delete]
func (h *PartnerHandler) DeletePartner(c *gin.Context) {
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

	if err := h.partnerService.DeletePartner(id); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "DELETE_PARTNER", "partner", id, c.ClientIP(), nil)
	c.JSON(http.StatusOK, gin.H{"message": "Partner deleted successfully"})
}

// GetAuthoredProducts handles listing the products a partner wrote
// @Summary     List authored products
// @Tags        partners
// @Produce     json
// @Param       id        path  int true  "Partner ID"
// @Param       page      query int false "Page number"
// @Param       page_size query int false "Page size"
// @Success     200 {object} map[string]interface{} "Paginated products"
// @Failure     404 {object} ErrorResponse "Partner not found"
// @Router      /partners/{id}/authored [get]
func (h *PartnerHandler) GetAuthoredProducts(c *gin.Context) {
	h.listProducts(c, h.partnerService.GetAuthoredProducts)
}

// GetPublishedProducts handles listing the products a partner published
// @Summary     List published products
// @Tags        partners
// @Produce     json
// @Param       id        path  int true  "Partner ID"
// @Param       page      query int false "Page number"
// @Param       page_size query int false "Page size"
// @Success     200 {object} map[string]interface{} "Paginated products"
// @Failure     404 {object} ErrorResponse "Partner not found"
// @Router      /partners/{id}/published [get]
func (h *PartnerHandler) GetPublishedProducts(c *gin.Context) {
	h.listProducts(c, h.partnerService.GetPublishedProducts)
}

func (h *PartnerHandler) listProducts(c *gin.Context, list func(uint, pagination.PageRequest) (*pagination.PageResponse[models.Product], error)) {
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

	result, err := list(id, page)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
