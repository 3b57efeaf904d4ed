package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "bookcatalog/internal/errors"
	"bookcatalog/internal/models"
	"bookcatalog/internal/services"
)

// ProductHandler handles catalog product requests
type ProductHandler struct {
	productService services.ProductServicer
	auditService   services.AuditServicer
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(productService services.ProductServicer, auditService services.AuditServicer) *ProductHandler {
	return &ProductHandler{productService: productService, auditService: auditService}
}

// ProductRequest represents the request payload for creating or replacing a
// product. Dates use the YYYY-MM-DD layout.
type ProductRequest struct {
	Name             string  `json:"name" binding:"required,max=255"`
	Active           *bool   `json:"active"`
	IsBook           bool    `json:"is_book"`
	ISBN             string  `json:"isbn" binding:"max=64"`
	NumberOfPages    int     `json:"number_of_pages" binding:"min=0"`
	Copies           *int    `json:"copies" binding:"omitempty,min=0"`
	Rating           string  `json:"rating" binding:"omitempty,book_rating"`
	DateStartReading *string `json:"date_start_reading" binding:"omitempty,datetime=2006-01-02"`
	DateEndReading   *string `json:"date_end_reading" binding:"omitempty,datetime=2006-01-02"`
	PublicationDate  *string `json:"publication_date" binding:"omitempty,datetime=2006-01-02"`
	PublisherID      *uint   `json:"publisher_id" binding:"omitempty,min=1"`
	AuthorIDs        []uint  `json:"author_ids" binding:"omitempty,dive,min=1"`
	GenreIDs         []uint  `json:"genre_ids" binding:"omitempty,dive,min=1"`
	LanguageCode     string  `json:"language_code" binding:"omitempty,language_code"`
	Binding          string  `json:"binding" binding:"omitempty,book_binding"`
	Edition          string  `json:"edition" binding:"max=100"`
	Synopsis         string  `json:"synopsis"`
	ReadingNotes     string  `json:"reading_notes"`
	Condition        string  `json:"condition" binding:"omitempty,book_condition"`
	Sequence         *int    `json:"sequence"`
}

func (r *ProductRequest) toInput() (services.ProductInput, error) {
	startReading, err := parseDate("date_start_reading", r.DateStartReading)
	if err != nil {
		return services.ProductInput{}, err
	}
	endReading, err := parseDate("date_end_reading", r.DateEndReading)
	if err != nil {
		return services.ProductInput{}, err
	}
	published, err := parseDate("publication_date", r.PublicationDate)
	if err != nil {
		return services.ProductInput{}, err
	}

	return services.ProductInput{
		Name:             r.Name,
		Active:           r.Active,
		IsBook:           r.IsBook,
		ISBN:             r.ISBN,
		NumberOfPages:    r.NumberOfPages,
		Copies:           r.Copies,
		Rating:           models.Rating(r.Rating),
		DateStartReading: startReading,
		DateEndReading:   endReading,
		PublicationDate:  published,
		PublisherID:      r.PublisherID,
		AuthorIDs:        r.AuthorIDs,
		GenreIDs:         r.GenreIDs,
		LanguageCode:     r.LanguageCode,
		Binding:          models.Binding(r.Binding),
		Edition:          r.Edition,
		Synopsis:         r.Synopsis,
		ReadingNotes:     r.ReadingNotes,
		Condition:        models.Condition(r.Condition),
		Sequence:         r.Sequence,
	}, nil
}

// ProductListQuery holds the query parameters of the product listing.
type ProductListQuery struct {
	IsBook           *bool  `form:"is_book"`
	Active           *bool  `form:"active"`
	GenreID          *uint  `form:"genre_id" binding:"omitempty,min=1"`
	IncludeSubgenres bool   `form:"include_subgenres"`
	AuthorID         *uint  `form:"author_id" binding:"omitempty,min=1"`
	PublisherID      *uint  `form:"publisher_id" binding:"omitempty,min=1"`
	PublisherCountry string `form:"publisher_country" binding:"omitempty,country_code"`
	ISBN             string `form:"isbn" binding:"omitempty,isbn13"`
	Search           string `form:"search" binding:"max=255"`
}

// PublisherCountryRequest sets the country of a product's publisher.
type PublisherCountryRequest struct {
	CountryCode string `json:"country_code" binding:"required,country_code"`
}

// CreateProduct handles the creation of a new product
// @Summary     Create a product
// @Description Create a catalog product; the ISBN is validated and stored normalized
// @Tags        products
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body ProductRequest true "Product details"
// @Success     201 {object} models.Product "Product created"
// @Failure     400 {object} ErrorResponse "Invalid input or ISBN"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     409 {object} ErrorResponse "Duplicate ISBN or book"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /products [post]
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	input, err := req.toInput()
	if err != nil {
		respondWithError(c, err)
		return
	}

	product, err := h.productService.CreateProduct(input)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "CREATE_PRODUCT", "product", product.ID, c.ClientIP(), map[string]any{
		"name": product.Name,
		"isbn": product.ISBN,
	})
	c.JSON(http.StatusCreated, gin.H{"product": product})
}

// ListProducts handles listing products
// @Summary     List products
// @Description List products in catalog order with optional filters
// @Tags        products
// @Produce     json
// @Param       is_book           query bool   false "Only books (true) or only non-books (false)"
// @Param       active            query bool   false "Filter by active flag"
// @Param       genre_id          query int    false "Genre ID"
// @Param       include_subgenres query bool   false "Include subgenres of genre_id"
// @Param       author_id         query int    false "Author partner ID"
// @Param       publisher_id      query int    false "Publisher partner ID"
// @Param       publisher_country query string false "Two-letter country of the publisher"
// @Param       isbn              query string false "Exact ISBN-13, separators allowed"
// @Param       search            query string false "Substring of name or ISBN"
// @Param       page              query int    false "Page number"
// @Param       page_size         query int    false "Page size"
// @Success     200 {object} map[string]interface{} "Paginated products"
// @Failure     400 {object} ErrorResponse "Invalid filter"
// @Router      /products [get]
func (h *ProductHandler) ListProducts(c *gin.Context) {
	page, err := bindPage(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	var q ProductListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	result, err := h.productService.ListProducts(page, services.ProductFilter{
		IsBook:           q.IsBook,
		Active:           q.Active,
		GenreID:          q.GenreID,
		IncludeSubgenres: q.IncludeSubgenres,
		AuthorID:         q.AuthorID,
		PublisherID:      q.PublisherID,
		PublisherCountry: q.PublisherCountry,
		ISBN:             q.ISBN,
		Search:           q.Search,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetProduct handles fetching one product
// @Summary     Get product by ID
// @Tags        products
// @Produce     json
// @Param       id path int true "Product ID"
// @Success     200 {object} models.Product "Product details"
// @Failure     404 {object} ErrorResponse "Product not found"
// @Router      /products/{id} [get]
func (h *ProductHandler) GetProduct(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	product, err := h.productService.GetProduct(id)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"product": product})
}

// UpdateProduct handles replacing a product
// @Summary     Update product
// @Tags        products
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path int            true "Product ID"
// @Param       request body ProductRequest true "Product details"
// @Success     200 {object} models.Product "Updated product"
// @Failure     400 {object} ErrorResponse "Invalid input or ISBN"
// @Failure     404 {object} ErrorResponse "Product not found"
// @Failure     409 {object} ErrorResponse "Duplicate ISBN or book"
// @Router      /products/{id} [put]
func (h *ProductHandler) UpdateProduct(c *gin.Context) {
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

	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	input, err := req.toInput()
	if err != nil {
		respondWithError(c, err)
		return
	}

	product, err := h.productService.UpdateProduct(id, input)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "UPDATE_PRODUCT", "product", product.ID, c.ClientIP(), map[string]any{
		"name": product.Name,
		"isbn": product.ISBN,
	})
	c.JSON(http.StatusOK, gin.H{"product": product})
}

// DeleteProduct handles deleting a product
// @Summary     Delete product
// @Tags        products
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Product ID"
// @Success     200 {object} map[string]interface{} "Deletion confirmed"
// @Failure     404 {object} ErrorResponse "Product not found"
// @Router      /products/{id} [delete]
func (h *ProductHandler) DeleteProduct(c *gin.Context) {
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

	if err := h.productService.DeleteProduct(id); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "DELETE_PRODUCT", "product", id, c.ClientIP(), nil)
	c.JSON(http.StatusOK, gin.H{"message": "Product deleted successfully"})
}

// CheckISBN handles the on-demand ISBN check of a stored product
// @Summary     Check product ISBN
// @Description Validate the stored ISBN and return a notification
// @Tags        products
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Product ID"
// @Success     200 {object} services.ISBNCheck "ISBN OK"
// @Failure     400 {object} ErrorResponse "Missing or invalid ISBN"
// @Failure     404 {object} ErrorResponse "Product not found"
// @Router      /products/{id}/check-isbn [post]
func (h *ProductHandler) CheckISBN(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	check, err := h.productService.CheckISBN(id)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notification": check})
}

// SetPublisherCountry handles editing the country of a product's publisher
// @Summary     Set publisher country
// @Description Write the given country through to the product's publisher
// @Tags        products
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path int                     true "Product ID"
// @Param       request body PublisherCountryRequest true "Country"
// @Success     200 {object} models.Product "Updated product"
// @Failure     400 {object} ErrorResponse "Invalid input or no publisher"
// @Failure     404 {object} ErrorResponse "Product not found"
// @Router      /products/{id}/publisher-country [put]
func (h *ProductHandler) SetPublisherCountry(c *gin.Context) {
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

	var req PublisherCountryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	product, err := h.productService.SetPublisherCountry(id, req.CountryCode)
	if err != nil {
		respondWithError(c, err)
		return
	}

	if product.PublisherID != nil {
		h.auditService.Log(userID, "UPDATE_PARTNER", "partner", *product.PublisherID, c.ClientIP(), map[string]any{
			"country_code": product.PublisherCountry,
		})
	}
	c.JSON(http.StatusOK, gin.H{"product": product})
}
