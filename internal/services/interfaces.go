package services

import (
	"time"

	"bookcatalog/internal/models"
	"bookcatalog/internal/pagination"
)

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	CreateUser(email, password, firstName, lastName string) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	GetUserByID(id uint) (*models.User, error)
	VerifyPassword(user *models.User, password string) bool
	AttemptLogin(email, password string) (*models.User, error)
	StoreRefreshTokenHash(userID uint, tokenHash string) error
	GetRefreshTokenHash(userID uint) (string, error)
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(userID uint, action, resourceType string, resourceID uint, ipAddress string, changes map[string]any)
}

// GenreUpdate carries the optional changes of an UpdateGenre call.
// ClearParent moves the genre to the top level and wins over ParentID.
type GenreUpdate struct {
	Name        *string
	ParentID    *uint
	ClearParent bool
	Notes       *string
	Color       *int
}

// GenreServicer defines the contract for the genre hierarchy.
type GenreServicer interface {
	CreateGenre(name string, parentID *uint, notes string, color int) (*models.Genre, error)
	GetGenre(id uint) (*models.Genre, error)
	ListGenres(page pagination.PageRequest) (*pagination.PageResponse[models.Genre], error)
	GetRootGenres() ([]models.Genre, error)
	GetChildren(id uint) ([]models.Genre, error)
	GetAncestors(id uint) ([]models.Genre, error)
	UpdateGenre(id uint, update GenreUpdate) (*models.Genre, error)
	DeleteGenre(id uint) ([]uint, error)
	GetGenreProducts(id uint, includeSubgenres bool, page pagination.PageRequest) (*pagination.PageResponse[models.Product], error)
}

// PartnerInput holds the writable fields of a partner.
type PartnerInput struct {
	Name        string
	CompanyType models.CompanyType
	IsAuthor    bool
	IsPublisher bool
	CountryCode string
	Email       string
}

// PartnerFilter holds optional filter parameters for listing partners.
type PartnerFilter struct {
	IsAuthor    *bool
	IsPublisher *bool
	Search      string
}

// PartnerServicer defines the contract for authors and publishers.
type PartnerServicer interface {
	CreatePartner(input PartnerInput) (*models.Partner, error)
	GetPartner(id uint) (*models.Partner, error)
	ListPartners(page pagination.PageRequest, filter PartnerFilter) (*pagination.PageResponse[models.Partner], error)
	UpdatePartner(id uint, input PartnerInput) (*models.Partner, error)
	DeletePartner(id uint) error
	GetAuthoredProducts(id uint, page pagination.PageRequest) (*pagination.PageResponse[models.Product], error)
	GetPublishedProducts(id uint, page pagination.PageRequest) (*pagination.PageResponse[models.Product], error)
}

// ProductInput holds the writable fields of a product. Nil pointers fall
// back to the catalog defaults on create and on update alike.
type ProductInput struct {
	Name             string
	Active           *bool
	IsBook           bool
	ISBN             string
	NumberOfPages    int
	Copies           *int
	Rating           models.Rating
	DateStartReading *time.Time
	DateEndReading   *time.Time
	PublicationDate  *time.Time
	PublisherID      *uint
	AuthorIDs        []uint
	GenreIDs         []uint
	LanguageCode     string
	Binding          models.Binding
	Edition          string
	Synopsis         string
	ReadingNotes     string
	Condition        models.Condition
	Sequence         *int
}

// ProductFilter holds optional filter parameters for listing products.
type ProductFilter struct {
	IsBook           *bool
	Active           *bool
	GenreID          *uint
	IncludeSubgenres bool
	AuthorID         *uint
	PublisherID      *uint
	PublisherCountry string
	ISBN             string
	Search           string
}

// ISBNCheck is the notification returned by a successful ISBN check.
type ISBNCheck struct {
	Title   string `json:"title"`
	Message string `json:"message"`
	Type    string `json:"type"`
}

// ProductServicer defines the contract for catalog products.
type ProductServicer interface {
	CreateProduct(input ProductInput) (*models.Product, error)
	GetProduct(id uint) (*models.Product, error)
	ListProducts(page pagination.PageRequest, filter ProductFilter) (*pagination.PageResponse[models.Product], error)
	UpdateProduct(id uint, input ProductInput) (*models.Product, error)
	DeleteProduct(id uint) error
	CheckISBN(id uint) (*ISBNCheck, error)
	SetPublisherCountry(id uint, countryCode string) (*models.Product, error)
}
