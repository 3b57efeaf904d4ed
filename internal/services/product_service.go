package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "bookcatalog/internal/errors"
	"bookcatalog/internal/isbn"
	"bookcatalog/internal/models"
	"bookcatalog/internal/pagination"
)

const (
	defaultCopies   = 1
	defaultSequence = 10
)

// productService handles catalog products and their book attributes.
type productService struct {
	db  *gorm.DB
	now func() time.Time
}

// NewProductService creates a new ProductServicer.
func NewProductService(db *gorm.DB) ProductServicer {
	return &productService{db: db, now: time.Now}
}

// CreateProduct validates and stores a new product with its authors and genres.
func (s *productService) CreateProduct(input ProductInput) (*models.Product, error) {
	product := &models.Product{}
	authors, genres, err := s.apply(product, input)
	if err != nil {
		return nil, err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := checkUnique(tx, product); err != nil {
			return err
		}
		if err := tx.Omit(clause.Associations).Create(product).Error; err != nil {
			return err
		}
		return replaceLinks(tx, product, authors, genres)
	})
	if err != nil {
		return nil, s.writeError(product, err)
	}

	return s.GetProduct(product.ID)
}

// GetProduct retrieves a product with its publisher, authors and genres.
func (s *productService) GetProduct(id uint) (*models.Product, error) {
	var product models.Product
	err := s.db.Scopes(withRelations).First(&product, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrProductNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &product, nil
}

// ListProducts retrieves a filtered, paginated list of products.
func (s *productService) ListProducts(page pagination.PageRequest, filter ProductFilter) (*pagination.PageResponse[models.Product], error) {
	query := s.db.Model(&models.Product{})

	if filter.IsBook != nil {
		query = query.Where("is_book = ?", *filter.IsBook)
	}
	if filter.Active != nil {
		query = query.Where("active = ?", *filter.Active)
	}
	if filter.PublisherID != nil {
		query = query.Where("publisher_id = ?", *filter.PublisherID)
	}
	if filter.AuthorID != nil {
		authored := s.db.Table("product_authors").Select("product_id").Where("partner_id = ?", *filter.AuthorID)
		query = query.Where("id IN (?)", authored)
	}
	if filter.GenreID != nil {
		tagged := s.db.Table("product_genres").Select("product_id").Where("genre_id = ?", *filter.GenreID)
		if filter.IncludeSubgenres {
			var genre models.Genre
			if err := s.db.Select("parent_path").First(&genre, *filter.GenreID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return nil, apperrors.ErrGenreNotFound
				}
				return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			subtree := s.db.Model(&models.Genre{}).Select("id").Where("parent_path LIKE ?", genre.ParentPath+"%")
			tagged = s.db.Table("product_genres").Select("product_id").Where("genre_id IN (?)", subtree)
		}
		query = query.Where("id IN (?)", tagged)
	}
	if filter.PublisherCountry != "" {
		publishers := s.db.Model(&models.Partner{}).Select("id").Where("country_code = ?", strings.ToUpper(filter.PublisherCountry))
		query = query.Where("publisher_id IN (?)", publishers)
	}
	if filter.ISBN != "" {
		query = query.Where("isbn = ?", isbn.Validate(filter.ISBN).Normalized)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		query = query.Where("(LOWER(name) LIKE ? OR isbn LIKE ?)", like, like)
	}

	return paginateProducts(query, page)
}

// UpdateProduct replaces the writable fields, authors and genres of a product.
func (s *productService) UpdateProduct(id uint, input ProductInput) (*models.Product, error) {
	var product models.Product
	if err := s.db.First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrProductNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	authors, genres, err := s.apply(&product, input)
	if err != nil {
		return nil, err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := checkUnique(tx, &product); err != nil {
			return err
		}
		if err := tx.Omit(clause.Associations).Save(&product).Error; err != nil {
			return err
		}
		return replaceLinks(tx, &product, authors, genres)
	})
	if err != nil {
		return nil, s.writeError(&product, err)
	}

	return s.GetProduct(id)
}

// DeleteProduct removes a product and its author and genre links.
func (s *productService) DeleteProduct(id uint) error {
	var product models.Product
	if err := s.db.First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrProductNotFound
		}
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if err := s.db.Select("Authors", "Genres").Delete(&product).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// CheckISBN validates the stored ISBN of a product on demand.
func (s *productService) CheckISBN(id uint) (*ISBNCheck, error) {
	var product models.Product
	if err := s.db.First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrProductNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if product.ISBN == nil || *product.ISBN == "" {
		return nil, apperrors.WithMessage(apperrors.ErrMissingISBN, fmt.Sprintf("Provide an ISBN for %s", product.Name))
	}
	if !isbn.IsValid(*product.ISBN) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidISBN, fmt.Sprintf("%s ISBN is invalid", *product.ISBN))
	}
	return &ISBNCheck{Title: "ISBN", Message: "ISBN OK!", Type: "info"}, nil
}

// SetPublisherCountry writes through to the country of the product's publisher.
func (s *productService) SetPublisherCountry(id uint, countryCode string) (*models.Product, error) {
	var product models.Product
	if err := s.db.First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrProductNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if product.PublisherID == nil {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "product has no publisher")
	}

	err := s.db.Model(&models.Partner{}).
		Where("id = ?", *product.PublisherID).
		Update("country_code", strings.ToUpper(countryCode)).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return s.GetProduct(id)
}

// apply validates input against the catalog rules and copies it onto product.
// Uniqueness is checked by checkUnique inside the write transaction.
func (s *productService) apply(product *models.Product, input ProductInput) ([]models.Partner, []models.Genre, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "product name is required")
	}

	var isbnValue *string
	if strings.TrimSpace(input.ISBN) != "" {
		res := isbn.Validate(input.ISBN)
		if !res.Valid {
			return nil, nil, apperrors.WithMessage(apperrors.ErrInvalidISBN, fmt.Sprintf("ISBN %s is invalid", input.ISBN))
		}
		isbnValue = &res.Normalized
	}

	publicationDate := dateOnly(input.PublicationDate)
	if publicationDate != nil {
		if publicationDate.After(*dateOnly(ptr(s.now()))) {
			return nil, nil, apperrors.ErrFuturePublicationDate
		}
	}

	startReading := dateOnly(input.DateStartReading)
	endReading := dateOnly(input.DateEndReading)
	if startReading != nil && endReading != nil && endReading.Before(*startReading) {
		return nil, nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "reading cannot end before it starts")
	}

	if input.PublisherID != nil {
		var publisher models.Partner
		if err := s.db.First(&publisher, *input.PublisherID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, nil, apperrors.WithMessage(apperrors.ErrPartnerNotFound, "publisher not found")
			}
			return nil, nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if !publisher.IsPublisher {
			return nil, nil, apperrors.WithMessage(apperrors.ErrNotAPublisher, fmt.Sprintf("%s is not a publisher", publisher.Name))
		}
	}

	authors := []models.Partner{}
	if ids := uniqueIDs(input.AuthorIDs); len(ids) > 0 {
		if err := s.db.Where("id IN ?", ids).Find(&authors).Error; err != nil {
			return nil, nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if len(authors) != len(ids) {
			return nil, nil, apperrors.WithMessage(apperrors.ErrPartnerNotFound, "author not found")
		}
		for _, a := range authors {
			if !a.IsAuthor {
				return nil, nil, apperrors.WithMessage(apperrors.ErrNotAnAuthor, fmt.Sprintf("%s is not an author", a.Name))
			}
		}
	}

	genres := []models.Genre{}
	if ids := uniqueIDs(input.GenreIDs); len(ids) > 0 {
		if err := s.db.Where("id IN ?", ids).Find(&genres).Error; err != nil {
			return nil, nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if len(genres) != len(ids) {
			return nil, nil, apperrors.ErrGenreNotFound
		}
	}

	product.Name = name
	product.IsBook = input.IsBook
	product.ISBN = isbnValue
	product.NumberOfPages = input.NumberOfPages
	product.PublicationDate = publicationDate
	product.DateStartReading = startReading
	product.DateEndReading = endReading
	product.PublisherID = input.PublisherID
	product.Publisher = nil
	product.LanguageCode = input.LanguageCode
	product.Binding = input.Binding
	product.Edition = input.Edition
	product.Synopsis = input.Synopsis
	product.ReadingNotes = input.ReadingNotes

	product.Active = true
	if input.Active != nil {
		product.Active = *input.Active
	}
	product.Copies = defaultCopies
	if input.Copies != nil {
		product.Copies = *input.Copies
	}
	product.Sequence = defaultSequence
	if input.Sequence != nil {
		product.Sequence = *input.Sequence
	}
	product.Rating = input.Rating
	if product.Rating == "" {
		product.Rating = models.RatingNotRated
	}
	product.Condition = input.Condition
	if product.Condition == "" {
		product.Condition = models.ConditionNew
	}

	return authors, genres, nil
}

// checkUnique reports another product holding the ISBN or the
// (name, publication date) pair of product. product.ID is zero for new
// products and is excluded from the lookup.
func checkUnique(db *gorm.DB, product *models.Product) error {
	if product.ISBN != nil {
		var count int64
		if err := db.Model(&models.Product{}).
			Where("isbn = ? AND id <> ?", *product.ISBN, product.ID).
			Count(&count).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if count > 0 {
			return apperrors.ErrDuplicateISBN
		}
	}
	if product.PublicationDate != nil {
		var count int64
		if err := db.Model(&models.Product{}).
			Where("name = ? AND publication_date = ? AND id <> ?", product.Name, *product.PublicationDate, product.ID).
			Count(&count).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if count > 0 {
			return apperrors.ErrDuplicateBook
		}
	}
	return nil
}

// writeError maps a failed product write onto API errors. A unique index
// violation means a concurrent writer committed the same ISBN or book first.
func (s *productService) writeError(product *models.Product, err error) error {
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		return asAppError(err)
	}
	if conflict := checkUnique(s.db, product); conflict != nil {
		return conflict
	}
	// The conflicting row is gone again; name the index most likely hit.
	if product.ISBN != nil {
		return apperrors.ErrDuplicateISBN
	}
	return apperrors.ErrDuplicateBook
}

// replaceLinks rewrites the author and genre join rows of a product.
func replaceLinks(tx *gorm.DB, product *models.Product, authors []models.Partner, genres []models.Genre) error {
	if err := tx.Model(product).Association("Authors").Replace(authors); err != nil {
		return err
	}
	return tx.Model(product).Association("Genres").Replace(genres)
}

// withRelations preloads everything a product response shows.
func withRelations(db *gorm.DB) *gorm.DB {
	return db.Preload("Publisher").
		Preload("Authors", func(db *gorm.DB) *gorm.DB { return db.Order("name") }).
		Preload("Genres", func(db *gorm.DB) *gorm.DB { return db.Order("complete_name") })
}

// paginateProducts counts and pages a product query in catalog order.
func paginateProducts(query *gorm.DB, page pagination.PageRequest) (*pagination.PageResponse[models.Product], error) {
	page.Defaults()
	base := query.Session(&gorm.Session{})

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var products []models.Product
	err := base.Scopes(withRelations, pagination.Paginate(page)).
		Order("sequence, name, id").
		Find(&products).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(products, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// dateOnly truncates t to midnight UTC of its calendar day.
func dateOnly(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	y, m, d := t.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &day
}

func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func ptr[T any](v T) *T {
	return &v
}
