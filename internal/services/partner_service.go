package services

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	apperrors "bookcatalog/internal/errors"
	"bookcatalog/internal/models"
	"bookcatalog/internal/pagination"
)

// partnerService handles authors and publishers.
type partnerService struct {
	db *gorm.DB
}

// NewPartnerService creates a new PartnerServicer.
func NewPartnerService(db *gorm.DB) PartnerServicer {
	return &partnerService{db: db}
}

// CreatePartner creates a new partner
func (s *partnerService) CreatePartner(input PartnerInput) (*models.Partner, error) {
	partner := &models.Partner{}
	if err := applyPartnerInput(partner, input); err != nil {
		return nil, err
	}

	if err := s.db.Create(partner).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return partner, nil
}

// GetPartner retrieves a partner by ID
func (s *partnerService) GetPartner(id uint) (*models.Partner, error) {
	var partner models.Partner
	if err := s.db.First(&partner, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrPartnerNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &partner, nil
}

// ListPartners retrieves a filtered, paginated list of partners ordered by name.
func (s *partnerService) ListPartners(page pagination.PageRequest, filter PartnerFilter) (*pagination.PageResponse[models.Partner], error) {
	page.Defaults()

	query := s.db.Model(&models.Partner{})
	if filter.IsAuthor != nil {
		query = query.Where("is_author = ?", *filter.IsAuthor)
	}
	if filter.IsPublisher != nil {
		query = query.Where("is_publisher = ?", *filter.IsPublisher)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		query = query.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(search)+"%")
	}
	base := query.Session(&gorm.Session{})

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var partners []models.Partner
	if err := base.Order("name, id").Scopes(pagination.Paginate(page)).Find(&partners).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(partners, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// UpdatePartner replaces the writable fields of a partner. Losing the author
// or publisher role is refused while products still reference it.
func (s *partnerService) UpdatePartner(id uint, input PartnerInput) (*models.Partner, error) {
	partner, err := s.GetPartner(id)
	if err != nil {
		return nil, err
	}
	wasAuthor, wasPublisher := partner.IsAuthor, partner.IsPublisher

	if err := applyPartnerInput(partner, input); err != nil {
		return nil, err
	}

	if wasAuthor && !partner.IsAuthor {
		var count int64
		if err := s.db.Table("product_authors").Where("partner_id = ?", id).Count(&count).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if count > 0 {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "partner is still the author of products")
		}
	}
	if wasPublisher && !partner.IsPublisher {
		var count int64
		if err := s.db.Model(&models.Product{}).Where("publisher_id = ?", id).Count(&count).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if count > 0 {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "partner is still the publisher of products")
		}
	}

	if err := s.db.Save(partner).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return partner, nil
}

// DeletePartner removes a partner. Products keep existing without the
// deleted publisher or author.
func (s *partnerService) DeletePartner(id uint) error {
	partner, err := s.GetPartner(id)
	if err != nil {
		return err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Product{}).Where("publisher_id = ?", id).Update("publisher_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM product_authors WHERE partner_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(partner).Error
	})
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// GetAuthoredProducts lists the products written by a partner.
func (s *partnerService) GetAuthoredProducts(id uint, page pagination.PageRequest) (*pagination.PageResponse[models.Product], error) {
	if _, err := s.GetPartner(id); err != nil {
		return nil, err
	}
	authored := s.db.Table("product_authors").Select("product_id").Where("partner_id = ?", id)
	return paginateProducts(s.db.Model(&models.Product{}).Where("id IN (?)", authored), page)
}

// GetPublishedProducts lists the products published by a partner.
func (s *partnerService) GetPublishedProducts(id uint, page pagination.PageRequest) (*pagination.PageResponse[models.Product], error) {
	if _, err := s.GetPartner(id); err != nil {
		return nil, err
	}
	return paginateProducts(s.db.Model(&models.Product{}).Where("publisher_id = ?", id), page)
}

func applyPartnerInput(partner *models.Partner, input PartnerInput) error {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "partner name is required")
	}

	partner.Name = name
	partner.CompanyType = input.CompanyType
	if partner.CompanyType == "" {
		partner.CompanyType = models.CompanyTypePerson
	}
	partner.IsAuthor = input.IsAuthor
	partner.IsPublisher = input.IsPublisher
	partner.CountryCode = strings.ToUpper(input.CountryCode)
	partner.Email = strings.ToLower(strings.TrimSpace(input.Email))
	partner.ApplyCompanyType()
	return nil
}
