package handlers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	apperrors "bookcatalog/internal/errors"
	"bookcatalog/internal/models"
	"bookcatalog/internal/pagination"
	"bookcatalog/internal/services"
)

// --- mock partner service ---

type mockPartnerService struct {
	createPartnerFn        func(input services.PartnerInput) (*models.Partner, error)
	getPartnerFn           func(id uint) (*models.Partner, error)
	listPartnersFn         func(page pagination.PageRequest, filter services.PartnerFilter) (*pagination.PageResponse[models.Partner], error)
	updatePartnerFn        func(id uint, input services.PartnerInput) (*models.Partner, error)
	deletePartnerFn        func(id uint) error
	getAuthoredProductsFn  func(id uint, page pagination.PageRequest) (*pagination.PageResponse[models.Product], error)
	getPublishedProductsFn func(id uint, page pagination.PageRequest) (*pagination.PageResponse[models.Product], error)
}

var _ services.PartnerServicer = (*mockPartnerService)(nil)

func (m *mockPartnerService) CreatePartner(input services.PartnerInput) (*models.Partner, error) {
	if m.createPartnerFn != nil {
		return m.createPartnerFn(input)
	}
	return &models.Partner{Name: input.Name}, nil
}

func (m *mockPartnerService) GetPartner(id uint) (*models.Partner, error) {
	if m.getPartnerFn != nil {
		return m.getPartnerFn(id)
	}
	return &models.Partner{Base: models.Base{ID: id}}, nil
}

func (m *mockPartnerService) ListPartners(page pagination.PageRequest, filter services.PartnerFilter) (*pagination.PageResponse[models.Partner], error) {
	if m.listPartnersFn != nil {
		return m.listPartnersFn(page, filter)
	}
	resp := pagination.NewPageResponse([]models.Partner{}, page.Page, page.PageSize, 0)
	return &resp, nil
}

func (m *mockPartnerService) UpdatePartner(id uint, input services.PartnerInput) (*models.Partner, error) {
	if m.updatePartnerFn != nil {
		return m.updatePartnerFn(id, input)
	}
	return &models.Partner{Base: models.Base{ID: id}, Name: input.Name}, nil
}

func (m *mockPartnerService) DeletePartner(id uint) error {
	if m.deletePartnerFn != nil {
		return m.deletePartnerFn(id)
	}
	return nil
}

func (m *mockPartnerService) GetAuthoredProducts(id uint, page pagination.PageRequest) (*pagination.PageResponse[models.Product], error) {
	if m.getAuthoredProductsFn != nil {
		return m.getAuthoredProductsFn(id, page)
	}
	resp := pagination.NewPageResponse([]models.Product{}, page.Page, page.PageSize, 0)
	return &resp, nil
}

func (m *mockPartnerService) GetPublishedProducts(id uint, page pagination.PageRequest) (*pagination.PageResponse[models.Product], error) {
	if m.getPublishedProductsFn != nil {
		return m.getPublishedProductsFn(id, page)
	}
	resp := pagination.NewPageResponse([]models.Product{}, page.Page, page.PageSize, 0)
	return &resp, nil
}

func setupPartnerRouter(svc services.PartnerServicer, audit *mockAuditService) *gin.Engine {
	h := NewPartnerHandler(svc, audit)
	r := gin.New()
	r.GET("/partners", h.ListPartners)
	r.GET("/partners/:id", h.GetPartner)
	r.GET("/partners/:id/authored", h.GetAuthoredProducts)
	r.GET("/partners/:id/published", h.GetPublishedProducts)
	auth := r.Group("", injectUserID(1))
	auth.POST("/partners", h.CreatePartner)
	auth.PUT("/partners/:id", h.UpdatePartner)
	auth.DELETE("/partners/:id", h.DeletePartner)
	return r
}

func TestPartnerHandler_CreatePartner(t *testing.T) {
	t.Run("returns 201", func(t *testing.T) {
		var got services.PartnerInput
		svc := &mockPartnerService{
			createPartnerFn: func(input services.PartnerInput) (*models.Partner, error) {
				got = input
				return &models.Partner{Base: models.Base{ID: 2}, Name: input.Name, CompanyType: input.CompanyType, IsPublisher: true}, nil
			},
		}
		audit := &mockAuditService{}
		r := setupPartnerRouter(svc, audit)

		rec := doRequest(r, "POST", "/partners", `{"name":"Plaza & Janés","company_type":"company","is_publisher":true,"country_code":"es"}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		if got.CompanyType != models.CompanyTypeCompany || !got.IsPublisher || got.CountryCode != "es" {
			t.Errorf("unexpected input %+v", got)
		}
		if audit.lastAction() != "CREATE_PARTNER" {
			t.Errorf("expected CREATE_PARTNER audit entry, got %q", audit.lastAction())
		}
	})

	t.Run("rejects unknown company type", func(t *testing.T) {
		r := setupPartnerRouter(&mockPartnerService{}, &mockAuditService{})

		rec := doRequest(r, "POST", "/partners", `{"name":"X","company_type":"guild"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("rejects malformed email", func(t *testing.T) {
		r := setupPartnerRouter(&mockPartnerService{}, &mockAuditService{})

		rec := doRequest(r, "POST", "/partners", `{"name":"X","email":"nope"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestPartnerHandler_ListPartners(t *testing.T) {
	var got services.PartnerFilter
	svc := &mockPartnerService{
		listPartnersFn: func(page pagination.PageRequest, filter services.PartnerFilter) (*pagination.PageResponse[models.Partner], error) {
			got = filter
			resp := pagination.NewPageResponse([]models.Partner{{Name: "Patrick Rothfuss"}}, page.Page, page.PageSize, 1)
			return &resp, nil
		},
	}
	r := setupPartnerRouter(svc, &mockAuditService{})

	rec := doRequest(r, "GET", "/partners?is_author=true&search=roth", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got.IsAuthor == nil || !*got.IsAuthor || got.IsPublisher != nil {
		t.Errorf("unexpected role filters %+v", got)
	}
	if got.Search != "roth" {
		t.Errorf("expected search roth, got %q", got.Search)
	}
	if items := parseJSON(t, rec)["data"].([]interface{}); len(items) != 1 {
		t.Errorf("expected 1 partner, got %d", len(items))
	}
}

func TestPartnerHandler_UpdatePartner(t *testing.T) {
	t.Run("role still in use", func(t *testing.T) {
		svc := &mockPartnerService{
			updatePartnerFn: func(_ uint, _ services.PartnerInput) (*models.Partner, error) {
				return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "partner still publishes products")
			},
		}
		r := setupPartnerRouter(svc, &mockAuditService{})

		rec := doRequest(r, "PUT", "/partners/2", `{"name":"Plaza","company_type":"company"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("not found", func(t *testing.T) {
		svc := &mockPartnerService{
			updatePartnerFn: func(_ uint, _ services.PartnerInput) (*models.Partner, error) {
				return nil, apperrors.ErrPartnerNotFound
			},
		}
		r := setupPartnerRouter(svc, &mockAuditService{})

		rec := doRequest(r, "PUT", "/partners/99", `{"name":"Ghost"}`)

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "PARTNER_NOT_FOUND")
	})
}

func TestPartnerHandler_DeletePartner(t *testing.T) {
	audit := &mockAuditService{}
	r := setupPartnerRouter(&mockPartnerService{}, audit)

	rec := doRequest(r, "DELETE", "/partners/4", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if audit.lastAction() != "DELETE_PARTNER" {
		t.Errorf("expected DELETE_PARTNER audit entry, got %q", audit.lastAction())
	}
}

func TestPartnerHandler_Products(t *testing.T) {
	var authoredID, publishedID uint
	svc := &mockPartnerService{
		getAuthoredProductsFn: func(id uint, page pagination.PageRequest) (*pagination.PageResponse[models.Product], error) {
			authoredID = id
			resp := pagination.NewPageResponse([]models.Product{}, page.Page, page.PageSize, 0)
			return &resp, nil
		},
		getPublishedProductsFn: func(id uint, _ pagination.PageRequest) (*pagination.PageResponse[models.Product], error) {
			publishedID = id
			return nil, apperrors.ErrPartnerNotFound
		},
	}
	r := setupPartnerRouter(svc, &mockAuditService{})

	if rec := doRequest(r, "GET", "/partners/3/authored?page=2", ""); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if authoredID != 3 {
		t.Errorf("expected authored lookup for 3, got %d", authoredID)
	}

	rec := doRequest(r, "GET", "/partners/5/published", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if publishedID != 5 {
		t.Errorf("expected published lookup for 5, got %d", publishedID)
	}
}
