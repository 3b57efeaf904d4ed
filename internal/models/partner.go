package models

// CompanyType distinguishes individuals from organisations.
type CompanyType string

const (
	CompanyTypePerson  CompanyType = "person"
	CompanyTypeCompany CompanyType = "company"
)

// Partner is a contact that can write books, publish them, or both.
type Partner struct {
	Base
	Name        string      `gorm:"not null;index" json:"name"`
	CompanyType CompanyType `gorm:"not null" json:"company_type"`
	IsAuthor    bool        `gorm:"not null;index" json:"is_author"`
	IsPublisher bool        `gorm:"not null;index" json:"is_publisher"`
	CountryCode string      `gorm:"size:2;index" json:"country_code,omitempty"`
	Email       string      `json:"email,omitempty"`
}

// ApplyCompanyType enforces that people do not publish and companies do not
// author. It must run whenever CompanyType is set.
func (p *Partner) ApplyCompanyType() {
	switch p.CompanyType {
	case CompanyTypePerson:
		p.IsPublisher = false
	case CompanyTypeCompany:
		p.IsAuthor = false
	}
}
