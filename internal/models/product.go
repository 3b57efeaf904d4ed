package models

import (
	"time"

	"gorm.io/gorm"
)

// Rating is the reader's score of a book, "0" meaning not rated.
type Rating string

const (
	RatingNotRated    Rating = "0"
	RatingVeryBad     Rating = "1"
	RatingFair        Rating = "2"
	RatingGood        Rating = "3"
	RatingVeryGood    Rating = "4"
	RatingMasterpiece Rating = "5"
)

// Binding is the physical format of a book.
type Binding string

const (
	BindingHardcover Binding = "hardcover"
	BindingPaperback Binding = "paperback"
	BindingSpiral    Binding = "spiral"
	BindingEbook     Binding = "ebook"
	BindingOther     Binding = "other"
)

// Condition describes the state of a copy.
type Condition string

const (
	ConditionNew     Condition = "new"
	ConditionGood    Condition = "good"
	ConditionUsed    Condition = "used"
	ConditionDamaged Condition = "damaged"
)

// Product is a catalog entry. When IsBook is set the book attributes apply.
type Product struct {
	Base
	Name             string     `gorm:"not null;uniqueIndex:idx_products_name_publication_date" json:"name"`
	PublicationDate  *time.Time `gorm:"type:date;uniqueIndex:idx_products_name_publication_date" json:"publication_date,omitempty"`
	PublicationYear  int        `gorm:"not null;default:0" json:"publication_year,omitempty"`
	Active           bool       `gorm:"not null" json:"active"`
	IsBook           bool       `gorm:"not null;index" json:"is_book"`
	ISBN             *string    `gorm:"column:isbn;uniqueIndex" json:"isbn,omitempty"`
	NumberOfPages    int        `gorm:"not null;default:0" json:"number_of_pages"`
	Copies           int        `gorm:"not null" json:"copies"`
	Rating           Rating     `gorm:"not null" json:"rating"`
	DateStartReading *time.Time `gorm:"type:date" json:"date_start_reading,omitempty"`
	DateEndReading   *time.Time `gorm:"type:date" json:"date_end_reading,omitempty"`
	PublisherID      *uint      `gorm:"index" json:"publisher_id,omitempty"`
	LanguageCode     string     `json:"language_code,omitempty"`
	Binding          Binding    `json:"binding,omitempty"`
	Edition          string     `json:"edition,omitempty"`
	Synopsis         string     `json:"synopsis,omitempty"`
	ReadingNotes     string     `json:"reading_notes,omitempty"`
	Condition        Condition  `gorm:"not null" json:"condition"`
	Sequence         int        `gorm:"not null" json:"sequence"`

	// Relationships
	Publisher *Partner  `gorm:"foreignKey:PublisherID" json:"publisher,omitempty"`
	Authors   []Partner `gorm:"many2many:product_authors;joinForeignKey:ProductID;joinReferences:PartnerID" json:"authors,omitempty"`
	Genres    []Genre   `gorm:"many2many:product_genres;joinForeignKey:ProductID;joinReferences:GenreID" json:"genres,omitempty"`

	// PublisherCountry mirrors Publisher.CountryCode.
	PublisherCountry string `gorm:"-" json:"publisher_country,omitempty"`
}

// BeforeSave keeps PublicationYear in step with PublicationDate.
func (p *Product) BeforeSave(tx *gorm.DB) error {
	if p.PublicationDate != nil {
		p.PublicationYear = p.PublicationDate.Year()
	} else {
		p.PublicationYear = 0
	}
	return nil
}

// AfterFind fills the related publisher country once associations are loaded.
func (p *Product) AfterFind(tx *gorm.DB) error {
	if p.Publisher != nil {
		p.PublisherCountry = p.Publisher.CountryCode
	}
	return nil
}
