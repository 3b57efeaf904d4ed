package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"bookcatalog/internal/models"
	"bookcatalog/internal/taxonomy"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// CreateTestUser creates a user with a hashed password and unique email.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	email := fmt.Sprintf("user%d@test.com", nextID())
	return CreateTestUserWithEmail(t, db, email)
}

// CreateTestUserWithEmail creates a user with the given email.
func CreateTestUserWithEmail(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Email:    email,
		Password: string(hash),
		IsActive: true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestGenre inserts a genre row with consistent derived fields. The
// parent must already exist in db.
func CreateTestGenre(t *testing.T, db *gorm.DB, name string, parent *models.Genre) *models.Genre {
	t.Helper()

	genre := &models.Genre{Name: name, CompleteName: name}
	if parent != nil {
		genre.ParentID = &parent.ID
		genre.CompleteName = parent.CompleteName + taxonomy.Separator + name
	}
	if err := db.Create(genre).Error; err != nil {
		t.Fatalf("failed to create test genre: %v", err)
	}

	path := []uint{genre.ID}
	if parent != nil {
		parentPath, err := taxonomy.ParsePath(parent.ParentPath)
		if err != nil {
			t.Fatalf("parent genre has malformed path %q: %v", parent.ParentPath, err)
		}
		path = append(parentPath, genre.ID)
	}
	genre.ParentPath = taxonomy.FormatPath(path)
	if err := db.Model(genre).Update("parent_path", genre.ParentPath).Error; err != nil {
		t.Fatalf("failed to set test genre path: %v", err)
	}
	return genre
}

// CreateTestAuthor creates a person partner flagged as an author.
func CreateTestAuthor(t *testing.T, db *gorm.DB) *models.Partner {
	t.Helper()
	return createTestPartner(t, db, &models.Partner{
		Name:        fmt.Sprintf("Author %d", nextID()),
		CompanyType: models.CompanyTypePerson,
		IsAuthor:    true,
	})
}

// CreateTestPublisher creates a company partner flagged as a publisher.
func CreateTestPublisher(t *testing.T, db *gorm.DB, countryCode string) *models.Partner {
	t.Helper()
	return createTestPartner(t, db, &models.Partner{
		Name:        fmt.Sprintf("Publisher %d", nextID()),
		CompanyType: models.CompanyTypeCompany,
		IsPublisher: true,
		CountryCode: countryCode,
	})
}

func createTestPartner(t *testing.T, db *gorm.DB, partner *models.Partner) *models.Partner {
	t.Helper()
	if err := db.Create(partner).Error; err != nil {
		t.Fatalf("failed to create test partner: %v", err)
	}
	return partner
}

// CreateTestBook creates an active book with a unique name and no ISBN.
func CreateTestBook(t *testing.T, db *gorm.DB) *models.Product {
	t.Helper()
	return CreateTestBookWithISBN(t, db, nil)
}

// CreateTestBookWithISBN creates an active book storing isbn verbatim, which
// lets tests plant identifiers the service would refuse.
func CreateTestBookWithISBN(t *testing.T, db *gorm.DB, isbn *string) *models.Product {
	t.Helper()

	published := time.Date(2020, time.March, 1, 0, 0, 0, 0, time.UTC)
	product := &models.Product{
		Name:            fmt.Sprintf("Book %d", nextID()),
		PublicationDate: &published,
		Active:          true,
		IsBook:          true,
		ISBN:            isbn,
		Copies:          1,
		Rating:          models.RatingNotRated,
		Condition:       models.ConditionNew,
		Sequence:        10,
	}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("failed to create test book: %v", err)
	}
	return product
}

// LinkProductGenres tags a product with genres.
func LinkProductGenres(t *testing.T, db *gorm.DB, product *models.Product, genres ...*models.Genre) {
	t.Helper()
	for _, g := range genres {
		if err := db.Exec("INSERT INTO product_genres (product_id, genre_id) VALUES (?, ?)", product.ID, g.ID).Error; err != nil {
			t.Fatalf("failed to link product genre: %v", err)
		}
	}
}

// LinkProductAuthors records authors of a product.
func LinkProductAuthors(t *testing.T, db *gorm.DB, product *models.Product, authors ...*models.Partner) {
	t.Helper()
	for _, a := range authors {
		if err := db.Exec("INSERT INTO product_authors (product_id, partner_id) VALUES (?, ?)", product.ID, a.ID).Error; err != nil {
			t.Fatalf("failed to link product author: %v", err)
		}
	}
}
