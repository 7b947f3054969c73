package repository

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"bookreview/internal/model"
)

// Sort keys accepted by BookFilter.SortBy.
const (
	SortByCreatedAt     = "createdAt"
	SortByYear          = "year"
	SortByAverageRating = "averageRating"
)

// BookFilter selects one page of the catalog.
type BookFilter struct {
	Search    string // substring of title or author, case-insensitive
	Genre     string // substring of genre, case-insensitive
	Year      int    // exact match when non-zero
	SortBy    string
	Ascending bool
	Offset    int
	Limit     int
}

// BookRepository defines book persistence operations.
type BookRepository interface {
	Create(ctx context.Context, book *model.Book) error
	Update(ctx context.Context, book *model.Book) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Book, error)
	FindByIDWithCreator(ctx context.Context, id uuid.UUID) (*model.Book, error)
	List(ctx context.Context, filter BookFilter) ([]model.Book, int64, error)
	ListByCreator(ctx context.Context, userID uuid.UUID) ([]model.Book, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type bookRepository struct {
	db *gorm.DB
}

// NewBookRepository creates a new book repository.
func NewBookRepository(db *gorm.DB) BookRepository {
	return &bookRepository{db: db}
}

// Create creates a new book.
func (r *bookRepository) Create(ctx context.Context, book *model.Book) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(book).Error
}

// Update saves the editable fields of a book. AddedBy is never written.
func (r *bookRepository) Update(ctx context.Context, book *model.Book) error {
	return r.db.WithContext(ctx).Model(book).
		Select("title", "author", "description", "genre", "year", "updated_at").
		Updates(book).Error
}

// FindByID finds a book by ID.
func (r *bookRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Book, error) {
	var book model.Book
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&book).Error; err != nil {
		return nil, err
	}
	return &book, nil
}

// FindByIDWithCreator finds a book and joins its creator.
func (r *bookRepository) FindByIDWithCreator(ctx context.Context, id uuid.UUID) (*model.Book, error) {
	var book model.Book
	if err := r.db.WithContext(ctx).Preload("Creator").Where("books.id = ?", id).First(&book).Error; err != nil {
		return nil, err
	}
	return &book, nil
}

// List returns one page of matching books with creators and mean ratings, plus the total match count.
func (r *bookRepository) List(ctx context.Context, filter BookFilter) ([]model.Book, int64, error) {
	var total int64
	if err := applyBookFilter(r.db.WithContext(ctx).Model(&model.Book{}), filter).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	ratings := r.db.Model(&model.Review{}).
		Select("book_id, AVG(rating) AS avg_rating").
		Group("book_id")

	var books []model.Book
	err := applyBookFilter(r.db.WithContext(ctx).Model(&model.Book{}), filter).
		Select("books.*, COALESCE(ratings.avg_rating, 0) AS average_rating").
		Joins("LEFT JOIN (?) AS ratings ON ratings.book_id = books.id", ratings).
		Preload("Creator").
		Order(bookOrder(filter)).
		Offset(filter.Offset).
		Limit(filter.Limit).
		Find(&books).Error
	if err != nil {
		return nil, 0, err
	}
	return books, total, nil
}

// ListByCreator lists the books a user added, newest first.
func (r *bookRepository) ListByCreator(ctx context.Context, userID uuid.UUID) ([]model.Book, error) {
	var books []model.Book
	if err := r.db.WithContext(ctx).Where("added_by = ?", userID).Order("created_at DESC").Find(&books).Error; err != nil {
		return nil, err
	}
	return books, nil
}

// Delete removes a book together with its reviews.
func (r *bookRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("book_id = ?", id).Delete(&model.Review{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&model.Book{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func applyBookFilter(q *gorm.DB, f BookFilter) *gorm.DB {
	if s := strings.TrimSpace(f.Search); s != "" {
		pattern := likePattern(s)
		q = q.Where("(LOWER(books.title) LIKE ? ESCAPE '!' OR LOWER(books.author) LIKE ? ESCAPE '!')", pattern, pattern)
	}
	if g := strings.TrimSpace(f.Genre); g != "" {
		q = q.Where("LOWER(books.genre) LIKE ? ESCAPE '!'", likePattern(g))
	}
	if f.Year != 0 {
		q = q.Where("books.year = ?", f.Year)
	}
	return q
}

func bookOrder(f BookFilter) string {
	dir := "DESC"
	if f.Ascending {
		dir = "ASC"
	}
	switch f.SortBy {
	case SortByYear:
		return "books.year " + dir + ", books.created_at " + dir + ", books.id"
	case SortByAverageRating:
		return "average_rating " + dir + ", books.created_at " + dir + ", books.id"
	default:
		return "books.created_at " + dir + ", books.id"
	}
}

var likeEscaper = strings.NewReplacer(`!`, `!!`, `%`, `!%`, `_`, `!_`)

// likePattern builds a lower-cased substring pattern with LIKE wildcards in s
// escaped by '!', which reads the same in every dialect's string literals.
func likePattern(s string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(s)) + "%"
}
