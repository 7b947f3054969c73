package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"bookreview/internal/cache"
	apperrors "bookreview/internal/errors"
	"bookreview/internal/model"
	"bookreview/internal/repository"
)

const (
	// PageSize is the fixed number of books per catalog page.
	PageSize = 5

	bookDetailsTTL = 5 * time.Minute

	maxOffsetPage = math.MaxInt / PageSize
)

// BookQuery is a catalog request. Zero values mean "not provided".
type BookQuery struct {
	Page      int
	Search    string
	Genre     string
	Year      int
	SortBy    string
	SortOrder string
}

// BookPage is one page of the catalog.
type BookPage struct {
	Books      []model.Book `json:"books"`
	TotalPages int          `json:"totalPages"`
	Page       int          `json:"page"`
	TotalBooks int64        `json:"totalBooks"`
}

// BookDetails is a book with its reviews and their mean rating.
type BookDetails struct {
	Book          *model.Book    `json:"book"`
	Reviews       []model.Review `json:"reviews"`
	AverageRating float64        `json:"averageRating"`
}

// BookInput carries the editable fields of a book.
type BookInput struct {
	Title       string
	Author      string
	Description string
	Genre       string
	Year        int
}

// BookService handles catalog operations.
type BookService interface {
	List(ctx context.Context, q BookQuery) (*BookPage, error)
	GetDetails(ctx context.Context, id uuid.UUID) (*BookDetails, error)
	Create(ctx context.Context, in BookInput, ownerID uuid.UUID) (*model.Book, error)
	Update(ctx context.Context, id uuid.UUID, in BookInput, callerID uuid.UUID) (*model.Book, error)
	Delete(ctx context.Context, id, callerID uuid.UUID) error
}

type bookService struct {
	books   repository.BookRepository
	reviews repository.ReviewRepository
	cache   *cache.Client
	logger  *slog.Logger
}

// NewBookService builds a BookService. cache may be nil.
func NewBookService(books repository.BookRepository, reviews repository.ReviewRepository, cache *cache.Client, logger *slog.Logger) BookService {
	if logger == nil {
		logger = slog.Default()
	}
	return &bookService{books: books, reviews: reviews, cache: cache, logger: logger}
}

// bookDetailsKey names the details entry for the book's current version.
// A write bumps the version, so an entry filled from a read that raced the
// write is never served.
func bookDetailsKey(ctx context.Context, c *cache.Client, id uuid.UUID) string {
	ver, _ := c.Get(ctx, bookDetailsVersionKey(id))
	if len(ver) == 0 {
		ver = []byte("0")
	}
	return "book:details:" + id.String() + ":v" + string(ver)
}

func bookDetailsVersionKey(id uuid.UUID) string {
	return "book:details:ver:" + id.String()
}

func invalidateBookDetails(ctx context.Context, c *cache.Client, id uuid.UUID) {
	_ = c.Incr(ctx, bookDetailsVersionKey(id))
}

// List returns one page of the filtered, sorted catalog.
func (s *bookService) List(ctx context.Context, q BookQuery) (*BookPage, error) {
	page := q.Page
	if page < 1 {
		page = 1
	}
	// Pages beyond maxOffsetPage are all empty; cap the offset so it cannot wrap.
	offsetPage := min(page, maxOffsetPage)

	filter := repository.BookFilter{
		Search:    q.Search,
		Genre:     q.Genre,
		Year:      q.Year,
		SortBy:    q.SortBy,
		Ascending: q.SortOrder == "asc",
		Offset:    (offsetPage - 1) * PageSize,
		Limit:     PageSize,
	}

	books, total, err := s.books.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	if books == nil {
		books = []model.Book{}
	}

	return &BookPage{
		Books:      books,
		TotalPages: int((total + PageSize - 1) / PageSize),
		Page:       page,
		TotalBooks: total,
	}, nil
}

// GetDetails returns a book with its creator, reviews and mean rating.
func (s *bookService) GetDetails(ctx context.Context, id uuid.UUID) (*BookDetails, error) {
	key := bookDetailsKey(ctx, s.cache, id)
	if raw, _ := s.cache.Get(ctx, key); raw != nil {
		var cached BookDetails
		if err := json.Unmarshal(raw, &cached); err == nil {
			return &cached, nil
		}
		s.logger.Warn("discarding unreadable cache entry", slog.String("key", key))
	}

	book, err := s.books.FindByIDWithCreator(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrBookNotFound
		}
		return nil, fmt.Errorf("find book: %w", err)
	}

	reviews, err := s.reviews.ListByBook(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	if reviews == nil {
		reviews = []model.Review{}
	}

	details := &BookDetails{
		Book:          book,
		Reviews:       reviews,
		AverageRating: AverageRating(reviews),
	}

	if raw, err := json.Marshal(details); err == nil {
		_ = s.cache.Set(ctx, key, raw, bookDetailsTTL)
	}
	return details, nil
}

// AverageRating is the arithmetic mean of the ratings, or 0 when there are none.
func AverageRating(reviews []model.Review) float64 {
	if len(reviews) == 0 {
		return 0
	}
	sum := 0
	for _, r := range reviews {
		sum += r.Rating
	}
	return float64(sum) / float64(len(reviews))
}

func (s *bookService) Create(ctx context.Context, in BookInput, ownerID uuid.UUID) (*model.Book, error) {
	book := &model.Book{
		Title:       in.Title,
		Author:      in.Author,
		Description: in.Description,
		Genre:       in.Genre,
		Year:        in.Year,
		AddedBy:     ownerID,
	}
	if err := s.books.Create(ctx, book); err != nil {
		return nil, fmt.Errorf("create book: %w", err)
	}
	return book, nil
}

// Update applies the non-empty fields of in. Only the creator may update.
func (s *bookService) Update(ctx context.Context, id uuid.UUID, in BookInput, callerID uuid.UUID) (*model.Book, error) {
	book, err := s.ownedBook(ctx, id, callerID)
	if err != nil {
		return nil, err
	}

	if in.Title != "" {
		book.Title = in.Title
	}
	if in.Author != "" {
		book.Author = in.Author
	}
	if in.Description != "" {
		book.Description = in.Description
	}
	if in.Genre != "" {
		book.Genre = in.Genre
	}
	if in.Year != 0 {
		book.Year = in.Year
	}

	if err := s.books.Update(ctx, book); err != nil {
		return nil, fmt.Errorf("update book: %w", err)
	}
	s.invalidate(ctx, id)
	return book, nil
}

// Delete removes a book and its reviews. Only the creator may delete.
func (s *bookService) Delete(ctx context.Context, id, callerID uuid.UUID) error {
	if _, err := s.ownedBook(ctx, id, callerID); err != nil {
		return err
	}
	if err := s.books.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrBookNotFound
		}
		return fmt.Errorf("delete book: %w", err)
	}
	s.invalidate(ctx, id)
	return nil
}

func (s *bookService) ownedBook(ctx context.Context, id, callerID uuid.UUID) (*model.Book, error) {
	book, err := s.books.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrBookNotFound
		}
		return nil, fmt.Errorf("find book: %w", err)
	}
	if book.AddedBy != callerID {
		return nil, apperrors.ErrForbidden
	}
	return book, nil
}

func (s *bookService) invalidate(ctx context.Context, bookID uuid.UUID) {
	invalidateBookDetails(ctx, s.cache, bookID)
}
