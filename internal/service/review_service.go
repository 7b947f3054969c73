package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"bookreview/internal/cache"
	apperrors "bookreview/internal/errors"
	"bookreview/internal/model"
	"bookreview/internal/repository"
)

// ReviewInput carries the editable fields of a review.
type ReviewInput struct {
	Rating     int
	ReviewText string
}

// ReviewService handles review operations.
type ReviewService interface {
	Create(ctx context.Context, bookID uuid.UUID, in ReviewInput, authorID uuid.UUID) (*model.Review, error)
	Update(ctx context.Context, id uuid.UUID, in ReviewInput, callerID uuid.UUID) (*model.Review, error)
	Delete(ctx context.Context, id, callerID uuid.UUID) error
}

type reviewService struct {
	books   repository.BookRepository
	reviews repository.ReviewRepository
	cache   *cache.Client
}

// NewReviewService builds a ReviewService. cache may be nil.
func NewReviewService(books repository.BookRepository, reviews repository.ReviewRepository, cache *cache.Client) ReviewService {
	return &reviewService{books: books, reviews: reviews, cache: cache}
}

// Create adds the author's review of a book. Each user may review a book once.
func (s *reviewService) Create(ctx context.Context, bookID uuid.UUID, in ReviewInput, authorID uuid.UUID) (*model.Review, error) {
	if _, err := s.books.FindByID(ctx, bookID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrBookNotFound
		}
		return nil, fmt.Errorf("find book: %w", err)
	}

	exists, err := s.reviews.ExistsForBookAndUser(ctx, bookID, authorID)
	if err != nil {
		return nil, fmt.Errorf("check existing review: %w", err)
	}
	if exists {
		return nil, apperrors.ErrDuplicateReview
	}

	review := &model.Review{
		BookID:     bookID,
		UserID:     authorID,
		Rating:     in.Rating,
		ReviewText: in.ReviewText,
	}
	if err := s.reviews.Create(ctx, review); err != nil {
		// lost a race with a concurrent create; the unique index decides
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.ErrDuplicateReview
		}
		return nil, fmt.Errorf("create review: %w", err)
	}

	s.invalidate(ctx, bookID)
	return review, nil
}

// Update applies the non-empty fields of in. Only the author may update.
func (s *reviewService) Update(ctx context.Context, id uuid.UUID, in ReviewInput, callerID uuid.UUID) (*model.Review, error) {
	review, err := s.ownedReview(ctx, id, callerID)
	if err != nil {
		return nil, err
	}

	if in.Rating != 0 {
		review.Rating = in.Rating
	}
	if in.ReviewText != "" {
		review.ReviewText = in.ReviewText
	}

	if err := s.reviews.Update(ctx, review); err != nil {
		return nil, fmt.Errorf("update review: %w", err)
	}
	s.invalidate(ctx, review.BookID)
	return review, nil
}

// Delete removes a review. Only the author may delete.
func (s *reviewService) Delete(ctx context.Context, id, callerID uuid.UUID) error {
	review, err := s.ownedReview(ctx, id, callerID)
	if err != nil {
		return err
	}
	if err := s.reviews.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrReviewNotFound
		}
		return fmt.Errorf("delete review: %w", err)
	}
	s.invalidate(ctx, review.BookID)
	return nil
}

func (s *reviewService) ownedReview(ctx context.Context, id, callerID uuid.UUID) (*model.Review, error) {
	review, err := s.reviews.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrReviewNotFound
		}
		return nil, fmt.Errorf("find review: %w", err)
	}
	if review.UserID != callerID {
		return nil, apperrors.ErrForbidden
	}
	return review, nil
}

func (s *reviewService) invalidate(ctx context.Context, bookID uuid.UUID) {
	invalidateBookDetails(ctx, s.cache, bookID)
}
