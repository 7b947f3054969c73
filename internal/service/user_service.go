package service

import (
	"context"
	"fmt"

	"bookreview/internal/model"
	"bookreview/internal/repository"
)

// Profile is the caller's account with everything they added.
type Profile struct {
	User    model.PublicUser `json:"user"`
	Books   []model.Book     `json:"books"`
	Reviews []model.Review   `json:"reviews"`
}

// UserService exposes account level queries.
type UserService interface {
	GetProfile(ctx context.Context, user *model.User) (*Profile, error)
}

type userService struct {
	books   repository.BookRepository
	reviews repository.ReviewRepository
}

// NewUserService builds a UserService.
func NewUserService(books repository.BookRepository, reviews repository.ReviewRepository) UserService {
	return &userService{books: books, reviews: reviews}
}

func (s *userService) GetProfile(ctx context.Context, user *model.User) (*Profile, error) {
	books, err := s.books.ListByCreator(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	reviews, err := s.reviews.ListByUser(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	if books == nil {
		books = []model.Book{}
	}
	if reviews == nil {
		reviews = []model.Review{}
	}
	return &Profile{User: user.Public(), Books: books, Reviews: reviews}, nil
}
