package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	apperrors "bookreview/internal/errors"
	"bookreview/internal/model"
)

func TestReviewService_Create(t *testing.T) {
	bookID := uuid.New()
	authorID := uuid.New()

	tests := []struct {
		name          string
		setupMock     func(*MockBookRepository, *MockReviewRepository)
		expectedError error
	}{
		{
			name: "first review of a book",
			setupMock: func(b *MockBookRepository, r *MockReviewRepository) {
				b.On("FindByID", mock.Anything, bookID).Return(&model.Book{ID: bookID}, nil)
				r.On("ExistsForBookAndUser", mock.Anything, bookID, authorID).Return(false, nil)
				r.On("Create", mock.Anything, mock.MatchedBy(func(rv *model.Review) bool {
					return rv.BookID == bookID && rv.UserID == authorID && rv.Rating == 4 && rv.ReviewText == "Solid"
				})).Return(nil)
			},
		},
		{
			name: "second review by the same user",
			setupMock: func(b *MockBookRepository, r *MockReviewRepository) {
				b.On("FindByID", mock.Anything, bookID).Return(&model.Book{ID: bookID}, nil)
				r.On("ExistsForBookAndUser", mock.Anything, bookID, authorID).Return(true, nil)
			},
			expectedError: apperrors.ErrDuplicateReview,
		},
		{
			name: "concurrent duplicate rejected by unique index",
			setupMock: func(b *MockBookRepository, r *MockReviewRepository) {
				b.On("FindByID", mock.Anything, bookID).Return(&model.Book{ID: bookID}, nil)
				r.On("ExistsForBookAndUser", mock.Anything, bookID, authorID).Return(false, nil)
				r.On("Create", mock.Anything, mock.AnythingOfType("*model.Review")).Return(gorm.ErrDuplicatedKey)
			},
			expectedError: apperrors.ErrDuplicateReview,
		},
		{
			name: "unknown book",
			setupMock: func(b *MockBookRepository, r *MockReviewRepository) {
				b.On("FindByID", mock.Anything, bookID).Return(nil, gorm.ErrRecordNotFound)
			},
			expectedError: apperrors.ErrBookNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockBooks := new(MockBookRepository)
			mockReviews := new(MockReviewRepository)
			tt.setupMock(mockBooks, mockReviews)

			service := NewReviewService(mockBooks, mockReviews, nil)
			review, err := service.Create(context.Background(), bookID, ReviewInput{Rating: 4, ReviewText: "Solid"}, authorID)

			if tt.expectedError != nil {
				assert.Equal(t, tt.expectedError, err)
				assert.Nil(t, review)
			} else {
				require.NoError(t, err)
				assert.Equal(t, bookID, review.BookID)
				assert.Equal(t, authorID, review.UserID)
			}

			mockBooks.AssertExpectations(t)
			mockReviews.AssertExpectations(t)
		})
	}
}

func TestReviewService_Create_DatabaseError(t *testing.T) {
	bookID := uuid.New()
	mockBooks := new(MockBookRepository)
	mockBooks.On("FindByID", mock.Anything, bookID).Return(nil, errors.New("connection reset"))

	service := NewReviewService(mockBooks, new(MockReviewRepository), nil)
	_, err := service.Create(context.Background(), bookID, ReviewInput{Rating: 3, ReviewText: "ok"}, uuid.New())

	require.Error(t, err)
	assert.NotErrorIs(t, err, apperrors.ErrBookNotFound)
}

func TestReviewService_Update(t *testing.T) {
	reviewID := uuid.New()
	authorID := uuid.New()
	original := func() *model.Review {
		return &model.Review{ID: reviewID, BookID: uuid.New(), UserID: authorID, Rating: 2, ReviewText: "Meh"}
	}

	tests := []struct {
		name          string
		input         ReviewInput
		callerID      uuid.UUID
		findErr       error
		expectedRate  int
		expectedText  string
		expectedError error
	}{
		{
			name:         "rating only",
			input:        ReviewInput{Rating: 5},
			callerID:     authorID,
			expectedRate: 5,
			expectedText: "Meh",
		},
		{
			name:         "text only",
			input:        ReviewInput{ReviewText: "Grew on me"},
			callerID:     authorID,
			expectedRate: 2,
			expectedText: "Grew on me",
		},
		{
			name:         "nothing provided keeps both",
			input:        ReviewInput{},
			callerID:     authorID,
			expectedRate: 2,
			expectedText: "Meh",
		},
		{
			name:          "non-author is forbidden",
			input:         ReviewInput{Rating: 1},
			callerID:      uuid.New(),
			expectedError: apperrors.ErrForbidden,
		},
		{
			name:          "unknown review",
			input:         ReviewInput{Rating: 1},
			callerID:      authorID,
			findErr:       gorm.ErrRecordNotFound,
			expectedError: apperrors.ErrReviewNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stored := original()
			mockReviews := new(MockReviewRepository)
			if tt.findErr != nil {
				mockReviews.On("FindByID", mock.Anything, reviewID).Return(nil, tt.findErr)
			} else {
				mockReviews.On("FindByID", mock.Anything, reviewID).Return(stored, nil)
			}
			if tt.expectedError == nil {
				mockReviews.On("Update", mock.Anything, stored).Return(nil)
			}

			service := NewReviewService(new(MockBookRepository), mockReviews, nil)
			review, err := service.Update(context.Background(), reviewID, tt.input, tt.callerID)

			if tt.expectedError != nil {
				assert.Equal(t, tt.expectedError, err)
				assert.Nil(t, review)
				assert.Equal(t, 2, stored.Rating)
				assert.Equal(t, "Meh", stored.ReviewText)
				mockReviews.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.expectedRate, review.Rating)
				assert.Equal(t, tt.expectedText, review.ReviewText)
			}
			mockReviews.AssertExpectations(t)
		})
	}
}

func TestReviewService_Delete(t *testing.T) {
	reviewID := uuid.New()
	authorID := uuid.New()

	tests := []struct {
		name          string
		callerID      uuid.UUID
		setupMock     func(*MockReviewRepository)
		expectedError error
	}{
		{
			name:     "author deletes",
			callerID: authorID,
			setupMock: func(m *MockReviewRepository) {
				m.On("FindByID", mock.Anything, reviewID).Return(&model.Review{ID: reviewID, UserID: authorID}, nil)
				m.On("Delete", mock.Anything, reviewID).Return(nil)
			},
		},
		{
			name:     "non-author is forbidden",
			callerID: uuid.New(),
			setupMock: func(m *MockReviewRepository) {
				m.On("FindByID", mock.Anything, reviewID).Return(&model.Review{ID: reviewID, UserID: authorID}, nil)
			},
			expectedError: apperrors.ErrForbidden,
		},
		{
			name:     "unknown review",
			callerID: authorID,
			setupMock: func(m *MockReviewRepository) {
				m.On("FindByID", mock.Anything, reviewID).Return(nil, gorm.ErrRecordNotFound)
			},
			expectedError: apperrors.ErrReviewNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockReviews := new(MockReviewRepository)
			tt.setupMock(mockReviews)

			service := NewReviewService(new(MockBookRepository), mockReviews, nil)
			err := service.Delete(context.Background(), reviewID, tt.callerID)

			assert.Equal(t, tt.expectedError, err)
			mockReviews.AssertExpectations(t)
		})
	}
}
