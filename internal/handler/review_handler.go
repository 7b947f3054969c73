package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"bookreview/internal/model"
	"bookreview/internal/service"
)

// ReviewHandler handles review endpoints.
type ReviewHandler struct {
	reviewService service.ReviewService
}

// NewReviewHandler creates a new review handler.
func NewReviewHandler(reviewService service.ReviewService) *ReviewHandler {
	return &ReviewHandler{reviewService: reviewService}
}

// CreateReviewRequest represents a new review. The text may be sent as reviewText or comment.
type CreateReviewRequest struct {
	BookID     string `json:"bookId" validate:"required,uuid"`
	Rating     int    `json:"rating" validate:"required,min=1,max=5"`
	ReviewText string `json:"reviewText" validate:"required_without=Comment"`
	Comment    string `json:"comment" validate:"required_without=ReviewText"`
}

// UpdateReviewRequest carries the fields to change. 0 and empty text are ignored.
type UpdateReviewRequest struct {
	Rating     int    `json:"rating" validate:"omitempty,min=1,max=5"`
	ReviewText string `json:"reviewText"`
	Comment    string `json:"comment"`
}

// ReviewResponse wraps a written review.
type ReviewResponse struct {
	Message string        `json:"message"`
	Review  *model.Review `json:"review"`
}

func reviewText(text, comment string) string {
	if text = strings.TrimSpace(text); text != "" {
		return text
	}
	return strings.TrimSpace(comment)
}

// CreateReview godoc
// @Summary Review a book
// @Description One review per user per book. The book id may also be given in the path.
// @Tags reviews
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateReviewRequest true "Review"
// @Success 201 {object} ReviewResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /reviews [post]
func (h *ReviewHandler) CreateReview(c echo.Context) error {
	user, err := CurrentUser(c)
	if err != nil {
		return err
	}

	var req CreateReviewRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	if raw := c.Param("bookId"); raw != "" {
		id, err := parseID(raw)
		if err != nil {
			return err
		}
		req.BookID = id.String()
	}
	req.BookID = strings.TrimSpace(req.BookID)
	req.ReviewText = strings.TrimSpace(req.ReviewText)
	req.Comment = strings.TrimSpace(req.Comment)
	if err := c.Validate(&req); err != nil {
		return err
	}

	bookID, err := parseID(req.BookID)
	if err != nil {
		return err
	}

	review, err := h.reviewService.Create(c.Request().Context(), bookID, service.ReviewInput{
		Rating:     req.Rating,
		ReviewText: reviewText(req.ReviewText, req.Comment),
	}, user.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, ReviewResponse{Message: "Review added successfully", Review: review})
}

// CreateReviewForBook godoc
// @Summary Review the book in the path
// @Description Same as POST /reviews; the path id overrides bookId in the body.
// @Tags reviews
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param bookId path string true "Book ID"
// @Param request body CreateReviewRequest true "Review"
// @Success 201 {object} ReviewResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /reviews/{bookId} [post]
func (h *ReviewHandler) CreateReviewForBook(c echo.Context) error {
	return h.CreateReview(c)
}

// UpdateReview godoc
// @Summary Update your review
// @Tags reviews
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Review ID"
// @Param request body UpdateReviewRequest true "Fields to change"
// @Success 200 {object} ReviewResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /reviews/{id} [put]
func (h *ReviewHandler) UpdateReview(c echo.Context) error {
	user, err := CurrentUser(c)
	if err != nil {
		return err
	}
	id, err := parseID(c.Param("id"))
	if err != nil {
		return err
	}

	var req UpdateReviewRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	review, err := h.reviewService.Update(c.Request().Context(), id, service.ReviewInput{
		Rating:     req.Rating,
		ReviewText: reviewText(req.ReviewText, req.Comment),
	}, user.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ReviewResponse{Message: "Review updated successfully", Review: review})
}

// DeleteReview godoc
// @Summary Delete your review
// @Tags reviews
// @Produce json
// @Security BearerAuth
// @Param id path string true "Review ID"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /reviews/{id} [delete]
func (h *ReviewHandler) DeleteReview(c echo.Context) error {
	user, err := CurrentUser(c)
	if err != nil {
		return err
	}
	id, err := parseID(c.Param("id"))
	if err != nil {
		return err
	}
	if err := h.reviewService.Delete(c.Request().Context(), id, user.ID); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, MessageResponse{Message: "Review deleted successfully"})
}
