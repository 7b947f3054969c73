package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	apperrors "bookreview/internal/errors"
	"bookreview/internal/model"
	"bookreview/internal/service"
)

// BookHandler handles catalog endpoints.
type BookHandler struct {
	bookService service.BookService
}

// NewBookHandler creates a new book handler.
func NewBookHandler(bookService service.BookService) *BookHandler {
	return &BookHandler{bookService: bookService}
}

// CreateBookRequest represents a new catalog entry.
type CreateBookRequest struct {
	Title       string `json:"title" validate:"required,max=255"`
	Author      string `json:"author" validate:"required,max=255"`
	Description string `json:"description" validate:"required"`
	Genre       string `json:"genre" validate:"required,max=100"`
	Year        int    `json:"year" validate:"required,pubyear"`
}

// UpdateBookRequest carries the fields to change. Empty strings and 0 are ignored.
type UpdateBookRequest struct {
	Title       string `json:"title" validate:"omitempty,max=255"`
	Author      string `json:"author" validate:"omitempty,max=255"`
	Description string `json:"description"`
	Genre       string `json:"genre" validate:"omitempty,max=100"`
	Year        int    `json:"year" validate:"omitempty,pubyear"`
}

// BookResponse wraps a written book.
type BookResponse struct {
	Message string      `json:"message"`
	Book    *model.Book `json:"book"`
}

func (r *CreateBookRequest) trim() {
	r.Title = strings.TrimSpace(r.Title)
	r.Author = strings.TrimSpace(r.Author)
	r.Description = strings.TrimSpace(r.Description)
	r.Genre = strings.TrimSpace(r.Genre)
}

func (r CreateBookRequest) input() service.BookInput {
	return service.BookInput{
		Title:       r.Title,
		Author:      r.Author,
		Description: r.Description,
		Genre:       r.Genre,
		Year:        r.Year,
	}
}

func (r *UpdateBookRequest) trim() { (*CreateBookRequest)(r).trim() }

func (r UpdateBookRequest) input() service.BookInput { return CreateBookRequest(r).input() }

// ListBooks godoc
// @Summary List books
// @Description Five books per page, filtered and sorted.
// @Tags books
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param search query string false "Substring of title or author"
// @Param genre query string false "Substring of genre"
// @Param year query int false "Exact publication year"
// @Param sortBy query string false "createdAt, year or averageRating" default(createdAt)
// @Param sortOrder query string false "asc or desc" default(desc)
// @Success 200 {object} service.BookPage
// @Failure 500 {object} errors.ErrorResponse
// @Router /books [get]
func (h *BookHandler) ListBooks(c echo.Context) error {
	q := service.BookQuery{
		Page:      queryInt(c, "page"),
		Search:    strings.TrimSpace(c.QueryParam("search")),
		Genre:     strings.TrimSpace(c.QueryParam("genre")),
		Year:      queryInt(c, "year"),
		SortBy:    c.QueryParam("sortBy"),
		SortOrder: strings.ToLower(c.QueryParam("sortOrder")),
	}

	page, err := h.bookService.List(c.Request().Context(), q)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, page)
}

// GetBook godoc
// @Summary Book details with reviews and average rating
// @Tags books
// @Produce json
// @Param id path string true "Book ID"
// @Success 200 {object} service.BookDetails
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /books/{id} [get]
func (h *BookHandler) GetBook(c echo.Context) error {
	id, err := parseID(c.Param("id"))
	if err != nil {
		return err
	}
	details, err := h.bookService.GetDetails(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, details)
}

// CreateBook godoc
// @Summary Add a book
// @Tags books
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateBookRequest true "Book"
// @Success 201 {object} BookResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /books [post]
func (h *BookHandler) CreateBook(c echo.Context) error {
	user, err := CurrentUser(c)
	if err != nil {
		return err
	}

	var req CreateBookRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	req.trim()
	if err := c.Validate(&req); err != nil {
		return err
	}

	book, err := h.bookService.Create(c.Request().Context(), req.input(), user.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, BookResponse{Message: "Book added successfully", Book: book})
}

// UpdateBook godoc
// @Summary Update a book you added
// @Tags books
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Book ID"
// @Param request body UpdateBookRequest true "Fields to change"
// @Success 200 {object} BookResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /books/{id} [put]
func (h *BookHandler) UpdateBook(c echo.Context) error {
	user, err := CurrentUser(c)
	if err != nil {
		return err
	}
	id, err := parseID(c.Param("id"))
	if err != nil {
		return err
	}

	var req UpdateBookRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	req.trim()
	if err := c.Validate(&req); err != nil {
		return err
	}

	book, err := h.bookService.Update(c.Request().Context(), id, req.input(), user.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, BookResponse{Message: "Book updated successfully", Book: book})
}

// DeleteBook godoc
// @Summary Delete a book you added, with its reviews
// @Tags books
// @Produce json
// @Security BearerAuth
// @Param id path string true "Book ID"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /books/{id} [delete]
func (h *BookHandler) DeleteBook(c echo.Context) error {
	user, err := CurrentUser(c)
	if err != nil {
		return err
	}
	id, err := parseID(c.Param("id"))
	if err != nil {
		return err
	}
	if err := h.bookService.Delete(c.Request().Context(), id, user.ID); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, MessageResponse{Message: "Book deleted successfully"})
}

func parseID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apperrors.ErrInvalidID
	}
	return id, nil
}

// queryInt reads an integer query parameter; anything unparsable counts as absent.
func queryInt(c echo.Context, name string) int {
	n, err := strconv.Atoi(strings.TrimSpace(c.QueryParam(name)))
	if err != nil {
		return 0
	}
	return n
}
