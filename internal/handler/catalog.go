package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/library-circulation/internal/repository"
)

// CatalogHandler serves the public, read-only catalog endpoints.  No
// authentication is required; responses carry derived availability
// counts computed from copy state at query time.
type CatalogHandler struct {
	Books  *repository.BookRepo
	Copies *repository.CopyRepo
}

func NewCatalogHandler(b *repository.BookRepo, cp *repository.CopyRepo) *CatalogHandler {
	return &CatalogHandler{Books: b, Copies: cp}
}

// ListBooks handles GET /v1/books.  The optional q parameter filters by
// keyword and by selects the field to match (title, author, category or
// isbn); with no parameters the whole catalog is returned.
func (h *CatalogHandler) ListBooks(c echo.Context) error {
	books, err := h.Books.Search(c.Request().Context(), c.QueryParam("q"), c.QueryParam("by"))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "search failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": books})
}

// GetBook handles GET /v1/books/:id.  The response includes the book's
// metadata with derived counts plus its individual copies and their
// shelf locations.
func (h *CatalogHandler) GetBook(c echo.Context) error {
	bookID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid book id"})
	}
	ctx := c.Request().Context()

	book, err := h.Books.GetByID(ctx, bookID)
	if err != nil {
		if errors.Is(err, repository.ErrBookNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "book not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	copies, err := h.Copies.ListByBook(ctx, bookID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"book":   book,
		"copies": copies,
	})
}
