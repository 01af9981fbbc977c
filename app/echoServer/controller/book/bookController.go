package book

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"bookswap/model"
	booksvc "bookswap/service/book"
	"bookswap/util/upload"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type Controller struct {
	Svc   booksvc.Service
	Files *upload.Store
	V     *validator.Validate
	Log   *slog.Logger
}

// POST /v1/books (multipart)
// @Summary      Post a book
// @Tags         books
// @Accept       mpfd
// @Produce      json
// @Security     BearerAuth
// @Success      201  {object}  map[string]any
// @Failure      400  {object}  map[string]any
// @Router       /v1/books [post]
func (h *Controller) Create(c echo.Context) error {
	var req CreateBookReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid form"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"message": "validation error",
			"errors":  err.Error(),
		})
	}

	image, err := h.saveImage(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": err.Error()})
	}

	uid, _ := c.Get("user_id").(int64)
	b, err := h.Svc.Create(c.Request().Context(), uid, booksvc.CreateInput{
		Title:       req.Title,
		Author:      req.Author,
		Condition:   model.BookCondition(req.Condition),
		Description: optional(req.Description),
		Genre:       optional(req.Genre),
		ISBN:        optional(req.ISBN),
		Image:       image,
	})
	if err != nil {
		h.removeImage(image)
		if booksvc.Code(err) == booksvc.ErrBadInput {
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid payload"})
		}
		h.Log.Error("book create error", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"message": "book posted successfully",
		"book":    b,
	})
}

// GET /v1/books
// @Summary      Browse available books
// @Tags         books
// @Produce      json
// @Security     BearerAuth
// @Param        page       query  int     false  "page"
// @Param        limit      query  int     false  "page size"
// @Param        search     query  string  false  "title/author/description search"
// @Param        genre      query  string  false  "genre filter"
// @Param        condition  query  string  false  "condition filter"
// @Success      200  {object}  map[string]any
// @Router       /v1/books [get]
func (h *Controller) List(c echo.Context) error {
	page, limit := pageParams(c)
	books, total, err := h.Svc.List(c.Request().Context(), booksvc.Filter{
		Search:    c.QueryParam("search"),
		Genre:     c.QueryParam("genre"),
		Condition: c.QueryParam("condition"),
		Page:      page,
		Limit:     limit,
	})
	if err != nil {
		h.Log.Error("book list error", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"books":      books,
		"pagination": model.NewPagination(page, limit, total),
	})
}

// GET /v1/books/my-books
// @Summary      List my books
// @Tags         books
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  map[string]any
// @Router       /v1/books/my-books [get]
func (h *Controller) MyBooks(c echo.Context) error {
	page, limit := pageParams(c)
	uid, _ := c.Get("user_id").(int64)

	books, total, err := h.Svc.MyBooks(c.Request().Context(), uid, page, limit)
	if err != nil {
		h.Log.Error("my books error", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"books":      books,
		"pagination": model.NewPagination(page, limit, total),
	})
}

// GET /v1/books/:id
// @Summary      Book detail
// @Tags         books
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  model.Book
// @Failure      404  {object}  map[string]any
// @Router       /v1/books/{id} [get]
func (h *Controller) Detail(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}

	b, err := h.Svc.Detail(c.Request().Context(), id)
	if err != nil {
		if booksvc.Code(err) == booksvc.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "book not found"})
		}
		h.Log.Error("book detail error", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, b)
}

// PUT /v1/books/:id (multipart, owner only)
// @Summary      Update a book
// @Tags         books
// @Accept       mpfd
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  map[string]any
// @Failure      403  {object}  map[string]any
// @Failure      404  {object}  map[string]any
// @Router       /v1/books/{id} [put]
func (h *Controller) Update(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}

	var req UpdateBookReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid form"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"message": "validation error",
			"errors":  err.Error(),
		})
	}

	image, err := h.saveImage(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": err.Error()})
	}

	uid, _ := c.Get("user_id").(int64)
	var condition *model.BookCondition
	if req.Condition != nil {
		cond := model.BookCondition(*req.Condition)
		condition = &cond
	}

	b, oldImage, err := h.Svc.Update(c.Request().Context(), uid, id, booksvc.UpdateInput{
		Title:       req.Title,
		Author:      req.Author,
		Condition:   condition,
		Description: req.Description,
		Genre:       req.Genre,
		ISBN:        req.ISBN,
		Image:       image,
	})
	if err != nil {
		h.removeImage(image)
		switch booksvc.Code(err) {
		case booksvc.ErrNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"message": "book not found"})
		case booksvc.ErrNotOwner:
			return c.JSON(http.StatusForbidden, echo.Map{"message": "you can only update your own books"})
		case booksvc.ErrBadInput:
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid payload"})
		default:
			h.Log.Error("book update error", "err", err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
		}
	}

	if oldImage != nil {
		h.removeImage(oldImage)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"message": "book updated successfully",
		"book":    b,
	})
}

// DELETE /v1/books/:id (owner only)
// @Summary      Delete a book
// @Tags         books
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  map[string]any
// @Failure      403  {object}  map[string]any
// @Failure      404  {object}  map[string]any
// @Router       /v1/books/{id} [delete]
func (h *Controller) Delete(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}

	uid, _ := c.Get("user_id").(int64)
	image, err := h.Svc.Delete(c.Request().Context(), uid, id)
	if err != nil {
		switch booksvc.Code(err) {
		case booksvc.ErrNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"message": "book not found"})
		case booksvc.ErrNotOwner:
			return c.JSON(http.StatusForbidden, echo.Map{"message": "you can only delete your own books"})
		default:
			h.Log.Error("book delete error", "err", err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
		}
	}

	h.removeImage(image)
	return c.JSON(http.StatusOK, echo.Map{"message": "book deleted successfully"})
}

// saveImage stores an optional "image" form file; nil when none was sent.
func (h *Controller) saveImage(c echo.Context) (*string, error) {
	fh, err := c.FormFile("image")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, nil
		}
		// No multipart body at all is fine too.
		return nil, nil
	}
	name, err := h.Files.Save(fh)
	if err != nil {
		return nil, err
	}
	return &name, nil
}

func (h *Controller) removeImage(name *string) {
	if name == nil {
		return
	}
	if err := h.Files.Remove(*name); err != nil {
		h.Log.Error("image cleanup failed", "file", *name, "err", err)
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func pageParams(c echo.Context) (int, int) {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit < 1 || limit > 100 {
		limit = 10
	}
	return page, limit
}
