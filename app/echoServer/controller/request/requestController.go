package request

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"bookswap/model"
	requestsvc "bookswap/service/request"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type Controller struct {
	Svc requestsvc.Service
	V   *validator.Validate
	Log *slog.Logger
}

// POST /v1/requests
// @Summary      Request a book
// @Tags         requests
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body  CreateRequestReq  true  "Request payload"
// @Success      201  {object}  map[string]any
// @Failure      400  {object}  map[string]any "book unavailable or own book"
// @Failure      404  {object}  map[string]any
// @Failure      409  {object}  map[string]any "already requested"
// @Router       /v1/requests [post]
func (h *Controller) Create(c echo.Context) error {
	var req CreateRequestReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid JSON"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"message": "validation error",
			"errors":  err.Error(),
		})
	}

	uid, _ := c.Get("user_id").(int64)
	detail, err := h.Svc.Create(c.Request().Context(), uid, req.BookID, req.Message)
	if err != nil {
		switch requestsvc.Code(err) {
		case requestsvc.ErrNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"message": "book not found"})
		case requestsvc.ErrInvalidState:
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "this book is not available for request"})
		case requestsvc.ErrDuplicate:
			return c.JSON(http.StatusConflict, echo.Map{"message": "you have already requested this book"})
		default:
			h.Log.Error("request create", "err", err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
		}
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"message": "book request sent successfully",
		"request": detail,
	})
}

// GET /v1/requests/sent
// @Summary      Requests I sent
// @Tags         requests
// @Produce      json
// @Security     BearerAuth
// @Param        status  query  string  false  "status filter"
// @Param        page    query  int     false  "page"
// @Param        limit   query  int     false  "page size"
// @Success      200  {object}  map[string]any
// @Router       /v1/requests/sent [get]
func (h *Controller) Sent(c echo.Context) error {
	return h.list(c, h.Svc.Sent)
}

// GET /v1/requests/received
// @Summary      Requests for my books
// @Tags         requests
// @Produce      json
// @Security     BearerAuth
// @Param        status  query  string  false  "status filter"
// @Param        page    query  int     false  "page"
// @Param        limit   query  int     false  "page size"
// @Success      200  {object}  map[string]any
// @Router       /v1/requests/received [get]
func (h *Controller) Received(c echo.Context) error {
	return h.list(c, h.Svc.Received)
}

type listFn func(ctx context.Context, userID int64, status string, page, limit int) ([]model.RequestDetail, int64, error)

func (h *Controller) list(c echo.Context, fetch listFn) error {
	status := c.QueryParam("status")
	if status != "" && !model.RequestStatus(status).Valid() {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid status filter"})
	}
	page, limit := pageParams(c)
	uid, _ := c.Get("user_id").(int64)

	rows, total, err := fetch(c.Request().Context(), uid, status, page, limit)
	if err != nil {
		h.Log.Error("request list", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"requests":   rows,
		"pagination": model.NewPagination(page, limit, total),
	})
}

// GET /v1/requests/stats
// @Summary      Request counts by status
// @Tags         requests
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  map[string]any
// @Router       /v1/requests/stats [get]
func (h *Controller) Stats(c echo.Context) error {
	uid, _ := c.Get("user_id").(int64)
	stats, err := h.Svc.Stats(c.Request().Context(), uid)
	if err != nil {
		h.Log.Error("request stats", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, stats)
}

// GET /v1/requests/:id
// @Summary      Request detail
// @Tags         requests
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  map[string]any
// @Failure      403  {object}  map[string]any
// @Failure      404  {object}  map[string]any
// @Router       /v1/requests/{id} [get]
func (h *Controller) Detail(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}

	uid, _ := c.Get("user_id").(int64)
	detail, err := h.Svc.Get(c.Request().Context(), uid, id)
	if err != nil {
		switch requestsvc.Code(err) {
		case requestsvc.ErrNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"message": "request not found"})
		case requestsvc.ErrForbidden:
			return c.JSON(http.StatusForbidden, echo.Map{"message": "you are not part of this request"})
		default:
			h.Log.Error("request detail", "err", err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"request": detail})
}

// PUT /v1/requests/:id (owner)
// @Summary      Accept, decline or complete a request
// @Tags         requests
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body  UpdateRequestReq  true  "Decision payload"
// @Success      200  {object}  map[string]any
// @Failure      400  {object}  map[string]any "request not in the expected status"
// @Failure      403  {object}  map[string]any
// @Failure      404  {object}  map[string]any
// @Router       /v1/requests/{id} [put]
func (h *Controller) Update(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}

	var req UpdateRequestReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid JSON"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"message": "validation error",
			"errors":  err.Error(),
		})
	}

	uid, _ := c.Get("user_id").(int64)

	var detail *model.RequestDetail
	if req.Status == string(model.StatusCompleted) {
		detail, err = h.Svc.Complete(c.Request().Context(), uid, id)
	} else {
		detail, err = h.Svc.Respond(c.Request().Context(), uid, id,
			model.RequestStatus(req.Status), req.ResponseMessage)
	}
	if err != nil {
		switch requestsvc.Code(err) {
		case requestsvc.ErrNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"message": "request not found"})
		case requestsvc.ErrForbidden:
			return c.JSON(http.StatusForbidden, echo.Map{"message": "you can only update requests for your own books"})
		case requestsvc.ErrInvalidState:
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "request has already been processed"})
		default:
			h.Log.Error("request update", "err", err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
		}
	}

	return c.JSON(http.StatusOK, echo.Map{
		"message": "request " + req.Status + " successfully",
		"request": detail,
	})
}

// DELETE /v1/requests/:id (requester)
// @Summary      Cancel my pending request
// @Tags         requests
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  map[string]any
// @Failure      400  {object}  map[string]any
// @Failure      403  {object}  map[string]any
// @Failure      404  {object}  map[string]any
// @Router       /v1/requests/{id} [delete]
func (h *Controller) Cancel(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}

	uid, _ := c.Get("user_id").(int64)
	if err := h.Svc.Cancel(c.Request().Context(), uid, id); err != nil {
		switch requestsvc.Code(err) {
		case requestsvc.ErrNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"message": "request not found"})
		case requestsvc.ErrForbidden:
			return c.JSON(http.StatusForbidden, echo.Map{"message": "you can only cancel your own requests"})
		case requestsvc.ErrInvalidState:
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "only pending requests can be cancelled"})
		default:
			h.Log.Error("request cancel", "err", err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
		}
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "request cancelled successfully"})
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
