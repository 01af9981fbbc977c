// model/request.go
package model

import (
	"math"
	"time"
)

type RequestStatus string

const (
	StatusPending   RequestStatus = "pending"
	StatusAccepted  RequestStatus = "accepted"
	StatusDeclined  RequestStatus = "declined"
	StatusCancelled RequestStatus = "cancelled"
	StatusCompleted RequestStatus = "completed"
)

func (s RequestStatus) Valid() bool {
	switch s {
	case StatusPending, StatusAccepted, StatusDeclined, StatusCancelled, StatusCompleted:
		return true
	}
	return false
}

// Terminal statuses permit no further transition.
func (s RequestStatus) Terminal() bool {
	return s == StatusDeclined || s == StatusCancelled || s == StatusCompleted
}

type BookRequest struct {
	ID              int64         `json:"id"`
	BookID          int64         `json:"book_id"`
	RequesterID     int64         `json:"requester_id"`
	OwnerID         int64         `json:"owner_id"`
	Status          RequestStatus `json:"status"`
	Message         *string       `json:"message,omitempty"`
	ResponseMessage *string       `json:"response_message,omitempty"`
	RequestedAt     time.Time     `json:"requested_at"`
	RespondedAt     *time.Time    `json:"responded_at,omitempty"`
}

// RequestDetail is a BookRequest with the denormalized book/requester/owner
// summaries the API returns.
type RequestDetail struct {
	BookRequest
	Book      BookSummary `json:"book"`
	Requester UserSummary `json:"requester"`
	Owner     UserSummary `json:"owner"`
}

// StatusCounts reports every status, zeroes included.
type StatusCounts struct {
	Pending   int64 `json:"pending"`
	Accepted  int64 `json:"accepted"`
	Declined  int64 `json:"declined"`
	Cancelled int64 `json:"cancelled"`
	Completed int64 `json:"completed"`
}

func (c *StatusCounts) Set(s RequestStatus, n int64) {
	switch s {
	case StatusPending:
		c.Pending = n
	case StatusAccepted:
		c.Accepted = n
	case StatusDeclined:
		c.Declined = n
	case StatusCancelled:
		c.Cancelled = n
	case StatusCompleted:
		c.Completed = n
	}
}

type Pagination struct {
	CurrentPage int   `json:"current_page"`
	TotalPages  int   `json:"total_pages"`
	TotalItems  int64 `json:"total_items"`
	HasNextPage bool  `json:"has_next_page"`
	HasPrevPage bool  `json:"has_prev_page"`
}

func NewPagination(page, limit int, total int64) Pagination {
	totalPages := int(math.Ceil(float64(total) / float64(limit)))
	return Pagination{
		CurrentPage: page,
		TotalPages:  totalPages,
		TotalItems:  total,
		HasNextPage: page < totalPages,
		HasPrevPage: page > 1,
	}
}
