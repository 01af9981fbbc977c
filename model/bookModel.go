// model/book.go
package model

import (
	"regexp"
	"time"
)

type BookCondition string

const (
	ConditionNew     BookCondition = "New"
	ConditionLikeNew BookCondition = "Like New"
	ConditionGood    BookCondition = "Good"
	ConditionFair    BookCondition = "Fair"
	ConditionPoor    BookCondition = "Poor"
)

func (c BookCondition) Valid() bool {
	switch c {
	case ConditionNew, ConditionLikeNew, ConditionGood, ConditionFair, ConditionPoor:
		return true
	}
	return false
}

var isbnRe = regexp.MustCompile(`^(?:\d{10}|\d{13})$`)

// ValidISBN accepts 10 or 13 digit ISBNs.
func ValidISBN(s string) bool { return isbnRe.MatchString(s) }

type Book struct {
	ID          int64         `json:"id"`
	Title       string        `json:"title"`
	Author      string        `json:"author"`
	Condition   BookCondition `json:"condition"`
	Description *string       `json:"description,omitempty"`
	Genre       *string       `json:"genre,omitempty"`
	ISBN        *string       `json:"isbn,omitempty"`
	Image       *string       `json:"image,omitempty"`
	OwnerID     int64         `json:"owner_id"`
	Owner       UserSummary   `json:"owner"`
	IsAvailable bool          `json:"is_available"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// BookSummary is the denormalized book shape embedded in request payloads.
type BookSummary struct {
	ID        int64         `json:"id"`
	Title     string        `json:"title"`
	Author    string        `json:"author"`
	Condition BookCondition `json:"condition"`
	Image     *string       `json:"image,omitempty"`
}
