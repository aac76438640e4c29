package models

import (
	"encoding/json"
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Post represents a blog post as returned by the blog API.
type Post struct {
	ID        string     `json:"_id"`
	Title     string     `json:"title"`
	Body      string     `json:"body"`
	Author    string     `json:"author"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}

// PostInput holds the fields of the post form.
type PostInput struct {
	Title  string `json:"title" validate:"required"`
	Body   string `json:"body" validate:"required"`
	Author string `json:"author"`
}

// Envelope is the response wrapper used by every blog API endpoint.
type Envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Message string          `json:"message,omitempty"`
}

// ViewState is the per-browser state of the form.
type ViewState struct {
	SessionID    string    `json:"-"`
	ActivePostID string    `json:"active_post_id,omitempty"`
	Form         PostInput `json:"form"`
}

// FlashKind is the style of a transient message.
type FlashKind string

const (
	FlashSuccess FlashKind = "success"
	FlashError   FlashKind = "error"
)

// Flash is a transient inline message.
type Flash struct {
	Text      string    `json:"text"`
	Kind      FlashKind `json:"kind"`
	ExpiresAt time.Time `json:"expires_at"`
}
