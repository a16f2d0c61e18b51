package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Composition is a stored piece. The rendered score is kept as JSON so any
// export format can be produced again later.
type Composition struct {
	ID         string    `gorm:"primaryKey;size:36" json:"id"`
	CreatedAt  time.Time `json:"created_at"`
	UserID     string    `gorm:"index" json:"user_id,omitempty"`
	Title      string    `json:"title"`
	Form       string    `gorm:"index;not null" json:"form"`
	Measures   int       `gorm:"not null" json:"measures"`
	Seed       string    `gorm:"size:20;not null" json:"seed"` // decimal uint64
	Key        string    `json:"key"`
	DurationMS int64     `json:"duration_ms"`
	Score      string    `gorm:"type:text" json:"-"`
}

// BeforeCreate assigns a UUID when the caller did not set one
func (c *Composition) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	return nil
}

// CompositionRequest is the body of POST /api/v1/compositions
type CompositionRequest struct {
	Measures int     `json:"measures" binding:"required"`
	Form     string  `json:"form"`
	Seed     *uint64 `json:"seed,omitempty"` // Optional seed for reproducibility
	Format   string  `json:"format"`         // "json" (default), "midi", "musicxml"
	Save     *bool   `json:"save,omitempty"` // Defaults to true
}

// ShouldSave reports whether the request wants the composition persisted
func (r CompositionRequest) ShouldSave() bool {
	return r.Save == nil || *r.Save
}

// ListOptions pages through stored compositions
type ListOptions struct {
	UserID string
	Form   string
	Limit  int
	Offset int
}
