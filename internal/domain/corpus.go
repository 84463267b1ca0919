package domain

import (
	"time"

	"github.com/google/uuid"
)

// Excerpt is one passage from the Brenner interview corpus.
type Excerpt struct {
	ID        uuid.UUID `json:"id"`
	Tape      string    `json:"tape"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Topics    []string  `json:"topics,omitempty"`
	Embedding []float32 `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// ExcerptWithScore pairs an excerpt with its similarity score for search
// results.
type ExcerptWithScore struct {
	Excerpt
	Score float32 `json:"score"`
}
