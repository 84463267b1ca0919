package domain

import (
	"time"

	"github.com/google/uuid"
)

// Researcher is an authenticated owner of sessions. Dashboards and analytics
// are computed per researcher.
type Researcher struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	APIKeyHash string    `json:"-"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
