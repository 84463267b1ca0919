package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type ResearcherStore interface {
	Create(ctx context.Context, r *Researcher) error
	GetByID(ctx context.Context, id uuid.UUID) (*Researcher, error)
	GetByAPIKeyHash(ctx context.Context, apiKeyHash string) (*Researcher, error)
}

type SessionStore interface {
	Create(ctx context.Context, s *Session) error
	GetByID(ctx context.Context, id uuid.UUID, researcherID uuid.UUID) (*Session, error)
	Update(ctx context.Context, s *Session) error
	ListByResearcher(ctx context.Context, researcherID uuid.UUID) ([]Session, error)
	NextSeq(ctx context.Context, researcherID uuid.UUID) (int, error)
}

type CorpusStore interface {
	Create(ctx context.Context, e *Excerpt) error
	GetByID(ctx context.Context, id uuid.UUID) (*Excerpt, error)
	Search(ctx context.Context, embedding []float32, topK int) ([]ExcerptWithScore, error)
}

// MailMessage is one message in an Agent Mail thread.
type MailMessage struct {
	ID        string    `json:"id"`
	ThreadID  string    `json:"thread_id"`
	From      string    `json:"from"`
	To        []string  `json:"to"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// MailThread is a thread of messages keyed by id.
type MailThread struct {
	ID       string        `json:"id"`
	Subject  string        `json:"subject"`
	Messages []MailMessage `json:"messages"`
}

// SendMessageInput carries everything needed to send one message. An empty
// ThreadID starts a new thread.
type SendMessageInput struct {
	To       []string `json:"to"`
	Subject  string   `json:"subject"`
	Body     string   `json:"body"`
	ThreadID string   `json:"thread_id,omitempty"`
}

// MailClient is the mailbox surface of the Agent Mail relay. The core
// engines never call this; only the tribunal dispatch layer does.
type MailClient interface {
	SendMessage(ctx context.Context, project string, in SendMessageInput) (*MailMessage, error)
	GetThread(ctx context.Context, project, threadID string) (*MailThread, error)
	ListInbox(ctx context.Context, project, agent string) ([]MailMessage, error)
}

type EmbeddingClient interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}
