package mail

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jonathan-kellerai/brennerbot/internal/domain"
)

// MockClient is an in-memory mailbox for tests and offline development.
type MockClient struct {
	mu      sync.Mutex
	seq     int
	threads map[string]*domain.MailThread
}

func NewMockClient() *MockClient {
	return &MockClient{
		threads: make(map[string]*domain.MailThread),
	}
}

func (c *MockClient) SendMessage(ctx context.Context, project string, in domain.SendMessageInput) (*domain.MailMessage, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.seq++
	threadID := in.ThreadID
	if threadID == "" {
		threadID = fmt.Sprintf("thread-%d", c.seq)
	}
	thread, ok := c.threads[threadID]
	if !ok {
		thread = &domain.MailThread{ID: threadID, Subject: in.Subject}
		c.threads[threadID] = thread
	}

	msg := domain.MailMessage{
		ID:        fmt.Sprintf("msg-%d", c.seq),
		ThreadID:  threadID,
		From:      "researcher@brennerbot",
		To:        in.To,
		Subject:   in.Subject,
		Body:      in.Body,
		CreatedAt: time.Now(),
	}
	thread.Messages = append(thread.Messages, msg)

	return &msg, nil
}

// Deliver injects a reply into a thread, standing in for an external agent.
func (c *MockClient) Deliver(threadID, from, body string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	thread, ok := c.threads[threadID]
	if !ok {
		thread = &domain.MailThread{ID: threadID}
		c.threads[threadID] = thread
	}
	c.seq++
	thread.Messages = append(thread.Messages, domain.MailMessage{
		ID:        fmt.Sprintf("msg-%d", c.seq),
		ThreadID:  threadID,
		From:      from,
		Body:      body,
		CreatedAt: time.Now(),
	})
}

func (c *MockClient) GetThread(ctx context.Context, project, threadID string) (*domain.MailThread, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	thread, ok := c.threads[threadID]
	if !ok {
		return nil, fmt.Errorf("thread %q not found", threadID)
	}

	out := &domain.MailThread{ID: thread.ID, Subject: thread.Subject}
	out.Messages = append(out.Messages, thread.Messages...)
	return out, nil
}

func (c *MockClient) ListInbox(ctx context.Context, project, agent string) ([]domain.MailMessage, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var inbox []domain.MailMessage
	for _, thread := range c.threads {
		for _, msg := range thread.Messages {
			for _, to := range msg.To {
				if to == agent {
					inbox = append(inbox, msg)
				}
			}
		}
	}
	return inbox, nil
}
