// Package mail implements the Agent Mail relay client. The relay is
// consumed strictly as a mailbox: send a message, read a thread, read an
// inbox.
package mail

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/jonathan-kellerai/brennerbot/internal/domain"
)

type AgentMailClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewAgentMailClient(baseURL, apiKey string) *AgentMailClient {
	return &AgentMailClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{},
	}
}

type sendMessageRequest struct {
	To       []string `json:"to"`
	Subject  string   `json:"subject"`
	Body     string   `json:"body"`
	ThreadID string   `json:"thread_id,omitempty"`
}

type mailErrorBody struct {
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (c *AgentMailClient) do(ctx context.Context, method, path string, body any, out any) error {
	var reqBody io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal agentmail request: %w", err)
		}
		reqBody = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("create agentmail request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("agentmail request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read agentmail response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errBody mailErrorBody
		if json.Unmarshal(respBody, &errBody) == nil && errBody.Error != nil {
			return fmt.Errorf("agentmail API error (status %d): %s", resp.StatusCode, errBody.Error.Message)
		}
		return fmt.Errorf("agentmail API returned status %d: %s", resp.StatusCode, string(respBody))
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("unmarshal agentmail response: %w", err)
		}
	}
	return nil
}

func (c *AgentMailClient) SendMessage(ctx context.Context, project string, in domain.SendMessageInput) (*domain.MailMessage, error) {
	var msg domain.MailMessage
	path := fmt.Sprintf("/projects/%s/messages", url.PathEscape(project))
	err := c.do(ctx, http.MethodPost, path, sendMessageRequest{
		To:       in.To,
		Subject:  in.Subject,
		Body:     in.Body,
		ThreadID: in.ThreadID,
	}, &msg)
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

func (c *AgentMailClient) GetThread(ctx context.Context, project, threadID string) (*domain.MailThread, error) {
	var thread domain.MailThread
	path := fmt.Sprintf("/projects/%s/threads/%s", url.PathEscape(project), url.PathEscape(threadID))
	if err := c.do(ctx, http.MethodGet, path, nil, &thread); err != nil {
		return nil, err
	}
	return &thread, nil
}

func (c *AgentMailClient) ListInbox(ctx context.Context, project, agent string) ([]domain.MailMessage, error) {
	var out struct {
		Messages []domain.MailMessage `json:"messages"`
	}
	path := fmt.Sprintf("/projects/%s/agents/%s/inbox", url.PathEscape(project), url.PathEscape(agent))
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Messages, nil
}
