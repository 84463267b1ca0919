package mail

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jonathan-kellerai/brennerbot/internal/domain"
)

func TestAgentMailClient_SendMessage(t *testing.T) {
	var gotAuth, gotPath string
	var gotBody sendMessageRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(domain.MailMessage{
			ID:       "msg-1",
			ThreadID: "thread-1",
			To:       gotBody.To,
			Subject:  gotBody.Subject,
			Body:     gotBody.Body,
		})
	}))
	defer srv.Close()

	client := NewAgentMailClient(srv.URL, "am_test_key")
	msg, err := client.SendMessage(context.Background(), "brenner-tribunal", domain.SendMessageInput{
		To:      []string{"falsifier@tribunal"},
		Subject: "Critique request: HC-1-1-v1",
		Body:    "VERDICT line expected in reply",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotAuth != "Bearer am_test_key" {
		t.Errorf("auth header = %q", gotAuth)
	}
	if gotPath != "/projects/brenner-tribunal/messages" {
		t.Errorf("path = %q", gotPath)
	}
	if len(gotBody.To) != 1 || gotBody.To[0] != "falsifier@tribunal" {
		t.Errorf("to = %v", gotBody.To)
	}
	if msg.ID != "msg-1" || msg.ThreadID != "thread-1" {
		t.Errorf("message = %+v", msg)
	}
}

func TestAgentMailClient_GetThread(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/projects/p1/threads/thread-9" {
			t.Errorf("path = %q", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(domain.MailThread{
			ID: "thread-9",
			Messages: []domain.MailMessage{
				{ID: "msg-1", From: "falsifier@tribunal", Body: "VERDICT: challenges"},
			},
		})
	}))
	defer srv.Close()

	client := NewAgentMailClient(srv.URL, "k")
	thread, err := client.GetThread(context.Background(), "p1", "thread-9")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if thread.ID != "thread-9" || len(thread.Messages) != 1 {
		t.Errorf("thread = %+v", thread)
	}
}

func TestAgentMailClient_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error": {"message": "invalid api key"}}`))
	}))
	defer srv.Close()

	client := NewAgentMailClient(srv.URL, "bad")
	_, err := client.SendMessage(context.Background(), "p1", domain.SendMessageInput{To: []string{"a@b"}})
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "invalid api key") {
		t.Errorf("error should carry the API message: %v", err)
	}
}

func TestMockClient_ThreadsAndInbox(t *testing.T) {
	client := NewMockClient()

	msg, err := client.SendMessage(context.Background(), "p1", domain.SendMessageInput{
		To:      []string{"falsifier@tribunal"},
		Subject: "critique",
		Body:    "please respond",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msg.ThreadID == "" {
		t.Fatal("thread id missing")
	}

	client.Deliver(msg.ThreadID, "falsifier@tribunal", "VERDICT: neutral")

	thread, err := client.GetThread(context.Background(), "p1", msg.ThreadID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(thread.Messages) != 2 {
		t.Errorf("messages = %d, want 2", len(thread.Messages))
	}

	inbox, err := client.ListInbox(context.Background(), "p1", "falsifier@tribunal")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(inbox) != 1 {
		t.Errorf("inbox = %d, want 1", len(inbox))
	}
}

func TestMockClient_ReplyStaysInThread(t *testing.T) {
	client := NewMockClient()

	first, err := client.SendMessage(context.Background(), "p1", domain.SendMessageInput{
		To: []string{"x@tribunal"}, Subject: "s", Body: "b",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	second, err := client.SendMessage(context.Background(), "p1", domain.SendMessageInput{
		To: []string{"x@tribunal"}, Subject: "s", Body: "followup", ThreadID: first.ThreadID,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second.ThreadID != first.ThreadID {
		t.Errorf("thread = %s, want %s", second.ThreadID, first.ThreadID)
	}

	thread, _ := client.GetThread(context.Background(), "p1", first.ThreadID)
	if len(thread.Messages) != 2 {
		t.Errorf("messages = %d, want 2", len(thread.Messages))
	}
}
