package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan-kellerai/brennerbot/internal/domain"
	"github.com/jonathan-kellerai/brennerbot/internal/mail"
	"go.uber.org/zap"
)

func newTestTribunalService() (*TribunalService, *mail.MockClient, *SessionService) {
	mailClient := mail.NewMockClient()
	sessionSvc, sessionStore := newTestSessionService()
	svc := NewTribunalService(mailClient, sessionStore, "brenner-tribunal", zap.NewNop())
	svc.SetNow(func() time.Time { return time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC) })
	return svc, mailClient, sessionSvc
}

func TestTribunalService_Dispatch(t *testing.T) {
	svc, _, sessionSvc := newTestTribunalService()
	researcherID := uuid.New()
	session := startSession(t, sessionSvc, researcherID)

	dispatches, err := svc.Dispatch(context.Background(), session.ID, researcherID, session.PrimaryHypothesisID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	roles := domain.AllTribunalRoles()
	if len(dispatches) != len(roles) {
		t.Fatalf("dispatches = %d, want %d", len(dispatches), len(roles))
	}
	for i, d := range dispatches {
		if d.Role != roles[i] {
			t.Errorf("dispatch %d role = %s, want %s", i, d.Role, roles[i])
		}
		if d.ThreadID == "" || d.MessageID == "" {
			t.Errorf("dispatch %d missing ids: %+v", i, d)
		}
		if d.CardID != session.PrimaryHypothesisID {
			t.Errorf("dispatch %d card = %s", i, d.CardID)
		}
	}

	// Dispatches are recorded on the session.
	stored, err := sessionSvc.GetByID(context.Background(), session.ID, researcherID)
	if err != nil {
		t.Fatalf("reload session: %v", err)
	}
	if len(stored.TribunalDispatches) != len(roles) {
		t.Errorf("stored dispatches = %d, want %d", len(stored.TribunalDispatches), len(roles))
	}
}

func TestTribunalService_Dispatch_CardNotFound(t *testing.T) {
	svc, _, sessionSvc := newTestTribunalService()
	researcherID := uuid.New()
	session := startSession(t, sessionSvc, researcherID)

	_, err := svc.Dispatch(context.Background(), session.ID, researcherID, "HC-9-9-v9")
	if !errors.Is(err, ErrTribunalCardNotFound) {
		t.Errorf("err = %v, want ErrTribunalCardNotFound", err)
	}
}

func TestTribunalService_DispatchBody(t *testing.T) {
	card := domain.HypothesisCard{
		ID:               "HC-1-1-v1",
		Statement:        "tension gates the channel",
		Mechanism:        "direct mechanical coupling",
		ImpossibleIfTrue: []string{"opening in tension-free patches"},
		Confidence:       62,
	}

	body := critiqueBody(domain.RoleFalsifier, card)
	for _, want := range []string{"HC-1-1-v1", "tension gates the channel", "VERDICT", "62"} {
		if !strings.Contains(body, want) {
			t.Errorf("critique body missing %q", want)
		}
	}
}

func TestParseVerdict(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantOK    bool
		result    domain.EvidenceResult
		rationale string
	}{
		{
			name:      "simple verdict",
			body:      "VERDICT: challenges the timescale does not fit",
			wantOK:    true,
			result:    domain.ResultChallenges,
			rationale: "the timescale does not fit",
		},
		{
			name:   "verdict after preamble",
			body:   "Considering the mechanism carefully.\n\nVERDICT: supports\nIt survives my strongest objection.",
			wantOK: true,
			result: domain.ResultSupports,
		},
		{
			name:   "case insensitive prefix and punctuation",
			body:   "verdict: eliminates. impossible at that concentration",
			wantOK: true,
			result: domain.ResultEliminates,
		},
		{
			name:   "no verdict line",
			body:   "I think this is probably wrong but I cannot say why.",
			wantOK: false,
		},
		{
			name:   "unknown result",
			body:   "VERDICT: maybe",
			wantOK: false,
		},
		{
			name:   "empty verdict",
			body:   "VERDICT:",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, rationale, ok := parseVerdict(tt.body)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if result != tt.result {
				t.Errorf("result = %s, want %s", result, tt.result)
			}
			if tt.rationale != "" && rationale != tt.rationale {
				t.Errorf("rationale = %q, want %q", rationale, tt.rationale)
			}
		})
	}
}

func TestTribunalService_CollectVerdicts(t *testing.T) {
	svc, mailClient, sessionSvc := newTestTribunalService()
	researcherID := uuid.New()
	session := startSession(t, sessionSvc, researcherID)

	dispatches, err := svc.Dispatch(context.Background(), session.ID, researcherID, session.PrimaryHypothesisID)
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	threadID := dispatches[0].ThreadID

	mailClient.Deliver(threadID, "falsifier@tribunal", "VERDICT: challenges no disconfirming prediction stated")
	mailClient.Deliver(threadID, "scale_checker@tribunal", "VERDICT: supports magnitudes check out")
	mailClient.Deliver(threadID, "rival_theorist@tribunal", "I refuse to give a verdict.")
	mailClient.Deliver(threadID, "spam@elsewhere", "VERDICT: supports buy now")

	verdicts, err := svc.CollectVerdicts(context.Background(), threadID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(verdicts) != 2 {
		t.Fatalf("verdicts = %d, want 2 (junk and unknown senders skipped)", len(verdicts))
	}
	if verdicts[0].Role != domain.RoleFalsifier || verdicts[0].Result != domain.ResultChallenges {
		t.Errorf("verdict 0 = %+v", verdicts[0])
	}
	if verdicts[1].Role != domain.RoleScaleChecker || verdicts[1].Result != domain.ResultSupports {
		t.Errorf("verdict 1 = %+v", verdicts[1])
	}
}

func TestTribunalService_CollectVerdicts_EmptyThreadID(t *testing.T) {
	svc, _, _ := newTestTribunalService()

	_, err := svc.CollectVerdicts(context.Background(), "")
	if !errors.Is(err, ErrThreadIDEmpty) {
		t.Errorf("err = %v, want ErrThreadIDEmpty", err)
	}
}

func TestTribunalService_ApplyVerdicts(t *testing.T) {
	svc, _, _ := newTestTribunalService()

	verdicts := []domain.TribunalVerdict{
		{Role: domain.RoleFalsifier, Result: domain.ResultChallenges},
		{Role: domain.RoleMechanismSkeptic, Result: domain.ResultNeutral},
		{Role: domain.RoleScaleChecker, Result: domain.ResultSupports},
	}

	card := domain.HypothesisCard{Confidence: 50}
	update, err := svc.ApplyVerdicts(card, verdicts, 3, DefaultUpdateConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(update.Steps) != 3 {
		t.Fatalf("steps = %d, want 3", len(update.Steps))
	}
	// 50 -> -3*7/100*50 = 39.5, neutral holds, then +3*4/100*60.5 = +7.26
	if !almostEqual(update.FinalConfidence, 46.76) {
		t.Errorf("final = %f, want 46.76", update.FinalConfidence)
	}
	if update.Steps[1].Delta != 0 {
		t.Errorf("neutral step delta = %f, want 0", update.Steps[1].Delta)
	}
}

func TestVerdictEvidence(t *testing.T) {
	verdicts := []domain.TribunalVerdict{
		{Role: domain.RoleRivalTheorist, Result: domain.ResultChallenges},
	}

	items := VerdictEvidence(verdicts, 4)
	if len(items) != 1 {
		t.Fatalf("items = %d, want 1", len(items))
	}
	if items[0].Test.ID != "tribunal-rival_theorist" {
		t.Errorf("test id = %s", items[0].Test.ID)
	}
	if items[0].Test.DiscriminativePower != 4 {
		t.Errorf("power = %d, want 4", items[0].Test.DiscriminativePower)
	}
	if items[0].Result != domain.ResultChallenges {
		t.Errorf("result = %s", items[0].Result)
	}
}
