package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan-kellerai/brennerbot/internal/domain"
	"github.com/jonathan-kellerai/brennerbot/internal/store"
	"go.uber.org/zap"
)

var (
	ErrTribunalCardNotFound = errors.New("hypothesis card not found for dispatch")
	ErrThreadIDEmpty        = errors.New("thread_id is required")
)

// verdictPrefix is the line replies must carry for their verdict to be
// counted, e.g. "VERDICT: challenges".
const verdictPrefix = "VERDICT:"

// TribunalService dispatches hypothesis cards to role-played critique
// agents over the Agent Mail relay and collects their verdicts back into
// evidence the confidence engine understands. The relay is consumed only as
// a mailbox: send, read thread, read inbox.
type TribunalService struct {
	mail     domain.MailClient
	sessions domain.SessionStore
	logger   *zap.Logger
	project  string
	now      func() time.Time
}

func NewTribunalService(mail domain.MailClient, sessions domain.SessionStore, project string, logger *zap.Logger) *TribunalService {
	return &TribunalService{
		mail:     mail,
		sessions: sessions,
		logger:   logger,
		project:  project,
		now:      time.Now,
	}
}

// SetNow overrides the clock, for tests.
func (s *TribunalService) SetNow(now func() time.Time) {
	s.now = now
}

func roleMailbox(role domain.TribunalRole) string {
	return string(role) + "@tribunal"
}

func critiqueSubject(card domain.HypothesisCard) string {
	return fmt.Sprintf("Critique request: %s", card.ID)
}

func critiqueBody(role domain.TribunalRole, card domain.HypothesisCard) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Role: %s\n", role.DisplayName())
	fmt.Fprintf(&b, "Charge: %s\n\n", role.Brief())
	fmt.Fprintf(&b, "Hypothesis %s (confidence %.0f)\n", card.ID, card.Confidence)
	fmt.Fprintf(&b, "Statement: %s\n", card.Statement)
	if card.Mechanism != "" {
		fmt.Fprintf(&b, "Mechanism: %s\n", card.Mechanism)
	}
	writeList := func(label string, items []string) {
		if len(items) == 0 {
			return
		}
		fmt.Fprintf(&b, "%s:\n", label)
		for _, item := range items {
			fmt.Fprintf(&b, "  - %s\n", item)
		}
	}
	writeList("Predictions if true", card.PredictionsIfTrue)
	writeList("Predictions if false", card.PredictionsIfFalse)
	writeList("Impossible if true", card.ImpossibleIfTrue)
	fmt.Fprintf(&b, "\nReply with a line %q followed by one of: supports, challenges, neutral, eliminates, then your rationale.\n", verdictPrefix)
	return b.String()
}

// Dispatch sends one critique request per tribunal role and records the
// dispatches on the session. Returns the dispatches in role order.
func (s *TribunalService) Dispatch(ctx context.Context, sessionID, researcherID uuid.UUID, cardID string) ([]domain.TribunalDispatch, error) {
	session, err := s.sessions.GetByID(ctx, sessionID, researcherID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	card, ok := session.HypothesisCards[cardID]
	if !ok {
		return nil, ErrTribunalCardNotFound
	}
	if session.IsArchived(cardID) {
		return nil, ErrHypothesisArchived
	}

	dispatches := make([]domain.TribunalDispatch, 0, len(domain.AllTribunalRoles()))
	for _, role := range domain.AllTribunalRoles() {
		msg, err := s.mail.SendMessage(ctx, s.project, domain.SendMessageInput{
			To:      []string{roleMailbox(role)},
			Subject: critiqueSubject(card),
			Body:    critiqueBody(role, card),
		})
		if err != nil {
			return nil, fmt.Errorf("dispatch to %s: %w", role, err)
		}
		dispatches = append(dispatches, domain.TribunalDispatch{
			SessionID:    session.ID.String(),
			CardID:       cardID,
			Role:         role,
			ThreadID:     msg.ThreadID,
			MessageID:    msg.ID,
			DispatchedAt: s.now(),
		})
	}

	updated := session.Clone()
	updated.TribunalDispatches = append(updated.TribunalDispatches, dispatches...)
	updated.UpdatedAt = s.now()
	if err := s.sessions.Update(ctx, updated); err != nil {
		return nil, err
	}

	s.logger.Info("tribunal dispatched",
		zap.String("session_id", session.ID.String()),
		zap.String("card_id", cardID),
		zap.Int("roles", len(dispatches)))

	return dispatches, nil
}

// parseVerdict extracts a verdict from one reply body. The second return is
// false when no well-formed verdict line is present.
func parseVerdict(body string) (domain.EvidenceResult, string, bool) {
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(strings.ToUpper(line), verdictPrefix) {
			continue
		}
		rest := strings.TrimSpace(line[len(verdictPrefix):])
		fields := strings.Fields(rest)
		if len(fields) == 0 {
			return "", "", false
		}
		result := strings.ToLower(strings.Trim(fields[0], ".,:;"))
		if !domain.ValidEvidenceResult(result) {
			return "", "", false
		}
		rationale := strings.TrimSpace(strings.TrimPrefix(rest, fields[0]))
		return domain.EvidenceResult(result), rationale, true
	}
	return "", "", false
}

// roleForSender maps a reply's sender mailbox back to its tribunal role.
func roleForSender(from string) (domain.TribunalRole, bool) {
	name := from
	if at := strings.Index(from, "@"); at >= 0 {
		name = from[:at]
	}
	if domain.ValidTribunalRole(name) {
		return domain.TribunalRole(name), true
	}
	return "", false
}

// CollectVerdicts reads a dispatch thread and parses verdicts from the
// replies. Replies without a well-formed verdict line, and messages from
// unknown senders, are skipped rather than failing the collection.
func (s *TribunalService) CollectVerdicts(ctx context.Context, threadID string) ([]domain.TribunalVerdict, error) {
	if threadID == "" {
		return nil, ErrThreadIDEmpty
	}

	thread, err := s.mail.GetThread(ctx, s.project, threadID)
	if err != nil {
		return nil, err
	}

	var verdicts []domain.TribunalVerdict
	for _, msg := range thread.Messages {
		role, ok := roleForSender(msg.From)
		if !ok {
			continue
		}
		result, rationale, ok := parseVerdict(msg.Body)
		if !ok {
			s.logger.Debug("skipping reply without verdict",
				zap.String("thread_id", threadID),
				zap.String("from", msg.From))
			continue
		}
		verdicts = append(verdicts, domain.TribunalVerdict{
			Role:      role,
			Result:    result,
			Rationale: rationale,
		})
	}

	return verdicts, nil
}

// VerdictEvidence converts tribunal verdicts into an evidence batch at the
// given discriminative power, ready for the confidence engine.
func VerdictEvidence(verdicts []domain.TribunalVerdict, power int) []domain.EvidenceItem {
	items := make([]domain.EvidenceItem, 0, len(verdicts))
	for _, v := range verdicts {
		items = append(items, domain.EvidenceItem{
			Test: domain.TestInput{
				ID:                  "tribunal-" + string(v.Role),
				Name:                v.Role.DisplayName(),
				DiscriminativePower: power,
			},
			Result: v.Result,
		})
	}
	return items
}

// ApplyVerdicts runs collected verdicts through the confidence engine
// against a card's current confidence and returns the audited batch. The
// session itself is not modified; revision is a separate, explicit step.
func (s *TribunalService) ApplyVerdicts(card domain.HypothesisCard, verdicts []domain.TribunalVerdict, power int, cfg UpdateConfig) (BatchUpdate, error) {
	return ApplyEvidenceBatch(card.Confidence, VerdictEvidence(verdicts, power), cfg)
}
