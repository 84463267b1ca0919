package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan-kellerai/brennerbot/internal/domain"
	"github.com/montanaflynn/stats"
	"go.uber.org/zap"
)

var ErrTrendWindowDays = errors.New("trend window must be 30 or 90 days")

// Default analytics thresholds. Outcome classification buckets a hypothesis
// as falsified below the low bound and robust above the high bound (robust
// additionally requires the owning session to be complete). The *Warn
// thresholds trigger dashboard insights.
const (
	DefaultFalsifiedBelow     = 20.0
	DefaultRobustAbove        = 80.0
	DefaultCompletionRateWarn = 0.4
	DefaultFalsifiabilityWarn = 30.0
	DefaultScaleCheckWarn     = 0.25
	DefaultAlternativesWarn   = 0.5
)

// AnalyticsConfig is the tunable threshold surface of the aggregator.
type AnalyticsConfig struct {
	FalsifiedBelow     float64
	RobustAbove        float64
	CompletionRateWarn float64
	FalsifiabilityWarn float64
	ScaleCheckWarn     float64
	AlternativesWarn   float64
}

func DefaultAnalyticsConfig() AnalyticsConfig {
	return AnalyticsConfig{
		FalsifiedBelow:     DefaultFalsifiedBelow,
		RobustAbove:        DefaultRobustAbove,
		CompletionRateWarn: DefaultCompletionRateWarn,
		FalsifiabilityWarn: DefaultFalsifiabilityWarn,
		ScaleCheckWarn:     DefaultScaleCheckWarn,
		AlternativesWarn:   DefaultAlternativesWarn,
	}
}

// AnalyticsInput carries everything the aggregator needs. Now is explicit so
// trend bucketing stays deterministic; the engine never reads the wall clock
// itself.
type AnalyticsInput struct {
	Sessions        []domain.Session
	Objections      domain.ObjectionStats
	Now             time.Time
	TrendWindowDays int
}

// safeMean wraps stats.Mean so an empty sample yields 0, not an error or
// NaN leaking into the report.
func safeMean(values []float64) float64 {
	mean, err := stats.Mean(values)
	if err != nil {
		return 0
	}
	return mean
}

func utcDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// BuildTrendData buckets sessions by their createdAt UTC calendar day over
// the window ending today. Every day in the window appears in the series,
// including days with zero sessions.
func BuildTrendData(sessions []domain.Session, windowDays int, now time.Time) ([]domain.TrendPoint, error) {
	if windowDays != 30 && windowDays != 90 {
		return nil, fmt.Errorf("%w: got %d", ErrTrendWindowDays, windowDays)
	}

	today := utcDay(now)
	byDay := make(map[time.Time][]domain.Session)
	for _, s := range sessions {
		if s.CreatedAt.IsZero() {
			continue
		}
		day := utcDay(s.CreatedAt)
		byDay[day] = append(byDay[day], s)
	}

	points := make([]domain.TrendPoint, 0, windowDays)
	for offset := windowDays - 1; offset >= 0; offset-- {
		day := today.AddDate(0, 0, -offset)
		daySessions := byDay[day]

		point := domain.TrendPoint{Date: day, SessionsCreated: len(daySessions)}
		var falsifiability, specificity []float64
		for _, s := range daySessions {
			if s.Phase == domain.PhaseComplete {
				point.SessionsCompleted++
			}
			if card, ok := s.PrimaryCard(); ok {
				falsifiability = append(falsifiability, domain.FalsifiabilityScore(card))
				specificity = append(specificity, domain.SpecificityScore(card))
			}
		}
		point.AvgFalsifiability = safeMean(falsifiability)
		point.AvgSpecificity = safeMean(specificity)
		points = append(points, point)
	}

	return points, nil
}

func achievementCatalog(completed, distinctOperators, total, falsified, robust int) []domain.Achievement {
	return []domain.Achievement{
		{
			Code:        domain.AchievementFirstComplete,
			Name:        "First Loop Closed",
			Description: "Complete your first session",
			Unlocked:    completed >= 1,
		},
		{
			Code:        domain.AchievementFiveComplete,
			Name:        "Serial Investigator",
			Description: "Complete five sessions",
			Unlocked:    completed >= 5,
		},
		{
			Code:        domain.AchievementThreeOperators,
			Name:        "Toolmaker",
			Description: "Use three distinct operators",
			Unlocked:    distinctOperators >= 3,
		},
		{
			Code:        domain.AchievementAllOperators,
			Name:        "Full Kit",
			Description: "Use all four operators",
			Unlocked:    distinctOperators >= 4,
		},
		{
			Code:        domain.AchievementTenSessions,
			Name:        "Habit Formed",
			Description: "Start ten sessions",
			Unlocked:    total >= 10,
		},
		{
			Code:        domain.AchievementFiveFalsified,
			Name:        "Productive Destroyer",
			Description: "Falsify five hypotheses",
			Unlocked:    falsified >= 5,
		},
		{
			Code:        domain.AchievementThreeRobust,
			Name:        "Survivor Breeder",
			Description: "Carry three hypotheses through to robustness",
			Unlocked:    robust >= 3,
		},
	}
}

// ComputePersonalAnalytics reduces a list of sessions into a single
// recomputable dashboard report. Pure: identical inputs always produce
// identical reports, and the caller's sessions are never mutated.
func ComputePersonalAnalytics(input AnalyticsInput, cfg AnalyticsConfig) (domain.PersonalAnalytics, error) {
	windowDays := input.TrendWindowDays
	if windowDays == 0 {
		windowDays = 30
	}
	trend, err := BuildTrendData(input.Sessions, windowDays, input.Now)
	if err != nil {
		return domain.PersonalAnalytics{}, err
	}

	report := domain.PersonalAnalytics{
		SessionsTotal: len(input.Sessions),
		OperatorUsage: make(map[domain.OperatorType]int, 4),
		Objections:    input.Objections,
		Trend:         trend,
	}
	for _, op := range domain.AllOperatorTypes() {
		report.OperatorUsage[op] = 0
	}

	var falsifiability, specificity, durations []float64

	for _, s := range input.Sessions {
		if s.Phase == domain.PhaseComplete {
			report.SessionsCompleted++
		}
		report.HypothesesTotal += len(s.HypothesisCards)
		if len(s.AlternativeHypothesisIDs) > 0 {
			report.HypothesesWithAlternatives++
		}
		report.TestsTotal += len(s.TestIDs)

		// Primary-only score averages; sessions whose primary does not
		// resolve are excluded from the mean, not treated as zero.
		if card, ok := s.PrimaryCard(); ok {
			falsifiability = append(falsifiability, domain.FalsifiabilityScore(card))
			specificity = append(specificity, domain.SpecificityScore(card))
		}

		// Sessions with missing or inverted timestamps are excluded from the
		// duration mean, not coerced to zero.
		if !s.CreatedAt.IsZero() && !s.UpdatedAt.IsZero() && !s.UpdatedAt.Before(s.CreatedAt) {
			durations = append(durations, s.UpdatedAt.Sub(s.CreatedAt).Minutes())
		}

		// Session-level presence, not total application count.
		for _, op := range domain.AllOperatorTypes() {
			if len(s.OperatorApplications[op]) > 0 {
				report.OperatorUsage[op]++
			}
		}

		for id, card := range s.HypothesisCards {
			if s.IsArchived(id) {
				report.HypothesesAbandoned++
				continue
			}
			switch domain.ClassifyOutcome(card, s.Phase, cfg.FalsifiedBelow, cfg.RobustAbove) {
			case domain.OutcomeFalsified:
				report.HypothesesFalsified++
			case domain.OutcomeRobust:
				report.HypothesesRobust++
			}
		}

		for _, ev := range s.HypothesisEvolution {
			if ev.Trigger == domain.TriggerEvidence {
				report.EvidenceRevisions++
			}
		}
	}

	if report.SessionsTotal > 0 {
		report.CompletionRate = float64(report.SessionsCompleted) / float64(report.SessionsTotal)
	}
	report.AvgFalsifiability = safeMean(falsifiability)
	report.AvgSpecificity = safeMean(specificity)
	report.AvgSessionMinutes = safeMean(durations)

	distinctOperators := 0
	for _, count := range report.OperatorUsage {
		if count > 0 {
			distinctOperators++
		}
	}

	report.Insights = buildInsights(report, cfg)
	report.Achievements = achievementCatalog(
		report.SessionsCompleted,
		distinctOperators,
		report.SessionsTotal,
		report.HypothesesFalsified,
		report.HypothesesRobust,
	)

	return report, nil
}

func buildInsights(report domain.PersonalAnalytics, cfg AnalyticsConfig) []domain.Insight {
	if report.SessionsTotal == 0 {
		return []domain.Insight{{
			Code:    domain.InsightNoHistory,
			Message: "No session history yet. Start a session to see your analytics.",
		}}
	}

	var insights []domain.Insight
	total := float64(report.SessionsTotal)

	if report.CompletionRate < cfg.CompletionRateWarn {
		insights = append(insights, domain.Insight{
			Code:    domain.InsightLowCompletion,
			Message: "Most of your sessions stall before synthesis. Smaller hypotheses close loops faster.",
		})
	}
	if report.AvgFalsifiability < cfg.FalsifiabilityWarn {
		insights = append(insights, domain.Insight{
			Code:    domain.InsightVagueHypotheses,
			Message: "Your hypotheses rarely state what would prove them wrong. Add at least one impossible-if-true condition to each.",
		})
	}
	if float64(report.OperatorUsage[domain.OperatorScaleCheck])/total < cfg.ScaleCheckWarn {
		insights = append(insights, domain.Insight{
			Code:    domain.InsightSkipScaleCheck,
			Message: "You seldom run the scale check. Back-of-envelope arithmetic kills bad mechanisms cheaply.",
		})
	}
	if float64(report.HypothesesWithAlternatives)/total < cfg.AlternativesWarn {
		insights = append(insights, domain.Insight{
			Code:    domain.InsightFewAlternatives,
			Message: "Most sessions carry a single hypothesis. A test only discriminates when there is a rival to discriminate against.",
		})
	}

	return insights
}

// AnalyticsService loads a researcher's sessions and runs the pure
// aggregator over them.
type AnalyticsService struct {
	sessions domain.SessionStore
	logger   *zap.Logger

	Config AnalyticsConfig
}

func NewAnalyticsService(sessions domain.SessionStore, logger *zap.Logger) *AnalyticsService {
	return &AnalyticsService{
		sessions: sessions,
		logger:   logger,
		Config:   DefaultAnalyticsConfig(),
	}
}

func (s *AnalyticsService) Compute(ctx context.Context, researcherID uuid.UUID, objections domain.ObjectionStats, windowDays int, now time.Time) (domain.PersonalAnalytics, error) {
	sessions, err := s.sessions.ListByResearcher(ctx, researcherID)
	if err != nil {
		return domain.PersonalAnalytics{}, err
	}

	report, err := ComputePersonalAnalytics(AnalyticsInput{
		Sessions:        sessions,
		Objections:      objections,
		Now:             now,
		TrendWindowDays: windowDays,
	}, s.Config)
	if err != nil {
		return domain.PersonalAnalytics{}, err
	}

	s.logger.Debug("computed personal analytics",
		zap.String("researcher_id", researcherID.String()),
		zap.Int("sessions", report.SessionsTotal),
		zap.Int("window_days", windowDays))

	return report, nil
}
