package services

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/revreach/revreach/internal/core/domain"
)

type resetPeriod string

const (
	resetDaily       resetPeriod = "daily"
	resetWeekly      resetPeriod = "weekly"
	resetMonthly     resetPeriod = "monthly"
	resetConcurrent  resetPeriod = "concurrent"
	resetPerCampaign resetPeriod = "per_campaign"
)

// SafetyLimits configures the rate controller. Zero values fall back to
// conservative defaults.
type SafetyLimits struct {
	DailyEmails         int
	WeeklyEmails        int
	MonthlyEmails       int
	EmailsPerCampaign   int
	DailyCampaigns      int
	ConcurrentCampaigns int
}

func (l SafetyLimits) withDefaults() SafetyLimits {
	if l.DailyEmails <= 0 {
		l.DailyEmails = 50
	}
	if l.WeeklyEmails <= 0 {
		l.WeeklyEmails = 200
	}
	if l.MonthlyEmails <= 0 {
		l.MonthlyEmails = 500
	}
	if l.EmailsPerCampaign <= 0 {
		l.EmailsPerCampaign = 20
	}
	if l.DailyCampaigns <= 0 {
		l.DailyCampaigns = 5
	}
	if l.ConcurrentCampaigns <= 0 {
		l.ConcurrentCampaigns = 2
	}
	return l
}

type safetyCounter struct {
	max       int
	current   int
	period    resetPeriod
	lastReset time.Time
}

// LimitStatus is the read-only view exposed to the monitoring surface.
type LimitStatus struct {
	Current   int    `json:"current"`
	Max       int    `json:"max"`
	Remaining int    `json:"remaining"`
	Period    string `json:"period"`
}

// SafetyController tracks email and campaign volume against fixed
// limits. Counters reset lazily: each check compares the last-reset
// timestamp with the wall clock, there is no background timer.
type SafetyController struct {
	logger   *slog.Logger
	mu       sync.Mutex
	now      func() time.Time
	counters map[string]*safetyCounter
}

func NewSafetyController(logger *slog.Logger, limits SafetyLimits) *SafetyController {
	l := limits.withDefaults()
	now := time.Now()
	return &SafetyController{
		logger: logger,
		now:    time.Now,
		counters: map[string]*safetyCounter{
			"daily_emails":         {max: l.DailyEmails, period: resetDaily, lastReset: now},
			"weekly_emails":        {max: l.WeeklyEmails, period: resetWeekly, lastReset: now},
			"monthly_emails":       {max: l.MonthlyEmails, period: resetMonthly, lastReset: now},
			"emails_per_campaign":  {max: l.EmailsPerCampaign, period: resetPerCampaign, lastReset: now},
			"daily_campaigns":      {max: l.DailyCampaigns, period: resetDaily, lastReset: now},
			"concurrent_campaigns": {max: l.ConcurrentCampaigns, period: resetConcurrent, lastReset: now},
		},
	}
}

// CheckCampaignAdmission reports whether a new campaign may start.
// A non-nil error wraps domain.ErrAdmissionDenied with the reason.
func (s *SafetyController) CheckCampaignAdmission() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetExpired()

	if c := s.counters["daily_campaigns"]; c.current >= c.max {
		return fmt.Errorf("%w: daily campaign limit reached (%d)", domain.ErrAdmissionDenied, c.max)
	}
	if c := s.counters["concurrent_campaigns"]; c.current >= c.max {
		return fmt.Errorf("%w: concurrent campaign limit reached (%d)", domain.ErrAdmissionDenied, c.max)
	}
	return nil
}

// CheckSendVolume reports whether n more emails may be dispatched.
func (s *SafetyController) CheckSendVolume(n int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetExpired()

	if c := s.counters["emails_per_campaign"]; n > c.max {
		return fmt.Errorf("%w: batch of %d exceeds per-campaign limit (%d)", domain.ErrAdmissionDenied, n, c.max)
	}
	for _, name := range []string{"daily_emails", "weekly_emails", "monthly_emails"} {
		if c := s.counters[name]; c.current+n > c.max {
			return fmt.Errorf("%w: would exceed %s limit (%d)", domain.ErrAdmissionDenied, c.period, c.max)
		}
	}
	return nil
}

func (s *SafetyController) RecordCampaignStarted() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counters["daily_campaigns"].current++
	s.counters["concurrent_campaigns"].current++
}

func (s *SafetyController) RecordCampaignCompleted() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c := s.counters["concurrent_campaigns"]; c.current > 0 {
		c.current--
	}
}

// RecordEmailsSent charges the rolling windows. The per-campaign cap is
// a per-batch check, not an accumulating counter, so it is not charged.
func (s *SafetyController) RecordEmailsSent(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, name := range []string{"daily_emails", "weekly_emails", "monthly_emails"} {
		s.counters[name].current += n
	}
}

// Snapshot returns the current limit usage for the monitoring API.
func (s *SafetyController) Snapshot() map[string]LimitStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetExpired()

	out := make(map[string]LimitStatus, len(s.counters))
	for name, c := range s.counters {
		out[name] = LimitStatus{
			Current:   c.current,
			Max:       c.max,
			Remaining: c.max - c.current,
			Period:    string(c.period),
		}
	}
	return out
}

// resetExpired zeroes counters whose period has elapsed. Caller holds mu.
func (s *SafetyController) resetExpired() {
	now := s.now()
	for name, c := range s.counters {
		var span time.Duration
		switch c.period {
		case resetDaily:
			span = 24 * time.Hour
		case resetWeekly:
			span = 7 * 24 * time.Hour
		case resetMonthly:
			span = 30 * 24 * time.Hour
		default:
			continue
		}
		if now.Sub(c.lastReset) >= span {
			c.current = 0
			c.lastReset = now
			s.logger.Info("safety counter reset", "counter", name, "period", string(c.period))
		}
	}
}
