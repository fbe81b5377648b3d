package expiration

import (
	"context"
	"log/slog"
	"time"

	"reflectio/internal/domain/entitlement"
	"reflectio/internal/events"
	"reflectio/internal/store"
)

const LockKey = "reflectio:lock:expiration-sweep"

// Locker grants at most one holder per key until ttl elapses.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

type SweepReport struct {
	Checked    int      `json:"checked"`
	Expired    int      `json:"expired"`
	Downgraded int64    `json:"downgraded"`
	UserIDs    []string `json:"user_ids"`
}

// Sweeper downgrades every premium profile whose expiration has passed. It
// uses the same expiry rule as the read-time resolver.
type Sweeper struct {
	profiles store.ProfileStore
	events   events.Publisher
	locker   Locker
	interval time.Duration
	now      func() time.Time
	log      *slog.Logger
}

func NewSweeper(profiles store.ProfileStore, pub events.Publisher, locker Locker, interval time.Duration, log *slog.Logger) *Sweeper {
	if interval <= 0 {
		interval = time.Hour
	}
	if log == nil {
		log = slog.Default()
	}
	return &Sweeper{
		profiles: profiles,
		events:   pub,
		locker:   locker,
		interval: interval,
		now:      time.Now,
		log:      log.With("component", "expiration_sweep"),
	}
}

// SweepOnce is safe to repeat: a second run over the same data finds nothing.
func (s *Sweeper) SweepOnce(ctx context.Context, now time.Time) (SweepReport, error) {
	candidates, err := s.profiles.ListPremiumProfilesWithExpiration(ctx)
	if err != nil {
		return SweepReport{}, err
	}

	report := SweepReport{Checked: len(candidates), UserIDs: []string{}}
	expiredAt := make(map[string]time.Time)
	for _, u := range candidates {
		if u.PremiumExpiresAt == nil || !entitlement.IsExpired(*u.PremiumExpiresAt, now) {
			continue
		}
		report.UserIDs = append(report.UserIDs, u.ID)
		expiredAt[u.ID] = *u.PremiumExpiresAt
	}
	report.Expired = len(report.UserIDs)
	if report.Expired == 0 {
		return report, nil
	}

	n, err := s.profiles.DowngradeProfiles(ctx, report.UserIDs)
	if err != nil {
		return report, err
	}
	report.Downgraded = n

	for _, id := range report.UserIDs {
		s.publish(ctx, id, expiredAt[id], now)
	}

	s.log.InfoContext(ctx, "expired premium profiles downgraded",
		"checked", report.Checked, "expired", report.Expired, "downgraded", report.Downgraded)
	return report, nil
}

func (s *Sweeper) publish(ctx context.Context, userID string, expiredAt, now time.Time) {
	if s.events == nil {
		return
	}
	e := events.Event{
		Type:       events.TypePremiumExpired,
		Key:        userID,
		OccurredAt: now,
		Data:       map[string]string{"source": "sweep", "expired_at": expiredAt.Format(time.RFC3339)},
	}
	if err := s.events.Publish(ctx, e); err != nil {
		s.log.WarnContext(ctx, "publish event failed", "type", e.Type, "user_id", userID, "error", err)
	}
}

// Run sweeps on every tick until ctx is done.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.log.Info("expiration sweep started", "interval", s.interval.String())
	for {
		select {
		case <-ctx.Done():
			s.log.Info("expiration sweep stopped")
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Sweeper) tick(ctx context.Context) {
	if s.locker != nil {
		// expire before the next tick so a crashed holder doesn't block it
		ok, err := s.locker.TryLock(ctx, LockKey, s.interval-s.interval/10)
		if err != nil {
			s.log.WarnContext(ctx, "sweep lock unavailable, skipping tick", "error", err)
			return
		}
		if !ok {
			s.log.DebugContext(ctx, "sweep lock held elsewhere, skipping tick")
			return
		}
	}

	if _, err := s.SweepOnce(ctx, s.now()); err != nil {
		s.log.ErrorContext(ctx, "expiration sweep failed", "error", err)
	}
}
