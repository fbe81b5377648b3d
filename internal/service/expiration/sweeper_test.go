package expiration

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"reflectio/internal/domain/users"
	"reflectio/internal/events"
	"reflectio/internal/store"
)

var now = time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

func tp(t time.Time) *time.Time { return &t }

type fakeLocker struct {
	ok    bool
	err   error
	calls int
}

func (l *fakeLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	l.calls++
	return l.ok, l.err
}

func quiet() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func seed(st *store.MemoryStore) (expired, active, permanent, free users.User) {
	expired = st.PutProfile(users.User{Email: "e@example.com", IsPremium: true, PremiumExpiresAt: tp(now.Add(-time.Minute))})
	active = st.PutProfile(users.User{Email: "a@example.com", IsPremium: true, PremiumExpiresAt: tp(now.Add(time.Hour))})
	permanent = st.PutProfile(users.User{Email: "p@example.com", IsPremium: true})
	free = st.PutProfile(users.User{Email: "f@example.com", PremiumExpiresAt: tp(now.AddDate(-1, 0, 0))})
	return
}

func TestSweepOnceDowngradesOnlyExpired(t *testing.T) {
	st := store.NewMemoryStore()
	rec := &events.Recorder{}
	expired, active, permanent, _ := seed(st)
	s := NewSweeper(st, rec, nil, time.Minute, quiet())

	report, err := s.SweepOnce(context.Background(), now)
	if err != nil {
		t.Fatal(err)
	}
	if report.Checked != 2 || report.Expired != 1 || report.Downgraded != 1 {
		t.Fatalf("report = %+v", report)
	}
	if len(report.UserIDs) != 1 || report.UserIDs[0] != expired.ID {
		t.Fatalf("user ids = %v", report.UserIDs)
	}

	ctx := context.Background()
	if u, _ := st.FetchProfile(ctx, expired.ID); u.IsPremium {
		t.Fatal("expired profile still premium")
	}
	for _, id := range []string{active.ID, permanent.ID} {
		if u, _ := st.FetchProfile(ctx, id); !u.IsPremium {
			t.Fatalf("profile %s downgraded", id)
		}
	}
	ev := rec.OfType(events.TypePremiumExpired)
	if len(ev) != 1 || ev[0].Key != expired.ID {
		t.Fatalf("events = %+v", rec.Events)
	}
}

func TestSweepOnceIsIdempotent(t *testing.T) {
	st := store.NewMemoryStore()
	rec := &events.Recorder{}
	expired, _, _, _ := seed(st)
	s := NewSweeper(st, rec, nil, time.Minute, quiet())

	if _, err := s.SweepOnce(context.Background(), now); err != nil {
		t.Fatal(err)
	}
	report, err := s.SweepOnce(context.Background(), now)
	if err != nil {
		t.Fatal(err)
	}
	if report.Expired != 0 || report.Downgraded != 0 {
		t.Fatalf("second report = %+v", report)
	}
	if st.Writes[expired.ID] != 1 {
		t.Fatalf("writes = %d", st.Writes[expired.ID])
	}
	if len(rec.Events) != 1 {
		t.Fatalf("events = %d", len(rec.Events))
	}
}

func TestSweepOnceExpiryBoundary(t *testing.T) {
	st := store.NewMemoryStore()
	u := st.PutProfile(users.User{Email: "b@example.com", IsPremium: true, PremiumExpiresAt: tp(now)})
	s := NewSweeper(st, nil, nil, time.Minute, quiet())

	report, err := s.SweepOnce(context.Background(), now)
	if err != nil {
		t.Fatal(err)
	}
	if report.Expired != 1 || report.UserIDs[0] != u.ID {
		t.Fatalf("expiry at now must count as expired: %+v", report)
	}
}

func TestSweepOnceStoreErrors(t *testing.T) {
	st := store.NewMemoryStore()
	seed(st)
	s := NewSweeper(st, nil, nil, time.Minute, quiet())

	st.ErrUpdate = errors.New("write failed")
	if _, err := s.SweepOnce(context.Background(), now); err == nil {
		t.Fatal("expected downgrade error")
	}

	st.ErrUpdate = nil
	st.ErrFetchProfile = errors.New("read failed")
	if _, err := s.SweepOnce(context.Background(), now); err == nil {
		t.Fatal("expected list error")
	}
}

func TestTickHonoursLock(t *testing.T) {
	ctx := context.Background()

	cases := []struct {
		name      string
		locker    *fakeLocker
		downgrade bool
	}{
		{"acquired", &fakeLocker{ok: true}, true},
		{"held elsewhere", &fakeLocker{ok: false}, false},
		{"backend down", &fakeLocker{err: errors.New("redis down")}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			st := store.NewMemoryStore()
			expired, _, _, _ := seed(st)
			s := NewSweeper(st, nil, tc.locker, time.Minute, quiet())
			s.now = func() time.Time { return now }

			s.tick(ctx)

			if tc.locker.calls != 1 {
				t.Fatalf("lock calls = %d", tc.locker.calls)
			}
			u, _ := st.FetchProfile(ctx, expired.ID)
			if u.IsPremium == tc.downgrade {
				t.Fatalf("premium = %v after tick", u.IsPremium)
			}
		})
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	st := store.NewMemoryStore()
	s := NewSweeper(st, nil, nil, time.Millisecond, quiet())
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
