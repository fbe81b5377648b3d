package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"reflectio/internal/apperr"
	"reflectio/internal/domain/connections"
	"reflectio/internal/domain/plans"
	"reflectio/internal/domain/posts"
	"reflectio/internal/domain/users"

	"github.com/google/uuid"
)

// MemoryStore implements every store port in process. Failing methods can be
// forced through the Err* fields.
type MemoryStore struct {
	mu sync.RWMutex

	profiles    map[string]users.User
	posts       map[string]posts.Post
	reflections map[string]posts.Reflection
	connections map[string]connections.Connection
	plans       map[string]plans.Plan

	ErrFetchProfile error
	ErrUpdate       error
	ErrFetchPost    error
	ErrConnections  error

	// Writes counts successful profile updates and downgrades per user id.
	Writes map[string]int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		profiles:    make(map[string]users.User),
		posts:       make(map[string]posts.Post),
		reflections: make(map[string]posts.Reflection),
		connections: make(map[string]connections.Connection),
		plans:       make(map[string]plans.Plan),
		Writes:      make(map[string]int),
	}
}

func ctxErr(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return apperr.Upstream("context done", ctx.Err())
	default:
		return nil
	}
}

func newID() string { return uuid.NewString() }

/* ---------- profiles ---------- */

func (s *MemoryStore) PutProfile(u users.User) users.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID == "" {
		u.ID = newID()
	}
	s.profiles[u.ID] = u
	return u
}

func (s *MemoryStore) FetchProfile(ctx context.Context, userID string) (users.User, error) {
	if err := ctxErr(ctx); err != nil {
		return users.User{}, err
	}
	if s.ErrFetchProfile != nil {
		return users.User{}, s.ErrFetchProfile
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.profiles[userID]
	if !ok {
		return users.User{}, apperr.NotFound("profile not found")
	}
	return u, nil
}

func (s *MemoryStore) findProfile(match func(users.User) bool) (users.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.profiles {
		if match(u) {
			return u, nil
		}
	}
	return users.User{}, apperr.NotFound("profile not found")
}

func (s *MemoryStore) FetchProfileByEmail(ctx context.Context, email string) (users.User, error) {
	if err := ctxErr(ctx); err != nil {
		return users.User{}, err
	}
	return s.findProfile(func(u users.User) bool { return u.Email == email })
}

func (s *MemoryStore) FetchProfileByGoogleSub(ctx context.Context, sub string) (users.User, error) {
	if err := ctxErr(ctx); err != nil {
		return users.User{}, err
	}
	return s.findProfile(func(u users.User) bool { return u.GoogleSub != nil && *u.GoogleSub == sub })
}

func (s *MemoryStore) FetchProfileBySubscription(ctx context.Context, subscriptionID string) (users.User, error) {
	if err := ctxErr(ctx); err != nil {
		return users.User{}, err
	}
	return s.findProfile(func(u users.User) bool { return u.SubscriptionID != nil && *u.SubscriptionID == subscriptionID })
}

func (s *MemoryStore) CreateProfile(ctx context.Context, u *users.User) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	if _, err := s.FetchProfileByEmail(ctx, u.Email); err == nil {
		return apperr.Conflict("email already exists")
	}
	if u.CurrentLevel == 0 {
		u.CurrentLevel = 1
	}
	if u.Role == "" {
		u.Role = users.RoleUser
	}
	*u = s.PutProfile(*u)
	return nil
}

func (s *MemoryStore) UpdateProfile(ctx context.Context, userID string, updates map[string]interface{}) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	if s.ErrUpdate != nil {
		return s.ErrUpdate
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.profiles[userID]
	if !ok {
		return apperr.NotFound("profile not found")
	}
	for k, v := range updates {
		applyProfileField(&u, k, v)
	}
	s.profiles[userID] = u
	s.Writes[userID]++
	return nil
}

func applyProfileField(u *users.User, k string, v interface{}) {
	switch k {
	case "is_premium":
		u.IsPremium, _ = v.(bool)
	case "premium_since":
		u.PremiumSince = timePtr(v)
	case "premium_expires_at":
		u.PremiumExpiresAt = timePtr(v)
	case "current_level":
		u.CurrentLevel, _ = v.(int)
	case "stripe_customer_id":
		u.StripeCustomerID = strPtr(v)
	case "subscription_id":
		u.SubscriptionID = strPtr(v)
	case "stripe_subscription_status":
		u.StripeSubscriptionStatus = strPtr(v)
	case "google_sub":
		u.GoogleSub = strPtr(v)
	case "auth_provider":
		u.AuthProvider, _ = v.(string)
	}
}

func timePtr(v interface{}) *time.Time {
	switch t := v.(type) {
	case time.Time:
		return &t
	case *time.Time:
		return t
	}
	return nil
}

func strPtr(v interface{}) *string {
	switch s := v.(type) {
	case string:
		return &s
	case *string:
		return s
	}
	return nil
}

func (s *MemoryStore) ListPremiumProfilesWithExpiration(ctx context.Context) ([]users.User, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	if s.ErrFetchProfile != nil {
		return nil, s.ErrFetchProfile
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []users.User
	for _, u := range s.profiles {
		if u.IsPremium && u.PremiumExpiresAt != nil {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) DowngradeProfiles(ctx context.Context, userIDs []string) (int64, error) {
	if err := ctxErr(ctx); err != nil {
		return 0, err
	}
	if s.ErrUpdate != nil {
		return 0, s.ErrUpdate
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, id := range userIDs {
		u, ok := s.profiles[id]
		if !ok || !u.IsPremium {
			continue
		}
		u.IsPremium = false
		s.profiles[id] = u
		s.Writes[id]++
		n++
	}
	return n, nil
}

/* ---------- posts ---------- */

func (s *MemoryStore) PutPost(p posts.Post) posts.Post {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == "" {
		p.ID = newID()
	}
	s.posts[p.ID] = p
	return p
}

func (s *MemoryStore) FetchPublishedPost(ctx context.Context, postID string) (posts.Post, error) {
	if err := ctxErr(ctx); err != nil {
		return posts.Post{}, err
	}
	if s.ErrFetchPost != nil {
		return posts.Post{}, s.ErrFetchPost
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.posts[postID]
	if !ok || p.Status != posts.StatusPublished {
		return posts.Post{}, apperr.NotFound("post not found")
	}
	return p, nil
}

func (s *MemoryStore) CreatePost(ctx context.Context, p *posts.Post) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	*p = s.PutPost(*p)
	return nil
}

func (s *MemoryStore) CreateReflection(ctx context.Context, r *posts.Reflection) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.ID == "" {
		r.ID = newID()
	}
	s.reflections[r.ID] = *r
	return nil
}

// Reflections returns every stored reflection on postID.
func (s *MemoryStore) Reflections(postID string) []posts.Reflection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []posts.Reflection
	for _, r := range s.reflections {
		if r.PostID == postID {
			out = append(out, r)
		}
	}
	return out
}

/* ---------- connections ---------- */

func (s *MemoryStore) FetchConnection(ctx context.Context, id string) (connections.Connection, error) {
	if err := ctxErr(ctx); err != nil {
		return connections.Connection{}, err
	}
	if s.ErrConnections != nil {
		return connections.Connection{}, s.ErrConnections
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.connections[id]
	if !ok {
		return connections.Connection{}, apperr.NotFound("connection not found")
	}
	return c, nil
}

func samePair(c connections.Connection, a, b string) bool {
	return (c.RequesterID == a && c.AddresseeID == b) || (c.RequesterID == b && c.AddresseeID == a)
}

// PutConnection stores c as is, bypassing the pair check.
func (s *MemoryStore) PutConnection(c connections.Connection) connections.Connection {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID == "" {
		c.ID = newID()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	s.connections[c.ID] = c
	return c
}

func (s *MemoryStore) FindLatestBetween(ctx context.Context, a, b string) (connections.Connection, error) {
	if err := ctxErr(ctx); err != nil {
		return connections.Connection{}, err
	}
	if s.ErrConnections != nil {
		return connections.Connection{}, s.ErrConnections
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var latest connections.Connection
	found := false
	for _, c := range s.connections {
		if samePair(c, a, b) && (!found || c.CreatedAt.After(latest.CreatedAt)) {
			latest, found = c, true
		}
	}
	if !found {
		return connections.Connection{}, apperr.NotFound("no connection")
	}
	return latest, nil
}

func (s *MemoryStore) InsertConnection(ctx context.Context, c *connections.Connection) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	if s.ErrConnections != nil {
		return s.ErrConnections
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	// mirrors the unique pair index
	for _, existing := range s.connections {
		if samePair(existing, c.RequesterID, c.AddresseeID) {
			return apperr.Conflict("connection already exists")
		}
	}
	if c.ID == "" {
		c.ID = newID()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	c.UpdatedAt = c.CreatedAt
	s.connections[c.ID] = *c
	return nil
}

func (s *MemoryStore) UpdateConnectionStatus(ctx context.Context, id string, from, to connections.Status) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	if s.ErrConnections != nil {
		return s.ErrConnections
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.connections[id]
	if !ok {
		return apperr.NotFound("connection not found")
	}
	if c.Status != from {
		return apperr.Conflict("connection is no longer " + string(from))
	}
	c.Status = to
	c.UpdatedAt = time.Now()
	s.connections[id] = c
	return nil
}

func (s *MemoryStore) DeleteConnection(ctx context.Context, id string) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	if s.ErrConnections != nil {
		return s.ErrConnections
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.connections[id]; !ok {
		return apperr.NotFound("connection not found")
	}
	delete(s.connections, id)
	return nil
}

/* ---------- plans ---------- */

func (s *MemoryStore) ListActivePlans(ctx context.Context) ([]plans.Plan, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []plans.Plan
	for _, p := range s.plans {
		if p.Active {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PriceEUR < out[j].PriceEUR })
	return out, nil
}

func (s *MemoryStore) FindPlanByStripePrice(ctx context.Context, priceID string) (plans.Plan, error) {
	if err := ctxErr(ctx); err != nil {
		return plans.Plan{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.plans[priceID]
	if !ok {
		return plans.Plan{}, apperr.NotFound("plan not found")
	}
	return p, nil
}

func (s *MemoryStore) UpsertPlan(ctx context.Context, p *plans.Plan) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.plans[p.StripePriceID]; ok {
		p.ID = existing.ID
	} else if p.ID == 0 {
		p.ID = uint(len(s.plans) + 1)
	}
	s.plans[p.StripePriceID] = *p
	return nil
}
