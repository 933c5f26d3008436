package service

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"quiz_console/internal/config"
	"quiz_console/internal/repository"

	"golang.org/x/crypto/bcrypt"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// countingStore 记录写操作次数
type countingStore struct {
	*repository.MemoryStore
	mu      sync.Mutex
	writes  int
	failSet bool
	failGet bool
}

func (s *countingStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

func (s *countingStore) Get(ctx context.Context, key string) (string, bool, error) {
	if s.failGet {
		return "", false, errors.New("read failed")
	}
	return s.MemoryStore.Get(ctx, key)
}

func (s *countingStore) SetMany(ctx context.Context, values map[string]string) error {
	s.mu.Lock()
	s.writes++
	s.mu.Unlock()
	if s.failSet {
		return errors.New("disk full")
	}
	return s.MemoryStore.SetMany(ctx, values)
}

func (s *countingStore) Remove(ctx context.Context, key string) error {
	s.mu.Lock()
	s.writes++
	s.mu.Unlock()
	return s.MemoryStore.Remove(ctx, key)
}

func newGate(store repository.SessionStore, clock *fakeClock, opts ...GateOption) *SessionGate {
	opts = append([]GateOption{WithClock(clock.Now)}, opts...)
	return NewSessionGate(store, config.AuthConfig{LoginCode: "secret"}, opts...)
}

func TestCheckSessionSevenDayBoundary(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)

	cases := []struct {
		name    string
		elapsed time.Duration
		want    SessionStatus
	}{
		{"fresh", 0, SessionValid},
		{"one minute before expiry", SessionTTL - time.Minute, SessionValid},
		{"one millisecond before expiry", SessionTTL - time.Millisecond, SessionValid},
		{"exactly seven days", SessionTTL, SessionInvalid},
		{"past expiry", SessionTTL + time.Hour, SessionInvalid},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := repository.NewMemoryStore()
			clock := &fakeClock{now: base}
			gate := newGate(store, clock)

			store.Set(ctx, repository.KeyCredential, "secret")
			store.Set(ctx, repository.KeyIssuedAt, strconv.FormatInt(base.UnixMilli(), 10))
			clock.Advance(tc.elapsed)

			if got := gate.CheckSession(ctx); got != tc.want {
				t.Fatalf("CheckSession() = %v, want %v", got, tc.want)
			}
			_, hasCode, _ := store.Get(ctx, repository.KeyCredential)
			if tc.want == SessionInvalid && hasCode {
				t.Errorf("expired session was not purged")
			}
		})
	}
}

func TestCheckSessionInvalidCombinations(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	issued := strconv.FormatInt(now.UnixMilli(), 10)

	cases := []struct {
		name   string
		values map[string]string
	}{
		{"missing credential", map[string]string{repository.KeyIssuedAt: issued}},
		{"missing issue time", map[string]string{repository.KeyCredential: "secret"}},
		{"mismatch", map[string]string{repository.KeyCredential: "other", repository.KeyIssuedAt: issued}},
		{"unparsable issue time", map[string]string{repository.KeyCredential: "secret", repository.KeyIssuedAt: "yesterday"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := repository.NewMemoryStore()
			store.SetMany(ctx, tc.values)
			gate := newGate(store, &fakeClock{now: now})

			if got := gate.CheckSession(ctx); got != SessionInvalid {
				t.Fatalf("CheckSession() = %v, want invalid", got)
			}
			for _, key := range []string{repository.KeyCredential, repository.KeyIssuedAt} {
				if _, ok, _ := store.Get(ctx, key); ok {
					t.Errorf("key %q not purged", key)
				}
			}
		})
	}
}

func TestCheckSessionCleanStateDoesNotWrite(t *testing.T) {
	store := &countingStore{MemoryStore: repository.NewMemoryStore()}
	gate := newGate(store, &fakeClock{now: time.Now()})

	if got := gate.CheckSession(context.Background()); got != SessionInvalid {
		t.Fatalf("CheckSession() = %v", got)
	}
	if store.count() != 0 {
		t.Fatalf("clean state produced %d writes", store.count())
	}
}

func TestCheckSessionReadErrorDoesNotPurge(t *testing.T) {
	ctx := context.Background()
	store := &countingStore{MemoryStore: repository.NewMemoryStore()}
	store.MemoryStore.Set(ctx, repository.KeyCredential, "secret")
	store.failGet = true
	gate := newGate(store, &fakeClock{now: time.Now()})

	if got := gate.CheckSession(ctx); got != SessionInvalid {
		t.Fatalf("CheckSession() = %v", got)
	}
	if store.count() != 0 {
		t.Fatalf("read failure must not purge, got %d writes", store.count())
	}
}

func TestLoginAcceptedThenValid(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	clock := &fakeClock{now: time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)}
	gate := newGate(store, clock)

	res, err := gate.Login(ctx, "secret")
	if err != nil || res != LoginAccepted {
		t.Fatalf("Login() = %v, %v", res, err)
	}
	if got := gate.CheckSession(ctx); got != SessionValid {
		t.Fatalf("CheckSession() after login = %v", got)
	}
	if gate.State() != StateAuthenticated {
		t.Fatalf("State() = %v", gate.State())
	}

	issued, _, _ := store.Get(ctx, repository.KeyIssuedAt)
	if issued != strconv.FormatInt(clock.Now().UnixMilli(), 10) {
		t.Errorf("issue time = %q", issued)
	}

	clock.Advance(90 * time.Minute)
	if got := gate.RemainingTime(ctx); got != SessionTTL-90*time.Minute {
		t.Errorf("RemainingTime() = %v", got)
	}
}

func TestLoginRejectedPersistsNothing(t *testing.T) {
	ctx := context.Background()
	store := &countingStore{MemoryStore: repository.NewMemoryStore()}
	gate := newGate(store, &fakeClock{now: time.Now()})

	for _, candidate := range []string{"wrong", "", "secret "} {
		res, err := gate.Login(ctx, candidate)
		if err != nil || res != LoginRejected {
			t.Fatalf("Login(%q) = %v, %v", candidate, res, err)
		}
	}
	if store.count() != 0 {
		t.Fatalf("rejected login wrote %d times", store.count())
	}
	if _, ok, _ := store.Get(ctx, repository.KeyCredential); ok {
		t.Fatalf("credential persisted after rejection")
	}
}

func TestLoginStoreFailure(t *testing.T) {
	store := &countingStore{MemoryStore: repository.NewMemoryStore(), failSet: true}
	gate := newGate(store, &fakeClock{now: time.Now()})

	res, err := gate.Login(context.Background(), "secret")
	if err == nil {
		t.Fatalf("expected store error")
	}
	if res == LoginAccepted {
		t.Fatalf("accepted despite store failure")
	}
}

func TestLoginWithHashedCode(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("hashed-secret"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	gate := NewSessionGate(repository.NewMemoryStore(), config.AuthConfig{LoginCodeHash: string(hash)})

	if res, _ := gate.Login(context.Background(), "hashed-secret"); res != LoginAccepted {
		t.Fatalf("expected accepted")
	}
	if res, _ := gate.Login(context.Background(), "nope"); res != LoginRejected {
		t.Fatalf("expected rejected")
	}
}

func TestLogoutIdempotent(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	navigations := 0
	gate := newGate(store, &fakeClock{now: time.Now()}, WithNavigator(NavigatorFunc(func() { navigations++ })))

	gate.Login(ctx, "secret")
	gate.Logout(ctx)
	gate.Logout(ctx)

	if gate.State() != StateUnauthenticated {
		t.Fatalf("State() = %v", gate.State())
	}
	if gate.CheckSession(ctx) != SessionInvalid {
		t.Fatalf("session still valid after logout")
	}
	if navigations != 2 {
		t.Fatalf("navigated %d times, want 2", navigations)
	}
	if gate.RemainingTime(ctx) != 0 {
		t.Fatalf("RemainingTime() after logout = %v", gate.RemainingTime(ctx))
	}
}

func TestStateUnknownUntilStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	gate := newGate(repository.NewMemoryStore(), &fakeClock{now: time.Now()})

	if gate.State() != StateUnknown {
		t.Fatalf("State() before start = %v", gate.State())
	}
	if err := gate.Start(ctx); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	if gate.State() != StateUnauthenticated {
		t.Fatalf("State() after start = %v", gate.State())
	}
}

func waitForState(t *testing.T, gate *SessionGate, want GateState) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if gate.State() == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("gate %s state = %v, want %v", gate.ID, gate.State(), want)
}

func TestSessionChangedReachesOtherGate(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := repository.NewMemoryStore()
	clock := &fakeClock{now: time.Now()}
	tabA := newGate(store, clock)
	tabB := newGate(store, clock)

	if err := tabA.Start(ctx); err != nil {
		t.Fatal(err)
	}
	if err := tabB.Start(ctx); err != nil {
		t.Fatal(err)
	}

	transitions := make(chan GateState, 4)
	unsubscribe := tabB.Subscribe(func(_, next GateState) { transitions <- next })
	defer unsubscribe()

	if res, _ := tabA.Login(ctx, "secret"); res != LoginAccepted {
		t.Fatalf("login rejected")
	}
	// 调用方所在上下文同步可见
	if tabA.State() != StateAuthenticated {
		t.Fatalf("calling gate not authenticated")
	}
	waitForState(t, tabB, StateAuthenticated)

	tabA.Logout(ctx)
	waitForState(t, tabB, StateUnauthenticated)

	select {
	case next := <-transitions:
		if next != StateAuthenticated {
			t.Errorf("first observed transition = %v", next)
		}
	case <-time.After(time.Second):
		t.Errorf("observer not called")
	}
}

func TestExpectedCodeRotationInvalidatesSession(t *testing.T) {
	ctx := context.Background()
	gate := newGate(repository.NewMemoryStore(), &fakeClock{now: time.Now()})
	gate.Login(ctx, "secret")

	gate.SetExpected(config.AuthConfig{LoginCode: "rotated"})
	if got := gate.Refresh(ctx); got != StateUnauthenticated {
		t.Fatalf("Refresh() after rotation = %v", got)
	}
}

func TestRecheckDetectsExpiry(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	clock := &fakeClock{now: time.Now()}
	gate := newGate(repository.NewMemoryStore(), clock, WithRecheckInterval(10*time.Millisecond))

	gate.Login(ctx, "secret")
	if err := gate.Start(ctx); err != nil {
		t.Fatal(err)
	}
	waitForState(t, gate, StateAuthenticated)

	clock.Advance(SessionTTL)
	waitForState(t, gate, StateUnauthenticated)
}

// stallingStore 在读取签发时间后暂停，直到测试放行
type stallingStore struct {
	*repository.MemoryStore
	mu      sync.Mutex
	entered chan struct{}
	release chan struct{}
}

func (s *stallingStore) arm() (entered, release chan struct{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entered = make(chan struct{})
	s.release = make(chan struct{})
	return s.entered, s.release
}

func (s *stallingStore) Get(ctx context.Context, key string) (string, bool, error) {
	v, ok, err := s.MemoryStore.Get(ctx, key)
	if key != repository.KeyIssuedAt {
		return v, ok, err
	}
	s.mu.Lock()
	entered, release := s.entered, s.release
	s.entered, s.release = nil, nil
	s.mu.Unlock()
	if entered != nil {
		close(entered)
		<-release
	}
	return v, ok, err
}

func TestStaleCheckDoesNotOverrideLogout(t *testing.T) {
	ctx := context.Background()
	store := &stallingStore{MemoryStore: repository.NewMemoryStore()}
	gate := newGate(store, &fakeClock{now: time.Now()})
	if res, err := gate.Login(ctx, "secret"); err != nil || res != LoginAccepted {
		t.Fatalf("login: %v %v", res, err)
	}

	entered, release := store.arm()
	done := make(chan struct{})
	go func() {
		gate.Refresh(ctx)
		close(done)
	}()
	<-entered

	// 旧检查已读到有效会话，此时登出
	gate.Logout(ctx)
	if gate.State() != StateUnauthenticated {
		t.Fatalf("state after logout = %v", gate.State())
	}

	close(release)
	<-done
	if gate.State() != StateUnauthenticated {
		t.Fatalf("stale check overwrote logout: %v", gate.State())
	}
}

func TestStoreEventWithoutTransitionNotifiesEventObservers(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	store := repository.NewMemoryStore()
	clock := &fakeClock{now: time.Now()}

	watcher := newGate(store, clock)
	if err := watcher.Start(ctx); err != nil {
		t.Fatal(err)
	}
	other := newGate(store, clock)
	other.Login(ctx, "secret")
	waitForState(t, watcher, StateAuthenticated)

	events := make(chan struct{}, 4)
	unsubscribe := watcher.SubscribeEvents(func() { events <- struct{}{} })
	defer unsubscribe()

	other.Login(ctx, "secret")
	select {
	case <-events:
	case <-time.After(2 * time.Second):
		t.Fatal("event observer not called for a renewed session")
	}
}
