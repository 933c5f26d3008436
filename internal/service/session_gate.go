package service

import (
	"context"
	"crypto/subtle"
	"strconv"
	"sync"
	"time"

	"quiz_console/internal/config"
	"quiz_console/internal/model"
	"quiz_console/internal/repository"
	"quiz_console/pkg/logger"
	"quiz_console/pkg/monitoring"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// SessionTTL 登录后会话的有效期
const SessionTTL = 7 * 24 * time.Hour

type SessionStatus int

const (
	SessionInvalid SessionStatus = iota
	SessionValid
)

func (s SessionStatus) String() string {
	if s == SessionValid {
		return "valid"
	}
	return "invalid"
}

type LoginResult int

const (
	LoginRejected LoginResult = iota
	LoginAccepted
)

func (r LoginResult) String() string {
	if r == LoginAccepted {
		return "accepted"
	}
	return "rejected"
}

type GateState int32

const (
	StateUnknown GateState = iota
	StateAuthenticated
	StateUnauthenticated
)

func (s GateState) String() string {
	switch s {
	case StateAuthenticated:
		return "authenticated"
	case StateUnauthenticated:
		return "unauthenticated"
	default:
		return "unknown"
	}
}

// Navigator 登出后跳转到登录入口
type Navigator interface {
	ToLogin()
}

type NavigatorFunc func()

func (f NavigatorFunc) ToLogin() { f() }

type noopNavigator struct{}

func (noopNavigator) ToLogin() {}

// StateObserver 状态变化回调，在 gate 锁外调用
type StateObserver func(prev, next GateState)

type GateOption func(*SessionGate)

func WithClock(now func() time.Time) GateOption {
	return func(g *SessionGate) { g.now = now }
}

func WithNavigator(nav Navigator) GateOption {
	return func(g *SessionGate) { g.nav = nav }
}

// WithRecheckInterval 定期复查会话，用于发现过期
func WithRecheckInterval(d time.Duration) GateOption {
	return func(g *SessionGate) { g.recheck = d }
}

// SessionGate 决定整个控制台是否处于已登录状态。共享同一 store 的多个 gate
// 通过 store 的 session-changed 广播互相感知登录和登出
type SessionGate struct {
	ID string

	store   repository.SessionStore
	nav     Navigator
	now     func() time.Time
	recheck time.Duration

	mu           sync.RWMutex
	expected     string
	expectedHash []byte
	state        GateState
	// checkSeq 每次 Refresh 递增；appliedSeq 为最后写入 state 的检查
	checkSeq   uint64
	appliedSeq uint64

	obsMu          sync.Mutex
	observers      map[int]StateObserver
	eventObservers map[int]func()
	nextObs        int
}

func NewSessionGate(store repository.SessionStore, auth config.AuthConfig, opts ...GateOption) *SessionGate {
	g := &SessionGate{
		ID:        model.GenerateUUID(),
		store:     store,
		nav:       noopNavigator{},
		now:       time.Now,
		state:     StateUnknown,
		observers:      make(map[int]StateObserver),
		eventObservers: make(map[int]func()),
	}
	g.SetExpected(auth)
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// SetExpected 更新期望的访问码，配置热更新时调用；下一次复查生效
func (g *SessionGate) SetExpected(auth config.AuthConfig) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.expected = auth.LoginCode
	g.expectedHash = nil
	if auth.LoginCodeHash != "" {
		g.expectedHash = []byte(auth.LoginCodeHash)
	}
}

func (g *SessionGate) matches(candidate string) bool {
	if candidate == "" {
		return false
	}
	g.mu.RLock()
	expected, hash := g.expected, g.expectedHash
	g.mu.RUnlock()

	if hash != nil {
		return bcrypt.CompareHashAndPassword(hash, []byte(candidate)) == nil
	}
	if expected == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(expected), []byte(candidate)) == 1
}

func (g *SessionGate) State() GateState {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.state
}

// CheckSession 读取持久化的会话并判断是否有效。无效时清除已存在的字段，
// 两个字段都不存在时不做任何写入
func (g *SessionGate) CheckSession(ctx context.Context) SessionStatus {
	code, hasCode, err := g.store.Get(ctx, repository.KeyCredential)
	if err != nil {
		logger.Log.Error("Failed to read session credential", zap.Error(err), zap.String("gate", g.ID))
		return SessionInvalid
	}
	issuedRaw, hasIssued, err := g.store.Get(ctx, repository.KeyIssuedAt)
	if err != nil {
		logger.Log.Error("Failed to read session issue time", zap.Error(err), zap.String("gate", g.ID))
		return SessionInvalid
	}

	reason := ""
	switch {
	case !hasCode:
		reason = "credential missing"
	case !g.matches(code):
		reason = "credential mismatch"
	case !hasIssued:
		reason = "issue time missing"
	default:
		issuedAt, ok := parseIssuedAt(issuedRaw)
		if !ok {
			reason = "issue time unparsable"
		} else if g.now().Sub(issuedAt) >= SessionTTL {
			reason = "expired"
		}
	}

	if reason == "" {
		return SessionValid
	}

	if hasCode || hasIssued {
		logger.Log.Info("Purging invalid session", zap.String("reason", reason), zap.String("gate", g.ID))
		if hasCode {
			if err := g.store.Remove(ctx, repository.KeyCredential); err != nil {
				logger.Log.Error("Failed to purge session credential", zap.Error(err))
			}
		}
		if hasIssued {
			if err := g.store.Remove(ctx, repository.KeyIssuedAt); err != nil {
				logger.Log.Error("Failed to purge session issue time", zap.Error(err))
			}
		}
	}
	return SessionInvalid
}

func parseIssuedAt(raw string) (time.Time, bool) {
	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, false
	}
	return time.UnixMilli(ms), true
}

// Login 校验访问码。通过时写入会话并广播；拒绝不是错误，只有写入失败才返回 error
func (g *SessionGate) Login(ctx context.Context, candidate string) (LoginResult, error) {
	if !g.matches(candidate) {
		logger.Log.Info("Login rejected", zap.String("gate", g.ID))
		return LoginRejected, nil
	}

	err := g.store.SetMany(ctx, map[string]string{
		repository.KeyCredential: candidate,
		repository.KeyIssuedAt:   strconv.FormatInt(g.now().UnixMilli(), 10),
	})
	if err != nil {
		logger.Log.Error("Failed to persist session", zap.Error(err), zap.String("gate", g.ID))
		return LoginRejected, err
	}

	g.publish(ctx)
	g.Refresh(ctx)
	logger.Log.Info("Login accepted", zap.String("gate", g.ID))
	return LoginAccepted, nil
}

// Logout 清除会话、广播并跳转登录页。不会失败，可重复调用
func (g *SessionGate) Logout(ctx context.Context) {
	for _, key := range []string{repository.KeyCredential, repository.KeyIssuedAt} {
		if err := g.store.Remove(ctx, key); err != nil {
			logger.Log.Error("Failed to remove session key", zap.String("key", key), zap.Error(err))
		}
	}
	g.publish(ctx)
	g.Refresh(ctx)
	g.nav.ToLogin()
}

func (g *SessionGate) publish(ctx context.Context) {
	if err := g.store.Publish(ctx); err != nil {
		logger.Log.Warn("Failed to publish session change", zap.Error(err), zap.String("gate", g.ID))
	}
}

// RemainingTime max(0, TTL - 已过时间)，无会话时为 0
func (g *SessionGate) RemainingTime(ctx context.Context) time.Duration {
	if _, ok, err := g.store.Get(ctx, repository.KeyCredential); err != nil || !ok {
		return 0
	}
	raw, ok, err := g.store.Get(ctx, repository.KeyIssuedAt)
	if err != nil || !ok {
		return 0
	}
	issuedAt, ok := parseIssuedAt(raw)
	if !ok {
		return 0
	}
	remaining := SessionTTL - g.now().Sub(issuedAt)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Refresh 复查会话并更新状态
// 晚于更新检查完成的旧检查结果被丢弃
func (g *SessionGate) Refresh(ctx context.Context) GateState {
	g.mu.Lock()
	g.checkSeq++
	seq := g.checkSeq
	g.mu.Unlock()

	next := StateUnauthenticated
	if g.CheckSession(ctx) == SessionValid {
		next = StateAuthenticated
	}

	g.mu.Lock()
	if seq < g.appliedSeq {
		current := g.state
		g.mu.Unlock()
		logger.Log.Debug("Discarding stale session check", zap.String("gate", g.ID), zap.Uint64("seq", seq))
		return current
	}
	g.appliedSeq = seq
	prev := g.state
	g.state = next
	g.mu.Unlock()

	if prev != next {
		logger.Log.Info("Session state changed",
			zap.String("gate", g.ID),
			zap.String("from", prev.String()),
			zap.String("to", next.String()),
		)
		monitoring.SessionTransitions.WithLabelValues(next.String()).Inc()
		if next == StateAuthenticated {
			monitoring.SessionAuthenticated.Set(1)
		} else {
			monitoring.SessionAuthenticated.Set(0)
		}
		g.notify(prev, next)
	}
	return next
}

// Start 订阅 store 变更，完成首次检查后在后台持续复查，直到 ctx 结束
func (g *SessionGate) Start(ctx context.Context) error {
	events, err := g.store.Watch(ctx)
	if err != nil {
		return err
	}
	g.Refresh(ctx)

	go func() {
		var tick <-chan time.Time
		if g.recheck > 0 {
			ticker := time.NewTicker(g.recheck)
			defer ticker.Stop()
			tick = ticker.C
		}
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-events:
				if !ok {
					return
				}
				prev := g.State()
				if g.Refresh(ctx) == prev {
					g.notifyEvent()
				}
			case <-tick:
				g.Refresh(ctx)
			}
		}
	}()
	return nil
}

// Subscribe 注册状态观察者，返回取消函数
func (g *SessionGate) Subscribe(fn StateObserver) func() {
	g.obsMu.Lock()
	id := g.nextObs
	g.nextObs++
	g.observers[id] = fn
	g.obsMu.Unlock()

	return func() {
		g.obsMu.Lock()
		delete(g.observers, id)
		g.obsMu.Unlock()
	}
}

// SubscribeEvents 注册 store 事件观察者：收到 session-changed 且复查后状态未变时调用，
// 例如其他上下文重新登录延长了会话。状态变化仍只通知 Subscribe 的观察者
func (g *SessionGate) SubscribeEvents(fn func()) func() {
	g.obsMu.Lock()
	id := g.nextObs
	g.nextObs++
	g.eventObservers[id] = fn
	g.obsMu.Unlock()

	return func() {
		g.obsMu.Lock()
		delete(g.eventObservers, id)
		g.obsMu.Unlock()
	}
}

func (g *SessionGate) notify(prev, next GateState) {
	g.obsMu.Lock()
	fns := make([]StateObserver, 0, len(g.observers))
	for _, fn := range g.observers {
		fns = append(fns, fn)
	}
	g.obsMu.Unlock()

	for _, fn := range fns {
		fn(prev, next)
	}
}

func (g *SessionGate) notifyEvent() {
	g.obsMu.Lock()
	fns := make([]func(), 0, len(g.eventObservers))
	for _, fn := range g.eventObservers {
		fns = append(fns, fn)
	}
	g.obsMu.Unlock()

	for _, fn := range fns {
		fn()
	}
}
