// Package session 管理 bearer token 与当前 Principal 的生命周期。
//
// 只有本包写入 storage 中的 token 键，其余组件只读取派生出的 Principal。
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/houzhh15/skillcraft/cmd/skillcraft/internal/models"
	"github.com/houzhh15/skillcraft/cmd/skillcraft/internal/storage"
	"github.com/houzhh15/skillcraft/pkg/logger"
	"github.com/houzhh15/skillcraft/pkg/metrics"
)

// ErrInvalidToken token 缺失、过期或无法解析。对用户静默，等同于"无会话"
var ErrInvalidToken = errors.New("INVALID_TOKEN")

// Claims 服务端签发的 token 载荷
type Claims struct {
	ID         string `json:"id"`
	GivenName  string `json:"given_name"`
	FamilyName string `json:"family_name"`
	Email      string `json:"email"`
	Role       string `json:"role"`
	jwt.RegisteredClaims
}

// EnergySource 获取学员的 energy 数值
type EnergySource interface {
	GetEnergy(ctx context.Context, userID string) (int, error)
}

// Energy 头部展示的学员资源。Known 为 false 表示未知（刷新失败或尚未获取）
type Energy struct {
	Value int
	Known bool
}

// Store 会话上下文对象，显式注入到需要 Principal 或 token 的组件
type Store struct {
	mu           sync.RWMutex
	storage      storage.Store
	energySource EnergySource
	logger       *slog.Logger
	now          func() time.Time

	principal    *models.Principal
	token        string
	energy       Energy
	bootstrapped bool
	// generation 每次登录/登出递增，旧会话的异步刷新结果据此丢弃
	generation uint64
	refreshes  sync.WaitGroup
}

// Option 配置 Store
type Option func(*Store)

// WithLogger 注入 logger
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithClock 替换时间源（测试用）
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithEnergySource 注入 energy 数据源
func WithEnergySource(src EnergySource) Option {
	return func(s *Store) { s.energySource = src }
}

// New 创建会话存储
func New(st storage.Store, opts ...Option) *Store {
	s := &Store{storage: st, logger: logger.Discard(), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetEnergySource 在 gateway 构造完成后再绑定 energy 数据源（gateway 依赖本 Store 提供 token）
func (s *Store) SetEnergySource(src EnergySource) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.energySource = src
}

// parse 解析 token，不校验签名（客户端不持有密钥），只校验过期时间
func parse(token string, now time.Time) (*models.Principal, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}
	claims := &Claims{}
	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return nil, ErrInvalidToken
	}
	if claims.ExpiresAt == nil || !claims.ExpiresAt.After(now) {
		return nil, ErrInvalidToken
	}
	return &models.Principal{
		ID:        claims.ID,
		FirstName: claims.GivenName,
		LastName:  claims.FamilyName,
		Email:     claims.Email,
		Role:      models.Role(claims.Role),
	}, nil
}

// Decode 解码 token；过期或无法解析时返回 ErrInvalidToken 并从持久化存储中移除 token
func (s *Store) Decode(token string) (*models.Principal, error) {
	p, err := parse(token, s.now())
	if err != nil {
		s.logger.Debug("session_token_invalid")
		if delErr := s.storage.Delete(storage.KeyAuthToken); delErr != nil {
			s.logger.Warn("session_token_evict_failed", "error", delErr)
		}
		metrics.RecordSessionEvent("evicted")
		return nil, err
	}
	return p, nil
}

// Login 持久化 token 并设置当前 Principal。学员角色触发异步 energy 刷新
func (s *Store) Login(ctx context.Context, token string) (*models.Principal, error) {
	if err := s.storage.Set(storage.KeyAuthToken, token); err != nil {
		return nil, err
	}
	p, err := s.Decode(token)

	s.mu.Lock()
	s.generation++
	s.energy = Energy{}
	if err != nil {
		s.principal, s.token = nil, ""
		s.mu.Unlock()
		return nil, err
	}
	s.principal, s.token = p, token
	gen := s.generation
	s.mu.Unlock()

	metrics.RecordSessionEvent("login")
	s.logger.Info("session_login", "user_id", p.ID, "role", string(p.Role))
	if p.Role == models.RoleUser {
		s.startEnergyRefresh(ctx, gen, p.ID)
	}
	return copyPrincipal(p), nil
}

// Logout 移除 token，清除 Principal 及其派生资源
func (s *Store) Logout() error {
	s.mu.Lock()
	s.generation++
	s.principal, s.token = nil, ""
	s.energy = Energy{}
	s.mu.Unlock()

	metrics.RecordSessionEvent("logout")
	return s.storage.Delete(storage.KeyAuthToken)
}

// HandleUnauthorized 远端返回 401 时强制拆除会话
func (s *Store) HandleUnauthorized() {
	metrics.RecordSessionEvent("unauthorized")
	s.logger.Warn("session_unauthorized")
	if err := s.Logout(); err != nil {
		s.logger.Warn("session_logout_failed", "error", err)
	}
}

// Bootstrap 进程启动时调用一次：读取持久化 token 并解码，等待触发的刷新结束后才标记完成
func (s *Store) Bootstrap(ctx context.Context) {
	if token, ok := s.storage.Get(storage.KeyAuthToken); ok && token != "" {
		if p, err := s.Decode(token); err == nil {
			s.mu.Lock()
			s.generation++
			s.principal, s.token = p, token
			gen := s.generation
			s.mu.Unlock()
			if p.Role == models.RoleUser {
				s.startEnergyRefresh(ctx, gen, p.ID)
			}
		}
	}
	s.refreshes.Wait()

	s.mu.Lock()
	s.bootstrapped = true
	s.mu.Unlock()
}

// Bootstrapped 报告 Bootstrap 是否已完成
func (s *Store) Bootstrapped() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bootstrapped
}

// Principal 返回当前 Principal 的副本，无会话时为 nil
func (s *Store) Principal() *models.Principal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyPrincipal(s.principal)
}

// Token 返回当前 token，供 gateway 附加凭据
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Energy 返回当前 energy 状态
func (s *Store) Energy() Energy {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.energy
}

// RefreshEnergy 同步刷新当前学员的 energy
func (s *Store) RefreshEnergy(ctx context.Context) Energy {
	s.mu.RLock()
	p, gen := s.principal, s.generation
	s.mu.RUnlock()
	if p == nil {
		return Energy{}
	}
	s.refreshes.Add(1)
	s.refreshEnergy(ctx, gen, p.ID)
	return s.Energy()
}

// WaitRefreshes 等待所有进行中的 energy 刷新
func (s *Store) WaitRefreshes() {
	s.refreshes.Wait()
}

func (s *Store) startEnergyRefresh(ctx context.Context, gen uint64, userID string) {
	s.refreshes.Add(1)
	go s.refreshEnergy(context.WithoutCancel(ctx), gen, userID)
}

// refreshEnergy 调用方已 Add(1)
func (s *Store) refreshEnergy(ctx context.Context, gen uint64, userID string) {
	defer s.refreshes.Done()

	s.mu.RLock()
	src := s.energySource
	s.mu.RUnlock()

	next := Energy{}
	if src != nil {
		value, err := src.GetEnergy(ctx, userID)
		if err != nil {
			metrics.RecordSessionEvent("energy_unknown")
			s.logger.Warn("session_energy_refresh_failed", "user_id", userID, "error", err)
		} else {
			next = Energy{Value: value, Known: true}
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation != gen {
		return
	}
	s.energy = next
}

func copyPrincipal(p *models.Principal) *models.Principal {
	if p == nil {
		return nil
	}
	cp := *p
	return &cp
}
