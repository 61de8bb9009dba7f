// Package fakeapi 内存版 SkillCraft REST 服务，用于本地开发沙箱与测试。
package fakeapi

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/houzhh15/skillcraft/cmd/skillcraft/internal/models"
	"github.com/houzhh15/skillcraft/cmd/skillcraft/internal/session"
	"github.com/houzhh15/skillcraft/pkg/logger"
)

// Call 一次被记录的请求
type Call struct {
	Method string
	Path   string
	Body   string
}

type userRecord struct {
	models.User
	passwordHash     []byte
	verified         bool
	verifyToken      string
	energy           int
	roadmaps         []string
	finishedRoadmaps map[string]bool
	finishedSteps    map[string]bool
}

type milestoneRecord struct {
	ID          string
	Name        string
	Description string
	StepIDs     []string
}

type roadmapRecord struct {
	ID           string
	Name         string
	Description  string
	Tags         []string
	Salary       float64
	MilestoneIDs []string
}

// Server 内存后端
type Server struct {
	mu       sync.RWMutex
	secret   []byte
	tokenTTL time.Duration
	now      func() time.Time
	logger   *slog.Logger

	users      map[string]*userRecord
	userOrder  []string
	steps      map[string]*models.Step
	stepOrder  []string
	milestones map[string]*milestoneRecord
	msOrder    []string
	roadmaps   map[string]*roadmapRecord
	rmOrder    []string
	quizzes    map[string]models.Quiz
	quizOrder  []string

	failures map[string]int
	calls    []Call

	engine *gin.Engine
}

// Option 配置 Server
type Option func(*Server)

// WithSecret 设置 token 签名密钥
func WithSecret(secret string) Option {
	return func(s *Server) { s.secret = []byte(secret) }
}

// WithTokenTTL 设置 token 有效期
func WithTokenTTL(ttl time.Duration) Option {
	return func(s *Server) { s.tokenTTL = ttl }
}

// WithClock 替换时间源
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// WithLogger 注入 logger
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// New 创建空的内存后端
func New(opts ...Option) *Server {
	s := &Server{
		secret:     []byte("skillcraft-dev-secret"),
		tokenTTL:   24 * time.Hour,
		now:        time.Now,
		logger:     logger.Discard(),
		users:      map[string]*userRecord{},
		steps:      map[string]*models.Step{},
		milestones: map[string]*milestoneRecord{},
		roadmaps:   map[string]*roadmapRecord{},
		quizzes:    map[string]models.Quiz{},
		failures:   map[string]int{},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.engine = s.routes()
	return s
}

// Handler 返回 HTTP 处理器，接口挂在 /api 下
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) routes() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(s.requestLogger())

	api := r.Group("/api", s.record, s.injectFailures)
	api.POST("/Auth/signUp", s.handleSignup)
	api.POST("/Auth/login", s.handleLogin)
	api.GET("/Auth/verify", s.handleVerify)

	api.GET("/Roadmaps", s.handleListRoadmaps)
	api.GET("/Roadmaps/:id", s.handleGetRoadmap)
	api.GET("/Milestones", s.handleListMilestones)
	api.GET("/Milestones/:id", s.handleGetMilestone)
	api.GET("/Steps", s.handleListSteps)
	api.GET("/Steps/:id", s.handleGetStep)

	authed := api.Group("", s.authenticate)
	authed.PUT("/Auth", s.handleChangePassword)
	authed.GET("/MultipleChoicesQuiz", s.handleListQuizzes)
	authed.GET("/MultipleChoicesQuiz/:id", s.handleGetQuiz)
	authed.PUT("/answer/:id", s.handleAnswer)

	profile := authed.Group("/Profile")
	profile.GET("/MyRoadmaps", s.handleMyRoadmaps)
	profile.PUT("/AddRoadmap/:id", s.handleAddRoadmap)
	profile.PUT("/RemoveRoadmap/:id", s.handleRemoveRoadmap)
	profile.GET("/CheckRoadmap/:id", s.handleCheckRoadmap)
	profile.GET("/FinishedSteps/:id", s.handleFinishedSteps)
	profile.PUT("/FinishSteps", s.handleFinishSteps)
	profile.PUT("/UnFinishSteps", s.handleUnfinishSteps)
	profile.PUT("/Roadmaps/:id", s.handleRoadmapStatus)
	profile.GET("/energy/:userId", s.handleEnergy)

	editors := authed.Group("", s.requireRole(models.RoleEditor, models.RoleAdmin))
	editors.POST("/Roadmaps", s.handleCreateRoadmap)
	editors.PUT("/Roadmaps/:id", s.handleUpdateRoadmap)
	editors.DELETE("/Roadmaps/:id", s.handleDeleteRoadmap)
	editors.POST("/Milestones", s.handleCreateMilestone)
	editors.PUT("/Milestones/:id", s.handleUpdateMilestone)
	editors.DELETE("/Milestones/:id", s.handleDeleteMilestone)
	editors.POST("/Steps", s.handleCreateStep)
	editors.PUT("/Steps/:id", s.handleUpdateStep)
	editors.DELETE("/Steps/:id", s.handleDeleteStep)
	editors.POST("/MultipleChoicesQuiz", s.handleCreateQuiz)
	editors.POST("/TrueFalseQuiz", s.handleCreateQuiz)
	editors.PUT("/MultipleChoicesQuiz/:id", s.handleUpdateQuiz)
	editors.PUT("/TrueFalseQuiz/:id", s.handleUpdateQuiz)
	editors.DELETE("/MultipleChoicesQuiz/:id", s.handleDeleteQuiz)

	admins := authed.Group("", s.requireRole(models.RoleAdmin))
	admins.GET("/Users", s.handleListUsers)
	admins.GET("/Users/:id", s.handleGetUser)
	admins.PUT("/Users/:id", s.handleUpdateUser)
	admins.DELETE("/Users/:id", s.handleDeleteUser)
	admins.GET("/Roles", s.handleListRoles)

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
	})
	return r
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		reqID := c.GetHeader("X-Request-ID")
		if reqID == "" {
			reqID = uuid.NewString()
		}
		c.Set("request_id", reqID)
		c.Writer.Header().Set("X-Request-ID", reqID)

		c.Next()

		s.logger.Info("http_request",
			"rid", reqID,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
		)
	}
}

// record 记录请求（路径去掉 /api 前缀，与客户端调用路径一致）
func (s *Server) record(c *gin.Context) {
	var body []byte
	if c.Request.Body != nil {
		body, _ = io.ReadAll(c.Request.Body)
		c.Request.Body = io.NopCloser(bytes.NewReader(body))
	}
	s.mu.Lock()
	s.calls = append(s.calls, Call{
		Method: c.Request.Method,
		Path:   apiPath(c),
		Body:   string(body),
	})
	s.mu.Unlock()
	c.Next()
}

func (s *Server) injectFailures(c *gin.Context) {
	s.mu.RLock()
	status, ok := s.failures[c.Request.Method+" "+apiPath(c)]
	s.mu.RUnlock()
	if ok {
		c.AbortWithStatusJSON(status, gin.H{"error": "injected failure"})
		return
	}
	c.Next()
}

func apiPath(c *gin.Context) string {
	return strings.TrimPrefix(c.Request.URL.Path, "/api")
}

// authenticate 校验 bearer token 并加载当前用户
func (s *Server) authenticate(c *gin.Context) {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
		return
	}
	claims := &session.Claims{}
	_, err := jwt.ParseWithClaims(strings.TrimPrefix(header, "Bearer "), claims,
		func(t *jwt.Token) (interface{}, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}
	s.mu.RLock()
	u, ok := s.users[claims.ID]
	s.mu.RUnlock()
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unknown user"})
		return
	}
	c.Set("user", u.ID)
	c.Next()
}

func (s *Server) requireRole(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		u := s.currentUser(c)
		for _, r := range roles {
			if u != nil && u.Role == r {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
	}
}

// currentUser 返回快照，调用方不持锁
func (s *Server) currentUser(c *gin.Context) *models.User {
	id := c.GetString("user")
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil
	}
	cp := u.User
	return &cp
}

func (s *Server) issueToken(u models.User) (string, error) {
	now := s.now()
	claims := session.Claims{
		ID:         u.ID,
		GivenName:  u.FirstName,
		FamilyName: u.LastName,
		Email:      u.Email,
		Role:       string(u.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// ---- 测试与沙箱辅助 ----

// Fail 让 method+path 的后续请求返回 status，直到 ClearFailures
func (s *Server) Fail(method, path string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[method+" "+path] = status
}

// ClearFailures 清除全部注入的失败
func (s *Server) ClearFailures() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = map[string]int{}
}

// Calls 返回已记录请求的副本
func (s *Server) Calls() []Call {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Call(nil), s.calls...)
}

// ResetCalls 清空请求记录
func (s *Server) ResetCalls() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = nil
}

// AddUser 直接创建已验证用户，ID 为空时自动生成
func (s *Server) AddUser(u models.User, password string) models.User {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.Role == "" {
		u.Role = models.RoleUser
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.putUser(&userRecord{User: u, passwordHash: hash, verified: true})
	return u
}

// putUser 调用方持写锁
func (s *Server) putUser(rec *userRecord) {
	if rec.finishedRoadmaps == nil {
		rec.finishedRoadmaps = map[string]bool{}
	}
	if rec.finishedSteps == nil {
		rec.finishedSteps = map[string]bool{}
	}
	if _, ok := s.users[rec.ID]; !ok {
		s.userOrder = append(s.userOrder, rec.ID)
	}
	s.users[rec.ID] = rec
}

// TokenFor 为已存在的用户签发 token
func (s *Server) TokenFor(userID string) (string, error) {
	s.mu.RLock()
	u, ok := s.users[userID]
	s.mu.RUnlock()
	if !ok {
		return "", errUserNotFound
	}
	return s.issueToken(u.User)
}

// SetEnergy 设置用户 energy
func (s *Server) SetEnergy(userID string, energy int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[userID]; ok {
		u.energy = energy
	}
}

// VerificationToken 返回待验证邮箱的验证码（沙箱中替代邮件）
func (s *Server) VerificationToken(email string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if u := s.userByEmail(email); u != nil {
		return u.verifyToken
	}
	return ""
}

// FinishedStepIDs 返回用户已完成的全部 step id（排序）
func (s *Server) FinishedStepIDs(userID string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[userID]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(u.finishedSteps))
	for id := range u.finishedSteps {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// InProfile 报告路线图是否在用户档案中
func (s *Server) InProfile(userID, roadmapID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[userID]
	return ok && indexOf(u.roadmaps, roadmapID) >= 0
}

// AddStep 直接创建 step
func (s *Server) AddStep(p models.StepPayload) models.Step {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createStep(p)
}

// AddMilestone 直接创建里程碑，未知的 step id 被忽略
func (s *Server) AddMilestone(p models.MilestonePayload) models.Milestone {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.StepsIDs = s.knownIDs(p.StepsIDs, func(id string) bool { _, ok := s.steps[id]; return ok })
	return s.createMilestone(p)
}

// AddRoadmap 直接创建路线图，未知的里程碑 id 被忽略
func (s *Server) AddRoadmap(p models.RoadmapPayload) models.Roadmap {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.MilestonesIDs = s.knownIDs(p.MilestonesIDs, func(id string) bool { _, ok := s.milestones[id]; return ok })
	return s.createRoadmap(p)
}

// AddQuiz 直接创建测验
func (s *Server) AddQuiz(q models.Quiz) models.Quiz {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createQuiz(q)
}

func (s *Server) knownIDs(ids []string, known func(string) bool) []string {
	out := []string{}
	for _, id := range ids {
		if known(id) {
			out = append(out, id)
		}
	}
	return out
}

func indexOf(ids []string, id string) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}

func removeID(ids []string, id string) []string {
	if i := indexOf(ids, id); i >= 0 {
		return append(ids[:i:i], ids[i+1:]...)
	}
	return ids
}
