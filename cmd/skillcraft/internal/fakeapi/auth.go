package fakeapi

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/houzhh15/skillcraft/cmd/skillcraft/internal/models"
)

var errUserNotFound = errors.New("USER_NOT_FOUND")

const minPasswordLen = 6

// userByEmail 调用方持锁
func (s *Server) userByEmail(email string) *userRecord {
	for _, id := range s.userOrder {
		if u := s.users[id]; strings.EqualFold(u.Email, email) {
			return u
		}
	}
	return nil
}

// handleSignup POST /Auth/signUp
// 创建未验证用户，验证码通过日志输出
func (s *Server) handleSignup(c *gin.Context) {
	var req models.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || strings.TrimSpace(req.FirstName) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "firstName and email are required"})
		return
	}
	if len(req.Password) < minPasswordLen {
		c.JSON(http.StatusBadRequest, gin.H{"error": "password too short"})
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	s.mu.Lock()
	if s.userByEmail(req.Email) != nil {
		s.mu.Unlock()
		c.JSON(http.StatusConflict, gin.H{"error": "email already registered"})
		return
	}
	rec := &userRecord{
		User: models.User{
			ID:        uuid.NewString(),
			FirstName: req.FirstName,
			LastName:  req.LastName,
			Email:     req.Email,
			Role:      models.RoleUser,
		},
		passwordHash: hash,
		verifyToken:  uuid.NewString(),
	}
	s.putUser(rec)
	s.mu.Unlock()

	s.logger.Info("signup_verification_pending", "email", rec.Email, "verify_token", rec.verifyToken)
	c.JSON(http.StatusOK, gin.H{"message": "verification email sent"})
}

// handleLogin POST /Auth/login
// 成功时返回裸字符串 token
func (s *Server) handleLogin(c *gin.Context) {
	var cred models.Credentials
	if err := c.ShouldBindJSON(&cred); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	s.mu.RLock()
	rec := s.userByEmail(strings.TrimSpace(cred.Email))
	var (
		user     models.User
		hash     []byte
		verified bool
	)
	if rec != nil {
		user, hash, verified = rec.User, rec.passwordHash, rec.verified
	}
	s.mu.RUnlock()

	if rec == nil || bcrypt.CompareHashAndPassword(hash, []byte(cred.Password)) != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid email or password"})
		return
	}
	if !verified {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email not verified"})
		return
	}
	token, err := s.issueToken(user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, token)
}

// handleVerify GET /Auth/verify?email=&token=
func (s *Server) handleVerify(c *gin.Context) {
	email, code := c.Query("email"), c.Query("token")
	s.mu.Lock()
	rec := s.userByEmail(email)
	if rec == nil || code == "" || rec.verifyToken != code {
		s.mu.Unlock()
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid verification link"})
		return
	}
	rec.verified = true
	rec.verifyToken = ""
	user := rec.User
	s.mu.Unlock()

	token, err := s.issueToken(user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, models.AuthResult{Token: token, Message: "email verified"})
}

// handleChangePassword PUT /Auth
func (s *Server) handleChangePassword(c *gin.Context) {
	var req models.PasswordChange
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	if len(req.NewPassword) < minPasswordLen {
		c.JSON(http.StatusBadRequest, gin.H{"error": "password too short"})
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.users[c.GetString("user")]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	if bcrypt.CompareHashAndPassword(rec.passwordHash, []byte(req.CurrentPassword)) != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "current password is incorrect"})
		return
	}
	rec.passwordHash = hash
	c.Status(http.StatusNoContent)
}

// handleListUsers GET /Users
func (s *Server) handleListUsers(c *gin.Context) {
	f := filterFrom(c)
	s.mu.RLock()
	out := []models.User{}
	for _, id := range s.userOrder {
		u := s.users[id]
		if f.Name != "" && !containsFold(u.FirstName+" "+u.LastName+" "+u.Email, f.Name) {
			continue
		}
		out = append(out, u.User)
	}
	s.mu.RUnlock()
	c.JSON(http.StatusOK, paginate(out, f))
}

// handleGetUser GET /Users/:id
func (s *Server) handleGetUser(c *gin.Context) {
	s.mu.RLock()
	u, ok := s.users[c.Param("id")]
	s.mu.RUnlock()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	c.JSON(http.StatusOK, u.User)
}

// handleUpdateUser PUT /Users/:id
func (s *Server) handleUpdateUser(c *gin.Context) {
	var body models.User
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	if body.Role != "" && !body.Role.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown role"})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.users[c.Param("id")]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	if body.FirstName != "" {
		rec.FirstName = body.FirstName
	}
	if body.LastName != "" {
		rec.LastName = body.LastName
	}
	if body.Email != "" {
		rec.Email = body.Email
	}
	if body.Role != "" {
		rec.Role = body.Role
	}
	c.JSON(http.StatusOK, rec.User)
}

// handleDeleteUser DELETE /Users/:id
func (s *Server) handleDeleteUser(c *gin.Context) {
	id := c.Param("id")
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	delete(s.users, id)
	s.userOrder = removeID(s.userOrder, id)
	c.Status(http.StatusNoContent)
}

// handleListRoles GET /Roles
func (s *Server) handleListRoles(c *gin.Context) {
	out := make([]models.RoleInfo, 0, len(models.AllRoles))
	for i, r := range models.AllRoles {
		out = append(out, models.RoleInfo{ID: strconv.Itoa(i + 1), Name: string(r)})
	}
	c.JSON(http.StatusOK, out)
}
