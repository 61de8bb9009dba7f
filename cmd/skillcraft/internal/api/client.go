// Package api 封装对 SkillCraft REST 服务的调用。
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/houzhh15/skillcraft/pkg/logger"
	"github.com/houzhh15/skillcraft/pkg/metrics"
)

// DefaultBaseURL 默认服务地址
const DefaultBaseURL = "http://localhost:5093/api"

// ErrUnauthorized 远端判定 token 无效（401），会话已被拆除
var ErrUnauthorized = errors.New("UNAUTHORIZED")

// RemoteError 其余失败的远端调用
type RemoteError struct {
	Status  int
	Message string
}

func (e *RemoteError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("HTTP %d", e.Status)
	}
	return fmt.Sprintf("HTTP %d: %s", e.Status, e.Message)
}

// IsNotFound 判断是否为 404
func IsNotFound(err error) bool {
	var re *RemoteError
	return errors.As(err, &re) && re.Status == http.StatusNotFound
}

// TokenSource 提供当前 bearer token
type TokenSource interface {
	Token() string
}

// Client 统一的请求包装：附加凭据、规范化失败
type Client struct {
	BaseURL    string
	HTTPClient *http.Client

	tokens         TokenSource
	onUnauthorized func()
	logger         *slog.Logger
}

// Option 配置 Client
type Option func(*Client)

// WithHTTPClient 替换底层 http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.HTTPClient = hc }
}

// WithLogger 注入 logger
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithUnauthorizedHandler 设置 401 回调（通常为 session.HandleUnauthorized）
func WithUnauthorizedHandler(fn func()) Option {
	return func(c *Client) { c.onUnauthorized = fn }
}

// NewClient 创建 API 客户端，baseURL 为空时使用默认值
func NewClient(baseURL string, tokens TokenSource, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		BaseURL:    strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
		tokens:     tokens,
		logger:     logger.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// do 执行请求。body 非 nil 时按 JSON 编码；out 非 nil 时解码响应
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	u := c.BaseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	reqID := uuid.NewString()
	req.Header.Set("X-Request-ID", reqID)
	req.Header.Set("Accept", "application/json")
	if c.tokens != nil {
		if tok := c.tokens.Token(); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resource := resourceOf(path)
	start := time.Now()
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		metrics.RecordAPIRequest(resource, method, "error", time.Since(start).Seconds())
		c.logger.Debug("api_request_failed", "rid", reqID, "method", method, "path", path, "error", err)
		return fmt.Errorf("request failed (check server url %s): %w", c.BaseURL, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	elapsed := time.Since(start)
	metrics.RecordAPIRequest(resource, method, strconv.Itoa(resp.StatusCode), elapsed.Seconds())
	c.logger.Debug("api_request",
		"rid", reqID,
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"latency_ms", elapsed.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		if c.onUnauthorized != nil {
			c.onUnauthorized()
		}
		return ErrUnauthorized
	}
	if resp.StatusCode >= 400 {
		return &RemoteError{Status: resp.StatusCode, Message: errorMessage(data)}
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return nil
}

// errorMessage 依次取 message / error / title，否则返回原始文本
func errorMessage(data []byte) string {
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
		Title   string `json:"title"`
	}
	if err := json.Unmarshal(data, &body); err == nil {
		for _, m := range []string{body.Message, body.Error, body.Title} {
			if m != "" {
				return m
			}
		}
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		return s
	}
	return strings.TrimSpace(string(data))
}

// resourceOf 取路径首段作为指标标签，避免 id 造成标签爆炸
func resourceOf(path string) string {
	p := strings.TrimPrefix(path, "/")
	if i := strings.IndexByte(p, '/'); i >= 0 {
		p = p[:i]
	}
	if p == "" {
		return "root"
	}
	return p
}

func escape(id string) string {
	return url.PathEscape(id)
}
