package feishu

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

// DefaultBaseURL 飞书开放平台地址
const DefaultBaseURL = "https://open.feishu.cn"

// FeishuClient 飞书客户端，负责 tenant token 缓存与通用请求
type FeishuClient struct {
	appID      string
	appSecret  string
	baseURL    string
	httpClient *http.Client

	mu          sync.RWMutex
	tokenCache  string
	tokenExpire time.Time
}

// Option 客户端选项
type Option func(*FeishuClient)

// WithBaseURL 替换开放平台地址（私有化部署或测试）
func WithBaseURL(baseURL string) Option {
	return func(c *FeishuClient) {
		if baseURL != "" {
			c.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

// WithHTTPClient 替换 HTTP 客户端
func WithHTTPClient(hc *http.Client) Option {
	return func(c *FeishuClient) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// NewClient 创建飞书客户端
func NewClient(appID, appSecret string, opts ...Option) *FeishuClient {
	c := &FeishuClient{
		appID:      appID,
		appSecret:  appSecret,
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetTenantAccessToken 获取 tenant_access_token，过期前 60 秒刷新
func (c *FeishuClient) GetTenantAccessToken(ctx context.Context) (string, error) {
	c.mu.RLock()
	if c.tokenCache != "" && time.Now().Before(c.tokenExpire) {
		token := c.tokenCache
		c.mu.RUnlock()
		return token, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.tokenCache != "" && time.Now().Before(c.tokenExpire) {
		return c.tokenCache, nil
	}

	body, _ := json.Marshal(map[string]string{
		"app_id":     c.appID,
		"app_secret": c.appSecret,
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/open-apis/auth/v3/tenant_access_token/internal", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request tenant token: %w", err)
	}
	defer resp.Body.Close()

	var result struct {
		Code              int    `json:"code"`
		Msg               string `json:"msg"`
		TenantAccessToken string `json:"tenant_access_token"`
		Expire            int    `json:"expire"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}
	if result.Code != 0 {
		return "", fmt.Errorf("feishu token error [%d]: %s", result.Code, result.Msg)
	}

	c.tokenCache = result.TenantAccessToken
	c.tokenExpire = time.Now().Add(time.Duration(result.Expire-60) * time.Second)
	return result.TenantAccessToken, nil
}

// doRequest 带 token 的 JSON 请求，非 0 业务码视为错误
func (c *FeishuClient) doRequest(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	token, err := c.GetTenantAccessToken(ctx)
	if err != nil {
		return err
	}

	var bodyReader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("feishu request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	var base BaseResponse
	if err := json.Unmarshal(respBody, &base); err != nil {
		return fmt.Errorf("decode response (status %d): %w", resp.StatusCode, err)
	}
	if base.Code != 0 {
		return fmt.Errorf("feishu api error [%d]: %s (path=%s)", base.Code, base.Msg, path)
	}
	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("decode response body: %w", err)
		}
	}
	return nil
}
