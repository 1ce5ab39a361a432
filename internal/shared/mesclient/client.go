package mesclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/bitfantasy/nimo-mes/internal/config"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// =============================================================================
// MES后端HTTP网关
// 负责超时、防缓存参数、请求ID、错误翻译，上层仓库只关心 payload
// =============================================================================

// cacheBustParam GET请求附加的防缓存参数名
const cacheBustParam = "_t"

// RequestOptions 单次请求的可选项
type RequestOptions struct {
	Params  url.Values        // 查询参数
	Body    interface{}       // 请求体（JSON序列化，nil则不发送）
	Headers map[string]string // 额外请求头
}

// Response 成功响应
type Response struct {
	StatusCode int
	Data       json.RawMessage // 后端返回的原始JSON，空body时为 null
}

// Client MES网关客户端，可并发使用
type Client struct {
	baseURL    string
	token      string
	cacheBust  bool
	httpClient *http.Client
	logger     *zap.Logger
	metrics    *Metrics
	tracer     trace.Tracer
	now        func() time.Time
}

// Option 客户端选项
type Option func(*Client)

// WithHTTPClient 替换底层 http.Client（测试时注入 httptest 客户端）
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithMetrics 挂载 prometheus 指标
func WithMetrics(m *Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithClock 替换时间源，用于固定防缓存参数
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// NewClient 创建MES网关客户端实例
func NewClient(cfg config.MESConfig, logger *zap.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = config.DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = config.DefaultTimeout
	}

	c := &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		token:     cfg.Token,
		cacheBust: cfg.CacheBust,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
		tracer: otel.Tracer("github.com/bitfantasy/nimo-mes/mesclient"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL 返回规范化后的后端地址
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Request 执行一次MES后端请求
// method: HTTP方法（GET/POST/PUT/DELETE）
// path: API路径（如 /materials/42），相对于 baseURL
// 2xx 返回 Response；其余情况返回 *APIError，消息已翻译为可展示文本
func (c *Client) Request(ctx context.Context, method, path string, opts RequestOptions) (*Response, error) {
	route := routeOf(path)
	ctx, span := c.tracer.Start(ctx, "mesclient.Request", trace.WithAttributes(
		attribute.String("http.method", method),
		attribute.String("http.route", route),
	))
	defer span.End()

	start := time.Now()
	resp, err := c.do(ctx, method, path, opts)
	elapsed := time.Since(start)

	code := 0
	if resp != nil {
		code = resp.StatusCode
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		code = apiErr.StatusCode
	}
	c.metrics.observe(method, route, code, elapsed)
	span.SetAttributes(attribute.Int("http.status_code", code))

	fields := []zap.Field{
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", code),
		zap.Duration("latency", elapsed),
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		switch {
		case apiErr != nil && apiErr.Kind == KindClient:
			c.logger.Warn("MES request rejected", append(fields, zap.String("message", apiErr.Message))...)
		default:
			c.logger.Error("MES request failed", append(fields, zap.Error(err))...)
		}
		return nil, err
	}

	c.logger.Debug("MES request", fields...)
	return resp, nil
}

func (c *Client) do(ctx context.Context, method, path string, opts RequestOptions) (*Response, error) {
	// 构造请求体
	var bodyReader io.Reader
	if opts.Body != nil {
		bodyBytes, err := json.Marshal(opts.Body)
		if err != nil {
			return nil, &APIError{Kind: KindDecode, Method: method, Path: path,
				Message: "请求数据格式错误", Err: fmt.Errorf("序列化请求体失败: %w", err)}
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.buildURL(method, path, opts.Params), bodyReader)
	if err != nil {
		return nil, &APIError{Kind: KindNetwork, Method: method, Path: path,
			Message: networkMessage, Err: fmt.Errorf("创建HTTP请求失败: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.New().String())
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	for k, v := range opts.Headers {
		req.Header.Set(k, v)
	}

	// 发起请求，超时/拒绝连接/DNS失败统一视为网络错误
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &APIError{Kind: KindNetwork, Method: method, Path: path,
			Message: networkMessage, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &APIError{Kind: KindNetwork, StatusCode: resp.StatusCode, Method: method, Path: path,
			Message: networkMessage, Err: fmt.Errorf("读取响应体失败: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := translate(resp.StatusCode, respBody)
		apiErr.Method = method
		apiErr.Path = path
		return nil, apiErr
	}

	data := json.RawMessage(bytes.TrimSpace(respBody))
	if len(data) == 0 {
		data = json.RawMessage("null")
	}
	return &Response{StatusCode: resp.StatusCode, Data: data}, nil
}

// buildURL 拼接完整URL，GET请求附加防缓存参数
func (c *Client) buildURL(method, path string, params url.Values) string {
	q := url.Values{}
	for k, vs := range params {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	if c.cacheBust && method == http.MethodGet {
		q.Set(cacheBustParam, strconv.FormatInt(c.now().UnixMilli(), 10))
	}

	u := c.baseURL + "/" + strings.TrimLeft(path, "/")
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	return u
}

// routeOf 将路径中的数字ID折叠为 :id，控制指标基数
func routeOf(path string) string {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	parts := strings.Split(strings.Trim(path, "/"), "/")
	for i, p := range parts {
		if p == "" {
			continue
		}
		if _, err := strconv.ParseInt(p, 10, 64); err == nil {
			parts[i] = ":id"
		}
	}
	return "/" + strings.Join(parts, "/")
}
