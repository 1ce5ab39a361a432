package testutil

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/bitfantasy/nimo-mes/internal/middleware"
)

const (
	JWTSecret = "nimo-mes-jwt-secret-key-2024"
	APIPrefix = "/api/v1"
)

// loadEnv 读取模块根目录下的 .env（如 MES_TEST_LOG），不存在时忽略
func loadEnv() {
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		return
	}
	for dir := filepath.Dir(file); ; dir = filepath.Dir(dir) {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			_ = godotenv.Load(filepath.Join(dir, ".env"))
			return
		}
		if filepath.Dir(dir) == dir {
			return
		}
	}
}

// SetupRouter 测试用 gin 路由：gzip 压缩、请求ID、访问日志
func SetupRouter(logger *zap.Logger) *gin.Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	gin.SetMode(gin.TestMode)
	r := gin.New()
	// 按原始路径匹配，使 %2F 等转义字符留在路径参数内
	r.UseRawPath = true
	r.UnescapePathValues = true
	r.Use(gin.Recovery())
	r.Use(gzip.Gzip(gzip.DefaultCompression))
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	return r
}

// AuthGroup 需要 Bearer 令牌的路由组
func AuthGroup(r *gin.Engine, path string) *gin.RouterGroup {
	return r.Group(path, middleware.JWTAuth(JWTSecret))
}

// GenerateTestToken 签发测试令牌，有效期 24 小时
func GenerateTestToken(operator, name string, roles []string) string {
	now := time.Now()
	claims := middleware.Claims{
		Operator: operator,
		Name:     name,
		Roles:    roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   operator,
			Issuer:    "nimo-mes",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(24 * time.Hour)),
			ID:        uuid.NewString(),
		},
	}

	signed, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(JWTSecret))
	return signed
}

// DefaultTestToken 默认管理员操作员令牌
func DefaultTestToken() string {
	return GenerateTestToken("op-001", "Test Operator", []string{middleware.AdminRole})
}

// DoRequest 对路由发起一次 JSON 请求，token 为空时不带认证头
func DoRequest(r http.Handler, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	var payload []byte
	if body != nil {
		payload, _ = json.Marshal(body)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// ParseResponse 解析对象响应，失败时返回 nil
func ParseResponse(w *httptest.ResponseRecorder) map[string]interface{} {
	var out map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		return nil
	}
	return out
}

// ParseList 解析数组响应，失败时返回 nil
func ParseList(w *httptest.ResponseRecorder) []interface{} {
	var out []interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		return nil
	}
	return out
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}
