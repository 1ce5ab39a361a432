package mesclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind 错误分类
type ErrorKind string

const (
	KindNetwork ErrorKind = "network" // 未收到响应（超时、拒绝连接、DNS等不作区分）
	KindClient  ErrorKind = "client"  // 4xx
	KindServer  ErrorKind = "server"  // 5xx
	KindDecode  ErrorKind = "decode"  // 请求体无法序列化
)

const (
	networkMessage = "网络连接失败，请检查网络"
	serverMessage  = "服务器错误，请稍后重试"
)

// clientMessages 4xx 无 detail 时的兜底提示
var clientMessages = map[int]string{
	http.StatusBadRequest:          "请求参数错误",
	http.StatusUnauthorized:        "未授权，请重新登录",
	http.StatusForbidden:           "没有权限执行该操作",
	http.StatusNotFound:            "请求的资源不存在",
	http.StatusConflict:            "数据冲突，请刷新后重试",
	http.StatusUnprocessableEntity: "数据校验失败",
}

// APIError 网关返回的类型化错误
// Message 为可直接展示给用户的一条提示
type APIError struct {
	Kind       ErrorKind
	StatusCode int         // 无响应时为0
	Detail     interface{} // 后端 detail 字段原文（字符串或 [{msg}] 列表）
	Message    string
	Method     string
	Path       string
	Err        error
}

func (e *APIError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s %s: [%d] %s", e.Method, e.Path, e.StatusCode, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s %s: %s: %v", e.Method, e.Path, e.Message, e.Err)
	}
	return fmt.Sprintf("%s %s: %s", e.Method, e.Path, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// translate 将非2xx响应翻译为 APIError
// 4xx 优先取 detail（字符串或首个 msg），5xx 不解析 detail
func translate(status int, body []byte) *APIError {
	if status >= 500 {
		return &APIError{Kind: KindServer, StatusCode: status, Message: serverMessage}
	}

	apiErr := &APIError{Kind: KindClient, StatusCode: status}
	var payload struct {
		Detail interface{} `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Detail != nil {
		apiErr.Detail = payload.Detail
		apiErr.Message = detailMessage(payload.Detail)
	}
	if apiErr.Message == "" {
		apiErr.Message = clientMessage(status)
	}
	return apiErr
}

func clientMessage(status int) string {
	if msg, ok := clientMessages[status]; ok {
		return msg
	}
	return fmt.Sprintf("请求失败(状态码 %d)", status)
}

// detailMessage 提取 detail 中的可读消息
func detailMessage(detail interface{}) string {
	switch d := detail.(type) {
	case string:
		return d
	case []interface{}:
		if len(d) == 0 {
			return ""
		}
		if first, ok := d[0].(map[string]interface{}); ok {
			if msg, ok := first["msg"].(string); ok {
				return msg
			}
		}
	}
	return ""
}

// StatusCode 取错误中的HTTP状态码，非 APIError 或无响应时返回0
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

// Message 取可展示的错误提示
func Message(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return networkMessage
}

// IsNotFound 是否为404
func IsNotFound(err error) bool {
	return StatusCode(err) == http.StatusNotFound
}

// IsNetwork 是否为网络层失败
func IsNetwork(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Kind == KindNetwork
}
