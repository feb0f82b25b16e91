package tekmetric

import "fmt"

// ==========================================
// 错误类型: 区分鉴权失败与普通资源请求失败
// 鉴权失败对整个同步任务是致命的，资源请求失败可按场景降级
// ==========================================

// AuthenticationError 上游 OAuth 鉴权失败
type AuthenticationError struct {
	Status int
	Body   string
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("tekmetric 鉴权失败 [%d]: %s", e.Status, e.Body)
}

// RequestError 单次资源请求失败（非 2xx）
type RequestError struct {
	Status   int
	Endpoint string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("tekmetric API 请求失败 [%d]: %s", e.Status, e.Endpoint)
}
