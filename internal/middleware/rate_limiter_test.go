package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func TestSyncRateLimiter_Check(t *testing.T) {
	limiter := &SyncRateLimiter{}

	first := limiter.Check("sync:test-a", time.Minute)
	if !first.Allowed {
		t.Fatal("首次触发应被允许")
	}

	second := limiter.Check("sync:test-a", time.Minute)
	if second.Allowed {
		t.Fatal("冷却期内的二次触发应被拒绝")
	}
	if second.RetryAfter <= 0 || second.RetryAfter > time.Minute {
		t.Errorf("RetryAfter = %v, 应在 (0, 1m] 区间", second.RetryAfter)
	}

	// 不同的键互不影响
	other := limiter.Check("sync:test-b", time.Minute)
	if !other.Allowed {
		t.Error("不同键的冷却应相互独立")
	}

	// 重置后恢复可用
	limiter.Reset("sync:test-a")
	reset := limiter.Check("sync:test-a", time.Minute)
	if !reset.Allowed {
		t.Error("Reset 后应允许再次触发")
	}
}

func TestSyncRateLimit_Middleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	defer GetLimiter().Reset("sync:mw-test")

	r := gin.New()
	r.POST("/sync", SyncRateLimit("mw-test", time.Minute), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true})
	})

	// 首次请求放行
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/sync", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("首次请求状态码 = %d, want 200", w.Code)
	}

	// 冷却期内返回 429 和剩余秒数
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/sync", nil))
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("冷却期内状态码 = %d, want 429", w.Code)
	}

	var body struct {
		Error      string `json:"error"`
		RetryAfter int    `json:"retry_after"`
		SyncType   string `json:"sync_type"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("响应解析失败: %v", err)
	}
	if body.SyncType != "mw-test" {
		t.Errorf("sync_type = %q, want mw-test", body.SyncType)
	}
	if body.RetryAfter <= 0 || body.RetryAfter > 60 {
		t.Errorf("retry_after = %d, 应在 (0, 60] 区间", body.RetryAfter)
	}
	if body.Error == "" {
		t.Error("应返回冷却提示信息")
	}
}

func TestFormatRetryMessage(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{30 * time.Second, "同步冷却中，请 30 秒后重试"},
		{2 * time.Minute, "同步冷却中，请 2 分钟后重试"},
		{90 * time.Second, "同步冷却中，请 1 分 30 秒后重试"},
	}
	for _, tt := range tests {
		if got := formatRetryMessage(tt.d); got != tt.want {
			t.Errorf("formatRetryMessage(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}
