package service

import (
	"context"
	"errors"
	"log"
	"time"

	"tekdash_v1_202608/internal/metrics"
	"tekdash_v1_202608/internal/model"
	"tekdash_v1_202608/internal/repository"
	"tekdash_v1_202608/pkg/tekmetric"

	"gorm.io/gorm"
)

// tokenTTL 上游未在响应中给出精确过期时间语义，统一按 1 小时处理
const tokenTTL = time.Hour

// TokenService 共享 Token 的读取与轮换
// 每次读取/刷新都会落一条审计日志
type TokenService struct {
	TokenRepo repository.TokenRepository
	Client    *tekmetric.Client
	Metrics   *metrics.Metrics
}

// NewTokenService 创建 Token 服务
func NewTokenService(tokenRepo repository.TokenRepository, client *tekmetric.Client, m *metrics.Metrics) *TokenService {
	return &TokenService{
		TokenRepo: tokenRepo,
		Client:    client,
		Metrics:   m,
	}
}

// GetValidToken 返回一个可用的 Bearer Token
// 库中 Token 未过期且未被标记轮换时直接复用（计数 +1，审计 accessed）；
// 否则向上游换取新 Token，过期时间 = now + 1h，计数归零（审计 refreshed）。
// 鉴权失败时落一条 success=false 的审计并原样返回 *tekmetric.AuthenticationError
func (s *TokenService) GetValidToken(ctx context.Context, accessedBy string) (string, error) {
	now := time.Now()

	cached, err := s.TokenRepo.Get(ctx)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", err
	}

	if cached != nil && cached.Usable(now) {
		log.Printf("[Token] 复用缓存 Token (访问方: %s)", accessedBy)
		if err := s.TokenRepo.TouchAccess(ctx, accessedBy); err != nil {
			log.Printf("[Token] 访问计数更新失败: %v", err)
		}
		s.audit(ctx, accessedBy, model.TokenActionAccessed, true, "")
		return cached.AccessToken, nil
	}

	log.Printf("[Token] 正在换取新 Token (访问方: %s)...", accessedBy)

	resp, err := s.Client.Authenticate(ctx)
	if err != nil {
		s.audit(ctx, accessedBy, model.TokenActionError, false, err.Error())
		return "", err
	}

	var expectedVersion int64
	if cached != nil {
		expectedVersion = cached.Version
	}

	fresh := &model.TekmetricToken{
		AccessToken:    resp.AccessToken,
		ExpiresAt:      now.Add(tokenTTL),
		LastAccessedAt: &now,
		LastAccessedBy: accessedBy,
		AccessCount:    0,
		MaxAccessCount: model.DefaultMaxAccessCount,
	}

	if err := s.TokenRepo.Replace(ctx, fresh, expectedVersion); err != nil {
		if errors.Is(err, repository.ErrTokenConflict) {
			// 并发刷新输了：复用赢家刚写入的 Token
			winner, gerr := s.TokenRepo.Get(ctx)
			if gerr != nil {
				return "", gerr
			}
			log.Printf("[Token] 并发刷新冲突，复用对方写入的 Token")
			s.audit(ctx, accessedBy, model.TokenActionAccessed, true, "")
			return winner.AccessToken, nil
		}
		return "", err
	}

	s.audit(ctx, accessedBy, model.TokenActionRefreshed, true, "")
	return resp.AccessToken, nil
}

// audit 追加审计日志，失败只记日志不影响主流程
func (s *TokenService) audit(ctx context.Context, accessedBy, action string, success bool, errMsg string) {
	entry := &model.TokenAuditLog{
		TokenID:      model.TokenSingletonID,
		AccessedBy:   accessedBy,
		Action:       action,
		Success:      success,
		ErrorMessage: errMsg,
	}
	if err := s.TokenRepo.AppendAudit(ctx, entry); err != nil {
		log.Printf("[Token] 审计日志写入失败: %v", err)
	}
	if s.Metrics != nil {
		s.Metrics.TokenOps.WithLabelValues(action).Inc()
	}
}
