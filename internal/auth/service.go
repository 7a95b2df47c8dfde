// Package auth はログインハンドシェイクとセッションのライフサイクルを提供する。
//
// セッションは NoToken → Authenticating → TokenPresent の状態を遷移する。
// Authenticating はトークン永続化からプロフィール解決までの区間で、
// この間もガードはトークンの有無だけで通過を判定する。
// ログアウトはどの状態からでも NoToken に戻し、処理中のログインの
// プロフィール解決結果は到着時に破棄される（UpdateProfileの行数判定）。
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/bookman/internal/model"
	"github.com/hitoshi/bookman/internal/repository"
)

// TokenExchanger は認証に必要なバックエンドAPIのインターフェース。
// upstream.Clientの部分集合として定義する。
type TokenExchanger interface {
	// Login は認証情報を不透明なbearerトークンに交換する。
	Login(ctx context.Context, identifier, secret string) (string, error)
	// Me はトークンに紐づく管理者プロフィールを取得する。
	Me(ctx context.Context, token string) (*model.AdminUser, error)
}

// MetricsRecorder はログイン結果のメトリクス記録インターフェース。
type MetricsRecorder interface {
	RecordLoginSuccess()
	RecordLoginFailure()
}

// ServiceConfig は認証サービスの設定。
type ServiceConfig struct {
	SessionMaxAge int // セッション有効期間（秒）
}

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	backend     TokenExchanger
	sessionRepo repository.SessionRepository
	metrics     MetricsRecorder // nil可
	config      ServiceConfig
}

// NewService はServiceを生成する。
func NewService(backend TokenExchanger, sessionRepo repository.SessionRepository, metrics MetricsRecorder, config ServiceConfig) *Service {
	return &Service{
		backend:     backend,
		sessionRepo: sessionRepo,
		metrics:     metrics,
		config:      config,
	}
}

// Login は認証情報をトークンに交換し、セッションを発行する。
//
// トークンはプロフィール取得より先に永続化される。このため、並行する
// セッション読み取りはプロフィール解決前でも新しいトークンを観測できる。
// プロフィール取得が失敗した場合はセッションを削除して失敗を返す。
// プロフィール取得中にログアウトが割り込んだ場合、結果は破棄され
// ErrLoginSupersededを返す（セッションは復活しない）。
func (s *Service) Login(ctx context.Context, identifier, secret string) (*model.Session, error) {
	// 1. 認証情報をトークンに交換
	token, err := s.backend.Login(ctx, identifier, secret)
	if err != nil {
		s.recordFailure()
		return nil, fmt.Errorf("credential exchange failed: %w", err)
	}

	// 2. トークンを永続化（プロフィール未解決のAuthenticating状態）
	sessionID, err := generateSessionID()
	if err != nil {
		s.recordFailure()
		return nil, fmt.Errorf("failed to generate session ID: %w", err)
	}

	session := &model.Session{
		ID:        sessionID,
		Token:     token,
		ExpiresAt: time.Now().Add(time.Duration(s.config.SessionMaxAge) * time.Second),
		CreatedAt: time.Now(),
	}
	if err := s.sessionRepo.Create(ctx, session); err != nil {
		s.recordFailure()
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	// 3. プロフィールを取得
	user, err := s.backend.Me(ctx, token)
	if err != nil {
		// トークンだけのセッションを残さない
		if delErr := s.sessionRepo.DeleteByID(ctx, sessionID); delErr != nil {
			slog.Error("failed to delete session after profile fetch failure",
				slog.String("session_id", sessionID),
				slog.String("error", delErr.Error()),
			)
		}
		s.recordFailure()
		return nil, fmt.Errorf("profile fetch failed: %w", err)
	}

	// 4. プロフィールを書き込む。行が消えていればログアウトが先行しており、
	//    このログインの結果は破棄する。
	updated, err := s.sessionRepo.UpdateProfile(ctx, sessionID, user)
	if err != nil {
		s.recordFailure()
		return nil, fmt.Errorf("failed to store profile: %w", err)
	}
	if !updated {
		slog.Info("login superseded by logout, discarding profile result",
			slog.String("session_id", sessionID),
		)
		s.recordFailure()
		return nil, model.ErrLoginSuperseded
	}

	session.User = user
	s.recordSuccess()
	slog.Info("admin logged in",
		slog.Int("user_id", user.ID),
		slog.String("username", user.Username),
	)
	return session, nil
}

// Logout はセッションを破棄する。冪等で、存在しないセッションIDや
// 空のセッションIDでもエラーにならない。バックエンドへの呼び出しは行わない。
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}

	if err := s.sessionRepo.DeleteByID(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	slog.Info("admin logged out", slog.String("session_id", sessionID))
	return nil
}

// CurrentUser はセッションから現在の管理者プロフィールを取得する。
// セッションが存在しない場合は未認証、トークンはあるがプロフィール未解決の
// 場合はErrProfilePendingを返す。
func (s *Service) CurrentUser(ctx context.Context, sessionID string) (*model.AdminUser, error) {
	if sessionID == "" {
		return nil, model.NewUnauthorizedError()
	}

	session, err := s.sessionRepo.FindByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to find session: %w", err)
	}
	if session == nil {
		return nil, model.NewUnauthorizedError()
	}
	if !session.ProfileResolved() {
		return nil, model.ErrProfilePending
	}

	return session.User, nil
}

func (s *Service) recordSuccess() {
	if s.metrics != nil {
		s.metrics.RecordLoginSuccess()
	}
}

func (s *Service) recordFailure() {
	if s.metrics != nil {
		s.metrics.RecordLoginFailure()
	}
}

// generateSessionID は暗号的に安全なセッションIDを生成する。
func generateSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
