// Package catalog は書籍・章・クイズの管理操作を提供する。
// 各サービスは入力を検証・整形したうえでバックエンドAPIへ委譲する。
package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/hitoshi/bookman/internal/model"
	"github.com/hitoshi/bookman/internal/security"
)

// BookBackend は書籍操作に必要なバックエンドAPIのインターフェース。
// upstream.Clientの部分集合として定義する。
type BookBackend interface {
	ListBooks(ctx context.Context, token string) ([]model.Book, error)
	GetBook(ctx context.Context, token string, id int) (*model.Book, error)
	CreateBook(ctx context.Context, token string, payload *model.BookPayload) (*model.Book, error)
	UpdateBook(ctx context.Context, token string, id int, payload *model.BookUpdatePayload) (*model.Book, error)
	DeleteBook(ctx context.Context, token string, id int) error
}

// BookServiceConfig は書籍サービスの設定。
type BookServiceConfig struct {
	CoverProbeEnabled bool          // 表紙画像URLの到達性プローブを行うか
	CoverProbeTimeout time.Duration // プローブのタイムアウト
}

// BookService は書籍の管理操作を提供する。
// 表紙画像URLはSSRFガードで検証し、到達性プローブはSSRF防止付き
// クライアントで行う。プローブの失敗は保存を妨げない（警告ログのみ）。
type BookService struct {
	backend     BookBackend
	guard       security.ImageURLGuardService
	probeClient *http.Client // CoverProbeEnabled=falseの場合nil
	config      BookServiceConfig
}

// NewBookService はBookServiceを生成する。
func NewBookService(backend BookBackend, guard security.ImageURLGuardService, config BookServiceConfig) *BookService {
	s := &BookService{
		backend: backend,
		guard:   guard,
		config:  config,
	}
	if config.CoverProbeEnabled && guard != nil {
		s.probeClient = guard.NewProbeClient(config.CoverProbeTimeout)
	}
	return s
}

// List は書籍一覧を取得する。
func (s *BookService) List(ctx context.Context, token string) ([]model.Book, error) {
	return s.backend.ListBooks(ctx, token)
}

// Get は指定IDの書籍を取得する。
func (s *BookService) Get(ctx context.Context, token string, id int) (*model.Book, error) {
	return s.backend.GetBook(ctx, token, id)
}

// Create は書籍を作成する。
// 表紙画像URLが指定されている場合はSSRFガードで検証し、
// 危険なURLはバックエンドへ転送せずに拒否する。
func (s *BookService) Create(ctx context.Context, token string, payload *model.BookPayload) (*model.Book, error) {
	if err := payload.Validate(); err != nil {
		return nil, err
	}

	if payload.CoverImageURL != "" {
		if err := s.checkCoverURL(ctx, payload.CoverImageURL); err != nil {
			return nil, err
		}
	}

	return s.backend.CreateBook(ctx, token, payload)
}

// Update は書籍を更新する。
func (s *BookService) Update(ctx context.Context, token string, id int, payload *model.BookUpdatePayload) (*model.Book, error) {
	if err := payload.Validate(); err != nil {
		return nil, err
	}

	if payload.CoverImageURL != nil && *payload.CoverImageURL != "" {
		if err := s.checkCoverURL(ctx, *payload.CoverImageURL); err != nil {
			return nil, err
		}
	}

	return s.backend.UpdateBook(ctx, token, id, payload)
}

// Delete は書籍を削除する。
func (s *BookService) Delete(ctx context.Context, token string, id int) error {
	return s.backend.DeleteBook(ctx, token, id)
}

// checkCoverURL は表紙画像URLを検証し、有効ならば到達性をプローブする。
// SSRFガードによる拒否は保存を中断するが、プローブ失敗は警告ログのみで
// 保存は続行する（画像ホストの一時障害で管理操作を止めないため）。
func (s *BookService) checkCoverURL(ctx context.Context, rawURL string) error {
	if s.guard == nil {
		return nil
	}

	if err := s.guard.ValidateURL(rawURL); err != nil {
		slog.Warn("cover image URL rejected",
			slog.String("url", rawURL),
			slog.String("error", err.Error()),
		)
		return model.NewUnsafeImageURLError(err.Error())
	}

	if s.probeClient != nil {
		s.probeCoverURL(ctx, rawURL)
	}

	return nil
}

// probeCoverURL は表紙画像URLへHEADリクエストを送り、到達性を確認する。
func (s *BookService) probeCoverURL(ctx context.Context, rawURL string) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		slog.Warn("cover image probe skipped",
			slog.String("url", rawURL),
			slog.String("error", err.Error()),
		)
		return
	}

	resp, err := s.probeClient.Do(req)
	if err != nil {
		slog.Warn("cover image unreachable",
			slog.String("url", rawURL),
			slog.String("error", err.Error()),
		)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		slog.Warn("cover image probe returned error status",
			slog.String("url", rawURL),
			slog.String("status", fmt.Sprintf("%d", resp.StatusCode)),
		)
		return
	}

	if ct := resp.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, "image/") {
		slog.Warn("cover image URL does not serve an image",
			slog.String("url", rawURL),
			slog.String("content_type", ct),
		)
	}
}
