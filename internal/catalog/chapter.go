package catalog

import (
	"context"

	"github.com/hitoshi/bookman/internal/model"
	"github.com/hitoshi/bookman/internal/security"
)

// ChapterBackend は章操作に必要なバックエンドAPIのインターフェース。
type ChapterBackend interface {
	ListChapters(ctx context.Context, token string, bookID int) ([]model.Chapter, error)
	GetChapter(ctx context.Context, token string, id int) (*model.Chapter, error)
	CreateChapter(ctx context.Context, token string, payload *model.ChapterPayload) (*model.Chapter, error)
	UpdateChapter(ctx context.Context, token string, id int, payload *model.ChapterUpdatePayload) (*model.Chapter, error)
	DeleteChapter(ctx context.Context, token string, id int) error
}

// ChapterService は章の管理操作を提供する。
// 本文HTMLはバックエンドへ転送する前にサニタイズする。
type ChapterService struct {
	backend   ChapterBackend
	sanitizer security.ContentSanitizerService
}

// NewChapterService はChapterServiceを生成する。
func NewChapterService(backend ChapterBackend, sanitizer security.ContentSanitizerService) *ChapterService {
	return &ChapterService{
		backend:   backend,
		sanitizer: sanitizer,
	}
}

// List は章一覧を取得する。bookIDが正の場合はその書籍の章に絞り込む。
func (s *ChapterService) List(ctx context.Context, token string, bookID int) ([]model.Chapter, error) {
	return s.backend.ListChapters(ctx, token, bookID)
}

// Get は指定IDの章を取得する。
func (s *ChapterService) Get(ctx context.Context, token string, id int) (*model.Chapter, error) {
	return s.backend.GetChapter(ctx, token, id)
}

// Create は章を作成する。本文はサニタイズしてから転送する。
// サニタイズで本文が空になった場合は検証エラーになる。
func (s *ChapterService) Create(ctx context.Context, token string, payload *model.ChapterPayload) (*model.Chapter, error) {
	payload.Content = s.sanitizer.Sanitize(payload.Content)
	if err := payload.Validate(); err != nil {
		return nil, err
	}
	return s.backend.CreateChapter(ctx, token, payload)
}

// Update は章を更新する。本文が指定されている場合はサニタイズしてから転送する。
func (s *ChapterService) Update(ctx context.Context, token string, id int, payload *model.ChapterUpdatePayload) (*model.Chapter, error) {
	if payload.Content != nil {
		sanitized := s.sanitizer.Sanitize(*payload.Content)
		payload.Content = &sanitized
	}
	if err := payload.Validate(); err != nil {
		return nil, err
	}
	return s.backend.UpdateChapter(ctx, token, id, payload)
}

// Delete は章を削除する。
func (s *ChapterService) Delete(ctx context.Context, token string, id int) error {
	return s.backend.DeleteChapter(ctx, token, id)
}
