package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/hitoshi/bookman/internal/model"
	"github.com/hitoshi/bookman/internal/security"
)

// --- モック定義 ---

type mockChapterBackend struct {
	listChaptersFn  func(ctx context.Context, token string, bookID int) ([]model.Chapter, error)
	getChapterFn    func(ctx context.Context, token string, id int) (*model.Chapter, error)
	createChapterFn func(ctx context.Context, token string, payload *model.ChapterPayload) (*model.Chapter, error)
	updateChapterFn func(ctx context.Context, token string, id int, payload *model.ChapterUpdatePayload) (*model.Chapter, error)
	deleteChapterFn func(ctx context.Context, token string, id int) error
}

func (m *mockChapterBackend) ListChapters(ctx context.Context, token string, bookID int) ([]model.Chapter, error) {
	if m.listChaptersFn != nil {
		return m.listChaptersFn(ctx, token, bookID)
	}
	return nil, errors.New("not implemented")
}

func (m *mockChapterBackend) GetChapter(ctx context.Context, token string, id int) (*model.Chapter, error) {
	if m.getChapterFn != nil {
		return m.getChapterFn(ctx, token, id)
	}
	return nil, errors.New("not implemented")
}

func (m *mockChapterBackend) CreateChapter(ctx context.Context, token string, payload *model.ChapterPayload) (*model.Chapter, error) {
	if m.createChapterFn != nil {
		return m.createChapterFn(ctx, token, payload)
	}
	return nil, errors.New("not implemented")
}

func (m *mockChapterBackend) UpdateChapter(ctx context.Context, token string, id int, payload *model.ChapterUpdatePayload) (*model.Chapter, error) {
	if m.updateChapterFn != nil {
		return m.updateChapterFn(ctx, token, id, payload)
	}
	return nil, errors.New("not implemented")
}

func (m *mockChapterBackend) DeleteChapter(ctx context.Context, token string, id int) error {
	if m.deleteChapterFn != nil {
		return m.deleteChapterFn(ctx, token, id)
	}
	return errors.New("not implemented")
}

func newChapterService(backend *mockChapterBackend) *ChapterService {
	return NewChapterService(backend, security.NewContentSanitizer())
}

// --- テスト ---

func TestChapterService_Create_SanitizesContent(t *testing.T) {
	var gotPayload *model.ChapterPayload
	backend := &mockChapterBackend{
		createChapterFn: func(ctx context.Context, token string, payload *model.ChapterPayload) (*model.Chapter, error) {
			gotPayload = payload
			return &model.Chapter{ID: 1, BookID: payload.BookID.Int(), Title: payload.Title}, nil
		},
	}
	svc := newChapterService(backend)

	_, err := svc.Create(context.Background(), "tok", &model.ChapterPayload{
		BookID:        model.FlexInt(3),
		ChapterNumber: model.FlexInt(1),
		Title:         "第一章",
		Content:       `<p>本文</p><script>alert('xss')</script>`,
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if gotPayload == nil {
		t.Fatal("backend should have been called")
	}
	if strings.Contains(gotPayload.Content, "<script") || strings.Contains(gotPayload.Content, "alert") {
		t.Errorf("content was not sanitized: %q", gotPayload.Content)
	}
	if !strings.Contains(gotPayload.Content, "<p>本文</p>") {
		t.Errorf("safe content was lost: %q", gotPayload.Content)
	}
}

// サニタイズの結果本文が空になった場合は検証エラーになること。
func TestChapterService_Create_ScriptOnlyContent_Rejected(t *testing.T) {
	backendCalled := false
	backend := &mockChapterBackend{
		createChapterFn: func(ctx context.Context, token string, payload *model.ChapterPayload) (*model.Chapter, error) {
			backendCalled = true
			return nil, nil
		},
	}
	svc := newChapterService(backend)

	_, err := svc.Create(context.Background(), "tok", &model.ChapterPayload{
		BookID:        model.FlexInt(3),
		ChapterNumber: model.FlexInt(1),
		Title:         "第一章",
		Content:       `<script>document.cookie</script>`,
	})

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeValidationFailed {
		t.Errorf("expected VALIDATION_FAILED, got %v", err)
	}
	if backendCalled {
		t.Error("backend must not be called when sanitized content is empty")
	}
}

// フォーム由来の文字列book_id（"3"）が数値として扱われること。
func TestChapterService_Create_CoercesStringBookID(t *testing.T) {
	var gotPayload *model.ChapterPayload
	backend := &mockChapterBackend{
		createChapterFn: func(ctx context.Context, token string, payload *model.ChapterPayload) (*model.Chapter, error) {
			gotPayload = payload
			return &model.Chapter{ID: 1, BookID: payload.BookID.Int()}, nil
		},
	}
	svc := newChapterService(backend)

	var payload model.ChapterPayload
	if err := json.Unmarshal([]byte(`{"book_id":"3","chapter_number":"1","title":"ch","content":"<p>x</p>"}`), &payload); err != nil {
		t.Fatalf("failed to unmarshal payload: %v", err)
	}

	if _, err := svc.Create(context.Background(), "tok", &payload); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if gotPayload.BookID.Int() != 3 {
		t.Errorf("BookID = %d, want 3", gotPayload.BookID.Int())
	}
}

func TestChapterService_Create_InvalidChapterNumber_Rejected(t *testing.T) {
	svc := newChapterService(&mockChapterBackend{})

	_, err := svc.Create(context.Background(), "tok", &model.ChapterPayload{
		BookID:        model.FlexInt(3),
		ChapterNumber: model.FlexInt(0),
		Title:         "ch",
		Content:       "<p>x</p>",
	})

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeValidationFailed {
		t.Errorf("expected VALIDATION_FAILED, got %v", err)
	}
}

func TestChapterService_Update_SanitizesContent(t *testing.T) {
	var gotPayload *model.ChapterUpdatePayload
	backend := &mockChapterBackend{
		updateChapterFn: func(ctx context.Context, token string, id int, payload *model.ChapterUpdatePayload) (*model.Chapter, error) {
			gotPayload = payload
			return &model.Chapter{ID: id}, nil
		},
	}
	svc := newChapterService(backend)

	content := `<p>更新された本文</p><iframe src="https://evil.com"></iframe>`
	_, err := svc.Update(context.Background(), "tok", 5, &model.ChapterUpdatePayload{Content: &content})
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}

	if gotPayload == nil || gotPayload.Content == nil {
		t.Fatal("backend should have received the content")
	}
	if strings.Contains(*gotPayload.Content, "iframe") {
		t.Errorf("content was not sanitized: %q", *gotPayload.Content)
	}
}

func TestChapterService_Update_NoContent_SkipsSanitizer(t *testing.T) {
	backend := &mockChapterBackend{
		updateChapterFn: func(ctx context.Context, token string, id int, payload *model.ChapterUpdatePayload) (*model.Chapter, error) {
			if payload.Content != nil {
				t.Error("content should remain nil when not specified")
			}
			return &model.Chapter{ID: id}, nil
		},
	}
	svc := newChapterService(backend)

	title := "新しいタイトル"
	if _, err := svc.Update(context.Background(), "tok", 5, &model.ChapterUpdatePayload{Title: &title}); err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
}

func TestChapterService_List_PassesBookID(t *testing.T) {
	var gotBookID int
	backend := &mockChapterBackend{
		listChaptersFn: func(ctx context.Context, token string, bookID int) ([]model.Chapter, error) {
			gotBookID = bookID
			return []model.Chapter{{ID: 1, BookID: bookID}}, nil
		},
	}
	svc := newChapterService(backend)

	chapters, err := svc.List(context.Background(), "tok", 3)
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if gotBookID != 3 {
		t.Errorf("bookID = %d, want 3", gotBookID)
	}
	if len(chapters) != 1 {
		t.Errorf("len(chapters) = %d, want 1", len(chapters))
	}
}
