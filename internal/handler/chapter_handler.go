package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/hitoshi/bookman/internal/model"
)

// ChapterServiceInterface は章ハンドラーが必要とするサービスインターフェース。
type ChapterServiceInterface interface {
	List(ctx context.Context, token string, bookID int) ([]model.Chapter, error)
	Get(ctx context.Context, token string, id int) (*model.Chapter, error)
	Create(ctx context.Context, token string, payload *model.ChapterPayload) (*model.Chapter, error)
	Update(ctx context.Context, token string, id int, payload *model.ChapterUpdatePayload) (*model.Chapter, error)
	Delete(ctx context.Context, token string, id int) error
}

// ChapterHandler は章管理のHTTPハンドラー。
type ChapterHandler struct {
	service   ChapterServiceInterface
	responder *errorResponder
}

// NewChapterHandler はChapterHandlerを生成する。
func NewChapterHandler(service ChapterServiceInterface, responder *errorResponder) *ChapterHandler {
	return &ChapterHandler{
		service:   service,
		responder: responder,
	}
}

// ListChapters は章一覧を返す。book_idクエリで書籍ごとに絞り込める。
// GET /api/chapters?book_id=3
func (h *ChapterHandler) ListChapters(w http.ResponseWriter, r *http.Request) {
	token, ok := sessionToken(r)
	if !ok {
		writeMissingSessionResponse(w)
		return
	}

	bookID := 0
	if raw := r.URL.Query().Get("book_id"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeInvalidIDResponse(w, "book_id")
			return
		}
		bookID = parsed
	}

	chapters, err := h.service.List(r.Context(), token, bookID)
	if err != nil {
		h.responder.respondError(w, r, err)
		return
	}
	if chapters == nil {
		chapters = []model.Chapter{}
	}

	writeJSON(w, http.StatusOK, chapters)
}

// GetChapter は指定IDの章を返す。
// GET /api/chapters/{id}
func (h *ChapterHandler) GetChapter(w http.ResponseWriter, r *http.Request) {
	token, ok := sessionToken(r)
	if !ok {
		writeMissingSessionResponse(w)
		return
	}

	id, ok := idParam(r, "id")
	if !ok {
		writeInvalidIDResponse(w, "id")
		return
	}

	chapter, err := h.service.Get(r.Context(), token, id)
	if err != nil {
		h.responder.respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, chapter)
}

// CreateChapter は章を作成する。本文はサービス層でサニタイズされる。
// POST /api/chapters
func (h *ChapterHandler) CreateChapter(w http.ResponseWriter, r *http.Request) {
	token, ok := sessionToken(r)
	if !ok {
		writeMissingSessionResponse(w)
		return
	}

	var payload model.ChapterPayload
	if !decodeBody(w, r, &payload) {
		return
	}

	chapter, err := h.service.Create(r.Context(), token, &payload)
	if err != nil {
		h.responder.respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, chapter)
}

// UpdateChapter は章を更新する。
// PUT /api/chapters/{id}
func (h *ChapterHandler) UpdateChapter(w http.ResponseWriter, r *http.Request) {
	token, ok := sessionToken(r)
	if !ok {
		writeMissingSessionResponse(w)
		return
	}

	id, ok := idParam(r, "id")
	if !ok {
		writeInvalidIDResponse(w, "id")
		return
	}

	var payload model.ChapterUpdatePayload
	if !decodeBody(w, r, &payload) {
		return
	}

	chapter, err := h.service.Update(r.Context(), token, id, &payload)
	if err != nil {
		h.responder.respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, chapter)
}

// DeleteChapter は章を削除する。
// DELETE /api/chapters/{id}
func (h *ChapterHandler) DeleteChapter(w http.ResponseWriter, r *http.Request) {
	token, ok := sessionToken(r)
	if !ok {
		writeMissingSessionResponse(w)
		return
	}

	id, ok := idParam(r, "id")
	if !ok {
		writeInvalidIDResponse(w, "id")
		return
	}

	if err := h.service.Delete(r.Context(), token, id); err != nil {
		h.responder.respondError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
