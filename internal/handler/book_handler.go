package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/bookman/internal/model"
)

// BookServiceInterface は書籍ハンドラーが必要とするサービスインターフェース。
type BookServiceInterface interface {
	List(ctx context.Context, token string) ([]model.Book, error)
	Get(ctx context.Context, token string, id int) (*model.Book, error)
	Create(ctx context.Context, token string, payload *model.BookPayload) (*model.Book, error)
	Update(ctx context.Context, token string, id int, payload *model.BookUpdatePayload) (*model.Book, error)
	Delete(ctx context.Context, token string, id int) error
}

// BookHandler は書籍管理のHTTPハンドラー。
type BookHandler struct {
	service   BookServiceInterface
	responder *errorResponder
}

// NewBookHandler はBookHandlerを生成する。
func NewBookHandler(service BookServiceInterface, responder *errorResponder) *BookHandler {
	return &BookHandler{
		service:   service,
		responder: responder,
	}
}

// ListBooks は書籍一覧を返す。
// GET /api/books
func (h *BookHandler) ListBooks(w http.ResponseWriter, r *http.Request) {
	token, ok := sessionToken(r)
	if !ok {
		writeMissingSessionResponse(w)
		return
	}

	books, err := h.service.List(r.Context(), token)
	if err != nil {
		h.responder.respondError(w, r, err)
		return
	}
	if books == nil {
		books = []model.Book{}
	}

	writeJSON(w, http.StatusOK, books)
}

// GetBook は指定IDの書籍を返す。
// GET /api/books/{id}
func (h *BookHandler) GetBook(w http.ResponseWriter, r *http.Request) {
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

	book, err := h.service.Get(r.Context(), token, id)
	if err != nil {
		h.responder.respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, book)
}

// CreateBook は書籍を作成する。
// POST /api/books
func (h *BookHandler) CreateBook(w http.ResponseWriter, r *http.Request) {
	token, ok := sessionToken(r)
	if !ok {
		writeMissingSessionResponse(w)
		return
	}

	var payload model.BookPayload
	if !decodeBody(w, r, &payload) {
		return
	}

	book, err := h.service.Create(r.Context(), token, &payload)
	if err != nil {
		h.responder.respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, book)
}

// UpdateBook は書籍を更新する。
// PUT /api/books/{id}
func (h *BookHandler) UpdateBook(w http.ResponseWriter, r *http.Request) {
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

	var payload model.BookUpdatePayload
	if !decodeBody(w, r, &payload) {
		return
	}

	book, err := h.service.Update(r.Context(), token, id, &payload)
	if err != nil {
		h.responder.respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, book)
}

// DeleteBook は書籍を削除する。
// DELETE /api/books/{id}
func (h *BookHandler) DeleteBook(w http.ResponseWriter, r *http.Request) {
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
