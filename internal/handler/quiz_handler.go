package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/bookman/internal/model"
)

// QuizServiceInterface はクイズハンドラーが必要とするサービスインターフェース。
type QuizServiceInterface interface {
	GetByChapter(ctx context.Context, token string, chapterID int) (*model.Quiz, error)
	Create(ctx context.Context, token string, payload *model.QuizPayload) (*model.Quiz, error)
	Update(ctx context.Context, token string, id int, payload *model.QuizUpdatePayload) (*model.Quiz, error)
	Delete(ctx context.Context, token string, id int) error
	CreateQuestion(ctx context.Context, token string, quizID int, payload *model.QuestionPayload) (*model.Question, error)
	UpdateQuestion(ctx context.Context, token string, questionID int, payload *model.QuestionUpdatePayload) (*model.Question, error)
	DeleteQuestion(ctx context.Context, token string, questionID int) error
	CreateOption(ctx context.Context, token string, questionID int, payload *model.OptionPayload) (*model.Option, error)
	UpdateOption(ctx context.Context, token string, optionID int, payload *model.OptionUpdatePayload) (*model.Option, error)
	DeleteOption(ctx context.Context, token string, optionID int) error
}

// QuizHandler はクイズ・設問・選択肢管理のHTTPハンドラー。
type QuizHandler struct {
	service   QuizServiceInterface
	responder *errorResponder
}

// NewQuizHandler はQuizHandlerを生成する。
func NewQuizHandler(service QuizServiceInterface, responder *errorResponder) *QuizHandler {
	return &QuizHandler{
		service:   service,
		responder: responder,
	}
}

// GetQuizByChapter は章に紐づくクイズを返す。クイズは章ごとに最大1つ。
// GET /api/quizzes/by-chapter/{chapterID}
func (h *QuizHandler) GetQuizByChapter(w http.ResponseWriter, r *http.Request) {
	token, ok := sessionToken(r)
	if !ok {
		writeMissingSessionResponse(w)
		return
	}

	chapterID, ok := idParam(r, "chapterID")
	if !ok {
		writeInvalidIDResponse(w, "chapterID")
		return
	}

	quiz, err := h.service.GetByChapter(r.Context(), token, chapterID)
	if err != nil {
		h.responder.respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, quiz)
}

// CreateQuiz はクイズを作成する。
// POST /api/quizzes
func (h *QuizHandler) CreateQuiz(w http.ResponseWriter, r *http.Request) {
	token, ok := sessionToken(r)
	if !ok {
		writeMissingSessionResponse(w)
		return
	}

	var payload model.QuizPayload
	if !decodeBody(w, r, &payload) {
		return
	}

	quiz, err := h.service.Create(r.Context(), token, &payload)
	if err != nil {
		h.responder.respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, quiz)
}

// UpdateQuiz はクイズを更新する。
// PUT /api/quizzes/{id}
func (h *QuizHandler) UpdateQuiz(w http.ResponseWriter, r *http.Request) {
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

	var payload model.QuizUpdatePayload
	if !decodeBody(w, r, &payload) {
		return
	}

	quiz, err := h.service.Update(r.Context(), token, id, &payload)
	if err != nil {
		h.responder.respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, quiz)
}

// DeleteQuiz はクイズを削除する。配下の設問・選択肢も削除される。
// DELETE /api/quizzes/{id}
func (h *QuizHandler) DeleteQuiz(w http.ResponseWriter, r *http.Request) {
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

// CreateQuestion はクイズに設問を追加する。
// POST /api/quizzes/{id}/questions
func (h *QuizHandler) CreateQuestion(w http.ResponseWriter, r *http.Request) {
	token, ok := sessionToken(r)
	if !ok {
		writeMissingSessionResponse(w)
		return
	}

	quizID, ok := idParam(r, "id")
	if !ok {
		writeInvalidIDResponse(w, "id")
		return
	}

	var payload model.QuestionPayload
	if !decodeBody(w, r, &payload) {
		return
	}

	question, err := h.service.CreateQuestion(r.Context(), token, quizID, &payload)
	if err != nil {
		h.responder.respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, question)
}

// UpdateQuestion は設問を更新する。
// PUT /api/quizzes/questions/{id}
func (h *QuizHandler) UpdateQuestion(w http.ResponseWriter, r *http.Request) {
	token, ok := sessionToken(r)
	if !ok {
		writeMissingSessionResponse(w)
		return
	}

	questionID, ok := idParam(r, "id")
	if !ok {
		writeInvalidIDResponse(w, "id")
		return
	}

	var payload model.QuestionUpdatePayload
	if !decodeBody(w, r, &payload) {
		return
	}

	question, err := h.service.UpdateQuestion(r.Context(), token, questionID, &payload)
	if err != nil {
		h.responder.respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, question)
}

// DeleteQuestion は設問を削除する。
// DELETE /api/quizzes/questions/{id}
func (h *QuizHandler) DeleteQuestion(w http.ResponseWriter, r *http.Request) {
	token, ok := sessionToken(r)
	if !ok {
		writeMissingSessionResponse(w)
		return
	}

	questionID, ok := idParam(r, "id")
	if !ok {
		writeInvalidIDResponse(w, "id")
		return
	}

	if err := h.service.DeleteQuestion(r.Context(), token, questionID); err != nil {
		h.responder.respondError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// CreateOption は設問に選択肢を追加する。
// POST /api/quizzes/questions/{id}/options
func (h *QuizHandler) CreateOption(w http.ResponseWriter, r *http.Request) {
	token, ok := sessionToken(r)
	if !ok {
		writeMissingSessionResponse(w)
		return
	}

	questionID, ok := idParam(r, "id")
	if !ok {
		writeInvalidIDResponse(w, "id")
		return
	}

	var payload model.OptionPayload
	if !decodeBody(w, r, &payload) {
		return
	}

	option, err := h.service.CreateOption(r.Context(), token, questionID, &payload)
	if err != nil {
		h.responder.respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, option)
}

// UpdateOption は選択肢を更新する。
// PUT /api/quizzes/options/{id}
func (h *QuizHandler) UpdateOption(w http.ResponseWriter, r *http.Request) {
	token, ok := sessionToken(r)
	if !ok {
		writeMissingSessionResponse(w)
		return
	}

	optionID, ok := idParam(r, "id")
	if !ok {
		writeInvalidIDResponse(w, "id")
		return
	}

	var payload model.OptionUpdatePayload
	if !decodeBody(w, r, &payload) {
		return
	}

	option, err := h.service.UpdateOption(r.Context(), token, optionID, &payload)
	if err != nil {
		h.responder.respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, option)
}

// DeleteOption は選択肢を削除する。
// DELETE /api/quizzes/options/{id}
func (h *QuizHandler) DeleteOption(w http.ResponseWriter, r *http.Request) {
	token, ok := sessionToken(r)
	if !ok {
		writeMissingSessionResponse(w)
		return
	}

	optionID, ok := idParam(r, "id")
	if !ok {
		writeInvalidIDResponse(w, "id")
		return
	}

	if err := h.service.DeleteOption(r.Context(), token, optionID); err != nil {
		h.responder.respondError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
