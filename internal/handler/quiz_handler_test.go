package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/bookman/internal/model"
)

// mockQuizService は関数フィールドで挙動を差し替えられるクイズサービスモック。
type mockQuizService struct {
	getByChapterFn   func(ctx context.Context, token string, chapterID int) (*model.Quiz, error)
	createFn         func(ctx context.Context, token string, payload *model.QuizPayload) (*model.Quiz, error)
	updateFn         func(ctx context.Context, token string, id int, payload *model.QuizUpdatePayload) (*model.Quiz, error)
	deleteFn         func(ctx context.Context, token string, id int) error
	createQuestionFn func(ctx context.Context, token string, quizID int, payload *model.QuestionPayload) (*model.Question, error)
	updateQuestionFn func(ctx context.Context, token string, questionID int, payload *model.QuestionUpdatePayload) (*model.Question, error)
	deleteQuestionFn func(ctx context.Context, token string, questionID int) error
	createOptionFn   func(ctx context.Context, token string, questionID int, payload *model.OptionPayload) (*model.Option, error)
	updateOptionFn   func(ctx context.Context, token string, optionID int, payload *model.OptionUpdatePayload) (*model.Option, error)
	deleteOptionFn   func(ctx context.Context, token string, optionID int) error
}

func (m *mockQuizService) GetByChapter(ctx context.Context, token string, chapterID int) (*model.Quiz, error) {
	if m.getByChapterFn != nil {
		return m.getByChapterFn(ctx, token, chapterID)
	}
	return nil, nil
}

func (m *mockQuizService) Create(ctx context.Context, token string, payload *model.QuizPayload) (*model.Quiz, error) {
	if m.createFn != nil {
		return m.createFn(ctx, token, payload)
	}
	return nil, nil
}

func (m *mockQuizService) Update(ctx context.Context, token string, id int, payload *model.QuizUpdatePayload) (*model.Quiz, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, token, id, payload)
	}
	return nil, nil
}

func (m *mockQuizService) Delete(ctx context.Context, token string, id int) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, token, id)
	}
	return nil
}

func (m *mockQuizService) CreateQuestion(ctx context.Context, token string, quizID int, payload *model.QuestionPayload) (*model.Question, error) {
	if m.createQuestionFn != nil {
		return m.createQuestionFn(ctx, token, quizID, payload)
	}
	return nil, nil
}

func (m *mockQuizService) UpdateQuestion(ctx context.Context, token string, questionID int, payload *model.QuestionUpdatePayload) (*model.Question, error) {
	if m.updateQuestionFn != nil {
		return m.updateQuestionFn(ctx, token, questionID, payload)
	}
	return nil, nil
}

func (m *mockQuizService) DeleteQuestion(ctx context.Context, token string, questionID int) error {
	if m.deleteQuestionFn != nil {
		return m.deleteQuestionFn(ctx, token, questionID)
	}
	return nil
}

func (m *mockQuizService) CreateOption(ctx context.Context, token string, questionID int, payload *model.OptionPayload) (*model.Option, error) {
	if m.createOptionFn != nil {
		return m.createOptionFn(ctx, token, questionID, payload)
	}
	return nil, nil
}

func (m *mockQuizService) UpdateOption(ctx context.Context, token string, optionID int, payload *model.OptionUpdatePayload) (*model.Option, error) {
	if m.updateOptionFn != nil {
		return m.updateOptionFn(ctx, token, optionID, payload)
	}
	return nil, nil
}

func (m *mockQuizService) DeleteOption(ctx context.Context, token string, optionID int) error {
	if m.deleteOptionFn != nil {
		return m.deleteOptionFn(ctx, token, optionID)
	}
	return nil
}

func quizRouter(h *QuizHandler) chi.Router {
	r := chi.NewRouter()
	r.Route("/api/quizzes", func(r chi.Router) {
		r.Post("/", h.CreateQuiz)
		r.Get("/by-chapter/{chapterID}", h.GetQuizByChapter)

		r.Route("/{id}", func(r chi.Router) {
			r.Put("/", h.UpdateQuiz)
			r.Delete("/", h.DeleteQuiz)
			r.Post("/questions", h.CreateQuestion)
		})

		r.Route("/questions/{id}", func(r chi.Router) {
			r.Put("/", h.UpdateQuestion)
			r.Delete("/", h.DeleteQuestion)
			r.Post("/options", h.CreateOption)
		})

		r.Route("/options/{id}", func(r chi.Router) {
			r.Put("/", h.UpdateOption)
			r.Delete("/", h.DeleteOption)
		})
	})
	return r
}

func TestGetQuizByChapter_ReturnsQuiz(t *testing.T) {
	service := &mockQuizService{
		getByChapterFn: func(ctx context.Context, token string, chapterID int) (*model.Quiz, error) {
			if chapterID != 4 {
				t.Errorf("chapterID = %d, want 4", chapterID)
			}
			return &model.Quiz{ID: 1, ChapterID: 4, Title: "第四章クイズ", Questions: []model.Question{}}, nil
		},
	}
	responder, _ := testResponder()
	r := quizRouter(NewQuizHandler(service, responder))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, authedRequest(http.MethodGet, "/api/quizzes/by-chapter/4", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var quiz model.Quiz
	if err := json.NewDecoder(w.Body).Decode(&quiz); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if quiz.ID != 1 || quiz.ChapterID != 4 {
		t.Errorf("unexpected quiz: %+v", quiz)
	}
}

func TestGetQuizByChapter_NotFound_Returns404(t *testing.T) {
	service := &mockQuizService{
		getByChapterFn: func(ctx context.Context, token string, chapterID int) (*model.Quiz, error) {
			return nil, model.NewNotFoundError("クイズ")
		},
	}
	responder, _ := testResponder()
	r := quizRouter(NewQuizHandler(service, responder))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, authedRequest(http.MethodGet, "/api/quizzes/by-chapter/9", nil))

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

func TestCreateQuiz_StringChapterID_Coerced(t *testing.T) {
	var got *model.QuizPayload
	service := &mockQuizService{
		createFn: func(ctx context.Context, token string, payload *model.QuizPayload) (*model.Quiz, error) {
			got = payload
			return &model.Quiz{ID: 1, ChapterID: payload.ChapterID.Int(), Title: payload.Title}, nil
		},
	}
	responder, _ := testResponder()
	r := quizRouter(NewQuizHandler(service, responder))

	body := strings.NewReader(`{"chapter_id":"4","title":"第四章クイズ"}`)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, authedRequest(http.MethodPost, "/api/quizzes", body))

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusCreated)
	}
	if got == nil || got.ChapterID.Int() != 4 {
		t.Errorf("unexpected payload: %+v", got)
	}
}

func TestCreateQuestion_InvalidType_Returns400(t *testing.T) {
	service := &mockQuizService{
		createQuestionFn: func(ctx context.Context, token string, quizID int, payload *model.QuestionPayload) (*model.Question, error) {
			return nil, model.NewInvalidQuestionTypeError("essay")
		},
	}
	responder, _ := testResponder()
	r := quizRouter(NewQuizHandler(service, responder))

	body := strings.NewReader(`{"type":"essay","text":"設問"}`)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, authedRequest(http.MethodPost, "/api/quizzes/1/questions", body))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}

	var respBody map[string]string
	if err := json.NewDecoder(w.Body).Decode(&respBody); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if respBody["code"] != model.ErrCodeInvalidQuestionType {
		t.Errorf("code = %q, want %q", respBody["code"], model.ErrCodeInvalidQuestionType)
	}
}

func TestCreateQuestion_Success_Returns201(t *testing.T) {
	var gotQuizID int
	service := &mockQuizService{
		createQuestionFn: func(ctx context.Context, token string, quizID int, payload *model.QuestionPayload) (*model.Question, error) {
			gotQuizID = quizID
			return &model.Question{ID: 10, Type: payload.Type, Text: payload.Text}, nil
		},
	}
	responder, _ := testResponder()
	r := quizRouter(NewQuizHandler(service, responder))

	body := strings.NewReader(`{"type":"single_choice","text":"主人公は誰か"}`)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, authedRequest(http.MethodPost, "/api/quizzes/2/questions", body))

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusCreated)
	}
	if gotQuizID != 2 {
		t.Errorf("quizID = %d, want 2", gotQuizID)
	}
}

func TestCreateOption_MatchingKey_Passed(t *testing.T) {
	var got *model.OptionPayload
	service := &mockQuizService{
		createOptionFn: func(ctx context.Context, token string, questionID int, payload *model.OptionPayload) (*model.Option, error) {
			got = payload
			return &model.Option{ID: 1, Text: payload.Text, MatchKey: payload.MatchKey}, nil
		},
	}
	responder, _ := testResponder()
	r := quizRouter(NewQuizHandler(service, responder))

	body := strings.NewReader(`{"text":"猫","match_key":"a"}`)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, authedRequest(http.MethodPost, "/api/quizzes/questions/3/options", body))

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusCreated)
	}
	if got == nil || got.MatchKey != "a" {
		t.Errorf("unexpected payload: %+v", got)
	}
}

func TestUpdateOption_Success_Returns200(t *testing.T) {
	service := &mockQuizService{
		updateOptionFn: func(ctx context.Context, token string, optionID int, payload *model.OptionUpdatePayload) (*model.Option, error) {
			return &model.Option{ID: optionID, Text: *payload.Text}, nil
		},
	}
	responder, _ := testResponder()
	r := quizRouter(NewQuizHandler(service, responder))

	body := strings.NewReader(`{"text":"犬"}`)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, authedRequest(http.MethodPut, "/api/quizzes/options/7", body))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var option model.Option
	if err := json.NewDecoder(w.Body).Decode(&option); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if option.ID != 7 || option.Text != "犬" {
		t.Errorf("unexpected option: %+v", option)
	}
}

func TestDeleteQuestion_Success_Returns204(t *testing.T) {
	var deletedID int
	service := &mockQuizService{
		deleteQuestionFn: func(ctx context.Context, token string, questionID int) error {
			deletedID = questionID
			return nil
		},
	}
	responder, _ := testResponder()
	r := quizRouter(NewQuizHandler(service, responder))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, authedRequest(http.MethodDelete, "/api/quizzes/questions/6", nil))

	if w.Code != http.StatusNoContent {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNoContent)
	}
	if deletedID != 6 {
		t.Errorf("deleted ID = %d, want 6", deletedID)
	}
}
