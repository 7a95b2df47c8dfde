package catalog

import (
	"context"

	"github.com/hitoshi/bookman/internal/model"
)

// QuizBackend はクイズ操作に必要なバックエンドAPIのインターフェース。
type QuizBackend interface {
	QuizByChapter(ctx context.Context, token string, chapterID int) (*model.Quiz, error)
	CreateQuiz(ctx context.Context, token string, payload *model.QuizPayload) (*model.Quiz, error)
	UpdateQuiz(ctx context.Context, token string, id int, payload *model.QuizUpdatePayload) (*model.Quiz, error)
	DeleteQuiz(ctx context.Context, token string, id int) error
	CreateQuestion(ctx context.Context, token string, quizID int, payload *model.QuestionPayload) (*model.Question, error)
	UpdateQuestion(ctx context.Context, token string, questionID int, payload *model.QuestionUpdatePayload) (*model.Question, error)
	DeleteQuestion(ctx context.Context, token string, questionID int) error
	CreateOption(ctx context.Context, token string, questionID int, payload *model.OptionPayload) (*model.Option, error)
	UpdateOption(ctx context.Context, token string, optionID int, payload *model.OptionUpdatePayload) (*model.Option, error)
	DeleteOption(ctx context.Context, token string, optionID int) error
}

// QuizService はクイズ・設問・選択肢の管理操作を提供する。
// 入力検証のうえバックエンドへ委譲する。クイズは章ごとに最大1つで、
// 一意性の管理はバックエンドが行う。
type QuizService struct {
	backend QuizBackend
}

// NewQuizService はQuizServiceを生成する。
func NewQuizService(backend QuizBackend) *QuizService {
	return &QuizService{backend: backend}
}

// GetByChapter は章に紐づくクイズを取得する。
func (s *QuizService) GetByChapter(ctx context.Context, token string, chapterID int) (*model.Quiz, error) {
	return s.backend.QuizByChapter(ctx, token, chapterID)
}

// Create はクイズを作成する。
func (s *QuizService) Create(ctx context.Context, token string, payload *model.QuizPayload) (*model.Quiz, error) {
	if err := payload.Validate(); err != nil {
		return nil, err
	}
	return s.backend.CreateQuiz(ctx, token, payload)
}

// Update はクイズを更新する。
func (s *QuizService) Update(ctx context.Context, token string, id int, payload *model.QuizUpdatePayload) (*model.Quiz, error) {
	if err := payload.Validate(); err != nil {
		return nil, err
	}
	return s.backend.UpdateQuiz(ctx, token, id, payload)
}

// Delete はクイズを削除する。配下の設問・選択肢の削除はバックエンドが行う。
func (s *QuizService) Delete(ctx context.Context, token string, id int) error {
	return s.backend.DeleteQuiz(ctx, token, id)
}

// CreateQuestion はクイズに設問を追加する。
func (s *QuizService) CreateQuestion(ctx context.Context, token string, quizID int, payload *model.QuestionPayload) (*model.Question, error) {
	if err := payload.Validate(); err != nil {
		return nil, err
	}
	return s.backend.CreateQuestion(ctx, token, quizID, payload)
}

// UpdateQuestion は設問を更新する。
func (s *QuizService) UpdateQuestion(ctx context.Context, token string, questionID int, payload *model.QuestionUpdatePayload) (*model.Question, error) {
	if err := payload.Validate(); err != nil {
		return nil, err
	}
	return s.backend.UpdateQuestion(ctx, token, questionID, payload)
}

// DeleteQuestion は設問を削除する。
func (s *QuizService) DeleteQuestion(ctx context.Context, token string, questionID int) error {
	return s.backend.DeleteQuestion(ctx, token, questionID)
}

// CreateOption は設問に選択肢を追加する。
func (s *QuizService) CreateOption(ctx context.Context, token string, questionID int, payload *model.OptionPayload) (*model.Option, error) {
	if err := payload.Validate(); err != nil {
		return nil, err
	}
	return s.backend.CreateOption(ctx, token, questionID, payload)
}

// UpdateOption は選択肢を更新する。
func (s *QuizService) UpdateOption(ctx context.Context, token string, optionID int, payload *model.OptionUpdatePayload) (*model.Option, error) {
	if err := payload.Validate(); err != nil {
		return nil, err
	}
	return s.backend.UpdateOption(ctx, token, optionID, payload)
}

// DeleteOption は選択肢を削除する。
func (s *QuizService) DeleteOption(ctx context.Context, token string, optionID int) error {
	return s.backend.DeleteOption(ctx, token, optionID)
}
