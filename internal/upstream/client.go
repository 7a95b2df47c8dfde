// Package upstream はカタログバックエンドAPIのクライアントを提供する。
// すべてのリクエストにbearerトークンとリクエストIDを付与し、
// HTTPステータスをドメインエラーへ写像する。リトライは行わない。
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/bookman/internal/model"
)

const userAgent = "Bookman/1.0 Admin Gateway"

// MetricsRecorder はバックエンド呼び出しのメトリクス記録インターフェース。
type MetricsRecorder interface {
	RecordUpstreamRequest(endpoint string, statusCode int)
	RecordUpstreamLatency(endpoint string, duration time.Duration)
}

// Client はカタログバックエンドAPIのクライアント。
type Client struct {
	httpClient  *http.Client
	baseURL     string
	logger      *slog.Logger
	metrics     MetricsRecorder // nil可
	maxRespSize int64
}

// NewClient はClientの新しいインスタンスを生成する。
// baseURLは末尾スラッシュなしで指定する（例: "http://backend:8000"）。
func NewClient(httpClient *http.Client, baseURL string, logger *slog.Logger, metrics MetricsRecorder, maxRespSize int64) *Client {
	return &Client{
		httpClient:  httpClient,
		baseURL:     strings.TrimRight(baseURL, "/"),
		logger:      logger,
		metrics:     metrics,
		maxRespSize: maxRespSize,
	}
}

// loginRequest は POST /auth/login のリクエストボディ。
type loginRequest struct {
	Identifier string `json:"identifier"`
	Secret     string `json:"secret"`
}

// loginResponse は POST /auth/login のレスポンスボディ。
type loginResponse struct {
	AccessToken string `json:"access_token"`
}

// Login は認証情報をトークンに交換する。
// 認証拒否（401/400）はInvalidCredentials、通信失敗はUpstreamUnreachableとして返す。
func (c *Client) Login(ctx context.Context, identifier, secret string) (string, error) {
	var out loginResponse
	status, err := c.do(ctx, http.MethodPost, "/auth/login", "", nil,
		loginRequest{Identifier: identifier, Secret: secret}, &out)
	if err != nil {
		return "", err
	}

	switch {
	case status == http.StatusOK || status == http.StatusCreated:
		if out.AccessToken == "" {
			return "", fmt.Errorf("login response missing access_token")
		}
		return out.AccessToken, nil
	case status == http.StatusUnauthorized || status == http.StatusBadRequest:
		return "", model.NewInvalidCredentialsError()
	default:
		return "", fmt.Errorf("login returned unexpected status %d", status)
	}
}

// Me は現在のトークンに紐づく管理者プロフィールを取得する。
func (c *Client) Me(ctx context.Context, token string) (*model.AdminUser, error) {
	var user model.AdminUser
	status, err := c.do(ctx, http.MethodGet, "/auth/me", token, nil, nil, &user)
	if err != nil {
		return nil, err
	}
	if err := c.checkStatus(status, "ユーザー"); err != nil {
		return nil, err
	}
	return &user, nil
}

// --- 書籍 ---

// ListBooks は書籍一覧を取得する。
func (c *Client) ListBooks(ctx context.Context, token string) ([]model.Book, error) {
	var books []model.Book
	status, err := c.do(ctx, http.MethodGet, "/books", token, nil, nil, &books)
	if err != nil {
		return nil, err
	}
	if err := c.checkStatus(status, "書籍"); err != nil {
		return nil, err
	}
	return books, nil
}

// GetBook は指定IDの書籍を取得する。
func (c *Client) GetBook(ctx context.Context, token string, id int) (*model.Book, error) {
	var book model.Book
	status, err := c.do(ctx, http.MethodGet, "/books/"+strconv.Itoa(id), token, nil, nil, &book)
	if err != nil {
		return nil, err
	}
	if err := c.checkStatus(status, "書籍"); err != nil {
		return nil, err
	}
	return &book, nil
}

// CreateBook は書籍を作成する。
func (c *Client) CreateBook(ctx context.Context, token string, payload *model.BookPayload) (*model.Book, error) {
	var book model.Book
	status, err := c.do(ctx, http.MethodPost, "/books", token, nil, payload, &book)
	if err != nil {
		return nil, err
	}
	if err := c.checkStatus(status, "書籍"); err != nil {
		return nil, err
	}
	return &book, nil
}

// UpdateBook は書籍を更新する。
func (c *Client) UpdateBook(ctx context.Context, token string, id int, payload *model.BookUpdatePayload) (*model.Book, error) {
	var book model.Book
	status, err := c.do(ctx, http.MethodPut, "/books/"+strconv.Itoa(id), token, nil, payload, &book)
	if err != nil {
		return nil, err
	}
	if err := c.checkStatus(status, "書籍"); err != nil {
		return nil, err
	}
	return &book, nil
}

// DeleteBook は書籍を削除する。
func (c *Client) DeleteBook(ctx context.Context, token string, id int) error {
	status, err := c.do(ctx, http.MethodDelete, "/books/"+strconv.Itoa(id), token, nil, nil, nil)
	if err != nil {
		return err
	}
	return c.checkStatus(status, "書籍")
}

// --- 章 ---

// ListChapters は章一覧を取得する。bookIDが正の場合はbook_idで絞り込む。
func (c *Client) ListChapters(ctx context.Context, token string, bookID int) ([]model.Chapter, error) {
	var query url.Values
	if bookID > 0 {
		query = url.Values{"book_id": {strconv.Itoa(bookID)}}
	}

	var chapters []model.Chapter
	status, err := c.do(ctx, http.MethodGet, "/chapters", token, query, nil, &chapters)
	if err != nil {
		return nil, err
	}
	if err := c.checkStatus(status, "章"); err != nil {
		return nil, err
	}
	return chapters, nil
}

// GetChapter は指定IDの章を取得する。
func (c *Client) GetChapter(ctx context.Context, token string, id int) (*model.Chapter, error) {
	var chapter model.Chapter
	status, err := c.do(ctx, http.MethodGet, "/chapters/"+strconv.Itoa(id), token, nil, nil, &chapter)
	if err != nil {
		return nil, err
	}
	if err := c.checkStatus(status, "章"); err != nil {
		return nil, err
	}
	return &chapter, nil
}

// CreateChapter は章を作成する。
func (c *Client) CreateChapter(ctx context.Context, token string, payload *model.ChapterPayload) (*model.Chapter, error) {
	var chapter model.Chapter
	status, err := c.do(ctx, http.MethodPost, "/chapters", token, nil, payload, &chapter)
	if err != nil {
		return nil, err
	}
	if err := c.checkStatus(status, "章"); err != nil {
		return nil, err
	}
	return &chapter, nil
}

// UpdateChapter は章を更新する。
func (c *Client) UpdateChapter(ctx context.Context, token string, id int, payload *model.ChapterUpdatePayload) (*model.Chapter, error) {
	var chapter model.Chapter
	status, err := c.do(ctx, http.MethodPut, "/chapters/"+strconv.Itoa(id), token, nil, payload, &chapter)
	if err != nil {
		return nil, err
	}
	if err := c.checkStatus(status, "章"); err != nil {
		return nil, err
	}
	return &chapter, nil
}

// DeleteChapter は章を削除する。
func (c *Client) DeleteChapter(ctx context.Context, token string, id int) error {
	status, err := c.do(ctx, http.MethodDelete, "/chapters/"+strconv.Itoa(id), token, nil, nil, nil)
	if err != nil {
		return err
	}
	return c.checkStatus(status, "章")
}

// --- クイズ ---

// QuizByChapter は章に紐づくクイズを取得する。章ごとに最大1つ。
func (c *Client) QuizByChapter(ctx context.Context, token string, chapterID int) (*model.Quiz, error) {
	var quiz model.Quiz
	status, err := c.do(ctx, http.MethodGet, "/quizzes/by-chapter/"+strconv.Itoa(chapterID), token, nil, nil, &quiz)
	if err != nil {
		return nil, err
	}
	if err := c.checkStatus(status, "クイズ"); err != nil {
		return nil, err
	}
	return &quiz, nil
}

// CreateQuiz はクイズを作成する。
func (c *Client) CreateQuiz(ctx context.Context, token string, payload *model.QuizPayload) (*model.Quiz, error) {
	var quiz model.Quiz
	status, err := c.do(ctx, http.MethodPost, "/quizzes", token, nil, payload, &quiz)
	if err != nil {
		return nil, err
	}
	if err := c.checkStatus(status, "クイズ"); err != nil {
		return nil, err
	}
	return &quiz, nil
}

// UpdateQuiz はクイズを更新する。
func (c *Client) UpdateQuiz(ctx context.Context, token string, id int, payload *model.QuizUpdatePayload) (*model.Quiz, error) {
	var quiz model.Quiz
	status, err := c.do(ctx, http.MethodPut, "/quizzes/"+strconv.Itoa(id), token, nil, payload, &quiz)
	if err != nil {
		return nil, err
	}
	if err := c.checkStatus(status, "クイズ"); err != nil {
		return nil, err
	}
	return &quiz, nil
}

// DeleteQuiz はクイズを削除する。
func (c *Client) DeleteQuiz(ctx context.Context, token string, id int) error {
	status, err := c.do(ctx, http.MethodDelete, "/quizzes/"+strconv.Itoa(id), token, nil, nil, nil)
	if err != nil {
		return err
	}
	return c.checkStatus(status, "クイズ")
}

// CreateQuestion はクイズに設問を追加する。
func (c *Client) CreateQuestion(ctx context.Context, token string, quizID int, payload *model.QuestionPayload) (*model.Question, error) {
	var question model.Question
	status, err := c.do(ctx, http.MethodPost, "/quizzes/"+strconv.Itoa(quizID)+"/questions", token, nil, payload, &question)
	if err != nil {
		return nil, err
	}
	if err := c.checkStatus(status, "設問"); err != nil {
		return nil, err
	}
	return &question, nil
}

// UpdateQuestion は設問を更新する。
func (c *Client) UpdateQuestion(ctx context.Context, token string, questionID int, payload *model.QuestionUpdatePayload) (*model.Question, error) {
	var question model.Question
	status, err := c.do(ctx, http.MethodPut, "/quizzes/questions/"+strconv.Itoa(questionID), token, nil, payload, &question)
	if err != nil {
		return nil, err
	}
	if err := c.checkStatus(status, "設問"); err != nil {
		return nil, err
	}
	return &question, nil
}

// DeleteQuestion は設問を削除する。
func (c *Client) DeleteQuestion(ctx context.Context, token string, questionID int) error {
	status, err := c.do(ctx, http.MethodDelete, "/quizzes/questions/"+strconv.Itoa(questionID), token, nil, nil, nil)
	if err != nil {
		return err
	}
	return c.checkStatus(status, "設問")
}

// CreateOption は設問に選択肢を追加する。
func (c *Client) CreateOption(ctx context.Context, token string, questionID int, payload *model.OptionPayload) (*model.Option, error) {
	var option model.Option
	status, err := c.do(ctx, http.MethodPost, "/quizzes/questions/"+strconv.Itoa(questionID)+"/options", token, nil, payload, &option)
	if err != nil {
		return nil, err
	}
	if err := c.checkStatus(status, "選択肢"); err != nil {
		return nil, err
	}
	return &option, nil
}

// UpdateOption は選択肢を更新する。
func (c *Client) UpdateOption(ctx context.Context, token string, optionID int, payload *model.OptionUpdatePayload) (*model.Option, error) {
	var option model.Option
	status, err := c.do(ctx, http.MethodPut, "/quizzes/options/"+strconv.Itoa(optionID), token, nil, payload, &option)
	if err != nil {
		return nil, err
	}
	if err := c.checkStatus(status, "選択肢"); err != nil {
		return nil, err
	}
	return &option, nil
}

// DeleteOption は選択肢を削除する。
func (c *Client) DeleteOption(ctx context.Context, token string, optionID int) error {
	status, err := c.do(ctx, http.MethodDelete, "/quizzes/options/"+strconv.Itoa(optionID), token, nil, nil, nil)
	if err != nil {
		return err
	}
	return c.checkStatus(status, "選択肢")
}

// do はリクエストを実行し、レスポンスボディをoutにデコードしてステータスを返す。
// 通信自体の失敗のみerrorとし、HTTPステータスの解釈は呼び出し元が行う。
// 2xx以外のレスポンスボディはデコードせず読み捨てる。
func (c *Client) do(ctx context.Context, method, path, token string, query url.Values, body, out any) (int, error) {
	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("failed to encode request body: %w", err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reqBody)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("X-Request-ID", uuid.New().String())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if c.metrics != nil {
		c.metrics.RecordUpstreamLatency(path, time.Since(start))
	}
	if err != nil {
		c.logger.Error("upstream request failed",
			slog.String("method", method),
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
		if c.metrics != nil {
			c.metrics.RecordUpstreamRequest(path, 0)
		}
		return 0, model.NewUpstreamUnreachableError()
	}
	defer resp.Body.Close()

	if c.metrics != nil {
		c.metrics.RecordUpstreamRequest(path, resp.StatusCode)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 && out != nil {
		limited := io.LimitReader(resp.Body, c.maxRespSize)
		if err := json.NewDecoder(limited).Decode(out); err != nil {
			c.logger.Error("failed to decode upstream response",
				slog.String("method", method),
				slog.String("path", path),
				slog.String("error", err.Error()),
			)
			return resp.StatusCode, fmt.Errorf("failed to decode upstream response: %w", err)
		}
	}

	return resp.StatusCode, nil
}

// checkStatus は保護エンドポイントのHTTPステータスをドメインエラーへ写像する。
// 401はErrTokenRejectedとして返し、呼び出し側のセッション強制破棄の契機になる。
func (c *Client) checkStatus(status int, resource string) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusUnauthorized:
		return fmt.Errorf("upstream returned 401: %w", model.ErrTokenRejected)
	case status == http.StatusNotFound:
		return model.NewNotFoundError(resource)
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		return model.NewUpstreamValidationError()
	default:
		return fmt.Errorf("upstream returned unexpected status %d", status)
	}
}
