package model

import (
	"errors"
	"fmt"
)

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, catalog, upstream, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeInvalidCredentials  = "INVALID_CREDENTIALS"
	ErrCodeUnauthorized        = "UNAUTHORIZED"
	ErrCodeTokenRejected       = "TOKEN_REJECTED"
	ErrCodeProfilePending      = "PROFILE_PENDING"
	ErrCodeValidationFailed    = "VALIDATION_FAILED"
	ErrCodeInvalidDifficulty   = "INVALID_DIFFICULTY"
	ErrCodeInvalidQuestionType = "INVALID_QUESTION_TYPE"
	ErrCodeNotFound            = "NOT_FOUND"
	ErrCodeUpstreamUnreachable = "UPSTREAM_UNREACHABLE"
	ErrCodeUnsafeImageURL      = "UNSAFE_IMAGE_URL"
)

// センチネルエラー。errors.Isで分岐する制御フロー用で、
// ユーザー向けメッセージはAPIError側が持つ。
var (
	// ErrTokenRejected はバックエンドがbearerトークンを拒否した（401）ことを示す。
	// 保護ルートのハンドラーはこれを受けてセッションを強制破棄する。
	ErrTokenRejected = errors.New("upstream rejected bearer token")

	// ErrLoginSuperseded はログイン処理中にログアウトが割り込み、
	// プロフィール取得結果が破棄されたことを示す。
	ErrLoginSuperseded = errors.New("login superseded by logout")

	// ErrProfilePending はトークンは存在するがプロフィール解決が
	// 完了していないことを示す。
	ErrProfilePending = errors.New("user profile not yet resolved")
)

// NewInvalidCredentialsError は認証情報拒否エラーを生成する。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCredentials,
		Message:  "メールアドレスまたはパスワードが正しくありません。",
		Category: "auth",
		Action:   "入力内容を確認して再度ログインしてください。",
	}
}

// NewUnauthorizedError は未認証エラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "認証が必要です。",
		Category: "auth",
		Action:   "ログインしてください。",
	}
}

// NewTokenRejectedError はバックエンドによるトークン失効エラーを生成する。
func NewTokenRejectedError() *APIError {
	return &APIError{
		Code:     ErrCodeTokenRejected,
		Message:  "セッションが無効になりました。",
		Category: "auth",
		Action:   "再度ログインしてください。",
	}
}

// NewProfilePendingError はプロフィール未解決エラーを生成する。
func NewProfilePendingError() *APIError {
	return &APIError{
		Code:     ErrCodeProfilePending,
		Message:  "ユーザープロフィールの取得が完了していません。",
		Category: "auth",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// NewValidationError は必須フィールド欠落エラーを生成する。
func NewValidationError(field string) *APIError {
	return &APIError{
		Code:     ErrCodeValidationFailed,
		Message:  fmt.Sprintf("必須フィールドが不正です: %s", field),
		Category: "validation",
		Action:   "入力内容を確認してください。",
	}
}

// NewInvalidDifficultyError は難易度の列挙値エラーを生成する。
func NewInvalidDifficultyError(value string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidDifficulty,
		Message:  fmt.Sprintf("無効な難易度です: %s", value),
		Category: "validation",
		Action:   "難易度には beginner、intermediate、advanced のいずれかを指定してください。",
	}
}

// NewInvalidQuestionTypeError は設問形式の列挙値エラーを生成する。
func NewInvalidQuestionTypeError(value string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidQuestionType,
		Message:  fmt.Sprintf("無効な設問形式です: %s", value),
		Category: "validation",
		Action:   "設問形式には single_choice、multi_choice、ordering、matching のいずれかを指定してください。",
	}
}

// NewNotFoundError はリソース未検出エラーを生成する。
func NewNotFoundError(resource string) *APIError {
	return &APIError{
		Code:     ErrCodeNotFound,
		Message:  fmt.Sprintf("指定された%sが見つかりません。", resource),
		Category: "catalog",
		Action:   "既に削除されていないか一覧を確認してください。",
	}
}

// NewUpstreamUnreachableError はバックエンド到達不能エラーを生成する。
func NewUpstreamUnreachableError() *APIError {
	return &APIError{
		Code:     ErrCodeUpstreamUnreachable,
		Message:  "カタログバックエンドへのリクエストが完了しませんでした。",
		Category: "upstream",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// NewUnsafeImageURLError はカバー画像URLの検証失敗エラーを生成する。
func NewUnsafeImageURLError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeUnsafeImageURL,
		Message:  fmt.Sprintf("カバー画像URLが許可されていません: %s", reason),
		Category: "validation",
		Action:   "公開されているhttpsの画像URLを指定してください。",
	}
}

// NewUpstreamValidationError はバックエンドが入力を拒否した場合のエラーを生成する。
func NewUpstreamValidationError() *APIError {
	return &APIError{
		Code:     ErrCodeValidationFailed,
		Message:  "バックエンドがリクエスト内容を拒否しました。",
		Category: "validation",
		Action:   "入力内容を確認してください。",
	}
}
