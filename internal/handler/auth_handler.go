package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hitoshi/bookman/internal/middleware"
	"github.com/hitoshi/bookman/internal/model"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	Login(ctx context.Context, identifier, secret string) (*model.Session, error)
	Logout(ctx context.Context, sessionID string) error
	CurrentUser(ctx context.Context, sessionID string) (*model.AdminUser, error)
}

// AuthHandler はログイン・ログアウト・プロフィール取得のHTTPハンドラー。
type AuthHandler struct {
	service AuthServiceInterface
	cookie  CookieConfig
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface, cookie CookieConfig) *AuthHandler {
	return &AuthHandler{
		service: service,
		cookie:  cookie,
	}
}

// userResponse は管理者プロフィールのレスポンスボディ。
type userResponse struct {
	ID          int    `json:"id"`
	Username    string `json:"username"`
	IsSuperuser bool   `json:"is_superuser"`
}

func newUserResponse(user *model.AdminUser) userResponse {
	return userResponse{
		ID:          user.ID,
		Username:    user.Username,
		IsSuperuser: user.IsSuperuser,
	}
}

// Login は認証情報を検証してセッションを発行する。
// POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var creds model.Credentials
	if !decodeBody(w, r, &creds) {
		return
	}
	if creds.Identifier == "" {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewValidationError("identifier"))
		return
	}
	if creds.Secret == "" {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewValidationError("secret"))
		return
	}

	session, err := h.service.Login(r.Context(), creds.Identifier, creds.Secret)
	if err != nil {
		if errors.Is(err, model.ErrLoginSuperseded) {
			// プロフィール取得中にログアウトが割り込み、ログイン結果は
			// 破棄された。クライアントにはログアウト状態として扱わせる。
			middleware.WriteErrorResponse(w, http.StatusConflict, &model.APIError{
				Code:     "LOGIN_SUPERSEDED",
				Message:  "ログイン処理中にログアウトされました。",
				Category: "auth",
				Action:   "必要であれば再度ログインしてください。",
			})
			return
		}

		var apiErr *model.APIError
		if errors.As(err, &apiErr) {
			middleware.WriteErrorResponse(w, mapAPIErrorToHTTPStatus(apiErr), apiErr)
			return
		}

		slog.Error("login failed", slog.String("error", err.Error()))
		middleware.WriteInternalServerError(w)
		return
	}

	setSessionCookie(w, h.cookie, session.ID)
	writeJSON(w, http.StatusOK, newUserResponse(session.User))
}

// Logout はセッションを破棄する。冪等で、セッションCookieがなくても
// 204を返す。バックエンドへの呼び出しは行わない。
// POST /auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(sessionCookieName)
	if err == nil && cookie.Value != "" {
		if logoutErr := h.service.Logout(r.Context(), cookie.Value); logoutErr != nil {
			slog.Error("failed to logout", slog.String("error", logoutErr.Error()))
			// ログアウト失敗してもCookieはクリアする
		}
	}

	clearSessionCookie(w, h.cookie)
	w.WriteHeader(http.StatusNoContent)
}

// Me は現在のログインユーザー情報を返す。
// GET /auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil || cookie.Value == "" {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	user, err := h.service.CurrentUser(r.Context(), cookie.Value)
	if err != nil {
		if errors.Is(err, model.ErrProfilePending) {
			middleware.WriteErrorResponse(w, http.StatusConflict, model.NewProfilePendingError())
			return
		}

		var apiErr *model.APIError
		if errors.As(err, &apiErr) {
			middleware.WriteErrorResponse(w, mapAPIErrorToHTTPStatus(apiErr), apiErr)
			return
		}

		slog.Error("failed to get current user", slog.String("error", err.Error()))
		middleware.WriteInternalServerError(w)
		return
	}

	writeJSON(w, http.StatusOK, newUserResponse(user))
}
