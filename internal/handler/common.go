// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/bookman/internal/middleware"
	"github.com/hitoshi/bookman/internal/model"
)

// sessionCookieName はセッションガードと共有するCookieの名前。
const sessionCookieName = middleware.SessionCookieName

// SessionRevoker は強制ログアウト時にセッションを破棄するインターフェース。
type SessionRevoker interface {
	Logout(ctx context.Context, sessionID string) error
}

// CookieConfig はセッションCookieの属性設定。
type CookieConfig struct {
	Domain        string
	Secure        bool
	SessionMaxAge int // セッションCookieの有効期間（秒）
}

// setSessionCookie はセッションCookieを設定する（HTTP Only）。
func setSessionCookie(w http.ResponseWriter, config CookieConfig, sessionID string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    sessionID,
		Path:     "/",
		Domain:   config.Domain,
		MaxAge:   config.SessionMaxAge,
		HttpOnly: true,
		Secure:   config.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// clearSessionCookie はセッションCookieをクリアする。
func clearSessionCookie(w http.ResponseWriter, config CookieConfig) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		Domain:   config.Domain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   config.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// writeJSON はJSONレスポンスを書き込む。
func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", slog.String("error", err.Error()))
	}
}

// mapAPIErrorToHTTPStatus はエラーコードをHTTPステータスコードへ写像する。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeValidationFailed, model.ErrCodeInvalidDifficulty, model.ErrCodeInvalidQuestionType:
		return http.StatusBadRequest
	case model.ErrCodeInvalidCredentials, model.ErrCodeUnauthorized, model.ErrCodeTokenRejected:
		return http.StatusUnauthorized
	case model.ErrCodeUnsafeImageURL:
		return http.StatusUnprocessableEntity
	case model.ErrCodeProfilePending:
		return http.StatusConflict
	case model.ErrCodeNotFound:
		return http.StatusNotFound
	case model.ErrCodeUpstreamUnreachable:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// errorResponder はサービス層のエラーをHTTPレスポンスへ写像する。
// バックエンドにトークンを拒否された場合はセッションを破棄し
// Cookieをクリアする（強制ログアウト）。
type errorResponder struct {
	revoker SessionRevoker
	cookie  CookieConfig
}

// respondError はエラー種別に応じたレスポンスを書き込む。
func (e *errorResponder) respondError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, model.ErrTokenRejected) {
		e.forceLogout(w, r)
		return
	}

	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		middleware.WriteErrorResponse(w, mapAPIErrorToHTTPStatus(apiErr), apiErr)
		return
	}

	slog.Error("unhandled service error",
		slog.String("path", r.URL.Path),
		slog.String("error", err.Error()),
	)
	middleware.WriteInternalServerError(w)
}

// forceLogout はセッション行を削除し、Cookieをクリアして401を返す。
// バックエンドがトークンを無効化した後のセッションは復元できないため、
// クライアントには再ログインを要求する。
func (e *errorResponder) forceLogout(w http.ResponseWriter, r *http.Request) {
	if session, err := middleware.SessionFromContext(r.Context()); err == nil && e.revoker != nil {
		if logoutErr := e.revoker.Logout(r.Context(), session.ID); logoutErr != nil {
			slog.Error("failed to revoke session after token rejection",
				slog.String("session_id", session.ID),
				slog.String("error", logoutErr.Error()),
			)
		}
	}

	clearSessionCookie(w, e.cookie)
	middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewTokenRejectedError())
}

// sessionToken はガードが注入したセッションからbearerトークンを取り出す。
func sessionToken(r *http.Request) (string, bool) {
	session, err := middleware.SessionFromContext(r.Context())
	if err != nil {
		return "", false
	}
	return session.Token, true
}

// idParam はURLパスパラメータを正の整数として解析する。
func idParam(r *http.Request, name string) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// writeInvalidIDResponse は不正なIDパラメータへの400レスポンスを書き込む。
func writeInvalidIDResponse(w http.ResponseWriter, name string) {
	middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewValidationError(name))
}

// writeMissingSessionResponse はコンテキストにセッションがない場合の
// 401レスポンスを書き込む。ガード配下では通常到達しない。
func writeMissingSessionResponse(w http.ResponseWriter) {
	middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
}

// decodeBody はリクエストボディをJSONとしてデコードする。
// 失敗した場合は400レスポンスを書き込みfalseを返す。
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewValidationError("body"))
		return false
	}
	return true
}
