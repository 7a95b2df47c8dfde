// Package model はドメインモデルを定義する。
package model

import "time"

// AdminUser はバックエンドの /auth/me が返す管理者プロフィールを表す。
// ゲートウェイでは読み取り専用で、バックエンドが唯一の生成元。
type AdminUser struct {
	ID          int    `json:"id"`
	Username    string `json:"username"`
	IsSuperuser bool   `json:"is_superuser"`
}

// Session は管理者のログインセッションを表す。
// IDはCookie値、Tokenはバックエンドが発行した不透明なbearerトークン。
// Userはプロフィール取得が完了するまでnilになりうる（ログインハンドシェイク中）。
type Session struct {
	ID        string
	Token     string
	User      *AdminUser
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Authenticated はガードが使用する判定。トークンの有無のみを見る。
// プロフィール解決を待たずに保護ルートを通す仕様（ProfileResolvedと区別する）。
func (s *Session) Authenticated() bool {
	return s != nil && s.Token != ""
}

// ProfileResolved はプロフィール取得が完了しているかを返す。
func (s *Session) ProfileResolved() bool {
	return s != nil && s.User != nil
}
