// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"

	"github.com/hitoshi/bookman/internal/model"
)

// SessionRepository はセッションデータの永続化インターフェース。
// トークンの保存・取得・削除のみを担い、検証・暗号化・有効期限延長は行わない。
// トークンはこの層にとって不透明な文字列。
type SessionRepository interface {
	// Create はセッションを作成する。プロフィール未解決（User==nil）の状態で
	// 作成されることがある（ログインハンドシェイク中）。
	Create(ctx context.Context, session *model.Session) error

	// FindByID は指定IDのセッションを取得する。
	// 見つからない場合と期限切れの場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)

	// UpdateProfile は既存セッションに解決済みプロフィールを書き込む。
	// 行が更新されたかどうかを返す。falseはセッションが既に削除されている
	// （ログアウトが割り込んだ）ことを意味し、呼び出し元は結果を破棄する。
	UpdateProfile(ctx context.Context, id string, user *model.AdminUser) (bool, error)

	// DeleteByID は指定IDのセッションを削除する。存在しないIDは何もしない（冪等）。
	DeleteByID(ctx context.Context, id string) error

	// DeleteExpired は期限切れセッションを削除し、削除件数を返す。
	DeleteExpired(ctx context.Context) (int64, error)
}
