package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/bookman/internal/model"
)

// PostgresSessionRepo はPostgreSQLを使用したセッションリポジトリ。
type PostgresSessionRepo struct {
	db *sql.DB
}

// NewPostgresSessionRepo はPostgresSessionRepoを生成する。
func NewPostgresSessionRepo(db *sql.DB) *PostgresSessionRepo {
	return &PostgresSessionRepo{db: db}
}

// Create はセッションを作成する。
func (r *PostgresSessionRepo) Create(ctx context.Context, session *model.Session) error {
	var userID, isSuperuser, username any
	if session.User != nil {
		userID = session.User.ID
		username = session.User.Username
		isSuperuser = session.User.IsSuperuser
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sessions (id, token, user_id, username, is_superuser, expires_at, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		session.ID, session.Token, userID, username, isSuperuser,
		session.ExpiresAt, session.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

// FindByID は指定IDのセッションを取得する。期限切れの場合はnilを返す。
func (r *PostgresSessionRepo) FindByID(ctx context.Context, id string) (*model.Session, error) {
	session := &model.Session{}
	var userID sql.NullInt64
	var username sql.NullString
	var isSuperuser sql.NullBool

	err := r.db.QueryRowContext(ctx,
		`SELECT id, token, user_id, username, is_superuser, expires_at, created_at
		 FROM sessions
		 WHERE id = $1 AND expires_at > now()`,
		id,
	).Scan(&session.ID, &session.Token, &userID, &username, &isSuperuser,
		&session.ExpiresAt, &session.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find session: %w", err)
	}

	// user_idが入っていればプロフィール解決済み
	if userID.Valid {
		session.User = &model.AdminUser{
			ID:          int(userID.Int64),
			Username:    username.String,
			IsSuperuser: isSuperuser.Bool,
		}
	}

	return session, nil
}

// UpdateProfile は既存セッションに解決済みプロフィールを書き込む。
// 対象行が存在しない場合（ログアウト済み）はfalseを返し、書き込みは行われない。
func (r *PostgresSessionRepo) UpdateProfile(ctx context.Context, id string, user *model.AdminUser) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE sessions
		 SET user_id = $2, username = $3, is_superuser = $4
		 WHERE id = $1`,
		id, user.ID, user.Username, user.IsSuperuser,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update session profile: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return n > 0, nil
}

// DeleteByID は指定IDのセッションを削除する。
func (r *PostgresSessionRepo) DeleteByID(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// DeleteExpired は期限切れセッションを削除し、削除件数を返す。
func (r *PostgresSessionRepo) DeleteExpired(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE expires_at <= now()`,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return n, nil
}

// compile-time interface check
var _ SessionRepository = (*PostgresSessionRepo)(nil)
