package auth

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/hitoshi/bookman/internal/model"
)

// --- モック定義 ---

type mockBackend struct {
	loginFn func(ctx context.Context, identifier, secret string) (string, error)
	meFn    func(ctx context.Context, token string) (*model.AdminUser, error)
}

func (m *mockBackend) Login(ctx context.Context, identifier, secret string) (string, error) {
	if m.loginFn != nil {
		return m.loginFn(ctx, identifier, secret)
	}
	return "", errors.New("not implemented")
}

func (m *mockBackend) Me(ctx context.Context, token string) (*model.AdminUser, error) {
	if m.meFn != nil {
		return m.meFn(ctx, token)
	}
	return nil, errors.New("not implemented")
}

// fakeSessionRepo はインメモリのセッションストア。
// UpdateProfileの行数判定を含め、Postgres実装と同じ観測可能な挙動を再現する。
type fakeSessionRepo struct {
	mu       sync.Mutex
	sessions map[string]*model.Session
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: make(map[string]*model.Session)}
}

func (r *fakeSessionRepo) Create(ctx context.Context, session *model.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *session
	r.sessions[session.ID] = &copied
	return nil
}

func (r *fakeSessionRepo) FindByID(ctx context.Context, id string) (*model.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, nil
	}
	copied := *s
	return &copied, nil
}

func (r *fakeSessionRepo) UpdateProfile(ctx context.Context, id string, user *model.AdminUser) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return false, nil
	}
	copied := *user
	s.User = &copied
	return true, nil
}

func (r *fakeSessionRepo) DeleteByID(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
	return nil
}

func (r *fakeSessionRepo) DeleteExpired(ctx context.Context) (int64, error) {
	return 0, nil
}

func (r *fakeSessionRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

func (r *fakeSessionRepo) only() *model.Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sessions {
		copied := *s
		return &copied
	}
	return nil
}

func newTestService(backend *mockBackend, repo *fakeSessionRepo) *Service {
	return NewService(backend, repo, nil, ServiceConfig{SessionMaxAge: 86400})
}

// --- テスト ---

func TestLogin_Success_ResolvesProfile(t *testing.T) {
	backend := &mockBackend{
		loginFn: func(ctx context.Context, identifier, secret string) (string, error) {
			return "tok123", nil
		},
		meFn: func(ctx context.Context, token string) (*model.AdminUser, error) {
			return &model.AdminUser{ID: 1, Username: "admin", IsSuperuser: true}, nil
		},
	}
	repo := newFakeSessionRepo()
	svc := newTestService(backend, repo)

	session, err := svc.Login(context.Background(), "a@b.com", "secret")
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}

	if session.Token != "tok123" {
		t.Errorf("Token = %q, want %q", session.Token, "tok123")
	}
	if !session.ProfileResolved() {
		t.Fatal("profile should be resolved after successful login")
	}
	if session.User.ID != 1 || session.User.Username != "admin" || !session.User.IsSuperuser {
		t.Errorf("User = %+v, want {1 admin true}", session.User)
	}

	stored := repo.only()
	if stored == nil {
		t.Fatal("session should be persisted")
	}
	if !stored.ProfileResolved() {
		t.Error("persisted session should carry the resolved profile")
	}
}

// トークンはプロフィール取得より先に永続化されること（順序不変条件）。
// プロフィール取得時点でストアを読むと、トークンはあるがユーザーは未解決。
func TestLogin_TokenPersistedBeforeProfileFetch(t *testing.T) {
	repo := newFakeSessionRepo()

	backend := &mockBackend{
		loginFn: func(ctx context.Context, identifier, secret string) (string, error) {
			return "tok123", nil
		},
	}
	backend.meFn = func(ctx context.Context, token string) (*model.AdminUser, error) {
		// プロフィール取得の最中にストアを観測する
		stored := repo.only()
		if stored == nil {
			t.Fatal("token must be persisted before the profile fetch is issued")
		}
		if stored.Token != "tok123" {
			t.Errorf("stored token = %q, want %q", stored.Token, "tok123")
		}
		if stored.ProfileResolved() {
			t.Error("user must not be resolved before the profile fetch returns")
		}
		if !stored.Authenticated() {
			t.Error("guard predicate should already pass during the handshake")
		}
		return &model.AdminUser{ID: 1, Username: "admin"}, nil
	}

	svc := newTestService(backend, repo)
	if _, err := svc.Login(context.Background(), "a@b.com", "secret"); err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
}

func TestLogin_RejectedCredentials_LeavesStoreEmpty(t *testing.T) {
	backend := &mockBackend{
		loginFn: func(ctx context.Context, identifier, secret string) (string, error) {
			return "", model.NewInvalidCredentialsError()
		},
	}
	repo := newFakeSessionRepo()
	svc := newTestService(backend, repo)

	_, err := svc.Login(context.Background(), "a@b.com", "wrong")
	if err == nil {
		t.Fatal("expected error for rejected credentials")
	}

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeInvalidCredentials {
		t.Errorf("expected INVALID_CREDENTIALS, got %v", err)
	}
	if repo.count() != 0 {
		t.Error("no session may be created when credentials are rejected")
	}
}

func TestLogin_ProfileFetchFails_SessionDeleted(t *testing.T) {
	backend := &mockBackend{
		loginFn: func(ctx context.Context, identifier, secret string) (string, error) {
			return "tok123", nil
		},
		meFn: func(ctx context.Context, token string) (*model.AdminUser, error) {
			return nil, model.NewUpstreamUnreachableError()
		},
	}
	repo := newFakeSessionRepo()
	svc := newTestService(backend, repo)

	_, err := svc.Login(context.Background(), "a@b.com", "secret")
	if err == nil {
		t.Fatal("expected error when profile fetch fails")
	}
	if repo.count() != 0 {
		t.Error("a token-only session must not survive a failed profile fetch")
	}
}

// プロフィール取得中にログアウトが割り込んだ場合、結果は破棄され、
// セッションは復活しないこと（ログイン・ログアウト競合）。
func TestLogin_LogoutDuringProfileFetch_ResultDiscarded(t *testing.T) {
	repo := newFakeSessionRepo()

	var svc *Service
	backend := &mockBackend{
		loginFn: func(ctx context.Context, identifier, secret string) (string, error) {
			return "tok123", nil
		},
	}
	backend.meFn = func(ctx context.Context, token string) (*model.AdminUser, error) {
		// プロフィール取得中にログアウトが割り込む
		stored := repo.only()
		if stored == nil {
			t.Fatal("session should exist during the profile fetch")
		}
		if err := svc.Logout(ctx, stored.ID); err != nil {
			t.Fatalf("Logout returned error: %v", err)
		}
		return &model.AdminUser{ID: 1, Username: "admin"}, nil
	}

	svc = newTestService(backend, repo)

	_, err := svc.Login(context.Background(), "a@b.com", "secret")
	if !errors.Is(err, model.ErrLoginSuperseded) {
		t.Errorf("expected ErrLoginSuperseded, got %v", err)
	}
	if repo.count() != 0 {
		t.Error("the discarded login must not resurrect the session")
	}
}

func TestLoginThenLogout_LeavesNoState(t *testing.T) {
	backend := &mockBackend{
		loginFn: func(ctx context.Context, identifier, secret string) (string, error) {
			return "tok123", nil
		},
		meFn: func(ctx context.Context, token string) (*model.AdminUser, error) {
			return &model.AdminUser{ID: 1, Username: "admin"}, nil
		},
	}
	repo := newFakeSessionRepo()
	svc := newTestService(backend, repo)

	session, err := svc.Login(context.Background(), "a@b.com", "secret")
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if err := svc.Logout(context.Background(), session.ID); err != nil {
		t.Fatalf("Logout returned error: %v", err)
	}

	if repo.count() != 0 {
		t.Error("store must be empty after login followed by logout")
	}
	if _, err := svc.CurrentUser(context.Background(), session.ID); err == nil {
		t.Error("CurrentUser should fail after logout")
	}
}

func TestLogout_Idempotent(t *testing.T) {
	repo := newFakeSessionRepo()
	svc := newTestService(&mockBackend{}, repo)

	// セッションが1つも無い状態でのログアウトはエラーにならない
	if err := svc.Logout(context.Background(), "no-such-session"); err != nil {
		t.Errorf("Logout of unknown session returned error: %v", err)
	}
	if err := svc.Logout(context.Background(), ""); err != nil {
		t.Errorf("Logout with empty session ID returned error: %v", err)
	}
	if repo.count() != 0 {
		t.Error("state must be unchanged")
	}
}

func TestCurrentUser_UnknownSession_ReturnsUnauthorized(t *testing.T) {
	svc := newTestService(&mockBackend{}, newFakeSessionRepo())

	_, err := svc.CurrentUser(context.Background(), "no-such-session")
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeUnauthorized {
		t.Errorf("expected UNAUTHORIZED, got %v", err)
	}
}

func TestCurrentUser_UnresolvedProfile_ReturnsProfilePending(t *testing.T) {
	repo := newFakeSessionRepo()
	if err := repo.Create(context.Background(), &model.Session{ID: "sess-1", Token: "tok123"}); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	svc := newTestService(&mockBackend{}, repo)

	_, err := svc.CurrentUser(context.Background(), "sess-1")
	if !errors.Is(err, model.ErrProfilePending) {
		t.Errorf("expected ErrProfilePending, got %v", err)
	}
}

func TestCurrentUser_ResolvedProfile_ReturnsUser(t *testing.T) {
	repo := newFakeSessionRepo()
	if err := repo.Create(context.Background(), &model.Session{
		ID:    "sess-1",
		Token: "tok123",
		User:  &model.AdminUser{ID: 1, Username: "admin", IsSuperuser: true},
	}); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	svc := newTestService(&mockBackend{}, repo)

	user, err := svc.CurrentUser(context.Background(), "sess-1")
	if err != nil {
		t.Fatalf("CurrentUser returned error: %v", err)
	}
	if user.ID != 1 || user.Username != "admin" || !user.IsSuperuser {
		t.Errorf("user = %+v, want {1 admin true}", user)
	}
}
