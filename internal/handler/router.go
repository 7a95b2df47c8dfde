package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/bookman/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	SessionFinder     middleware.SessionFinder
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	CSRFConfig        middleware.CSRFConfig
	Logger            *slog.Logger

	// 認証
	AuthService    AuthServiceInterface
	SessionRevoker SessionRevoker
	Cookie         CookieConfig

	// カタログ
	BookService    BookServiceInterface
	ChapterService ChapterServiceInterface
	QuizService    QuizServiceInterface

	// 監視（nil可）
	MetricsHandler http.Handler
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → CORS → SecurityHeaders → (保護ルートのみ) SessionGuard → Logging → CSRF → RateLimit
//
// ログインはセッションガードの外に置き、ログイン専用のIPレート制限を適用する。
// ログミドルウェアはセッションガードの内側に置き、session_idを記録できるようにする。
func NewRouter(deps *RouterDeps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewSecurityHeadersMiddleware())

	responder := &errorResponder{
		revoker: deps.SessionRevoker,
		cookie:  deps.Cookie,
	}

	authHandler := NewAuthHandler(deps.AuthService, deps.Cookie)
	bookHandler := NewBookHandler(deps.BookService, responder)
	chapterHandler := NewChapterHandler(deps.ChapterService, responder)
	quizHandler := NewQuizHandler(deps.QuizService, responder)

	// --- 認証不要のルート ---
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewLoggingMiddleware(logger))

		r.Get("/health", healthHandler)
		r.Method(http.MethodGet, "/api/csrf-token", middleware.NewCSRFTokenHandler(deps.CSRFConfig))

		r.Route("/auth", func(r chi.Router) {
			// POST /auth/login - ログイン専用のIPレート制限を追加
			r.With(deps.RateLimiter.LoginMiddleware()).Post("/login", authHandler.Login)
			r.Post("/logout", authHandler.Logout)
			r.Get("/me", authHandler.Me)
		})
	})

	// --- 認証が必要なルート ---
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewSessionGuard(deps.SessionFinder))
		r.Use(middleware.NewLoggingMiddleware(logger))
		r.Use(middleware.NewCSRFMiddleware(deps.CSRFConfig))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		// 書籍管理
		r.Route("/api/books", func(r chi.Router) {
			r.Get("/", bookHandler.ListBooks)
			r.Post("/", bookHandler.CreateBook)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", bookHandler.GetBook)
				r.Put("/", bookHandler.UpdateBook)
				r.Delete("/", bookHandler.DeleteBook)
			})
		})

		// 章管理
		r.Route("/api/chapters", func(r chi.Router) {
			r.Get("/", chapterHandler.ListChapters)
			r.Post("/", chapterHandler.CreateChapter)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", chapterHandler.GetChapter)
				r.Put("/", chapterHandler.UpdateChapter)
				r.Delete("/", chapterHandler.DeleteChapter)
			})
		})

		// クイズ管理
		r.Route("/api/quizzes", func(r chi.Router) {
			r.Post("/", quizHandler.CreateQuiz)
			r.Get("/by-chapter/{chapterID}", quizHandler.GetQuizByChapter)

			r.Route("/{id}", func(r chi.Router) {
				r.Put("/", quizHandler.UpdateQuiz)
				r.Delete("/", quizHandler.DeleteQuiz)
				r.Post("/questions", quizHandler.CreateQuestion)
			})

			// 設問・選択肢はクイズ横断のIDでアクセスする
			r.Route("/questions/{id}", func(r chi.Router) {
				r.Put("/", quizHandler.UpdateQuestion)
				r.Delete("/", quizHandler.DeleteQuestion)
				r.Post("/options", quizHandler.CreateOption)
			})

			r.Route("/options/{id}", func(r chi.Router) {
				r.Put("/", quizHandler.UpdateOption)
				r.Delete("/", quizHandler.DeleteOption)
			})
		})
	})

	// メトリクスはアクセスログを出さない
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	return r
}

// healthHandler はロードバランサー向けの死活応答を返す。
func healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
