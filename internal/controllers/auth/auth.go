package auth

import (
	"log/slog"
	"net/http"
	"strings"

	"google.golang.org/api/idtoken"
)

// TaskVerifier は Cloud Tasks からのリクエストに付与される OIDC トークンを検証します。
// ワーカーエンドポイントはこのミドルウェア越しにのみ公開します。
type TaskVerifier struct {
	audience string
}

func NewTaskVerifier(audience string) *TaskVerifier {
	return &TaskVerifier{audience: audience}
}

// Middleware は Authorization ヘッダーの ID トークンを検証するミドルウェアです。
func (v *TaskVerifier) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			slog.Warn("認証ヘッダーが欠落しています")
			http.Error(w, "Unauthorized: OIDC token required", http.StatusUnauthorized)
			return
		}

		// 設定ミスにより Audience が空の場合は、安全のためにすべてのリクエストを拒否する
		if v.audience == "" {
			slog.Error("Critical Config Error: TaskAudienceURL is not configured. Rejecting all task requests.")
			http.Error(w, "Internal Server Configuration Error", http.StatusInternalServerError)
			return
		}

		token := strings.TrimPrefix(authHeader, "Bearer ")

		// 明示的な Audience を指定して ID トークンを検証
		payload, err := idtoken.Validate(r.Context(), token, v.audience)
		if err != nil {
			slog.Warn("IDトークンの検証に失敗しました",
				"error", err,
				"audience", v.audience,
			)
			// クライアントには汎用的なエラーメッセージを返す
			http.Error(w, "Invalid OIDC token", http.StatusForbidden)
			return
		}

		slog.Debug("Cloud Tasks 認証成功", "sub", payload.Subject)
		next.ServeHTTP(w, r)
	})
}
