package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/Freeeeeet/appointment_bot/internal/model"
)

type ctxKey struct{}

// authMiddleware проверяет Bearer токен и кладёт principal в контекст запроса
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			s.writeError(w, r, model.ErrUnauthenticated)
			return
		}

		principal, err := s.services.Identity.Authenticate(strings.TrimSpace(token))
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, principal)))
	})
}

// principalFrom principal текущего запроса; nil вне authMiddleware
func principalFrom(ctx context.Context) *model.Principal {
	p, _ := ctx.Value(ctxKey{}).(*model.Principal)
	return p
}
