package handler

import (
	"net"
	"net/http"
	"strings"

	"movie-watchlist/internal/middleware"
	"movie-watchlist/internal/model"
)

func actorFromRequest(r *http.Request) model.AuditActor {
	actor := model.AuditActor{IP: clientIP(r)}

	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		return actor
	}

	actor.UserID = principal.User.ID
	actor.Username = principal.User.Username
	actor.Role = principal.User.Role

	return actor
}

func clientIP(r *http.Request) string {
	if xff := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}

	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}

	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err == nil {
		return host
	}

	return strings.TrimSpace(r.RemoteAddr)
}
