package web

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrijs2005/sitekeeper/internal/common"
	"github.com/dmitrijs2005/sitekeeper/internal/server/auth"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

type responseRecorder struct {
	b      int
	status int
	w      http.ResponseWriter
}

func (r *responseRecorder) Header() http.Header { return r.w.Header() }

func (r *responseRecorder) Write(p []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	n, err := r.w.Write(p)
	r.b += n
	return n, err
}

func (r *responseRecorder) WriteHeader(statusCode int) {
	if r.status == 0 {
		r.status = statusCode
	}
	r.w.WriteHeader(statusCode)
}

// accessLog assigns a request id, then logs and measures the request once
// it completes. Form values are never logged.
func (s *HTTPServer) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.NewString()
		ctx := context.WithValue(r.Context(), ctxKeyRequestID{}, requestID)
		w.Header().Set("X-Request-Id", requestID)

		start := time.Now()
		rr := &responseRecorder{w: w}
		next.ServeHTTP(rr, r.WithContext(ctx))

		status := rr.status
		if status == 0 {
			status = http.StatusOK
		}
		elapsed := time.Since(start)
		route := routeTemplate(r)

		s.metrics.ObserveRequest(route, r.Method, status, elapsed)
		s.logger.Info(ctx, "request complete",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"route", route,
			"status", status,
			"bytes", rr.b,
			"took_ms", elapsed.Milliseconds(),
		)
	})
}

func routeTemplate(r *http.Request) string {
	route := mux.CurrentRoute(r)
	if route == nil {
		return "unmatched"
	}
	tpl, err := route.GetPathTemplate()
	if err != nil {
		return "unmatched"
	}
	return tpl
}

// checkOrigin rejects state-changing requests whose Origin (or Referer) names
// another host. Requests carrying neither header are let through; the
// SameSite=Lax session cookie already keeps cross-site form posts anonymous.
func (s *HTTPServer) checkOrigin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
		default:
			if !sameOrigin(r) {
				s.logger.Warn(r.Context(), "cross-origin request rejected",
					"request_id", RequestID(r.Context()), "path", r.URL.Path, "origin", r.Header.Get("Origin"))
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func sameOrigin(r *http.Request) bool {
	src := r.Header.Get("Origin")
	if src == "" {
		src = r.Header.Get("Referer")
	}
	if src == "" {
		return true
	}

	u, err := url.Parse(src)
	if err != nil || u.Host == "" {
		return false
	}
	return strings.EqualFold(u.Host, r.Host)
}

// loadIdentity resolves the session cookie into an Identity stored in the
// request context. A cookie that no longer maps to a live session is cleared.
func (s *HTTPServer) loadIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie(common.SessionCookieName)
		if err != nil || c.Value == "" {
			next.ServeHTTP(w, r)
			return
		}

		token, err := auth.GetSessionIDFromToken(c.Value, s.jwtSecret)
		if err != nil {
			s.clearSessionCookie(w)
			next.ServeHTTP(w, r)
			return
		}

		user, err := s.users.CurrentUser(r.Context(), token)
		switch {
		case err == nil:
			r = r.WithContext(WithIdentity(r.Context(), Identity{Token: token, User: user}))
		case errors.Is(err, common.ErrorUnauthorized):
			s.clearSessionCookie(w)
		default:
			s.serverError(w, r, err)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// requireSession sends anonymous callers to the login page.
func (s *HTTPServer) requireSession(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := IdentityFrom(r.Context()); !ok {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		next(w, r)
	})
}

func (s *HTTPServer) setSessionCookie(w http.ResponseWriter, value string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     common.SessionCookieName,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   s.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *HTTPServer) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     common.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}
