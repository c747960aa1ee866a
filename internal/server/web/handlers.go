package web

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/dmitrijs2005/sitekeeper/internal/common"
	"github.com/dmitrijs2005/sitekeeper/internal/server/auth"
	"github.com/gorilla/mux"
)

const healthTimeout = 2 * time.Second

const invalidCredentialsMessage = "Invalid username or password"

func (s *HTTPServer) indexHandler(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, pageIndex, &PageData{Title: "Sitekeeper"})
}

func (s *HTTPServer) registerFormHandler(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, pageRegister, &PageData{Title: "Register"})
}

func (s *HTTPServer) registerHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	username := r.PostFormValue(common.FieldUsername)
	password := r.PostFormValue(common.FieldPassword)
	confirm := r.PostFormValue(common.FieldConfirmPassword)

	user, err := s.users.Register(r.Context(), username, password, confirm)
	if err == nil {
		s.metrics.Auth("register", "ok")
		s.logger.Info(r.Context(), "user registered", "user_id", user.ID, "request_id", RequestID(r.Context()))
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	data := &PageData{
		Title: "Register",
		Form:  map[string]string{common.FieldUsername: username},
	}

	var ve *common.ValidationError
	switch {
	case errors.As(err, &ve):
		s.metrics.Auth("register", "invalid")
		data.Errors = map[string]string{ve.Field: validationMessage(ve)}
		s.render(w, r, http.StatusUnprocessableEntity, pageRegister, data)
	case errors.Is(err, common.ErrorUsernameTaken):
		s.metrics.Auth("register", "conflict")
		data.Errors = map[string]string{common.FieldUsername: "Username already taken."}
		s.render(w, r, http.StatusConflict, pageRegister, data)
	default:
		s.metrics.Auth("register", "error")
		s.serverError(w, r, err)
	}
}

func (s *HTTPServer) loginFormHandler(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, pageLogin, &PageData{Title: "Log in"})
}

func (s *HTTPServer) loginHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	username := r.PostFormValue(common.FieldUsername)
	password := r.PostFormValue(common.FieldPassword)

	token, session, err := s.users.Login(r.Context(), username, password)
	if err != nil {
		data := &PageData{
			Title: "Log in",
			Form:  map[string]string{common.FieldUsername: username},
		}

		var ve *common.ValidationError
		switch {
		case errors.As(err, &ve):
			s.metrics.Auth("login", "invalid")
			data.Errors = map[string]string{ve.Field: validationMessage(ve)}
			s.render(w, r, http.StatusUnprocessableEntity, pageLogin, data)
		case errors.Is(err, common.ErrorInvalidCredentials):
			s.metrics.Auth("login", "rejected")
			data.Message = invalidCredentialsMessage
			s.render(w, r, http.StatusUnauthorized, pageLogin, data)
		default:
			s.metrics.Auth("login", "error")
			s.serverError(w, r, err)
		}
		return
	}

	signed, err := auth.GenerateToken(token, s.jwtSecret, session.ExpiresAt)
	if err != nil {
		s.metrics.Auth("login", "error")
		s.serverError(w, r, err)
		return
	}

	// a login on top of an existing session replaces it
	if prev, ok := IdentityFrom(r.Context()); ok {
		if err := s.users.Logout(r.Context(), prev.Token); err != nil {
			s.logger.Warn(r.Context(), "failed to revoke previous session", "user_id", prev.User.ID, "error", err)
		}
	}

	s.setSessionCookie(w, signed, session.ExpiresAt)
	s.metrics.Auth("login", "ok")
	s.logger.Info(r.Context(), "user logged in", "user_id", session.UserID, "request_id", RequestID(r.Context()))
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

func (s *HTTPServer) logoutHandler(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFrom(r.Context())

	s.clearSessionCookie(w)
	if err := s.users.Logout(r.Context(), id.Token); err != nil {
		s.metrics.Auth("logout", "error")
		s.serverError(w, r, err)
		return
	}

	s.metrics.Auth("logout", "ok")
	s.logger.Info(r.Context(), "user logged out", "user_id", id.User.ID, "request_id", RequestID(r.Context()))
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *HTTPServer) dashboardHandler(w http.ResponseWriter, r *http.Request) {
	s.renderDashboard(w, r, http.StatusOK, &PageData{})
}

func (s *HTTPServer) addWebsiteHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	id, _ := IdentityFrom(r.Context())
	name := r.PostFormValue(common.FieldWebsiteName)
	rawURL := r.PostFormValue(common.FieldWebsiteURL)

	website, err := s.websites.Add(r.Context(), id.Token, name, rawURL)
	if err == nil {
		s.metrics.Website("add", "ok")
		s.logger.Info(r.Context(), "website added", "user_id", id.User.ID, "website_id", website.ID, "request_id", RequestID(r.Context()))
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}

	var ve *common.ValidationError
	if errors.As(err, &ve) {
		s.metrics.Website("add", "invalid")
		s.renderDashboard(w, r, http.StatusUnprocessableEntity, &PageData{
			Form: map[string]string{
				common.FieldWebsiteName: name,
				common.FieldWebsiteURL:  rawURL,
			},
			Errors: map[string]string{ve.Field: validationMessage(ve)},
		})
		return
	}

	s.metrics.Website("add", "error")
	s.serverError(w, r, err)
}

func (s *HTTPServer) deleteWebsiteHandler(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFrom(r.Context())

	websiteID, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		// out of range for an id, so nothing to delete
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}

	err = s.websites.DeleteOwned(r.Context(), id.Token, websiteID)
	switch {
	case err == nil:
		s.metrics.Website("delete", "ok")
	case errors.Is(err, common.ErrorForbidden):
		s.metrics.Website("delete", "forbidden")
		s.logger.Warn(r.Context(), "refused to delete foreign website",
			"user_id", id.User.ID, "website_id", websiteID, "request_id", RequestID(r.Context()))
	default:
		s.metrics.Website("delete", "error")
		s.serverError(w, r, err)
		return
	}

	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

func (s *HTTPServer) renderDashboard(w http.ResponseWriter, r *http.Request, status int, data *PageData) {
	id, _ := IdentityFrom(r.Context())

	websites, err := s.websites.ListOwned(r.Context(), id.Token)
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	data.Title = "Dashboard"
	data.Websites = websites
	s.render(w, r, status, pageDashboard, data)
}

func (s *HTTPServer) healthHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if err := s.db.PingContext(ctx); err != nil {
		s.logger.Warn(r.Context(), "health check failed", "error", err)
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("unavailable\n"))
		return
	}
	_, _ = w.Write([]byte("ok\n"))
}

func (s *HTTPServer) notFoundHandler(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusNotFound, pageError, &PageData{Title: "Not found", Message: "Page not found."})
}

func (s *HTTPServer) methodNotAllowedHandler(w http.ResponseWriter, r *http.Request) {
	http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
}

// serverError maps service errors that are not the caller's fault to a
// response. A session that vanished mid-request sends the caller to login.
func (s *HTTPServer) serverError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()

	switch {
	case errors.Is(err, common.ErrorUnauthorized):
		s.clearSessionCookie(w)
		http.Redirect(w, r, "/login", http.StatusSeeOther)
	case errors.Is(err, common.ErrorStoreBusy):
		s.logger.Warn(ctx, "store busy", "error", err, "request_id", RequestID(ctx))
		w.Header().Set("Retry-After", "1")
		s.render(w, r, http.StatusServiceUnavailable, pageError, &PageData{
			Title:   "Busy",
			Message: "The service is busy, please try again in a moment.",
		})
	default:
		s.logger.Error(ctx, "request failed", "error", err, "request_id", RequestID(ctx))
		s.render(w, r, http.StatusInternalServerError, pageError, &PageData{
			Title:   "Error",
			Message: "Internal server error.",
		})
	}
}

func validationMessage(ve *common.ValidationError) string {
	switch {
	case errors.Is(ve.Err, common.ErrorMissingField):
		return "This field is required."
	case errors.Is(ve.Err, common.ErrorPasswordMismatch):
		return "Passwords must match."
	case errors.Is(ve.Err, common.ErrorInvalidURL):
		return "Enter a valid http:// or https:// URL."
	default:
		return "Invalid value."
	}
}
