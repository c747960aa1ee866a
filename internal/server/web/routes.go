package web

import (
	"net/http"

	"github.com/gorilla/mux"
)

// Handler builds the router with every page, the health probe and metrics.
func (s *HTTPServer) Handler() http.Handler {
	r := mux.NewRouter()

	r.Use(s.accessLog, s.checkOrigin, s.loadIdentity)
	r.NotFoundHandler = s.accessLog(http.HandlerFunc(s.notFoundHandler))
	r.MethodNotAllowedHandler = s.accessLog(http.HandlerFunc(s.methodNotAllowedHandler))

	r.HandleFunc("/", s.indexHandler).Methods(http.MethodGet, http.MethodHead)

	r.HandleFunc("/register", s.registerFormHandler).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc("/register", s.registerHandler).Methods(http.MethodPost)

	r.HandleFunc("/login", s.loginFormHandler).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc("/login", s.loginHandler).Methods(http.MethodPost)

	r.Handle("/logout", s.requireSession(s.logoutHandler)).Methods(http.MethodGet)

	r.Handle("/dashboard", s.requireSession(s.dashboardHandler)).Methods(http.MethodGet, http.MethodHead)
	r.Handle("/dashboard", s.requireSession(s.addWebsiteHandler)).Methods(http.MethodPost)
	r.Handle("/dashboard/{id:[0-9]+}/delete", s.requireSession(s.deleteWebsiteHandler)).Methods(http.MethodPost)

	r.HandleFunc("/healthz", s.healthHandler).Methods(http.MethodGet)
	r.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)

	return r
}
