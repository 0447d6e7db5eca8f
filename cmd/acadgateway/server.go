package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"acadgateway/internal/constants"
	"acadgateway/internal/database"
	gwerrors "acadgateway/internal/errors"
	"acadgateway/internal/logging"
	"acadgateway/internal/middleware"
	"acadgateway/internal/models"
	"acadgateway/pkg/whatsapp"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"
)

var (
	readTimeout     = time.Duration(constants.DefaultReadTimeoutSec) * time.Second
	messagesTimeout = time.Duration(constants.DefaultMessagesTimeoutSec) * time.Second
	mediaTimeout    = time.Duration(constants.DefaultMediaTimeoutSec) * time.Second
)

// route describes one forwarded endpoint: the caller-facing path, the
// matching upstream path, whether the pre-flight credential check
// applies, and the per-call timeout.
type route struct {
	method       string
	path         string
	upstreamPath string
	authRequired bool
	timeout      time.Duration
}

// passthroughRoutes is the catalog of endpoints relayed verbatim. Path
// variables ({group_id}, {jid}) are substituted into the upstream path.
func passthroughRoutes() []route {
	var routes []route

	messaging := []string{
		"/api/send", "/api/send-location", "/api/send-contact",
		"/api/send-poll", "/api/reply", "/api/react",
		"/api/edit-message", "/api/delete-message",
	}
	for _, p := range messaging {
		routes = append(routes, route{http.MethodPost, p, p, true, readTimeout})
	}
	routes = append(routes,
		route{http.MethodPost, "/api/send-media", "/api/send-media", true, mediaTimeout},
		route{http.MethodPost, "/api/download-media", "/api/download-media", true, mediaTimeout},
	)

	group := []string{
		"/api/group/create", "/api/group/update-subject",
		"/api/group/update-description", "/api/group/add-participants",
		"/api/group/remove-participants", "/api/group/promote",
		"/api/group/demote", "/api/group/update-settings",
		"/api/group/leave", "/api/group/revoke-invite",
		"/api/group/accept-invite",
	}
	for _, p := range group {
		routes = append(routes, route{http.MethodPost, p, p, true, readTimeout})
	}
	routes = append(routes,
		route{http.MethodGet, "/api/group/{group_id}/invite-code", "/api/group/{group_id}/invite-code", true, readTimeout},
	)

	chat := []string{
		"/api/chat/read", "/api/chat/archive", "/api/chat/pin",
		"/api/chat/mute", "/api/chat/delete",
	}
	for _, p := range chat {
		routes = append(routes, route{http.MethodPost, p, p, true, readTimeout})
	}

	routes = append(routes,
		route{http.MethodGet, "/api/profile-picture/{jid}", "/api/profile-picture/{jid}", true, mediaTimeout},
		route{http.MethodGet, "/api/user/{jid}/status", "/api/user/{jid}/status", true, readTimeout},
		route{http.MethodGet, "/api/user/{jid}/exists", "/api/user/{jid}/exists", true, readTimeout},
		route{http.MethodGet, "/api/business/{jid}/profile", "/api/business/{jid}/profile", true, readTimeout},
		route{http.MethodPost, "/api/profile/update-name", "/api/profile/update-name", true, readTimeout},
		route{http.MethodPost, "/api/profile/update-status", "/api/profile/update-status", true, readTimeout},
		route{http.MethodPost, "/api/user/block", "/api/user/block", true, readTimeout},
		route{http.MethodPost, "/api/presence/update", "/api/presence/update", true, readTimeout},
		route{http.MethodPost, "/api/presence/subscribe", "/api/presence/subscribe", true, readTimeout},
	)

	return routes
}

type Server struct {
	cfg     *models.Config
	router  *mux.Router
	handler http.Handler
	logger  *logrus.Logger
	client  *whatsapp.Client
	db      *database.Database
	server  *http.Server
}

func NewServer(cfg *models.Config, client *whatsapp.Client, db *database.Database, logger *logrus.Logger) *Server {
	s := &Server{
		cfg:    cfg,
		router: mux.NewRouter(),
		logger: logger,
		client: client,
		db:     db,
	}

	s.setupRoutes()

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	s.handler = corsHandler.Handler(middleware.Observability(logger)(s.router))
	return s
}

func (s *Server) setupRoutes() {
	s.router.HandleFunc("/", s.handleRoot()).Methods(http.MethodGet)
	s.router.HandleFunc("/health", s.handleHealth()).Methods(http.MethodGet)
	s.router.HandleFunc("/metrics", s.handleMetrics()).Methods(http.MethodGet)

	auth := s.router.PathPrefix("/api/auth").Subrouter()
	auth.HandleFunc("/register", s.handleRegister()).Methods(http.MethodPost)
	auth.HandleFunc("/login", s.handleLogin()).Methods(http.MethodPost)

	wa := s.router.PathPrefix("/api/whatsapp").Subrouter()
	wa.HandleFunc("/status", s.handleStatus()).Methods(http.MethodGet)
	wa.HandleFunc("/groups", s.handleGroups()).Methods(http.MethodGet)
	wa.HandleFunc("/messages/{group_id}", s.handleMessages()).Methods(http.MethodGet)

	for _, rt := range passthroughRoutes() {
		s.router.HandleFunc(rt.path, s.handleProxy(rt)).Methods(rt.method)
	}
}

func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.cfg.Server.Port),
		Handler:      s.handler,
		ReadTimeout:  time.Duration(constants.DefaultServerReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(constants.DefaultServerWriteTimeoutSec) * time.Second,
		IdleTimeout:  time.Duration(constants.DefaultServerIdleTimeoutSec) * time.Second,
	}

	s.logger.Infof("Starting server on port %d", s.cfg.Server.Port)
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Handler returns the fully wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// handleProxy relays a request to the upstream service unchanged,
// attaching the resolved credential headers and applying the route's
// pre-flight check and timeout.
func (s *Server) handleProxy(rt route) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		forwardedAuth := r.Header.Get("Authorization")

		if rt.authRequired && !s.client.HasCredential(forwardedAuth) {
			s.writeError(w, r, gwerrors.NewAuthRequired())
			return
		}

		upstreamPath := rt.upstreamPath
		for name, value := range mux.Vars(r) {
			upstreamPath = strings.ReplaceAll(upstreamPath, "{"+name+"}", value)
		}

		ctx, cancel := context.WithTimeout(r.Context(), rt.timeout)
		defer cancel()

		var body io.Reader
		if r.Method != http.MethodGet {
			body = r.Body
		}

		data, err := s.client.Forward(ctx, rt.method, upstreamPath, r.URL.RawQuery, body, forwardedAuth)
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if _, err := w.Write(data); err != nil {
			s.logger.WithError(err).Warn("Failed to write proxied response")
		}
	}
}

func (s *Server) handleStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readTimeout)
		defer cancel()

		status, err := s.client.GetStatus(ctx, r.Header.Get("Authorization"))
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		s.writeJSON(w, http.StatusOK, status)
	}
}

func (s *Server) handleGroups() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		forwardedAuth := r.Header.Get("Authorization")
		if !s.client.HasCredential(forwardedAuth) {
			s.writeError(w, r, gwerrors.NewAuthRequired())
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), readTimeout)
		defer cancel()

		groups, err := s.client.GetGroups(ctx, forwardedAuth)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		s.writeJSON(w, http.StatusOK, groups)
	}
}

func (s *Server) handleMessages() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		forwardedAuth := r.Header.Get("Authorization")
		if !s.client.HasCredential(forwardedAuth) {
			s.writeError(w, r, gwerrors.NewAuthRequired())
			return
		}

		groupID := mux.Vars(r)["group_id"]

		limit := constants.DefaultMessageLimit
		if raw := r.URL.Query().Get("limit"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed <= 0 {
				s.writeError(w, r, gwerrors.New(gwerrors.ErrCodeInvalidInput, http.StatusBadRequest,
					fmt.Sprintf("invalid limit: %q", raw)))
				return
			}
			limit = parsed
		}

		ctx, cancel := context.WithTimeout(r.Context(), messagesTimeout)
		defer cancel()

		messages, err := s.client.GetMessages(ctx, groupID, limit, forwardedAuth)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		s.writeJSON(w, http.StatusOK, messages)
	}
}

func (s *Server) handleRoot() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.writeJSON(w, http.StatusOK, map[string]interface{}{
			"message": "Academic Manager API",
			"status":  "active",
			"version": Version,
			"whatsapp": map[string]interface{}{
				"service_url":        s.cfg.WhatsApp.ServiceURL,
				"api_key_configured": s.cfg.WhatsApp.APIKey != "",
			},
			"endpoints": map[string]string{
				"status":   "/api/whatsapp/status",
				"groups":   "/api/whatsapp/groups",
				"messages": "/api/whatsapp/messages/{group_id}",
				"health":   "/health",
				"metrics":  "/metrics",
			},
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	}
}

func (s *Server) handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.writeJSON(w, http.StatusOK, map[string]interface{}{
			"status":           "healthy",
			"service":          "Academic Manager API",
			"whatsapp_service": s.cfg.WhatsApp.ServiceURL,
			"api_key_present":  s.cfg.WhatsApp.APIKey != "",
			"timestamp":        time.Now().UTC().Format(time.RFC3339),
		})
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.WithError(err).Error("Failed to encode response")
	}
}

// writeError converts a gateway error to its HTTP response at the one
// boundary point.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	s.logger.WithFields(logrus.Fields{
		logging.FieldMethod:     r.Method,
		logging.FieldURL:        r.URL.Path,
		logging.FieldErrorCode:  string(gwerrors.GetCode(err)),
		logging.FieldStatusCode: gwerrors.StatusCode(err),
	}).WithError(err).Warn("Request failed")

	s.writeJSON(w, gwerrors.StatusCode(err), map[string]string{
		"error": gwerrors.Message(err),
	})
}
