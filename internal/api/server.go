// Package api implements the local proxy surface consumed by the
// onboarding wizard and dashboard. Every /api/instance endpoint
// forwards to the Evolution gateway, translating the local bearer
// token into the gateway's Apikey header.
package api

import (
	"fmt"
	"net/http"

	waLog "go.mau.fi/whatsmeow/util/log"

	"github.com/goulartxls/generate-qr-code-evogo/internal/evolution"
)

// Server is the HTTP proxy server for the onboarding panel.
type Server struct {
	gateway   *evolution.Client
	masterKey string
	port      int
	logger    waLog.Logger
	mux       *http.ServeMux
}

// NewServer creates a new proxy server with the given dependencies.
//
// Parameters:
//   - gateway: client for the upstream Evolution API
//   - masterKey: gateway master key, used only for instance creation
//   - port: TCP port to listen on (e.g., 3001)
//   - logger: component logger
func NewServer(gateway *evolution.Client, masterKey string, port int, logger waLog.Logger) *Server {
	s := &Server{
		gateway:   gateway,
		masterKey: masterKey,
		port:      port,
		logger:    logger,
		mux:       http.NewServeMux(),
	}
	s.registerHandlers()
	return s
}

// Handler returns the server's HTTP handler, for tests and embedding
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Start launches the HTTP server in a background goroutine.
// This method returns immediately; use a blocking mechanism in main().
func (s *Server) Start() {
	serverAddr := fmt.Sprintf(":%d", s.port)
	s.logger.Infof("Starting proxy server on %s", serverAddr)

	// Run server in a goroutine so it doesn't block
	go func() {
		if err := http.ListenAndServe(serverAddr, s.mux); err != nil {
			s.logger.Errorf("Proxy server error: %v", err)
		}
	}()
}

// registerHandlers sets up all API routes with security middleware.
// Instance creation needs no bearer token (it mints one); everything
// else requires the instance token it forwards upstream.
func (s *Server) registerHandlers() {
	// Health check - no auth (for Docker healthcheck / load balancers)
	s.mux.HandleFunc("/api/health", OpenMiddleware(s.handleHealth))

	s.mux.HandleFunc("/api/instance/create", OpenMiddleware(s.handleCreate))
	s.mux.HandleFunc("/api/instance/status", SecureMiddleware(s.handleStatus))
	s.mux.HandleFunc("/api/instance/qr", SecureMiddleware(s.handleQR))
	s.mux.HandleFunc("/api/instance/pair", SecureMiddleware(s.handlePair))
	s.mux.HandleFunc("/api/instance/disconnect", SecureMiddleware(s.handleDisconnect))
	s.mux.HandleFunc("/api/instance/logout", SecureMiddleware(s.handleLogout))
}
