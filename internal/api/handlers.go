package api

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/goulartxls/generate-qr-code-evogo/internal/security"
)

// handleHealth responds to liveness probes
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	SendJSONSuccess(w, nil, "ok")
}

// handleCreate creates a new instance at the gateway. The proxy mints
// the instance token itself so the master key never reaches clients;
// the minted token is appended to the gateway's response.
func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		SendJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		SendJSONError(w, "Instance name is required", http.StatusBadRequest)
		return
	}

	token := uuid.NewString()
	result, err := s.gateway.CreateInstance(s.masterKey, req.Name, token)
	if err != nil {
		s.logger.Errorf("create: %v", err)
		SendJSONError(w, "Failed to create instance", http.StatusInternalServerError)
		return
	}

	// Merge the minted token into the upstream body
	body := map[string]interface{}{}
	if err := json.Unmarshal(result.Body, &body); err != nil {
		body = map[string]interface{}{}
	}
	body["token"] = token

	merged, err := json.Marshal(body)
	if err != nil {
		SendJSONError(w, "Failed to create instance", http.StatusInternalServerError)
		return
	}

	if result.Status >= 200 && result.Status < 300 {
		security.LogInstanceCreated(clientIP(r), req.Name)
	}
	s.logger.Infof("create: %s -> %d", req.Name, result.Status)
	SendPassthrough(w, result.Status, merged)
}

// handleStatus forwards a connection status query
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		SendJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	result, err := s.gateway.Status(BearerToken(r))
	if err != nil {
		s.logger.Errorf("status: %v", err)
		SendJSONError(w, "Failed to get status", http.StatusInternalServerError)
		return
	}
	SendPassthrough(w, result.Status, result.Body)
}

// handleQR forwards a QR payload request
func (s *Server) handleQR(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		SendJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	result, err := s.gateway.QR(BearerToken(r))
	if err != nil {
		s.logger.Errorf("qr: %v", err)
		SendJSONError(w, "Failed to get QR code", http.StatusInternalServerError)
		return
	}
	s.logger.Debugf("qr: %d (%d bytes)", result.Status, len(result.Body))
	SendPassthrough(w, result.Status, result.Body)
}

// handlePair forwards a pairing-code request for the posted phone number
func (s *Server) handlePair(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		SendJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Phone string `json:"phone"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Phone == "" {
		SendJSONError(w, "Phone number is required", http.StatusBadRequest)
		return
	}

	result, err := s.gateway.Pair(BearerToken(r), req.Phone)
	if err != nil {
		s.logger.Errorf("pair: %v", err)
		SendJSONError(w, "Failed to pair instance", http.StatusInternalServerError)
		return
	}
	s.logger.Infof("pair: %s -> %d", req.Phone, result.Status)
	SendPassthrough(w, result.Status, result.Body)
}

// handleDisconnect forwards a disconnect request
func (s *Server) handleDisconnect(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		SendJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	result, err := s.gateway.Disconnect(BearerToken(r))
	if err != nil {
		s.logger.Errorf("disconnect: %v", err)
		SendJSONError(w, "Failed to disconnect instance", http.StatusInternalServerError)
		return
	}
	SendPassthrough(w, result.Status, result.Body)
}

// handleLogout forwards a logout request
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		SendJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	result, err := s.gateway.Logout(BearerToken(r))
	if err != nil {
		s.logger.Errorf("logout: %v", err)
		SendJSONError(w, "Failed to logout instance", http.StatusInternalServerError)
		return
	}
	SendPassthrough(w, result.Status, result.Body)
}
