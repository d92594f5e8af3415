package security

import (
	"encoding/json"
	"log"
	"os"
	"time"
)

// AuditLogger logs security-relevant events
type AuditLogger struct {
	logger *log.Logger
}

// AuditEvent represents a security audit event
type AuditEvent struct {
	Timestamp string `json:"timestamp"`
	EventType string `json:"event_type"`
	IP        string `json:"ip,omitempty"`
	UserAgent string `json:"user_agent,omitempty"`
	Resource  string `json:"resource,omitempty"`
	Status    string `json:"status"` // success, failure, blocked
	Details   string `json:"details,omitempty"`
}

var defaultAuditLogger *AuditLogger

func init() {
	defaultAuditLogger = NewAuditLogger()
}

// NewAuditLogger creates a new audit logger
func NewAuditLogger() *AuditLogger {
	return &AuditLogger{
		logger: log.New(os.Stdout, "[AUDIT] ", log.LstdFlags),
	}
}

// Log logs an audit event
func (a *AuditLogger) Log(event AuditEvent) {
	event.Timestamp = time.Now().UTC().Format(time.RFC3339)
	data, err := json.Marshal(event)
	if err != nil {
		a.logger.Printf("ERROR marshaling audit event: %v", err)
		return
	}
	a.logger.Println(string(data))
}

// LogAuthFailure logs a request rejected for a missing or empty bearer token
func LogAuthFailure(ip, userAgent, details string) {
	defaultAuditLogger.Log(AuditEvent{
		EventType: "auth_failure",
		IP:        ip,
		UserAgent: userAgent,
		Status:    "failure",
		Details:   details,
	})
}

// LogRateLimitExceeded logs rate limit violations
func LogRateLimitExceeded(ip string) {
	defaultAuditLogger.Log(AuditEvent{
		EventType: "rate_limit_exceeded",
		IP:        ip,
		Status:    "blocked",
	})
}

// LogInstanceCreated logs creation of a new instance through the proxy
func LogInstanceCreated(ip, name string) {
	defaultAuditLogger.Log(AuditEvent{
		EventType: "instance_created",
		IP:        ip,
		Resource:  name,
		Status:    "success",
	})
}
