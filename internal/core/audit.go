package core

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// AuditAction identifies what kind of change an audit entry records.
type AuditAction string

const (
	ActionUpload AuditAction = "upload"
	ActionEvict  AuditAction = "evict"
	ActionDelete AuditAction = "delete"
)

// AuditEntry records one data-modifying action against the dataset store.
type AuditEntry struct {
	ID          uuid.UUID   `json:"id"`
	Action      AuditAction `json:"action"`
	DatasetID   uuid.UUID   `json:"dataset_id"`
	DatasetName string      `json:"dataset_name"`
	Rows        int         `json:"rows"`
	IPAddress   string      `json:"ip_address,omitempty"`
	UserAgent   string      `json:"user_agent,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
}

type contextKey string

const (
	ctxKeyIPAddress contextKey = "audit_ip"
	ctxKeyUserAgent contextKey = "audit_ua"
)

// ContextWithIPAddress adds the client IP to the context for audit logging.
func ContextWithIPAddress(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, ctxKeyIPAddress, ip)
}

// ContextWithUserAgent adds the client User-Agent to the context for audit logging.
func ContextWithUserAgent(ctx context.Context, ua string) context.Context {
	return context.WithValue(ctx, ctxKeyUserAgent, ua)
}

// IPAddressFromContext extracts the client IP, or "" if absent.
func IPAddressFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyIPAddress).(string); ok {
		return v
	}
	return ""
}

// UserAgentFromContext extracts the client User-Agent, or "" if absent.
func UserAgentFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyUserAgent).(string); ok {
		return v
	}
	return ""
}
