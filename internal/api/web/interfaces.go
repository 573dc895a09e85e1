package web

import (
	"github.com/futig/rag-assistant/internal/session"
)

// SessionStore hands out the session bound to a browser cookie
type SessionStore interface {
	GetOrCreate(id string) *session.Session
	// Touch keeps the session from expiring while a live view is open
	Touch(id string)
}
