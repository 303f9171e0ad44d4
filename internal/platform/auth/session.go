// Package auth validates bearer tokens and carries the authenticated
// session through request contexts.
package auth

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// User types recognised by the application.
const (
	UserTypeCitizen = "citizen"
	UserTypeDoctor  = "doctor"
)

// Session identifies the authenticated user for the duration of a request.
// It is resolved once by the middleware and passed explicitly into services.
type Session struct {
	UserID   uuid.UUID
	UserType string
	Email    string
}

// IsDoctor reports whether the session belongs to a medical professional.
func (s Session) IsDoctor() bool {
	return s.UserType == UserTypeDoctor
}

type contextKey string

const sessionKey contextKey = "auth_session"

// ErrNoSession is returned when a request context carries no session.
var ErrNoSession = errors.New("auth: no session in context")

// WithSession returns a context carrying the given session.
func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, sessionKey, s)
}

// SessionFromContext extracts the session placed by the middleware.
func SessionFromContext(ctx context.Context) (Session, error) {
	s, ok := ctx.Value(sessionKey).(Session)
	if !ok || s.UserID == uuid.Nil {
		return Session{}, ErrNoSession
	}
	return s, nil
}
