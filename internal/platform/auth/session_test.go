package auth

import (
	"context"
	"testing"

	"github.com/google/uuid"
)

func TestSessionFromContext_RoundTrip(t *testing.T) {
	sess := Session{UserID: uuid.New(), UserType: UserTypeDoctor, Email: "doc@example.com"}
	ctx := WithSession(context.Background(), sess)

	got, err := SessionFromContext(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != sess {
		t.Errorf("expected %+v, got %+v", sess, got)
	}
}

func TestSessionFromContext_Empty(t *testing.T) {
	if _, err := SessionFromContext(context.Background()); err != ErrNoSession {
		t.Errorf("expected ErrNoSession, got %v", err)
	}
}

func TestSessionFromContext_NilUserID(t *testing.T) {
	ctx := WithSession(context.Background(), Session{UserType: UserTypeCitizen})
	if _, err := SessionFromContext(ctx); err != ErrNoSession {
		t.Errorf("expected ErrNoSession, got %v", err)
	}
}

func TestSession_IsDoctor(t *testing.T) {
	if (Session{UserType: UserTypeCitizen}).IsDoctor() {
		t.Error("citizen should not be doctor")
	}
	if !(Session{UserType: UserTypeDoctor}).IsDoctor() {
		t.Error("doctor should be doctor")
	}
}
