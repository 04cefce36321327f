package auth

import (
	"testing"
	"time"
)

func TestTicketRoundTrip(t *testing.T) {
	issuer := NewTicketIssuer("test-secret", time.Hour)

	ticket, err := issuer.Issue("alice", "Alice")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	userID, displayName, err := issuer.Verify(ticket)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if userID != "alice" || displayName != "Alice" {
		t.Fatalf("got %q/%q, want alice/Alice", userID, displayName)
	}
}

func TestTicketWrongSecretRejected(t *testing.T) {
	ticket, err := NewTicketIssuer("secret-a", time.Hour).Issue("alice", "Alice")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, _, err := NewTicketIssuer("secret-b", time.Hour).Verify(ticket); err != ErrInvalidTicket {
		t.Fatalf("expected ErrInvalidTicket, got %v", err)
	}
}

func TestTicketExpiryRejected(t *testing.T) {
	issuer := NewTicketIssuer("test-secret", -time.Minute)
	ticket, err := issuer.Issue("alice", "Alice")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, _, err := issuer.Verify(ticket); err != ErrInvalidTicket {
		t.Fatalf("expected ErrInvalidTicket for expired ticket, got %v", err)
	}
}

func TestTicketGarbageRejected(t *testing.T) {
	issuer := NewTicketIssuer("test-secret", time.Hour)
	if _, _, err := issuer.Verify("not-a-token"); err != ErrInvalidTicket {
		t.Fatalf("expected ErrInvalidTicket, got %v", err)
	}
}
