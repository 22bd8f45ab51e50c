package core

import (
	"errors"
	"testing"
)

func TestResolveConversationID_Deterministic(t *testing.T) {
	id, err := ResolveConversationID("alice", "bob")
	if err != nil {
		t.Fatalf("ResolveConversationID returned error: %v", err)
	}
	if id != "alice_bob" {
		t.Fatalf("expected alice_bob, got %q", id)
	}
}

func TestResolveConversationID_OrderInvariant(t *testing.T) {
	pairs := [][2]string{
		{"alice", "bob"},
		{"zed", "aaron"},
		{"u1000", "u0999"},
	}
	for _, p := range pairs {
		forward, err := ResolveConversationID(p[0], p[1])
		if err != nil {
			t.Fatalf("resolve(%q, %q): %v", p[0], p[1], err)
		}
		reverse, err := ResolveConversationID(p[1], p[0])
		if err != nil {
			t.Fatalf("resolve(%q, %q): %v", p[1], p[0], err)
		}
		if forward != reverse {
			t.Errorf("resolve not order-invariant: %q vs %q", forward, reverse)
		}
	}
}

func TestResolveConversationID_RejectsSelf(t *testing.T) {
	if _, err := ResolveConversationID("alice", "alice"); !errors.Is(err, ErrSelfConversation) {
		t.Fatalf("expected ErrSelfConversation, got %v", err)
	}
}

func TestResolveConversationID_RejectsEmpty(t *testing.T) {
	for _, p := range [][2]string{{"", "bob"}, {"alice", ""}, {"  ", "bob"}} {
		if _, err := ResolveConversationID(p[0], p[1]); !errors.Is(err, ErrValidation) {
			t.Errorf("resolve(%q, %q): expected validation error, got %v", p[0], p[1], err)
		}
	}
}

func TestResolveConversationID_RejectsSeparatorInUID(t *testing.T) {
	if _, err := ResolveConversationID("ali_ce", "bob"); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error for uid containing separator, got %v", err)
	}
}
