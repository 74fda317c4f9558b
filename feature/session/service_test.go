package session

import (
	"context"
	"testing"

	"github.com/privasearch/search/types"
)

func TestCreateAndGet(t *testing.T) {
	s := New()
	sess := s.Create(context.Background(), "user-1")
	if sess.ID == "" {
		t.Fatal("expected non-empty session ID")
	}
	got, ok := s.Get(context.Background(), sess.ID)
	if !ok {
		t.Fatal("expected to find created session")
	}
	if got.UserID != "user-1" {
		t.Fatalf("UserID = %q, want user-1", got.UserID)
	}
}

func TestGetUnknownSession(t *testing.T) {
	s := New()
	_, ok := s.Get(context.Background(), "nope")
	if ok {
		t.Fatal("expected miss for unknown session")
	}
}

func TestAppendMessageOrdersTranscript(t *testing.T) {
	s := New()
	sess := s.Create(context.Background(), "user-1")

	s.AppendMessage(context.Background(), sess.ID, types.Message{Role: types.RoleUser, Content: "hi"})
	s.AppendMessage(context.Background(), sess.ID, types.Message{Role: types.RoleAssistant, Content: "hello"})

	got, _ := s.Get(context.Background(), sess.ID)
	if len(got.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(got.Messages))
	}
	if got.Messages[0].Role != types.RoleUser || got.Messages[1].Role != types.RoleAssistant {
		t.Fatal("messages out of order")
	}
	for _, m := range got.Messages {
		if m.ID == "" {
			t.Fatal("expected message to be assigned an ID")
		}
	}
}

func TestAppendMessageUnknownSession(t *testing.T) {
	s := New()
	_, ok := s.AppendMessage(context.Background(), "nope", types.Message{Content: "x"})
	if ok {
		t.Fatal("expected AppendMessage to fail for unknown session")
	}
}

func TestAppendBlockAssignsOrder(t *testing.T) {
	s := New()
	sess := s.Create(context.Background(), "user-1")

	b1, _ := s.AppendBlock(context.Background(), sess.ID, types.Block{Type: "text", Content: "first"})
	b2, _ := s.AppendBlock(context.Background(), sess.ID, types.Block{Type: "text", Content: "second"})

	if b1.Order != 0 || b2.Order != 1 {
		t.Fatalf("expected orders 0,1, got %d,%d", b1.Order, b2.Order)
	}
	got, _ := s.Get(context.Background(), sess.ID)
	if len(got.Canvas.Blocks) != 2 {
		t.Fatalf("expected 2 blocks, got %d", len(got.Canvas.Blocks))
	}
}

func TestDeleteSession(t *testing.T) {
	s := New()
	sess := s.Create(context.Background(), "user-1")
	s.Delete(context.Background(), sess.ID)
	if _, ok := s.Get(context.Background(), sess.ID); ok {
		t.Fatal("expected session to be gone after Delete")
	}
	// Deleting again should be a no-op, not a panic.
	s.Delete(context.Background(), sess.ID)
}
