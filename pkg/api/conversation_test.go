package api

import (
	"testing"
)

func TestConversation_AppendAndLast(t *testing.T) {
	c := NewConversation()

	if _, ok := c.Last(); ok {
		t.Fatalf("expected no last message on empty conversation")
	}

	c.Append(RoleUser, "OBJECTIVE: open a terminal")
	c.Append(RoleAssistant, "THOUGHT: I will open the terminal")

	last, ok := c.Last()
	if !ok {
		t.Fatalf("expected a last message")
	}
	if last.Role != RoleAssistant {
		t.Fatalf("expected assistant role, got %q", last.Role)
	}
	if c.Len() != 2 {
		t.Fatalf("expected 2 messages, got %d", c.Len())
	}
}

func TestConversation_MessagesReturnsCopy(t *testing.T) {
	c := NewConversation()
	c.Append(RoleUser, "hello")

	msgs := c.Messages()
	msgs[0].Content = "mutated"

	got := c.Messages()
	if got[0].Content != "hello" {
		t.Fatalf("conversation was mutated through the returned slice")
	}
}

func TestConversation_ResetClears(t *testing.T) {
	c := NewConversation()
	c.Append(RoleUser, "one")
	c.Append(RoleTool, "two")

	c.Reset()

	if c.Len() != 0 {
		t.Fatalf("expected empty conversation after reset, got %d messages", c.Len())
	}
	if _, ok := c.Last(); ok {
		t.Fatalf("expected no last message after reset")
	}
}
