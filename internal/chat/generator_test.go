package chat

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/empathlab/empath-gateway/internal/emotion"
	"github.com/empathlab/empath-gateway/internal/sentiment"
	"github.com/empathlab/empath-gateway/internal/session"
)

type stubClient struct {
	reply    string
	err      error
	messages []Message
}

func (c *stubClient) Chat(ctx context.Context, messages []Message) (string, error) {
	c.messages = messages
	if c.err != nil {
		return "", c.err
	}
	return c.reply, nil
}

func TestReplyMessageSequence(t *testing.T) {
	client := &stubClient{reply: "that sounds hard"}
	g := NewGenerator(client, slog.Default())

	history := []session.Turn{
		{Role: session.RoleUser, Content: "hi"},
		{Role: session.RoleAssistant, Content: "hello"},
	}
	reply := g.Reply(context.Background(), emotion.Profile{"sad", "fear"}, sentiment.Negative, "I had a rough week", history)
	if reply != "that sounds hard" {
		t.Errorf("Expected verbatim reply, got %q", reply)
	}

	// [system] + 2 history turns + current user turn.
	if len(client.messages) != 4 {
		t.Fatalf("Expected 4 messages, got %d", len(client.messages))
	}
	if client.messages[0].Role != session.RoleSystem {
		t.Errorf("Expected leading system message, got role %s", client.messages[0].Role)
	}
	last := client.messages[len(client.messages)-1]
	if last.Role != session.RoleUser || last.Content != "I had a rough week" {
		t.Errorf("Expected trailing user turn, got %+v", last)
	}
}

func TestSystemInstructionEmotions(t *testing.T) {
	cases := []struct {
		name     string
		emotions emotion.Profile
		contains []string
		excludes []string
	}{
		{
			name:     "two emotions",
			emotions: emotion.Profile{"sad", "angry"},
			contains: []string{"sad", "angry"},
		},
		{
			name:     "second is neutral placeholder",
			emotions: emotion.Profile{"happy", "neutral"},
			contains: []string{"primary facial emotion is happy"},
			excludes: []string{"and neutral"},
		},
		{
			name:     "single emotion",
			emotions: emotion.Profile{"surprise"},
			contains: []string{"primary facial emotion is surprise"},
		},
		{
			name:     "no signal",
			emotions: emotion.Profile{},
			contains: []string{"No facial emotion signal"},
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := systemInstruction(c.emotions, sentiment.Neutral)
			for _, want := range c.contains {
				if !strings.Contains(got, want) {
					t.Errorf("Instruction missing %q: %s", want, got)
				}
			}
			for _, bad := range c.excludes {
				if strings.Contains(got, bad) {
					t.Errorf("Instruction should not contain %q: %s", bad, got)
				}
			}
		})
	}
}

func TestReplyFailureIsInBand(t *testing.T) {
	client := &stubClient{err: errors.New("connection refused")}
	g := NewGenerator(client, slog.Default())

	reply := g.Reply(context.Background(), emotion.Profile{}, sentiment.Neutral, "hello", nil)
	if !strings.Contains(reply, ErrorMarker) {
		t.Errorf("Expected reply to contain %q, got %q", ErrorMarker, reply)
	}
	if !strings.Contains(reply, "connection refused") {
		t.Errorf("Expected underlying detail in reply, got %q", reply)
	}
}
