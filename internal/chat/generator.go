// Package chat turns the fused analysis signal into an empathetic reply
// from a hosted chat model.
package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/empathlab/empath-gateway/internal/emotion"
	"github.com/empathlab/empath-gateway/internal/metrics"
	"github.com/empathlab/empath-gateway/internal/sentiment"
	"github.com/empathlab/empath-gateway/internal/session"
)

// ErrorMarker appears in the reply text whenever generation failed. The
// conversation is never left without an assistant turn, so failures become
// a visibly marked in-band reply instead of an error.
const ErrorMarker = "chatbot error"

// The detector's catch-all label. When it shows up as the second-ranked
// emotion it carries no signal and is dropped from the prompt.
const neutralLabel = "neutral"

// Generator composes prompts and calls the chat model.
type Generator struct {
	client Client
	logger *slog.Logger
}

// NewGenerator wires a generator to its chat client.
func NewGenerator(client Client, logger *slog.Logger) *Generator {
	return &Generator{client: client, logger: logger}
}

// Reply generates the assistant's reply for the user's message, given the
// inferred emotional state and the prior conversation. On any failure the
// returned string contains ErrorMarker; it never returns an error.
func (g *Generator) Reply(ctx context.Context, emotions emotion.Profile, sent sentiment.Label, text string, history []session.Turn) string {
	messages := make([]Message, 0, len(history)+2)
	messages = append(messages, Message{Role: session.RoleSystem, Content: systemInstruction(emotions, sent)})
	for _, turn := range history {
		messages = append(messages, Message{Role: turn.Role, Content: turn.Content})
	}
	messages = append(messages, Message{Role: session.RoleUser, Content: text})

	reply, err := g.client.Chat(ctx, messages)
	if err != nil {
		g.logger.Error("reply generation failed", "error", err)
		metrics.ReplyFailures.Inc()
		return fmt.Sprintf("[%s: %v]", ErrorMarker, err)
	}
	return reply
}

// systemInstruction describes the inferred emotional state and how the
// model should respond. The second emotion is mentioned only when it is
// present and not the neutral placeholder.
func systemInstruction(emotions emotion.Profile, sent sentiment.Label) string {
	var b strings.Builder

	switch {
	case len(emotions) >= 2 && emotions[1] != neutralLabel:
		fmt.Fprintf(&b, "Video analysis suggests the user's two primary facial emotions are %s and %s. ", emotions[0], emotions[1])
	case len(emotions) >= 1:
		fmt.Fprintf(&b, "Video analysis suggests the user's primary facial emotion is %s. ", emotions[0])
	default:
		b.WriteString("No facial emotion signal is available for the user. ")
	}

	fmt.Fprintf(&b, "The sentiment of the user's words is %s. ", sent)
	b.WriteString("Respond as a warm, empathetic therapist. ")
	b.WriteString("If the text sentiment and the facial emotions are inconsistent, gently surface that inconsistency. ")
	b.WriteString("Prefer reflective statements over follow-up questions unless a question is needed for the user's safety.")

	return b.String()
}
