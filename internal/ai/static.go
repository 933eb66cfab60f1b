package ai

import (
	"context"
	"fmt"
	"strings"

	"carepulse/pkg/model"
)

// Replies used when no API key is configured. The conversation still
// works, it just follows a script.
const (
	medicalReply = "I understand your concern. Based on the symptoms you described, this could be related to several conditions. Let me ask you a few more questions to provide better guidance."

	supportReply = "Thank you for sharing that with me. It's completely normal to feel the way you do, and I appreciate your openness. Would you like to talk more about your feelings, or perhaps try a mindfulness exercise?"

	fallbackMoodReply = "Thank you for sharing how you feel. Is there anything specific you'd like to talk about today?"
)

var moodReplies = map[model.Mood]string{
	model.MoodGreat:    "I'm happy to hear you're feeling great today! What's been going well for you?",
	model.MoodGood:     "That's good to hear! Is there anything specific that made your day good?",
	model.MoodOkay:     "Thanks for sharing. Would you like to talk about what's on your mind today?",
	model.MoodNotGreat: "I'm sorry you're not feeling great. Would it help to talk about what's bothering you?",
	model.MoodBad:      "I'm sorry you're having a difficult day. Sometimes sharing what's troubling you can help. I'm here to listen.",
}

// MoodMessage renders a mood selection as the user's chat message
func MoodMessage(mood model.Mood) string {
	return fmt.Sprintf("I'm feeling %s today.", mood)
}

// StaticResponder answers from a fixed script. Mood declarations get
// the matching mood reply; everything else gets the configured default.
type StaticResponder struct {
	defaultReply string
}

// NewMedicalResponder scripts the medical assistant persona
func NewMedicalResponder() *StaticResponder {
	return &StaticResponder{defaultReply: medicalReply}
}

// NewSupportResponder scripts the emotional support persona
func NewSupportResponder() *StaticResponder {
	return &StaticResponder{defaultReply: supportReply}
}

// Respond implements Responder from the script
func (r *StaticResponder) Respond(ctx context.Context, history []model.ChatMessage) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role != model.MessageRoleUser {
			continue
		}

		if mood, ok := parseMoodMessage(history[i].Content); ok {
			if reply, ok := moodReplies[mood]; ok {
				return reply, nil
			}
			return fallbackMoodReply, nil
		}

		break
	}

	return r.defaultReply, nil
}

func parseMoodMessage(content string) (model.Mood, bool) {
	const prefix = "I'm feeling "
	const suffix = " today."

	if !strings.HasPrefix(content, prefix) || !strings.HasSuffix(content, suffix) {
		return "", false
	}

	return model.Mood(content[len(prefix) : len(content)-len(suffix)]), true
}
