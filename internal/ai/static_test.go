package ai

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carepulse/pkg/model"
)

func userMessage(content string) model.ChatMessage {
	return model.ChatMessage{Role: model.MessageRoleUser, Content: content, CreatedAt: time.Now()}
}

func TestStaticResponder_MoodReplies(t *testing.T) {
	responder := NewSupportResponder()

	for _, mood := range model.ValidMoods {
		reply, err := responder.Respond(context.Background(), []model.ChatMessage{
			userMessage(MoodMessage(mood)),
		})
		require.NoError(t, err)
		assert.Equal(t, moodReplies[mood], reply, string(mood))
	}
}

func TestStaticResponder_UnknownMoodFallsBack(t *testing.T) {
	responder := NewSupportResponder()

	reply, err := responder.Respond(context.Background(), []model.ChatMessage{
		userMessage("I'm feeling Ecstatic today."),
	})
	require.NoError(t, err)
	assert.Equal(t, fallbackMoodReply, reply)
}

func TestStaticResponder_Personas(t *testing.T) {
	history := []model.ChatMessage{userMessage("I have a headache and a sore throat.")}

	reply, err := NewMedicalResponder().Respond(context.Background(), history)
	require.NoError(t, err)
	assert.Equal(t, medicalReply, reply)

	reply, err = NewSupportResponder().Respond(context.Background(), history)
	require.NoError(t, err)
	assert.Equal(t, supportReply, reply)
}

func TestStaticResponder_LastUserMessageWins(t *testing.T) {
	responder := NewSupportResponder()

	reply, err := responder.Respond(context.Background(), []model.ChatMessage{
		userMessage(MoodMessage(model.MoodBad)),
		{Role: model.MessageRoleAssistant, Content: moodReplies[model.MoodBad]},
		userMessage("Actually, let's talk about something else."),
	})
	require.NoError(t, err)
	assert.Equal(t, supportReply, reply)
}

func TestStaticResponder_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewMedicalResponder().Respond(ctx, nil)
	assert.Error(t, err)
}
