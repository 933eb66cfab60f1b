package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"carepulse/internal/ai"
	"carepulse/pkg/model"
)

type fakeCheckInStore struct {
	saved   []model.CheckIn
	failing bool
}

func (f *fakeCheckInStore) Save(ctx context.Context, checkIn *model.CheckIn) error {
	if f.failing {
		return errors.New("disk full")
	}
	f.saved = append(f.saved, *checkIn)
	return nil
}

func (f *fakeCheckInStore) FindByUserID(ctx context.Context, userID string, since time.Time) ([]model.CheckIn, error) {
	var out []model.CheckIn
	for i := len(f.saved) - 1; i >= 0; i-- {
		if f.saved[i].UserID == userID && f.saved[i].CreatedAt.After(since) {
			out = append(out, f.saved[i])
		}
	}
	return out, nil
}

func (f *fakeCheckInStore) MoodDistribution(ctx context.Context, userID string, since time.Time) (map[string]int, error) {
	distribution := make(map[string]int)
	for _, checkIn := range f.saved {
		if checkIn.UserID == userID && checkIn.CreatedAt.After(since) {
			distribution[string(checkIn.Mood)]++
		}
	}
	return distribution, nil
}

type failingResponder struct{}

func (failingResponder) Respond(ctx context.Context, history []model.ChatMessage) (string, error) {
	return "", errors.New("model unavailable")
}

func newTestCheckInService(store *fakeCheckInStore) *CheckInService {
	return NewCheckInService(store, ai.NewSupportResponder(), nopAuditor{}, zap.NewNop())
}

func TestSubmit_RecordsCheckInAndOpensConversation(t *testing.T) {
	store := &fakeCheckInStore{}
	svc := newTestCheckInService(store)

	result, err := svc.Submit(context.Background(), "user-abc", model.MoodGood, "slept well")
	require.NoError(t, err)

	require.Len(t, store.saved, 1)
	assert.Equal(t, model.MoodGood, store.saved[0].Mood)
	assert.Equal(t, "slept well", store.saved[0].Note)
	assert.NotEmpty(t, result.CheckIn.ID)

	require.Len(t, result.Messages, 3)
	assert.Equal(t, model.MessageRoleAssistant, result.Messages[0].Role)
	assert.Equal(t, "I'm feeling Good today.", result.Messages[1].Content)
	assert.Equal(t, model.MessageRoleAssistant, result.Messages[2].Role)
	assert.Contains(t, result.Messages[2].Content, "That's good to hear!")
}

func TestSubmit_InvalidMood(t *testing.T) {
	store := &fakeCheckInStore{}
	svc := newTestCheckInService(store)

	_, err := svc.Submit(context.Background(), "user-abc", model.Mood("Ecstatic"), "")
	assert.ErrorIs(t, err, ErrInvalidMood)
	assert.Empty(t, store.saved)
}

func TestSubmit_SaveFailure(t *testing.T) {
	svc := newTestCheckInService(&fakeCheckInStore{failing: true})

	_, err := svc.Submit(context.Background(), "user-abc", model.MoodOkay, "")
	assert.Error(t, err)
}

func TestSubmit_ReplyFailureKeepsCheckIn(t *testing.T) {
	store := &fakeCheckInStore{}
	svc := NewCheckInService(store, failingResponder{}, nopAuditor{}, zap.NewNop())

	result, err := svc.Submit(context.Background(), "user-abc", model.MoodBad, "")
	require.NoError(t, err)

	require.Len(t, store.saved, 1)
	// Greeting and mood message only; no assistant reply arrived.
	assert.Len(t, result.Messages, 2)
}

func TestContinue_AppendsReply(t *testing.T) {
	svc := newTestCheckInService(&fakeCheckInStore{})

	history := []model.ChatMessage{
		{ID: 1, Role: model.MessageRoleAssistant, Content: supportGreeting},
		{ID: 2, Role: model.MessageRoleUser, Content: "I had a rough week."},
	}

	reply, err := svc.Continue(context.Background(), history)
	require.NoError(t, err)
	assert.Equal(t, 3, reply.ID)
	assert.Equal(t, model.MessageRoleAssistant, reply.Role)
	assert.NotEmpty(t, reply.Content)
}

func TestHistoryAndDistribution(t *testing.T) {
	store := &fakeCheckInStore{}
	svc := newTestCheckInService(store)
	ctx := context.Background()

	for _, mood := range []model.Mood{model.MoodGreat, model.MoodGreat, model.MoodOkay} {
		_, err := svc.Submit(ctx, "user-abc", mood, "")
		require.NoError(t, err)
	}
	_, err := svc.Submit(ctx, "user-other", model.MoodBad, "")
	require.NoError(t, err)

	checkIns, err := svc.History(ctx, "user-abc", 7)
	require.NoError(t, err)
	assert.Len(t, checkIns, 3)

	distribution, err := svc.MoodDistribution(ctx, "user-abc", 7)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"Great": 2, "Okay": 1}, distribution)
}
