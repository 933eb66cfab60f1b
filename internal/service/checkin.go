package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"carepulse/internal/ai"
	"carepulse/internal/audit"
	"carepulse/pkg/model"
)

// ErrInvalidMood is returned when a check-in names no selectable mood
var ErrInvalidMood = fmt.Errorf("invalid mood")

// CheckInStore is the persistence seam for emotional check-ins
type CheckInStore interface {
	Save(ctx context.Context, checkIn *model.CheckIn) error
	FindByUserID(ctx context.Context, userID string, since time.Time) ([]model.CheckIn, error)
	MoodDistribution(ctx context.Context, userID string, since time.Time) (map[string]int, error)
}

// supportGreeting opens every check-in conversation
const supportGreeting = "Hi there! I'm your emotional support companion. How are you feeling today?"

// CheckInService records emotional check-ins and drives the support
// conversation through the AI seam
type CheckInService struct {
	repo      CheckInStore
	responder ai.Responder
	audit     Auditor
	logger    *zap.Logger
}

// NewCheckInService creates a new CheckInService
func NewCheckInService(repo CheckInStore, responder ai.Responder, auditLogger Auditor, logger *zap.Logger) *CheckInService {
	return &CheckInService{
		repo:      repo,
		responder: responder,
		audit:     auditLogger,
		logger:    logger,
	}
}

// CheckInResult is the stored check-in plus the opening conversation
type CheckInResult struct {
	CheckIn  model.CheckIn
	Messages []model.ChatMessage
}

// Submit records a mood check-in and returns the conversation so far:
// greeting, the mood rendered as the user's message, and the
// assistant's reply.
func (s *CheckInService) Submit(ctx context.Context, userID string, mood model.Mood, note string) (*CheckInResult, error) {
	if !validMood(mood) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidMood, mood)
	}

	checkIn := model.CheckIn{
		ID:        uuid.New().String(),
		UserID:    userID,
		Mood:      mood,
		Note:      note,
		CreatedAt: time.Now(),
	}

	if err := s.repo.Save(ctx, &checkIn); err != nil {
		return nil, fmt.Errorf("failed to save check-in: %w", err)
	}

	s.logger.Info("check-in recorded",
		zap.String("check_in_id", checkIn.ID),
		zap.String("user_id", userID),
		zap.String("mood", string(mood)),
	)
	s.auditLog(ctx, userID, checkIn.ID)

	now := time.Now()
	messages := []model.ChatMessage{
		{ID: 1, Role: model.MessageRoleAssistant, Content: supportGreeting, CreatedAt: now},
		{ID: 2, Role: model.MessageRoleUser, Content: ai.MoodMessage(mood), CreatedAt: now},
	}

	reply, err := s.responder.Respond(ctx, messages)
	if err != nil {
		// The check-in is already durable; the conversation just
		// stalls until the user writes again.
		s.logger.Warn("check-in reply failed", zap.Error(err), zap.String("check_in_id", checkIn.ID))
		return &CheckInResult{CheckIn: checkIn, Messages: messages}, nil
	}

	messages = append(messages, model.ChatMessage{
		ID:        3,
		Role:      model.MessageRoleAssistant,
		Content:   reply,
		CreatedAt: time.Now(),
	})

	return &CheckInResult{CheckIn: checkIn, Messages: messages}, nil
}

// Continue appends the assistant's reply to an ongoing conversation
func (s *CheckInService) Continue(ctx context.Context, history []model.ChatMessage) (model.ChatMessage, error) {
	reply, err := s.responder.Respond(ctx, history)
	if err != nil {
		return model.ChatMessage{}, fmt.Errorf("failed to get reply: %w", err)
	}

	return model.ChatMessage{
		ID:        nextMessageID(history),
		Role:      model.MessageRoleAssistant,
		Content:   reply,
		CreatedAt: time.Now(),
	}, nil
}

// History returns the user's check-ins from the past number of days,
// newest first
func (s *CheckInService) History(ctx context.Context, userID string, days int) ([]model.CheckIn, error) {
	since := time.Now().AddDate(0, 0, -days)

	checkIns, err := s.repo.FindByUserID(ctx, userID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to load check-ins: %w", err)
	}

	return checkIns, nil
}

// MoodDistribution counts check-ins per mood over the past number of days
func (s *CheckInService) MoodDistribution(ctx context.Context, userID string, days int) (map[string]int, error) {
	since := time.Now().AddDate(0, 0, -days)

	distribution, err := s.repo.MoodDistribution(ctx, userID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to load mood distribution: %w", err)
	}

	return distribution, nil
}

func (s *CheckInService) auditLog(ctx context.Context, userID, checkInID string) {
	entry := audit.Entry{
		UserID:        userID,
		OperationType: audit.OperationCreate,
		ResourceType:  audit.ResourceCheckIn,
		ResourceID:    checkInID,
	}
	if err := s.audit.Log(ctx, entry); err != nil {
		s.logger.Warn("failed to write audit entry", zap.Error(err))
	}
}

func validMood(mood model.Mood) bool {
	for _, m := range model.ValidMoods {
		if m == mood {
			return true
		}
	}

	return false
}

func nextMessageID(history []model.ChatMessage) int {
	max := 0
	for _, msg := range history {
		if msg.ID > max {
			max = msg.ID
		}
	}

	return max + 1
}
