package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"carepulse/pkg/model"
)

// CheckInRepository persists emotional check-ins
type CheckInRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewCheckInRepository creates a new CheckInRepository
func NewCheckInRepository(db *sql.DB, logger *zap.Logger) *CheckInRepository {
	return &CheckInRepository{
		db:     db,
		logger: logger,
	}
}

// Save stores a completed check-in
func (r *CheckInRepository) Save(ctx context.Context, checkIn *model.CheckIn) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO check_ins (id, user_id, mood, note, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, checkIn.ID, checkIn.UserID, string(checkIn.Mood), checkIn.Note, checkIn.CreatedAt)
	if err != nil {
		r.logger.Error("failed to save check-in",
			zap.Error(err),
			zap.String("check_in_id", checkIn.ID),
			zap.String("user_id", checkIn.UserID),
		)
		return fmt.Errorf("failed to save check-in: %w", err)
	}

	return nil
}

// FindByUserID retrieves check-ins for a user since the given time,
// newest first
func (r *CheckInRepository) FindByUserID(ctx context.Context, userID string, since time.Time) ([]model.CheckIn, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, mood, note, created_at
		FROM check_ins
		WHERE user_id = ? AND created_at >= ?
		ORDER BY created_at DESC
	`, userID, since)
	if err != nil {
		r.logger.Error("failed to find check-ins", zap.Error(err), zap.String("user_id", userID))
		return nil, fmt.Errorf("failed to find check-ins: %w", err)
	}
	defer rows.Close()

	var checkIns []model.CheckIn
	for rows.Next() {
		var checkIn model.CheckIn
		var mood string
		var note sql.NullString
		if err := rows.Scan(&checkIn.ID, &checkIn.UserID, &mood, &note, &checkIn.CreatedAt); err != nil {
			r.logger.Error("failed to scan check-in", zap.Error(err))
			continue
		}
		checkIn.Mood = model.Mood(mood)
		checkIn.Note = note.String
		checkIns = append(checkIns, checkIn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating check-ins: %w", err)
	}

	return checkIns, nil
}

// MoodDistribution counts check-ins per mood for a user since the
// given time
func (r *CheckInRepository) MoodDistribution(ctx context.Context, userID string, since time.Time) (map[string]int, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT mood, COUNT(*)
		FROM check_ins
		WHERE user_id = ? AND created_at >= ?
		GROUP BY mood
	`, userID, since)
	if err != nil {
		r.logger.Error("failed to aggregate moods", zap.Error(err), zap.String("user_id", userID))
		return nil, fmt.Errorf("failed to aggregate moods: %w", err)
	}
	defer rows.Close()

	distribution := make(map[string]int)
	for rows.Next() {
		var mood string
		var count int
		if err := rows.Scan(&mood, &count); err != nil {
			r.logger.Error("failed to scan mood count", zap.Error(err))
			continue
		}
		distribution[mood] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating mood counts: %w", err)
	}

	return distribution, nil
}
