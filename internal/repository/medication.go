package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"carepulse/pkg/model"
)

// MedicationRepository persists medications and their alarms. The
// in-memory store is canonical; this layer exists so the list
// survives restarts.
type MedicationRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewMedicationRepository creates a new MedicationRepository
func NewMedicationRepository(db *sql.DB, logger *zap.Logger) *MedicationRepository {
	return &MedicationRepository{
		db:     db,
		logger: logger,
	}
}

// LoadAll retrieves every medication with its alarms, ordered by id
func (r *MedicationRepository) LoadAll(ctx context.Context) ([]model.Medication, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, dosage, taken
		FROM medications
		ORDER BY id
	`)
	if err != nil {
		r.logger.Error("failed to load medications", zap.Error(err))
		return nil, fmt.Errorf("failed to load medications: %w", err)
	}
	defer rows.Close()

	var medications []model.Medication
	for rows.Next() {
		var med model.Medication
		if err := rows.Scan(&med.ID, &med.Name, &med.Dosage, &med.Taken); err != nil {
			r.logger.Error("failed to scan medication", zap.Error(err))
			continue
		}
		med.Alarms = []model.Alarm{}
		medications = append(medications, med)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating medications: %w", err)
	}

	for i := range medications {
		alarms, err := r.loadAlarms(ctx, medications[i].ID)
		if err != nil {
			return nil, err
		}
		medications[i].Alarms = alarms
	}

	return medications, nil
}

// loadAlarms retrieves the alarms owned by one medication
func (r *MedicationRepository) loadAlarms(ctx context.Context, medicationID int) ([]model.Alarm, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, time, active
		FROM alarms
		WHERE medication_id = ?
		ORDER BY id
	`, medicationID)
	if err != nil {
		r.logger.Error("failed to load alarms", zap.Error(err), zap.Int("medication_id", medicationID))
		return nil, fmt.Errorf("failed to load alarms: %w", err)
	}
	defer rows.Close()

	alarms := []model.Alarm{}
	for rows.Next() {
		var alarm model.Alarm
		if err := rows.Scan(&alarm.ID, &alarm.Time, &alarm.Active); err != nil {
			r.logger.Error("failed to scan alarm", zap.Error(err))
			continue
		}
		alarms = append(alarms, alarm)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating alarms: %w", err)
	}

	return alarms, nil
}

// Save upserts a medication and replaces its alarm list wholesale,
// mirroring how edits replace alarms in the store
func (r *MedicationRepository) Save(ctx context.Context, med *model.Medication) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO medications (id, name, dosage, taken, updated_at)
		VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			dosage = excluded.dosage,
			taken = excluded.taken,
			updated_at = CURRENT_TIMESTAMP
	`, med.ID, med.Name, med.Dosage, med.Taken)
	if err != nil {
		r.logger.Error("failed to save medication", zap.Error(err), zap.Int("medication_id", med.ID))
		return fmt.Errorf("failed to save medication: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM alarms WHERE medication_id = ?`, med.ID); err != nil {
		return fmt.Errorf("failed to clear alarms: %w", err)
	}

	for _, alarm := range med.Alarms {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO alarms (medication_id, id, time, active)
			VALUES (?, ?, ?, ?)
		`, med.ID, alarm.ID, alarm.Time, alarm.Active)
		if err != nil {
			r.logger.Error("failed to save alarm",
				zap.Error(err),
				zap.Int("medication_id", med.ID),
				zap.Int("alarm_id", alarm.ID),
			)
			return fmt.Errorf("failed to save alarm: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit medication save: %w", err)
	}

	return nil
}

// Delete removes a medication and, through the cascade, its alarms
func (r *MedicationRepository) Delete(ctx context.Context, medicationID int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM medications WHERE id = ?`, medicationID)
	if err != nil {
		r.logger.Error("failed to delete medication", zap.Error(err), zap.Int("medication_id", medicationID))
		return fmt.Errorf("failed to delete medication: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("medication not found: %d", medicationID)
	}

	return nil
}
