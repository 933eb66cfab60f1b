package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"carepulse/internal/audit"
	"carepulse/internal/notify"
	"carepulse/pkg/model"
)

// MedicationStore is the persistence seam for the medication list
type MedicationStore interface {
	LoadAll(ctx context.Context) ([]model.Medication, error)
	Save(ctx context.Context, med *model.Medication) error
	Delete(ctx context.Context, medicationID int) error
}

// Auditor records access to health records
type Auditor interface {
	Log(ctx context.Context, entry audit.Entry) error
}

var (
	// ErrMedicationNotFound is returned when a medication id matches nothing
	ErrMedicationNotFound = errors.New("medication not found")
	// ErrAlarmNotFound is returned when an alarm id matches nothing on the medication
	ErrAlarmNotFound = errors.New("alarm not found")
	// ErrInvalidAlarmTime is returned when an alarm time is not "HH:MM"
	ErrInvalidAlarmTime = errors.New("invalid alarm time")
)

// MedicationService owns the medication list and its reminder alarms.
// The in-memory slice is canonical; every mutation is written through
// to the repository so the list survives restarts.
type MedicationService struct {
	repo   MedicationStore
	toasts *notify.Center
	audit  Auditor
	logger *zap.Logger

	mu          sync.Mutex
	medications []model.Medication
}

// NewMedicationService creates a MedicationService hydrated from the
// repository. An empty database is seeded with the starter list.
func NewMedicationService(
	ctx context.Context,
	repo MedicationStore,
	toasts *notify.Center,
	auditLogger Auditor,
	logger *zap.Logger,
) (*MedicationService, error) {
	s := &MedicationService{
		repo:   repo,
		toasts: toasts,
		audit:  auditLogger,
		logger: logger,
	}

	medications, err := repo.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to hydrate medications: %w", err)
	}

	if len(medications) == 0 {
		medications = seedMedications()
		for i := range medications {
			if err := repo.Save(ctx, &medications[i]); err != nil {
				return nil, fmt.Errorf("failed to seed medications: %w", err)
			}
		}
		logger.Info("seeded starter medications", zap.Int("count", len(medications)))
	}

	s.medications = medications
	logger.Info("medication store ready", zap.Int("count", len(medications)))

	return s, nil
}

// seedMedications returns the starter list shown to a fresh account
func seedMedications() []model.Medication {
	return []model.Medication{
		{
			ID:     1,
			Name:   "Vitamin D",
			Dosage: "1 tablet",
			Alarms: []model.Alarm{{ID: 1, Time: "08:00", Active: true}},
		},
		{
			ID:     2,
			Name:   "Ibuprofen",
			Dosage: "1 tablet",
			Alarms: []model.Alarm{{ID: 1, Time: "14:00", Active: true}},
		},
	}
}

// List returns a copy of the medication list ordered by id
func (s *MedicationService) List() []model.Medication {
	s.mu.Lock()
	defer s.mu.Unlock()

	return copyMedications(s.medications)
}

// Get returns one medication by id
func (s *MedicationService) Get(medicationID int) (model.Medication, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	med := s.find(medicationID)
	if med == nil {
		return model.Medication{}, ErrMedicationNotFound
	}

	return copyMedication(*med), nil
}

// AlarmCount reports the number of alarms across every medication
func (s *MedicationService) AlarmCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for i := range s.medications {
		count += len(s.medications[i].Alarms)
	}

	return count
}

// AddMedication appends a placeholder medication for the user to fill
// in. The new id is one past the current maximum, so an id freed by a
// deletion can be handed out again.
func (s *MedicationService) AddMedication(ctx context.Context, userID string) (model.Medication, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	med := model.Medication{
		ID:     s.nextID(),
		Name:   "New Medication",
		Dosage: "1 tablet",
		Alarms: []model.Alarm{},
	}

	if err := s.repo.Save(ctx, &med); err != nil {
		return model.Medication{}, fmt.Errorf("failed to save medication: %w", err)
	}
	s.medications = append(s.medications, med)

	s.logger.Info("medication added", zap.Int("medication_id", med.ID), zap.String("user_id", userID))
	s.auditLog(ctx, userID, audit.OperationCreate, audit.ResourceMedication, med.ID, nil)

	return copyMedication(med), nil
}

// EditMedication merges the provided patch into the medication.
// Fields absent from the patch are left untouched.
func (s *MedicationService) EditMedication(ctx context.Context, userID string, medicationID int, patch model.MedicationPatch) (model.Medication, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	med := s.find(medicationID)
	if med == nil {
		return model.Medication{}, ErrMedicationNotFound
	}

	// Merge into a copy so a rejected patch or failed save leaves
	// the stored record untouched.
	merged := copyMedication(*med)
	if patch.Name != nil {
		merged.Name = *patch.Name
	}
	if patch.Dosage != nil {
		merged.Dosage = *patch.Dosage
	}
	if patch.Alarms != nil {
		for _, alarm := range *patch.Alarms {
			if !validAlarmTime(alarm.Time) {
				return model.Medication{}, fmt.Errorf("%w: %q", ErrInvalidAlarmTime, alarm.Time)
			}
		}
		merged.Alarms = append([]model.Alarm{}, (*patch.Alarms)...)
	}

	if err := s.repo.Save(ctx, &merged); err != nil {
		return model.Medication{}, fmt.Errorf("failed to save medication: %w", err)
	}
	*med = merged

	s.logger.Info("medication updated", zap.Int("medication_id", medicationID), zap.String("user_id", userID))
	s.auditLog(ctx, userID, audit.OperationUpdate, audit.ResourceMedication, medicationID, nil)
	s.toasts.Success("Medication updated", fmt.Sprintf("Alarms have been set for %s", med.Name))

	return copyMedication(*med), nil
}

// ToggleTaken flips the taken flag. Marking a medication taken emits
// a confirmation toast; unmarking one is silent.
func (s *MedicationService) ToggleTaken(ctx context.Context, userID string, medicationID int) (model.Medication, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	med := s.find(medicationID)
	if med == nil {
		return model.Medication{}, ErrMedicationNotFound
	}

	med.Taken = !med.Taken

	if err := s.repo.Save(ctx, med); err != nil {
		med.Taken = !med.Taken
		return model.Medication{}, fmt.Errorf("failed to save medication: %w", err)
	}

	if med.Taken {
		s.toasts.Success("Medication taken", fmt.Sprintf("You've taken %s", med.Name))
	}

	s.auditLog(ctx, userID, audit.OperationUpdate, audit.ResourceMedication, medicationID, map[string]any{"taken": med.Taken})

	return copyMedication(*med), nil
}

// DeleteMedication removes a medication together with its alarms
func (s *MedicationService) DeleteMedication(ctx context.Context, userID string, medicationID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i := range s.medications {
		if s.medications[i].ID == medicationID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return ErrMedicationNotFound
	}

	if err := s.repo.Delete(ctx, medicationID); err != nil {
		return fmt.Errorf("failed to delete medication: %w", err)
	}
	s.medications = append(s.medications[:idx], s.medications[idx+1:]...)

	s.logger.Info("medication deleted", zap.Int("medication_id", medicationID), zap.String("user_id", userID))
	s.auditLog(ctx, userID, audit.OperationDelete, audit.ResourceMedication, medicationID, nil)

	return nil
}

// AddAlarm appends a default 08:00 active alarm to the medication.
// Alarm ids are allocated per medication, one past that medication's
// current maximum.
func (s *MedicationService) AddAlarm(ctx context.Context, userID string, medicationID int) (model.Alarm, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	med := s.find(medicationID)
	if med == nil {
		return model.Alarm{}, ErrMedicationNotFound
	}

	alarm := model.Alarm{
		ID:     nextAlarmID(med.Alarms),
		Time:   "08:00",
		Active: true,
	}
	med.Alarms = append(med.Alarms, alarm)

	if err := s.repo.Save(ctx, med); err != nil {
		med.Alarms = med.Alarms[:len(med.Alarms)-1]
		return model.Alarm{}, fmt.Errorf("failed to save alarm: %w", err)
	}

	s.auditLog(ctx, userID, audit.OperationCreate, audit.ResourceAlarm, alarm.ID, map[string]any{"medication_id": medicationID})

	return alarm, nil
}

// SetAlarmTime changes one alarm's time on one medication
func (s *MedicationService) SetAlarmTime(ctx context.Context, userID string, medicationID, alarmID int, alarmTime string) (model.Alarm, error) {
	if !validAlarmTime(alarmTime) {
		return model.Alarm{}, fmt.Errorf("%w: %q", ErrInvalidAlarmTime, alarmTime)
	}

	return s.updateAlarm(ctx, userID, medicationID, alarmID, func(alarm *model.Alarm) {
		alarm.Time = alarmTime
	})
}

// ToggleAlarm flips one alarm's active flag on one medication
func (s *MedicationService) ToggleAlarm(ctx context.Context, userID string, medicationID, alarmID int) (model.Alarm, error) {
	return s.updateAlarm(ctx, userID, medicationID, alarmID, func(alarm *model.Alarm) {
		alarm.Active = !alarm.Active
	})
}

// RemoveAlarm removes one alarm from one medication. Alarms with the
// same id on other medications are untouched.
func (s *MedicationService) RemoveAlarm(ctx context.Context, userID string, medicationID, alarmID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	med := s.find(medicationID)
	if med == nil {
		return ErrMedicationNotFound
	}

	idx := -1
	for i := range med.Alarms {
		if med.Alarms[i].ID == alarmID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return ErrAlarmNotFound
	}

	removed := med.Alarms[idx]
	med.Alarms = append(med.Alarms[:idx], med.Alarms[idx+1:]...)

	if err := s.repo.Save(ctx, med); err != nil {
		med.Alarms = append(med.Alarms, removed)
		return fmt.Errorf("failed to save alarm removal: %w", err)
	}

	s.auditLog(ctx, userID, audit.OperationDelete, audit.ResourceAlarm, alarmID, map[string]any{"medication_id": medicationID})

	return nil
}

func (s *MedicationService) updateAlarm(ctx context.Context, userID string, medicationID, alarmID int, mutate func(*model.Alarm)) (model.Alarm, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	med := s.find(medicationID)
	if med == nil {
		return model.Alarm{}, ErrMedicationNotFound
	}

	for i := range med.Alarms {
		if med.Alarms[i].ID != alarmID {
			continue
		}

		before := med.Alarms[i]
		mutate(&med.Alarms[i])

		if err := s.repo.Save(ctx, med); err != nil {
			med.Alarms[i] = before
			return model.Alarm{}, fmt.Errorf("failed to save alarm: %w", err)
		}

		s.auditLog(ctx, userID, audit.OperationUpdate, audit.ResourceAlarm, alarmID, map[string]any{"medication_id": medicationID})

		return med.Alarms[i], nil
	}

	return model.Alarm{}, ErrAlarmNotFound
}

// find returns a pointer into the canonical slice; callers hold s.mu
func (s *MedicationService) find(medicationID int) *model.Medication {
	for i := range s.medications {
		if s.medications[i].ID == medicationID {
			return &s.medications[i]
		}
	}

	return nil
}

// nextID allocates one past the current maximum id; callers hold s.mu
func (s *MedicationService) nextID() int {
	max := 0
	for i := range s.medications {
		if s.medications[i].ID > max {
			max = s.medications[i].ID
		}
	}

	return max + 1
}

func nextAlarmID(alarms []model.Alarm) int {
	max := 0
	for _, alarm := range alarms {
		if alarm.ID > max {
			max = alarm.ID
		}
	}

	return max + 1
}

func (s *MedicationService) auditLog(ctx context.Context, userID string, op audit.OperationType, resource audit.ResourceType, id int, data map[string]any) {
	entry := audit.Entry{
		UserID:         userID,
		OperationType:  op,
		ResourceType:   resource,
		ResourceID:     fmt.Sprintf("%d", id),
		AdditionalData: data,
	}
	if err := s.audit.Log(ctx, entry); err != nil {
		s.logger.Warn("failed to write audit entry", zap.Error(err))
	}
}

func validAlarmTime(value string) bool {
	if _, err := time.Parse("15:04", value); err != nil {
		return false
	}

	return len(value) == 5
}

func copyMedication(med model.Medication) model.Medication {
	out := med
	out.Alarms = append([]model.Alarm{}, med.Alarms...)

	return out
}

func copyMedications(medications []model.Medication) []model.Medication {
	out := make([]model.Medication, len(medications))
	for i := range medications {
		out[i] = copyMedication(medications[i])
	}

	return out
}
