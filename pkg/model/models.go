package model

import "time"

// User represents the authenticated user of the app
type User struct {
	ID     string `json:"id"`
	Email  string `json:"email"`
	Name   string `json:"name,omitempty"`
	Avatar string `json:"avatar,omitempty"`
}

// Alarm represents a reminder alarm owned by a medication.
// IDs are unique only within the owning medication, so the same
// alarm ID can exist on two different medications.
type Alarm struct {
	ID     int    `json:"id"`
	Time   string `json:"time"` // "HH:MM", 24-hour clock
	Active bool   `json:"active"`
}

// Medication represents a medication with its reminder alarms
type Medication struct {
	ID     int     `json:"id"`
	Name   string  `json:"name"`
	Dosage string  `json:"dosage"`
	Taken  bool    `json:"taken"`
	Alarms []Alarm `json:"alarms"`
}

// MedicationPatch carries the fields of a medication edit.
// Nil fields are left untouched by the merge.
type MedicationPatch struct {
	Name   *string  `json:"name,omitempty"`
	Dosage *string  `json:"dosage,omitempty"`
	Alarms *[]Alarm `json:"alarms,omitempty"`
}

// SourceType identifies a health data provider
type SourceType string

const (
	SourceLocal       SourceType = "local"
	SourceGoogleFit   SourceType = "googleFit"
	SourceAppleHealth SourceType = "appleHealth"
	SourceSamsung     SourceType = "samsung"
	SourceFitbit      SourceType = "fitbit"
)

// HealthDataConnection represents a connectable health data source
type HealthDataConnection struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Type      SourceType `json:"type"`
	Connected bool       `json:"connected"`
	LastSync  *time.Time `json:"last_sync,omitempty"`
}

// MetricSnapshot holds the six displayed vitals, computed on demand
// from base constants and the active source's scale factor
type MetricSnapshot struct {
	HeartRate       int    `json:"heart_rate"`
	BloodPressure   string `json:"blood_pressure"` // "systolic/diastolic"
	SpO2            int    `json:"sp_o2"`
	RespiratoryRate int    `json:"respiratory_rate"`
	Steps           int    `json:"steps"`
	Calories        int    `json:"calories"`
}

// SeriesPoint is one point of a time-series metric query
type SeriesPoint struct {
	Label  string `json:"label"`
	Value  int    `json:"value"`
	Target *int   `json:"target,omitempty"`
}

// Mood is one of the selectable emotional check-in moods
type Mood string

const (
	MoodGreat    Mood = "Great"
	MoodGood     Mood = "Good"
	MoodOkay     Mood = "Okay"
	MoodNotGreat Mood = "Not Great"
	MoodBad      Mood = "Bad"
)

// ValidMoods lists the selectable moods in display order
var ValidMoods = []Mood{MoodGreat, MoodGood, MoodOkay, MoodNotGreat, MoodBad}

// CheckIn represents a completed emotional check-in
type CheckIn struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Mood      Mood      `json:"mood"`
	Note      string    `json:"note,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// MessageRole represents the role of a chat message sender
type MessageRole string

const (
	MessageRoleAssistant MessageRole = "assistant"
	MessageRoleUser      MessageRole = "user"
)

// ChatMessage represents a conversation message in an AI chat panel
type ChatMessage struct {
	ID        int         `json:"id"`
	Role      MessageRole `json:"role"`
	Content   string      `json:"content"`
	CreatedAt time.Time   `json:"created_at"`
}

// Toast is a transient user-facing notification
type Toast struct {
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Variant     string    `json:"variant,omitempty"` // "destructive" for failures
	CreatedAt   time.Time `json:"created_at"`
}

// Report represents a generated health report
type Report struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	FilePath    string    `json:"file_path"`
	GeneratedAt time.Time `json:"generated_at"`
}
