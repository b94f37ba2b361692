package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// SubjectStatus is a user's standing in a subject.
type SubjectStatus string

// Subject statuses. Any status may move to any other.
const (
	StatusNotStarted  SubjectStatus = "no_cursada"
	StatusInProgress  SubjectStatus = "cursando"
	StatusRegularized SubjectStatus = "regularizada"
	StatusApproved    SubjectStatus = "aprobada"
)

// SubjectStatuses lists every status in display order.
var SubjectStatuses = []SubjectStatus{StatusNotStarted, StatusInProgress, StatusRegularized, StatusApproved}

// Valid reports whether s is a known status.
func (s SubjectStatus) Valid() bool {
	for _, known := range SubjectStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// ScheduleSlot is one weekly session of a subject. Every attribute is optional.
type ScheduleSlot struct {
	Day           string  `json:"dia,omitempty"`
	StartHour     string  `json:"hora,omitempty" validate:"omitempty,datetime=15:04"`
	DurationHours float64 `json:"duracion,omitempty" validate:"omitempty,gt=0,lte=12"`
	Room          string  `json:"aula,omitempty"`
}

// ScheduleSlots is persisted as JSONB.
type ScheduleSlots []ScheduleSlot

// Value marshals slots to JSON for persistence.
func (s ScheduleSlots) Value() (driver.Value, error) {
	if s == nil {
		s = ScheduleSlots{}
	}
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshal schedule slots: %w", err)
	}
	return data, nil
}

// Scan unmarshals JSON payloads into slots.
func (s *ScheduleSlots) Scan(value interface{}) error {
	var data []byte
	switch v := value.(type) {
	case nil:
		*s = nil
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type %T for ScheduleSlots", value)
	}
	if len(data) == 0 {
		*s = nil
		return nil
	}
	var slots []ScheduleSlot
	if err := json.Unmarshal(data, &slots); err != nil {
		return fmt.Errorf("unmarshal schedule slots: %w", err)
	}
	*s = slots
	return nil
}

// First returns the slot mirrored into the legacy flat columns.
func (s ScheduleSlots) First() *ScheduleSlot {
	if len(s) == 0 {
		return nil
	}
	slot := s[0]
	return &slot
}

// LegacySchedule is the flat single-slot shape older clients read and write.
type LegacySchedule struct {
	Day           *string  `json:"dia"`
	StartHour     *string  `json:"hora"`
	DurationHours *float64 `json:"duracion"`
	Room          *string  `json:"aula"`
}

// UserSubject is a subject tracked in a user's plan.
type UserSubject struct {
	ID        int64         `db:"id" json:"id"`
	UserID    string        `db:"usuario_id" json:"user_id"`
	SubjectID int64         `db:"materia_id" json:"subject_id"`
	Status    SubjectStatus `db:"estado" json:"status"`
	Schedule  ScheduleSlots `db:"horarios" json:"horarios"`
	LegacySchedule `db:"-"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// MirrorSchedule copies the first slot into the flat fields. Unset
// attributes stay null.
func (u *UserSubject) MirrorSchedule() {
	u.LegacySchedule = LegacySchedule{}
	first := u.Schedule.First()
	if first == nil {
		return
	}
	if first.Day != "" {
		u.Day = &first.Day
	}
	if first.StartHour != "" {
		u.StartHour = &first.StartHour
	}
	if first.DurationHours != 0 {
		u.DurationHours = &first.DurationHours
	}
	if first.Room != "" {
		u.Room = &first.Room
	}
}

// UserSubjectDetail joins the tracked record with catalog data.
type UserSubjectDetail struct {
	UserSubject
	SubjectNumber   *int            `db:"materia_numero" json:"subject_number"`
	SubjectName     string          `db:"materia_nombre" json:"subject_name"`
	SubjectLevel    string          `db:"materia_nivel" json:"subject_level"`
	SubjectDuration SubjectDuration `db:"materia_duracion" json:"subject_duration"`
}

// StudyProgress summarises a user's plan against the selected career.
type StudyProgress struct {
	CareerID        *int64                `json:"career_id"`
	CareerSubjects  int                   `json:"career_subjects"`
	Tracked         int                   `json:"tracked"`
	ByStatus        map[SubjectStatus]int `json:"by_status"`
	ApprovedPercent float64               `json:"approved_percent"`
}

// StatusCount is one row of a GROUP BY estado query.
type StatusCount struct {
	Status SubjectStatus `db:"estado"`
	Count  int           `db:"total"`
}
