package models

// SubjectDuration is the dictation period of a subject.
type SubjectDuration string

// Supported subject durations.
const (
	DurationAnnual     SubjectDuration = "anual"
	DurationFirstTerm  SubjectDuration = "primer_cuatrimestre"
	DurationSecondTerm SubjectDuration = "segundo_cuatrimestre"
)

// Valid reports whether d is a known duration.
func (d SubjectDuration) Valid() bool {
	switch d {
	case DurationAnnual, DurationFirstTerm, DurationSecondTerm:
		return true
	}
	return false
}

// PrerequisiteKind is the standing a student needs in the required subject.
type PrerequisiteKind string

// Supported prerequisite kinds.
const (
	PrerequisiteRegularized PrerequisiteKind = "regularizada"
	PrerequisiteApproved    PrerequisiteKind = "aprobada"
)

// Valid reports whether k is a known prerequisite kind.
func (k PrerequisiteKind) Valid() bool {
	return k == PrerequisiteRegularized || k == PrerequisiteApproved
}

// University groups careers.
type University struct {
	ID           int64    `db:"id" json:"id"`
	Name         string   `db:"nombre" json:"name"`
	Abbreviation string   `db:"abreviatura" json:"abbreviation"`
	Careers      []Career `db:"-" json:"careers"`
}

// Career is a degree program inside a university.
type Career struct {
	ID           int64  `db:"id" json:"id"`
	UniversityID int64  `db:"universidad_id" json:"university_id"`
	Name         string `db:"nombre" json:"name"`
}

// Subject (materia) belongs to a career. Subjects created from a bare name
// by offline sync have no career and no sequence number.
type Subject struct {
	ID       int64           `db:"id" json:"id"`
	CareerID *int64          `db:"carrera_id" json:"career_id"`
	Number   *int            `db:"numero" json:"number"`
	Name     string          `db:"nombre" json:"name"`
	Level    string          `db:"nivel" json:"level"`
	Duration SubjectDuration `db:"duracion" json:"duration"`
}

// SubjectDetail is a subject with its outgoing prerequisite edges.
type SubjectDetail struct {
	Subject
	Prerequisites []PrerequisiteDetail `json:"prerequisites"`
}

// Prerequisite is a typed edge: SubjectID requires RequiredSubjectID with Kind.
type Prerequisite struct {
	SubjectID         int64            `db:"materia_id" json:"subject_id"`
	RequiredSubjectID int64            `db:"correlativa_id" json:"required_subject_id"`
	Kind              PrerequisiteKind `db:"tipo" json:"kind"`
}

// PrerequisiteDetail decorates an edge with the required subject's identity.
type PrerequisiteDetail struct {
	Prerequisite
	RequiredNumber *int   `db:"correlativa_numero" json:"required_number"`
	RequiredName   string `db:"correlativa_nombre" json:"required_name"`
}
