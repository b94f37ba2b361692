package models

import "time"

// VoteKind is the direction of a vote on a post.
type VoteKind string

// Vote kinds.
const (
	VoteUseful    VoteKind = "util"
	VoteNotUseful VoteKind = "no_util"
)

// Valid reports whether k is a known vote kind.
func (k VoteKind) Valid() bool {
	return k == VoteUseful || k == VoteNotUseful
}

// PostCounters are the denormalized tallies kept on a post row.
type PostCounters struct {
	UsefulCount    int `db:"votos_util" json:"useful_count"`
	NotUsefulCount int `db:"votos_no_util" json:"not_useful_count"`
	ReportsCount   int `db:"reportes" json:"reports_count"`
}

// VoteResult is the state after a vote transition. UserVote is nil after a toggle-off.
type VoteResult struct {
	PostID         string    `json:"post_id"`
	UsefulCount    int       `json:"useful_count"`
	NotUsefulCount int       `json:"not_useful_count"`
	UserVote       *VoteKind `json:"user_vote"`
}

// TallyMismatch reports a post whose counters disagree with its vote rows.
type TallyMismatch struct {
	PostID            string `db:"id" json:"post_id"`
	StoredUseful      int    `db:"votos_util" json:"stored_useful"`
	StoredNotUseful   int    `db:"votos_no_util" json:"stored_not_useful"`
	ComputedUseful    int    `db:"calc_util" json:"computed_useful"`
	ComputedNotUseful int    `db:"calc_no_util" json:"computed_not_useful"`
}

// Rating is a user's opinion of a subject.
type Rating struct {
	ID         string    `db:"id" json:"id"`
	SubjectID  int64     `db:"materia_id" json:"subject_id"`
	UserID     string    `db:"usuario_id" json:"user_id"`
	AuthorName string    `db:"autor_nombre" json:"author_name"`
	Score      int       `db:"puntuacion" json:"score"`
	Comment    string    `db:"comentario" json:"comment"`
	PostCounters
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// RatingSummary aggregates the ratings of a subject.
type RatingSummary struct {
	SubjectID    int64   `db:"materia_id" json:"subject_id"`
	Count        int     `db:"total" json:"count"`
	AverageScore float64 `db:"promedio" json:"average_score"`
}

// ExamType classifies an exam-topic post.
type ExamType string

// Exam types.
const (
	ExamMidterm ExamType = "parcial"
	ExamFinal   ExamType = "final"
	ExamResit   ExamType = "recuperatorio"
)

// ExamTopic shares the topics that were evaluated in an exam.
type ExamTopic struct {
	ID         string     `db:"id" json:"id"`
	SubjectID  int64      `db:"materia_id" json:"subject_id"`
	UserID     string     `db:"usuario_id" json:"user_id"`
	AuthorName string     `db:"autor_nombre" json:"author_name"`
	ExamType   ExamType   `db:"tipo_examen" json:"exam_type"`
	ExamDate   *time.Time `db:"fecha_examen" json:"exam_date,omitempty"`
	Topics     string     `db:"temas" json:"topics"`
	PostCounters
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// PostRef is the minimum needed to authorise an action on a post.
type PostRef struct {
	ID        string `db:"id"`
	UserID    string `db:"usuario_id"`
	SubjectID int64  `db:"materia_id"`
}

// PostKind selects which post family an engagement action targets.
type PostKind string

// Post kinds.
const (
	PostKindRating    PostKind = "rating"
	PostKindExamTopic PostKind = "exam_topic"
)
