package models

import "time"

// User is the local profile of an identity verified upstream.
type User struct {
	ID          string    `db:"id" json:"id"`
	Email       string    `db:"email" json:"email"`
	DisplayName string    `db:"nombre" json:"display_name"`
	CareerID    *int64    `db:"carrera_id" json:"career_id"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// UserProfile enriches User with the selected career.
type UserProfile struct {
	User
	CareerName     *string `db:"carrera_nombre" json:"career_name,omitempty"`
	UniversityID   *int64  `db:"universidad_id" json:"university_id,omitempty"`
	UniversityName *string `db:"universidad_nombre" json:"university_name,omitempty"`
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
