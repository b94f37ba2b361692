package repository

import (
	"database/sql"
	"errors"
)

// Sentinel errors surfaced by the engagement transactions.
var (
	ErrSelfVote        = errors.New("cannot vote on own post")
	ErrSelfReport      = errors.New("cannot report own post")
	ErrAlreadyReported = errors.New("post already reported by user")
)

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

func normalizePage(page, size int) (int, int, int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 20
	}
	return page, size, (page - 1) * size
}
