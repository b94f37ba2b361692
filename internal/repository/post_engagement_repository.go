package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/cursada/planner-api/internal/models"
	"github.com/cursada/planner-api/pkg/database"
)

type postTables struct {
	posts   string
	votes   string
	reports string
	fk      string
}

var postTablesByKind = map[models.PostKind]postTables{
	models.PostKindRating: {
		posts:   "calificaciones",
		votes:   "calificacion_votos",
		reports: "calificacion_reportes",
		fk:      "calificacion_id",
	},
	models.PostKindExamTopic: {
		posts:   "temas_examen",
		votes:   "tema_examen_votos",
		reports: "tema_examen_reportes",
		fk:      "tema_examen_id",
	},
}

var counterColumn = map[models.VoteKind]string{
	models.VoteUseful:    "votos_util",
	models.VoteNotUseful: "votos_no_util",
}

// PostEngagementRepository runs the vote and report transactions of one post kind.
type PostEngagementRepository struct {
	db     *sqlx.DB
	kind   models.PostKind
	tables postTables
	txOpts database.TxOptions
}

// NewPostEngagementRepository builds a repository for the given post kind.
func NewPostEngagementRepository(db *sqlx.DB, kind models.PostKind) *PostEngagementRepository {
	tables, ok := postTablesByKind[kind]
	if !ok {
		panic(fmt.Sprintf("unknown post kind %q", kind))
	}
	return &PostEngagementRepository{db: db, kind: kind, tables: tables, txOpts: database.DefaultTxOptions}
}

// Kind returns the post kind handled by the repository.
func (r *PostEngagementRepository) Kind() models.PostKind {
	return r.kind
}

// ApplyVote toggles or switches the user's vote on a post and adjusts the
// denormalized counters in the same transaction. The post row is locked so
// concurrent votes on one post serialize.
func (r *PostEngagementRepository) ApplyVote(ctx context.Context, postID, userID string, kind models.VoteKind) (*models.VoteResult, error) {
	column, ok := counterColumn[kind]
	if !ok {
		return nil, fmt.Errorf("unknown vote kind %q", kind)
	}

	var result *models.VoteResult
	err := database.RunInTx(ctx, r.db, r.txOpts, func(tx *sqlx.Tx) error {
		ref, err := r.lockPost(ctx, tx, postID)
		if err != nil {
			return err
		}
		if ref.UserID == userID {
			return ErrSelfVote
		}

		var existing models.VoteKind
		query := fmt.Sprintf(`SELECT tipo FROM %s WHERE %s = $1 AND usuario_id = $2`, r.tables.votes, r.tables.fk)
		err = tx.GetContext(ctx, &existing, query, postID, userID)
		if err != nil && !isNoRows(err) {
			return fmt.Errorf("load vote: %w", err)
		}
		hasVote := err == nil

		var counterSet string
		current := &kind
		switch {
		case !hasVote:
			insert := fmt.Sprintf(`INSERT INTO %s (id, %s, usuario_id, tipo, created_at) VALUES ($1, $2, $3, $4, $5)`, r.tables.votes, r.tables.fk)
			if _, err := tx.ExecContext(ctx, insert, uuid.NewString(), postID, userID, kind, time.Now().UTC()); err != nil {
				return fmt.Errorf("insert vote: %w", err)
			}
			counterSet = fmt.Sprintf("%s = %s + 1", column, column)
		case existing == kind:
			remove := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1 AND usuario_id = $2`, r.tables.votes, r.tables.fk)
			if _, err := tx.ExecContext(ctx, remove, postID, userID); err != nil {
				return fmt.Errorf("delete vote: %w", err)
			}
			counterSet = fmt.Sprintf("%s = GREATEST(%s - 1, 0)", column, column)
			current = nil
		default:
			change := fmt.Sprintf(`UPDATE %s SET tipo = $3 WHERE %s = $1 AND usuario_id = $2`, r.tables.votes, r.tables.fk)
			if _, err := tx.ExecContext(ctx, change, postID, userID, kind); err != nil {
				return fmt.Errorf("switch vote: %w", err)
			}
			previous := counterColumn[existing]
			counterSet = fmt.Sprintf("%s = GREATEST(%s - 1, 0), %s = %s + 1", previous, previous, column, column)
		}

		counters, err := r.updateCounters(ctx, tx, postID, counterSet)
		if err != nil {
			return err
		}
		result = &models.VoteResult{
			PostID:         postID,
			UsefulCount:    counters.UsefulCount,
			NotUsefulCount: counters.NotUsefulCount,
			UserVote:       current,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ApplyReport records a report once per (post, user) and increments the
// report counter. A repeated report yields ErrAlreadyReported.
func (r *PostEngagementRepository) ApplyReport(ctx context.Context, postID, userID, reason string) (*models.PostCounters, error) {
	var counters *models.PostCounters
	err := database.RunInTx(ctx, r.db, r.txOpts, func(tx *sqlx.Tx) error {
		ref, err := r.lockPost(ctx, tx, postID)
		if err != nil {
			return err
		}
		if ref.UserID == userID {
			return ErrSelfReport
		}

		insert := fmt.Sprintf(`INSERT INTO %s (id, %s, usuario_id, motivo, created_at) VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (%s, usuario_id) DO NOTHING`, r.tables.reports, r.tables.fk, r.tables.fk)
		res, err := tx.ExecContext(ctx, insert, uuid.NewString(), postID, userID, reason, time.Now().UTC())
		if err != nil {
			return fmt.Errorf("insert report: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("insert report rows: %w", err)
		}
		if affected == 0 {
			return ErrAlreadyReported
		}

		counters, err = r.updateCounters(ctx, tx, postID, "reportes = reportes + 1")
		return err
	})
	if err != nil {
		return nil, err
	}
	return counters, nil
}

// TallyMismatches recomputes vote counters from the vote rows and returns
// the posts whose stored counters disagree.
func (r *PostEngagementRepository) TallyMismatches(ctx context.Context) ([]models.TallyMismatch, error) {
	query := fmt.Sprintf(`SELECT p.id, p.votos_util, p.votos_no_util,
		COUNT(v.id) FILTER (WHERE v.tipo = 'util') AS calc_util,
		COUNT(v.id) FILTER (WHERE v.tipo = 'no_util') AS calc_no_util
		FROM %s p
		LEFT JOIN %s v ON v.%s = p.id
		GROUP BY p.id, p.votos_util, p.votos_no_util
		HAVING p.votos_util <> COUNT(v.id) FILTER (WHERE v.tipo = 'util')
			OR p.votos_no_util <> COUNT(v.id) FILTER (WHERE v.tipo = 'no_util')
		ORDER BY p.id`, r.tables.posts, r.tables.votes, r.tables.fk)
	var mismatches []models.TallyMismatch
	if err := r.db.SelectContext(ctx, &mismatches, query); err != nil {
		return nil, fmt.Errorf("check %s tallies: %w", r.kind, err)
	}
	return mismatches, nil
}

func (r *PostEngagementRepository) lockPost(ctx context.Context, tx *sqlx.Tx, postID string) (*models.PostRef, error) {
	query := fmt.Sprintf(`SELECT id, usuario_id, materia_id FROM %s WHERE id = $1 FOR UPDATE`, r.tables.posts)
	var ref models.PostRef
	if err := tx.GetContext(ctx, &ref, query, postID); err != nil {
		if isNoRows(err) {
			return nil, err
		}
		return nil, fmt.Errorf("lock post: %w", err)
	}
	return &ref, nil
}

func (r *PostEngagementRepository) updateCounters(ctx context.Context, tx *sqlx.Tx, postID, set string) (*models.PostCounters, error) {
	query := fmt.Sprintf(`UPDATE %s SET %s WHERE id = $1 RETURNING votos_util, votos_no_util, reportes`, r.tables.posts, set)
	var counters models.PostCounters
	if err := tx.GetContext(ctx, &counters, query, postID); err != nil {
		return nil, fmt.Errorf("update post counters: %w", err)
	}
	return &counters, nil
}
