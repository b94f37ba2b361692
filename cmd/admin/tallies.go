package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strconv"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"github.com/cursada/planner-api/internal/models"
	"github.com/cursada/planner-api/internal/repository"
	"github.com/cursada/planner-api/pkg/database"
)

type tallySource interface {
	Kind() models.PostKind
	TallyMismatches(ctx context.Context) ([]models.TallyMismatch, error)
}

func runCheckTallies(ctx context.Context, env *environment, args []string) error {
	fs := flag.NewFlagSet("check-tallies", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	db, err := database.NewPostgres(env.cfg.Database)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer db.Close()

	return checkTallies(ctx, env.out,
		repository.NewPostEngagementRepository(db, models.PostKindRating),
		repository.NewPostEngagementRepository(db, models.PostKindExamTopic),
	)
}

// checkTallies prints every post whose counters drifted from its vote rows
// and returns an error when any did.
func checkTallies(ctx context.Context, w io.Writer, sources ...tallySource) error {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Kind", "Post", "Useful", "Useful (votes)", "Not useful", "Not useful (votes)"})

	drifted := 0
	for _, source := range sources {
		mismatches, err := source.TallyMismatches(ctx)
		if err != nil {
			return fmt.Errorf("check %s tallies: %w", source.Kind(), err)
		}
		for _, m := range mismatches {
			table.Append([]string{
				string(source.Kind()),
				m.PostID,
				strconv.Itoa(m.StoredUseful),
				strconv.Itoa(m.ComputedUseful),
				strconv.Itoa(m.StoredNotUseful),
				strconv.Itoa(m.ComputedNotUseful),
			})
		}
		drifted += len(mismatches)
	}

	if drifted == 0 {
		color.New(color.FgGreen).Fprintln(w, "all vote counters match their vote rows")
		return nil
	}
	table.Render()
	return fmt.Errorf("%d posts have drifted vote counters", drifted)
}
