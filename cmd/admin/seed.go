package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strconv"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"go.uber.org/zap"

	"github.com/cursada/planner-api/internal/repository"
	"github.com/cursada/planner-api/internal/seed"
	"github.com/cursada/planner-api/internal/service"
	"github.com/cursada/planner-api/pkg/cache"
	"github.com/cursada/planner-api/pkg/database"
)

func runSeed(ctx context.Context, env *environment, args []string) error {
	fs := flag.NewFlagSet("seed", flag.ContinueOnError)
	file := fs.String("file", "", "YAML catalog to load; the embedded default is used when empty")
	dryRun := fs.Bool("dry-run", false, "validate the catalog without touching the database")
	if err := fs.Parse(args); err != nil {
		return err
	}

	catalog, err := loadCatalog(*file)
	if err != nil {
		return err
	}
	if *dryRun {
		color.New(color.FgGreen).Fprintf(env.out, "catalog ok: %d universities\n", len(catalog.Universities))
		return nil
	}

	db, err := database.NewPostgres(env.cfg.Database)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer db.Close()

	seeder := seed.NewSeeder(db, repository.NewSeedRepository(db), env.logger)
	report, err := seeder.Run(ctx, catalog)
	if err != nil {
		return err
	}
	renderSeedReport(env.out, report)
	invalidateCatalogCache(ctx, env)
	return nil
}

func loadCatalog(path string) (*seed.Catalog, error) {
	if path == "" {
		return seed.Default()
	}
	return seed.LoadFile(path)
}

// invalidateCatalogCache drops cached listings so readers see the new
// catalog. Failures are reported but do not fail the seed.
func invalidateCatalogCache(ctx context.Context, env *environment) {
	if !env.cfg.Catalog.CacheEnabled {
		return
	}
	client, err := cache.NewRedis(env.cfg.Redis)
	if err != nil {
		env.logger.Warn("catalog cache not invalidated", zap.Error(err))
		return
	}
	repo := repository.NewCacheRepository(client, env.logger)
	defer repo.Close() //nolint:errcheck

	cacheSvc := service.NewCacheService(repo, nil, env.cfg.Catalog.CacheTTL, env.logger, true)
	if err := cacheSvc.Invalidate(ctx, service.CatalogCacheNamespace+"*"); err != nil {
		return
	}
	color.New(color.FgCyan).Fprintln(env.out, "catalog cache invalidated")
}

func renderSeedReport(w io.Writer, report *seed.Report) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Entity", "Inserted", "Existing", "Skipped"})
	for _, row := range []struct {
		name   string
		counts seed.Counts
	}{
		{"universities", report.Universities},
		{"careers", report.Careers},
		{"subjects", report.Subjects},
		{"prerequisites", report.Prerequisites},
	} {
		table.Append([]string{
			row.name,
			strconv.Itoa(row.counts.Inserted),
			strconv.Itoa(row.counts.Existing),
			strconv.Itoa(row.counts.Skipped),
		})
	}
	table.Render()

	if len(report.SkippedEdges) == 0 {
		return
	}
	warn := color.New(color.FgYellow)
	warn.Fprintf(w, "%d prerequisite edges skipped:\n", len(report.SkippedEdges))
	for _, edge := range report.SkippedEdges {
		warn.Fprintf(w, "  %s: %d requires %d (%s)\n", edge.Career, edge.Subject, edge.Requires, edge.Kind)
	}
}
