package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"go.uber.org/zap"

	"github.com/erp/commerce-sync/internal/domain/integration"
	"github.com/erp/commerce-sync/internal/infrastructure/config"
	"github.com/erp/commerce-sync/internal/infrastructure/logger"
	"github.com/erp/commerce-sync/internal/infrastructure/persistence"
)

func main() {
	var (
		logLevel  string
		entity    string
		failed    bool
		limit     int
		olderThan time.Duration
	)

	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.StringVar(&entity, "entity", "", "Only list outcomes of this entity")
	flag.BoolVar(&failed, "failed", false, "Only list failed outcomes")
	flag.IntVar(&limit, "limit", 20, "Maximum number of outcomes to list")
	flag.DurationVar(&olderThan, "older-than", 30*24*time.Hour, "Purge outcomes older than this")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}
	command := args[0]

	log, err := logger.New(&logger.Config{
		Level:      logLevel,
		Format:     "console",
		Output:     "stdout",
		TimeFormat: "2006-01-02 15:04:05",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = log.Sync()
	}()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(logLevel), 0)
	db, err := persistence.NewDatabase(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	ctx := context.Background()
	repo := persistence.NewSyncLogRepository(db.DB)

	switch command {
	case "migrate":
		if err := db.Migrate(); err != nil {
			log.Fatal("Migration failed", zap.Error(err))
		}
		log.Info("Sync log table is up to date")

	case "list":
		filter := persistence.SyncLogFilter{FailedOnly: failed, Limit: limit}
		if entity != "" {
			e, err := integration.ParseEntity(entity)
			if err != nil {
				log.Fatal("Invalid entity", zap.Error(err))
			}
			filter.Entity = e
		}
		outcomes, err := repo.List(ctx, filter)
		if err != nil {
			log.Fatal("Failed to list sync log", zap.Error(err))
		}
		printOutcomes(os.Stdout, outcomes)

	case "purge":
		cutoff := time.Now().Add(-olderThan)
		deleted, err := repo.PurgeBefore(ctx, cutoff)
		if err != nil {
			log.Fatal("Failed to purge sync log", zap.Error(err))
		}
		log.Info("Purged sync log", zap.Int64("deleted", deleted), zap.Time("before", cutoff))

	default:
		log.Error("Unknown command", zap.String("command", command))
		printUsage()
		os.Exit(1)
	}
}

func printOutcomes(w io.Writer, outcomes []integration.Outcome) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "STARTED\tENTITY\tKEY\tSTATUS\tDURATION\tEVENT\tMESSAGE")
	for _, o := range outcomes {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\t%s\n",
			o.StartedAt.Format(time.RFC3339),
			o.Entity,
			o.Key,
			o.StatusCode,
			o.Duration.Round(time.Millisecond),
			o.EventID,
			o.Message,
		)
	}
	_ = tw.Flush()
}

func printUsage() {
	fmt.Println(`Sync log maintenance

Usage:
  synclog [flags] <command>

Commands:
  migrate    Create or update the sync_logs table
  list       Print recent outcomes (-entity, -failed, -limit)
  purge      Delete outcomes older than -older-than

Flags:
  -log-level string    Log level (default "info")
  -entity string       Only list outcomes of this entity
  -failed              Only list failed outcomes
  -limit int           Maximum number of outcomes to list (default 20)
  -older-than duration Purge outcomes older than this (default 720h)

Examples:
  synclog migrate
  synclog -entity order -failed list
  synclog -older-than 168h purge`)
}
