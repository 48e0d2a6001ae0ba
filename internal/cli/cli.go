package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rpattn/reportimport/internal/config"
	"github.com/rpattn/reportimport/internal/db"
	"github.com/rpattn/reportimport/internal/ingestion"
	"github.com/rpattn/reportimport/internal/logging"
	"github.com/rpattn/reportimport/internal/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
)

var (
	// ErrUsage is returned when the command line cannot be used as given.
	ErrUsage = errors.New("usage: importer [flags] <spreadsheet-path> [connection-string]")
	// ErrMissingDatabaseURL is returned when no connection string was supplied anywhere.
	ErrMissingDatabaseURL = errors.New("database url not provided and DATABASE_URL is not set")
)

// Connector opens the database connection used for a run.
type Connector func(ctx context.Context, config db.Config) (db.Connection, error)

// App runs the importer.
type App struct {
	Out     io.Writer
	Connect Connector
	Now     func() time.Time
}

// NewApp returns an App that logs to out and connects to real databases.
func NewApp(out io.Writer) *App {
	return &App{
		Out:     out,
		Connect: db.NewConnection,
		Now:     time.Now,
	}
}

// Run executes one import. A nil error means the batch was committed, or
// for --dry-run, that the file was read.
func (a *App) Run(ctx context.Context, args []string) error {
	cfg, err := config.Load(args, a.Out)
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}
	if cfg.SourcePath == "" {
		return ErrUsage
	}

	logger, err := logging.New(cfg.Log, a.Out)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}
	log := logger.WithFields(logrus.Fields{
		"run_id": uuid.NewString(),
		"file":   cfg.SourcePath,
	})
	if cfg.ConfigFile != "" {
		log.WithField("config", cfg.ConfigFile).Debug("loaded config file")
	}

	var dbConfig db.Config
	if !cfg.DryRun {
		if cfg.DatabaseURL == "" {
			return ErrMissingDatabaseURL
		}
		dbConfig, err = db.ParseURL(cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("invalid database url: %w", err)
		}
	}

	service := ingestion.NewService(log, ingestion.SourceOptions{
		Sheet:      cfg.Sheet,
		HeaderRows: cfg.HeaderRows,
	}, ingestion.WithClock(a.Now))

	log.Info("loading spreadsheet")
	reports, stats, err := service.Load(cfg.SourcePath)
	if err != nil {
		return err
	}
	log.WithFields(logrus.Fields{
		"rows":    stats.RowsRead,
		"skipped": stats.Skipped,
		"invalid": stats.Invalid,
	}).Infof("found %d reports to import", len(reports))

	if cfg.DryRun {
		a.logPreview(log, ingestion.Preview(reports, stats, cfg.PreviewRows))
		return nil
	}

	log.WithField("database", dbConfig.Redacted()).Info("connecting to database")
	conn, err := a.Connect(ctx, dbConfig)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		if err := conn.Close(context.Background()); err != nil {
			log.WithError(err).Warn("failed to close database connection")
		}
	}()

	repo := repository.NewErrorReportRepository(conn, cfg.Table)
	summary, err := service.Write(ctx, repo, reports)
	if err != nil {
		return fmt.Errorf("import aborted: %w", err)
	}

	done := log.WithFields(logrus.Fields{
		"imported": summary.Imported,
		"failed":   summary.Failed,
	})
	if summary.Failed > 0 {
		done.Warnf("import finished with %d errors", summary.Failed)
	} else {
		done.Info("import finished")
	}
	return nil
}

func (a *App) logPreview(log logrus.FieldLogger, preview ingestion.PreviewResult) {
	for _, report := range preview.Reports {
		log.WithFields(logrus.Fields{
			"client_id": report.ClientID,
			"key":       report.Key,
			"origin":    report.Origin,
			"reason":    report.Reason,
			"status":    report.Status,
		}).Info("preview")
	}
	log.WithField("shown", len(preview.Reports)).Info("dry run finished, nothing written")
}

// ExitCode maps a Run error to the process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ErrUsage):
		return 2
	default:
		return 1
	}
}
