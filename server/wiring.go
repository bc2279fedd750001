package server

import (
	"context"
	"errors"
	"github.com/rs/zerolog"
	"meet-recording-sync/artifact"
	"meet-recording-sync/config"
	"meet-recording-sync/constant"
	"meet-recording-sync/pkg/google"
	"meet-recording-sync/pkg/guard"
	"meet-recording-sync/pkg/objectstore"
	"meet-recording-sync/repository"
	"meet-recording-sync/service"
	"time"
)

// NewPort builds the lookup adapters selected by cfg. Google credentials are optional
// only when the heuristic source is the object store; the conference and calendar
// capabilities are then absent.
func NewPort(ctx context.Context, cfg *config.Config) (artifact.Port, error) {
	port := artifact.Port{}

	creds, err := google.LoadServiceAccount(ctx, cfg.Google.ServiceAccountFile, cfg.Google.AdminEmail)
	switch {
	case errors.Is(err, google.ErrMissingCredentials) && cfg.Sync.HeuristicSource == constant.HeuristicSourceMinIO:
		zerolog.Ctx(ctx).Warn().Msg("google credentials not configured, conference record lookup disabled")
	case err != nil:
		return port, err
	default:
		opts := creds.ClientOptions()
		conference, err := google.NewConferenceRecords(ctx, opts...)
		if err != nil {
			return port, err
		}
		calendar, err := google.NewCalendar(ctx, cfg.Google.CalendarId, opts...)
		if err != nil {
			return port, err
		}
		port.Conference = conference
		port.Calendar = calendar

		if cfg.Sync.HeuristicSource == constant.HeuristicSourceDrive {
			drive, err := google.NewDriveSource(ctx, opts...)
			if err != nil {
				return port, err
			}
			port.Files = drive
		}
	}

	if cfg.Sync.HeuristicSource == constant.HeuristicSourceMinIO {
		port.Files = objectstore.NewStore(cfg.Storage, cfg.MinIO.Bucket, cfg.MinIO.Prefix)
	}

	zerolog.Ctx(ctx).Info().
		Bool("conference", port.Conference != nil).
		Bool("calendar", port.Calendar != nil).
		Str("heuristic_source", string(cfg.Sync.HeuristicSource)).
		Msg("artifact lookup port ready")
	return port, nil
}

// NewEngine assembles the strategy chain, pipeline and batch scheduler behind the quota guard.
func NewEngine(ctx context.Context, cfg *config.Config, repo repository.Repository, port artifact.Port) (*service.Pipeline, *service.Scheduler) {
	g := guard.New(ctx, guard.Config{
		RatePerSecond:    cfg.Sync.RatePerSecond,
		Burst:            cfg.Sync.RateBurst,
		FailureThreshold: cfg.Sync.BreakerFailures,
		OpenTimeout:      cfg.Sync.BreakerTimeout,
	})
	port = g.Wrap(port)

	ranker := service.NewRanker(port.Calendar)
	chain := service.NewChain(
		service.NewConferenceRecordStrategy(port.Conference),
		service.NewJoinCodeStrategy(port.Files, ranker),
		service.NewEventIdStrategy(port.Files),
		service.NewDateWindowStrategy(port.Files, ranker, time.Now, cfg.Sync.DateWindowLimit),
	)
	pipeline := service.NewPipeline(chain, service.NewReconciler(repo, port.Files))
	return pipeline, service.NewScheduler(repo, pipeline)
}

func NewSyncService(ctx context.Context, cfg *config.Config, repo repository.Repository, publisher service.Publisher) (service.SyncService, error) {
	port, err := NewPort(ctx, cfg)
	if err != nil {
		return nil, err
	}
	pipeline, scheduler := NewEngine(ctx, cfg, repo, port)
	return service.NewSyncService(
		repo,
		pipeline,
		scheduler,
		publisher,
		service.LinearPolicy(cfg.Sync.SingleBaseDelay, cfg.Sync.SingleMaxRetries),
		service.FixedPolicy(cfg.Sync.BatchDelay, cfg.Sync.BatchMaxRetries),
	), nil
}
