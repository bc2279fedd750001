package server

import (
	"context"
	"errors"
	"fmt"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"meet-recording-sync/config"
	"meet-recording-sync/constant"
	jobHandler "meet-recording-sync/handler"
	"meet-recording-sync/pkg/rabbitmq"
	"meet-recording-sync/repository"
	"meet-recording-sync/service"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

func RunHttp(cfg *config.Config) {
	ctx, cancel := signal.NotifyContext(SetupLogger(cfg), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	zerolog.Ctx(ctx).Info().Str("env", cfg.App.Environment).Bool("isProduction", cfg.App.Environment == constant.EnvironmentProduction.String()).Send()
	if cfg.App.Environment == constant.EnvironmentProduction.String() {
		gin.SetMode(gin.ReleaseMode)
	}

	conn, err := config.NewRabbitMQConn(ctx, cfg.Queue)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("NewRabbitMQConn")
		return
	}

	repo, err := repository.NewRepo(cfg.DB)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("NewRepo")
		return
	}

	syncService, err := NewSyncService(ctx, cfg, repo, rabbitmq.NewPublisher(conn, cfg.Queue))
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("NewSyncService")
		return
	}

	serviceDeps := jobHandler.ServiceDependencies{
		SyncService: syncService,
	}

	startConsumer(ctx, rabbitmq.NewConsumer(
		conn, cfg.Queue, rabbitmq.SyncTopology(cfg.Queue.ExchangeName, constant.JobTypeSyncMeeting), cfg.Server.Workers, jobHandler.SyncMeetingHandler,
	), serviceDeps, "Sync meeting consumer error")

	// one batch at a time
	startConsumer(ctx, rabbitmq.NewConsumer(
		conn, cfg.Queue, rabbitmq.SyncTopology(cfg.Queue.ExchangeName, constant.JobTypeSyncAll), 1, jobHandler.SyncAllHandler,
	), serviceDeps, "Sync all consumer error")

	scheduler, err := startSchedule(ctx, cfg.Sync.Schedule, syncService)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("schedule", cfg.Sync.Schedule).Msg("invalid sync schedule")
		return
	}
	defer scheduler.Stop()

	r := gin.Default()
	addHealth(r)
	addMetrics(r)
	jobHandler.NewHttpHandler(syncService).Register(r)

	handler := http.Server{
		Handler:           r,
		Addr:              fmt.Sprintf(":%s", cfg.Server.HttpPort),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	go func() {
		zerolog.Ctx(ctx).Info().Str("env", cfg.App.Environment).Msg("start http server")
		if err := handler.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zerolog.Ctx(ctx).Error().Str("env", cfg.App.Environment).Msg(err.Error())
		}
	}()

	<-ctx.Done()
	zerolog.Ctx(ctx).Info().Msg("shutting down server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer shutdownCancel()
	if err := handler.Shutdown(shutdownCtx); err != nil {
		zerolog.Ctx(ctx).Error().Str("env", cfg.App.Environment).Msg(err.Error())
	}

	zerolog.Ctx(ctx).Info().Str("env", cfg.App.Environment).Msg("server shutdown")
}

func startConsumer(ctx context.Context, consumer rabbitmq.Consumer[jobHandler.ServiceDependencies], deps jobHandler.ServiceDependencies, msg string) {
	go func() {
		err := consumer.Consume(ctx, deps)
		if err != nil && !errors.Is(err, context.Canceled) {
			zerolog.Ctx(ctx).Error().Err(err).Msg(msg)
		}
	}()
}

// startSchedule enqueues the unbounded batch on spec.
func startSchedule(ctx context.Context, spec string, syncService service.SyncService) (*cron.Cron, error) {
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		job, err := syncService.EnqueueBatchSync(ctx, nil)
		if err != nil {
			zerolog.Ctx(ctx).Error().Err(err).Msg("failed to enqueue scheduled batch sync")
			return
		}
		zerolog.Ctx(ctx).Info().Str("job_id", job.ID.String()).Msg("scheduled batch sync enqueued")
	})
	if err != nil {
		return nil, err
	}
	c.Start()
	return c, nil
}

func addHealth(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
		})
	})
}

func addMetrics(r *gin.Engine) {
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

func SetupLogger(cfg *config.Config) context.Context {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if cfg.App.Environment == constant.EnvironmentDevelop.String() {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	// Log to standard output
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	ctx := logger.WithContext(context.Background())

	return ctx
}
