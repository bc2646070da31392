package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/wb-go/wbf/dbpg"
	"github.com/wb-go/wbf/retry"
	"github.com/wb-go/wbf/zlog"

	imagehandler "github.com/pixvault/pixvault/internal/api/handlers/image"
	userhandler "github.com/pixvault/pixvault/internal/api/handlers/user"
	"github.com/pixvault/pixvault/internal/api/router"
	"github.com/pixvault/pixvault/internal/api/server"
	"github.com/pixvault/pixvault/internal/classifier"
	"github.com/pixvault/pixvault/internal/config"
	"github.com/pixvault/pixvault/internal/infra/beanstalk"
	"github.com/pixvault/pixvault/internal/messaging/dispatcher"
	imagemsg "github.com/pixvault/pixvault/internal/messaging/handlers/image"
	usermsg "github.com/pixvault/pixvault/internal/messaging/handlers/user"
	"github.com/pixvault/pixvault/internal/messaging/publisher"
	"github.com/pixvault/pixvault/internal/model"
	imagerepo "github.com/pixvault/pixvault/internal/repository/image"
	labelrepo "github.com/pixvault/pixvault/internal/repository/label"
	userrepo "github.com/pixvault/pixvault/internal/repository/user"
	"github.com/pixvault/pixvault/internal/service/analysis"
	"github.com/pixvault/pixvault/internal/service/upload"
	usersvc "github.com/pixvault/pixvault/internal/service/user"
	"github.com/pixvault/pixvault/internal/storage/object"
)

func main() {
	// Context & signals: used for graceful shutdown on system interrupts.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize logger and load application configuration.
	zlog.Init()
	cfg := config.MustLoad("./config/config.yml")

	// Connect to PostgreSQL (master and slaves).
	opts := &dbpg.Options{
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}

	slaveDSNs := make([]string, 0, len(cfg.Database.Slaves))
	for _, s := range cfg.Database.Slaves {
		slaveDSNs = append(slaveDSNs, s.DSN())
	}

	db, err := dbpg.New(cfg.Database.Master.DSN(), slaveDSNs, opts)
	if err != nil {
		zlog.Logger.Fatal().Err(err).Msg("failed to connect to database")
	}

	// Retry strategy for queue reads and other external calls.
	strategy := retry.Strategy{
		Attempts: cfg.Retry.Attempts,
		Delay:    cfg.Retry.Delay,
		Backoff:  cfg.Retry.Backoff,
	}

	// Object storage (MinIO/S3): temporary and permanent buckets.
	store, err := object.NewStorage(
		ctx,
		cfg.Storage.Endpoint, cfg.Storage.AccessKey, cfg.Storage.SecretKey, cfg.Storage.UseSSL,
		cfg.Storage.TemporaryBucket, cfg.Storage.PermanentBucket,
		cfg.Storage.URLTTL,
	)
	if err != nil {
		zlog.Logger.Fatal().Err(err).Msg("failed to connect to object storage")
	}

	// Job queue (beanstalkd tubes).
	queue, err := beanstalk.Dial(cfg.Beanstalk.Addr, cfg.Beanstalk.ReserveTimeout)
	if err != nil {
		zlog.Logger.Fatal().Err(err).Msg("failed to connect to beanstalkd")
	}

	// Repositories, publisher, services.
	users := userrepo.NewRepository(db)
	images := imagerepo.NewRepository(db)
	labels := labelrepo.NewRepository(db)

	pub := publisher.New(queue)
	mover := object.NewMover(store)

	uploadService := upload.NewService(store, mover, images, users, pub)
	userService := usersvc.NewService(users, pub)
	analysisService := analysis.NewService(classifier.Disabled{}, labels)

	// Dispatcher polls the event tubes and fans out to the worker pool.
	d := dispatcher.New(queue, strategy, cfg.Workers.Max)
	d.Register(model.TubeImagesUploaded, imagemsg.NewUploadedHandler(analysisService))
	d.Register(model.TubeUserDeleted, usermsg.NewDeletedHandler(uploadService))

	var wg sync.WaitGroup
	wg.Add(1)
	go d.Run(ctx, &wg)

	// HTTP surface.
	r := router.Setup(imagehandler.NewHandler(uploadService), userhandler.NewHandler(userService))
	s := server.New(cfg.Server.HTTPPort, r)
	go func() {
		if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	// Block until context is canceled (SIGINT/SIGTERM).
	<-ctx.Done()
	zlog.Logger.Info().Msg("context done")

	// Wait for the dispatcher and its in-flight handlers to finish.
	wg.Wait()

	// Graceful shutdown with timeout for HTTP server.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	zlog.Logger.Info().Msg("shutting down server")
	if err := s.Shutdown(shutdownCtx); err != nil {
		zlog.Logger.Error().Err(err).Msg("failed to shutdown server")
	}
	if errors.Is(shutdownCtx.Err(), context.DeadlineExceeded) {
		zlog.Logger.Info().Msg("timeout exceeded, forcing shutdown")
	}

	// Close master and slave databases.
	if err := db.Master.Close(); err != nil {
		zlog.Logger.Printf("failed to close master DB: %v", err)
	}
	for i, slave := range db.Slaves {
		if err := slave.Close(); err != nil {
			zlog.Logger.Printf("failed to close slave DB %d: %v", i, err)
		}
	}

	// Close queue connection.
	if err := queue.Close(); err != nil {
		zlog.Logger.Error().Err(err).Msg("failed to close beanstalkd connection")
	}
}
