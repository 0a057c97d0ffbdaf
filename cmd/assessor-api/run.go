package main

import (
	"context"
	"errors"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	apiserver "github.com/studio-labs/assessor/internal/api_server"
	"github.com/studio-labs/assessor/internal/config"
	"github.com/studio-labs/assessor/internal/events"
	"github.com/studio-labs/assessor/internal/service"
	"github.com/studio-labs/assessor/internal/store"
	"github.com/studio-labs/assessor/pkg/archive"
	"github.com/studio-labs/assessor/pkg/log"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the assessor api",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.New()
		if err != nil {
			zap.S().Fatalw("reading configuration", "error", err)
		}

		logger := log.InitLog(log.ParseLevel(cfg.Service.LogLevel))
		defer func() { _ = logger.Sync() }()

		undo := zap.ReplaceGlobals(logger)
		defer undo()

		zap.S().Info("Starting API service...")
		defer zap.S().Info("API service stopped")

		zap.S().Info("Initializing data store")
		db, err := store.InitDB(cfg)
		if err != nil {
			zap.S().Fatalw("initializing data store", "error", err)
		}

		s := store.NewStore(db)
		defer s.Close()

		if err := migrate(cmd.Context(), cfg, db, s); err != nil {
			zap.S().Fatalw("running migrations", "error", err)
		}

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGHUP, syscall.SIGTERM, syscall.SIGQUIT)
		defer cancel()

		producer, err := newEventProducer(cfg)
		if err != nil {
			zap.S().Fatalw("creating event producer", "error", err)
		}
		defer func() {
			if err := producer.Close(); err != nil {
				zap.S().Errorw("closing event producer", "error", err)
			}
		}()

		assessmentService := service.NewAssessmentService(s, producer, newArchiver(cfg))

		g, ctx := errgroup.WithContext(ctx)

		g.Go(func() error {
			listener, err := newListener(cfg.Service.Address)
			if err != nil {
				return err
			}
			return apiserver.New(cfg, listener, assessmentService).Run(ctx)
		})

		g.Go(func() error {
			listener, err := newListener(cfg.Service.MetricsAddress)
			if err != nil {
				return err
			}
			return apiserver.NewMetricServer(cfg.Service.MetricsAddress, listener, s).Run(ctx)
		})

		g.Go(func() error {
			return service.NewReaper(assessmentService, cfg.Service.Reaper.MaxGenerationAge, cfg.Service.Reaper.Interval).Run(ctx)
		})

		if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
			zap.S().Errorw("service failed", "error", err)
			return err
		}
		return nil
	},
}

// newEventProducer writes to kafka when brokers are configured and to the log otherwise.
func newEventProducer(cfg *config.Config) (*events.EventProducer, error) {
	kafka := cfg.Service.Kafka
	if len(kafka.Brokers) == 0 {
		zap.S().Info("no kafka brokers configured, events go to stdout")
		return events.NewEventProducer(events.NewStdoutWriter(os.Stdout)), nil
	}

	saramaConfig := kafka.SaramaConfig
	if saramaConfig == nil {
		var err error
		if saramaConfig, err = events.NewKafkaConfig(kafka.ClientID, kafka.Version); err != nil {
			return nil, err
		}
	}

	writer, err := events.NewKafkaWriter(kafka.Brokers, saramaConfig)
	if err != nil {
		return nil, err
	}

	opts := []events.ProducerOptions{}
	if kafka.Topic != "" {
		opts = append(opts, events.WithOutputTopic(kafka.Topic))
	}
	zap.S().Infow("publishing events to kafka", "brokers", kafka.Brokers, "topic", kafka.Topic)
	return events.NewEventProducer(writer, opts...), nil
}

// newArchiver returns nil when archiving is disabled or the bucket cannot be reached.
func newArchiver(cfg *config.Config) service.Archiver {
	a := cfg.Service.Archive
	if a.Endpoint == "" {
		return nil
	}

	archiver, err := archive.NewMinioArchiver(
		archive.WithEndpoint(a.Endpoint),
		archive.WithBucket(a.Bucket),
		archive.WithAccessKey(a.AccessKey),
		archive.WithSecretKey(a.SecretKey),
		archive.WithSSL(a.UseSSL),
	)
	if err != nil {
		zap.S().Errorw("failed to create minio archiver, results will not be archived", "error", err)
		return nil
	}
	return archiver
}

func newListener(address string) (net.Listener, error) {
	if address == "" {
		address = "localhost:0"
	}
	return net.Listen("tcp", address)
}
