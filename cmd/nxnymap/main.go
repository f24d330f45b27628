package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/nxny-map-etl/internal/adapter/jsonfile"
	kafkaadapter "github.com/couchcryptid/nxny-map-etl/internal/adapter/kafka"
	"github.com/couchcryptid/nxny-map-etl/internal/adapter/objectstore"
	"github.com/couchcryptid/nxny-map-etl/internal/adapter/postgres"
	"github.com/couchcryptid/nxny-map-etl/internal/adapter/xlsx"
	"github.com/couchcryptid/nxny-map-etl/internal/config"
	"github.com/couchcryptid/nxny-map-etl/internal/observability"
	"github.com/couchcryptid/nxny-map-etl/internal/pipeline"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	err = run(cfg, logger, metrics, os.Stdout)

	if cfg.MetricsTextfile != "" {
		if werr := observability.WriteTextfile(cfg.MetricsTextfile); werr != nil {
			logger.Error("write metrics textfile", "path", cfg.MetricsTextfile, "error", werr)
		}
	}
	if err != nil {
		logger.Error("extraction failed", "input", cfg.InputPath, "output", cfg.OutputPath, "error", err)
		os.Exit(1)
	}
}

// run extracts the map and prints the summary line to out.
func run(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics, out io.Writer) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	publishers, closeAll, err := buildPublishers(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeAll()

	p := pipeline.New(
		xlsx.NewReader(cfg.InputPath, cfg.Columns, logger),
		jsonfile.NewWriter(cfg.OutputPath),
		publishers,
		logger,
		metrics,
		clockwork.NewRealClock(),
	)

	res, err := p.Run(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "총 %d개 지역 변환 완료. → %s 생성됨\n", res.Entries, filepath.Base(cfg.OutputPath))
	return nil
}

// buildPublishers wires every configured sink in a fixed order: Kafka, object
// store, PostgreSQL. The returned func closes them all.
func buildPublishers(ctx context.Context, cfg *config.Config, logger *slog.Logger) ([]pipeline.Publisher, func(), error) {
	var (
		publishers []pipeline.Publisher
		closers    []func()
	)
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	if cfg.KafkaEnabled() {
		kp := kafkaadapter.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, cfg.BatchSize, logger)
		publishers = append(publishers, kp)
		closers = append(closers, func() {
			if err := kp.Close(); err != nil {
				logger.Error("kafka writer close error", "error", err)
			}
		})
		logger.Info("kafka publisher enabled", "topic", cfg.KafkaTopic, "batch_size", cfg.BatchSize)
	}

	if cfg.MinioEnabled() {
		op, err := objectstore.NewPublisher(objectstore.Options{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			UseSSL:    cfg.MinioUseSSL,
			Bucket:    cfg.MinioBucket,
			ObjectKey: cfg.MinioObjectKey,
		}, logger)
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		publishers = append(publishers, op)
		logger.Info("object store publisher enabled", "bucket", cfg.MinioBucket, "key", cfg.MinioObjectKey)
	}

	if cfg.PostgresEnabled() {
		pp, err := postgres.NewPublisher(ctx, cfg.DatabaseURL, logger)
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		publishers = append(publishers, pp)
		closers = append(closers, pp.Close)
		logger.Info("postgres publisher enabled")
	}

	return publishers, closeAll, nil
}
