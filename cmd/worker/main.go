package main

import (
	"context"
	"flag"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/tradepit/marketsim/config"
	postgres_wrapper "github.com/tradepit/marketsim/pkg/infra/postgres"
	"github.com/tradepit/marketsim/pkg/kafka"
	"github.com/tradepit/marketsim/pkg/logging"
	"github.com/tradepit/marketsim/pkg/repo"
	"github.com/tradepit/marketsim/pkg/worker"
)

func main() {
	var configFile string
	flag.StringVar(&configFile, "config-file", "", "Specify config file path")
	flag.Parse()

	cfg, err := config.Load(configFile)
	if err != nil {
		panic(err)
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer logger.Sync() // nolint

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db := postgres_wrapper.InitPostgresWithBackoff(cfg.AuditDB)

	consumer := kafka.NewConsumer(cfg.KafkaConsumer)
	defer consumer.Close() // nolint

	w := worker.New(repo.NewRepo(db), logger)

	logger.Info("persistence worker started",
		zap.String("topic", cfg.KafkaConsumer.Topic),
		zap.String("group", cfg.KafkaConsumer.GroupID))

	if err := w.Run(ctx, consumer); err != nil {
		logger.Fatal("worker stopped", zap.Error(err))
	}
}
