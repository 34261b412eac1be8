package main

import (
	"flag"

	"go.uber.org/zap"

	"github.com/tradepit/marketsim/config"
	"github.com/tradepit/marketsim/pkg/infra"
	"github.com/tradepit/marketsim/pkg/logging"
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

	if err := infra.Migrate("file://migrations", cfg.AuditDB.MigrationConnURL); err != nil {
		logger.Fatal("migration failed", zap.Error(err))
	}
}
