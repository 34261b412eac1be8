package main

import (
	"context"
	"flag"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/tradepit/marketsim/config"
	"github.com/tradepit/marketsim/pkg/api"
	"github.com/tradepit/marketsim/pkg/engine"
	"github.com/tradepit/marketsim/pkg/events"
	"github.com/tradepit/marketsim/pkg/fixgateway"
	redis_wrapper "github.com/tradepit/marketsim/pkg/infra/redis"
	"github.com/tradepit/marketsim/pkg/kafka"
	"github.com/tradepit/marketsim/pkg/leaderboard"
	"github.com/tradepit/marketsim/pkg/liquidity"
	"github.com/tradepit/marketsim/pkg/logging"
	"github.com/tradepit/marketsim/pkg/marketdata"
	"github.com/tradepit/marketsim/pkg/orderbook"
)

const tickBuffer = 1024

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

	eng := engine.New(orderbook.NewBookManager(), logger)

	// market data
	news := marketdata.NewNewsSimulator()
	feed := marketdata.NewFeed(cfg.Feed, news, logger)
	for _, inst := range cfg.Instruments {
		feed.AddInstrument(inst.ID, marketdata.NewGBM(inst.StartPrice, inst.Mu, inst.Sigma, 1.0/252, inst.Seed))
	}
	eng.SetReferencePrice(feed.ReferencePrice)

	// push the news/drift signal into the engine
	driftTicks := feed.Subscribe(tickBuffer)
	go func() {
		for {
			select {
			case t, ok := <-driftTicks:
				if !ok {
					return
				}
				eng.SetDrift(t.Drift)
			case <-ctx.Done():
				return
			}
		}
	}()

	// leaderboard
	var boards api.LeaderboardReader
	if cfg.Redis != nil {
		rdb, err := redis_wrapper.InitRedis(cfg.Redis)
		if err != nil {
			logger.Fatal("init redis failed", zap.Error(err))
		}
		lb := leaderboard.New(rdb)
		boards = lb

		tracker := leaderboard.NewPositionTracker(cfg.CompetitionID, eng.MidPrice, lb, logger)
		trackerSink := events.NewBufferedSink(0, tracker.Publish, logger)
		defer trackerSink.Close()
		eng.RegisterSink(trackerSink)
	}

	// audit event stream
	if len(cfg.KafkaProducer.Brokers) > 0 {
		producer := kafka.NewProducer(cfg.KafkaProducer)
		defer producer.Close() // nolint
		kafkaSink := events.NewKafkaSink(producer, cfg.EventTopic, logger)
		bufferedKafka := events.NewBufferedSink(0, kafkaSink.Publish, logger)
		defer bufferedKafka.Close()
		eng.RegisterSink(bufferedKafka)
	}

	// http + websocket
	server := api.NewServer(cfg.Api, eng, boards, logger)
	server.AttachNews(news)
	wsSink := events.NewBufferedSink(0, server.Publish, logger)
	defer wsSink.Close()
	eng.RegisterSink(wsSink)
	go server.StreamTicks(ctx, feed.Subscribe(tickBuffer))

	// fix order entry
	if cfg.Fix.SettingsPath != "" {
		gw := fixgateway.New(cfg.Fix, eng, logger)
		if err := gw.Start(ctx); err != nil {
			logger.Fatal("start fix gateway failed", zap.Error(err))
		}
		defer gw.Stop()
	}

	// liquidity bots
	for _, botCfg := range cfg.Bots {
		bot := liquidity.NewBot(botCfg, eng, logger)
		go bot.Run(ctx, feed.Subscribe(tickBuffer))
	}

	go feed.Run(ctx)

	logger.Info("simulator started",
		zap.String("service", cfg.ServiceName),
		zap.Int("instruments", len(cfg.Instruments)),
		zap.Int("bots", len(cfg.Bots)))

	if err := server.Start(ctx); err != nil {
		logger.Fatal("api server failed", zap.Error(err))
	}
}
