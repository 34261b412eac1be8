package config

import (
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/tradepit/marketsim/pkg/api"
	"github.com/tradepit/marketsim/pkg/fixgateway"
	postgres_wrapper "github.com/tradepit/marketsim/pkg/infra/postgres"
	redis_wrapper "github.com/tradepit/marketsim/pkg/infra/redis"
	"github.com/tradepit/marketsim/pkg/kafka"
	"github.com/tradepit/marketsim/pkg/liquidity"
	"github.com/tradepit/marketsim/pkg/marketdata"
)

// InstrumentConfig seeds one simulated instrument's price process.
type InstrumentConfig struct {
	ID         string  `yaml:"id"`
	StartPrice float64 `yaml:"start_price"`
	Mu         float64 `yaml:"mu"`
	Sigma      float64 `yaml:"sigma"`
	Seed       int64   `yaml:"seed"`
}

type AppConfig struct {
	ServiceName   string `yaml:"service_name"`
	LogLevel      string `yaml:"log_level"`
	CompetitionID string `yaml:"competition_id"`

	Api api.Config        `yaml:"api"`
	Fix fixgateway.Config `yaml:"fix"`

	Feed        marketdata.FeedConfig `yaml:"feed"`
	Instruments []InstrumentConfig    `yaml:"instruments"`
	Bots        []liquidity.BotConfig `yaml:"bots"`

	EventTopic    string               `yaml:"event_topic"`
	KafkaProducer kafka.ProducerConfig `yaml:"kafka_producer"`
	KafkaConsumer kafka.ConsumerConfig `yaml:"kafka_consumer"`

	AuditDB *postgres_wrapper.PostgresConfig `yaml:"audit_db"`
	Redis   *redis_wrapper.RedisConfig       `yaml:"redis"`
}

// Load reads the yaml config, expanding ${VAR} references from the
// environment first.
func Load(filePath string) (*AppConfig, error) {
	if len(filePath) == 0 {
		filePath = os.Getenv("CONFIG_FILE")
	}

	sugar := zap.S().With("func", "config.Load", "filePath", filePath)
	sugar.Debug("Load config...")

	configBytes, err := os.ReadFile(filePath)
	if err != nil {
		sugar.Error("Failed to load config file")
		return nil, err
	}
	configBytes = []byte(os.ExpandEnv(string(configBytes)))

	cfg := &AppConfig{}
	if err := yaml.Unmarshal(configBytes, cfg); err != nil {
		sugar.Error("Failed to parse config file")
		return nil, err
	}

	return cfg, nil
}
