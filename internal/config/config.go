package config

import (
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/shopspring/decimal"
)

type Config struct {
	Port         string          `env:"PORT" envDefault:"8080"`
	DataDir      string          `env:"DATA_DIR" envDefault:"./data"`
	CORSOrigin   string          `env:"CORS_ORIGIN" envDefault:"*"`
	JWTSecret    string          `env:"JWT_SECRET,required"`
	TokenTTL     time.Duration   `env:"TOKEN_TTL" envDefault:"168h"`
	StartingCash decimal.Decimal `env:"STARTING_CASH" envDefault:"10000"`
	// TickInterval enables the background market tick loop; 0 disables it.
	TickInterval time.Duration `env:"TICK_INTERVAL" envDefault:"0s"`
	// Kafka quote feed is optional; left empty, no consumer is started.
	KafkaBrokers string `env:"KAFKA_BROKERS"`
	KafkaTopic   string `env:"KAFKA_TOPIC" envDefault:"quotes"`
	KafkaGroupID string `env:"KAFKA_GROUP_ID" envDefault:"paper-trader"`
}

func Load() (Config, error) {
	var cfg Config
	return cfg, env.Parse(&cfg)
}
