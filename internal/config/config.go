package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	App       App       `yaml:"app"`
	Log       Log       `yaml:"log"`
	Broker    Broker    `yaml:"broker"`
	Kafka     Kafka     `yaml:"kafka"`
	Redis     Redis     `yaml:"redis"`
	Postgres  Postgres  `yaml:"postgres"`
	Source    Source    `yaml:"source"`
	Producer  Producer  `yaml:"producer"`
	Consumer  Consumer  `yaml:"consumer"`
	Chart     Chart     `yaml:"chart"`
	Dashboard Dashboard `yaml:"dashboard"`
}

type App struct {
	Name    string `yaml:"name" env:"APP_NAME" env-default:"bookbuzz"`
	Version string `yaml:"version" env:"APP_VERSION" env-default:"1.0.0"`
}

type Log struct {
	Level string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
}

// Broker selects which transport implementation the producer and
// consumer binaries connect to. Supported: "kafka" (default), "redis".
type Broker struct {
	Kind string `yaml:"kind" env:"BROKER_KIND" env-default:"kafka"`
}

type Kafka struct {
	Brokers     []string `yaml:"brokers" env:"KAFKA_BROKERS" env-default:"localhost:9092"`
	Topic       string   `yaml:"topic" env:"BOOK_TOPIC" env-default:"book-reads"`
	GroupID     string   `yaml:"group_id" env:"BOOK_CONSUMER_GROUP_ID" env-default:"book-reads-group-1"`
	StartOffset string   `yaml:"start_offset" env:"KAFKA_START_OFFSET" env-default:"earliest"`
}

type Redis struct {
	Addr string `yaml:"addr" env:"REDIS_ADDR" env-default:"localhost:6379"`
}

type Postgres struct {
	Host     string `yaml:"host" env:"POSTGRES_HOST" env-default:"localhost"`
	Port     string `yaml:"port" env:"POSTGRES_PORT" env-default:"5432"`
	User     string `yaml:"user" env:"POSTGRES_USER" env-default:"user"`
	Password string `yaml:"password" env:"POSTGRES_PASSWORD" env-default:"password"`
	DBName   string `yaml:"dbname" env:"POSTGRES_DB" env-default:"bookbuzz_db"`
}

// Source selects where the producer pulls reading events from.
// Supported kinds: "static" (built-in looping dataset, default),
// "postgres" (readings table).
type Source struct {
	Kind string `yaml:"kind" env:"SOURCE_KIND" env-default:"static"`
	Loop bool   `yaml:"loop" env:"SOURCE_LOOP" env-default:"true"`
}

// Durations are env-only: the yaml decoder cannot parse "1s" style
// values into time.Duration.
type Producer struct {
	Interval    time.Duration `yaml:"-" env:"PRODUCER_INTERVAL" env-default:"1s"`
	MaxRetries  int           `yaml:"max_retries" env:"PRODUCER_MAX_RETRIES" env-default:"3"`
	BaseBackoff time.Duration `yaml:"-" env:"PRODUCER_BASE_BACKOFF" env-default:"500ms"`
	// MetricsPort must stay clear of the broker's default 9092.
	MetricsPort string `yaml:"metrics_port" env:"PRODUCER_METRICS_PORT" env-default:"9093"`
}

type Consumer struct {
	PollTimeout time.Duration `yaml:"-" env:"CONSUMER_POLL_TIMEOUT" env-default:"1s"`
	BatchSize   int           `yaml:"batch_size" env:"CONSUMER_BATCH_SIZE" env-default:"100"`
}

type Chart struct {
	Refresh time.Duration `yaml:"-" env:"CHART_REFRESH" env-default:"2s"`
	TopN    int           `yaml:"top_n" env:"CHART_TOP_N" env-default:"10"`
	Width   int           `yaml:"width" env:"CHART_WIDTH" env-default:"40"`
}

type Dashboard struct {
	Port string `yaml:"port" env:"DASHBOARD_PORT" env-default:"9091"`
}

func New() (*Config, error) {
	cfg := &Config{}

	if err := cleanenv.ReadConfig("config.yaml", cfg); err != nil {
		// fallback to env vars if file not found
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("config error: %w", err)
		}
	} else {
		// Allow env vars to override config file
		cleanenv.ReadEnv(cfg)
	}

	return cfg, nil
}
