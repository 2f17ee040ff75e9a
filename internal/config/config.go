package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

var singleConfig *Config = nil

type Config struct {
	Database *dbConfig
	Service  *svcConfig
	Provider *providerConfig
	Storage  *storageConfig
}

type dbConfig struct {
	Type     string `envconfig:"DB_TYPE" default:"pgsql"`
	Hostname string `envconfig:"DB_HOST" default:"localhost"`
	Port     uint   `envconfig:"DB_PORT" default:"5432"`
	Name     string `envconfig:"DB_NAME" default:"reelmint"`
	User     string `envconfig:"DB_USER" default:"admin"`
	Password string `envconfig:"DB_PASS" default:"adminpass"`
}

type svcConfig struct {
	Address        string `envconfig:"REELMINT_ADDRESS" default:":8080"`
	MetricsAddress string `envconfig:"REELMINT_METRICS_ADDRESS" default:":8081"`
	BaseUrl        string `envconfig:"REELMINT_BASE_URL" default:"http://localhost:8080"`
	LogLevel       string `envconfig:"REELMINT_LOG_LEVEL" default:"info"`
	// TriggerMode selects how generation runs are scheduled: "durable" uses
	// the persistent job queue, "background" runs them in-process.
	TriggerMode     string        `envconfig:"REELMINT_TRIGGER_MODE" default:"durable"`
	BackgroundGrace time.Duration `envconfig:"REELMINT_BACKGROUND_GRACE" default:"20m"`
	MigrationFolder string        `envconfig:"REELMINT_MIGRATIONS_FOLDER" default:""`
	Kafka           kafkaConfig
}

type providerConfig struct {
	BaseUrl        string        `envconfig:"REELMINT_PROVIDER_URL" default:"https://queue.generation.example.com"`
	APIKey         string        `envconfig:"REELMINT_PROVIDER_API_KEY" default:""`
	Model          string        `envconfig:"REELMINT_PROVIDER_MODEL" default:"character-video-v1"`
	RequestTimeout time.Duration `envconfig:"REELMINT_PROVIDER_REQUEST_TIMEOUT" default:"60s"`
	PollInterval   time.Duration `envconfig:"REELMINT_PROVIDER_POLL_INTERVAL" default:"30s"`
	PollDeadline   time.Duration `envconfig:"REELMINT_PROVIDER_POLL_DEADLINE" default:"15m"`
}

type storageConfig struct {
	Endpoint      string `envconfig:"REELMINT_S3_ENDPOINT" default:"localhost:9000"`
	Bucket        string `envconfig:"REELMINT_S3_BUCKET" default:"reelmint-videos"`
	AccessKey     string `envconfig:"REELMINT_S3_ACCESS_KEY" default:""`
	SecretKey     string `envconfig:"REELMINT_S3_SECRET_KEY" default:""`
	UseSSL        bool   `envconfig:"REELMINT_S3_USE_SSL" default:"false"`
	PublicBaseUrl string `envconfig:"REELMINT_S3_PUBLIC_BASE_URL" default:"http://localhost:9000/reelmint-videos"`
}

type kafkaConfig struct {
	Brokers  []string `envconfig:"REELMINT_KAFKA_BROKERS" default:""`
	Topic    string   `envconfig:"REELMINT_KAFKA_TOPIC" default:""`
	ClientID string   `envconfig:"REELMINT_KAFKA_CLIENT_ID" default:"reelmint"`
}

func New() (*Config, error) {
	if singleConfig == nil {
		singleConfig = new(Config)
		if err := envconfig.Process("", singleConfig); err != nil {
			return nil, err
		}
	}
	return singleConfig, nil
}
