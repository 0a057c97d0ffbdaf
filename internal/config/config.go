package config

import (
	"time"

	"github.com/IBM/sarama"
	"github.com/kelseyhightower/envconfig"
)

var singleConfig *Config = nil

type Config struct {
	Database *dbConfig
	Service  *svcConfig
}

type dbConfig struct {
	Type     string `envconfig:"DB_TYPE" default:"pgsql"`
	Hostname string `envconfig:"DB_HOST" default:"localhost"`
	Port     string `envconfig:"DB_PORT" default:"5432"`
	Name     string `envconfig:"DB_NAME" default:"assessor"`
	User     string `envconfig:"DB_USER" default:"admin"`
	Password string `envconfig:"DB_PASS" default:"adminpass"`
}

type svcConfig struct {
	Address         string   `envconfig:"ASSESSOR_ADDRESS" default:":3443"`
	MetricsAddress  string   `envconfig:"ASSESSOR_METRICS_ADDRESS" default:":8080"`
	BaseUrl         string   `envconfig:"ASSESSOR_BASE_URL" default:"http://localhost:3443"`
	LogLevel        string   `envconfig:"ASSESSOR_LOG_LEVEL" default:"info"`
	MigrationFolder string   `envconfig:"ASSESSOR_MIGRATIONS_FOLDER" default:""`
	AllowedOrigins  []string `envconfig:"ASSESSOR_ALLOWED_ORIGINS" default:"http://localhost:3000"`
	Kafka           kafkaConfig
	Auth            Auth
	Reaper          Reaper
	Archive         Archive
}

type kafkaConfig struct {
	Brokers  []string `envconfig:"ASSESSOR_KAFKA_BROKERS" default:""`
	Topic    string   `envconfig:"ASSESSOR_KAFKA_TOPIC" default:""`
	Version  string   `envconfig:"ASSESSOR_KAFKA_VERSION" default:"3.6.0"`
	ClientID string   `envconfig:"ASSESSOR_KAFKA_CLIENT_ID" default:"assessor"`

	SaramaConfig *sarama.Config `ignored:"true"`
}

type Auth struct {
	AuthenticationType string `envconfig:"ASSESSOR_AUTH" default:""`
	JwkCertURL         string `envconfig:"ASSESSOR_JWK_URL" default:""`
	// EngineToken authenticates result write-backs from the workflow engine.
	EngineToken string `envconfig:"ASSESSOR_ENGINE_TOKEN" default:""`
}

// Reaper controls expiry of assessments the workflow engine never finished.
type Reaper struct {
	MaxGenerationAge time.Duration `envconfig:"ASSESSOR_MAX_GENERATION_AGE" default:"10m"`
	Interval         time.Duration `envconfig:"ASSESSOR_REAPER_INTERVAL" default:"1m"`
}

// Archive points at an S3 compatible bucket receiving finished results.
// An empty endpoint disables archiving.
type Archive struct {
	Endpoint  string `envconfig:"ASSESSOR_ARCHIVE_ENDPOINT" default:""`
	Bucket    string `envconfig:"ASSESSOR_ARCHIVE_BUCKET" default:"assessments"`
	AccessKey string `envconfig:"ASSESSOR_ARCHIVE_ACCESS_KEY" default:""`
	SecretKey string `envconfig:"ASSESSOR_ARCHIVE_SECRET_KEY" default:""`
	UseSSL    bool   `envconfig:"ASSESSOR_ARCHIVE_USE_SSL" default:"true"`
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

// NewDefault returns a fresh config built from defaults and the environment,
// without touching the process wide singleton.
func NewDefault() *Config {
	cfg := new(Config)
	_ = envconfig.Process("", cfg)
	return cfg
}

// NewSQLite returns a default config backed by a sqlite database file.
func NewSQLite(path string) *Config {
	cfg := NewDefault()
	cfg.Database.Type = "sqlite"
	cfg.Database.Name = path
	return cfg
}
