package config

import (
	"database/sql"
	"errors"
	_ "github.com/lib/pq"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/spf13/viper"
	"meet-recording-sync/constant"
	"strings"
	"time"
)

type Config struct {
	App     App           `yaml:"app"`
	DB      *sql.DB       `yaml:"db"`
	Queue   *RabbitMQ     `yaml:"rabbitmq"`
	Storage *minio.Client `yaml:"storage"`
	MinIO   MinIO         `yaml:"minio"`
	Google  Google        `yaml:"google"`
	Sync    Sync          `yaml:"sync"`
	Server  Server        `yaml:"server"`
}

type App struct {
	Environment string `yaml:"environment"`
	Host        string `yaml:"host"`
	Protocol    string `yaml:"protocol"`
}

type Server struct {
	HttpPort string `yaml:"http_port"`
	Workers  int    `yaml:"workers"`
}

type RabbitMQ struct {
	Host         string `json:"host"`
	Port         int    `json:"port"`
	User         string `json:"user"`
	Pass         string `json:"pass"`
	ExchangeName string `json:"exchange_name"`
	Kind         string `json:"kind"`
}

type MinIO struct {
	Bucket string `yaml:"bucket"`
	Prefix string `yaml:"prefix"`
}

type Google struct {
	ServiceAccountFile string `yaml:"service_account_file"`
	AdminEmail         string `yaml:"admin_email"`
	CalendarId         string `yaml:"calendar_id"`
}

// Sync tunes the reconciliation engine: retry policies, schedule and quota guard.
type Sync struct {
	HeuristicSource  constant.HeuristicSource `yaml:"heuristic_source"`
	SingleMaxRetries int                      `yaml:"single_max_retries"`
	SingleBaseDelay  time.Duration            `yaml:"single_base_delay"`
	BatchMaxRetries  int                      `yaml:"batch_max_retries"`
	BatchDelay       time.Duration            `yaml:"batch_delay"`
	Schedule         string                   `yaml:"schedule"`
	RatePerSecond    float64                  `yaml:"rate_per_second"`
	RateBurst        int                      `yaml:"rate_burst"`
	BreakerFailures  uint32                   `yaml:"breaker_failures"`
	BreakerTimeout   time.Duration            `yaml:"breaker_timeout"`
	DateWindowLimit  int                      `yaml:"date_window_limit"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.environment", constant.EnvironmentDevelop.String())
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.workers", 4)
	v.SetDefault("rabbitmq_kind", "topic")
	v.SetDefault("rabbitmq_exchange", "recording_sync_exchange")
	v.SetDefault("google.calendar_id", "primary")
	v.SetDefault("sync.heuristic_source", string(constant.HeuristicSourceDrive))
	v.SetDefault("sync.single_max_retries", 3)
	v.SetDefault("sync.single_base_delay", 60*time.Second)
	v.SetDefault("sync.batch_max_retries", 2)
	v.SetDefault("sync.batch_delay", 300*time.Second)
	v.SetDefault("sync.schedule", "0 2 * * *")
	v.SetDefault("sync.rate_per_second", 5.0)
	v.SetDefault("sync.rate_burst", 10)
	v.SetDefault("sync.breaker_failures", 5)
	v.SetDefault("sync.breaker_timeout", 60*time.Second)
	v.SetDefault("sync.date_window_limit", 20)
}

func newViper(path string) (*viper.Viper, error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	err := v.ReadInConfig()
	var notFound viper.ConfigFileNotFoundError
	if err != nil && !errors.As(err, &notFound) {
		return nil, err
	}
	return v, nil
}

func Load(path string) (*Config, error) {
	v, err := newViper(path)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("postgres", v.GetString("postgresql_host"))
	if err != nil {
		return nil, err
	}

	rabbitmq := &RabbitMQ{
		Host:         v.GetString("rabbitmq_host"),
		Port:         v.GetInt("rabbitmq_port"),
		User:         v.GetString("rabbitmq_user"),
		Pass:         v.GetString("rabbitmq_pass"),
		Kind:         v.GetString("rabbitmq_kind"),
		ExchangeName: v.GetString("rabbitmq_exchange"),
	}

	var minioClient *minio.Client
	if url := v.GetString("minio.url"); url != "" {
		minioClient, err = minio.New(url, &minio.Options{
			Creds:  credentials.NewStaticV4(v.GetString("minio.access_id"), v.GetString("minio.secret_access_key"), ""),
			Secure: v.GetBool("minio.secure"),
		})
		if err != nil {
			return nil, err
		}
	}

	cfg := &Config{
		App: App{
			Environment: v.GetString("app.environment"),
			Host:        v.GetString("app.host"),
			Protocol:    v.GetString("app.protocol"),
		},
		Server: Server{
			HttpPort: v.GetString("server.port"),
			Workers:  v.GetInt("server.workers"),
		},
		MinIO: MinIO{
			Bucket: v.GetString("minio.bucket"),
			Prefix: v.GetString("minio.prefix"),
		},
		Google: Google{
			ServiceAccountFile: v.GetString("google.service_account_file"),
			AdminEmail:         v.GetString("google.admin_email"),
			CalendarId:         v.GetString("google.calendar_id"),
		},
		Sync:    loadSync(v),
		DB:      db,
		Queue:   rabbitmq,
		Storage: minioClient,
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadSync(v *viper.Viper) Sync {
	return Sync{
		HeuristicSource:  constant.HeuristicSource(v.GetString("sync.heuristic_source")),
		SingleMaxRetries: v.GetInt("sync.single_max_retries"),
		SingleBaseDelay:  v.GetDuration("sync.single_base_delay"),
		BatchMaxRetries:  v.GetInt("sync.batch_max_retries"),
		BatchDelay:       v.GetDuration("sync.batch_delay"),
		Schedule:         v.GetString("sync.schedule"),
		RatePerSecond:    v.GetFloat64("sync.rate_per_second"),
		RateBurst:        v.GetInt("sync.rate_burst"),
		BreakerFailures:  v.GetUint32("sync.breaker_failures"),
		BreakerTimeout:   v.GetDuration("sync.breaker_timeout"),
		DateWindowLimit:  v.GetInt("sync.date_window_limit"),
	}
}

var (
	ErrUnknownHeuristicSource = errors.New("sync.heuristic_source must be drive or minio")
	ErrMissingBucket          = errors.New("minio.url and minio.bucket are required for the minio heuristic source")
	ErrInvalidRetries         = errors.New("sync retry counts must not be negative")
)

func (c *Config) Validate() error {
	switch c.Sync.HeuristicSource {
	case constant.HeuristicSourceDrive:
	case constant.HeuristicSourceMinIO:
		if c.Storage == nil || c.MinIO.Bucket == "" {
			return ErrMissingBucket
		}
	default:
		return ErrUnknownHeuristicSource
	}
	if c.Sync.SingleMaxRetries < 0 || c.Sync.BatchMaxRetries < 0 {
		return ErrInvalidRetries
	}
	return nil
}
