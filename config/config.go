package config

import (
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const defaultConfigPath = "./config/config.yml"

type (
	// Config -.
	Config struct {
		App        `yaml:"app"`
		Server     `yaml:"server"`
		Auth       `yaml:"auth"`
		Log        `yaml:"logger"`
		Store      `yaml:"store"`
		Compressor `yaml:"compressor"`
		S3         `yaml:"s3"`
		MYSQL      `yaml:"mysql"`
		RMQ        `yaml:"rabbitmq"`
		OTEL       `yaml:"otel"`
	}

	// App -.
	App struct {
		Name    string `env-default:"oxipng-webhook" yaml:"name"    env:"APP_NAME"`
		Version string `env-default:"1.0.0"          yaml:"version" env:"APP_VERSION"`
	}

	// Server -.
	Server struct {
		Port            string        `env-default:"3000" yaml:"port"             env:"PORT"`
		ReadTimeout     time.Duration `env-default:"15s"  yaml:"read_timeout"     env:"HTTP_READ_TIMEOUT"`
		WriteTimeout    time.Duration `env-default:"0s"   yaml:"write_timeout"    env:"HTTP_WRITE_TIMEOUT"`
		ShutdownTimeout time.Duration `env-default:"30s"  yaml:"shutdown_timeout" env:"HTTP_SHUTDOWN_TIMEOUT"`
		PublicBaseURL   string        `yaml:"public_base_url" env:"PUBLIC_BASE_URL"`
		TrustProxy      bool          `env-default:"false"   yaml:"trust_proxy"    env:"TRUST_PROXY"`
		MaxBodyBytes    int64         `env-default:"5242880" yaml:"max_body_bytes" env:"MAX_BODY_BYTES"`
		MetricsPath     string        `env-default:"/metrics" yaml:"metrics_path"  env:"METRICS_PATH"`
		Swagger         bool          `env-default:"true"     yaml:"swagger"       env:"SWAGGER_ENABLED"`
	}

	// Auth -.
	Auth struct {
		// Token is the optional shared secret; empty disables the bearer check.
		Token string `yaml:"token" env:"TOKEN"`
	}

	// Log -.
	Log struct {
		Level string `env-default:"info" yaml:"log_level" env:"LOG_LEVEL"`
	}

	// Store -.
	Store struct {
		TTL           time.Duration `env-default:"10m" yaml:"ttl"            env:"STORE_TTL"`
		SweepInterval time.Duration `env-default:"30s" yaml:"sweep_interval" env:"STORE_SWEEP_INTERVAL"`
	}

	// Compressor -.
	Compressor struct {
		OxipngPath      string        `env-default:"oxipng" yaml:"oxipng_path"      env:"OXIPNG_PATH"`
		StagingDir      string        `yaml:"staging_dir" env:"STAGING_DIR"`
		FetchTimeout    time.Duration `env-default:"0s"    yaml:"fetch_timeout"    env:"FETCH_TIMEOUT"`
		CompressTimeout time.Duration `env-default:"0s"    yaml:"compress_timeout" env:"COMPRESS_TIMEOUT"`
		VerifySignature bool          `env-default:"false" yaml:"verify_signature" env:"VERIFY_SIGNATURE"`
	}

	// S3 -. Enables s3://bucket/key sources when Region is set.
	S3 struct {
		Endpoint  string `yaml:"endpoint"   env:"S3_ENDPOINT"`
		Region    string `yaml:"region"     env:"S3_REGION"`
		AccessKey string `yaml:"access_key" env:"S3_ACCESS_KEY"`
		SecretKey string `yaml:"secret_key" env:"S3_SECRET_KEY"`
	}

	// MYSQL -. History ledger is disabled when Host is empty.
	MYSQL struct {
		Host     string `yaml:"host"     env:"MYSQL_HOST"`
		Port     string `env-default:"3306" yaml:"port" env:"MYSQL_PORT"`
		Username string `yaml:"username" env:"MYSQL_USERNAME"`
		Password string `yaml:"password" env:"MYSQL_PASSWORD"`
		Dbname   string `yaml:"dbname"   env:"MYSQL_DBNAME"`
	}

	// RMQ -. Compression events are disabled when URL is empty.
	RMQ struct {
		URL        string `yaml:"url" env:"RMQ_URL"`
		Exchange   string `env-default:"png_compression"      yaml:"exchange"    env:"RMQ_EXCHANGE"`
		RoutingKey string `env-default:"compression.completed" yaml:"routing_key" env:"RMQ_ROUTING_KEY"`
		// Queue, when set, is declared durable and bound to RoutingKey.
		Queue string `yaml:"queue" env:"RMQ_QUEUE"`
	}

	// OTEL -. Exporter is one of "jaeger", "otlp" or "none".
	OTEL struct {
		Exporter string `env-default:"none" yaml:"exporter" env:"OTEL_EXPORTER"`
		Endpoint string `yaml:"endpoint" env:"OTEL_ENDPOINT"`
	}
)

// NewConfig returns app config.
func NewConfig() (*Config, error) {
	cfg := &Config{}

	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = defaultConfigPath
	}

	var err error
	if _, statErr := os.Stat(path); statErr == nil {
		err = cleanenv.ReadConfig(path, cfg)
	} else {
		err = cleanenv.ReadEnv(cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}

	return cfg, nil
}

// BearerEnabled reports whether /compress requires a bearer token.
func (a Auth) BearerEnabled() bool {
	return a.Token != ""
}
