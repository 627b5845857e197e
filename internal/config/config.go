// Package config reads the dashboard settings from the environment and
// optional .env files.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	HTTP     HTTP     `mapstructure:",squash"`
	Upstream Upstream `mapstructure:",squash"`
	Session  Session  `mapstructure:",squash"`
	Log      Log      `mapstructure:",squash"`
	DB       DB       `mapstructure:",squash"`
	Kafka    Kafka    `mapstructure:",squash"`
	Admin    Admin    `mapstructure:",squash"`
}

type HTTP struct {
	Port           string `mapstructure:"port"             validate:"required,numeric"`
	StaticDir      string `mapstructure:"static_dir"       validate:"required"`
	GRPCHealthPort int    `mapstructure:"grpc_health_port" validate:"min=0,max=65535"`
}

type Upstream struct {
	APIURL      string        `mapstructure:"api_url"          validate:"required,url"`
	DispatchKey string        `mapstructure:"dispatch_key"`
	Timeout     time.Duration `mapstructure:"upstream_timeout" validate:"required,gt=0"`
}

type Session struct {
	JWTSecret string        `mapstructure:"jwt_secret"  validate:"required,min=16"`
	TTL       time.Duration `mapstructure:"session_ttl" validate:"required,gt=0"`
}

type Log struct {
	Level string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	File  string `mapstructure:"log_file"`
}

// DB is optional: without a host the audit trail goes to the log only.
type DB struct {
	Host     string `mapstructure:"db_host"`
	Port     int    `mapstructure:"db_port"     validate:"min=1,max=65535"`
	User     string `mapstructure:"db_user"     validate:"required_with=Host"`
	Password string `mapstructure:"db_password"`
	Name     string `mapstructure:"db_name"     validate:"required_with=Host"`
}

func (d DB) Enabled() bool {
	return d.Host != ""
}

func (d DB) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		d.Host, d.Port, d.User, d.Password, d.Name)
}

type Kafka struct {
	Brokers string `mapstructure:"kafka_brokers"`
	Topic   string `mapstructure:"kafka_topic" validate:"required"`
}

func (k Kafka) BrokerList() []string {
	var out []string
	for _, b := range strings.Split(k.Brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

type Admin struct {
	Username string `mapstructure:"admin_username"`
	Password string `mapstructure:"admin_password" validate:"required_with=Username"`
}

var keys = []string{
	"port", "static_dir", "grpc_health_port",
	"api_url", "dispatch_key", "upstream_timeout",
	"jwt_secret", "session_ttl",
	"log_level", "log_file",
	"db_host", "db_port", "db_user", "db_password", "db_name",
	"kafka_brokers", "kafka_topic",
	"admin_username", "admin_password",
}

var defaults = map[string]interface{}{
	"port":             "3338",
	"static_dir":       "build",
	"grpc_health_port": 9090,
	"upstream_timeout": 15 * time.Second,
	"session_ttl":      12 * time.Hour,
	"log_level":        "debug",
	"db_port":          5432,
	"kafka_topic":      "dashboard_audit",
}

// LoadEnv loads the first .env found in the working directory or its two
// parents. A missing file is not an error.
func LoadEnv() (string, bool) {
	wd, err := os.Getwd()
	if err != nil {
		return "", false
	}
	for _, dir := range []string{wd, filepath.Join(wd, ".."), filepath.Join(wd, "..", "..")} {
		for _, name := range []string{".env", ".example.env"} {
			path := filepath.Join(dir, name)
			if err := godotenv.Load(path); err == nil {
				return path, true
			}
		}
	}
	return "", false
}

// Load reads the configuration from the process environment.
func Load() (Config, error) {
	cfg, err := read()
	if err != nil {
		return Config{}, err
	}
	if err := validator.New().Struct(&cfg); err != nil {
		return Config{}, fmt.Errorf("validation failed: %w", err)
	}
	return cfg, nil
}

// LoadConsumer reads only what the audit consumer needs.
func LoadConsumer() (Log, Kafka, error) {
	cfg, err := read()
	if err != nil {
		return Log{}, Kafka{}, err
	}
	validate := validator.New()
	if err := validate.Struct(&cfg.Log); err != nil {
		return Log{}, Kafka{}, fmt.Errorf("validation failed: %w", err)
	}
	if err := validate.Struct(&cfg.Kafka); err != nil {
		return Log{}, Kafka{}, fmt.Errorf("validation failed: %w", err)
	}
	if len(cfg.Kafka.BrokerList()) == 0 {
		return Log{}, Kafka{}, fmt.Errorf("validation failed: kafka_brokers is required")
	}
	return cfg.Log, cfg.Kafka, nil
}

func read() (Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	for _, k := range keys {
		if d, ok := defaults[k]; ok {
			v.SetDefault(k, d)
			continue
		}
		v.SetDefault(k, "")
	}

	var cfg Config
	if err := v.UnmarshalExact(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal error: %w", err)
	}
	cfg.Upstream.APIURL = strings.TrimRight(cfg.Upstream.APIURL, "/")
	return cfg, nil
}
