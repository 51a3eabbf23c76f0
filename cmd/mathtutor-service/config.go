package main

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"mathtutor/internal/common/db"
	commonmw "mathtutor/internal/common/http/middleware"
	"mathtutor/internal/common/telemetry"
	"mathtutor/pkg/utils/logger"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

const (
	defaultHost              = "0.0.0.0"
	defaultPort              = 2022
	defaultGRPCAddr          = "0.0.0.0:9022"
	defaultReadTimeout       = 5 * time.Second
	defaultWriteTimeout      = 10 * time.Second
	defaultIdleTimeout       = 60 * time.Second
	defaultShutdownTimeout   = 10 * time.Second
	defaultHealthProbePeriod = 10 * time.Second
)

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port" env:"SERVER_PORT"`
	ReadTimeout  time.Duration `yaml:"readTimeout"`
	WriteTimeout time.Duration `yaml:"writeTimeout"`
	IdleTimeout  time.Duration `yaml:"idleTimeout"`
	// DisableGzip turns off response compression.
	DisableGzip bool `yaml:"disableGzip"`
}

// Addr returns the listen address.
func (c ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// GRPCConfig holds gRPC server settings.
type GRPCConfig struct {
	Addr string `yaml:"addr" env:"GRPC_ADDR"`
	// HealthProbeInterval is how often store reachability is re-checked.
	HealthProbeInterval time.Duration `yaml:"healthProbeInterval"`
}

// AppConfig holds the mathtutor-service configuration.
type AppConfig struct {
	Server    ServerConfig        `yaml:"server"`
	GRPC      GRPCConfig          `yaml:"grpc"`
	Logger    logger.Config       `yaml:"logger"`
	Database  db.Config           `yaml:"database"`
	CORS      commonmw.CORSConfig `yaml:"cors"`
	Telemetry telemetry.Config    `yaml:"telemetry"`
}

func loadYAML(path string, out interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file failed: %w", err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse config file failed: %w", err)
	}
	return nil
}

// loadAppConfig reads the YAML file, then applies environment overrides and defaults.
// A missing file is tolerated when optional is set, so containers can run on env alone.
func loadAppConfig(path string, optional bool) (*AppConfig, error) {
	cfg := AppConfig{CORS: commonmw.DefaultCORSConfig()}
	if err := loadYAML(path, &cfg); err != nil {
		if !optional || !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse environment failed: %w", err)
	}

	if cfg.Database.DSN == "" {
		return nil, fmt.Errorf("database dsn is required")
	}
	cfg.Database.ApplyDefaults()
	if _, ok := db.DialectFor(cfg.Database.Driver); !ok {
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}

	if cfg.Server.Host == "" {
		cfg.Server.Host = defaultHost
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = defaultPort
	}
	if cfg.Server.Port < 0 || cfg.Server.Port > 65535 {
		return nil, fmt.Errorf("invalid server port %d", cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = defaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = defaultWriteTimeout
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = defaultIdleTimeout
	}
	if cfg.GRPC.Addr == "" {
		cfg.GRPC.Addr = defaultGRPCAddr
	}
	if cfg.GRPC.HealthProbeInterval == 0 {
		cfg.GRPC.HealthProbeInterval = defaultHealthProbePeriod
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = serviceName
	}

	return &cfg, nil
}
