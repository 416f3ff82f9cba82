// Package config turns CLI flags (each with an env-var alias) into the
// process configuration.
package config

import (
	"time"

	"github.com/urfave/cli/v2"
	"golang.org/x/xerrors"

	"github.com/Zhima-Mochi/minishop-marketplace/internal/infrastructure/observability/telemetry"
)

const (
	StoreMemory  = "memory"
	StoreLevelDB = "leveldb"
)

const (
	flagServiceName      = "service-name"
	flagEnv              = "env"
	flagListen           = "listen"
	flagStore            = "store"
	flagDataDir          = "data-dir"
	flagLogLevel         = "log-level"
	flagTraceExporter    = "trace-exporter"
	flagOTLPEndpoint     = "otlp-endpoint"
	flagTraceSampleRatio = "trace-sample-ratio"
	flagShutdownTimeout  = "shutdown-timeout"
)

type Config struct {
	ServiceName     string
	Env             string
	ListenAddr      string
	Store           string
	DataDir         string
	LogLevel        string
	Telemetry       telemetry.Config
	ShutdownTimeout time.Duration
}

func Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    flagServiceName,
			Value:   "minishop-marketplace",
			EnvVars: []string{"SERVICE_NAME"},
		},
		&cli.StringFlag{
			Name:    flagEnv,
			Value:   "dev",
			EnvVars: []string{"ENV"},
		},
		&cli.StringFlag{
			Name:    flagListen,
			Usage:   "HTTP listen address",
			Value:   ":8080",
			EnvVars: []string{"HTTP_ADDR"},
		},
		&cli.StringFlag{
			Name:    flagStore,
			Usage:   "storage backend: memory or leveldb",
			Value:   StoreMemory,
			EnvVars: []string{"STORE_BACKEND"},
		},
		&cli.StringFlag{
			Name:    flagDataDir,
			Usage:   "leveldb directory",
			Value:   "./data",
			EnvVars: []string{"DATA_DIR"},
		},
		&cli.StringFlag{
			Name:    flagLogLevel,
			Value:   "info",
			EnvVars: []string{"LOG_LEVEL"},
		},
		&cli.StringFlag{
			Name:    flagTraceExporter,
			Usage:   "span exporter: none, stdout or otlp",
			Value:   telemetry.ExporterNone,
			EnvVars: []string{"TRACE_EXPORTER"},
		},
		&cli.StringFlag{
			Name:    flagOTLPEndpoint,
			EnvVars: []string{"OTEL_EXPORTER_OTLP_ENDPOINT"},
		},
		&cli.Float64Flag{
			Name:    flagTraceSampleRatio,
			Value:   1.0,
			EnvVars: []string{"OTEL_SAMPLER_RATIO"},
		},
		&cli.DurationFlag{
			Name:    flagShutdownTimeout,
			Value:   10 * time.Second,
			EnvVars: []string{"SHUTDOWN_TIMEOUT"},
		},
	}
}

// FromContext reads the flags registered by Flags and validates the result.
func FromContext(cctx *cli.Context) (Config, error) {
	cfg := Config{
		ServiceName: cctx.String(flagServiceName),
		Env:         cctx.String(flagEnv),
		ListenAddr:  cctx.String(flagListen),
		Store:       cctx.String(flagStore),
		DataDir:     cctx.String(flagDataDir),
		LogLevel:    cctx.String(flagLogLevel),
		Telemetry: telemetry.Config{
			ServiceName:  cctx.String(flagServiceName),
			Environment:  cctx.String(flagEnv),
			Exporter:     cctx.String(flagTraceExporter),
			OTLPEndpoint: cctx.String(flagOTLPEndpoint),
			SampleRatio:  cctx.Float64(flagTraceSampleRatio),
		},
		ShutdownTimeout: cctx.Duration(flagShutdownTimeout),
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.Store {
	case StoreMemory:
	case StoreLevelDB:
		if c.DataDir == "" {
			return xerrors.Errorf("--%s is required for the %s store", flagDataDir, StoreLevelDB)
		}
	default:
		return xerrors.Errorf("unknown store %q", c.Store)
	}
	switch c.Telemetry.Exporter {
	case telemetry.ExporterNone, telemetry.ExporterStdout, telemetry.ExporterOTLP:
	default:
		return xerrors.Errorf("unknown trace exporter %q", c.Telemetry.Exporter)
	}
	if r := c.Telemetry.SampleRatio; r < 0 || r > 1 {
		return xerrors.Errorf("trace sample ratio %v outside [0,1]", r)
	}
	if c.ShutdownTimeout <= 0 {
		return xerrors.Errorf("shutdown timeout must be positive, got %s", c.ShutdownTimeout)
	}
	return nil
}
