package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/kat-co/vala"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

// Supported values of LEDGER_TRANSPORT.
const (
	TransportUSB      = "usb"
	TransportEmulator = "emulator"
)

type EchoServer struct {
	Debug                     bool
	ListenAddress             string
	EnableLoggerMiddleware    bool
	EnableRecoverMiddleware   bool
	EnableRequestIDMiddleware bool
	EnableMetricsMiddleware   bool
}

type LoggerServer struct {
	Level              zerolog.Level
	RequestLevel       zerolog.Level
	PrettyPrintConsole bool
	Caller             bool
	File               string
	FileMaxSizeMB      int
	FileMaxBackups     int
	FileMaxAgeDays     int
}

type Ledger struct {
	Transport       string
	ChunkSize       int
	ExchangeTimeout time.Duration
	DefaultChainID  int64
}

type Emulator struct {
	Mnemonic     string `json:"-"` // sensitive
	KeystorePath string
	Password     string `json:"-"` // sensitive
	Locked       bool
}

type RPC struct {
	URLs []string
}

type Metrics struct {
	IncludeProcessCollectors bool
}

type Management struct {
	ProbeReadinessTimeout time.Duration
}

type Server struct {
	Echo       EchoServer
	Logger     LoggerServer
	Ledger     Ledger
	Emulator   Emulator
	RPC        RPC
	Metrics    Metrics
	Management Management
}

// DotEnvFiles are loaded into the environment before reading the config.
// Variables already set in the environment win.
var DotEnvFiles = []string{".env.local", ".env"}

// DefaultServiceConfigFromEnv returns the server config as parsed from environment variables
// and their respective defaults defined below.
// We don't expect that ENV_VARs change while we are running our application or our tests
// (and it would be a bad thing to do anyways with parallel testing).
// Do NOT use os.Setenv / os.Unsetenv in tests utilizing DefaultServiceConfigFromEnv()!
func DefaultServiceConfigFromEnv() Server {
	loadDotEnv()

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	return Server{
		Echo: EchoServer{
			Debug:                     v.GetBool("SERVER_ECHO_DEBUG"),
			ListenAddress:             v.GetString("SERVER_ECHO_LISTEN_ADDRESS"),
			EnableLoggerMiddleware:    v.GetBool("SERVER_ECHO_ENABLE_LOGGER_MIDDLEWARE"),
			EnableRecoverMiddleware:   v.GetBool("SERVER_ECHO_ENABLE_RECOVER_MIDDLEWARE"),
			EnableRequestIDMiddleware: v.GetBool("SERVER_ECHO_ENABLE_REQUEST_ID_MIDDLEWARE"),
			EnableMetricsMiddleware:   v.GetBool("SERVER_ECHO_ENABLE_METRICS_MIDDLEWARE"),
		},
		Logger: LoggerServer{
			Level:              parseLevel(v.GetString("SERVER_LOGGER_LEVEL"), zerolog.InfoLevel),
			RequestLevel:       parseLevel(v.GetString("SERVER_LOGGER_REQUEST_LEVEL"), zerolog.DebugLevel),
			PrettyPrintConsole: v.GetBool("SERVER_LOGGER_PRETTY_PRINT_CONSOLE"),
			Caller:             v.GetBool("SERVER_LOGGER_CALLER"),
			File:               v.GetString("SERVER_LOGGER_FILE"),
			FileMaxSizeMB:      v.GetInt("SERVER_LOGGER_FILE_MAX_SIZE_MB"),
			FileMaxBackups:     v.GetInt("SERVER_LOGGER_FILE_MAX_BACKUPS"),
			FileMaxAgeDays:     v.GetInt("SERVER_LOGGER_FILE_MAX_AGE_DAYS"),
		},
		Ledger: Ledger{
			Transport:       strings.ToLower(v.GetString("LEDGER_TRANSPORT")),
			ChunkSize:       v.GetInt("LEDGER_CHUNK_SIZE"),
			ExchangeTimeout: v.GetDuration("LEDGER_EXCHANGE_TIMEOUT"),
			DefaultChainID:  v.GetInt64("LEDGER_DEFAULT_CHAIN_ID"),
		},
		Emulator: Emulator{
			Mnemonic:     v.GetString("LEDGER_EMULATOR_MNEMONIC"),
			KeystorePath: v.GetString("LEDGER_EMULATOR_KEYSTORE"),
			Password:     v.GetString("LEDGER_EMULATOR_PASSWORD"),
			Locked:       v.GetBool("LEDGER_EMULATOR_LOCKED"),
		},
		RPC: RPC{
			URLs: splitList(v.GetString("RPC_URLS")),
		},
		Metrics: Metrics{
			IncludeProcessCollectors: v.GetBool("METRICS_INCLUDE_PROCESS_COLLECTORS"),
		},
		Management: Management{
			ProbeReadinessTimeout: v.GetDuration("SERVER_MANAGEMENT_PROBE_READINESS_TIMEOUT"),
		},
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_ECHO_DEBUG", false)
	v.SetDefault("SERVER_ECHO_LISTEN_ADDRESS", ":8080")
	v.SetDefault("SERVER_ECHO_ENABLE_LOGGER_MIDDLEWARE", true)
	v.SetDefault("SERVER_ECHO_ENABLE_RECOVER_MIDDLEWARE", true)
	v.SetDefault("SERVER_ECHO_ENABLE_REQUEST_ID_MIDDLEWARE", true)
	v.SetDefault("SERVER_ECHO_ENABLE_METRICS_MIDDLEWARE", true)

	v.SetDefault("SERVER_LOGGER_LEVEL", zerolog.InfoLevel.String())
	v.SetDefault("SERVER_LOGGER_REQUEST_LEVEL", zerolog.DebugLevel.String())
	v.SetDefault("SERVER_LOGGER_PRETTY_PRINT_CONSOLE", false)
	v.SetDefault("SERVER_LOGGER_CALLER", false)
	v.SetDefault("SERVER_LOGGER_FILE", "")
	v.SetDefault("SERVER_LOGGER_FILE_MAX_SIZE_MB", 100)
	v.SetDefault("SERVER_LOGGER_FILE_MAX_BACKUPS", 3)
	v.SetDefault("SERVER_LOGGER_FILE_MAX_AGE_DAYS", 28)

	v.SetDefault("LEDGER_TRANSPORT", TransportUSB)
	v.SetDefault("LEDGER_CHUNK_SIZE", 200)
	v.SetDefault("LEDGER_EXCHANGE_TIMEOUT", 30*time.Second)
	v.SetDefault("LEDGER_DEFAULT_CHAIN_ID", 250)

	v.SetDefault("LEDGER_EMULATOR_MNEMONIC", "")
	v.SetDefault("LEDGER_EMULATOR_KEYSTORE", "./data/emulator-keystore.json")
	v.SetDefault("LEDGER_EMULATOR_PASSWORD", "")
	v.SetDefault("LEDGER_EMULATOR_LOCKED", false)

	v.SetDefault("RPC_URLS", "")
	v.SetDefault("METRICS_INCLUDE_PROCESS_COLLECTORS", true)
	v.SetDefault("SERVER_MANAGEMENT_PROBE_READINESS_TIMEOUT", 4*time.Second)
}

// Validate checks the ledger related settings.
func (s Server) Validate() error {
	//nolint:mnd // a single APDU carries at most 255 data bytes
	const maxChunkSize = 255

	return vala.BeginValidation().Validate(
		vala.GreaterThan(s.Ledger.ChunkSize, 0, "LEDGER_CHUNK_SIZE"),
		vala.Not(vala.GreaterThan(s.Ledger.ChunkSize, maxChunkSize, "LEDGER_CHUNK_SIZE")),
		vala.GreaterThan(int(s.Ledger.DefaultChainID), 0, "LEDGER_DEFAULT_CHAIN_ID"),
		vala.GreaterThan(int(s.Ledger.ExchangeTimeout), 0, "LEDGER_EXCHANGE_TIMEOUT"),
		oneOf(s.Ledger.Transport, "LEDGER_TRANSPORT", TransportUSB, TransportEmulator),
	).Check()
}

func oneOf(value string, paramName string, allowed ...string) vala.Checker {
	return func() (bool, string) {
		msg := "parameter " + paramName + " must be one of " + strings.Join(allowed, ", ")
		for _, a := range allowed {
			if value == a {
				return true, msg
			}
		}
		return false, msg
	}
}

func loadDotEnv() {
	for _, file := range DotEnvFiles {
		if err := gotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			log.Warn().Err(err).Str("file", file).Msg("Failed to load env file")
		}
	}
}

func parseLevel(s string, fallback zerolog.Level) zerolog.Level {
	level, err := zerolog.ParseLevel(s)
	if err != nil {
		log.Warn().Err(err).Str("level", s).Msg("Invalid log level, using fallback")
		return fallback
	}
	return level
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
