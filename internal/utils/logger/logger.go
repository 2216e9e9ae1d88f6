// Package logger provides a global logger for the application
package logger

import (
	"flag"
	"os"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/rs/zerolog/pkgerrors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	sugarOnce sync.Once
	sugar     *zap.SugaredLogger
)

func setupOutput() {
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg("No .env file found, using process environment")
	}

	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr}).With().Caller().Logger()
}

// environmentLevel maps ENVIRONMENT to a level: dev and test log
// everything, prod and unknown values log info and above.
func environmentLevel() (zerolog.Level, string) {
	environment := strings.ToLower(os.Getenv("ENVIRONMENT"))
	if environment == "" {
		environment = "prod"
	}

	switch environment {
	case "dev", "test":
		log.Info().Str("environment", environment).Msg("Development/Test environment detected - enabling all log levels")
		return zerolog.TraceLevel, environment
	case "prod":
		log.Info().Str("environment", environment).Msg("Production environment detected - enabling info level and above")
	default:
		log.Warn().Str("environment", environment).Msg("Unknown environment - defaulting to production log level (info and above)")
	}
	return zerolog.InfoLevel, environment
}

func initLogger() {
	setupOutput()

	debug := flag.Bool("debug", false, "sets log level to debug")
	trace := flag.Bool("trace", false, "sets log level to trace")
	info := flag.Bool("info", false, "sets log level to info (default)")
	flag.Parse()

	logLevel, environment := environmentLevel()
	if *debug {
		logLevel = zerolog.DebugLevel
		log.Info().Msg("Debug flag detected - overriding environment log level")
	} else if *trace {
		logLevel = zerolog.TraceLevel
		log.Info().Msg("Trace flag detected - overriding environment log level")
	} else if *info {
		logLevel = zerolog.InfoLevel
		log.Info().Msg("Info flag detected - overriding environment log level")
	}

	zerolog.SetGlobalLevel(logLevel)
	log.WithLevel(logLevel).Str("environment", environment).Msgf("%s logging enabled", logLevel)
}

// Init initializes the logger with the configuration from the environment
// and command line flags.
// Example usage:
//
//	logger.Init() <- inside whichever main() function in your entrypoint
//
// Then, `go run ./cmd/server --debug`
func Init() {
	initLogger()
}

// InitWithLevel is Init for entrypoints that parse their own flags. An
// empty level keeps the ENVIRONMENT default.
func InitWithLevel(level string) {
	setupOutput()

	logLevel, environment := environmentLevel()
	if level != "" {
		parsed, err := zerolog.ParseLevel(strings.ToLower(level))
		if err != nil {
			log.Warn().Str("level", level).Msg("Unknown log level - keeping environment default")
		} else {
			logLevel = parsed
		}
	}

	zerolog.SetGlobalLevel(logLevel)
	log.WithLevel(logLevel).Str("environment", environment).Msgf("%s logging enabled", logLevel)
}

// zapLevel follows the zerolog global level so both loggers agree.
func zapLevel() zapcore.Level {
	switch zerolog.GlobalLevel() {
	case zerolog.TraceLevel, zerolog.DebugLevel:
		return zapcore.DebugLevel
	case zerolog.WarnLevel:
		return zapcore.WarnLevel
	case zerolog.ErrorLevel:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// Sugar returns a sugared zap logger, built on first use at the zerolog
// level of that moment.
// TODO: replace with zerolog
func Sugar() *zap.SugaredLogger {
	sugarOnce.Do(func() {
		cfg := zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zapLevel())
		l, err := cfg.Build()
		if err != nil {
			log.Warn().Err(err).Msg("Failed to build zap logger, discarding sugared logs")
			l = zap.NewNop()
		}
		sugar = l.Sugar()
	})
	return sugar
}
