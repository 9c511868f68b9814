package logger

import (
	"crypto/rand"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/datazip-inc/olake-monday/constants"
	"github.com/goccy/go-json"
	"github.com/oklog/ulid"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"gopkg.in/natefinch/lumberjack.v2"
)

var logger zerolog.Logger

// Info writes record into os.stderr with log level INFO
func Info(v ...interface{}) {
	logger.Info().Msg(fmt.Sprint(v...))
}

// Infof writes record into os.stderr with log level INFO
func Infof(format string, v ...interface{}) {
	logger.Info().Msgf(format, v...)
}

// Debug writes record into os.stderr with log level DEBUG
func Debug(v ...interface{}) {
	logger.Debug().Msg(fmt.Sprint(v...))
}

// Debugf writes record into os.stderr with log level DEBUG
func Debugf(format string, v ...interface{}) {
	logger.Debug().Msgf(format, v...)
}

// Error writes record into os.stderr with log level ERROR
func Error(v ...interface{}) {
	logger.Error().Msg(fmt.Sprint(v...))
}

// Errorf writes record into os.stderr with log level ERROR
func Errorf(format string, v ...interface{}) {
	logger.Error().Msgf(format, v...)
}

// Warn writes record into os.stderr with log level WARN
func Warn(v ...interface{}) {
	logger.Warn().Msg(fmt.Sprint(v...))
}

// Warnf writes record into os.stderr with log level WARN
func Warnf(format string, v ...interface{}) {
	logger.Warn().Msgf(format, v...)
}

// Fatal writes record into os.stderr with log level FATAL and exits
func Fatal(v ...interface{}) {
	logger.Fatal().Msg(fmt.Sprint(v...))
}

// Fatalf writes record into os.stderr with log level FATAL and exits
func Fatalf(format string, v ...interface{}) {
	logger.Fatal().Msgf(format, v...)
}

// LogRequest logs a single API round trip at debug level
func LogRequest(stream string, status int, elapsed time.Duration) {
	logger.Debug().Str("stream", stream).Int("status", status).Dur("elapsed", elapsed).Msg("http request")
}

// Print writes a protocol message as a single json line on stdout
func Print(message any) {
	data, err := json.Marshal(message)
	if err != nil {
		Errorf("failed to marshal message: %s", err)
		return
	}
	fmt.Fprintln(os.Stdout, string(data))
}

// LogState persists the replication state into STATE_PATH, a no-op when unset
func LogState(state any) error {
	path := viper.GetString(constants.StatePath)
	if path == "" {
		return nil
	}
	if err := FileLogger(state, path); err != nil {
		return fmt.Errorf("failed to persist state: %s", err)
	}
	Debugf("state persisted at %s", path)
	return nil
}

// FileLogger writes value as indented JSON into path
func FileLogger(value any, path string) error {
	if path == "" {
		return nil
	}
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal: %s", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write file[%s]: %s", path, err)
	}
	return os.Rename(tmp, path)
}

func Init() {
	level, err := zerolog.ParseLevel(strings.ToLower(viper.GetString(constants.LogLevel)))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339

	writers := []io.Writer{zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}}

	configFolder := viper.GetString(constants.ConfigFolder)
	if configFolder != "" {
		fileName := fmt.Sprintf("sync_%s.log", ulid.MustNew(ulid.Now(), rand.Reader).String())
		writers = append(writers, &lumberjack.Logger{
			Filename:   filepath.Join(configFolder, "logs", fileName),
			MaxSize:    100, // MB
			MaxBackups: 5,
			MaxAge:     30, // days
			Compress:   true,
		})
	}

	logger = zerolog.New(zerolog.MultiLevelWriter(writers...)).With().Timestamp().Logger()
}

func init() {
	logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).With().Timestamp().Logger()
}
