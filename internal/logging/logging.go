package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// FileName is the rotating log file inside the log directory.
const FileName = "taxidash.log"

// Options select the sinks of the global logger.
type Options struct {
	Verbose bool
	// Dir holds the rotating file. Empty disables the file sink.
	Dir string
	// Console defaults to os.Stderr; stdout belongs to the MCP transport.
	Console io.Writer
}

// Init initializes the global logger with dual sinks: os.Stderr and a rotating file.
// An unwritable log directory degrades to console-only logging.
func Init(verbose bool) {
	// Load .env from the binary directory so LOGS_FOLDER is known before config.Load.
	exePath, err := os.Executable()
	if err == nil {
		_ = godotenv.Load(filepath.Join(filepath.Dir(exePath), ".env"))
	}

	logDir := os.Getenv("LOGS_FOLDER")
	if logDir == "" {
		if err == nil {
			logDir = filepath.Join(filepath.Dir(exePath), "logs")
		} else {
			logDir = "logs"
		}
	}

	if _, err := Setup(Options{Verbose: verbose, Dir: logDir}); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v; logging to stderr only\n", err)
		_, _ = Setup(Options{Verbose: verbose})
	}
}

// Setup replaces the global logger and returns the file sink, if any.
func Setup(opts Options) (*lumberjack.Logger, error) {
	level := zerolog.InfoLevel
	if opts.Verbose {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)

	console := opts.Console
	noColor := true
	if console == nil {
		console = os.Stderr
		noColor = !isatty.IsTerminal(os.Stderr.Fd()) && !isatty.IsCygwinTerminal(os.Stderr.Fd())
	}
	writers := []io.Writer{zerolog.ConsoleWriter{
		Out:        console,
		TimeFormat: time.RFC3339,
		NoColor:    noColor,
	}}

	var fileWriter *lumberjack.Logger
	if opts.Dir != "" {
		if err := os.MkdirAll(opts.Dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory %q: %w", opts.Dir, err)
		}
		testFile := filepath.Join(opts.Dir, ".write-test")
		if err := os.WriteFile(testFile, []byte("test"), 0644); err != nil {
			return nil, fmt.Errorf("log directory %q is not writable: %w", opts.Dir, err)
		}
		_ = os.Remove(testFile)

		fileWriter = &lumberjack.Logger{
			Filename:   filepath.Join(opts.Dir, FileName),
			MaxSize:    16, // megabytes
			MaxBackups: 8,
			MaxAge:     90, // days
			Compress:   true,
		}
		writers = append(writers, fileWriter)
	}

	log.Logger = zerolog.New(zerolog.MultiLevelWriter(writers...)).
		With().
		Timestamp().
		Logger()
	return fileWriter, nil
}
