package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func TestSetup_WritesBothSinks(t *testing.T) {
	prev := log.Logger
	defer func() { log.Logger = prev; zerolog.SetGlobalLevel(zerolog.InfoLevel) }()

	dir := t.TempDir()
	var console bytes.Buffer
	file, err := Setup(Options{Verbose: true, Dir: dir, Console: &console})
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	defer file.Close()

	log.Debug().Str("query", "?hour=8").Msg("Applying filters")

	if !strings.Contains(console.String(), "Applying filters") {
		t.Errorf("console sink missed the debug line: %q", console.String())
	}
	data, err := os.ReadFile(filepath.Join(dir, FileName))
	if err != nil {
		t.Fatalf("log file not written: %v", err)
	}
	if !strings.Contains(string(data), `"query":"?hour=8"`) {
		t.Errorf("file sink should hold JSON lines, got %q", data)
	}
}

func TestSetup_InfoLevelDropsDebug(t *testing.T) {
	prev := log.Logger
	defer func() { log.Logger = prev; zerolog.SetGlobalLevel(zerolog.InfoLevel) }()

	var console bytes.Buffer
	if _, err := Setup(Options{Console: &console}); err != nil {
		t.Fatal(err)
	}
	log.Debug().Msg("hidden")
	log.Info().Msg("shown")
	if strings.Contains(console.String(), "hidden") || !strings.Contains(console.String(), "shown") {
		t.Errorf("unexpected console output %q", console.String())
	}
}

func TestSetup_UnwritableDir(t *testing.T) {
	base := t.TempDir()
	blocker := filepath.Join(base, "file")
	if err := os.WriteFile(blocker, nil, 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Setup(Options{Dir: filepath.Join(blocker, "logs"), Console: &bytes.Buffer{}}); err == nil {
		t.Error("expected an error for a log directory below a file")
	}
}
