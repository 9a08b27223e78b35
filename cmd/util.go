// Package cmd provides CLI commands for the lead-agent tool.
package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/bishwajitSingh123/lead-agent/config"
	"github.com/bishwajitSingh123/lead-agent/pkg/logging"
	"github.com/bishwajitSingh123/lead-agent/pkg/store"
)

// SecretStore is the credential surface commands depend on.
type SecretStore interface {
	Get(name string) (string, error)
	GetOptional(name string) (string, error)
	Set(name, value string) error
	Delete(name string) error
}

// outputJSON writes v as indented JSON.
func outputJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputYAML writes v as YAML.
func outputYAML(w io.Writer, v interface{}) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshaling yaml: %w", err)
	}
	_, err = w.Write(data)
	return err
}

// writeOutput renders v in the requested format, falling back to the text
// renderer for the default format.
func writeOutput(w io.Writer, format config.OutputFormat, v interface{}, text func() error) error {
	switch format {
	case config.OutputFormatJSON:
		return outputJSON(w, v)
	case config.OutputFormatYAML:
		return outputYAML(w, v)
	default:
		return text()
	}
}

// newLogger builds the CLI logger from config. Debug mode switches to
// human-readable console output at debug level.
func newLogger(cfg *config.Config) logging.Logger {
	logCfg := &logging.Config{
		Level:      logging.LevelWarn,
		JSONFormat: true,
		Output:     os.Stderr,
	}
	if cfg.Debug {
		logCfg.Level = logging.LevelDebug
		logCfg.JSONFormat = false
	}
	return logging.NewLogger(logCfg)
}

// newStore builds the CSV store from config.
func newStore(cfg *config.Config, log logging.Logger) *store.CSVStore {
	return store.New(cfg.Data.LeadsFile, cfg.Data.StateFile, cfg.Data.DraftsDir, log)
}

// truncate shortens s for table output. Counted in runes so multi-byte
// names are never cut mid-character.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}
