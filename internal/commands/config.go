package commands

import (
	"os"

	"github.com/charmbracelet/log"
	"github.com/vortexpcsltd-afk/search-insights/internal/store"
)

// CommonConfig contains configuration common to all commands
type CommonConfig struct {
	// DataDir is the path to the data directory
	DataDir string `help:"Path to data directory" default:"./data" env:"SEARCH_INSIGHTS_DATA_DIR"`
	// LogLevel is the logging level to use
	LogLevel string `help:"Log level (debug, info, warn, error)" default:"warn" enum:"debug,info,warn,error"`
}

// SetupLogger creates a stderr logger at the configured level.
func (c CommonConfig) SetupLogger() (*log.Logger, error) {
	logger := log.New(os.Stderr)
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, err
	}
	logger.SetLevel(level)
	return logger, nil
}

// SetupStore opens the event store under the configured data directory.
func (c CommonConfig) SetupStore(logger *log.Logger) (*store.Store, error) {
	return store.New(c.DataDir, logger)
}
