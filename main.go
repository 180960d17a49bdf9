package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/sadopc/tooldb/internal/config"
	"github.com/sadopc/tooldb/internal/export"
	"github.com/sadopc/tooldb/internal/registry"
	"github.com/sadopc/tooldb/internal/store"
	"github.com/sadopc/tooldb/internal/tooltable"
	"github.com/sadopc/tooldb/internal/tui"
)

func main() {
	cfgPath := flag.String("config", config.DefaultPath(), "path to config.toml")
	importPath := flag.String("import", "", "load a JSON export into the tool table and exit")
	flag.Parse()

	if err := run(*cfgPath, *importPath); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(cfgPath, importPath string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	if _, err := os.Stat(cfgPath); errors.Is(err, os.ErrNotExist) {
		if err := config.Save(cfgPath, cfg); err != nil {
			return fmt.Errorf("write default config: %w", err)
		}
	}

	logger, closeLog, err := openLogger(cfg)
	if err != nil {
		return err
	}
	defer closeLog()

	_, statErr := os.Stat(cfg.Database)
	freshDB := errors.Is(statErr, os.ErrNotExist)

	s, err := store.New(cfg.Database)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer s.Close()

	src, err := openSource(cfg, s)
	if err != nil {
		return err
	}

	reg, err := registry.New(s, src, registry.Options{Logger: logger})
	if err != nil {
		return err
	}
	if freshDB {
		reg.SetMetric(cfg.Metric)
	}

	if importPath != "" {
		records, err := export.ImportJSON(importPath)
		if err != nil {
			return err
		}
		rep, err := reg.Load(records)
		if err != nil {
			return err
		}
		fmt.Printf("imported %d tools: %d added, %d updated, %d deleted\n",
			len(records), len(rep.Added), len(rep.Updated), len(rep.Deleted))
		return rep.Err()
	}

	if err := reg.Refresh().Err(); err != nil {
		logger.Warn("initial reconcile incomplete", "err", err)
	}

	app := tui.NewApp(reg, s, tui.Options{
		Axes:      cfg.AxisList(),
		Heartbeat: cfg.Heartbeat(),
	})
	p := tea.NewProgram(app, tea.WithAltScreen())

	logger.Info("starting", "database", cfg.Database, "tool_table", cfg.ToolTable)
	if _, err := p.Run(); err != nil {
		return err
	}
	logger.Info("exiting")
	return nil
}

// openLogger logs to cfg.LogFile since the TUI owns the terminal.
func openLogger(cfg config.Config) (*log.Logger, func(), error) {
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("log level: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create log directory: %w", err)
	}
	f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	logger := log.NewWithOptions(f, log.Options{
		ReportTimestamp: true,
		Prefix:          "tooldb",
		Level:           level,
	})
	return logger, func() { f.Close() }, nil
}

// openSource returns the controller tool table, or an in-memory table seeded
// from the database when none is configured.
func openSource(cfg config.Config, s *store.Store) (registry.Source, error) {
	if cfg.ToolTable != "" {
		return tooltable.NewFile(cfg.ToolTable), nil
	}
	offsets, err := s.ListOffsets()
	if err != nil {
		return nil, err
	}
	records := make([]tooltable.Record, 0, len(offsets))
	for _, o := range offsets {
		records = append(records, o.Record())
	}
	return tooltable.NewMemory(records...), nil
}
