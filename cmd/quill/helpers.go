package main

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	cliconfig "github.com/quillmap/quill/internal/cli/config"
	"github.com/quillmap/quill/internal/loader"
)

// buildLogger maps the project logging level onto a console zap logger.
func buildLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid logging level %q", level)
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}

// loadProject reads quill.yml and loads every mapper document it names. The
// returned configuration holds whatever resolved; Finish has already been
// called, so a non-nil error carries the unresolved fragments.
func loadProject() (*cliconfig.Config, *loader.Loader, error) {
	cfg, err := cliconfig.Load()
	if err != nil {
		return nil, nil, err
	}
	logger, err := buildLogger(cfg.Logging.Level)
	if err != nil {
		return nil, nil, err
	}

	ld := loader.New(
		loader.WithLogger(logger),
		loader.WithVars(cfg.Mapper.Vars),
	)
	if cfg.Mapper.ConfigFile != "" {
		if err := ld.LoadConfigFile(cfg.Mapper.ConfigFile); err != nil {
			return cfg, ld, err
		}
	}
	for _, src := range cfg.Mapper.Sources {
		if err := ld.LoadMapperFile(src); err != nil {
			return cfg, ld, err
		}
	}
	return cfg, ld, ld.Finish()
}
