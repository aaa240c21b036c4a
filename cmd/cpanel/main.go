// Command cpanel builds search queries from the control panel of a search
// view.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/custodia-labs/cpanel/internal/adapters/driven/autocomplete"
	"github.com/custodia-labs/cpanel/internal/adapters/driven/config/file"
	"github.com/custodia-labs/cpanel/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/cpanel/internal/adapters/driving/cli"
	"github.com/custodia-labs/cpanel/internal/core/controlpanel"
	"github.com/custodia-labs/cpanel/internal/core/ports/driven"
	"github.com/custodia-labs/cpanel/internal/core/services"
	"github.com/custodia-labs/cpanel/internal/extensions"
	"github.com/custodia-labs/cpanel/internal/logger"
	"github.com/custodia-labs/cpanel/internal/metrics"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		logger.Sync()
		os.Exit(1)
	}
	logger.Sync()
}

func run() error {
	configDir, err := file.DefaultDir()
	if err != nil {
		return fmt.Errorf("resolving config directory: %w", err)
	}
	configStore, err := file.NewConfigStore(configDir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	registry := extensions.NewRegistry()
	extensions.RegisterDefaults(registry)

	settingsService := services.NewSettingsService(configStore, registry.Has)
	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("reading settings: %w", err)
	}

	undo, err := registry.Apply(controlpanel.Behaviors, settings.Panel.Extensions, extensionConfig(configStore))
	if err != nil {
		// Keep going so the settings commands can still fix the config.
		logger.Warn("extensions not applied: %v", err)
	} else {
		defer undo()
	}

	storageDir := settings.StorageDir
	if storageDir == "" {
		storageDir = filepath.Join(configDir, "data")
	}
	db, err := sqlite.NewStore(storageDir)
	if err != nil {
		return fmt.Errorf("opening storage: %w", err)
	}
	defer db.Close()

	viewsDir := settings.ViewsDir
	if viewsDir == "" {
		viewsDir = filepath.Join(configDir, "views")
	}
	views := file.NewViewLoader(viewsDir)
	source := autocomplete.NewLimited(views, autocomplete.Config{
		RequestsPerSecond: settings.Autocomplete.Rate,
		Burst:             settings.Autocomplete.Burst,
	})

	m := metrics.New()
	panelService := services.NewControlPanelService(views, db.FavoriteStore(), source, settingsService)
	panelService.SetStateStore(db.StateStore())
	panelService.SetObserver(m)

	cli.SetVersion(version)
	cli.SetServices(cli.Services{
		Panel:      panelService,
		Settings:   settingsService,
		Extensions: registry.Names,
		Metrics:    m.Handler(),
	})
	return cli.Execute()
}

// extensionConfig collects the settings of the built-in extensions from
// their config tables.
func extensionConfig(cfg driven.ConfigStore) map[string]map[string]any {
	out := map[string]map[string]any{}
	if field := cfg.GetString("extensions." + extensions.ActiveOnly + ".field"); field != "" {
		out[extensions.ActiveOnly] = map[string]any{"field": field}
	}
	if order := cfg.GetString("extensions." + extensions.DefaultOrder + ".order"); order != "" {
		out[extensions.DefaultOrder] = map[string]any{"order": order}
	}
	return out
}
