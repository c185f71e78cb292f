package main

import (
	"embed"
	"log/slog"
	"os"

	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"

	"github.com/chazu/kitchenkit/pkg/material"
)

//go:embed all:frontend/dist
var assets embed.FS

//go:embed examples/kitchen.kit
var defaultLayout string

// catalogEnv names an optional YAML file merged over the built-in material
// catalog.
const catalogEnv = "KITCHENKIT_CATALOG"

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	var catalog *material.Catalog
	if path := os.Getenv(catalogEnv); path != "" {
		c, err := material.LoadCatalog(path)
		if err != nil {
			logger.Warn("Ignoring material catalog", slog.String("path", path), slog.Any("error", err))
		} else {
			catalog = c
		}
	}

	app := NewApp(catalog, logger)

	err := wails.Run(&options.App{
		Title:  "Kitchen Configurator",
		Width:  1280,
		Height: 800,
		AssetServer: &assetserver.Options{
			Assets: assets,
		},
		OnStartup: app.startup,
		Bind: []interface{}{
			app,
		},
	})
	if err != nil {
		logger.Error("Application exited", slog.Any("error", err))
		os.Exit(1)
	}
}
