package main

import (
	"embed"
	"log"
	"os"

	"focusbridge/internal/app"
	"focusbridge/internal/config"
	"focusbridge/internal/infrastructure/logging"

	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/logger"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"
)

//go:embed all:frontend/dist
var assets embed.FS

func main() {
	environment := os.Getenv(config.EnvPrefix + "ENV")
	if environment == "" {
		environment = "production"
	}

	cfg, err := config.Load(environment)
	if err != nil {
		log.Fatal(err)
	}

	application, err := app.NewADBApp(cfg)
	if err != nil {
		log.Fatal(err)
	}

	err = wails.Run(&options.App{
		Title:     "focusbridge",
		Width:     420,
		Height:    640,
		MinWidth:  320,
		MinHeight: 480,
		AssetServer: &assetserver.Options{
			Assets: assets,
		},
		ErrorFormatter:   app.FormatError,
		Logger:           logging.NewWailsLoggerAdapter(application.GetLogger()),
		LogLevel:         wailsLogLevel(cfg.LogLevel),
		OnStartup:        application.Startup,
		OnDomReady:       application.DomReady,
		OnBeforeClose:    application.BeforeClose,
		OnShutdown:       application.Shutdown,
		WindowStartState: options.Normal,
		Bind: []interface{}{
			application,
		},
	})

	if err != nil {
		log.Fatal(err)
	}
}

func wailsLogLevel(level string) logger.LogLevel {
	switch logging.ParseLevel(level) {
	case logging.LevelDebug:
		return logger.DEBUG
	case logging.LevelWarn:
		return logger.WARNING
	case logging.LevelError:
		return logger.ERROR
	default:
		return logger.INFO
	}
}
