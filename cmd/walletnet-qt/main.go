package main

import (
	"embed"
	"log"

	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"

	"github.com/klingon-tech/wallet-netctl/config"
)

//go:embed all:frontend/dist
var assets embed.FS

func main() {
	cfg, err := config.LoadFromFile(config.DefaultDataDir(), config.BuildModeProduction)
	if err != nil {
		log.Fatal(err)
	}

	app := NewApp(cfg)

	if err := wails.Run(&options.App{
		Title:  "WalletNet",
		Width:  1000,
		Height: 700,
		AssetServer: &assetserver.Options{
			Assets: assets,
		},
		OnStartup:  app.startup,
		OnShutdown: app.shutdown,
		Bind: []interface{}{
			app,
			app.network,
		},
	}); err != nil {
		log.Fatal(err)
	}
}
