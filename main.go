package main

import (
	"embed"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/menu"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"
	"github.com/wailsapp/wails/v2/pkg/options/mac"

	proposalsApp "proposals/internal/app"
	"proposals/internal/config"
)

//go:embed all:frontend/dist
var assets embed.FS

var cfgPath string

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "proposals",
		Short:        "Proposal editor with automatic A4 pagination",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDesktop()
		},
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", config.DefaultPath(), "config file")

	root.AddCommand(
		newMCPCmd(),
		newListCmd(),
		newExportCmd(),
		newReflowCmd(),
		newBackupCmd(),
	)
	return root
}

func runDesktop() error {
	app := proposalsApp.New(cfgPath)

	// macOS needs an Edit menu for Cmd+C/V/X/A to reach the WebView
	appMenu := menu.NewMenu()
	appMenu.Append(menu.EditMenu())

	err := wails.Run(&options.App{
		Title:     "Proposals",
		Width:     1440,
		Height:    900,
		MinWidth:  900,
		MinHeight: 600,
		AssetServer: &assetserver.Options{
			Assets: assets,
		},
		BackgroundColour: &options.RGBA{R: 245, G: 245, B: 245, A: 1},
		Menu:             appMenu,
		OnStartup:        app.Startup,
		OnShutdown:       app.Shutdown,
		Bind: []interface{}{
			app,
		},
		Mac: &mac.Options{
			TitleBar: &mac.TitleBar{
				TitlebarAppearsTransparent: true,
				HideTitle:                  true,
				FullSizeContent:            true,
			},
			About: &mac.AboutInfo{
				Title:   "Proposals",
				Message: "Proposal editor with automatic A4 pagination",
			},
		},
	})
	if err != nil {
		return fmt.Errorf("run desktop app: %w", err)
	}
	return nil
}
