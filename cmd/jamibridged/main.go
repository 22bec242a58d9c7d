package main

import (
	"flag"

	"github.com/leiter/jami-kmp/internal/app"
	"github.com/leiter/jami-kmp/internal/config"
	"go.uber.org/fx"
)

func main() {
	configFlag := flag.String("config", config.ConfigPath(), "config file path")
	dataFlag := flag.String("data", "", "daemon storage root (overrides config)")
	flag.Parse()

	fx.New(
		app.Module(app.Params{
			ConfigPath: *configFlag,
			DataDir:    *dataFlag,
		}),
	).Run()
}
