// Command minutes records a voice session per speaker, transcribes every
// utterance and publishes the minutes.
package main

import (
	"context"
	"flag"
	"fmt"

	_ "time/tzdata"

	"github.com/kbukum/minutes/config"
	"github.com/kbukum/minutes/logger"
	_ "github.com/kbukum/minutes/storage/local"
	_ "github.com/kbukum/minutes/storage/s3"
	"github.com/kbukum/minutes/version"
)

func main() {
	configFile := flag.String("config", "", "config file (default: searched in ./cmd/minutes, ./config and .)")
	envFile := flag.String("env", "", ".env file (default: searched next to the config)")
	showVersion := flag.Bool("version", false, "print the version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.Get())
		return
	}

	var opts []config.LoaderOption
	if *configFile != "" {
		opts = append(opts, config.WithConfigFile(*configFile))
	}
	if *envFile != "" {
		opts = append(opts, config.WithEnvFile(*envFile))
	}

	var cfg Config
	if err := config.LoadConfig(serviceName, &cfg, opts...); err != nil {
		logger.Fatal("load config", logger.ErrorFields("load_config", err))
	}

	app, err := newApp(&cfg)
	if err != nil {
		logger.Fatal("bootstrap app", logger.ErrorFields("bootstrap", err))
	}
	if err := app.Run(context.Background()); err != nil {
		logger.Fatal("run app", logger.ErrorFields("run", err))
	}
}
