package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/jfarrow/healthdeck/internal/app"
	"github.com/jfarrow/healthdeck/internal/config"
)

var (
	configPath = flag.String("config", "", "Path to config file")
	dataDir    = flag.String("data", "", "Path to data directory")
	version    = "dev"
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "version", "--version", "-v":
			fmt.Printf("HealthDeck version %s\n", version)
			return
		}
	}

	flag.Parse()

	logger, err := newLogger()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("Starting HealthDeck", zap.String("version", version))

	cfg, err := config.Load(*configPath, *dataDir)
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	application, err := app.New(cfg, logger, version)
	if err != nil {
		logger.Fatal("Failed to initialize application", zap.Error(err))
	}

	application.RunServer()
}

// newLogger picks console output on a terminal, JSON otherwise.
func newLogger() (*zap.Logger, error) {
	if term.IsTerminal(int(os.Stdout.Fd())) {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
