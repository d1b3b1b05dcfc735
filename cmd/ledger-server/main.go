package main

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"

	"github.com/chainsafe/custody-ledger/pkg/app"
	"github.com/chainsafe/custody-ledger/pkg/app/ledger"
	"github.com/chainsafe/custody-ledger/pkg/config"
)

var (
	configPath = flag.String("config", "config.yaml", "Path to configuration file")
	envPath    = flag.String("env", ".env", "Path to an optional dotenv file with secrets")
)

func main() {
	flag.Parse()

	if err := godotenv.Load(*envPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Failed to load env file: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	var runner app.Runner = ledger.NewServer(cfg)
	if err := runner.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Ledger server exited: %v\n", err)
		os.Exit(1)
	}
}
