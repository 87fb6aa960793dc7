// Command moodctl performs administrative tasks against the journal database:
// resetting entries, inspecting users and seeding test data.
package main

import (
	"fmt"
	"os"

	"moodlog/internal/config"
	"moodlog/internal/ledger"
	"moodlog/internal/logging"
	"moodlog/internal/storage"
)

func main() {
	config.LoadEnv(os.Getenv("MOODLOG_ENV_FILE"))
	cfg, err := config.Load(os.Getenv("MOODLOG_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	logging.InitLogger(cfg.Logging)

	driver := cfg.BasicConfig.Driver
	db, err := storage.Open(driver, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := storage.Migrate(db, driver); err != nil {
		fmt.Fprintf(os.Stderr, "migrate database: %v\n", err)
		os.Exit(1)
	}
	cipher, err := ledger.CipherFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "entry cipher: %v\n", err)
		os.Exit(1)
	}

	app := newCLIApp(db, cipher)
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		db.Close()
		os.Exit(1)
	}
}
