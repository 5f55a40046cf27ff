package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/opsdesk/opsdesk/config"
	"github.com/opsdesk/opsdesk/internal/logger"
	"github.com/opsdesk/opsdesk/internal/repository"
	"github.com/opsdesk/opsdesk/internal/store"
	"github.com/opsdesk/opsdesk/server"
	"github.com/opsdesk/opsdesk/services"
)

func usage() {
	fmt.Println("Usage: opsdesk <command>")
	fmt.Println("Commands:")
	fmt.Println("  init               Create, migrate and seed the encrypted database")
	fmt.Println("  server             Start the application server")
	fmt.Println("  watch-mail         Ingest unseen mailbox messages (job entry point)")
	fmt.Println("  summarize-tickets  Summarize open tickets (job entry point)")
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	cfg, err := config.InitConfig()
	if err != nil {
		log.Fatalf("Config initialization failed: %v", err)
	}

	switch os.Args[1] {
	case "init":
		if err := runInit(cfg); err != nil {
			log.Fatalf("Init failed: %v", err)
		}
		log.Println("Database initialized and seeded")

	case "server":
		log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
		log.Println("OpsDesk starting up...")

		srv, err := server.NewServer(cfg)
		if err != nil {
			log.Fatalf("Server setup failed: %v", err)
		}
		if err := srv.Run(); err != nil {
			log.Fatalf("Server startup failed: %v", err)
		}

	case "watch-mail":
		if err := runJob(cfg, func(ctx context.Context, svcs *services.Services) error {
			return svcs.IngestService.Run(ctx)
		}); err != nil {
			log.Fatalf("Mail ingestion failed: %v", err)
		}

	case "summarize-tickets":
		if err := runJob(cfg, func(ctx context.Context, svcs *services.Services) error {
			return svcs.SummarizerService.Run(ctx)
		}); err != nil {
			log.Fatalf("Ticket summarization failed: %v", err)
		}

	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		usage()
		os.Exit(1)
	}
}

// runInit creates the encrypted database file keyed with the master
// password from the environment, builds the schema and writes the seed
// rows. Re-running against an existing database is safe.
func runInit(cfg *config.Config) error {
	secret := os.Getenv(config.MasterKeyEnvVar)

	ctx := context.Background()
	db, err := store.Open(ctx, cfg.AppConfig.DatabasePath, secret)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := repository.MigrateDB(ctx, db); err != nil {
		return err
	}

	return repository.SeedDB(ctx, db, repository.SeedOptions{
		IMAPServer:     cfg.SetupConfig.IMAPServer,
		IMAPUser:       cfg.SetupConfig.IMAPUser,
		IMAPPassword:   cfg.SetupConfig.IMAPPassword,
		OllamaEndpoint: cfg.SetupConfig.OllamaEndpoint,
	})
}

// runJob is the shared scaffold for job child processes spawned by the
// scheduler. The master key arrives on the environment, never on argv;
// the child opens its own store connection and exits nonzero on failure.
func runJob(cfg *config.Config, body func(context.Context, *services.Services) error) error {
	secret := os.Getenv(config.MasterKeyEnvVar)

	appLogger := logger.NewAppLogger(cfg.Logger)
	appLogger.InitLogger()

	ctx := context.Background()
	db, err := store.Open(ctx, cfg.AppConfig.DatabasePath, secret)
	if err != nil {
		return err
	}
	defer db.Close()

	repos := repository.InitRepositories(db)
	svcs := services.InitServices(cfg.AppConfig, appLogger, repos)

	return body(ctx, svcs)
}
