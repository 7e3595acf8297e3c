package main

import (
	"database/sql"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"

	"github.com/freightdesk/backend/internal/infrastructure/config"
	"github.com/freightdesk/backend/internal/infrastructure/logger"
	"github.com/freightdesk/backend/internal/infrastructure/migration"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

const defaultMigrationsPath = "migrations"

func main() {
	// Parse flags
	var (
		migrationsPath string
		logLevel       string
		store          string
	)

	flag.StringVar(&migrationsPath, "path", "", "Path to migrations root (default: ./migrations)")
	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.StringVar(&store, "store", "", "Store to migrate: main, shipment, finance, attachment (default: all)")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}
	command := args[0]

	log, err := logger.New(&logger.Config{
		Level:      logLevel,
		Format:     "console",
		Output:     "stdout",
		TimeFormat: "2006-01-02 15:04:05",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = log.Sync()
	}()

	stores := config.Stores
	if store != "" {
		if !slices.Contains(config.Stores, store) {
			log.Fatal("Unknown store", zap.String("store", store), zap.Strings("stores", config.Stores))
		}
		stores = []string{store}
	}

	migrationsPath = resolveMigrationsPath(migrationsPath)
	log.Info("Migration CLI started",
		zap.String("command", command),
		zap.String("migrations_path", migrationsPath),
		zap.Strings("stores", stores),
	)

	// create and list only touch the filesystem
	switch command {
	case "create":
		if store == "" {
			log.Fatal("create needs -store")
		}
		if len(args) < 2 {
			log.Fatal("Migration name required. Usage: migrate -store <store> create <name> [description]")
		}
		description := ""
		if len(args) > 2 {
			description = args[2]
		}
		mf, err := migration.CreateMigration(migrationsPath, store, args[1], description)
		if err != nil {
			log.Fatal("Failed to create migration", zap.Error(err))
		}
		log.Info("Migration created successfully",
			zap.Uint("version", mf.Version),
			zap.String("up_file", mf.UpPath),
			zap.String("down_file", mf.DownPath),
		)
		return
	case "list":
		for _, s := range stores {
			migrations, err := migration.ListMigrations(migration.Dir(migrationsPath, s))
			if err != nil {
				log.Fatal("Failed to list migrations", zap.String("store", s), zap.Error(err))
			}
			fmt.Printf("%s (%d)\n", s, len(migrations))
			for _, m := range migrations {
				fmt.Println("  -", m)
			}
		}
		return
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}

	for _, s := range stores {
		dbCfg := cfg.Database(s)
		if dbCfg.Driver == "sqlite" {
			log.Info("Skipping sqlite store, its schema is created on startup", zap.String("store", s))
			continue
		}
		if err := run(command, args, s, &dbCfg, migrationsPath, log); err != nil {
			log.Fatal("Migration failed", zap.String("store", s), zap.Error(err))
		}
	}
}

func run(command string, args []string, store string, dbCfg *config.DatabaseConfig, root string, log *zap.Logger) error {
	db, err := sql.Open("postgres", dbCfg.DSN())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	m, err := migration.New(db, root, store, log)
	if err != nil {
		return err
	}
	defer m.Close()

	switch command {
	case "up":
		return m.Up()

	case "down":
		return m.Down()

	case "step":
		if len(args) < 2 {
			return fmt.Errorf("step count required. Usage: migrate step <n>")
		}
		n, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid step count %q", args[1])
		}
		return m.Steps(n)

	case "version":
		version, dirty, err := m.Version()
		if err != nil {
			return err
		}
		if version == 0 {
			log.Info("No migrations applied", zap.String("store", store))
			return nil
		}
		log.Info("Current migration version",
			zap.String("store", store),
			zap.Uint("version", version),
			zap.Bool("dirty", dirty),
		)
		return nil

	case "force":
		if len(args) < 2 {
			return fmt.Errorf("version required. Usage: migrate -store <store> force <version>")
		}
		version, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid version number %q", args[1])
		}
		return m.Force(version)

	default:
		printUsage()
		return fmt.Errorf("unknown command %q", command)
	}
}

// resolveMigrationsPath falls back to ./migrations, then to the repository
// root relative to the executable
func resolveMigrationsPath(path string) string {
	if path == "" {
		if _, err := os.Stat(defaultMigrationsPath); err == nil {
			path = defaultMigrationsPath
		} else if execPath, err := os.Executable(); err == nil {
			candidate := filepath.Join(filepath.Dir(execPath), "..", "..", defaultMigrationsPath)
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
			}
		}
		if path == "" {
			path = defaultMigrationsPath
		}
	}
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}

func printUsage() {
	fmt.Println(`Freight Database Migration Tool

Usage:
  migrate [flags] <command> [arguments]

Commands:
  up                    Apply all pending migrations
  down                  Roll back all migrations
  step <n>              Apply n migrations (positive=up, negative=down)
  version               Show current migration version
  force <version>       Force set migration version (use with caution)
  create <name> [desc]  Create a new migration file pair (needs -store)
  list                  List available migrations

Flags:
  -store string         main, shipment, finance or attachment (default: all)
  -path string          Path to migrations root (default: ./migrations)
  -log-level string     Log level: debug, info, warn, error (default: info)

Environment Variables:
  FREIGHT_DATABASE_<STORE>_HOST, _PORT, _USER, _PASSWORD, _DBNAME, _SSLMODE

Examples:
  # Apply all pending migrations of every store
  migrate up

  # Roll back the last finance migration
  migrate -store finance step -1

  # Create a new migration
  migrate -store finance create add_cost_due_date_index "Index costs by due date"`)
}
