package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/kdimtricp/movierec/internal/catalog"
	"github.com/kdimtricp/movierec/internal/config"
	"github.com/kdimtricp/movierec/internal/database"
	"github.com/kdimtricp/movierec/internal/logging"
	"github.com/kdimtricp/movierec/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	var (
		dbType         = flag.String("db", cfg.Database.Type, "Database type (postgres or sqlite)")
		host           = flag.String("host", cfg.Database.Host, "Database host")
		port           = flag.Int("port", cfg.Database.Port, "Database port")
		user           = flag.String("user", cfg.Database.User, "Database user")
		password       = flag.String("password", cfg.Database.Password, "Database password")
		dbName         = flag.String("name", cfg.Database.Name, "Database name")
		dbPath         = flag.String("path", cfg.Database.Path, "SQLite database file")
		migrationsPath = flag.String("migrations", cfg.Database.MigrationsPath, "Path to migrations directory")
		status         = flag.Bool("status", false, "Show migration and dataset status only")
		importDir      = flag.String("import", "", "Import movies.json/similarity.json/posters.json from this directory")
	)
	flag.Parse()

	logging.Init(logging.Config{Level: cfg.Log.Level, Format: "console"})

	dbConfig := database.Config{
		Type:       *dbType,
		Host:       *host,
		Port:       *port,
		User:       *user,
		Password:   *password,
		Name:       *dbName,
		SQLitePath: *dbPath,
	}

	db, err := database.NewDB(dbConfig)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	ctx := context.Background()
	repo := database.NewMovieRepository(db)

	if *status {
		if err := printStatus(ctx, db, repo, *migrationsPath); err != nil {
			logging.Fatal().Err(err).Msg("Failed to read status")
		}
		return
	}

	fmt.Printf("Running migrations from %s...\n", *migrationsPath)
	if err := db.RunMigrations(*migrationsPath); err != nil {
		logging.Fatal().Err(err).Msg("Failed to run migrations")
	}
	fmt.Println("Migrations completed successfully!")

	if *importDir != "" {
		if err := importDataset(ctx, repo, *importDir, cfg.Data); err != nil {
			logging.Fatal().Err(err).Str("dir", *importDir).Msg("Import failed")
		}
	}
}

func printStatus(ctx context.Context, db *database.DB, repo *database.MovieRepository, migrationsPath string) error {
	if db.Type() == "postgres" {
		migrator := database.NewMigrator(db.Conn(), db.Type())
		if err := migrator.Initialize(); err != nil {
			return fmt.Errorf("failed to initialize migrator: %w", err)
		}

		applied, err := migrator.GetAppliedMigrations()
		if err != nil {
			return fmt.Errorf("failed to get applied migrations: %w", err)
		}

		migrations, err := database.LoadMigrations(migrationsPath)
		if err != nil {
			return fmt.Errorf("failed to load migrations: %w", err)
		}

		fmt.Println("Migration Status:")
		fmt.Println("=================")
		for _, m := range migrations {
			state := "pending"
			if applied[m.Version] {
				state = "applied"
			}
			fmt.Printf("%s - %s [%s]\n", m.Version, m.Name, state)
		}
		fmt.Println()
	}

	count, err := repo.Count(ctx)
	if err != nil {
		return err
	}
	fmt.Println("Dataset Status:")
	fmt.Println("===============")
	fmt.Printf("Movies: %d\n", count)

	id, at, err := repo.LastImport(ctx)
	if err != nil {
		return err
	}
	if id == "" {
		fmt.Println("Last import: never")
	} else {
		fmt.Printf("Last import: %s (%s)\n", at.Format("2006-01-02 15:04:05"), id)
	}
	return nil
}

// importDataset validates the files by building a catalog from them before
// anything is written.
func importDataset(ctx context.Context, repo *database.MovieRepository, dir string, data config.DataConfig) error {
	store, err := storage.NewLocalStorage(dir)
	if err != nil {
		return err
	}

	movies, matrix, err := catalog.ReadFiles(store, catalog.Files{
		Movies:     data.MoviesFile,
		Similarity: data.SimilarityFile,
		Posters:    data.PostersFile,
	})
	if err != nil {
		return err
	}
	c, err := catalog.New(movies, matrix)
	if err != nil {
		return err
	}

	id, err := repo.ReplaceAll(ctx, movies, matrix)
	if err != nil {
		return err
	}

	fmt.Printf("Imported %d movies from %s (import %s)\n", c.Len(), dir, id)
	if dups := c.Duplicates(); len(dups) > 0 {
		fmt.Printf("Warning: %d duplicate titles, lookups resolve to the first row\n", len(dups))
	}
	return nil
}
