package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/kdimtricp/movierec/internal/catalog"
	"github.com/kdimtricp/movierec/internal/config"
	"github.com/kdimtricp/movierec/internal/database"
	"github.com/kdimtricp/movierec/internal/logging"
	"github.com/kdimtricp/movierec/internal/search"
	"github.com/kdimtricp/movierec/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	var (
		source = flag.String("source", cfg.Data.Source, "Dataset source (files or database)")
		dir    = flag.String("dir", cfg.Data.Dir, "Dataset directory for -source=files")
		probe  = flag.String("probe", "", "Look up this title on TMDb to verify the access token")
	)
	flag.Parse()

	logging.Init(logging.Config{Level: "warn", Format: "console"})

	fmt.Println("🔍 Checking Movie Dataset")
	fmt.Println("=========================")

	c, err := loadCatalog(*source, *dir, cfg)
	if err != nil {
		fmt.Printf("❌ Dataset invalid: %v\n", err)
		os.Exit(1)
	}

	r := catalog.Inspect(c)
	fmt.Printf("🎬 Movies: %d\n", r.Movies)
	fmt.Printf("📐 Matrix: %dx%d, scores in [%.4f, %.4f]\n", r.Movies, r.Movies, r.MinScore, r.MaxScore)

	if r.Symmetric() {
		fmt.Println("✅ Similarity matrix is symmetric")
	} else {
		fmt.Printf("⚠️  %d asymmetric pairs (max difference %.6f)\n", r.AsymmetricPairs, r.MaxAsymmetry)
	}

	if len(r.SelfNotMax) == 0 {
		fmt.Println("✅ Every movie is most similar to itself")
	} else {
		fmt.Printf("⚠️  %d rows where another movie outscores the diagonal (first: %d)\n", len(r.SelfNotMax), r.SelfNotMax[0])
	}

	if len(r.Duplicates) == 0 {
		fmt.Println("✅ Titles are unique")
	} else {
		titles := make([]string, 0, len(r.Duplicates))
		for title := range r.Duplicates {
			titles = append(titles, title)
		}
		sort.Strings(titles)
		fmt.Printf("⚠️  %d duplicate titles, lookups resolve to the first row:\n", len(titles))
		for _, title := range titles {
			fmt.Printf("   - %s %v\n", title, r.Duplicates[title])
		}
	}
	fmt.Println()

	if !cfg.EnrichmentEnabled() {
		fmt.Println("⚠️  WARNING: TMDB_ACCESS_TOKEN is not set!")
		fmt.Println("   Posters still render, trailers will show as not available.")
		return
	}
	fmt.Println("✅ TMDb access token configured")

	if *probe != "" {
		probeTMDb(cfg, *probe)
	}
}

func loadCatalog(source, dir string, cfg *config.Config) (*catalog.Catalog, error) {
	if source == "database" {
		db, err := database.NewDB(database.Config{
			Type:       cfg.Database.Type,
			Host:       cfg.Database.Host,
			Port:       cfg.Database.Port,
			User:       cfg.Database.User,
			Password:   cfg.Database.Password,
			Name:       cfg.Database.Name,
			SQLitePath: cfg.Database.Path,
		})
		if err != nil {
			return nil, err
		}
		defer db.Close()
		return catalog.LoadDatabase(context.Background(), database.NewMovieRepository(db))
	}

	store, err := storage.NewLocalStorage(dir)
	if err != nil {
		return nil, err
	}
	return catalog.LoadFiles(store, catalog.Files{
		Movies:     cfg.Data.MoviesFile,
		Similarity: cfg.Data.SimilarityFile,
		Posters:    cfg.Data.PostersFile,
	})
}

func probeTMDb(cfg *config.Config, title string) {
	client := search.NewTMDbClient(cfg.TMDb.AccessToken, search.Options{
		BaseURL:      cfg.TMDb.BaseURL,
		ImageBaseURL: cfg.TMDb.ImageBaseURL,
		Timeout:      cfg.TMDb.Timeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	movies, err := client.SearchMovies(ctx, title)
	if err != nil {
		fmt.Printf("❌ TMDb search failed: %v\n", err)
		os.Exit(1)
	}
	if len(movies) == 0 {
		fmt.Printf("⚠️  TMDb has no match for %q\n", title)
		return
	}

	top := movies[0]
	fmt.Printf("✅ TMDb match: %s (%s, id %d)\n", top.Title, top.ReleaseDate, top.ID)
	if top.PosterPath != "" {
		fmt.Printf("   Poster: %s\n", client.GetImageURL(top.PosterPath, cfg.TMDb.PosterSize))
	}
}
