package main

import (
	"context"
	"log"
	"net/http"

	"pipewise/internal/agents"
	"pipewise/internal/config"
	"pipewise/internal/warehouse"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	store, err := warehouse.Open(cfg.DuckDB.Path)
	if err != nil {
		log.Fatal(err)
	}
	defer store.Close()

	ctx := context.Background()
	if cfg.DuckDB.Seed {
		if err := store.Seed(ctx); err != nil {
			log.Fatal(err)
		}
	}

	cli, err := agents.NewClient(ctx, cfg.LLM, log.Default())
	if err != nil {
		log.Fatal(err)
	}
	defer cli.Close()

	srv := &server{
		debugger: &agents.Debugger{LLM: cli, Log: log.Default()},
		sqlgen:   &agents.SQLGen{LLM: cli, Store: store, Log: log.Default()},
		quality:  &agents.Quality{LLM: cli, Store: store, Log: log.Default()},
		store:    store,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/debug/pipeline", srv.handleDebugPipeline)
	mux.HandleFunc("/api/sql/generate", srv.handleSQLGenerate)
	mux.HandleFunc("/api/quality/suggest", srv.handleQualitySuggest)
	mux.HandleFunc("/api/tables", srv.handleTables)
	mux.HandleFunc("/healthz", srv.handleHealthz)

	log.Printf("Starting API server on %s (provider=%s)", cfg.Port, cfg.LLM.Provider)
	log.Fatal(http.ListenAndServe(cfg.Port, withCORS(mux)))
}
