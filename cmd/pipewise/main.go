package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"pipewise/internal/agents"
	"pipewise/internal/config"
	"pipewise/internal/warehouse"
)

func main() {
	logFile := flag.String("log", "", "path to a failing task log file")
	dagFile := flag.String("dag", "", "path to the DAG source file")
	question := flag.String("ask", "", "natural-language question against the warehouse")
	table := flag.String("checks", "", "table to suggest quality checks for")
	out := flag.String("out", "", "write the JSON report to this file instead of stdout")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	cli, err := agents.NewClient(ctx, cfg.LLM, log.Default())
	if err != nil {
		log.Fatal(err)
	}
	defer cli.Close()

	switch {
	case *logFile != "":
		errorLog := readFile(*logFile)
		var dagCode string
		if *dagFile != "" {
			dagCode = readFile(*dagFile)
		}
		dbg := &agents.Debugger{LLM: cli, Log: log.Default()}
		report, err := dbg.Debug(ctx, errorLog, dagCode)
		if err != nil {
			log.Printf("debug halted: %v", err)
		}
		emit(*out, report)

	case *question != "":
		store := openStore(ctx, cfg)
		defer store.Close()
		gen := &agents.SQLGen{LLM: cli, Store: store, Log: log.Default()}
		report, err := gen.Ask(ctx, *question)
		if err != nil {
			log.Fatal(err)
		}
		emit(*out, report)

	case *table != "":
		store := openStore(ctx, cfg)
		defer store.Close()
		q := &agents.Quality{LLM: cli, Store: store, Log: log.Default()}
		report, err := q.Suggest(ctx, *table)
		if err != nil {
			log.Fatal(err)
		}
		emit(*out, report)

	default:
		fmt.Fprintln(os.Stderr, "one of --log, --ask, or --checks is required")
		flag.Usage()
		os.Exit(2)
	}
}

func openStore(ctx context.Context, cfg *config.Config) *warehouse.Store {
	store, err := warehouse.Open(cfg.DuckDB.Path)
	if err != nil {
		log.Fatal(err)
	}
	if cfg.DuckDB.Seed {
		if err := store.Seed(ctx); err != nil {
			log.Fatal(err)
		}
	}
	return store
}

func readFile(path string) string {
	b, err := os.ReadFile(path)
	if err != nil {
		log.Fatal(err)
	}
	return string(b)
}

func emit(out string, v any) {
	b, _ := json.MarshalIndent(v, "", "  ")
	if out == "" {
		fmt.Println(string(b))
		return
	}
	if err := os.WriteFile(out, b, 0o644); err != nil {
		log.Fatal(err)
	}
	log.Printf("report written to %s", out)
}
