package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"pipewise/internal/agents"
	"pipewise/internal/pipeline"
	"pipewise/internal/warehouse"
)

type server struct {
	debugger *agents.Debugger
	sqlgen   *agents.SQLGen
	quality  *agents.Quality
	store    *warehouse.Store
}

func (s *server) handleDebugPipeline(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var in struct {
		ErrorLog string `json:"error_log"`
		DagCode  string `json:"dag_code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(in.ErrorLog) == "" {
		http.Error(w, "error_log is required", http.StatusBadRequest)
		return
	}

	report, err := s.debugger.Debug(r.Context(), in.ErrorLog, in.DagCode)
	if err != nil {
		var ce *pipeline.ContractError
		if errors.As(err, &ce) {
			// Misconfigured stage order is a server fault, not a bad request.
			http.Error(w, ce.Error(), http.StatusInternalServerError)
			return
		}
		// Fatal stage outcome: the partial report still goes out.
	}
	writeJSON(w, report)
}

func (s *server) handleSQLGenerate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var in struct {
		Question string `json:"question"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(in.Question) == "" {
		http.Error(w, "question is required", http.StatusBadRequest)
		return
	}

	report, err := s.sqlgen.Ask(r.Context(), in.Question)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, report)
}

func (s *server) handleQualitySuggest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var in struct {
		TableName string `json:"table_name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(in.TableName) == "" {
		http.Error(w, "table_name is required", http.StatusBadRequest)
		return
	}

	report, err := s.quality.Suggest(r.Context(), in.TableName)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, report)
}

func (s *server) handleTables(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	tables, err := s.store.Tables(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]any{"tables": tables})
}

func (s *server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{"ok": true})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// withCORS allows browser frontends on other origins to call the API.
func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := strings.TrimSpace(r.Header.Get("Origin"))
		if origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Vary", "Origin")
		} else {
			w.Header().Set("Access-Control-Allow-Origin", "*")
		}
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Authorization")
		if r.Method == http.MethodOptions {
			return
		}
		next.ServeHTTP(w, r)
	})
}
