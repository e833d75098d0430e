package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"personify/internal/config"
	"personify/internal/persona"
	"personify/internal/progress"
	"personify/internal/store"
	"personify/internal/util/jsonutil"
)

// runState tracks one in-flight or finished generation.
type runState struct {
	Status   string         `json:"status"`
	Artifact map[string]any `json:"artifact,omitempty"`
	Error    string         `json:"error,omitempty"`
}

type server struct {
	gen            *persona.Generator
	hub            *progress.Hub
	customizations *store.CustomizationStore
	log            *zap.Logger

	mu   sync.Mutex
	runs map[string]*runState
}

func newServeCmd() *cobra.Command {
	var offline bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the persona generation HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := newLogger()
			if err != nil {
				return err
			}
			defer log.Sync()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cfg := config.Load()
			hub := progress.NewHub(log)
			gen, customizations, cleanup, err := buildGenerator(ctx, cfg, hub, log, offline)
			if err != nil {
				return err
			}
			defer cleanup()

			s := &server{
				gen:            gen,
				hub:            hub,
				customizations: customizations,
				log:            log,
				runs:           map[string]*runState{},
			}

			mux := http.NewServeMux()
			mux.HandleFunc("POST /api/personas", s.handleCreate)
			mux.HandleFunc("GET /api/runs/{id}", s.handleRun)
			mux.HandleFunc("GET /api/customizations/{industry}", s.handleListCustomizations)
			mux.HandleFunc("PUT /api/customizations/{industry}", s.handlePutCustomization)
			mux.HandleFunc("DELETE /api/customizations/{industry}/{property}", s.handleDeleteCustomization)
			mux.HandleFunc("GET /ws/progress", hub.ServeWS)

			srv := &http.Server{Addr: cfg.Addr, Handler: mux}
			errCh := make(chan error, 1)
			go func() { errCh <- srv.ListenAndServe() }()
			log.Info("listening", zap.String("addr", cfg.Addr))

			select {
			case <-ctx.Done():
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				return srv.Shutdown(shutdownCtx)
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			}
		},
	}

	cmd.Flags().BoolVar(&offline, "offline", false, "serve against local fakes, no API keys needed")
	return cmd
}

type createRequest struct {
	Website             string `json:"website"`
	Industry            string `json:"industry"`
	VerifiedCompanyName string `json:"verified_company_name"`
}

func (s *server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	site, err := normalizeWebsite(req.Website)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	runID := uuid.NewString()
	s.mu.Lock()
	s.runs[runID] = &runState{Status: "running"}
	s.mu.Unlock()

	// One run per request; the HTTP response returns immediately and
	// progress streams over the websocket.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Minute)
		defer cancel()
		defer s.hub.Finish(runID)

		artifact, err := s.gen.Generate(ctx, persona.Request{
			Website:             site,
			Industry:            req.Industry,
			VerifiedCompanyName: req.VerifiedCompanyName,
			RequestID:           runID,
		})
		s.mu.Lock()
		defer s.mu.Unlock()
		state := s.runs[runID]
		if err != nil {
			state.Status = "failed"
			state.Error = err.Error()
			s.log.Error("generation failed", zap.String("run_id", runID), zap.Error(err))
			return
		}
		state.Status = "done"
		state.Artifact = artifact
	}()

	writeJSON(w, http.StatusAccepted, map[string]any{"run_id": runID})
}

func (s *server) handleRun(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	state, ok := s.runs[r.PathValue("id")]
	s.mu.Unlock()
	if !ok {
		http.Error(w, "unknown run", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (s *server) handleListCustomizations(w http.ResponseWriter, r *http.Request) {
	list, err := s.customizations.List(r.Context(), r.PathValue("industry"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"industry":       store.NormalizeIndustry(r.PathValue("industry")),
		"customizations": list,
	})
}

func (s *server) handlePutCustomization(w http.ResponseWriter, r *http.Request) {
	var c store.Customization
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := s.customizations.Put(r.Context(), r.PathValue("industry"), c); err != nil {
		status := http.StatusInternalServerError
		if strings.Contains(err.Error(), "required") || strings.Contains(err.Error(), "unknown op") {
			status = http.StatusBadRequest
		}
		http.Error(w, err.Error(), status)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handleDeleteCustomization(w http.ResponseWriter, r *http.Request) {
	if err := s.customizations.Delete(r.Context(), r.PathValue("industry"), r.PathValue("property")); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	raw, err := jsonutil.MarshalNoEscape(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(raw)
}
