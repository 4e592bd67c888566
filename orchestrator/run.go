// Copyright 2025 TripWise
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package orchestrator

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"tripwise/platform/llm"
	"tripwise/platform/shared/logger"
	"tripwise/platform/tools/itinerary"
	"tripwise/platform/tools/poisearch"
	"tripwise/platform/tools/registry"
	"tripwise/platform/tools/traveltime"
	"tripwise/platform/tools/weather"
)

// Server is the assembled chat service: the agent, its session registry and
// the artifact store, exposed over HTTP.
type Server struct {
	agent     *Agent
	sessions  *SessionRegistry
	artifacts *ArtifactStore
	logger    *logger.Logger
	config    Config
}

// NewServer wires the full service from configuration.
func NewServer(cfg Config) (*Server, error) {
	log := logger.New("trip-agent")

	var provider llm.Provider
	if cfg.LLM.GroqAPIKey != "" {
		provider = llm.NewGroqProviderWithKey(cfg.LLM.GroqAPIKey, cfg.LLM.GroqModel)
	} else {
		provider = llm.NewGroqProvider()
	}

	reg := registry.New(log)
	if err := reg.Register(poisearch.New(poisearch.NewClient(), log)); err != nil {
		return nil, err
	}
	if err := reg.Register(itinerary.New(provider, log)); err != nil {
		return nil, err
	}
	if err := reg.Register(traveltime.New()); err != nil {
		return nil, err
	}
	if err := reg.Register(weather.New()); err != nil {
		return nil, err
	}

	prefManager := NewPreferenceManager(NewLLMExtractor(provider), NewHeuristicExtractor(), log)
	pipeline := NewPipeline(reg, log)
	evaluator := NewEvaluationEngine(log)
	reasoner := NewReasoningManager(provider, log)
	artifacts := NewArtifactStore()
	mailer := NewSMTPMailer(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.From, cfg.SMTP.Password)

	agent := NewAgent(prefManager, pipeline, evaluator, reasoner, NewPDFExporter(), artifacts, mailer, log)

	return &Server{
		agent:     agent,
		sessions:  NewSessionRegistry(agent),
		artifacts: artifacts,
		logger:    log,
		config:    cfg,
	}, nil
}

// Router builds the HTTP routes.
func (s *Server) Router() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/health", s.healthHandler).Methods("GET")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")
	r.HandleFunc("/chat", s.chatHandler).Methods("POST")
	r.HandleFunc("/download-pdf/{id}", s.downloadPDFHandler).Methods("GET")

	c := cors.New(cors.Options{
		AllowedOrigins: s.config.Server.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
	})
	return c.Handler(r)
}

type chatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

func (s *Server) chatHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	defer func() {
		requestDuration.WithLabelValues("chat").Observe(float64(time.Since(start).Milliseconds()))
	}()

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.SessionID == "" || req.Message == "" {
		http.Error(w, "session_id and message are required", http.StatusBadRequest)
		return
	}

	session := s.sessions.GetOrCreate(req.SessionID)
	resp := s.agent.HandleMessage(r.Context(), session, req.Message)

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.logger.ErrorWithCause(req.SessionID, "", "Failed to encode chat response", err, nil)
	}
}

func (s *Server) downloadPDFHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	data, ok := s.artifacts.Get(id)
	if !ok {
		http.Error(w, "document not found or expired", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="itinerary.pdf"`)
	_, _ = w.Write(data)
}

func (s *Server) healthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":   "healthy",
		"sessions": s.sessions.Len(),
	})
}

// Run loads configuration, assembles the service and blocks serving HTTP.
func Run() error {
	cfg, err := LoadConfig(os.Getenv("CONFIG_FILE"))
	if err != nil {
		return err
	}

	srv, err := NewServer(cfg)
	if err != nil {
		return fmt.Errorf("failed to assemble server: %w", err)
	}

	httpServer := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      srv.Router(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	srv.logger.Info("", "", fmt.Sprintf("Trip agent listening on :%s", cfg.Server.Port), nil)
	return httpServer.ListenAndServe()
}
