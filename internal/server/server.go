// Package server exposes the optimizer over HTTP: clients POST a YAML
// document with a candidate pool and squad rules and receive the optimal
// squad and captain as JSON.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/fplopt/squad-optimizer/internal/model"
	"github.com/fplopt/squad-optimizer/internal/selection"
	"github.com/fplopt/squad-optimizer/internal/solver"
	"github.com/fplopt/squad-optimizer/pkg/constants"
	"github.com/fplopt/squad-optimizer/pkg/money"
)

type handler struct {
	logger        *zap.Logger
	maxUploadSize int64
	version       string
}

// NewHandler constructs the HTTP handler that serves the optimizer API.
func NewHandler(logger *zap.Logger, maxUploadSize int64, version string) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}

	if maxUploadSize <= 0 {
		maxUploadSize = constants.DefaultMaxUploadSizeBytes
	}

	trimmedVersion := strings.TrimSpace(version)
	if trimmedVersion == "" {
		trimmedVersion = "dev"
	}

	h := &handler{logger: logger, maxUploadSize: maxUploadSize, version: trimmedVersion}

	mux := http.NewServeMux()

	// Optimization endpoint (YAML pool + rules upload)
	mux.HandleFunc("/api/optimize", h.handleOptimize)

	// Version endpoint for client metadata
	mux.HandleFunc("/api/version", h.handleVersion)

	return mux
}

// optimizeRequest is the YAML document clients upload.
type optimizeRequest struct {
	Players []model.Candidate `yaml:"players"`
	Squad   squadSection      `yaml:"squad"`
	Solver  solverSection     `yaml:"solver"`
}

type squadSection struct {
	Budget     int64          `yaml:"budget"`
	Size       int            `yaml:"size"`
	Positions  map[string]int `yaml:"positions"`
	MaxPerClub int            `yaml:"maxPerClub"`
}

type solverSection struct {
	MaxNodes  int    `yaml:"maxNodes"`
	TimeLimit string `yaml:"timeLimit"`
}

type optimizeResponse struct {
	Status         string            `json:"status"`
	Squad          []model.Candidate `json:"squad"`
	TotalCost      int64             `json:"totalCost"`
	TotalPredicted float64           `json:"totalPredicted"`
	Captain        selection.Captain `json:"captain"`
	Gap            float64           `json:"gap,omitempty"`
	Nodes          int               `json:"nodes"`
	Duration       string            `json:"duration"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *handler) handleOptimize(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	start := time.Now()
	if h.maxUploadSize > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.writeError(w, http.StatusRequestEntityTooLarge, fmt.Errorf("failed to read request body: %w", err))
		return
	}

	var req optimizeRequest
	if err := yaml.Unmarshal(body, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, fmt.Errorf("failed to parse request: %w", err))
		return
	}

	cons := model.Constraints{
		Budget:         money.Tenths(req.Squad.Budget),
		SquadSize:      req.Squad.Size,
		PositionCounts: req.Squad.Positions,
		MaxPerClub:     req.Squad.MaxPerClub,
	}

	problem, err := model.Build(model.Pool(req.Players), cons)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}

	opts := solver.Options{MaxNodes: req.Solver.MaxNodes}
	if opts.MaxNodes == 0 {
		opts.MaxNodes = constants.DefaultMaxNodes
	}
	if req.Solver.TimeLimit != "" {
		limit, err := time.ParseDuration(req.Solver.TimeLimit)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid solver time limit %q: %w", req.Solver.TimeLimit, err))
			return
		}
		opts.TimeLimit = limit
	}

	result, err := solver.Solve(r.Context(), h.logger, problem, opts)
	if err != nil {
		switch {
		case errors.Is(err, solver.ErrInfeasible), errors.Is(err, solver.ErrNoIncumbent):
			h.writeError(w, http.StatusUnprocessableEntity, err)
		default:
			h.logger.Error("solver failed",
				zap.String("op", "server.handleOptimize"),
				zap.Error(err),
			)
			h.writeError(w, http.StatusInternalServerError, err)
		}
		return
	}

	sel, err := selection.Extract(model.Pool(req.Players), cons, result.Selected)
	if err != nil {
		h.logger.Error("selection re-validation failed",
			zap.String("op", "server.handleOptimize"),
			zap.Error(err),
		)
		h.writeError(w, http.StatusInternalServerError, err)
		return
	}

	captain, err := selection.PickCaptain(sel)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err)
		return
	}

	h.logger.Info("optimization served",
		zap.String("op", "server.handleOptimize"),
		zap.String("status", result.Status.String()),
		zap.Int("poolSize", len(req.Players)),
		zap.Int("nodes", result.Nodes),
		zap.Duration("duration", time.Since(start)),
	)

	h.writeJSON(w, http.StatusOK, optimizeResponse{
		Status:         result.Status.String(),
		Squad:          sel.Members,
		TotalCost:      int64(sel.TotalCost),
		TotalPredicted: sel.TotalPredicted,
		Captain:        captain,
		Gap:            result.Gap / solver.ObjectiveScale,
		Nodes:          result.Nodes,
		Duration:       time.Since(start).String(),
	})
}

func (h *handler) handleVersion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"version": h.version})
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Warn("failed to encode response",
			zap.String("op", "server.writeJSON"),
			zap.Error(err),
		)
	}
}

func (h *handler) writeError(w http.ResponseWriter, status int, err error) {
	h.writeJSON(w, status, errorResponse{Error: err.Error()})
}
