// Package server exposes simulations over HTTP.
package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/grmpy/grmpy-go/internal/config"
	"github.com/grmpy/grmpy-go/internal/simulation"
	"github.com/grmpy/grmpy-go/pkg/constants"
	"github.com/grmpy/grmpy-go/pkg/fixture"
	"github.com/grmpy/grmpy-go/pkg/metrics"
	"github.com/grmpy/grmpy-go/pkg/model"
	"github.com/grmpy/grmpy-go/pkg/output"
	"github.com/grmpy/grmpy-go/pkg/rng"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

type handler struct {
	logger        *zap.Logger
	simulator     *simulation.Simulator
	recorder      *metrics.Recorder
	maxUploadSize int64
	maxAgents     int
	version       string
}

type simulateOptions struct {
	IncludeData bool
}

// NewHandler constructs the HTTP handler serving the simulation API. A nil
// recorder disables the /metrics endpoint.
func NewHandler(logger *zap.Logger, cfg *Config, recorder *metrics.Recorder, version string) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg == nil {
		cfg = DefaultConfig()
	}

	trimmedVersion := strings.TrimSpace(version)
	if trimmedVersion == "" {
		trimmedVersion = "dev"
	}

	h := &handler{
		logger:        logger,
		simulator:     simulation.NewSimulator(logger),
		recorder:      recorder,
		maxUploadSize: cfg.UploadSizeBytes(),
		maxAgents:     cfg.MaxAgents,
		version:       trimmedVersion,
	}
	if h.maxUploadSize <= 0 {
		h.maxUploadSize = constants.DefaultMaxUploadSizeBytes
	}
	if h.maxAgents <= 0 {
		h.maxAgents = constants.DefaultMaxServerAgents
	}

	mux := http.NewServeMux()

	// Simulation from an uploaded init file
	mux.HandleFunc("/api/simulate", h.handleSimulate)

	// Simulation from a JSON-encoded init file
	mux.HandleFunc("/api/simulate/json", h.handleSimulateJSON)

	// Random parameterization rendered as an init file
	mux.HandleFunc("/api/fixture", h.handleFixture)

	mux.HandleFunc("/api/version", h.handleVersion)

	if recorder != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(recorder.Registry(), promhttp.HandlerOpts{}))
	}
	return mux
}

type simulateResponse struct {
	Report   *output.Report `json:"report"`
	Seed     uint64         `json:"seed"`
	Warnings []string       `json:"warnings,omitempty"`
	Duration string         `json:"duration"`
	CSV      string         `json:"csv,omitempty"`
}

type fixtureResponse struct {
	Label      string `json:"label"`
	Seed       uint64 `json:"seed"`
	ConfigYAML string `json:"configYaml"`
}

func (h *handler) handleSimulate(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleSimulate"
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	start := time.Now()
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.respondError(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("upload exceeds limit of %d bytes", h.maxUploadSize), op)
			return
		}
		h.respondError(w, http.StatusBadRequest, fmt.Sprintf("failed to parse upload: %v", err), op)
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "missing initialization file", op)
		return
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			h.logger.Warn("failed to close uploaded file",
				zap.String("op", op),
				zap.Error(closeErr),
			)
		}
	}()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, file); err != nil {
		h.respondError(w, http.StatusInternalServerError, fmt.Sprintf("failed to read initialization file: %v", err), op)
		return
	}

	opts := simulateOptions{IncludeData: coerceBool(r.FormValue("includeData"))}
	h.runSimulation(w, buf.Bytes(), start, op, opts)
}

func (h *handler) handleSimulateJSON(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleSimulateJSON"
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	start := time.Now()
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)

	var payload struct {
		Config  map[string]interface{} `json:"config"`
		Options map[string]interface{} `json:"options"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.respondError(w, http.StatusBadRequest, fmt.Sprintf("failed to decode request: %v", err), op)
		return
	}
	if payload.Config == nil {
		h.respondError(w, http.StatusBadRequest, "missing config object", op)
		return
	}

	configBytes, err := yaml.Marshal(payload.Config)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, fmt.Sprintf("failed to encode configuration: %v", err), op)
		return
	}

	opts := simulateOptions{IncludeData: coerceBool(payload.Options["includeData"])}
	h.runSimulation(w, configBytes, start, op, opts)
}

func (h *handler) runSimulation(w http.ResponseWriter, configBytes []byte, start time.Time, op string, opts simulateOptions) {
	cfg, err := config.LoadConfigurationFromBytes(configBytes)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error(), op)
		return
	}

	warnings, err := cfg.Check()
	if err != nil {
		h.respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid configuration: %v", err), op)
		return
	}
	if cfg.Simulation.Agents > h.maxAgents {
		h.respondError(w, http.StatusBadRequest,
			fmt.Sprintf("simulation.agents %d exceeds the server limit of %d", cfg.Simulation.Agents, h.maxAgents), op)
		return
	}
	if cfg.Simulation.Replications > 1 {
		warnings = append(warnings, "simulation.replications is ignored by the API; a single run is returned")
	}

	params, err := cfg.ModelParameters()
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error(), op)
		return
	}

	ds, err := h.simulator.RunSeeded(params, cfg.Simulation.Seed)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, model.ErrInvalidCovariance) || errors.Is(err, model.ErrMalformedParameters) {
			status = http.StatusBadRequest
		}
		h.respondError(w, status, fmt.Sprintf("simulation failed: %v", err), op)
		return
	}

	report, err := output.NewReport(params, ds, cfg.Quantiles())
	if err != nil {
		h.respondError(w, http.StatusBadRequest, fmt.Sprintf("failed to build report: %v", err), op)
		return
	}

	response := simulateResponse{
		Report:   report,
		Seed:     cfg.Simulation.Seed,
		Warnings: warnings,
	}
	if opts.IncludeData {
		var csvBuf bytes.Buffer
		if err := output.WriteCSV(&csvBuf, ds); err != nil {
			h.respondError(w, http.StatusInternalServerError, fmt.Sprintf("failed to encode dataset: %v", err), op)
			return
		}
		response.CSV = csvBuf.String()
	}

	elapsed := time.Since(start)
	response.Duration = elapsed.String()
	if h.recorder != nil {
		h.recorder.Observe(ds.Len(), ds.Treated(), elapsed)
	}

	h.logger.Info("simulation served",
		zap.String("op", op),
		zap.Int("agents", ds.Len()),
		zap.Int("treated", ds.Treated()),
		zap.Int("warnings", len(warnings)),
		zap.Duration("duration", elapsed),
	)
	h.writeJSON(w, http.StatusOK, response)
}

func (h *handler) handleFixture(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleFixture"
	if r.Method != http.MethodGet {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	query := r.URL.Query()
	seed := uint64(time.Now().UnixNano())
	if raw := query.Get("seed"); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			h.respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid seed %q", raw), op)
			return
		}
		seed = parsed
	}

	opts := fixture.DefaultOptions()
	if raw := query.Get("probability"); raw != "" {
		p, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			h.respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid probability %q", raw), op)
			return
		}
		opts.DeterministicProbability = p
	}

	src := rng.New(seed)
	constraints, err := fixture.NewConstraints(src, opts)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error(), op)
		return
	}
	fx := fixture.Generate(src, constraints)

	data, err := config.FromModelParameters(fx.Params, fx.Seed, fx.Label).MarshalInitFile()
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, err.Error(), op)
		return
	}
	h.writeJSON(w, http.StatusOK, fixtureResponse{Label: fx.Label, Seed: fx.Seed, ConfigYAML: string(data)})
}

func (h *handler) handleVersion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"version": h.version})
}

func (h *handler) respondError(w http.ResponseWriter, status int, msg string, op string) {
	h.logger.Error("simulation request failed",
		zap.String("op", op),
		zap.Int("status", status),
		zap.String("error", msg),
	)
	h.writeJSON(w, status, map[string]string{"error": msg})
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to write JSON response", zap.Error(err))
	}
}

func coerceBool(value interface{}) bool {
	switch v := value.(type) {
	case bool:
		return v
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(v))
		return err == nil && parsed
	case float64:
		return v != 0
	}
	return false
}
