package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"iccrelay-go/internal/model"
	"iccrelay-go/internal/service"

	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

// EventHandler applies parsed webhook events
type EventHandler interface {
	Handle(ctx context.Context, ev model.Event) (service.UpdateOutcome, error)
}

// TradeReader provides read-only access to tracker state
type TradeReader interface {
	Snapshot(w model.Window) model.WindowStats
	ActiveTrades() []model.Trade
	Trade(id string) (model.Trade, bool)
}

// Server is the webhook receiver plus the read-only stats endpoints
type Server struct {
	events  EventHandler
	trades  TradeReader
	logger  *zap.Logger
	mux     *http.ServeMux
	srv     *http.Server
	address string
}

// NewServer creates an API server
func NewServer(address string, events EventHandler, trades TradeReader, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		events:  events,
		trades:  trades,
		logger:  logger.Named("api"),
		mux:     http.NewServeMux(),
		address: address,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /{$}", s.handleHome)
	s.mux.HandleFunc("POST /webhook", s.handleWebhook)
	s.mux.HandleFunc("GET /stats/{window}", s.handleStats)
	s.mux.HandleFunc("GET /trades/active", s.handleActive)
	s.mux.HandleFunc("GET /trades/{id}", s.handleTrade)
}

// Handler returns the routed handler with request id and access logging
func (s *Server) Handler() http.Handler {
	return s.requestID(s.mux)
}

// Run starts the HTTP server and shuts it down when ctx is done
func (s *Server) Run(ctx context.Context) error {
	s.srv = &http.Server{
		Addr:              s.address,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("🚀 api server started", zap.String("address", s.address))
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.logger.Info("🛑 api server shutting down")
		return s.srv.Shutdown(shutCtx)
	case err := <-errCh:
		return err
	}
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, "🤖 ICC relay is running")
}

func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	reqID := requestIDFrom(r.Context())

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "unreadable body: "+err.Error())
		return
	}

	ev, err := model.ParseEvent(body)
	if err != nil {
		s.logger.Warn("⚠️ rejected payload",
			zap.String("request_id", reqID),
			zap.Error(err),
			zap.ByteString("payload", truncate(body, 512)))
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.logger.Info("📥 webhook",
		zap.String("request_id", reqID),
		zap.String("event", string(ev.Kind())),
		zap.String("id", ev.TradeID()))

	outcome, err := s.events.Handle(r.Context(), ev)
	switch {
	case errors.Is(err, model.ErrDuplicateID):
		writeError(w, http.StatusConflict, err.Error())
		return
	case model.IsValidation(err):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		s.logger.Error("❌ event failed", zap.String("request_id", reqID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "success",
		"outcome": outcome.String(),
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	window, err := model.ParseWindow(r.PathValue("window"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	stats := s.trades.Snapshot(window)
	if stats.NoTrades {
		writeJSON(w, http.StatusOK, map[string]string{"message": "No trades"})
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleActive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.trades.ActiveTrades())
}

func (s *Server) handleTrade(w http.ResponseWriter, r *http.Request) {
	trade, ok := s.trades.Trade(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "trade not found")
		return
	}
	writeJSON(w, http.StatusOK, trade)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"status": "error", "message": message})
}

func truncate(b []byte, n int) []byte {
	if len(b) <= n {
		return b
	}
	return b[:n]
}
