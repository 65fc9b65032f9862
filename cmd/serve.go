package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/lead-router/internal/assign"
	"github.com/sells-group/lead-router/internal/workload"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP routing API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initRouter(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		limiter := rate.NewLimiter(rate.Limit(cfg.Server.ImportRPS), cfg.Server.ImportBurst)
		mux := buildMux(ctx, env, limiter)

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: mux,
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			grace := time.Duration(cfg.Server.ShutdownGrace) * time.Second
			shutdownCtx, cancel := context.WithTimeout(context.Background(), grace)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				zap.L().Warn("server shutdown", zap.Error(err))
			}
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// buildMux wires the routing API. The import endpoint is rate-limited;
// assignment and workload endpoints hit the in-memory engine directly.
func buildMux(ctx context.Context, env *routerEnv, limiter *rate.Limiter) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	mux.HandleFunc("POST /import", func(w http.ResponseWriter, r *http.Request) {
		if limiter != nil && !limiter.Allow() {
			http.Error(w, `{"error":"import rate limit exceeded"}`, http.StatusTooManyRequests)
			return
		}

		var req struct {
			Campaign string     `json:"campaign"`
			Header   []string   `json:"header"`
			Rows     [][]string `json:"rows"`
			DryRun   bool       `json:"dry_run"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
			return
		}
		if len(req.Header) == 0 {
			http.Error(w, `{"error":"header is required"}`, http.StatusBadRequest)
			return
		}
		if req.Campaign == "" {
			req.Campaign = cfg.Import.Campaign
		}

		summary, err := importLeads(ctx, env, req.Header, req.Rows, req.Campaign, req.DryRun, cfg.Import.MaxConcurrent)
		if err != nil {
			zap.L().Error("import request failed", zap.Error(err))
			http.Error(w, `{"error":"import failed"}`, http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, summary)
	})

	mux.HandleFunc("POST /assign", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			LeadID string `json:"lead_id"`
			RepID  string `json:"rep_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
			return
		}
		if req.LeadID == "" {
			http.Error(w, `{"error":"lead_id is required"}`, http.StatusBadRequest)
			return
		}

		repID := req.RepID
		var err error
		if repID != "" {
			err = env.Engine.Assign(req.LeadID, repID)
		} else {
			repID, err = env.Engine.AutoAssign(req.LeadID)
		}
		if err != nil {
			writeJSON(w, assignStatus(err), map[string]string{"error": eris.Cause(err).Error()})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"lead_id": req.LeadID, "rep_id": repID})
	})

	mux.HandleFunc("POST /assign/bulk", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Pairs []assign.Pair `json:"pairs"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
			return
		}
		if len(req.Pairs) == 0 {
			http.Error(w, `{"error":"pairs is required"}`, http.StatusBadRequest)
			return
		}
		writeJSON(w, http.StatusOK, env.Engine.BulkAssign(req.Pairs))
	})

	mux.HandleFunc("GET /workload", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, workload.Snapshot(env.Reps, env.Engine.Leads()))
	})

	mux.HandleFunc("GET /workload/{repID}", func(w http.ResponseWriter, r *http.Request) {
		wl, err := env.Engine.Workload(r.PathValue("repID"))
		if err != nil {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": eris.Cause(err).Error()})
			return
		}
		writeJSON(w, http.StatusOK, wl)
	})

	return mux
}

// assignStatus maps engine errors onto HTTP status codes.
func assignStatus(err error) int {
	switch {
	case eris.Is(err, assign.ErrLeadNotFound), eris.Is(err, assign.ErrRepNotFound):
		return http.StatusNotFound
	case eris.Is(err, assign.ErrRepInactive), eris.Is(err, assign.ErrRepAtCapacity):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
