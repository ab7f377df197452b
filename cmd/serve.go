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

	"github.com/vnbizdata/collector-cli/internal/model"
	"github.com/vnbizdata/collector-cli/internal/registry"
	"github.com/vnbizdata/collector-cli/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start a JSON API over the record store",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		orch := initOrchestrator(st)

		mux := http.NewServeMux()

		mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
		})

		mux.HandleFunc("GET /records", func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			records, err := st.ListRecords(r.Context(), store.RecordFilter{
				Province: q.Get("province"),
				Source:   model.DataSource(q.Get("source")),
			})
			if err != nil {
				http.Error(w, `{"error":"list records failed"}`, http.StatusInternalServerError)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(records)
		})

		mux.HandleFunc("GET /records/{taxID}", func(w http.ResponseWriter, r *http.Request) {
			rec, err := st.GetRecord(r.Context(), r.PathValue("taxID"))
			if err != nil {
				http.Error(w, `{"error":"get record failed"}`, http.StatusInternalServerError)
				return
			}
			if rec == nil {
				http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(rec)
		})

		mux.HandleFunc("GET /stats", func(w http.ResponseWriter, r *http.Request) {
			stats, err := st.Stats(r.Context())
			if err != nil {
				http.Error(w, `{"error":"stats failed"}`, http.StatusInternalServerError)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(stats)
		})

		mux.HandleFunc("POST /collect", func(w http.ResponseWriter, r *http.Request) {
			var req struct {
				Industry string `json:"industry"`
				Location string `json:"location"`
				Count    int    `json:"count"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
				return
			}
			if req.Industry == "" && req.Location == "" {
				http.Error(w, `{"error":"industry or location is required"}`, http.StatusBadRequest)
				return
			}
			if req.Count <= 0 {
				req.Count = 10
			}

			// Run collection asynchronously
			go func() {
				filters := registry.Filters{Industry: req.Industry, Location: req.Location}
				_, report, err := orch.Run(ctx, filters, req.Count)
				if err != nil {
					zap.L().Error("api collection run failed",
						zap.String("industry", req.Industry),
						zap.String("location", req.Location),
						zap.Error(err),
					)
					return
				}
				zap.L().Info("api collection run complete",
					zap.Int("collected", report.Collected),
					zap.Int("failed", report.Failed),
				)
			}()

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusAccepted)
			json.NewEncoder(w).Encode(map[string]string{"status": "accepted"})
		})

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: mux,
		}

		go shutdownOnSignal(ctx, srv, 10*time.Second)

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

// shutdownOnSignal drains the server once ctx is cancelled. The signal
// context is already dead at that point, so in-flight requests get a
// fresh deadline of their own.
func shutdownOnSignal(ctx context.Context, srv *http.Server, grace time.Duration) {
	<-ctx.Done()
	zap.L().Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zap.L().Error("server shutdown", zap.Error(err))
	}
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
