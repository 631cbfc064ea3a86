package dashboard

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"time"

	"go.uber.org/fx"

	"momentum_bot/internal/models"
	"momentum_bot/internal/modules/config"
	"momentum_bot/internal/modules/dashboard/service"
	strategysvc "momentum_bot/internal/modules/strategy/service"
)

// StatusSource — то, что дашборд поллит у движка. Только чтение,
// движок сам ничего не пушит.
type StatusSource interface {
	Status() models.EngineStatus
	Started() bool
}

func NewMux(cfg *config.Config, state *service.State, src StatusSource) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/livez", func(w http.ResponseWriter, r *http.Request) {
		// liveness: процесс жив
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		// readiness: буферы прогреты, движок оценивает
		if !state.Ready() {
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	mux.HandleFunc("/statusz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		// движок ещё не видел ни одной свечи — нейтральная заглушка
		if src == nil || !src.Started() {
			_ = json.NewEncoder(w).Encode(map[string]any{
				"engine":    "waiting for data",
				"ready":     false,
				"uptimeSec": int64(state.Uptime().Seconds()),
			})
			return
		}

		st := src.Status()
		resp := map[string]any{
			"engine":      st,
			"ready":       state.Ready(),
			"wsConnected": state.WSConnected(),
			"uptimeSec":   int64(state.Uptime().Seconds()),
			"lastCandleUnix": func() int64 {
				t := state.LastCandle()
				if t.IsZero() {
					return 0
				}
				return t.Unix()
			}(),
		}
		_ = json.NewEncoder(w).Encode(resp)
	})

	mux.HandleFunc("/configz", func(w http.ResponseWriter, r *http.Request) {
		// эффективный конфиг без секретов
		w.Header().Set("Content-Type", "text/yaml")
		_, _ = w.Write([]byte(cfg.Render()))
	})

	return mux
}

func RunHTTP(lc fx.Lifecycle, cfg *config.Config, mux *http.ServeMux) {
	srv := &http.Server{
		Addr:              cfg.Dashboard.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", cfg.Dashboard.Addr)
			if err != nil {
				return err
			}
			go func() { _ = srv.Serve(ln) }()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}

func Module() fx.Option {
	return fx.Module("dashboard",
		fx.Provide(
			service.NewState,
			NewMux,
			func(e *strategysvc.Engine) StatusSource { return e },
		),
		fx.Invoke(RunHTTP),
	)
}
