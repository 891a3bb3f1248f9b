package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"

	logging "github.com/hanpama/booksgraph/internal/logging"
)

const (
	shutdownTimeout   = 3 * time.Second
	readHeaderTimeout = 10 * time.Second
)

// Mount is an extra handler served next to the GraphQL endpoint.
type Mount struct {
	Path    string
	Handler http.Handler
}

// NewMux serves gql at path, a liveness probe at /healthz and every mount.
func NewMux(path string, gql http.Handler, mounts ...Mount) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle(path, gql)
	mux.HandleFunc("/healthz", healthz)
	for _, m := range mounts {
		if m.Path != "" && m.Handler != nil {
			mux.Handle(m.Path, m.Handler)
		}
	}
	return mux
}

func healthz(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_, _ = w.Write([]byte(`{"status":"ok"}` + "\n"))
}

// ListenAndServe serves h on addr until ctx is done, then shuts down
// gracefully. ready, if non-nil, receives the bound address once listening.
func ListenAndServe(ctx context.Context, addr string, h http.Handler, logger *zap.Logger, ready func(net.Addr)) error {
	logger = logging.Named(logger, "http")

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	srv := &http.Server{
		Handler:           h,
		ReadHeaderTimeout: readHeaderTimeout,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()
	logging.MakeInfo(logger, "Listening", zap.String("addr", ln.Addr().String()))
	if ready != nil {
		ready(ln.Addr())
	}

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	logging.MakeInfo(logger, "Shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
