package utils //nolint:revive // var-naming: utils is an acceptable package name for shared utilities

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/lewisedginton/lead_capture_chatbot/pkg/logger"
)

// ListenHTTP binds srv.Addr and serves in the background. The returned channel
// receives the serve error (nil after a clean Shutdown) and is then closed.
// Binding happens synchronously so port conflicts surface to the caller.
func ListenHTTP(ctx context.Context, srv *http.Server, name string, log logger.Logger) (<-chan error, error) {
	var lc net.ListenConfig
	lis, err := lc.Listen(ctx, "tcp", srv.Addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", srv.Addr, err)
	}

	errChan := make(chan error, 1)
	go func() {
		defer close(errChan)
		log.Info("Starting HTTP listener",
			logger.StringField("listener", name),
			logger.StringField("address", lis.Addr().String()))
		if err := srv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("%s listener: %w", name, err)
		}
	}()
	return errChan, nil
}
