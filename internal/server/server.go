package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

type Server struct {
	config *Config
	server *http.Server
	svc    *Services
}

func New(config *Config) (*Server, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	svc, err := NewServices(config)
	if err != nil {
		return nil, err
	}

	return &Server{
		config: config,
		svc:    svc,
		server: &http.Server{
			Addr:    config.HTTP.Addr,
			Handler: SetupRoutes(svc),
		},
	}, nil
}

func (s *Server) Start(ctx context.Context) error {
	slog.Info("server start", "addr", s.config.HTTP.Addr, "data", s.config.DataDir, "files", s.svc.Store.Count())

	errCh := make(chan error, 1)
	go func() {
		if err := s.runHTTPServer(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		slog.Info("server shutdown signal")
		return s.Stop(context.Background())
	}
}

func (s *Server) Stop(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	defer s.svc.Close()
	return s.server.Shutdown(shutdownCtx)
}

func (s *Server) runHTTPServer() error {
	if s.config.HTTP.CertFile != "" && s.config.HTTP.KeyFile != "" {
		slog.Info("server tls", "cert", s.config.HTTP.CertFile)
		return s.server.ListenAndServeTLS(s.config.HTTP.CertFile, s.config.HTTP.KeyFile)
	}
	return s.server.ListenAndServe()
}
