package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"storefront/internal/config"
	"storefront/internal/handler"
	"storefront/internal/metrics"
	"storefront/internal/middleware"
)

type Handlers struct {
	Product *handler.ProductHandler
	Cart    *handler.CartHandler
	Order   *handler.OrderHandler
}

type Server struct {
	echo *echo.Echo
	http *http.Server
	log  *slog.Logger
}

func New(cfg config.Config, log *slog.Logger, m *metrics.Metrics, h Handlers) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(middleware.RequestLogger(log))
	e.Use(m.Middleware())

	RegisterRoutes(e, cfg, m, h)

	return &Server{
		echo: e,
		http: &http.Server{
			Addr:              ":" + cfg.Port,
			Handler:           otelhttp.NewHandler(e, "storefront"),
			ReadHeaderTimeout: 10 * time.Second,
		},
		log: log,
	}
}

// テスト用（トレース無しのechoそのもの）
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Shutdownされるまでブロックする
func (s *Server) Start() error {
	s.log.Info("server starting", "address", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
