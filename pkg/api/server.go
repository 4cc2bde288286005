package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"github.com/scalarorg/lending-bridge/config"
	"github.com/scalarorg/lending-bridge/pkg/bridge"
	"github.com/scalarorg/lending-bridge/pkg/custody"
	"github.com/scalarorg/lending-bridge/pkg/inbound"
)

const DEFAULT_LISTEN = ":8080"

type requestValidator struct {
	validate *validator.Validate
}

func (v *requestValidator) Validate(i interface{}) error {
	return v.validate.Struct(i)
}

// Server exposes the bridge entry points over HTTP.
type Server struct {
	config        *config.ApiConfig
	echo          *echo.Echo
	bridge        *bridge.Bridge
	authenticator *inbound.Authenticator
	ledger        *custody.Ledger
}

func NewServer(cfg *config.ApiConfig, b *bridge.Bridge, authenticator *inbound.Authenticator, ledger *custody.Ledger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = &requestValidator{validate: validator.New()}
	e.HTTPErrorHandler = errorHandler
	e.Use(middleware.Recover())
	e.Use(requestLogger())

	s := &Server{
		config:        cfg,
		echo:          e,
		bridge:        b,
		authenticator: authenticator,
		ledger:        ledger,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	v1 := s.echo.Group("/v1")
	v1.GET("/config", s.getConfig)
	v1.GET("/assets", s.listAssets)
	v1.GET("/mailbox", s.getMailbox)
	v1.GET("/custody/balance", s.getBalance)

	signed := v1.Group("", CallerAuth(s.config.SignatureWindow))
	signed.POST("/initialize", s.initialize)
	signed.POST("/assets", s.addAsset)
	signed.DELETE("/assets/:id", s.removeAsset)
	signed.POST("/deposit", s.deposit)
	signed.POST("/repay", s.repay)
	signed.POST("/borrow", s.borrow)
	signed.POST("/withdraw", s.withdraw)
	signed.PUT("/protocol-address", s.updateProtocolAddress)
	signed.PUT("/pause", s.setPause)
	signed.POST("/inbound", s.inbound)
	if s.config.DevMode {
		signed.POST("/custody/credit", s.credit)
	}
}

// Handler returns the router, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.echo
}

func (s *Server) Start() error {
	listen := s.config.Listen
	if listen == "" {
		listen = DEFAULT_LISTEN
	}
	log.Info().Str("listen", listen).Msg("[ApiServer] [Start] listening")
	if err := s.echo.Start(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func requestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:    true,
		LogStatus: true,
		LogMethod: true,
		LogError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			event := log.Debug()
			if v.Error != nil {
				event = log.Warn().Err(v.Error)
			}
			event.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Msg("[ApiServer] request")
			return nil
		},
	})
}
