package devserver

import (
	"context"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"gigmarket/internal/infrastructure/relay"
	"gigmarket/pkg/config"
	"gigmarket/pkg/logger"
)

// Server is a self-contained in-memory backend implementing the marketplace
// wire contract, for local development and integration tests.
type Server struct {
	Echo  *echo.Echo
	store *Store
	relay *relay.Manager
	auth  *AuthMiddleware
	cfg   *config.Config
}

type customValidator struct {
	validate *validator.Validate
}

func (cv *customValidator) Validate(i interface{}) error {
	return cv.validate.Struct(i)
}

func New(ctx context.Context, cfg *config.Config) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Validator = &customValidator{validate: validator.New()}
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	manager := relay.NewManager()
	manager.Start(ctx)

	s := &Server{
		Echo:  e,
		store: NewStore(),
		relay: manager,
		auth:  NewAuthMiddleware(cfg.DevJWTSecret),
		cfg:   cfg,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.Echo.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	s.Echo.POST("/api/dev/token", s.issueToken)

	api := s.Echo.Group("/api")
	api.Use(s.auth.Authenticate)

	api.GET("/gigs", s.listGigs)
	api.GET("/gigs/:id", s.getGig)
	api.POST("/gigs", s.createGig)

	api.POST("/orders", s.createOrder)
	api.GET("/orders/client", s.listClientOrders)
	api.GET("/orders/freelancer", s.listFreelancerOrders)
	api.GET("/orders/:id", s.getOrder)
	api.PUT("/orders/:id/status", s.updateOrderStatus)

	api.GET("/messages/:id", s.getMessages)
	api.POST("/messages/:id", s.postMessage)

	api.POST("/reviews", s.createReview)
	api.GET("/reviews/order/:id", s.getOrderReview)
	api.GET("/reviews/gig/:id", s.listGigReviews)

	s.Echo.GET("/ws", s.handleWebSocket)
	s.Echo.Static("/uploads", s.cfg.DevUploadDir)
}

// Start blocks serving HTTP on the configured port.
func (s *Server) Start() error {
	addr := ":" + s.cfg.DevServerPort
	logger.Info("Dev server listening on %s", addr)
	return s.Echo.Start(addr)
}
