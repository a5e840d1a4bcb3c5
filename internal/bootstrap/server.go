package bootstrap

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/kmalyshev/flybooking/api"
	"github.com/kmalyshev/flybooking/config"
	"github.com/kmalyshev/flybooking/internal/service/checkin"
	"github.com/kmalyshev/flybooking/internal/service/flights"
	"github.com/kmalyshev/flybooking/internal/service/orders"
	"github.com/kmalyshev/flybooking/internal/service/reschedule"
	"github.com/kmalyshev/flybooking/pkg/logger"
)

// Run starts the HTTP server and blocks until the context is canceled or
// the server fails.
func Run(
	ctx context.Context,
	cfg *config.Config,
	log *logger.Logger,
	flightSvc flights.FlightUseCase,
	orderSvc orders.OrderUseCase,
	checkinSvc checkin.CheckinUseCase,
	rescheduleSvc reschedule.RescheduleUseCase,
) error {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(log))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	apiGroup := router.Group("/api")
	api.NewFlightHandler(flightSvc).Register(apiGroup.Group("/flights"))
	api.NewOrderHandler(orderSvc).Register(apiGroup.Group("/orders"))
	api.NewCheckinHandler(checkinSvc).Register(apiGroup.Group("/checkin"))
	api.NewRescheduleHandler(rescheduleSvc).Register(apiGroup.Group("/reschedule"))

	if cfg.HTTP.SwaggerDir != "" {
		router.StaticFS("/swagger", http.Dir(cfg.HTTP.SwaggerDir))
		router.GET("/docs/*any", gin.WrapH(httpSwagger.Handler(
			httpSwagger.URL("/swagger/flybooking.swagger.json"),
		)))
	}

	srv := &http.Server{
		Addr:    cfg.HTTP.Address,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	log.Info("http server started", "address", cfg.HTTP.Address)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func requestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start).String(),
		)
	}
}
