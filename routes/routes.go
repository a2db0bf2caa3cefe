package routes

import (
	"time"

	"lumident/config"
	"lumident/handlers"
	"lumident/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RegisterRoutes wires all endpoints onto the router.
func RegisterRoutes(r *gin.Engine, bookingHandler *handlers.BookingHandler) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"https://lumident.example", "http://localhost:3000"},
		AllowMethods:     []string{"GET", "POST"},
		AllowHeaders:     []string{"Origin", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", handlers.Health)

	api := r.Group("/api/booking")
	{
		// Public intent submission sits behind the per-IP rate limiter; the
		// gateway callback does not, since gateway retries arrive in bursts.
		api.POST("", middleware.RateLimitMiddleware(config.AppConfig.MaxRequestsPerMin), bookingHandler.SubmitIntent)
		api.GET("/:token/status", bookingHandler.BookingStatus)
		api.POST("/payment/callback", bookingHandler.PaymentCallback)
	}
}
