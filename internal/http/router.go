// README: HTTP router registration.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"cabdesk/internal/http/handlers"
	"cabdesk/internal/http/middleware"
	"cabdesk/internal/infra"
	"cabdesk/internal/modules/booking"
	"cabdesk/internal/modules/wallet"
)

func NewRouter(
	bookingService *booking.Service,
	walletService *wallet.Service,
	verifier infra.TokenVerifier,
) http.Handler {
	r := gin.New()
	r.Use(middleware.Logging(), middleware.Recovery())

	bookingHandler := handlers.NewBookingHandler(bookingService)
	walletHandler := handlers.NewWalletHandler(walletService)

	// Gateway callback carries its own signature; no session on it.
	r.POST("/api/wallet/recharge/verify", walletHandler.VerifyRecharge)

	api := r.Group("/api", middleware.Auth(verifier))
	api.GET("/bookings", bookingHandler.List)
	api.POST("/bookings", bookingHandler.Create)
	api.PUT("/bookings/:id/status", bookingHandler.UpdateStatus)
	api.POST("/bookings/:id/otp/issue", bookingHandler.IssueOtp)
	api.POST("/bookings/:id/otp/verify", bookingHandler.VerifyOtp)
	api.POST("/bookings/:id/complete", bookingHandler.Complete)
	api.GET("/wallet", walletHandler.Get)
	api.POST("/wallet/recharge/create", walletHandler.CreateRecharge)

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	return r
}
