// README: Entry point; loads config, wires services, starts the HTTP server.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"cabdesk/internal/config"
	httptransport "cabdesk/internal/http"
	"cabdesk/internal/infra"
	"cabdesk/internal/maps"
	"cabdesk/internal/modules/booking"
	"cabdesk/internal/modules/otp"
	"cabdesk/internal/modules/wallet"
	"cabdesk/internal/payment"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Firebase.ProjectID == "" {
		log.Fatal("CABDESK_FIREBASE_PROJECT_ID is required")
	}
	verifier, err := infra.NewFirebaseVerifier(ctx, cfg.Firebase.ProjectID, cfg.Firebase.CredentialsFile)
	if err != nil {
		log.Fatalf("firebase init: %v", err)
	}

	dbPool, err := infra.NewDB(ctx, cfg.DB.DSN)
	if err != nil {
		log.Fatal(err)
	}

	redisClient := infra.NewRedis(cfg.Redis.Addr)

	gateway := payment.NewHMACGateway(cfg.Payment.Secret, cfg.Payment.BaseURL)

	walletStore := wallet.NewStore(dbPool)
	walletSvc := wallet.NewService(walletStore, gateway, cfg.Wallet.MinBalance)

	otpStore := otp.NewStore(redisClient)
	otpSvc := otp.NewService(otpStore, cfg.OTP.TTL, cfg.OTP.MaxAttempts)

	var estimator booking.Estimator
	if cfg.Maps.APIKey != "" {
		routes, err := maps.NewRouteService(cfg.Maps.APIKey)
		if err != nil {
			log.Fatalf("maps init: %v", err)
		}
		estimator = maps.NewFareEstimator(routes, 50, 12)
	}

	bookingStore := booking.NewStore(dbPool)
	bookingSvc := booking.NewService(bookingStore, walletSvc, otpSvc, walletSvc, estimator)

	handler := httptransport.NewRouter(bookingSvc, walletSvc, verifier)

	server := &http.Server{Addr: cfg.HTTP.Addr, Handler: handler}

	go func() {
		<-ctx.Done()
		_ = server.Shutdown(context.Background())
	}()

	log.Printf("cabdesk-api listening on %s", cfg.HTTP.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal(err)
	}
}
