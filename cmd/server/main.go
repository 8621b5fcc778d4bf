package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/darbify/schoolbus-backend/config"
	"github.com/darbify/schoolbus-backend/module/trips"
)

func main() {
	cfg := config.Load()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	db, err := config.NewPostgres(cfg)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer func() { _ = db.Close() }()

	if err := trips.Migrate(ctx, db); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	amqpConn, err := config.NewRabbitMQ(cfg)
	if err != nil {
		log.Fatalf("rabbitmq: %v", err)
	}
	defer func() { _ = amqpConn.Close() }()

	mqttClient, err := config.NewMQTT(cfg)
	if err != nil {
		log.Fatalf("mqtt: %v", err)
	}

	mod, err := trips.Build(db, amqpConn, mqttClient, trips.Options{
		JWTSecret:            cfg.JWTSecret,
		ApproachRadiusMeters: cfg.ApproachRadiusMeters,
		Workers:              cfg.GeofenceWorkers,
		QueueSize:            cfg.GeofenceQueueSize,
		JobTimeout:           cfg.GeofenceJobTimeout,
		MetricsAddr:          cfg.MetricsAddr,
	})
	if err != nil {
		log.Fatalf("trips module: %v", err)
	}

	if err := mod.Start(); err != nil {
		log.Fatalf("start trips module: %v", err)
	}

	go seedAttendanceDaily(ctx, mod)

	if cfg.MetricsAddr != "" {
		msrv := mod.Metrics.Serve(cfg.MetricsAddr)
		defer func() {
			shutdownCtx, c := context.WithTimeout(context.Background(), 3*time.Second)
			defer c()
			_ = msrv.Shutdown(shutdownCtx)
		}()
		log.Printf("metrics on %s/metrics", cfg.MetricsAddr)
	}

	r := gin.Default()

	health := config.NewHealthChecker(db, amqpConn, mqttClient)
	health.Register(r)

	api := r.Group("/api/v1")
	mod.RegisterRoutes(api)

	srv := &http.Server{Addr: ":" + cfg.HTTPPort, Handler: r}
	go func() {
		log.Printf("listening on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Printf("shutting down")

	shutdownCtx, c := context.WithTimeout(context.Background(), 5*time.Second)
	defer c()
	_ = srv.Shutdown(shutdownCtx)

	// stop telemetry delivery first, then drain in-flight geofence
	// evaluations before closing connections
	mqttClient.Disconnect(250)
	mod.Stop()
}

// seedAttendanceDaily creates the day's no_response attendance rows at
// startup and then once every 24h. Seeding is idempotent, so overlapping
// runs across replicas are harmless.
func seedAttendanceDaily(ctx context.Context, mod *trips.Module) {
	seed := func() {
		date := time.Now().UTC().Format("2006-01-02")
		n, err := mod.AttendanceSvc.SeedDay(ctx, date)
		if err != nil {
			log.Printf("attendance seed for %s: %v", date, err)
			return
		}
		if n > 0 {
			log.Printf("attendance: seeded %d rows for %s", n, date)
		}
	}

	seed()
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			seed()
		}
	}
}
