package trips

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gin-gonic/gin"
	amqp "github.com/rabbitmq/amqp091-go"

	handler "github.com/darbify/schoolbus-backend/module/trips/internal/handler/http"
	"github.com/darbify/schoolbus-backend/module/trips/internal/handler/subscriber"
	"github.com/darbify/schoolbus-backend/module/trips/internal/metrics"
	"github.com/darbify/schoolbus-backend/module/trips/internal/repository/database/postgres"
	"github.com/darbify/schoolbus-backend/module/trips/internal/repository/publisher/rabbitmq"
	"github.com/darbify/schoolbus-backend/module/trips/service"
	"github.com/darbify/schoolbus-backend/module/trips/worker"
)

// Migrate applies the trips schema, including the uniqueness index that
// backs derived-event idempotence.
func Migrate(ctx context.Context, db *sql.DB) error {
	return postgres.Migrate(ctx, db)
}

type Options struct {
	JWTSecret            string
	ApproachRadiusMeters float64
	Workers              int
	QueueSize            int
	JobTimeout           time.Duration
	MetricsAddr          string
}

type Module struct {
	TripSvc       *service.TripService
	LocationSvc   *service.LocationService
	GeofenceSvc   *service.GeofenceService
	AttendanceSvc *service.AttendanceService
	Dispatcher    *worker.Dispatcher
	Metrics       *metrics.Collector

	jwtSecret         string
	tripHandler       *handler.TripHandler
	attendanceHandler *handler.AttendanceHandler
	subscriber        *subscriber.LocationSubscriber
}

func Build(db *sql.DB, amqpConn *amqp.Connection, mqttClient mqtt.Client, opts Options) (*Module, error) {
	tripRepo := postgres.NewTripRepo(db)
	routeRepo := postgres.NewRouteRepo(db)
	eventRepo := postgres.NewEventRepo(db)
	locationRepo := postgres.NewLocationRepo(db)
	settingsRepo := postgres.NewSettingsRepo(db)
	attendanceRepo := postgres.NewAttendanceRepo(db)

	pub, err := rabbitmq.NewNotificationPublisher(amqpConn)
	if err != nil {
		return nil, fmt.Errorf("notification publisher: %w", err)
	}

	var col *metrics.Collector
	if opts.MetricsAddr != "" {
		col = metrics.NewCollector()
	}

	geofenceSvc := service.NewGeofenceService(tripRepo, routeRepo, eventRepo, settingsRepo, pub, col, opts.ApproachRadiusMeters)
	dispatcher := worker.NewDispatcher(geofenceSvc.Process, opts.Workers, opts.QueueSize, opts.JobTimeout, col)
	locationSvc := service.NewLocationService(tripRepo, locationRepo, dispatcher, col)
	tripSvc := service.NewTripService(tripRepo, eventRepo, pub)
	attendanceSvc := service.NewAttendanceService(attendanceRepo)

	return &Module{
		TripSvc:           tripSvc,
		LocationSvc:       locationSvc,
		GeofenceSvc:       geofenceSvc,
		AttendanceSvc:     attendanceSvc,
		Dispatcher:        dispatcher,
		Metrics:           col,
		jwtSecret:         opts.JWTSecret,
		tripHandler:       handler.NewTripHandler(tripSvc, locationSvc),
		attendanceHandler: handler.NewAttendanceHandler(attendanceSvc),
		subscriber:        subscriber.NewLocationSubscriber(mqttClient, locationSvc),
	}, nil
}

func (m *Module) RegisterRoutes(r *gin.RouterGroup) {
	authed := r.Group("", handler.Auth(m.jwtSecret))
	m.tripHandler.Register(authed)
	m.attendanceHandler.Register(authed)
}

func (m *Module) Start() error {
	m.Dispatcher.Start()
	return m.subscriber.Start()
}

func (m *Module) Stop() {
	m.Dispatcher.Stop()
}
