package subscriber

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/darbify/schoolbus-backend/module/trips/domain"
)

const topicPattern = "/bus/trip/+/location"

type locationService interface {
	Ingest(ctx context.Context, tripID, driverID string, lat, lng, speed float64) error
}

type locationMessage struct {
	TripID    string  `json:"trip_id"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Speed     float64 `json:"speed"`
}

// LocationSubscriber ingests bus-device telemetry from MQTT. Devices are
// not authenticated here; a sample is only accepted for a trip that is
// in progress.
type LocationSubscriber struct {
	client      mqtt.Client
	locationSvc locationService
}

func NewLocationSubscriber(client mqtt.Client, locationSvc locationService) *LocationSubscriber {
	return &LocationSubscriber{client: client, locationSvc: locationSvc}
}

func (s *LocationSubscriber) Start() error {
	token := s.client.Subscribe(topicPattern, 1, s.handleMessage)
	token.Wait()
	return token.Error()
}

func (s *LocationSubscriber) handleMessage(_ mqtt.Client, msg mqtt.Message) {
	var raw locationMessage
	if err := json.Unmarshal(msg.Payload(), &raw); err != nil {
		log.Printf("invalid location message: %v", err)
		return
	}

	if err := validateLocationMessage(&raw); err != nil {
		log.Printf("validation error: %v", err)
		return
	}

	err := s.locationSvc.Ingest(context.Background(), raw.TripID, "", raw.Latitude, raw.Longitude, raw.Speed)
	if err != nil {
		if errors.Is(err, domain.ErrTripNotActive) || errors.Is(err, domain.ErrTripNotFound) {
			log.Printf("dropping sample for trip %s: %v", raw.TripID, err)
			return
		}
		log.Printf("ingest location error: %v", err)
	}
}

func validateLocationMessage(msg *locationMessage) error {
	if msg.TripID == "" {
		return fmt.Errorf("trip_id: required")
	}
	if msg.Latitude < -90 || msg.Latitude > 90 {
		return fmt.Errorf("latitude: must be between -90 and 90")
	}
	if msg.Longitude < -180 || msg.Longitude > 180 {
		return fmt.Errorf("longitude: must be between -180 and 180")
	}
	if msg.Speed < 0 {
		return fmt.Errorf("speed: must not be negative")
	}
	return nil
}
