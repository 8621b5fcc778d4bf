// Mock bus device: publishes location samples for one trip over MQTT,
// walking from a start point toward a target so geofence events fire.
package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

type locationMessage struct {
	TripID    string  `json:"trip_id"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Speed     float64 `json:"speed"`
}

func main() {
	if len(os.Args) < 3 {
		fmt.Fprintf(os.Stderr, "usage: %s <trip_id> <interval_seconds>\n", os.Args[0])
		os.Exit(1)
	}

	tripID := os.Args[1]
	intervalSec, err := strconv.Atoi(os.Args[2])
	if err != nil || intervalSec <= 0 {
		fmt.Fprintf(os.Stderr, "error: interval must be a positive integer\n")
		os.Exit(1)
	}

	broker := "tcp://localhost:1883"
	if v := os.Getenv("MQTT_BROKER"); v != "" {
		broker = v
	}

	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID("schoolbus-mock-device")

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		log.Fatalf("mqtt connect: %v", token.Error())
	}
	defer client.Disconnect(250)

	// drive from ~2km out toward the stop used in the seed data
	lat, lng := 24.7400, 46.7000
	targetLat, targetLng := 24.7236, 46.6853
	steps := 40.0

	topic := fmt.Sprintf("/bus/trip/%s/location", tripID)
	log.Printf("connected to %s, publishing to %s every %ds", broker, topic, intervalSec)

	ticker := time.NewTicker(time.Duration(intervalSec) * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		lat += (targetLat - lat) / steps
		lng += (targetLng - lng) / steps

		msg := locationMessage{
			TripID:    tripID,
			Latitude:  lat,
			Longitude: lng,
			Speed:     35,
		}

		payload, _ := json.Marshal(msg)
		token := client.Publish(topic, 1, false, payload)
		token.Wait()

		log.Printf("published: %s", payload)
	}
}
