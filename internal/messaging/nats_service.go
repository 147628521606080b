package messaging

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/veristruct/voice-hub/internal/events"
)

// NATSService publishes transcription results for downstream consumers
type NATSService struct {
	conn *nats.Conn
	url  string
}

// SystemEvent carries hub lifecycle notifications
type SystemEvent struct {
	Kind      string `json:"kind"`
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"`
}

// NATS subjects for different event types
const (
	SubjectTranscriptions = "vox.transcriptions"
	SubjectSystemEvents   = "vox.system.events"
)

// NewNATSService creates a new NATS service instance
func NewNATSService() (*NATSService, error) {
	natsURL := os.Getenv("NATS_URL")
	if natsURL == "" {
		natsURL = "nats://localhost:4222"
	}

	return &NATSService{
		url: natsURL,
	}, nil
}

// NewNATSServiceWithURL creates a NATS service against an explicit server
func NewNATSServiceWithURL(url string) *NATSService {
	return &NATSService{url: url}
}

// Connect establishes connection to NATS server
func (ns *NATSService) Connect() error {
	log.Printf("🔌 Connecting to NATS at %s", ns.url)

	// Connection options with retry logic
	opts := []nats.Option{
		nats.Name("voice-hub"),
		nats.ReconnectWait(2 * time.Second),
		nats.MaxReconnects(-1), // Retry indefinitely
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Printf("⚠️  NATS disconnected: %v", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Printf("🔄 NATS reconnected to %s", nc.ConnectedUrl())
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			log.Println("🔌 NATS connection closed")
		}),
	}

	conn, err := nats.Connect(ns.url, opts...)
	if err != nil {
		return fmt.Errorf("failed to connect to NATS: %w", err)
	}

	ns.conn = conn
	log.Printf("✅ Connected to NATS server at %s", conn.ConnectedUrl())
	return nil
}

// PublishTranscription publishes a completed transcription event
func (ns *NATSService) PublishTranscription(event *events.TranscriptionEvent) error {
	if ns.conn == nil {
		return fmt.Errorf("NATS connection not established")
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal transcription event: %w", err)
	}

	if err := ns.conn.Publish(SubjectTranscriptions, data); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", SubjectTranscriptions, err)
	}

	log.Printf("📤 Published transcription to NATS - SourceID: %s, Language: %s",
		event.SourceID, event.Language)
	return nil
}

// PublishSystemEvent publishes a hub lifecycle event
func (ns *NATSService) PublishSystemEvent(kind, message string) error {
	if ns.conn == nil {
		return fmt.Errorf("NATS connection not established")
	}

	data, err := json.Marshal(SystemEvent{
		Kind:      kind,
		Message:   message,
		Timestamp: time.Now().Unix(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal system event: %w", err)
	}

	if err := ns.conn.Publish(SubjectSystemEvents, data); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", SubjectSystemEvents, err)
	}

	return nil
}

// SubscribeToTranscriptions subscribes to transcription events
func (ns *NATSService) SubscribeToTranscriptions(handler func(*events.TranscriptionEvent)) (*nats.Subscription, error) {
	if ns.conn == nil {
		return nil, fmt.Errorf("NATS connection not established")
	}

	return ns.conn.Subscribe(SubjectTranscriptions, func(msg *nats.Msg) {
		var event events.TranscriptionEvent
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			log.Printf("❌ Error unmarshaling transcription event: %v", err)
			return
		}

		log.Printf("📥 Received transcription from NATS - SourceID: %s, Text: %q",
			event.SourceID, event.Text)
		handler(&event)
	})
}

// Close closes the NATS connection
func (ns *NATSService) Close() {
	if ns.conn != nil {
		ns.conn.Close()
		log.Println("🔌 NATS connection closed")
	}
}

// IsConnected returns true if connected to NATS
func (ns *NATSService) IsConnected() bool {
	return ns.conn != nil && ns.conn.IsConnected()
}

// GetStats returns connection statistics
func (ns *NATSService) GetStats() nats.Statistics {
	if ns.conn != nil {
		return ns.conn.Stats()
	}
	return nats.Statistics{}
}
