package messaging

import (
	"testing"

	"github.com/veristruct/voice-hub/internal/events"
)

func TestNewNATSServiceDefaultURL(t *testing.T) {
	t.Setenv("NATS_URL", "")

	ns, err := NewNATSService()
	if err != nil {
		t.Fatalf("NewNATSService: %v", err)
	}
	if ns.url != "nats://localhost:4222" {
		t.Errorf("url = %q, want default localhost", ns.url)
	}
}

func TestNewNATSServiceEnvURL(t *testing.T) {
	t.Setenv("NATS_URL", "nats://broker:4222")

	ns, err := NewNATSService()
	if err != nil {
		t.Fatalf("NewNATSService: %v", err)
	}
	if ns.url != "nats://broker:4222" {
		t.Errorf("url = %q, want env override", ns.url)
	}
}

func TestPublishBeforeConnect(t *testing.T) {
	ns := NewNATSServiceWithURL("nats://localhost:4222")

	event := events.NewTranscriptionEvent("desk-mic", "req-1")
	if err := ns.PublishTranscription(event); err == nil {
		t.Error("PublishTranscription must fail before Connect")
	}
	if err := ns.PublishSystemEvent("startup", "hub online"); err == nil {
		t.Error("PublishSystemEvent must fail before Connect")
	}
	if _, err := ns.SubscribeToTranscriptions(func(*events.TranscriptionEvent) {}); err == nil {
		t.Error("SubscribeToTranscriptions must fail before Connect")
	}
	if ns.IsConnected() {
		t.Error("IsConnected = true before Connect")
	}
}
