package telemetry

import "testing"

func TestPublishWithoutTopicIsNoOp(t *testing.T) {
	p := NewPublisher("", "us-east-1")
	if err := p.Publish(Event{Kind: EventUpdateStarted}); err != nil {
		t.Fatalf("expected no-op publish to succeed, got %v", err)
	}
}
