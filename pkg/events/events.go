// Package events publishes domain events on NATS. Events are notifications:
// a failed publish is logged by the caller and never fails the operation
// that produced it.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/nats-io/nats.go"
)

type Publisher interface {
	Publish(ctx context.Context, subject string, payload any) error
}

// Subject joins a base subject with an entity id, e.g.
// medcenter.lab.done.42.
func Subject(base string, id int64) string {
	return base + "." + strconv.FormatInt(id, 10)
}

// Wildcard subscribes to every id under base.
func Wildcard(base string) string { return base + ".*" }

// ----------------------------------------------------------------------------
// NATS
// ----------------------------------------------------------------------------

type msgPublisher interface {
	PublishMsg(m *nats.Msg) error
}

type NATSPublisher struct {
	nc msgPublisher
}

func NewNATSPublisher(nc *nats.Conn) *NATSPublisher {
	return &NATSPublisher{nc: nc}
}

// Publish encodes payload as JSON. The request id, when present on ctx, is
// carried in the Request-Id header.
func (p *NATSPublisher) Publish(ctx context.Context, subject string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("events: encode %s: %w", subject, err)
	}
	msg := nats.NewMsg(subject)
	msg.Data = data
	msg.Header.Set("Content-Type", "application/json")
	if rid := requestID(ctx); rid != "" {
		msg.Header.Set(HeaderRequestID, rid)
	}
	if err := p.nc.PublishMsg(msg); err != nil {
		return fmt.Errorf("events: publish %s: %w", subject, err)
	}
	return nil
}

// Nop drops every event. Used when NATS is disabled.
type Nop struct{}

func (Nop) Publish(context.Context, string, any) error { return nil }

// Decode unmarshals a message body published by NATSPublisher.
func Decode(msg *nats.Msg, v any) error {
	if err := json.Unmarshal(msg.Data, v); err != nil {
		return fmt.Errorf("events: decode %s: %w", msg.Subject, err)
	}
	return nil
}
