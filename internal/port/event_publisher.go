package port

import "context"

type EventPublisher interface {
	// Publish emits a JSON event body under a routing key, best effort
	Publish(ctx context.Context, routingKey string, body []byte) error
}
