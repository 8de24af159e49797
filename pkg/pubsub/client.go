package pubsub

import (
	"context"
	"fmt"

	"cloud.google.com/go/pubsub/v2"

	"github.com/openpantry/vouchers-backend/pkg/config"
)

// Client wraps the GCP Pub/Sub client for the audit topic.
type Client struct {
	client    *pubsub.Client
	publisher *pubsub.Publisher
}

// New connects to Pub/Sub and binds the configured audit topic.
func New(ctx context.Context, cfg config.GCPConfig, ps config.PubSubConfig) (*Client, error) {
	if cfg.ProjectID == "" {
		return nil, fmt.Errorf("gcp project id is required")
	}
	if ps.AuditTopic == "" {
		return nil, fmt.Errorf("audit topic is required")
	}

	client, err := pubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	return &Client{
		client:    client,
		publisher: client.Publisher(ps.AuditTopic),
	}, nil
}

// Publish sends a message with attributes and blocks until the server acks it.
func (c *Client) Publish(ctx context.Context, data []byte, attrs map[string]string) (string, error) {
	res := c.publisher.Publish(ctx, &pubsub.Message{
		Data:       data,
		Attributes: attrs,
	})
	return res.Get(ctx)
}

// Close flushes pending publishes and releases the connection.
func (c *Client) Close() error {
	c.publisher.Stop()
	return c.client.Close()
}
