package service

import (
	"context"
	"strconv"
	"time"

	"github.com/Skotchmaster/shop_catalog/internal/search"
	"github.com/Skotchmaster/shop_catalog/pkg/logging"
)

const (
	ProductEventsTopic = "product_events"
	publishTimeout     = 5 * time.Second
	indexTimeout       = 5 * time.Second
)

const (
	EventProductCreated = "product_created"
	EventProductUpdated = "product_updated"
	EventProductDeleted = "product_deleted"
	EventProductToggled = "product_toggled"
	EventCommentAdded   = "comment_added"
)

type EventPublisher interface {
	PublishEvent(ctx context.Context, topic, key string, event any) error
}

// projections fans committed changes out to Kafka and Elasticsearch. Both are
// optional and neither can fail the request.
type projections struct {
	Events EventPublisher
	Search search.Indexer
}

func (p projections) publish(ctx context.Context, typ string, productID int, payload map[string]any) {
	if p.Events == nil {
		return
	}
	event := map[string]any{
		"type":       typ,
		"product_id": productID,
		"ts":         time.Now().UTC().Format(time.RFC3339),
	}
	for k, v := range payload {
		event[k] = v
	}

	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := p.Events.PublishEvent(pctx, ProductEventsTopic, strconv.Itoa(productID), event); err != nil {
		logging.FromContext(ctx).Error("kafka_publish_failed", "event", typ, "product_id", productID, "error", err)
	}
}

func (p projections) index(ctx context.Context, productID int, record map[string]any) {
	if p.Search == nil {
		return
	}
	ictx, cancel := context.WithTimeout(context.WithoutCancel(ctx), indexTimeout)
	defer cancel()
	if err := p.Search.Index(ictx, productID, record); err != nil {
		logging.FromContext(ctx).Error("search_index_failed", "product_id", productID, "error", err)
	}
}

func (p projections) unindex(ctx context.Context, productID int) {
	if p.Search == nil {
		return
	}
	ictx, cancel := context.WithTimeout(context.WithoutCancel(ctx), indexTimeout)
	defer cancel()
	if err := p.Search.Delete(ictx, productID); err != nil {
		logging.FromContext(ctx).Error("search_delete_failed", "product_id", productID, "error", err)
	}
}
