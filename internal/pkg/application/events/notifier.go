package events

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/logging"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/tracing"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
)

const (
	EntityCreated string = "EntityCreated"
	EntityMerged  string = "EntityMerged"
	EntityDeleted string = "EntityDeleted"
)

// Notification is posted to the notifier endpoint for every change of a stored entity
type Notification struct {
	Type      string    `json:"type"`
	Kind      string    `json:"kind"`
	ID        string    `json:"id"`
	Entity    any       `json:"entity,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type Notifier interface {
	Start() error
	Stop() error

	EntityCreated(ctx context.Context, kind, id string, e any)
	EntityMerged(ctx context.Context, kind, id string, e any)
	EntityDeleted(ctx context.Context, kind, id string)
}

var tracer = otel.Tracer("entity-hydration/notifier")

type action func()

type notifier struct {
	mu       sync.Mutex
	started  bool
	stopped  bool
	endpoint string

	httpClient http.Client
	queue      chan action
}

func NewNotifier(ctx context.Context, endpoint string) (Notifier, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("a notifier requires an endpoint")
	}

	return &notifier{
		endpoint: endpoint,
		httpClient: http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   10 * time.Second,
		},
		queue: make(chan action, 32),
	}, nil
}

func (n *notifier) Start() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.started {
		return fmt.Errorf("already started")
	}

	if n.stopped {
		return fmt.Errorf("a stopped notifier can not be restarted")
	}

	n.started = true

	go n.run()

	return nil
}

// Stop waits until every queued notification has been posted
func (n *notifier) Stop() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.started {
		n.started = false
		n.stopped = true

		resultChan := make(chan bool)

		n.queue <- func() {
			// close the queue to signal the consumer that we are going out of business
			close(n.queue)
			resultChan <- true
		}

		<-resultChan
	}

	return nil
}

func (n *notifier) EntityCreated(ctx context.Context, kind, id string, e any) {
	n.enqueue(ctx, Notification{Type: EntityCreated, Kind: kind, ID: id, Entity: e})
}

func (n *notifier) EntityMerged(ctx context.Context, kind, id string, e any) {
	n.enqueue(ctx, Notification{Type: EntityMerged, Kind: kind, ID: id, Entity: e})
}

func (n *notifier) EntityDeleted(ctx context.Context, kind, id string) {
	n.enqueue(ctx, Notification{Type: EntityDeleted, Kind: kind, ID: id})
}

func (n *notifier) enqueue(ctx context.Context, notification Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if !n.started {
		return
	}

	notification.Timestamp = time.Now().UTC()

	// the entity may be changed by later requests, so marshal it right away
	body, err := json.Marshal(notification)
	if err != nil {
		logging.GetFromContext(ctx).Error("failed to marshal notification", "err", err.Error())
		return
	}

	logger := logging.GetFromContext(ctx)

	ctx, span := tracer.Start(
		tracing.ExtractHeaders(context.Background(), tracing.InjectHeaders(ctx)),
		"post",
	)

	n.queue <- func() {
		var err error
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

		err = n.post(ctx, body)
		if err != nil {
			logger.Error("failed to post notification", "type", notification.Type, "err", err.Error())
		}
	}
}

func (n *notifier) post(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("unable to create new request (%w)", err)
	}

	req.Header.Add("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request (%w)", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("notification rejected with status code %d", resp.StatusCode)
	}

	return nil
}

func (n *notifier) run() {
	// repeat until the queue is closed
	for action := range n.queue {
		action()
	}
}
