package kafka

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/couchcryptid/disaster-dashboard/internal/config"
	"github.com/couchcryptid/disaster-dashboard/internal/domain"
	"github.com/couchcryptid/disaster-dashboard/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerializeToMessage(t *testing.T) {
	now := time.Date(2024, 4, 26, 15, 10, 0, 0, time.UTC)
	event := domain.SavedViewEvent{
		Type:       domain.SavedViewRenamed,
		ViewID:     42,
		Title:      "Pacific quakes",
		Username:   "alice",
		OccurredAt: now,
	}

	msg, err := serializeToMessage(event)
	require.NoError(t, err)

	assert.Equal(t, []byte("42"), msg.Key)
	assert.Contains(t, string(msg.Value), `"type":"renamed"`)
	assert.Contains(t, string(msg.Value), `"view_id":42`)
	assert.Len(t, msg.Headers, 2)
	assert.Equal(t, "event_type", msg.Headers[0].Key)
	assert.Equal(t, []byte("renamed"), msg.Headers[0].Value)
	assert.Equal(t, "occurred_at", msg.Headers[1].Key)
	assert.Equal(t, []byte(now.Format(time.RFC3339)), msg.Headers[1].Value)
}

func TestSerializeToMessage_NoIDKeysByUser(t *testing.T) {
	msg, err := serializeToMessage(domain.SavedViewEvent{
		Type:     domain.SavedViewCreated,
		Title:    "Andes",
		Page:     domain.PageCompare,
		Username: "bob",
	})
	require.NoError(t, err)

	assert.Equal(t, []byte("bob"), msg.Key)
	assert.NotContains(t, string(msg.Value), "view_id")
	assert.Contains(t, string(msg.Value), `"page":"Compare"`)
}

func TestWriter_PublishNothingIsNoop(t *testing.T) {
	cfg := &config.Config{KafkaBrokers: []string{"127.0.0.1:1"}, KafkaEventsTopic: "saved-view-events"}
	w := NewWriter(cfg, observability.NewMetricsForTesting(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	defer w.Close()

	require.NoError(t, w.Publish(context.Background()))
}
