package events

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixir/dataset-discovery-service/internal/domain"
)

// fakeReader feeds a fixed sequence of messages, then blocks until the
// context is cancelled.
type fakeReader struct {
	messages []kafka.Message
	index    int
	closed   bool
}

func (r *fakeReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	if r.index < len(r.messages) {
		msg := r.messages[r.index]
		r.index++
		return msg, nil
	}
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (r *fakeReader) Close() error {
	r.closed = true
	return nil
}

// recordingCache records Invalidate calls.
type recordingCache struct {
	mu            sync.Mutex
	invalidated   []string
	invalidateErr error
}

func (c *recordingCache) Get(context.Context, string) (*domain.DiscoveryResult, error) {
	return nil, nil
}

func (c *recordingCache) Set(context.Context, string, *domain.DiscoveryResult, time.Duration) error {
	return nil
}

func (c *recordingCache) Invalidate(_ context.Context, datasetID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.invalidateErr != nil {
		return c.invalidateErr
	}
	c.invalidated = append(c.invalidated, datasetID)
	return nil
}

func (c *recordingCache) invalidatedIDs() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.invalidated...)
}

func runListener(t *testing.T, reader *fakeReader, store *recordingCache) {
	t.Helper()

	l := newInvalidationListener(reader, store, zerolog.Nop())
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	err := l.Run(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestInvalidationListener_InvalidatesOnRegistrationEvent(t *testing.T) {
	reader := &fakeReader{messages: []kafka.Message{
		{Value: []byte(`{"dataset_id":"GSE12345","source":"geo"}`)},
		{Value: []byte(`{"dataset_id":"E-MTAB-1","source":"arrayexpress"}`)},
	}}
	store := &recordingCache{}

	runListener(t, reader, store)

	assert.Equal(t, []string{"GSE12345", "E-MTAB-1"}, store.invalidatedIDs())
}

func TestInvalidationListener_SkipsMalformedMessages(t *testing.T) {
	reader := &fakeReader{messages: []kafka.Message{
		{Value: []byte(`not json`)},
		{Value: []byte(`{"source":"geo"}`)}, // missing dataset ID
		{Value: []byte(`{"dataset_id":"GSE9"}`)},
	}}
	store := &recordingCache{}

	runListener(t, reader, store)

	assert.Equal(t, []string{"GSE9"}, store.invalidatedIDs())
}

func TestInvalidationListener_CacheErrorDoesNotStopLoop(t *testing.T) {
	reader := &fakeReader{messages: []kafka.Message{
		{Value: []byte(`{"dataset_id":"GSE1"}`)},
		{Value: []byte(`{"dataset_id":"GSE2"}`)},
	}}
	store := &recordingCache{invalidateErr: errors.New("backend down")}

	// The loop must keep consuming; the deadline error proves it reached the
	// blocking read after both failed invalidations.
	runListener(t, reader, store)
	assert.Empty(t, store.invalidatedIDs())
}

func TestInvalidationListener_Close(t *testing.T) {
	reader := &fakeReader{}
	l := newInvalidationListener(reader, &recordingCache{}, zerolog.Nop())

	require.NoError(t, l.Close())
	assert.True(t, reader.closed)
}
