package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPublisherRecordsMessages(t *testing.T) {
	t.Parallel()

	p := New()

	id1, err := p.Publish(context.Background(), "websites", map[string]string{"business_id": "b-1"})
	require.NoError(t, err)
	require.Equal(t, "memory-1", id1)

	id2, err := p.Publish(context.Background(), "websites", map[string]string{"business_id": "b-2"})
	require.NoError(t, err)
	require.Equal(t, "memory-2", id2)

	msgs := p.Messages()
	require.Len(t, msgs, 2)
	require.Equal(t, "websites", msgs[0].Topic)
	require.Equal(t, map[string]string{"business_id": "b-1"}, msgs[0].Payload)
}

func TestPublisherFailWith(t *testing.T) {
	t.Parallel()

	p := New()
	p.FailWith(errors.New("broker down"))

	_, err := p.Publish(context.Background(), "websites", "payload")
	require.ErrorContains(t, err, "broker down")
	require.Empty(t, p.Messages())
}
