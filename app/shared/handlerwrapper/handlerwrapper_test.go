package handlerwrapper

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/UziB26/leagueladder-sub002/app/events"
	"github.com/UziB26/leagueladder-sub002/app/shared/attr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type ping struct {
	Value string `json:"value"`
}

type pong struct {
	Echo string `json:"echo"`
}

func TestWrapTransformingTyped(t *testing.T) {
	t.Run("decodes payload and addresses results by topic", func(t *testing.T) {
		var gotCorrelation string
		h := WrapTransformingTyped("test.ping", nil, nil, func(ctx context.Context, p *ping) ([]Result, error) {
			gotCorrelation = attr.CorrelationID(ctx)
			return []Result{{Topic: "test.pong", Payload: pong{Echo: p.Value}}}, nil
		})

		msg := message.NewMessage(watermill.NewUUID(), []byte(`{"value":"hi"}`))
		middleware.SetCorrelationID("corr-1", msg)

		out, err := h(msg)
		require.NoError(t, err)
		require.Len(t, out, 1)

		assert.Equal(t, "corr-1", gotCorrelation)
		assert.Equal(t, "test.pong", out[0].Metadata.Get(events.MetadataTopic))
		assert.Equal(t, "corr-1", middleware.MessageCorrelationID(out[0]))

		var decoded pong
		require.NoError(t, json.Unmarshal(out[0].Payload, &decoded))
		assert.Equal(t, "hi", decoded.Echo)
	})

	t.Run("falls back to message id for correlation", func(t *testing.T) {
		var gotCorrelation string
		h := WrapTransformingTyped("test.ping", nil, nil, func(ctx context.Context, _ *ping) ([]Result, error) {
			gotCorrelation = attr.CorrelationID(ctx)
			return nil, nil
		})

		msg := message.NewMessage("msg-1", []byte(`{}`))
		_, err := h(msg)
		require.NoError(t, err)
		assert.Equal(t, "msg-1", gotCorrelation)
	})

	t.Run("drops undecodable payloads", func(t *testing.T) {
		called := false
		h := WrapTransformingTyped("test.ping", nil, nil, func(context.Context, *ping) ([]Result, error) {
			called = true
			return nil, nil
		})

		out, err := h(message.NewMessage(watermill.NewUUID(), []byte("not json")))
		assert.NoError(t, err)
		assert.Empty(t, out)
		assert.False(t, called)
	})

	t.Run("propagates handler errors", func(t *testing.T) {
		boom := errors.New("boom")
		h := WrapTransformingTyped("test.ping", nil, nil, func(context.Context, *ping) ([]Result, error) {
			return nil, boom
		})

		_, err := h(message.NewMessage(watermill.NewUUID(), []byte(`{}`)))
		assert.ErrorIs(t, err, boom)
	})
}
