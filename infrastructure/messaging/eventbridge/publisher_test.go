package eventbridge

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"conceptmap/domain/events"
	pkgerrors "conceptmap/pkg/errors"
)

type mockClient struct {
	mock.Mock
}

func (m *mockClient) PutEvents(ctx context.Context, params *eventbridge.PutEventsInput, optFns ...func(*eventbridge.Options)) (*eventbridge.PutEventsOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*eventbridge.PutEventsOutput), args.Error(1)
}

func movedEvents(n int) []events.DomainEvent {
	batch := make([]events.DomainEvent, 0, n)
	for i := 0; i < n; i++ {
		batch = append(batch, events.NewNodeMoved("map-1", "node", events.Point{}, events.Point{X: float64(i)}, time.Now()))
	}
	return batch
}

func TestPublisher_PublishBatch_Chunks(t *testing.T) {
	// Arrange
	ctx := context.Background()
	client := new(mockClient)
	client.On("PutEvents", ctx, mock.MatchedBy(func(in *eventbridge.PutEventsInput) bool {
		return len(in.Entries) == 10
	})).Return(&eventbridge.PutEventsOutput{}, nil).Once()
	client.On("PutEvents", ctx, mock.MatchedBy(func(in *eventbridge.PutEventsInput) bool {
		return len(in.Entries) == 2
	})).Return(&eventbridge.PutEventsOutput{}, nil).Once()
	publisher := NewPublisher(client, "bus", "conceptmap.editor", nil)

	// Act
	err := publisher.PublishBatch(ctx, movedEvents(12))

	// Assert
	require.NoError(t, err)
	client.AssertExpectations(t)
}

func TestPublisher_Publish_EntryShape(t *testing.T) {
	ctx := context.Background()
	client := new(mockClient)
	var captured *eventbridge.PutEventsInput
	client.On("PutEvents", ctx, mock.Anything).
		Run(func(args mock.Arguments) { captured = args.Get(1).(*eventbridge.PutEventsInput) }).
		Return(&eventbridge.PutEventsOutput{}, nil)
	publisher := NewPublisher(client, "bus", "conceptmap.editor", nil)

	event := events.NewEdgeAdded("map-1", "1-2", "1", "2", "", true, time.Now())
	require.NoError(t, publisher.Publish(ctx, event))

	require.NotNil(t, captured)
	require.Len(t, captured.Entries, 1)
	entry := captured.Entries[0]
	assert.Equal(t, "bus", aws.ToString(entry.EventBusName))
	assert.Equal(t, "conceptmap.editor", aws.ToString(entry.Source))
	assert.Equal(t, events.TypeEdgeAdded, aws.ToString(entry.DetailType))
	assert.Equal(t, []string{"conceptmap:map/map-1"}, entry.Resources)

	var detail map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(aws.ToString(entry.Detail)), &detail))
	assert.Equal(t, "1-2", detail["edge_id"])
	assert.Equal(t, true, detail["auto_linked"])
}

func TestPublisher_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("client failure", func(t *testing.T) {
		client := new(mockClient)
		client.On("PutEvents", ctx, mock.Anything).Return(nil, errors.New("throttled"))

		err := NewPublisher(client, "bus", "src", nil).PublishBatch(ctx, movedEvents(1))

		assert.True(t, pkgerrors.IsType(err, pkgerrors.ErrorTypeExternal))
	})

	t.Run("failed entries", func(t *testing.T) {
		client := new(mockClient)
		client.On("PutEvents", ctx, mock.Anything).Return(&eventbridge.PutEventsOutput{
			FailedEntryCount: 1,
			Entries: []types.PutEventsResultEntry{
				{EventId: aws.String("ok")},
				{ErrorCode: aws.String("InternalFailure"), ErrorMessage: aws.String("boom")},
			},
		}, nil)

		err := NewPublisher(client, "bus", "src", nil).PublishBatch(ctx, movedEvents(2))

		require.Error(t, err)
		assert.Contains(t, err.Error(), "1 events failed to publish")
	})

	t.Run("empty batch makes no call", func(t *testing.T) {
		client := new(mockClient)

		require.NoError(t, NewPublisher(client, "bus", "src", nil).PublishBatch(ctx, nil))
		client.AssertNotCalled(t, "PutEvents", mock.Anything, mock.Anything)
	})
}
