package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/apigatewaymanagementapi"
	apigwTypes "github.com/aws/aws-sdk-go-v2/service/apigatewaymanagementapi/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockClient struct {
	mock.Mock
}

func (m *mockClient) PostToConnection(ctx context.Context, params *apigatewaymanagementapi.PostToConnectionInput, optFns ...func(*apigatewaymanagementapi.Options)) (*apigatewaymanagementapi.PostToConnectionOutput, error) {
	args := m.Called(ctx, aws.ToString(params.ConnectionId), params.Data)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*apigatewaymanagementapi.PostToConnectionOutput), args.Error(1)
}

func TestWebSocketNotifier_Notify(t *testing.T) {
	// Arrange
	ctx := context.Background()
	payload := []byte(`{"type":"snapshot"}`)
	client := new(mockClient)
	client.On("PostToConnection", ctx, "a", payload).Return(&apigatewaymanagementapi.PostToConnectionOutput{}, nil).Once()
	client.On("PostToConnection", ctx, "b", payload).Return(&apigatewaymanagementapi.PostToConnectionOutput{}, nil).Once()
	n := NewWebSocketNotifier(client, nil)

	require.NoError(t, n.Register(ctx, "map-1", "a"))
	require.NoError(t, n.Register(ctx, "map-1", "b"))
	require.NoError(t, n.Register(ctx, "map-2", "c"))

	// Act
	err := n.Notify(ctx, "map-1", payload)

	// Assert
	require.NoError(t, err)
	client.AssertExpectations(t)
}

func TestWebSocketNotifier_DropsGoneConnections(t *testing.T) {
	ctx := context.Background()
	client := new(mockClient)
	client.On("PostToConnection", ctx, "gone", mock.Anything).Return(nil, &apigwTypes.GoneException{Message: aws.String("gone")})
	client.On("PostToConnection", ctx, "live", mock.Anything).Return(&apigatewaymanagementapi.PostToConnectionOutput{}, nil)
	n := NewWebSocketNotifier(client, nil)
	require.NoError(t, n.Register(ctx, "map-1", "gone"))
	require.NoError(t, n.Register(ctx, "map-1", "live"))

	err := n.Notify(ctx, "map-1", []byte("x"))

	require.NoError(t, err)
	assert.Equal(t, []string{"live"}, n.Connections("map-1"))
}

func TestWebSocketNotifier_JoinsOtherErrors(t *testing.T) {
	ctx := context.Background()
	client := new(mockClient)
	client.On("PostToConnection", ctx, "a", mock.Anything).Return(nil, errors.New("throttled"))
	n := NewWebSocketNotifier(client, nil)
	require.NoError(t, n.Register(ctx, "map-1", "a"))

	err := n.Notify(ctx, "map-1", []byte("x"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "post to a")
	assert.Equal(t, []string{"a"}, n.Connections("map-1"))
}

func TestWebSocketNotifier_Unregister(t *testing.T) {
	ctx := context.Background()
	n := NewWebSocketNotifier(new(mockClient), nil)
	require.NoError(t, n.Register(ctx, "map-1", "a"))
	require.NoError(t, n.Register(ctx, "map-2", "a"))
	require.NoError(t, n.Register(ctx, "map-2", "b"))

	require.NoError(t, n.Unregister(ctx, "a"))

	assert.Empty(t, n.Connections("map-1"))
	assert.Equal(t, []string{"b"}, n.Connections("map-2"))
}
