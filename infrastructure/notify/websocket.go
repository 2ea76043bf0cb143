// Package notify pushes map snapshots to browsers connected through an API
// Gateway websocket.
package notify

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/apigatewaymanagementapi"
	apigwTypes "github.com/aws/aws-sdk-go-v2/service/apigatewaymanagementapi/types"
	"go.uber.org/zap"
)

// Client is the subset of the API Gateway management API the notifier uses
type Client interface {
	PostToConnection(ctx context.Context, params *apigatewaymanagementapi.PostToConnectionInput, optFns ...func(*apigatewaymanagementapi.Options)) (*apigatewaymanagementapi.PostToConnectionOutput, error)
}

// WebSocketNotifier implements ports.SnapshotNotifier. Subscriptions are
// held in memory; a connection the gateway reports as gone is dropped.
type WebSocketNotifier struct {
	client Client
	logger *zap.Logger

	mu          sync.RWMutex
	connections map[string]map[string]struct{} // mapID -> connection ids
}

// NewWebSocketNotifier creates a notifier posting through client
func NewWebSocketNotifier(client Client, logger *zap.Logger) *WebSocketNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebSocketNotifier{
		client:      client,
		logger:      logger,
		connections: make(map[string]map[string]struct{}),
	}
}

// NewClient builds an API Gateway management client for a websocket
// endpoint such as "abc123.execute-api.us-west-2.amazonaws.com/prod"
func NewClient(cfg aws.Config, endpoint string) *apigatewaymanagementapi.Client {
	return apigatewaymanagementapi.NewFromConfig(cfg, func(o *apigatewaymanagementapi.Options) {
		o.BaseEndpoint = aws.String(fmt.Sprintf("https://%s", endpoint))
	})
}

// Register subscribes connectionID to mapID
func (n *WebSocketNotifier) Register(ctx context.Context, mapID, connectionID string) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	conns, ok := n.connections[mapID]
	if !ok {
		conns = make(map[string]struct{})
		n.connections[mapID] = conns
	}
	conns[connectionID] = struct{}{}

	n.logger.Debug("Connection registered",
		zap.String("mapID", mapID),
		zap.String("connectionID", connectionID),
	)
	return nil
}

// Unregister removes connectionID from every map
func (n *WebSocketNotifier) Unregister(ctx context.Context, connectionID string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.remove(connectionID)
	return nil
}

// Connections lists the connections subscribed to mapID in sorted order
func (n *WebSocketNotifier) Connections(mapID string) []string {
	n.mu.RLock()
	defer n.mu.RUnlock()

	ids := make([]string, 0, len(n.connections[mapID]))
	for id := range n.connections[mapID] {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Notify posts payload to every connection of mapID. Failures other than
// gone connections are joined into the returned error.
func (n *WebSocketNotifier) Notify(ctx context.Context, mapID string, payload []byte) error {
	var errs []error
	for _, connectionID := range n.Connections(mapID) {
		_, err := n.client.PostToConnection(ctx, &apigatewaymanagementapi.PostToConnectionInput{
			ConnectionId: aws.String(connectionID),
			Data:         payload,
		})
		if err == nil {
			continue
		}

		var goneErr *apigwTypes.GoneException
		if errors.As(err, &goneErr) {
			n.logger.Info("Connection is gone, removing",
				zap.String("mapID", mapID),
				zap.String("connectionID", connectionID),
			)
			n.mu.Lock()
			n.remove(connectionID)
			n.mu.Unlock()
			continue
		}
		errs = append(errs, fmt.Errorf("post to %s: %w", connectionID, err))
	}
	return errors.Join(errs...)
}

// remove must be called with n.mu held
func (n *WebSocketNotifier) remove(connectionID string) {
	for mapID, conns := range n.connections {
		delete(conns, connectionID)
		if len(conns) == 0 {
			delete(n.connections, mapID)
		}
	}
}

// NoopNotifier drops every snapshot. It is used when no websocket
// endpoint is configured.
type NoopNotifier struct{}

func (NoopNotifier) Register(ctx context.Context, mapID, connectionID string) error { return nil }
func (NoopNotifier) Unregister(ctx context.Context, connectionID string) error      { return nil }
func (NoopNotifier) Notify(ctx context.Context, mapID string, payload []byte) error { return nil }
