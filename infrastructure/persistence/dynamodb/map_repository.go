package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"conceptmap/application/ports"
	"conceptmap/pkg/observability"
	pkgerrors "conceptmap/pkg/errors"
)

const entityTypeMap = "CONCEPT_MAP"

// Client is the subset of the DynamoDB API the repository uses
type Client interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// MapRepository stores each concept map as a single DynamoDB item
type MapRepository struct {
	client    Client
	tableName string
	indexName string
	metrics   *observability.Collector
	logger    *zap.Logger
}

// NewMapRepository creates a new MapRepository. metrics may be nil.
func NewMapRepository(client Client, tableName, indexName string, metrics *observability.Collector, logger *zap.Logger) *MapRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MapRepository{
		client:    client,
		tableName: tableName,
		indexName: indexName,
		metrics:   metrics,
		logger:    logger,
	}
}

// mapItem represents the DynamoDB item structure for a map
type mapItem struct {
	PK         string `dynamodbav:"PK"`
	SK         string `dynamodbav:"SK"`
	GSI1PK     string `dynamodbav:"GSI1PK"` // maps by owner
	GSI1SK     string `dynamodbav:"GSI1SK"` // sorts by last update
	EntityType string `dynamodbav:"EntityType"`
	NodeCount  int    `dynamodbav:"NodeCount"`
	EdgeCount  int    `dynamodbav:"EdgeCount"`
	ports.MapDocument
}

func mapKey(mapID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: "MAP#" + mapID},
		"SK": &types.AttributeValueMemberS{Value: "METADATA"},
	}
}

// FetchMap retrieves a map by id
func (r *MapRepository) FetchMap(ctx context.Context, mapID string) (doc *ports.MapDocument, err error) {
	defer r.observe("fetch", time.Now(), &err)

	result, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            mapKey(mapID),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("GetItem", err)
	}
	if result.Item == nil {
		return nil, pkgerrors.NewNotFoundError(fmt.Sprintf("map %q", mapID))
	}

	var item mapItem
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return nil, pkgerrors.NewDatabaseError("UnmarshalMap", err)
	}
	if item.Nodes == nil {
		item.Nodes = []ports.NodeRecord{}
	}
	if item.Edges == nil {
		item.Edges = []ports.EdgeRecord{}
	}
	return &item.MapDocument, nil
}

// SaveMap writes doc with optimistic locking on Version
func (r *MapRepository) SaveMap(ctx context.Context, doc *ports.MapDocument) (err error) {
	defer r.observe("save", time.Now(), &err)

	if doc == nil || doc.ID == "" {
		return pkgerrors.NewValidationError("map document with an id is required")
	}

	item := mapItem{
		PK:          "MAP#" + doc.ID,
		SK:          "METADATA",
		GSI1PK:      "OWNER#" + doc.OwnerID,
		GSI1SK:      "UPDATED#" + doc.UpdatedAt.UTC().Format(time.RFC3339Nano) + "#" + doc.ID,
		EntityType:  entityTypeMap,
		NodeCount:   len(doc.Nodes),
		EdgeCount:   len(doc.Edges),
		MapDocument: *doc,
	}
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return pkgerrors.NewDatabaseError("MarshalMap", err)
	}

	var condition expression.ConditionBuilder
	if doc.Version > 1 {
		condition = expression.Name("Version").Equal(expression.Value(doc.Version - 1))
	} else {
		condition = expression.Name("PK").AttributeNotExists()
	}
	expr, err := expression.NewBuilder().WithCondition(condition).Build()
	if err != nil {
		return fmt.Errorf("failed to build expression: %w", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                 aws.String(r.tableName),
		Item:                      av,
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return pkgerrors.NewConflictError(
				fmt.Sprintf("map %q was changed by someone else (writing version %d)", doc.ID, doc.Version)).WithCause(err)
		}
		return pkgerrors.NewDatabaseError("PutItem", err)
	}

	r.logger.Debug("Map saved",
		zap.String("mapID", doc.ID),
		zap.Int("version", doc.Version),
		zap.Int("nodeCount", item.NodeCount),
		zap.Int("edgeCount", item.EdgeCount),
	)
	return nil
}

// ListMaps returns summaries of the maps owned by ownerID, newest first
func (r *MapRepository) ListMaps(ctx context.Context, ownerID string) (summaries []ports.MapSummary, err error) {
	defer r.observe("list", time.Now(), &err)

	keyExpr := expression.Key("GSI1PK").Equal(expression.Value("OWNER#" + ownerID))
	filterExpr := expression.Name("EntityType").Equal(expression.Value(entityTypeMap))
	projection := expression.NamesList(
		expression.Name("MapID"),
		expression.Name("Title"),
		expression.Name("LessonID"),
		expression.Name("NodeCount"),
		expression.Name("EdgeCount"),
		expression.Name("Version"),
		expression.Name("UpdatedAt"),
	)

	expr, err := expression.NewBuilder().
		WithKeyCondition(keyExpr).
		WithFilter(filterExpr).
		WithProjection(projection).
		Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build expression: %w", err)
	}

	paginator := dynamodb.NewQueryPaginator(r.client, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(r.indexName),
		KeyConditionExpression:    expr.KeyCondition(),
		FilterExpression:          expr.Filter(),
		ProjectionExpression:      expr.Projection(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ScanIndexForward:          aws.Bool(false),
	})

	summaries = make([]ports.MapSummary, 0)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, pkgerrors.NewDatabaseError("Query", err)
		}

		for _, raw := range page.Items {
			var item struct {
				MapID     string    `dynamodbav:"MapID"`
				Title     string    `dynamodbav:"Title"`
				LessonID  string    `dynamodbav:"LessonID"`
				NodeCount int       `dynamodbav:"NodeCount"`
				EdgeCount int       `dynamodbav:"EdgeCount"`
				Version   int       `dynamodbav:"Version"`
				UpdatedAt time.Time `dynamodbav:"UpdatedAt"`
			}
			if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
				r.logger.Warn("Failed to parse map summary", zap.Error(err))
				continue
			}
			summaries = append(summaries, ports.MapSummary{
				ID:        item.MapID,
				Title:     item.Title,
				LessonID:  item.LessonID,
				NodeCount: item.NodeCount,
				EdgeCount: item.EdgeCount,
				Version:   item.Version,
				UpdatedAt: item.UpdatedAt,
			})
		}
	}

	return summaries, nil
}

func (r *MapRepository) observe(operation string, started time.Time, err *error) {
	if r.metrics != nil {
		r.metrics.ObserveRepository(operation, started, *err)
	}
}
