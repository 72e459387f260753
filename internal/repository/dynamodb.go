package repository

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"github.com/invoiceworks/invoice-pipeline/internal/entity"
)

// DynamoDBAPI is the slice of the DynamoDB client the store uses.
type DynamoDBAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

// DynamoStore writes invoice records to a DynamoDB table keyed by invoice_id.
type DynamoStore struct {
	api    DynamoDBAPI
	table  string
	logger *slog.Logger
}

func NewDynamoStore(api DynamoDBAPI, table string, logger *slog.Logger) *DynamoStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &DynamoStore{api: api, table: table, logger: logger}
}

// SaveInvoice upserts the item. Errors are returned raw; the caller's
// resilience wrapper classifies them.
func (s *DynamoStore) SaveInvoice(ctx context.Context, item *entity.StoredInvoice) error {
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("marshal invoice %s: %w", item.InvoiceID, err)
	}
	if _, err := s.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item:      av,
	}); err != nil {
		return fmt.Errorf("put invoice %s: %w", item.InvoiceID, err)
	}
	s.logger.Info("store.save.ok", "invoice_id", item.InvoiceID, "table", s.table)
	return nil
}
