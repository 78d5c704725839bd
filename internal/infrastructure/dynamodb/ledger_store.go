package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/volatiletech/null/v8"
	"go.uber.org/zap"

	"cryptovest.backend/internal/domain/entities"
	domainerrors "cryptovest.backend/internal/domain/errors"
	"cryptovest.backend/internal/domain/repositories"
	"cryptovest.backend/pkg/logger"
	"cryptovest.backend/pkg/utils"
)

type entryItem struct {
	ID          string `dynamodbav:"id"`
	UserID      string `dynamodbav:"user_id"`
	Kind        string `dynamodbav:"kind"`
	Amount      string `dynamodbav:"amount"`
	Method      string `dynamodbav:"method"`
	Status      string `dynamodbav:"status"`
	ExternalRef string `dynamodbav:"external_ref,omitempty"`
	ReceiptRef  string `dynamodbav:"receipt_ref,omitempty"`
	Address     string `dynamodbav:"address,omitempty"`
	CreatedAt   string `dynamodbav:"created_at"`
	UpdatedAt   string `dynamodbav:"updated_at"`
}

// LedgerStore implements the ledger repository on a DynamoDB table keyed by id.
type LedgerStore struct {
	Client    API
	TableName string
}

var _ repositories.LedgerRepository = (*LedgerStore)(nil)

func NewLedgerStore(client API, table string) *LedgerStore {
	return &LedgerStore{Client: client, TableName: table}
}

// Append writes a new entry. The external reference is checked through its index
// before the put, since DynamoDB cannot enforce uniqueness on a secondary index.
func (s *LedgerStore) Append(ctx context.Context, entry *entities.LedgerEntry) error {
	if err := entry.Validate(); err != nil {
		return err
	}
	if entry.ExternalRef.Valid {
		_, err := s.GetByExternalRef(ctx, entry.ExternalRef.String)
		if err == nil {
			return fmt.Errorf("%w: external reference %s", domainerrors.ErrAlreadyExists, entry.ExternalRef.String)
		}
		if !errors.Is(err, domainerrors.ErrNotFound) {
			return err
		}
	}
	if entry.ID == uuid.Nil {
		entry.ID = utils.GenerateUUIDv7()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	entry.UpdatedAt = entry.CreatedAt

	item, err := attributevalue.MarshalMap(toEntryItem(entry))
	if err != nil {
		return fmt.Errorf("failed to marshal ledger entry: %w", err)
	}

	_, err = s.Client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.TableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(id)"),
	})
	if err != nil {
		if isConditionFailed(err) {
			return fmt.Errorf("%w: entry %s", domainerrors.ErrAlreadyExists, entry.ID)
		}
		return fmt.Errorf("failed to put ledger entry: %w", err)
	}
	return nil
}

// Transition conditionally moves a pending entry to a terminal status.
func (s *LedgerStore) Transition(ctx context.Context, id uuid.UUID, status entities.EntryStatus) (*entities.LedgerEntry, error) {
	if !status.Terminal() {
		if _, err := s.GetByID(ctx, id); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: entry cannot move to %q", domainerrors.ErrInvalidTransition, status)
	}

	out, err := s.Client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(s.TableName),
		Key:                 idKey(id.String()),
		UpdateExpression:    aws.String("SET #status = :to, updated_at = :now"),
		ConditionExpression: aws.String("attribute_exists(id) AND #status = :pending"),
		ExpressionAttributeNames: map[string]string{
			"#status": "status",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":to":      &types.AttributeValueMemberS{Value: string(status)},
			":pending": &types.AttributeValueMemberS{Value: string(entities.EntryStatusPending)},
			":now":     &types.AttributeValueMemberS{Value: formatTime(time.Now())},
		},
		ReturnValues: types.ReturnValueAllNew,
	})
	if err != nil {
		if isConditionFailed(err) {
			current, getErr := s.GetByID(ctx, id)
			if getErr != nil {
				return nil, getErr
			}
			return nil, fmt.Errorf("%w: entry is %s", domainerrors.ErrInvalidTransition, current.Status)
		}
		return nil, fmt.Errorf("failed to update ledger entry status: %w", err)
	}

	var item entryItem
	if err := attributevalue.UnmarshalMap(out.Attributes, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal ledger entry: %w", err)
	}
	return item.toEntity()
}

func (s *LedgerStore) GetByID(ctx context.Context, id uuid.UUID) (*entities.LedgerEntry, error) {
	out, err := s.Client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.TableName),
		Key:            idKey(id.String()),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get ledger entry: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, domainerrors.ErrNotFound
	}

	var item entryItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal ledger entry: %w", err)
	}
	return item.toEntity()
}

func (s *LedgerStore) GetByExternalRef(ctx context.Context, ref string) (*entities.LedgerEntry, error) {
	items, err := queryAll(ctx, s.Client, &dynamodb.QueryInput{
		TableName:              aws.String(s.TableName),
		IndexName:              aws.String(externalRefIndex),
		KeyConditionExpression: aws.String("external_ref = :ref"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":ref": &types.AttributeValueMemberS{Value: ref},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger entry by reference: %w", err)
	}
	entries, err := unmarshalEntries(items)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, domainerrors.ErrNotFound
	}
	return entries[0], nil
}

// ListByUser reads every page of the user's index partition, then orders
// by created_at and id descending so equal timestamps still sort stably.
func (s *LedgerStore) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*entities.LedgerEntry, error) {
	items, err := queryAll(ctx, s.Client, &dynamodb.QueryInput{
		TableName:              aws.String(s.TableName),
		IndexName:              aws.String(userCreatedIndex),
		KeyConditionExpression: aws.String("user_id = :uid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":uid": &types.AttributeValueMemberS{Value: userID.String()},
		},
		ScanIndexForward: aws.Bool(false),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger entries: %w", err)
	}
	entries := decodeEntries(ctx, items)
	sortEntries(entries)
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

func (s *LedgerStore) ListAll(ctx context.Context, status *entities.EntryStatus) ([]*entities.LedgerEntry, error) {
	input := &dynamodb.ScanInput{TableName: aws.String(s.TableName)}
	if status != nil {
		input.FilterExpression = aws.String("#status = :status")
		input.ExpressionAttributeNames = map[string]string{"#status": "status"}
		input.ExpressionAttributeValues = map[string]types.AttributeValue{
			":status": &types.AttributeValueMemberS{Value: string(*status)},
		}
	}

	items, err := scanAll(ctx, s.Client, input)
	if err != nil {
		return nil, fmt.Errorf("failed to scan ledger entries: %w", err)
	}
	entries := decodeEntries(ctx, items)
	sortEntries(entries)
	return entries, nil
}

// ListPage scans like ListAll and slices the requested page; a scan has no ordered offset.
func (s *LedgerStore) ListPage(ctx context.Context, status *entities.EntryStatus, pagination utils.PaginationParams) ([]*entities.LedgerEntry, int64, error) {
	entries, err := s.ListAll(ctx, status)
	if err != nil {
		return nil, 0, err
	}
	return utils.Paginate(entries, pagination), int64(len(entries)), nil
}

func sortEntries(entries []*entities.LedgerEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if !entries[i].CreatedAt.Equal(entries[j].CreatedAt) {
			return entries[i].CreatedAt.After(entries[j].CreatedAt)
		}
		return entries[i].ID.String() > entries[j].ID.String()
	})
}

func unmarshalEntries(items []map[string]types.AttributeValue) ([]*entities.LedgerEntry, error) {
	var rows []entryItem
	if err := attributevalue.UnmarshalListOfMaps(items, &rows); err != nil {
		return nil, fmt.Errorf("failed to unmarshal ledger entries: %w", err)
	}
	out := make([]*entities.LedgerEntry, 0, len(rows))
	for _, row := range rows {
		e, err := row.toEntity()
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// decodeEntries converts listing results and skips items that no longer decode,
// so a single legacy row cannot fail a whole dashboard or admin scan.
func decodeEntries(ctx context.Context, items []map[string]types.AttributeValue) []*entities.LedgerEntry {
	out := make([]*entities.LedgerEntry, 0, len(items))
	for _, item := range items {
		var row entryItem
		if err := attributevalue.UnmarshalMap(item, &row); err != nil {
			logger.Warn(ctx, "Skipping undecodable ledger item", zap.Error(err))
			continue
		}
		e, err := row.toEntity()
		if err != nil {
			logger.Warn(ctx, "Skipping malformed ledger item", zap.String("id", row.ID), zap.Error(err))
			continue
		}
		out = append(out, e)
	}
	return out
}

func toEntryItem(e *entities.LedgerEntry) entryItem {
	return entryItem{
		ID:          e.ID.String(),
		UserID:      e.UserID.String(),
		Kind:        string(e.Kind),
		Amount:      e.Amount.String(),
		Method:      e.Method,
		Status:      string(e.Status),
		ExternalRef: e.ExternalRef.String,
		ReceiptRef:  e.ReceiptRef.String,
		Address:     e.Address.String,
		CreatedAt:   formatTime(e.CreatedAt),
		UpdatedAt:   formatTime(e.UpdatedAt),
	}
}

func (i entryItem) toEntity() (*entities.LedgerEntry, error) {
	id, err := uuid.Parse(i.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid entry id %q: %w", i.ID, err)
	}
	userID, err := uuid.Parse(i.UserID)
	if err != nil {
		return nil, fmt.Errorf("invalid user id %q: %w", i.UserID, err)
	}
	amount, err := decimal.NewFromString(i.Amount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", i.Amount, err)
	}
	return &entities.LedgerEntry{
		ID:          id,
		UserID:      userID,
		Kind:        entities.EntryKind(i.Kind),
		Amount:      amount,
		Method:      i.Method,
		Status:      entities.EntryStatus(i.Status),
		ExternalRef: optional(i.ExternalRef),
		ReceiptRef:  optional(i.ReceiptRef),
		Address:     optional(i.Address),
		CreatedAt:   parseTime(i.CreatedAt),
		UpdatedAt:   parseTime(i.UpdatedAt),
	}, nil
}

func optional(s string) null.String {
	return null.NewString(s, s != "")
}
