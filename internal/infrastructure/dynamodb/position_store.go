package dynamodb

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"cryptovest.backend/internal/domain/entities"
	domainerrors "cryptovest.backend/internal/domain/errors"
	"cryptovest.backend/internal/domain/repositories"
	"cryptovest.backend/pkg/logger"
	"cryptovest.backend/pkg/utils"
)

type positionItem struct {
	ID             string `dynamodbav:"id"`
	UserID         string `dynamodbav:"user_id"`
	PlanID         string `dynamodbav:"plan_id"`
	Principal      string `dynamodbav:"principal"`
	DailyRate      string `dynamodbav:"daily_rate"`
	DurationDays   int    `dynamodbav:"duration_days"`
	ExpectedProfit string `dynamodbav:"expected_profit"`
	StartDate      string `dynamodbav:"start_date"`
	EndDate        string `dynamodbav:"end_date"`
	Status         string `dynamodbav:"status"`
	CreatedAt      string `dynamodbav:"created_at"`
	UpdatedAt      string `dynamodbav:"updated_at"`
}

// PositionStore implements the investment repository on a DynamoDB table keyed by id.
type PositionStore struct {
	Client    API
	TableName string
}

var _ repositories.InvestmentRepository = (*PositionStore)(nil)

func NewPositionStore(client API, table string) *PositionStore {
	return &PositionStore{Client: client, TableName: table}
}

func (s *PositionStore) Create(ctx context.Context, p *entities.InvestmentPosition) error {
	if p.ID == uuid.Nil {
		p.ID = utils.GenerateUUIDv7()
	}
	if p.Status == "" {
		p.Status = entities.PositionStatusActive
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	p.UpdatedAt = p.CreatedAt

	item, err := attributevalue.MarshalMap(toPositionItem(p))
	if err != nil {
		return fmt.Errorf("failed to marshal position: %w", err)
	}
	_, err = s.Client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.TableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(id)"),
	})
	if err != nil {
		if isConditionFailed(err) {
			return fmt.Errorf("%w: position %s", domainerrors.ErrAlreadyExists, p.ID)
		}
		return fmt.Errorf("failed to put position: %w", err)
	}
	return nil
}

func (s *PositionStore) GetByID(ctx context.Context, id uuid.UUID) (*entities.InvestmentPosition, error) {
	out, err := s.Client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.TableName),
		Key:            idKey(id.String()),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get position: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, domainerrors.ErrNotFound
	}
	var item positionItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal position: %w", err)
	}
	return item.toEntity()
}

func (s *PositionStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]*entities.InvestmentPosition, error) {
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
		return nil, fmt.Errorf("failed to query positions: %w", err)
	}
	positions := decodePositions(ctx, items)
	sortPositions(positions)
	return positions, nil
}

// ListAll queries the status index when a status is given and scans otherwise.
func (s *PositionStore) ListAll(ctx context.Context, status *entities.PositionStatus) ([]*entities.InvestmentPosition, error) {
	var (
		items []map[string]types.AttributeValue
		err   error
	)
	if status != nil {
		items, err = queryAll(ctx, s.Client, &dynamodb.QueryInput{
			TableName:                aws.String(s.TableName),
			IndexName:                aws.String(statusEndIndex),
			KeyConditionExpression:   aws.String("#status = :status"),
			ExpressionAttributeNames: map[string]string{"#status": "status"},
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":status": &types.AttributeValueMemberS{Value: string(*status)},
			},
		})
	} else {
		items, err = scanAll(ctx, s.Client, &dynamodb.ScanInput{TableName: aws.String(s.TableName)})
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list positions: %w", err)
	}
	positions := decodePositions(ctx, items)
	sortPositions(positions)
	return positions, nil
}

func (s *PositionStore) Transition(ctx context.Context, id uuid.UUID, status entities.PositionStatus) (*entities.InvestmentPosition, error) {
	if !entities.CanTransitionPosition(entities.PositionStatusActive, status) {
		if _, err := s.GetByID(ctx, id); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: position cannot move to %q", domainerrors.ErrInvalidTransition, status)
	}

	out, err := s.Client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(s.TableName),
		Key:                 idKey(id.String()),
		UpdateExpression:    aws.String("SET #status = :to, updated_at = :now"),
		ConditionExpression: aws.String("attribute_exists(id) AND #status = :active"),
		ExpressionAttributeNames: map[string]string{
			"#status": "status",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":to":     &types.AttributeValueMemberS{Value: string(status)},
			":active": &types.AttributeValueMemberS{Value: string(entities.PositionStatusActive)},
			":now":    &types.AttributeValueMemberS{Value: formatTime(time.Now())},
		},
		ReturnValues: types.ReturnValueAllNew,
	})
	if err != nil {
		if isConditionFailed(err) {
			current, getErr := s.GetByID(ctx, id)
			if getErr != nil {
				return nil, getErr
			}
			return nil, fmt.Errorf("%w: position is %s", domainerrors.ErrInvalidTransition, current.Status)
		}
		return nil, fmt.Errorf("failed to update position status: %w", err)
	}

	var item positionItem
	if err := attributevalue.UnmarshalMap(out.Attributes, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal position: %w", err)
	}
	return item.toEntity()
}

// ListMatured reads the status index for active positions ending at or before asOf, oldest first.
func (s *PositionStore) ListMatured(ctx context.Context, asOf time.Time, limit int) ([]*entities.InvestmentPosition, error) {
	input := &dynamodb.QueryInput{
		TableName:                aws.String(s.TableName),
		IndexName:                aws.String(statusEndIndex),
		KeyConditionExpression:   aws.String("#status = :active AND end_date <= :asOf"),
		ExpressionAttributeNames: map[string]string{"#status": "status"},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":active": &types.AttributeValueMemberS{Value: string(entities.PositionStatusActive)},
			":asOf":   &types.AttributeValueMemberS{Value: formatTime(asOf)},
		},
		ScanIndexForward: aws.Bool(true),
	}

	var items []map[string]types.AttributeValue
	for {
		out, err := s.Client.Query(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("failed to query matured positions: %w", err)
		}
		items = append(items, out.Items...)
		if (limit > 0 && len(items) >= limit) || len(out.LastEvaluatedKey) == 0 {
			break
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return decodePositions(ctx, items), nil
}

func sortPositions(positions []*entities.InvestmentPosition) {
	sort.SliceStable(positions, func(i, j int) bool {
		if !positions[i].CreatedAt.Equal(positions[j].CreatedAt) {
			return positions[i].CreatedAt.After(positions[j].CreatedAt)
		}
		return positions[i].ID.String() > positions[j].ID.String()
	})
}

// decodePositions converts listing results and skips items that no longer decode.
func decodePositions(ctx context.Context, items []map[string]types.AttributeValue) []*entities.InvestmentPosition {
	out := make([]*entities.InvestmentPosition, 0, len(items))
	for _, item := range items {
		var row positionItem
		if err := attributevalue.UnmarshalMap(item, &row); err != nil {
			logger.Warn(ctx, "Skipping undecodable position item", zap.Error(err))
			continue
		}
		p, err := row.toEntity()
		if err != nil {
			logger.Warn(ctx, "Skipping malformed position item", zap.String("id", row.ID), zap.Error(err))
			continue
		}
		out = append(out, p)
	}
	return out
}

func toPositionItem(p *entities.InvestmentPosition) positionItem {
	return positionItem{
		ID:             p.ID.String(),
		UserID:         p.UserID.String(),
		PlanID:         p.PlanID,
		Principal:      p.Principal.String(),
		DailyRate:      p.DailyRate.String(),
		DurationDays:   p.DurationDays,
		ExpectedProfit: p.ExpectedProfit.String(),
		StartDate:      formatTime(p.StartDate),
		EndDate:        formatTime(p.EndDate),
		Status:         string(p.Status),
		CreatedAt:      formatTime(p.CreatedAt),
		UpdatedAt:      formatTime(p.UpdatedAt),
	}
}

func (i positionItem) toEntity() (*entities.InvestmentPosition, error) {
	id, err := uuid.Parse(i.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid position id %q: %w", i.ID, err)
	}
	userID, err := uuid.Parse(i.UserID)
	if err != nil {
		return nil, fmt.Errorf("invalid user id %q: %w", i.UserID, err)
	}
	principal, err := decimal.NewFromString(i.Principal)
	if err != nil {
		return nil, fmt.Errorf("invalid principal %q: %w", i.Principal, err)
	}
	rate, err := decimal.NewFromString(i.DailyRate)
	if err != nil {
		return nil, fmt.Errorf("invalid daily rate %q: %w", i.DailyRate, err)
	}
	profit, err := decimal.NewFromString(i.ExpectedProfit)
	if err != nil {
		return nil, fmt.Errorf("invalid expected profit %q: %w", i.ExpectedProfit, err)
	}
	return &entities.InvestmentPosition{
		ID:             id,
		UserID:         userID,
		PlanID:         i.PlanID,
		Principal:      principal,
		DailyRate:      rate,
		DurationDays:   i.DurationDays,
		ExpectedProfit: profit,
		StartDate:      parseTime(i.StartDate),
		EndDate:        parseTime(i.EndDate),
		Status:         entities.PositionStatus(i.Status),
		CreatedAt:      parseTime(i.CreatedAt),
		UpdatedAt:      parseTime(i.UpdatedAt),
	}, nil
}
