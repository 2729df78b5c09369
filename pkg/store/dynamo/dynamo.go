// Package dynamo implements person.RecordStore on a DynamoDB table keyed by a
// numeric "id" attribute. Item id 0 holds the ID allocation counter.
package dynamo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"time"

	"github.com/DrSkyle/kinship/pkg/cloud"
	"github.com/DrSkyle/kinship/pkg/person"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
)

const (
	attrID       = "id"
	attrName     = "name"
	attrBirth    = "birthdate"
	attrGender   = "gender"
	attrLocation = "location"
	attrFather   = "fatherId"
	attrMother   = "motherId"
	attrSpouse   = "spouseId"
	attrNext     = "next"

	counterID = 0
)

// API is the subset of *dynamodb.Client used by Store.
type API interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	Scan(ctx context.Context, in *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	DescribeTable(ctx context.Context, in *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
	CreateTable(ctx context.Context, in *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
}

// Config selects the table and how to reach it.
type Config struct {
	Table    string
	Region   string
	Profile  string
	Endpoint string
}

type Store struct {
	Client API
	Table  string
	Logger *slog.Logger
}

func New(client API, table string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{Client: client, Table: table, Logger: logger}
}

// Open resolves AWS credentials, logs the caller identity and makes sure the
// table exists.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*Store, error) {
	if cfg.Table == "" {
		return nil, errors.New("dynamodb table name is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	c, err := cloud.NewClient(ctx, cloud.Options{
		Region:   cfg.Region,
		Profile:  cfg.Profile,
		Endpoint: cfg.Endpoint,
		Logger:   logger,
	})
	if err != nil {
		return nil, err
	}
	if account, err := c.VerifyIdentity(ctx); err != nil {
		logger.Warn("Could not verify AWS identity", "error", err)
	} else {
		logger.Info("Connected to DynamoDB", "account", account, "region", c.Config.Region, "table", cfg.Table)
	}

	s := New(dynamodb.NewFromConfig(c.Config), cfg.Table, logger)
	if err := s.EnsureTable(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// EnsureTable creates the table with on-demand billing if it does not exist
// and waits until it is active.
func (s *Store) EnsureTable(ctx context.Context) error {
	_, err := s.Client.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(s.Table)})
	if err == nil {
		return nil
	}
	var rnf *types.ResourceNotFoundException
	if !errors.As(err, &rnf) {
		return unavailable(err)
	}

	s.Logger.Info("Creating DynamoDB table", "table", s.Table)
	_, err = s.Client.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName: aws.String(s.Table),
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String(attrID), AttributeType: types.ScalarAttributeTypeN},
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String(attrID), KeyType: types.KeyTypeHash},
		},
		BillingMode: types.BillingModePayPerRequest,
	})
	if err != nil {
		return unavailable(err)
	}
	waiter := dynamodb.NewTableExistsWaiter(s.Client)
	if err := waiter.Wait(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(s.Table)}, 2*time.Minute); err != nil {
		return unavailable(err)
	}
	return nil
}

func (s *Store) GetPerson(ctx context.Context, id person.ID) (person.Person, error) {
	if !id.Valid() {
		return person.Person{}, person.ErrNotFound
	}
	out, err := s.Client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.Table),
		Key:            key(id),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return person.Person{}, unavailable(err)
	}
	if len(out.Item) == 0 {
		return person.Person{}, person.ErrNotFound
	}
	return decodeItem(out.Item)
}

func (s *Store) ListChildren(ctx context.Context, id person.ID) ([]person.Person, error) {
	return s.scan(ctx, &dynamodb.ScanInput{
		FilterExpression: aws.String("#f = :p OR #m = :p"),
		ExpressionAttributeNames: map[string]string{
			"#f": attrFather,
			"#m": attrMother,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":p": number(id),
		},
	})
}

func (s *Store) ListBySharedParent(ctx context.Context, fatherID, motherID, excludeID person.ID) ([]person.Person, error) {
	names := map[string]string{"#id": attrID}
	values := map[string]types.AttributeValue{":x": number(excludeID)}
	var cond string
	switch {
	case fatherID.Valid() && motherID.Valid():
		cond = "(#f = :f OR #m = :m)"
		names["#f"], names["#m"] = attrFather, attrMother
		values[":f"], values[":m"] = number(fatherID), number(motherID)
	case fatherID.Valid():
		cond = "#f = :f"
		names["#f"] = attrFather
		values[":f"] = number(fatherID)
	case motherID.Valid():
		cond = "#m = :m"
		names["#m"] = attrMother
		values[":m"] = number(motherID)
	default:
		return nil, nil
	}
	return s.scan(ctx, &dynamodb.ScanInput{
		FilterExpression:          aws.String(cond + " AND #id <> :x"),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
	})
}

func (s *Store) ListAllPeople(ctx context.Context) ([]person.Person, error) {
	return s.scan(ctx, &dynamodb.ScanInput{
		FilterExpression:         aws.String("#id > :zero"),
		ExpressionAttributeNames: map[string]string{"#id": attrID},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":zero": number(counterID),
		},
	})
}

// scan pages through the table and returns matches sorted by ID.
func (s *Store) scan(ctx context.Context, in *dynamodb.ScanInput) ([]person.Person, error) {
	in.TableName = aws.String(s.Table)
	in.ConsistentRead = aws.Bool(true)

	var out []person.Person
	paginator := dynamodb.NewScanPaginator(s.Client, in)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, unavailable(err)
		}
		for _, item := range page.Items {
			p, err := decodeItem(item)
			if err != nil {
				return nil, unavailable(err)
			}
			out = append(out, p)
		}
	}
	slices.SortFunc(out, func(a, b person.Person) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
	return out, nil
}

// Put writes p and raises the ID counter to at least p.ID.
func (s *Store) Put(ctx context.Context, p person.Person) error {
	if !p.ID.Valid() {
		return person.ErrInvalidPerson
	}
	_, err := s.Client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.Table),
		Item:      encodeItem(p),
	})
	if err != nil {
		return unavailable(err)
	}

	_, err = s.Client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                aws.String(s.Table),
		Key:                      key(counterID),
		UpdateExpression:         aws.String("SET #n = :v"),
		ConditionExpression:      aws.String("attribute_not_exists(#n) OR #n < :v"),
		ExpressionAttributeNames: map[string]string{"#n": attrNext},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":v": number(p.ID),
		},
	})
	var ccf *types.ConditionalCheckFailedException
	if err != nil && !errors.As(err, &ccf) {
		return unavailable(err)
	}
	return nil
}

func (s *Store) Remove(ctx context.Context, id person.ID) error {
	_, err := s.Client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:                aws.String(s.Table),
		Key:                      key(id),
		ConditionExpression:      aws.String("attribute_exists(#id)"),
		ExpressionAttributeNames: map[string]string{"#id": attrID},
	})
	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		return person.ErrNotFound
	}
	if err != nil {
		return unavailable(err)
	}
	return nil
}

// NextID atomically increments the counter item and returns the new value.
func (s *Store) NextID(ctx context.Context) (person.ID, error) {
	out, err := s.Client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                aws.String(s.Table),
		Key:                      key(counterID),
		UpdateExpression:         aws.String("ADD #n :one"),
		ExpressionAttributeNames: map[string]string{"#n": attrNext},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":one": number(1),
		},
		ReturnValues: types.ReturnValueUpdatedNew,
	})
	if err != nil {
		return 0, unavailable(err)
	}
	id, err := numberAttr(out.Attributes, attrNext)
	if err != nil {
		return 0, unavailable(err)
	}
	return id, nil
}

func key(id person.ID) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{attrID: number(id)}
}

func number(id person.ID) types.AttributeValue {
	return &types.AttributeValueMemberN{Value: strconv.FormatInt(int64(id), 10)}
}

func encodeItem(p person.Person) map[string]types.AttributeValue {
	item := map[string]types.AttributeValue{
		attrID:   number(p.ID),
		attrName: &types.AttributeValueMemberS{Value: p.Name},
	}
	if p.BirthDate != nil {
		item[attrBirth] = &types.AttributeValueMemberS{Value: p.BirthDate.String()}
	}
	if p.Gender != "" {
		item[attrGender] = &types.AttributeValueMemberS{Value: string(p.Gender)}
	}
	if p.Location != "" {
		item[attrLocation] = &types.AttributeValueMemberS{Value: p.Location}
	}
	for attr, id := range map[string]person.ID{attrFather: p.FatherID, attrMother: p.MotherID, attrSpouse: p.SpouseID} {
		if id.Valid() {
			item[attr] = number(id)
		}
	}
	return item
}

func decodeItem(item map[string]types.AttributeValue) (person.Person, error) {
	var p person.Person
	var err error
	if p.ID, err = numberAttr(item, attrID); err != nil {
		return person.Person{}, err
	}
	p.Name = stringAttr(item, attrName)
	if p.BirthDate, err = person.ParseDate(stringAttr(item, attrBirth)); err != nil {
		return person.Person{}, fmt.Errorf("item %d: %w", p.ID, err)
	}
	p.Gender = person.ParseGender(stringAttr(item, attrGender))
	p.Location = stringAttr(item, attrLocation)
	for attr, dst := range map[string]*person.ID{attrFather: &p.FatherID, attrMother: &p.MotherID, attrSpouse: &p.SpouseID} {
		if *dst, err = numberAttr(item, attr); err != nil {
			return person.Person{}, fmt.Errorf("item %d: %w", p.ID, err)
		}
	}
	return p, nil
}

// numberAttr returns 0 when attr is absent.
func numberAttr(item map[string]types.AttributeValue, attr string) (person.ID, error) {
	v, ok := item[attr]
	if !ok {
		return 0, nil
	}
	n, ok := v.(*types.AttributeValueMemberN)
	if !ok {
		return 0, fmt.Errorf("attribute %s is not a number", attr)
	}
	id, err := strconv.ParseInt(n.Value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("attribute %s: %w", attr, err)
	}
	return person.ID(id), nil
}

func stringAttr(item map[string]types.AttributeValue, attr string) string {
	if s, ok := item[attr].(*types.AttributeValueMemberS); ok {
		return s.Value
	}
	return ""
}

func unavailable(err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("%w: dynamodb %s: %w", person.ErrRepositoryUnavailable, apiErr.ErrorCode(), err)
	}
	return fmt.Errorf("%w: %w", person.ErrRepositoryUnavailable, err)
}

var _ person.RecordStore = (*Store)(nil)
