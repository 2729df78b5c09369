package dynamo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DrSkyle/kinship/pkg/person"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubAPI answers single-item calls from canned responses.
type stubAPI struct {
	API
	getOut    *dynamodb.GetItemOutput
	updateOut *dynamodb.UpdateItemOutput
	err       error
	lastPut   map[string]types.AttributeValue
	deleteErr error
}

func (s *stubAPI) GetItem(ctx context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	return s.getOut, s.err
}

func (s *stubAPI) PutItem(ctx context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	s.lastPut = in.Item
	return &dynamodb.PutItemOutput{}, s.err
}

func (s *stubAPI) UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	if s.updateOut == nil {
		return nil, &types.ConditionalCheckFailedException{Message: aws.String("counter ahead")}
	}
	return s.updateOut, s.err
}

func (s *stubAPI) DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	return &dynamodb.DeleteItemOutput{}, s.deleteErr
}

func TestItemEncoding(t *testing.T) {
	p := person.DemoFamily()[0]
	item := encodeItem(p)

	assert.Equal(t, "1", item[attrID].(*types.AttributeValueMemberN).Value)
	assert.Equal(t, "3", item[attrFather].(*types.AttributeValueMemberN).Value)

	got, err := decodeItem(item)
	require.NoError(t, err)
	assert.Equal(t, p.Name, got.Name)
	assert.Equal(t, p.SpouseID, got.SpouseID)
	assert.Equal(t, p.BirthDate.String(), got.BirthDate.String())

	orphan := encodeItem(person.Person{ID: 3, Name: "Robert Smith"})
	assert.NotContains(t, orphan, attrFather)
	assert.NotContains(t, orphan, attrBirth)
}

func TestDecodeItem_BadNumber(t *testing.T) {
	_, err := decodeItem(map[string]types.AttributeValue{
		attrID: &types.AttributeValueMemberS{Value: "one"},
	})
	assert.Error(t, err)
}

func TestGetPerson(t *testing.T) {
	stub := &stubAPI{getOut: &dynamodb.GetItemOutput{Item: encodeItem(person.DemoFamily()[1])}}
	s := New(stub, "people", nil)

	p, err := s.GetPerson(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, "Mary Smith", p.Name)

	stub.getOut = &dynamodb.GetItemOutput{}
	_, err = s.GetPerson(context.Background(), 2)
	assert.ErrorIs(t, err, person.ErrNotFound)
}

func TestErrorsMapToUnavailable(t *testing.T) {
	stub := &stubAPI{err: &smithy.GenericAPIError{Code: "ProvisionedThroughputExceededException", Message: "slow down"}}
	s := New(stub, "people", nil)

	_, err := s.GetPerson(context.Background(), 1)
	assert.ErrorIs(t, err, person.ErrRepositoryUnavailable)
	assert.ErrorContains(t, err, "ProvisionedThroughputExceededException")

	stub.err = errors.New("connection reset")
	err = s.Put(context.Background(), person.Person{ID: 1, Name: "John Smith"})
	assert.ErrorIs(t, err, person.ErrRepositoryUnavailable)
}

func TestPut_CounterAheadIsFine(t *testing.T) {
	stub := &stubAPI{}
	s := New(stub, "people", nil)

	require.NoError(t, s.Put(context.Background(), person.Person{ID: 4, Name: "Jennifer Smith"}))
	assert.Equal(t, "Jennifer Smith", stub.lastPut[attrName].(*types.AttributeValueMemberS).Value)

	assert.ErrorIs(t, s.Put(context.Background(), person.Person{Name: "No ID"}), person.ErrInvalidPerson)
}

func TestNextID(t *testing.T) {
	stub := &stubAPI{updateOut: &dynamodb.UpdateItemOutput{
		Attributes: map[string]types.AttributeValue{attrNext: &types.AttributeValueMemberN{Value: "11"}},
	}}
	id, err := New(stub, "people", nil).NextID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, person.ID(11), id)
}

func TestRemove_MissingIsNotFound(t *testing.T) {
	stub := &stubAPI{deleteErr: &types.ConditionalCheckFailedException{Message: aws.String("missing")}}
	err := New(stub, "people", nil).Remove(context.Background(), 42)
	assert.ErrorIs(t, err, person.ErrNotFound)
}

func TestListBySharedParent_NoParents(t *testing.T) {
	got, err := New(&stubAPI{}, "people", nil).ListBySharedParent(context.Background(), 0, 0, 3)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestOpen_RequiresTable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err := Open(ctx, Config{}, nil)
	assert.Error(t, err)
}
