package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"squadlink_server/models"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/require"
)

// fakeDynamo is an in-memory DynamoAPI for package tests. Items are keyed by
// the table's primary key attribute; write failures can be injected per table.
type fakeDynamo struct {
	mu      sync.Mutex
	tables  map[string]map[string]map[string]types.AttributeValue
	keyAttr map[string]string
	failGet map[string]error
	failPut map[string]error
	failUpd map[string]error
}

func newFakeDynamo() *fakeDynamo {
	return &fakeDynamo{
		tables: map[string]map[string]map[string]types.AttributeValue{},
		keyAttr: map[string]string{
			models.MatchingProfilesTable:        "userId",
			models.MatchRequestsTable:           "requestId",
			models.PostsTable:                   "postId",
			models.MessagesTable:                "messageId",
			models.TournamentRegistrationsTable: "tournamentId",
		},
		failGet: map[string]error{},
		failPut: map[string]error{},
		failUpd: map[string]error{},
	}
}

func (f *fakeDynamo) keyValue(table string, attrs map[string]types.AttributeValue) (string, error) {
	attr, ok := attrs[f.keyAttr[table]]
	if !ok {
		return "", fmt.Errorf("missing key attribute %q for table %q", f.keyAttr[table], table)
	}
	s, ok := attr.(*types.AttributeValueMemberS)
	if !ok {
		return "", fmt.Errorf("key attribute %q is not a string", f.keyAttr[table])
	}
	return s.Value, nil
}

func (f *fakeDynamo) GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.failGet[*params.TableName]; err != nil {
		return nil, err
	}
	key, err := f.keyValue(*params.TableName, params.Key)
	if err != nil {
		return nil, err
	}
	item, ok := f.tables[*params.TableName][key]
	if !ok {
		return &dynamodb.GetItemOutput{}, nil
	}
	return &dynamodb.GetItemOutput{Item: item}, nil
}

func (f *fakeDynamo) PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	table := *params.TableName
	if err := f.failPut[table]; err != nil {
		return nil, err
	}
	key, err := f.keyValue(table, params.Item)
	if err != nil {
		return nil, err
	}
	if f.tables[table] == nil {
		f.tables[table] = map[string]map[string]types.AttributeValue{}
	}
	f.tables[table][key] = params.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDynamo) UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	table := *params.TableName
	if err := f.failUpd[table]; err != nil {
		return nil, err
	}
	key, err := f.keyValue(table, params.Key)
	if err != nil {
		return nil, err
	}
	if f.tables[table] == nil {
		f.tables[table] = map[string]map[string]types.AttributeValue{}
	}
	item, ok := f.tables[table][key]
	if !ok {
		item = map[string]types.AttributeValue{f.keyAttr[table]: params.Key[f.keyAttr[table]]}
		f.tables[table][key] = item
	}

	// Parse "SET #a = :a, #b = :b" the way the services build it.
	expr := strings.TrimPrefix(*params.UpdateExpression, "SET ")
	for _, clause := range strings.Split(expr, ",") {
		parts := strings.Split(strings.TrimSpace(clause), " = ")
		if len(parts) != 2 {
			return nil, fmt.Errorf("unsupported update clause %q", clause)
		}
		name, ok := params.ExpressionAttributeNames[parts[0]]
		if !ok {
			return nil, fmt.Errorf("unresolved attribute name %q", parts[0])
		}
		value, ok := params.ExpressionAttributeValues[parts[1]]
		if !ok {
			return nil, fmt.Errorf("unresolved attribute value %q", parts[1])
		}
		item[name] = value
	}
	return &dynamodb.UpdateItemOutput{Attributes: item}, nil
}

func (f *fakeDynamo) Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var items []map[string]types.AttributeValue
	for _, item := range f.tables[*params.TableName] {
		items = append(items, item)
	}
	return &dynamodb.ScanOutput{Items: items}, nil
}

func (f *fakeDynamo) putProfile(t *testing.T, profile models.MatchingProfile) {
	t.Helper()
	item, err := attributevalue.MarshalMap(profile)
	require.NoError(t, err)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.tables[models.MatchingProfilesTable] == nil {
		f.tables[models.MatchingProfilesTable] = map[string]map[string]types.AttributeValue{}
	}
	f.tables[models.MatchingProfilesTable][profile.UserID] = item
}

func (f *fakeDynamo) putRequest(t *testing.T, request models.MatchRequest) {
	t.Helper()
	item, err := attributevalue.MarshalMap(request)
	require.NoError(t, err)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.tables[models.MatchRequestsTable] == nil {
		f.tables[models.MatchRequestsTable] = map[string]map[string]types.AttributeValue{}
	}
	f.tables[models.MatchRequestsTable][request.RequestID] = item
}

// fakeKV is an in-memory KVStore.
type fakeKV struct {
	mu   sync.Mutex
	data map[string]string
}

func newFakeKV() *fakeKV {
	return &fakeKV{data: map[string]string{}}
}

func (f *fakeKV) Get(ctx context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.data[key], nil
}

func (f *fakeKV) Set(ctx context.Context, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[key] = value
	return nil
}
