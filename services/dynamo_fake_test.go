package services

import (
	"context"
	"strings"
	"sync"

	"vibematch_server/models"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// fakeDynamo is an in-memory DynamoAPI for tests. It understands only the
// expression shapes the services issue: "attribute_not_exists(k)" put
// conditions, "#a = :v" equality conditions and key conditions, and
// comma-separated "SET #a = :v" update expressions.
type fakeDynamo struct {
	mu       sync.Mutex
	tables   map[string]map[string]map[string]types.AttributeValue
	failures map[string]error
}

var fakeTableKeys = map[string]string{
	models.SelfieCandidatesTable: "candidateId",
	models.ConnectionsTable:      "pairKey",
	models.UserProfilesTable:     "userId",
}

func newFakeDynamo() *fakeDynamo {
	return &fakeDynamo{
		tables:   map[string]map[string]map[string]types.AttributeValue{},
		failures: map[string]error{},
	}
}

func (f *fakeDynamo) failOn(op string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[op] = err
}

func (f *fakeDynamo) table(name string) map[string]map[string]types.AttributeValue {
	if f.tables[name] == nil {
		f.tables[name] = map[string]map[string]types.AttributeValue{}
	}
	return f.tables[name]
}

func (f *fakeDynamo) itemCount(tableName string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.tables[tableName])
}

func (f *fakeDynamo) item(tableName, pk string) map[string]types.AttributeValue {
	f.mu.Lock()
	defer f.mu.Unlock()
	return copyItem(f.tables[tableName][pk])
}

func keyValue(tableName string, item map[string]types.AttributeValue) string {
	attr := item[fakeTableKeys[tableName]]
	if s, ok := attr.(*types.AttributeValueMemberS); ok {
		return s.Value
	}
	return ""
}

func copyItem(item map[string]types.AttributeValue) map[string]types.AttributeValue {
	if item == nil {
		return nil
	}
	out := map[string]types.AttributeValue{}
	for k, v := range item {
		out[k] = v
	}
	return out
}

func resolveName(name string, names map[string]string) string {
	if strings.HasPrefix(name, "#") {
		return names[name]
	}
	return name
}

// evalEquality checks a single "#a = :v" expression against an item
func evalEquality(expr string, item map[string]types.AttributeValue, values map[string]types.AttributeValue, names map[string]string) bool {
	parts := strings.SplitN(strings.TrimSpace(expr), " = ", 2)
	if len(parts) != 2 {
		return false
	}
	attr, ok := item[resolveName(parts[0], names)].(*types.AttributeValueMemberS)
	if !ok {
		return false
	}
	expected, ok := values[strings.TrimSpace(parts[1])].(*types.AttributeValueMemberS)
	if !ok {
		return false
	}
	return attr.Value == expected.Value
}

func applySet(update string, item map[string]types.AttributeValue, values map[string]types.AttributeValue, names map[string]string) {
	update = strings.TrimPrefix(strings.TrimSpace(update), "SET ")
	for _, clause := range strings.Split(update, ",") {
		parts := strings.SplitN(strings.TrimSpace(clause), " = ", 2)
		if len(parts) != 2 {
			continue
		}
		item[resolveName(parts[0], names)] = values[strings.TrimSpace(parts[1])]
	}
}

func (f *fakeDynamo) GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failures["GetItem"]; err != nil {
		return nil, err
	}
	pk := keyValue(*params.TableName, params.Key)
	return &dynamodb.GetItemOutput{Item: copyItem(f.table(*params.TableName)[pk])}, nil
}

func (f *fakeDynamo) PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failures["PutItem"]; err != nil {
		return nil, err
	}
	tbl := f.table(*params.TableName)
	pk := keyValue(*params.TableName, params.Item)
	if params.ConditionExpression != nil && strings.HasPrefix(*params.ConditionExpression, "attribute_not_exists(") {
		if _, exists := tbl[pk]; exists {
			return nil, &types.ConditionalCheckFailedException{}
		}
	}
	tbl[pk] = copyItem(params.Item)
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDynamo) UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failures["UpdateItem"]; err != nil {
		return nil, err
	}
	tbl := f.table(*params.TableName)
	pk := keyValue(*params.TableName, params.Key)
	item, exists := tbl[pk]
	if params.ConditionExpression != nil {
		if !exists || !evalEquality(*params.ConditionExpression, item, params.ExpressionAttributeValues, params.ExpressionAttributeNames) {
			return nil, &types.ConditionalCheckFailedException{}
		}
	}
	if !exists {
		item = copyItem(params.Key)
		tbl[pk] = item
	}
	applySet(*params.UpdateExpression, item, params.ExpressionAttributeValues, params.ExpressionAttributeNames)
	return &dynamodb.UpdateItemOutput{Attributes: copyItem(item)}, nil
}

func (f *fakeDynamo) DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failures["DeleteItem"]; err != nil {
		return nil, err
	}
	tbl := f.table(*params.TableName)
	pk := keyValue(*params.TableName, params.Key)
	item, exists := tbl[pk]
	if params.ConditionExpression != nil {
		if !exists || !evalEquality(*params.ConditionExpression, item, params.ExpressionAttributeValues, params.ExpressionAttributeNames) {
			return nil, &types.ConditionalCheckFailedException{}
		}
	}
	delete(tbl, pk)
	return &dynamodb.DeleteItemOutput{}, nil
}

func (f *fakeDynamo) Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failures["Query"]; err != nil {
		return nil, err
	}
	var items []map[string]types.AttributeValue
	for _, item := range f.table(*params.TableName) {
		if evalEquality(*params.KeyConditionExpression, item, params.ExpressionAttributeValues, params.ExpressionAttributeNames) {
			items = append(items, copyItem(item))
		}
	}
	return &dynamodb.QueryOutput{Items: items}, nil
}

func (f *fakeDynamo) Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failures["Scan"]; err != nil {
		return nil, err
	}
	var items []map[string]types.AttributeValue
	for _, item := range f.table(*params.TableName) {
		if params.FilterExpression == nil || evalEquality(*params.FilterExpression, item, params.ExpressionAttributeValues, params.ExpressionAttributeNames) {
			items = append(items, copyItem(item))
		}
	}
	return &dynamodb.ScanOutput{Items: items}, nil
}
