package repository

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// fakeDynamo understands the handful of expressions DynamoStore issues.
type fakeDynamo struct {
	mu     sync.Mutex
	items  map[string]map[string]types.AttributeValue
	getErr error
}

func newFakeDynamo() *fakeDynamo {
	return &fakeDynamo{items: make(map[string]map[string]types.AttributeValue)}
}

func itemKey(key map[string]types.AttributeValue) string {
	pk := key["PK"].(*types.AttributeValueMemberS).Value
	sk := key["SK"].(*types.AttributeValueMemberS).Value
	return pk + "|" + sk
}

func conditionFailed() error {
	return &types.ConditionalCheckFailedException{Message: aws.String("The conditional request failed")}
}

func (f *fakeDynamo) checkCondition(cond *string, exists bool) error {
	if cond == nil {
		return nil
	}
	switch aws.ToString(cond) {
	case "attribute_not_exists(PK)":
		if exists {
			return conditionFailed()
		}
	case "attribute_exists(PK)":
		if !exists {
			return conditionFailed()
		}
	default:
		return errors.New("fake: unsupported condition " + aws.ToString(cond))
	}
	return nil
}

func (f *fakeDynamo) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.getErr != nil {
		return nil, f.getErr
	}
	return &dynamodb.GetItemOutput{Item: copyItem(f.items[itemKey(in.Key)])}, nil
}

func (f *fakeDynamo) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	k := itemKey(in.Item)
	_, exists := f.items[k]
	if err := f.checkCondition(in.ConditionExpression, exists); err != nil {
		return nil, err
	}
	f.items[k] = copyItem(in.Item)
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDynamo) UpdateItem(_ context.Context, in *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	k := itemKey(in.Key)
	item, exists := f.items[k]
	if err := f.checkCondition(in.ConditionExpression, exists); err != nil {
		return nil, err
	}
	if !exists {
		item = copyItem(in.Key)
	}

	expr := aws.ToString(in.UpdateExpression)
	switch {
	case strings.HasPrefix(expr, "ADD "):
		for _, clause := range strings.Split(strings.TrimPrefix(expr, "ADD "), ",") {
			parts := strings.Fields(clause)
			attr, placeholder := parts[0], parts[1]
			add := in.ExpressionAttributeValues[placeholder].(*types.AttributeValueMemberSS).Value
			var current []string
			if ss, ok := item[attr].(*types.AttributeValueMemberSS); ok {
				current = append(current, ss.Value...)
			}
			for _, v := range add {
				if !contains(current, v) {
					current = append(current, v)
				}
			}
			item[attr] = &types.AttributeValueMemberSS{Value: current}
		}
	case strings.HasPrefix(expr, "SET "):
		for _, clause := range strings.Split(strings.TrimPrefix(expr, "SET "), ",") {
			parts := strings.SplitN(clause, "=", 2)
			attr := strings.TrimSpace(parts[0])
			if name, ok := in.ExpressionAttributeNames[attr]; ok {
				attr = name
			}
			item[attr] = in.ExpressionAttributeValues[strings.TrimSpace(parts[1])]
		}
	default:
		return nil, errors.New("fake: unsupported update " + expr)
	}

	f.items[k] = item
	return &dynamodb.UpdateItemOutput{Attributes: copyItem(item)}, nil
}

func copyItem(in map[string]types.AttributeValue) map[string]types.AttributeValue {
	if in == nil {
		return nil
	}
	out := make(map[string]types.AttributeValue, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
