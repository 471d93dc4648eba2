package dynamostore

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbiface"
	"github.com/spolu/distinct"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDynamoDB serves canned scan pages and records the inputs it saw.
type fakeDynamoDB struct {
	dynamodbiface.DynamoDBAPI

	pages  []*dynamodb.ScanOutput
	inputs []*dynamodb.ScanInput
}

func (f *fakeDynamoDB) ScanWithContext(
	ctx aws.Context,
	input *dynamodb.ScanInput,
	opts ...request.Option,
) (*dynamodb.ScanOutput, error) {
	f.inputs = append(f.inputs, input)
	page := f.pages[0]
	if len(f.pages) > 1 {
		f.pages = f.pages[1:]
	}
	return page, nil
}

func item(
	fields map[string]string,
) map[string]*dynamodb.AttributeValue {
	out := map[string]*dynamodb.AttributeValue{}
	for name, value := range fields {
		out[name] = &dynamodb.AttributeValue{S: aws.String(value)}
	}
	return out
}

func TestExists(
	t *testing.T,
) {
	ctx := context.Background()
	typ := distinct.NewType("users", "token")

	svc := &fakeDynamoDB{
		pages: []*dynamodb.ScanOutput{
			{
				Items: []map[string]*dynamodb.AttributeValue{
					item(map[string]string{
						"token":    "user_1",
						"username": "alice",
					}),
				},
			},
		},
	}

	exists, err := New(svc).Select(typ).Where(distinct.Conds{
		{Column: "username", Value: "alice"},
	}).Exists(ctx)
	require.NoError(t, err)
	assert.True(t, exists)

	require.Len(t, svc.inputs, 1)
	input := svc.inputs[0]
	assert.Equal(t, "users", *input.TableName)
	assert.Equal(t, "#a0 = :v0", *input.FilterExpression)
	assert.Equal(t, "username", *input.ExpressionAttributeNames["#a0"])
	assert.Equal(t, "alice", *input.ExpressionAttributeValues[":v0"].S)
}

func TestExistsEmpty(
	t *testing.T,
) {
	ctx := context.Background()
	typ := distinct.NewType("users", "token")

	svc := &fakeDynamoDB{
		pages: []*dynamodb.ScanOutput{{}},
	}

	exists, err := New(svc).Select(typ).Where(distinct.Conds{
		{Column: "username", Value: "alice"},
	}).Exists(ctx)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestFetchUpToPaging(
	t *testing.T,
) {
	ctx := context.Background()
	typ := distinct.NewType("users", "token")

	svc := &fakeDynamoDB{
		pages: []*dynamodb.ScanOutput{
			{
				Items: []map[string]*dynamodb.AttributeValue{
					item(map[string]string{
						"token":    "user_1",
						"username": "alice",
					}),
				},
				LastEvaluatedKey: item(map[string]string{
					"token": "user_1",
				}),
			},
			{
				Items: []map[string]*dynamodb.AttributeValue{
					item(map[string]string{
						"token":    "user_2",
						"username": "alice",
					}),
				},
			},
		},
	}

	records, err := New(svc).Select(typ).Where(distinct.Conds{
		{Column: "username", Value: "alice"},
	}).FetchUpTo(ctx, 2)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Len(t, svc.inputs, 2)

	assert.Equal(t,
		distinct.Key{"token": "user_1"}, records[0].PrimaryKey())
	assert.Equal(t,
		distinct.Key{"token": "user_2"}, records[1].PrimaryKey())
	assert.False(t, records[0].IsNew())

	username, err := records[0].Field("username")
	require.NoError(t, err)
	assert.Equal(t, "alice", username)
}

func TestFetchUpToStopsAtLimit(
	t *testing.T,
) {
	ctx := context.Background()
	typ := distinct.NewType("users", "token")

	svc := &fakeDynamoDB{
		pages: []*dynamodb.ScanOutput{
			{
				Items: []map[string]*dynamodb.AttributeValue{
					item(map[string]string{"token": "user_1"}),
					item(map[string]string{"token": "user_2"}),
					item(map[string]string{"token": "user_3"}),
				},
			},
		},
	}

	records, err := New(svc).Select(typ).FetchUpTo(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestCompositeConditionValue(
	t *testing.T,
) {
	ctx := context.Background()
	typ := distinct.NewType("users", "token")

	svc := &fakeDynamoDB{
		pages: []*dynamodb.ScanOutput{{}},
	}

	_, err := New(svc).Select(typ).Where(distinct.Conds{
		{Column: "username", Value: []string{"alice", "bob"}},
	}).FetchUpTo(ctx, 2)
	require.Error(t, err)
	assert.Len(t, svc.inputs, 0)
}
