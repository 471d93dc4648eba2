// Package dynamostore provides a DynamoDB-backed record store implementing
// the distinct.Store contract. Lookups run as scans with an equality filter
// expression; tables checked for uniqueness at any volume should carry a
// matching secondary index instead.
package dynamostore

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbiface"
	"github.com/spolu/distinct"
	"github.com/spolu/distinct/lib/errors"
)

// Store is a record store backed by a DynamoDB client.
type Store struct {
	svc dynamodbiface.DynamoDBAPI
}

// New returns a Store using the provided DynamoDB client.
func New(
	svc dynamodbiface.DynamoDBAPI,
) *Store {
	return &Store{
		svc: svc,
	}
}

// Select constructs an unfiltered query over the provided record type.
func (s *Store) Select(
	typ distinct.Type,
) distinct.Query {
	return &query{
		store: s,
		typ:   typ,
	}
}

var _ distinct.Store = (*Store)(nil)

type query struct {
	store *Store
	typ   distinct.Type
	conds distinct.Conds
}

func (q *query) Where(
	conds distinct.Conds,
) distinct.Query {
	nq := *q
	nq.conds = append(append(distinct.Conds{}, q.conds...), conds...)
	return &nq
}

func (q *query) Exists(
	ctx context.Context,
) (bool, error) {
	records, err := q.FetchUpTo(ctx, 1)
	if err != nil {
		return false, errors.Trace(err)
	}
	return len(records) > 0, nil
}

func (q *query) FetchUpTo(
	ctx context.Context,
	n int,
) ([]distinct.Record, error) {
	input := &dynamodb.ScanInput{
		TableName: aws.String(q.typ.Name()),
	}

	if len(q.conds) > 0 {
		expression := ""
		names := map[string]*string{}
		values := map[string]*dynamodb.AttributeValue{}
		for i, cond := range q.conds {
			name := fmt.Sprintf("#a%d", i)
			value := fmt.Sprintf(":v%d", i)
			if i > 0 {
				expression += " AND "
			}
			expression += fmt.Sprintf("%s = %s", name, value)
			names[name] = aws.String(cond.Column)
			attribute, err := toAttributeValue(cond.Value)
			if err != nil {
				return nil, errors.Trace(err)
			}
			values[value] = attribute
		}
		input.FilterExpression = aws.String(expression)
		input.ExpressionAttributeNames = names
		input.ExpressionAttributeValues = values
	}

	// Scan pages until n matches are collected; Limit bounds items examined
	// per page, not items matched.
	var records []distinct.Record
	for {
		output, err := q.store.svc.ScanWithContext(ctx, input)
		if err != nil {
			return nil, errors.Trace(err)
		}
		for _, item := range output.Items {
			records = append(records, &itemRecord{
				typ:    q.typ,
				fields: fromItem(item),
			})
			if len(records) == n {
				return records, nil
			}
		}
		if output.LastEvaluatedKey == nil {
			return records, nil
		}
		input.ExclusiveStartKey = output.LastEvaluatedKey
	}
}

// toAttributeValue encodes a scalar condition value as a DynamoDB attribute
// value.
func toAttributeValue(
	value interface{},
) (*dynamodb.AttributeValue, error) {
	switch v := value.(type) {
	case nil:
		return &dynamodb.AttributeValue{NULL: aws.Bool(true)}, nil
	case string:
		return &dynamodb.AttributeValue{S: aws.String(v)}, nil
	case []byte:
		return &dynamodb.AttributeValue{S: aws.String(string(v))}, nil
	case bool:
		return &dynamodb.AttributeValue{BOOL: aws.Bool(v)}, nil
	case int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return &dynamodb.AttributeValue{
			N: aws.String(fmt.Sprintf("%v", v)),
		}, nil
	default:
		return nil, errors.Trace(errors.ErrUnexpectedArgumentType{
			Expected: "scalar",
			Value:    value,
		})
	}
}

// fromItem decodes a DynamoDB item into plain field values.
func fromItem(
	item map[string]*dynamodb.AttributeValue,
) map[string]interface{} {
	fields := map[string]interface{}{}
	for name, attribute := range item {
		switch {
		case attribute.S != nil:
			fields[name] = *attribute.S
		case attribute.N != nil:
			fields[name] = *attribute.N
		case attribute.BOOL != nil:
			fields[name] = *attribute.BOOL
		case attribute.NULL != nil:
			fields[name] = nil
		}
	}
	return fields
}

// itemRecord is a stored record decoded from a scan result.
type itemRecord struct {
	typ    distinct.Type
	fields map[string]interface{}
}

func (r *itemRecord) Type() distinct.Type {
	return r.typ
}

func (r *itemRecord) Field(
	name string,
) (interface{}, error) {
	value, ok := r.fields[name]
	if !ok {
		return nil, errors.Trace(errors.Newf(
			"%s has no attribute %q", r.typ.Name(), name))
	}
	return value, nil
}

func (r *itemRecord) IsNew() bool {
	return false
}

func (r *itemRecord) PrimaryKey() distinct.Key {
	key := distinct.Key{}
	for _, column := range r.typ.PrimaryKeyColumns() {
		key[column] = r.fields[column]
	}
	return key
}

func (r *itemRecord) PreviousPrimaryKey() distinct.Key {
	return r.PrimaryKey()
}
