package dynamolib

import (
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbattribute"
	"github.com/guregu/dynamo"
)

var encoder = dynamodbattribute.NewEncoder(func(e *dynamodbattribute.Encoder) {
	e.MarshalOptions.EnableEmptyCollections = true
	e.NullEmptyString = false
	e.NullEmptyByteSlice = false
})

// putMap exists so that empty stem URL maps and empty strings survive
// the round trip into DynamoDB instead of being nulled out.
type putMap map[string]any

func (p putMap) MarshalDynamo() (*dynamodb.AttributeValue, error) {
	var fields map[string]any = p
	return encoder.Encode(fields)
}

func NewDynamoDBWrapper(db *dynamo.DB) DynamoDBWrapper {
	return DynamoDBWrapper{DB: db}
}

type DynamoDBWrapper struct {
	*dynamo.DB
}

type DynamoTableWrapper struct {
	dynamo.Table
}

func (d DynamoDBWrapper) Table(tableName string) DynamoTableWrapper {
	return DynamoTableWrapper{
		Table: d.DB.Table(tableName),
	}
}

func (d DynamoTableWrapper) Put(input map[string]any) *dynamo.Put {
	return d.Table.Put(putMap(input))
}
