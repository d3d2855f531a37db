package dynamo

import (
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"example.com/ridedash/internal/record"
)

// FromItem converts one DynamoDB item. Attribute types with no record
// counterpart (binary, boolean, null) are dropped and read as absent.
func FromItem(item map[string]types.AttributeValue) record.Record {
	rec := make(record.Record, len(item))
	for name, av := range item {
		if v, ok := fromAttributeValue(av); ok {
			rec[name] = v
		}
	}
	return rec
}

func fromAttributeValue(av types.AttributeValue) (record.Value, bool) {
	switch v := av.(type) {
	case *types.AttributeValueMemberS:
		return record.String(v.Value), true
	case *types.AttributeValueMemberN:
		return record.Number(v.Value), true
	case *types.AttributeValueMemberSS:
		items := make([]record.Value, 0, len(v.Value))
		for _, s := range v.Value {
			items = append(items, record.String(s))
		}
		return record.List(items...), true
	case *types.AttributeValueMemberNS:
		items := make([]record.Value, 0, len(v.Value))
		for _, n := range v.Value {
			items = append(items, record.Number(n))
		}
		return record.List(items...), true
	case *types.AttributeValueMemberL:
		items := make([]record.Value, 0, len(v.Value))
		for _, child := range v.Value {
			if converted, ok := fromAttributeValue(child); ok {
				items = append(items, converted)
			}
		}
		return record.List(items...), true
	case *types.AttributeValueMemberM:
		attrs := make(map[string]record.Value, len(v.Value))
		for name, child := range v.Value {
			if converted, ok := fromAttributeValue(child); ok {
				attrs[name] = converted
			}
		}
		return record.Map(attrs), true
	default:
		return record.Value{}, false
	}
}
