// Package types provides the key values and schema declarations shared by
// the index and exchange packages.
package types

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// KeyType is the cluster-wide code of an index key's runtime type.
// The numbering is part of the inter-node contract and must not change.
type KeyType int32

const (
	KeyTypeUnknown          KeyType = -1
	KeyTypeNull             KeyType = 0
	KeyTypeBoolean          KeyType = 1
	KeyTypeByte             KeyType = 2
	KeyTypeShort            KeyType = 3
	KeyTypeInt              KeyType = 4
	KeyTypeLong             KeyType = 5
	KeyTypeDecimal          KeyType = 6
	KeyTypeDouble           KeyType = 7
	KeyTypeFloat            KeyType = 8
	KeyTypeTime             KeyType = 9
	KeyTypeDate             KeyType = 10
	KeyTypeTimestamp        KeyType = 11
	KeyTypeBytes            KeyType = 12
	KeyTypeString           KeyType = 13
	KeyTypeStringIgnoreCase KeyType = 14
	KeyTypeBlob             KeyType = 15
	KeyTypeClob             KeyType = 16
	KeyTypeArray            KeyType = 17
	KeyTypeResultSet        KeyType = 18
	KeyTypeJavaObject       KeyType = 19
	KeyTypeUUID             KeyType = 20
	KeyTypeStringFixed      KeyType = 21
	KeyTypeGeometry         KeyType = 22
	KeyTypeTimestampTZ      KeyType = 24
	KeyTypeEnum             KeyType = 25
)

var keyTypeNames = map[KeyType]string{
	KeyTypeUnknown:          "UNKNOWN",
	KeyTypeNull:             "NULL",
	KeyTypeBoolean:          "BOOLEAN",
	KeyTypeByte:             "BYTE",
	KeyTypeShort:            "SHORT",
	KeyTypeInt:              "INT",
	KeyTypeLong:             "LONG",
	KeyTypeDecimal:          "DECIMAL",
	KeyTypeDouble:           "DOUBLE",
	KeyTypeFloat:            "FLOAT",
	KeyTypeTime:             "TIME",
	KeyTypeDate:             "DATE",
	KeyTypeTimestamp:        "TIMESTAMP",
	KeyTypeBytes:            "BYTES",
	KeyTypeString:           "STRING",
	KeyTypeStringIgnoreCase: "STRING_IGNORECASE",
	KeyTypeBlob:             "BLOB",
	KeyTypeClob:             "CLOB",
	KeyTypeArray:            "ARRAY",
	KeyTypeResultSet:        "RESULT_SET",
	KeyTypeJavaObject:       "JAVA_OBJECT",
	KeyTypeUUID:             "UUID",
	KeyTypeStringFixed:      "STRING_FIXED",
	KeyTypeGeometry:         "GEOMETRY",
	KeyTypeTimestampTZ:      "TIMESTAMP_TZ",
	KeyTypeEnum:             "ENUM",
}

// Known reports whether t is a member of the key type enumeration.
func (t KeyType) Known() bool {
	_, ok := keyTypeNames[t]
	return ok
}

// String returns the enumeration name, or the numeric code for unknown values.
func (t KeyType) String() string {
	if name, ok := keyTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("KeyType(%d)", int32(t))
}

// IndexKey is a single key value stored in or looked up from a sorted index.
// The zero value is the null key.
type IndexKey struct {
	typ   KeyType
	value interface{}
}

// NullKey is the key that carries no value. It is valid against any key type.
var NullKey = IndexKey{}

// IsNull reports whether k is the null variant.
func (k IndexKey) IsNull() bool {
	return k.typ == KeyTypeNull
}

// Type returns the runtime type code of the key.
func (k IndexKey) Type() KeyType {
	return k.typ
}

// Value returns the underlying Go value, nil for the null key.
func (k IndexKey) Value() interface{} {
	return k.value
}

// String implements fmt.Stringer.
func (k IndexKey) String() string {
	if k.IsNull() {
		return "NULL"
	}
	return fmt.Sprintf("%s(%v)", k.typ, k.value)
}

// BoolKey returns a BOOLEAN key.
func BoolKey(v bool) IndexKey { return IndexKey{typ: KeyTypeBoolean, value: v} }

// ByteKey returns a BYTE key. BYTE is signed, hence int8.
func ByteKey(v int8) IndexKey { return IndexKey{typ: KeyTypeByte, value: v} }

// ShortKey returns a SHORT key.
func ShortKey(v int16) IndexKey { return IndexKey{typ: KeyTypeShort, value: v} }

// IntKey returns an INT key.
func IntKey(v int32) IndexKey { return IndexKey{typ: KeyTypeInt, value: v} }

// LongKey returns a LONG key.
func LongKey(v int64) IndexKey { return IndexKey{typ: KeyTypeLong, value: v} }

// FloatKey returns a FLOAT key.
func FloatKey(v float32) IndexKey { return IndexKey{typ: KeyTypeFloat, value: v} }

// DoubleKey returns a DOUBLE key.
func DoubleKey(v float64) IndexKey { return IndexKey{typ: KeyTypeDouble, value: v} }

// StringKey returns a STRING key.
func StringKey(v string) IndexKey { return IndexKey{typ: KeyTypeString, value: v} }

// UUIDKey returns a UUID key.
func UUIDKey(v uuid.UUID) IndexKey { return IndexKey{typ: KeyTypeUUID, value: v} }

// DecimalKey returns a DECIMAL key from its canonical decimal text, e.g. "12.50".
func DecimalKey(v string) IndexKey { return IndexKey{typ: KeyTypeDecimal, value: v} }

// DateKey returns a DATE key. Only the calendar day of v is meaningful.
func DateKey(v time.Time) IndexKey { return IndexKey{typ: KeyTypeDate, value: v} }

// TimeKey returns a TIME key holding the time of day as an offset from midnight.
func TimeKey(v time.Duration) IndexKey { return IndexKey{typ: KeyTypeTime, value: v} }

// TimestampKey stores the timestamp in UTC.
func TimestampKey(v time.Time) IndexKey {
	return IndexKey{typ: KeyTypeTimestamp, value: v.UTC()}
}

// BytesKey copies v so the key stays immutable.
func BytesKey(v []byte) IndexKey {
	cp := make([]byte, len(v))
	copy(cp, v)
	return IndexKey{typ: KeyTypeBytes, value: cp}
}
