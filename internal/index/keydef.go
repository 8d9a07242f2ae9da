// Package index describes the key columns of sorted indexes: their type,
// collation and precision, and the reduced wire form exchanged between nodes
// that merge pre-sorted partial index results.
package index

import (
	"encoding/binary"
	"fmt"
	"math"

	arkerrors "github.com/arkilian/sortedkeys/internal/errors"
	"github.com/arkilian/sortedkeys/pkg/types"
)

// KeyDefinitionWireSize is the encoded size of a KeyDefinition:
//   - 4 bytes: key type code (int32, big-endian)
//   - 1 byte:  sort direction tag
const KeyDefinitionWireSize = 5

// UnboundedPrecision marks a column without a fixed precision bound.
const UnboundedPrecision int32 = -1

// Sort direction tags on the wire. These values are shared by every node in
// the cluster and must never be renumbered.
const (
	tagAsc  byte = 0
	tagDesc byte = 1
)

// KeyDefinition describes a single key column of a sorted index.
//
// A KeyDefinition is immutable once constructed by NewKeyDefinition and may be
// shared between goroutines. The zero value is only a target for
// UnmarshalBinary and must be fully decoded before it is published.
type KeyDefinition struct {
	typ       types.KeyType
	order     Order
	precision int32
}

// NewKeyDefinition creates a key definition. Precision values at or above
// math.MaxInt32 saturate to UnboundedPrecision instead of wrapping.
func NewKeyDefinition(typ types.KeyType, order Order, precision int64) *KeyDefinition {
	d := &KeyDefinition{
		typ:   typ,
		order: order,
	}
	if precision >= math.MaxInt32 {
		d.precision = UnboundedPrecision
	} else {
		d.precision = int32(precision)
	}
	return d
}

// Order returns the collation of the key column.
func (d *KeyDefinition) Order() Order {
	return d.order
}

// Type returns the key type code.
func (d *KeyDefinition) Type() types.KeyType {
	return d.typ
}

// Precision returns the precision bound, UnboundedPrecision, or 0 for a
// definition received over the wire.
func (d *KeyDefinition) Precision() int32 {
	return d.precision
}

// Validate reports whether key may be stored under this definition.
// The null key is valid for every type.
func (d *KeyDefinition) Validate(key types.IndexKey) bool {
	if key.IsNull() {
		return true
	}
	return d.typ == key.Type()
}

// String implements fmt.Stringer.
func (d *KeyDefinition) String() string {
	return fmt.Sprintf("%s %s precision=%d", d.typ, d.order, d.precision)
}

// MarshalBinary encodes the parts of the definition a remote merge needs:
// the type code and the sort direction. Precision and null placement are
// not transferred.
func (d *KeyDefinition) MarshalBinary() ([]byte, error) {
	return d.AppendBinary(make([]byte, 0, KeyDefinitionWireSize))
}

// AppendBinary appends the wire form of d to b.
func (d *KeyDefinition) AppendBinary(b []byte) ([]byte, error) {
	if !d.order.IsSet() {
		return nil, arkerrors.NewEncodingError(arkerrors.CodeOrderUnset,
			"index: cannot encode key definition without sort order")
	}

	var tag byte
	switch d.order.Sort {
	case SortAsc:
		tag = tagAsc
	case SortDesc:
		tag = tagDesc
	default:
		return nil, arkerrors.NewEncodingError(arkerrors.CodeUnknownSortOrder,
			fmt.Sprintf("index: cannot encode sort order %d", int(d.order.Sort)))
	}

	b = binary.BigEndian.AppendUint32(b, uint32(d.typ))
	return append(b, tag), nil
}

// UnmarshalBinary decodes a wire form produced by MarshalBinary. The decoded
// order has NullsUnspecified placement and the precision is 0. On error d is
// left unchanged.
func (d *KeyDefinition) UnmarshalBinary(data []byte) error {
	if len(data) < KeyDefinitionWireSize {
		return arkerrors.NewEncodingError(arkerrors.CodeTruncatedInput,
			fmt.Sprintf("index: key definition needs %d bytes, got %d", KeyDefinitionWireSize, len(data)))
	}
	if len(data) > KeyDefinitionWireSize {
		return arkerrors.NewEncodingError(arkerrors.CodeTrailingBytes,
			fmt.Sprintf("index: key definition has %d trailing bytes", len(data)-KeyDefinitionWireSize))
	}

	typ := types.KeyType(int32(binary.BigEndian.Uint32(data[0:4])))

	var sort SortOrder
	switch data[4] {
	case tagAsc:
		sort = SortAsc
	case tagDesc:
		sort = SortDesc
	default:
		return arkerrors.NewEncodingError(arkerrors.CodeUnknownSortOrder,
			fmt.Sprintf("index: unknown sort order tag %d", data[4]))
	}

	d.typ = typ
	d.order = Order{Sort: sort, Nulls: NullsUnspecified}
	d.precision = 0
	return nil
}

// DecodeKeyDefinition decodes a key definition received from another node.
func DecodeKeyDefinition(data []byte) (*KeyDefinition, error) {
	d := &KeyDefinition{}
	if err := d.UnmarshalBinary(data); err != nil {
		return nil, err
	}
	return d, nil
}
