// Package exchange encodes the key sets of sorted indexes into frames that
// nodes exchange before merging pre-sorted partial index results.
package exchange

import (
	"fmt"

	"github.com/golang/snappy"
	"github.com/spaolacci/murmur3"
	"google.golang.org/protobuf/encoding/protowire"

	arkerrors "github.com/arkilian/sortedkeys/internal/errors"
	"github.com/arkilian/sortedkeys/internal/index"
)

// Frame flags (first byte of every frame).
const (
	flagRaw    byte = 0x00
	flagSnappy byte = 0x01
)

// Body field numbers.
const (
	fieldIndexName protowire.Number = 1
	fieldColumn    protowire.Number = 2

	fieldColumnName protowire.Number = 1
	fieldColumnDef  protowire.Number = 2
)

// DefaultCompressThreshold is the body size from which frames are compressed.
const DefaultCompressThreshold = 512

// Options controls frame encoding.
type Options struct {
	// CompressThreshold is the minimum body size in bytes for snappy
	// compression. Zero uses DefaultCompressThreshold, negative disables it.
	CompressThreshold int
}

func (o Options) threshold() int {
	if o.CompressThreshold == 0 {
		return DefaultCompressThreshold
	}
	return o.CompressThreshold
}

// Encode builds a frame carrying the reduced key definitions of an index.
// The format is:
//   - 1 byte: flags (0x00 raw, 0x01 snappy body)
//   - body: protobuf wire encoding of
//     { 1: index name, 2: repeated { 1: column name, 2: key definition } }
func Encode(name string, set *index.KeySet, opts Options) ([]byte, error) {
	if name == "" || set.Len() == 0 {
		return nil, arkerrors.NewEncodingError(arkerrors.CodeMalformedFrame,
			fmt.Sprintf("exchange: index %q needs a name and at least one key column", name))
	}

	body, err := encodeBody(name, set)
	if err != nil {
		return nil, err
	}

	if t := opts.threshold(); t > 0 && len(body) >= t {
		compressed := snappy.Encode(nil, body)
		frame := make([]byte, 1+len(compressed))
		frame[0] = flagSnappy
		copy(frame[1:], compressed)
		return frame, nil
	}

	frame := make([]byte, 1+len(body))
	frame[0] = flagRaw
	copy(frame[1:], body)
	return frame, nil
}

func encodeBody(name string, set *index.KeySet) ([]byte, error) {
	b := protowire.AppendTag(nil, fieldIndexName, protowire.BytesType)
	b = protowire.AppendString(b, name)

	var col []byte
	for i := 0; i < set.Len(); i++ {
		kc := set.Column(i)

		col = col[:0]
		col = protowire.AppendTag(col, fieldColumnName, protowire.BytesType)
		col = protowire.AppendString(col, kc.Name)

		def, err := kc.Def.MarshalBinary()
		if err != nil {
			return nil, fmt.Errorf("exchange: column %q: %w", kc.Name, err)
		}
		col = protowire.AppendTag(col, fieldColumnDef, protowire.BytesType)
		col = protowire.AppendBytes(col, def)

		b = protowire.AppendTag(b, fieldColumn, protowire.BytesType)
		b = protowire.AppendBytes(b, col)
	}
	return b, nil
}

// Decode parses a frame produced by Encode. The returned key definitions
// carry only type and sort direction. Unknown fields are skipped; a frame
// without an index name or without key columns is malformed.
func Decode(frame []byte) (string, *index.KeySet, error) {
	if len(frame) == 0 {
		return "", nil, arkerrors.NewEncodingError(arkerrors.CodeTruncatedInput, "exchange: empty frame")
	}

	body := frame[1:]
	switch frame[0] {
	case flagRaw:
	case flagSnappy:
		var err error
		body, err = snappy.Decode(nil, body)
		if err != nil {
			return "", nil, arkerrors.WrapEncodingError(arkerrors.CodeMalformedFrame, "exchange: snappy decode failed", err)
		}
	default:
		return "", nil, arkerrors.NewEncodingError(arkerrors.CodeMalformedFrame,
			fmt.Sprintf("exchange: unknown frame flags 0x%02x", frame[0]))
	}

	var (
		name    string
		columns []index.KeyColumn
	)
	err := walkFields(body, func(num protowire.Number, typ protowire.Type, v []byte) error {
		switch {
		case num == fieldIndexName && typ == protowire.BytesType:
			name = string(v)
		case num == fieldColumn && typ == protowire.BytesType:
			kc, err := decodeColumn(v)
			if err != nil {
				return err
			}
			columns = append(columns, kc)
		}
		return nil
	})
	if err != nil {
		return "", nil, err
	}
	if name == "" {
		return "", nil, arkerrors.NewEncodingError(arkerrors.CodeMalformedFrame, "exchange: frame has no index name")
	}
	if len(columns) == 0 {
		return "", nil, arkerrors.NewEncodingError(arkerrors.CodeMalformedFrame,
			fmt.Sprintf("exchange: frame for index %q has no key columns", name))
	}

	return name, index.NewKeySet(columns), nil
}

func decodeColumn(b []byte) (index.KeyColumn, error) {
	var (
		kc     index.KeyColumn
		hasDef bool
	)
	err := walkFields(b, func(num protowire.Number, typ protowire.Type, v []byte) error {
		switch {
		case num == fieldColumnName && typ == protowire.BytesType:
			kc.Name = string(v)
		case num == fieldColumnDef && typ == protowire.BytesType:
			def, err := index.DecodeKeyDefinition(v)
			if err != nil {
				return fmt.Errorf("exchange: column %q: %w", kc.Name, err)
			}
			kc.Def = def
			hasDef = true
		}
		return nil
	})
	if err != nil {
		return index.KeyColumn{}, err
	}
	if !hasDef {
		return index.KeyColumn{}, arkerrors.NewEncodingError(arkerrors.CodeMalformedFrame,
			fmt.Sprintf("exchange: column %q has no key definition", kc.Name))
	}
	return kc, nil
}

// walkFields calls fn for every field of a protobuf message. For
// length-delimited fields v is the payload, otherwise v is nil.
func walkFields(b []byte, fn func(num protowire.Number, typ protowire.Type, v []byte) error) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return arkerrors.WrapEncodingError(arkerrors.CodeMalformedFrame, "exchange: bad tag", protowire.ParseError(n))
		}
		b = b[n:]

		var v []byte
		if typ == protowire.BytesType {
			v, n = protowire.ConsumeBytes(b)
		} else {
			n = protowire.ConsumeFieldValue(num, typ, b)
		}
		if n < 0 {
			return arkerrors.WrapEncodingError(arkerrors.CodeMalformedFrame,
				fmt.Sprintf("exchange: bad value for field %d", num), protowire.ParseError(n))
		}
		b = b[n:]

		if err := fn(num, typ, v); err != nil {
			return err
		}
	}
	return nil
}

// Fingerprint hashes the wire form of every key definition in order. Two
// participants agree on the key layout for a merge iff their fingerprints
// match; column names, precision and null placement do not contribute.
func Fingerprint(set *index.KeySet) (uint64, error) {
	buf := make([]byte, 0, set.Len()*index.KeyDefinitionWireSize)
	for i := 0; i < set.Len(); i++ {
		var err error
		buf, err = set.Column(i).Def.AppendBinary(buf)
		if err != nil {
			return 0, err
		}
	}
	return murmur3.Sum64(buf), nil
}
