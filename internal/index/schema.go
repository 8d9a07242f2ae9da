package index

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	arkerrors "github.com/arkilian/sortedkeys/internal/errors"
	"github.com/arkilian/sortedkeys/pkg/types"
)

// sqlKeyTypes maps SQL type names to key type codes.
var sqlKeyTypes = map[string]types.KeyType{
	"BOOLEAN":   types.KeyTypeBoolean,
	"BOOL":      types.KeyTypeBoolean,
	"TINYINT":   types.KeyTypeByte,
	"SMALLINT":  types.KeyTypeShort,
	"INT":       types.KeyTypeInt,
	"INTEGER":   types.KeyTypeInt,
	"BIGINT":    types.KeyTypeLong,
	"DECIMAL":   types.KeyTypeDecimal,
	"NUMERIC":   types.KeyTypeDecimal,
	"DOUBLE":    types.KeyTypeDouble,
	"REAL":      types.KeyTypeFloat,
	"FLOAT":     types.KeyTypeFloat,
	"TIME":      types.KeyTypeTime,
	"DATE":      types.KeyTypeDate,
	"TIMESTAMP": types.KeyTypeTimestamp,
	"BINARY":    types.KeyTypeBytes,
	"VARBINARY": types.KeyTypeBytes,
	"BYTES":     types.KeyTypeBytes,
	"BLOB":      types.KeyTypeBlob,
	"CHAR":      types.KeyTypeStringFixed,
	"VARCHAR":   types.KeyTypeString,
	"TEXT":      types.KeyTypeString,
	"CLOB":      types.KeyTypeClob,
	"UUID":      types.KeyTypeUUID,
	"OTHER":     types.KeyTypeJavaObject,
	"GEOMETRY":  types.KeyTypeGeometry,
	"ENUM":      types.KeyTypeEnum,

	"VARCHAR_IGNORECASE":       types.KeyTypeStringIgnoreCase,
	"TIMESTAMP WITH TIME ZONE": types.KeyTypeTimestampTZ,
}

// variableLength lists key types whose precision is a length bound.
var variableLength = map[types.KeyType]bool{
	types.KeyTypeString:           true,
	types.KeyTypeStringIgnoreCase: true,
	types.KeyTypeStringFixed:      true,
	types.KeyTypeBytes:            true,
	types.KeyTypeBlob:             true,
	types.KeyTypeClob:             true,
	types.KeyTypeDecimal:          true,
}

// ParseSQLType splits a declared column type such as "VARCHAR(64)" or
// "DECIMAL(10, 2)" into its key type and the declared length (0 if none).
func ParseSQLType(decl string) (types.KeyType, int64, error) {
	name := strings.ToUpper(strings.TrimSpace(decl))
	var length int64

	if open := strings.IndexByte(name, '('); open >= 0 {
		end := strings.LastIndexByte(name, ')')
		if end < open || strings.TrimSpace(name[end+1:]) != "" {
			return types.KeyTypeUnknown, 0, fmt.Errorf("malformed type %q", decl)
		}
		args := strings.Split(name[open+1:end], ",")
		n, err := strconv.ParseInt(strings.TrimSpace(args[0]), 10, 64)
		if err != nil || n < 0 {
			return types.KeyTypeUnknown, 0, fmt.Errorf("malformed length in type %q", decl)
		}
		length = n
		name = strings.TrimSpace(name[:open])
	}

	name = strings.Join(strings.Fields(name), " ")
	typ, ok := sqlKeyTypes[name]
	if !ok {
		return types.KeyTypeUnknown, 0, fmt.Errorf("unsupported type %q", decl)
	}
	return typ, length, nil
}

// precisionInput derives the wide precision handed to NewKeyDefinition.
// Variable length columns without a declared bound are unbounded.
func precisionInput(col types.ColumnDef, typ types.KeyType, declared int64) int64 {
	switch {
	case col.Precision != 0:
		return col.Precision
	case declared != 0:
		return declared
	case variableLength[typ]:
		return math.MaxInt64
	default:
		return 0
	}
}

// BuildKeySet builds the key definitions of the named index from the schema.
func BuildKeySet(schema *types.Schema, indexName string) (*KeySet, error) {
	def, ok := schema.Index(indexName)
	if !ok {
		return nil, arkerrors.NewValidationError(arkerrors.CodeInvalidSchema,
			fmt.Sprintf("index: %q is not defined on table %q", indexName, schema.Table))
	}
	if len(def.Columns) == 0 {
		return nil, arkerrors.NewValidationError(arkerrors.CodeInvalidSchema,
			fmt.Sprintf("index: %q has no key columns", indexName))
	}

	columns := make([]KeyColumn, 0, len(def.Columns))
	for _, ic := range def.Columns {
		col, ok := schema.Column(ic.Name)
		if !ok {
			return nil, arkerrors.NewValidationError(arkerrors.CodeUnknownColumn,
				fmt.Sprintf("index: %q references unknown column %q", indexName, ic.Name))
		}

		typ, declared, err := ParseSQLType(col.Type)
		if err != nil {
			return nil, arkerrors.Wrap(arkerrors.ErrCategoryValidation, arkerrors.CodeUnsupportedType,
				fmt.Sprintf("index: column %q", col.Name), err)
		}

		nulls, err := ParseNullsOrder(ic.Nulls)
		if err != nil {
			return nil, arkerrors.Wrap(arkerrors.ErrCategoryValidation, arkerrors.CodeInvalidSchema,
				fmt.Sprintf("index: column %q", col.Name), err)
		}

		sort := SortAsc
		if ic.Desc {
			sort = SortDesc
		}

		columns = append(columns, KeyColumn{
			Name: col.Name,
			Def:  NewKeyDefinition(typ, NewOrder(sort, nulls), precisionInput(col, typ, declared)),
		})
	}

	return NewKeySet(columns), nil
}
