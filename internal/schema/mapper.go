package schema

import (
	"database/sql/driver"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/rzpsarthak13/orius/internal/core"
)

// TypeMapper maps between catalog type names, data kinds and Go values.
type TypeMapper struct{}

// NewTypeMapper creates a new type mapper.
func NewTypeMapper() *TypeMapper {
	return &TypeMapper{}
}

// Firebird BLOB sub-type holding text.
const blobSubTypeText = 1

// KindForDBType resolves the data kind of a catalog column.
// subType is only consulted for BLOB columns.
func (tm *TypeMapper) KindForDBType(dbType string, subType int) (core.DataKind, error) {
	baseType := strings.ToUpper(strings.TrimSpace(dbType))
	if idx := strings.Index(baseType, "("); idx > 0 {
		baseType = strings.TrimSpace(baseType[:idx])
	}

	switch baseType {
	case "SMALLINT", "INTEGER", "INT":
		return core.KindInteger, nil
	case "BIGINT", "INT64":
		return core.KindBigInt, nil
	case "FLOAT", "DOUBLE", "DOUBLE PRECISION", "NUMERIC", "DECIMAL":
		return core.KindDecimal, nil
	case "CHAR", "VARCHAR", "VARYING", "CSTRING", "TEXT":
		return core.KindString, nil
	case "DATE":
		return core.KindDate, nil
	case "TIME", "TIMESTAMP":
		return core.KindTimestamp, nil
	case "BLOB":
		if subType == blobSubTypeText {
			return core.KindText, nil
		}
		return core.KindBinary, nil
	default:
		return core.ParseDataKind(baseType)
	}
}

// Coerce validates value against kind and returns it in the canonical Go
// shape for that kind. nil is accepted for every kind.
//
//	integer, bigint -> int64
//	decimal         -> float64, int64 or a numeric string
//	string, text    -> string
//	binary          -> []byte
//	date, timestamp -> time.Time
func (tm *TypeMapper) Coerce(kind core.DataKind, value interface{}) (interface{}, error) {
	if value == nil {
		return nil, nil
	}

	if valuer, ok := value.(driver.Valuer); ok {
		v, err := valuer.Value()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", core.ErrInvalidValue, err)
		}
		if v == nil {
			return nil, nil
		}
		value = v
	}

	switch kind {
	case core.KindInteger:
		n, err := tm.toInt64(value)
		if err != nil {
			return nil, err
		}
		if n < math.MinInt32 || n > math.MaxInt32 {
			return nil, fmt.Errorf("%w: %d overflows INTEGER", core.ErrInvalidValue, n)
		}
		return n, nil
	case core.KindBigInt:
		return tm.toInt64(value)
	case core.KindDecimal:
		return tm.toDecimal(value)
	case core.KindString, core.KindText:
		return tm.toString(value)
	case core.KindBinary:
		return tm.toBytes(value)
	case core.KindDate, core.KindTimestamp:
		return tm.toTime(value)
	default:
		return nil, fmt.Errorf("%w: unsupported kind %s", core.ErrInvalidValue, kind)
	}
}

// Normalize converts a value read back from the database into the shape
// Coerce would produce, when that is possible without loss.
// Values it does not recognize are returned unchanged.
func (tm *TypeMapper) Normalize(kind core.DataKind, value interface{}) interface{} {
	if value == nil {
		return nil
	}

	switch kind {
	case core.KindInteger, core.KindBigInt:
		if b, ok := value.([]byte); ok {
			value = string(b)
		}
		if n, err := tm.toInt64(value); err == nil {
			return n
		}
	case core.KindDecimal:
		if b, ok := value.([]byte); ok {
			return string(b)
		}
		if f, ok := value.(float32); ok {
			return float64(f)
		}
	case core.KindString, core.KindText:
		if b, ok := value.([]byte); ok {
			return string(b)
		}
	case core.KindBinary:
		if s, ok := value.(string); ok {
			return []byte(s)
		}
	}
	return value
}

// Helper conversion functions

func (tm *TypeMapper) toInt64(value interface{}) (int64, error) {
	switch v := value.(type) {
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case int8:
		return int64(v), nil
	case int16:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case uint:
		return tm.fromUint(uint64(v))
	case uint8:
		return int64(v), nil
	case uint16:
		return int64(v), nil
	case uint32:
		return int64(v), nil
	case uint64:
		return tm.fromUint(v)
	case float32:
		return tm.fromFloat(float64(v))
	case float64:
		return tm.fromFloat(v)
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: cannot convert %q to an integer", core.ErrInvalidValue, v)
		}
		return i, nil
	default:
		return 0, fmt.Errorf("%w: cannot convert %T to an integer", core.ErrInvalidValue, value)
	}
}

func (tm *TypeMapper) fromUint(v uint64) (int64, error) {
	if v > math.MaxInt64 {
		return 0, fmt.Errorf("%w: %d overflows BIGINT", core.ErrInvalidValue, v)
	}
	return int64(v), nil
}

func (tm *TypeMapper) fromFloat(v float64) (int64, error) {
	if v != math.Trunc(v) || math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, fmt.Errorf("%w: %v is not a whole number", core.ErrInvalidValue, v)
	}
	if v < math.MinInt64 || v >= math.MaxInt64 {
		return 0, fmt.Errorf("%w: %v overflows BIGINT", core.ErrInvalidValue, v)
	}
	return int64(v), nil
}

func (tm *TypeMapper) toDecimal(value interface{}) (interface{}, error) {
	switch v := value.(type) {
	case float64:
		if math.IsInf(v, 0) || math.IsNaN(v) {
			return nil, fmt.Errorf("%w: %v is not a finite decimal", core.ErrInvalidValue, v)
		}
		return v, nil
	case float32:
		return tm.toDecimal(float64(v))
	case string:
		// Kept as text to preserve precision.
		s := strings.TrimSpace(v)
		if _, err := strconv.ParseFloat(s, 64); err != nil {
			return nil, fmt.Errorf("%w: %q is not a decimal", core.ErrInvalidValue, v)
		}
		return s, nil
	default:
		return tm.toInt64(value)
	}
}

func (tm *TypeMapper) toString(value interface{}) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	default:
		return "", fmt.Errorf("%w: expected text, got %T", core.ErrInvalidValue, value)
	}
}

func (tm *TypeMapper) toBytes(value interface{}) ([]byte, error) {
	switch v := value.(type) {
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return nil, fmt.Errorf("%w: expected bytes, got %T", core.ErrInvalidValue, value)
	}
}

func (tm *TypeMapper) toTime(value interface{}) (time.Time, error) {
	switch v := value.(type) {
	case time.Time:
		return v, nil
	case *time.Time:
		if v == nil {
			return time.Time{}, fmt.Errorf("%w: nil time pointer", core.ErrInvalidValue)
		}
		return *v, nil
	case string:
		formats := []string{
			time.RFC3339Nano,
			time.RFC3339,
			"2006-01-02 15:04:05",
			"2006-01-02T15:04:05",
			"2006-01-02",
		}
		for _, format := range formats {
			if t, err := time.Parse(format, v); err == nil {
				return t, nil
			}
		}
		return time.Time{}, fmt.Errorf("%w: cannot parse time string %q", core.ErrInvalidValue, v)
	default:
		return time.Time{}, fmt.Errorf("%w: expected time, got %T", core.ErrInvalidValue, value)
	}
}
