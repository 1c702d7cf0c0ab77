package core

import (
	"fmt"
	"strings"
)

// DataKind is the declared kind of a column.
type DataKind int

const (
	kindUnknown DataKind = iota

	// KindString is a VARCHAR column.
	KindString

	// KindInteger is a 32-bit INTEGER column.
	KindInteger

	// KindBigInt is a 64-bit BIGINT column.
	KindBigInt

	// KindText is a long-text BLOB, hydrated as a UTF-8 string.
	KindText

	// KindBinary is a binary BLOB, hydrated as raw bytes.
	KindBinary

	// KindDate is a DATE column.
	KindDate

	// KindTimestamp is a TIMESTAMP column.
	KindTimestamp

	// KindDecimal is a DECIMAL/NUMERIC column.
	KindDecimal
)

var kindNames = map[DataKind]string{
	KindString:    "VARCHAR",
	KindInteger:   "INTEGER",
	KindBigInt:    "BIGINT",
	KindText:      "BLOB_TEXT",
	KindBinary:    "BLOB_BIN",
	KindDate:      "DATE",
	KindTimestamp: "TIMESTAMP",
	KindDecimal:   "DECIMAL",
}

var kindAliases = map[string]DataKind{
	"VARCHAR":   KindString,
	"STRING":    KindString,
	"INTEGER":   KindInteger,
	"INT":       KindInteger,
	"BIGINT":    KindBigInt,
	"BLOB_TEXT": KindText,
	"TEXT":      KindText,
	"BLOB_BIN":  KindBinary,
	"BINARY":    KindBinary,
	"BLOB":      KindBinary,
	"DATE":      KindDate,
	"TIMESTAMP": KindTimestamp,
	"DECIMAL":   KindDecimal,
	"NUMERIC":   KindDecimal,
}

// String returns the dialect type name of the kind.
func (k DataKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "UNKNOWN"
}

// Valid reports whether k is one of the declared kinds.
func (k DataKind) Valid() bool {
	_, ok := kindNames[k]
	return ok
}

// IsBlob reports whether values of this kind arrive as lazy blob handles.
func (k DataKind) IsBlob() bool {
	return k == KindText || k == KindBinary
}

// IsInteger reports whether the kind holds whole numbers.
func (k DataKind) IsInteger() bool {
	return k == KindInteger || k == KindBigInt
}

// ParseDataKind resolves a kind from its type name or one of its aliases.
func ParseDataKind(name string) (DataKind, error) {
	if k, ok := kindAliases[strings.ToUpper(strings.TrimSpace(name))]; ok {
		return k, nil
	}
	return kindUnknown, fmt.Errorf("%w: unknown data kind %q", ErrInvalidSchema, name)
}

// MarshalText implements encoding.TextMarshaler.
func (k DataKind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("%w: invalid data kind %d", ErrInvalidSchema, int(k))
	}
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler, so kinds can be
// written by name in YAML and JSON model definitions.
func (k *DataKind) UnmarshalText(text []byte) error {
	parsed, err := ParseDataKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
