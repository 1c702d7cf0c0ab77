package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"regexp"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/rzpsarthak13/orius/internal/core"
	"github.com/rzpsarthak13/orius/internal/schema"
)

const columnsSQL = `SELECT
    TRIM(R.RDB$RELATION_NAME) AS TABLE_NAME,
    TRIM(RF.RDB$FIELD_NAME) AS COLUMN_NAME,
    CASE F.RDB$FIELD_TYPE
        WHEN 7 THEN 'SMALLINT'
        WHEN 8 THEN 'INTEGER'
        WHEN 10 THEN 'FLOAT'
        WHEN 12 THEN 'DATE'
        WHEN 13 THEN 'TIME'
        WHEN 14 THEN 'CHAR'
        WHEN 16 THEN 'BIGINT'
        WHEN 27 THEN 'DOUBLE'
        WHEN 35 THEN 'TIMESTAMP'
        WHEN 37 THEN 'VARCHAR'
        WHEN 261 THEN 'BLOB'
        ELSE 'OTHER'
    END AS TYPE_NAME,
    COALESCE(F.RDB$FIELD_SUB_TYPE, 0) AS SUB_TYPE,
    F.RDB$FIELD_LENGTH AS FIELD_LENGTH,
    COALESCE(F.RDB$FIELD_PRECISION, 0) AS FIELD_PRECISION,
    ABS(COALESCE(F.RDB$FIELD_SCALE, 0)) AS FIELD_SCALE,
    COALESCE(RF.RDB$NULL_FLAG, 0) AS REQUIRED,
    COALESCE(RF.RDB$IDENTITY_TYPE, 0) AS IS_IDENTITY,
    TRIM(RF.RDB$DEFAULT_SOURCE) AS DEFAULT_SOURCE
FROM RDB$RELATIONS R
JOIN RDB$RELATION_FIELDS RF ON R.RDB$RELATION_NAME = RF.RDB$RELATION_NAME
JOIN RDB$FIELDS F ON RF.RDB$FIELD_SOURCE = F.RDB$FIELD_NAME
WHERE R.RDB$SYSTEM_FLAG = 0
  AND R.RDB$RELATION_TYPE = 0
  AND R.RDB$VIEW_BLR IS NULL
ORDER BY R.RDB$RELATION_NAME, RF.RDB$FIELD_POSITION`

const foreignKeysSQL = `SELECT
    TRIM(RC.RDB$RELATION_NAME) AS SOURCE_TABLE,
    TRIM(ISEG.RDB$FIELD_NAME) AS SOURCE_COLUMN,
    TRIM(RCREF.RDB$RELATION_NAME) AS TARGET_TABLE,
    TRIM(ISEGREF.RDB$FIELD_NAME) AS TARGET_COLUMN
FROM RDB$RELATION_CONSTRAINTS RC
JOIN RDB$REF_CONSTRAINTS REFC ON RC.RDB$CONSTRAINT_NAME = REFC.RDB$CONSTRAINT_NAME
JOIN RDB$RELATION_CONSTRAINTS RCREF ON REFC.RDB$CONST_NAME_UQ = RCREF.RDB$CONSTRAINT_NAME
JOIN RDB$INDEX_SEGMENTS ISEG ON RC.RDB$INDEX_NAME = ISEG.RDB$INDEX_NAME
JOIN RDB$INDEX_SEGMENTS ISEGREF ON RCREF.RDB$INDEX_NAME = ISEGREF.RDB$INDEX_NAME
WHERE RC.RDB$CONSTRAINT_TYPE = 'FOREIGN KEY'`

const primaryKeysSQL = `SELECT
    TRIM(RC.RDB$RELATION_NAME) AS TABLE_NAME,
    TRIM(ISEG.RDB$FIELD_NAME) AS COLUMN_NAME
FROM RDB$RELATION_CONSTRAINTS RC
JOIN RDB$INDEX_SEGMENTS ISEG ON RC.RDB$INDEX_NAME = ISEG.RDB$INDEX_NAME
WHERE RC.RDB$CONSTRAINT_TYPE = 'PRIMARY KEY'`

var defaultKeyword = regexp.MustCompile(`(?i)^DEFAULT\s+`)

// Reference is the target of a foreign key.
type Reference struct {
	Table  string `json:"table"`
	Column string `json:"column"`
}

// ColumnMetadata describes one column as the catalog reports it.
type ColumnMetadata struct {
	Name       string     `json:"name"`
	Type       string     `json:"type"`
	SubType    int64      `json:"sub_type"`
	Length     int64      `json:"length"`
	Precision  int64      `json:"precision"`
	Scale      int64      `json:"scale"`
	Required   bool       `json:"required"`
	Identity   bool       `json:"identity"`
	Default    *string    `json:"default_value"`
	PrimaryKey bool       `json:"primary_key"`
	ForeignKey *Reference `json:"fk"`
}

// TableMetadata lists the columns of one table in field order.
type TableMetadata struct {
	Table   string           `json:"table"`
	Columns []ColumnMetadata `json:"columns"`
}

// Column returns the named column, or nil.
func (t *TableMetadata) Column(name string) *ColumnMetadata {
	for i := range t.Columns {
		if t.Columns[i].Name == name {
			return &t.Columns[i]
		}
	}
	return nil
}

// Metadata maps table names to their metadata.
type Metadata map[string]*TableMetadata

// Tables returns the table names in order.
func (md Metadata) Tables() []string {
	names := make([]string, 0, len(md))
	for name := range md {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Metadata reads columns, primary keys and foreign keys of every user
// table. The three catalog queries run concurrently.
func (in *Inspector) Metadata(ctx context.Context) (Metadata, error) {
	var columns, pks, fks []core.Row

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, err := in.query(gctx, columnsSQL)
		if err != nil {
			return fmt.Errorf("failed to read columns: %w", err)
		}
		columns = rows
		return nil
	})
	g.Go(func() error {
		rows, err := in.query(gctx, primaryKeysSQL)
		if err != nil {
			return fmt.Errorf("failed to read primary keys: %w", err)
		}
		pks = rows
		return nil
	})
	g.Go(func() error {
		rows, err := in.query(gctx, foreignKeysSQL)
		if err != nil {
			return fmt.Errorf("failed to read foreign keys: %w", err)
		}
		fks = rows
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	md := make(Metadata)
	identities := 0
	for _, row := range columns {
		tableName := in.text(row["TABLE_NAME"])
		table, ok := md[tableName]
		if !ok {
			table = &TableMetadata{Table: tableName}
			md[tableName] = table
		}

		col := ColumnMetadata{
			Name:      in.text(row["COLUMN_NAME"]),
			Type:      in.text(row["TYPE_NAME"]),
			SubType:   in.integer(row["SUB_TYPE"]),
			Length:    in.integer(row["FIELD_LENGTH"]),
			Precision: in.integer(row["FIELD_PRECISION"]),
			Scale:     in.integer(row["FIELD_SCALE"]),
			Required:  in.integer(row["REQUIRED"]) == 1,
			Identity:  in.integer(row["IS_IDENTITY"]) > 0,
		}
		if def := strings.TrimSpace(defaultKeyword.ReplaceAllString(in.text(row["DEFAULT_SOURCE"]), "")); def != "" {
			col.Default = &def
		}
		if col.Identity {
			identities++
		}
		table.Columns = append(table.Columns, col)
	}

	for _, row := range pks {
		if table, ok := md[in.text(row["TABLE_NAME"])]; ok {
			if col := table.Column(in.text(row["COLUMN_NAME"])); col != nil {
				col.PrimaryKey = true
			}
		}
	}

	for _, row := range fks {
		if table, ok := md[in.text(row["SOURCE_TABLE"])]; ok {
			if col := table.Column(in.text(row["SOURCE_COLUMN"])); col != nil {
				col.ForeignKey = &Reference{
					Table:  in.text(row["TARGET_TABLE"]),
					Column: in.text(row["TARGET_COLUMN"]),
				}
			}
		}
	}

	log.Printf("[CATALOG] Read metadata of %d table(s), %d identity column(s)", len(md), identities)
	return md, nil
}

// ExportJSON writes md as indented JSON keyed by table name.
func ExportJSON(w io.Writer, md Metadata) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(md); err != nil {
		return fmt.Errorf("failed to encode metadata: %w", err)
	}
	return nil
}

// SchemaFor builds a schema descriptor for table from catalog metadata.
// When sequence is set, the primary key draws its values from it.
// Identity columns are left to the database.
func SchemaFor(md Metadata, table string, sequence string) (*core.Schema, error) {
	meta, ok := md[strings.ToUpper(table)]
	if !ok {
		return nil, fmt.Errorf("%w: table %s not found in metadata", core.ErrInvalidSchema, table)
	}

	columns := make([]core.Column, 0, len(meta.Columns))
	for _, c := range meta.Columns {
		kind, err := kindOf(c)
		if err != nil {
			return nil, fmt.Errorf("column %s.%s: %w", meta.Table, c.Name, err)
		}
		col := core.Column{
			Name:       c.Name,
			Kind:       kind,
			PrimaryKey: c.PrimaryKey,
			Nullable:   !c.Required,
		}
		if c.Default != nil {
			col.Default = *c.Default
		}
		if c.PrimaryKey && sequence != "" {
			col.AutoIncrement = true
			col.Sequence = strings.ToUpper(sequence)
		}
		columns = append(columns, col)
	}
	return core.NewSchema(meta.Table, columns...)
}

// kindOf maps a catalog column to a data kind. Scaled integer storage is
// how the catalog reports NUMERIC and DECIMAL. Types outside the decoded
// set are treated as text.
func kindOf(c ColumnMetadata) (core.DataKind, error) {
	switch c.Type {
	case "SMALLINT", "INTEGER", "BIGINT":
		if c.Scale > 0 {
			return core.KindDecimal, nil
		}
	case "OTHER", "":
		return core.KindString, nil
	}
	return schema.NewTypeMapper().KindForDBType(c.Type, int(c.SubType))
}
