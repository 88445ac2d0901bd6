package types

import (
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

var ErrInvalidSchema = errors.New("invalid relation schema")

// RelationMeta is the persisted schema of one relation table, stored as
// meta.json next to its heap and tree files.
type RelationMeta struct {
	ID           uuid.UUID    `json:"id"`
	Name         string       `json:"name"`
	ColumnNames  []string     `json:"column_names"`
	ColumnTypes  []ColumnType `json:"column_types"`
	Nullable     []int        `json:"nullable,omitempty"`
	SuperKeys    [][]int      `json:"super_keys,omitempty"`
	Indices      [][]int      `json:"indices,omitempty"`
	NextRowID    int64        `json:"next_row_id"`
	PageSize     int          `json:"page_size"`
	HeapPageSize int          `json:"heap_page_size,omitempty"`
}

func (m *RelationMeta) ColumnCount() int {
	return len(m.ColumnNames)
}

func (m *RelationMeta) IsNullable(col int) bool {
	for _, c := range m.Nullable {
		if c == col {
			return true
		}
	}
	return false
}

// ColumnIndex returns the position of a column by name, or -1.
func (m *RelationMeta) ColumnIndex(name string) int {
	for i, n := range m.ColumnNames {
		if n == name {
			return i
		}
	}
	return -1
}

// ProjectTypes returns the column types of a column subset.
func (m *RelationMeta) ProjectTypes(columns []int) []ColumnType {
	out := make([]ColumnType, len(columns))
	for i, c := range columns {
		out[i] = m.ColumnTypes[c]
	}
	return out
}

// Validate checks the schema is self-consistent. Superkey columns may not be
// nullable: nulls are stored as zero values and would collide.
func (m *RelationMeta) Validate() error {
	if m.Name == "" {
		return errors.Wrap(ErrInvalidSchema, "relation name is empty")
	}
	if len(m.ColumnNames) == 0 {
		return errors.Wrap(ErrInvalidSchema, "relation has no columns")
	}
	if len(m.ColumnNames) != len(m.ColumnTypes) {
		return errors.Wrapf(ErrInvalidSchema, "%d column names but %d column types",
			len(m.ColumnNames), len(m.ColumnTypes))
	}
	seen := make(map[string]bool, len(m.ColumnNames))
	for i, n := range m.ColumnNames {
		if n == "" || seen[n] {
			return errors.Wrapf(ErrInvalidSchema, "column %d has an empty or duplicate name %q", i, n)
		}
		seen[n] = true
		if !m.ColumnTypes[i].Valid() {
			return errors.Wrapf(ErrUnknownColumnType, "column %q", n)
		}
	}
	if err := m.checkColumnSet("nullable", m.Nullable); err != nil {
		return err
	}
	for i, sk := range m.SuperKeys {
		if len(sk) == 0 {
			return errors.Wrapf(ErrInvalidSchema, "superkey %d is empty", i)
		}
		if err := m.checkColumnSet("superkey", sk); err != nil {
			return err
		}
		for _, c := range sk {
			if m.IsNullable(c) {
				return errors.Wrapf(ErrInvalidSchema, "superkey %d includes nullable column %q", i, m.ColumnNames[c])
			}
		}
	}
	for i, idx := range m.Indices {
		if len(idx) == 0 {
			return errors.Wrapf(ErrInvalidSchema, "index %d is empty", i)
		}
		if err := m.checkColumnSet("index", idx); err != nil {
			return err
		}
	}
	if m.NextRowID < 0 {
		return errors.Wrapf(ErrInvalidSchema, "negative next row id %d", m.NextRowID)
	}
	return nil
}

func (m *RelationMeta) checkColumnSet(what string, cols []int) error {
	seen := make(map[int]bool, len(cols))
	for _, c := range cols {
		if c < 0 || c >= len(m.ColumnNames) {
			return errors.Wrapf(ErrInvalidSchema, "%s column %d out of range", what, c)
		}
		if seen[c] {
			return errors.Wrapf(ErrInvalidSchema, "%s column %q listed twice", what, m.ColumnNames[c])
		}
		seen[c] = true
	}
	return nil
}
