package query

// Direction is a sort direction.
type Direction string

const (
	Asc  Direction = "ASC"
	Desc Direction = "DESC"
)

// Order sorts by one column of the primary table.
type Order struct {
	Column    string
	Direction Direction
}

// Include describes a LEFT JOIN against another table.
type Include struct {
	// Table names the joined table. Ignored when Model is set.
	Table string

	// Model names the joined table through its descriptor.
	Model TableRef

	// As overrides the positional J1, J2, ... alias.
	As string

	// On is the (local column, foreign column) join pair.
	On [2]string

	// Attributes are the joined columns to project, each as <alias>_<COLUMN>.
	// When empty, <alias>.* is projected.
	Attributes []string
}

// Query describes a select: filter, projection, joins, ordering and
// pagination. The zero value selects every row of the primary table.
type Query struct {
	Where      Filter
	Attributes []string
	Order      []Order
	Limit      *int
	Offset     *int
	Include    []Include
}

// New returns an empty query.
func New() *Query {
	return &Query{}
}

// Filter sets the WHERE filter.
func (q *Query) Filter(f Filter) *Query {
	q.Where = f
	return q
}

// Select sets the projected columns of the primary table.
func (q *Query) Select(columns ...string) *Query {
	q.Attributes = columns
	return q
}

// OrderBy appends a sort column.
func (q *Query) OrderBy(column string, dir Direction) *Query {
	q.Order = append(q.Order, Order{Column: column, Direction: dir})
	return q
}

// WithLimit sets FETCH FIRST n ROWS ONLY.
func (q *Query) WithLimit(n int) *Query {
	q.Limit = &n
	return q
}

// WithOffset sets OFFSET n ROWS.
func (q *Query) WithOffset(n int) *Query {
	q.Offset = &n
	return q
}

// Join appends a LEFT JOIN.
func (q *Query) Join(inc Include) *Query {
	q.Include = append(q.Include, inc)
	return q
}

// Clone returns a copy of q that can be modified without affecting q.
// A nil query clones to an empty one.
func (q *Query) Clone() *Query {
	if q == nil {
		return &Query{}
	}
	out := &Query{
		Where:      append(Filter(nil), q.Where...),
		Attributes: append([]string(nil), q.Attributes...),
		Order:      append([]Order(nil), q.Order...),
		Include:    append([]Include(nil), q.Include...),
	}
	if q.Limit != nil {
		n := *q.Limit
		out.Limit = &n
	}
	if q.Offset != nil {
		n := *q.Offset
		out.Offset = &n
	}
	return out
}
