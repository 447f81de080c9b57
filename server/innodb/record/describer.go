package record

// Kind distinguishes a clustered index's describer (which carries the
// two synthetic system columns and a full row) from a secondary index's
// (whose row carries only the clustered key columns it doesn't already
// have as its own key).
type DescriberKind int

const (
	Clustered DescriberKind = iota
	Secondary
)

// Describer carries a (type, key fields, row fields) triple for one
// index. It supports two construction styles: declarative, via chained
// Key/Row calls in a static var definition, and programmatic, via the
// same calls driven by a loop over dictionary metadata.
type Describer struct {
	Kind      DescriberKind
	KeyFields []Field
	RowFields []Field
}

// NewDescriber starts a describer of the given kind, ready for chained
// Key/Row calls.
func NewDescriber(kind DescriberKind) *Describer {
	return &Describer{Kind: kind}
}

// Key appends a key field and returns the describer for chaining.
func (d *Describer) Key(f Field) *Describer {
	d.KeyFields = append(d.KeyFields, f)
	return d
}

// Row appends a row field and returns the describer for chaining.
func (d *Describer) Row(f Field) *Describer {
	d.RowFields = append(d.RowFields, f)
	return d
}
