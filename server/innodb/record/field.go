package record

// externalRefSize is the on-disk size of a BLOB-chain external
// reference trailer.
const externalRefSize = 20

// Field is one column's position, name, on-disk type, and nullability
// within a describer's key or row list.
type Field struct {
	Position int
	Name     string
	Type     DataType
	Nullable bool
}

// NewField constructs a field; Position is informational (the field's
// index within its key/row list already fixes read order).
func NewField(position int, name string, t DataType, nullable bool) Field {
	return Field{Position: position, Name: name, Type: t, Nullable: nullable}
}

// ExternRef is a decoded 20-byte BLOB-chain external reference.
type ExternRef struct {
	SpaceID uint32
	Page    uint32
	Offset  uint32
	Length  uint64
}

var (
	sysTrxID = Field{
		Name: "DB_TRX_ID",
		Type: DataType{Kind: KindDbTrxID},
	}
	sysRollPtr = Field{
		Name: "DB_ROLL_PTR",
		Type: DataType{Kind: KindDbRollPtr},
	}
)
