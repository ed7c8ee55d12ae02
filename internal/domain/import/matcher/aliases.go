package matcher

// Field is a canonical expense attribute a CSV column can be mapped to.
type Field string

const (
	FieldDate         Field = "date"
	FieldAmount       Field = "amount"
	FieldDescription  Field = "description"
	FieldCategoryName Field = "categoryName"
	FieldTagName      Field = "tagName"
	FieldMemberName   Field = "memberName"
)

// StandardFields are the mappable fields for the standard layouts.
var StandardFields = []Field{
	FieldDate,
	FieldAmount,
	FieldDescription,
	FieldCategoryName,
	FieldTagName,
	FieldMemberName,
}

// BasicFields are the mappable fields for the wide-format layout, where
// amounts live in per-category columns instead of a single amount column.
var BasicFields = []Field{
	FieldDate,
	FieldDescription,
	FieldMemberName,
	FieldTagName,
}

// fieldAliases maps each canonical field to the header spellings people
// actually export. Curated, not generated; extend when a new bank shows up.
var fieldAliases = map[Field][]string{
	FieldDate: {
		"date", "txn date", "transaction date", "posted date", "posting date",
		"purchase date", "when", "day",
	},
	FieldAmount: {
		"amount", "amt", "cost", "price", "total", "value", "debit", "sum",
		"charge", "spent",
	},
	FieldDescription: {
		"description", "desc", "details", "detail", "memo", "note", "notes",
		"item", "merchant", "payee", "narrative", "name",
	},
	FieldCategoryName: {
		"category", "cat", "category name", "type", "group", "bucket",
	},
	FieldTagName: {
		"tag", "tags", "location", "store", "place", "shop", "vendor",
	},
	FieldMemberName: {
		"member", "person", "who", "owner", "user", "paid by", "spent by",
		"family member",
	},
}

// Aliases returns the registered alias spellings for a field.
func Aliases(f Field) []string {
	return fieldAliases[f]
}
