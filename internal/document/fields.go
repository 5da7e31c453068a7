package document

// FieldName identifies one of the fixed extraction targets. The set is
// closed: every result carries exactly one Field per name, with an empty
// value signaling "not found".
type FieldName string

const (
	FieldDocType       FieldName = "doc_type"
	FieldDocID         FieldName = "doc_id"
	FieldDate          FieldName = "date"
	FieldBankName      FieldName = "bank_name"
	FieldClientName    FieldName = "client_name"
	FieldAccountNumber FieldName = "account_number"
	FieldAmount        FieldName = "amount"
	FieldCurrency      FieldName = "currency"
)

// FieldNames returns the fixed field set in canonical order.
func FieldNames() []FieldName {
	return []FieldName{
		FieldDocType,
		FieldDocID,
		FieldDate,
		FieldBankName,
		FieldClientName,
		FieldAccountNumber,
		FieldAmount,
		FieldCurrency,
	}
}

// FieldSource tags where a field value came from.
type FieldSource string

const (
	SourceHeuristic FieldSource = "heuristic"
	SourceLLM       FieldSource = "llm"
	SourceManual    FieldSource = "manual"
)

// Field is one extracted value. An empty Value means the field was not
// found; its confidence is then 0.
type Field struct {
	Name       FieldName   `json:"name" yaml:"name"`
	Value      string      `json:"value" yaml:"value"`
	Confidence float64     `json:"confidence" yaml:"confidence"`
	Source     FieldSource `json:"source" yaml:"source"`
}

// Found reports whether the field has a value.
func (f Field) Found() bool { return f.Value != "" }

// FieldSet maps every recognized field name to its Field. Constructed via
// NewFieldSet so no name is ever missing.
type FieldSet map[FieldName]Field

// NewFieldSet returns a field set with all fields present and unset.
func NewFieldSet() FieldSet {
	fs := make(FieldSet, len(FieldNames()))
	for _, name := range FieldNames() {
		fs[name] = Field{Name: name, Source: SourceHeuristic}
	}
	return fs
}

// Clone returns an independent copy of the field set.
func (fs FieldSet) Clone() FieldSet {
	out := make(FieldSet, len(fs))
	for k, v := range fs {
		out[k] = v
	}
	return out
}

// Set stores a field value, keeping the entry's name consistent.
func (fs FieldSet) Set(name FieldName, value string, confidence float64, source FieldSource) {
	fs[name] = Field{Name: name, Value: value, Confidence: confidence, Source: source}
}

// Ordered returns the fields in canonical order.
func (fs FieldSet) Ordered() []Field {
	out := make([]Field, 0, len(FieldNames()))
	for _, name := range FieldNames() {
		out = append(out, fs[name])
	}
	return out
}

// FillFrom copies values from other into fields that are still unset.
// Used to merge a secondary extraction pass without overriding the primary.
func (fs FieldSet) FillFrom(other FieldSet) {
	for _, name := range FieldNames() {
		if !fs[name].Found() && other[name].Found() {
			fs[name] = other[name]
		}
	}
}

// Sufficient reports whether extraction found enough to identify the
// document: at least one party name plus a document type or id.
func (fs FieldSet) Sufficient() bool {
	hasParty := fs[FieldBankName].Found() || fs[FieldClientName].Found()
	hasIdent := fs[FieldDocType].Found() || fs[FieldDocID].Found()
	return hasParty && hasIdent
}
