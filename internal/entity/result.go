package entity

import "docintel/constants"

// ExtractedField is a single field/value/confidence triple. Confidence is a
// percentage in [0,100]; nil means the analysis service reported none.
type ExtractedField struct {
	FieldName  string   `json:"field_name"`
	FieldValue string   `json:"field_value"`
	Confidence *float64 `json:"confidence"`
}

// DocumentResult is the final outcome for one document. Produced once, at job
// completion; immutable thereafter.
type DocumentResult struct {
	Filename string                 `json:"filename"`
	Status   constants.ResultStatus `json:"status"`
	Fields   []ExtractedField       `json:"fields"`
	Error    string                 `json:"error,omitempty"`
}
