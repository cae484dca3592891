package analysis

// Wire types for the document-intelligence service. Field names follow the
// service's camelCase JSON; only the parts the extractor consumes are decoded.

// OperationResult is the body returned while polling an analyze operation.
type OperationResult struct {
	Status        string         `json:"status"` // notStarted | running | succeeded | failed
	Error         *ServiceError  `json:"error,omitempty"`
	AnalyzeResult *AnalyzeResult `json:"analyzeResult,omitempty"`
}

// ServiceError is the provider's error envelope.
type ServiceError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// AnalyzeResult is the payload of a succeeded analyze operation.
type AnalyzeResult struct {
	ModelID       string             `json:"modelId"`
	Content       string             `json:"content"`
	Documents     []AnalyzedDocument `json:"documents"`
	KeyValuePairs []KeyValuePair     `json:"keyValuePairs"`
}

// AnalyzedDocument is one structured document recognized by the model.
type AnalyzedDocument struct {
	DocType    string                `json:"docType"`
	Confidence float64               `json:"confidence"`
	Fields     map[string]FieldValue `json:"fields"`
}

// FieldValue carries the typed value variants a field may resolve to.
type FieldValue struct {
	Type          string         `json:"type"`
	Content       string         `json:"content"`
	ValueString   string         `json:"valueString"`
	ValueNumber   *float64       `json:"valueNumber"`
	ValueDate     string         `json:"valueDate"`
	ValueCurrency *CurrencyValue `json:"valueCurrency"`
	ValueAddress  *AddressValue  `json:"valueAddress"`
	Confidence    *float64       `json:"confidence"`
}

type CurrencyValue struct {
	Amount         float64 `json:"amount"`
	CurrencySymbol string  `json:"currencySymbol"`
	CurrencyCode   string  `json:"currencyCode"`
}

type AddressValue struct {
	Formatted string `json:"formatted"`
}

// KeyValuePair is one loose key/value association from the layout model.
type KeyValuePair struct {
	Key        *KVElement `json:"key"`
	Value      *KVElement `json:"value"`
	Confidence *float64   `json:"confidence"`
}

type KVElement struct {
	Content string `json:"content"`
}
