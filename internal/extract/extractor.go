package extract

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"docintel/constants"
	"docintel/internal/analysis"
	"docintel/internal/entity"
)

// Fields flattens an analysis payload into the ordered field list reported to
// the user. Structured document fields win over loose key/value pairs; every
// expected field is present in the output, using the "(not found)" sentinel
// when the service reported nothing for it.
func Fields(result *analysis.AnalyzeResult) []entity.ExtractedField {
	found := make(map[string]struct{})
	var fields []entity.ExtractedField

	fields = append(fields, fromDocuments(result, found)...)
	fields = append(fields, fromKeyValuePairs(result, found)...)

	for _, expected := range constants.ExpectedFields {
		if _, ok := found[expected]; !ok {
			fields = append(fields, entity.ExtractedField{
				FieldName:  expected,
				FieldValue: constants.ValueNotFound,
			})
		}
	}

	// Expected fields first, in their declared order; everything else keeps
	// extraction order after them.
	rank := make(map[string]int, len(constants.ExpectedFields))
	for i, name := range constants.ExpectedFields {
		rank[name] = i
	}
	sort.SliceStable(fields, func(i, j int) bool {
		ri, iExpected := rank[fields[i].FieldName]
		rj, jExpected := rank[fields[j].FieldName]
		if iExpected != jExpected {
			return iExpected
		}
		if iExpected && jExpected {
			return ri < rj
		}
		return false
	})
	return fields
}

func fromDocuments(result *analysis.AnalyzeResult, found map[string]struct{}) []entity.ExtractedField {
	var fields []entity.ExtractedField
	if result == nil {
		return fields
	}
	for _, doc := range result.Documents {
		// Map iteration order is random; walk names sorted for determinism.
		names := make([]string, 0, len(doc.Fields))
		for name := range doc.Fields {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fieldName := canonicalName(name)
			f, ok := fieldData(fieldName, doc.Fields[name])
			if !ok {
				continue
			}
			fields = append(fields, f)
			found[fieldName] = struct{}{}
		}
	}
	return fields
}

func fromKeyValuePairs(result *analysis.AnalyzeResult, found map[string]struct{}) []entity.ExtractedField {
	var fields []entity.ExtractedField
	if result == nil {
		return fields
	}
	for _, kv := range result.KeyValuePairs {
		key := ""
		if kv.Key != nil {
			key = strings.TrimSpace(kv.Key.Content)
		}
		if key == "" {
			continue
		}
		fieldName := canonicalName(key)
		if _, ok := found[fieldName]; ok {
			continue
		}

		value := ""
		if kv.Value != nil {
			value = strings.TrimSpace(kv.Value.Content)
		}
		if value == "" {
			value = constants.ValueEmpty
		}

		fields = append(fields, entity.ExtractedField{
			FieldName:  fieldName,
			FieldValue: value,
			Confidence: percentConfidence(kv.Confidence),
		})
		found[fieldName] = struct{}{}
	}
	return fields
}

// fieldData resolves a typed FieldValue to its display string, preferring raw
// content over typed variants since content survives model quirks best.
func fieldData(name string, v analysis.FieldValue) (entity.ExtractedField, bool) {
	var value string
	switch {
	case strings.TrimSpace(v.Content) != "":
		value = strings.TrimSpace(v.Content)
	case strings.TrimSpace(v.ValueString) != "":
		value = strings.TrimSpace(v.ValueString)
	case v.ValueNumber != nil:
		value = strconv.FormatFloat(*v.ValueNumber, 'f', -1, 64)
	case v.ValueDate != "":
		value = v.ValueDate
	case v.ValueCurrency != nil:
		value = fmt.Sprintf("%s%v", v.ValueCurrency.CurrencySymbol, v.ValueCurrency.Amount)
	case v.ValueAddress != nil && v.ValueAddress.Formatted != "":
		value = v.ValueAddress.Formatted
	default:
		return entity.ExtractedField{}, false
	}
	return entity.ExtractedField{
		FieldName:  name,
		FieldValue: value,
		Confidence: percentConfidence(v.Confidence),
	}, true
}

// canonicalName maps a reported field name onto the expected-field list when
// they match after normalization, otherwise keeps the reported name.
func canonicalName(name string) string {
	normalized := normalizeFieldName(name)
	for _, expected := range constants.ExpectedFields {
		if normalized == normalizeFieldName(expected) {
			return expected
		}
	}
	return name
}

// normalizeFieldName makes names comparable across case and separators.
func normalizeFieldName(name string) string {
	r := strings.NewReplacer(" ", "", "_", "", "-", "")
	return strings.ToLower(r.Replace(name))
}

// percentConfidence converts the service's [0,1] confidence to a percentage
// rounded to two decimals, preserving absence.
func percentConfidence(c *float64) *float64 {
	if c == nil {
		return nil
	}
	p := math.Round(*c*100*100) / 100
	return &p
}
