// Package render turns a measurement record into display rows without knowing its fields.
package render

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// hiddenFields are bookkeeping columns of the stored record.
var hiddenFields = map[string]struct{}{
	"id":         {},
	"user_id":    {},
	"created_at": {},
}

// Field is one displayed measurement.
type Field struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Value string `json:"value"`
}

// Fields lists every displayable entry of measurements sorted by key. Numbers get unit
// appended, other scalars are shown as-is and nulls are skipped.
func Fields(measurements map[string]any, unit string) []Field {
	keys := make([]string, 0, len(measurements))
	for key, value := range measurements {
		if _, hidden := hiddenFields[key]; hidden || value == nil {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)

	fields := make([]Field, 0, len(keys))
	for _, key := range keys {
		fields = append(fields, Field{
			Key:   key,
			Label: Label(key),
			Value: FormatValue(measurements[key], unit),
		})
	}
	return fields
}

// Label turns a field name like "shoulder_width" into "Shoulder Width".
func Label(key string) string {
	words := strings.Fields(strings.ReplaceAll(key, "_", " "))
	return cases.Title(language.English).String(strings.Join(words, " "))
}

// FormatValue renders a single value. Only numbers carry the unit.
func FormatValue(value any, unit string) string {
	switch v := value.(type) {
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64) + unit
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32) + unit
	case int:
		return strconv.Itoa(v) + unit
	case int64:
		return strconv.FormatInt(v, 10) + unit
	case json.Number:
		return v.String() + unit
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprint(v)
	}
}
