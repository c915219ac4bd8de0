package npclassifier

import (
	"encoding/json"

	"github.com/rotisserie/eris"

	"github.com/metabolome-tools/enrich-cli/internal/model"
)

// ResultField accepts the three shapes the NPClassifier API returns for a
// classification field: a JSON array of strings, a bare string, or null.
type ResultField []string

// UnmarshalJSON implements the list-or-scalar-or-null contract.
func (f *ResultField) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = nil
		return nil
	}

	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*f = list
		return nil
	}

	var single string
	if err := json.Unmarshal(data, &single); err != nil {
		return eris.Wrap(err, "npclassifier: result field is neither list nor string")
	}
	*f = []string{single}
	return nil
}

// Unwrap returns the first element of f as an optional string: nil when the
// field is empty or its first element is blank.
func Unwrap(f ResultField) *string {
	if len(f) == 0 {
		return nil
	}
	return model.OptString(f[0])
}
