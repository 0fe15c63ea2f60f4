package runtime

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aretw0/funnel/pkg/domain"
)

// Labeler is implemented by composite responses that know how to describe
// themselves in the chat log.
type Labeler interface {
	Label() string
}

// ResponseLabel resolves the user-facing text of a response: option ids are
// mapped to their labels (lists joined with commas), anything else is shown
// verbatim.
func ResponseLabel(script domain.Script, response any) string {
	switch v := response.(type) {
	case nil:
		return ""
	case Labeler:
		return v.Label()
	case string:
		return optionLabel(script, v)
	case []string:
		parts := make([]string, len(v))
		for i, id := range v {
			parts[i] = optionLabel(script, id)
		}
		return strings.Join(parts, ", ")
	case []any:
		parts := make([]string, len(v))
		for i, item := range v {
			parts[i] = ResponseLabel(script, item)
		}
		return strings.Join(parts, ", ")
	case bool, int, int64, float64, float32, uint, uint64, int32:
		return optionLabel(script, domain.AsString(v))
	}

	data, err := json.Marshal(response)
	if err != nil {
		return fmt.Sprint(response)
	}
	return string(data)
}

func optionLabel(script domain.Script, id string) string {
	if label, ok := script.OptionLabel(id); ok {
		return label
	}
	return id
}
