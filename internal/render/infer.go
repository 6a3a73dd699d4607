package render

import (
	"fmt"

	"github.com/docforge/docforge-backend/internal/trace"
)

// Infer binds a ListExpand policy for every top-level payload field whose
// value is a first-class sequence. Scalars and nested maps are never bound,
// and the scan does not recurse. Template authors therefore get repeating
// {{#field}} blocks for free instead of hand-registering a policy per list.
func Infer(payload map[string]interface{}, cfg *Config, rec *trace.Recorder) {
	if payload == nil || cfg == nil {
		return
	}
	for key, value := range payload {
		if _, ok := value.([]interface{}); !ok {
			continue
		}
		if rec != nil {
			rec.Info(fmt.Sprintf("detected list field %q, binding row-expansion policy", key))
		}
		cfg.Bind(key, ListExpand{})
	}
}
