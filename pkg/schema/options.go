package schema

import (
	"fmt"
	"sort"

	"github.com/aretw0/trialset/pkg/domain"
)

// Schema maps option keys to their expected types.
type Schema map[string]Type

// OptionSchemas holds the known option keys of every built-in presentation type.
var OptionSchemas = map[string]Schema{
	domain.TypeJudgment: {
		domain.OptScale:           Slice(String()),
		domain.OptPresentAsScale:  Bool(),
		domain.OptInstructions:    String(),
		domain.OptLeftComment:     String(),
		domain.OptRightComment:    String(),
		domain.OptHideProgressBar: Bool(),
	},
	domain.TypeForm: {
		domain.OptHideProgressBar: Bool(),
		domain.OptContinueOnEnter: Bool(),
		domain.OptSaveRT:          Bool(),
		domain.OptContinueMessage: String(),
	},
	domain.TypeMessage: {
		domain.OptHideProgressBar: Bool(),
		domain.OptContinueOnEnter: Bool(),
		domain.OptSaveRT:          Bool(),
		domain.OptContinueMessage: String(),
	},
}

// ValidateOptions checks the keys of opts that s knows about.
// Keys absent from s are accepted; keys absent from opts are not required.
// Failures are reported in key order.
func ValidateOptions(s Schema, opts map[string]any) error {
	if len(s) == 0 || len(opts) == 0 {
		return nil
	}
	keys := make([]string, 0, len(opts))
	for k := range opts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var errs []error
	for _, k := range keys {
		typ, ok := s[k]
		if !ok {
			continue
		}
		if err := typ.Validate(opts[k]); err != nil {
			errs = append(errs, &ValidationError{
				Key:    k,
				Reason: fmt.Sprintf("expected %s: %v", typ.Name(), err),
				Value:  opts[k],
			})
		}
	}
	return Join(errs...)
}
