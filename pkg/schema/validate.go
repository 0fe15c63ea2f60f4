package schema

import "sort"

// Schema maps field names to their expected types.
type Schema map[string]Type

// Validate requires every declared field to be present and well-typed.
func Validate(schema Schema, data map[string]any) error {
	var errs []error
	for _, key := range schema.keys() {
		value, ok := data[key]
		if !ok {
			errs = append(errs, &ValidationError{Key: key, Reason: "required"})
			continue
		}
		if err := schema[key].Validate(value); err != nil {
			errs = append(errs, &ValidationError{Key: key, Reason: err.Error(), Value: value})
		}
	}
	return aggregate(errs)
}

// Check validates the declared fields present in data. Absent and nil values
// are unset fields and pass; undeclared fields are ignored.
func Check(schema Schema, data map[string]any) error {
	var errs []error
	for _, key := range schema.keys() {
		value, ok := data[key]
		if !ok || value == nil {
			continue
		}
		if err := schema[key].Validate(value); err != nil {
			errs = append(errs, &ValidationError{Key: key, Reason: err.Error(), Value: value})
		}
	}
	return aggregate(errs)
}

// keys are sorted so error lists are stable.
func (s Schema) keys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func aggregate(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	return &AggregateError{Errors: errs}
}
