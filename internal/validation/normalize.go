package validation

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
)

type NormalizeOptions struct {
	// Lower lists enumeration fields stored in lower case.
	Lower []string
	// Defaults fills optional fields absent from the input.
	Defaults map[string]any
	// Verbatim lists fields copied without trimming, such as passwords.
	Verbatim []string
}

// Normalize returns a trimmed copy of input. Call it only after Validate returned no violations.
func Normalize(input map[string]any, opts NormalizeOptions) map[string]any {
	out := make(map[string]any, len(input)+len(opts.Defaults))
	for k, v := range input {
		if s, ok := v.(string); ok && !slices.Contains(opts.Verbatim, k) {
			v = strings.TrimSpace(s)
		}
		out[k] = v
	}
	for _, k := range opts.Lower {
		if s, ok := out[k].(string); ok {
			out[k] = strings.ToLower(s)
		}
	}
	for k, v := range opts.Defaults {
		if cur, ok := out[k]; !ok || cur == nil {
			out[k] = v
		}
	}
	return out
}

// Decode copies a normalized map into dst through its JSON tags.
func Decode(input map[string]any, dst any) error {
	data, err := json.Marshal(input)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	return nil
}
