package condition

import (
	"context"
	"fmt"
	"time"

	"github.com/d5/tengo/v2"
)

const evalTimeout = time.Second

// Evaluate runs a tengo condition script against a record payload.
// The record is exposed as the global `record`; the script must assign
// a boolean to a global named `result`.
func Evaluate(script string, record map[string]interface{}) (bool, error) {
	if record == nil {
		record = map[string]interface{}{}
	}

	s := tengo.NewScript([]byte(script))
	if err := s.Add("record", record); err != nil {
		return false, fmt.Errorf("failed to bind record: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), evalTimeout)
	defer cancel()

	compiled, err := s.RunContext(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to run condition script: %w", err)
	}

	result := compiled.Get("result")
	if result == nil {
		return false, fmt.Errorf("condition script did not set `result`")
	}
	return result.Bool(), nil
}
