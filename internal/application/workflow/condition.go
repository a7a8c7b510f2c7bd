package workflow

import (
	"errors"
	"strings"

	"github.com/Knetic/govaluate"
)

// evaluateMatch evaluates a template match expression against task
// attributes. Empty expression matches everything. Supports "true"/"false"
// literals so seeded templates can pin behavior without a parser round trip.
func evaluateMatch(expression string, params map[string]interface{}) (bool, error) {
	expr := strings.TrimSpace(expression)
	if expr == "" {
		return true, nil
	}
	switch strings.ToLower(expr) {
	case "true":
		return true, nil
	case "false":
		return false, nil
	}

	parsed, err := govaluate.NewEvaluableExpression(expr)
	if err != nil {
		return false, err
	}
	result, err := parsed.Evaluate(params)
	if err != nil {
		return false, err
	}
	switch v := result.(type) {
	case bool:
		return v, nil
	default:
		return false, errors.New("match expression did not evaluate to boolean")
	}
}
