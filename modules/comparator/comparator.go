package comparator

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/zclconf/go-cty/cty"

	"github.com/vk/probegrid/internal/ctyutil"
	"github.com/vk/probegrid/internal/model"
)

// Operators accepted in a comparison block.
const (
	OpEquals      = "equals"
	OpNotEquals   = "not_equals"
	OpContains    = "contains"
	OpNotContains = "not_contains"
	OpGreaterThan = "greater_than"
	OpLessThan    = "less_than"
	OpRegexMatch  = "regex_match"
)

// Comparison is one attribute predicate. ExpectedValue may be a string,
// number, or bool.
type Comparison struct {
	Attribute     string    `hcl:"attribute"`
	Operator      string    `hcl:"operator"`
	ExpectedValue cty.Value `hcl:"expected_value"`
}

// Config configures a compare node. SourceNodeID and TargetNodeID name the
// upstream nodes whose outputs are read from the execution input.
type Config struct {
	SourceNodeID string       `hcl:"source_node_id"`
	TargetNodeID string       `hcl:"target_node_id"`
	Comparisons  []Comparison `hcl:"comparison,block"`
}

type handler struct{}

func (h *handler) NewConfig() any { return new(Config) }

func (h *handler) Run(ctx context.Context, nodeCtx *model.NodeExecutionContext) (map[string]any, error) {
	cfg, ok := nodeCtx.Config.(*Config)
	if !ok {
		return nil, fmt.Errorf("node %s: config is %T, want *comparator.Config", nodeCtx.NodeID, nodeCtx.Config)
	}

	source, ok := nodeCtx.Input[cfg.SourceNodeID]
	if !ok {
		return nil, fmt.Errorf("no output recorded for source node %q", cfg.SourceNodeID)
	}
	target, ok := nodeCtx.Input[cfg.TargetNodeID]
	if !ok {
		return nil, fmt.Errorf("no output recorded for target node %q", cfg.TargetNodeID)
	}

	details := make([]any, 0, len(cfg.Comparisons))
	failed := 0
	for _, cmp := range cfg.Comparisons {
		expected, err := ctyutil.ToGo(cmp.ExpectedValue)
		if err != nil {
			return nil, fmt.Errorf("comparison on %q: invalid expected_value: %w", cmp.Attribute, err)
		}

		sourceValue, sourceFound := lookupAttribute(source, cmp.Attribute)
		targetValue, targetFound := lookupAttribute(target, cmp.Attribute)

		sourceOK := sourceFound && evaluate(cmp.Operator, sourceValue, expected)
		targetOK := targetFound && evaluate(cmp.Operator, targetValue, expected)
		passed := sourceOK && targetOK
		if !passed {
			failed++
		}

		details = append(details, map[string]any{
			"attribute":     cmp.Attribute,
			"operator":      cmp.Operator,
			"expected":      expected,
			"source_value":  sourceValue,
			"target_value":  targetValue,
			"source_passed": sourceOK,
			"target_passed": targetOK,
			"passed":        passed,
		})
	}

	output := map[string]any{"comparisons": details}
	if failed > 0 {
		return output, fmt.Errorf("%d of %d comparisons failed between %q and %q", failed, len(cfg.Comparisons), cfg.SourceNodeID, cfg.TargetNodeID)
	}
	return output, nil
}

// lookupAttribute reads an attribute from a node output: first as a
// top-level key, then inside the conventional "attributes" map that the
// message nodes emit.
func lookupAttribute(output map[string]any, name string) (any, bool) {
	if v, ok := output[name]; ok {
		return v, true
	}
	switch attrs := output["attributes"].(type) {
	case map[string]any:
		if v, ok := attrs[name]; ok {
			return v, true
		}
	case map[string]string:
		if v, ok := attrs[name]; ok {
			return v, true
		}
	}
	return nil, false
}

// evaluate applies one operator to a single value. Unknown operators and
// uncoercible operands evaluate to false rather than erroring, so one bad
// comparison is reported in the detail list without hiding the others.
func evaluate(operator string, value, expected any) bool {
	switch operator {
	case OpEquals:
		return looseEqual(value, expected)
	case OpNotEquals:
		return !looseEqual(value, expected)
	case OpContains:
		return strings.Contains(stringify(value), stringify(expected))
	case OpNotContains:
		return !strings.Contains(stringify(value), stringify(expected))
	case OpGreaterThan:
		a, aok := toFloat(value)
		b, bok := toFloat(expected)
		return aok && bok && a > b
	case OpLessThan:
		a, aok := toFloat(value)
		b, bok := toFloat(expected)
		return aok && bok && a < b
	case OpRegexMatch:
		re, err := regexp.Compile(stringify(expected))
		if err != nil {
			return false
		}
		return re.MatchString(stringify(value))
	default:
		return false
	}
}

// looseEqual compares numerically when both sides coerce to numbers, and by
// string rendering otherwise, so "200" equals 200.
func looseEqual(a, b any) bool {
	if af, aok := toFloat(a); aok {
		if bf, bok := toFloat(b); bok {
			return af == bf
		}
	}
	return stringify(a) == stringify(b)
}

func stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", val)
	}
}

func toFloat(v any) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case int:
		return float64(val), true
	case int64:
		return float64(val), true
	case string:
		f, err := strconv.ParseFloat(val, 64)
		return f, err == nil
	default:
		return 0, false
	}
}
