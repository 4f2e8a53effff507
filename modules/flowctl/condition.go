package flowctl

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"

	"github.com/vk/probegrid/internal/ctyutil"
	"github.com/vk/probegrid/internal/model"
)

// ConditionConfig configures a condition node. Expression is an HCL
// expression evaluated against the variable `input`, an object keyed by
// upstream node id, e.g. `input.check_api.status_code == 200`. Evaluation is
// sandboxed: no functions beyond the expression language itself, never
// arbitrary code.
type ConditionConfig struct {
	Expression  string `hcl:"expression"`
	TrueNodeID  string `hcl:"true_node_id,optional"`
	FalseNodeID string `hcl:"false_node_id,optional"`
}

type conditionHandler struct{}

func (h *conditionHandler) NewConfig() any { return new(ConditionConfig) }

// Run evaluates the expression and reports which branch it selects. The
// scheduler does not prune the unselected branch: both branch nodes still
// execute when their dependencies complete, and downstream logic reads
// next_node_id to interpret the outcome.
func (h *conditionHandler) Run(ctx context.Context, nodeCtx *model.NodeExecutionContext) (map[string]any, error) {
	cfg, ok := nodeCtx.Config.(*ConditionConfig)
	if !ok {
		return nil, fmt.Errorf("node %s: config is %T, want *ConditionConfig", nodeCtx.NodeID, nodeCtx.Config)
	}

	result, err := evaluateExpression(cfg.Expression, nodeCtx.Input)
	if err != nil {
		return nil, fmt.Errorf("node %s: %w", nodeCtx.NodeID, err)
	}

	nextNodeID := cfg.FalseNodeID
	if result {
		nextNodeID = cfg.TrueNodeID
	}

	return map[string]any{
		"condition_result": result,
		"next_node_id":     nextNodeID,
	}, nil
}

// evaluateExpression parses and evaluates one boolean HCL expression with
// the upstream outputs bound to the `input` variable.
func evaluateExpression(expression string, input map[string]map[string]any) (bool, error) {
	expr, diags := hclsyntax.ParseExpression([]byte(expression), "condition", hcl.InitialPos)
	if diags.HasErrors() {
		return false, fmt.Errorf("parsing expression %q: %s", expression, diags.Error())
	}

	inputAny := make(map[string]any, len(input))
	for nodeID, output := range input {
		inputAny[nodeID] = output
	}
	inputVal, err := ctyutil.FromGo(inputAny)
	if err != nil {
		return false, fmt.Errorf("binding upstream outputs: %w", err)
	}

	evalCtx := &hcl.EvalContext{
		Variables: map[string]cty.Value{"input": inputVal},
	}
	val, diags := expr.Value(evalCtx)
	if diags.HasErrors() {
		return false, fmt.Errorf("evaluating expression %q: %s", expression, diags.Error())
	}

	boolVal, err := convert.Convert(val, cty.Bool)
	if err != nil {
		return false, fmt.Errorf("expression %q is not boolean: %w", expression, err)
	}
	if boolVal.IsNull() {
		return false, fmt.Errorf("expression %q evaluated to null", expression)
	}
	return boolVal.True(), nil
}
