package jsonlogic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/diegoholiveira/jsonlogic/v3"

	"github.com/Victor-armando18/service-giftbuilder/internal/domain"
	"github.com/Victor-armando18/service-giftbuilder/internal/interfaces"
)

// Operator is a custom guard operator. Its arguments arrive with every
// {"var": ...} and nested rule already resolved against the data.
type Operator func(args ...any) any

type Executor struct {
	customOps map[string]Operator
}

var _ interfaces.GuardExecutor = (*Executor)(nil)

func NewExecutor() *Executor {
	return &Executor{customOps: make(map[string]Operator)}
}

// RegisterCustomOperator makes name usable as the top-level operator of a
// rule. Register before the executor is shared between goroutines.
func (e *Executor) RegisterCustomOperator(name string, op Operator) {
	e.customOps[name] = op
}

// Execute applies a JsonLogic rule to data and returns the decoded result.
// Numbers come back as float64.
func (e *Executor) Execute(ctx context.Context, ruleData map[string]any, data map[string]any) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for name, op := range e.customOps {
		if args, ok := ruleData[name]; ok && len(ruleData) == 1 {
			params, err := e.resolveArgs(ctx, args, data)
			if err != nil {
				return nil, err
			}
			return finalizeValue(op(params...)), nil
		}
	}

	ruleJSON, err := json.Marshal(ruleData)
	if err != nil {
		return nil, fmt.Errorf("%w: encode rule: %v", domain.ErrRuleExecutionFailed, err)
	}
	dataJSON, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: encode data: %v", domain.ErrRuleExecutionFailed, err)
	}

	var resultBuffer bytes.Buffer
	if err := jsonlogic.Apply(bytes.NewReader(ruleJSON), bytes.NewReader(dataJSON), &resultBuffer); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrRuleExecutionFailed, err)
	}

	resultStr := strings.TrimSpace(resultBuffer.String())
	if resultStr == "" || resultStr == "null" {
		return nil, nil
	}

	var res any
	decoder := json.NewDecoder(strings.NewReader(resultStr))
	decoder.UseNumber()
	if err := decoder.Decode(&res); err != nil {
		return nil, fmt.Errorf("%w: decode result: %v", domain.ErrRuleExecutionFailed, err)
	}
	return finalizeValue(res), nil
}

func (e *Executor) resolveArgs(ctx context.Context, args any, data map[string]any) ([]any, error) {
	list, ok := args.([]any)
	if !ok {
		list = []any{args}
	}
	params := make([]any, 0, len(list))
	for _, arg := range list {
		v, err := e.resolveArg(ctx, arg, data)
		if err != nil {
			return nil, err
		}
		params = append(params, v)
	}
	return params, nil
}

func (e *Executor) resolveArg(ctx context.Context, arg any, data map[string]any) (any, error) {
	m, ok := arg.(map[string]any)
	if !ok {
		return finalizeValue(arg), nil
	}
	if path, ok := m["var"].(string); ok && len(m) == 1 {
		return lookup(data, path), nil
	}
	return e.Execute(ctx, m, data)
}

// lookup resolves a dotted var path; missing keys resolve to nil.
func lookup(data map[string]any, path string) any {
	var cur any = data
	for _, key := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur = m[key]
	}
	return finalizeValue(cur)
}

// Truthy follows JsonLogic truthiness for the values Execute returns.
func Truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case float64:
		return t != 0
	case string:
		return t != ""
	case []any:
		return len(t) > 0
	default:
		return true
	}
}

func finalizeValue(val any) any {
	switch n := val.(type) {
	case json.Number:
		if f, err := n.Float64(); err == nil {
			return f
		}
	case int:
		return float64(n)
	case int64:
		return float64(n)
	}
	return val
}
