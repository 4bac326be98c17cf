package eventstate

import (
	"fmt"
	"time"
)

// Batcher marks a storage delegate as batch-capable: it groups pending
// operations per event cycle instead of applying them one by one, and
// therefore needs cycle state to group them in.
type Batcher interface {
	CanBatch() bool
}

// Setup describes the host components that decide whether event cycles are
// worth instrumenting at all. Both fields are optional.
type Setup struct {
	// ErrorHandler is the host's custom failure handler, when configured.
	// Error handlers consume the per-cycle record of applied operations.
	ErrorHandler any
	// Store is the storage delegate the host writes through.
	Store any
}

// Required reports whether any configured component will make use of cycle
// state. Hosts consult it once at setup time to decide whether to wire
// Begin/Finish calls into their event loop: when nothing shares state
// across calls, the instrumentation can be skipped entirely.
func Required(setup Setup) bool {
	if setup.ErrorHandler != nil {
		return true
	}
	if batcher, ok := setup.Store.(Batcher); ok && batcher.CanBatch() {
		return true
	}
	return false
}

// RuleOption configures a RequirementRule.
type RuleOption func(*ruleConfig)

type ruleConfig struct {
	evaluator Evaluator
	cache     ProgramCache
	functions *FunctionRegistry
	logger    EvaluatorLogger
}

// RuleWithEvaluator overrides the evaluator backend used by the rule.
func RuleWithEvaluator(evaluator Evaluator) RuleOption {
	return func(cfg *ruleConfig) {
		cfg.evaluator = evaluator
	}
}

// RuleWithProgramCache wires a ProgramCache into the rule's default
// evaluator. Ignored when RuleWithEvaluator supplies a backend directly.
func RuleWithProgramCache(cache ProgramCache) RuleOption {
	return func(cfg *ruleConfig) {
		cfg.cache = cache
	}
}

// RuleWithFunctions exposes registry functions to the rule expression.
func RuleWithFunctions(functions *FunctionRegistry) RuleOption {
	return func(cfg *ruleConfig) {
		if functions == nil {
			return
		}
		cfg.functions = functions.Clone()
	}
}

// RuleWithEvaluatorLogger records each rule evaluation.
func RuleWithEvaluatorLogger(logger EvaluatorLogger) RuleOption {
	return func(cfg *ruleConfig) {
		if logger == nil {
			cfg.logger = noopEvaluatorLogger{}
			return
		}
		cfg.logger = logger
	}
}

// RequirementRule gates cycle instrumentation on an expression evaluated
// against the host's settings. It complements Required for hosts whose
// components are toggled by configuration rather than wired statically,
// e.g. `error_handler != nil || batch_size > 1`. The expression must yield
// a boolean.
type RequirementRule struct {
	expression string
	evaluator  Evaluator
	compiled   CompiledRule
	logger     EvaluatorLogger
}

// NewRequirementRule compiles expression with the configured evaluator
// backend. The default backend is expr-lang; use RuleWithEvaluator to pick
// CEL or JS instead.
func NewRequirementRule(expression string, opts ...RuleOption) (*RequirementRule, error) {
	if expression == "" {
		return nil, fmt.Errorf("eventstate: requirement rule expression must not be empty")
	}
	cfg := ruleConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	evaluator := cfg.evaluator
	if evaluator == nil {
		var exprOpts []ExprEvaluatorOption
		if cfg.cache != nil {
			exprOpts = append(exprOpts, ExprWithProgramCache(cfg.cache))
		}
		if cfg.functions != nil {
			exprOpts = append(exprOpts, ExprWithFunctionRegistry(cfg.functions))
		}
		evaluator = NewExprEvaluator(exprOpts...)
	}

	compiled, err := evaluator.Compile(expression)
	if err != nil {
		return nil, err
	}

	logger := cfg.logger
	if logger == nil {
		logger = noopEvaluatorLogger{}
	}

	return &RequirementRule{
		expression: expression,
		evaluator:  evaluator,
		compiled:   compiled,
		logger:     logger,
	}, nil
}

// Expression returns the rule expression as supplied.
func (r *RequirementRule) Expression() string {
	if r == nil {
		return ""
	}
	return r.expression
}

// Required evaluates the rule against settings and coerces the result to a
// boolean. A non-boolean result is a configuration error, not a falsy
// value.
func (r *RequirementRule) Required(settings any) (bool, error) {
	if r == nil || r.compiled == nil {
		return false, fmt.Errorf("eventstate: requirement rule is not compiled")
	}
	ctx := RuleContext{Settings: settings}.withDefaultNow().withDefaultMaps()
	start := time.Now()
	value, err := r.compiled.Evaluate(ctx)
	duration := time.Since(start)
	err = wrapEvaluationError(evaluatorEngineName(r.evaluator), r.expression, err)
	r.logger.LogEvaluation(EvaluatorLogEvent{
		Engine:   evaluatorEngineName(r.evaluator),
		Expr:     r.expression,
		Duration: duration,
		Err:      err,
	})
	if err != nil {
		return false, err
	}
	result, ok := value.(bool)
	if !ok {
		return false, fmt.Errorf("eventstate: requirement rule %q returned %T, want bool", r.expression, value)
	}
	return result, nil
}

func evaluatorEngineName(e Evaluator) string {
	if e == nil {
		return "unknown"
	}
	switch fmt.Sprintf("%T", e) {
	case "*eventstate.exprEvaluator":
		return "expr"
	case "*eventstate.celEvaluator":
		return "cel"
	case "*eventstate.jsEvaluator":
		return "js"
	default:
		return "custom"
	}
}
