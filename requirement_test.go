package eventstate

import (
	"errors"
	"strings"
	"testing"
)

type batchingStore struct {
	batching bool
}

func (s *batchingStore) CanBatch() bool {
	return s.batching
}

func TestRequiredDetectsErrorHandler(t *testing.T) {
	if !Required(Setup{ErrorHandler: struct{}{}}) {
		t.Fatalf("expected error handler to require cycle state")
	}
}

func TestRequiredDetectsBatchCapableStore(t *testing.T) {
	if !Required(Setup{Store: &batchingStore{batching: true}}) {
		t.Fatalf("expected batch-capable store to require cycle state")
	}
	if Required(Setup{Store: &batchingStore{batching: false}}) {
		t.Fatalf("expected non-batching store to skip instrumentation")
	}
}

func TestRequiredFalseWhenNothingConfigured(t *testing.T) {
	if Required(Setup{}) {
		t.Fatalf("expected empty setup to skip instrumentation")
	}
}

func TestRequirementRuleOverMapSettings(t *testing.T) {
	rule, err := NewRequirementRule(`error_handler != nil || batch_size > 1`)
	if err != nil {
		t.Fatalf("new rule: %v", err)
	}

	required, err := rule.Required(map[string]any{"error_handler": nil, "batch_size": 10})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if !required {
		t.Fatalf("expected batch_size 10 to require cycle state")
	}

	required, err = rule.Required(map[string]any{"error_handler": nil, "batch_size": 1})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if required {
		t.Fatalf("expected batch_size 1 to skip instrumentation")
	}
}

func TestRequirementRuleOverStructSettings(t *testing.T) {
	type hostSettings struct {
		BatchSize    int  `json:"batch_size"`
		ErrorHandler bool `json:"error_handler"`
	}

	rule, err := NewRequirementRule(`error_handler || batch_size > 1`)
	if err != nil {
		t.Fatalf("new rule: %v", err)
	}

	required, err := rule.Required(hostSettings{ErrorHandler: true})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if !required {
		t.Fatalf("expected struct settings to normalise through json tags")
	}
}

func TestRequirementRuleRejectsNonBooleanResult(t *testing.T) {
	rule, err := NewRequirementRule(`batch_size`)
	if err != nil {
		t.Fatalf("new rule: %v", err)
	}

	if _, err := rule.Required(map[string]any{"batch_size": 4}); err == nil {
		t.Fatalf("expected non-boolean result to fail")
	} else if !strings.Contains(err.Error(), "want bool") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRequirementRuleRejectsEmptyExpression(t *testing.T) {
	if _, err := NewRequirementRule(""); err == nil {
		t.Fatalf("expected empty expression to fail")
	}
}

func TestRequirementRuleWithCustomFunctions(t *testing.T) {
	registry := NewFunctionRegistry()
	if err := registry.Register("enabled", func(args ...any) (any, error) {
		if len(args) != 1 {
			return nil, errors.New("enabled takes one argument")
		}
		name, _ := args[0].(string)
		return name == "batcher", nil
	}); err != nil {
		t.Fatalf("register function: %v", err)
	}

	rule, err := NewRequirementRule(`enabled("batcher")`, RuleWithFunctions(registry))
	if err != nil {
		t.Fatalf("new rule: %v", err)
	}
	required, err := rule.Required(nil)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if !required {
		t.Fatalf("expected custom function to drive the rule")
	}
}

type countingCache struct {
	entries map[string]any
	hits    int
	sets    int
}

func (c *countingCache) Get(key string) (any, bool) {
	value, ok := c.entries[key]
	if ok {
		c.hits++
	}
	return value, ok
}

func (c *countingCache) Set(key string, value any) {
	if c.entries == nil {
		c.entries = map[string]any{}
	}
	c.entries[key] = value
	c.sets++
}

func TestRequirementRuleUsesProgramCache(t *testing.T) {
	cache := &countingCache{}
	rule, err := NewRequirementRule(`batch_size > 1`, RuleWithProgramCache(cache))
	if err != nil {
		t.Fatalf("new rule: %v", err)
	}
	if cache.sets == 0 {
		t.Fatalf("expected compile to populate the cache")
	}

	if _, err := rule.Required(map[string]any{"batch_size": 2}); err != nil {
		t.Fatalf("evaluate: %v", err)
	}
}

func TestRequirementRuleWithCELBackend(t *testing.T) {
	rule, err := NewRequirementRule(`batch_size > 1`, RuleWithEvaluator(NewCELEvaluator()))
	if err != nil {
		t.Fatalf("new rule: %v", err)
	}

	required, err := rule.Required(map[string]any{"batch_size": 3})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if !required {
		t.Fatalf("expected CEL backend to evaluate the rule")
	}
}

func TestRequirementRuleLogsEvaluations(t *testing.T) {
	var events []EvaluatorLogEvent
	rule, err := NewRequirementRule(`batch_size > 1`, RuleWithEvaluatorLogger(EvaluatorLoggerFunc(func(event EvaluatorLogEvent) {
		events = append(events, event)
	})))
	if err != nil {
		t.Fatalf("new rule: %v", err)
	}

	if _, err := rule.Required(map[string]any{"batch_size": 2}); err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected one log event, got %d", len(events))
	}
	if events[0].Engine != "expr" {
		t.Fatalf("expected expr engine, got %q", events[0].Engine)
	}
	if events[0].Expr != rule.Expression() {
		t.Fatalf("expected expression %q, got %q", rule.Expression(), events[0].Expr)
	}
}
