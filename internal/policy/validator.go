// Package policy validates rendered workflows against the GitHub Actions
// schema and the deployment policy in workflow.rego.
package policy

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/open-policy-agent/opa/rego"
	"github.com/open-policy-agent/opa/storage/inmem"
	"github.com/savaki/cicd-helper/internal/constants"
	"github.com/savaki/cicd-helper/internal/trigger"
	"github.com/savaki/cicd-helper/internal/workflow"
	"github.com/xeipuuv/gojsonschema"
	"sigs.k8s.io/yaml"
)

//go:embed workflow.rego
var policyContent string

//go:embed github-workflow.json
var schemaContent string

type Validator struct {
	allow      rego.PreparedEvalQuery
	violations rego.PreparedEvalQuery
	schema     *gojsonschema.Schema
}

type ValidationResult struct {
	Allowed    bool     `json:"allowed"`
	Violations []string `json:"violations,omitempty"`
}

func NewValidator() (*Validator, error) {
	ctx := context.Background()

	store := inmem.NewFromObject(map[string]interface{}{
		"credentials_action": trimVersion(constants.AWSCredentialsAction),
		"success_condition":  trigger.SuccessCondition,
	})

	allow, err := rego.New(
		rego.Query("data.workflow.allow"),
		rego.Module("workflow.rego", policyContent),
		rego.Store(store),
	).PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare policy query: %w", err)
	}

	violations, err := rego.New(
		rego.Query("data.workflow.violations"),
		rego.Module("workflow.rego", policyContent),
		rego.Store(store),
	).PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare violations query: %w", err)
	}

	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(schemaContent))
	if err != nil {
		return nil, fmt.Errorf("failed to load workflow schema: %w", err)
	}

	return &Validator{
		allow:      allow,
		violations: violations,
		schema:     schema,
	}, nil
}

// ValidateWorkflow renders w and validates the result
func (v *Validator) ValidateWorkflow(ctx context.Context, w *workflow.Workflow) (*ValidationResult, error) {
	content, err := workflow.Render(w)
	if err != nil {
		return nil, err
	}
	return v.Validate(ctx, content)
}

// Validate checks a workflow document against the schema, then the policy.
// Policy rules are only evaluated for documents that match the schema.
func (v *Validator) Validate(ctx context.Context, content []byte) (*ValidationResult, error) {
	input, err := decode(content)
	if err != nil {
		return nil, err
	}

	schemaResult, err := v.schema.Validate(gojsonschema.NewGoLoader(input))
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate workflow schema: %w", err)
	}
	if !schemaResult.Valid() {
		var violations []string
		for _, e := range schemaResult.Errors() {
			violations = append(violations, "schema: "+e.String())
		}
		return &ValidationResult{
			Allowed:    false,
			Violations: violations,
		}, nil
	}

	results, err := v.allow.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate policy: %w", err)
	}

	if len(results) == 0 {
		return &ValidationResult{
			Allowed:    false,
			Violations: []string{"policy evaluation returned no results"},
		}, nil
	}

	allowed, ok := results[0].Expressions[0].Value.(bool)
	if !ok {
		return &ValidationResult{
			Allowed:    false,
			Violations: []string{"policy evaluation returned non-boolean result"},
		}, nil
	}

	result := &ValidationResult{
		Allowed: allowed,
	}

	if !allowed {
		violations, err := v.getViolations(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("failed to get violations: %w", err)
		}
		result.Violations = violations
	}

	return result, nil
}

func (v *Validator) getViolations(ctx context.Context, input map[string]interface{}) ([]string, error) {
	results, err := v.violations.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate violations: %w", err)
	}

	if len(results) == 0 {
		return []string{"unknown policy violation"}, nil
	}

	var violations []string
	switch v := results[0].Expressions[0].Value.(type) {
	case []interface{}:
		for _, violation := range v {
			if str, ok := violation.(string); ok {
				violations = append(violations, str)
			}
		}
	case map[string]interface{}:
		for violation := range v {
			violations = append(violations, violation)
		}
	}

	if len(violations) == 0 {
		return []string{"policy validation failed but no specific violations found"}, nil
	}

	return violations, nil
}

// decode converts a workflow YAML document into the generic form consumed
// by both the schema and the policy
func decode(content []byte) (map[string]interface{}, error) {
	data, err := yaml.YAMLToJSON(content)
	if err != nil {
		return nil, fmt.Errorf("failed to parse workflow YAML: %w", err)
	}

	var doc map[string]interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode workflow: %w", err)
	}
	if doc == nil {
		doc = map[string]interface{}{}
	}

	// YAML 1.1 parsers read an unquoted `on` key as the boolean true
	if on, ok := doc["true"]; ok {
		if _, exists := doc["on"]; !exists {
			doc["on"] = on
			delete(doc, "true")
		}
	}

	return doc, nil
}

func trimVersion(action string) string {
	name, _, _ := strings.Cut(action, "@")
	return name
}
