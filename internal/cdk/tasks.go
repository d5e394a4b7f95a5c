package cdk

import "strings"

// TaskOptions refines a task name
type TaskOptions struct {
	// Branch selects the per-branch variant of the task
	Branch bool
	// Type narrows the task, e.g. "all" to act on every stack
	Type string
}

// TaskName returns the npm script name for an environment task, in the form
// {env}[:branch]:{action}[:{type}]
func TaskName(env, action string, opts TaskOptions) string {
	parts := []string{env}
	if opts.Branch {
		parts = append(parts, "branch")
	}
	parts = append(parts, action)
	if opts.Type != "" {
		parts = append(parts, opts.Type)
	}
	return strings.Join(parts, ":")
}
