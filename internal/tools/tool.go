// Package tools provides the fixed catalog of callable operations.
package tools

import (
	"context"
	"encoding/json"

	"taskbridge/internal/planner"
	"taskbridge/internal/service"
)

// ParamType is the JSON schema type of a tool parameter.
type ParamType string

const (
	TypeString  ParamType = "string"
	TypeInteger ParamType = "integer"
	TypeBoolean ParamType = "boolean"
	TypeArray   ParamType = "array" // of strings
)

// Param declares one input parameter of a tool.
type Param struct {
	Name        string
	Type        ParamType
	Description string
	Required    bool
	Enum        []string // allowed values; for arrays, allowed item values
}

// Env carries the collaborators a tool may use.
type Env struct {
	Service service.Service
	Planner *planner.Planner
}

// Tool defines the interface for catalog operations.
type Tool interface {
	// Name returns the operation name callers invoke.
	Name() string

	// Description returns the text shown to callers.
	Description() string

	// Params returns the declared input schema.
	Params() []Param

	// Run executes the tool.
	// args is the raw JSON object of caller arguments.
	// The result is marshalled to JSON for the caller.
	Run(ctx context.Context, env *Env, args json.RawMessage) (any, error)
}

// Deleted is the result of a successful delete.
type Deleted struct {
	Deleted bool   `json:"deleted"`
	ID      string `json:"id"`
}
