package domain

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// EnvVar is a single declared environment variable. The value is raw: it may
// be a literal, contain {VAR} interpolation spans, or be a whole-value
// service:/app: reference.
type EnvVar struct {
	Name  string
	Value string
}

// EnvVars is the ordered set of declared variables of an app. Declaration
// order is preserved so resolved values produce deterministic command lines.
type EnvVars []EnvVar

// UnmarshalYAML decodes a mapping node keeping key order. Descriptor files
// are JSON or YAML; both decode through the yaml parser.
func (v *EnvVars) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("env_vars: expected a mapping, got %s", nodeKind(node))
	}
	out := make(EnvVars, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		var name, value string
		if err := node.Content[i].Decode(&name); err != nil {
			return fmt.Errorf("env_vars: invalid key: %w", err)
		}
		if err := node.Content[i+1].Decode(&value); err != nil {
			return fmt.Errorf("env_vars %s: invalid value: %w", name, err)
		}
		out = append(out, EnvVar{Name: name, Value: value})
	}
	*v = out
	return nil
}

// MarshalYAML encodes back to a mapping, preserving order.
func (v EnvVars) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, ev := range v {
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: ev.Name},
			&yaml.Node{Kind: yaml.ScalarNode, Value: ev.Value},
		)
	}
	return node, nil
}

// Get returns the declared value for name.
func (v EnvVars) Get(name string) (string, bool) {
	for _, ev := range v {
		if ev.Name == name {
			return ev.Value, true
		}
	}
	return "", false
}

func nodeKind(node *yaml.Node) string {
	switch node.Kind {
	case yaml.SequenceNode:
		return "sequence"
	case yaml.ScalarNode:
		return "scalar"
	case yaml.MappingNode:
		return "mapping"
	default:
		return "unknown node"
	}
}

// App describes one application to deploy. Apps are transient: they are
// parsed from a deployment descriptor per invocation, never persisted.
type App struct {
	// Name of the application.
	Name string `yaml:"name"`

	// Group the application belongs to. Selects the backend project or
	// namespace on providers that have one.
	Group string `yaml:"group"`

	// DeployNameOverride deploys the app under a different name than Name.
	DeployNameOverride string `yaml:"deploy_name"`

	// Repository is the git source of the app, optionally suffixed with
	// @branch. Used by the source deploy strategy.
	Repository string `yaml:"repository"`

	// Image is the container image reference. When set, deploy happens by
	// image rather than by source.
	Image string `yaml:"image"`

	// EnvVars are the declared variables, unresolved.
	EnvVars EnvVars `yaml:"env_vars"`

	// Domains are extra routes exposed in addition to the default host.
	Domains []string `yaml:"domains"`
}

// DeployName returns the name the app is deployed under: the explicit
// deploy_name when set, the app name otherwise.
func (a App) DeployName() string {
	if a.DeployNameOverride != "" {
		return a.DeployNameOverride
	}
	return a.Name
}

// ParseApp decodes a deployment descriptor. JSON and YAML descriptors are
// both accepted (JSON is parsed by the yaml decoder).
func ParseApp(data []byte) (*App, error) {
	var app App
	if err := yaml.Unmarshal(data, &app); err != nil {
		return nil, fmt.Errorf("parse app descriptor: %w", err)
	}
	if app.Name == "" {
		return nil, fmt.Errorf("parse app descriptor: missing app name")
	}
	return &app, nil
}
