// Package vars resolves declared app variables into the flat mapping pushed
// to the backend. This is part of the Functional Core: the resolver only
// sees the snapshot and callbacks it is handed, never ambient process state.
package vars

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/nexxera/ndeploy/internal/core/domain"
)

// ErrUnresolvedReference is returned when a variable references something
// that cannot be resolved: a {VAR} span missing from the environment
// snapshot, an unregistered service name, or a failing app lookup.
var ErrUnresolvedReference = errors.New("unresolved variable reference")

// ServiceFunc resolves a backing service reference into a connection string.
// The resource argument is the instance discriminator.
type ServiceFunc func(resource string) (string, error)

// interpolationRegex matches {VAR} spans inside a raw value.
var interpolationRegex = regexp.MustCompile(`\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Reference kind prefixes. service: and app: must occupy the whole value;
// only {VAR} interpolation may be embedded inside a larger literal.
const (
	servicePrefix = "service:"
	appPrefix     = "app:"
)

// Resolver expands raw variable values. All inputs are explicit so
// resolution is deterministic and testable.
type Resolver struct {
	// Environ is the process environment snapshot used for {VAR} spans.
	Environ map[string]string

	// Services maps service names to their registered handlers.
	Services map[string]ServiceFunc

	// AppURL resolves an app-link reference to that app's exposed URL.
	AppURL func(name string) (string, error)

	// DefaultResource is the resource name used when a service reference
	// omits one. Conventionally the deploying app's own name.
	DefaultResource string
}

// Resolve expands every raw value, preserving declaration order. The first
// unresolvable variable aborts the whole resolution: partially applied
// configuration is worse than none.
func (r Resolver) Resolve(in domain.EnvVars) (domain.EnvVars, error) {
	out := make(domain.EnvVars, 0, len(in))
	for _, ev := range in {
		value, err := r.ResolveValue(ev.Value)
		if err != nil {
			return nil, fmt.Errorf("variable %s: %w", ev.Name, err)
		}
		out = append(out, domain.EnvVar{Name: ev.Name, Value: value})
	}
	return out, nil
}

// ResolveValue expands a single raw value. Interpolation spans are expanded
// first, then the result is checked for a whole-value service: or app:
// marker.
func (r Resolver) ResolveValue(raw string) (string, error) {
	value, err := r.interpolate(raw)
	if err != nil {
		return "", err
	}

	switch {
	case strings.HasPrefix(value, servicePrefix):
		return r.resolveService(value)
	case strings.HasPrefix(value, appPrefix):
		return r.resolveApp(value)
	default:
		return value, nil
	}
}

// interpolate substitutes every {VAR} span, left to right, with the
// snapshot value of VAR. A span naming an absent variable fails the value.
func (r Resolver) interpolate(raw string) (string, error) {
	var missing string
	value := interpolationRegex.ReplaceAllStringFunc(raw, func(match string) string {
		name := match[1 : len(match)-1]
		v, ok := r.Environ[name]
		if !ok {
			if missing == "" {
				missing = name
			}
			return match
		}
		return v
	})
	if missing != "" {
		return "", fmt.Errorf("%w: environment variable %s is not set", ErrUnresolvedReference, missing)
	}
	return value, nil
}

func (r Resolver) resolveService(value string) (string, error) {
	spec := strings.TrimPrefix(value, servicePrefix)
	name, resource := spec, r.DefaultResource
	if idx := strings.Index(spec, ":"); idx >= 0 {
		name, resource = spec[:idx], spec[idx+1:]
	}
	if name == "" {
		return "", fmt.Errorf("%w: empty service name in %q", ErrUnresolvedReference, value)
	}

	handler, ok := r.Services[name]
	if !ok {
		return "", fmt.Errorf("%w: no handler registered for service %s", ErrUnresolvedReference, name)
	}
	resolved, err := handler(resource)
	if err != nil {
		return "", fmt.Errorf("%w: service %s: %v", ErrUnresolvedReference, name, err)
	}
	return resolved, nil
}

func (r Resolver) resolveApp(value string) (string, error) {
	name := strings.TrimPrefix(value, appPrefix)
	if name == "" {
		return "", fmt.Errorf("%w: empty app name in %q", ErrUnresolvedReference, value)
	}
	if r.AppURL == nil {
		return "", fmt.Errorf("%w: app links are not supported here", ErrUnresolvedReference)
	}
	url, err := r.AppURL(name)
	if err != nil {
		return "", fmt.Errorf("%w: app %s: %v", ErrUnresolvedReference, name, err)
	}
	return url, nil
}

// Format renders resolved variables as the NAME=value fragment appended to
// backend commands. Order follows the input, so the produced command line
// is stable across runs.
func Format(vars domain.EnvVars) string {
	parts := make([]string, 0, len(vars))
	for _, ev := range vars {
		parts = append(parts, ev.Name+"="+ev.Value)
	}
	return strings.Join(parts, " ")
}

// Snapshot converts environ entries in KEY=value form (as returned by
// os.Environ) into a lookup map for the resolver.
func Snapshot(environ []string) map[string]string {
	snapshot := make(map[string]string, len(environ))
	for _, entry := range environ {
		if idx := strings.Index(entry, "="); idx >= 0 {
			snapshot[entry[:idx]] = entry[idx+1:]
		}
	}
	return snapshot
}
