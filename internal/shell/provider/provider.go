// Package provider implements the PaaS backends applications deploy to.
// This is part of the Imperative Shell - every provider drives its backend
// through that backend's own command line tooling.
package provider

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"

	"github.com/nexxera/ndeploy/internal/core/domain"
	"github.com/nexxera/ndeploy/internal/core/vars"
	"github.com/nexxera/ndeploy/internal/shell/shellexec"
)

// =============================================================================
// Error Types
// =============================================================================

var (
	// ErrInvalidAppConfiguration is returned when the app is missing the
	// source required by the chosen deploy strategy.
	ErrInvalidAppConfiguration = errors.New("invalid app configuration")

	// ErrDeployNameTooLong is returned before any backend call when the
	// deploy name exceeds what the backend can handle.
	ErrDeployNameTooLong = errors.New("deploy name too long")

	// ErrNotAuthenticated is returned when the backend CLI has no active
	// session. The operator must authenticate out-of-band.
	ErrNotAuthenticated = errors.New("backend CLI is not authenticated")

	// ErrUnknownProviderType is returned for environment types no provider
	// is registered under.
	ErrUnknownProviderType = errors.New("unknown provider type")
)

// CommandError wraps a backend command that reported a problem on stderr
// which is not a recognized benign condition.
type CommandError struct {
	Op      string // operation that failed (e.g. "create app")
	Command string // backend command that was executed
	Stderr  string
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Op, e.Command, e.Stderr)
}

// =============================================================================
// Provider Interface
// =============================================================================

// Provider is the contract every PaaS backend implements. Deploy methods
// must be idempotent: running the same deploy twice with unchanged inputs
// must not surface backend errors and must leave the backend converged on
// the supplied configuration.
type Provider interface {
	// DeployByImage deploys from a container image. Requires app.Image.
	DeployByImage(ctx context.Context, app *domain.App, env *domain.Environment) error

	// DeployByGitPush deploys from source. Requires app.Repository.
	DeployByGitPush(ctx context.Context, app *domain.App, env *domain.Environment) error

	// Undeploy removes the app from the environment.
	Undeploy(ctx context.Context, app *domain.App, env *domain.Environment) error

	// AppURL returns the externally reachable URL of an app by name within
	// the current environment.
	AppURL(name string) string

	// Services returns the registered backing-service handlers, keyed by
	// service name.
	Services() map[string]vars.ServiceFunc
}

// Deploy dispatches to the strategy matching the app: by image when an
// image is declared, by git push when only a repository is. An app with
// neither cannot be deployed.
func Deploy(ctx context.Context, p Provider, app *domain.App, env *domain.Environment) error {
	switch {
	case app.Image != "":
		return p.DeployByImage(ctx, app, env)
	case app.Repository != "":
		return p.DeployByGitPush(ctx, app, env)
	default:
		return fmt.Errorf("%w: app %s declares neither image nor repository", ErrInvalidAppConfiguration, app.Name)
	}
}

// =============================================================================
// Registry
// =============================================================================

// Options configures provider construction.
type Options struct {
	Runner shellexec.Runner
	Logger *slog.Logger

	// Environ is the process environment snapshot used for {VAR}
	// interpolation. Defaults to os.Environ at registry construction, and
	// is passed explicitly so resolution stays deterministic in tests.
	Environ map[string]string

	// DeployUser is the ssh user for git-style backends. Defaults to the
	// backend's conventional user.
	DeployUser string
}

// Factory builds a provider instance.
type Factory func(opts Options) Provider

// Registry maps environment types to provider factories. The provider for
// a deployment is selected once, from the environment's type field.
type Registry struct {
	opts      Options
	factories map[string]Factory
}

// NewRegistry creates a registry with the built-in providers registered.
func NewRegistry(opts Options) *Registry {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Environ == nil {
		opts.Environ = vars.Snapshot(os.Environ())
	}
	r := &Registry{opts: opts, factories: make(map[string]Factory)}
	r.Register(DokkuType, func(o Options) Provider { return NewDokku(o) })
	r.Register(OpenShiftType, func(o Options) Provider { return NewOpenShift(o) })
	return r
}

// Register adds a factory under a type name, replacing any previous one.
func (r *Registry) Register(envType string, factory Factory) {
	r.factories[envType] = factory
}

// Provider builds the provider for an environment type.
func (r *Registry) Provider(envType string) (Provider, error) {
	factory, ok := r.factories[envType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProviderType, envType)
	}
	return factory(r.opts), nil
}

// Types lists the registered environment types, sorted.
func (r *Registry) Types() []string {
	types := make([]string, 0, len(r.factories))
	for t := range r.factories {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// =============================================================================
// Shared Helpers
// =============================================================================

// resolveAppVars runs the variable resolution engine with the provider's
// registered services and app lookup.
func resolveAppVars(p Provider, environ map[string]string, app *domain.App) (domain.EnvVars, error) {
	resolver := vars.Resolver{
		Environ:  environ,
		Services: p.Services(),
		AppURL: func(name string) (string, error) {
			return p.AppURL(name), nil
		},
		DefaultResource: app.Name,
	}
	return resolver.Resolve(app.EnvVars)
}

// ensureResource implements the query-then-create probe every backend
// resource goes through: query existence, create only when absent. Safe to
// repeat because the query runs before every create.
func ensureResource(exists func() (bool, error), create func() error) error {
	ok, err := exists()
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	return create()
}
