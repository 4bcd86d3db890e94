// Package deployer orchestrates one deployment attempt end to end:
// resolve the environment, load the app descriptor, hand off to the
// environment's provider. The orchestrator adds no retries - every
// provider error propagates unchanged.
package deployer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/nexxera/ndeploy/internal/core/domain"
	"github.com/nexxera/ndeploy/internal/shell/provider"
	"github.com/nexxera/ndeploy/internal/shell/shellexec"
)

// EnvironmentSource resolves environments by name.
type EnvironmentSource interface {
	Get(name string) (domain.Environment, error)
}

// ProviderSource builds providers by environment type.
type ProviderSource interface {
	Provider(envType string) (provider.Provider, error)
}

// Request identifies what to deploy and where. Either File points at a
// descriptor directly, or Group and Name select one through the
// environment's descriptor URL template.
type Request struct {
	File        string
	Group       string
	Name        string
	Environment string
}

// Deployer drives deployments.
type Deployer struct {
	envs      EnvironmentSource
	providers ProviderSource
	runner    shellexec.Runner
	logger    *slog.Logger
}

// New creates a Deployer.
func New(envs EnvironmentSource, providers ProviderSource, runner shellexec.Runner, logger *slog.Logger) *Deployer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Deployer{envs: envs, providers: providers, runner: runner, logger: logger}
}

// Deploy runs one deployment attempt.
func (d *Deployer) Deploy(ctx context.Context, req Request) error {
	logger := d.invocationLogger("deploy", req)

	env, app, prov, err := d.resolve(ctx, req, logger)
	if err != nil {
		return err
	}

	logger.Info("starting deploy",
		"app", app.Name,
		"environment", env.Name,
		"provider", env.Type,
	)
	if err := provider.Deploy(ctx, prov, app, &env); err != nil {
		return err
	}
	logger.Info("deploy finished", "app", app.Name)
	return nil
}

// Undeploy removes the app from the environment.
func (d *Deployer) Undeploy(ctx context.Context, req Request) error {
	logger := d.invocationLogger("undeploy", req)

	env, app, prov, err := d.resolve(ctx, req, logger)
	if err != nil {
		return err
	}

	logger.Info("starting undeploy", "app", app.Name, "environment", env.Name)
	if err := prov.Undeploy(ctx, app, &env); err != nil {
		return err
	}
	logger.Info("undeploy finished", "app", app.Name)
	return nil
}

// resolve performs the lookups shared by deploy and undeploy: environment,
// descriptor, provider.
func (d *Deployer) resolve(ctx context.Context, req Request, logger *slog.Logger) (domain.Environment, *domain.App, provider.Provider, error) {
	env, err := d.envs.Get(req.Environment)
	if err != nil {
		return domain.Environment{}, nil, nil, err
	}

	app, err := d.loadApp(ctx, env, req, logger)
	if err != nil {
		return domain.Environment{}, nil, nil, err
	}

	prov, err := d.providers.Provider(env.Type)
	if err != nil {
		return domain.Environment{}, nil, nil, err
	}
	return env, app, prov, nil
}

// loadApp obtains and parses the deployment descriptor, filling in the
// group and name from the request when the descriptor leaves them out.
func (d *Deployer) loadApp(ctx context.Context, env domain.Environment, req Request, logger *slog.Logger) (*domain.App, error) {
	data, err := d.fetchDescriptor(ctx, env, req, logger)
	if err != nil {
		return nil, err
	}
	app, err := domain.ParseApp(data)
	if err != nil {
		return nil, err
	}
	if app.Group == "" {
		app.Group = req.Group
	}
	if app.Group == "" {
		return nil, fmt.Errorf("app %s: no group in descriptor or request", app.Name)
	}
	return app, nil
}

func (d *Deployer) invocationLogger(op string, req Request) *slog.Logger {
	return d.logger.With(
		"op", op,
		"invocation", uuid.NewString(),
		"environment", req.Environment,
	)
}
