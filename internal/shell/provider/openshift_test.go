package provider

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexxera/ndeploy/internal/core/domain"
	"github.com/nexxera/ndeploy/internal/shell/shellexec"
)

func openshiftEnv() *domain.Environment {
	return &domain.Environment{Name: "dev", Type: OpenShiftType, DeployHost: "paas.example.com"}
}

func openshiftApp() *domain.App {
	return &domain.App{
		Name:    "myapp",
		Group:   "Team",
		Image:   "registry.io/team/myapp:v1",
		EnvVars: domain.EnvVars{{Name: "APP_ENV", Value: "production"}},
	}
}

func newTestOpenShift(runner *fakeRunner) *OpenShift {
	return NewOpenShift(Options{Runner: runner, Environ: map[string]string{}})
}

// routesJSON builds a route list document with one route per host, all
// targeting target.
func routesJSON(target string, hosts ...string) string {
	items := make([]string, 0, len(hosts))
	for _, h := range hosts {
		items = append(items, fmt.Sprintf(`{"spec": {"host": "%s", "to": {"name": "%s"}}}`, h, target))
	}
	return fmt.Sprintf(`{"items": [%s]}`, strings.Join(items, ","))
}

// =============================================================================
// Deploy Name Validation Tests
// =============================================================================

func TestOpenShiftDeployByImage_NameTooLong(t *testing.T) {
	runner := &fakeRunner{}
	app := openshiftApp()
	app.DeployNameOverride = "an-app-name-of-25-chars-x"
	require.Len(t, app.DeployName(), 25)

	err := newTestOpenShift(runner).DeployByImage(context.Background(), app, openshiftEnv())
	assert.ErrorIs(t, err, ErrDeployNameTooLong)
	// The guard fires before any backend call.
	assert.Empty(t, runner.commands)
	assert.Empty(t, runner.shellCommands)
}

func TestOpenShiftDeployByImage_NameAtLimitPasses(t *testing.T) {
	runner := &fakeRunner{}
	app := openshiftApp()
	app.DeployNameOverride = strings.Repeat("a", 24)

	err := newTestOpenShift(runner).DeployByImage(context.Background(), app, openshiftEnv())
	assert.NoError(t, err)
}

// =============================================================================
// Authentication Tests
// =============================================================================

func TestOpenShift_AnonymousSessionIsNotAuthenticated(t *testing.T) {
	runner := &fakeRunner{}
	runner.respond("whoami", shellexec.Result{Stderr: "error: system:anonymous"}, nil)

	err := newTestOpenShift(runner).DeployByImage(context.Background(), openshiftApp(), openshiftEnv())
	assert.ErrorIs(t, err, ErrNotAuthenticated)
	assert.Equal(t, []string{"oc whoami"}, runner.commands)
}

func TestOpenShift_CredentialsPromptIsNotAuthenticated(t *testing.T) {
	runner := &fakeRunner{}
	runner.respond("whoami", shellexec.Result{Stderr: "You must provide credentials to perform this operation"}, nil)

	err := newTestOpenShift(runner).DeployByImage(context.Background(), openshiftApp(), openshiftEnv())
	assert.ErrorIs(t, err, ErrNotAuthenticated)
}

func TestOpenShift_ProbeTimeoutIsNotAuthenticated(t *testing.T) {
	runner := &fakeRunner{}
	runner.respond("whoami", shellexec.Result{}, fmt.Errorf("%w: oc whoami", shellexec.ErrTimeout))

	err := newTestOpenShift(runner).DeployByImage(context.Background(), openshiftApp(), openshiftEnv())
	assert.ErrorIs(t, err, ErrNotAuthenticated)
}

// =============================================================================
// Project Convergence Tests
// =============================================================================

func TestOpenShift_CreatesMissingProjectAndSecret(t *testing.T) {
	runner := &fakeRunner{}
	runner.respond("get project", shellexec.Result{Stderr: "Error from server (NotFound)"}, nil)
	runner.respond("get secret", shellexec.Result{Stderr: "Error from server (NotFound)"}, nil)

	err := newTestOpenShift(runner).DeployByImage(context.Background(), openshiftApp(), openshiftEnv())
	require.NoError(t, err)

	// Project name is the lowercased group.
	assert.Equal(t, 1, runner.count("oc new-project team"))
	assert.Equal(t, 1, runner.count("secrets add serviceaccount/builder secrets/scmsecret"))
	require.Len(t, runner.shellCommands, 1)
	assert.Equal(t, "oc secrets new scmsecret ssh-privatekey=$HOME/.ssh/id_rsa -n team", runner.shellCommands[0])
}

func TestOpenShift_ExistingProjectIsLeftAlone(t *testing.T) {
	runner := &fakeRunner{}

	err := newTestOpenShift(runner).DeployByImage(context.Background(), openshiftApp(), openshiftEnv())
	require.NoError(t, err)

	assert.Equal(t, 0, runner.count("new-project"))
	assert.Empty(t, runner.shellCommands)
}

func TestOpenShift_AnnotatesProjectWithRegion(t *testing.T) {
	runner := &fakeRunner{}

	err := newTestOpenShift(runner).DeployByImage(context.Background(), openshiftApp(), openshiftEnv())
	require.NoError(t, err)

	assert.Equal(t, 1, runner.count(
		`oc patch namespace team --patch '{"metadata":{"annotations":{"openshift.io/node-selector":"region=dev"}}}' -n team`))
}

// =============================================================================
// Revision-Diff Force Redeploy Tests
// =============================================================================

func TestOpenShift_ForcesDeployWhenRevisionUnchanged(t *testing.T) {
	runner := &fakeRunner{}
	runner.respond("get routes", shellexec.Result{Stdout: routesJSON("none")}, nil)
	runner.respond("-o json", shellexec.Result{Stdout: `{"status": {"latestVersion": 3}}`}, nil)

	err := newTestOpenShift(runner).DeployByImage(context.Background(), openshiftApp(), openshiftEnv())
	require.NoError(t, err)

	// import + env update left revision at 3, so exactly one forced deploy.
	assert.Equal(t, 1, runner.count("oc deploy myapp --latest -n team"))
	assert.Equal(t, 1, runner.count("oc import-image myapp:v1 -n team"))
	assert.Equal(t, 1, runner.count("oc env dc/myapp APP_ENV=production -n team"))
}

func TestOpenShift_NoForceWhenRevisionAdvances(t *testing.T) {
	runner := &fakeRunner{}
	runner.respond("get routes", shellexec.Result{Stdout: routesJSON("none")}, nil)
	runner.respondOnce("-o json", shellexec.Result{Stdout: `{"status": {"latestVersion": 3}}`}, nil)
	runner.respond("-o json", shellexec.Result{Stdout: `{"status": {"latestVersion": 4}}`}, nil)

	err := newTestOpenShift(runner).DeployByImage(context.Background(), openshiftApp(), openshiftEnv())
	require.NoError(t, err)

	assert.Equal(t, 0, runner.count("--latest"))
}

func TestOpenShift_CreatesAppWhenAbsent(t *testing.T) {
	runner := &fakeRunner{}
	runner.respondOnce("get dc/myapp", shellexec.Result{Stderr: "Error from server (NotFound)"}, nil)

	err := newTestOpenShift(runner).DeployByImage(context.Background(), openshiftApp(), openshiftEnv())
	require.NoError(t, err)

	assert.Equal(t, 1, runner.count("oc new-app registry.io/team/myapp:v1 --name myapp --env=APP_ENV=production -n team"))
}

func TestOpenShift_SecondDeployDoesNotRecreateApp(t *testing.T) {
	runner := &fakeRunner{}
	openshift := newTestOpenShift(runner)
	app := openshiftApp()

	require.NoError(t, openshift.DeployByImage(context.Background(), app, openshiftEnv()))
	require.NoError(t, openshift.DeployByImage(context.Background(), app, openshiftEnv()))

	assert.Equal(t, 0, runner.count("new-app"))
}

// =============================================================================
// Route Exposure Tests
// =============================================================================

func TestOpenShift_ExposesDefaultAndExtraDomains(t *testing.T) {
	runner := &fakeRunner{}
	runner.respond("get routes", shellexec.Result{Stdout: routesJSON("none")}, nil)
	app := openshiftApp()
	app.Domains = []string{"pay.example.com"}

	err := newTestOpenShift(runner).DeployByImage(context.Background(), app, openshiftEnv())
	require.NoError(t, err)

	assert.Equal(t, 1, runner.count("--hostname=myapp-team.paas.example.com"))
	assert.Equal(t, 1, runner.count("--hostname=pay.example.com"))
	assert.Equal(t, 2, runner.count(`"termination": "edge"`))
	assert.Equal(t, 2, runner.count(`"insecureEdgeTerminationPolicy": "Redirect"`))
}

func TestOpenShift_ExistingRouteIsNotRecreated(t *testing.T) {
	runner := &fakeRunner{}
	runner.respond("get routes",
		shellexec.Result{Stdout: routesJSON("myapp", "myapp-team.paas.example.com")}, nil)

	err := newTestOpenShift(runner).DeployByImage(context.Background(), openshiftApp(), openshiftEnv())
	require.NoError(t, err)

	assert.Equal(t, 0, runner.count("expose service/"))
}

func TestOpenShift_RouteIdempotence(t *testing.T) {
	runner := &fakeRunner{}
	runner.respond("get routes", shellexec.Result{Stdout: routesJSON("none")}, nil)
	openshift := newTestOpenShift(runner)
	app := openshiftApp()
	env := openshiftEnv()

	require.NoError(t, openshift.DeployByImage(context.Background(), app, env))

	// Second run sees the route created by the first.
	runner.script = nil
	runner.respond("get routes",
		shellexec.Result{Stdout: routesJSON("myapp", "myapp-team.paas.example.com")}, nil)
	require.NoError(t, openshift.DeployByImage(context.Background(), app, env))

	assert.Equal(t, 1, runner.count("expose service/myapp"))
}

func TestOpenShift_UnreadableRouteListCountsAsAbsent(t *testing.T) {
	runner := &fakeRunner{}
	runner.respond("get routes", shellexec.Result{Stdout: "not json"}, nil)

	err := newTestOpenShift(runner).DeployByImage(context.Background(), openshiftApp(), openshiftEnv())
	require.NoError(t, err)

	assert.Equal(t, 1, runner.count("expose service/myapp"))
}

// =============================================================================
// Source Deploy Tests
// =============================================================================

func TestOpenShiftDeployByGitPush(t *testing.T) {
	runner := &fakeRunner{}
	app := openshiftApp()
	app.Image = ""
	app.Repository = "git@git.example.com:team/myapp.git"

	err := newTestOpenShift(runner).DeployByGitPush(context.Background(), app, openshiftEnv())
	require.NoError(t, err)

	assert.Equal(t, 1, runner.count("oc start-build myapp --follow -n team"))
	assert.Equal(t, 1, runner.count("oc env dc/myapp APP_ENV=production -n team"))
	require.Len(t, runner.shellCommands, 1)
	assert.Equal(t,
		`oc patch bc myapp -p '{"spec":{"source":{"sourceSecret":{"name":"scmsecret"}}}}' -n team`,
		runner.shellCommands[0])
}

func TestOpenShiftDeployByGitPush_MissingRepository(t *testing.T) {
	runner := &fakeRunner{}
	app := openshiftApp()
	app.Image = ""

	err := newTestOpenShift(runner).DeployByGitPush(context.Background(), app, openshiftEnv())
	assert.ErrorIs(t, err, ErrInvalidAppConfiguration)
	assert.Empty(t, runner.commands)
}

// =============================================================================
// Undeploy Tests
// =============================================================================

func TestOpenShiftUndeploy_SingleBulkDelete(t *testing.T) {
	runner := &fakeRunner{}

	err := newTestOpenShift(runner).Undeploy(context.Background(), openshiftApp(), openshiftEnv())
	require.NoError(t, err)

	assert.Equal(t, []string{"oc delete all -l app=myapp -n team"}, runner.commands)
}

func TestOpenShiftUndeploy_ErrorPropagatesVerbatim(t *testing.T) {
	runner := &fakeRunner{}
	runner.respond("delete all", shellexec.Result{Stderr: "the server is down"}, nil)

	err := newTestOpenShift(runner).Undeploy(context.Background(), openshiftApp(), openshiftEnv())
	require.Error(t, err)

	var cmdErr *CommandError
	require.ErrorAs(t, err, &cmdErr)
	assert.Equal(t, "the server is down", cmdErr.Stderr)
}
