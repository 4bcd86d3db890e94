package deployer

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/nexxera/ndeploy/internal/core/domain"
)

// fetchDescriptor obtains the raw deployment descriptor. An explicit file
// wins; otherwise the environment's URL template is expanded with the
// request group and name and fetched by scheme:
//
//   - http(s) URL: plain GET
//   - "<git repo> <branch> <path>": shallow clone, read path
//   - anything else: local file path
func (d *Deployer) fetchDescriptor(ctx context.Context, env domain.Environment, req Request, logger *slog.Logger) ([]byte, error) {
	if req.File != "" {
		logger.Info("reading descriptor", "file", req.File)
		data, err := os.ReadFile(req.File)
		if err != nil {
			return nil, fmt.Errorf("read descriptor: %w", err)
		}
		return data, nil
	}

	if req.Group == "" || req.Name == "" {
		return nil, fmt.Errorf("deploy needs either a descriptor file or both group and name")
	}

	location := env.DeploymentFileURL(req.Group, req.Name)
	switch {
	case strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://"):
		return d.fetchHTTP(ctx, location, logger)
	case len(strings.Fields(location)) == 3:
		parts := strings.Fields(location)
		return d.fetchGit(ctx, parts[0], parts[1], parts[2], logger)
	default:
		logger.Info("reading descriptor", "file", location)
		data, err := os.ReadFile(location)
		if err != nil {
			return nil, fmt.Errorf("read descriptor: %w", err)
		}
		return data, nil
	}
}

func (d *Deployer) fetchHTTP(ctx context.Context, url string, logger *slog.Logger) ([]byte, error) {
	logger.Info("downloading descriptor", "url", url)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build descriptor request: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download descriptor: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download descriptor: %s returned %s", url, resp.Status)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read descriptor response: %w", err)
	}
	return data, nil
}

// fetchGit clones the configuration repository shallowly and reads the
// descriptor out of the working tree.
func (d *Deployer) fetchGit(ctx context.Context, repo, branch, path string, logger *slog.Logger) ([]byte, error) {
	logger.Info("fetching descriptor", "repository", repo, "branch", branch, "path", path)

	dir, err := os.MkdirTemp("", "ndeploy-conf-")
	if err != nil {
		return nil, fmt.Errorf("create descriptor workdir: %w", err)
	}
	defer os.RemoveAll(dir)

	cmd := fmt.Sprintf("git clone --depth 1 --branch %s %s %s", branch, repo, dir)
	if _, err := d.runner.Execute(ctx, cmd, true); err != nil {
		return nil, fmt.Errorf("clone descriptor repository: %w", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, path))
	if err != nil {
		return nil, fmt.Errorf("read descriptor from repository: %w", err)
	}
	return data, nil
}
