package main

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nexxera/ndeploy/internal/shell/deployer"
	"github.com/nexxera/ndeploy/internal/shell/envstore"
	"github.com/nexxera/ndeploy/internal/shell/provider"
	"github.com/nexxera/ndeploy/internal/shell/shellexec"
)

var (
	cfgFile string

	cfg      *Config
	logger   *slog.Logger
	store    *envstore.Store
	registry *provider.Registry
	deploys  *deployer.Deployer
)

var rootCmd = &cobra.Command{
	Use:   "ndeploy",
	Short: "Deploys applications onto PaaS environments",
	Long: `ndeploy deploys applications described by a deployment descriptor
onto named environments backed by different PaaS tools (dokku, openshift).`,
	SilenceErrors:     true,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

// Execute runs the CLI, returning the process exit code.
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// setup wires the components every subcommand shares.
func setup(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = LoadConfig(cfgFile)
	if err != nil {
		return err
	}
	logger = SetupLogger(cfg)
	slog.SetDefault(logger)

	store, err = envstore.New(cfg.Home)
	if err != nil {
		return err
	}

	runner := shellexec.NewLocalRunner(logger)
	registry = provider.NewRegistry(provider.Options{
		Runner:     runner,
		Logger:     logger,
		DeployUser: cfg.DeployUser,
	})
	deploys = deployer.New(store, registry, runner, logger)
	return nil
}

// promptIfEmpty asks for a value on stdin when the flag was not given.
func promptIfEmpty(value *string, label string) error {
	if *value != "" {
		return nil
	}
	fmt.Fprintf(os.Stderr, "%s: ", label)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return fmt.Errorf("read %s: %w", label, err)
	}
	*value = strings.TrimSpace(line)
	if *value == "" {
		return fmt.Errorf("%s is required", label)
	}
	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.ndeploy/config.yaml)")
}
