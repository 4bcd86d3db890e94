package main

import (
	"github.com/spf13/cobra"

	"github.com/nexxera/ndeploy/internal/shell/deployer"
)

var (
	deployFile        string
	deployGroup       string
	deployName        string
	deployEnvironment string
)

var deployCmd = &cobra.Command{
	Use:   "deploy",
	Short: "Deploy an application to an environment",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := resolveEnvironmentArg(); err != nil {
			return err
		}
		return deploys.Deploy(cmd.Context(), deployer.Request{
			File:        deployFile,
			Group:       deployGroup,
			Name:        deployName,
			Environment: deployEnvironment,
		})
	},
}

var undeployCmd = &cobra.Command{
	Use:   "undeploy",
	Short: "Remove an application from an environment",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := resolveEnvironmentArg(); err != nil {
			return err
		}
		return deploys.Undeploy(cmd.Context(), deployer.Request{
			File:        deployFile,
			Group:       deployGroup,
			Name:        deployName,
			Environment: deployEnvironment,
		})
	},
}

// resolveEnvironmentArg falls back to the configured default environment
// before prompting.
func resolveEnvironmentArg() error {
	if deployEnvironment == "" {
		deployEnvironment = cfg.DefaultEnvironment
	}
	return promptIfEmpty(&deployEnvironment, "Environment name")
}

func init() {
	for _, cmd := range []*cobra.Command{deployCmd, undeployCmd} {
		cmd.Flags().StringVarP(&deployFile, "file", "f", "", "app deployment descriptor file")
		cmd.Flags().StringVarP(&deployGroup, "group", "g", "", "app group")
		cmd.Flags().StringVarP(&deployName, "name", "n", "", "app name")
		cmd.Flags().StringVarP(&deployEnvironment, "environment", "e", "", "environment name")
	}
	rootCmd.AddCommand(deployCmd, undeployCmd)
}
