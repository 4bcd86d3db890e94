package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nexxera/ndeploy/internal/core/domain"
)

var (
	envName    string
	envType    string
	deployHost string
	fileURL    string
)

var addenvCmd = &cobra.Command{
	Use:   "addenv",
	Short: "Add a deployment environment",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := environmentFromFlags()
		if err != nil {
			return err
		}
		if err := store.Add(env); err != nil {
			return err
		}
		fmt.Println("Environment added.")
		return nil
	},
}

var updatenvCmd = &cobra.Command{
	Use:   "updatenv",
	Short: "Replace a deployment environment",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := environmentFromFlags()
		if err != nil {
			return err
		}
		if err := store.Update(env); err != nil {
			return err
		}
		fmt.Println("Environment updated.")
		return nil
	},
}

var delenvCmd = &cobra.Command{
	Use:   "delenv",
	Short: "Remove a deployment environment",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := promptIfEmpty(&envName, "Environment name"); err != nil {
			return err
		}
		if err := store.Remove(envName); err != nil {
			return err
		}
		fmt.Println("Environment deleted.")
		return nil
	},
}

var listenvCmd = &cobra.Command{
	Use:   "listenv",
	Short: "List deployment environments",
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, env := range store.List() {
			fmt.Printf("%s\t%s\t%s\t%s\n", env.Name, env.Type, env.DeployHost, env.AppDeploymentFileURL)
		}
		return nil
	},
}

var keyenvCmd = &cobra.Command{
	Use:   "keyenv",
	Short: "Print the public key of an environment",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := promptIfEmpty(&envName, "Environment name"); err != nil {
			return err
		}
		key, err := store.PublicKey(envName)
		if err != nil {
			return err
		}
		fmt.Print(key)
		return nil
	},
}

// environmentFromFlags collects the four environment fields, prompting for
// any not given, and validates the type against the registered providers.
func environmentFromFlags() (domain.Environment, error) {
	prompts := []struct {
		value *string
		label string
	}{
		{&envName, "Environment name"},
		{&envType, fmt.Sprintf("Provider type (%s)", strings.Join(registry.Types(), ", "))},
		{&deployHost, "Deploy host"},
		{&fileURL, "App deployment file URL"},
	}
	for _, p := range prompts {
		if err := promptIfEmpty(p.value, p.label); err != nil {
			return domain.Environment{}, err
		}
	}
	if _, err := registry.Provider(envType); err != nil {
		return domain.Environment{}, err
	}
	return domain.Environment{
		Name:                 envName,
		Type:                 envType,
		DeployHost:           deployHost,
		AppDeploymentFileURL: fileURL,
	}, nil
}

func init() {
	for _, cmd := range []*cobra.Command{addenvCmd, updatenvCmd} {
		cmd.Flags().StringVarP(&envName, "name", "n", "", "environment name")
		cmd.Flags().StringVarP(&envType, "type", "t", "", "provider type")
		cmd.Flags().StringVar(&deployHost, "deploy-host", "", "deploy host")
		cmd.Flags().StringVarP(&fileURL, "file-url", "f", "", "app deployment file URL template, ex.: git@myhost.com:myconfs/{group} master {name}.json")
	}
	for _, cmd := range []*cobra.Command{delenvCmd, keyenvCmd} {
		cmd.Flags().StringVarP(&envName, "name", "n", "", "environment name")
	}
	rootCmd.AddCommand(addenvCmd, updatenvCmd, delenvCmd, listenvCmd, keyenvCmd)
}
