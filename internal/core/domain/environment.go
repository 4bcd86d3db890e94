// Package domain holds the core deployment models.
// This is part of the Functional Core - pure data and logic, no I/O.
package domain

import "strings"

// Environment describes a named deployment target backed by a PaaS.
type Environment struct {
	// Name identifies the environment (dev, qa, production, ...).
	Name string `json:"name" yaml:"name"`

	// Type selects the provider implementation (dokku, openshift, ...).
	Type string `json:"type" yaml:"type"`

	// DeployHost is the host used to reach the PaaS tooling.
	DeployHost string `json:"deploy_host" yaml:"deploy_host"`

	// AppDeploymentFileURL is a template used to locate the deployment
	// descriptor of an app, with {group} and {name} placeholders.
	// Example: git@myhost.com:confs/{group} master {name}.json
	AppDeploymentFileURL string `json:"app_deployment_file_url" yaml:"app_deployment_file_url"`
}

// DeploymentFileURL expands the app_deployment_file_url template for the
// given app group and name.
//
// Example:
//
//	e.AppDeploymentFileURL = "https://conf.example.com/{group}/{name}.json"
//	e.DeploymentFileURL("billing", "invoicer")
//	// returns "https://conf.example.com/billing/invoicer.json"
func (e Environment) DeploymentFileURL(group, name string) string {
	url := strings.ReplaceAll(e.AppDeploymentFileURL, "{group}", group)
	return strings.ReplaceAll(url, "{name}", name)
}
