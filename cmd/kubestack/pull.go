/*
Copyright 2025 Sylenia

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Sylenia/kubestack/pkg/registry"
)

var pullCmd = &cobra.Command{
	Use:   "pull OCIURL",
	Short: "Pull downloads Kubernetes manifests from a container registry.",
	Long: `The pull command downloads the specified OCI bundle and writes the Kubernetes manifests to stdout.
For private registries, the pull command uses the credentials from '~/.docker/config.json'.`,
	Example: `  # Pull Kubernetes manifests from an OCI bundle hosted on Docker Hub
  kubestack pull oci://docker.io/user/repo:v1.0.0 > manifests.yaml

  # Pull an OCI bundle using the digest and write the Kubernetes manifests to stdout
  kubestack pull oci://docker.io/user/repo@sha256:<digest>

  # Pull and decrypt an encrypted bundle
  kubestack pull oci://localhost:5000/repo:latest --age-identities ./keys.txt

  # Apply Kubernetes manifests from an OCI bundle
  kubestack pull oci://docker.io/user/repo:v1.0.0 | kubestack apply -i test -f-
`,
	RunE: runPullCmd,
}

type pullFlags struct {
	ageKeys []string
}

var pullArgs pullFlags

func init() {
	pullCmd.Flags().StringSliceVar(&pullArgs.ageKeys, "age-identities", nil,
		"Path to a file containing one or more age identities (private keys generated by age-keygen).")

	rootCmd.AddCommand(pullCmd)
}

func runPullCmd(cmd *cobra.Command, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("you must specify a bundle name e.g. 'oci://docker.io/user/repo:tag'")
	}

	url, err := registry.ParseURL(args[0])
	if err != nil {
		return err
	}

	identities, err := importAgeIdentities(pullArgs.ageKeys)
	if err != nil {
		return fmt.Errorf("failed to import age identities: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), rootArgs.timeout)
	defer cancel()

	yml, _, err := registry.Pull(ctx, url, identities)
	if err != nil {
		return fmt.Errorf("pulling %s failed: %w", url, err)
	}

	rootCmd.Println(yml)
	return nil
}
