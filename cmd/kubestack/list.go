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
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/spf13/cobra"

	"github.com/Sylenia/kubestack/pkg/registry"
)

var listCmd = &cobra.Command{
	Use:   "list OCIURL",
	Short: "List the versions of an OCI bundle.",
	Long: `The list command fetches the tags of the specified OCI bundle from its image repository.
If a semantic version condition is specified, the tags are filtered and ordered by semver.
For private registries, the list command uses the credentials from '~/.docker/config.json'.`,
	Example: `  kubestack list <oci repository url> --semver <condition>

  # List all versions ordered by semver
  kubestack list oci://docker.io/user/repo --semver="*"

  # List all versions including prerelease ordered by semver
  kubestack list oci://docker.io/user/repo --semver=">0.0.0-0"

  # List all versions in the 1.0 range
  kubestack list oci://docker.io/user/repo --semver="~1.0"
`,
	RunE: runListCmd,
}

type listFlags struct {
	semverExp string
}

var listArgs listFlags

func init() {
	listCmd.Flags().StringVar(&listArgs.semverExp, "semver", "",
		"Filter the results based on a semantic version constraint e.g. '1.x'.")
	rootCmd.AddCommand(listCmd)
}

func runListCmd(cmd *cobra.Command, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("you must specify a bundle repository e.g. 'oci://docker.io/user/repo'")
	}

	url, err := registry.ParseRepositoryURL(args[0])
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), rootArgs.timeout)
	defer cancel()

	tags, err := registry.List(ctx, url)
	if err != nil {
		return fmt.Errorf("listing %s failed: %w", url, err)
	}

	var rows [][]string

	if exp := listArgs.semverExp; exp != "" {
		c, err := semver.NewConstraint(exp)
		if err != nil {
			return fmt.Errorf("semver '%s' parse error: %w", exp, err)
		}

		var matchingVersions []*semver.Version
		for _, t := range tags {
			v, err := semver.NewVersion(t)
			if err != nil {
				continue
			}

			if c != nil && !c.Check(v) {
				continue
			}

			matchingVersions = append(matchingVersions, v)
		}

		sort.Sort(sort.Reverse(semver.Collection(matchingVersions)))

		for _, ver := range matchingVersions {
			row := []string{ver.String(), fmt.Sprintf("%s:%s", url, ver.Original())}
			rows = append(rows, row)
		}
	} else {
		for _, tag := range tags {
			// exclude cosign signatures
			if !strings.HasSuffix(tag, ".sig") {
				row := []string{tag, fmt.Sprintf("%s:%s", url, tag)}
				rows = append(rows, row)
			}
		}
	}

	printTable(rootCmd.OutOrStdout(), []string{"version", "url"}, rows)

	return nil
}
