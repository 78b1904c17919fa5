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
	"io"
	"os"
	"path/filepath"

	"filippo.io/age"
	"github.com/olekukonko/tablewriter"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"

	"github.com/Sylenia/kubestack/pkg/manifest"
	"github.com/Sylenia/kubestack/pkg/registry"
)

// buildManifests loads the objects from the given sources: OCI bundles are
// pulled into a temp dir first, then everything goes through the manifest
// builder which renders overlays and patches and sorts the result.
func buildManifests(ctx context.Context, kustomizePath string, filePaths, bundles, patchPaths []string, identities []age.Identity) ([]*unstructured.Unstructured, error) {
	if len(bundles) > 0 {
		tmpDir, err := os.MkdirTemp("", "oci")
		if err != nil {
			return nil, err
		}
		defer os.RemoveAll(tmpDir)

		for i, ociURL := range bundles {
			url, err := registry.ParseURL(ociURL)
			if err != nil {
				return nil, err
			}

			logger.Println("pulling", url)
			yml, _, err := registry.Pull(ctx, url, identities)
			if err != nil {
				return nil, fmt.Errorf("pulling %s failed: %w", ociURL, err)
			}

			if err := os.WriteFile(filepath.Join(tmpDir, fmt.Sprintf("%v.yaml", i)), []byte(yml), 0666); err != nil {
				return nil, fmt.Errorf("extracting manifests from '%s' failed: %w", ociURL, err)
			}
		}

		filePaths = append(filePaths, tmpDir)
	}

	return manifest.Build(kustomizePath, filePaths, patchPaths)
}

func importAgeIdentities(filePaths []string) ([]age.Identity, error) {
	var identities []age.Identity
	for _, filePath := range filePaths {
		ids, err := registry.ParseAgeIdentities(filePath)
		if err != nil {
			return nil, err
		}
		identities = append(identities, ids...)
	}
	return identities, nil
}

func importAgeRecipients(filePaths []string) ([]age.Recipient, error) {
	var recipients []age.Recipient
	for _, filePath := range filePaths {
		rs, err := registry.ParseAgeRecipients(filePath)
		if err != nil {
			return nil, err
		}
		recipients = append(recipients, rs...)
	}
	return recipients, nil
}

func printTable(writer io.Writer, header []string, rows [][]string) {
	table := tablewriter.NewWriter(writer)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")
	table.SetNoWhiteSpace(true)
	table.AppendBulk(rows)
	table.Render()
}
