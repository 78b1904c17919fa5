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

	"github.com/Sylenia/kubestack/pkg/depgraph"
	"github.com/Sylenia/kubestack/pkg/resource"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build scans the given path for Kubernetes manifests or Kustomize overlays and prints the multi-doc to stdout.",
	RunE:  runBuildCmd,
}

type buildFlags struct {
	filename  []string
	kustomize string
	patch     []string
	output    string
}

var buildArgs buildFlags

func init() {
	buildCmd.Flags().StringSliceVarP(&buildArgs.filename, "filename", "f", nil,
		"Path to Kubernetes manifest(s). If a directory is specified, then all manifests in the directory tree will be processed recursively.")
	buildCmd.Flags().StringVarP(&buildArgs.kustomize, "kustomize", "k", "",
		"Path to a directory that contains a kustomization.yaml.")
	buildCmd.Flags().StringSliceVarP(&buildArgs.patch, "patch", "p", nil,
		"Path to a kustomization file that contains a list of patches.")
	buildCmd.Flags().StringVarP(&buildArgs.output, "output", "o", "yaml",
		"Write manifests to stdout in YAML or JSON format.")

	rootCmd.AddCommand(buildCmd)
}

func runBuildCmd(cmd *cobra.Command, args []string) error {
	if buildArgs.kustomize == "" && len(buildArgs.filename) == 0 {
		return fmt.Errorf("-f or -k is required")
	}

	objects, err := buildManifests(context.Background(), buildArgs.kustomize, buildArgs.filename, nil, buildArgs.patch, nil)
	if err != nil {
		return err
	}

	objects, err = depgraph.Sort(objects)
	if err != nil {
		return err
	}

	switch buildArgs.output {
	case "yaml":
		yml, err := resource.ObjectsToYAML(objects)
		if err != nil {
			return err
		}
		rootCmd.Println(yml)
	case "json":
		json, err := resource.ObjectsToJSON(objects)
		if err != nil {
			return err
		}
		rootCmd.Println(json)
	default:
		return fmt.Errorf("unsupported output, can be yaml or json")
	}

	return nil
}
