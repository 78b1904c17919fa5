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
	"os"

	"github.com/spf13/cobra"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"

	"github.com/Sylenia/kubestack/pkg/engine"
	"github.com/Sylenia/kubestack/pkg/resource"
	"github.com/Sylenia/kubestack/pkg/stack"
)

var diffCmd = &cobra.Command{
	Use:   "diff",
	Short: "Diff compares the local Kubernetes manifests with the in-cluster objects and prints the YAML diff to stdout.",
	RunE:  runDiffCmd,
}

type diffFlags struct {
	filename  []string
	kustomize string
	patch     []string
	stackName string
}

var diffArgs diffFlags

func init() {
	diffCmd.Flags().StringSliceVarP(&diffArgs.filename, "filename", "f", nil,
		"Path to Kubernetes manifest(s). If a directory is specified, then all manifests in the directory tree will be processed recursively.")
	diffCmd.Flags().StringVarP(&diffArgs.kustomize, "kustomize", "k", "",
		"Path to a directory that contains a kustomization.yaml.")
	diffCmd.Flags().StringSliceVarP(&diffArgs.patch, "patch", "p", nil,
		"Path to a kustomization file that contains a list of patches.")
	diffCmd.Flags().StringVarP(&diffArgs.stackName, "stack-name", "i", "", "The name of the stack record configmap.")
	rootCmd.AddCommand(diffCmd)
}

func runDiffCmd(cmd *cobra.Command, args []string) error {
	if diffArgs.kustomize == "" && len(diffArgs.filename) == 0 {
		return fmt.Errorf("-f or -k is required")
	}
	stackNamespace := *kubeconfigArgs.Namespace

	var objects []*unstructured.Unstructured

	if len(diffArgs.filename) == 1 && diffArgs.filename[0] == "-" {
		objs, err := resource.ReadObjects(os.Stdin)
		if err != nil {
			return err
		}
		objects = objs
	} else {
		objs, err := buildManifests(context.Background(), diffArgs.kustomize, diffArgs.filename, nil, diffArgs.patch, nil)
		if err != nil {
			return err
		}
		objects = objs
	}

	newStack := stack.NewStack(diffArgs.stackName, stackNamespace)
	if err := newStack.AddObjects(objects); err != nil {
		return fmt.Errorf("creating stack record failed, error: %w", err)
	}

	kubeClient, err := newKubeClient(kubeconfigArgs)
	if err != nil {
		return fmt.Errorf("client init failed: %w", err)
	}

	statusPoller, err := newKubeStatusPoller(kubeconfigArgs)
	if err != nil {
		return fmt.Errorf("status poller init failed: %w", err)
	}

	applier := engine.NewApplier(kubeClient, statusPoller, stackOwner)

	storage := &stack.Storage{
		Client: kubeClient,
		Owner:  stackOwner,
	}

	ctx, cancel := context.WithTimeout(context.Background(), rootArgs.timeout)
	defer cancel()

	if diffArgs.stackName != "" {
		applier.SetOwnerLabels(objects, diffArgs.stackName, stackNamespace)
	}

	invalid := false
	for _, object := range objects {
		change, err := applier.Diff(ctx, object)
		if err != nil {
			logger.Println(`✗`, err)
			invalid = true
			continue
		}

		if change.Action == string(engine.CreatedAction) {
			rootCmd.Println(`►`, change.Subject, "created")
		}

		if change.Action == string(engine.ConfiguredAction) {
			rootCmd.Println(`►`, change.Subject, "drifted")
			rootCmd.Println(change.Diff)
		}
	}

	if diffArgs.stackName != "" {
		staleObjects, err := storage.GetStaleObjects(ctx, newStack)
		if err != nil {
			return fmt.Errorf("stack record query failed, error: %w", err)
		}

		for _, object := range staleObjects {
			rootCmd.Println(`►`, fmt.Sprintf("%s deleted", resource.FmtUnstructured(object)))
		}
	}

	if invalid {
		os.Exit(1)
	}
	return nil
}
