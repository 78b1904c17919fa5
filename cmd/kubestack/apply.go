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
	"time"

	"github.com/spf13/cobra"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"

	"github.com/Sylenia/kubestack/pkg/depgraph"
	"github.com/Sylenia/kubestack/pkg/engine"
	"github.com/Sylenia/kubestack/pkg/resource"
	"github.com/Sylenia/kubestack/pkg/stack"
)

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Apply validates the given Kubernetes manifests and Kustomize overlays and reconciles them using server-side apply.",
	RunE:  runApplyCmd,
}

type applyFlags struct {
	filename  []string
	kustomize string
	patch     []string
	stackName string
	wait      bool
	force     bool
	prune     bool
	source    string
	revision  string
	bundle    []string
	ageKeys   []string
}

var applyArgs applyFlags

func init() {
	applyCmd.Flags().StringSliceVarP(&applyArgs.filename, "filename", "f", nil,
		"Path to Kubernetes manifest(s). If a directory is specified, then all manifests in the directory tree will be processed recursively.")
	applyCmd.Flags().StringVarP(&applyArgs.kustomize, "kustomize", "k", "",
		"Path to a directory that contains a kustomization.yaml.")
	applyCmd.Flags().StringSliceVarP(&applyArgs.bundle, "bundle", "b", nil,
		"Image URL in the format 'oci://domain/org/repo:tag' e.g. 'oci://docker.io/org/app-deploy:v1.0.0'.")
	applyCmd.Flags().StringSliceVarP(&applyArgs.patch, "patch", "p", nil,
		"Path to a kustomization file that contains a list of patches.")
	applyCmd.Flags().BoolVar(&applyArgs.wait, "wait", false, "Wait for the applied Kubernetes objects to become ready.")
	applyCmd.Flags().BoolVar(&applyArgs.force, "force", false, "Recreate objects that contain immutable fields changes.")
	applyCmd.Flags().BoolVar(&applyArgs.prune, "prune", false, "Delete stale objects from the cluster.")
	applyCmd.Flags().StringVarP(&applyArgs.stackName, "stack-name", "i", "", "The name of the stack record configmap.")
	applyCmd.Flags().StringVar(&applyArgs.source, "source", "", "The URL to the source code.")
	applyCmd.Flags().StringVar(&applyArgs.revision, "revision", "", "The revision identifier.")
	applyCmd.Flags().StringSliceVar(&applyArgs.ageKeys, "age-identities", nil,
		"Path to a file containing one or more age identities (private keys generated by age-keygen).")

	rootCmd.AddCommand(applyCmd)
}

func runApplyCmd(cmd *cobra.Command, args []string) error {
	if applyArgs.kustomize == "" && len(applyArgs.filename) == 0 && len(applyArgs.bundle) == 0 {
		return fmt.Errorf("-f, -k or -b is required")
	}
	if applyArgs.stackName == "" {
		return fmt.Errorf("--stack-name is required")
	}
	stackNamespace := *kubeconfigArgs.Namespace
	if stackNamespace == "" {
		return fmt.Errorf("--namespace is required")
	}

	identities, err := importAgeIdentities(applyArgs.ageKeys)
	if err != nil {
		return fmt.Errorf("failed to import age identities: %w", err)
	}

	var objects []*unstructured.Unstructured

	if len(applyArgs.filename) == 1 && applyArgs.filename[0] == "-" {
		objs, err := resource.ReadObjects(os.Stdin)
		if err != nil {
			return err
		}
		objects = objs
	} else {
		logger.Println("building stack...")
		ctx, cancel := context.WithTimeout(context.Background(), rootArgs.timeout)
		objs, err := buildManifests(ctx, applyArgs.kustomize, applyArgs.filename, applyArgs.bundle, applyArgs.patch, identities)
		cancel()
		if err != nil {
			return err
		}
		objects = objs
	}

	newStack := stack.NewStack(applyArgs.stackName, stackNamespace)
	newStack.SetSource(applyArgs.source, applyArgs.revision)
	if err := newStack.AddObjects(objects); err != nil {
		return fmt.Errorf("creating stack record failed, error: %w", err)
	}
	logger.Println(fmt.Sprintf("applying %v manifest(s)...", len(objects)))

	for _, object := range objects {
		fixReplicasConflict(object, objects)
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
	applier.SetOwnerLabels(objects, applyArgs.stackName, stackNamespace)

	storage := &stack.Storage{
		Client: kubeClient,
		Owner:  stackOwner,
	}

	ctx, cancel := context.WithTimeout(context.Background(), rootArgs.timeout)
	defer cancel()

	if err := storage.CreateNamespace(ctx, stackNamespace); err != nil {
		return fmt.Errorf("creating namespace %s failed, error: %w", stackNamespace, err)
	}

	defs, rest, err := depgraph.SplitStages(objects)
	if err != nil {
		return fmt.Errorf("dependency ordering failed, error: %w", err)
	}

	changeSet, err := applier.ApplyStaged(ctx, defs, rest, applyArgs.force, rootArgs.timeout)
	if err != nil {
		return err
	}
	for _, change := range changeSet.Entries {
		logger.Println(change.String())
	}

	staleObjects, err := storage.GetStaleObjects(ctx, newStack)
	if err != nil {
		return fmt.Errorf("stack record query failed, error: %w", err)
	}

	if err := storage.ApplyStack(ctx, newStack); err != nil {
		return fmt.Errorf("stack record apply failed, error: %w", err)
	}

	if applyArgs.prune && len(staleObjects) > 0 {
		deleteSet, err := applier.DeleteAll(ctx, staleObjects)
		if err != nil {
			return fmt.Errorf("prune failed, error: %w", err)
		}
		for _, change := range deleteSet.Entries {
			logger.Println(change.String())
		}
	}

	if applyArgs.wait {
		logger.Println("waiting for resources to become ready...")

		if err := applier.Wait(objects, 2*time.Second, rootArgs.timeout); err != nil {
			return err
		}

		if applyArgs.prune && len(staleObjects) > 0 {
			if err := applier.WaitForTermination(staleObjects, 2*time.Second, rootArgs.timeout); err != nil {
				return fmt.Errorf("waiting for termination failed, error: %w", err)
			}
		}

		logger.Println("all resources are ready")
	}

	return nil
}

// fixReplicasConflict removes the replicas field from the given workload if it's managed by an HPA
func fixReplicasConflict(object *unstructured.Unstructured, objects []*unstructured.Unstructured) {
	for _, hpa := range objects {
		if hpa.GetKind() == "HorizontalPodAutoscaler" && object.GetNamespace() == hpa.GetNamespace() {
			targetKind, found, err := unstructured.NestedFieldCopy(hpa.Object, "spec", "scaleTargetRef", "kind")
			if err == nil && found && fmt.Sprintf("%v", targetKind) == object.GetKind() {
				targetName, found, err := unstructured.NestedFieldCopy(hpa.Object, "spec", "scaleTargetRef", "name")
				if err == nil && found && fmt.Sprintf("%v", targetName) == object.GetName() {
					unstructured.RemoveNestedField(object.Object, "spec", "replicas")
				}
			}
		}
	}
}
