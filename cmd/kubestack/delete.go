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
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/Sylenia/kubestack/pkg/engine"
	"github.com/Sylenia/kubestack/pkg/resource"
	"github.com/Sylenia/kubestack/pkg/stack"
)

var deleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete the Kubernetes objects in the specified stack including the stack record.",
	Example: ` kubestack delete <stack name> -n <stack namespace>

  # Delete a stack and its content
  kubestack delete my-app -n apps
`,
	RunE: runDeleteCmd,
}

type deleteFlags struct {
	wait bool
}

var deleteArgs deleteFlags

func init() {
	deleteCmd.Flags().BoolVar(&deleteArgs.wait, "wait", true, "Wait for the deleted Kubernetes objects to be terminated.")

	rootCmd.AddCommand(deleteCmd)
}

func runDeleteCmd(cmd *cobra.Command, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("you must specify a stack name")
	}
	name := args[0]

	ctx, cancel := context.WithTimeout(context.Background(), rootArgs.timeout)
	defer cancel()

	logger.Println("retrieving stack record...")

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

	st := stack.NewStack(name, *kubeconfigArgs.Namespace)
	if err := storage.GetStack(ctx, st); err != nil {
		return err
	}

	objects, err := st.ListObjects()
	if err != nil {
		return err
	}

	logger.Println(fmt.Sprintf("deleting %v manifest(s)...", len(objects)))
	hasErrors := false
	sort.Sort(sort.Reverse(resource.SortableUnstructureds(objects)))
	for _, object := range objects {
		change, err := applier.Delete(ctx, object)
		if err != nil {
			logger.Println(`✗`, err)
			hasErrors = true
			continue
		}
		logger.Println(change.String())
	}

	if hasErrors {
		os.Exit(1)
	}

	if err := storage.DeleteStack(ctx, st); err != nil {
		return err
	}

	logger.Println(fmt.Sprintf("ConfigMap/%s/%s%s deleted", *kubeconfigArgs.Namespace, stack.StackPrefix, name))

	if deleteArgs.wait {
		logger.Println("waiting for resources to be terminated...")
		if err := applier.WaitForTermination(objects, 2*time.Second, rootArgs.timeout); err != nil {
			return err
		}
		logger.Println("all resources have been deleted")
	}

	return nil
}
