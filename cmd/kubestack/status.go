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
	"sigs.k8s.io/cli-utils/pkg/kstatus/status"

	"github.com/Sylenia/kubestack/pkg/engine"
	"github.com/Sylenia/kubestack/pkg/stack"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Status reports the readiness of the Kubernetes objects in the specified stack.",
	Example: ` kubestack status <stack name> -n <stack namespace>

  # Print the readiness table of a stack
  kubestack status my-app -n apps

  # Block until every object in the stack is ready
  kubestack status my-app -n apps --wait
`,
	RunE: runStatusCmd,
}

type statusFlags struct {
	wait bool
}

var statusArgs statusFlags

func init() {
	statusCmd.Flags().BoolVar(&statusArgs.wait, "wait", false, "Wait for the objects in the stack to become ready.")

	rootCmd.AddCommand(statusCmd)
}

func runStatusCmd(cmd *cobra.Command, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("you must specify a stack name")
	}
	name := args[0]

	ctx, cancel := context.WithTimeout(context.Background(), rootArgs.timeout)
	defer cancel()

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

	if statusArgs.wait {
		logger.Println("waiting for resources to become ready...")
		if err := applier.Wait(objects, 2*time.Second, rootArgs.timeout); err != nil {
			return err
		}
		logger.Println("all resources are ready")
		return nil
	}

	entries, err := applier.Status(ctx, objects)
	if err != nil {
		return err
	}

	var rows [][]string
	ready := true
	for _, entry := range entries {
		if entry.Status != status.CurrentStatus {
			ready = false
		}
		rows = append(rows, []string{entry.Subject, string(entry.Status), entry.Message})
	}
	printTable(rootCmd.OutOrStdout(), []string{"object", "status", "message"}, rows)

	if !ready {
		os.Exit(1)
	}
	return nil
}
