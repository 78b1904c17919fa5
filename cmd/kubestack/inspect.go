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

	"github.com/Sylenia/kubestack/pkg/resource"
	"github.com/Sylenia/kubestack/pkg/stack"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect [name]",
	Short: "Inspect prints the content of the given stack record.",
	Example: ` kubestack inspect <stack name> -n <stack namespace>

  # List the objects tracked by a stack
  kubestack inspect my-app -n apps
`,
	RunE: runInspectCmd,
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}

func runInspectCmd(cmd *cobra.Command, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("you must specify a stack name")
	}
	name := args[0]

	kubeClient, err := newKubeClient(kubeconfigArgs)
	if err != nil {
		return fmt.Errorf("client init failed: %w", err)
	}

	storage := &stack.Storage{
		Client: kubeClient,
		Owner:  stackOwner,
	}

	ctx, cancel := context.WithTimeout(context.Background(), rootArgs.timeout)
	defer cancel()

	st := stack.NewStack(name, *kubeconfigArgs.Namespace)
	if err := storage.GetStack(ctx, st); err != nil {
		return err
	}

	rootCmd.Println(fmt.Sprintf("Stack: %s/%s", st.Namespace, st.Name))
	rootCmd.Println(fmt.Sprintf("Source: %s", st.Source))
	rootCmd.Println(fmt.Sprintf("Revision: %s", st.Revision))
	rootCmd.Println("Entries:")
	entries, err := st.ListMeta()
	if err != nil {
		return err
	}
	for _, entry := range entries {
		rootCmd.Println("-", resource.FmtObjMetadata(entry))
	}

	return nil
}
