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
	"strings"

	"github.com/spf13/cobra"
	corev1 "k8s.io/api/core/v1"
	"sigs.k8s.io/controller-runtime/pkg/client"

	"github.com/Sylenia/kubestack/pkg/stack"
)

var getStacksCmd = &cobra.Command{
	Use:   "stacks",
	Short: "Get prints the content of all stacks in the given namespace.",
	RunE:  runGetStacksCmd,
}

func init() {
	getCmd.AddCommand(getStacksCmd)
}

func runGetStacksCmd(cmd *cobra.Command, args []string) error {
	if kubeconfigArgs.Namespace == nil {
		return fmt.Errorf("you must specify a stack namespace")
	}

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

	list := &corev1.ConfigMapList{}
	err = kubeClient.List(ctx, list, client.InNamespace(*kubeconfigArgs.Namespace), storage.GetOwnerLabels())
	if err != nil {
		return err
	}

	var rows [][]string
	for _, cm := range list.Items {
		var ts string
		var source string
		var rev string
		if s, ok := cm.GetAnnotations()[stackOwner.Group+"/last-applied-time"]; ok {
			ts = s
		}
		if s, ok := cm.GetAnnotations()[stackOwner.Group+"/source"]; ok {
			source = s
		}
		if s, ok := cm.GetAnnotations()[stackOwner.Group+"/revision"]; ok {
			rev = s
		}
		name := strings.TrimPrefix(cm.GetName(), stack.StackPrefix)
		st := stack.NewStack(name, cm.GetNamespace())
		if err := storage.GetStack(ctx, st); err != nil {
			return err
		}
		row := []string{name, fmt.Sprintf("%v", len(st.Entries)), source, rev, ts}
		rows = append(rows, row)
	}

	printTable(rootCmd.OutOrStdout(), []string{"name", "entries", "source", "revision", "last applied"}, rows)

	return nil
}
