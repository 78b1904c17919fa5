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
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"k8s.io/cli-runtime/pkg/genericclioptions"
	_ "k8s.io/client-go/plugin/pkg/client/auth"

	"github.com/Sylenia/kubestack/pkg/config"
	"github.com/Sylenia/kubestack/pkg/engine"
	"github.com/Sylenia/kubestack/pkg/resource"
)

var VERSION = "1.0.0-dev.0"

const PROJECT = "kubestack"

var rootCmd = &cobra.Command{
	Use:           PROJECT,
	Version:       VERSION,
	SilenceUsage:  true,
	SilenceErrors: true,
	Short:         "A command line utility to deploy Kubernetes manifests as tracked stacks.",
	Long: `Kubestack deploys sets of Kubernetes manifests onto a cluster in dependency order,
using server-side apply, and records what was applied so that deploys can be
diffed, pruned, watched and torn down.

Build, deploy and manage stacks:

- kubestack build [-f <dir path>] [-p <patch path>] -k <overlay path>
- kubestack apply -i <name> -n <namespace> [-b <oci url>] [-f] [-p] -k --prune --wait --force
- kubestack diff -i <name> -n <namespace> [-f] [-p] -k
- kubestack status <name> -n <namespace>
- kubestack delete <name> -n <namespace> --wait
- kubestack get stacks -n <namespace>
- kubestack inspect <name> -n <namespace>

Distribute manifests as OCI bundles:

- kubestack push oci://<image-url>:<tag> -k [-f] [-p]
- kubestack tag oci://<image-url>:<tag> <new-tag>
- kubestack pull oci://<image-url>:<tag>
- kubestack list oci://<repo-url> --semver <condition>
`,
}

type rootFlags struct {
	timeout time.Duration
}

var (
	rootArgs   = rootFlags{}
	logger     = stderrLogger{stderr: os.Stderr}
	cfg        = config.NewConfig()
	stackOwner = engine.Owner{
		Field: config.KubestackFieldManagerName,
		Group: config.KubestackFieldManagerGroup,
	}
)

var kubeconfigArgs = genericclioptions.NewConfigFlags(false)

func init() {
	rootCmd.PersistentFlags().DurationVar(&rootArgs.timeout, "timeout", time.Minute,
		"The length of time to wait before giving up on the current operation.")

	kubeconfigArgs.Timeout = nil
	kubeconfigArgs.Namespace = nil
	kubeconfigArgs.AddFlags(rootCmd.PersistentFlags())

	defaultNamespace := "default"
	kubeconfigArgs.Namespace = &defaultNamespace
	rootCmd.PersistentFlags().StringVarP(kubeconfigArgs.Namespace, "namespace", "n", *kubeconfigArgs.Namespace, "The stack namespace.")

	rootCmd.DisableAutoGenTag = true
	rootCmd.SetOut(os.Stdout)
}

func main() {
	loadConfig()
	if err := rootCmd.Execute(); err != nil {
		logger.Println(`✗`, err)
		os.Exit(1)
	}
}

func loadConfig() {
	if c, err := config.Read(""); err != nil {
		logger.Println(`✗`, fmt.Errorf("loading the config failed, error: %w", err))
	} else {
		cfg = c
	}

	resource.ApplyOrder = resource.KindOrder{
		First: cfg.ApplyOrder.First,
		Last:  cfg.ApplyOrder.Last,
	}
	stackOwner = engine.Owner{
		Field: cfg.FieldManager.Name,
		Group: cfg.FieldManager.Group,
	}
}
