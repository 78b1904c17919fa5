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

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"sigs.k8s.io/yaml"

	"github.com/Sylenia/kubestack/pkg/resource"
)

const (
	KubestackConfigKind        = "Config"
	KubestackConfigApiVersion  = "kubestack.dev/v1"
	KubestackFieldManagerName  = "kubestack"
	KubestackFieldManagerGroup = "stack.kubestack.dev"
)

type Config struct {
	metav1.TypeMeta `json:",inline"`

	// ApplyOrder holds the list of the Kubernetes API Kinds that
	// describes in which order they are applied.
	ApplyOrder *KindOrder `json:"applyOrder,omitempty"`

	// FieldManager holds the manager name and group used for server-side apply.
	FieldManager *FieldManager `json:"fieldManager,omitempty"`
}

type FieldManager struct {
	// Name sets the field manager for the applied objects.
	Name string `json:"name"`

	// Group sets the owner label key prefix.
	Group string `json:"group"`
}

// KindOrder holds the list of the Kubernetes API Kinds that
// describes in which order they are applied.
type KindOrder struct {
	// First contains the list of Kubernetes API Kinds
	// that are applied first and deleted last.
	First []string `json:"first"`

	// Last contains the list of Kubernetes API Kinds
	// that are applied last and deleted first.
	Last []string `json:"last"`
}

// NewConfig returns a config with the default apply order.
func NewConfig() *Config {
	return &Config{
		TypeMeta: metav1.TypeMeta{
			Kind:       KubestackConfigKind,
			APIVersion: KubestackConfigApiVersion,
		},
		ApplyOrder:   defaultKindOrder(),
		FieldManager: defaultFieldManager(),
	}
}

func defaultKindOrder() *KindOrder {
	order := resource.DefaultKindOrder()
	return &KindOrder{
		First: order.First,
		Last:  order.Last,
	}
}

func defaultFieldManager() *FieldManager {
	return &FieldManager{
		Name:  KubestackFieldManagerName,
		Group: KubestackFieldManagerGroup,
	}
}

// DefaultConfigPath returns '$HOME/.kubestack/config'.
func DefaultConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".kubestack/config"), nil
}

// Read loads the config from the specified path,
// if the config file is not found, a default is returned.
func Read(configPath string) (*Config, error) {
	if configPath == "" {
		p, err := DefaultConfigPath()
		if err != nil {
			return nil, fmt.Errorf("$HOME dir can't be determined, error: %w", err)
		}
		configPath = p
	}

	if _, err := os.Stat(configPath); errors.Is(err, os.ErrNotExist) {
		return NewConfig(), nil
	}

	cfgData, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(cfgData, cfg); err != nil {
		return nil, err
	}

	if cfg.ApplyOrder == nil {
		cfg.ApplyOrder = defaultKindOrder()
	}

	if cfg.FieldManager == nil {
		cfg.FieldManager = defaultFieldManager()
	}

	if cfg.FieldManager.Name == "" {
		return nil, fmt.Errorf("the field manager name can't be empty")
	}

	if cfg.FieldManager.Group == "" {
		return nil, fmt.Errorf("the field manager group can't be empty")
	}

	return cfg, nil
}

// Write saves the config at the given path, if no path is specified
// it will create or override '$HOME/.kubestack/config'.
func (c *Config) Write(configPath string) error {
	if configPath == "" {
		p, err := DefaultConfigPath()
		if err != nil {
			return err
		}
		configPath = p
	}

	if err := os.MkdirAll(filepath.Dir(configPath), os.FileMode(0755)); err != nil {
		return err
	}

	cfgData, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	if err := os.WriteFile(configPath, cfgData, os.FileMode(0666)); err != nil {
		return err
	}

	return nil
}
