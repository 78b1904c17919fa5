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
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestRead_Defaults(t *testing.T) {
	cfg, err := Read(filepath.Join(t.TempDir(), "missing"))
	if err != nil {
		t.Fatal(err)
	}

	if cfg.FieldManager.Name != KubestackFieldManagerName {
		t.Errorf("expected default field manager, got %s", cfg.FieldManager.Name)
	}
	if len(cfg.ApplyOrder.First) == 0 {
		t.Error("expected default apply order")
	}
}

func TestReadWrite_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config")

	cfg := NewConfig()
	cfg.ApplyOrder.First = append(cfg.ApplyOrder.First, "Widget")
	cfg.FieldManager.Name = "custom-manager"

	if err := cfg.Write(path); err != nil {
		t.Fatal(err)
	}

	read, err := Read(path)
	if err != nil {
		t.Fatal(err)
	}

	if diff := cmp.Diff(cfg, read); diff != "" {
		t.Errorf("Mismatch from expected value (-want +got):\n%s", diff)
	}
}

func TestRead_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config")
	data := `---
apiVersion: kubestack.dev/v1
kind: Config
fieldManager:
  name: ""
  group: "stack.kubestack.dev"
`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := Read(path); err == nil {
		t.Fatal("expected error for empty field manager name")
	}
}
