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

package engine

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"

	"github.com/Sylenia/kubestack/pkg/depgraph"
)

func TestApply(t *testing.T) {
	timeout := 10 * time.Second
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	id := generateName("apply")
	objects, err := readManifest("testdata/test1.yaml", id)
	if err != nil {
		t.Fatal(err)
	}

	configMapName, configMap := getObjectFrom(objects, "ConfigMap", id)
	_, secret := getObjectFrom(objects, "Secret", id)
	if err := unstructured.SetNestedField(secret.Object, false, "immutable"); err != nil {
		t.Fatal(err)
	}

	defs, rest, err := depgraph.SplitStages(objects)
	if err != nil {
		t.Fatal(err)
	}

	t.Run("creates objects in stages", func(t *testing.T) {
		changeSet, err := applier.ApplyStaged(ctx, defs, rest, false, timeout)
		if err != nil {
			t.Fatal(err)
		}

		if len(changeSet.Entries) != len(objects) {
			t.Errorf("expected %d entries, got %d", len(objects), len(changeSet.Entries))
		}

		for _, entry := range changeSet.Entries {
			if diff := cmp.Diff(string(CreatedAction), entry.Action); diff != "" {
				t.Errorf("Mismatch from expected value (-want +got):\n%s", diff)
			}
		}
	})

	t.Run("does not apply unchanged objects", func(t *testing.T) {
		changeSet, err := applier.ApplyAll(ctx, rest, false)
		if err != nil {
			t.Fatal(err)
		}

		for _, entry := range changeSet.Entries {
			if diff := cmp.Diff(string(UnchangedAction), entry.Action); diff != "" {
				t.Errorf("Mismatch from expected value (-want +got):\n%s", diff)
			}
		}
	})

	t.Run("configures changed objects", func(t *testing.T) {
		if err := unstructured.SetNestedField(configMap.Object, "updated", "data", "key"); err != nil {
			t.Fatal(err)
		}

		entry, err := applier.Apply(ctx, configMap, false)
		if err != nil {
			t.Fatal(err)
		}

		if diff := cmp.Diff(configMapName, entry.Subject); diff != "" {
			t.Errorf("Mismatch from expected value (-want +got):\n%s", diff)
		}

		if diff := cmp.Diff(string(ConfiguredAction), entry.Action); diff != "" {
			t.Errorf("Mismatch from expected value (-want +got):\n%s", diff)
		}
	})

	t.Run("recreates immutable objects on force", func(t *testing.T) {
		if err := unstructured.SetNestedField(secret.Object, true, "immutable"); err != nil {
			t.Fatal(err)
		}
		if _, err := applier.Apply(ctx, secret, false); err != nil {
			t.Fatal(err)
		}

		if err := unstructured.SetNestedField(secret.Object, "changed", "stringData", "key"); err != nil {
			t.Fatal(err)
		}

		_, err := applier.Apply(ctx, secret, false)
		if err == nil || !strings.Contains(err.Error(), "immutable") {
			t.Errorf("expected immutable field error, got %v", err)
		}

		entry, err := applier.Apply(ctx, secret, true)
		if err != nil {
			t.Fatal(err)
		}

		if diff := cmp.Diff(string(CreatedAction), entry.Action); diff != "" {
			t.Errorf("Mismatch from expected value (-want +got):\n%s", diff)
		}
	})
}
