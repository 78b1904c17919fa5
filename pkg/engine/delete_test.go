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
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"sigs.k8s.io/controller-runtime/pkg/client"

	"github.com/Sylenia/kubestack/pkg/depgraph"
)

func TestDelete(t *testing.T) {
	timeout := 10 * time.Second
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	id := generateName("delete")
	objects, err := readManifest("testdata/test1.yaml", id)
	if err != nil {
		t.Fatal(err)
	}

	_, configMap := getObjectFrom(objects, "ConfigMap", id)

	defs, rest, err := depgraph.SplitStages(objects)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := applier.ApplyStaged(ctx, defs, rest, false, timeout); err != nil {
		t.Fatal(err)
	}

	t.Run("deletes objects in reverse order", func(t *testing.T) {
		changeSet, err := applier.DeleteAll(ctx, rest)
		if err != nil {
			t.Fatal(err)
		}

		if len(changeSet.Entries) != len(rest) {
			t.Errorf("expected %d entries, got %d", len(rest), len(changeSet.Entries))
		}

		for _, entry := range changeSet.Entries {
			if diff := cmp.Diff(string(DeletedAction), entry.Action); diff != "" {
				t.Errorf("Mismatch from expected value (-want +got):\n%s", diff)
			}
		}

		existing := configMap.DeepCopy()
		err = applier.Client().Get(ctx, client.ObjectKeyFromObject(configMap), existing)
		if !apierrors.IsNotFound(err) {
			t.Errorf("expected not found error, got %v", err)
		}
	})

	t.Run("deletes members before their namespace", func(t *testing.T) {
		id := generateName("prune")
		objects, err := readManifest("testdata/test1.yaml", id)
		if err != nil {
			t.Fatal(err)
		}

		defs, rest, err := depgraph.SplitStages(objects)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := applier.ApplyStaged(ctx, defs, rest, false, timeout); err != nil {
			t.Fatal(err)
		}

		// Stale objects arrive in apply order, namespace first.
		stale := append(append([]*unstructured.Unstructured{}, defs...), rest...)

		changeSet, err := applier.DeleteAll(ctx, stale)
		if err != nil {
			t.Fatal(err)
		}

		var subjects []string
		for _, entry := range changeSet.Entries {
			subjects = append(subjects, entry.Subject)
		}

		expected := []string{
			fmt.Sprintf("CronJob/%[1]s/%[1]s", id),
			fmt.Sprintf("Secret/%[1]s/%[1]s", id),
			fmt.Sprintf("ConfigMap/%[1]s/%[1]s", id),
			fmt.Sprintf("Namespace/%s", id),
		}
		if diff := cmp.Diff(expected, subjects); diff != "" {
			t.Errorf("Mismatch from expected value (-want +got):\n%s", diff)
		}
	})

	t.Run("ignores missing objects", func(t *testing.T) {
		entry, err := applier.Delete(ctx, configMap)
		if err != nil {
			t.Fatal(err)
		}

		if diff := cmp.Diff(string(DeletedAction), entry.Action); diff != "" {
			t.Errorf("Mismatch from expected value (-want +got):\n%s", diff)
		}
	})
}
