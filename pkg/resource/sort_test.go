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

package resource

import (
	"sort"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSortableUnstructureds(t *testing.T) {
	objects, err := ReadObjects(strings.NewReader(`---
apiVersion: admissionregistration.k8s.io/v1
kind: ValidatingWebhookConfiguration
metadata:
  name: webhook
---
apiVersion: apps/v1
kind: Deployment
metadata:
  name: app
  namespace: demo
---
apiVersion: v1
kind: ConfigMap
metadata:
  name: app
  namespace: demo
---
apiVersion: v1
kind: Namespace
metadata:
  name: demo
---
apiVersion: apiextensions.k8s.io/v1
kind: CustomResourceDefinition
metadata:
  name: widgets.example.com
`))
	if err != nil {
		t.Fatal(err)
	}

	sort.Sort(SortableUnstructureds(objects))

	var kinds []string
	for _, object := range objects {
		kinds = append(kinds, object.GetKind())
	}

	expected := []string{
		"CustomResourceDefinition",
		"Namespace",
		"ConfigMap",
		"Deployment",
		"ValidatingWebhookConfiguration",
	}

	if diff := cmp.Diff(expected, kinds); diff != "" {
		t.Errorf("Mismatch from expected value (-want +got):\n%s", diff)
	}
}

func TestKindRank(t *testing.T) {
	if KindRank("CustomResourceDefinition") >= KindRank("Namespace") {
		t.Error("expected CRDs to rank before namespaces")
	}
	if KindRank("ConfigMap") >= KindRank("Deployment") {
		t.Error("expected config maps to rank before deployments")
	}
	if KindRank("Widget") != 0 {
		t.Error("expected unknown kinds to rank at zero")
	}
	if KindRank("MutatingWebhookConfiguration") <= 0 {
		t.Error("expected webhooks to rank last")
	}
}

func TestIsClusterDefinition(t *testing.T) {
	objects, err := ReadObjects(strings.NewReader(`---
apiVersion: v1
kind: Namespace
metadata:
  name: demo
---
apiVersion: v1
kind: ConfigMap
metadata:
  name: app
  namespace: demo
`))
	if err != nil {
		t.Fatal(err)
	}

	if !IsClusterDefinition(objects[0]) {
		t.Error("expected namespace to be a cluster definition")
	}
	if IsClusterDefinition(objects[1]) {
		t.Error("expected config map to not be a cluster definition")
	}
}
