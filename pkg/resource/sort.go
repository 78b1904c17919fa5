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

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"sigs.k8s.io/cli-utils/pkg/object"
)

// KindOrder holds the list of the Kubernetes API Kinds that
// describes in which order they are applied.
type KindOrder struct {
	// First contains the Kinds that are applied first and deleted last.
	First []string

	// Last contains the Kinds that are applied last and deleted first.
	Last []string
}

// ApplyOrder is the global kind ordering used when sorting objects
// for apply and delete operations. It can be overridden from the
// kubestack config file.
var ApplyOrder = DefaultKindOrder()

// DefaultKindOrder returns the apply order used in absence of a config file.
// Cluster definitions come first, then RBAC, then config, then workloads,
// ending with webhooks so that admission is enabled only after the
// workloads serving it exist.
func DefaultKindOrder() KindOrder {
	return KindOrder{
		First: []string{
			"CustomResourceDefinition",
			"Namespace",
			"ResourceQuota",
			"StorageClass",
			"ServiceAccount",
			"PodSecurityPolicy",
			"Role",
			"ClusterRole",
			"RoleBinding",
			"ClusterRoleBinding",
			"ConfigMap",
			"Secret",
			"Service",
			"LimitRange",
			"PriorityClass",
			"PersistentVolume",
			"PersistentVolumeClaim",
			"Deployment",
			"StatefulSet",
			"CronJob",
			"PodDisruptionBudget",
		},
		Last: []string{
			"MutatingWebhookConfiguration",
			"ValidatingWebhookConfiguration",
		},
	}
}

// IsClusterDefinition checks if the given object is a CRD or a Namespace,
// the kinds that must exist on the cluster before anything else.
func IsClusterDefinition(object *unstructured.Unstructured) bool {
	kind := object.GetKind()
	return kind == "CustomResourceDefinition" || kind == "Namespace"
}

// SortableUnstructureds sorts the objects by the ApplyOrder kind ranking.
type SortableUnstructureds []*unstructured.Unstructured

var _ sort.Interface = SortableUnstructureds{}

func (a SortableUnstructureds) Len() int      { return len(a) }
func (a SortableUnstructureds) Swap(i, j int) { a[i], a[j] = a[j], a[i] }
func (a SortableUnstructureds) Less(i, j int) bool {
	first := object.UnstructuredToObjMetadata(a[i])
	second := object.UnstructuredToObjMetadata(a[j])
	return less(first, second)
}

// SortableMetas sorts object metadata by the ApplyOrder kind ranking.
type SortableMetas []object.ObjMetadata

var _ sort.Interface = SortableMetas{}

func (a SortableMetas) Len() int      { return len(a) }
func (a SortableMetas) Swap(i, j int) { a[i], a[j] = a[j], a[i] }
func (a SortableMetas) Less(i, j int) bool {
	return less(a[i], a[j])
}

func less(i, j object.ObjMetadata) bool {
	if !equals(i.GroupKind, j.GroupKind) {
		return isLessThan(i.GroupKind, j.GroupKind)
	}
	// In case of tie, compare the namespace and name combination so that
	// the output order is consistent irrespective of input order.
	if i.Namespace != j.Namespace {
		return i.Namespace < j.Namespace
	}
	return i.Name < j.Name
}

// KindRank returns the position of the given kind in the ApplyOrder
// ranking. Kinds from the First list get negative ranks, kinds from the
// Last list positive ones, everything else ranks at zero.
func KindRank(kind string) int {
	for i, k := range ApplyOrder.First {
		if k == kind {
			return -len(ApplyOrder.First) + i
		}
	}
	for i, k := range ApplyOrder.Last {
		if k == kind {
			return 1 + i
		}
	}
	return 0
}

func equals(i, j schema.GroupKind) bool {
	return i.Group == j.Group && i.Kind == j.Kind
}

func isLessThan(i, j schema.GroupKind) bool {
	indexI := KindRank(i.Kind)
	indexJ := KindRank(j.Kind)
	if indexI != indexJ {
		return indexI < indexJ
	}
	if i.Group != j.Group {
		return i.Group < j.Group
	}
	return i.Kind < j.Kind
}
