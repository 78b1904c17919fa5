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

// Package engine reconciles Kubernetes objects onto a target cluster with
// server-side apply and reports per-object change sets.
package engine

import (
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"sigs.k8s.io/cli-utils/pkg/kstatus/polling"
	"sigs.k8s.io/controller-runtime/pkg/client"

	"github.com/Sylenia/kubestack/pkg/resource"
)

// Owner identifies the field manager used for server-side apply and the
// label key prefix used for ownership labels.
type Owner struct {
	// Field sets the field manager name for the applied objects.
	Field string

	// Group sets the owner label key prefix.
	Group string
}

// Applier performs the create-or-update and delete operations for a set
// of Kubernetes objects and polls their readiness.
type Applier struct {
	client client.Client
	poller *polling.StatusPoller
	owner  Owner
}

// NewApplier creates an Applier for the given Kubernetes client and
// status poller.
func NewApplier(client client.Client, poller *polling.StatusPoller, owner Owner) *Applier {
	return &Applier{
		client: client,
		poller: poller,
		owner:  owner,
	}
}

// Client returns the underlying controller-runtime client.
func (a *Applier) Client() client.Client {
	return a.client
}

// SetOwnerLabels adds the ownership labels to the given objects.
// The ownership labels are in the format:
//	<owner.group>/name: <name>
//	<owner.group>/namespace: <namespace>
func (a *Applier) SetOwnerLabels(objects []*unstructured.Unstructured, name, namespace string) {
	for _, object := range objects {
		labels := object.GetLabels()
		if labels == nil {
			labels = make(map[string]string)
		}

		labels[a.owner.Group+"/name"] = name
		labels[a.owner.Group+"/namespace"] = namespace

		object.SetLabels(labels)
	}
}

func (a *Applier) changeSetEntry(object *unstructured.Unstructured, action Action) *ChangeSetEntry {
	return &ChangeSetEntry{Subject: resource.FmtUnstructured(object), Action: string(action)}
}
