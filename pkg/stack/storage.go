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

package stack

import (
	"context"
	"fmt"
	"time"

	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/util/json"
	"sigs.k8s.io/controller-runtime/pkg/client"

	"github.com/Sylenia/kubestack/pkg/engine"
)

const (
	StackKindName     = "stack"
	StackPrefix       = "stack-"
	nameLabelKey      = "app.kubernetes.io/name"
	componentLabelKey = "app.kubernetes.io/component"
	createdByLabelKey = "app.kubernetes.io/created-by"
)

// Storage manages the in-cluster persistence of stack records.
// Each record is stored as a ConfigMap in the record namespace.
type Storage struct {
	Client client.Client
	Owner  engine.Owner
}

// GetOwnerLabels returns the storage common labels.
func (st *Storage) GetOwnerLabels() client.MatchingLabels {
	return client.MatchingLabels{
		componentLabelKey: StackKindName,
		createdByLabelKey: st.Owner.Field,
	}
}

// CreateNamespace creates the record namespace if not present.
func (st *Storage) CreateNamespace(ctx context.Context, name string) error {
	ns := &corev1.Namespace{
		TypeMeta: metav1.TypeMeta{
			APIVersion: "v1",
			Kind:       "Namespace",
		},
		ObjectMeta: metav1.ObjectMeta{
			Name: name,
			Labels: map[string]string{
				createdByLabelKey: st.Owner.Field,
			},
		},
	}

	if err := st.Client.Get(ctx, client.ObjectKeyFromObject(ns), ns); err != nil {
		if apierrors.IsNotFound(err) {
			opts := []client.PatchOption{
				client.ForceOwnership,
				client.FieldOwner(st.Owner.Field),
			}
			return st.Client.Patch(ctx, ns, client.Apply, opts...)
		}
		return err
	}

	return nil
}

// ApplyStack creates or updates the storage object for the given record.
func (st *Storage) ApplyStack(ctx context.Context, s *Stack) error {
	data, err := json.Marshal(s.Entries)
	if err != nil {
		return err
	}

	cm := st.newConfigMap(s.Name, s.Namespace)
	cm.Annotations = map[string]string{
		st.Owner.Group + "/last-applied-time": time.Now().UTC().Format(time.RFC3339),
	}
	if s.Source != "" {
		cm.Annotations[st.Owner.Group+"/source"] = s.Source
	}
	if s.Revision != "" {
		cm.Annotations[st.Owner.Group+"/revision"] = s.Revision
	}

	cm.Data = map[string]string{
		StackKindName: string(data),
	}

	opts := []client.PatchOption{
		client.ForceOwnership,
		client.FieldOwner(st.Owner.Field),
	}
	return st.Client.Patch(ctx, cm, client.Apply, opts...)
}

// GetStack retrieves the entries from the storage for the given
// record name and namespace.
func (st *Storage) GetStack(ctx context.Context, s *Stack) error {
	cm := st.newConfigMap(s.Name, s.Namespace)

	cmKey := client.ObjectKeyFromObject(cm)
	err := st.Client.Get(ctx, cmKey, cm)
	if err != nil {
		return err
	}

	if _, ok := cm.Data[StackKindName]; !ok {
		return fmt.Errorf("stack data not found in ConfigMap/%s", cmKey)
	}

	var entries []Entry
	err = json.Unmarshal([]byte(cm.Data[StackKindName]), &entries)
	if err != nil {
		return err
	}

	s.Entries = entries

	for k, v := range cm.GetAnnotations() {
		switch k {
		case st.Owner.Group + "/source":
			s.Source = v
		case st.Owner.Group + "/revision":
			s.Revision = v
		}
	}

	return nil
}

// DeleteStack removes the storage for the given record name and namespace.
func (st *Storage) DeleteStack(ctx context.Context, s *Stack) error {
	cm := st.newConfigMap(s.Name, s.Namespace)

	cmKey := client.ObjectKeyFromObject(cm)
	err := st.Client.Delete(ctx, cm)
	if err != nil && !apierrors.IsNotFound(err) {
		return fmt.Errorf("failed to delete ConfigMap/%s, error: %w", cmKey, err)
	}
	return nil
}

// GetStaleObjects returns the objects that were applied by a previous
// deploy of the record but are no longer part of the given one.
func (st *Storage) GetStaleObjects(ctx context.Context, s *Stack) ([]*unstructured.Unstructured, error) {
	objects := make([]*unstructured.Unstructured, 0)
	existing := NewStack(s.Name, s.Namespace)
	if err := st.GetStack(ctx, existing); err != nil {
		if apierrors.IsNotFound(err) {
			return objects, nil
		}
		return nil, err
	}

	objects, err := existing.Diff(s)
	if err != nil {
		return nil, err
	}

	return objects, nil
}

func (st *Storage) newConfigMap(name, namespace string) *corev1.ConfigMap {
	return &corev1.ConfigMap{
		TypeMeta: metav1.TypeMeta{
			APIVersion: "v1",
			Kind:       "ConfigMap",
		},
		ObjectMeta: metav1.ObjectMeta{
			Name:      StackPrefix + name,
			Namespace: namespace,
			Labels: map[string]string{
				nameLabelKey:      name,
				componentLabelKey: StackKindName,
				createdByLabelKey: st.Owner.Field,
			},
		},
	}
}
