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

// Package stack records the Kubernetes objects that a deploy applied on
// the cluster, so that later deploys can prune stale objects and delete
// can tear the whole set down.
package stack

import (
	"fmt"
	"sort"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"sigs.k8s.io/cli-utils/pkg/object"

	"github.com/Sylenia/kubestack/pkg/resource"
)

// Stack is a named record of the objects applied on a cluster.
type Stack struct {
	// Name is the name of the record.
	Name string `json:"name"`

	// Namespace is the namespace where the record is stored.
	Namespace string `json:"namespace"`

	// Source is the URL of the source code or OCI bundle that
	// produced the objects.
	Source string `json:"source,omitempty"`

	// Revision is an identifier for the source revision.
	Revision string `json:"revision,omitempty"`

	// Entries of Kubernetes object IDs and their API versions.
	Entries []Entry `json:"entries"`
}

// Entry contains the information necessary to locate a
// Kubernetes object on the cluster.
type Entry struct {
	// ObjectID is the string representation of object.ObjMetadata,
	// in the format '<namespace>_<name>_<group>_<kind>'.
	ObjectID string `json:"id"`

	// ObjectVersion is the API version of this entry kind.
	ObjectVersion string `json:"ver"`
}

// NewStack returns a stack record with the given name and namespace.
func NewStack(name, namespace string) *Stack {
	return &Stack{
		Name:      name,
		Namespace: namespace,
		Entries:   []Entry{},
	}
}

// SetSource sets the source url and revision of the record.
func (s *Stack) SetSource(url, revision string) {
	s.Source = url
	s.Revision = revision
}

// AddObjects extracts the metadata of the given objects and
// adds it to the record.
func (s *Stack) AddObjects(objects []*unstructured.Unstructured) error {
	sort.Sort(resource.SortableUnstructureds(objects))
	for _, om := range objects {
		objMetadata := object.UnstructuredToObjMetadata(om)
		gv, err := schema.ParseGroupVersion(om.GetAPIVersion())
		if err != nil {
			return err
		}

		s.Entries = append(s.Entries, Entry{
			ObjectID:      objMetadata.String(),
			ObjectVersion: gv.Version,
		})
	}

	return nil
}

// VersionOf returns the API version of the given object if found in the record.
func (s *Stack) VersionOf(objMetadata object.ObjMetadata) string {
	for _, entry := range s.Entries {
		if entry.ObjectID == objMetadata.String() {
			return entry.ObjectVersion
		}
	}

	return ""
}

// ListObjects returns the record entries as unstructured.Unstructured objects.
func (s *Stack) ListObjects() ([]*unstructured.Unstructured, error) {
	objects := make([]*unstructured.Unstructured, 0)

	list, err := s.ListMeta()
	if err != nil {
		return nil, err
	}

	for _, metadata := range list {
		u := &unstructured.Unstructured{}
		u.SetGroupVersionKind(schema.GroupVersionKind{
			Group:   metadata.GroupKind.Group,
			Kind:    metadata.GroupKind.Kind,
			Version: s.VersionOf(metadata),
		})
		u.SetName(metadata.Name)
		u.SetNamespace(metadata.Namespace)
		objects = append(objects, u)
	}

	sort.Sort(resource.SortableUnstructureds(objects))
	return objects, nil
}

// ListMeta returns the record entries as object.ObjMetadata objects.
func (s *Stack) ListMeta() (object.ObjMetadataSet, error) {
	var metas []object.ObjMetadata
	for _, e := range s.Entries {
		m, err := object.ParseObjMetadata(e.ObjectID)
		if err != nil {
			return metas, fmt.Errorf("parsing entry %s failed: %w", e.ObjectID, err)
		}
		metas = append(metas, m)
	}

	return metas, nil
}

// Diff returns the objects that are present in this record
// but not in the target record.
func (s *Stack) Diff(target *Stack) ([]*unstructured.Unstructured, error) {
	objects := make([]*unstructured.Unstructured, 0)
	aList, err := s.ListMeta()
	if err != nil {
		return nil, err
	}

	bList, err := target.ListMeta()
	if err != nil {
		return nil, err
	}

	list := aList.Diff(bList)
	if len(list) == 0 {
		return objects, nil
	}

	for _, metadata := range list {
		u := &unstructured.Unstructured{}
		u.SetGroupVersionKind(schema.GroupVersionKind{
			Group:   metadata.GroupKind.Group,
			Kind:    metadata.GroupKind.Kind,
			Version: s.VersionOf(metadata),
		})
		u.SetName(metadata.Name)
		u.SetNamespace(metadata.Namespace)
		objects = append(objects, u)
	}

	sort.Sort(resource.SortableUnstructureds(objects))
	return objects, nil
}
