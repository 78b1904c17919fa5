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
	"strings"
	"time"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"sigs.k8s.io/controller-runtime/pkg/client"

	"github.com/Sylenia/kubestack/pkg/resource"
)

// Apply performs a server-side apply of the given object if the matching
// in-cluster object is different or if it doesn't exist.
// Drift detection is performed by comparing the server-side dry-run result
// with the existing object. When immutable field changes are detected,
// the object is recreated if 'force' is set to 'true'.
func (a *Applier) Apply(ctx context.Context, object *unstructured.Unstructured, force bool) (*ChangeSetEntry, error) {
	existingObject := object.DeepCopy()
	_ = a.client.Get(ctx, client.ObjectKeyFromObject(object), existingObject)

	dryRunObject := object.DeepCopy()
	if err := a.dryRunApply(ctx, dryRunObject); err != nil {
		if force && strings.Contains(err.Error(), "immutable") {
			if err := a.client.Delete(ctx, existingObject); err != nil {
				return nil, fmt.Errorf("%s immutable field detected, failed to delete object, error: %w",
					resource.FmtUnstructured(dryRunObject), err)
			}
			return a.Apply(ctx, object, force)
		}

		return nil, a.validationError(dryRunObject, err)
	}

	// do not apply objects that have not drifted to avoid bumping the resource version
	if !a.hasDrifted(existingObject, dryRunObject) {
		return a.changeSetEntry(object, UnchangedAction), nil
	}

	appliedObject := object.DeepCopy()
	if err := a.apply(ctx, appliedObject); err != nil {
		return nil, fmt.Errorf("%s apply failed, error: %w", resource.FmtUnstructured(appliedObject), err)
	}

	if dryRunObject.GetResourceVersion() == "" {
		return a.changeSetEntry(appliedObject, CreatedAction), nil
	}

	return a.changeSetEntry(appliedObject, ConfiguredAction), nil
}

// ApplyAll performs a server-side dry-run of the given objects, and based
// on the diff result, it applies the objects that are new or modified.
// The objects are applied in the order given, the caller is expected to
// have sorted them in dependency order.
func (a *Applier) ApplyAll(ctx context.Context, objects []*unstructured.Unstructured, force bool) (*ChangeSet, error) {
	changeSet := NewChangeSet()
	var toApply []*unstructured.Unstructured
	for _, object := range objects {
		existingObject := object.DeepCopy()
		_ = a.client.Get(ctx, client.ObjectKeyFromObject(object), existingObject)

		dryRunObject := object.DeepCopy()
		if err := a.dryRunApply(ctx, dryRunObject); err != nil {
			if force && strings.Contains(err.Error(), "immutable") {
				if err := a.client.Delete(ctx, existingObject); err != nil {
					return nil, fmt.Errorf("%s immutable field detected, failed to delete object, error: %w",
						resource.FmtUnstructured(dryRunObject), err)
				}
				return a.ApplyAll(ctx, objects, force)
			}

			return nil, a.validationError(dryRunObject, err)
		}

		if a.hasDrifted(existingObject, dryRunObject) {
			toApply = append(toApply, object)
			if dryRunObject.GetResourceVersion() == "" {
				changeSet.Add(*a.changeSetEntry(dryRunObject, CreatedAction))
			} else {
				changeSet.Add(*a.changeSetEntry(dryRunObject, ConfiguredAction))
			}
		} else {
			changeSet.Add(*a.changeSetEntry(dryRunObject, UnchangedAction))
		}
	}

	for _, object := range toApply {
		appliedObject := object.DeepCopy()
		if err := a.apply(ctx, appliedObject); err != nil {
			return nil, fmt.Errorf("%s apply failed, error: %w", resource.FmtUnstructured(appliedObject), err)
		}
	}

	return changeSet, nil
}

// ApplyStaged applies the cluster definitions first, waits for the CRDs
// and Namespaces to register, then applies the remaining objects.
// This function should be used when the given objects have a mix of custom
// resource definition and custom resources, or a mix of namespace
// definitions with namespaced objects.
func (a *Applier) ApplyStaged(ctx context.Context, defs, rest []*unstructured.Unstructured, force bool, wait time.Duration) (*ChangeSet, error) {
	changeSet := NewChangeSet()

	if len(defs) > 0 {
		cs, err := a.ApplyAll(ctx, defs, force)
		if err != nil {
			return nil, err
		}
		changeSet.Append(cs.Entries)

		if err := a.Wait(defs, 2*time.Second, wait); err != nil {
			return nil, err
		}
	}

	cs, err := a.ApplyAll(ctx, rest, force)
	if err != nil {
		return nil, err
	}
	changeSet.Append(cs.Entries)

	return changeSet, nil
}

func (a *Applier) dryRunApply(ctx context.Context, object *unstructured.Unstructured) error {
	opts := []client.PatchOption{
		client.DryRunAll,
		client.ForceOwnership,
		client.FieldOwner(a.owner.Field),
	}
	return a.client.Patch(ctx, object, client.Apply, opts...)
}

func (a *Applier) apply(ctx context.Context, object *unstructured.Unstructured) error {
	opts := []client.PatchOption{
		client.ForceOwnership,
		client.FieldOwner(a.owner.Field),
	}
	return a.client.Patch(ctx, object, client.Apply, opts...)
}
