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

	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"sigs.k8s.io/cli-utils/pkg/kstatus/status"
	"sigs.k8s.io/controller-runtime/pkg/client"

	"github.com/Sylenia/kubestack/pkg/resource"
)

// StatusEntry holds the reconcile status of a single in-cluster object.
type StatusEntry struct {
	Subject string
	Status  status.Status
	Message string
}

// Status fetches the given objects from the cluster and computes their
// reconcile status. Objects missing from the cluster are reported as
// NotFound instead of returning an error.
func (a *Applier) Status(ctx context.Context, objects []*unstructured.Unstructured) ([]StatusEntry, error) {
	var entries []StatusEntry
	for _, object := range objects {
		existingObject := object.DeepCopy()
		err := a.client.Get(ctx, client.ObjectKeyFromObject(object), existingObject)
		if err != nil {
			if apierrors.IsNotFound(err) {
				entries = append(entries, StatusEntry{
					Subject: resource.FmtUnstructured(object),
					Status:  status.NotFoundStatus,
					Message: "object not found on the cluster",
				})
				continue
			}
			return nil, err
		}

		res, err := status.Compute(existingObject)
		if err != nil {
			return nil, err
		}
		entries = append(entries, StatusEntry{
			Subject: resource.FmtUnstructured(object),
			Status:  res.Status,
			Message: res.Message,
		})
	}
	return entries, nil
}
