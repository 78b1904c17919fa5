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
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
)

// MaskSecret replaces the data and stringData key values with the given mask.
func MaskSecret(object *unstructured.Unstructured, mask string) (*unstructured.Unstructured, error) {
	for _, field := range []string{"data", "stringData"} {
		data, found, err := unstructured.NestedMap(object.Object, field)
		if err != nil {
			return nil, err
		}

		if found {
			for k := range data {
				data[k] = mask
			}

			if err := unstructured.SetNestedMap(object.Object, data, field); err != nil {
				return nil, err
			}
		}
	}

	return object, nil
}
