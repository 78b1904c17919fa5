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

package depgraph

import (
	"fmt"
	"strings"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
)

// implicitDeps returns the IDs of the objects in the set that the given
// object references: its namespace, the CRD serving its API group, and
// the config maps and secrets consumed by its pod template.
func implicitDeps(object *unstructured.Unstructured, set map[string]*unstructured.Unstructured) []string {
	var deps []string

	if ns := object.GetNamespace(); ns != "" {
		id := fmt.Sprintf("Namespace/%s", ns)
		if _, found := set[id]; found {
			deps = append(deps, id)
		}
	}

	if group := object.GroupVersionKind().Group; group != "" {
		for id, candidate := range set {
			if candidate.GetKind() != "CustomResourceDefinition" {
				continue
			}
			if crdGroup, found, _ := unstructured.NestedString(candidate.Object, "spec", "group"); found && crdGroup == group {
				deps = append(deps, id)
			}
		}
	}

	configMaps, secrets := podSpecRefs(object)
	for _, name := range configMaps {
		id := fmt.Sprintf("ConfigMap/%s/%s", object.GetNamespace(), name)
		if _, found := set[id]; found {
			deps = append(deps, id)
		}
	}
	for _, name := range secrets {
		id := fmt.Sprintf("Secret/%s/%s", object.GetNamespace(), name)
		if _, found := set[id]; found {
			deps = append(deps, id)
		}
	}

	return deps
}

// podSpecPath returns the location of the pod spec within the object,
// or nil when the kind has no pod template.
func podSpecPath(kind string) []string {
	switch strings.ToLower(kind) {
	case "pod":
		return []string{"spec"}
	case "deployment", "statefulset", "daemonset", "replicaset", "job", "replicationcontroller":
		return []string{"spec", "template", "spec"}
	case "cronjob":
		return []string{"spec", "jobTemplate", "spec", "template", "spec"}
	default:
		return nil
	}
}

// podSpecRefs extracts the names of the config maps and secrets that the
// object's pod template consumes through env, envFrom, volumes and
// image pull secrets.
func podSpecRefs(object *unstructured.Unstructured) ([]string, []string) {
	path := podSpecPath(object.GetKind())
	if path == nil {
		return nil, nil
	}

	podSpec, found, err := unstructured.NestedMap(object.Object, path...)
	if err != nil || !found {
		return nil, nil
	}

	var configMaps []string
	var secrets []string

	for _, field := range []string{"containers", "initContainers"} {
		containers, _ := podSpec[field].([]interface{})
		for _, c := range containers {
			container, ok := c.(map[string]interface{})
			if !ok {
				continue
			}

			env, _ := container["env"].([]interface{})
			for _, e := range env {
				envVar, ok := e.(map[string]interface{})
				if !ok {
					continue
				}
				if name := nestedName(envVar, "valueFrom", "configMapKeyRef"); name != "" {
					configMaps = append(configMaps, name)
				}
				if name := nestedName(envVar, "valueFrom", "secretKeyRef"); name != "" {
					secrets = append(secrets, name)
				}
			}

			envFrom, _ := container["envFrom"].([]interface{})
			for _, e := range envFrom {
				source, ok := e.(map[string]interface{})
				if !ok {
					continue
				}
				if name := nestedName(source, "configMapRef"); name != "" {
					configMaps = append(configMaps, name)
				}
				if name := nestedName(source, "secretRef"); name != "" {
					secrets = append(secrets, name)
				}
			}
		}
	}

	volumes, _ := podSpec["volumes"].([]interface{})
	for _, v := range volumes {
		volume, ok := v.(map[string]interface{})
		if !ok {
			continue
		}
		if name := nestedName(volume, "configMap"); name != "" {
			configMaps = append(configMaps, name)
		}
		if secret, ok := volume["secret"].(map[string]interface{}); ok {
			if name, ok := secret["secretName"].(string); ok && name != "" {
				secrets = append(secrets, name)
			}
		}
	}

	pullSecrets, _ := podSpec["imagePullSecrets"].([]interface{})
	for _, p := range pullSecrets {
		ref, ok := p.(map[string]interface{})
		if !ok {
			continue
		}
		if name, ok := ref["name"].(string); ok && name != "" {
			secrets = append(secrets, name)
		}
	}

	return configMaps, secrets
}

func nestedName(obj map[string]interface{}, path ...string) string {
	name, found, err := unstructured.NestedString(obj, append(path, "name")...)
	if err != nil || !found {
		return ""
	}
	return name
}
