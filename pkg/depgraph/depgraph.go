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

// Package depgraph orders Kubernetes objects so that the things an object
// needs exist before the object itself is applied: namespaces before the
// objects inside them, config maps and secrets before the workloads that
// mount them, custom resource definitions before their custom resources.
package depgraph

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dominikbraun/graph"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"

	"github.com/Sylenia/kubestack/pkg/resource"
)

// DependsOnAnnotation holds a comma separated list of object IDs in the
// format '<kind>/<namespace>/<name>' that must be applied and ready
// before the annotated object.
const DependsOnAnnotation = "kubestack.dev/depends-on"

// Graph is a directed acyclic dependency graph over a set of objects.
type Graph struct {
	objects map[string]*unstructured.Unstructured
	dag     graph.Graph[string, string]
}

// New builds the dependency graph for the given objects. Explicit edges
// come from the depends-on annotation, implicit ones from namespace
// membership, pod template references and CRD group ownership.
// It returns an error when an explicit dependency points outside the set
// or when the edges form a cycle.
func New(objects []*unstructured.Unstructured) (*Graph, error) {
	g := &Graph{
		objects: make(map[string]*unstructured.Unstructured, len(objects)),
		dag:     graph.New(graph.StringHash, graph.Directed(), graph.PreventCycles()),
	}

	for _, object := range objects {
		id := resource.FmtUnstructured(object)
		if _, found := g.objects[id]; found {
			return nil, fmt.Errorf("duplicate object %s", id)
		}
		g.objects[id] = object
		if err := g.dag.AddVertex(id); err != nil {
			return nil, fmt.Errorf("adding %s failed: %w", id, err)
		}
	}

	for id, object := range g.objects {
		for _, dep := range explicitDeps(object) {
			if _, found := g.objects[dep]; !found {
				return nil, fmt.Errorf("%s depends on %s which is not part of the set", id, dep)
			}
			if err := g.addEdge(dep, id); err != nil {
				return nil, err
			}
		}

		for _, dep := range implicitDeps(object, g.objects) {
			if err := g.addEdge(dep, id); err != nil {
				return nil, err
			}
		}
	}

	return g, nil
}

func (g *Graph) addEdge(from, to string) error {
	if from == to {
		return nil
	}
	err := g.dag.AddEdge(from, to)
	if err != nil {
		if errors.Is(err, graph.ErrEdgeAlreadyExists) {
			return nil
		}
		if errors.Is(err, graph.ErrEdgeCreatesCycle) {
			return fmt.Errorf("dependency cycle between %s and %s", from, to)
		}
		return fmt.Errorf("adding edge %s -> %s failed: %w", from, to, err)
	}
	return nil
}

// Sort returns the objects in dependency order. Objects without edges
// between them keep the kind ranking order so that the output stays
// deterministic irrespective of input order.
func (g *Graph) Sort() ([]*unstructured.Unstructured, error) {
	order, err := graph.StableTopologicalSort(g.dag, g.less)
	if err != nil {
		return nil, fmt.Errorf("topological sort failed: %w", err)
	}

	sorted := make([]*unstructured.Unstructured, 0, len(order))
	for _, id := range order {
		sorted = append(sorted, g.objects[id])
	}
	return sorted, nil
}

func (g *Graph) less(a, b string) bool {
	rankA := resource.KindRank(g.objects[a].GetKind())
	rankB := resource.KindRank(g.objects[b].GetKind())
	if rankA != rankB {
		return rankA < rankB
	}
	return a < b
}

// Sort builds the dependency graph for the given objects and returns
// them in dependency order.
func Sort(objects []*unstructured.Unstructured) ([]*unstructured.Unstructured, error) {
	g, err := New(objects)
	if err != nil {
		return nil, err
	}
	return g.Sort()
}

// SplitStages returns the objects partitioned into cluster definitions
// (CRDs and Namespaces) and everything else, each slice in dependency
// order. The first stage must be applied and ready before the second.
func SplitStages(objects []*unstructured.Unstructured) ([]*unstructured.Unstructured, []*unstructured.Unstructured, error) {
	sorted, err := Sort(objects)
	if err != nil {
		return nil, nil, err
	}

	var defs []*unstructured.Unstructured
	var rest []*unstructured.Unstructured
	for _, u := range sorted {
		if resource.IsClusterDefinition(u) {
			defs = append(defs, u)
		} else {
			rest = append(rest, u)
		}
	}
	return defs, rest, nil
}

func explicitDeps(object *unstructured.Unstructured) []string {
	value, found := object.GetAnnotations()[DependsOnAnnotation]
	if !found {
		return nil
	}

	var deps []string
	for _, dep := range strings.Split(value, ",") {
		if dep = strings.TrimSpace(dep); dep != "" {
			deps = append(deps, dep)
		}
	}
	return deps
}
