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

package registry

import (
	"context"
	"fmt"

	"github.com/google/go-containerregistry/pkg/crane"
	"github.com/google/go-containerregistry/pkg/name"
)

// Tag adds the given tag to the bundle image on the remote registry.
func Tag(ctx context.Context, url, tag string) (string, error) {
	ref, err := name.ParseReference(url)
	if err != nil {
		return "", fmt.Errorf("parsing reference failed: %w", err)
	}

	if err := crane.Tag(url, tag, craneOptions(ctx)...); err != nil {
		return "", err
	}

	return ref.Context().Tag(tag).String(), nil
}

// List returns the tags found in the bundle repository.
func List(ctx context.Context, repoURL string) ([]string, error) {
	tags, err := crane.ListTags(repoURL, craneOptions(ctx)...)
	if err != nil {
		return nil, fmt.Errorf("listing tags failed: %w", err)
	}
	return tags, nil
}
