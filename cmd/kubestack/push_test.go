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

package main

import (
	"fmt"
	"testing"

	"filippo.io/age"
	. "github.com/onsi/gomega"
)

func TestPush(t *testing.T) {
	g := NewWithT(t)
	id := randStringRunes(5)
	tag := "v1.0.0"
	bundle := fmt.Sprintf("oci://%s/%s:%s", registryHost, id, tag)

	dir, err := makeTestDir(id, testManifests(id, id, false))
	g.Expect(err).NotTo(HaveOccurred())

	t.Run("pushes bundle", func(t *testing.T) {
		output, err := executeCommand(fmt.Sprintf(
			"push %s -k %s",
			bundle,
			dir,
		))

		g.Expect(err).NotTo(HaveOccurred())
		t.Logf("\n%s", output)
		g.Expect(output).To(MatchRegexp(id))
	})

	t.Run("pulls bundle", func(t *testing.T) {
		output, err := executeCommand(fmt.Sprintf(
			"pull %s",
			bundle,
		))

		g.Expect(err).NotTo(HaveOccurred())
		t.Logf("\n%s", output)
		g.Expect(output).To(MatchRegexp(fmt.Sprintf("ConfigMap")))
		g.Expect(output).To(MatchRegexp(id))
	})

	t.Run("applies bundle", func(t *testing.T) {
		err := createNamespace(id)
		g.Expect(err).NotTo(HaveOccurred())

		output, err := executeCommand(fmt.Sprintf(
			"apply --stack-name %s -b %s -n %s",
			id,
			bundle,
			id,
		))

		g.Expect(err).NotTo(HaveOccurred())
		t.Logf("\n%s", output)
		g.Expect(output).To(MatchRegexp("created"))
	})
}

func TestPush_Encrypted(t *testing.T) {
	g := NewWithT(t)
	id := randStringRunes(5)
	bundle := fmt.Sprintf("oci://%s/%s-enc:v1.0.0", registryHost, id)

	identity, err := age.GenerateX25519Identity()
	g.Expect(err).NotTo(HaveOccurred())

	keyDir, err := makeTestDir(id+"-keys", []TestFile{
		{Name: "keys.pub", Body: identity.Recipient().String()},
		{Name: "keys.txt", Body: identity.String()},
	})
	g.Expect(err).NotTo(HaveOccurred())

	dir, err := makeTestDir(id, testManifests(id, id, false))
	g.Expect(err).NotTo(HaveOccurred())

	t.Run("pushes encrypted bundle", func(t *testing.T) {
		output, err := executeCommand(fmt.Sprintf(
			"push %s -k %s --age-recipients %s/keys.pub",
			bundle,
			dir,
			keyDir,
		))

		g.Expect(err).NotTo(HaveOccurred())
		t.Logf("\n%s", output)
		g.Expect(output).To(MatchRegexp(id))
	})

	t.Run("fails to pull without identities", func(t *testing.T) {
		_, err := executeCommand(fmt.Sprintf(
			"pull %s",
			bundle,
		))

		g.Expect(err).To(HaveOccurred())
	})

	t.Run("pulls and decrypts bundle", func(t *testing.T) {
		output, err := executeCommand(fmt.Sprintf(
			"pull %s --age-identities %s/keys.txt",
			bundle,
			keyDir,
		))

		g.Expect(err).NotTo(HaveOccurred())
		t.Logf("\n%s", output)
		g.Expect(output).To(MatchRegexp(id))
	})
}
