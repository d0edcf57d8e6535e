package testsupport

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

// FixtureDir is where fixtures are read from, relative to the test package.
const FixtureDir = "testdata"

// LoadFixture reads a fixture file. Bare names resolve against FixtureDir,
// paths containing a separator are used as given.
func LoadFixture(t testing.TB, name string) []byte {
	t.Helper()

	path := name
	if filepath.Base(name) == name {
		path = filepath.Join(FixtureDir, name)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read fixture %s: %v", path, err)
	}
	return data
}

// LoadJSON decodes a JSON fixture into a fresh value of type V.
func LoadJSON[V any](t testing.TB, name string) V {
	t.Helper()

	var v V
	if err := json.Unmarshal(LoadFixture(t, name), &v); err != nil {
		t.Fatalf("decode fixture %s: %v", name, err)
	}
	return v
}

// LoadDummies returns the transient dummies stored in dummies.json.
func LoadDummies(t testing.TB) []*Dummy {
	t.Helper()
	return LoadJSON[[]*Dummy](t, "dummies.json")
}
