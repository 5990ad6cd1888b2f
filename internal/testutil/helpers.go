package testutil

import (
	"crypto/rand"
	"fmt"
	"path"
	"testing"
	"time"

	"github.com/wangguanran/Tools/internal/fsys"
)

// WriteTree creates the given files on fs under root. Map keys are
// slash-separated relative paths, values are file contents. Parent
// directories are created as needed.
func WriteTree(t *testing.T, fs *fsys.FS, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		full := fs.Join(root, rel)
		if dir := path.Dir(full); dir != "." {
			if err := fs.MkdirAll(dir, 0o755); err != nil {
				t.Fatalf("mkdir %s: %v", dir, err)
			}
		}
		if err := fs.WriteFile(full, []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", full, err)
		}
	}
}

// ReadFileString reads a file from fs and returns its contents as a string.
func ReadFileString(t *testing.T, fs *fsys.FS, name string) string {
	t.Helper()
	data, err := fs.ReadFile(name)
	if err != nil {
		t.Fatalf("read %s: %v", name, err)
	}
	return string(data)
}

// GenerateRandomData returns size bytes of random content for copy tests.
func GenerateRandomData(t *testing.T, size int) []byte {
	t.Helper()
	data := make([]byte, size)
	if _, err := rand.Read(data); err != nil {
		t.Fatalf("generate random data: %v", err)
	}
	return data
}

// UniqueName returns a name with a timestamp suffix to avoid collisions
// between test runs that share a directory.
func UniqueName(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
}
