package checks

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"policygate/internal/gate"
)

// writeTree materialises files under a fresh root and returns the root.
func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
	return root
}

func fixedEnv(root string, at time.Time) Env {
	env := NewEnv(root)
	env.Now = func() time.Time { return at }
	return env
}

func messages(o *gate.Outcome) []string {
	out := make([]string, 0, len(o.Results))
	for _, r := range o.Results {
		out = append(out, string(r.Status)+" "+r.Message)
	}
	return out
}

func lines(n int) string {
	b := make([]byte, 0, n*2)
	for i := 0; i < n; i++ {
		b = append(b, 'x', '\n')
	}
	return string(b)
}
