package git

import (
	"bytes"
	"context"
	"os/exec"
	"sort"
	"strings"

	"policygate/internal/config"
	"policygate/internal/log"
)

// Lister enumerates version-controlled files.
type Lister interface {
	TrackedFiles(ctx context.Context) ([]string, error)
}

// Repo lists the files tracked by git in Dir.
type Repo struct {
	Dir string
}

// TrackedFiles returns the sorted slash-separated paths from `git ls-files -z`.
func (r Repo) TrackedFiles(ctx context.Context) ([]string, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, "git", "ls-files", "-z")
	cmd.Dir = r.Dir
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	log.Debug("listing tracked files", "dir", r.Dir)
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = "git ls-files failed"
		}
		return nil, config.ToolFailure("git", msg, err)
	}
	return ParseNullSeparated(stdout.Bytes()), nil
}

// ParseNullSeparated splits NUL-terminated paths, dropping empties.
func ParseNullSeparated(out []byte) []string {
	var files []string
	for _, p := range bytes.Split(out, []byte{0}) {
		if len(p) == 0 {
			continue
		}
		files = append(files, string(p))
	}
	sort.Strings(files)
	return files
}

// Static is a fixed file list, for tests and non-git trees.
type Static []string

func (s Static) TrackedFiles(context.Context) ([]string, error) {
	out := append([]string(nil), s...)
	sort.Strings(out)
	return out, nil
}
