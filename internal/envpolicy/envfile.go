package envpolicy

import (
	"bufio"
	"errors"
	"io"
	"io/fs"
	"os"
	"strings"

	"policygate/internal/config"
)

// ParseEnvNames returns the variable names declared in a KEY=value file.
// Blank lines and # comments are ignored; an "export " prefix is allowed.
func ParseEnvNames(r io.Reader) (map[string]struct{}, error) {
	names := make(map[string]struct{})
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimSpace(strings.TrimPrefix(line, "export "))
		key, _, _ := strings.Cut(line, "=")
		key = strings.TrimSpace(key)
		if key != "" {
			names[key] = struct{}{}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return names, nil
}

// LoadEnvNames reads an example env file. The file is required.
func LoadEnvNames(path string) (map[string]struct{}, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, config.MissingFile(path, nil)
		}
		return nil, config.MissingFile(path, err)
	}
	defer f.Close()

	names, err := ParseEnvNames(f)
	if err != nil {
		return nil, config.Malformed(path, err)
	}
	return names, nil
}

// MissingNames returns the required names absent from declared, in order.
func MissingNames(required []string, declared map[string]struct{}) []string {
	var missing []string
	for _, n := range required {
		if _, ok := declared[n]; !ok {
			missing = append(missing, n)
		}
	}
	return missing
}
