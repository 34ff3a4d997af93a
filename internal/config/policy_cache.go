package config

import (
	"fmt"
	"os"
	"sync"

	"golang.org/x/sync/singleflight"
)

// PolicyCache shares loaded policy documents between checks. Concurrent
// loads of the same file collapse into one read, and a cached document is
// reused only while the file's size and modification time are unchanged.
// Failed loads are never cached.
type PolicyCache struct {
	group singleflight.Group
	data  sync.Map
}

func NewPolicyCache() *PolicyCache {
	return &PolicyCache{}
}

// Load returns the policy at path, reading it at most once per file version.
func (c *PolicyCache) Load(path string) (*Policy, error) {
	info, err := os.Stat(path)
	if err != nil {
		// LoadPolicy classifies the failure.
		return LoadPolicy(path)
	}
	key := fmt.Sprintf("%s|%d|%d", path, info.Size(), info.ModTime().UnixNano())
	if v, ok := c.data.Load(key); ok {
		return v.(*Policy), nil
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		p, err := LoadPolicy(path)
		if err != nil {
			return nil, err
		}
		c.data.Store(key, p)
		return p, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Policy), nil
}
