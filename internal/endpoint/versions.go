package endpoint

import "sync"

// recentWrites is the number of self-written versions remembered per draft
const recentWrites = 16

// ownVersions remembers the versions this endpoint recently wrote, so the
// watcher's notifications for them are not mistaken for external edits.
// Several writes can land before the watcher reports the first one.
type ownVersions struct {
	mu   sync.Mutex
	byID map[string][]string
}

func newOwnVersions() *ownVersions {
	return &ownVersions{byID: make(map[string][]string)}
}

func (o *ownVersions) add(id, version string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	versions := append(o.byID[id], version)
	if len(versions) > recentWrites {
		versions = versions[len(versions)-recentWrites:]
	}
	o.byID[id] = versions
}

// remove forgets the most recent occurrence of version, after a failed write
func (o *ownVersions) remove(id, version string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	versions := o.byID[id]
	for i := len(versions) - 1; i >= 0; i-- {
		if versions[i] == version {
			o.byID[id] = append(versions[:i:i], versions[i+1:]...)
			return
		}
	}
}

func (o *ownVersions) contains(id, version string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, v := range o.byID[id] {
		if v == version {
			return true
		}
	}
	return false
}
