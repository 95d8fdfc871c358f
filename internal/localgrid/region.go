package localgrid

import (
	"fmt"
	"hash/fnv"
	"sort"
	"sync"

	"github.com/goliatone/go-datagrid/grid"
)

// PartitionResolver picks the member holding the primary copy of key.
type PartitionResolver func(key any, hosts []grid.MemberID) grid.MemberID

// HashPartitionResolver spreads keys by the FNV-1a hash of their string form.
func HashPartitionResolver(key any, hosts []grid.MemberID) grid.MemberID {
	if len(hosts) == 0 {
		return ""
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(fmt.Sprint(key)))
	return hosts[h.Sum32()%uint32(len(hosts))]
}

// ReplicatedRegion is a Region whose entries are available on every member.
type ReplicatedRegion struct {
	name    string
	mu      sync.RWMutex
	entries map[any]any
}

var _ grid.Region = (*ReplicatedRegion)(nil)

// NewReplicatedRegion creates an empty region.
func NewReplicatedRegion(name string) *ReplicatedRegion {
	return &ReplicatedRegion{name: name, entries: map[any]any{}}
}

func (r *ReplicatedRegion) Name() string { return r.name }

func (r *ReplicatedRegion) Get(key any) (any, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.entries[key]
	return v, ok
}

func (r *ReplicatedRegion) Put(key, value any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[key] = value
}

func (r *ReplicatedRegion) Remove(key any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, key)
}

// Keys returns the keys sorted by their string form.
func (r *ReplicatedRegion) Keys() []any {
	r.mu.RLock()
	keys := make([]any, 0, len(r.entries))
	for k := range r.entries {
		keys = append(keys, k)
	}
	r.mu.RUnlock()
	sortKeys(keys)
	return keys
}

// Entries returns a copy of the region contents.
func (r *ReplicatedRegion) Entries() map[any]any {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[any]any, len(r.entries))
	for k, v := range r.entries {
		out[k] = v
	}
	return out
}

func (r *ReplicatedRegion) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// PartitionedRegion assigns each key to one hosting member.
type PartitionedRegion struct {
	*ReplicatedRegion
	hosts    []grid.MemberID
	resolver PartitionResolver
}

var _ grid.PartitionedRegion = (*PartitionedRegion)(nil)

// NewPartitionedRegion creates an empty region hosted by hosts. A nil resolver uses
// HashPartitionResolver.
func NewPartitionedRegion(name string, hosts []grid.MemberID, resolver PartitionResolver) *PartitionedRegion {
	if resolver == nil {
		resolver = HashPartitionResolver
	}
	return &PartitionedRegion{
		ReplicatedRegion: NewReplicatedRegion(name),
		hosts:            append([]grid.MemberID(nil), hosts...),
		resolver:         resolver,
	}
}

// Hosts returns the members the region is spread across.
func (r *PartitionedRegion) Hosts() []grid.MemberID {
	return append([]grid.MemberID(nil), r.hosts...)
}

// Owner returns the member holding the primary copy of key.
func (r *PartitionedRegion) Owner(key any) grid.MemberID {
	return r.resolver(key, r.hosts)
}

// Owners returns the distinct owners of keys, sorted.
func (r *PartitionedRegion) Owners(keys grid.KeySet) []grid.MemberID {
	seen := make(map[grid.MemberID]struct{}, len(r.hosts))
	for k := range keys {
		seen[r.Owner(k)] = struct{}{}
	}
	out := make([]grid.MemberID, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// LocalData returns a snapshot of the entries owned by member.
func (r *PartitionedRegion) LocalData(member grid.MemberID) grid.Region {
	local := NewReplicatedRegion(r.Name())
	for k, v := range r.Entries() {
		if r.Owner(k) == member {
			local.entries[k] = v
		}
	}
	return local
}

func sortKeys(keys []any) {
	sort.Slice(keys, func(i, j int) bool {
		return fmt.Sprint(keys[i]) < fmt.Sprint(keys[j])
	})
}
