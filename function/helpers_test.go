package function

import (
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/goliatone/go-datagrid/grid"
)

type recordingSender struct {
	mu      sync.Mutex
	results []any
	last    []any
	errs    []error
}

func (s *recordingSender) SendResult(result any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = append(s.results, result)
	return nil
}

func (s *recordingSender) LastResult(result any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = append(s.last, result)
	return nil
}

func (s *recordingSender) SendError(err error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errs = append(s.errs, err)
	return nil
}

type testContext struct {
	id     string
	args   any
	sender grid.ResultSender
	member grid.MemberID
}

func (c *testContext) FunctionID() string              { return c.id }
func (c *testContext) Arguments() any                  { return c.args }
func (c *testContext) ResultSender() grid.ResultSender { return c.sender }
func (c *testContext) MemberID() grid.MemberID         { return c.member }

type testRegionContext struct {
	testContext
	region grid.Region
	filter grid.KeySet
}

func (c *testRegionContext) DataSet() grid.Region { return c.region }
func (c *testRegionContext) Filter() grid.KeySet  { return c.filter }

type mapRegion struct {
	name    string
	entries map[any]any
}

func newMapRegion(name string, entries map[any]any) *mapRegion {
	if entries == nil {
		entries = map[any]any{}
	}
	return &mapRegion{name: name, entries: entries}
}

func (r *mapRegion) Name() string            { return r.name }
func (r *mapRegion) Get(key any) (any, bool) { v, ok := r.entries[key]; return v, ok }
func (r *mapRegion) Put(key, value any)      { r.entries[key] = value }
func (r *mapRegion) Remove(key any)          { delete(r.entries, key) }
func (r *mapRegion) Size() int               { return len(r.entries) }
func (r *mapRegion) Entries() map[any]any {
	out := make(map[any]any, len(r.entries))
	for k, v := range r.entries {
		out[k] = v
	}
	return out
}
func (r *mapRegion) Keys() []any {
	keys := make([]any, 0, len(r.entries))
	for k := range r.entries {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return fmt.Sprint(keys[i]) < fmt.Sprint(keys[j]) })
	return keys
}

// partitionedRegion assigns each key to an owning member.
type partitionedRegion struct {
	*mapRegion
	owners map[any]grid.MemberID
}

func (r *partitionedRegion) LocalData(member grid.MemberID) grid.Region {
	local := newMapRegion(r.name, nil)
	for k, v := range r.entries {
		if r.owners[k] == member {
			local.entries[k] = v
		}
	}
	return local
}

type Customer struct {
	Name string
}

type portableCustomer struct {
	typeName string
	name     string
}

func (p portableCustomer) TypeName() string { return p.typeName }

type testDeserializer struct {
	types map[string]reflect.Type
	calls int
}

func (d *testDeserializer) Resolve(name string) (reflect.Type, bool) {
	t, ok := d.types[name]
	return t, ok
}

func (d *testDeserializer) Deserialize(value grid.PortableValue, target reflect.Type) (any, error) {
	d.calls++
	pc := value.(portableCustomer)
	out := reflect.New(target).Elem()
	out.FieldByName("Name").SetString(pc.name)
	return out.Interface(), nil
}

func portableSupport(d grid.PortableDeserializer) grid.PortableSupport {
	return grid.PortableSupportFunc(func() (grid.PortableDeserializer, bool) {
		return d, d != nil
	})
}
