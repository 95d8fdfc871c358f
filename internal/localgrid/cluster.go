package localgrid

import (
	"fmt"
	"log/slog"
	"sort"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/goliatone/go-errors"
	"github.com/puzpuzpuz/xsync/v3"

	"github.com/goliatone/go-datagrid/grid"
	"github.com/goliatone/go-datagrid/internal/logging"
)

// Cluster is an in-process grid. Every member runs in the calling process.
type Cluster struct {
	name        string
	members     *xsync.MapOf[grid.MemberID, grid.Member]
	pools       *xsync.MapOf[string, *Pool]
	regions     *xsync.MapOf[string, grid.Region]
	functions   *xsync.MapOf[string, grid.Function]
	portable    *PortableRegistry
	defaultPool atomic.Pointer[string]
	resolver    PartitionResolver
	logger      *slog.Logger
}

var (
	_ grid.FunctionService = (*Cluster)(nil)
	_ grid.PoolSource      = (*Cluster)(nil)
	_ grid.PortableSupport = (*Cluster)(nil)
)

// Option configures a Cluster.
type Option func(*Cluster)

// WithPartitionResolver replaces the hash resolver for partitioned regions created afterwards.
func WithPartitionResolver(resolver PartitionResolver) Option {
	return func(c *Cluster) {
		if resolver != nil {
			c.resolver = resolver
		}
	}
}

// WithLogger sets the cluster logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Cluster) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New builds a cluster from cfg.
func New(cfg Config, opts ...Option) (*Cluster, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Cluster{
		name:      cfg.Name,
		members:   xsync.NewMapOf[grid.MemberID, grid.Member](),
		pools:     xsync.NewMapOf[string, *Pool](),
		regions:   xsync.NewMapOf[string, grid.Region](),
		functions: xsync.NewMapOf[string, grid.Function](),
		portable:  NewPortableRegistry(),
		resolver:  HashPartitionResolver,
		logger:    logging.Op(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.portable.SetReadSerialized(cfg.Portable.ReadSerialized)

	for _, m := range cfg.Members {
		c.AddMember(grid.Member{
			ID:     grid.MemberID(m.ID),
			Name:   m.Name,
			Groups: m.Groups,
			Server: m.Server,
		})
	}
	for _, p := range cfg.Pools {
		if _, err := c.AddPool(p.Name, grid.MemberIDs(p.Servers...)...); err != nil {
			return nil, err
		}
	}
	for _, r := range cfg.Regions {
		region, err := c.CreateRegion(r.Name, r.Type)
		if err != nil {
			return nil, err
		}
		for k, v := range r.Entries {
			region.Put(k, v)
		}
	}

	c.logger.Debug("local cluster started", "cluster", c.name, "members", c.members.Size(), "regions", c.regions.Size())
	return c, nil
}

// Name returns the cluster name.
func (c *Cluster) Name() string { return c.name }

// AddMember registers m. An empty ID is replaced by a random one, which is returned.
func (c *Cluster) AddMember(m grid.Member) grid.MemberID {
	if m.ID == "" {
		m.ID = grid.MemberID(uuid.NewString())
	}
	if m.Name == "" {
		m.Name = string(m.ID)
	}
	m.Groups = append([]string(nil), m.Groups...)
	c.members.Store(m.ID, m)
	return m.ID
}

// Member returns the member with id.
func (c *Cluster) Member(id grid.MemberID) (grid.Member, bool) {
	return c.members.Load(id)
}

// Members returns every member sorted by ID.
func (c *Cluster) Members() []grid.Member {
	out := make([]grid.Member, 0, c.members.Size())
	c.members.Range(func(_ grid.MemberID, m grid.Member) bool {
		out = append(out, m)
		return true
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Servers returns the IDs of the server members, sorted.
func (c *Cluster) Servers() []grid.MemberID {
	var out []grid.MemberID
	for _, m := range c.Members() {
		if m.Server {
			out = append(out, m.ID)
		}
	}
	return out
}

// AddPool registers a pool over servers. The first pool added becomes the default pool.
func (c *Cluster) AddPool(name string, servers ...grid.MemberID) (*Pool, error) {
	for _, id := range servers {
		m, ok := c.members.Load(id)
		if !ok {
			return nil, detailed(ErrMemberNotFound, fmt.Sprintf("pool [%s] references unknown member [%s]", name, id),
				map[string]any{"pool": name, "member": string(id)})
		}
		if !m.Server {
			return nil, errors.New(fmt.Sprintf("member [%s] is not a server", id), errors.CategoryValidation).
				WithTextCode("INVALID_TOPOLOGY").
				WithMetadata(map[string]any{"pool": name, "member": string(id)})
		}
	}

	p := &Pool{name: name, servers: append([]grid.MemberID(nil), servers...)}
	c.pools.Store(name, p)
	c.defaultPool.CompareAndSwap(nil, &name)
	return p, nil
}

// Pool returns the pool called name.
func (c *Cluster) Pool(name string) (*Pool, error) {
	p, ok := c.pools.Load(name)
	if !ok {
		return nil, detailed(ErrPoolNotFound, fmt.Sprintf("pool [%s] not found", name), map[string]any{"pool": name})
	}
	return p, nil
}

// DefaultPool implements grid.PoolSource.
func (c *Cluster) DefaultPool() (grid.Pool, error) {
	name := c.defaultPool.Load()
	if name == nil {
		return nil, detailed(ErrPoolNotFound, "cluster has no default pool", map[string]any{"cluster": c.name})
	}
	return c.Pool(*name)
}

// CreateRegion creates an empty region. Partitioned regions are spread over the current servers.
// An existing region with the same name is returned unchanged.
func (c *Cluster) CreateRegion(name string, kind RegionType) (grid.Region, error) {
	if name == "" {
		return nil, errors.New("region name is required", errors.CategoryValidation).WithTextCode("INVALID_TOPOLOGY")
	}

	region, _ := c.regions.LoadOrCompute(name, func() grid.Region {
		if kind == Partitioned {
			return NewPartitionedRegion(name, c.Servers(), c.resolver)
		}
		return NewReplicatedRegion(name)
	})
	return region, nil
}

// Region returns the region called name. A leading slash is ignored.
func (c *Cluster) Region(name string) (grid.Region, error) {
	if len(name) > 0 && name[0] == '/' {
		name = name[1:]
	}
	r, ok := c.regions.Load(name)
	if !ok {
		return nil, detailed(ErrRegionNotFound, fmt.Sprintf("region [%s] not found", name), map[string]any{"region": name})
	}
	return r, nil
}

// RegisterFunction makes fn callable by ID. A function with the same ID is replaced.
func (c *Cluster) RegisterFunction(fn grid.Function) error {
	if fn == nil || fn.ID() == "" {
		return errors.New("function with an id is required", errors.CategoryValidation).WithTextCode("INVALID_FUNCTION")
	}
	c.functions.Store(fn.ID(), fn)
	return nil
}

// Function returns the function registered under id.
func (c *Cluster) Function(id string) (grid.Function, error) {
	fn, ok := c.functions.Load(id)
	if !ok {
		return nil, detailed(grid.ErrFunctionNotFound, fmt.Sprintf("function [%s] is not registered", id),
			map[string]any{"function": id})
	}
	return fn, nil
}

// Functions returns the registered function IDs, sorted.
func (c *Cluster) Functions() []string {
	var ids []string
	c.functions.Range(func(id string, _ grid.Function) bool {
		ids = append(ids, id)
		return true
	})
	sort.Strings(ids)
	return ids
}

// Portable returns the portable type registry.
func (c *Cluster) Portable() *PortableRegistry { return c.portable }

// PortableDeserializer implements grid.PortableSupport. It reports a deserializer only while
// read-serialized delivery is enabled.
func (c *Cluster) PortableDeserializer() (grid.PortableDeserializer, bool) {
	if !c.portable.ReadSerialized() {
		return nil, false
	}
	return c.portable, true
}

// QueryService returns an OQL service over the cluster regions.
func (c *Cluster) QueryService() *QueryService {
	return &QueryService{cluster: c}
}

// Pool is a named set of server members.
type Pool struct {
	name    string
	servers []grid.MemberID
	next    atomic.Uint64
}

var _ grid.Pool = (*Pool)(nil)

func (p *Pool) Name() string { return p.name }

// Servers returns a copy of the pool's server list.
func (p *Pool) Servers() []grid.MemberID {
	return append([]grid.MemberID(nil), p.servers...)
}

// pick returns the next server in round-robin order.
func (p *Pool) pick() (grid.MemberID, bool) {
	if len(p.servers) == 0 {
		return "", false
	}
	i := p.next.Add(1) - 1
	return p.servers[i%uint64(len(p.servers))], true
}
