package di

import (
	"log/slog"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/goliatone/go-datagrid/cache"
	"github.com/goliatone/go-datagrid/execution"
	"github.com/goliatone/go-datagrid/function"
	"github.com/goliatone/go-datagrid/grid"
	"github.com/goliatone/go-datagrid/internal/localgrid"
	"github.com/goliatone/go-datagrid/internal/logging"
	"github.com/goliatone/go-datagrid/pkg/config"
	"github.com/goliatone/go-datagrid/query"
	"github.com/goliatone/go-datagrid/querycache"
)

// Container provides dependency injection for the grid components.
// It owns singleton instances of the cache service, key serializer, local cluster,
// metrics and the cached query executor, and builds execution templates bound to them.
type Container struct {
	config        config.Config
	cacheService  cache.CacheService
	keySerializer cache.KeySerializer
	cluster       *localgrid.Cluster
	metrics       *execution.Metrics
	registry      *prometheus.Registry
	queryCache    *querycache.CachedExecutor
	logger        *slog.Logger
}

// Option configures a Container.
type Option func(*containerOptions)

type containerOptions struct {
	logger      *slog.Logger
	registry    *prometheus.Registry
	redisClient cache.RedisClient
	resolver    localgrid.PartitionResolver
}

// WithLogger sets the logger shared by every component.
func WithLogger(logger *slog.Logger) Option {
	return func(o *containerOptions) { o.logger = logger }
}

// WithRegistry registers the execution metrics with reg instead of a private registry.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(o *containerOptions) { o.registry = reg }
}

// WithRedisClient uses client for the redis cache backend.
func WithRedisClient(client cache.RedisClient) Option {
	return func(o *containerOptions) { o.redisClient = client }
}

// WithPartitionResolver sets how partitioned regions assign keys to members.
func WithPartitionResolver(resolver localgrid.PartitionResolver) Option {
	return func(o *containerOptions) { o.resolver = resolver }
}

// NewContainer creates a new DI container from cfg.
// The configuration is validated before any component is built.
func NewContainer(cfg *config.Config, opts ...Option) (*Container, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := &containerOptions{}
	for _, opt := range opts {
		opt(o)
	}
	logger := logging.Or(o.logger)
	if o.registry == nil {
		o.registry = prometheus.NewRegistry()
	}

	var (
		cacheService cache.CacheService
		err          error
	)
	if cfg.Cache.Backend == cache.BackendRedis && o.redisClient != nil {
		cacheService, err = cache.NewCacheServiceWithRedis(cfg.Cache, o.redisClient)
	} else {
		cacheService, err = cache.NewCacheService(cfg.Cache)
	}
	if err != nil {
		return nil, err
	}

	clusterOpts := []localgrid.Option{localgrid.WithLogger(logger)}
	if o.resolver != nil {
		clusterOpts = append(clusterOpts, localgrid.WithPartitionResolver(o.resolver))
	}
	cluster, err := localgrid.New(cfg.Grid, clusterOpts...)
	if err != nil {
		return nil, err
	}

	keySerializer := cache.NewDefaultKeySerializer()
	queryCache := querycache.New(
		query.NewTemplateExecutor(cluster.QueryService()),
		cacheService,
		keySerializer,
		querycache.WithLogger(logger),
	)

	logger.Debug("datagrid container ready",
		"grid", cluster.Name(),
		"cache_backend", cfg.Cache.Backend,
		"members", len(cluster.Members()),
	)

	return &Container{
		config:        *cfg,
		cacheService:  cacheService,
		keySerializer: keySerializer,
		cluster:       cluster,
		metrics:       execution.NewMetrics(o.registry),
		registry:      o.registry,
		queryCache:    queryCache,
		logger:        logger,
	}, nil
}

// NewContainerWithDefaults creates a new DI container using default configuration.
// This is a convenience constructor for tests and single process tools.
func NewContainerWithDefaults(opts ...Option) (*Container, error) {
	return NewContainer(config.DefaultConfig(), opts...)
}

// CacheService returns the singleton cache service instance.
func (c *Container) CacheService() cache.CacheService {
	return c.cacheService
}

// KeySerializer returns the singleton key serializer instance.
func (c *Container) KeySerializer() cache.KeySerializer {
	return c.keySerializer
}

// Config returns a copy of the configuration used by this container.
func (c *Container) Config() config.Config {
	return c.config
}

// Cluster returns the local grid every template dispatches to.
func (c *Container) Cluster() *localgrid.Cluster {
	return c.cluster
}

// Metrics returns the execution metrics shared by all templates.
func (c *Container) Metrics() *execution.Metrics {
	return c.metrics
}

// Registry returns the prometheus registry holding the execution metrics.
func (c *Container) Registry() *prometheus.Registry {
	return c.registry
}

// Logger returns the logger shared by the container components.
func (c *Container) Logger() *slog.Logger {
	return c.logger
}

func (c *Container) templateOptions() []execution.TemplateOption {
	return []execution.TemplateOption{
		execution.WithConfig(c.config.Execution),
		execution.WithMetrics(c.metrics),
		execution.WithLogger(c.logger),
	}
}

// OnServer builds a template that runs on one server of the named pool.
// An empty pool name selects the default pool when each call is made.
func (c *Container) OnServer(pool string) (*execution.Template, error) {
	if pool == "" {
		return execution.NewTemplate(execution.OnServerFromCache(c.cluster, c.cluster), c.templateOptions()...)
	}
	p, err := c.cluster.Pool(pool)
	if err != nil {
		return nil, err
	}
	return execution.NewTemplate(execution.OnServer(c.cluster, p), c.templateOptions()...)
}

// OnServers builds a template that runs on every server of the named pool.
// An empty pool name selects the default pool when each call is made.
func (c *Container) OnServers(pool string) (*execution.Template, error) {
	if pool == "" {
		return execution.NewTemplate(execution.OnServersFromCache(c.cluster, c.cluster), c.templateOptions()...)
	}
	p, err := c.cluster.Pool(pool)
	if err != nil {
		return nil, err
	}
	return execution.NewTemplate(execution.OnServers(c.cluster, p), c.templateOptions()...)
}

// OnRegion builds a template bound to the named region.
func (c *Container) OnRegion(region string) (*execution.RegionTemplate, error) {
	r, err := c.cluster.Region(region)
	if err != nil {
		return nil, err
	}
	return execution.NewRegionTemplate(c.cluster, r, c.templateOptions()...)
}

// OnMembers builds a template for the given member IDs and groups.
func (c *Container) OnMembers(members []string, groups []string) (*execution.Template, error) {
	return execution.NewTemplate(
		execution.OnMembers(c.cluster, grid.MemberIDs(members...), groups),
		c.templateOptions()...,
	)
}

// OnAllMembers builds a template that runs on every member of the cluster.
func (c *Container) OnAllMembers() (*execution.Template, error) {
	return execution.NewTemplate(execution.OnAllMembers(c.cluster), c.templateOptions()...)
}

// RegisterFunction wraps fn in a function.Adapter and registers it under id.
// The adapter resolves portable arguments through the cluster and logs with the container logger;
// opts are applied after those defaults.
func (c *Container) RegisterFunction(id string, fn any, opts ...function.AdapterOption) (*function.Adapter, error) {
	all := append([]function.AdapterOption{
		function.WithPortableSupport(c.cluster),
		function.WithLogger(c.logger),
	}, opts...)

	adapter, err := function.NewAdapter(id, fn, all...)
	if err != nil {
		return nil, err
	}
	if err := c.cluster.RegisterFunction(adapter); err != nil {
		return nil, err
	}
	return adapter, nil
}

// QueryCache returns the cached OQL executor, mostly to invalidate it.
func (c *Container) QueryCache() *querycache.CachedExecutor {
	return c.queryCache
}

// QueryExecutor returns the cached OQL executor followed by fallbacks, in order.
// A fallback runs only when every executor before it reports the query as unsupported.
func (c *Container) QueryExecutor(fallbacks ...query.Executor) query.Executor {
	executors := make([]query.Executor, 0, len(fallbacks)+1)
	executors = append(executors, c.queryCache)
	executors = append(executors, fallbacks...)
	return query.Chain(executors...)
}

// NewRepositoryExecutor creates a cached native query executor over repo.
// It runs only native methods and caches their results like the OQL executor does.
//
// Since Go methods cannot have type parameters, this is provided as a package-level function.
// Example: NewRepositoryExecutor[Order](container, orderRepository)
func NewRepositoryExecutor[T any](container *Container, repo repository.Repository[T]) *querycache.CachedExecutor {
	return querycache.New(
		query.NewRepositoryExecutor[T](repo),
		container.cacheService,
		container.keySerializer,
		querycache.WithLogger(container.logger),
	)
}
