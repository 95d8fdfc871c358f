package localgrid

import (
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/goliatone/go-errors"
)

// RegionType selects how a region stores its entries.
type RegionType string

const (
	// Replicated regions hold every entry on every hosting member.
	Replicated RegionType = "replicated"
	// Partitioned regions spread entries across the server members.
	Partitioned RegionType = "partitioned"
)

// Config describes the topology of a local cluster.
type Config struct {
	Name     string         `yaml:"name"`
	Members  []MemberConfig `yaml:"members"`
	Pools    []PoolConfig   `yaml:"pools"`
	Regions  []RegionConfig `yaml:"regions"`
	Portable PortableConfig `yaml:"portable"`
}

// MemberConfig declares one member. An empty ID is replaced by a generated one.
type MemberConfig struct {
	ID     string   `yaml:"id"`
	Name   string   `yaml:"name"`
	Groups []string `yaml:"groups"`
	Server bool     `yaml:"server"`
}

// PoolConfig declares a named set of servers. The first pool is the default pool.
type PoolConfig struct {
	Name    string   `yaml:"name"`
	Servers []string `yaml:"servers"`
}

// RegionConfig declares a region and optional seed entries.
type RegionConfig struct {
	Name    string         `yaml:"name"`
	Type    RegionType     `yaml:"type"`
	Entries map[string]any `yaml:"entries"`
}

// PortableConfig controls the portable argument format.
type PortableConfig struct {
	// ReadSerialized delivers registered argument types to members as portable values.
	ReadSerialized bool `yaml:"read_serialized"`
}

// DefaultConfig is a single server member with a default pool and no regions.
func DefaultConfig() Config {
	return Config{
		Name: "local",
		Members: []MemberConfig{
			{ID: "server-1", Name: "server-1", Server: true},
		},
		Pools: []PoolConfig{
			{Name: "default", Servers: []string{"server-1"}},
		},
	}
}

// Validate checks the topology for missing names and dangling references.
func (c Config) Validate() error {
	err := validation.ValidateStruct(&c,
		validation.Field(&c.Name, validation.Required),
		validation.Field(&c.Members, validation.Required),
		validation.Field(&c.Regions, validation.Each(validation.By(validateRegion))),
		validation.Field(&c.Pools, validation.Each(validation.By(validatePool))),
	)
	if err != nil {
		return errors.FromOzzoValidation(err, "invalid cluster configuration")
	}

	ids := make(map[string]MemberConfig, len(c.Members))
	for _, m := range c.Members {
		if m.ID == "" {
			continue
		}
		if _, dup := ids[m.ID]; dup {
			return topologyError(fmt.Sprintf("member [%s] is declared twice", m.ID), "members")
		}
		ids[m.ID] = m
	}

	for _, p := range c.Pools {
		for _, s := range p.Servers {
			m, ok := ids[s]
			if !ok {
				return topologyError(fmt.Sprintf("pool [%s] references unknown member [%s]", p.Name, s), "pools")
			}
			if !m.Server {
				return topologyError(fmt.Sprintf("pool [%s] references member [%s], which is not a server", p.Name, s), "pools")
			}
		}
	}

	regions := make(map[string]struct{}, len(c.Regions))
	for _, r := range c.Regions {
		if _, dup := regions[r.Name]; dup {
			return topologyError(fmt.Sprintf("region [%s] is declared twice", r.Name), "regions")
		}
		regions[r.Name] = struct{}{}
	}
	return nil
}

func validateRegion(value any) error {
	r, _ := value.(RegionConfig)
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required),
		validation.Field(&r.Type, validation.In(Replicated, Partitioned)),
	)
}

func validatePool(value any) error {
	p, _ := value.(PoolConfig)
	return validation.ValidateStruct(&p,
		validation.Field(&p.Name, validation.Required),
	)
}

func topologyError(msg, field string) error {
	return errors.New(msg, errors.CategoryValidation).
		WithTextCode("INVALID_TOPOLOGY").
		WithMetadata(map[string]any{"field": field})
}
