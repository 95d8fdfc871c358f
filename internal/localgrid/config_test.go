package localgrid

import (
	"testing"

	goerrors "github.com/goliatone/go-errors"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"test topology", func(c *Config) {}, false},
		{"missing name", func(c *Config) { c.Name = "" }, true},
		{"no members", func(c *Config) { c.Members = nil }, true},
		{"duplicate member", func(c *Config) { c.Members = append(c.Members, MemberConfig{ID: "server-1"}) }, true},
		{"pool references unknown member", func(c *Config) { c.Pools[0].Servers = []string{"ghost"} }, true},
		{"pool references client", func(c *Config) { c.Pools[0].Servers = []string{"client-1"} }, true},
		{"pool without name", func(c *Config) { c.Pools[0].Name = "" }, true},
		{"region without name", func(c *Config) { c.Regions[0].Name = "" }, true},
		{"unknown region type", func(c *Config) { c.Regions[0].Type = "sharded" }, true},
		{"duplicate region", func(c *Config) { c.Regions[1].Name = "Orders" }, true},
		{"blank region type is replicated", func(c *Config) { c.Regions[1].Type = "" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !goerrors.IsCategory(err, goerrors.CategoryValidation) {
				t.Errorf("expected validation category, got %v", err)
			}
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should be valid: %v", err)
	}

	c, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	pool, err := c.DefaultPool()
	if err != nil {
		t.Fatalf("DefaultPool() error = %v", err)
	}
	if pool.Name() != "default" || len(pool.Servers()) != 1 {
		t.Errorf("unexpected default pool %s %v", pool.Name(), pool.Servers())
	}
}
