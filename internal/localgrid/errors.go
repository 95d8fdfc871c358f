package localgrid

import (
	"github.com/goliatone/go-errors"

	"github.com/goliatone/go-datagrid/grid"
)

var (
	// ErrRegionNotFound is returned for regions the cluster does not host.
	ErrRegionNotFound = errors.New("region not found", errors.CategoryNotFound).
				WithTextCode("REGION_NOT_FOUND")
	// ErrPoolNotFound is returned for unknown pools.
	ErrPoolNotFound = errors.New("pool not found", errors.CategoryNotFound).
			WithTextCode("POOL_NOT_FOUND")
	// ErrMemberNotFound is returned for unknown member ids.
	ErrMemberNotFound = errors.New("member not found", errors.CategoryNotFound).
				WithTextCode("MEMBER_NOT_FOUND")
)

// detailed returns a copy of sentinel with msg and meta that still matches errors.Is(err, sentinel).
func detailed(sentinel *errors.Error, msg string, meta map[string]any) *errors.Error {
	err := errors.New(msg, sentinel.Category).
		WithTextCode(sentinel.TextCode).
		WithMetadata(meta)
	err.Source = sentinel
	return err
}

func noMembers(target string) *errors.Error {
	return detailed(grid.ErrNoMembers, "no members available for "+target, map[string]any{"target": target})
}
