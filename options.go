package xtree

import "github.com/lestrrat-go/option"

// ParseOption configures Parse. The zero value of a Parse call (no options)
// uses spec-defined defaults: DTDs allowed, no node limit, positions on.
type ParseOption = option.Interface

type identAllowDTD struct{}
type identNodesLimit struct{}
type identPositions struct{}

// WithAllowDTD controls whether encountering a <!DOCTYPE ...> is fatal.
// Default true; even when true, only ENTITY declarations inside the DTD
// affect parsing.
func WithAllowDTD(v bool) ParseOption {
	return option.New(identAllowDTD{}, v)
}

// WithNodesLimit caps the total number of nodes Parse will build before
// failing with a NodesLimitReached error. Zero (the default) means
// unbounded.
func WithNodesLimit(v int) ParseOption {
	return option.New(identNodesLimit{}, v)
}

// WithPositions controls whether byte positions are recorded on nodes and
// attributes. Default true; when disabled, positions are not recorded and
// Pos()/ValuePos() always return -1. The position fields stay in the node
// and attribute storage either way, so disabling it does not reduce memory.
func WithPositions(v bool) ParseOption {
	return option.New(identPositions{}, v)
}

type config struct {
	allowDTD   bool
	nodesLimit int
	positions  bool
}

func newConfig(opts ...ParseOption) *config {
	cfg := &config{
		allowDTD:   true,
		nodesLimit: 0,
		positions:  true,
	}
	for _, opt := range opts {
		switch opt.Ident() {
		case identAllowDTD{}:
			cfg.allowDTD = opt.Value().(bool)
		case identNodesLimit{}:
			cfg.nodesLimit = opt.Value().(int)
		case identPositions{}:
			cfg.positions = opt.Value().(bool)
		}
	}
	return cfg
}

func (c *config) nodeLimitReached(count int) bool {
	return c.nodesLimit > 0 && count > c.nodesLimit
}
