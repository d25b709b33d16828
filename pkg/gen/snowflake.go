package gen

import (
	"nearbyu-loyalty/pkg/config"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
)

var Module = fx.Module("snowflake",
	fx.Provide(
		NewSnowflakeNode,
		func(n *SnowflakeNode) IDGenerator { return n },
	),
)

// IDGenerator hands out unique, roughly time ordered ids.
type IDGenerator interface {
	NextID() string
}

type SnowflakeNode struct {
	node *snowflake.Node
}

// NewSnowflakeNode uses NODE_ID; every process writing to the same store
// needs its own node id.
func NewSnowflakeNode(cfg *config.Config) (*SnowflakeNode, error) {
	return NewNode(cfg.NodeID)
}

func NewNode(id int64) (*SnowflakeNode, error) {
	node, err := snowflake.NewNode(id)
	if err != nil {
		return nil, err
	}
	return &SnowflakeNode{node: node}, nil
}

func (s *SnowflakeNode) GenerateID() snowflake.ID {
	return s.node.Generate()
}

func (s *SnowflakeNode) NextID() string {
	return s.node.Generate().String()
}
