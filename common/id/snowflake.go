package id

import (
	"fmt"
	"strconv"
	"sync"

	"github.com/bwmarrin/snowflake"
)

var (
	node *snowflake.Node
	once sync.Once
)

// Node IDs per binary so runs created concurrently by the CLI, server and worker never collide.
const (
	NodeCLI    int64 = 1
	NodeServer int64 = 2
	NodeWorker int64 = 3
	NodeMCP    int64 = 4
)

// Init initializes the Snowflake node with the given node ID.
func Init(nodeID int64) error {
	var err error
	once.Do(func() {
		node, err = snowflake.NewNode(nodeID)
	})
	return err
}

// New returns a time-ordered run ID. Init must have been called.
func New() int64 {
	return node.Generate().Int64()
}

// Parse reads an ID as it appears in URLs and stream messages.
func Parse(s string) (int64, error) {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return v, nil
}
