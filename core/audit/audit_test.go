package audit

import (
	"context"
	"sync"
	"testing"

	"tablesync/core/engine"

	"github.com/stretchr/testify/assert"
)

type countingSink struct {
	mu sync.Mutex
	n  int
}

func (c *countingSink) Record(_ context.Context, _ *engine.RunResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.n++
}

func TestMulti_FansOutInOrder(t *testing.T) {
	a, b := &countingSink{}, &countingSink{}
	m := Multi{a, b}

	m.Record(context.Background(), &engine.RunResult{RunID: "abc12345"})

	assert.Equal(t, 1, a.n)
	assert.Equal(t, 1, b.n)
}

func TestClip(t *testing.T) {
	assert.Equal(t, "short", Clip("short", 100))
	assert.Equal(t, "short", Clip("short", 0), "non-positive limit disables clipping")

	clipped := Clip("abcdefghij", 4)
	assert.Contains(t, clipped, "abcd")
	assert.Contains(t, clipped, "(10c)")
}
