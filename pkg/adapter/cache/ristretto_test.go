package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/damianoneill/user-service/pkg/domain/users"
)

func TestUserCache(t *testing.T) {
	c, err := New(0)
	require.NoError(t, err)
	defer c.Close()

	_, ok := c.Get(1)
	assert.False(t, ok)

	u := users.User{ID: 1, Username: "alice", Email: "alice@example.com", CreatedAt: time.Unix(0, 0).UTC()}
	c.Set(u)
	c.Wait()

	got, ok := c.Get(1)
	require.True(t, ok)
	assert.Equal(t, u, got)

	_, ok = c.Get(2)
	assert.False(t, ok)
}

func TestCost(t *testing.T) {
	assert.Equal(t, int64(32+3+5), cost(users.User{Username: "bob", Email: "b@x.y"}))
}
