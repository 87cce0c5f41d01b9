package buildops

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestContext_ResultUnsetByDefault(t *testing.T) {
	c := &Context{}

	v, ok := c.Result()
	require.Nil(t, v)
	require.False(t, ok)
}

func TestContext_SetResult(t *testing.T) {
	c := &Context{}
	c.SetResult(42)

	v, ok := c.Result()
	require.True(t, ok)
	require.Equal(t, 42, v)
}

func TestContext_Failed(t *testing.T) {
	c := &Context{}
	require.NoError(t, c.Failure())

	err := errors.New("boom")
	c.Failed(err)
	require.Equal(t, err, c.Failure())
}
