package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCountArg(t *testing.T) {
	n, err := parseCountArg("3")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = parseCountArg("-2")
	require.NoError(t, err)
	assert.Equal(t, -2, n)

	for _, bad := range []string{"abc", "", "2x", "1.5", " 3"} {
		_, err := parseCountArg(bad)
		assert.Error(t, err, "input %q must be rejected", bad)
	}
}
