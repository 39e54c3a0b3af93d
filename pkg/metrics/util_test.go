package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestItoa(t *testing.T) {
	assert.Equal(t, "0", itoa(0))
	assert.Equal(t, "42", itoa(42))
}

func TestToBytes(t *testing.T) {
	n, err := toBytes("1gi")
	require.NoError(t, err)
	assert.EqualValues(t, 1024*1024*1024, n)
}

func TestKeyIsOrderIndependent(t *testing.T) {
	a := labelSet{"host": "h1", "eid": "e1"}
	b := labelSet{"eid": "e1", "host": "h1"}
	assert.Equal(t, key(a), key(b))
}

func TestKeyDiffersOnValue(t *testing.T) {
	a := labelSet{"host": "h1"}
	b := labelSet{"host": "h2"}
	assert.NotEqual(t, key(a), key(b))
}
