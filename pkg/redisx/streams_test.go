package redisx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStringifyStreamValues(t *testing.T) {
	values, err := stringifyStreamValues(map[string]interface{}{
		"str":   "hello",
		"bytes": []byte("raw"),
		"int":   42,
		"i32":   int32(7),
		"i64":   int64(1700000000000),
		"f64":   72.5,
		"yes":   true,
		"no":    false,
		"obj":   map[string]int{"a": 1},
	})
	require.NoError(t, err)

	assert.Equal(t, "hello", values["str"])
	assert.Equal(t, "raw", values["bytes"])
	assert.Equal(t, "42", values["int"])
	assert.Equal(t, "7", values["i32"])
	assert.Equal(t, "1700000000000", values["i64"])
	assert.Equal(t, "72.500000", values["f64"])
	assert.Equal(t, "true", values["yes"])
	assert.Equal(t, "false", values["no"])
	assert.Equal(t, `{"a":1}`, values["obj"])
}

func TestStringifyStreamValues_UnmarshalableValue(t *testing.T) {
	_, err := stringifyStreamValues(map[string]interface{}{
		"bad": func() {},
	})
	assert.Error(t, err)
}
