package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEncodeVector(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "[]", encodeVector(nil))
	assert.Equal(t, "[1]", encodeVector([]float32{1}))
	assert.Equal(t, "[0.5,-0.25,3]", encodeVector([]float32{0.5, -0.25, 3}))
}

func TestJSONListNeverNull(t *testing.T) {
	t.Parallel()
	b, err := jsonList(nil)
	assert.NoError(t, err)
	assert.Equal(t, "[]", string(b))

	b, err = jsonList([]string{"go", "sql"})
	assert.NoError(t, err)
	assert.Equal(t, `["go","sql"]`, string(b))
}
