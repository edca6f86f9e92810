package optional

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type patchBody struct {
	Name   Field[string]  `json:"name"`
	SireID Field[int64]   `json:"sire"`
	Weight Field[float64] `json:"weight"`
}

func TestField_DistinguishesAbsentNullAndValue(t *testing.T) {
	var p patchBody
	require.NoError(t, json.Unmarshal([]byte(`{"name":"Milo","sire":null}`), &p))

	assert.True(t, p.Name.Set)
	require.NotNil(t, p.Name.Value)
	assert.Equal(t, "Milo", *p.Name.Value)

	assert.True(t, p.SireID.Set)
	assert.Nil(t, p.SireID.Value)

	assert.False(t, p.Weight.Set)
}

func TestField_Apply(t *testing.T) {
	cur := int64(5)
	dst := &cur

	Field[int64]{}.Apply(&dst)
	require.NotNil(t, dst)
	assert.Equal(t, int64(5), *dst)

	Null[int64]().Apply(&dst)
	assert.Nil(t, dst)

	Some[int64](9).Apply(&dst)
	require.NotNil(t, dst)
	assert.Equal(t, int64(9), *dst)
}

func TestField_RejectsWrongType(t *testing.T) {
	var p patchBody
	err := json.Unmarshal([]byte(`{"sire":"abc"}`), &p)
	assert.Error(t, err)
}
