package ir

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnmarshalValue(t *testing.T) {
	v, err := UnmarshalValue([]byte(`{"count":3,"table":[[0,1,2]],"name":"x","ok":true}`))
	require.NoError(t, err)

	assert.Equal(t, Object{
		"count": Int(3),
		"table": Array{Array{Int(0), Int(1), Int(2)}},
		"name":  String("x"),
		"ok":    Bool(true),
	}, v)
}

func TestUnmarshalValueRejectsFloatAndNull(t *testing.T) {
	_, err := UnmarshalValue([]byte(`{"d":4.25}`))
	require.Error(t, err)

	_, err = UnmarshalValue([]byte(`null`))
	require.Error(t, err)
}

func TestObjectJSONRoundTrip(t *testing.T) {
	obj := Object{"value": String("10"), "count": Int(3)}

	data, err := json.Marshal(obj)
	require.NoError(t, err)
	assert.Equal(t, `{"count":3,"value":"10"}`, string(data))

	var back Object
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, obj, back)
}

func TestObjectUnmarshalRejectsNonObject(t *testing.T) {
	var obj Object
	require.Error(t, json.Unmarshal([]byte(`[1,2]`), &obj))
}

func TestSortedKeys(t *testing.T) {
	obj := Object{"seq": Int(1), "args": Object{}, "action_uri": String("x")}
	assert.Equal(t, []string{"action_uri", "args", "seq"}, obj.SortedKeys())
}

func TestToGo(t *testing.T) {
	v := Object{
		"table": Array{Int(1), Int(2)},
		"name":  String("a"),
		"ok":    Bool(false),
	}
	assert.Equal(t, map[string]any{
		"table": []any{int64(1), int64(2)},
		"name":  "a",
		"ok":    false,
	}, ToGo(v))
}

func TestFromGoRejectsUnsupported(t *testing.T) {
	_, err := FromGo(struct{}{})
	require.Error(t, err)

	_, err = FromGo(2.5)
	require.Error(t, err)
}
