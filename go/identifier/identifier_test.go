package identifier

import (
	"encoding/json"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rmmh/blockbridge/go/nbt"
)

func TestStateValueEquality(t *testing.T) {
	require.Equal(t, Int(3), Int(3))
	require.NotEqual(t, Int(1), Bool(true))
	require.NotEqual(t, Enum("1"), Int(1))

	m := map[StateValue]string{Int(1): "int", Bool(true): "bool", Enum("x"): "enum"}
	require.Equal(t, "int", m[Int(1)])
	require.Equal(t, "bool", m[Bool(true)])
	require.Equal(t, "enum", m[Enum("x")])
}

func TestStateValueCompare(t *testing.T) {
	vals := []StateValue{Enum("b"), Bool(true), Int(5), Enum("a"), Int(-2), Bool(false)}
	sort.Slice(vals, func(i, j int) bool { return vals[i].Compare(vals[j]) < 0 })
	require.Equal(t, []StateValue{Int(-2), Int(5), Bool(false), Bool(true), Enum("a"), Enum("b")}, vals)
}

func TestFromAny(t *testing.T) {
	for _, tc := range []struct {
		in       any
		expected StateValue
	}{
		{true, Bool(true)},
		{"north", Enum("north")},
		{7, Int(7)},
		{int64(-3), Int(-3)},
		{float64(15), Int(15)},
	} {
		v, err := FromAny(tc.in)
		require.NoError(t, err)
		require.Equal(t, tc.expected, v, "FromAny(%#v)", tc.in)
		if _, isFloat := tc.in.(float64); !isFloat {
			again, err := FromAny(v.Any())
			require.NoError(t, err)
			require.Equal(t, v, again)
		}
	}
	_, err := FromAny(1.5)
	require.Error(t, err)
	_, err = FromAny([]int{1})
	require.Error(t, err)
}

func TestTagConversion(t *testing.T) {
	for _, tc := range []struct {
		tag      nbt.Tag
		expected StateValue
		back     nbt.Tag
	}{
		{nbt.Tag{Type: nbt.TagByte, Value: int8(1)}, Bool(true), nbt.Tag{Type: nbt.TagByte, Value: int8(1)}},
		{nbt.Tag{Type: nbt.TagByte, Value: int8(0)}, Bool(false), nbt.Tag{Type: nbt.TagByte, Value: int8(0)}},
		// out of range legacy values survive as ints, written back as TAG_Int
		{nbt.Tag{Type: nbt.TagByte, Value: int8(9)}, Int(9), nbt.Tag{Type: nbt.TagInt, Value: int32(9)}},
		{nbt.Tag{Type: nbt.TagShort, Value: int16(300)}, Int(300), nbt.Tag{Type: nbt.TagInt, Value: int32(300)}},
		{nbt.Tag{Type: nbt.TagInt, Value: int32(-70000)}, Int(-70000), nbt.Tag{Type: nbt.TagInt, Value: int32(-70000)}},
		{nbt.Tag{Type: nbt.TagString, Value: "top"}, Enum("top"), nbt.Tag{Type: nbt.TagString, Value: "top"}},
	} {
		v, err := FromTag(tc.tag)
		require.NoError(t, err)
		require.Equal(t, tc.expected, v, "FromTag(%v)", tc.tag)
		require.Equal(t, tc.back, v.ToTag())
	}
	_, err := FromTag(nbt.Tag{Type: nbt.TagLong, Value: int64(1)})
	require.Error(t, err)

	// the source width is not kept, so both spellings find the same map entry
	fromByte, err := FromTag(nbt.Tag{Type: nbt.TagByte, Value: int8(9)})
	require.NoError(t, err)
	fromInt, err := FromTag(nbt.Tag{Type: nbt.TagInt, Value: int32(9)})
	require.NoError(t, err)
	require.Equal(t, "found", map[StateValue]string{fromInt: "found"}[fromByte])
}

func TestStateValueJSON(t *testing.T) {
	in := map[string]StateValue{"a": Int(3), "b": Bool(false), "c": Enum("up")}
	b, err := json.Marshal(in)
	require.NoError(t, err)
	require.JSONEq(t, `{"a":3,"b":false,"c":"up"}`, string(b))
	var out map[string]StateValue
	require.NoError(t, json.Unmarshal(b, &out))
	require.Equal(t, in, out)
	require.Error(t, json.Unmarshal([]byte(`{"a":[1]}`), &out))
}

func TestIdentifierEqualAndKey(t *testing.T) {
	a := New("minecraft:oak_log").WithStates(map[string]StateValue{"axis": Enum("x"), "age": Int(1)})
	b := New("minecraft:oak_log").With("age", Int(1)).With("axis", Enum("x"))
	c := a.With("axis", Enum("y"))

	require.True(t, a.Equal(b))
	require.Equal(t, a.Key(), b.Key())
	require.False(t, a.Equal(c))
	require.NotEqual(t, a.Key(), c.Key())
	require.Equal(t, 0, a.Compare(b))
	require.Less(t, a.Compare(c), 0)
	// With does not mutate the receiver
	require.Equal(t, Enum("x"), a.States["axis"])

	// "1" as an enum differs from 1 as an int
	require.NotEqual(t, New("x").With("v", Int(1)).Key(), New("x").With("v", Enum("1")).Key())
}

func TestIdentifierCompareOrdering(t *testing.T) {
	ids := []Identifier{
		MustParse("minecraft:stone[data=1]"),
		MustParse("minecraft:dirt"),
		MustParse("minecraft:stone"),
		MustParse("minecraft:stone[data=0]"),
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].Compare(ids[j]) < 0 })
	var got []string
	for _, id := range ids {
		got = append(got, id.String())
	}
	require.Equal(t, []string{"minecraft:dirt", "minecraft:stone", "minecraft:stone[data=0]", "minecraft:stone[data=1]"}, got)
}

func TestParseString(t *testing.T) {
	for _, tc := range []struct {
		in       string
		expected Identifier
	}{
		{"minecraft:stone", New("minecraft:stone")},
		{"minecraft:stone[]", New("minecraft:stone")},
		{"minecraft:oak_log[axis=y]", New("minecraft:oak_log").With("axis", Enum("y"))},
		{"minecraft:wheat[age=7,lit=true]", New("minecraft:wheat").With("age", Int(7)).With("lit", Bool(true))},
	} {
		id, err := ParseString(tc.in)
		require.NoError(t, err, tc.in)
		require.True(t, tc.expected.Equal(id), "ParseString(%q) = %v", tc.in, id)
	}
	for _, bad := range []string{"", "[a=1]", "x[a=1", "x[a]", "x[a=1,a=2]"} {
		_, err := ParseString(bad)
		require.Error(t, err, "ParseString(%q)", bad)
	}

	id := New("minecraft:wheat").With("age", Int(7)).With("lit", Bool(true))
	again, err := ParseString(id.String())
	require.NoError(t, err)
	require.True(t, id.Equal(again))
}

func TestNamespace(t *testing.T) {
	assert.Equal(t, "minecraft", New("minecraft:stone").Namespace())
	assert.Equal(t, "stone", New("minecraft:stone").Path())
	assert.Equal(t, "", New("stone").Namespace())
	assert.True(t, New("stone").IsVanilla(VanillaNamespace))
	assert.True(t, New("minecraft:stone").IsVanilla(VanillaNamespace))
	assert.False(t, New("mymod:ore").IsVanilla(VanillaNamespace))
}

func TestDataValue(t *testing.T) {
	id := FromData("minecraft:wool", 14)
	require.Equal(t, int32(14), id.DataValue())
	require.Equal(t, int32(0), New("minecraft:wool").DataValue())
	require.Equal(t, "minecraft:wool[data=14]", id.String())
}
