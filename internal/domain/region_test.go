package domain

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegionMap_MarshalJSON_Order(t *testing.T) {
	m := NewRegionMap()
	m.Set("서울특별시", GridCoordinate{NX: 60, NY: 127})
	m.Set("부산광역시", GridCoordinate{NX: 98, NY: 76})
	m.Set("대구광역시 달서구 도원동", GridCoordinate{NX: 88, NY: 89})

	data, err := json.Marshal(m)
	require.NoError(t, err)

	assert.Equal(t,
		`{"서울특별시":{"nx":60,"ny":127},"부산광역시":{"nx":98,"ny":76},"대구광역시 달서구 도원동":{"nx":88,"ny":89}}`,
		string(data))
}

func TestRegionMap_MarshalJSON_NoHTMLEscaping(t *testing.T) {
	m := NewRegionMap()
	m.Set(`A&B <C> "D"`, GridCoordinate{NX: 1, NY: 2})

	data, err := m.MarshalJSON()
	require.NoError(t, err)

	assert.Equal(t, `{"A&B <C> \"D\"":{"nx":1,"ny":2}}`, string(data))
}

func TestRegionMap_MarshalJSON_Empty(t *testing.T) {
	data, err := json.Marshal(NewRegionMap())
	require.NoError(t, err)
	assert.Equal(t, `{}`, string(data))
}

func TestRegionMap_UnmarshalJSON_KeepsDocumentOrder(t *testing.T) {
	doc := `{
  "울산광역시": {"nx": 102, "ny": 84},
  "광주광역시": {"nx": 58, "ny": 74},
  "인천광역시": {"nx": 55, "ny": 124}
}`

	var m RegionMap
	require.NoError(t, json.Unmarshal([]byte(doc), &m))

	assert.Equal(t, []string{"울산광역시", "광주광역시", "인천광역시"}, m.Keys())
	c, ok := m.Get("광주광역시")
	require.True(t, ok)
	assert.Equal(t, GridCoordinate{NX: 58, NY: 74}, c)
}

func TestRegionMap_UnmarshalJSON_RejectsNonObject(t *testing.T) {
	var m RegionMap
	assert.Error(t, json.Unmarshal([]byte(`[1,2]`), &m))
	assert.Error(t, json.Unmarshal([]byte(`{"a": "b"}`), &m))
}

func TestRegionMap_RoundTrip(t *testing.T) {
	m := NewRegionMap()
	m.Set("서울 중구", GridCoordinate{NX: 999, NY: 888})
	m.Set("부산 해운대구 우동", GridCoordinate{NX: 55, NY: 77})
	m.Set("서울 중구", GridCoordinate{NX: 1, NY: 2})

	data, err := json.Marshal(m)
	require.NoError(t, err)

	got := NewRegionMap()
	require.NoError(t, json.Unmarshal(data, got))

	if diff := cmp.Diff(m.Entries(), got.Entries()); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestRegionMap_ZeroValueUsable(t *testing.T) {
	var m RegionMap
	assert.False(t, m.Set("a", GridCoordinate{NX: 1, NY: 1}))
	assert.True(t, m.Set("a", GridCoordinate{NX: 2, NY: 2}))
	assert.Equal(t, 1, m.Len())
}

func TestRegionMap_KeysReturnsCopy(t *testing.T) {
	m := NewRegionMap()
	m.Set("a", GridCoordinate{})
	keys := m.Keys()
	keys[0] = "mutated"
	assert.Equal(t, []string{"a"}, m.Keys())
}
