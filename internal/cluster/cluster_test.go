package cluster

import (
	"testing"

	"disasterdocs/internal/utils"
	"disasterdocs/pkg/types"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func located(id string, lat, lng float64, name string) *types.Submission {
	s := &types.Submission{
		ID:        id,
		Latitude:  utils.Float64Ptr(lat),
		Longitude: utils.Float64Ptr(lng),
	}
	if name != "" {
		s.LocationName = utils.StringPtr(name)
	}
	return s
}

func memberIDs(g Group) []string {
	ids := make([]string, 0, len(g.Members))
	for _, m := range g.Members {
		ids = append(ids, m.ID)
	}
	return ids
}

func TestPrecisionForZoom(t *testing.T) {
	tests := []struct {
		zoom     float64
		expected int
	}{
		{zoom: -1, expected: 1},
		{zoom: 0, expected: 1},
		{zoom: 5, expected: 1},
		{zoom: 5.99, expected: 1},
		{zoom: 6, expected: 2},
		{zoom: 7, expected: 2},
		{zoom: 8, expected: 3},
		{zoom: 9, expected: 3},
		{zoom: 10, expected: 4},
		{zoom: 10.5, expected: 4},
		{zoom: 11, expected: ExactPrecision},
		{zoom: 18, expected: ExactPrecision},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, PrecisionForZoom(tt.zoom), "zoom %v", tt.zoom)
	}
}

func TestNextZoom(t *testing.T) {
	next, ok := NextZoom(5)
	require.True(t, ok)
	assert.Equal(t, float64(6), next)

	next, ok = NextZoom(9)
	require.True(t, ok)
	assert.Equal(t, float64(10), next)

	next, ok = NextZoom(10)
	require.True(t, ok)
	assert.Equal(t, float64(11), next)

	_, ok = NextZoom(11)
	assert.False(t, ok)
}

func TestCluster_Empty(t *testing.T) {
	groups := Cluster(nil, 5)
	require.NotNil(t, groups)
	assert.Empty(t, groups)

	groups = Cluster([]*types.Submission{}, 14)
	assert.Empty(t, groups)
}

func TestCluster_CoarsensAsZoomDecreases(t *testing.T) {
	items := []*types.Submission{
		located("a", 31.50, 74.30, "Lahore"),
		located("b", 31.53, 74.29, "Lahore Cantt"),
	}

	coarse := Cluster(items, 5)
	require.Len(t, coarse, 1)
	assert.Equal(t, "31.5,74.3", coarse[0].Key)
	assert.Equal(t, types.GeoPoint{Lat: 31.5, Lng: 74.3}, coarse[0].Location)
	assert.Equal(t, "Lahore", coarse[0].LocationName)
	assert.Equal(t, []string{"a", "b"}, memberIDs(coarse[0]))

	fine := Cluster(items, 9)
	require.Len(t, fine, 2)
	assert.Equal(t, "31.500,74.300", fine[0].Key)
	assert.Equal(t, "31.530,74.290", fine[1].Key)
	assert.LessOrEqual(t, len(coarse), len(fine))
}

func TestCluster_ExactTier(t *testing.T) {
	items := []*types.Submission{
		located("a", 31.50, 74.30, ""),
		located("b", 31.50, 74.30, ""),
		located("c", 31.500001, 74.30, ""),
	}

	groups := Cluster(items, 12)
	require.Len(t, groups, 2)
	assert.Equal(t, []string{"a", "b"}, memberIDs(groups[0]))
	assert.Equal(t, "31.5,74.3", groups[0].Key)
	assert.Equal(t, []string{"c"}, memberIDs(groups[1]))
}

func TestCluster_Partition(t *testing.T) {
	items := []*types.Submission{
		located("a", 31.5204, 74.3587, "Lahore"),
		located("b", 24.8607, 67.0011, "Karachi"),
		located("c", 31.5497, 74.3436, "Lahore"),
		located("d", 33.6844, 73.0479, "Islamabad"),
		located("e", 24.8615, 67.0099, "Karachi"),
		located("f", 33.6844, 73.0479, "Islamabad"),
	}

	for _, zoom := range []float64{3, 6, 8, 10, 11, 16} {
		groups := Cluster(items, zoom)

		seen := make(map[string]int)
		for _, g := range groups {
			require.NotEmpty(t, g.Members)
			for _, m := range g.Members {
				seen[m.ID]++
			}
		}

		require.Len(t, seen, len(items), "zoom %v", zoom)
		for id, count := range seen {
			assert.Equal(t, 1, count, "zoom %v id %s", zoom, id)
		}
	}
}

func TestCluster_GroupsInFirstSeenOrder(t *testing.T) {
	items := []*types.Submission{
		located("k1", 24.86, 67.00, "Karachi"),
		located("l1", 31.52, 74.33, "Lahore"),
		located("k2", 24.87, 67.01, "Karachi Port"),
	}

	got := Cluster(items, 4)
	want := []Group{
		{Key: "24.9,67.0", Location: types.GeoPoint{Lat: 24.9, Lng: 67.0}, LocationName: "Karachi", Members: []*types.Submission{items[0], items[2]}},
		{Key: "31.5,74.3", Location: types.GeoPoint{Lat: 31.5, Lng: 74.3}, LocationName: "Lahore", Members: []*types.Submission{items[1]}},
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Cluster() mismatch (-want +got):\n%s", diff)
	}
}

func TestCluster_NegativeZeroFolds(t *testing.T) {
	items := []*types.Submission{
		located("a", -0.01, 10.0, ""),
		located("b", 0.01, 10.0, ""),
	}

	groups := Cluster(items, 5)
	require.Len(t, groups, 1)
	assert.Equal(t, "0.0,10.0", groups[0].Key)
}

func TestCluster_SkipsUnlocated(t *testing.T) {
	items := []*types.Submission{
		{ID: "nowhere"},
		{ID: "half", Latitude: utils.Float64Ptr(1)},
		located("a", 1, 1, ""),
	}

	assert.Len(t, Geolocated(items), 1)

	groups := Cluster(items, 5)
	require.Len(t, groups, 1)
	assert.Equal(t, []string{"a"}, memberIDs(groups[0]))
}

func TestClusterer_Memo(t *testing.T) {
	c := NewClusterer()
	items := []*types.Submission{
		located("a", 31.50, 74.30, ""),
		located("b", 31.53, 74.29, ""),
	}

	first := c.Cluster(items, 5)
	require.Len(t, first, 1)

	// Same tier, same items: memoized partition.
	again := c.Cluster(items, 5.5)
	assert.Equal(t, first, again)

	// New tier recomputes.
	fine := c.Cluster(items, 9)
	assert.Len(t, fine, 2)

	// Changed items recompute even within the cached tier.
	moved := []*types.Submission{located("a", 31.50, 74.30, ""), located("b", 40.0, 74.29, "")}
	assert.Len(t, c.Cluster(moved, 9), 2)
	assert.Len(t, c.Cluster(moved, 5), 2)
}

func TestClusterer_MemoUsesCurrentItems(t *testing.T) {
	c := NewClusterer()

	before := located("a", 31.5, 74.3, "Lahore")
	before.Title = "Old title"
	first := c.Cluster([]*types.Submission{before}, 5)
	require.Len(t, first, 1)

	after := located("a", 31.5, 74.3, "Lahore")
	after.Title = "New title"
	second := c.Cluster([]*types.Submission{after}, 5)
	require.Len(t, second, 1)
	require.Len(t, second[0].Members, 1)

	assert.Same(t, after, second[0].Members[0])
	assert.Equal(t, "New title", second[0].Members[0].Title)
	assert.Equal(t, first[0].Key, second[0].Key)

	// Earlier results are not rewritten by later calls.
	assert.Same(t, before, first[0].Members[0])
}
