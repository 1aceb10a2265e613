// Package cluster groups geolocated submissions into map markers at a
// coordinate precision derived from the current zoom level.
//
// Groupings are rebuilt from scratch for every (items, zoom) pair. A merge
// made at a coarse precision has no defined inverse split, so nothing is
// carried over between calls except the optional memo in Clusterer.
package cluster

import (
	"strconv"
	"strings"

	"disasterdocs/internal/utils"
	"disasterdocs/pkg/types"
)

// ExactPrecision groups only identical coordinates.
const ExactPrecision = -1

// tierStarts are the zoom levels at which the precision steps up.
var tierStarts = []float64{6, 8, 10, 11}

// PrecisionForZoom maps a zoom level to the number of decimal places
// coordinates are rounded to before grouping.
func PrecisionForZoom(zoom float64) int {
	switch {
	case zoom < 6:
		return 1
	case zoom < 8:
		return 2
	case zoom < 10:
		return 3
	case zoom < 11:
		return 4
	default:
		return ExactPrecision
	}
}

// NextZoom returns the lowest zoom of the next finer precision tier. It
// returns false when zoom is already in the exact tier.
func NextZoom(zoom float64) (float64, bool) {
	for _, start := range tierStarts {
		if zoom < start {
			return start, true
		}
	}
	return 0, false
}

// Group is one map marker. Members keep input order and are never empty.
type Group struct {
	Key          string
	Location     types.GeoPoint
	LocationName string
	Members      []*types.Submission
}

// Geolocated filters out submissions without a complete coordinate pair.
func Geolocated(items []*types.Submission) []*types.Submission {
	out := make([]*types.Submission, 0, len(items))
	for _, item := range items {
		if _, ok := item.Location(); ok {
			out = append(out, item)
		}
	}
	return out
}

// Cluster partitions items into groups keyed by their rounded coordinates.
// Groups come back in order of first appearance. Items without a location
// are skipped; callers are expected to have filtered them with Geolocated.
func Cluster(items []*types.Submission, zoom float64) []Group {
	groups, _ := cluster(items, zoom)
	return groups
}

// cluster also returns, per group, the positions in items of its members.
func cluster(items []*types.Submission, zoom float64) ([]Group, [][]int) {
	precision := PrecisionForZoom(zoom)

	groups := make([]Group, 0)
	layout := make([][]int, 0)
	index := make(map[string]int)

	for pos, item := range items {
		loc, ok := item.Location()
		if !ok {
			continue
		}

		lat := formatCoordinate(loc.Lat, precision)
		lng := formatCoordinate(loc.Lng, precision)
		key := lat + "," + lng

		if i, ok := index[key]; ok {
			groups[i].Members = append(groups[i].Members, item)
			layout[i] = append(layout[i], pos)
			continue
		}

		index[key] = len(groups)
		groups = append(groups, Group{
			Key:          key,
			Location:     types.GeoPoint{Lat: parseCoordinate(lat), Lng: parseCoordinate(lng)},
			LocationName: utils.PtrString(item.LocationName),
			Members:      []*types.Submission{item},
		})
		layout = append(layout, []int{pos})
	}

	return groups, layout
}

// formatCoordinate renders v with a fixed number of decimals using the
// locale independent 'f' format. Negative zero is folded into zero so
// points either side of the equator or meridian share a key.
func formatCoordinate(v float64, precision int) string {
	s := strconv.FormatFloat(v, 'f', precision, 64)
	if strings.HasPrefix(s, "-") && strings.Trim(s[1:], "0.") == "" {
		s = s[1:]
	}
	return s
}

func parseCoordinate(s string) float64 {
	v, _ := strconv.ParseFloat(s, 64)
	return v
}
