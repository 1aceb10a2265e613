package cluster

import "disasterdocs/pkg/types"

type Action int

const (
	// ActionDetail opens the single member's detail view.
	ActionDetail Action = iota
	// ActionZoomIn re-clusters at the next precision tier around the group.
	ActionZoomIn
	// ActionList shows every member; used once zooming cannot split further.
	ActionList
)

type Selection struct {
	Action       Action
	SubmissionID string
	Zoom         float64
	Center       types.GeoPoint
	Members      []*types.Submission
}

// Select resolves a click on the group with the given key. Every member
// stays reachable: a lone member opens directly, larger groups zoom in
// until the exact tier, where the members are listed.
func Select(groups []Group, key string, zoom float64) (Selection, bool) {
	for _, g := range groups {
		if g.Key != key {
			continue
		}

		if len(g.Members) == 1 {
			return Selection{
				Action:       ActionDetail,
				SubmissionID: g.Members[0].ID,
				Zoom:         zoom,
				Center:       g.Location,
				Members:      g.Members,
			}, true
		}

		if next, ok := NextZoom(zoom); ok {
			return Selection{
				Action:  ActionZoomIn,
				Zoom:    next,
				Center:  g.Location,
				Members: g.Members,
			}, true
		}

		return Selection{
			Action:  ActionList,
			Zoom:    zoom,
			Center:  g.Location,
			Members: g.Members,
		}, true
	}

	return Selection{}, false
}
