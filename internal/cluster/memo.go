package cluster

import (
	"encoding/binary"
	"math"
	"sync"

	"disasterdocs/pkg/types"

	"github.com/zeebo/xxh3"
)

// Clusterer wraps Cluster with a memo of the last grouping. The memo is
// keyed on a fingerprint of the items and the precision tier, so zoom
// changes inside one tier reuse the previous partition. Only the partition
// is reused: members always come from the items of the current call.
type Clusterer struct {
	mu          sync.Mutex
	fingerprint uint64
	groups      []Group
	layout      [][]int
	valid       bool
}

func NewClusterer() *Clusterer {
	return &Clusterer{}
}

func (c *Clusterer) Cluster(items []*types.Submission, zoom float64) []Group {
	fp := fingerprint(items, PrecisionForZoom(zoom))

	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.valid || c.fingerprint != fp {
		c.groups, c.layout = cluster(items, zoom)
		c.fingerprint = fp
		c.valid = true
	}

	out := make([]Group, len(c.groups))
	for i, g := range c.groups {
		members := make([]*types.Submission, len(c.layout[i]))
		for j, pos := range c.layout[i] {
			members[j] = items[pos]
		}
		g.Members = members
		out[i] = g
	}

	return out
}

func fingerprint(items []*types.Submission, precision int) uint64 {
	h := xxh3.New()
	buf := make([]byte, 0, 64)

	buf = binary.LittleEndian.AppendUint64(buf, uint64(int64(precision)))
	_, _ = h.Write(buf)

	for _, item := range items {
		buf = buf[:0]
		buf = append(buf, item.ID...)
		buf = append(buf, 0)
		if loc, ok := item.Location(); ok {
			buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(loc.Lat))
			buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(loc.Lng))
		}
		if item.LocationName != nil {
			buf = append(buf, *item.LocationName...)
		}
		buf = append(buf, 0)
		_, _ = h.Write(buf)
	}

	return h.Sum64()
}
