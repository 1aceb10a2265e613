package server

import (
	"math"
	"net/http"
	"net/url"
	"strconv"

	"disasterdocs/internal/cluster"
	"disasterdocs/internal/utils"
	"disasterdocs/pkg/types"

	"github.com/sirupsen/logrus"
)

const (
	minZoom = 0
	maxZoom = 22

	// detailZoom is used when returning from a detail view to the map.
	detailZoom = 12
)

func (s *Service) handleMap(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	zoom := parseZoom(r.URL.Query().Get("zoom"), s.config.MapDefaultZoom)

	center := types.GeoPoint{Lat: s.config.MapCenterLat, Lng: s.config.MapCenterLng}
	if p, ok := parseCenter(r.URL.Query()); ok {
		center = p
	}

	data := &types.MapPageData{
		BasePageData: types.BasePageData{Title: "Map"},
		CenterLat:    center.Lat,
		CenterLng:    center.Lng,
		Zoom:         zoom,
		Clusters:     clustersResponse(nil, zoom),
	}

	status := http.StatusOK
	items, err := s.submissions.GeolocatedSubmissions(ctx)
	if err != nil {
		s.logger.WithError(err).Error("failed to load geolocated submissions")
		data.Error = "Map markers are unavailable right now. Please try again shortly."
		status = http.StatusServiceUnavailable
	} else {
		data.Clusters = clustersResponse(s.clusterer.Cluster(items, zoom), zoom)
	}

	if err := s.renderTemplate(w, r, status, "page.map", data); err != nil {
		s.logger.WithError(err).Error("failed to render map page")
		s.internalServerError(w)
	}
}

func (s *Service) handleClusters(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	zoom := parseZoom(r.URL.Query().Get("zoom"), s.config.MapDefaultZoom)

	items, err := s.submissions.GeolocatedSubmissions(ctx)
	if err != nil {
		s.logger.WithError(err).Error("failed to load geolocated submissions")
		s.writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "map markers are unavailable",
		})
		return
	}

	s.writeJSON(w, http.StatusOK, clustersResponse(s.clusterer.Cluster(items, zoom), zoom))
}

// handleSelectGroup resolves a marker click. Groupings are recomputed for
// the requested zoom so the key is interpreted at the precision it was
// issued for.
func (s *Service) handleSelectGroup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	key := r.PathValue("key")
	zoom := parseZoom(r.URL.Query().Get("zoom"), s.config.MapDefaultZoom)

	items, err := s.submissions.GeolocatedSubmissions(ctx)
	if err != nil {
		s.logger.WithError(err).Error("failed to load geolocated submissions")
		s.internalServerError(w)
		return
	}

	sel, ok := cluster.Select(s.clusterer.Cluster(items, zoom), key, zoom)
	if !ok {
		s.notFound(w, r)
		return
	}

	s.logger.WithFields(logrus.Fields{
		"key":     key,
		"zoom":    zoom,
		"members": len(sel.Members),
	}).Debug("map group selected")

	switch sel.Action {
	case cluster.ActionDetail:
		http.Redirect(w, r, detailURL(sel.SubmissionID, true), http.StatusSeeOther)
	case cluster.ActionZoomIn:
		http.Redirect(w, r, mapURL(sel.Zoom, sel.Center), http.StatusSeeOther)
	default:
		data := &types.MapGroupPageData{
			BasePageData: types.BasePageData{Title: "Submissions at this location"},
			Location:     sel.Center,
			Zoom:         sel.Zoom,
			Members:      markerMembers(sel.Members),
		}
		if len(sel.Members) > 0 {
			data.LocationName = orDefault(utils.PtrString(sel.Members[0].LocationName), fallbackLocation)
		}

		if err := s.renderTemplate(w, r, http.StatusOK, "page.map.group", data); err != nil {
			s.logger.WithError(err).Error("failed to render map group page")
			s.internalServerError(w)
		}
	}
}

func clustersResponse(groups []cluster.Group, zoom float64) types.ClustersResponse {
	resp := types.ClustersResponse{
		Zoom:      zoom,
		Precision: cluster.PrecisionForZoom(zoom),
		Groups:    make([]types.ClusterMarker, 0, len(groups)),
	}

	for _, g := range groups {
		resp.Groups = append(resp.Groups, types.ClusterMarker{
			Key:          g.Key,
			Lat:          g.Location.Lat,
			Lng:          g.Location.Lng,
			LocationName: orDefault(g.LocationName, fallbackLocation),
			Count:        len(g.Members),
			Href:         groupURL(g.Key, zoom),
			Members:      markerMembers(g.Members),
		})
	}

	return resp
}

func markerMembers(items []*types.Submission) []types.MarkerMember {
	out := make([]types.MarkerMember, 0, len(items))
	for _, item := range items {
		out = append(out, types.MarkerMember{
			ID:    item.ID,
			Title: orDefault(item.Title, fallbackTitle),
			Href:  detailURL(item.ID, true),
		})
	}
	return out
}

// parseZoom reads a zoom level, falling back to def for missing or
// non-finite input and clamping to the tile range.
func parseZoom(raw string, def float64) float64 {
	zoom, err := strconv.ParseFloat(raw, 64)
	if raw == "" || err != nil || math.IsNaN(zoom) || math.IsInf(zoom, 0) {
		zoom = def
	}
	return math.Min(math.Max(zoom, minZoom), maxZoom)
}

func parseCenter(q url.Values) (types.GeoPoint, bool) {
	lat, err := strconv.ParseFloat(q.Get("lat"), 64)
	if err != nil || lat < -90 || lat > 90 {
		return types.GeoPoint{}, false
	}
	lng, err := strconv.ParseFloat(q.Get("lng"), 64)
	if err != nil || lng < -180 || lng > 180 {
		return types.GeoPoint{}, false
	}
	return types.GeoPoint{Lat: lat, Lng: lng}, true
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func mapURL(zoom float64, center types.GeoPoint) string {
	q := url.Values{}
	q.Set("zoom", formatFloat(zoom))
	q.Set("lat", formatFloat(center.Lat))
	q.Set("lng", formatFloat(center.Lng))
	return withQuery("/map", q)
}

// groupURL embeds the key unescaped; keys only hold digits, signs, dots
// and a comma.
func groupURL(key string, zoom float64) string {
	q := url.Values{}
	q.Set("zoom", formatFloat(zoom))
	return withQuery("/map/groups/"+key, q)
}

func detailURL(id string, fromMap bool) string {
	path := "/submissions/" + url.PathEscape(id)
	if fromMap {
		return path + "?from=map"
	}
	return path
}
