package server

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"unicode/utf8"

	"disasterdocs/internal/media"
	"disasterdocs/internal/utils"
	"disasterdocs/pkg/types"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const (
	excerptLength = 140

	fallbackTitle     = "Untitled"
	fallbackSubmitter = "Anonymous"
	fallbackLocation  = "Unknown"
)

func (s *Service) handleGallery(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var filter types.SubmissionFilter
	if err := decoder.Decode(&filter, r.URL.Query()); err != nil {
		s.logger.WithError(err).Debug("ignoring malformed gallery filter")
	}
	normalizeFilter(&filter)
	filter.Limit = s.config.GalleryPageSize

	data := &types.GalleryPageData{
		BasePageData:    types.BasePageData{Title: "Gallery"},
		Filter:          filter,
		ArtifactOptions: artifactOptions(filter.ArtifactType),
		DisasterOptions: disasterOptions(filter.DisasterType),
		Page:            filter.Page,
		Cards:           make([]*types.SubmissionCard, 0),
	}

	var (
		submissions []*types.Submission
		total       int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		submissions, err = s.submissions.ApprovedSubmissions(gctx, filter)
		return err
	})
	g.Go(func() error {
		var err error
		total, err = s.submissions.CountApproved(gctx, filter)
		return err
	})

	status := http.StatusOK
	if err := g.Wait(); err != nil {
		s.logger.WithError(err).Error("failed to load gallery submissions")
		data.Error = "We were unable to load submissions right now. Please try again shortly."
		status = http.StatusServiceUnavailable
	} else {
		data.Total = total
		for _, sub := range submissions {
			data.Cards = append(data.Cards, s.buildCard(sub))
		}
		data.PrevURL, data.NextURL = pageURLs(r.URL.Query(), filter.Page, int(filter.Limit), total)
	}

	if err := s.renderTemplate(w, r, status, "page.gallery", data); err != nil {
		s.logger.WithError(err).Error("failed to render gallery page")
		s.internalServerError(w)
	}
}

func (s *Service) handleSubmissionDetail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := r.PathValue("id")

	sub, err := s.submissions.ApprovedSubmission(ctx, id)
	if err != nil {
		if errors.Is(err, types.ErrSubmissionNotFound) {
			s.notFound(w, r)
			return
		}

		s.logger.WithError(err).WithField("submission_id", id).Error("failed to load submission")
		data := &types.BasePageData{
			Title: "Unavailable",
			Error: "This submission could not be loaded right now. Please try again shortly.",
		}
		if err := s.renderTemplate(w, r, http.StatusServiceUnavailable, "page.unavailable", data); err != nil {
			s.internalServerError(w)
		}
		return
	}

	inline, downloads := media.Split(s.resolver.ResolveAll(sub.Media, sub.ArtifactType))

	data := &types.SubmissionDetailPageData{
		BasePageData:  types.BasePageData{Title: orDefault(sub.Title, fallbackTitle)},
		ID:            sub.ID,
		Description:   utils.PtrString(sub.Description),
		ArtifactType:  string(sub.ArtifactType),
		DisasterLabel: disasterLabel(sub.DisasterType),
		LocationName:  orDefault(utils.PtrString(sub.LocationName), fallbackLocation),
		EventDate:     sub.EventDate,
		SubmitterName: orDefault(utils.PtrString(sub.SubmitterName), fallbackSubmitter),
		Contact:       utils.PtrString(sub.Contact),
		Tags:          sub.Tags,
		Inline:        renderMedia(inline),
		Downloads:     renderMedia(downloads),
		BackURL:       "/",
		BackLabel:     "Back to gallery",
	}

	if loc, ok := sub.Location(); ok {
		data.Location = &loc
	}

	if r.URL.Query().Get("from") == "map" {
		data.BackURL = "/map"
		data.BackLabel = "Back to map"
		if data.Location != nil {
			data.BackURL = mapURL(detailZoom, *data.Location)
		}
	}

	if err := s.renderTemplate(w, r, http.StatusOK, "page.submission", data); err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"submission_id": sub.ID,
		}).Error("failed to render submission page")
		s.internalServerError(w)
	}
}

func (s *Service) buildCard(sub *types.Submission) *types.SubmissionCard {
	card := &types.SubmissionCard{
		ID:            sub.ID,
		Title:         orDefault(sub.Title, fallbackTitle),
		Excerpt:       excerpt(utils.PtrString(sub.Description), excerptLength),
		ArtifactType:  sub.ArtifactType,
		DisasterLabel: disasterLabel(sub.DisasterType),
		LocationName:  orDefault(utils.PtrString(sub.LocationName), fallbackLocation),
		EventDate:     sub.EventDate,
		Tags:          sub.Tags,
	}

	if m, ok := s.cardResolver.First(sub.Media, sub.ArtifactType); ok {
		rendered := toRenderedMedia(m)
		card.Media = &rendered
	}

	return card
}

func renderMedia(ms []media.Media) []types.RenderedMedia {
	out := make([]types.RenderedMedia, 0, len(ms))
	for _, m := range ms {
		out = append(out, toRenderedMedia(m))
	}
	return out
}

func toRenderedMedia(m media.Media) types.RenderedMedia {
	rm := types.RenderedMedia{
		Kind:      m.Kind.String(),
		URL:       m.URL,
		Extension: strings.ToUpper(m.Extension),
	}
	if m.Kind == media.KindDownloadable {
		rm.Label = "Download File"
		if rm.Extension != "" {
			rm.Label = fmt.Sprintf("Download %s File", rm.Extension)
		}
	}
	return rm
}

func normalizeFilter(f *types.SubmissionFilter) {
	if !f.ArtifactType.Valid() {
		f.ArtifactType = ""
	}
	if !f.DisasterType.Valid() {
		f.DisasterType = ""
	}
	if f.Sort != types.SortOldest {
		f.Sort = types.SortNewest
	}
	if f.Page < 1 {
		f.Page = 1
	}
	f.Tag = strings.TrimSpace(f.Tag)
	f.Search = strings.TrimSpace(f.Search)
}

// pageURLs builds previous/next links that keep the active filters.
func pageURLs(query url.Values, page, limit, total int) (string, string) {
	var prev, next string

	build := func(p int) string {
		q := url.Values{}
		for k, v := range query {
			q[k] = v
		}
		q.Set("page", strconv.Itoa(p))
		return withQuery("/", q)
	}

	if page > 1 {
		prev = build(page - 1)
	}
	if limit > 0 && page*limit < total {
		next = build(page + 1)
	}

	return prev, next
}

func artifactOptions(selected types.ArtifactType) []types.FilterOption {
	out := make([]types.FilterOption, 0, len(types.ArtifactTypes))
	for _, t := range types.ArtifactTypes {
		out = append(out, types.FilterOption{
			Value:    string(t),
			Label:    strings.ToUpper(string(t)[:1]) + string(t)[1:],
			Selected: t == selected,
		})
	}
	return out
}

func disasterOptions(selected types.DisasterType) []types.FilterOption {
	out := make([]types.FilterOption, 0, len(types.DisasterTypes))
	for _, t := range types.DisasterTypes {
		out = append(out, types.FilterOption{
			Value:    string(t),
			Label:    t.Label(),
			Selected: t == selected,
		})
	}
	return out
}

func disasterLabel(d *types.DisasterType) string {
	if d == nil || *d == "" {
		return ""
	}
	return d.Label()
}

func orDefault(v, defaultVal string) string {
	if strings.TrimSpace(v) == "" {
		return defaultVal
	}
	return v
}

func excerpt(s string, limit int) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= limit {
		return s
	}

	runes := []rune(s)
	cut := strings.TrimRight(string(runes[:limit]), " \t\n")
	return cut + "…"
}
