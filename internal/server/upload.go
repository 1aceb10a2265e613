package server

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"disasterdocs/internal/storage"
	"disasterdocs/internal/utils"
	"disasterdocs/pkg/types"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const (
	uploadFileField    = "files"
	maxTitleLength     = 200
	maxConcurrentPuts  = 4
	multipartMemoryCap = 32 << 20

	uploadReceivedNotice = "Thank you! Your submission was received and will appear once it has been reviewed."
)

var eventDateLayouts = []string{
	"2006-01-02T15:04",
	time.RFC3339,
	"2006-01-02",
}

func (s *Service) handleGetUpload(w http.ResponseWriter, r *http.Request) {
	data := s.uploadPageData(types.UploadForm{ArtifactType: string(types.ArtifactTypePhoto)}, nil)
	if err := s.renderTemplate(w, r, http.StatusOK, "page.upload", data); err != nil {
		s.logger.WithError(err).Error("failed to render upload page")
		s.internalServerError(w)
	}
}

func (s *Service) handlePostUpload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxUploadMB<<20)
	if err := r.ParseMultipartForm(multipartMemoryCap); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.renderUploadError(w, r, http.StatusRequestEntityTooLarge, types.UploadForm{}, nil,
				fmt.Sprintf("Uploads are limited to %d MB in total.", s.config.MaxUploadMB))
			return
		}

		s.logger.WithError(err).Debug("failed to parse upload form")
		s.renderUploadError(w, r, http.StatusBadRequest, types.UploadForm{}, nil, "We could not read the submitted form.")
		return
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()

	var form types.UploadForm
	if err := decoder.Decode(&form, r.MultipartForm.Value); err != nil {
		s.logger.WithError(err).Debug("failed to decode upload form")
		s.renderUploadError(w, r, http.StatusBadRequest, form, nil, "We could not read the submitted form.")
		return
	}

	sub, fieldErrors := buildSubmission(form)

	files := r.MultipartForm.File[uploadFileField]
	if len(files) == 0 {
		fieldErrors[uploadFileField] = "Attach at least one photo, video, or document."
	}

	if len(fieldErrors) > 0 {
		s.renderUploadError(w, r, http.StatusUnprocessableEntity, form, fieldErrors, "Please fix the highlighted fields.")
		return
	}

	descriptors, err := s.storeUploads(ctx, files)
	if err != nil {
		s.logger.WithError(err).Error("failed to store uploaded files")
		s.renderUploadError(w, r, http.StatusBadGateway, form, nil, "We could not store your files. Please try again.")
		return
	}
	sub.Media = descriptors

	if err := s.submissions.CreateSubmission(ctx, sub); err != nil {
		s.logger.WithError(err).Error("failed to create submission")
		s.discardUploads(context.WithoutCancel(ctx), descriptors)
		s.renderUploadError(w, r, http.StatusInternalServerError, form, nil, "We could not save your submission. Please try again.")
		return
	}

	s.logger.WithFields(logrus.Fields{
		"submission_id": sub.ID,
		"files":         len(descriptors),
	}).Info("submission received")

	s.setFlash(w, uploadReceivedNotice)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// storeUploads writes every file to asset storage, keeping form order. If
// any put fails the ones that succeeded are removed again.
func (s *Service) storeUploads(ctx context.Context, files []*multipart.FileHeader) ([]types.AssetDescriptor, error) {
	descriptors := make([]types.AssetDescriptor, len(files))
	stored := make([]bool, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentPuts)

	for i, fh := range files {
		g.Go(func() error {
			f, err := fh.Open()
			if err != nil {
				return fmt.Errorf("open %s: %w", fh.Filename, err)
			}
			defer f.Close()

			d, err := s.assets.Store(gctx, storage.Upload{
				Filename:    fh.Filename,
				ContentType: fh.Header.Get("Content-Type"),
				Size:        fh.Size,
				Body:        f,
			})
			if err != nil {
				return fmt.Errorf("store %s: %w", fh.Filename, err)
			}

			d.Position = i
			descriptors[i] = d
			stored[i] = true
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		kept := make([]types.AssetDescriptor, 0, len(files))
		for i, ok := range stored {
			if ok {
				kept = append(kept, descriptors[i])
			}
		}
		s.discardUploads(context.WithoutCancel(ctx), kept)
		return nil, err
	}

	return descriptors, nil
}

func (s *Service) discardUploads(ctx context.Context, descriptors []types.AssetDescriptor) {
	for _, d := range descriptors {
		if err := s.assets.Delete(ctx, d.Reference); err != nil {
			s.logger.WithError(err).WithField("reference", d.Reference).Warn("failed to remove orphaned asset")
		}
	}
}

func (s *Service) renderUploadError(w http.ResponseWriter, r *http.Request, status int, form types.UploadForm, fieldErrors map[string]string, msg string) {
	data := s.uploadPageData(form, fieldErrors)
	data.Error = msg
	if err := s.renderTemplate(w, r, status, "page.upload", data); err != nil {
		s.logger.WithError(err).Error("failed to render upload page")
		s.internalServerError(w)
	}
}

func (s *Service) uploadPageData(form types.UploadForm, fieldErrors map[string]string) *types.UploadPageData {
	if fieldErrors == nil {
		fieldErrors = map[string]string{}
	}
	return &types.UploadPageData{
		BasePageData:    types.BasePageData{Title: "Share Documentation"},
		Form:            form,
		FieldErrors:     fieldErrors,
		ArtifactOptions: artifactOptions(types.ArtifactType(form.ArtifactType)),
		DisasterOptions: disasterOptions(types.DisasterType(form.DisasterType)),
		MaxUploadMB:     s.config.MaxUploadMB,
	}
}

// buildSubmission validates the text fields of an upload. The returned map
// is keyed by form field name and is empty when the form is valid.
func buildSubmission(form types.UploadForm) (*types.Submission, map[string]string) {
	errs := map[string]string{}
	sub := &types.Submission{}

	sub.Title = strings.TrimSpace(form.Title)
	switch {
	case sub.Title == "":
		errs["title"] = "Title is required."
	case utf8.RuneCountInString(sub.Title) > maxTitleLength:
		errs["title"] = fmt.Sprintf("Title must be %d characters or fewer.", maxTitleLength)
	}

	sub.ArtifactType = types.ArtifactType(strings.TrimSpace(form.ArtifactType))
	if sub.ArtifactType == "" {
		sub.ArtifactType = types.ArtifactTypePhoto
	}
	if !sub.ArtifactType.Valid() {
		errs["artifactType"] = "Choose a photo, video, or document."
	}

	if v := strings.TrimSpace(form.DisasterType); v != "" {
		dt := types.DisasterType(v)
		if !dt.Valid() {
			errs["disasterType"] = "Choose a disaster type from the list."
		} else {
			sub.DisasterType = &dt
		}
	}

	if v := strings.TrimSpace(form.Location); v != "" {
		loc, err := parseLocation(v)
		if err != nil {
			errs["location"] = "Location must look like \"31.5204, 74.3587\"."
		} else {
			sub.Latitude = utils.Float64Ptr(loc.Lat)
			sub.Longitude = utils.Float64Ptr(loc.Lng)
		}
	}

	if v := strings.TrimSpace(form.EventDate); v != "" {
		t, err := parseEventDate(v)
		if err != nil {
			errs["eventDate"] = "Event date is not a valid date."
		} else {
			sub.EventDate = &t
		}
	}

	sub.Description = utils.NonBlankPtr(form.Description)
	sub.LocationName = utils.NonBlankPtr(form.LocationName)
	sub.SubmitterName = utils.NonBlankPtr(form.SubmitterName)
	sub.Contact = utils.NonBlankPtr(form.Contact)
	sub.Tags = parseTags(form.Tags)

	return sub, errs
}

// parseLocation reads "lat,lng" in decimal degrees.
func parseLocation(raw string) (types.GeoPoint, error) {
	parts := strings.Split(raw, ",")
	if len(parts) != 2 {
		return types.GeoPoint{}, fmt.Errorf("expected lat,lng, got %q", raw)
	}

	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return types.GeoPoint{}, fmt.Errorf("invalid latitude: %w", err)
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return types.GeoPoint{}, fmt.Errorf("invalid longitude: %w", err)
	}

	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return types.GeoPoint{}, fmt.Errorf("coordinates out of range: %v,%v", lat, lng)
	}

	return types.GeoPoint{Lat: lat, Lng: lng}, nil
}

func parseEventDate(raw string) (time.Time, error) {
	for _, layout := range eventDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", raw)
}

// parseTags splits comma separated tags, lowercasing and dropping blanks
// and duplicates.
func parseTags(raw string) []string {
	tags := make([]string, 0)
	seen := make(map[string]bool)
	for _, part := range strings.Split(raw, ",") {
		tag := strings.ToLower(strings.TrimSpace(part))
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		tags = append(tags, tag)
	}
	return tags
}
