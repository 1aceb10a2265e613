package seed

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"disasterdocs/internal/media"
	"disasterdocs/internal/utils"
	"disasterdocs/pkg/types"

	"gopkg.in/yaml.v3"
)

//go:embed submissions.yaml
var submissionsYAML []byte

type SubmissionUpserter interface {
	UpsertSubmission(ctx context.Context, s *types.Submission) error
}

type seedMedia struct {
	Reference string `yaml:"reference"`
	URL       string `yaml:"url"`
	MimeType  string `yaml:"mimeType"`
}

type seedSubmission struct {
	ID            string      `yaml:"id"`
	Title         string      `yaml:"title"`
	Description   string      `yaml:"description"`
	ArtifactType  string      `yaml:"artifactType"`
	DisasterType  string      `yaml:"disasterType"`
	LocationName  string      `yaml:"locationName"`
	Lat           *float64    `yaml:"lat"`
	Lng           *float64    `yaml:"lng"`
	EventDate     *time.Time  `yaml:"eventDate"`
	SubmitterName string      `yaml:"submitterName"`
	Contact       string      `yaml:"contact"`
	Tags          []string    `yaml:"tags"`
	Approved      bool        `yaml:"approved"`
	Media         []seedMedia `yaml:"media"`
}

// Submissions parses the embedded seed file into domain submissions.
func Submissions() ([]*types.Submission, error) {
	return parseSubmissions(submissionsYAML)
}

func parseSubmissions(data []byte) ([]*types.Submission, error) {
	var raw []seedSubmission
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse seed submissions: %w", err)
	}

	out := make([]*types.Submission, 0, len(raw))
	seen := make(map[string]bool, len(raw))

	for i, r := range raw {
		if r.ID == "" || r.Title == "" {
			return nil, fmt.Errorf("seed submission %d: id and title are required", i)
		}
		if seen[r.ID] {
			return nil, fmt.Errorf("seed submission %d: duplicate id %s", i, r.ID)
		}
		seen[r.ID] = true

		artifactType := types.ArtifactType(r.ArtifactType)
		if !artifactType.Valid() {
			return nil, fmt.Errorf("seed submission %s: unknown artifact type %q", r.ID, r.ArtifactType)
		}

		if (r.Lat == nil) != (r.Lng == nil) {
			return nil, fmt.Errorf("seed submission %s: lat and lng must be set together", r.ID)
		}

		s := &types.Submission{
			ID:            r.ID,
			Title:         r.Title,
			Description:   utils.NonBlankPtr(r.Description),
			ArtifactType:  artifactType,
			LocationName:  utils.NonBlankPtr(r.LocationName),
			Latitude:      r.Lat,
			Longitude:     r.Lng,
			EventDate:     r.EventDate,
			SubmitterName: utils.NonBlankPtr(r.SubmitterName),
			Contact:       utils.NonBlankPtr(r.Contact),
			Tags:          r.Tags,
			Approved:      r.Approved,
			Media:         make([]types.AssetDescriptor, 0, len(r.Media)),
		}
		if s.Tags == nil {
			s.Tags = make([]string, 0)
		}

		if r.DisasterType != "" {
			dt := types.DisasterType(r.DisasterType)
			if !dt.Valid() {
				return nil, fmt.Errorf("seed submission %s: unknown disaster type %q", r.ID, r.DisasterType)
			}
			s.DisasterType = &dt
		}

		for j, m := range r.Media {
			if _, ok := media.ParseReference(m.Reference); !ok && m.URL == "" {
				return nil, fmt.Errorf("seed submission %s: media %d has neither a valid reference nor a url", r.ID, j)
			}
			s.Media = append(s.Media, types.AssetDescriptor{
				SubmissionID: r.ID,
				Position:     j,
				Reference:    m.Reference,
				URL:          utils.NonBlankPtr(m.URL),
				MimeType:     utils.NonBlankPtr(m.MimeType),
			})
		}

		out = append(out, s)
	}

	return out, nil
}

// SeedSubmissions syncs the database with the embedded seed file. Rows are
// upserted by id, so running it again updates rather than duplicates.
func SeedSubmissions(ctx context.Context, repo SubmissionUpserter) error {
	submissions, err := Submissions()
	if err != nil {
		return err
	}

	for _, s := range submissions {
		if err := repo.UpsertSubmission(ctx, s); err != nil {
			return fmt.Errorf("failed to seed submission %s: %w", s.ID, err)
		}
	}

	return nil
}
