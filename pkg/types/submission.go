package types

import (
	"errors"
	"time"
)

var ErrSubmissionNotFound = errors.New("submission not found")

type ArtifactType string

const (
	ArtifactTypePhoto    ArtifactType = "photo"
	ArtifactTypeVideo    ArtifactType = "video"
	ArtifactTypeDocument ArtifactType = "document"
)

var ArtifactTypes = []ArtifactType{ArtifactTypePhoto, ArtifactTypeVideo, ArtifactTypeDocument}

func (a ArtifactType) Valid() bool {
	for _, t := range ArtifactTypes {
		if a == t {
			return true
		}
	}
	return false
}

type DisasterType string

const (
	DisasterTypeFlood            DisasterType = "flood"
	DisasterTypeEarthquake       DisasterType = "earthquake"
	DisasterTypeTornado          DisasterType = "tornado"
	DisasterTypeHurricaneTyphoon DisasterType = "hurricane_typhoon"
	DisasterTypeWildfire         DisasterType = "wildfire"
	DisasterTypeDustStorm        DisasterType = "dust_storm"
	DisasterTypeFreeze           DisasterType = "freeze"
	DisasterTypeSevereStorm      DisasterType = "severe_storm"
	DisasterTypeWinterStorm      DisasterType = "winter_storm"
)

var disasterTypeLabels = map[DisasterType]string{
	DisasterTypeFlood:            "Flood",
	DisasterTypeEarthquake:       "Earthquake",
	DisasterTypeTornado:          "Tornado",
	DisasterTypeHurricaneTyphoon: "Hurricane/Typhoon",
	DisasterTypeWildfire:         "Wildfire",
	DisasterTypeDustStorm:        "Dust Storm",
	DisasterTypeFreeze:           "Freeze",
	DisasterTypeSevereStorm:      "Severe Storm",
	DisasterTypeWinterStorm:      "Winter Storm",
}

// DisasterTypes is the display order used by forms and filters.
var DisasterTypes = []DisasterType{
	DisasterTypeFlood,
	DisasterTypeEarthquake,
	DisasterTypeTornado,
	DisasterTypeHurricaneTyphoon,
	DisasterTypeWildfire,
	DisasterTypeDustStorm,
	DisasterTypeFreeze,
	DisasterTypeSevereStorm,
	DisasterTypeWinterStorm,
}

func (d DisasterType) Valid() bool {
	_, ok := disasterTypeLabels[d]
	return ok
}

func (d DisasterType) Label() string {
	if label, ok := disasterTypeLabels[d]; ok {
		return label
	}
	return string(d)
}

type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// AssetDescriptor identifies a stored binary. Reference follows
// "<kind>-<hash>-<ext>"; URL, when set, is an already materialized
// location and wins over anything derived from Reference.
type AssetDescriptor struct {
	SubmissionID     string  `db:"submission_id" json:"-"`
	Position         int     `db:"position" json:"-"`
	Reference        string  `db:"reference" json:"reference"`
	URL              *string `db:"url" json:"url,omitempty"`
	MimeType         *string `db:"mime_type" json:"mimeType,omitempty"`
	OriginalFilename *string `db:"original_filename" json:"originalFilename,omitempty"`
	SizeBytes        *int64  `db:"size_bytes" json:"sizeBytes,omitempty"`
}

type Submission struct {
	ID            string        `db:"id"`
	Title         string        `db:"title"`
	Description   *string       `db:"description"`
	ArtifactType  ArtifactType  `db:"artifact_type"`
	DisasterType  *DisasterType `db:"disaster_type"`
	LocationName  *string       `db:"location_name"`
	Latitude      *float64      `db:"latitude"`
	Longitude     *float64      `db:"longitude"`
	EventDate     *time.Time    `db:"event_date"`
	SubmitterName *string       `db:"submitter_name"`
	Contact       *string       `db:"contact"`
	Tags          []string      `db:"tags"`
	Approved      bool          `db:"approved"`
	CreatedAt     time.Time     `db:"created_at"`

	Media []AssetDescriptor `db:"-"`
}

// Location reports the submission's coordinates. Both halves must be
// present for the submission to count as geolocated.
func (s *Submission) Location() (GeoPoint, bool) {
	if s == nil || s.Latitude == nil || s.Longitude == nil {
		return GeoPoint{}, false
	}
	return GeoPoint{Lat: *s.Latitude, Lng: *s.Longitude}, true
}

// SubmissionFilter narrows gallery listings. Zero values mean "any".
type SubmissionFilter struct {
	ArtifactType ArtifactType `form:"type"`
	DisasterType DisasterType `form:"disaster"`
	Tag          string       `form:"tag"`
	Search       string       `form:"q"`
	Sort         string       `form:"sort"`
	Page         int          `form:"page"`
	Limit        uint64       `form:"-"`
}

const (
	SortNewest = "newest"
	SortOldest = "oldest"
)
