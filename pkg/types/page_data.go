package types

import "time"

type NoticeSetter interface {
	SetNotice(notice string)
}

type BasePageData struct {
	Title  string
	Notice string
	Error  string
}

func (d *BasePageData) SetNotice(notice string) {
	if notice != "" {
		d.Notice = notice
	}
}

// RenderedMedia is a resolved asset as the templates consume it.
type RenderedMedia struct {
	Kind      string
	URL       string
	Extension string
	Label     string
}

type SubmissionCard struct {
	ID            string
	Title         string
	Excerpt       string
	ArtifactType  ArtifactType
	DisasterLabel string
	LocationName  string
	EventDate     *time.Time
	Tags          []string
	Media         *RenderedMedia
}

type FilterOption struct {
	Value    string
	Label    string
	Selected bool
}

type GalleryPageData struct {
	BasePageData
	Cards           []*SubmissionCard
	Filter          SubmissionFilter
	ArtifactOptions []FilterOption
	DisasterOptions []FilterOption
	Total           int
	Page            int
	PrevURL         string
	NextURL         string
}

type SubmissionDetailPageData struct {
	BasePageData
	ID            string
	Description   string
	ArtifactType  string
	DisasterLabel string
	LocationName  string
	EventDate     *time.Time
	SubmitterName string
	Contact       string
	Tags          []string
	Location      *GeoPoint
	Inline        []RenderedMedia
	Downloads     []RenderedMedia
	BackURL       string
	BackLabel     string
}

type MarkerMember struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Href  string `json:"url"`
}

// ClusterMarker is one map marker as sent to the browser.
type ClusterMarker struct {
	Key          string         `json:"key"`
	Lat          float64        `json:"lat"`
	Lng          float64        `json:"lng"`
	LocationName string         `json:"locationName"`
	Count        int            `json:"count"`
	Href         string         `json:"href"`
	Members      []MarkerMember `json:"members"`
}

type ClustersResponse struct {
	Zoom      float64         `json:"zoom"`
	Precision int             `json:"precision"`
	Groups    []ClusterMarker `json:"groups"`
}

type MapPageData struct {
	BasePageData
	CenterLat float64
	CenterLng float64
	Zoom      float64
	Clusters  ClustersResponse
}

type MapGroupPageData struct {
	BasePageData
	LocationName string
	Location     GeoPoint
	Zoom         float64
	Members      []MarkerMember
}

type UploadForm struct {
	Title         string `form:"title"`
	Description   string `form:"description"`
	ArtifactType  string `form:"artifactType"`
	DisasterType  string `form:"disasterType"`
	LocationName  string `form:"locationName"`
	Location      string `form:"location"`
	EventDate     string `form:"eventDate"`
	SubmitterName string `form:"submitterName"`
	Contact       string `form:"contact"`
	Tags          string `form:"tags"`
}

type UploadPageData struct {
	BasePageData
	Form            UploadForm
	FieldErrors     map[string]string
	ArtifactOptions []FilterOption
	DisasterOptions []FilterOption
	MaxUploadMB     int64
}
