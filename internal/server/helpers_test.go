package server

import (
	"encoding/json"
	"io"
	"testing"
	"time"

	"disasterdocs/pkg/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeJSON(r io.Reader, v any) error {
	return json.NewDecoder(r).Decode(v)
}

func TestParseZoom(t *testing.T) {
	tests := []struct {
		raw  string
		want float64
	}{
		{"", 5},
		{"abc", 5},
		{"NaN", 5},
		{"+Inf", 5},
		{"7.5", 7.5},
		{"-3", 0},
		{"40", 22},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, parseZoom(tt.raw, 5), tt.raw)
	}
}

func TestParseLocation(t *testing.T) {
	got, err := parseLocation(" 31.5204 , 74.3587 ")
	require.NoError(t, err)
	assert.Equal(t, types.GeoPoint{Lat: 31.5204, Lng: 74.3587}, got)

	for _, raw := range []string{"31.5", "a,b", "91,0", "0,181", "1,2,3"} {
		_, err := parseLocation(raw)
		assert.Error(t, err, raw)
	}
}

func TestParseEventDate(t *testing.T) {
	got, err := parseEventDate("2025-08-14T09:30")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 8, 14, 9, 30, 0, 0, time.UTC), got)

	got, err = parseEventDate("2025-08-14")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 8, 14, 0, 0, 0, 0, time.UTC), got)

	_, err = parseEventDate("last tuesday")
	assert.Error(t, err)
}

func TestParseTags(t *testing.T) {
	assert.Equal(t, []string{"flood", "relief camp"}, parseTags(" Flood, relief camp ,, FLOOD"))
	assert.Empty(t, parseTags(""))
}

func TestBuildSubmission(t *testing.T) {
	sub, errs := buildSubmission(types.UploadForm{Title: "Ok", ArtifactType: "hologram", DisasterType: "meteor"})
	assert.Contains(t, errs, "artifactType")
	assert.Contains(t, errs, "disasterType")
	assert.Nil(t, sub.DisasterType)

	sub, errs = buildSubmission(types.UploadForm{Title: "Ok"})
	assert.Empty(t, errs)
	assert.Equal(t, types.ArtifactTypePhoto, sub.ArtifactType)
	assert.Nil(t, sub.Description)
	assert.Nil(t, sub.Latitude)
}

func TestPageURLs(t *testing.T) {
	q := map[string][]string{"tag": {"flood"}, "page": {"2"}}

	prev, next := pageURLs(q, 2, 10, 35)
	assert.Equal(t, "/?page=1&tag=flood", prev)
	assert.Equal(t, "/?page=3&tag=flood", next)

	prev, next = pageURLs(q, 1, 10, 10)
	assert.Empty(t, prev)
	assert.Empty(t, next)
}

func TestExcerpt(t *testing.T) {
	assert.Equal(t, "short", excerpt("  short ", 10))
	assert.Equal(t, "abcde…", excerpt("abcde fghij", 5))
}
