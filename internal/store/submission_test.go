package store

import (
	"testing"

	"disasterdocs/internal/utils"
	"disasterdocs/pkg/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApprovedSubmissionsQuery(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		query, args, err := approvedSubmissionsQuery(types.SubmissionFilter{}).ToSql()
		require.NoError(t, err)

		assert.Contains(t, query, "FROM disasterdocs.submissions")
		assert.Contains(t, query, "WHERE approved = $1")
		assert.Contains(t, query, "ORDER BY created_at DESC, id ASC")
		assert.Contains(t, query, "LIMIT 24")
		assert.Contains(t, query, "OFFSET 0")
		assert.Equal(t, []any{true}, args)
	})

	t.Run("filters and paging", func(t *testing.T) {
		query, args, err := approvedSubmissionsQuery(types.SubmissionFilter{
			ArtifactType: types.ArtifactTypeVideo,
			DisasterType: types.DisasterTypeFlood,
			Tag:          " monsoon ",
			Search:       "50%_off",
			Sort:         types.SortOldest,
			Page:         3,
			Limit:        10,
		}).ToSql()
		require.NoError(t, err)

		assert.Contains(t, query, "approved = $1")
		assert.Contains(t, query, "artifact_type = $2")
		assert.Contains(t, query, "disaster_type = $3")
		assert.Contains(t, query, "$4 = ANY(tags)")
		assert.Contains(t, query, "(title ILIKE $5 OR description ILIKE $6 OR location_name ILIKE $7)")
		assert.Contains(t, query, "ORDER BY created_at ASC, id ASC")
		assert.Contains(t, query, "LIMIT 10")
		assert.Contains(t, query, "OFFSET 20")

		require.Len(t, args, 7)
		assert.Equal(t, "monsoon", args[3])
		assert.Equal(t, `%50\%\_off%`, args[4])
	})
}

func TestCountApprovedQuery(t *testing.T) {
	query, args, err := countApprovedQuery(types.SubmissionFilter{Tag: "flood", Page: 4, Limit: 5}).ToSql()
	require.NoError(t, err)

	assert.Equal(t, "SELECT count(*) FROM disasterdocs.submissions WHERE approved = $1 AND $2 = ANY(tags)", query)
	assert.Equal(t, []any{true, "flood"}, args)
}

func TestGeolocatedQuery(t *testing.T) {
	query, args, err := geolocatedQuery().ToSql()
	require.NoError(t, err)

	assert.Contains(t, query, "WHERE approved = $1 AND latitude IS NOT NULL AND longitude IS NOT NULL")
	assert.Contains(t, query, "ORDER BY created_at DESC")
	assert.Equal(t, []any{true}, args)
}

func TestApprovedByIDQuery(t *testing.T) {
	query, args, err := approvedByIDQuery("abc").ToSql()
	require.NoError(t, err)

	assert.Contains(t, query, "WHERE approved = $1 AND id = $2")
	assert.Contains(t, query, "LIMIT 1")
	assert.Equal(t, []any{true, "abc"}, args)
}

func TestMediaQueries(t *testing.T) {
	query, args, err := mediaQuery([]string{"a", "b"}).ToSql()
	require.NoError(t, err)

	assert.Contains(t, query, "FROM disasterdocs.submission_media WHERE submission_id IN ($1,$2)")
	assert.Contains(t, query, "ORDER BY submission_id ASC, position ASC")
	assert.Equal(t, []any{"a", "b"}, args)

	query, args, err = insertMediaQuery("sub1", []types.AssetDescriptor{
		{Reference: "image-aaa-jpg", MimeType: utils.StringPtr("image/jpeg")},
		{Reference: "file-bbb-pdf"},
	}).ToSql()
	require.NoError(t, err)

	assert.Equal(t,
		"INSERT INTO disasterdocs.submission_media (submission_id,position,reference,url,mime_type,original_filename,size_bytes) VALUES ($1,$2,$3,$4,$5,$6,$7),($8,$9,$10,$11,$12,$13,$14)",
		query,
	)
	require.Len(t, args, 14)
	assert.Equal(t, "sub1", args[0])
	assert.Equal(t, 0, args[1])
	assert.Equal(t, "image-aaa-jpg", args[2])
	assert.Equal(t, 1, args[8])
	assert.Equal(t, "file-bbb-pdf", args[9])
}

func TestBuildUpdateClause(t *testing.T) {
	clause := buildUpdateClause(map[string]any{"title": 1, "approved": 2})
	assert.Equal(t, "approved = EXCLUDED.approved, title = EXCLUDED.title", clause)
}

func TestSubmissionColumns(t *testing.T) {
	assert.NotContains(t, submissionColumns, "media")
	assert.Contains(t, submissionColumns, "latitude")
	assert.Equal(t, []string{"submission_id", "position", "reference", "url", "mime_type", "original_filename", "size_bytes"}, submissionMediaColumns)
}
