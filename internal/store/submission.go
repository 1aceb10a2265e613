package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"disasterdocs/internal/utils"
	"disasterdocs/pkg/types"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"
)

const (
	submissionTableName      = "disasterdocs.submissions"
	submissionMediaTableName = "disasterdocs.submission_media"
)

var (
	submissionColumns      = utils.StructTagValues(types.Submission{})
	submissionMediaColumns = utils.StructTagValues(types.AssetDescriptor{})
)

const defaultPageSize uint64 = 24

type SubmissionRepository struct {
	pool *pgxpool.Pool
}

func NewSubmissionRepository(pool *pgxpool.Pool) *SubmissionRepository {
	return &SubmissionRepository{pool: pool}
}

// ApprovedSubmissions lists approved submissions matching filter, with
// their media attached in position order.
func (r *SubmissionRepository) ApprovedSubmissions(ctx context.Context, filter types.SubmissionFilter) ([]*types.Submission, error) {
	query, args, err := approvedSubmissionsQuery(filter).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate approved submissions query: %w", err)
	}

	submissions := make([]*types.Submission, 0)
	err = pgxscan.Select(ctx, r.pool, &submissions, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch approved submissions: %w", err)
	}

	return submissions, r.attachMedia(ctx, submissions)
}

// CountApproved counts approved submissions matching filter, ignoring paging.
func (r *SubmissionRepository) CountApproved(ctx context.Context, filter types.SubmissionFilter) (int, error) {
	query, args, err := countApprovedQuery(filter).ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to generate count query: %w", err)
	}

	var count int
	err = r.pool.QueryRow(ctx, query, args...).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count approved submissions: %w", err)
	}

	return count, nil
}

// GeolocatedSubmissions lists every approved submission that has both
// coordinates, newest first. Media is not attached.
func (r *SubmissionRepository) GeolocatedSubmissions(ctx context.Context) ([]*types.Submission, error) {
	query, args, err := geolocatedQuery().ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate geolocated submissions query: %w", err)
	}

	submissions := make([]*types.Submission, 0)
	err = pgxscan.Select(ctx, r.pool, &submissions, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch geolocated submissions: %w", err)
	}

	return submissions, nil
}

// ApprovedSubmission fetches one approved submission and its media.
// Unknown and unapproved ids both yield types.ErrSubmissionNotFound.
func (r *SubmissionRepository) ApprovedSubmission(ctx context.Context, id string) (*types.Submission, error) {
	query, args, err := approvedByIDQuery(id).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate submission query: %w", err)
	}

	var (
		submission = new(types.Submission)
		media      []types.AssetDescriptor
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return pgxscan.Get(gctx, r.pool, submission, query, args...)
	})
	g.Go(func() error {
		var err error
		media, err = r.mediaFor(gctx, []string{id})
		return err
	})

	err = g.Wait()
	if err != nil && pgxscan.NotFound(err) {
		return nil, types.ErrSubmissionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch submission %s: %w", id, err)
	}

	submission.Media = media
	if submission.Media == nil {
		submission.Media = make([]types.AssetDescriptor, 0)
	}

	return submission, nil
}

// CreateSubmission stores a new, unapproved submission with its media.
// Approval is granted out of band, so any Approved value on s is ignored.
func (r *SubmissionRepository) CreateSubmission(ctx context.Context, s *types.Submission) error {
	if s.ID == "" {
		s.ID = utils.NanoID()
	}
	s.Approved = false
	s.CreatedAt = time.Now()
	if s.Tags == nil {
		s.Tags = make([]string, 0)
	}

	query, args, err := psql().Insert(submissionTableName).SetMap(utils.StructToMap(s)).ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate insert submission query: %w", err)
	}

	return r.withTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, query, args...); err != nil {
			return fmt.Errorf("failed to insert submission: %w", err)
		}
		return insertMedia(ctx, tx, s.ID, s.Media)
	})
}

// UpsertSubmission writes s as given, replacing its media. Used by seeding.
func (r *SubmissionRepository) UpsertSubmission(ctx context.Context, s *types.Submission) error {
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now()
	}
	if s.Tags == nil {
		s.Tags = make([]string, 0)
	}

	submissionMap := utils.StructToMap(s)

	updateMap := make(map[string]any)
	for k, v := range submissionMap {
		if k != "id" && k != "created_at" {
			updateMap[k] = v
		}
	}

	query, args, err := psql().
		Insert(submissionTableName).
		SetMap(submissionMap).
		Suffix("ON CONFLICT (id) DO UPDATE SET " + buildUpdateClause(updateMap)).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate upsert submission query: %w", err)
	}

	deleteQuery, deleteArgs, err := psql().
		Delete(submissionMediaTableName).
		Where(sq.Eq{"submission_id": s.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate delete media query: %w", err)
	}

	return r.withTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, query, args...); err != nil {
			return fmt.Errorf("failed to upsert submission %s: %w", s.ID, err)
		}
		if _, err := tx.Exec(ctx, deleteQuery, deleteArgs...); err != nil {
			return fmt.Errorf("failed to clear media for submission %s: %w", s.ID, err)
		}
		return insertMedia(ctx, tx, s.ID, s.Media)
	})
}

func (r *SubmissionRepository) withTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(tx); err != nil {
		return err
	}

	return utils.ErrorWrapOrNil(tx.Commit(ctx), "failed to commit transaction")
}

func (r *SubmissionRepository) attachMedia(ctx context.Context, submissions []*types.Submission) error {
	if len(submissions) == 0 {
		return nil
	}

	ids := make([]string, 0, len(submissions))
	for _, s := range submissions {
		ids = append(ids, s.ID)
	}

	media, err := r.mediaFor(ctx, ids)
	if err != nil {
		return err
	}

	bySubmission := make(map[string][]types.AssetDescriptor, len(submissions))
	for _, m := range media {
		bySubmission[m.SubmissionID] = append(bySubmission[m.SubmissionID], m)
	}

	for _, s := range submissions {
		s.Media = bySubmission[s.ID]
		if s.Media == nil {
			s.Media = make([]types.AssetDescriptor, 0)
		}
	}

	return nil
}

func (r *SubmissionRepository) mediaFor(ctx context.Context, submissionIDs []string) ([]types.AssetDescriptor, error) {
	query, args, err := mediaQuery(submissionIDs).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate media query: %w", err)
	}

	var media []types.AssetDescriptor
	err = pgxscan.Select(ctx, r.pool, &media, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch media: %w", err)
	}

	return media, nil
}

func insertMedia(ctx context.Context, tx pgx.Tx, submissionID string, media []types.AssetDescriptor) error {
	if len(media) == 0 {
		return nil
	}

	query, args, err := insertMediaQuery(submissionID, media).ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate insert media query: %w", err)
	}

	_, err = tx.Exec(ctx, query, args...)
	return utils.ErrorWrapOrNil(err, "failed to insert submission media")
}

func approvedSubmissionsQuery(filter types.SubmissionFilter) sq.SelectBuilder {
	limit := filter.Limit
	if limit == 0 {
		limit = defaultPageSize
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}

	orderBy := "created_at DESC"
	if filter.Sort == types.SortOldest {
		orderBy = "created_at ASC"
	}

	return applyFilter(psql().Select(submissionColumns...).From(submissionTableName), filter).
		OrderBy(orderBy, "id ASC").
		Limit(limit).
		Offset(uint64(page-1) * limit)
}

func countApprovedQuery(filter types.SubmissionFilter) sq.SelectBuilder {
	return applyFilter(psql().Select("count(*)").From(submissionTableName), filter)
}

func applyFilter(b sq.SelectBuilder, filter types.SubmissionFilter) sq.SelectBuilder {
	b = b.Where(sq.Eq{"approved": true})

	if filter.ArtifactType != "" {
		b = b.Where(sq.Eq{"artifact_type": filter.ArtifactType})
	}

	if filter.DisasterType != "" {
		b = b.Where(sq.Eq{"disaster_type": filter.DisasterType})
	}

	if tag := strings.TrimSpace(filter.Tag); tag != "" {
		b = b.Where(sq.Expr("? = ANY(tags)", tag))
	}

	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := "%" + escapeLike(search) + "%"
		b = b.Where(sq.Or{
			sq.ILike{"title": pattern},
			sq.ILike{"description": pattern},
			sq.ILike{"location_name": pattern},
		})
	}

	return b
}

func geolocatedQuery() sq.SelectBuilder {
	return psql().
		Select(submissionColumns...).
		From(submissionTableName).
		Where(sq.Eq{"approved": true}).
		Where(sq.NotEq{"latitude": nil}).
		Where(sq.NotEq{"longitude": nil}).
		OrderBy("created_at DESC", "id ASC")
}

func approvedByIDQuery(id string) sq.SelectBuilder {
	return psql().
		Select(submissionColumns...).
		From(submissionTableName).
		Where(sq.Eq{"id": id, "approved": true}).
		Limit(1)
}

func mediaQuery(submissionIDs []string) sq.SelectBuilder {
	return psql().
		Select(submissionMediaColumns...).
		From(submissionMediaTableName).
		Where(sq.Eq{"submission_id": submissionIDs}).
		OrderBy("submission_id ASC", "position ASC")
}

func insertMediaQuery(submissionID string, media []types.AssetDescriptor) sq.InsertBuilder {
	b := psql().Insert(submissionMediaTableName).Columns(submissionMediaColumns...)
	for i, m := range media {
		b = b.Values(submissionID, i, m.Reference, m.URL, m.MimeType, m.OriginalFilename, m.SizeBytes)
	}
	return b
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
