package database

import (
	"context"
	"database/sql"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/varoOP/anistream/internal/domain"
)

// SkipCacheRepo implements domain.SkipCacheRepo
type SkipCacheRepo struct {
	log zerolog.Logger
	db  *DB
}

func NewSkipCacheRepo(log zerolog.Logger, db *DB) domain.SkipCacheRepo {
	return &SkipCacheRepo{
		log: log.With().Str("repo", "skip_cache").Logger(),
		db:  db,
	}
}

// Get returns nil without error when nothing is cached for the episode.
func (r *SkipCacheRepo) Get(ctx context.Context, malID, episode int) (*domain.SkipCacheEntry, error) {
	queryBuilder := r.db.squirrel.
		Select("found", "op_start", "op_end", "ed_start", "ed_end", "cached_at").
		From("skip_cache").
		Where(sq.Eq{"mal_id": malID, "episode": episode})

	query, args, err := queryBuilder.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "error building query")
	}

	r.log.Trace().Str("query", query).Interface("args", args).Msg("Get")

	var (
		found                          bool
		opStart, opEnd, edStart, edEnd sql.NullFloat64
		cachedAt                       int64
	)

	r.db.lock.RLock()
	defer r.db.lock.RUnlock()

	err = r.db.handler.QueryRowContext(ctx, query, args...).Scan(&found, &opStart, &opEnd, &edStart, &edEnd, &cachedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "error executing query")
	}

	entry := &domain.SkipCacheEntry{
		MalID:    malID,
		Episode:  episode,
		Found:    found,
		CachedAt: time.Unix(cachedAt, 0),
	}

	if found {
		entry.Times = &domain.SkipTimes{
			Opening: interval(opStart, opEnd),
			Ending:  interval(edStart, edEnd),
		}
	}

	return entry, nil
}

func (r *SkipCacheRepo) Upsert(ctx context.Context, entry *domain.SkipCacheEntry) error {
	var opStart, opEnd, edStart, edEnd sql.NullFloat64
	if entry.Times != nil {
		opStart, opEnd = bounds(entry.Times.Opening)
		edStart, edEnd = bounds(entry.Times.Ending)
	}

	cachedAt := entry.CachedAt
	if cachedAt.IsZero() {
		cachedAt = time.Now()
	}

	queryBuilder := r.db.squirrel.
		Replace("skip_cache").
		Columns("mal_id", "episode", "found", "op_start", "op_end", "ed_start", "ed_end", "cached_at").
		Values(entry.MalID, entry.Episode, entry.Found, opStart, opEnd, edStart, edEnd, cachedAt.Unix())

	query, args, err := queryBuilder.ToSql()
	if err != nil {
		return errors.Wrap(err, "error building query")
	}

	r.log.Trace().Str("query", query).Interface("args", args).Msg("Upsert")

	r.db.lock.Lock()
	defer r.db.lock.Unlock()

	if _, err := r.db.handler.ExecContext(ctx, query, args...); err != nil {
		return errors.Wrap(err, "error executing query")
	}

	return nil
}

func interval(start, end sql.NullFloat64) *domain.Interval {
	if !start.Valid || !end.Valid {
		return nil
	}
	return &domain.Interval{Start: start.Float64, End: end.Float64}
}

func bounds(i *domain.Interval) (sql.NullFloat64, sql.NullFloat64) {
	if i == nil {
		return sql.NullFloat64{}, sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: i.Start, Valid: true}, sql.NullFloat64{Float64: i.End, Valid: true}
}
