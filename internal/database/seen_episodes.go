package database

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
	"github.com/varoOP/anistream/internal/domain"
)

// SeenEpisodeRepo implements domain.SeenEpisodeRepo
type SeenEpisodeRepo struct {
	log zerolog.Logger
	db  *DB
}

func NewSeenEpisodeRepo(log zerolog.Logger, db *DB) domain.SeenEpisodeRepo {
	return &SeenEpisodeRepo{
		log: log.With().Str("repo", "seen_episodes").Logger(),
		db:  db,
	}
}

func (r *SeenEpisodeRepo) Count(ctx context.Context) (int, error) {
	query, args, err := r.db.squirrel.Select("COUNT(*)").From("seen_episodes").ToSql()
	if err != nil {
		return 0, errors.Wrap(err, "error building query")
	}

	r.db.lock.RLock()
	defer r.db.lock.RUnlock()

	var count int
	if err := r.db.handler.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, errors.Wrap(err, "error executing query")
	}

	return count, nil
}

// FilterUnseen returns the keys not recorded yet, in input order.
func (r *SeenEpisodeRepo) FilterUnseen(ctx context.Context, keys []domain.EpisodeKey) ([]domain.EpisodeKey, error) {
	if len(keys) == 0 {
		return []domain.EpisodeKey{}, nil
	}

	slugs := lo.Uniq(lo.Map(keys, func(k domain.EpisodeKey, _ int) string { return k.Slug }))

	queryBuilder := r.db.squirrel.
		Select("slug", "season", "episode").
		From("seen_episodes").
		Where(sq.Eq{"slug": slugs})

	query, args, err := queryBuilder.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "error building query")
	}

	r.log.Trace().Str("query", query).Interface("args", args).Msg("FilterUnseen")

	r.db.lock.RLock()
	defer r.db.lock.RUnlock()

	rows, err := r.db.handler.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "error executing query")
	}
	defer rows.Close()

	seen := make(map[domain.EpisodeKey]struct{})
	for rows.Next() {
		var k domain.EpisodeKey
		if err := rows.Scan(&k.Slug, &k.Season, &k.Episode); err != nil {
			return nil, errors.Wrap(err, "error scanning row")
		}
		seen[k] = struct{}{}
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "error iterating rows")
	}

	return lo.Filter(lo.Uniq(keys), func(k domain.EpisodeKey, _ int) bool {
		_, ok := seen[k]
		return !ok
	}), nil
}

// MarkSeen records keys in one transaction. With notified set, the
// notification time is stamped as well; an existing stamp is never cleared.
func (r *SeenEpisodeRepo) MarkSeen(ctx context.Context, keys []domain.EpisodeKey, notified bool) error {
	if len(keys) == 0 {
		return nil
	}

	now := time.Now().Unix()
	var notifiedAt any
	if notified {
		notifiedAt = now
	}

	queryBuilder := r.db.squirrel.
		Insert("seen_episodes").
		Columns("slug", "season", "episode", "created_at", "notified_at").
		Suffix("ON CONFLICT (slug, season, episode) DO UPDATE SET notified_at = COALESCE(excluded.notified_at, seen_episodes.notified_at)")

	for _, k := range lo.Uniq(keys) {
		queryBuilder = queryBuilder.Values(k.Slug, k.Season, k.Episode, now, notifiedAt)
	}

	query, args, err := queryBuilder.ToSql()
	if err != nil {
		return errors.Wrap(err, "error building query")
	}

	r.log.Trace().Str("query", query).Int("count", len(keys)).Msg("MarkSeen")

	r.db.lock.Lock()
	defer r.db.lock.Unlock()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return errors.Wrap(err, "error executing query")
	}

	return errors.Wrap(tx.Commit(), "error committing transaction")
}
