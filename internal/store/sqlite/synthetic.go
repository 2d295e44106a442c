package sqlite

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	"github.com/listenupapp/shelfmark/internal/store"
)

// InsertSyntheticActivity writes generated ratings, to-read flags and reviews in one
// transaction. Pairs that already have a row are left untouched, and only rows
// actually inserted are counted.
func (s *Store) InsertSyntheticActivity(ctx context.Context, batch []store.SyntheticActivity) (store.SyntheticCounts, error) {
	var counts store.SyntheticCounts
	ts := now()

	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		counts = store.SyntheticCounts{}
		for _, a := range batch {
			if a.Rating > 0 {
				n, err := execCount(ctx, tx, `
					INSERT INTO ratings (user_id, book_id, rating, created_at, updated_at)
					VALUES (?, ?, ?, ?, ?) ON CONFLICT DO NOTHING`, a.UserID, a.BookID, a.Rating, ts, ts)
				if err != nil {
					return err
				}
				counts.Ratings += n
			}
			if a.ToRead {
				n, err := execCount(ctx, tx, `
					INSERT INTO to_read (user_id, book_id, created_at)
					VALUES (?, ?, ?) ON CONFLICT DO NOTHING`, a.UserID, a.BookID, ts)
				if err != nil {
					return err
				}
				counts.ToRead += n
			}
			if a.Review != "" {
				n, err := execCount(ctx, tx, `
					INSERT INTO reviews (user_id, book_id, body, created_at, updated_at)
					VALUES (?, ?, ?, ?, ?) ON CONFLICT DO NOTHING`, a.UserID, a.BookID, a.Review, ts, ts)
				if err != nil {
					return err
				}
				counts.Reviews += n
			}
		}
		return nil
	})
	if err != nil {
		return store.SyntheticCounts{}, err
	}
	return counts, nil
}

func execCount(ctx context.Context, tx *sqlx.Tx, query string, args ...any) (int, error) {
	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return affected(res)
}

func affected(res sql.Result) (int, error) {
	n, err := res.RowsAffected()
	return int(n), err
}
