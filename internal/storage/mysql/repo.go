package mysql

import (
	"context"
	"crypto/sha1"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"transparent_roi/internal/domain"
)

func valJSON(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}

type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

func (r *Repo) SaveSnapshot(ctx context.Context, s domain.Snapshot) error {
	filters, err := json.Marshal(s.Filters)
	if err != nil {
		return fmt.Errorf("marshal filters: %w", err)
	}
	var listings []byte
	if len(s.Listings) > 0 {
		if listings, err = json.Marshal(s.Listings); err != nil {
			return fmt.Errorf("marshal listings: %w", err)
		}
	}
	_, err = r.db.ExecContext(ctx, insertSnapshotSQL,
		s.ID,
		s.Kind,
		s.Filters.Latitude,
		s.Filters.Longitude,
		s.Filters.RadiusMeters,
		string(filters),
		s.AverageDailyRate,
		s.OccupancyRate,
		valJSON(listings),
		s.CreatedAt.UTC(),
	)
	return err
}

func (r *Repo) LogMiss(ctx context.Context, m domain.Miss) error {
	filters, err := json.Marshal(m.Filters)
	if err != nil {
		return fmt.Errorf("marshal filters: %w", err)
	}
	sum := sha1.Sum(filters)
	_, err = r.db.ExecContext(ctx, insertMissSQL, hex.EncodeToString(sum[:]), m.Kind, string(filters), m.Reason)
	return err
}

func (r *Repo) ListSnapshots(ctx context.Context, q domain.SnapshotsQuery) ([]domain.Snapshot, error) {
	rows, err := r.db.QueryContext(ctx, listSnapshotsSQL, q.Kind, q.Kind, q.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Snapshot
	for rows.Next() {
		var (
			s                 domain.Snapshot
			filters, listings sql.RawBytes
			createdAt         time.Time
		)
		if err := rows.Scan(&s.ID, &s.Kind, &filters, &s.AverageDailyRate, &s.OccupancyRate, &listings, &createdAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(filters, &s.Filters); err != nil {
			return nil, fmt.Errorf("snapshot %s filters: %w", s.ID, err)
		}
		if len(listings) > 0 {
			if err := json.Unmarshal(listings, &s.Listings); err != nil {
				return nil, fmt.Errorf("snapshot %s listings: %w", s.ID, err)
			}
		}
		s.CreatedAt = createdAt.UTC()
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
