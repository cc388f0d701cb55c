package store

import (
	"context"
	"strings"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/rotisserie/eris"

	"github.com/pgrep/reputation-api/internal/models"
)

// clickhouseSchema creates the lookup log. Statements are separated by ';'.
const clickhouseSchema = `
CREATE DATABASE IF NOT EXISTS pgrep;

CREATE TABLE IF NOT EXISTS pgrep.profile_lookups (
    id              UUID,
    steam_id        String,
    viewer_steam_id String,
    score           Nullable(Int32),
    label           LowCardinality(String),
    anomaly_count   UInt16,
    flagged_count   UInt16,
    premier         Nullable(Float64),
    faceit_elo      Nullable(Float64),
    looked_up_at    DateTime64(3, 'UTC')
) ENGINE = MergeTree
PARTITION BY toYYYYMM(looked_up_at)
ORDER BY (steam_id, looked_up_at)
TTL toDateTime(looked_up_at) + INTERVAL 1 YEAR
`

// LookupStore writes and reads the ClickHouse lookup log.
type LookupStore struct {
	conn driver.Conn
}

// NewLookupStore creates a LookupStore.
func NewLookupStore(conn driver.Conn) *LookupStore {
	return &LookupStore{conn: conn}
}

// EnsureSchema creates the lookup database and table when missing.
func (l *LookupStore) EnsureSchema(ctx context.Context) error {
	for _, stmt := range strings.Split(clickhouseSchema, ";") {
		trimmed := strings.TrimSpace(stmt)
		if trimmed == "" {
			continue
		}
		if err := l.conn.Exec(ctx, trimmed); err != nil {
			return eris.Wrapf(err, "store: clickhouse schema: %.40s", trimmed)
		}
	}
	return nil
}

// InsertLookups appends a batch of lookup events.
func (l *LookupStore) InsertLookups(ctx context.Context, events []models.LookupEvent) error {
	if len(events) == 0 {
		return nil
	}

	batch, err := l.conn.PrepareBatch(ctx, `
		INSERT INTO pgrep.profile_lookups (
			id, steam_id, viewer_steam_id, score, label, anomaly_count, flagged_count,
			premier, faceit_elo, looked_up_at
		)
	`)
	if err != nil {
		return eris.Wrap(err, "store: prepare lookup batch")
	}

	for _, e := range events {
		var score *int32
		if e.Score != nil {
			v := int32(*e.Score)
			score = &v
		}
		if err := batch.Append(
			e.ID,
			e.SteamID,
			e.ViewerSteamID,
			score,
			e.Label,
			uint16(e.AnomalyCount),
			uint16(e.FlaggedCount),
			e.Premier,
			e.FaceitElo,
			e.LookedUpAt,
		); err != nil {
			return eris.Wrap(err, "store: append lookup")
		}
	}

	return eris.Wrap(batch.Send(), "store: send lookup batch")
}

// LookupHistory returns the most recent lookups of a profile.
func (l *LookupStore) LookupHistory(ctx context.Context, steamID string, limit int) ([]models.LookupHistoryEntry, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	rows, err := l.conn.Query(ctx, `
		SELECT looked_up_at, score, label, anomaly_count, premier, faceit_elo
		FROM pgrep.profile_lookups
		WHERE steam_id = ?
		ORDER BY looked_up_at DESC
		LIMIT ?
	`, steamID, limit)
	if err != nil {
		return nil, eris.Wrap(err, "store: query lookup history")
	}
	defer rows.Close()

	out := make([]models.LookupHistoryEntry, 0)
	for rows.Next() {
		var (
			e       models.LookupHistoryEntry
			score   *int32
			anomaly uint16
		)
		if err := rows.Scan(&e.LookedUpAt, &score, &e.Label, &anomaly, &e.Premier, &e.FaceitElo); err != nil {
			return nil, eris.Wrap(err, "store: scan lookup")
		}
		if score != nil {
			v := int(*score)
			e.Score = &v
		}
		e.AnomalyCount = int(anomaly)
		out = append(out, e)
	}
	return out, eris.Wrap(rows.Err(), "store: iterate lookups")
}
