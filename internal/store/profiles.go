package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"

	"github.com/pgrep/reputation-api/internal/models"
)

// UpsertProfile records that a profile was viewed. Empty persona and avatar
// values never overwrite stored ones.
func (s *Store) UpsertProfile(ctx context.Context, p models.Profile) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO pgrep_profiles (steam_id, persona_name, avatar_url, last_seen_at)
		VALUES ($1, NULLIF($2, ''), NULLIF($3, ''), $4)
		ON CONFLICT (steam_id) DO UPDATE SET
			persona_name = COALESCE(EXCLUDED.persona_name, pgrep_profiles.persona_name),
			avatar_url = COALESCE(EXCLUDED.avatar_url, pgrep_profiles.avatar_url),
			last_seen_at = EXCLUDED.last_seen_at
	`, p.SteamID, p.PersonaName, p.AvatarURL, p.LastSeenAt)
	return eris.Wrap(err, "store: upsert profile")
}

// UpsertUser records activity of a signed-in user.
func (s *Store) UpsertUser(ctx context.Context, u models.User) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO pgrep_users (steam_id, persona_name, last_path, last_seen_at)
		VALUES ($1, NULLIF($2, ''), NULLIF($3, ''), $4)
		ON CONFLICT (steam_id) DO UPDATE SET
			persona_name = COALESCE(EXCLUDED.persona_name, pgrep_users.persona_name),
			last_path = EXCLUDED.last_path,
			last_seen_at = EXCLUDED.last_seen_at
	`, u.SteamID, u.PersonaName, u.LastPath, u.LastSeenAt)
	return eris.Wrap(err, "store: upsert user")
}

// SetTrustRating stores the latest score of a profile, creating the row when needed.
func (s *Store) SetTrustRating(ctx context.Context, steamID string, score int, premier *int, at time.Time) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO pgrep_profiles (steam_id, trust_rating, premier_rating, last_seen_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (steam_id) DO UPDATE SET
			trust_rating = EXCLUDED.trust_rating,
			premier_rating = COALESCE(EXCLUDED.premier_rating, pgrep_profiles.premier_rating)
	`, steamID, score, premier, at)
	return eris.Wrap(err, "store: set trust rating")
}

// MarkAutoFlagged flags a profile once. It reports false when the profile
// was already flagged or does not exist.
func (s *Store) MarkAutoFlagged(ctx context.Context, steamID, reason string, at time.Time) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE pgrep_profiles
		SET auto_flagged_at = $2, auto_flag_reason = $3
		WHERE steam_id = $1 AND auto_flagged_at IS NULL
	`, steamID, at, reason)
	if err != nil {
		return false, eris.Wrap(err, "store: mark auto flagged")
	}
	return tag.RowsAffected() == 1, nil
}

// ListAutoFlagged returns flagged profiles, most recently flagged first.
func (s *Store) ListAutoFlagged(ctx context.Context, limit int) ([]models.Profile, error) {
	rows, err := s.db.Query(ctx, `
		SELECT steam_id, COALESCE(persona_name, ''), COALESCE(avatar_url, ''), trust_rating,
			premier_rating, auto_flagged_at, COALESCE(auto_flag_reason, ''), last_seen_at
		FROM pgrep_profiles
		WHERE auto_flagged_at IS NOT NULL
		ORDER BY auto_flagged_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "store: list auto flagged")
	}
	defer rows.Close()

	out := make([]models.Profile, 0)
	for rows.Next() {
		var p models.Profile
		if err := rows.Scan(&p.SteamID, &p.PersonaName, &p.AvatarURL, &p.TrustRating,
			&p.PremierRating, &p.AutoFlaggedAt, &p.AutoFlagReason, &p.LastSeenAt); err != nil {
			return nil, eris.Wrap(err, "store: scan profile")
		}
		out = append(out, p)
	}
	return out, eris.Wrap(rows.Err(), "store: iterate profiles")
}

// GetProfile loads one profile.
func (s *Store) GetProfile(ctx context.Context, steamID string) (*models.Profile, error) {
	var p models.Profile
	err := s.db.QueryRow(ctx, `
		SELECT steam_id, COALESCE(persona_name, ''), COALESCE(avatar_url, ''), trust_rating,
			premier_rating, auto_flagged_at, COALESCE(auto_flag_reason, ''), last_seen_at
		FROM pgrep_profiles WHERE steam_id = $1
	`, steamID).Scan(&p.SteamID, &p.PersonaName, &p.AvatarURL, &p.TrustRating,
		&p.PremierRating, &p.AutoFlaggedAt, &p.AutoFlagReason, &p.LastSeenAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrap(err, "store: get profile")
	}
	return &p, nil
}

// CountProfiles returns the number of indexed profiles.
func (s *Store) CountProfiles(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM pgrep_profiles`).Scan(&n)
	return n, eris.Wrap(err, "store: count profiles")
}

// CountActiveUsers counts users seen since the cutoff.
func (s *Store) CountActiveUsers(ctx context.Context, since time.Time) (int, error) {
	var n int
	err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM pgrep_users WHERE last_seen_at >= $1`, since).Scan(&n)
	return n, eris.Wrap(err, "store: count active users")
}

// RecentUsers lists users seen since the cutoff, newest first.
func (s *Store) RecentUsers(ctx context.Context, since time.Time, limit int) ([]models.SeenEntry, error) {
	return s.seen(ctx, `
		SELECT steam_id, last_seen_at FROM pgrep_users
		WHERE last_seen_at >= $1
		ORDER BY last_seen_at DESC LIMIT $2
	`, since, limit)
}

// RecentProfiles lists indexed profiles, most recently viewed first.
func (s *Store) RecentProfiles(ctx context.Context, limit int) ([]models.SeenEntry, error) {
	return s.seen(ctx, `
		SELECT steam_id, last_seen_at FROM pgrep_profiles
		ORDER BY last_seen_at DESC LIMIT $1
	`, limit)
}

func (s *Store) seen(ctx context.Context, sql string, args ...any) ([]models.SeenEntry, error) {
	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, eris.Wrap(err, "store: query activity")
	}
	defer rows.Close()

	out := make([]models.SeenEntry, 0)
	for rows.Next() {
		var e models.SeenEntry
		if err := rows.Scan(&e.SteamID, &e.LastSeenAt); err != nil {
			return nil, eris.Wrap(err, "store: scan activity")
		}
		out = append(out, e)
	}
	return out, eris.Wrap(rows.Err(), "store: iterate activity")
}
