package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rs/xid"

	"github.com/protanvir/runners-bd/internal/apperror"
	"github.com/protanvir/runners-bd/internal/model"
	"github.com/protanvir/runners-bd/internal/repository"
)

// compile-time checks that *DB implements the identity repositories
var (
	_ repository.AccountRepository = (*DB)(nil)
	_ repository.ProfileRepository = (*DB)(nil)
)

// UpsertAccount inserts or refreshes an account based on (provider, provider_user_id).
//
// An existing account keeps its internal ID; only the email and verification
// flag are refreshed in case they changed at the provider.
func (db *DB) UpsertAccount(ctx context.Context, a *model.Account) error {
	var existingID string
	err := db.conn.QueryRowContext(ctx,
		`SELECT id FROM accounts WHERE provider = ? AND provider_user_id = ?`,
		a.Provider, a.ProviderUserID,
	).Scan(&existingID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("sqlite: looking up account %s/%s: %w", a.Provider, a.ProviderUserID, err)
	}

	if existingID != "" {
		a.ID = existingID
		_, err = db.conn.ExecContext(ctx,
			`UPDATE accounts SET email = ?, email_verified = ? WHERE id = ?`,
			a.Email, a.EmailVerified, a.ID,
		)
		if err != nil {
			return fmt.Errorf("sqlite: updating account %s: %w", a.ID, err)
		}
		return db.conn.QueryRowContext(ctx,
			`SELECT created_at FROM accounts WHERE id = ?`, a.ID,
		).Scan(&a.CreatedAt)
	}

	a.ID = xid.New().String()
	a.CreatedAt = now()
	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO accounts (id, provider, provider_user_id, email, email_verified, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		a.ID, a.Provider, a.ProviderUserID, a.Email, a.EmailVerified, a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting account %s/%s: %w", a.Provider, a.ProviderUserID, err)
	}
	return nil
}

// GetAccount retrieves an account by its internal ID.
func (db *DB) GetAccount(ctx context.Context, id string) (*model.Account, error) {
	var a model.Account
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, provider, provider_user_id, email, email_verified, created_at
		 FROM accounts WHERE id = ?`, id,
	).Scan(&a.ID, &a.Provider, &a.ProviderUserID, &a.Email, &a.EmailVerified, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("account", id)
		}
		return nil, fmt.Errorf("sqlite: getting account %s: %w", id, err)
	}
	return &a, nil
}

const profileColumns = `id, email, username, full_name, avatar_url, bio, location, running_level, role,
	can_create_event, can_create_review, can_create_post, strava_athlete_id IS NOT NULL,
	created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProfile(row rowScanner) (*model.Profile, error) {
	var p model.Profile
	var role string
	err := row.Scan(
		&p.ID, &p.Email, &p.Username, &p.FullName, &p.AvatarURL, &p.Bio, &p.Location,
		&p.RunningLevel, &role,
		&p.CanCreateEvent, &p.CanCreateReview, &p.CanCreatePost, &p.StravaConnected,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.Role = model.Role(role)
	return &p, nil
}

// EnsureProfile creates the profile row on first sign-in and loads it back.
func (db *DB) EnsureProfile(ctx context.Context, p *model.Profile) error {
	ts := now()
	role := p.Role
	if role == "" {
		role = model.RoleUser
	}
	level := p.RunningLevel
	if level == "" {
		level = model.DefaultRunningLevel
	}

	_, err := db.conn.ExecContext(ctx,
		`INSERT OR IGNORE INTO profiles
		   (id, email, username, full_name, avatar_url, running_level, role, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Email, p.Username, p.FullName, p.AvatarURL, level, string(role), ts, ts,
	)
	if err != nil {
		return fmt.Errorf("sqlite: ensuring profile %s: %w", p.ID, err)
	}

	stored, err := db.GetProfile(ctx, p.ID)
	if err != nil {
		return err
	}
	*p = *stored
	return nil
}

// GetProfile retrieves a profile by ID.
func (db *DB) GetProfile(ctx context.Context, id string) (*model.Profile, error) {
	p, err := scanProfile(db.conn.QueryRowContext(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE id = ?`, id,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("profile", id)
		}
		return nil, fmt.Errorf("sqlite: getting profile %s: %w", id, err)
	}
	return p, nil
}

// ListProfiles returns every profile, newest first.
func (db *DB) ListProfiles(ctx context.Context) ([]model.Profile, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+profileColumns+` FROM profiles ORDER BY created_at DESC, rowid DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing profiles: %w", err)
	}
	defer rows.Close()

	profiles := []model.Profile{}
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning profile row: %w", err)
		}
		profiles = append(profiles, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating profile rows: %w", err)
	}
	return profiles, nil
}

// UpdateProfile applies the ordinary edit. Role and capability flags are not
// part of the statement.
func (db *DB) UpdateProfile(ctx context.Context, id string, upd model.ProfileUpdate) error {
	return db.execOne(ctx, "profile", id,
		`UPDATE profiles SET full_name = ?, bio = ?, location = ?, running_level = ?, updated_at = ?
		 WHERE id = ?`,
		upd.FullName, upd.Bio, upd.Location, upd.RunningLevel, now(), id,
	)
}

// SetRole changes a profile's role.
func (db *DB) SetRole(ctx context.Context, id string, role model.Role) error {
	return db.execOne(ctx, "profile", id,
		`UPDATE profiles SET role = ?, updated_at = ? WHERE id = ?`,
		string(role), now(), id,
	)
}

// SetCapability sets one capability flag. The column name comes from the
// closed model.Capabilities set, never from user input directly. Superadmin
// rows are never updated.
func (db *DB) SetCapability(ctx context.Context, id string, c model.Capability, value bool) error {
	if !c.Valid() {
		return apperror.ValidationFailed("capability", fmt.Sprintf("unknown capability %q", c))
	}
	result, err := db.conn.ExecContext(ctx,
		fmt.Sprintf(`UPDATE profiles SET %s = ?, updated_at = ? WHERE id = ? AND role <> ?`, string(c)),
		value, now(), id, string(model.RoleSuperadmin),
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating profile %s: %w", id, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected for profile %s: %w", id, err)
	}
	if n > 0 {
		return nil
	}

	// Nothing changed: the profile is missing or elevated.
	p, err := db.GetProfile(ctx, id)
	if err != nil {
		return err
	}
	if p.Elevated() {
		return apperror.Forbidden("the superadmin role is exempt from capability toggles")
	}
	return apperror.NotFound("profile", id)
}

// SetAvatarURL stores the public URL of an uploaded avatar.
func (db *DB) SetAvatarURL(ctx context.Context, id, url string) error {
	return db.execOne(ctx, "profile", id,
		`UPDATE profiles SET avatar_url = ?, updated_at = ? WHERE id = ?`,
		url, now(), id,
	)
}

// SaveStravaLink stores the tracker tokens on the profile row.
func (db *DB) SaveStravaLink(ctx context.Context, id string, link model.StravaLink) error {
	return db.execOne(ctx, "profile", id,
		`UPDATE profiles SET strava_athlete_id = ?, strava_access_token = ?,
		   strava_refresh_token = ?, strava_expires_at = ?, updated_at = ?
		 WHERE id = ?`,
		link.AthleteID, link.AccessToken, link.RefreshToken, link.ExpiresAt.UTC(), now(), id,
	)
}

// GetStravaLink reads the tracker tokens of a connected profile.
func (db *DB) GetStravaLink(ctx context.Context, id string) (*model.StravaLink, error) {
	var (
		athleteID sql.NullInt64
		access    sql.NullString
		refresh   sql.NullString
		expires   sql.NullTime
	)
	err := db.conn.QueryRowContext(ctx,
		`SELECT strava_athlete_id, strava_access_token, strava_refresh_token, strava_expires_at
		 FROM profiles WHERE id = ?`, id,
	).Scan(&athleteID, &access, &refresh, &expires)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("profile", id)
		}
		return nil, fmt.Errorf("sqlite: getting strava link %s: %w", id, err)
	}
	if !athleteID.Valid {
		return nil, apperror.NotFound("strava link", id)
	}
	return &model.StravaLink{
		AthleteID:    athleteID.Int64,
		AccessToken:  access.String,
		RefreshToken: refresh.String,
		ExpiresAt:    expires.Time,
	}, nil
}

// ListStravaLinked returns the ids of profiles with a tracker link.
func (db *DB) ListStravaLinked(ctx context.Context) ([]string, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id FROM profiles WHERE strava_athlete_id IS NOT NULL ORDER BY created_at`,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing strava links: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("sqlite: scanning strava link row: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// execOne runs a single-row UPDATE and reports NotFound when no row matched.
func (db *DB) execOne(ctx context.Context, resource, id, query string, args ...any) error {
	result, err := db.conn.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("sqlite: updating %s %s: %w", resource, id, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected for %s %s: %w", resource, id, err)
	}
	if n == 0 {
		return apperror.NotFound(resource, id)
	}
	return nil
}
