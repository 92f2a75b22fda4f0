package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/protanvir/runners-bd/internal/apperror"
	"github.com/protanvir/runners-bd/internal/model"
	"github.com/protanvir/runners-bd/internal/repository"
	"github.com/protanvir/runners-bd/internal/strava"
)

// Strava listing sizes.
const (
	RecentActivityCount = 3
	syncPageSize        = 30
)

// stravaNamespace scopes the deterministic ids of imported activities.
var stravaNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://www.strava.com/activities"))

// ImportedActivityID is the stable id of an imported Strava activity, so
// importing the same activity twice is a no-op.
func ImportedActivityID(stravaID int64) string {
	return uuid.NewSHA1(stravaNamespace, []byte("strava:"+strconv.FormatInt(stravaID, 10))).String()
}

// StravaClient is the part of strava.Client the service uses.
type StravaClient interface {
	AuthorizeURL(redirectURL, state string) string
	Exchange(ctx context.Context, g strava.Grant) (json.RawMessage, error)
	RecentActivities(ctx context.Context, accessToken string, perPage int) ([]model.StravaActivity, error)
}

// TokenSealer encrypts tokens before they reach the database.
type TokenSealer interface {
	Seal(plaintext string) (string, error)
	Open(ciphertext string) (string, error)
}

// StravaService links profiles to Strava and imports their runs.
//
// TOKENS:
// Access and refresh tokens are sealed before SaveStravaLink and opened after
// GetStravaLink. An expired access token is refreshed with the refresh token
// and the new pair is persisted before the API call.
//
// SYNC:
// Each Sync takes a ticket from the Syncer before fetching. When a newer sync
// for the same runner starts while the fetch is in flight, the older result
// is dropped instead of written.
type StravaService struct {
	client      StravaClient
	profiles    repository.ProfileRepository
	activities  repository.ActivityRepository
	box         TokenSealer
	syncer      *strava.Syncer
	redirectURL string
	logger      *slog.Logger
	now         func() time.Time
}

// NewStravaService creates a StravaService. A nil client disables every
// operation with apperror.ErrUnavailable.
func NewStravaService(
	client StravaClient,
	profiles repository.ProfileRepository,
	activities repository.ActivityRepository,
	box TokenSealer,
	redirectURL string,
	logger *slog.Logger,
) *StravaService {
	return &StravaService{
		client:      client,
		profiles:    profiles,
		activities:  activities,
		box:         box,
		syncer:      strava.NewSyncer(),
		redirectURL: redirectURL,
		logger:      logger,
		now:         time.Now,
	}
}

// Enabled reports whether Strava is configured.
func (s *StravaService) Enabled() bool {
	return s.client != nil
}

func (s *StravaService) available() error {
	if s.client == nil {
		return apperror.Unavailable("Strava integration")
	}
	return nil
}

// AuthorizeURL returns the consent page to send the runner to.
func (s *StravaService) AuthorizeURL(state string) (string, error) {
	if err := s.available(); err != nil {
		return "", err
	}
	return s.client.AuthorizeURL(s.redirectURL, state), nil
}

// Connect exchanges the authorization code, stores the sealed tokens on the
// caller's profile and runs a first import. A failed import is logged only.
func (s *StravaService) Connect(ctx context.Context, sess model.Session, code string) error {
	if err := s.available(); err != nil {
		return err
	}
	if err := requireSignedIn(sess); err != nil {
		return err
	}
	if code == "" {
		return apperror.ValidationFailed("code", "missing authorization code")
	}

	raw, err := s.client.Exchange(ctx, strava.Grant{Code: code})
	if err != nil {
		return fmt.Errorf("service/strava: exchange: %w", err)
	}
	tok, err := strava.ParseToken(raw)
	if err != nil {
		return fmt.Errorf("service/strava: exchange: %w", err)
	}

	link := model.StravaLink{
		AthleteID:    tok.AthleteID,
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		ExpiresAt:    tok.ExpiresAt,
	}
	if err := s.saveLink(ctx, sess.UserID(), link); err != nil {
		return err
	}

	s.logger.Info("strava connected",
		slog.String("userID", sess.UserID()),
		slog.Int64("athleteID", tok.AthleteID),
	)

	if _, err := s.Sync(ctx, sess.UserID()); err != nil {
		s.logger.Warn("first strava import failed",
			slog.String("userID", sess.UserID()),
			slog.String("error", err.Error()),
		)
	}
	return nil
}

// Recent returns the caller's three latest Strava activities.
func (s *StravaService) Recent(ctx context.Context, sess model.Session) ([]model.StravaActivity, error) {
	if err := s.available(); err != nil {
		return nil, err
	}
	if err := requireSignedIn(sess); err != nil {
		return nil, err
	}

	access, err := s.accessToken(ctx, sess.UserID())
	if err != nil {
		return nil, err
	}
	activities, err := s.client.RecentActivities(ctx, access, RecentActivityCount)
	if err != nil {
		return nil, fmt.Errorf("service/strava: recent: %w", err)
	}
	return activities, nil
}

// Sync imports the runner's latest Strava runs into the activity log. It
// returns how many new activities were stored; a superseded sync stores none.
func (s *StravaService) Sync(ctx context.Context, userID string) (int, error) {
	if err := s.available(); err != nil {
		return 0, err
	}

	ticket := s.syncer.Begin(userID)

	access, err := s.accessToken(ctx, userID)
	if err != nil {
		return 0, err
	}
	fetched, err := s.client.RecentActivities(ctx, access, syncPageSize)
	if err != nil {
		return 0, fmt.Errorf("service/strava: sync: %w", err)
	}

	imported := 0
	applied, err := s.syncer.Apply(ticket, func() error {
		for _, sa := range fetched {
			if !strava.IsRun(sa.Type) {
				continue
			}
			a := &model.Activity{
				ID:              ImportedActivityID(sa.ID),
				UserID:          userID,
				Name:            sa.Name,
				DistanceKm:      sa.Distance / 1000,
				DurationSeconds: sa.MovingTime,
				StartedAt:       sa.StartDate,
				Source:          model.SourceStrava,
				ExternalID:      strconv.FormatInt(sa.ID, 10),
			}
			created, err := s.activities.CreateActivity(ctx, a)
			if err != nil {
				return err
			}
			if created {
				imported++
			}
		}
		return nil
	})
	if err != nil {
		return imported, fmt.Errorf("service/strava: sync: %w", err)
	}
	if !applied {
		s.logger.Debug("strava sync superseded", slog.String("userID", userID))
		return 0, nil
	}

	if imported > 0 {
		s.logger.Info("strava activities imported",
			slog.String("userID", userID),
			slog.Int("count", imported),
		)
	}
	return imported, nil
}

// SyncAll syncs every connected runner. One runner failing does not stop
// the others; all failures are returned joined.
func (s *StravaService) SyncAll(ctx context.Context) error {
	if err := s.available(); err != nil {
		return err
	}

	ids, err := s.profiles.ListStravaLinked(ctx)
	if err != nil {
		return fmt.Errorf("service/strava: sync all: %w", err)
	}

	var errs []error
	for _, id := range ids {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}
		if _, err := s.Sync(ctx, id); err != nil {
			s.logger.Error("strava sync failed",
				slog.String("userID", id),
				slog.String("error", err.Error()),
			)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// accessToken loads the runner's link and refreshes it when expired.
func (s *StravaService) accessToken(ctx context.Context, userID string) (string, error) {
	sealed, err := s.profiles.GetStravaLink(ctx, userID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return "", apperror.ValidationFailed("strava", "Strava is not connected")
		}
		return "", fmt.Errorf("service/strava: loading link: %w", err)
	}

	link := *sealed
	if link.AccessToken, err = s.box.Open(sealed.AccessToken); err != nil {
		return "", fmt.Errorf("service/strava: opening access token: %w", err)
	}
	if link.RefreshToken, err = s.box.Open(sealed.RefreshToken); err != nil {
		return "", fmt.Errorf("service/strava: opening refresh token: %w", err)
	}

	if !link.Expired(s.now()) {
		return link.AccessToken, nil
	}

	raw, err := s.client.Exchange(ctx, strava.Grant{RefreshToken: link.RefreshToken})
	if err != nil {
		return "", fmt.Errorf("service/strava: refresh: %w", err)
	}
	tok, err := strava.ParseToken(raw)
	if err != nil {
		return "", fmt.Errorf("service/strava: refresh: %w", err)
	}

	link.AccessToken = tok.AccessToken
	if tok.RefreshToken != "" {
		link.RefreshToken = tok.RefreshToken
	}
	link.ExpiresAt = tok.ExpiresAt
	if err := s.saveLink(ctx, userID, link); err != nil {
		return "", err
	}

	s.logger.Debug("strava token refreshed", slog.String("userID", userID))
	return link.AccessToken, nil
}

func (s *StravaService) saveLink(ctx context.Context, userID string, link model.StravaLink) error {
	var err error
	if link.AccessToken, err = s.box.Seal(link.AccessToken); err != nil {
		return fmt.Errorf("service/strava: sealing access token: %w", err)
	}
	if link.RefreshToken, err = s.box.Seal(link.RefreshToken); err != nil {
		return fmt.Errorf("service/strava: sealing refresh token: %w", err)
	}
	if err := s.profiles.SaveStravaLink(ctx, userID, link); err != nil {
		return fmt.Errorf("service/strava: saving link: %w", err)
	}
	return nil
}
