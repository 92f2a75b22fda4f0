package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/protanvir/runners-bd/internal/apperror"
	"github.com/protanvir/runners-bd/internal/model"
	"github.com/protanvir/runners-bd/internal/repository"
)

// MaxAvatarBytes is the upload limit for profile pictures.
const MaxAvatarBytes = 2 << 20

// avatarExtensions maps accepted upload types to file extensions.
var avatarExtensions = map[string]string{
	"image/png":  "png",
	"image/jpeg": "jpg",
	"image/webp": "webp",
}

// AvatarStore puts an object somewhere public and returns its URL.
type AvatarStore interface {
	Put(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error)
}

// ProfileService backs the runner directory and the profile edit form.
type ProfileService struct {
	profiles repository.ProfileRepository
	avatars  AvatarStore
	logger   *slog.Logger
}

// NewProfileService creates a ProfileService. avatars may be nil, in which
// case uploads report the feature as unavailable.
func NewProfileService(profiles repository.ProfileRepository, avatars AvatarStore, logger *slog.Logger) *ProfileService {
	return &ProfileService{profiles: profiles, avatars: avatars, logger: logger}
}

// Directory lists runners newest first, optionally filtered by a
// case-insensitive substring of username, full name or location.
// Emails are not part of the public directory.
func (s *ProfileService) Directory(ctx context.Context, query string) ([]model.Profile, error) {
	all, err := s.profiles.ListProfiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("service/profile: listing profiles: %w", err)
	}

	out := make([]model.Profile, 0, len(all))
	for _, p := range all {
		if matches(query, p.Username, p.FullName, p.Location) {
			p.Email = ""
			out = append(out, p)
		}
	}
	return out, nil
}

// Get returns one runner's public profile.
func (s *ProfileService) Get(ctx context.Context, id string) (*model.Profile, error) {
	p, err := s.profiles.GetProfile(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service/profile: getting %s: %w", id, err)
	}
	p.Email = ""
	return p, nil
}

// UpdateOwn applies the edit form to the caller's own profile.
// Role and capability flags are not reachable from here.
func (s *ProfileService) UpdateOwn(ctx context.Context, sess model.Session, upd model.ProfileUpdate) error {
	if err := requireSignedIn(sess); err != nil {
		return err
	}

	// Free-text fields are stored exactly as submitted.
	if err := checkLength("full_name", upd.FullName, MaxNameLength); err != nil {
		return err
	}
	if err := checkLength("bio", upd.Bio, MaxBioLength); err != nil {
		return err
	}
	if err := checkLength("location", upd.Location, MaxLocationLength); err != nil {
		return err
	}
	upd.RunningLevel = strings.ToLower(strings.TrimSpace(upd.RunningLevel))
	if upd.RunningLevel == "" {
		upd.RunningLevel = model.DefaultRunningLevel
	}
	if !model.ValidRunningLevel(upd.RunningLevel) {
		return apperror.ValidationFailed("running_level",
			"running_level must be one of "+strings.Join(model.RunningLevels, ", "))
	}

	if err := s.profiles.UpdateProfile(ctx, sess.UserID(), upd); err != nil {
		return fmt.Errorf("service/profile: updating %s: %w", sess.UserID(), err)
	}

	s.logger.Info("profile updated", slog.String("userID", sess.UserID()))
	return nil
}

// SetAvatar uploads a new profile picture and stores its public URL.
func (s *ProfileService) SetAvatar(ctx context.Context, sess model.Session, contentType string, body io.Reader, size int64) (string, error) {
	if err := requireSignedIn(sess); err != nil {
		return "", err
	}
	if s.avatars == nil {
		return "", apperror.Unavailable("avatar upload")
	}
	ext, ok := avatarExtensions[contentType]
	if !ok {
		return "", apperror.ValidationFailed("avatar", "avatar must be a PNG, JPEG or WebP image")
	}
	if size <= 0 || size > MaxAvatarBytes {
		return "", apperror.ValidationFailed("avatar", "avatar must be at most 2 MiB")
	}

	key := fmt.Sprintf("avatars/%s/%s.%s", sess.UserID(), uuid.NewString(), ext)
	url, err := s.avatars.Put(ctx, key, contentType, body, size)
	if err != nil {
		return "", fmt.Errorf("service/profile: uploading avatar: %w", err)
	}
	if err := s.profiles.SetAvatarURL(ctx, sess.UserID(), url); err != nil {
		return "", fmt.Errorf("service/profile: saving avatar url: %w", err)
	}

	s.logger.Info("avatar updated", slog.String("userID", sess.UserID()), slog.String("key", key))
	return url, nil
}
