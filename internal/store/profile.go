// Package store persists farmer profiles: language, location, crop and the
// push token used by the alert batch.
package store

import (
	"context"
	"errors"
	"strings"
	"time"
)

// ErrNotFound is returned when no profile exists for an id.
var ErrNotFound = errors.New("profile not found")

// Profile is one row of user_profiles. Nil fields are "not provided": on
// Upsert they keep the stored value.
type Profile struct {
	ID               string    `json:"id"`
	SelectedLanguage *string   `json:"selected_language,omitempty"`
	State            *string   `json:"state,omitempty"`
	Village          *string   `json:"village,omitempty"`
	PreferredCrop    *string   `json:"preferred_crop,omitempty"`
	FCMToken         *string   `json:"fcm_token,omitempty"`
	UpdatedAt        time.Time `json:"updated_at,omitzero"`
}

// Store is implemented by every profile backend.
type Store interface {
	Get(ctx context.Context, id string) (Profile, error)
	ListAlertable(ctx context.Context) ([]Profile, error)
	Upsert(ctx context.Context, p Profile) error
}

// Value dereferences an optional field, returning "" for nil.
func Value(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// Ptr returns a pointer to s.
func Ptr(s string) *string {
	return &s
}

// HasVillage reports whether the profile has a non-blank village.
func (p Profile) HasVillage() bool {
	return strings.TrimSpace(Value(p.Village)) != ""
}

// merge overlays the non-nil fields of in onto p.
func (p Profile) merge(in Profile) Profile {
	if in.SelectedLanguage != nil {
		p.SelectedLanguage = in.SelectedLanguage
	}
	if in.State != nil {
		p.State = in.State
	}
	if in.Village != nil {
		p.Village = in.Village
	}
	if in.PreferredCrop != nil {
		p.PreferredCrop = in.PreferredCrop
	}
	if in.FCMToken != nil {
		p.FCMToken = in.FCMToken
	}
	return p
}
