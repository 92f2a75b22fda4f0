// Package service contains the business logic layer of the application.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (business layer) → validates, enforces capability gating, orchestrates
//	Repository (data layer)  → reads/writes the database
//
// Every service takes repository interfaces, never *sqlite.DB, so tests pass
// in-memory fakes. Operations that act on behalf of a runner take the
// resolved model.Session explicitly; nothing is read from the request context.
//
// Collections are returned in a fixed order (see each method) and are never
// nil, so an empty result encodes as [] rather than null.
package service

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"

	"github.com/protanvir/runners-bd/internal/apperror"
	"github.com/protanvir/runners-bd/internal/model"
)

// Validation constants.
const (
	MaxNameLength     = 100
	MaxTitleLength    = 200
	MaxBioLength      = 500
	MaxBodyLength     = 20000
	MaxLocationLength = 120
)

var folder = cases.Fold()

// fold normalises s for case-insensitive comparison (Unicode aware, so
// "STRASSE" matches "straße").
func fold(s string) string {
	return folder.String(s)
}

// matches reports whether the folded query is a substring of any field.
// An empty query matches everything.
func matches(query string, fields ...string) bool {
	q := fold(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	for _, f := range fields {
		if strings.Contains(fold(f), q) {
			return true
		}
	}
	return false
}

// requireSignedIn is the gate for every authoring action.
func requireSignedIn(sess model.Session) error {
	if !sess.Authenticated() {
		return apperror.Unauthorized("sign in required")
	}
	return nil
}

// requireCapability gates creation on a capability flag.
func requireCapability(sess model.Session, c model.Capability) error {
	if err := requireSignedIn(sess); err != nil {
		return err
	}
	if !sess.Can(c) {
		return apperror.Forbidden("you are not allowed to do that: " + string(c) + " is off")
	}
	return nil
}

// requireText trims s and checks it is present and not longer than max runes.
func requireText(field, s string, max int) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", apperror.ValidationFailed(field, field+" is required")
	}
	return limitText(field, s, max)
}

// limitText trims s and checks its length only.
func limitText(field, s string, max int) (string, error) {
	s = strings.TrimSpace(s)
	if err := checkLength(field, s, max); err != nil {
		return "", err
	}
	return s, nil
}

// checkLength rejects s when it is longer than max runes. s is not modified.
func checkLength(field, s string, max int) error {
	if utf8.RuneCountInString(s) > max {
		return apperror.ValidationFailed(field, field+" is too long")
	}
	return nil
}
