package validation

import (
	"strings"

	"github.com/clinicflow/backend/pkg/apperror"
	"github.com/clinicflow/backend/pkg/utils"
)

// Workspace slug length bounds. Scoped routes reject anything outside them.
const (
	SlugMinLen = 3
	SlugMaxLen = 50
)

// WorkspaceSlug returns slug, or one derived from name when slug is empty.
// The result must be usable as a workspace path segment; otherwise a
// validation error on the "slug" field is returned.
func WorkspaceSlug(name, slug string) (string, error) {
	if slug == "" {
		slug = utils.Slugify(name)
		if len(slug) > SlugMaxLen {
			cut := slug[:SlugMaxLen]
			// Keep whole words when the cut lands inside one.
			if slug[SlugMaxLen] != '-' {
				if i := strings.LastIndexByte(cut, '-'); i >= SlugMinLen {
					cut = cut[:i]
				}
			}
			slug = strings.TrimRight(cut, "-")
		}
		if !validSlug(slug) {
			return "", apperror.Validation([]apperror.FieldError{{
				Field:   "slug",
				Message: "slug could not be derived from the name; provide one with at least 3 letters or digits",
			}})
		}
		return slug, nil
	}
	if !validSlug(slug) {
		return "", apperror.Validation([]apperror.FieldError{{
			Field:   "slug",
			Message: "slug must be 3 to 50 lowercase letters, digits or single hyphens",
		}})
	}
	return slug, nil
}

func validSlug(s string) bool {
	return len(s) >= SlugMinLen && len(s) <= SlugMaxLen && IsSlug(s)
}
