package pages

import (
	"errors"
	"fmt"
)

var (
	ErrSiteRequired            = errors.New("pages: site is required")
	ErrSlugRequired            = errors.New("pages: slug is required")
	ErrSlugInvalid             = errors.New("pages: slug contains invalid characters")
	ErrTitleRequired           = errors.New("pages: at least one title is required")
	ErrDuplicateLanguage       = errors.New("pages: duplicate title language provided")
	ErrReverseIDExists         = errors.New("pages: reverse id already exists")
	ErrParentNotFound          = errors.New("pages: parent page not found")
	ErrParentSiteMismatch      = errors.New("pages: parent belongs to another site")
	ErrPageNotFound            = errors.New("pages: page not found")
	ErrPageRequired            = errors.New("pages: page id required")
	ErrPageParentCycle         = errors.New("pages: parent assignment creates hierarchy cycle")
	ErrPageTranslationNotFound = errors.New("pages: translation not found")
	ErrNoHomeFound             = errors.New("pages: no home page found")
	ErrScheduleWindowInvalid   = errors.New("pages: publish_at must be before unpublish_at")
)

// PageNotFoundError reports a lookup miss by id or reverse id.
type PageNotFoundError struct {
	Key string
}

func (e *PageNotFoundError) Error() string {
	if e == nil || e.Key == "" {
		return ErrPageNotFound.Error()
	}
	return fmt.Sprintf("%s: %s", ErrPageNotFound.Error(), e.Key)
}

func (e *PageNotFoundError) Unwrap() error {
	return ErrPageNotFound
}

// ReverseIDNotFoundError reports a reverse id with no matching page.
type ReverseIDNotFoundError struct {
	ReverseID string
}

func (e *ReverseIDNotFoundError) Error() string {
	if e == nil {
		return ErrPageNotFound.Error()
	}
	return fmt.Sprintf("%s: reverse_id=%s", ErrPageNotFound.Error(), e.ReverseID)
}

func (e *ReverseIDNotFoundError) Unwrap() error {
	return ErrPageNotFound
}

// TranslationNotFoundError reports a page without a title in Language.
type TranslationNotFoundError struct {
	PageID   string
	Language string
}

func (e *TranslationNotFoundError) Error() string {
	if e == nil {
		return ErrPageTranslationNotFound.Error()
	}
	return fmt.Sprintf("%s: page=%s language=%s", ErrPageTranslationNotFound.Error(), e.PageID, e.Language)
}

func (e *TranslationNotFoundError) Unwrap() error {
	return ErrPageTranslationNotFound
}
