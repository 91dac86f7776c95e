package sites

import (
	"errors"
	"fmt"
)

var (
	ErrDomainRequired = errors.New("sites: domain is required")
	ErrDomainExists   = errors.New("sites: domain already exists")
	ErrSiteNotFound   = errors.New("sites: site not found")
)

// SiteNotFoundError reports a lookup miss by id or domain.
type SiteNotFoundError struct {
	Key string
}

func (e *SiteNotFoundError) Error() string {
	if e == nil || e.Key == "" {
		return ErrSiteNotFound.Error()
	}
	return fmt.Sprintf("%s: %s", ErrSiteNotFound.Error(), e.Key)
}

func (e *SiteNotFoundError) Unwrap() error {
	return ErrSiteNotFound
}
