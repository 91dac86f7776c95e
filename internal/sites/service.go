package sites

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/google/uuid"

	"github.com/goliatone/go-cms-nav/internal/identity"
)

// Service manages sites and resolves the current site for a request host.
type Service interface {
	Create(ctx context.Context, req CreateSiteRequest) (*Site, error)
	Get(ctx context.Context, id uuid.UUID) (*Site, error)
	List(ctx context.Context) ([]*Site, error)
	Resolve(ctx context.Context, host string) (*Site, error)
}

// CreateSiteRequest captures the input for Create.
type CreateSiteRequest struct {
	Domain string
	Name   string
}

func (r CreateSiteRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Domain, validation.Required, is.Host),
	)
}

// ServiceOption configures the site service.
type ServiceOption func(*service)

// WithDefaultDomain sets the site used when a host matches no site.
func WithDefaultDomain(domain string) ServiceOption {
	return func(s *service) {
		s.defaultDomain = strings.TrimSpace(domain)
	}
}

func WithClock(clock func() time.Time) ServiceOption {
	return func(s *service) {
		if clock != nil {
			s.now = clock
		}
	}
}

type service struct {
	repo          SiteRepository
	defaultDomain string
	now           func() time.Time
}

func NewService(repo SiteRepository, opts ...ServiceOption) Service {
	s := &service{
		repo: repo,
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) Create(ctx context.Context, req CreateSiteRequest) (*Site, error) {
	if strings.TrimSpace(req.Domain) == "" {
		return nil, ErrDomainRequired
	}
	req.Domain = domainKey(req.Domain)
	if err := req.Validate(); err != nil {
		return nil, err
	}
	domain := req.Domain
	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = domain
	}
	now := s.now().UTC()
	return s.repo.Create(ctx, &Site{
		ID:        identity.SiteUUID(domain),
		Domain:    domain,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	})
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*Site, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) List(ctx context.Context) ([]*Site, error) {
	return s.repo.List(ctx)
}

// Resolve finds the site for host, ignoring any port. It falls back to the
// default domain, then to the only site when exactly one exists.
func (s *service) Resolve(ctx context.Context, host string) (*Site, error) {
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	if strings.TrimSpace(host) != "" {
		site, err := s.repo.GetByDomain(ctx, host)
		if err == nil {
			return site, nil
		}
		if !errors.Is(err, ErrSiteNotFound) {
			return nil, err
		}
	}
	if s.defaultDomain != "" {
		return s.repo.GetByDomain(ctx, s.defaultDomain)
	}
	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if len(all) == 1 {
		return all[0], nil
	}
	return nil, &SiteNotFoundError{Key: host}
}
