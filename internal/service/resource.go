package service

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/arco-rh/arco-client/internal/domain/model"
	apperrors "github.com/arco-rh/arco-client/internal/errors"
	"github.com/arco-rh/arco-client/internal/gateway"
)

// Resource is the collection path of a domain endpoint.
type Resource string

const (
	ResourceVacancies    Resource = "/vacantes"
	ResourceApplications Resource = "/postulaciones"
	ResourceCandidates   Resource = "/candidatos"
	ResourceCompanies    Resource = "/empresas"
	ResourceTests        Resource = "/pruebas"
	ResourceDocuments    Resource = "/documentos"
	ResourceInterviews   Resource = "/entrevistas"
	ResourcePayroll      Resource = "/nomina"
)

// Resources lists every domain endpoint.
var Resources = []Resource{
	ResourceVacancies,
	ResourceApplications,
	ResourceCandidates,
	ResourceCompanies,
	ResourceTests,
	ResourceDocuments,
	ResourceInterviews,
	ResourcePayroll,
}

// ParseResource accepts a collection name with or without the leading slash.
func ParseResource(name string) (Resource, bool) {
	want := "/" + strings.Trim(strings.TrimSpace(name), "/")
	for _, r := range Resources {
		if string(r) == want {
			return r, true
		}
	}
	return "", false
}

// Name returns the collection name without the slash.
func (r Resource) Name() string { return strings.TrimPrefix(string(r), "/") }

func (r Resource) item(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", apperrors.ValidationField("id", "id is required")
	}
	return string(r) + "/" + url.PathEscape(id), nil
}

// ResourceService performs CRUD calls on the domain endpoints through the gateway.
// Envelopes are returned as the gateway produced them; a 2xx with success:false is
// left for the caller to present.
type ResourceService struct {
	api APIClient
}

// NewResourceService constructs a new ResourceService.
func NewResourceService(api APIClient) *ResourceService {
	if api == nil {
		//nolint:forbidigo // Service construction must fail fast during wiring when dependencies are missing
		panic("APIClient is required")
	}
	return &ResourceService{api: api}
}

// List fetches a collection, filtered by params.
func (s *ResourceService) List(ctx context.Context, r Resource, params gateway.Params) (*model.Envelope, error) {
	env, err := s.api.Get(ctx, string(r), params)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", r.Name(), err)
	}
	return env, nil
}

// Get fetches one item.
func (s *ResourceService) Get(ctx context.Context, r Resource, id string) (*model.Envelope, error) {
	p, err := r.item(id)
	if err != nil {
		return nil, err
	}
	env, err := s.api.Get(ctx, p, nil)
	if err != nil {
		return nil, fmt.Errorf("get %s %s: %w", r.Name(), id, err)
	}
	return env, nil
}

// Create posts a new item. body may be a *gateway.Form for uploads.
func (s *ResourceService) Create(ctx context.Context, r Resource, body any) (*model.Envelope, error) {
	env, err := s.api.Post(ctx, string(r), body)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", r.Name(), err)
	}
	return env, nil
}

// Update replaces an item.
func (s *ResourceService) Update(ctx context.Context, r Resource, id string, body any) (*model.Envelope, error) {
	p, err := r.item(id)
	if err != nil {
		return nil, err
	}
	env, err := s.api.Put(ctx, p, body)
	if err != nil {
		return nil, fmt.Errorf("update %s %s: %w", r.Name(), id, err)
	}
	return env, nil
}

// Patch partially updates an item.
func (s *ResourceService) Patch(ctx context.Context, r Resource, id string, body any) (*model.Envelope, error) {
	p, err := r.item(id)
	if err != nil {
		return nil, err
	}
	env, err := s.api.Patch(ctx, p, body)
	if err != nil {
		return nil, fmt.Errorf("patch %s %s: %w", r.Name(), id, err)
	}
	return env, nil
}

// Remove deletes an item.
func (s *ResourceService) Remove(ctx context.Context, r Resource, id string) (*model.Envelope, error) {
	p, err := r.item(id)
	if err != nil {
		return nil, err
	}
	env, err := s.api.Delete(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("delete %s %s: %w", r.Name(), id, err)
	}
	return env, nil
}
