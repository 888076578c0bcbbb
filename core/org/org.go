// Package org manages organizations, the optional scope of users and courses.
package org

import (
	"context"
	"fmt"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/shubhammm008/Infosys-Team5/core"
)

var ErrNotFound = fmt.Errorf("organization: %w", core.ErrNotFound)

type Organization struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"organizationDescription"`
	LogoURL     null.String `json:"logoURL,omitempty"`
	IsActive    bool        `json:"isActive"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

func (Organization) SnakeFields() map[string]string {
	return map[string]string{"organizationDescription": "description"}
}

type Service struct {
	backend core.Backend
}

func NewService(backend core.Backend) *Service {
	return &Service{backend: backend}
}

func trapNotFound(err error) error {
	if core.IsNotFound(err) {
		return ErrNotFound
	}
	return err
}

func (svc *Service) Create(ctx context.Context, o Organization) (Organization, error) {
	if o.ID == "" {
		o.ID = core.NewID()
	}
	now := core.Now()
	o.CreatedAt, o.UpdatedAt = now, now
	id, err := core.Create(ctx, svc.backend, core.TableOrganizations, o)
	if err != nil {
		return Organization{}, err
	}
	o.ID = id
	return o, nil
}

func (svc *Service) Fetch(ctx context.Context, id string) (Organization, error) {
	o, err := core.Fetch[Organization](ctx, svc.backend, core.TableOrganizations, id)
	return o, trapNotFound(err)
}

func (svc *Service) FetchAll(ctx context.Context) ([]Organization, error) {
	return core.FetchAll[Organization](ctx, svc.backend, core.TableOrganizations)
}

func (svc *Service) Update(ctx context.Context, o Organization) (Organization, error) {
	o.UpdatedAt = core.Now()
	if err := core.Update(ctx, svc.backend, core.TableOrganizations, o.ID, o); err != nil {
		return Organization{}, trapNotFound(err)
	}
	return o, nil
}

func (svc *Service) Delete(ctx context.Context, id string) error {
	return trapNotFound(core.Delete(ctx, svc.backend, core.TableOrganizations, id))
}
