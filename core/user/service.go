package user

import (
	"context"
	"fmt"
	"sort"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/shubhammm008/Infosys-Team5/core"
)

var (
	// errors
	ErrNotFound    = fmt.Errorf("user: %w", core.ErrNotFound)
	ErrEmailExists = errors.New("a user with this email already exists")
)

// Service manages User records on a core.Backend.
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

// Create stores usr. An empty id is replaced by a new one; timestamps default to now.
func (svc *Service) Create(ctx context.Context, usr User) (User, error) {
	if usr.ID == "" {
		usr.ID = core.NewID()
	}
	usr.Email = core.CleanString(usr.Email, true /* lower */)
	now := core.Now()
	if usr.CreatedAt.IsZero() {
		usr.CreatedAt = now
	}
	if usr.UpdatedAt.IsZero() {
		usr.UpdatedAt = now
	}
	id, err := core.Create(ctx, svc.backend, core.TableUsers, usr)
	if err != nil {
		return User{}, err
	}
	usr.ID = id
	return usr, nil
}

func (svc *Service) Fetch(ctx context.Context, id string) (User, error) {
	usr, err := core.Fetch[User](ctx, svc.backend, core.TableUsers, id)
	return usr, trapNotFound(err)
}

func (svc *Service) FetchAll(ctx context.Context) ([]User, error) {
	return core.FetchAll[User](ctx, svc.backend, core.TableUsers)
}

func (svc *Service) FetchByRole(ctx context.Context, role Role) ([]User, error) {
	return core.Query[User](ctx, svc.backend, core.TableUsers, "role", string(role))
}

func (svc *Service) FetchByOrganization(ctx context.Context, orgID string) ([]User, error) {
	return core.Query[User](ctx, svc.backend, core.TableUsers, "organizationId", orgID)
}

// FetchByEmail returns the User registered with email, ErrNotFound otherwise.
func (svc *Service) FetchByEmail(ctx context.Context, email string) (User, error) {
	users, err := core.Query[User](ctx, svc.backend, core.TableUsers, "email", core.CleanString(email, true /* lower */))
	if err != nil {
		return User{}, err
	}
	if len(users) == 0 {
		return User{}, ErrNotFound
	}
	return users[0], nil
}

// EmailExists reports whether a User is registered with email.
func (svc *Service) EmailExists(ctx context.Context, email string) (bool, error) {
	_, err := svc.FetchByEmail(ctx, email)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}

// Search filters every User with qf, sorted by full name.
func (svc *Service) Search(ctx context.Context, qf QueryFilter) ([]User, error) {
	var (
		users []User
		err   error
	)
	if qf.Role != "" {
		users, err = svc.FetchByRole(ctx, qf.Role)
	} else {
		users, err = svc.FetchAll(ctx)
	}
	if err != nil {
		return nil, err
	}
	matches := make([]User, 0, len(users))
	for _, u := range users {
		if qf.Match(u) {
			matches = append(matches, u)
		}
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].FullName() < matches[j].FullName() })
	return matches, nil
}

// Update writes usr as a whole and bumps UpdatedAt.
func (svc *Service) Update(ctx context.Context, usr User) (User, error) {
	usr.Email = core.CleanString(usr.Email, true /* lower */)
	usr.UpdatedAt = core.Now()
	if err := core.Update(ctx, svc.backend, core.TableUsers, usr.ID, usr); err != nil {
		return User{}, trapNotFound(err)
	}
	return usr, nil
}

func (svc *Service) Delete(ctx context.Context, id string) error {
	return trapNotFound(core.Delete(ctx, svc.backend, core.TableUsers, id))
}

// SetActive activates or deactivates an account.
func (svc *Service) SetActive(ctx context.Context, id string, active bool) (User, error) {
	usr, err := svc.Fetch(ctx, id)
	if err != nil {
		return User{}, err
	}
	usr.IsActive = active
	return svc.Update(ctx, usr)
}

func (svc *Service) ChangeRole(ctx context.Context, id string, role Role) (User, error) {
	if !role.IsValid() {
		return User{}, core.NewValidationError(
			errors.Errorf("invalid role %q", role),
			core.FieldError{Field: "role", Error: "invalid role"},
		)
	}
	usr, err := svc.Fetch(ctx, id)
	if err != nil {
		return User{}, err
	}
	usr.Role = role
	return svc.Update(ctx, usr)
}

// TouchLastLogin records a successful sign-in.
func (svc *Service) TouchLastLogin(ctx context.Context, usr User) (User, error) {
	usr.LastLogin = null.TimeFrom(core.Now())
	return svc.Update(ctx, usr)
}
