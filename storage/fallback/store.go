// Package fallback is the local registry used for test identities and when the remote backend is unavailable.
// All data lives in three JSON blobs in a core.Preferences store and every mutation is flushed before it returns.
package fallback

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"
	"golang.org/x/crypto/bcrypt"

	"github.com/shubhammm008/Infosys-Team5/core"
	"github.com/shubhammm008/Infosys-Team5/core/auth"
	"github.com/shubhammm008/Infosys-Team5/core/course"
	"github.com/shubhammm008/Infosys-Team5/core/user"
)

// Preference keys
const (
	UsersKey       = "MockDataService_Users"
	CredentialsKey = "MockDataService_Credentials"
	CoursesKey     = "MockDataService_Courses"
)

// Seed admin
const (
	AdminID       = "00000000-0000-0000-0000-000000000001"
	AdminEmail    = "admin@ltms.test"
	AdminPassword = "test1234"

	legacyAdminID    = "admin_001"
	legacyAdminOrgID = "test_org"
)

var (
	// errors
	ErrUserNotFound   = fmt.Errorf("fallback: user: %w", core.ErrNotFound)
	ErrCourseNotFound = fmt.Errorf("fallback: course: %w", core.ErrNotFound)
)

type Options struct {
	Logger core.Logger
	// Cost is the bcrypt cost of stored credentials; bcrypt.DefaultCost when zero.
	Cost int
}

// Store keeps users, their credentials and courses. It is safe for concurrent use.
type Store struct {
	prefs  core.Preferences
	logger core.Logger
	cost   int

	mu          sync.RWMutex
	users       []user.User
	credentials map[string][]byte // email -> bcrypt hash
	courses     []course.Course
}

var _ auth.LocalStore = (*Store)(nil) // interface compliance check

// Open loads the persisted registry, seeding the default admin when nothing usable is stored.
func Open(ctx context.Context, prefs core.Preferences, opts Options) (*Store, error) {
	s := &Store{
		prefs:  prefs,
		logger: opts.Logger,
		cost:   opts.Cost,
	}
	if s.logger == nil {
		s.logger = core.NopLogger()
	}
	if s.cost == 0 {
		s.cost = bcrypt.DefaultCost
	}

	loaded, err := s.load(ctx)
	if err != nil {
		s.logger.Warn("fallback: loading persisted data, starting over", err)
	}
	if !loaded {
		return s, s.seed(ctx)
	}
	return s, s.migrateAdmin(ctx)
}

func (s *Store) load(ctx context.Context) (bool, error) {
	usersData, err := s.prefs.Get(ctx, UsersKey)
	if core.IsNotFound(err) {
		return false, nil
	} else if err != nil {
		return false, err
	}
	credsData, err := s.prefs.Get(ctx, CredentialsKey)
	if core.IsNotFound(err) {
		return false, nil
	} else if err != nil {
		return false, err
	}

	var users []user.User
	if err = json.Unmarshal(usersData, &users); err != nil {
		return false, errors.Wrap(err, "decoding users")
	}
	var creds map[string][]byte
	if err = json.Unmarshal(credsData, &creds); err != nil {
		return false, errors.Wrap(err, "decoding credentials")
	}
	if creds == nil { // a persisted "null"
		creds = make(map[string][]byte)
	}
	var courses []course.Course
	coursesData, err := s.prefs.Get(ctx, CoursesKey)
	switch {
	case err == nil:
		if err = json.Unmarshal(coursesData, &courses); err != nil {
			return false, errors.Wrap(err, "decoding courses")
		}
	case !core.IsNotFound(err):
		return false, err
	}

	s.users, s.credentials, s.courses = users, creds, courses
	s.logger.Debug("fallback: loaded persisted data", map[string]interface{}{"users": len(users), "courses": len(courses)})
	return true, nil
}

func (s *Store) seed(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	hash, err := bcrypt.GenerateFromPassword([]byte(AdminPassword), s.cost)
	if err != nil {
		return errors.Wrap(err, "hashing admin password")
	}
	now := core.Now()
	s.users = []user.User{{
		ID:             AdminID,
		OrganizationID: null.StringFrom(core.DefaultOrganizationID),
		Email:          AdminEmail,
		Role:           user.RoleAdmin,
		FirstName:      "System",
		LastName:       "Admin",
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
		LastLogin:      null.TimeFrom(now),
	}}
	s.credentials = map[string][]byte{AdminEmail: hash}
	s.courses = nil
	return s.flushLocked(ctx)
}

// migrateAdmin rewrites the legacy admin ids to their current values.
func (s *Store) migrateAdmin(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexByEmailLocked(AdminEmail)
	if i < 0 {
		return nil
	}
	admin := s.users[i]
	changed := false
	if admin.ID == legacyAdminID {
		admin.ID = AdminID
		changed = true
	}
	if admin.OrganizationID.String == legacyAdminOrgID {
		admin.OrganizationID = null.StringFrom(core.DefaultOrganizationID)
		changed = true
	}
	if !changed {
		return nil
	}
	s.users[i] = admin
	s.logger.Info("fallback: migrated legacy admin ids")
	return s.flushLocked(ctx)
}

// flushLocked writes all three blobs. Callers hold s.mu.
func (s *Store) flushLocked(ctx context.Context) error {
	users := s.users
	if users == nil {
		users = []user.User{}
	}
	courses := s.courses
	if courses == nil {
		courses = []course.Course{}
	}
	blobs := []struct {
		key string
		val interface{}
	}{
		{UsersKey, users},
		{CredentialsKey, s.credentials},
		{CoursesKey, courses},
	}
	for _, blob := range blobs {
		data, err := json.Marshal(blob.val)
		if err != nil {
			return errors.Wrapf(err, "encoding %s", blob.key)
		}
		if err = s.prefs.Set(ctx, blob.key, data); err != nil {
			return errors.Wrapf(err, "saving %s", blob.key)
		}
	}
	return nil
}

// mutate applies fn and flushes; the in-memory state is rolled back when either fails.
func (s *Store) mutate(ctx context.Context, fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	users := append([]user.User(nil), s.users...)
	courses := append([]course.Course(nil), s.courses...)
	creds := make(map[string][]byte, len(s.credentials))
	for k, v := range s.credentials {
		creds[k] = v
	}

	err := fn()
	if err == nil {
		err = s.flushLocked(ctx)
	}
	if err != nil {
		s.users, s.courses, s.credentials = users, courses, creds
	}
	return err
}

func normalizeEmail(email string) string {
	return core.CleanString(email, true /* lower */)
}

func (s *Store) indexByEmailLocked(email string) int {
	email = normalizeEmail(email)
	for i, u := range s.users {
		if normalizeEmail(u.Email) == email {
			return i
		}
	}
	return -1
}

func (s *Store) indexByIDLocked(id string) int {
	for i, u := range s.users {
		if u.ID == id {
			return i
		}
	}
	return -1
}

// AddUser stores usr with a hash of password. Emails are unique, case-insensitively.
func (s *Store) AddUser(ctx context.Context, usr user.User, password string) error {
	usr.Email = normalizeEmail(usr.Email)
	if usr.ID == "" {
		usr.ID = core.NewID()
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return errors.Wrap(err, "hashing password")
	}
	err = s.mutate(ctx, func() error {
		if s.indexByEmailLocked(usr.Email) >= 0 {
			return user.ErrEmailExists
		}
		s.users = append(s.users, usr)
		s.credentials[usr.Email] = hash
		return nil
	})
	if err == nil {
		s.logger.Info("fallback: user added", usr)
	}
	return err
}

// GetUsers returns every user in insertion order.
func (s *Store) GetUsers() []user.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]user.User(nil), s.users...)
}

func (s *Store) GetUsersByRole(role user.Role) []user.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var users []user.User
	for _, u := range s.users {
		if u.Role == role {
			users = append(users, u)
		}
	}
	return users
}

// DeleteUser removes the user and their credential.
func (s *Store) DeleteUser(ctx context.Context, id string) error {
	return s.mutate(ctx, func() error {
		i := s.indexByIDLocked(id)
		if i < 0 {
			return ErrUserNotFound
		}
		delete(s.credentials, normalizeEmail(s.users[i].Email))
		s.users = append(s.users[:i], s.users[i+1:]...)
		return nil
	})
}

// UpdateUser replaces the user with the same id. A changed email carries its credential along.
func (s *Store) UpdateUser(ctx context.Context, usr user.User) error {
	usr.Email = normalizeEmail(usr.Email)
	return s.mutate(ctx, func() error {
		i := s.indexByIDLocked(usr.ID)
		if i < 0 {
			return ErrUserNotFound
		}
		if old := normalizeEmail(s.users[i].Email); old != usr.Email {
			if j := s.indexByEmailLocked(usr.Email); j >= 0 && j != i {
				return user.ErrEmailExists
			}
			if hash, ok := s.credentials[old]; ok {
				delete(s.credentials, old)
				s.credentials[usr.Email] = hash
			}
		}
		s.users[i] = usr
		return nil
	})
}

// ValidateCredentials reports whether password is exactly the one stored for email.
func (s *Store) ValidateCredentials(email, password string) bool {
	s.mu.RLock()
	hash, ok := s.credentials[normalizeEmail(email)]
	s.mu.RUnlock()
	if !ok {
		return false
	}
	return bcrypt.CompareHashAndPassword(hash, []byte(password)) == nil
}

func (s *Store) GetUserByEmail(email string) (user.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexByEmailLocked(email); i >= 0 {
		return s.users[i], true
	}
	return user.User{}, false
}

func (s *Store) UpdatePassword(ctx context.Context, email, password string) error {
	email = normalizeEmail(email)
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return errors.Wrap(err, "hashing password")
	}
	return s.mutate(ctx, func() error {
		if s.indexByEmailLocked(email) < 0 {
			return ErrUserNotFound
		}
		s.credentials[email] = hash
		return nil
	})
}

// UserStats counts all users, educators and learners.
func (s *Store) UserStats() (total, educators, learners int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		switch u.Role {
		case user.RoleEducator:
			educators++
		case user.RoleLearner:
			learners++
		}
	}
	return len(s.users), educators, learners
}

// AddCourse stores crs, giving it an id when it has none.
func (s *Store) AddCourse(ctx context.Context, crs course.Course) (course.Course, error) {
	if crs.ID == "" {
		crs.ID = core.NewID()
	}
	err := s.mutate(ctx, func() error {
		s.courses = append(s.courses, crs)
		return nil
	})
	if err != nil {
		return course.Course{}, err
	}
	return crs, nil
}

func (s *Store) GetCourses() []course.Course {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]course.Course(nil), s.courses...)
}

// GetCoursesByEducator returns the courses assigned to educatorID, by title.
func (s *Store) GetCoursesByEducator(educatorID string) []course.Course {
	s.mu.RLock()
	var courses []course.Course
	for _, c := range s.courses {
		if c.AssignedEducatorID.Valid && c.AssignedEducatorID.String == educatorID {
			courses = append(courses, c)
		}
	}
	s.mu.RUnlock()
	sort.SliceStable(courses, func(i, j int) bool { return courses[i].Title < courses[j].Title })
	return courses
}

func (s *Store) UpdateCourse(ctx context.Context, crs course.Course) error {
	return s.mutate(ctx, func() error {
		for i, c := range s.courses {
			if c.ID == crs.ID {
				s.courses[i] = crs
				return nil
			}
		}
		return ErrCourseNotFound
	})
}

func (s *Store) DeleteCourse(ctx context.Context, id string) error {
	return s.mutate(ctx, func() error {
		for i, c := range s.courses {
			if c.ID == id {
				s.courses = append(s.courses[:i], s.courses[i+1:]...)
				return nil
			}
		}
		return ErrCourseNotFound
	})
}

// ClearAllData wipes the registry and seeds the default admin again.
func (s *Store) ClearAllData(ctx context.Context) error {
	for _, key := range []string{UsersKey, CredentialsKey, CoursesKey} {
		if err := s.prefs.Delete(ctx, key); err != nil && !core.IsNotFound(err) {
			return errors.Wrapf(err, "deleting %s", key)
		}
	}
	s.logger.Info("fallback: all data cleared")
	return s.seed(ctx)
}
