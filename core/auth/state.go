package auth

import "github.com/shubhammm008/Infosys-Team5/core/user"

type State int

const (
	Unauthenticated State = iota
	Authenticating
	Authenticated
	PendingVerification
)

func (s State) String() string {
	switch s {
	case Authenticating:
		return "authenticating"
	case Authenticated:
		return "authenticated"
	case PendingVerification:
		return "pending_verification"
	default:
		return "unauthenticated"
	}
}

// Snapshot is a copy of the session state, safe to keep.
type Snapshot struct {
	State           State
	CurrentUser     *user.User
	IsAuthenticated bool
	IsLoading       bool
	PendingEmail    string
}

// Outcome of a successful verification.
type Outcome int

const (
	OutcomeAuthenticated Outcome = iota
	// OutcomeAuthenticatedWithUnpersistedProfile: the user is signed in but the
	// profile could not be written to the backend.
	OutcomeAuthenticatedWithUnpersistedProfile
)

func (o Outcome) String() string {
	if o == OutcomeAuthenticatedWithUnpersistedProfile {
		return "authenticated_with_unpersisted_profile"
	}
	return "authenticated"
}

type Verification struct {
	User       user.User
	Outcome    Outcome
	PersistErr error
}

// subscription buffer; a slow subscriber only misses intermediate snapshots
const subBuffer = 8

func (s *Service) snapshotLocked() Snapshot {
	snap := Snapshot{
		State:           s.state,
		IsAuthenticated: s.state == Authenticated,
		IsLoading:       s.isLoading,
	}
	if s.currentUser != nil {
		usr := *s.currentUser
		snap.CurrentUser = &usr
	}
	if s.pending != nil {
		snap.PendingEmail = s.pending.Email
	}
	return snap
}

// Snapshot returns the current session state.
func (s *Service) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Service) CurrentUser() (user.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.currentUser == nil {
		return user.User{}, false
	}
	return *s.currentUser, true
}

func (s *Service) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state == Authenticated
}

func (s *Service) IsLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isLoading
}

// Subscribe delivers a Snapshot on every state change, starting with the current one.
// The returned func unsubscribes and closes the channel.
func (s *Service) Subscribe() (<-chan Snapshot, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch := make(chan Snapshot, subBuffer)
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	ch <- s.snapshotLocked()

	var once bool
	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if once {
			return
		}
		once = true
		delete(s.subs, id)
		close(ch)
	}
}

// setLocked mutates the state fields and publishes the result. Callers hold s.mu.
func (s *Service) setLocked(state State, usr *user.User, loading bool) {
	s.state = state
	s.currentUser = usr
	s.isLoading = loading

	snap := s.snapshotLocked()
	for _, ch := range s.subs {
		select {
		case ch <- snap:
		default:
			// drop the oldest snapshot to make room for the newest
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snap:
			default:
			}
		}
	}
}

func (s *Service) set(state State, usr *user.User, loading bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setLocked(state, usr, loading)
}
