// Package session implements the per-peer FWUP session record and its
// store (§4.7): mapping from peer EID to session, begin/end
// lifecycle, and ALREADY_IN_UPDATE_MODE. The store is additionally
// backed by bbolt so an in-flight session survives an FD process
// restart, guarded by an advisory flock on a companion lock file so two FD
// processes can never both believe they own a peer's session.
package session

import (
	"encoding/json"
	"sync"
	"time"

	"go.etcd.io/bbolt"
	"golang.org/x/sys/unix"

	uuid "github.com/satori/go.uuid"

	"github.com/cerberusfw/pldm"
	"github.com/cerberusfw/pldm/codec"
	"github.com/cerberusfw/pldm/state"
)

var sessionsBucket = []byte("sessions")

// Record is one active update's full session state, §3.
type Record struct {
	PeerEID uint8

	State         state.State
	PreviousState state.State

	Command         pldm.Command
	PreviousCommand pldm.Command

	CompletionCode         pldm.CompletionCode
	PreviousCompletionCode pldm.CompletionCode

	UpdateMode bool

	MaxTransferSize           uint32
	MaxOutstandingTransferReq uint8
	NumComponents             uint16
	GetPkgDataCmd             bool

	CompImageSetVerStrType   codec.VersionStringType
	CompImageSetVerStrLength uint8
	CompImageSetVerStr       []byte

	TrackingID uuid.UUID
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Store maps peer_eid -> session, §4.7. The in-memory map is the
// source of truth during a process's lifetime; db, when non-nil,
// mirrors every mutation for crash recovery.
type Store struct {
	mu       sync.Mutex
	sessions map[uint8]*Record

	db       *bbolt.DB
	lockFile *lockedFile
}

type lockedFile struct {
	fd int
}

// Open creates a Store backed by a bbolt file at path, taking an
// exclusive advisory lock on path+".lock" so a second FD process on the same
// machine cannot open the same store concurrently.
func Open(path string) (*Store, error) {
	fd, err := unix.Open(path+".lock", unix.O_CREAT|unix.O_RDWR, 0o600)
	if err != nil {
		return nil, pldm.WrapFault(pldm.ErrFlashIOError, pldm.CcError, err)
	}
	if err := unix.Flock(fd, unix.LOCK_EX|unix.LOCK_NB); err != nil {
		unix.Close(fd)
		return nil, pldm.WrapFault(pldm.ErrAlreadyInUpdateMode, pldm.CcAlreadyInUpdateMode, err)
	}

	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		unix.Close(fd)
		return nil, pldm.WrapFault(pldm.ErrFlashIOError, pldm.CcError, err)
	}
	if err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(sessionsBucket)
		return err
	}); err != nil {
		db.Close()
		unix.Close(fd)
		return nil, pldm.WrapFault(pldm.ErrFlashIOError, pldm.CcError, err)
	}

	s := &Store{sessions: make(map[uint8]*Record), db: db, lockFile: &lockedFile{fd: fd}}
	if err := s.restore(); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// NewMemoryStore is a Store with no bbolt backing, for tests and for
// any deployment that accepts losing in-flight sessions on crash.
func NewMemoryStore() *Store {
	return &Store{sessions: make(map[uint8]*Record)}
}

func (s *Store) restore() error {
	return s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(sessionsBucket)
		return b.ForEach(func(k, v []byte) error {
			var r Record
			if err := json.Unmarshal(v, &r); err != nil {
				return err
			}
			s.sessions[r.PeerEID] = &r
			return nil
		})
	})
}

func (s *Store) persist(r *Record) error {
	if s.db == nil {
		return nil
	}
	buf, err := json.Marshal(r)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(sessionsBucket).Put([]byte{r.PeerEID}, buf)
	})
}

func (s *Store) erase(peer uint8) error {
	if s.db == nil {
		return nil
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(sessionsBucket).Delete([]byte{peer})
	})
}

// Begin creates a new session for peer, failing with
// ALREADY_IN_UPDATE_MODE if one already exists.
func (s *Store) Begin(peer uint8) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.sessions[peer]; exists {
		return nil, pldm.NewFault(pldm.ErrAlreadyInUpdateMode, pldm.CcAlreadyInUpdateMode)
	}
	now := time.Now()
	// UpdateMode is true while State is still Idle here; the pair is
	// momentarily inconsistent with the steady-state invariant that
	// UpdateMode tracks non-Idle states. The dispatcher closes the gap
	// by advancing to LearnComponents inside RequestUpdate's handler,
	// right after Begin returns, so no caller ever observes this record.
	r := &Record{
		PeerEID:    peer,
		State:      state.Idle,
		UpdateMode: true,
		TrackingID: uuid.NewV4(),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	s.sessions[peer] = r
	if err := s.persist(r); err != nil {
		delete(s.sessions, peer)
		return nil, pldm.WrapFault(pldm.ErrFlashIOError, pldm.CcError, err)
	}
	return r, nil
}

// Get returns the session for peer, or ErrSessionNotFound.
func (s *Store) Get(peer uint8) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.sessions[peer]
	if !ok {
		return nil, pldm.ErrSessionNotFound
	}
	return r, nil
}

// Save persists a mutated Record obtained from Get/Begin. Only dispatch
// calls this, per §4.5 (dispatcher is the sole state mutator).
func (s *Store) Save(r *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r.UpdatedAt = time.Now()
	if _, ok := s.sessions[r.PeerEID]; !ok {
		return pldm.ErrSessionNotFound
	}
	if err := s.persist(r); err != nil {
		return pldm.WrapFault(pldm.ErrFlashIOError, pldm.CcError, err)
	}
	return nil
}

// End removes peer's session. Idempotent per §4.7.
func (s *Store) End(peer uint8) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[peer]; !ok {
		return nil
	}
	delete(s.sessions, peer)
	return s.erase(peer)
}

// Close releases the bbolt handle and the advisory lock, if held.
func (s *Store) Close() error {
	var err error
	if s.db != nil {
		err = s.db.Close()
	}
	if s.lockFile != nil {
		unix.Flock(s.lockFile.fd, unix.LOCK_UN)
		unix.Close(s.lockFile.fd)
	}
	return err
}
