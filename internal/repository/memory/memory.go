// Package memory provides mutex-guarded in-memory implementations of the
// repository ports. A single lock covers every mutation, which gives the
// ledger the same atomicity the postgres implementation gets from
// transactions. Used by tests and for running the API without a database.
package memory

import (
	"sync"

	"github.com/google/uuid"

	"github.com/gigboard/gigboard-api/internal/domain"
	"github.com/gigboard/gigboard-api/internal/repository/ports"
)

type Store struct {
	mu sync.Mutex

	jobs  map[uuid.UUID]*domain.JobPosting
	apps  map[uuid.UUID]*domain.Application
	codes map[int64]*domain.VerificationCode
	users map[uuid.UUID]*domain.User

	nextCodeID int64
}

func NewStore() *Store {
	return &Store{
		jobs:  make(map[uuid.UUID]*domain.JobPosting),
		apps:  make(map[uuid.UUID]*domain.Application),
		codes: make(map[int64]*domain.VerificationCode),
		users: make(map[uuid.UUID]*domain.User),
	}
}

func (s *Store) Jobs() ports.JobRepository {
	return &jobRepo{store: s}
}

func (s *Store) Applications() ports.ApplicationRepository {
	return &applicationRepo{store: s}
}

func (s *Store) VerificationCodes() ports.VerificationCodeRepository {
	return &codeRepo{store: s}
}

func (s *Store) Users() ports.UserRepository {
	return &userRepo{store: s}
}

func copyJob(job *domain.JobPosting) *domain.JobPosting {
	out := *job
	out.Slots = append([]domain.TimeSlot(nil), job.Slots...)
	return &out
}

func copyApplication(app *domain.Application) *domain.Application {
	out := *app
	out.SlotIDs = append([]uuid.UUID(nil), app.SlotIDs...)
	return &out
}

func copyCode(code *domain.VerificationCode) *domain.VerificationCode {
	out := *code
	return &out
}

func copyUser(user *domain.User) *domain.User {
	out := *user
	out.PasswordHash = append([]byte(nil), user.PasswordHash...)
	out.PasswordSalt = append([]byte(nil), user.PasswordSalt...)
	return &out
}
