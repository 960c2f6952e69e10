package domain

import (
	"time"

	"github.com/google/uuid"
)

type UserRole string

const (
	RoleWorker   UserRole = "worker"
	RoleEmployer UserRole = "employer"
	RoleAdmin    UserRole = "admin"
)

type User struct {
	ID            uuid.UUID `db:"id" json:"id"`
	Email         string    `db:"email" json:"email"`
	FullName      *string   `db:"full_name" json:"full_name,omitempty"`
	Phone         *string   `db:"phone" json:"phone,omitempty"`
	Role          UserRole  `db:"role" json:"role"`
	PasswordHash  []byte    `db:"password_hash" json:"-"`
	PasswordSalt  []byte    `db:"password_salt" json:"-"`
	EmailVerified bool      `db:"email_verified" json:"email_verified"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

func (u *User) IsEmployer() bool {
	return u.Role == RoleEmployer || u.Role == RoleAdmin
}

func (u *User) IsWorker() bool {
	return u.Role == RoleWorker || u.Role == RoleAdmin
}
