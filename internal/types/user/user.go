package user

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleMember   Role = "member"
	RoleApprover Role = "approver"
	RoleAdmin    Role = "admin"
)

type User struct {
	ID        uuid.UUID `json:"id" db:"id"`
	ClerkID   string    `json:"clerkId" db:"clerk_id"`
	Email     string    `json:"email" db:"email"`
	Username  string    `json:"username" db:"username"`
	FirstName string    `json:"firstName" db:"first_name"`
	LastName  string    `json:"lastName" db:"last_name"`
	ImageURL  *string   `json:"imageUrl,omitempty" db:"image_url"`
	Role      Role      `json:"role" db:"role"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// CanApprove reports whether the user may approve or reject workshops.
func (u *User) CanApprove() bool {
	return u != nil && (u.Role == RoleApprover || u.Role == RoleAdmin)
}

type CreateUserRequest struct {
	ClerkID   string `json:"clerkId"`
	Email     string `json:"email"`
	Username  string `json:"username"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	ImageURL  string `json:"imageUrl,omitempty"`
}

// UpdateProfileRequest is a partial update: nil fields are left untouched.
type UpdateProfileRequest struct {
	Username  *string `json:"username,omitempty"`
	FirstName *string `json:"firstName,omitempty"`
	LastName  *string `json:"lastName,omitempty"`
	ImageURL  *string `json:"imageUrl,omitempty"`
	Email     *string `json:"-"`
}

func (r *UpdateProfileRequest) Empty() bool {
	return r == nil || (r.Username == nil && r.FirstName == nil && r.LastName == nil && r.ImageURL == nil && r.Email == nil)
}
