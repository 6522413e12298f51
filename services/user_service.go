package services

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"careerHubAPI/internal/apperr"
	"careerHubAPI/internal/logger"
	"careerHubAPI/internal/repository"
	"careerHubAPI/internal/types/user"
)

const maxNameLen = 100

type UserService struct {
	db    repository.DBTX
	users repository.UserRepository
	log   *logger.Logger
}

func NewUserService(db repository.DBTX, users repository.UserRepository, log *logger.Logger) *UserService {
	return &UserService{db: db, users: users, log: log.With("service", "user")}
}

// CreateUser inserts the user behind a Clerk account. Replays for a known
// clerk id return the existing row.
func (s *UserService) CreateUser(ctx context.Context, req *user.CreateUserRequest) (*user.User, error) {
	if req == nil || strings.TrimSpace(req.ClerkID) == "" {
		return nil, apperr.Validation("clerk id is required")
	}

	now := utcNow()
	u := &user.User{
		ID:        uuid.New(),
		ClerkID:   strings.TrimSpace(req.ClerkID),
		Email:     strings.TrimSpace(req.Email),
		Username:  strings.TrimSpace(req.Username),
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
		Role:      user.RoleMember,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if req.ImageURL != "" {
		img := req.ImageURL
		u.ImageURL = &img
	}
	if u.Username == "" {
		u.Username = defaultUsername(u)
	}

	created, err := s.users.Create(ctx, s.db, u)
	if err != nil {
		return nil, apperr.Lift(err)
	}
	s.log.Info("user created", "user_id", created.ID, "clerk_id", created.ClerkID)
	return created, nil
}

func (s *UserService) GetUserByClerkID(ctx context.Context, clerkID string) (*user.User, error) {
	return resolveUser(ctx, s.users, s.db, clerkID)
}

// UpdateProfileByClerkID applies the fields present in req. An empty request
// returns the profile unchanged.
func (s *UserService) UpdateProfileByClerkID(ctx context.Context, clerkID string, req *user.UpdateProfileRequest) (*user.User, error) {
	if req.Empty() {
		return s.GetUserByClerkID(ctx, clerkID)
	}
	for name, v := range map[string]*string{"username": req.Username, "firstName": req.FirstName, "lastName": req.LastName} {
		if v == nil {
			continue
		}
		trimmed := strings.TrimSpace(*v)
		if utf8.RuneCountInString(trimmed) > maxNameLen {
			return nil, apperr.Validation("%s must be at most %d characters", name, maxNameLen)
		}
		*v = trimmed
	}
	if req.Username != nil && *req.Username == "" {
		return nil, apperr.Validation("username cannot be empty")
	}

	u, err := s.users.UpdateProfile(ctx, s.db, clerkID, req)
	if err != nil {
		return nil, liftRepoErr(err, "user")
	}
	return u, nil
}

func (s *UserService) DeleteUserByClerkID(ctx context.Context, clerkID string) error {
	if err := s.users.DeleteByClerkID(ctx, s.db, clerkID); err != nil {
		return liftRepoErr(err, "user")
	}
	s.log.Info("user deleted", "clerk_id", clerkID)
	return nil
}

func defaultUsername(u *user.User) string {
	if local, _, ok := strings.Cut(u.Email, "@"); ok && local != "" {
		return local
	}
	if name := strings.TrimSpace(u.FirstName + " " + u.LastName); name != "" {
		return name
	}
	return "user_" + u.ID.String()[:8]
}
