package service

import (
	"errors"
	"strings"
	"time"
	"unicode"

	"github.com/identra/identra/config"
	"github.com/identra/identra/database"
	"github.com/identra/identra/database/model"
	"github.com/identra/identra/logger"
	"github.com/identra/identra/util/crypto"
	"github.com/identra/identra/web/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrUserExists      = errors.New("user already exists")
	ErrUserNotFound    = errors.New("user not found")
	ErrInvalidPassword = errors.New("invalid password")
	ErrUserLockedOut   = errors.New("user is locked out")
)

// PasswordPolicyError reports which password requirements were not met.
// With the default options every requirement is disabled, so it only fires
// on a hardened deployment.
type PasswordPolicyError struct {
	Reasons []string
}

func (e *PasswordPolicyError) Error() string {
	return "password rejected: " + strings.Join(e.Reasons, ", ")
}

// UserService implements registration, credential checks and profile reads
// against the identity store.
type UserService struct {
	Options config.IdentityOptions

	roleService RoleService
}

func (s *UserService) FindByEmail(email string) (*model.User, error) {
	db := database.GetDB()

	user := &model.User{}
	err := db.Model(model.User{}).
		Where("user_name = ?", email).
		First(user).
		Error
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Register creates a user with a fresh security stamp and links it to the
// named role, creating the role on first use. Returns ErrUserExists when the
// email is already registered.
func (s *UserService) Register(email, password, firstName, lastName, roleName string) (*model.User, []string, error) {
	if reasons := s.validatePassword(password); len(reasons) > 0 {
		return nil, nil, &PasswordPolicyError{Reasons: reasons}
	}

	if _, err := s.FindByEmail(email); err == nil {
		return nil, nil, ErrUserExists
	} else if !database.IsNotFound(err) {
		return nil, nil, err
	}

	hash, err := crypto.HashPasswordAsBcrypt(password)
	if err != nil {
		return nil, nil, err
	}

	user := &model.User{
		Id:            uuid.NewString(),
		UserName:      email,
		Email:         email,
		FirstName:     firstName,
		LastName:      lastName,
		PasswordHash:  hash,
		SecurityStamp: crypto.NewSecurityStamp(),
	}

	var roles []string
	err = database.GetDB().Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return err
		}
		role, err := s.roleService.GetOrCreate(tx, roleName)
		if err != nil {
			return err
		}
		if err := s.roleService.AddToRole(tx, user.Id, role.Id); err != nil {
			return err
		}
		roles = []string{role.Name}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	return user, roles, nil
}

// Authenticate verifies the credentials for an email. Failed attempts count
// toward lockout; a successful login resets the counters.
func (s *UserService) Authenticate(email, password string) (*model.User, []string, error) {
	db := database.GetDB()

	user, err := s.FindByEmail(email)
	if database.IsNotFound(err) {
		return nil, nil, ErrUserNotFound
	} else if err != nil {
		return nil, nil, err
	}

	if s.isLockedOut(user) {
		return nil, nil, ErrUserLockedOut
	}

	if !crypto.CheckPasswordHash(user.PasswordHash, password) {
		if err := s.recordFailedAttempt(db, user); err != nil {
			logger.Warning("record failed login attempt:", err)
		}
		return nil, nil, ErrInvalidPassword
	}

	if user.AccessFailedCount != 0 || user.LockoutEnd != nil {
		err := db.Model(model.User{}).
			Where("id = ?", user.Id).
			Updates(map[string]any{"access_failed_count": 0, "lockout_end": nil}).
			Error
		if err != nil {
			logger.Warning("reset lockout counters:", err)
		}
	}

	roles, err := s.roleService.RolesForUser(db, user.Id)
	if err != nil {
		return nil, nil, err
	}
	return user, roles, nil
}

// GetUser loads a user by id together with its role names. Returns
// ErrUserNotFound when the id no longer resolves.
func (s *UserService) GetUser(id string) (*model.User, []string, error) {
	db := database.GetDB()

	user := &model.User{}
	err := db.Model(model.User{}).
		Where("id = ?", id).
		First(user).
		Error
	if database.IsNotFound(err) {
		return nil, nil, ErrUserNotFound
	} else if err != nil {
		return nil, nil, err
	}

	roles, err := s.roleService.RolesForUser(db, user.Id)
	if err != nil {
		return nil, nil, err
	}
	return user, roles, nil
}

// GetSecurityStamp reads the current stamp for a user id. Sessions carrying
// a stale stamp are rejected.
func (s *UserService) GetSecurityStamp(id string) (string, error) {
	db := database.GetDB()

	var stamps []string
	err := db.Model(model.User{}).
		Where("id = ?", id).
		Limit(1).
		Pluck("security_stamp", &stamps).
		Error
	if err != nil {
		return "", err
	}
	if len(stamps) == 0 {
		return "", ErrUserNotFound
	}
	return stamps[0], nil
}

// ListUsers returns the public projection of every user, roles included.
func (s *UserService) ListUsers() ([]entity.UserInfo, error) {
	db := database.GetDB()

	var users []model.User
	if err := db.Order("created_at ASC").Find(&users).Error; err != nil {
		return nil, err
	}

	type link struct {
		UserId string
		Name   string
	}
	var links []link
	err := db.Model(&model.UserRole{}).
		Select("user_roles.user_id, roles.name").
		Joins("JOIN roles ON roles.id = user_roles.role_id").
		Scan(&links).
		Error
	if err != nil {
		return nil, err
	}
	rolesByUser := make(map[string][]string, len(users))
	for _, l := range links {
		rolesByUser[l.UserId] = append(rolesByUser[l.UserId], l.Name)
	}

	out := make([]entity.UserInfo, 0, len(users))
	for i := range users {
		out = append(out, entity.NewUserInfo(&users[i], rolesByUser[users[i].Id]))
	}
	return out, nil
}

func (s *UserService) isLockedOut(user *model.User) bool {
	return user.LockoutEnd != nil && user.LockoutEnd.After(time.Now())
}

func (s *UserService) recordFailedAttempt(db *gorm.DB, user *model.User) error {
	lockout := s.Options.Lockout
	if !lockout.EnabledForNewUsers || lockout.MaxFailedAttempts <= 0 {
		return nil
	}

	count := user.AccessFailedCount + 1
	updates := map[string]any{"access_failed_count": count}
	if count >= lockout.MaxFailedAttempts {
		end := time.Now().Add(lockout.Window())
		updates["lockout_end"] = end
		updates["access_failed_count"] = 0
		logger.Warningf("user %s locked out until %s", user.UserName, end.Format(time.RFC3339))
	}
	return db.Model(model.User{}).
		Where("id = ?", user.Id).
		Updates(updates).
		Error
}

func (s *UserService) validatePassword(password string) []string {
	policy := s.Options.Password

	var reasons []string
	if len(password) < policy.RequiredLength {
		reasons = append(reasons, "too short")
	}
	var hasDigit, hasLower, hasUpper, hasOther bool
	for _, r := range password {
		switch {
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsUpper(r):
			hasUpper = true
		default:
			hasOther = true
		}
	}
	if policy.RequireDigit && !hasDigit {
		reasons = append(reasons, "digit required")
	}
	if policy.RequireLowercase && !hasLower {
		reasons = append(reasons, "lowercase letter required")
	}
	if policy.RequireUppercase && !hasUpper {
		reasons = append(reasons, "uppercase letter required")
	}
	if policy.RequireNonAlphanumeric && !hasOther {
		reasons = append(reasons, "symbol required")
	}
	return reasons
}
