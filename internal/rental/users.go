package rental

import (
	"strings"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/talkincode/toughrent/internal/domain"
	"github.com/talkincode/toughrent/pkg/common"
)

// Users manages accounts and their profiles.
type Users struct {
	db *gorm.DB
}

func NewUsers(db *gorm.DB) *Users {
	return &Users{db: db}
}

type RegisterInput struct {
	Username string
	Password string
	Realname string
	Email    string
	Level    string
	Nickname string
}

// Register creates the account and its profile row in one transaction so a
// user never exists without a profile.
func (s *Users) Register(in RegisterInput) (*domain.SysUser, error) {
	in.Username = strings.TrimSpace(in.Username)
	if in.Username == "" {
		return nil, &ValidationError{Field: "username", Message: "username is required"}
	}
	if len(in.Password) < 6 {
		return nil, &ValidationError{Field: "password", Message: "password must be at least 6 characters"}
	}
	switch in.Level {
	case "":
		in.Level = domain.LevelUser
	case domain.LevelUser, domain.LevelStaff, domain.LevelAdmin:
	default:
		return nil, &ValidationError{Field: "level", Message: "invalid level"}
	}

	var count int64
	if err := s.db.Model(&domain.SysUser{}).Where("username = ?", in.Username).Count(&count).Error; err != nil {
		return nil, errors.Wrap(err, "query user")
	}
	if count > 0 {
		return nil, &ConflictError{Message: "username already exists"}
	}

	hashed, err := common.HashPassword(in.Password)
	if err != nil {
		return nil, errors.Wrap(err, "hash password")
	}
	user := &domain.SysUser{
		ID:       common.UUIDint64(),
		Username: in.Username,
		Password: hashed,
		Realname: in.Realname,
		Email:    strings.TrimSpace(in.Email),
		Level:    in.Level,
		Status:   common.ENABLED,
	}
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return errors.Wrap(err, "create user")
		}
		profile := &domain.UserProfile{
			UserID:   user.ID,
			Nickname: in.Nickname,
		}
		if err := tx.Create(profile).Error; err != nil {
			return errors.Wrap(err, "create user profile")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Authenticate checks the credentials and stamps last_login on success.
func (s *Users) Authenticate(username, password string) (*domain.SysUser, error) {
	var user domain.SysUser
	err := s.db.Where("username = ?", strings.TrimSpace(username)).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &AuthorizationError{Capability: "login"}
	}
	if err != nil {
		return nil, errors.Wrap(err, "query user")
	}
	if user.Status == common.DISABLED {
		return nil, &AuthorizationError{Capability: "login"}
	}
	if !common.CheckPassword(user.Password, password) {
		return nil, &AuthorizationError{Capability: "login"}
	}
	_ = s.db.Model(&user).Update("last_login", time.Now()).Error
	return &user, nil
}

// Get loads a user with its profile.
func (s *Users) Get(userID int64) (*domain.SysUser, *domain.UserProfile, error) {
	var user domain.SysUser
	if err := s.db.Where("id = ?", userID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, &NotFoundError{Entity: "user"}
		}
		return nil, nil, errors.Wrap(err, "query user")
	}
	var profile domain.UserProfile
	err := s.db.Where("user_id = ?", userID).First(&profile).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, errors.Wrap(err, "query user profile")
	}
	return &user, &profile, nil
}

type ProfileUpdate struct {
	Realname *string
	Email    *string
	Nickname *string
	Avatar   *string
}

// UpdateProfile edits the caller's own account and profile fields. Username,
// level and status are not editable here.
func (s *Users) UpdateProfile(userID int64, up ProfileUpdate) error {
	userCols := map[string]interface{}{}
	if up.Realname != nil {
		userCols["realname"] = *up.Realname
	}
	if up.Email != nil {
		userCols["email"] = strings.TrimSpace(*up.Email)
	}
	profileCols := map[string]interface{}{}
	if up.Nickname != nil {
		profileCols["nickname"] = *up.Nickname
	}
	if up.Avatar != nil {
		profileCols["avatar"] = *up.Avatar
	}
	if len(userCols) == 0 && len(profileCols) == 0 {
		return nil
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		if len(userCols) > 0 {
			res := tx.Model(&domain.SysUser{}).Where("id = ?", userID).Updates(userCols)
			if res.Error != nil {
				return errors.Wrap(res.Error, "update user")
			}
			if res.RowsAffected == 0 {
				return &NotFoundError{Entity: "user"}
			}
		}
		if len(profileCols) > 0 {
			res := tx.Model(&domain.UserProfile{}).Where("user_id = ?", userID).Updates(profileCols)
			if res.Error != nil {
				return errors.Wrap(res.Error, "update user profile")
			}
			if res.RowsAffected == 0 {
				profile := &domain.UserProfile{UserID: userID}
				if up.Nickname != nil {
					profile.Nickname = *up.Nickname
				}
				if up.Avatar != nil {
					profile.Avatar = *up.Avatar
				}
				if err := tx.Create(profile).Error; err != nil {
					return errors.Wrap(err, "create user profile")
				}
			}
		}
		return nil
	})
}

// ChangePassword verifies the old password before setting the new one.
func (s *Users) ChangePassword(userID int64, oldPassword, newPassword string) error {
	if len(newPassword) < 6 {
		return &ValidationError{Field: "password", Message: "password must be at least 6 characters"}
	}
	var user domain.SysUser
	if err := s.db.Where("id = ?", userID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &NotFoundError{Entity: "user"}
		}
		return errors.Wrap(err, "query user")
	}
	if !common.CheckPassword(user.Password, oldPassword) {
		return &AuthorizationError{Capability: "password"}
	}
	hashed, err := common.HashPassword(newPassword)
	if err != nil {
		return errors.Wrap(err, "hash password")
	}
	return s.db.Model(&user).Update("password", hashed).Error
}
