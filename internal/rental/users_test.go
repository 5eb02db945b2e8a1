package rental

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talkincode/toughrent/internal/domain"
)

func TestRegisterCreatesUserWithProfile(t *testing.T) {
	db := newTestDB(t)
	users := NewUsers(db)

	user, err := users.Register(RegisterInput{
		Username: "alice",
		Password: "sekret123",
		Realname: "Alicja Kowalska",
		Email:    "alice@example.com",
		Nickname: "ala",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.LevelUser, user.Level)
	assert.NotEqual(t, "sekret123", user.Password)

	var profile domain.UserProfile
	require.NoError(t, db.Where("user_id = ?", user.ID).First(&profile).Error)
	assert.Equal(t, "ala", profile.Nickname)
}

func TestRegisterValidation(t *testing.T) {
	db := newTestDB(t)
	users := NewUsers(db)

	var valErr *ValidationError
	_, err := users.Register(RegisterInput{Password: "sekret123"})
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, "username", valErr.Field)

	_, err = users.Register(RegisterInput{Username: "alice", Password: "abc"})
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, "password", valErr.Field)

	_, err = users.Register(RegisterInput{Username: "alice", Password: "sekret123", Level: "root"})
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, "level", valErr.Field)

	_, err = users.Register(RegisterInput{Username: "alice", Password: "sekret123"})
	require.NoError(t, err)

	_, err = users.Register(RegisterInput{Username: "alice", Password: "sekret123"})
	var confErr *ConflictError
	require.ErrorAs(t, err, &confErr)
}

func TestAuthenticate(t *testing.T) {
	db := newTestDB(t)
	users := NewUsers(db)

	_, err := users.Register(RegisterInput{Username: "alice", Password: "sekret123"})
	require.NoError(t, err)

	user, err := users.Authenticate("alice", "sekret123")
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)

	var authErr *AuthorizationError
	_, err = users.Authenticate("alice", "wrong")
	require.ErrorAs(t, err, &authErr)

	_, err = users.Authenticate("nobody", "sekret123")
	require.ErrorAs(t, err, &authErr)
}

func TestAuthenticateDisabledAccount(t *testing.T) {
	db := newTestDB(t)
	users := NewUsers(db)

	user, err := users.Register(RegisterInput{Username: "alice", Password: "sekret123"})
	require.NoError(t, err)
	require.NoError(t, db.Model(user).Update("status", "disabled").Error)

	var authErr *AuthorizationError
	_, err = users.Authenticate("alice", "sekret123")
	require.ErrorAs(t, err, &authErr)
}

func TestUpdateProfile(t *testing.T) {
	db := newTestDB(t)
	users := NewUsers(db)

	user, err := users.Register(RegisterInput{Username: "alice", Password: "sekret123"})
	require.NoError(t, err)

	email := "new@example.com"
	nickname := "queen"
	require.NoError(t, users.UpdateProfile(user.ID, ProfileUpdate{
		Email:    &email,
		Nickname: &nickname,
	}))

	got, profile, err := users.Get(user.ID)
	require.NoError(t, err)
	assert.Equal(t, email, got.Email)
	assert.Equal(t, nickname, profile.Nickname)

	err = users.UpdateProfile(987654, ProfileUpdate{Email: &email})
	var nfErr *NotFoundError
	require.ErrorAs(t, err, &nfErr)
}

func TestChangePassword(t *testing.T) {
	db := newTestDB(t)
	users := NewUsers(db)

	user, err := users.Register(RegisterInput{Username: "alice", Password: "sekret123"})
	require.NoError(t, err)

	var authErr *AuthorizationError
	err = users.ChangePassword(user.ID, "wrong", "noweHaslo1")
	require.ErrorAs(t, err, &authErr)

	require.NoError(t, users.ChangePassword(user.ID, "sekret123", "noweHaslo1"))

	_, err = users.Authenticate("alice", "noweHaslo1")
	require.NoError(t, err)
	_, err = users.Authenticate("alice", "sekret123")
	require.ErrorAs(t, err, &authErr)
}
