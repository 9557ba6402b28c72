package user

import (
	"context"
	"testing"
	"time"

	"modaMarket/domain"
	redisrepo "modaMarket/internal/repository/redis"
	"modaMarket/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memUserRepo struct {
	nextID uint
	users  map[uint]domain.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{nextID: 1, users: make(map[uint]domain.User)}
}

func (r *memUserRepo) Create(_ context.Context, user *domain.User) error {
	user.ID = r.nextID
	r.nextID++
	r.users[user.ID] = *user
	return nil
}

func (r *memUserRepo) FindByID(_ context.Context, id uint) (domain.User, error) {
	u, ok := r.users[id]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	return u, nil
}

func (r *memUserRepo) FindByEmail(_ context.Context, email string) (domain.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return domain.User{}, domain.ErrUserNotFound
}

func (r *memUserRepo) UpdateProfile(_ context.Context, user *domain.User) error {
	u, ok := r.users[user.ID]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.FullName = user.FullName
	u.AgeBin = user.AgeBin
	u.PreferredCategories = user.PreferredCategories
	r.users[user.ID] = u
	return nil
}

type memTokenRepo struct {
	byUser  map[string]string
	byToken map[string]string
}

func newMemTokenRepo() *memTokenRepo {
	return &memTokenRepo{byUser: make(map[string]string), byToken: make(map[string]string)}
}

func (r *memTokenRepo) StoreToken(_ context.Context, userID, token string, _ redisrepo.TokenData, _ time.Duration) error {
	r.byUser[userID] = token
	r.byToken[token] = userID
	return nil
}

func (r *memTokenRepo) ValidateToken(_ context.Context, token string) (string, error) {
	userID, ok := r.byToken[token]
	if !ok {
		return "", domain.ErrUnauthorized
	}
	return userID, nil
}

func (r *memTokenRepo) DeleteToken(_ context.Context, userID string) error {
	token := r.byUser[userID]
	delete(r.byToken, token)
	delete(r.byUser, userID)
	return nil
}

func newTestService() (*userService, *memUserRepo, *memTokenRepo) {
	users := newMemUserRepo()
	tokens := newMemTokenRepo()
	return NewUserService(users, tokens, "test-secret"), users, tokens
}

func validRegistration() *domain.User {
	return &domain.User{
		Email:               "ana@example.com",
		Password:            "sup3rsecret",
		FullName:            "Ana Silva",
		AgeBin:              "26-35",
		PreferredCategories: "Trousers,Dresses",
	}
}

func TestRegister(t *testing.T) {
	svc, repo, _ := newTestService()

	created, err := svc.Register(context.Background(), validRegistration())
	require.NoError(t, err)

	assert.NotZero(t, created.ID)
	assert.Equal(t, RoleCustomer, created.Role)
	assert.Empty(t, created.Password, "hash never leaves the service")

	stored := repo.users[created.ID]
	assert.NotEqual(t, "sup3rsecret", stored.Password, "password is stored hashed")
	assert.True(t, utils.CheckPassword("sup3rsecret", stored.Password))
}

func TestRegisterRejectsBadInput(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	cases := []struct {
		name   string
		mutate func(*domain.User)
	}{
		{"bad email", func(u *domain.User) { u.Email = "not-an-email" }},
		{"short password", func(u *domain.User) { u.Password = "abc" }},
		{"missing name", func(u *domain.User) { u.FullName = "" }},
		{"unknown age bin", func(u *domain.User) { u.AgeBin = "90+" }},
		{"unknown category", func(u *domain.User) { u.PreferredCategories = "Spaceships" }},
		{"too many categories", func(u *domain.User) { u.PreferredCategories = "Trousers,Dresses,Shoes,Jackets" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			reg := validRegistration()
			tc.mutate(reg)

			_, err := svc.Register(ctx, reg)
			assert.ErrorIs(t, err, domain.ErrBadParamInput)
		})
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Register(ctx, validRegistration())
	require.NoError(t, err)

	_, err = svc.Register(ctx, validRegistration())
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestLoginAndLogout(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	created, err := svc.Register(ctx, validRegistration())
	require.NoError(t, err)

	token, user, err := svc.Login(ctx, "ana@example.com", "sup3rsecret", "127.0.0.1", "go-test")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, created.ID, user.ID)
	assert.Empty(t, user.Password)

	claims, err := utils.ParseJWT("test-secret", token)
	require.NoError(t, err)
	assert.Equal(t, RoleCustomer, claims.Role)

	userID, err := svc.ValidateTokenFromRedis(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, claims.UserID, userID)

	require.NoError(t, svc.Logout(ctx, created.ID))
	_, err = svc.ValidateTokenFromRedis(ctx, token)
	assert.Error(t, err, "logged-out token no longer validates")
}

func TestLoginWrongPassword(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Register(ctx, validRegistration())
	require.NoError(t, err)

	_, _, err = svc.Login(ctx, "ana@example.com", "wrong", "", "")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, _, err = svc.Login(ctx, "nobody@example.com", "whatever", "", "")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestUpdateProfile(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	created, err := svc.Register(ctx, validRegistration())
	require.NoError(t, err)

	updated, err := svc.UpdateProfile(ctx, created.ID, "Ana S.", "36-45", "Shoes")
	require.NoError(t, err)
	assert.Equal(t, "Ana S.", updated.FullName)
	assert.Equal(t, "36-45", updated.AgeBin)
	assert.Equal(t, "Shoes", updated.PreferredCategories)

	_, err = svc.UpdateProfile(ctx, created.ID, "Ana", "invalid", "")
	assert.ErrorIs(t, err, domain.ErrBadParamInput)

	_, err = svc.UpdateProfile(ctx, 999, "Ghost", "", "")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}
