package identity_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"github.com/goliatone/go-identity"
)

func setupStore(t *testing.T) identity.RepositoryManager {
	t.Helper()

	dsn := "file:" + filepath.Join(t.TempDir(), "identity_test.db")

	sqlDB, err := sql.Open(sqliteshim.ShimName, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, identity.ApplyMigrations(sqlDB, identity.GetMigrationsFS(), identity.MigrationsDir))

	db := bun.NewDB(sqlDB, sqlitedialect.New())

	repo := identity.NewRepositoryManager(db)
	require.NoError(t, repo.Validate())

	return repo
}

func TestAccountLifecycleAgainstStore(t *testing.T) {
	ctx := context.Background()
	repo := setupStore(t)
	mailer := &MockMailer{}
	mailer.On("Send", mock.Anything, mock.Anything).Return(nil)

	svc := identity.NewAccounts(repo, testConfig{}).WithMailer(mailer)

	profile, err := svc.Register(ctx, "john@example.com", "password123", "")
	require.NoError(t, err)
	assert.Equal(t, "john@example.com", profile.Email)
	assert.Equal(t, identity.SubscriptionStarter, profile.Subscription)

	// stored record is unverified and carries a verification token
	user, err := repo.Users().GetByEmail(ctx, "john@example.com")
	require.NoError(t, err)
	assert.False(t, user.Verified)
	assert.NotEmpty(t, user.VerificationToken)
	assert.NotEqual(t, "password123", user.PasswordHash)
	assert.Contains(t, user.AvatarURL, "gravatar.com")

	// duplicate registration refused
	_, err = svc.Register(ctx, "john@example.com", "password123", "")
	require.ErrorIs(t, err, identity.ErrEmailInUse)

	// login gated on verification
	_, _, err = svc.Login(ctx, "john@example.com", "password123")
	require.ErrorIs(t, err, identity.ErrEmailNotVerified)

	require.NoError(t, svc.ConfirmVerification(ctx, user.VerificationToken))

	// the token is one-shot
	err = svc.ConfirmVerification(ctx, user.VerificationToken)
	require.ErrorIs(t, err, identity.ErrUserNotFound)

	token, _, err := svc.Login(ctx, "john@example.com", "password123")
	require.NoError(t, err)

	user, err = repo.Users().GetByEmail(ctx, "john@example.com")
	require.NoError(t, err)
	assert.True(t, user.Verified)
	assert.Empty(t, user.VerificationToken)
	assert.Equal(t, token, user.SessionToken)

	// a second login supersedes the first session
	token2, _, err := svc.Login(ctx, "john@example.com", "password123")
	require.NoError(t, err)

	user, err = repo.Users().GetByEmail(ctx, "john@example.com")
	require.NoError(t, err)
	assert.Equal(t, token2, user.SessionToken)

	require.NoError(t, svc.Logout(ctx, user.ID))

	user, err = repo.Users().GetByEmail(ctx, "john@example.com")
	require.NoError(t, err)
	assert.Empty(t, user.SessionToken)
}

func TestContactsOwnershipAgainstStore(t *testing.T) {
	ctx := context.Background()
	repo := setupStore(t)

	owner := uuid.New()
	stranger := uuid.New()

	for _, id := range []uuid.UUID{owner, stranger} {
		_, err := repo.Users().Create(ctx, &identity.User{
			ID:           id,
			Email:        id.String() + "@example.com",
			PasswordHash: "hash",
		})
		require.NoError(t, err)
	}

	created, err := repo.Contacts().Create(ctx, &identity.Contact{
		OwnerID: owner,
		Name:    "Jane",
		Email:   "jane@example.com",
		Phone:   "555-0123",
	})
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, created.ID)

	// owner sees the record, the stranger does not
	list, err := repo.Contacts().ListByOwner(ctx, owner)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	list, err = repo.Contacts().ListByOwner(ctx, stranger)
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = repo.Contacts().GetOwned(ctx, stranger, created.ID.String())
	require.Error(t, err)

	got, err := repo.Contacts().GetOwned(ctx, owner, created.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "Jane", got.Name)

	// update, favorite, delete all stay ownership scoped
	updated, err := repo.Contacts().UpdateOwned(ctx, owner, created.ID.String(), &identity.Contact{
		Name:  "Jane Doe",
		Email: "jane@example.com",
		Phone: "555-0124",
	})
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", updated.Name)
	assert.Equal(t, "555-0124", updated.Phone)

	fav, err := repo.Contacts().SetFavorite(ctx, owner, created.ID.String(), true)
	require.NoError(t, err)
	assert.True(t, fav.Favorite)

	err = repo.Contacts().DeleteOwned(ctx, stranger, created.ID.String())
	require.Error(t, err)

	require.NoError(t, repo.Contacts().DeleteOwned(ctx, owner, created.ID.String()))

	list, err = repo.Contacts().ListByOwner(ctx, owner)
	require.NoError(t, err)
	assert.Empty(t, list)
}
