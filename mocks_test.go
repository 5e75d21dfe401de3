package identity_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-identity"
)

// runTxCallback invokes the transaction body handed to a mocked RunInTx and
// asserts it succeeds
func runTxCallback(t *testing.T) func(mock.Arguments) {
	return func(args mock.Arguments) {
		fn := args.Get(2).(func(context.Context, bun.Tx) error)
		var tx bun.Tx
		require.NoError(t, fn(args.Get(0).(context.Context), tx))
	}
}

// runTxCallbackErr invokes the transaction body and asserts it fails with
// the given error
func runTxCallbackErr(t *testing.T, want error) func(mock.Arguments) {
	return func(args mock.Arguments) {
		fn := args.Get(2).(func(context.Context, bun.Tx) error)
		var tx bun.Tx
		require.ErrorIs(t, fn(args.Get(0).(context.Context), tx), want)
	}
}

// MockUsers stubs the credential store. The embedded Repository interface
// covers methods no test exercises; calling one of those panics.
type MockUsers struct {
	mock.Mock
	repository.Repository[*identity.User]
}

func (m *MockUsers) GetByID(ctx context.Context, id string, criteria ...repository.SelectCriteria) (*identity.User, error) {
	args := m.Called(ctx, id, criteria)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *MockUsers) CreateTx(ctx context.Context, tx bun.IDB, record *identity.User, criteria ...repository.InsertCriteria) (*identity.User, error) {
	args := m.Called(ctx, tx, record, criteria)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *MockUsers) GetByEmail(ctx context.Context, email string) (*identity.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *MockUsers) GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*identity.User, error) {
	args := m.Called(ctx, tx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *MockUsers) GetByVerificationToken(ctx context.Context, token string) (*identity.User, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *MockUsers) GetByVerificationTokenTx(ctx context.Context, tx bun.IDB, token string) (*identity.User, error) {
	args := m.Called(ctx, tx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *MockUsers) StoreSessionToken(ctx context.Context, id uuid.UUID, token string) error {
	args := m.Called(ctx, id, token)
	return args.Error(0)
}

func (m *MockUsers) StoreSessionTokenTx(ctx context.Context, tx bun.IDB, id uuid.UUID, token string) error {
	args := m.Called(ctx, tx, id, token)
	return args.Error(0)
}

func (m *MockUsers) ClearSessionToken(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockUsers) ClearSessionTokenTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error {
	args := m.Called(ctx, tx, id)
	return args.Error(0)
}

func (m *MockUsers) MarkVerified(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockUsers) MarkVerifiedTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error {
	args := m.Called(ctx, tx, id)
	return args.Error(0)
}

func (m *MockUsers) SetAvatarURL(ctx context.Context, id uuid.UUID, url string) error {
	args := m.Called(ctx, id, url)
	return args.Error(0)
}

func (m *MockUsers) SetAvatarURLTx(ctx context.Context, tx bun.IDB, id uuid.UUID, url string) error {
	args := m.Called(ctx, tx, id, url)
	return args.Error(0)
}

// MockContacts stubs the contacts store
type MockContacts struct {
	mock.Mock
	repository.Repository[*identity.Contact]
}

func (m *MockContacts) Create(ctx context.Context, record *identity.Contact, criteria ...repository.InsertCriteria) (*identity.Contact, error) {
	args := m.Called(ctx, record, criteria)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.Contact), args.Error(1)
}

func (m *MockContacts) ListByOwner(ctx context.Context, owner uuid.UUID) ([]*identity.Contact, error) {
	args := m.Called(ctx, owner)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*identity.Contact), args.Error(1)
}

func (m *MockContacts) ListByOwnerTx(ctx context.Context, tx bun.IDB, owner uuid.UUID) ([]*identity.Contact, error) {
	args := m.Called(ctx, tx, owner)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*identity.Contact), args.Error(1)
}

func (m *MockContacts) GetOwned(ctx context.Context, owner uuid.UUID, id string) (*identity.Contact, error) {
	args := m.Called(ctx, owner, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.Contact), args.Error(1)
}

func (m *MockContacts) GetOwnedTx(ctx context.Context, tx bun.IDB, owner uuid.UUID, id string) (*identity.Contact, error) {
	args := m.Called(ctx, tx, owner, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.Contact), args.Error(1)
}

func (m *MockContacts) UpdateOwned(ctx context.Context, owner uuid.UUID, id string, record *identity.Contact) (*identity.Contact, error) {
	args := m.Called(ctx, owner, id, record)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.Contact), args.Error(1)
}

func (m *MockContacts) SetFavorite(ctx context.Context, owner uuid.UUID, id string, favorite bool) (*identity.Contact, error) {
	args := m.Called(ctx, owner, id, favorite)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.Contact), args.Error(1)
}

func (m *MockContacts) DeleteOwned(ctx context.Context, owner uuid.UUID, id string) error {
	args := m.Called(ctx, owner, id)
	return args.Error(0)
}

// MockRepositoryManager stubs the repository aggregate. RunInTx expectations
// typically Run the callback with a zero bun.Tx so the flow under test sees
// the same transaction scoped calls it would in production.
type MockRepositoryManager struct {
	mock.Mock
}

func (m *MockRepositoryManager) Validate() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockRepositoryManager) MustValidate() {
	m.Called()
}

func (m *MockRepositoryManager) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	args := m.Called(ctx, opts, f)
	return args.Error(0)
}

func (m *MockRepositoryManager) Users() identity.Users {
	args := m.Called()
	return args.Get(0).(identity.Users)
}

func (m *MockRepositoryManager) Contacts() identity.Contacts {
	args := m.Called()
	return args.Get(0).(identity.Contacts)
}

// MockMailer records composed messages
type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) Send(ctx context.Context, msg identity.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

// MockTokenService stubs JWT issuance and validation
type MockTokenService struct {
	mock.Mock
}

func (m *MockTokenService) Generate(userID string) (string, error) {
	args := m.Called(userID)
	return args.String(0), args.Error(1)
}

func (m *MockTokenService) Validate(tokenString string) (string, error) {
	args := m.Called(tokenString)
	return args.String(0), args.Error(1)
}
