package identity

import (
	"context"
	"strings"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// isUniqueViolation reports whether err is a unique constraint failure from
// the driver. Matched on message text, which is how sqlite surfaces them.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key")
}

// Targeted field updates go through raw SQL: the ORM update path skips zero
// values, which would make it impossible to clear a session token or a
// verification token.
var StoreSessionTokenSQL = `UPDATE "users" AS "usr"
SET
	"session_token" = ?
WHERE
	"usr"."id" = ?
RETURNING *;`

var ClearSessionTokenSQL = `UPDATE "users" AS "usr"
SET
	"session_token" = ''
WHERE
	"usr"."id" = ?
RETURNING *;`

var MarkVerifiedSQL = `UPDATE "users" AS "usr"
SET
	"verified" = TRUE,
	"verification_token" = ''
WHERE
	"usr"."id" = ?
RETURNING *;`

var SetAvatarURLSQL = `UPDATE "users" AS "usr"
SET
	"avatar_url" = ?
WHERE
	"usr"."id" = ?
RETURNING *;`

// Users is the credential store. It owns every identity record; other
// components only borrow them for the duration of one operation.
type Users interface {
	repository.Repository[*User]

	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*User, error)
	GetByVerificationToken(ctx context.Context, token string) (*User, error)
	GetByVerificationTokenTx(ctx context.Context, tx bun.IDB, token string) (*User, error)

	StoreSessionToken(ctx context.Context, id uuid.UUID, token string) error
	StoreSessionTokenTx(ctx context.Context, tx bun.IDB, id uuid.UUID, token string) error
	ClearSessionToken(ctx context.Context, id uuid.UUID) error
	ClearSessionTokenTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error
	MarkVerified(ctx context.Context, id uuid.UUID) error
	MarkVerifiedTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error
	SetAvatarURL(ctx context.Context, id uuid.UUID, url string) error
	SetAvatarURLTx(ctx context.Context, tx bun.IDB, id uuid.UUID, url string) error
}

type users struct {
	repository.Repository[*User]
	db *bun.DB
}

var (
	_ Users                        = (*users)(nil)
	_ repository.Repository[*User] = (*users)(nil)
)

func NewUsersRepository(db *bun.DB) Users {
	repo := repository.NewRepository[*User](db, repository.ModelHandlers[*User]{
		NewRecord: func() *User { return &User{} },
		GetID: func(u *User) uuid.UUID {
			if u == nil {
				return uuid.Nil
			}
			return u.ID
		},
		SetID: func(u *User, id uuid.UUID) {
			if u != nil {
				u.ID = id
			}
		},
		GetIdentifier: func() string {
			return "email"
		},
	})

	return &users{
		Repository: repo,
		db:         db,
	}
}

func (a *users) Create(ctx context.Context, record *User, criteria ...repository.InsertCriteria) (*User, error) {
	return a.CreateTx(ctx, a.db, record, criteria...)
}

func (a *users) CreateTx(ctx context.Context, tx bun.IDB, record *User, criteria ...repository.InsertCriteria) (*User, error) {
	prepareUserDefaults(record)
	return a.Repository.CreateTx(ctx, tx, record, criteria...)
}

func (a *users) GetByEmail(ctx context.Context, email string) (*User, error) {
	return a.GetByEmailTx(ctx, a.db, email)
}

func (a *users) GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*User, error) {
	return a.getByColumnTx(ctx, tx, "email", email)
}

func (a *users) GetByVerificationToken(ctx context.Context, token string) (*User, error) {
	return a.GetByVerificationTokenTx(ctx, a.db, token)
}

func (a *users) GetByVerificationTokenTx(ctx context.Context, tx bun.IDB, token string) (*User, error) {
	if token == "" {
		return nil, repository.NewRecordNotFound()
	}
	return a.getByColumnTx(ctx, tx, "verification_token", token)
}

func (a *users) getByColumnTx(ctx context.Context, tx bun.IDB, column, value string) (*User, error) {
	record := &User{}

	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias."+column+" = ?", value).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{
					column: value,
				})
		}
		return nil, err
	}

	return record, nil
}

func (a *users) StoreSessionToken(ctx context.Context, id uuid.UUID, token string) error {
	return a.StoreSessionTokenTx(ctx, a.db, id, token)
}

func (a *users) StoreSessionTokenTx(ctx context.Context, tx bun.IDB, id uuid.UUID, token string) error {
	return a.execByID(ctx, tx, id, StoreSessionTokenSQL, token, id.String())
}

func (a *users) ClearSessionToken(ctx context.Context, id uuid.UUID) error {
	return a.ClearSessionTokenTx(ctx, a.db, id)
}

func (a *users) ClearSessionTokenTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error {
	return a.execByID(ctx, tx, id, ClearSessionTokenSQL, id.String())
}

func (a *users) MarkVerified(ctx context.Context, id uuid.UUID) error {
	return a.MarkVerifiedTx(ctx, a.db, id)
}

func (a *users) MarkVerifiedTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error {
	return a.execByID(ctx, tx, id, MarkVerifiedSQL, id.String())
}

func (a *users) SetAvatarURL(ctx context.Context, id uuid.UUID, url string) error {
	return a.SetAvatarURLTx(ctx, a.db, id, url)
}

func (a *users) SetAvatarURLTx(ctx context.Context, tx bun.IDB, id uuid.UUID, url string) error {
	return a.execByID(ctx, tx, id, SetAvatarURLSQL, url, id.String())
}

func (a *users) execByID(ctx context.Context, tx bun.IDB, id uuid.UUID, query string, args ...any) error {
	res, err := a.Repository.RawTx(ctx, tx, query, args...)
	if err != nil {
		return err
	}

	if len(res) == 0 {
		return repository.NewRecordNotFound().
			WithMetadata(map[string]any{
				"id": id.String(),
			})
	}

	return nil
}
