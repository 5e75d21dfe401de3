package identity

import (
	"context"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Contacts stores ownership scoped address book records
type Contacts interface {
	repository.Repository[*Contact]

	ListByOwner(ctx context.Context, owner uuid.UUID) ([]*Contact, error)
	ListByOwnerTx(ctx context.Context, tx bun.IDB, owner uuid.UUID) ([]*Contact, error)
	GetOwned(ctx context.Context, owner uuid.UUID, id string) (*Contact, error)
	GetOwnedTx(ctx context.Context, tx bun.IDB, owner uuid.UUID, id string) (*Contact, error)
	UpdateOwned(ctx context.Context, owner uuid.UUID, id string, record *Contact) (*Contact, error)
	SetFavorite(ctx context.Context, owner uuid.UUID, id string, favorite bool) (*Contact, error)
	DeleteOwned(ctx context.Context, owner uuid.UUID, id string) error
}

type contacts struct {
	repository.Repository[*Contact]
	db *bun.DB
}

var _ Contacts = (*contacts)(nil)

func NewContactsRepository(db *bun.DB) Contacts {
	repo := repository.NewRepository[*Contact](db, repository.ModelHandlers[*Contact]{
		NewRecord: func() *Contact { return &Contact{} },
		GetID: func(c *Contact) uuid.UUID {
			if c == nil {
				return uuid.Nil
			}
			return c.ID
		},
		SetID: func(c *Contact, id uuid.UUID) {
			if c != nil {
				c.ID = id
			}
		},
	})

	return &contacts{
		Repository: repo,
		db:         db,
	}
}

func (a *contacts) Create(ctx context.Context, record *Contact, criteria ...repository.InsertCriteria) (*Contact, error) {
	return a.CreateTx(ctx, a.db, record, criteria...)
}

func (a *contacts) CreateTx(ctx context.Context, tx bun.IDB, record *Contact, criteria ...repository.InsertCriteria) (*Contact, error) {
	if record != nil && record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	return a.Repository.CreateTx(ctx, tx, record, criteria...)
}

func (a *contacts) ListByOwner(ctx context.Context, owner uuid.UUID) ([]*Contact, error) {
	return a.ListByOwnerTx(ctx, a.db, owner)
}

func (a *contacts) ListByOwnerTx(ctx context.Context, tx bun.IDB, owner uuid.UUID) ([]*Contact, error) {
	records := []*Contact{}

	err := tx.NewSelect().
		Model(&records).
		Where("?TableAlias.owner_id = ?", owner.String()).
		Order("created_at ASC").
		Scan(ctx)

	if err != nil {
		return nil, err
	}

	return records, nil
}

func (a *contacts) GetOwned(ctx context.Context, owner uuid.UUID, id string) (*Contact, error) {
	return a.GetOwnedTx(ctx, a.db, owner, id)
}

func (a *contacts) GetOwnedTx(ctx context.Context, tx bun.IDB, owner uuid.UUID, id string) (*Contact, error) {
	record := &Contact{}

	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.id = ?", id).
		Where("?TableAlias.owner_id = ?", owner.String()).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{
					"id":    id,
					"owner": owner.String(),
				})
		}
		return nil, err
	}

	return record, nil
}

// UpdateOwned replaces the mutable fields of an owned contact. Boolean and
// empty-string fields are written explicitly so zero values are not skipped.
func (a *contacts) UpdateOwned(ctx context.Context, owner uuid.UUID, id string, record *Contact) (*Contact, error) {
	res, err := a.db.NewUpdate().
		Model(record).
		Column("name", "email", "phone", "favorite").
		Where("?TableAlias.id = ?", id).
		Where("?TableAlias.owner_id = ?", owner.String()).
		Exec(ctx)

	if err != nil {
		return nil, err
	}

	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		return nil, repository.NewRecordNotFound().
			WithMetadata(map[string]any{"id": id})
	}

	return a.GetOwned(ctx, owner, id)
}

func (a *contacts) SetFavorite(ctx context.Context, owner uuid.UUID, id string, favorite bool) (*Contact, error) {
	res, err := a.db.NewUpdate().
		Model((*Contact)(nil)).
		Set("favorite = ?", favorite).
		Where("?TableAlias.id = ?", id).
		Where("?TableAlias.owner_id = ?", owner.String()).
		Exec(ctx)

	if err != nil {
		return nil, err
	}

	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		return nil, repository.NewRecordNotFound().
			WithMetadata(map[string]any{"id": id})
	}

	return a.GetOwned(ctx, owner, id)
}

func (a *contacts) DeleteOwned(ctx context.Context, owner uuid.UUID, id string) error {
	res, err := a.db.NewDelete().
		Model((*Contact)(nil)).
		Where("?TableAlias.id = ?", id).
		Where("?TableAlias.owner_id = ?", owner.String()).
		Exec(ctx)

	if err != nil {
		return err
	}

	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		return repository.NewRecordNotFound().
			WithMetadata(map[string]any{"id": id})
	}

	return nil
}
