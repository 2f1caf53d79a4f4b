package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"beerstock/pkg/beer/domain/model"
)

const mysqlDuplicateEntry = 1062

const beerColumns = "id, name, brand, type, max, quantity, version, created_at, updated_at"

var _ model.BeerRepository = (*MySQLRepository)(nil)

type MySQLRepository struct {
	db *sqlx.DB
}

func NewMySQLRepository(db *sqlx.DB) *MySQLRepository {
	return &MySQLRepository{db: db}
}

// OpenMySQL connects to the DSN. The DSN must carry parseTime=true.
func OpenMySQL(ctx context.Context, dsn string) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, "mysql", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to mysql")
	}
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(5 * time.Minute)
	return db, nil
}

func (r *MySQLRepository) NextID() (uuid.UUID, error) {
	return uuid.NewRandom()
}

func (r *MySQLRepository) Create(ctx context.Context, beer *model.Beer) error {
	_, err := r.db.NamedExecContext(ctx,
		`INSERT INTO beer (`+beerColumns+`)
		 VALUES (:id, :name, :brand, :type, :max, :quantity, :version, :created_at, :updated_at)`,
		beer,
	)
	if isDuplicateEntry(err) {
		return model.ErrDuplicateName
	}
	return errors.Wrapf(err, "failed to insert beer %s", beer.ID)
}

// Update stores the new quantity. Identity fields are fixed at registration.
func (r *MySQLRepository) Update(ctx context.Context, beer *model.Beer) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE beer
		 SET quantity = ?, version = ?, updated_at = ?
		 WHERE id = ? AND version = ?`,
		beer.Quantity, beer.Version, beer.UpdatedAt,
		beer.ID, beer.Version-1,
	)
	if err != nil {
		return errors.Wrapf(err, "failed to update beer %s", beer.ID)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to read affected rows")
	}
	if affected > 0 {
		return nil
	}

	// Nothing matched: the row is gone or its version moved on.
	if _, err := r.Find(ctx, beer.ID); err != nil {
		return err
	}
	return model.ErrOptimisticLock
}

func (r *MySQLRepository) Find(ctx context.Context, id uuid.UUID) (*model.Beer, error) {
	var beer model.Beer
	err := r.db.GetContext(ctx, &beer, `SELECT `+beerColumns+` FROM beer WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrBeerNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to find beer %s", id)
	}
	return &beer, nil
}

func (r *MySQLRepository) FindByName(ctx context.Context, name string) (*model.Beer, error) {
	var beer model.Beer
	err := r.db.GetContext(ctx, &beer, `SELECT `+beerColumns+` FROM beer WHERE name = ?`, name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrBeerNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to find beer by name %q", name)
	}
	return &beer, nil
}

func (r *MySQLRepository) ListAll(ctx context.Context) ([]model.Beer, error) {
	beers := []model.Beer{}
	err := r.db.SelectContext(ctx, &beers, `SELECT `+beerColumns+` FROM beer ORDER BY created_at, id`)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list beers")
	}
	return beers, nil
}

func (r *MySQLRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM beer WHERE id = ?`, id)
	if err != nil {
		return errors.Wrapf(err, "failed to delete beer %s", id)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to read affected rows")
	}
	if affected == 0 {
		return model.ErrBeerNotFound
	}
	return nil
}

func isDuplicateEntry(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry
}
