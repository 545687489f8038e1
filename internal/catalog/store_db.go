package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	pingTimeout  = 1 * time.Second
	queryTimeout = 3 * time.Second

	pgNotNullCode = "23502"
)

// PostgresStore keeps products in the products table created by the
// embedded migrations. The *sql.DB is expected to use the pgx driver.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return storeErr("ping", withTimeout(ctx, pingTimeout, func(ctx context.Context) error {
		return s.db.PingContext(ctx)
	}))
}

func (s *PostgresStore) List(ctx context.Context) ([]Product, error) {
	var out []Product

	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		rows, err := s.db.QueryContext(ctx, `
			SELECT id, name, price, description
			FROM products
			ORDER BY id ASC
		`)
		if err != nil {
			return err
		}
		defer rows.Close()

		out = make([]Product, 0, 16)
		for rows.Next() {
			p, err := scanProduct(rows)
			if err != nil {
				return err
			}
			out = append(out, p)
		}
		return rows.Err()
	})

	if err != nil {
		return nil, storeErr("list", err)
	}
	return out, nil
}

func (s *PostgresStore) Get(ctx context.Context, id int64) (Product, bool, error) {
	var (
		p   Product
		err error
	)

	err = withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		row := s.db.QueryRowContext(ctx, `
			SELECT id, name, price, description
			FROM products
			WHERE id = $1
		`, id)
		p, err = scanProduct(row)
		return err
	})

	if errors.Is(err, sql.ErrNoRows) {
		return Product{}, false, nil
	}
	if err != nil {
		return Product{}, false, storeErr("get", err)
	}
	return p, true, nil
}

func (s *PostgresStore) Exists(ctx context.Context, id int64) (bool, error) {
	var ok bool
	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		return s.db.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM products WHERE id = $1)`, id,
		).Scan(&ok)
	})
	if err != nil {
		return false, storeErr("exists", err)
	}
	return ok, nil
}

func (s *PostgresStore) Create(ctx context.Context, p Product) (Product, error) {
	if err := checkCreate(p); err != nil {
		return Product{}, err
	}

	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		return s.db.QueryRowContext(ctx, `
			INSERT INTO products (name, price, description)
			VALUES ($1, $2, $3)
			RETURNING id
		`, p.Name, p.Price, p.Description).Scan(&p.ID)
	})
	if err != nil {
		if col, ok := notNullColumn(err); ok {
			v := &ValidationError{}
			v.add(col, col+" is required")
			return Product{}, v
		}
		return Product{}, storeErr("create", err)
	}
	return p.clone(), nil
}

func (s *PostgresStore) Update(ctx context.Context, id int64, p Product, fields ...Field) error {
	if len(fields) == 0 {
		fields = mutableFields
	}

	sets := make([]string, 0, len(fields))
	args := make([]any, 0, len(fields)+1)
	for _, f := range fields {
		var v any
		switch f {
		case FieldName:
			v = p.Name
		case FieldPrice:
			v = p.Price
		case FieldDescription:
			v = p.Description
		default:
			return fmt.Errorf("unknown field %q", f)
		}
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", columnOf(f), len(args)))
	}
	args = append(args, id)

	q := fmt.Sprintf(`UPDATE products SET %s WHERE id = $%d`, strings.Join(sets, ", "), len(args))

	var n int64
	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		res, err := s.db.ExecContext(ctx, q, args...)
		if err != nil {
			return err
		}
		n, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return storeErr("update", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, id int64) error {
	return storeErr("delete", withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		_, err := s.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
		return err
	}))
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (Product, error) {
	var (
		p     Product
		price Money
		desc  sql.NullString
	)
	if err := row.Scan(&p.ID, &p.Name, &price, &desc); err != nil {
		return Product{}, err
	}
	p.Price = &price
	if desc.Valid {
		p.Description = &desc.String
	}
	return p, nil
}

func columnOf(f Field) string {
	return strings.ToLower(string(f))
}

func notNullColumn(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgNotNullCode && pgErr.ColumnName != "" {
		c := pgErr.ColumnName
		return strings.ToUpper(c[:1]) + c[1:], true
	}
	return "", false
}

func withTimeout(parent context.Context, d time.Duration, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(parent, d)
	defer cancel()
	return fn(ctx)
}
