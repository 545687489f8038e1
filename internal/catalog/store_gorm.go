package catalog

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// productRecord is the GORM row model for the products table.
type productRecord struct {
	ID          int64   `gorm:"primaryKey;autoIncrement"`
	Name        string  `gorm:"type:varchar(100);not null"`
	Price       Money   `gorm:"type:numeric(18,2);not null"`
	Description *string `gorm:"type:text"`
}

func (productRecord) TableName() string { return "products" }

func toRecord(p Product) productRecord {
	r := productRecord{ID: p.ID, Name: p.Name, Description: cloneString(p.Description)}
	if p.Price != nil {
		r.Price = *p.Price
	}
	return r
}

func (r productRecord) toProduct() Product {
	price := r.Price
	return Product{ID: r.ID, Name: r.Name, Price: &price, Description: cloneString(r.Description)}
}

// GormStore implements Store on top of any GORM dialect; postgres and sqlite
// are wired in cmd/catalog.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// AutoMigrate creates the products table and inserts SeedProducts when the
// table is empty.
func (s *GormStore) AutoMigrate(ctx context.Context) error {
	db := s.db.WithContext(ctx)
	if err := db.AutoMigrate(&productRecord{}); err != nil {
		return storeErr("migrate", err)
	}

	var n int64
	if err := db.Model(&productRecord{}).Count(&n).Error; err != nil {
		return storeErr("migrate", err)
	}
	if n > 0 {
		return nil
	}

	seed := SeedProducts()
	recs := make([]productRecord, 0, len(seed))
	for _, p := range seed {
		recs = append(recs, toRecord(p))
	}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&recs).Error; err != nil {
		return storeErr("seed", err)
	}
	return s.resetSequence(ctx)
}

// resetSequence moves the postgres identity past explicitly seeded ids.
func (s *GormStore) resetSequence(ctx context.Context) error {
	if s.db.Dialector.Name() != "postgres" {
		return nil
	}
	err := s.db.WithContext(ctx).Exec(
		`SELECT setval(pg_get_serial_sequence('products', 'id'), (SELECT MAX(id) FROM products))`,
	).Error
	return storeErr("seed", err)
}

func (s *GormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return storeErr("ping", err)
	}
	return storeErr("ping", withTimeout(ctx, pingTimeout, sqlDB.PingContext))
}

func (s *GormStore) List(ctx context.Context) ([]Product, error) {
	var recs []productRecord
	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		return s.db.WithContext(ctx).Order("id ASC").Find(&recs).Error
	})
	if err != nil {
		return nil, storeErr("list", err)
	}

	out := make([]Product, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.toProduct())
	}
	return out, nil
}

func (s *GormStore) Get(ctx context.Context, id int64) (Product, bool, error) {
	var rec productRecord
	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		return s.db.WithContext(ctx).First(&rec, "id = ?", id).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Product{}, false, nil
	}
	if err != nil {
		return Product{}, false, storeErr("get", err)
	}
	return rec.toProduct(), true, nil
}

func (s *GormStore) Exists(ctx context.Context, id int64) (bool, error) {
	var n int64
	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		return s.db.WithContext(ctx).Model(&productRecord{}).Where("id = ?", id).Limit(1).Count(&n).Error
	})
	if err != nil {
		return false, storeErr("exists", err)
	}
	return n > 0, nil
}

func (s *GormStore) Create(ctx context.Context, p Product) (Product, error) {
	if err := checkCreate(p); err != nil {
		return Product{}, err
	}

	rec := toRecord(p)
	rec.ID = 0
	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		return s.db.WithContext(ctx).Create(&rec).Error
	})
	if err != nil {
		return Product{}, storeErr("create", err)
	}
	return rec.toProduct(), nil
}

func (s *GormStore) Update(ctx context.Context, id int64, p Product, fields ...Field) error {
	if len(fields) == 0 {
		fields = mutableFields
	}

	rec := toRecord(p)
	cols := make(map[string]any, len(fields))
	for _, f := range fields {
		switch f {
		case FieldName:
			cols[columnOf(f)] = rec.Name
		case FieldPrice:
			cols[columnOf(f)] = rec.Price
		case FieldDescription:
			cols[columnOf(f)] = rec.Description
		default:
			return fmt.Errorf("unknown field %q", f)
		}
	}

	var n int64
	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		res := s.db.WithContext(ctx).Model(&productRecord{}).Where("id = ?", id).Updates(cols)
		n = res.RowsAffected
		return res.Error
	})
	if err != nil {
		return storeErr("update", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) Delete(ctx context.Context, id int64) error {
	return storeErr("delete", withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		return s.db.WithContext(ctx).Delete(&productRecord{}, "id = ?", id).Error
	}))
}
