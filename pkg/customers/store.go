package customers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"deskdir/models"
)

// pgUniqueViolation is the Postgres SQLSTATE for unique_violation.
const pgUniqueViolation = "23505"

// Open connects to Postgres and, when migrate is set, creates or updates the
// customers table. Migration problems are logged, not fatal, so a read-only
// role can still serve requests.
func Open(dsn string, migrate bool, log *zap.SugaredLogger) (*gorm.DB, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, errors.New("empty DSN")
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if migrate {
		if err := db.AutoMigrate(&models.Customer{}); err != nil {
			log.Warnw("migration warning", "table", "customers", "error", err)
		}
	}
	return db, nil
}

// Store is the Postgres Repository.
type Store struct {
	db *gorm.DB
}

// NewStore wraps an open gorm handle.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) List(ctx context.Context, f Filter) ([]models.Customer, error) {
	q := s.db.WithContext(ctx).Model(&models.Customer{})
	if search := strings.TrimSpace(f.Search); search != "" {
		like := "%" + escapeLike(search) + "%"
		compact := "%" + escapeLike(strings.Join(strings.Fields(search), "")) + "%"
		q = q.Where("name ILIKE ? OR anydesk_id ILIKE ? OR REPLACE(anydesk_id, ' ', '') ILIKE ?", like, like, compact)
	}
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	out := []models.Customer{}
	if err := q.Order("created_at desc").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	return out, nil
}

func (s *Store) Get(ctx context.Context, id string) (models.Customer, error) {
	var c models.Customer
	if _, err := uuid.Parse(id); err != nil {
		return c, ErrNotFound
	}
	if err := s.db.WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
		return models.Customer{}, translate(err)
	}
	return c, nil
}

func (s *Store) Create(ctx context.Context, in Input) (models.Customer, error) {
	in, err := in.normalize()
	if err != nil {
		return models.Customer{}, err
	}
	c := models.Customer{
		ID:        uuid.NewString(),
		Name:      in.Name,
		AnydeskID: in.AnydeskID,
		Category:  in.Category,
		Notes:     in.Notes,
	}
	if err := s.db.WithContext(ctx).Create(&c).Error; err != nil {
		return models.Customer{}, translate(err)
	}
	return c, nil
}

func (s *Store) Update(ctx context.Context, id string, p Patch) (models.Customer, error) {
	if _, err := uuid.Parse(id); err != nil {
		return models.Customer{}, ErrNotFound
	}
	p = p.normalize()
	updates := map[string]any{}
	if p.Name != "" {
		updates["name"] = p.Name
	}
	if p.AnydeskID != "" {
		updates["anydesk_id"] = p.AnydeskID
	}
	if p.Category != "" {
		updates["category"] = p.Category
	}
	if p.Notes != nil {
		updates["notes"] = *p.Notes
	}

	var c models.Customer
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&c, "id = ?", id).Error; err != nil {
			return err
		}
		if p.empty() {
			return nil
		}
		if err := tx.Model(&c).Updates(updates).Error; err != nil {
			return err
		}
		return tx.First(&c, "id = ?", id).Error
	})
	if err != nil {
		return models.Customer{}, translate(err)
	}
	return c, nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrNotFound
	}
	res := s.db.WithContext(ctx).Delete(&models.Customer{}, "id = ?", id)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) Categories(ctx context.Context) ([]string, error) {
	cats := []string{}
	err := s.db.WithContext(ctx).Model(&models.Customer{}).
		Distinct().Order("category asc").Pluck("category", &cats).Error
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return cats, nil
}

func (s *Store) FindByIdentifier(ctx context.Context, anydeskID string) (models.Customer, error) {
	var c models.Customer
	err := s.db.WithContext(ctx).First(&c, "anydesk_id = ?", CanonicalIdentifier(anydeskID)).Error
	if err != nil {
		return models.Customer{}, translate(err)
	}
	return c, nil
}

// Count returns the number of stored customers.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&models.Customer{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count customers: %w", err)
	}
	return n, nil
}

// translate maps driver errors onto the package's error kinds.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case isUniqueConstraintError(err):
		return fmt.Errorf("%w: %v", ErrDuplicateIdentifier, err)
	}
	return err
}

func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	s := err.Error()
	return strings.Contains(s, "duplicate key") || strings.Contains(s, "unique constraint")
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
