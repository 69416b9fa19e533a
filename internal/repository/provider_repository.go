package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Leganyst/clinic-calendar/internal/model"
)

type ProviderRepository interface {
	GetByID(ctx context.Context, id string) (*model.Provider, error)
	// Врачи отделения в естественном порядке (по ID): порядок попыток автоназначения.
	ListByDepartment(ctx context.Context, department string) ([]model.Provider, error)
	// Справочник врачей: по отделению и имени; при пустом отделении все врачи.
	ListDoctors(ctx context.Context, department string) ([]model.Provider, error)
	ListByIDs(ctx context.Context, ids []string) ([]model.Provider, error)
	ListDepartments(ctx context.Context) ([]string, error)
	Upsert(ctx context.Context, p *model.Provider) error
}

type GormProviderRepository struct {
	db *gorm.DB
}

func NewGormProviderRepository(db *gorm.DB) *GormProviderRepository {
	return &GormProviderRepository{db: db}
}

func (r *GormProviderRepository) GetByID(ctx context.Context, id string) (*model.Provider, error) {
	var p model.Provider
	err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *GormProviderRepository) ListByDepartment(ctx context.Context, department string) ([]model.Provider, error) {
	var list []model.Provider
	err := r.db.WithContext(ctx).
		Where("department = ?", department).
		Order("id ASC").
		Find(&list).
		Error
	if err != nil {
		return nil, fmt.Errorf("list providers: %w", err)
	}
	return list, nil
}

func (r *GormProviderRepository) ListDoctors(ctx context.Context, department string) ([]model.Provider, error) {
	q := r.db.WithContext(ctx).Model(&model.Provider{})
	if department != "" {
		q = q.Where("department = ?", department)
	}

	var list []model.Provider
	if err := q.Order("department ASC").Order("name ASC").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("list doctors: %w", err)
	}
	return list, nil
}

func (r *GormProviderRepository) ListByIDs(ctx context.Context, ids []string) ([]model.Provider, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var list []model.Provider
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&list).Error; err != nil {
		return nil, fmt.Errorf("list providers by ids: %w", err)
	}
	return list, nil
}

func (r *GormProviderRepository) ListDepartments(ctx context.Context) ([]string, error) {
	var departments []string
	err := r.db.WithContext(ctx).
		Model(&model.Provider{}).
		Distinct("department").
		Order("department ASC").
		Pluck("department", &departments).
		Error
	if err != nil {
		return nil, fmt.Errorf("list departments: %w", err)
	}
	return departments, nil
}

// Upsert создаёт врача или обновляет имя, отделение и расписание.
func (r *GormProviderRepository) Upsert(ctx context.Context, p *model.Provider) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "department", "schedules", "updated_at"}),
		}).
		Create(p).
		Error
	if err != nil {
		return fmt.Errorf("upsert provider %s: %w", p.ID, err)
	}
	return nil
}
