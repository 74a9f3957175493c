package repository

import (
	"context"

	"mdmportal/internal/model"

	"gorm.io/gorm"
)

// EmployeeRepository defines data access for employees.
type EmployeeRepository interface {
	Create(ctx context.Context, emp *model.Employee) error
	GetByID(ctx context.Context, id uint) (*model.Employee, error)
	GetByEmail(ctx context.Context, email string) (*model.Employee, error)
	List(ctx context.Context) ([]model.Employee, error)
	ListWithoutRole(ctx context.Context) ([]model.Employee, error)
	ListByIDs(ctx context.Context, ids []uint) ([]model.Employee, error)
	Update(ctx context.Context, emp *model.Employee) error
	UpdateRole(ctx context.Context, ids []uint, role string) error
	Delete(ctx context.Context, id uint) error
}

type employeeRepository struct {
	db *gorm.DB
}

func NewEmployeeRepository(db *gorm.DB) EmployeeRepository {
	return &employeeRepository{db: db}
}

func (r *employeeRepository) Create(ctx context.Context, emp *model.Employee) error {
	return GetDB(ctx, r.db).Create(emp).Error
}

func (r *employeeRepository) GetByID(ctx context.Context, id uint) (*model.Employee, error) {
	var emp model.Employee
	if err := GetDB(ctx, r.db).First(&emp, "emp_id = ?", id).Error; err != nil {
		return nil, err
	}
	return &emp, nil
}

func (r *employeeRepository) GetByEmail(ctx context.Context, email string) (*model.Employee, error) {
	var emp model.Employee
	if err := GetDB(ctx, r.db).First(&emp, "LOWER(email) = LOWER(?)", email).Error; err != nil {
		return nil, err
	}
	return &emp, nil
}

func (r *employeeRepository) List(ctx context.Context) ([]model.Employee, error) {
	var emps []model.Employee
	if err := GetDB(ctx, r.db).Order("emp_id asc").Find(&emps).Error; err != nil {
		return nil, err
	}
	return emps, nil
}

func (r *employeeRepository) ListWithoutRole(ctx context.Context) ([]model.Employee, error) {
	var emps []model.Employee
	err := GetDB(ctx, r.db).
		Where("role IS NULL OR role = ''").
		Order("emp_id asc").
		Find(&emps).Error
	if err != nil {
		return nil, err
	}
	return emps, nil
}

func (r *employeeRepository) ListByIDs(ctx context.Context, ids []uint) ([]model.Employee, error) {
	var emps []model.Employee
	if len(ids) == 0 {
		return emps, nil
	}
	if err := GetDB(ctx, r.db).Where("emp_id IN ?", ids).Order("emp_id asc").Find(&emps).Error; err != nil {
		return nil, err
	}
	return emps, nil
}

func (r *employeeRepository) Update(ctx context.Context, emp *model.Employee) error {
	return GetDB(ctx, r.db).Save(emp).Error
}

func (r *employeeRepository) UpdateRole(ctx context.Context, ids []uint, role string) error {
	if len(ids) == 0 {
		return nil
	}
	return GetDB(ctx, r.db).Model(&model.Employee{}).Where("emp_id IN ?", ids).Update("role", role).Error
}

func (r *employeeRepository) Delete(ctx context.Context, id uint) error {
	res := GetDB(ctx, r.db).Where("emp_id = ?", id).Delete(&model.Employee{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
