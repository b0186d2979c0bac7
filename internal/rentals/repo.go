package rentals

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kmarsack/storeyard-backend/pkg/db/models"
	"github.com/kmarsack/storeyard-backend/pkg/enums"
)

// Repository manages persistence for equipment and rentals. Status changes and
// guarded inserts are single conditional statements so concurrent bookings on
// the same equipment cannot slip past each other.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	CreateEquipment(ctx context.Context, equipment *models.Equipment) error
	GetEquipment(ctx context.Context, equipmentID uuid.UUID) (*models.Equipment, error)
	// LockEquipment takes the equipment row write lock for the rest of the
	// surrounding transaction, so concurrent bookings on the same asset
	// serialize before any overlap check runs. It reports whether the row
	// exists.
	LockEquipment(ctx context.Context, equipmentID uuid.UUID) (bool, error)
	ListEquipment(ctx context.Context) ([]models.Equipment, error)
	SaveEquipment(ctx context.Context, equipment *models.Equipment) error
	DeleteEquipment(ctx context.Context, equipmentID uuid.UUID) error
	SetEquipmentAvailability(ctx context.Context, equipmentID uuid.UUID, availability enums.EquipmentAvailability) (bool, error)

	GetRental(ctx context.Context, rentalID uuid.UUID) (*models.Rental, error)
	ListRentals(ctx context.Context) ([]models.Rental, error)
	SaveRental(ctx context.Context, rental *models.Rental) error
	DeleteRental(ctx context.Context, rentalID uuid.UUID) error

	// CreateRentalGuarded inserts the rental only when no non-terminal rental
	// on the same equipment overlaps its half-open interval. It reports
	// whether the row was inserted.
	CreateRentalGuarded(ctx context.Context, rental *models.Rental) (bool, error)
	// CreateRental inserts without the overlap guard, for external-scope
	// bookings that carry no equipment.
	CreateRental(ctx context.Context, rental *models.Rental) error
	// ListOpenByEquipment returns the Reserved/Active rentals on the
	// equipment ordered by start date.
	ListOpenByEquipment(ctx context.Context, equipmentID uuid.UUID) ([]models.Rental, error)
	// UpdateRentalStatus applies the from→to edge only when the row is still
	// in the from status. It reports whether the edge applied.
	UpdateRentalStatus(ctx context.Context, rentalID uuid.UUID, from, to enums.RentalStatus) (bool, error)
	// CountNonTerminal counts Reserved/Active rentals on the equipment,
	// excluding excludeID when non-nil.
	CountNonTerminal(ctx context.Context, equipmentID uuid.UUID, excludeID uuid.UUID) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a rentals repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateEquipment(ctx context.Context, equipment *models.Equipment) error {
	return r.db.WithContext(ctx).Create(equipment).Error
}

func (r *repository) GetEquipment(ctx context.Context, equipmentID uuid.UUID) (*models.Equipment, error) {
	var equipment models.Equipment
	if err := r.db.WithContext(ctx).
		Where("id = ?", equipmentID).
		First(&equipment).Error; err != nil {
		return nil, err
	}
	return &equipment, nil
}

func (r *repository) ListEquipment(ctx context.Context) ([]models.Equipment, error) {
	var fleet []models.Equipment
	if err := r.db.WithContext(ctx).
		Order("code ASC").
		Find(&fleet).Error; err != nil {
		return nil, err
	}
	return fleet, nil
}

// LockEquipment uses a self-assigning UPDATE rather than SELECT FOR UPDATE so
// the same statement works on Postgres and the sqlite test driver. The row
// lock is held until the transaction commits.
func (r *repository) LockEquipment(ctx context.Context, equipmentID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE equipment
		SET id = id
		WHERE id = ?
	`, equipmentID)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) SaveEquipment(ctx context.Context, equipment *models.Equipment) error {
	return r.db.WithContext(ctx).Save(equipment).Error
}

func (r *repository) DeleteEquipment(ctx context.Context, equipmentID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("id = ?", equipmentID).
		Delete(&models.Equipment{}).Error
}

func (r *repository) SetEquipmentAvailability(ctx context.Context, equipmentID uuid.UUID, availability enums.EquipmentAvailability) (bool, error) {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE equipment
		SET availability = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, availability, equipmentID)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) GetRental(ctx context.Context, rentalID uuid.UUID) (*models.Rental, error) {
	var rental models.Rental
	if err := r.db.WithContext(ctx).
		Where("id = ?", rentalID).
		First(&rental).Error; err != nil {
		return nil, err
	}
	return &rental, nil
}

func (r *repository) ListRentals(ctx context.Context) ([]models.Rental, error) {
	var rentals []models.Rental
	if err := r.db.WithContext(ctx).
		Order("start_date ASC").
		Find(&rentals).Error; err != nil {
		return nil, err
	}
	return rentals, nil
}

func (r *repository) SaveRental(ctx context.Context, rental *models.Rental) error {
	return r.db.WithContext(ctx).Save(rental).Error
}

func (r *repository) DeleteRental(ctx context.Context, rentalID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("id = ?", rentalID).
		Delete(&models.Rental{}).Error
}

func (r *repository) CreateRental(ctx context.Context, rental *models.Rental) error {
	return r.db.WithContext(ctx).Create(rental).Error
}

func (r *repository) CreateRentalGuarded(ctx context.Context, rental *models.Rental) (bool, error) {
	res := r.db.WithContext(ctx).Exec(`
		INSERT INTO rentals (id, rental_code, account_id, equipment_id, start_date, end_date, status, notes, scope, created_at, updated_at)
		SELECT ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP
		WHERE NOT EXISTS (
			SELECT 1 FROM rentals
			WHERE equipment_id = ?
			  AND status IN (?, ?)
			  AND start_date < ?
			  AND ? < end_date
		)
	`,
		rental.ID, rental.RentalCode, rental.AccountID, rental.EquipmentID,
		rental.StartDate, rental.EndDate, rental.Status, rental.Notes, rental.Scope,
		rental.EquipmentID,
		enums.RentalStatusReserved, enums.RentalStatusActive,
		rental.EndDate, rental.StartDate,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) ListOpenByEquipment(ctx context.Context, equipmentID uuid.UUID) ([]models.Rental, error) {
	var rentals []models.Rental
	if err := r.db.WithContext(ctx).
		Where("equipment_id = ?", equipmentID).
		Where("status IN ?", []enums.RentalStatus{enums.RentalStatusReserved, enums.RentalStatusActive}).
		Order("start_date ASC").
		Find(&rentals).Error; err != nil {
		return nil, err
	}
	return rentals, nil
}

func (r *repository) UpdateRentalStatus(ctx context.Context, rentalID uuid.UUID, from, to enums.RentalStatus) (bool, error) {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE rentals
		SET status = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND status = ?
	`, to, rentalID, from)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) CountNonTerminal(ctx context.Context, equipmentID uuid.UUID, excludeID uuid.UUID) (int64, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Rental{}).
		Where("equipment_id = ?", equipmentID).
		Where("status IN ?", []enums.RentalStatus{enums.RentalStatusReserved, enums.RentalStatusActive})
	if excludeID != uuid.Nil {
		query = query.Where("id <> ?", excludeID)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
