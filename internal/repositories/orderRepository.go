package repositories

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"PredictionTradeBot/internal/models"
)

type OrderRepository struct {
	db *gorm.DB
}

// NewOrderRepository creates a new instance of OrderRepository
func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// Create adds a new OrderRecord to the journal
func (r *OrderRepository) Create(order *models.OrderRecord) error {
	if order == nil {
		return errors.New("order cannot be nil")
	}
	return r.db.Create(order).Error
}

// Update modifies an existing OrderRecord
func (r *OrderRepository) Update(order *models.OrderRecord) error {
	if order == nil {
		return errors.New("order cannot be nil")
	}
	return r.db.Save(order).Error
}

// FindOpenOrders retrieves all orders still awaiting settlement
func (r *OrderRepository) FindOpenOrders() ([]models.OrderRecord, error) {
	var orders []models.OrderRecord
	err := r.db.Where("status = ?", models.OrderStatusOpen).Find(&orders).Error
	return orders, err
}

// FindBySlug retrieves all orders journaled for one market
func (r *OrderRepository) FindBySlug(slug string) ([]models.OrderRecord, error) {
	if slug == "" {
		return nil, errors.New("invalid slug")
	}
	var orders []models.OrderRecord
	err := r.db.Where("market_slug = ?", slug).Find(&orders).Error
	return orders, err
}

// GetDailyVolume sums order notional submitted since the start of day
func (r *OrderRepository) GetDailyVolume(since time.Time) (float64, error) {
	var total float64
	err := r.db.Model(&models.OrderRecord{}).
		Where("created_at >= ?", since).
		Select("COALESCE(SUM(price * size), 0) as total").
		Scan(&total).Error
	return total, err
}
