package models

import "time"

// Plan maps an internal plan id to the provider price reference used at
// checkout. The catalog is seeded by migrations and edited by admins.
type Plan struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	PlanID        string    `gorm:"type:varchar(100);not null;uniqueIndex" json:"plan_id"`
	Name          string    `gorm:"type:varchar(150);not null" json:"name"`
	StripePriceID string    `gorm:"type:varchar(191);not null;index" json:"stripe_price_id"`
	PriceCents    int64     `gorm:"not null;default:0" json:"price_cents"`
	Currency      string    `gorm:"type:varchar(3);not null;default:'eur'" json:"currency"`
	IsActive      bool      `gorm:"default:true;index" json:"is_active"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
