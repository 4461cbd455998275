// Package models contains domain entities and business models for the card application service
package models

import (
	"time"

	"github.com/google/uuid"
)

// Card network constants
const (
	CardNetworkVisa       = "VISA"
	CardNetworkMastercard = "MASTERCARD"
)

// Card tier constants
const (
	CardTierClassic  = "CLASSIC"
	CardTierGold     = "GOLD"
	CardTierPlatinum = "PLATINUM"
)

// CardProduct is one sellable card in the catalog the cardSelection step
// chooses from. Fees, rates and limits are decimal strings so no float ever
// touches money.
type CardProduct struct {
	ID   uint      `gorm:"primaryKey" json:"id"`
	UUID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uk_card_products_uuid" json:"uuid"`

	Code                string  `gorm:"size:32;not null;uniqueIndex:uk_card_products_code" json:"code"`
	Name                string  `gorm:"size:255;not null" json:"name"`
	Network             string  `gorm:"type:varchar(16);not null" json:"network"`
	Tier                string  `gorm:"type:varchar(16);not null" json:"tier"`
	AnnualFee           string  `gorm:"type:numeric(14,2);not null" json:"annual_fee"`
	InterestRateMonthly string  `gorm:"type:numeric(6,2);not null" json:"interest_rate_monthly"`
	CreditLimitMin      string  `gorm:"type:numeric(14,2);not null" json:"credit_limit_min"`
	CreditLimitMax      string  `gorm:"type:numeric(14,2);not null" json:"credit_limit_max"`
	Description         *string `gorm:"type:text" json:"description,omitempty"`

	IsActive  *bool     `gorm:"default:true;index:idx_card_products_is_active" json:"is_active"`
	CreatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`
}

func (CardProduct) TableName() string {
	return "card_products"
}

// CardProductFilter represents filter criteria for card product queries
type CardProductFilter struct {
	ID       *uint
	UUID     *uuid.UUID
	Code     *string
	Network  *string
	Tier     *string
	IsActive *bool
}
