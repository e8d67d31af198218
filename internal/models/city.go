package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// City 世界城市参考数据
type City struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	Name       string          `gorm:"size:100;not null;index" json:"name"`
	Country    string          `gorm:"size:100" json:"country"`
	Latitude   decimal.Decimal `gorm:"type:decimal(11,8);not null" json:"latitude"`
	Longitude  decimal.Decimal `gorm:"type:decimal(11,8);not null" json:"longitude"`
	Population int64           `gorm:"default:0" json:"population"`
	CreatedAt  time.Time       `json:"created_at"`
}

// DisplayName 展示名称
func (c *City) DisplayName() string {
	if c.Country == "" {
		return c.Name
	}
	return c.Name + ", " + c.Country
}
