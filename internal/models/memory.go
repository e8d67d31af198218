package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Location 回忆关联的地点
type Location struct {
	BaseModel
	Name      string          `gorm:"size:200;not null" json:"name"`
	Address   string          `gorm:"size:500" json:"address"`
	Latitude  decimal.Decimal `gorm:"type:decimal(11,8);not null" json:"latitude"`
	Longitude decimal.Decimal `gorm:"type:decimal(11,8);not null" json:"longitude"`
}

// Memory 会员的回忆（日记）
type Memory struct {
	BaseModel
	UserID     uint          `gorm:"not null;index" json:"user_id"`
	Title      string        `gorm:"size:200" json:"title"`
	Content    string        `gorm:"type:text" json:"content"`
	LocationID *uint         `gorm:"index" json:"location_id,omitempty"`
	MemoryDate *time.Time    `json:"memory_date,omitempty"`
	Location   *Location     `gorm:"foreignKey:LocationID" json:"location,omitempty"`
	Images     []MemoryImage `gorm:"foreignKey:MemoryID;constraint:OnDelete:CASCADE" json:"images,omitempty"`
}

// MemoryImage 回忆的照片
type MemoryImage struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	MemoryID  uint      `gorm:"not null;index" json:"memory_id"`
	URL       string    `gorm:"size:500;not null" json:"url"`
	SortOrder int       `gorm:"default:0" json:"sort_order"`
	CreatedAt time.Time `json:"created_at"`
}

// IsGeotagged 是否带有地点
func (m *Memory) IsGeotagged() bool {
	return m.LocationID != nil && m.Location != nil
}

// ImageURLs 按顺序返回照片地址
func (m *Memory) ImageURLs() StringList {
	urls := make(StringList, 0, len(m.Images))
	for _, img := range m.Images {
		urls = append(urls, img.URL)
	}
	return urls
}
