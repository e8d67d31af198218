package models

import (
	"gorm.io/gorm"
)

// User 会员（游戏玩家）基础信息表
// 账户的注册与管理由账户模块负责，游戏引擎只做查询
type User struct {
	BaseModel
	Username string `gorm:"uniqueIndex;size:50;not null" json:"username"`
	Nickname string `gorm:"size:100" json:"nickname"`
	Avatar   string `gorm:"size:255" json:"avatar"`
	Role     string `gorm:"size:20;default:'member'" json:"role"`     // member, admin
	Status   string `gorm:"size:20;default:'active'" json:"status"` // active, frozen, banned
}

// TableName 指定User表名
func (User) TableName() string {
	return "users"
}

// BeforeCreate 创建前的钩子
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.Nickname == "" {
		u.Nickname = u.Username
	}
	if u.Status == "" {
		u.Status = "active"
	}
	if u.Role == "" {
		u.Role = "member"
	}
	return nil
}

// IsActive 检查用户是否激活
func (u *User) IsActive() bool {
	return u.Status == "active"
}
