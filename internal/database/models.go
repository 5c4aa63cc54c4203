package database

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// User 表示系统中的账号信息。
type User struct {
	gorm.Model
	Username     string         `gorm:"uniqueIndex;size:64"`
	PasswordHash string         `gorm:"size:255"`
	Exports      []ExportRecord `gorm:"constraint:OnDelete:CASCADE"`
}

// ExportRecord 记录一次异步导出：请求时刻的文档快照、产物对象键与状态。
// 快照保证导出结果对应用户按下按钮那一刻的内容，不受后续编辑影响。
type ExportRecord struct {
	gorm.Model
	UserID        uint           `gorm:"index"`
	User          User           `gorm:"constraint:OnDelete:CASCADE"`
	Format        string         `gorm:"size:16"`
	CorrelationID string         `gorm:"size:64;index"`
	Snapshot      datatypes.JSON `gorm:"type:jsonb"`
	ObjectKey     string         `gorm:"size:512"`
	Filename      string         `gorm:"size:255"`
	Status        string         `gorm:"size:32"` // pending / completed / failed
	ErrorMessage  string         `gorm:"size:1024"`
}
