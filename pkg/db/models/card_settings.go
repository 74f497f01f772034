package models

import "time"

// CardSettings stores the organization-wide card appearance. Only the most
// recently updated row is consulted.
type CardSettings struct {
	ID              int64     `gorm:"column:id;primaryKey;autoIncrement"`
	HeaderTitle     *string   `gorm:"column:header_title"`
	HeaderColor     *string   `gorm:"column:header_color"`
	HeaderTextColor *string   `gorm:"column:header_text_color"`
	BackgroundColor *string   `gorm:"column:background_color"`
	TextColor       *string   `gorm:"column:text_color"`
	LogoURL         *string   `gorm:"column:logo_url"`
	LogoWidth       *float64  `gorm:"column:logo_width"`
	LogoHeight      *float64  `gorm:"column:logo_height"`
	ShowMemberEmail *bool     `gorm:"column:show_member_email"`
	ShowValidUntil  *bool     `gorm:"column:show_valid_until"`
	CreatedAt       time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (CardSettings) TableName() string { return "card_settings" }
