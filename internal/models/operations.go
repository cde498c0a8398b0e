package models

import (
	"encoding/json"
	"time"
)

const (
	NotificationOrder     = "order"
	NotificationPromotion = "promotion"
	NotificationSystem    = "system"
	NotificationReview    = "review"
	NotificationAccount   = "account"
)

const (
	SettingString  = "string"
	SettingNumber  = "number"
	SettingBoolean = "boolean"
	SettingJSON    = "json"
)

type Notification struct {
	ID        int64           `json:"id"`
	UserID    int64           `json:"user_id"`
	Type      string          `json:"type"`
	Title     string          `json:"title"`
	Message   string          `json:"message"`
	Data      json.RawMessage `json:"data"`
	IsRead    bool            `json:"is_read"`
	ReadAt    *time.Time      `json:"read_at,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

type ActivityLog struct {
	ID         int64           `json:"id"`
	UserID     *int64          `json:"user_id,omitempty"`
	Action     string          `json:"action"`
	EntityType *string         `json:"entity_type,omitempty"`
	EntityID   *int64          `json:"entity_id,omitempty"`
	Details    json.RawMessage `json:"details"`
	IPAddress  *string         `json:"ip_address,omitempty"`
	UserAgent  *string         `json:"user_agent,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

type Setting struct {
	ID          int64     `json:"id"`
	Key         string    `json:"setting_key"`
	Value       string    `json:"setting_value"`
	Type        string    `json:"setting_type"`
	Description *string   `json:"description,omitempty"`
	IsPublic    bool      `json:"is_public"`
	UpdatedBy   *int64    `json:"updated_by,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
