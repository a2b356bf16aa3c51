package db

import "time"

// PrincipalModel mirrors the externally provisioned principals table.
// This service only ever reads it; provisioning and role changes happen
// out-of-band.
type PrincipalModel struct {
	Identifier string `gorm:"primaryKey;column:identifier"`
	SecretHash string `gorm:"column:secret_hash"`
	// Roles is a JSON-encoded array of role labels.
	Roles     string `gorm:"column:roles"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (PrincipalModel) TableName() string { return "principals" }
