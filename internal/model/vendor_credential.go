package model

import "time"

// VendorCredential is the access credential tied 1:1 to a vendor. It is
// issued as an explicit second step when the vendor is created, and removed
// with the vendor (cascade).
type VendorCredential struct {
	ID       uint   `json:"id" gorm:"primaryKey"`
	VendorID uint   `json:"vendor_id" gorm:"uniqueIndex;not null"`
	Token    string `json:"token" gorm:"type:text;not null"`
	JTI      string `json:"jti" gorm:"type:varchar(36);uniqueIndex;not null"`

	IssuedAt  time.Time `json:"issued_at"`
	CreatedAt time.Time `json:"created_at"`

	Vendor Vendor `json:"-" gorm:"foreignKey:VendorID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the table name for VendorCredential
func (VendorCredential) TableName() string {
	return "vendor_credentials"
}
