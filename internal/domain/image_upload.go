package domain

import "time"

const (
	UploadPending   = "pending"
	UploadConfirmed = "confirmed"
)

// ImageUpload tracks an image file between the moment it is written to disk
// and the moment a product row referencing it is committed.
type ImageUpload struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Filename  string    `gorm:"size:255;index" json:"filename"`
	Status    string    `gorm:"size:16;index" json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName Specify table name
func (ImageUpload) TableName() string {
	return "image_uploads"
}
