package domain

// Category is a product grouping. Names are unique; rows are never updated or deleted.
type Category struct {
	ID   int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	Name string `gorm:"size:191;uniqueIndex" json:"name" form:"name" validate:"required,max=191"`
}

// TableName Specify table name
func (Category) TableName() string {
	return "categories"
}
