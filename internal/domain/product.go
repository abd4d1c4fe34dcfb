package domain

import "time"

// Product is a catalog item. Field order is the stored column order and the
// export column order; do not reorder.
//
// Category is free-form text and is not checked against the categories table.
type Product struct {
	ID                   int64     `gorm:"primaryKey;autoIncrement;column:id" json:"id"`
	Name                 string    `gorm:"column:name" json:"name"`
	Category             string    `gorm:"column:category;index" json:"category"`
	Details              string    `gorm:"column:details" json:"details"`
	MRP                  float64   `gorm:"column:mrp" json:"mrp"`
	PurchasePrice        float64   `gorm:"column:purchase_price" json:"purchase_price"`
	Discount1            float64   `gorm:"column:discount_1" json:"discount_1"`
	Discount5            float64   `gorm:"column:discount_5" json:"discount_5"`
	Stock                int       `gorm:"column:stock" json:"stock"`
	ImageURL             string    `gorm:"column:image_url;size:255" json:"image_url"`
	OurPurchasePrice     float64   `gorm:"column:our_purchase_price" json:"our_purchase_price"`
	DiscountWeGotPercent float64   `gorm:"column:discount_we_got_percent" json:"discount_we_got_percent"`
	SellingPrice1        float64   `gorm:"column:selling_price_1" json:"selling_price_1"`
	SellingPrice5        float64   `gorm:"column:selling_price_5" json:"selling_price_5"`
	DiscountPercent1     float64   `gorm:"column:discount_percent_1" json:"discount_percent_1"`
	DiscountPercent5     float64   `gorm:"column:discount_percent_5" json:"discount_percent_5"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// TableName Specify table name
func (Product) TableName() string {
	return "products"
}

// MutableColumns are the columns written by an update without a new image.
var MutableColumns = []string{
	"name", "category", "details", "mrp", "purchase_price", "discount_1", "discount_5", "stock",
	"our_purchase_price", "discount_we_got_percent", "selling_price_1", "selling_price_5",
	"discount_percent_1", "discount_percent_5", "updated_at",
}
