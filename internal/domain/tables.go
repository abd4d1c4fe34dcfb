package domain

var Tables = []interface{}{
	// Catalog
	&Category{},
	&Product{},
	// Bookkeeping
	&ImageUpload{},
}
