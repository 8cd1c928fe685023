package models

// Supplier is referenced by cases and supplier contacts, never created here
type Supplier struct {
	SupplierCode string `gorm:"primaryKey;size:32" json:"supplier_code"`
	SupplierName string `gorm:"size:255;not null" json:"supplier_name"`
}

// Plant is referenced by cases, never created here
type Plant struct {
	PlantID   string `gorm:"primaryKey;size:32" json:"plant_id"`
	PlantName string `gorm:"size:255" json:"plant_name,omitempty"`
}

// Part is upserted by part number whenever a case lists it
type Part struct {
	PartNumber string `gorm:"primaryKey;size:64" json:"part_number"`
	PartName   string `gorm:"size:255" json:"part_name"`
}

func (Supplier) TableName() string {
	return "supp_detail"
}

func (Plant) TableName() string {
	return "hd_plant"
}

func (Part) TableName() string {
	return "part_detail"
}
