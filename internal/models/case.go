package models

import (
	"time"

	"gorm.io/datatypes"
)

// Case is a supplier quality control case (SQCB record)
type Case struct {
	ID               uint64          `gorm:"primaryKey;autoIncrement" json:"sqcb_id"`
	Sqcb             string          `gorm:"column:sqcb;size:64;not null;uniqueIndex" json:"sqcb"`
	Status           string          `gorm:"size:32;not null" json:"status"`
	RqmrNo           *string         `gorm:"size:64" json:"rqmr_no"`
	Disposition      string          `gorm:"size:64;not null" json:"disposition"`
	PlantID          string          `gorm:"size:32;not null;index" json:"plant_id"`
	HdIncharge       *string         `gorm:"size:255" json:"hd_incharge"`
	SupplierCode     string          `gorm:"size:32;not null;index" json:"supplier_code"`
	ReturnType       *string         `gorm:"size:64" json:"return_type"`
	SqcbAmount       *float64        `gorm:"type:decimal(14,2)" json:"sqcb_amount"`
	FeedbackDate     *datatypes.Date `json:"feedback_date"`
	TargetDate       *datatypes.Date `json:"target_date"`
	RmaNo            *string         `gorm:"size:64" json:"rma_no"`
	Qm10CompleteDate *datatypes.Date `gorm:"column:qm10_complete_date" json:"qm10_complete_date"`
	PoNo             *string         `gorm:"size:64" json:"po_no"`
	ObdNo            *string         `gorm:"size:64" json:"obd_no"`
	DnIssuedDate     *datatypes.Date `json:"dn_issued_date"`
	ScrapWeek        *string         `gorm:"size:32" json:"scrap_week"`
	SecondPoNo       *string         `gorm:"size:64" json:"second_po_no"`
	SecondObdNo      *string         `gorm:"size:64" json:"second_obd_no"`
	Comments         *string         `gorm:"type:text" json:"comments"`
	IsDeleted        bool            `gorm:"not null;default:false;index" json:"-"`
	DeletedAt        *time.Time      `json:"-"`
	CreatedAt        time.Time       `json:"created_at"`
	Modified         time.Time       `gorm:"autoUpdateTime" json:"modified"`
}

// NotificationPart links a case to a part with a quantity
type NotificationPart struct {
	ID                 uint64     `gorm:"primaryKey;autoIncrement" json:"-"`
	NotificationNumber string     `gorm:"size:64;not null;index" json:"notification_number"`
	Sqcb               string     `gorm:"column:sqcb;size:64;not null;index" json:"sqcb"`
	ItemNumber         *string    `gorm:"size:32" json:"item_number"`
	Qty                *uint64    `json:"qty"`
	PartNumber         string     `gorm:"size:64;not null;index" json:"part_number"`
	IsDeleted          bool       `gorm:"not null;default:false;index" json:"-"`
	DeletedAt          *time.Time `json:"-"`
}

// Picture is an image stored for a notification part
type Picture struct {
	PictureID          string     `gorm:"primaryKey;size:128" json:"picture_id"`
	NotificationNumber string     `gorm:"size:64;not null;index" json:"notification_number"`
	PictureItemID      uint64     `gorm:"not null;uniqueIndex" json:"picture_item_id"`
	PictureName        string     `gorm:"size:255;not null" json:"picture_name"`
	PictureAddress     string     `gorm:"size:1024;not null" json:"picture_address"`
	IsDeleted          bool       `gorm:"not null;default:false;index" json:"-"`
	DeletedAt          *time.Time `json:"-"`
}

// Attachment is a file stored for a case
type Attachment struct {
	AttachmentID      string     `gorm:"primaryKey;size:128" json:"attachment_id"`
	Sqcb              string     `gorm:"column:sqcb;size:64;not null;index" json:"sqcb"`
	AttachmentItemID  uint64     `gorm:"not null;uniqueIndex" json:"attachment_item_id"`
	AttachmentName    string     `gorm:"size:255;not null" json:"attachment_name"`
	AttachmentAddress string     `gorm:"size:1024;not null" json:"attachment_address"`
	IsDeleted         bool       `gorm:"not null;default:false;index" json:"-"`
	DeletedAt         *time.Time `json:"-"`
}

// TableName overrides the table name for Case
func (Case) TableName() string {
	return "sqcb_detail"
}

// TableName overrides the table name for NotificationPart
func (NotificationPart) TableName() string {
	return "notification_detail"
}

// TableName overrides the table name for Picture
func (Picture) TableName() string {
	return "picture"
}

// TableName overrides the table name for Attachment
func (Attachment) TableName() string {
	return "attachments"
}
