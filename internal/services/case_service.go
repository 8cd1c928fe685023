// case_service.go
//
// Supplier quality control case (SQCB) tracking service
// Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC
//
// This file is part of sqcb-service.
// sqcb-service is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any later version.
// sqcb-service is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY;
// without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU Affero General Public License for more details.
// You should have received a copy of the GNU Affero General Public License along with sqcb-service.
// If not, see <https://www.gnu.org/licenses/>.
// Additional terms under GNU AGPL version 3 section 7:
// a) The reasonable legal notice of original copyright and author attribution must be preserved
//    by including the string: "Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC"
//    in this material, copies, or source code of derived works.

package services

import (
	"context"
	"io"
	"time"

	"github.com/localnerve/sqcb-service/internal/models"
	"github.com/localnerve/sqcb-service/internal/types"
	"gorm.io/gorm"
	"gorm.io/hints"
)

const (
	DefaultStatus      = "Open"
	DefaultDisposition = "WAITING FEEDBACK"
)

// CaseForm carries the case fields of a create or update request, all as submitted text
type CaseForm struct {
	Sqcb             string `form:"sqcb" json:"sqcb"`
	Status           string `form:"status" json:"status"`
	RqmrNo           string `form:"rqmr_no" json:"rqmr_no"`
	Disposition      string `form:"disposition" json:"disposition"`
	PlantID          string `form:"plant_id" json:"plant_id"`
	HdIncharge       string `form:"hd_incharge" json:"hd_incharge"`
	SupplierCode     string `form:"supplier_code" json:"supplier_code"`
	ReturnType       string `form:"return_type" json:"return_type"`
	SqcbAmount       string `form:"sqcb_amount" json:"sqcb_amount"`
	FeedbackDate     string `form:"feedback_date" json:"feedback_date"`
	TargetDate       string `form:"target_date" json:"target_date"`
	RmaNo            string `form:"rma_no" json:"rma_no"`
	Qm10CompleteDate string `form:"qm10_complete_date" json:"qm10_complete_date"`
	PoNo             string `form:"po_no" json:"po_no"`
	ObdNo            string `form:"obd_no" json:"obd_no"`
	DnIssuedDate     string `form:"dn_issued_date" json:"dn_issued_date"`
	ScrapWeek        string `form:"scrap_week" json:"scrap_week"`
	SecondPoNo       string `form:"second_po_no" json:"second_po_no"`
	SecondObdNo      string `form:"second_obd_no" json:"second_obd_no"`
	Comments         string `form:"comments" json:"comments"`

	// Parts is a JSON array (or single object) of PartInput
	Parts string `form:"parts" json:"parts"`
}

// PartInput is one entry of the "parts" field
type PartInput struct {
	NotificationNumber types.FlexString `json:"notification_number"`
	ItemNumber         types.FlexString `json:"item_number"`
	Qty                types.FlexUint64 `json:"qty"`
	PartNumber         types.FlexString `json:"part_number"`
	PartName           types.FlexString `json:"part_name"`
}

// FileUpload is an uploaded file independent of the transport that received it
type FileUpload struct {
	Filename string
	Open     func() (io.ReadCloser, error)
}

// PictureView is a picture nested under a listed part
type PictureView struct {
	PictureID      string `json:"picture_id"`
	PictureName    string `json:"picture_name"`
	PictureAddress string `json:"picture_address"`
}

// PartView is a notification part nested under a listed case
type PartView struct {
	NotificationNumber string        `json:"notification_number"`
	ItemNumber         *string       `json:"item_number"`
	Qty                *uint64       `json:"qty"`
	PartNumber         string        `json:"part_number"`
	PartName           *string       `json:"part_name"`
	Pictures           []PictureView `json:"pictures"`
}

// CaseView is one element of the case list
type CaseView struct {
	SqcbID           uint64              `json:"sqcb_id"`
	Sqcb             string              `json:"sqcb"`
	Status           string              `json:"status"`
	RqmrNo           *string             `json:"rqmr_no"`
	Disposition      string              `json:"disposition"`
	PlantID          string              `json:"plant_id"`
	HdIncharge       *string             `json:"hd_incharge"`
	SupplierCode     string              `json:"supplier_code"`
	SupplierName     *string             `json:"supplier_name"`
	ReturnType       *string             `json:"return_type"`
	SqcbAmount       *float64            `json:"sqcb_amount"`
	FeedbackDate     *string             `json:"feedback_date"`
	TargetDate       *string             `json:"target_date"`
	RmaNo            *string             `json:"rma_no"`
	Qm10CompleteDate *string             `json:"qm10_complete_date"`
	PoNo             *string             `json:"po_no"`
	ObdNo            *string             `json:"obd_no"`
	DnIssuedDate     *string             `json:"dn_issued_date"`
	ScrapWeek        *string             `json:"scrap_week"`
	SecondPoNo       *string             `json:"second_po_no"`
	SecondObdNo      *string             `json:"second_obd_no"`
	Comments         *string             `json:"comments"`
	CreatedBy        *string             `json:"created_by"`
	ModifiedBy       *string             `json:"modified_by"`
	CreatedAt        time.Time           `json:"created_at"`
	Modified         time.Time           `json:"modified"`
	Parts            []PartView          `json:"parts"`
	Attachments      []models.Attachment `json:"attachments"`
}

type caseRow struct {
	models.Case
	SupplierName *string
}

type partRow struct {
	Sqcb               string
	NotificationNumber string
	ItemNumber         *string
	Qty                *uint64
	PartNumber         string
	PartName           *string
}

// tagged prefixes the next SELECT with a /* tag */ comment so list queries can be picked
// out of the slow query log and the GORM debug log
func tagged(db *gorm.DB, tag string) *gorm.DB {
	return db.Clauses(hints.CommentBefore("select", tag))
}

// ListCases returns every non-deleted case with its supplier name, parts, pictures and attachments
func ListCases(ctx context.Context, db *gorm.DB) ([]CaseView, error) {
	db = db.WithContext(ctx)

	var rows []caseRow
	err := tagged(db, "sqcb:list").
		Table("sqcb_detail").
		Select("sqcb_detail.*, supp_detail.supplier_name AS supplier_name").
		Joins("LEFT JOIN supp_detail ON sqcb_detail.supplier_code = supp_detail.supplier_code").
		Where("sqcb_detail.is_deleted = ?", false).
		Order("sqcb_detail.id").
		Scan(&rows).Error
	if err != nil {
		return nil, types.NewPersistenceError("Failed to load cases", err)
	}

	views := make([]CaseView, 0, len(rows))
	if len(rows) == 0 {
		return views, nil
	}

	caseNumbers := make([]string, 0, len(rows))
	handlers := make([]string, 0)
	for _, r := range rows {
		caseNumbers = append(caseNumbers, r.Sqcb)
		if r.HdIncharge != nil && *r.HdIncharge != "" {
			handlers = append(handlers, *r.HdIncharge)
		}
	}

	handlerNames, err := loadHandlerNames(db, handlers)
	if err != nil {
		return nil, err
	}
	partsByCase, err := loadParts(db, caseNumbers)
	if err != nil {
		return nil, err
	}
	attachmentsByCase, err := loadAttachments(db, caseNumbers)
	if err != nil {
		return nil, err
	}

	for _, r := range rows {
		view := CaseView{
			SqcbID:           r.ID,
			Sqcb:             r.Sqcb,
			Status:           r.Status,
			RqmrNo:           r.RqmrNo,
			Disposition:      r.Disposition,
			PlantID:          r.PlantID,
			HdIncharge:       r.HdIncharge,
			SupplierCode:     r.SupplierCode,
			SupplierName:     r.SupplierName,
			ReturnType:       r.ReturnType,
			SqcbAmount:       r.SqcbAmount,
			FeedbackDate:     formatDate(r.FeedbackDate),
			TargetDate:       formatDate(r.TargetDate),
			RmaNo:            r.RmaNo,
			Qm10CompleteDate: formatDate(r.Qm10CompleteDate),
			PoNo:             r.PoNo,
			ObdNo:            r.ObdNo,
			DnIssuedDate:     formatDate(r.DnIssuedDate),
			ScrapWeek:        r.ScrapWeek,
			SecondPoNo:       r.SecondPoNo,
			SecondObdNo:      r.SecondObdNo,
			Comments:         r.Comments,
			CreatedAt:        r.CreatedAt,
			Modified:         r.Modified,
			Parts:            partsByCase[r.Sqcb],
			Attachments:      attachmentsByCase[r.Sqcb],
		}
		if r.HdIncharge != nil {
			if name, ok := handlerNames[*r.HdIncharge]; ok {
				view.CreatedBy = &name
				view.ModifiedBy = &name
			}
		}
		if view.Parts == nil {
			view.Parts = []PartView{}
		}
		if view.Attachments == nil {
			view.Attachments = []models.Attachment{}
		}
		views = append(views, view)
	}

	return views, nil
}

// loadHandlerNames maps a handler reference to the matching user's display name
func loadHandlerNames(db *gorm.DB, handlers []string) (map[string]string, error) {
	names := make(map[string]string)
	err := inChunks(unique(handlers), func(chunk []string) error {
		var users []models.User
		if err := db.Select("fullname").Where("fullname IN ?", chunk).Find(&users).Error; err != nil {
			return err
		}
		for _, u := range users {
			names[u.Fullname] = u.Fullname
		}
		return nil
	})
	if err != nil {
		return nil, types.NewPersistenceError("Failed to load case handlers", err)
	}
	return names, nil
}

// loadParts groups non-deleted notification parts, with their pictures, by case number
func loadParts(db *gorm.DB, caseNumbers []string) (map[string][]PartView, error) {
	var rows []partRow
	err := inChunks(caseNumbers, func(chunk []string) error {
		var batch []partRow
		err := tagged(db, "sqcb:list:parts").
			Table("notification_detail").
			Select("notification_detail.sqcb, notification_detail.notification_number, notification_detail.item_number, " +
				"notification_detail.qty, notification_detail.part_number, part_detail.part_name").
			Joins("LEFT JOIN part_detail ON notification_detail.part_number = part_detail.part_number").
			Where("notification_detail.sqcb IN ? AND notification_detail.is_deleted = ?", chunk, false).
			Order("notification_detail.id").
			Scan(&batch).Error
		rows = append(rows, batch...)
		return err
	})
	if err != nil {
		return nil, types.NewPersistenceError("Failed to load case parts", err)
	}

	notificationNumbers := make([]string, 0, len(rows))
	for _, r := range rows {
		notificationNumbers = append(notificationNumbers, r.NotificationNumber)
	}

	picturesByNotification := make(map[string][]PictureView)
	err = inChunks(unique(notificationNumbers), func(chunk []string) error {
		var pictures []models.Picture
		err := tagged(db, "sqcb:list:pictures").
			Where("notification_number IN ? AND is_deleted = ?", chunk, false).
			Order("picture_item_id").
			Find(&pictures).Error
		for _, p := range pictures {
			picturesByNotification[p.NotificationNumber] = append(picturesByNotification[p.NotificationNumber], PictureView{
				PictureID:      p.PictureID,
				PictureName:    p.PictureName,
				PictureAddress: p.PictureAddress,
			})
		}
		return err
	})
	if err != nil {
		return nil, types.NewPersistenceError("Failed to load part pictures", err)
	}

	parts := make(map[string][]PartView)
	for _, r := range rows {
		pictures := picturesByNotification[r.NotificationNumber]
		if pictures == nil {
			pictures = []PictureView{}
		}
		parts[r.Sqcb] = append(parts[r.Sqcb], PartView{
			NotificationNumber: r.NotificationNumber,
			ItemNumber:         r.ItemNumber,
			Qty:                r.Qty,
			PartNumber:         r.PartNumber,
			PartName:           r.PartName,
			Pictures:           pictures,
		})
	}
	return parts, nil
}

// loadAttachments groups non-deleted attachments by case number
func loadAttachments(db *gorm.DB, caseNumbers []string) (map[string][]models.Attachment, error) {
	attachments := make(map[string][]models.Attachment)
	err := inChunks(caseNumbers, func(chunk []string) error {
		var batch []models.Attachment
		err := tagged(db, "sqcb:list:attachments").
			Where("sqcb IN ? AND is_deleted = ?", chunk, false).
			Order("attachment_item_id").
			Find(&batch).Error
		for _, a := range batch {
			attachments[a.Sqcb] = append(attachments[a.Sqcb], a)
		}
		return err
	})
	if err != nil {
		return nil, types.NewPersistenceError("Failed to load case attachments", err)
	}
	return attachments, nil
}
