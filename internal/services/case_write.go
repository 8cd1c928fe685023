// case_write.go
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
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/localnerve/sqcb-service/internal/models"
	"github.com/localnerve/sqcb-service/internal/storage"
	"github.com/localnerve/sqcb-service/internal/types"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var pictureExtensions = map[string]struct{}{
	"png":  {},
	"jpg":  {},
	"jpeg": {},
	"gif":  {},
}

// AllowedPicture reports whether filename has an allow-listed image extension
func AllowedPicture(filename string) bool {
	_, ok := pictureExtensions[storage.Ext(filename)]
	return ok
}

// CreateCase inserts a case with its parts, pictures and attachments in one transaction
// and returns the new case id.
func CreateCase(ctx context.Context, db *gorm.DB, store storage.FileStore, form CaseForm, pictures, attachments []FileUpload) (uint64, error) {
	caseNumber := strings.TrimSpace(form.Sqcb)
	plantID := strings.TrimSpace(form.PlantID)
	supplierCode := strings.TrimSpace(form.SupplierCode)

	if caseNumber == "" {
		return 0, types.NewValidationError("sqcb is required")
	}
	if plantID == "" {
		return 0, types.NewValidationError("plant_id is required")
	}
	if supplierCode == "" {
		return 0, types.NewValidationError("supplier_code is required")
	}

	// Reference checks run before anything is written
	if err := requireReference(PlantExists(ctx, db, plantID), "plant_id", plantID); err != nil {
		return 0, err
	}
	if err := requireReference(SupplierExists(ctx, db, supplierCode), "supplier_code", supplierCode); err != nil {
		return 0, err
	}

	amount, err := parseAmount(form.SqcbAmount)
	if err != nil {
		return 0, err
	}
	parts, err := parseParts(form.Parts)
	if err != nil {
		return 0, err
	}

	pictures = acceptedPictures(pictures)
	attachments = acceptedAttachments(attachments)
	if len(pictures) > 0 && len(parts) == 0 {
		return 0, types.NewValidationError("notification_number required for pictures")
	}

	status := strings.TrimSpace(form.Status)
	if status == "" {
		status = DefaultStatus
	}
	disposition := strings.TrimSpace(form.Disposition)
	if disposition == "" {
		disposition = DefaultDisposition
	}

	record := models.Case{
		Sqcb:             caseNumber,
		Status:           status,
		RqmrNo:           nilIfBlank(form.RqmrNo),
		Disposition:      disposition,
		PlantID:          plantID,
		HdIncharge:       nilIfBlank(form.HdIncharge),
		SupplierCode:     supplierCode,
		ReturnType:       nilIfBlank(form.ReturnType),
		SqcbAmount:       amount,
		FeedbackDate:     ParseDate(form.FeedbackDate),
		TargetDate:       ParseDate(form.TargetDate),
		RmaNo:            nilIfBlank(form.RmaNo),
		Qm10CompleteDate: ParseDate(form.Qm10CompleteDate),
		PoNo:             nilIfBlank(form.PoNo),
		ObdNo:            nilIfBlank(form.ObdNo),
		DnIssuedDate:     ParseDate(form.DnIssuedDate),
		ScrapWeek:        nilIfBlank(form.ScrapWeek),
		SecondPoNo:       nilIfBlank(form.SecondPoNo),
		SecondObdNo:      nilIfBlank(form.SecondObdNo),
		Comments:         nilIfBlank(form.Comments),
	}

	batch := &uploadBatch{store: store}
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&record).Error; err != nil {
			if isDuplicateKey(err) {
				return types.NewValidationError("SQCB '%s' already exists", caseNumber)
			}
			return types.NewPersistenceError("Failed to create SQCB", err)
		}

		if err := insertParts(tx, caseNumber, parts); err != nil {
			return err
		}
		if len(pictures) > 0 {
			if err := addPictures(ctx, tx, batch, parts[0].NotificationNumber.String(), pictures); err != nil {
				return err
			}
		}
		return addAttachments(ctx, tx, batch, caseNumber, attachments)
	})
	if err != nil {
		batch.discard(ctx)
		return 0, asPersistenceError("Failed to create SQCB", err)
	}

	logrus.WithFields(logrus.Fields{
		"sqcb_id":     record.ID,
		"sqcb":        caseNumber,
		"parts":       len(parts),
		"pictures":    len(pictures),
		"attachments": len(attachments),
	}).Info("Created SQCB")

	return record.ID, nil
}

// UpdateCase merges non-blank fields into the case and replaces any child collection supplied
func UpdateCase(ctx context.Context, db *gorm.DB, store storage.FileStore, id uint64, form CaseForm, pictures, attachments []FileUpload) error {
	var existing models.Case
	if err := findLiveCase(db.WithContext(ctx), id, &existing); err != nil {
		return err
	}

	updates, err := caseUpdates(form)
	if err != nil {
		return err
	}
	if v, ok := updates["plant_id"].(string); ok && v != existing.PlantID {
		if err := requireReference(PlantExists(ctx, db, v), "plant_id", v); err != nil {
			return err
		}
	}
	if v, ok := updates["supplier_code"].(string); ok && v != existing.SupplierCode {
		if err := requireReference(SupplierExists(ctx, db, v), "supplier_code", v); err != nil {
			return err
		}
	}

	parts, err := parseParts(form.Parts)
	if err != nil {
		return err
	}
	pictures = acceptedPictures(pictures)
	attachments = acceptedAttachments(attachments)

	batch := &uploadBatch{store: store}
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current models.Case
		if err := findLiveCase(tx.Clauses(clause.Locking{Strength: "UPDATE"}), id, &current); err != nil {
			return err
		}

		caseNumber := current.Sqcb
		if v, ok := updates["sqcb"].(string); ok {
			caseNumber = v
		}

		now := time.Now()
		updates["modified"] = now
		if err := tx.Model(&models.Case{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			if isDuplicateKey(err) {
				return types.NewValidationError("SQCB '%s' already exists", caseNumber)
			}
			return types.NewPersistenceError("Failed to update SQCB", err)
		}

		// Children reference the case number, so they follow a renumbered case
		if caseNumber != current.Sqcb {
			if err := renumberChildren(tx, current.Sqcb, caseNumber); err != nil {
				return err
			}
		}

		if len(parts) > 0 {
			live := tx.Model(&models.NotificationPart{}).Where("sqcb = ? AND is_deleted = ?", caseNumber, false)
			if err := softDelete(live, now); err != nil {
				return types.NewPersistenceError("Failed to replace parts", err)
			}
			if err := insertParts(tx, caseNumber, parts); err != nil {
				return err
			}
		}

		if len(pictures) > 0 {
			notificationNumber, err := pictureNotificationNumber(tx, caseNumber, parts)
			if err != nil {
				return err
			}
			if err := softDelete(casePictures(tx, caseNumber), now); err != nil {
				return types.NewPersistenceError("Failed to replace pictures", err)
			}
			if err := addPictures(ctx, tx, batch, notificationNumber, pictures); err != nil {
				return err
			}
		}

		if len(attachments) > 0 {
			live := tx.Model(&models.Attachment{}).Where("sqcb = ? AND is_deleted = ?", caseNumber, false)
			if err := softDelete(live, now); err != nil {
				return types.NewPersistenceError("Failed to replace attachments", err)
			}
			if err := addAttachments(ctx, tx, batch, caseNumber, attachments); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		batch.discard(ctx)
		return asPersistenceError("Failed to update SQCB", err)
	}

	logrus.WithFields(logrus.Fields{
		"sqcb_id":     id,
		"fields":      len(updates) - 1,
		"parts":       len(parts),
		"pictures":    len(pictures),
		"attachments": len(attachments),
	}).Info("Updated SQCB")

	return nil
}

// DeleteCase soft-deletes a case with its attachments, parts and their pictures
func DeleteCase(ctx context.Context, db *gorm.DB, id uint64) error {
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var record models.Case
		if err := findLiveCase(tx.Clauses(clause.Locking{Strength: "UPDATE"}), id, &record); err != nil {
			return err
		}

		now := time.Now()
		steps := []struct {
			what  string
			query *gorm.DB
		}{
			{"SQCB", tx.Model(&models.Case{}).Where("id = ?", id)},
			{"attachments", tx.Model(&models.Attachment{}).Where("sqcb = ? AND is_deleted = ?", record.Sqcb, false)},
			{"pictures", casePictures(tx, record.Sqcb)},
			{"parts", tx.Model(&models.NotificationPart{}).Where("sqcb = ? AND is_deleted = ?", record.Sqcb, false)},
		}
		for _, step := range steps {
			if err := softDelete(step.query, now); err != nil {
				return types.NewPersistenceError("Failed to delete "+step.what, err)
			}
		}
		return nil
	})
	if err != nil {
		return asPersistenceError("Failed to delete SQCB", err)
	}

	logrus.WithField("sqcb_id", id).Info("Deleted SQCB")
	return nil
}

// DeleteAttachment soft-deletes a single attachment
func DeleteAttachment(ctx context.Context, db *gorm.DB, attachmentID string) error {
	result := db.WithContext(ctx).Model(&models.Attachment{}).
		Where("attachment_id = ? AND is_deleted = ?", attachmentID, false).
		Updates(map[string]interface{}{"is_deleted": true, "deleted_at": time.Now()})
	if result.Error != nil {
		return types.NewPersistenceError("Failed to delete attachment", result.Error)
	}
	if result.RowsAffected == 0 {
		return types.NewNotFoundError("Attachment '%s' not found or already deleted", attachmentID)
	}

	logrus.WithField("attachment_id", attachmentID).Info("Deleted attachment")
	return nil
}

func findLiveCase(db *gorm.DB, id uint64, dest *models.Case) error {
	err := db.Where("id = ? AND is_deleted = ?", id, false).Take(dest).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return types.NewNotFoundError("SQCB with ID %d not found or is deleted", id)
	}
	if err != nil {
		return types.NewPersistenceError("Failed to load SQCB", err)
	}
	return nil
}

// caseUpdates collects the columns to overwrite; blank values keep what is stored
func caseUpdates(form CaseForm) (map[string]interface{}, error) {
	updates := make(map[string]interface{})

	text := []struct {
		column string
		value  string
	}{
		{"sqcb", form.Sqcb},
		{"status", form.Status},
		{"rqmr_no", form.RqmrNo},
		{"disposition", form.Disposition},
		{"plant_id", form.PlantID},
		{"hd_incharge", form.HdIncharge},
		{"supplier_code", form.SupplierCode},
		{"return_type", form.ReturnType},
		{"rma_no", form.RmaNo},
		{"po_no", form.PoNo},
		{"obd_no", form.ObdNo},
		{"scrap_week", form.ScrapWeek},
		{"second_po_no", form.SecondPoNo},
		{"second_obd_no", form.SecondObdNo},
		{"comments", form.Comments},
	}
	for _, f := range text {
		if v := strings.TrimSpace(f.value); v != "" {
			updates[f.column] = v
		}
	}

	dates := []struct {
		column string
		value  string
	}{
		{"feedback_date", form.FeedbackDate},
		{"target_date", form.TargetDate},
		{"qm10_complete_date", form.Qm10CompleteDate},
		{"dn_issued_date", form.DnIssuedDate},
	}
	for _, f := range dates {
		if d := ParseDate(f.value); d != nil {
			updates[f.column] = *d
		}
	}

	amount, err := parseAmount(form.SqcbAmount)
	if err != nil {
		return nil, err
	}
	if amount != nil {
		updates["sqcb_amount"] = *amount
	}

	return updates, nil
}

func parseAmount(raw string) (*float64, error) {
	raw = strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	if raw == "" {
		return nil, nil
	}
	amount, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return nil, types.NewValidationError("sqcb_amount '%s' is not a number", raw)
	}
	return &amount, nil
}

func parseParts(raw string) ([]PartInput, error) {
	list, err := types.ParseFlexList[PartInput](raw)
	if err != nil {
		return nil, types.NewValidationError("Invalid parts data: %v", err)
	}
	for i, p := range list {
		if p.NotificationNumber.String() == "" {
			return nil, types.NewValidationError("parts[%d]: notification_number is required", i)
		}
		if p.PartNumber.String() == "" {
			return nil, types.NewValidationError("parts[%d]: part_number is required", i)
		}
	}
	return list.Slice(), nil
}

// insertParts upserts each part by number and links it to the case
func insertParts(tx *gorm.DB, caseNumber string, parts []PartInput) error {
	for _, p := range parts {
		part := models.Part{PartNumber: p.PartNumber.String(), PartName: p.PartName.String()}
		upsert := clause.OnConflict{Columns: []clause.Column{{Name: "part_number"}}, DoNothing: true}
		if part.PartName != "" {
			upsert = clause.OnConflict{
				Columns:   []clause.Column{{Name: "part_number"}},
				DoUpdates: clause.AssignmentColumns([]string{"part_name"}),
			}
		}
		if err := tx.Clauses(upsert).Create(&part).Error; err != nil {
			return types.NewPersistenceError("Failed to save part "+part.PartNumber, err)
		}

		line := models.NotificationPart{
			NotificationNumber: p.NotificationNumber.String(),
			Sqcb:               caseNumber,
			ItemNumber:         nilIfBlank(p.ItemNumber.String()),
			Qty:                p.Qty.Ptr(),
			PartNumber:         part.PartNumber,
		}
		if err := tx.Create(&line).Error; err != nil {
			return types.NewPersistenceError("Failed to save notification part", err)
		}
	}
	return nil
}

// pictureNotificationNumber picks the part that new pictures hang off
func pictureNotificationNumber(tx *gorm.DB, caseNumber string, parts []PartInput) (string, error) {
	if len(parts) > 0 {
		return parts[0].NotificationNumber.String(), nil
	}

	var line models.NotificationPart
	err := tx.Where("sqcb = ? AND is_deleted = ?", caseNumber, false).Order("id").Take(&line).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", types.NewValidationError("notification_number required for pictures")
	}
	if err != nil {
		return "", types.NewPersistenceError("Failed to load parts", err)
	}
	return line.NotificationNumber, nil
}

// casePictures scopes live pictures under any notification number the case has used
func casePictures(tx *gorm.DB, caseNumber string) *gorm.DB {
	numbers := tx.Model(&models.NotificationPart{}).Select("notification_number").Where("sqcb = ?", caseNumber)
	return tx.Model(&models.Picture{}).Where("notification_number IN (?) AND is_deleted = ?", numbers, false)
}

func renumberChildren(tx *gorm.DB, from, to string) error {
	if err := tx.Model(&models.NotificationPart{}).Where("sqcb = ?", from).Update("sqcb", to).Error; err != nil {
		return types.NewPersistenceError("Failed to renumber parts", err)
	}
	if err := tx.Model(&models.Attachment{}).Where("sqcb = ?", from).Update("sqcb", to).Error; err != nil {
		return types.NewPersistenceError("Failed to renumber attachments", err)
	}
	return nil
}

func softDelete(query *gorm.DB, now time.Time) error {
	return query.Updates(map[string]interface{}{"is_deleted": true, "deleted_at": now}).Error
}

// lastItemID reads the highest sequence number in use, locking it until the transaction ends
func lastItemID(tx *gorm.DB, table, column string) (uint64, error) {
	query := tx.Table(table).Order(column + " DESC").Limit(1)
	if tx.Dialector.Name() != "sqlserver" {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var ids []uint64
	if err := query.Pluck(column, &ids).Error; err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}
	return ids[0], nil
}

func addPictures(ctx context.Context, tx *gorm.DB, batch *uploadBatch, notificationNumber string, files []FileUpload) error {
	last, err := lastItemID(tx, "picture", "picture_item_id")
	if err != nil {
		return types.NewPersistenceError("Failed to allocate picture ids", err)
	}

	for i, f := range files {
		itemID := last + uint64(i) + 1
		pictureID := fmt.Sprintf("%s_%03d", notificationNumber, itemID)
		name := displayName(f.Filename)

		address, err := batch.save(ctx, pictureID+"_"+name, f)
		if err != nil {
			return types.NewPersistenceError("Failed to upload pictures", err)
		}

		picture := models.Picture{
			PictureID:          pictureID,
			NotificationNumber: notificationNumber,
			PictureItemID:      itemID,
			PictureName:        name,
			PictureAddress:     address,
		}
		if err := tx.Create(&picture).Error; err != nil {
			if isDuplicateKey(err) {
				return types.NewPersistenceError("Picture id "+pictureID+" was taken by a concurrent request", err)
			}
			return types.NewPersistenceError("Failed to save picture", err)
		}
	}
	return nil
}

func addAttachments(ctx context.Context, tx *gorm.DB, batch *uploadBatch, caseNumber string, files []FileUpload) error {
	if len(files) == 0 {
		return nil
	}

	last, err := lastItemID(tx, "attachments", "attachment_item_id")
	if err != nil {
		return types.NewPersistenceError("Failed to allocate attachment ids", err)
	}

	for i, f := range files {
		itemID := last + uint64(i) + 1
		attachmentID := fmt.Sprintf("%s_%03d", caseNumber, itemID)
		name := displayName(f.Filename)

		address, err := batch.save(ctx, attachmentID+"_"+name, f)
		if err != nil {
			return types.NewPersistenceError("Failed to upload attachments", err)
		}

		attachment := models.Attachment{
			AttachmentID:      attachmentID,
			Sqcb:              caseNumber,
			AttachmentItemID:  itemID,
			AttachmentName:    name,
			AttachmentAddress: address,
		}
		if err := tx.Create(&attachment).Error; err != nil {
			if isDuplicateKey(err) {
				return types.NewPersistenceError("Attachment id "+attachmentID+" was taken by a concurrent request", err)
			}
			return types.NewPersistenceError("Failed to save attachment", err)
		}
	}
	return nil
}

func displayName(filename string) string {
	if name := storage.SecureFilename(filename); name != "" {
		return name
	}
	return "unnamed"
}

func acceptedPictures(files []FileUpload) []FileUpload {
	accepted := make([]FileUpload, 0, len(files))
	for _, f := range files {
		if f.Filename == "" {
			continue
		}
		if !AllowedPicture(f.Filename) {
			logrus.WithField("filename", f.Filename).Warn("Skipping picture with unsupported extension")
			continue
		}
		accepted = append(accepted, f)
	}
	return accepted
}

func acceptedAttachments(files []FileUpload) []FileUpload {
	accepted := make([]FileUpload, 0, len(files))
	for _, f := range files {
		if f.Filename != "" {
			accepted = append(accepted, f)
		}
	}
	return accepted
}

// asPersistenceError keeps taxonomy errors and wraps anything else, such as a failed commit
func asPersistenceError(message string, err error) error {
	var ce *types.CustomError
	if errors.As(err, &ce) {
		return err
	}
	return types.NewPersistenceError(message, err)
}

// uploadBatch tracks files stored by one request so a rollback can remove them
type uploadBatch struct {
	store storage.FileStore
	saved []string
}

func (b *uploadBatch) save(ctx context.Context, name string, f FileUpload) (string, error) {
	r, err := f.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open upload %s: %w", f.Filename, err)
	}
	defer r.Close()

	address, err := b.store.Save(ctx, name, r)
	if err != nil {
		return "", err
	}
	b.saved = append(b.saved, address)
	return address, nil
}

func (b *uploadBatch) discard(ctx context.Context) {
	ctx = context.WithoutCancel(ctx)
	for _, address := range b.saved {
		if err := b.store.Remove(ctx, address); err != nil {
			logrus.WithError(err).WithField("address", address).Warn("Failed to remove stored file after rollback")
		}
	}
	b.saved = nil
}
