package services

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/localnerve/sqcb-service/internal/models"
	"github.com/localnerve/sqcb-service/internal/testutil"
	"github.com/localnerve/sqcb-service/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func upload(name, content string) FileUpload {
	return FileUpload{
		Filename: name,
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader(content)), nil
		},
	}
}

func baseForm(caseNumber string) CaseForm {
	return CaseForm{
		Sqcb:         caseNumber,
		PlantID:      testutil.PlantID,
		SupplierCode: testutil.SupplierCode,
	}
}

func countRows(t *testing.T, db *gorm.DB, model interface{}, where ...interface{}) int64 {
	t.Helper()
	var n int64
	q := db.Model(model)
	if len(where) > 0 {
		q = q.Where(where[0], where[1:]...)
	}
	require.NoError(t, q.Count(&n).Error)
	return n
}

func setup(t *testing.T) (*gorm.DB, *testutil.MemoryStore) {
	db := testutil.NewTestDB(t)
	testutil.SeedReference(t, db)
	return db, testutil.NewMemoryStore()
}

func TestCreateCaseRejectsUnknownPlant(t *testing.T) {
	db, store := setup(t)
	ctx := context.Background()

	form := baseForm("SQCB-1")
	form.PlantID = "NOPE"
	form.Parts = `[{"notification_number":"N1","part_number":"PN-1","part_name":"Bracket"}]`

	_, err := CreateCase(ctx, db, store, form, []FileUpload{upload("a.png", "img")}, []FileUpload{upload("doc.pdf", "pdf")})
	require.Error(t, err)
	assert.True(t, types.IsType(err, types.ErrorTypeValidation))
	assert.Contains(t, err.Error(), "plant_id 'NOPE' does not exist")

	assert.Zero(t, countRows(t, db, &models.Case{}))
	assert.Zero(t, countRows(t, db, &models.NotificationPart{}))
	assert.Zero(t, countRows(t, db, &models.Part{}))
	assert.Zero(t, countRows(t, db, &models.Picture{}))
	assert.Empty(t, store.Files())
}

func TestCreateCaseRejectsUnknownSupplier(t *testing.T) {
	db, store := setup(t)

	form := baseForm("SQCB-1")
	form.SupplierCode = "S999"

	_, err := CreateCase(context.Background(), db, store, form, nil, nil)
	require.Error(t, err)
	assert.True(t, types.IsType(err, types.ErrorTypeValidation))
	assert.Contains(t, err.Error(), "supplier_code 'S999' does not exist")
	assert.Zero(t, countRows(t, db, &models.Case{}))
}

func TestCreateCaseRequiresFields(t *testing.T) {
	db, store := setup(t)
	ctx := context.Background()

	for _, form := range []CaseForm{
		{PlantID: testutil.PlantID, SupplierCode: testutil.SupplierCode},
		{Sqcb: "X", SupplierCode: testutil.SupplierCode},
		{Sqcb: "X", PlantID: testutil.PlantID},
	} {
		_, err := CreateCase(ctx, db, store, form, nil, nil)
		assert.True(t, types.IsType(err, types.ErrorTypeValidation), "form %+v", form)
	}
}

func TestCreateCaseDefaultsAndNulls(t *testing.T) {
	db, store := setup(t)

	form := baseForm("SQCB-2")
	form.RqmrNo = "  "
	form.SqcbAmount = "1,250.50"
	form.FeedbackDate = "2024-03-15"
	form.TargetDate = "15/03/2024"
	form.DnIssuedDate = "March 15th"
	form.Qm10CompleteDate = ""

	id, err := CreateCase(context.Background(), db, store, form, nil, nil)
	require.NoError(t, err)

	var stored models.Case
	require.NoError(t, db.First(&stored, id).Error)
	assert.Equal(t, DefaultStatus, stored.Status)
	assert.Equal(t, DefaultDisposition, stored.Disposition)
	assert.Nil(t, stored.RqmrNo)
	require.NotNil(t, stored.SqcbAmount)
	assert.InDelta(t, 1250.50, *stored.SqcbAmount, 0.001)

	require.NotNil(t, stored.FeedbackDate)
	require.NotNil(t, stored.TargetDate)
	assert.Equal(t, "2024-03-15", *formatDate(stored.FeedbackDate))
	assert.Equal(t, *formatDate(stored.FeedbackDate), *formatDate(stored.TargetDate))
	assert.Nil(t, stored.DnIssuedDate)
	assert.Nil(t, stored.Qm10CompleteDate)
}

func TestCreateCaseInvalidAmount(t *testing.T) {
	db, store := setup(t)
	form := baseForm("SQCB-3")
	form.SqcbAmount = "lots"

	_, err := CreateCase(context.Background(), db, store, form, nil, nil)
	assert.True(t, types.IsType(err, types.ErrorTypeValidation))
}

func TestCreateCaseDuplicateNumber(t *testing.T) {
	db, store := setup(t)
	ctx := context.Background()

	_, err := CreateCase(ctx, db, store, baseForm("SQCB-DUP"), nil, nil)
	require.NoError(t, err)

	_, err = CreateCase(ctx, db, store, baseForm("SQCB-DUP"), nil, nil)
	require.Error(t, err)
	assert.True(t, types.IsType(err, types.ErrorTypeValidation))
	assert.Equal(t, int64(1), countRows(t, db, &models.Case{}))
}

func TestCreateCasePictureSequence(t *testing.T) {
	db, store := setup(t)
	ctx := context.Background()

	// Pre-existing maximum of 7
	require.NoError(t, db.Create(&models.Picture{
		PictureID:          "OLD_007",
		NotificationNumber: "OLD",
		PictureItemID:      7,
		PictureName:        "old.png",
		PictureAddress:     "mem/old.png",
	}).Error)

	form := baseForm("SQCB-4")
	form.Parts = `[{"notification_number":"N-400","item_number":10,"qty":"2","part_number":"PN-4","part_name":"Housing"}]`

	pictures := []FileUpload{
		upload("front view.png", "one"),
		upload("notes.txt", "skipped"),
		upload("side.JPG", "two"),
	}
	_, err := CreateCase(ctx, db, store, form, pictures, nil)
	require.NoError(t, err)

	var stored []models.Picture
	require.NoError(t, db.Where("notification_number = ?", "N-400").Order("picture_item_id").Find(&stored).Error)
	require.Len(t, stored, 2)
	assert.Equal(t, uint64(8), stored[0].PictureItemID)
	assert.Equal(t, uint64(9), stored[1].PictureItemID)
	assert.Equal(t, "N-400_008", stored[0].PictureID)
	assert.Equal(t, "N-400_009", stored[1].PictureID)
	assert.Equal(t, "front_view.png", stored[0].PictureName)
	assert.Equal(t, "mem/N-400_008_front_view.png", stored[0].PictureAddress)

	files := store.Files()
	assert.Equal(t, "one", files["mem/N-400_008_front_view.png"])
	assert.Equal(t, "two", files["mem/N-400_009_side.JPG"])
}

func TestCreateCaseAttachmentsAndParts(t *testing.T) {
	db, store := setup(t)
	ctx := context.Background()

	require.NoError(t, db.Create(&models.Part{PartNumber: "PN-5", PartName: "Old name"}).Error)

	form := baseForm("SQCB-5")
	form.Parts = `{"notification_number":"N-500","item_number":"0010","qty":3,"part_number":"PN-5","part_name":"New name"}`

	_, err := CreateCase(ctx, db, store, form, nil, []FileUpload{upload("report.pdf", "a"), upload("data.xlsx", "b")})
	require.NoError(t, err)

	var part models.Part
	require.NoError(t, db.First(&part, "part_number = ?", "PN-5").Error)
	assert.Equal(t, "New name", part.PartName)

	var line models.NotificationPart
	require.NoError(t, db.First(&line, "sqcb = ?", "SQCB-5").Error)
	assert.Equal(t, "N-500", line.NotificationNumber)
	require.NotNil(t, line.Qty)
	assert.Equal(t, uint64(3), *line.Qty)
	require.NotNil(t, line.ItemNumber)
	assert.Equal(t, "0010", *line.ItemNumber)

	var attachments []models.Attachment
	require.NoError(t, db.Order("attachment_item_id").Find(&attachments).Error)
	require.Len(t, attachments, 2)
	assert.Equal(t, "SQCB-5_001", attachments[0].AttachmentID)
	assert.Equal(t, "SQCB-5_002", attachments[1].AttachmentID)
	assert.Equal(t, "data.xlsx", attachments[1].AttachmentName)
}

func TestCreateCasePicturesNeedParts(t *testing.T) {
	db, store := setup(t)

	_, err := CreateCase(context.Background(), db, store, baseForm("SQCB-6"), []FileUpload{upload("a.png", "x")}, nil)
	require.Error(t, err)
	assert.True(t, types.IsType(err, types.ErrorTypeValidation))
	assert.Zero(t, countRows(t, db, &models.Case{}))
}

func TestCreateCaseRollsBackOnUploadFailure(t *testing.T) {
	db, store := setup(t)
	store.FailOn = "broken"

	form := baseForm("SQCB-7")
	form.Parts = `[{"notification_number":"N-700","part_number":"PN-7"}]`

	_, err := CreateCase(context.Background(), db, store, form,
		[]FileUpload{upload("good.png", "ok")},
		[]FileUpload{upload("broken.pdf", "x")},
	)
	require.Error(t, err)
	assert.True(t, types.IsType(err, types.ErrorTypePersistence))

	assert.Zero(t, countRows(t, db, &models.Case{}))
	assert.Zero(t, countRows(t, db, &models.NotificationPart{}))
	assert.Zero(t, countRows(t, db, &models.Picture{}))
	assert.Empty(t, store.Files(), "stored picture must be removed after rollback")
}

func TestUpdateCaseMergesFields(t *testing.T) {
	db, store := setup(t)
	ctx := context.Background()

	form := baseForm("SQCB-8")
	form.Status = "In Progress"
	form.RmaNo = "RMA-1"
	form.Comments = "first"
	form.SqcbAmount = "99.5"
	form.FeedbackDate = "2024-01-02"
	id, err := CreateCase(ctx, db, store, form, nil, nil)
	require.NoError(t, err)

	var before models.Case
	require.NoError(t, db.First(&before, id).Error)

	// All blank: nothing changes
	require.NoError(t, UpdateCase(ctx, db, store, id, CaseForm{Status: " ", FeedbackDate: "not a date"}, nil, nil))

	var after models.Case
	require.NoError(t, db.First(&after, id).Error)
	assert.Equal(t, before.Sqcb, after.Sqcb)
	assert.Equal(t, before.Status, after.Status)
	assert.Equal(t, before.RmaNo, after.RmaNo)
	assert.Equal(t, before.Comments, after.Comments)
	assert.Equal(t, before.SqcbAmount, after.SqcbAmount)
	assert.Equal(t, *formatDate(before.FeedbackDate), *formatDate(after.FeedbackDate))
	assert.Equal(t, before.PlantID, after.PlantID)

	// One field replaced
	require.NoError(t, UpdateCase(ctx, db, store, id, CaseForm{Comments: "second", TargetDate: "31/12/2024"}, nil, nil))
	require.NoError(t, db.First(&after, id).Error)
	require.NotNil(t, after.Comments)
	assert.Equal(t, "second", *after.Comments)
	assert.Equal(t, "2024-12-31", *formatDate(after.TargetDate))
	assert.Equal(t, before.Status, after.Status)
	assert.Equal(t, before.RmaNo, after.RmaNo)
}

func TestUpdateCaseNotFound(t *testing.T) {
	db, store := setup(t)
	ctx := context.Background()

	err := UpdateCase(ctx, db, store, 404, CaseForm{Comments: "x"}, nil, nil)
	assert.True(t, types.IsType(err, types.ErrorTypeNotFound))

	id, err := CreateCase(ctx, db, store, baseForm("SQCB-9"), nil, nil)
	require.NoError(t, err)
	require.NoError(t, DeleteCase(ctx, db, id))

	err = UpdateCase(ctx, db, store, id, CaseForm{Comments: "x"}, nil, nil)
	assert.True(t, types.IsType(err, types.ErrorTypeNotFound))
}

func TestUpdateCaseValidatesChangedReferences(t *testing.T) {
	db, store := setup(t)
	ctx := context.Background()

	id, err := CreateCase(ctx, db, store, baseForm("SQCB-10"), nil, nil)
	require.NoError(t, err)

	err = UpdateCase(ctx, db, store, id, CaseForm{SupplierCode: "S999"}, nil, nil)
	assert.True(t, types.IsType(err, types.ErrorTypeValidation))

	require.NoError(t, UpdateCase(ctx, db, store, id, CaseForm{SupplierCode: testutil.OtherSupplier}, nil, nil))
	var stored models.Case
	require.NoError(t, db.First(&stored, id).Error)
	assert.Equal(t, testutil.OtherSupplier, stored.SupplierCode)
}

func TestUpdateCaseReplacesChildren(t *testing.T) {
	db, store := setup(t)
	ctx := context.Background()

	form := baseForm("SQCB-11")
	form.Parts = `[{"notification_number":"N-1100","part_number":"PN-11"}]`
	id, err := CreateCase(ctx, db, store, form, []FileUpload{upload("a.png", "a")}, []FileUpload{upload("a.pdf", "a")})
	require.NoError(t, err)

	update := CaseForm{Parts: `[{"notification_number":"N-1101","part_number":"PN-12"},{"notification_number":"N-1102","part_number":"PN-13"}]`}
	require.NoError(t, UpdateCase(ctx, db, store, id, update,
		[]FileUpload{upload("b.gif", "b")},
		[]FileUpload{upload("b.pdf", "b"), upload("c.pdf", "c")},
	))

	assert.Equal(t, int64(2), countRows(t, db, &models.NotificationPart{}, "sqcb = ? AND is_deleted = ?", "SQCB-11", false))
	assert.Equal(t, int64(1), countRows(t, db, &models.NotificationPart{}, "sqcb = ? AND is_deleted = ?", "SQCB-11", true))

	var pictures []models.Picture
	require.NoError(t, db.Where("is_deleted = ?", false).Find(&pictures).Error)
	require.Len(t, pictures, 1)
	assert.Equal(t, "N-1101", pictures[0].NotificationNumber)
	assert.Equal(t, uint64(2), pictures[0].PictureItemID)
	assert.Equal(t, int64(1), countRows(t, db, &models.Picture{}, "is_deleted = ?", true))

	assert.Equal(t, int64(2), countRows(t, db, &models.Attachment{}, "sqcb = ? AND is_deleted = ?", "SQCB-11", false))
	assert.Equal(t, int64(1), countRows(t, db, &models.Attachment{}, "sqcb = ? AND is_deleted = ?", "SQCB-11", true))
}

func TestUpdateCasePicturesUseCurrentPart(t *testing.T) {
	db, store := setup(t)
	ctx := context.Background()

	form := baseForm("SQCB-12")
	form.Parts = `[{"notification_number":"N-1200","part_number":"PN-12"}]`
	id, err := CreateCase(ctx, db, store, form, nil, nil)
	require.NoError(t, err)

	require.NoError(t, UpdateCase(ctx, db, store, id, CaseForm{}, []FileUpload{upload("x.jpeg", "x")}, nil))

	var picture models.Picture
	require.NoError(t, db.First(&picture).Error)
	assert.Equal(t, "N-1200", picture.NotificationNumber)

	bare, err := CreateCase(ctx, db, store, baseForm("SQCB-13"), nil, nil)
	require.NoError(t, err)
	err = UpdateCase(ctx, db, store, bare, CaseForm{}, []FileUpload{upload("y.png", "y")}, nil)
	assert.True(t, types.IsType(err, types.ErrorTypeValidation))
}

func TestUpdateCaseRenumbersChildren(t *testing.T) {
	db, store := setup(t)
	ctx := context.Background()

	form := baseForm("SQCB-14")
	form.Parts = `[{"notification_number":"N-1400","part_number":"PN-14"}]`
	id, err := CreateCase(ctx, db, store, form, nil, []FileUpload{upload("a.pdf", "a")})
	require.NoError(t, err)

	require.NoError(t, UpdateCase(ctx, db, store, id, CaseForm{Sqcb: "SQCB-14B"}, nil, nil))

	assert.Equal(t, int64(1), countRows(t, db, &models.NotificationPart{}, "sqcb = ?", "SQCB-14B"))
	assert.Equal(t, int64(1), countRows(t, db, &models.Attachment{}, "sqcb = ?", "SQCB-14B"))

	cases, err := ListCases(ctx, db)
	require.NoError(t, err)
	require.Len(t, cases, 1)
	assert.Len(t, cases[0].Parts, 1)
	assert.Len(t, cases[0].Attachments, 1)
}

func TestDeleteCaseCascades(t *testing.T) {
	db, store := setup(t)
	ctx := context.Background()

	form := baseForm("SQCB-15")
	form.Parts = `[{"notification_number":"N-1500","part_number":"PN-15"}]`
	id, err := CreateCase(ctx, db, store, form, []FileUpload{upload("a.png", "a")}, []FileUpload{upload("a.pdf", "a")})
	require.NoError(t, err)
	keep, err := CreateCase(ctx, db, store, baseForm("SQCB-16"), nil, nil)
	require.NoError(t, err)

	require.NoError(t, DeleteCase(ctx, db, id))

	cases, err := ListCases(ctx, db)
	require.NoError(t, err)
	require.Len(t, cases, 1)
	assert.Equal(t, keep, cases[0].SqcbID)

	var record models.Case
	require.NoError(t, db.First(&record, id).Error)
	assert.True(t, record.IsDeleted)
	assert.NotNil(t, record.DeletedAt)

	assert.Zero(t, countRows(t, db, &models.Attachment{}, "is_deleted = ?", false))
	assert.Zero(t, countRows(t, db, &models.NotificationPart{}, "sqcb = ? AND is_deleted = ?", "SQCB-15", false))
	assert.Zero(t, countRows(t, db, &models.Picture{}, "is_deleted = ?", false))
	assert.Equal(t, int64(1), countRows(t, db, &models.Picture{}, "is_deleted = ? AND deleted_at IS NOT NULL", true))

	err = DeleteCase(ctx, db, id)
	assert.True(t, types.IsType(err, types.ErrorTypeNotFound))
}

func TestDeleteAttachmentLeavesSiblings(t *testing.T) {
	db, store := setup(t)
	ctx := context.Background()

	id, err := CreateCase(ctx, db, store, baseForm("SQCB-17"), nil, []FileUpload{upload("a.pdf", "a"), upload("b.pdf", "b")})
	require.NoError(t, err)

	require.NoError(t, DeleteAttachment(ctx, db, "SQCB-17_001"))

	var sibling models.Attachment
	require.NoError(t, db.First(&sibling, "attachment_id = ?", "SQCB-17_002").Error)
	assert.False(t, sibling.IsDeleted)

	var record models.Case
	require.NoError(t, db.First(&record, id).Error)
	assert.False(t, record.IsDeleted)

	err = DeleteAttachment(ctx, db, "SQCB-17_001")
	assert.True(t, types.IsType(err, types.ErrorTypeNotFound))
	err = DeleteAttachment(ctx, db, "missing")
	assert.True(t, types.IsType(err, types.ErrorTypeNotFound))
}

func TestListCasesNesting(t *testing.T) {
	db, store := setup(t)
	ctx := context.Background()

	testutil.SeedUser(t, db, "handler", "secret-password", nil)
	handler := "Test handler"

	form := baseForm("SQCB-18")
	form.HdIncharge = handler
	form.FeedbackDate = "01/02/2024"
	form.Parts = `[{"notification_number":"N-1800","part_number":"PN-18","part_name":"Clip","qty":5},{"notification_number":"N-1801","part_number":"PN-19"}]`
	_, err := CreateCase(ctx, db, store, form, []FileUpload{upload("a.png", "a"), upload("b.png", "b")}, []FileUpload{upload("a.pdf", "a")})
	require.NoError(t, err)

	cases, err := ListCases(ctx, db)
	require.NoError(t, err)
	require.Len(t, cases, 1)

	c := cases[0]
	require.NotNil(t, c.SupplierName)
	assert.Equal(t, testutil.SupplierName, *c.SupplierName)
	require.NotNil(t, c.CreatedBy)
	assert.Equal(t, handler, *c.CreatedBy)
	require.NotNil(t, c.FeedbackDate)
	assert.Equal(t, "2024-02-01", *c.FeedbackDate)
	assert.WithinDuration(t, time.Now(), c.Modified, time.Minute)

	require.Len(t, c.Parts, 2)
	assert.Equal(t, "N-1800", c.Parts[0].NotificationNumber)
	require.NotNil(t, c.Parts[0].PartName)
	assert.Equal(t, "Clip", *c.Parts[0].PartName)
	assert.Len(t, c.Parts[0].Pictures, 2)
	assert.NotNil(t, c.Parts[1].Pictures)
	assert.Empty(t, c.Parts[1].Pictures)
	assert.Len(t, c.Attachments, 1)
}

func TestListCasesEmpty(t *testing.T) {
	db, _ := setup(t)
	cases, err := ListCases(context.Background(), db)
	require.NoError(t, err)
	assert.NotNil(t, cases)
	assert.Empty(t, cases)
}

func TestParseDate(t *testing.T) {
	iso := ParseDate("2024-03-15")
	dmy := ParseDate("15/03/2024")
	require.NotNil(t, iso)
	require.NotNil(t, dmy)
	assert.Equal(t, *formatDate(iso), *formatDate(dmy))

	for _, unpadded := range []string{"2024-3-5", "5/3/2024", "05/3/2024", "2024-03-5"} {
		d := ParseDate(unpadded)
		require.NotNil(t, d, unpadded)
		assert.Equal(t, "2024-03-05", *formatDate(d), unpadded)
	}

	assert.Nil(t, ParseDate(""))
	assert.Nil(t, ParseDate("   "))
	assert.Nil(t, ParseDate("2024/03/15"))
	assert.Nil(t, ParseDate("31/02/2024"))
}

func TestUpdateCaseUnpaddedDateReplaces(t *testing.T) {
	db, store := setup(t)
	ctx := context.Background()

	form := baseForm("SQCB-D1")
	form.FeedbackDate = "5/3/2024"
	id, err := CreateCase(ctx, db, store, form, nil, nil)
	require.NoError(t, err)

	var stored models.Case
	require.NoError(t, db.First(&stored, id).Error)
	require.NotNil(t, stored.FeedbackDate)
	assert.Equal(t, "2024-03-05", *formatDate(stored.FeedbackDate))

	require.NoError(t, UpdateCase(ctx, db, store, id, CaseForm{FeedbackDate: "2024-4-9"}, nil, nil))
	require.NoError(t, db.First(&stored, id).Error)
	assert.Equal(t, "2024-04-09", *formatDate(stored.FeedbackDate))
}

func TestUpdateCaseEmptyPartsListKeepsParts(t *testing.T) {
	db, store := setup(t)
	ctx := context.Background()

	form := baseForm("SQCB-E1")
	form.Parts = `[{"notification_number":"N-E1","part_number":"PN-E1"}]`
	id, err := CreateCase(ctx, db, store, form, nil, nil)
	require.NoError(t, err)

	require.NoError(t, UpdateCase(ctx, db, store, id, CaseForm{Parts: "[]"}, nil, nil))
	assert.Equal(t, int64(1), countRows(t, db, &models.NotificationPart{}, "sqcb = ? AND is_deleted = ?", "SQCB-E1", false))
}

func TestListQueriesAreTagged(t *testing.T) {
	db, _ := setup(t)

	for _, tag := range []string{"sqcb:list", "sqcb:list:parts", "sqcb:list:pictures", "sqcb:list:attachments"} {
		sql := db.ToSQL(func(tx *gorm.DB) *gorm.DB {
			var rows []models.Attachment
			return tagged(tx, tag).Where("sqcb IN ?", []string{"A"}).Find(&rows)
		})
		assert.True(t, strings.HasPrefix(sql, "/* "+tag+" */ SELECT"), sql)
	}
}

func TestAllowedPicture(t *testing.T) {
	for _, name := range []string{"a.png", "b.JPG", "c.jpeg", "d.gif"} {
		assert.True(t, AllowedPicture(name), name)
	}
	for _, name := range []string{"a.bmp", "b.pdf", "noext", "png"} {
		assert.False(t, AllowedPicture(name), name)
	}
}
