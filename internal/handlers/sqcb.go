// sqcb.go
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

package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/sqcb-service/internal/services"
	"github.com/localnerve/sqcb-service/internal/storage"
	"github.com/localnerve/sqcb-service/internal/types"
	"github.com/localnerve/sqcb-service/internal/utils"
	"gorm.io/gorm"
)

// SqcbHandler handles case record routes
type SqcbHandler struct {
	DB    *gorm.DB
	Store storage.FileStore
}

// ListSqcb handles GET /sqcb
// @Summary List cases
// @Description All non-deleted cases with supplier name, parts (with pictures) and attachments
// @Tags SQCB
// @Produce json
// @Success 200 {array} services.CaseView
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /sqcb [get]
func (h *SqcbHandler) ListSqcb(c *fiber.Ctx) error {
	cases, err := services.ListCases(c.UserContext(), h.DB)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(cases)
}

// CreateSqcb handles POST /sqcb
// @Summary Create a case
// @Description Multipart form: case fields, "parts" as JSON, "pictures" and "attachments" files
// @Tags SQCB
// @Accept multipart/form-data
// @Produce json
// @Param sqcb formData string true "Case number"
// @Param plant_id formData string true "Plant id"
// @Param supplier_code formData string true "Supplier code"
// @Param parts formData string false "JSON array of parts"
// @Param pictures formData file false "Pictures (png, jpg, jpeg, gif)"
// @Param attachments formData file false "Attachments"
// @Success 201 {object} utils.CreatedResponseStruct
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /sqcb [post]
func (h *SqcbHandler) CreateSqcb(c *fiber.Ctx) error {
	form, pictures, attachments, err := parseCaseRequest(c)
	if err != nil {
		return err
	}
	if len(c.Body()) == 0 {
		return types.NewValidationError("No SQCB data provided")
	}

	id, err := services.CreateCase(c.UserContext(), h.DB, h.Store, form, pictures, attachments)
	if err != nil {
		return err
	}

	return utils.MessageResponse(c, fiber.StatusCreated, "SQCB created successfully", fiber.Map{"sqcb_id": id})
}

// UpdateSqcb handles PUT /sqcb/:id
// @Summary Update a case
// @Description Non-blank fields replace stored values; supplied parts, pictures or attachments replace the current set
// @Description A collection is replaced only when at least one item is supplied: "parts" sent as an empty list ("[]") leaves the current parts in place and cannot clear them.
// @Tags SQCB
// @Accept multipart/form-data
// @Produce json
// @Param id path int true "Case id"
// @Success 200 {object} utils.MessageResponseStruct
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /sqcb/{id} [put]
func (h *SqcbHandler) UpdateSqcb(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	form, pictures, attachments, err := parseCaseRequest(c)
	if err != nil {
		return err
	}

	if err := services.UpdateCase(c.UserContext(), h.DB, h.Store, id, form, pictures, attachments); err != nil {
		return err
	}

	return utils.MessageResponse(c, fiber.StatusOK, "SQCB updated successfully", fiber.Map{"sqcb_id": id})
}

// DeleteSqcb handles DELETE /sqcb/:id
// @Summary Delete a case
// @Description Soft-deletes the case with its attachments, parts and pictures
// @Tags SQCB
// @Produce json
// @Param id path int true "Case id"
// @Success 200 {object} utils.MessageResponseStruct
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /sqcb/{id} [delete]
func (h *SqcbHandler) DeleteSqcb(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	if err := services.DeleteCase(c.UserContext(), h.DB, id); err != nil {
		return err
	}

	return utils.MessageResponse(c, fiber.StatusOK, "SQCB deleted successfully", fiber.Map{"sqcb_id": id})
}

// DeleteAttachment handles DELETE /attachments/:id
// @Summary Delete an attachment
// @Tags SQCB
// @Produce json
// @Param id path string true "Attachment id"
// @Success 200 {object} utils.MessageResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /attachments/{id} [delete]
func (h *SqcbHandler) DeleteAttachment(c *fiber.Ctx) error {
	attachmentID := c.Params("id")

	if err := services.DeleteAttachment(c.UserContext(), h.DB, attachmentID); err != nil {
		return err
	}

	return utils.MessageResponse(c, fiber.StatusOK, "Attachment deleted successfully", fiber.Map{"attachment_id": attachmentID})
}
