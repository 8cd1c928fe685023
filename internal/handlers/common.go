// common.go
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
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/sqcb-service/internal/middleware"
	"github.com/localnerve/sqcb-service/internal/services"
	"github.com/localnerve/sqcb-service/internal/types"
	"github.com/localnerve/sqcb-service/internal/utils"
	"github.com/sirupsen/logrus"
)

// parseID reads a positive numeric path parameter
func parseID(c *fiber.Ctx, name string) (uint64, error) {
	raw := c.Params(name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, types.NewValidationError("Invalid %s '%s'", name, raw)
	}
	return id, nil
}

// formFiles returns the files uploaded under field. Requests that are not multipart carry none.
func formFiles(c *fiber.Ctx, field string) ([]services.FileUpload, error) {
	contentType := strings.ToLower(c.Get(fiber.HeaderContentType))
	if !strings.HasPrefix(contentType, fiber.MIMEMultipartForm) {
		return nil, nil
	}

	form, err := c.MultipartForm()
	if err != nil {
		return nil, types.NewValidationError("Invalid multipart form: %v", err)
	}

	headers := form.File[field]
	uploads := make([]services.FileUpload, 0, len(headers))
	for _, fh := range headers {
		uploads = append(uploads, services.FileUpload{
			Filename: fh.Filename,
			Open: func() (io.ReadCloser, error) {
				return fh.Open()
			},
		})
	}
	return uploads, nil
}

// parseCaseRequest binds the case fields and both file lists of a create or update request
func parseCaseRequest(c *fiber.Ctx) (services.CaseForm, []services.FileUpload, []services.FileUpload, error) {
	var form services.CaseForm
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&form); err != nil {
			return form, nil, nil, types.NewValidationError("Invalid input: %v", err)
		}
	}

	pictures, err := formFiles(c, "pictures")
	if err != nil {
		return form, nil, nil, err
	}
	attachments, err := formFiles(c, "attachments")
	if err != nil {
		return form, nil, nil, err
	}
	return form, pictures, attachments, nil
}

// ErrorHandler renders every error returned by a handler as the JSON error envelope
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"
	errorType := "unknown"

	var ce *types.CustomError
	var fe *fiber.Error
	switch {
	case errors.As(err, &ce):
		code = ce.Code
		message = ce.Message
		errorType = ce.Type
		if ce.Err != nil && code >= fiber.StatusInternalServerError {
			message = fmt.Sprintf("%s: %v", ce.Message, ce.Err)
		}
	case errors.As(err, &fe):
		code = fe.Code
		message = fe.Message
		if code == fiber.StatusNotFound {
			errorType = types.ErrorTypeNotFound
		}
	}

	if code >= fiber.StatusInternalServerError {
		logrus.WithError(err).WithFields(logrus.Fields{
			"method":     c.Method(),
			"url":        c.OriginalURL(),
			"request_id": middleware.GetRequestID(c),
		}).Error("Request error")
	}

	return utils.ErrorResponse(c, message, code, errorType)
}

// NotFound answers any unrouted request
func NotFound(c *fiber.Ctx) error {
	return utils.NotFoundResponse(c, "[404] Resource Not Found")
}
