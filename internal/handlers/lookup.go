package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/sqcb-service/internal/services"
	"gorm.io/gorm"
)

// LookupHandler serves supplier and part reference lookups
type LookupHandler struct {
	DB *gorm.DB
}

// GetSupplier handles GET /suppliers/:code
// @Summary Supplier name lookup
// @Tags Lookup
// @Produce json
// @Param code path string true "Supplier code"
// @Success 200 {object} models.Supplier
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /suppliers/{code} [get]
func (h *LookupHandler) GetSupplier(c *fiber.Ctx) error {
	supplier, err := services.GetSupplier(c.UserContext(), h.DB, c.Params("code"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"supplier_name": supplier.SupplierName})
}

// GetPart handles GET /part/:number
// @Summary Part lookup
// @Tags Lookup
// @Produce json
// @Param number path string true "Part number"
// @Success 200 {object} models.Part
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /part/{number} [get]
func (h *LookupHandler) GetPart(c *fiber.Ctx) error {
	part, err := services.GetPart(c.UserContext(), h.DB, c.Params("number"))
	if err != nil {
		return err
	}
	return c.JSON(part)
}
