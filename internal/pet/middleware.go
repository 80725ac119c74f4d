package pet

import (
	"backend-pettopia/internal/auth"

	"github.com/gofiber/fiber/v2"
)

const (
	HeaderPetAccountID = "X-Pet-Account-Id"
	LocalPetAccountID  = "pet_account_id"
)

// Middleware resolves the acting pet account from the X-Pet-Account-Id
// header. It must run after auth.JWTMiddleware.
func Middleware(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		petID := c.Get(HeaderPetAccountID)
		if petID == "" {
			return fiber.NewError(fiber.StatusBadRequest, "x-pet-account-id header required")
		}
		guardianID := auth.GuardianID(c)
		if guardianID == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing guardian")
		}
		ok, err := svc.OwnedBy(c.Context(), petID, guardianID)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		if !ok {
			return fiber.NewError(fiber.StatusForbidden, "pet account not accessible")
		}
		c.Locals(LocalPetAccountID, petID)
		return c.Next()
	}
}

// ID returns the pet account resolved by Middleware.
func ID(c *fiber.Ctx) string {
	id, _ := c.Locals(LocalPetAccountID).(string)
	return id
}
