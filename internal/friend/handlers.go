package friend

import (
	"strconv"

	"backend-pettopia/internal/pet"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware, petMiddleware fiber.Handler) {
	r.Get("/nearby", authMiddleware, petMiddleware, func(c *fiber.Ctx) error {
		if c.Query("lat") == "" || c.Query("lng") == "" {
			return fiber.NewError(fiber.StatusBadRequest, "lat and lng query parameters required")
		}
		lat, err := strconv.ParseFloat(c.Query("lat"), 64)
		if err != nil || lat < -90 || lat > 90 {
			return fiber.NewError(fiber.StatusBadRequest, "invalid lat")
		}
		lng, err := strconv.ParseFloat(c.Query("lng"), 64)
		if err != nil || lng < -180 || lng > 180 {
			return fiber.NewError(fiber.StatusBadRequest, "invalid lng")
		}
		radius := DefaultRadiusKm
		if raw := c.Query("radius"); raw != "" {
			radius, err = strconv.ParseFloat(raw, 64)
			if err != nil || radius <= 0 {
				return fiber.NewError(fiber.StatusBadRequest, "invalid radius")
			}
		}
		pets, err := svc.Nearby(c.Context(), pet.ID(c), lat, lng, radius)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(pets)
	})
}
