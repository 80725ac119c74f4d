package activity

import (
	"errors"
	"strconv"

	"backend-pettopia/internal/pet"
	"backend-pettopia/internal/shared/cursor"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware, petMiddleware fiber.Handler) {
	r.Get("/", authMiddleware, petMiddleware, func(c *fiber.Ctx) error {
		limit := 0
		if raw := c.Query("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "invalid limit")
			}
			limit = n
		}
		page, err := svc.List(c.Context(), pet.ID(c), limit, c.Query("cursor"))
		if err != nil {
			if errors.Is(err, cursor.ErrInvalid) {
				return fiber.NewError(fiber.StatusBadRequest, err.Error())
			}
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(page)
	})
}
