package walk

import (
	"errors"
	"strconv"

	"backend-pettopia/internal/pet"
	"backend-pettopia/internal/shared/validate"

	"github.com/gofiber/fiber/v2"
)

// RegisterRoutes mounts the walk API. locationLimiter may be nil.
func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware, petMiddleware, locationLimiter fiber.Handler) {
	r.Post("/start", authMiddleware, petMiddleware, func(c *fiber.Ctx) error {
		var req StartInput
		if err := parseBody(c, &req); err != nil {
			return err
		}
		w, err := svc.StartWalk(c.Context(), pet.ID(c), req)
		if err != nil {
			return httpError(err)
		}
		return c.Status(fiber.StatusCreated).JSON(w)
	})

	r.Get("/current", authMiddleware, petMiddleware, func(c *fiber.Ctx) error {
		w, err := svc.CurrentWalk(c.Context(), pet.ID(c))
		if err != nil {
			return httpError(err)
		}
		return c.JSON(w)
	})

	r.Get("/history", authMiddleware, petMiddleware, func(c *fiber.Ctx) error {
		limit := 0
		if raw := c.Query("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "invalid limit")
			}
			limit = n
		}
		page, err := svc.History(c.Context(), pet.ID(c), limit, c.Query("cursor"))
		if err != nil {
			return httpError(err)
		}
		return c.JSON(page)
	})

	r.Get("/friends-walking", authMiddleware, petMiddleware, func(c *fiber.Ctx) error {
		friends, err := svc.FriendsWalking(c.Context(), pet.ID(c))
		if err != nil {
			return httpError(err)
		}
		return c.JSON(friends)
	})

	locationChain := []fiber.Handler{authMiddleware, petMiddleware}
	if locationLimiter != nil {
		locationChain = append(locationChain, locationLimiter)
	}
	locationChain = append(locationChain, func(c *fiber.Ctx) error {
		var req LocationInput
		if err := parseBody(c, &req); err != nil {
			return err
		}
		w, err := svc.UpdateLocation(c.Context(), c.Params("id"), pet.ID(c), *req.Latitude, *req.Longitude)
		if err != nil {
			return httpError(err)
		}
		return c.JSON(w)
	})
	r.Patch("/:id/location", locationChain...)

	r.Post("/:id/photos", authMiddleware, petMiddleware, func(c *fiber.Ctx) error {
		var req PhotoInput
		if err := parseBody(c, &req); err != nil {
			return err
		}
		w, err := svc.AddPhoto(c.Context(), c.Params("id"), pet.ID(c), req.PhotoURL)
		if err != nil {
			return httpError(err)
		}
		return c.Status(fiber.StatusCreated).JSON(w)
	})

	r.Post("/:id/end", authMiddleware, petMiddleware, func(c *fiber.Ctx) error {
		var req EndInput
		if err := parseBody(c, &req); err != nil {
			return err
		}
		w, err := svc.EndWalk(c.Context(), c.Params("id"), pet.ID(c), req)
		if err != nil {
			return httpError(err)
		}
		return c.Status(fiber.StatusCreated).JSON(w)
	})

	r.Delete("/:id", authMiddleware, petMiddleware, func(c *fiber.Ctx) error {
		w, err := svc.CancelWalk(c.Context(), c.Params("id"), pet.ID(c))
		if err != nil {
			return httpError(err)
		}
		return c.JSON(w)
	})

	r.Get("/:id", authMiddleware, func(c *fiber.Ctx) error {
		w, err := svc.GetWalk(c.Context(), c.Params("id"))
		if err != nil {
			return httpError(err)
		}
		return c.JSON(w)
	})
}

// parseBody decodes an optional JSON body and validates it.
func parseBody(c *fiber.Ctx, out any) error {
	if len(c.Body()) > 0 {
		if err := c.BodyParser(out); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
	}
	if err := validate.Struct(out); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return nil
}

func httpError(err error) error {
	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, ErrNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, ErrForbidden):
		status = fiber.StatusForbidden
	case errors.Is(err, ErrConflict):
		status = fiber.StatusConflict
	case errors.Is(err, ErrInvalidInput):
		status = fiber.StatusBadRequest
	}
	return fiber.NewError(status, err.Error())
}
