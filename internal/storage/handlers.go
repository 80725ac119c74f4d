package storage

import (
	"errors"
	"io"

	"backend-pettopia/internal/auth"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Post("/image", authMiddleware, func(c *fiber.Ctx) error {
		fh, err := c.FormFile("file")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "file is required")
		}
		if fh.Size > MaxImageBytes {
			return fiber.NewError(fiber.StatusRequestEntityTooLarge, ErrTooLarge.Error())
		}
		f, err := fh.Open()
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		defer f.Close()
		data, err := io.ReadAll(io.LimitReader(f, MaxImageBytes+1))
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		obj, err := svc.UploadImage(c.Context(), auth.GuardianID(c), data)
		switch {
		case errors.Is(err, ErrTooLarge):
			return fiber.NewError(fiber.StatusRequestEntityTooLarge, err.Error())
		case errors.Is(err, ErrEmpty), errors.Is(err, ErrUnsupportedType):
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		case err != nil:
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(obj)
	})
}
