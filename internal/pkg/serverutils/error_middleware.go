package serverutils

import (
	"errors"
	"runtime/debug"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
)

func ErrorHandlerMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				log.Errorf("[PANIC RECOVERED] %v\n%s", r, debug.Stack())
				err = c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse(MessageInternal))
			}
		}()

		err = c.Next()
		if err == nil {
			return nil
		}

		return HandleError(c, err)
	}
}

// HandleError writes the {message} body and status code for err.
func HandleError(c *fiber.Ctx, err error) error {
	// 1. Known business errors
	if errors.Is(err, ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse(MessageNoteNotFound))
	}
	if errors.Is(err, ErrDuplicateNote) {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse(MessageDuplicateNote))
	}
	if errors.Is(err, ErrArchiveUnavailable) {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse(MessageArchiveUnavailable))
	}

	var ve *ValidationError
	if errors.As(err, &ve) {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse(ve.Message))
	}

	// 2. Persistence failures keep their cause out of the response
	var se *StoreError
	if errors.As(err, &se) {
		log.Errorf("[ERROR] %s: %v", se.Op, se.Err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse(se.Message))
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return c.Status(fiberErr.Code).JSON(ErrorResponse(fiberErr.Message))
	}

	log.Errorf("[ERROR] %v", err)
	return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse(MessageInternal))
}
