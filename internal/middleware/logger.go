package middleware

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/sqcb-service/internal/types"
	"github.com/sirupsen/logrus"
)

// Logger logs one line per request with the level chosen by status class
func Logger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		chainErr := c.Next()

		status := c.Response().StatusCode()
		if chainErr != nil {
			// The error handler has not rendered yet; report the status it will use
			status = fiber.StatusInternalServerError
			var ce *types.CustomError
			var fe *fiber.Error
			if errors.As(chainErr, &ce) {
				status = ce.Code
			} else if errors.As(chainErr, &fe) {
				status = fe.Code
			}
		}

		entry := logrus.WithFields(logrus.Fields{
			"method":     c.Method(),
			"path":       c.Path(),
			"status":     status,
			"latency":    time.Since(start).String(),
			"ip":         c.IP(),
			"request_id": GetRequestID(c),
		})

		switch {
		case status >= fiber.StatusInternalServerError:
			entry.Error("Request failed")
		case status >= fiber.StatusBadRequest:
			entry.Warn("Request rejected")
		default:
			entry.Info("Request completed")
		}

		return chainErr
	}
}
