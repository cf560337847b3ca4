package rest

import (
	"strconv"
	"time"

	"github.com/dmitrijs2005/streamkeeper/internal/common"
	"github.com/dmitrijs2005/streamkeeper/internal/logging"
	"github.com/dmitrijs2005/streamkeeper/internal/server/auth"
	"github.com/gofiber/fiber/v2"
)

// protected runs the bearer-token check and hands the identity to fn.
func (s *HTTPServer) protected(fn func(c *fiber.Ctx, id auth.Identity) error) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := auth.Authenticate(c.Get(common.AuthorizationHeaderName), s.tokens)
		if err != nil {
			return s.writeError(c, err)
		}
		return fn(c, id)
	}
}

// accessLog logs every request and records its latency. Errors returned by
// later handlers are rendered here so the logged status is the final one.
func (s *HTTPServer) accessLog(c *fiber.Ctx) error {
	start := time.Now()
	c.SetUserContext(logging.WithFields(c.UserContext(),
		"request_id", c.GetRespHeader(fiber.HeaderXRequestID)))

	if err := c.Next(); err != nil {
		if herr := c.App().ErrorHandler(c, err); herr != nil {
			_ = c.SendStatus(fiber.StatusInternalServerError)
		}
	}

	elapsed := time.Since(start)
	status := c.Response().StatusCode()
	route := c.Route().Path

	s.metrics.ObserveHTTP(c.Method(), route, strconv.Itoa(status), elapsed)
	s.logger.Info(c.UserContext(), "http request",
		"method", c.Method(),
		"path", c.Path(),
		"status", status,
		"duration", elapsed,
	)

	return nil
}
