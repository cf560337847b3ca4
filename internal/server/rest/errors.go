package rest

import (
	"errors"

	"github.com/dmitrijs2005/streamkeeper/internal/common"
	"github.com/gofiber/fiber/v2"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func statusFor(e *common.Error) int {
	switch e.Kind {
	case common.KindValidation:
		return fiber.StatusBadRequest
	case common.KindUnauthorized:
		return fiber.StatusUnauthorized
	case common.KindConflict:
		return fiber.StatusConflict
	case common.KindNotFound:
		return fiber.StatusNotFound
	default:
		return fiber.StatusInternalServerError
	}
}

// writeError renders err as {"error", "code"}. Errors that are not
// *common.Error are reported as internal.
func (s *HTTPServer) writeError(c *fiber.Ctx, err error) error {
	e := common.AsError(err)
	return c.Status(statusFor(e)).JSON(errorResponse{Error: e.Msg, Code: e.Code()})
}

// handleFiberError covers routing and framework errors such as unknown
// paths or oversized bodies.
func (s *HTTPServer) handleFiberError(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code := "internal"
		switch {
		case fe.Code == fiber.StatusNotFound:
			code = "not_found"
		case fe.Code < fiber.StatusInternalServerError:
			code = "validation"
		}
		return c.Status(fe.Code).JSON(errorResponse{Error: fe.Message, Code: code})
	}

	s.logger.Error(c.UserContext(), "unhandled error", "path", c.Path(), "error", err)
	return s.writeError(c, common.ErrorInternal)
}
