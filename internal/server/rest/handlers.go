package rest

import (
	"crypto/subtle"
	"errors"
	"strings"
	"time"

	"github.com/dmitrijs2005/streamkeeper/internal/common"
	"github.com/dmitrijs2005/streamkeeper/internal/server/auth"
	"github.com/dmitrijs2005/streamkeeper/internal/server/models"
	"github.com/dmitrijs2005/streamkeeper/internal/server/services"
	"github.com/gofiber/fiber/v2"
)

type registerRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

type registerResponse struct {
	Message  string `json:"message"`
	UserID   string `json:"userId"`
	Username string `json:"username"`
	Token    string `json:"token"`
	Type     string `json:"type"`
}

type loginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string          `json:"token"`
	Type  string          `json:"type"`
	User  models.UserView `json:"user"`
}

type streamResponse struct {
	Message string             `json:"message,omitempty"`
	Error   string             `json:"error,omitempty"`
	Code    string             `json:"code,omitempty"`
	Stream  *models.StreamView `json:"stream"`
}

type streamsResponse struct {
	Streams []*models.StreamView `json:"streams"`
}

type healthResponse struct {
	Status    string `json:"status"`
	Service   string `json:"service"`
	Timestamp string `json:"timestamp"`
}

type ingestRequest struct {
	Name string `json:"name" form:"name"`
}

func (s *HTTPServer) register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return s.writeError(c, common.ErrMalformedRequest)
	}

	res, err := s.users.Register(c.UserContext(), services.RegisterInput{
		Username:  req.Username,
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		return s.writeError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(registerResponse{
		Message:  "User registered successfully",
		UserID:   res.UserID,
		Username: res.Username,
		Token:    res.Token,
		Type:     common.BearerScheme,
	})
}

func (s *HTTPServer) login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return s.writeError(c, common.ErrMalformedRequest)
	}

	identifier := req.Username
	if strings.TrimSpace(identifier) == "" {
		identifier = req.Email
	}

	res, err := s.users.Login(c.UserContext(), identifier, req.Password)
	if err != nil {
		return s.writeError(c, err)
	}

	return c.JSON(loginResponse{Token: res.Token, Type: common.BearerScheme, User: res.User})
}

func (s *HTTPServer) me(c *fiber.Ctx, id auth.Identity) error {
	user, err := s.users.GetSelf(c.UserContext(), id.UserID)
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(user)
}

func (s *HTTPServer) generateKey(c *fiber.Ctx, id auth.Identity) error {
	view, err := s.streams.GenerateKey(c.UserContext(), id.UserID)
	if errors.Is(err, common.ErrStreamActive) {
		e := common.AsError(err)
		return c.Status(fiber.StatusConflict).JSON(streamResponse{Error: e.Msg, Code: e.Code(), Stream: view})
	}
	if err != nil {
		return s.writeError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(streamResponse{
		Message: "Stream key generated successfully",
		Stream:  view,
	})
}

func (s *HTTPServer) stopStream(c *fiber.Ctx, id auth.Identity) error {
	view, err := s.streams.StopStream(c.UserContext(), id.UserID)
	if err != nil {
		return s.writeError(c, err)
	}

	return c.JSON(streamResponse{Message: "Stream stopped successfully", Stream: view})
}

func (s *HTTPServer) listStreams(c *fiber.Ctx, id auth.Identity) error {
	list, err := s.streams.ListStreams(c.UserContext(), id.UserID)
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(streamsResponse{Streams: list})
}

func (s *HTTPServer) health(c *fiber.Ctx) error {
	resp := healthResponse{
		Status:    "healthy",
		Service:   serviceName,
		Timestamp: s.now().UTC().Format(time.RFC3339),
	}

	if err := s.db.PingContext(c.UserContext()); err != nil {
		s.logger.Warn(c.UserContext(), "health check failed", "error", err)
		resp.Status = "unhealthy"
		return c.Status(fiber.StatusServiceUnavailable).JSON(resp)
	}

	return c.JSON(resp)
}

// authorizeIngest answers publish checks from the media server. Any 2xx
// allows the publish; 403 denies it.
func (s *HTTPServer) authorizeIngest(c *fiber.Ctx) error {
	if !s.ingestAllowed(c) {
		e := common.ErrIngestForbidden
		return c.Status(fiber.StatusForbidden).JSON(errorResponse{Error: e.Msg, Code: e.Code()})
	}

	key := c.FormValue("name")
	if key == "" && strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEApplicationJSON) {
		var req ingestRequest
		if err := c.BodyParser(&req); err != nil {
			return s.writeError(c, common.ErrMalformedRequest)
		}
		key = req.Name
	}
	if strings.TrimSpace(key) == "" {
		return s.writeError(c, common.MissingField("name"))
	}

	grant, err := s.streams.AuthorizeKey(c.UserContext(), key)
	if errors.Is(err, common.ErrStreamKeyRejected) {
		e := common.AsError(err)
		return c.Status(fiber.StatusForbidden).JSON(errorResponse{Error: e.Msg, Code: e.Code()})
	}
	if err != nil {
		return s.writeError(c, err)
	}

	return c.JSON(grant)
}

// ingestAllowed checks the shared ingest secret from the header or the
// "secret" form/query field. No secret configured means no check.
func (s *HTTPServer) ingestAllowed(c *fiber.Ctx) bool {
	if s.ingestSecret == "" {
		return true
	}
	got := c.Get(common.IngestSecretHeaderName)
	if got == "" {
		got = c.FormValue("secret")
	}
	return subtle.ConstantTimeCompare([]byte(got), []byte(s.ingestSecret)) == 1
}
