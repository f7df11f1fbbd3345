package server

import (
	"time"

	"orma/internal/middleware"
	"orma/internal/models"
	"orma/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// StartRegistration handles POST /api/users/register/start
// @Summary Request a login code
// @Description Sends a one-time code to the phone number by SMS
// @Tags users
// @Accept json
// @Produce json
// @Param request body object{phone=string} true "Phone number, digits only"
// @Success 200 {object} service.StartLoginResult
// @Failure 400 {object} models.ErrorResponse
// @Router /users/register/start [post]
func (s *Server) StartRegistration(c *fiber.Ctx) error {
	var req struct {
		Phone string `json:"phone"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	res, err := s.authService.StartLogin(c.UserContext(), req.Phone)
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(res)
}

// VerifyRegistration handles POST /api/users/register/verify
// @Summary Verify a login code
// @Description Checks the one-time code and returns a session token, creating the user on first login
// @Tags users
// @Accept json
// @Produce json
// @Param request body object{request_id=string,code=string,phone=string,name=string} true "Verification"
// @Success 200 {object} object{token=string,user=models.User}
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /users/register/verify [post]
func (s *Server) VerifyRegistration(c *fiber.Ctx) error {
	var req struct {
		RequestID string `json:"request_id"`
		Code      string `json:"code"`
		Phone     string `json:"phone"`
		Name      string `json:"name"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	user, err := s.authService.VerifyLogin(c.UserContext(), service.VerifyLoginInput{
		RequestID: req.RequestID,
		Code:      req.Code,
		Phone:     req.Phone,
		Name:      req.Name,
	})
	if err != nil {
		return models.Respond(c, err)
	}

	token, err := s.generateToken(user.ID)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	return c.JSON(fiber.Map{
		"token": token,
		"user":  user,
	})
}

// Logout handles POST /api/users/logout
// @Summary Log out
// @Description Revokes the presented token until it would have expired
// @Tags users
// @Security BearerAuth
// @Success 200 {object} object{message=string}
// @Failure 500 {object} models.ErrorResponse
// @Router /users/logout [post]
func (s *Server) Logout(c *fiber.Ctx) error {
	claims, _ := c.Locals("claims").(jwt.MapClaims)
	jti, _ := claims["jti"].(string)
	if jti == "" {
		return c.JSON(fiber.Map{"message": "Logged out"})
	}

	var ttl time.Duration
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		ttl = time.Until(exp.Time)
	}
	if s.redis == nil {
		middleware.Logger.WarnContext(c.UserContext(), "token revocation unavailable without redis")
		return c.JSON(fiber.Map{"message": "Logged out"})
	}
	if err := s.cache.Blacklist(c.UserContext(), jti, ttl); err != nil {
		return models.Respond(c, models.WrapDependency("cache", err))
	}
	return c.JSON(fiber.Map{"message": "Logged out"})
}
