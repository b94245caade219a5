package fans

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/apexgp/paddock/apperr"
	"github.com/apexgp/paddock/models"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt"
	"gorm.io/gorm"
)

// otpRateLimit caps sign-in code generation per mobile.
const otpRateLimit = 5

// Register creates a new fan account.
func (s *Service) Register(c *fiber.Ctx) error {
	var fan models.Fan
	if err := bindJSON(c, &fan); err != nil {
		s.Logger.WithError(err).Info("register: bad payload")
		return c.Status(apperr.Status(err)).JSON(apperr.Payload(err))
	}
	fan.SanitizeName()

	var existing models.Fan
	if res := s.Db.Where("mobile = ?", fan.Mobile).First(&existing); res.Error == nil {
		return c.Status(apperr.ErrDuplicateMobile.Status).JSON(apperr.Payload(apperr.ErrDuplicateMobile))
	}
	if fan.Username == "" {
		fan.Username = fan.Mobile
	} else if res := s.Db.Where("username = ?", fan.Username).First(&existing); res.Error == nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{
			"message": "a fan with this username already exists", "code": "duplicate_username"})
	}

	if !validatePassword(fan.Password) {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{
			"message": "password must be at least 8 characters long and include an upper-case letter, a symbol and a number",
			"code":    "password_invalid"})
	}
	if err := fan.HashPassword(); err != nil {
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"message": err.Error(), "code": "server_error"})
	}
	if err := fan.EnsureOTPSecret(); err != nil {
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"message": err.Error(), "code": "server_error"})
	}
	if err := s.Db.Create(&fan).Error; err != nil {
		dup := apperr.Wrap(err, apperr.ErrDuplicateMobile, "")
		return c.Status(apperr.Status(dup)).JSON(apperr.Payload(dup))
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"result": sanitizeFan(fan)})
}

// Login checks a mobile/password pair and issues a JWT.
func (s *Service) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := bindJSON(c, &req); err != nil {
		s.Logger.WithError(err).Info("login: bad payload")
		return c.Status(apperr.Status(err)).JSON(apperr.Payload(err))
	}

	var fan models.Fan
	query := strings.ToLower(req.Mobile)
	notFound := s.Db.Where("mobile = ? or email = ?", query, query).First(&fan).Error
	if errors.Is(notFound, gorm.ErrRecordNotFound) || !fan.CheckPassword(req.Password) {
		// same answer for unknown mobile and bad password
		return c.Status(apperr.ErrWrongCredentials.Status).JSON(apperr.Payload(apperr.ErrWrongCredentials))
	}

	token, err := s.Auth.GenerateJWT(fan.ID, fan.Mobile)
	if err != nil {
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"message": err.Error(), "code": "server_error"})
	}
	c.Set("Authorization", token)
	return c.Status(http.StatusOK).JSON(fiber.Map{"authorization": token, "fan": sanitizeFan(fan)})
}

// Refresh re-issues a token. A still-valid or recently expired token is
// accepted; anything malformed is rejected.
func (s *Service) Refresh(c *fiber.Ctx) error {
	var req refreshRequest
	if err := bindJSON(c, &req); err != nil {
		return c.Status(apperr.Status(err)).JSON(apperr.Payload(err))
	}
	claims, err := s.Auth.VerifyJWT(req.JWT)
	if err == nil {
		token, genErr := s.Auth.GenerateJWT(claims.FanID, claims.Mobile)
		if genErr != nil {
			return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"message": genErr.Error(), "code": "server_error"})
		}
		c.Set("Authorization", token)
		return c.Status(http.StatusOK).JSON(fiber.Map{"authorization": token})
	}
	if ve, ok := err.(*jwt.ValidationError); ok && ve.Errors&jwt.ValidationErrorExpired != 0 {
		fan, findErr := models.GetFanByID(claims.FanID, s.Db)
		if findErr != nil {
			unknown := apperr.Wrap(findErr, apperr.ErrUnauthorized, "unknown fan")
			return c.Status(apperr.Status(unknown)).JSON(apperr.Payload(unknown))
		}
		token, genErr := s.Auth.GenerateJWT(fan.ID, fan.Mobile)
		if genErr != nil {
			return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"message": genErr.Error(), "code": "server_error"})
		}
		c.Set("Authorization", token)
		return c.Status(http.StatusOK).JSON(fiber.Map{"authorization": token})
	}
	return c.Status(http.StatusUnauthorized).JSON(fiber.Map{"message": "malformed token", "code": "jwt_malformed"})
}

// GenerateSignInCode creates a one-time sign-in code for the fan. The
// code is stored nowhere: it is a totp over the fan's secret, so the
// delivery channel (sms, app push) is the only copy.
func (s *Service) GenerateSignInCode(c *fiber.Ctx) error {
	var req otpRequest
	if err := bindJSON(c, &req); err != nil {
		return c.Status(apperr.Status(err)).JSON(apperr.Payload(err))
	}
	ctx := c.UserContext()

	if s.Redis != nil {
		key := req.Mobile + ":otp_counts"
		count, err := s.Redis.Incr(ctx, key).Result()
		if err == nil {
			if count == 1 {
				s.Redis.Expire(ctx, key, time.Hour)
			}
			if count > otpRateLimit {
				return c.Status(http.StatusTooManyRequests).JSON(fiber.Map{
					"message": "too many codes requested, try again later", "code": "otp_rate_limited"})
			}
		}
	}

	fan, err := models.GetFanByMobile(req.Mobile, s.Db)
	if err != nil {
		// do not leak which mobiles are registered
		return c.Status(http.StatusCreated).JSON(fiber.Map{"status": "ok"})
	}
	if fan.OTPSecret == "" {
		if err := fan.EnsureOTPSecret(); err != nil {
			return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"message": err.Error(), "code": "server_error"})
		}
		s.Db.Model(&fan).Update("otp_secret", fan.OTPSecret)
	}
	code, err := fan.GenerateOTP()
	if err != nil {
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"message": err.Error(), "code": "server_error"})
	}
	s.Logger.WithField("mobile", fan.Mobile).Debug("sign-in code generated")
	go s.deliverSignInCode(fan, code)
	return c.Status(http.StatusCreated).JSON(fiber.Map{"status": "ok"})
}

// deliverSignInCode hands the code to the configured delivery channel.
// Without an sms gateway the code lands in the fan's notification feed,
// which companion apps poll.
func (s *Service) deliverSignInCode(fan models.Fan, code string) {
	notification := models.Notification{
		Mobile: fan.Mobile,
		Title:  "Your sign-in code",
		Body:   "Your one-time access code is: " + code + ". DON'T share it with anyone.",
	}
	ctx, cancel := contextWithTimeout()
	defer cancel()
	if err := s.Store.CreateNotification(ctx, &notification); err != nil {
		s.Logger.WithError(err).Warn("sign-in code delivery failed")
	}
}

// OTPLogin exchanges a valid one-time code for a JWT.
func (s *Service) OTPLogin(c *fiber.Ctx) error {
	var req otpRequest
	_ = parseJSON(c, &req)
	if req.OTP == "" || req.Mobile == "" {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"message": "otp was not sent", "code": "empty_otp"})
	}
	fan, err := models.GetFanByMobile(req.Mobile, s.Db)
	if err != nil {
		return c.Status(http.StatusUnauthorized).JSON(fiber.Map{"message": "wrong otp entered", "code": "wrong_otp"})
	}
	if !fan.VerifyOTP(req.OTP) {
		return c.Status(http.StatusUnauthorized).JSON(fiber.Map{"message": "wrong otp entered", "code": "wrong_otp"})
	}
	token, err := s.Auth.GenerateJWT(fan.ID, fan.Mobile)
	if err != nil {
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"message": err.Error(), "code": "server_error"})
	}
	c.Set("Authorization", token)
	return c.Status(http.StatusOK).JSON(fiber.Map{"authorization": token, "fan": sanitizeFan(fan)})
}
