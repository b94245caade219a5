package fans

import (
	gateway "github.com/apexgp/paddock/apigateway"
	"github.com/apexgp/paddock/models"
	"github.com/apexgp/paddock/store"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Auther issues and verifies fan tokens.
type Auther interface {
	VerifyJWT(token string) (*gateway.TokenClaims, error)
	GenerateJWT(fanID uint, mobile string) (string, error)
}

// Service bundles everything the fan endpoints need. Fan accounts live
// in gorm; reminders and notifications go through the sqlx store.
type Service struct {
	Db     *gorm.DB
	Store  *store.Store
	Redis  *redis.Client
	Config models.Config
	Logger *logrus.Logger
	Auth   Auther
}

type loginRequest struct {
	Mobile   string `json:"mobile" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type refreshRequest struct {
	JWT string `json:"authorization" binding:"required"`
}

type otpRequest struct {
	Mobile string `json:"mobile" binding:"required,mobile"`
	OTP    string `json:"otp"`
}

type profileUpdateRequest struct {
	Fullname       *string `json:"fullname"`
	Email          *string `json:"email"`
	Language       *string `json:"language"`
	FavoriteTeam   *string `json:"favorite_team"`
	FavoriteDriver *string `json:"favorite_driver"`
}

type deviceRequest struct {
	DeviceToken string `json:"device_token" binding:"required"`
}

type reminderRequest struct {
	FixtureUUID string `json:"fixture_uuid" binding:"required,uuid"`
}

type languageRequest struct {
	Language string `json:"language" binding:"required,min=2,max=8"`
}
