package models

import (
	"errors"
	"strings"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// signInCodePeriod is the validity window of a one-time sign-in code.
const signInCodePeriod = 300

// Fan is a registered supporter account. Kept deliberately small: the
// engagement features hang off the mobile number, which doubles as the
// login identifier.
type Fan struct {
	gorm.Model
	Mobile         string `json:"mobile" gorm:"index:idx_fan_mobile,unique" binding:"required"`
	Username       string `json:"username" gorm:"index:idx_fan_username,unique"`
	Password       string `json:"password,omitempty" binding:"required,min=8,max=64"`
	Fullname       string `json:"fullname"`
	Email          string `json:"email"`
	Language       string `json:"language"`
	FavoriteTeam   string `json:"favorite_team"`
	FavoriteDriver string `json:"favorite_driver"`
	DeviceToken    string `json:"device_token,omitempty"`
	OTPSecret      string `json:"-"`
}

func (f *Fan) SanitizeName() {
	f.Mobile = strings.TrimSpace(strings.ToLower(f.Mobile))
	f.Username = strings.TrimSpace(strings.ToLower(f.Username))
	f.Email = strings.TrimSpace(strings.ToLower(f.Email))
}

func (f *Fan) HashPassword() error {
	hashed, err := bcrypt.GenerateFromPassword([]byte(f.Password), 8)
	if err != nil {
		return err
	}
	f.Password = string(hashed)
	return nil
}

func (f *Fan) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(f.Password), []byte(password)) == nil
}

// EnsureOTPSecret lazily provisions the totp secret used for
// passwordless sign-in codes.
func (f *Fan) EnsureOTPSecret() error {
	if f.OTPSecret != "" {
		return nil
	}
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      "paddock",
		AccountName: f.Mobile,
	})
	if err != nil {
		return err
	}
	f.OTPSecret = key.Secret()
	return nil
}

// GenerateOTP returns the currently valid sign-in code for the fan.
func (f *Fan) GenerateOTP() (string, error) {
	if f.OTPSecret == "" {
		return "", errors.New("fan has no otp secret")
	}
	return totp.GenerateCodeCustom(f.OTPSecret, time.Now().UTC(), totp.ValidateOpts{
		Period: signInCodePeriod,
		Digits: otp.DigitsSix,
	})
}

// VerifyOTP checks a submitted sign-in code, allowing one period of skew.
func (f *Fan) VerifyOTP(code string) bool {
	if f.OTPSecret == "" || code == "" {
		return false
	}
	ok, err := totp.ValidateCustom(code, f.OTPSecret, time.Now().UTC(), totp.ValidateOpts{
		Period: signInCodePeriod,
		Skew:   1,
		Digits: otp.DigitsSix,
	})
	return err == nil && ok
}

// GetFanByMobile retrieves a fan by their mobile number.
func GetFanByMobile(mobile string, db *gorm.DB) (Fan, error) {
	var fan Fan
	result := db.First(&fan, "mobile = ?", strings.ToLower(mobile))
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return fan, errors.New("fan not found")
	}
	return fan, result.Error
}

// GetFanByID retrieves a fan by primary key.
func GetFanByID(id uint, db *gorm.DB) (Fan, error) {
	var fan Fan
	result := db.First(&fan, id)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return fan, errors.New("fan not found")
	}
	return fan, result.Error
}
