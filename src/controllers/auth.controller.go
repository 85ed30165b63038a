package controllers

import (
	"errors"
	"log"
	"net/http"

	"gatekeepr/src/models"
	"gatekeepr/src/otp"
	"gatekeepr/src/types"
	"gatekeepr/src/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type Auth struct {
	DB  *gorm.DB
	OTP *otp.Service
}

func NewAuth(db *gorm.DB, svc *otp.Service) *Auth {
	return &Auth{DB: db, OTP: svc}
}

// AuthRegister creates the account unverified and issues a 6-digit code. The
// code mail is dispatched without blocking the response.
func (a *Auth) AuthRegister(ctx *gin.Context) (userId *string, status int, err error) {
	var body types.RegisterUserRequestBody
	if err := ctx.ShouldBindJSON(&body); err != nil {
		return nil, http.StatusBadRequest, err
	}
	id, err := a.OTP.Register(ctx.Request.Context(), body.Name, body.Email, body.Password)
	if err != nil {
		log.Printf("Error registering user [%s]: %s\n", body.Email, err.Error())
		if errors.Is(err, otp.ErrEmailTaken) {
			return nil, http.StatusBadRequest, err
		}
		return nil, http.StatusInternalServerError, err
	}
	s := id.String()
	return &s, http.StatusOK, nil
}

// AuthVerifyOTP runs one verification attempt against the pending record.
func (a *Auth) AuthVerifyOTP(ctx *gin.Context) (status int, err error) {
	var body types.VerifyOTPRequestBody
	if err := ctx.ShouldBindJSON(&body); err != nil {
		return http.StatusBadRequest, err
	}
	userId, err := uuid.Parse(body.UserID)
	if err != nil {
		return http.StatusBadRequest, err
	}
	if err := a.OTP.Verify(ctx.Request.Context(), userId, body.Email, body.Code); err != nil {
		return otpStatus(err), err
	}
	return http.StatusOK, nil
}

// AuthResendOTP replaces any pending code with a fresh one.
func (a *Auth) AuthResendOTP(ctx *gin.Context) (status int, err error) {
	var body types.ResendOTPRequestBody
	if err := ctx.ShouldBindJSON(&body); err != nil {
		return http.StatusBadRequest, err
	}
	userId, err := uuid.Parse(body.UserID)
	if err != nil {
		return http.StatusBadRequest, err
	}
	if err := a.OTP.Resend(ctx.Request.Context(), userId, body.Email); err != nil {
		return otpStatus(err), err
	}
	return http.StatusOK, nil
}

// AuthLogin checks credentials and establishes a session. Only verified
// accounts may log in.
func (a *Auth) AuthLogin(ctx *gin.Context) (token *string, status int, err error) {
	var body types.LoginRequestBody
	if err := ctx.ShouldBindJSON(&body); err != nil {
		return nil, http.StatusBadRequest, err
	}
	var user models.User
	if err := a.DB.
		Model(&models.User{}).
		Where(&models.User{Email: body.Email}).
		First(&user).
		Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, http.StatusNotFound, errors.New("no user account is associated with this email")
		}
		return nil, http.StatusInternalServerError, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(body.Password)); err != nil {
		return nil, http.StatusUnauthorized, errors.New("invalid credentials")
	}
	if !user.EmailVerified {
		return nil, http.StatusForbidden, errors.New("account is not verified")
	}
	jwt, err := utils.GenerateJWT(user.Email, user.ID, user.OrganizerRef)
	if err != nil {
		return nil, http.StatusInternalServerError, err
	}
	return &jwt, http.StatusOK, nil
}

func otpStatus(err error) int {
	switch {
	case errors.Is(err, otp.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, otp.ErrExpired), errors.Is(err, otp.ErrExhausted):
		return http.StatusGone
	case errors.Is(err, otp.ErrInvalidCode):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
