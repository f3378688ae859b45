package controller

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	qrcode "github.com/skip2/go-qrcode"
	"gorm.io/gorm"

	"absenku_backend/internals/features/attendance/repository"
	sessionDTO "absenku_backend/internals/features/attendance/sessions/dto"
	"absenku_backend/internals/features/attendance/sessions/service"
	helper "absenku_backend/internals/helpers"
)

type SessionController struct {
	Validator *validator.Validate
	Sessions  *service.SessionService
	Tokens    *service.TokenService
}

func NewSessionController(db *gorm.DB, clock helper.Clock) *SessionController {
	store := repository.NewGormStore(db)
	return &SessionController{
		Validator: validator.New(),
		Sessions:  service.NewSessionService(store, clock),
		Tokens:    service.NewTokenService(store, clock),
	}
}

// POST /sessions/generate
func (ctl *SessionController) Generate(c *fiber.Ctx) error {
	var req sessionDTO.GenerateSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Body tidak valid")
	}
	if err := ctl.Validator.Struct(&req); err != nil {
		return helper.JsonValidationError(c, err)
	}
	classID, date, err := sessionDTO.ParseClassDate(req.ClassID, req.Date)
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, err.Error())
	}

	handle, err := ctl.Sessions.Generate(c.UserContext(), classID, date, service.GenerateInput{
		Week:          req.Week,
		MeetingNumber: req.MeetingNumber,
		TotalHours:    req.TotalHours,
	})
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	return helper.JsonCreated(c, "Sesi absensi siap", handle)
}

// POST /sessions/extend
func (ctl *SessionController) Extend(c *fiber.Ctx) error {
	var req sessionDTO.ExtendSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Body tidak valid")
	}
	if err := ctl.Validator.Struct(&req); err != nil {
		return helper.JsonValidationError(c, err)
	}
	classID, date, err := sessionDTO.ParseClassDate(req.ClassID, req.Date)
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, err.Error())
	}

	newEnd, err := ctl.Sessions.Extend(c.UserContext(), classID, date, req.Minutes)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	return helper.JsonUpdated(c, "Sesi diperpanjang", sessionDTO.ExtendSessionResponse{NewExpiresAt: newEnd})
}

// POST /sessions/deactivate
func (ctl *SessionController) Deactivate(c *fiber.Ctx) error {
	var req sessionDTO.DeactivateSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Body tidak valid")
	}
	if err := ctl.Validator.Struct(&req); err != nil {
		return helper.JsonValidationError(c, err)
	}
	classID, date, err := sessionDTO.ParseClassDate(req.ClassID, req.Date)
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := ctl.Sessions.Deactivate(c.UserContext(), classID, date); err != nil {
		return helper.JsonFromError(c, err)
	}
	return helper.JsonOK(c, "Sesi dimatikan", nil)
}

// POST /sessions/token
func (ctl *SessionController) IssueToken(c *fiber.Ctx) error {
	var req sessionDTO.IssueTokenRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Body tidak valid")
	}
	if err := ctl.Validator.Struct(&req); err != nil {
		return helper.JsonValidationError(c, err)
	}
	classID, date, err := sessionDTO.ParseClassDate(req.ClassID, req.Date)
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, err.Error())
	}

	token, expiresAt, err := ctl.Tokens.Issue(c.UserContext(), classID, date)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	return helper.JsonCreated(c, "Token diterbitkan", sessionDTO.TokenResponse{
		Token:     token,
		ExpiresAt: expiresAt,
	})
}

// GET /sessions/token/qr?class_id=&date=
// Render token hidup sebagai PNG untuk ditampilkan dosen di kelas.
func (ctl *SessionController) TokenQR(c *fiber.Ctx) error {
	classID, date, err := sessionDTO.ParseClassDate(c.Query("class_id"), c.Query("date"))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, err.Error())
	}

	token, err := ctl.Tokens.CurrentToken(c.UserContext(), classID, date)
	if err != nil {
		if errors.Is(err, service.ErrTokenInvalid) {
			return helper.JsonError(c, fiber.StatusNotFound, "Tidak ada token hidup untuk sesi ini")
		}
		return helper.JsonFromError(c, err)
	}

	png, err := qrcode.Encode(token, qrcode.Medium, 256)
	if err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "Gagal render QR")
	}
	c.Set(fiber.HeaderContentType, "image/png")
	return c.Send(png)
}

// POST /sessions/token/validate
// Sengaja satu pesan untuk semua alasan penolakan (lihat TokenService.Validate).
func (ctl *SessionController) ValidateToken(c *fiber.Ctx) error {
	var req sessionDTO.ValidateTokenRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Body tidak valid")
	}
	if err := ctl.Validator.Struct(&req); err != nil {
		return helper.JsonValidationError(c, err)
	}

	classID, date, err := ctl.Tokens.Validate(c.UserContext(), req.Token)
	if err != nil {
		if errors.Is(err, service.ErrTokenInvalid) {
			return helper.JsonError(c, fiber.StatusUnauthorized, err.Error())
		}
		return helper.JsonFromError(c, err)
	}
	return helper.JsonOK(c, "Token valid", sessionDTO.ValidateTokenResponse{
		ClassID: classID,
		Date:    sessionDTO.FormatDate(date),
	})
}
