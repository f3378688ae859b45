package controller

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	recordDTO "absenku_backend/internals/features/attendance/records/dto"
	"absenku_backend/internals/features/attendance/records/service"
	"absenku_backend/internals/features/attendance/repository"
	sessionDTO "absenku_backend/internals/features/attendance/sessions/dto"
	sessionService "absenku_backend/internals/features/attendance/sessions/service"
	"absenku_backend/internals/features/attendance/verification"
	helper "absenku_backend/internals/helpers"
	"absenku_backend/internals/middlewares"
)

type RecordController struct {
	Validator *validator.Validate
	Ledger    *service.LedgerService
	Tokens    *sessionService.TokenService
	Gateway   verification.Gateway
}

func NewRecordController(db *gorm.DB, clock helper.Clock, gateway verification.Gateway) *RecordController {
	store := repository.NewGormStore(db)
	return &RecordController{
		Validator: validator.New(),
		Ledger:    service.NewLedgerService(store, clock),
		Tokens:    sessionService.NewTokenService(store, clock),
		Gateway:   gateway,
	}
}

// POST /records/mark (multipart: token, image)
// Alur absen mandiri: token → verifikasi wajah di gateway → mark idempotent.
func (ctl *RecordController) Mark(c *fiber.Ctx) error {
	studentID, ok := middlewares.UserIDFromLocals(c)
	if !ok {
		return helper.JsonError(c, fiber.StatusUnauthorized, "Sesi login tidak valid")
	}

	req := recordDTO.MarkAttendanceRequest{Token: c.FormValue("token")}
	if err := ctl.Validator.Struct(&req); err != nil {
		return helper.JsonValidationError(c, err)
	}

	classID, date, err := ctl.Tokens.Validate(c.UserContext(), req.Token)
	if err != nil {
		if errors.Is(err, sessionService.ErrTokenInvalid) {
			return helper.JsonError(c, fiber.StatusUnauthorized, err.Error())
		}
		return helper.JsonFromError(c, err)
	}

	fh, err := c.FormFile("image")
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Foto absen wajib dilampirkan")
	}
	raw, err := helper.ReadImageFile(fh)
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, err.Error())
	}
	img, err := helper.NormalizeAttendanceImage(raw)
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, err.Error())
	}

	verdict, err := ctl.Gateway.Verify(c.UserContext(), img, classID, studentID)
	if err != nil {
		// termasuk timeout gateway → 503, bukan "wajah tidak cocok"
		return helper.JsonFromError(c, err)
	}
	if !verdict.Success() {
		// verdict gagal diteruskan apa adanya, tanpa mutasi ledger
		return c.Status(fiber.StatusForbidden).JSON(helper.ErrorResponse{
			Success:   false,
			Message:   verdict.Message,
			ErrorCode: verdict.Code,
		})
	}

	snapshot := datatypes.JSONMap{
		"status":  verdict.Status,
		"message": verdict.Message,
		"code":    verdict.Code,
	}
	if err := ctl.Ledger.MarkPresent(c.UserContext(), classID, studentID, date, snapshot); err != nil {
		return helper.JsonFromError(c, err)
	}
	return helper.JsonOK(c, "Kehadiran tercatat", fiber.Map{
		"class_id":   classID,
		"date":       sessionDTO.FormatDate(date),
		"student_id": studentID,
	})
}

// POST /records/reconcile
func (ctl *RecordController) Reconcile(c *fiber.Ctx) error {
	actingUserID, ok := middlewares.UserIDFromLocals(c)
	if !ok {
		return helper.JsonError(c, fiber.StatusUnauthorized, "Sesi login tidak valid")
	}

	var req recordDTO.ReconcileBatchRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Body tidak valid")
	}
	if err := ctl.Validator.Struct(&req); err != nil {
		return helper.JsonValidationError(c, err)
	}

	result, err := ctl.Ledger.ReconcileBatch(c.UserContext(), actingUserID, req.Entries)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	return helper.JsonOK(c, "Rekonsiliasi selesai", result)
}

// GET /records?class_id=&date=
func (ctl *RecordController) List(c *fiber.Ctx) error {
	classID, date, err := sessionDTO.ParseClassDate(c.Query("class_id"), c.Query("date"))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, err.Error())
	}

	rows, err := ctl.Ledger.ListByClassDate(c.UserContext(), classID, date)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	return helper.JsonList(c, "", rows)
}
