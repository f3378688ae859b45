package route

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	sessionCtrl "absenku_backend/internals/features/attendance/sessions/controller"
	helper "absenku_backend/internals/helpers"
	"absenku_backend/internals/middlewares"
)

func AttendanceSessionRoutes(r fiber.Router, db *gorm.DB) {
	ctl := sessionCtrl.NewSessionController(db, helper.RealClock())

	// Kontrol sesi & token: khusus dosen/admin
	lecturer := r.Group("/sessions",
		middlewares.AuthRequired(),
		middlewares.RoleRequired("lecturer", "admin"),
	)
	lecturer.Post("/generate", ctl.Generate)
	lecturer.Post("/extend", ctl.Extend)
	lecturer.Post("/deactivate", ctl.Deactivate)
	lecturer.Post("/token", ctl.IssueToken)
	lecturer.Get("/token/qr", ctl.TokenQR)

	// Resolve token: dipanggil klien siswa pemegang hasil scan, cukup login
	r.Post("/sessions/token/validate", middlewares.AuthRequired(), ctl.ValidateToken)
}
