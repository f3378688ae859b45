package route

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	recordCtrl "absenku_backend/internals/features/attendance/records/controller"
	"absenku_backend/internals/features/attendance/verification"
	helper "absenku_backend/internals/helpers"
	"absenku_backend/internals/middlewares"
)

func AttendanceRecordRoutes(r fiber.Router, db *gorm.DB, gateway verification.Gateway) {
	ctl := recordCtrl.NewRecordController(db, helper.RealClock(), gateway)

	// Absen mandiri siswa (token + foto)
	student := r.Group("/records", middlewares.AuthRequired())
	student.Post("/mark", ctl.Mark)

	// Rekonsiliasi & roster: khusus dosen/admin
	lecturer := r.Group("/records",
		middlewares.AuthRequired(),
		middlewares.RoleRequired("lecturer", "admin"),
	)
	lecturer.Post("/reconcile", ctl.Reconcile)
	lecturer.Get("/", ctl.List)
}
