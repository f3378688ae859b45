package routes

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	recordRoute "absenku_backend/internals/features/attendance/records/route"
	sessionRoute "absenku_backend/internals/features/attendance/sessions/route"
	"absenku_backend/internals/features/attendance/verification"
)

func SetupRoutes(app *fiber.App, db *gorm.DB, gateway verification.Gateway) {
	api := app.Group("/api")

	attendance := api.Group("/attendance")
	sessionRoute.AttendanceSessionRoutes(attendance, db)
	recordRoute.AttendanceRecordRoutes(attendance, db, gateway)
}
