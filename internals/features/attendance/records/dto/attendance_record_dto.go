package dto

import (
	ledgerService "absenku_backend/internals/features/attendance/records/service"
)

/* ===============================
   Requests
================================*/

// MarkAttendanceRequest: field non-file dari multipart absen mandiri.
// Foto dikirim sebagai form-file "image"; identitas siswa dari JWT.
type MarkAttendanceRequest struct {
	Token string `form:"token" validate:"required"`
}

type ReconcileBatchRequest struct {
	Entries []ledgerService.ReconcileEntry `json:"entries" validate:"required,min=1,dive"`
}
