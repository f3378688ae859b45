package model

import (
	"time"

	"github.com/google/uuid"
)

/* =========================================
   Model: attendance_sessions
   Satu jendela absensi per (class, tanggal)
========================================= */

type AttendanceSessionModel struct {
	// PK
	AttendanceSessionID uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey;column:attendance_session_id" json:"attendance_session_id"`

	// Identitas unik: satu sesi per (class_id, session_date)
	AttendanceSessionClassID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_attendance_sessions_class_date;column:attendance_session_class_id" json:"attendance_session_class_id"`
	AttendanceSessionDate    time.Time `gorm:"type:date;not null;uniqueIndex:uq_attendance_sessions_class_date;column:attendance_session_date" json:"attendance_session_date"`

	// Info pertemuan
	AttendanceSessionWeek          int `gorm:"not null;default:0;column:attendance_session_week" json:"attendance_session_week"`
	AttendanceSessionMeetingNumber int `gorm:"not null;default:0;column:attendance_session_meeting_number" json:"attendance_session_meeting_number"`
	AttendanceSessionTotalHours    int `gorm:"not null;default:0;column:attendance_session_total_hours" json:"attendance_session_total_hours"`

	// Jendela waktu (instan absolut, timestamptz)
	AttendanceSessionStartTime        time.Time `gorm:"type:timestamptz;not null;column:attendance_session_start_time" json:"attendance_session_start_time"`
	AttendanceSessionEndTime          time.Time `gorm:"type:timestamptz;not null;column:attendance_session_end_time" json:"attendance_session_end_time"`
	AttendanceSessionToleranceMinutes int       `gorm:"not null;default:15;column:attendance_session_tolerance_minutes" json:"attendance_session_tolerance_minutes"`

	// Token opaque yang sedang hidup (nullable; diganti saat reissue)
	AttendanceSessionToken *string `gorm:"type:varchar(64);uniqueIndex:uq_attendance_sessions_token;column:attendance_session_token" json:"-"`

	// Cache "masih dalam jendela". TIDAK dijamin fresh: expiry bersifat lazy,
	// pembaca wajib bandingkan Now() dengan end_time sendiri.
	AttendanceSessionIsActive bool `gorm:"not null;default:true;column:attendance_session_is_active" json:"attendance_session_is_active"`

	// Audit
	AttendanceSessionCreatedAt time.Time `gorm:"type:timestamptz;not null;default:now();column:attendance_session_created_at" json:"attendance_session_created_at"`
	AttendanceSessionUpdatedAt time.Time `gorm:"type:timestamptz;not null;default:now();column:attendance_session_updated_at" json:"attendance_session_updated_at"`
}

func (AttendanceSessionModel) TableName() string { return "attendance_sessions" }

// ExpiredAt melaporkan apakah sesi sudah lewat jendelanya pada instan tertentu.
// Flag is_active sengaja tidak dilihat di sini (bisa basi).
func (m *AttendanceSessionModel) ExpiredAt(now time.Time) bool {
	return now.After(m.AttendanceSessionEndTime)
}

// LiveAt: aktif DAN belum lewat jendela.
func (m *AttendanceSessionModel) LiveAt(now time.Time) bool {
	return m.AttendanceSessionIsActive && !m.ExpiredAt(now)
}
