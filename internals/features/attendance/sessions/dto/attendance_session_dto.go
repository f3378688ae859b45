package dto

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

const dateLayout = "2006-01-02"

/* ===============================
   Requests
================================*/

type GenerateSessionRequest struct {
	ClassID       string `json:"class_id" validate:"required,uuid"`
	Date          string `json:"date" validate:"required,datetime=2006-01-02"`
	Week          int    `json:"week" validate:"min=0"`
	MeetingNumber int    `json:"meeting_number" validate:"min=0"`
	TotalHours    int    `json:"total_hours" validate:"required,min=1,max=12"`
}

type ExtendSessionRequest struct {
	ClassID string `json:"class_id" validate:"required,uuid"`
	Date    string `json:"date" validate:"required,datetime=2006-01-02"`
	Minutes int    `json:"minutes" validate:"required,oneof=10 20 30"`
}

type DeactivateSessionRequest struct {
	ClassID string `json:"class_id" validate:"required,uuid"`
	Date    string `json:"date" validate:"required,datetime=2006-01-02"`
}

type IssueTokenRequest struct {
	ClassID string `json:"class_id" validate:"required,uuid"`
	Date    string `json:"date" validate:"required,datetime=2006-01-02"`
}

type ValidateTokenRequest struct {
	Token string `json:"token" validate:"required"`
}

// ParseClassDate: class_id + date string → tipe domain.
func ParseClassDate(classID, date string) (uuid.UUID, time.Time, error) {
	cid, err := uuid.Parse(classID)
	if err != nil {
		return uuid.Nil, time.Time{}, fmt.Errorf("class_id tidak valid")
	}
	d, err := time.ParseInLocation(dateLayout, date, time.UTC)
	if err != nil {
		return uuid.Nil, time.Time{}, fmt.Errorf("date harus berformat YYYY-MM-DD")
	}
	return cid, d, nil
}

/* ===============================
   Responses
================================*/

type TokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type ValidateTokenResponse struct {
	ClassID uuid.UUID `json:"class_id"`
	Date    string    `json:"date"`
}

type ExtendSessionResponse struct {
	NewExpiresAt time.Time `json:"new_expires_at"`
}

func FormatDate(t time.Time) string { return t.Format(dateLayout) }
