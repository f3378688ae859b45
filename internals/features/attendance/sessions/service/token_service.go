package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/google/uuid"

	"absenku_backend/internals/apperr"
	"absenku_backend/internals/features/attendance/repository"
	helper "absenku_backend/internals/helpers"
)

// Semua alasan penolakan token sengaja dilebur jadi satu pesan:
// pemegang token salah tidak perlu tahu sesi mana yang ada/kedaluwarsa.
var ErrTokenInvalid = apperr.Expired("token tidak valid atau sudah kedaluwarsa")

const tokenRandomBytes = 24 // 192 bit

type TokenService struct {
	store repository.Store
	clock helper.Clock
}

func NewTokenService(store repository.Store, clock helper.Clock) *TokenService {
	if clock == nil {
		clock = helper.RealClock()
	}
	return &TokenService{store: store, clock: clock}
}

// NewOpaqueToken: 192 bit random, base64url tanpa padding (32 karakter).
func NewOpaqueToken() (string, error) {
	buf := make([]byte, tokenRandomBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("gagal generate token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// Issue menerbitkan token baru untuk sesi (class, tanggal) dan mengaktifkan
// kembali sesinya. Token lama langsung tidak berlaku (satu token hidup per sesi).
func (s *TokenService) Issue(ctx context.Context, classID uuid.UUID, date time.Time) (string, time.Time, error) {
	date = NormalizeDate(date)

	sess, err := s.store.Sessions().FindByClassDate(ctx, classID, date)
	if err != nil {
		return "", time.Time{}, err
	}
	if sess == nil {
		return "", time.Time{}, ErrSessionNotFound
	}

	token, err := NewOpaqueToken()
	if err != nil {
		return "", time.Time{}, err
	}

	sess.AttendanceSessionToken = &token
	sess.AttendanceSessionIsActive = true
	if err := s.store.Sessions().Save(ctx, sess); err != nil {
		return "", time.Time{}, err
	}
	return token, sess.AttendanceSessionEndTime, nil
}

// CurrentToken: token hidup untuk sesi (untuk render QR); ErrTokenInvalid
// bila sesi tidak ada, mati, lewat jendela, atau belum pernah issue.
func (s *TokenService) CurrentToken(ctx context.Context, classID uuid.UUID, date time.Time) (string, error) {
	date = NormalizeDate(date)

	sess, err := s.store.Sessions().FindByClassDate(ctx, classID, date)
	if err != nil {
		return "", err
	}
	if sess == nil || sess.AttendanceSessionToken == nil || !sess.LiveAt(s.clock.Now()) {
		return "", ErrTokenInvalid
	}
	return *sess.AttendanceSessionToken, nil
}

// Validate me-resolve token ke (class, tanggal) tanpa efek samping.
// Penolakan tidak dibeda-bedakan alasannya: token tidak dikenal, sesi
// dimatikan, maupun jendela lewat semuanya ErrTokenInvalid. Perbandingan
// kedaluwarsa pakai instan absolut, bukan string tanggal lokal.
func (s *TokenService) Validate(ctx context.Context, token string) (uuid.UUID, time.Time, error) {
	if token == "" {
		return uuid.Nil, time.Time{}, ErrTokenInvalid
	}

	sess, err := s.store.Sessions().FindByToken(ctx, token)
	if err != nil {
		return uuid.Nil, time.Time{}, err
	}
	if sess == nil || !sess.AttendanceSessionIsActive {
		return uuid.Nil, time.Time{}, ErrTokenInvalid
	}
	// is_active bisa basi (true padahal jendela lewat) — timestamp yang menentukan.
	if sess.ExpiredAt(s.clock.Now()) {
		return uuid.Nil, time.Time{}, ErrTokenInvalid
	}
	return sess.AttendanceSessionClassID, sess.AttendanceSessionDate, nil
}
