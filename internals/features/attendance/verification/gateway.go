package verification

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/google/uuid"

	"absenku_backend/internals/apperr"
)

// Verdict: kontrak respons gateway face-match eksternal. Status selain
// "success" diteruskan apa adanya ke pemanggil (message/code passthrough).
type Verdict struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Code    string `json:"code,omitempty"`
}

func (v *Verdict) Success() bool { return v.Status == "success" }

type Gateway interface {
	Verify(ctx context.Context, image []byte, classID, studentID uuid.UUID) (*Verdict, error)
}

type HTTPGateway struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

func NewHTTPGateway(baseURL, apiKey string, timeout time.Duration) *HTTPGateway {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPGateway{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Client:  &http.Client{Timeout: timeout},
	}
}

// Verify mengirim foto + identitas ke gateway sebagai multipart.
// Gateway tidak terjangkau / timeout = TransientError, BUKAN "tidak cocok" —
// caller tidak boleh menganggap siswa gagal verifikasi hanya karena jaringan.
func (g *HTTPGateway) Verify(ctx context.Context, image []byte, classID, studentID uuid.UUID) (*Verdict, error) {
	body := new(bytes.Buffer)
	mw := multipart.NewWriter(body)

	fw, err := mw.CreateFormFile("image", "attendance.webp")
	if err != nil {
		return nil, err
	}
	if _, err := fw.Write(image); err != nil {
		return nil, err
	}
	if err := mw.WriteField("class_id", classID.String()); err != nil {
		return nil, err
	}
	if err := mw.WriteField("student_id", studentID.String()); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.BaseURL+"/v1/verify", body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if g.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.APIKey)
	}

	resp, err := g.Client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return nil, apperr.Wrap(apperr.KindTransient, "verification gateway timeout", err)
		}
		return nil, apperr.Wrap(apperr.KindTransient, "verification gateway tidak terjangkau", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return nil, apperr.Transient(fmt.Sprintf("verification gateway error (HTTP %d)", resp.StatusCode))
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, apperr.Wrap(apperr.KindTransient, "gagal membaca respons gateway", err)
	}

	var verdict Verdict
	if err := json.Unmarshal(raw, &verdict); err != nil {
		return nil, apperr.Wrap(apperr.KindTransient, "respons gateway tidak valid", err)
	}
	return &verdict, nil
}
