package verification

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"absenku_backend/internals/apperr"
)

func newGatewayServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *HTTPGateway) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv, NewHTTPGateway(srv.URL, "test-key", 2*time.Second)
}

func TestVerify_SuccessVerdict(t *testing.T) {
	var gotAuth, gotContentType string
	_, gw := newGatewayServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotContentType = r.Header.Get("Content-Type")
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
		}
		if r.FormValue("class_id") == "" || r.FormValue("student_id") == "" {
			t.Errorf("missing identity fields")
		}
		if _, _, err := r.FormFile("image"); err != nil {
			t.Errorf("missing image part: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"success"}`))
	})

	verdict, err := gw.Verify(context.Background(), []byte("webp-bytes"), uuid.New(), uuid.New())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !verdict.Success() {
		t.Fatalf("expected success verdict")
	}
	if gotAuth != "Bearer test-key" {
		t.Fatalf("expected bearer api key, got %q", gotAuth)
	}
	if gotContentType == "" {
		t.Fatalf("expected multipart content type")
	}
}

func TestVerify_FailureVerdictPassthrough(t *testing.T) {
	_, gw := newGatewayServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"error","message":"wajah tidak cocok","code":"NO_MATCH"}`))
	})

	verdict, err := gw.Verify(context.Background(), []byte("x"), uuid.New(), uuid.New())
	if err != nil {
		t.Fatalf("verdict gagal bukan error transport: %v", err)
	}
	if verdict.Success() {
		t.Fatalf("expected failure verdict")
	}
	// message/code harus diteruskan apa adanya
	if verdict.Message != "wajah tidak cocok" || verdict.Code != "NO_MATCH" {
		t.Fatalf("verdict not passed through: %+v", verdict)
	}
}

func TestVerify_ServerErrorIsTransient(t *testing.T) {
	_, gw := newGatewayServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := gw.Verify(context.Background(), []byte("x"), uuid.New(), uuid.New())
	if !apperr.Is(err, apperr.KindTransient) {
		t.Fatalf("expected transient error, got %v", err)
	}
}

func TestVerify_TimeoutIsTransientNotNoMatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
	}))
	t.Cleanup(srv.Close)
	gw := NewHTTPGateway(srv.URL, "", 50*time.Millisecond)

	_, err := gw.Verify(context.Background(), []byte("x"), uuid.New(), uuid.New())
	if !apperr.Is(err, apperr.KindTransient) {
		t.Fatalf("timeout harus TransientError, got %v", err)
	}
}

func TestVerify_UnreachableIsTransient(t *testing.T) {
	gw := NewHTTPGateway("http://127.0.0.1:1", "", 200*time.Millisecond)

	_, err := gw.Verify(context.Background(), []byte("x"), uuid.New(), uuid.New())
	if !apperr.Is(err, apperr.KindTransient) {
		t.Fatalf("expected transient error, got %v", err)
	}
}

func TestVerify_MalformedBodyIsTransient(t *testing.T) {
	_, gw := newGatewayServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("bukan json"))
	})

	_, err := gw.Verify(context.Background(), []byte("x"), uuid.New(), uuid.New())
	if !apperr.Is(err, apperr.KindTransient) {
		t.Fatalf("expected transient error, got %v", err)
	}
}
