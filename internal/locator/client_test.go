package locator

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/suyashnema0707/MedGraph-Navigator/config"
	"github.com/suyashnema0707/MedGraph-Navigator/models"
)

func TestClientFind(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/find_doctors" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		var req struct {
			Specialty string `json:"specialty"`
			Location  string `json:"location"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Specialty != "Cardiology" || req.Location != "Bhopal" {
			t.Fatalf("unexpected request %+v", req)
		}
		_ = json.NewEncoder(w).Encode([]models.Doctor{
			{Name: "Dr. A", Address: "1 Clinic Rd", Rating: 4.5},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	got, err := c.Find(context.Background(), "Cardiology", "Bhopal")
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if len(got) != 1 || got[0].Name != "Dr. A" {
		t.Fatalf("unexpected listings %+v", got)
	}
}

func TestClientFindEmptyIsSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("[]"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	got, err := c.Find(context.Background(), "Cardiology", "Nowhereville")
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no listings, got %+v", got)
	}
}

func TestClientFindServiceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "backend down", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	if _, err := c.Find(context.Background(), "Cardiology", "Bhopal"); err == nil {
		t.Fatal("expected error for 502 response")
	}
}

func TestServiceRejectsMissingFields(t *testing.T) {
	svc := NewService(config.LocatorConfig{PlacesAPIKey: "test-key"})
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/find_doctors", strings.NewReader(`{"specialty":"","location":""}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := svc.findDoctors(c); err == nil {
		t.Fatal("expected error for empty request")
	}
}
