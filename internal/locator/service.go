package locator

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/suyashnema0707/MedGraph-Navigator/config"
	"github.com/suyashnema0707/MedGraph-Navigator/models"
)

const placesEndpoint = "https://maps.googleapis.com/maps/api/place/textsearch/json"

// Service is the doctor-finder HTTP service backed by Google Places.
type Service struct {
	cfg      config.LocatorConfig
	endpoint string
	logger   *log.Logger
}

// NewService creates the locator service.
func NewService(cfg config.LocatorConfig) *Service {
	return &Service{
		cfg:      cfg,
		endpoint: placesEndpoint,
		logger:   log.New(log.Writer(), "[LOCATOR] ", log.LstdFlags),
	}
}

// Run serves the locator API on addr until the listener fails.
func (s *Service) Run(addr string) error {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	e.POST("/find_doctors", s.findDoctors)
	return e.Start(addr)
}

type placesResponse struct {
	Results []struct {
		Name             string  `json:"name"`
		FormattedAddress string  `json:"formatted_address"`
		Rating           float64 `json:"rating"`
	} `json:"results"`
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
}

func (s *Service) findDoctors(c echo.Context) error {
	if s.cfg.PlacesAPIKey == "" {
		return echo.NewHTTPError(http.StatusInternalServerError, "places api key is not configured")
	}

	var req struct {
		Specialty string `json:"specialty"`
		Location  string `json:"location"`
	}
	if err := c.Bind(&req); err != nil || req.Specialty == "" || req.Location == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "specialty and location are required")
	}
	s.logger.Printf("searching %q in %q", req.Specialty, req.Location)

	doctors, err := s.search(c, req.Specialty, req.Location)
	if err != nil {
		s.logger.Printf("places search failed: %v", err)
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}
	// Empty results are a valid success for callers.
	if doctors == nil {
		doctors = []models.Doctor{}
	}
	return c.JSON(http.StatusOK, doctors)
}

func (s *Service) search(c echo.Context, specialty, location string) ([]models.Doctor, error) {
	params := url.Values{}
	params.Add("query", fmt.Sprintf("%s in %s", specialty, location))
	params.Add("key", s.cfg.PlacesAPIKey)

	httpReq, err := http.NewRequestWithContext(c.Request().Context(), http.MethodGet, s.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	resp, err := http.DefaultClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("places request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("places status %d", resp.StatusCode)
	}
	var out placesResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode places response: %w", err)
	}
	if out.Status != "OK" && out.Status != "ZERO_RESULTS" {
		return nil, fmt.Errorf("places error %s: %s", out.Status, out.ErrorMessage)
	}

	max := s.cfg.MaxResults
	if max <= 0 {
		max = 5
	}
	var doctors []models.Doctor
	for i, place := range out.Results {
		if i >= max {
			break
		}
		doctors = append(doctors, models.Doctor{
			Name:    place.Name,
			Address: place.FormattedAddress,
			Rating:  place.Rating,
		})
	}
	return doctors, nil
}
