package services

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/desertthunder/festa/internal/models"
	"github.com/desertthunder/festa/internal/shared"
)

const (
	googleSearchURL = "https://www.google.com/maps/search/"
	googleStaticURL = "https://maps.googleapis.com/maps/api/staticmap"
	naverDirections = "https://map.naver.com/p/directions/-/%s,%s,,,SIMPLE_POI/-/transit"
)

// MapLinks builds map, directions and share URLs for a festival.
type MapLinks struct {
	apiKey    string
	shareBase string
}

// NewMapLinks creates a [MapLinks] from the maps config.
func NewMapLinks(cfg shared.MapsConfig) *MapLinks {
	return &MapLinks{apiKey: cfg.GoogleMapsKey, shareBase: strings.TrimRight(cfg.ShareBaseURL, "/")}
}

func coord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func located(f *models.Festival) error {
	if f == nil || !f.HasLocation() {
		return fmt.Errorf("%w: festival has no coordinates", shared.ErrInvalidInput)
	}
	return nil
}

// Search returns a Google Maps search link centered on the festival.
func (m *MapLinks) Search(f *models.Festival) (string, error) {
	if err := located(f); err != nil {
		return "", err
	}
	q := url.Values{
		"api":   []string{"1"},
		"query": []string{coord(f.Latitude) + "," + coord(f.Longitude)},
	}
	return googleSearchURL + "?" + q.Encode(), nil
}

// Static returns a static map image URL. It requires a Google Maps key.
func (m *MapLinks) Static(f *models.Festival) (string, error) {
	if err := located(f); err != nil {
		return "", err
	}
	if m.apiKey == "" {
		return "", fmt.Errorf("%w: maps.google_maps_key", shared.ErrMissingConfig)
	}

	center := coord(f.Latitude) + "," + coord(f.Longitude)
	q := url.Values{
		"center":  []string{center},
		"zoom":    []string{"12"},
		"size":    []string{"600x400"},
		"markers": []string{"color:red|" + center},
		"key":     []string{m.apiKey},
	}
	return googleStaticURL + "?" + q.Encode(), nil
}

// Directions returns a Naver Maps transit directions link to the festival.
func (m *MapLinks) Directions(f *models.Festival) (string, error) {
	if err := located(f); err != nil {
		return "", err
	}
	return fmt.Sprintf(naverDirections, coord(f.Longitude), coord(f.Latitude)), nil
}

// Share returns the public web link of a festival.
func (m *MapLinks) Share(id int64) string {
	return fmt.Sprintf("%s/festival/%d", m.shareBase, id)
}
