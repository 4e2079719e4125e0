package models

import (
	"fmt"
	"time"
)

// Festival is a festival record as returned by the list, search and detail endpoints.
type Festival struct {
	ID                  int64    `json:"id"`
	Name                string   `json:"festivalName"`
	HoldPlace           string   `json:"holdPlace"`
	StartDate           string   `json:"festivalStartDate"`
	EndDate             string   `json:"festivalEndDate"`
	RawContent          string   `json:"rawContent"`
	OperatorInstitution string   `json:"operatorInstitution"`
	HostInstitution     string   `json:"hostInstitution"`
	SponsorInstitution  string   `json:"sponsorInstitution"`
	Tel                 string   `json:"tel"`
	HomepageURL         string   `json:"homepageUrl"`
	RelatedInfo         string   `json:"relatedInfo"`
	RoadAddress         string   `json:"roadAddress"`
	LandAddress         string   `json:"landAddress"`
	Latitude            float64  `json:"latitude"`
	Longitude           float64  `json:"longitude"`
	DataStandardDate    string   `json:"dataStandardDate"`
	ProviderCode        string   `json:"providerInsttCode"`
	ProviderName        string   `json:"providerInsttName"`
	Image               string   `json:"image"`
	Category            []string `json:"category"`
	Like                bool     `json:"like"`
	LikeCount           int      `json:"likeCount"`
}

// Check verifies a decoded festival carries a name and normalizes a null category list.
func (f *Festival) Check() error {
	if f.Name == "" {
		return fmt.Errorf("%w: festival %d has no name", ErrValidation, f.ID)
	}
	if f.Category == nil {
		f.Category = []string{}
	}
	return nil
}

// Address returns the road address, falling back to the land address and then the venue.
func (f *Festival) Address() string {
	switch {
	case f.RoadAddress != "":
		return f.RoadAddress
	case f.LandAddress != "":
		return f.LandAddress
	default:
		return f.HoldPlace
	}
}

// HasLocation reports whether the festival has usable coordinates.
func (f *Festival) HasLocation() bool {
	return f.Latitude != 0 || f.Longitude != 0
}

// Summary returns the compact record kept in the recently viewed list.
func (f *Festival) Summary() FestivalSummary {
	return FestivalSummary{ID: f.ID, Name: f.Name, ImageURL: f.Image, Region: f.HoldPlace}
}

// FestivalSummary is a recently viewed festival.
type FestivalSummary struct {
	ID       int64     `json:"id"`
	Name     string    `json:"name"`
	ImageURL string    `json:"imageUrl"`
	Region   string    `json:"region"`
	ViewedAt time.Time `json:"viewedAt"`
}

// LikeState is the response of the festival like toggle.
type LikeState struct {
	Like      bool `json:"like"`
	LikeCount int  `json:"likeCount"`
}
