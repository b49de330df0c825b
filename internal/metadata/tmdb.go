package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/whirlwatch/whirlwatch/internal/models"
)

const tmdbBaseURL = "https://api.themoviedb.org/3"

type TMDBClient struct {
	apiKey string
	client *http.Client
}

func NewTMDBClient(apiKey string) *TMDBClient {
	return &TMDBClient{
		apiKey: apiKey,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

type tmdbDetails struct {
	Title        string  `json:"title"`
	Name         string  `json:"name"`
	Overview     string  `json:"overview"`
	PosterPath   string  `json:"poster_path"`
	ReleaseDate  string  `json:"release_date"`
	FirstAirDate string  `json:"first_air_date"`
	VoteAverage  float64 `json:"vote_average"`
	Genres       []struct {
		Name string `json:"name"`
	} `json:"genres"`
}

func (c *TMDBClient) Enrich(ctx context.Context, externalID string, kind models.MediaKind) (*ItemDetails, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("TMDB API key not configured")
	}

	path := "movie"
	if kind == models.KindSeries {
		path = "tv"
	}
	reqURL := fmt.Sprintf("%s/%s/%s?api_key=%s",
		tmdbBaseURL, path, url.PathEscape(externalID), url.QueryEscape(c.apiKey))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tmdb returned %d", resp.StatusCode)
	}

	var d tmdbDetails
	if err := json.NewDecoder(resp.Body).Decode(&d); err != nil {
		return nil, err
	}

	title := d.Title
	if title == "" {
		title = d.Name
	}
	date := d.ReleaseDate
	if date == "" {
		date = d.FirstAirDate
	}
	out := &ItemDetails{
		Title:       title,
		Overview:    d.Overview,
		PosterPath:  d.PosterPath,
		ReleaseDate: date,
		VoteAverage: d.VoteAverage,
	}
	for _, g := range d.Genres {
		out.Genres = append(out.Genres, g.Name)
	}
	return out, nil
}
