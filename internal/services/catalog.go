package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/coursefinder/internal/models"
	"github.com/desertthunder/coursefinder/internal/shared"
	"golang.org/x/time/rate"
)

const (
	defaultCatalogURL = "https://openlibrary.org"
	defaultUserAgent  = "UoM-Course-Finder-App/1.0 (coursefinder)"
	defaultLimit      = 20
	maxLimit          = 100

	searchFields = "key,title,author_name,cover_i,first_publish_year"
)

// CatalogClient searches Open Library works.
type CatalogClient struct {
	api apiClient
}

// CatalogOptions configures a [CatalogClient].
type CatalogOptions struct {
	BaseURL    string
	UserAgent  string
	RateLimit  float64 // requests per second; 0 disables limiting
	HTTPClient *http.Client
	Logger     *log.Logger
}

func NewCatalogClient(opts CatalogOptions) *CatalogClient {
	if opts.BaseURL == "" {
		opts.BaseURL = defaultCatalogURL
	}
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}
	logger := opts.Logger
	if logger != nil {
		logger = shared.WithLogger(logger, "service", "catalog")
	}

	api := newAPIClient(opts.BaseURL, opts.UserAgent, opts.HTTPClient, logger)
	if opts.RateLimit > 0 {
		api.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	}
	return &CatalogClient{api: api}
}

func (c *CatalogClient) Name() string { return "Open Library" }

type searchResponse struct {
	NumFound int             `json:"numFound"`
	Docs     []models.Course `json:"docs"`
}

// Search returns up to limit works matching query.
//
// Calls GET /search.json.
func (c *CatalogClient) Search(ctx context.Context, query string, limit int) ([]models.Course, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: empty search query", shared.ErrInvalidInput)
	}
	if limit <= 0 {
		limit = defaultLimit
	}
	limit = min(limit, maxLimit)

	params := url.Values{}
	params.Set("q", query)
	params.Set("limit", strconv.Itoa(limit))
	params.Set("fields", searchFields)

	var resp searchResponse
	if err := c.api.doRequest(ctx, http.MethodGet, "/search.json", params, nil, &resp); err != nil {
		return nil, err
	}

	courses := make([]models.Course, 0, len(resp.Docs))
	for _, doc := range resp.Docs {
		if doc.Key == "" {
			continue
		}
		courses = append(courses, doc)
	}
	return courses, nil
}

// description is either a plain string or {"type": "/type/text", "value": "..."}.
type description string

func (d *description) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*d = description(s)
		return nil
	}

	var typed struct {
		Value string `json:"value"`
	}
	if err := json.Unmarshal(data, &typed); err != nil {
		return err
	}
	*d = description(typed.Value)
	return nil
}

type workResponse struct {
	Key              string      `json:"key"`
	Title            string      `json:"title"`
	Description      description `json:"description"`
	Covers           []int       `json:"covers"`
	Subjects         []string    `json:"subjects"`
	FirstPublishDate string      `json:"first_publish_date"`
}

// Details fetches the full record for key (e.g. "/works/OL45804W" or "OL45804W").
//
// Calls GET {key}.json.
func (c *CatalogClient) Details(ctx context.Context, key string) (*models.CourseDetails, error) {
	path, err := workPath(key)
	if err != nil {
		return nil, err
	}

	var work workResponse
	if err := c.api.doRequest(ctx, http.MethodGet, path+".json", nil, nil, &work); err != nil {
		if statusOf(err) == http.StatusNotFound {
			return nil, fmt.Errorf("%w: %s", shared.ErrCourseNotFound, key)
		}
		return nil, err
	}

	covers := make([]int, 0, len(work.Covers))
	for _, id := range work.Covers {
		if id > 0 {
			covers = append(covers, id)
		}
	}

	if work.Key == "" {
		work.Key = path
	}
	return &models.CourseDetails{
		Key:              work.Key,
		Title:            work.Title,
		Description:      strings.TrimSpace(string(work.Description)),
		Covers:           covers,
		Subjects:         work.Subjects,
		FirstPublishDate: work.FirstPublishDate,
	}, nil
}

// workPath normalises a catalog key into a request path.
func workPath(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", fmt.Errorf("%w: empty course key", shared.ErrInvalidInput)
	}
	if !strings.HasPrefix(key, "/") {
		key = "/works/" + key
	}
	if strings.ContainsAny(key, "?#") || strings.Contains(key, "..") {
		return "", fmt.Errorf("%w: course key %q", shared.ErrInvalidInput, key)
	}
	return key, nil
}
