package seed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/perfil/internal/domain/model"
	"github.com/okian/perfil/internal/domain/profile/profiletest"
	"github.com/okian/perfil/pkg/logger"
)

// Client talks JSON to a perfil service.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a client with the given request timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// do sends body as JSON and decodes the response into out when out is not
// nil. Any status other than want is an error.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}, want int) error {
	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		rd = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != want {
		return fmt.Errorf("%w: %s %s returned %d: %s", ErrUnexpectedStatus, method, path, resp.StatusCode, bytes.TrimSpace(data))
	}
	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

type studentBody struct {
	ID           string            `json:"id"`
	OrgID        string            `json:"org_id"`
	ClassID      string            `json:"class_id"`
	Name         string            `json:"name"`
	Age          int               `json:"age"`
	CustomFields map[string]string `json:"custom_fields,omitempty"`
}

type responseBody struct {
	StudentID  string                  `json:"student_id"`
	Instrument model.Instrument        `json:"instrument"`
	Answers    map[string]model.Answer `json:"answers"`
}

type customFieldBody struct {
	Key     string   `json:"key"`
	Label   string   `json:"label"`
	Type    string   `json:"type"`
	Options []string `json:"options,omitempty"`
}

// Health checks that the service answers on /healthz.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/healthz", nil, nil, http.StatusOK)
}

// DeclareClub declares the club custom field for orgID.
func (c *Client) DeclareClub(ctx context.Context, orgID string) error {
	body := map[string][]customFieldBody{
		"fields": {{Key: "club", Label: "Club", Type: "select", Options: clubs}},
	}
	return c.do(ctx, http.MethodPut, "/orgs/"+orgID+"/custom-fields", body, nil, http.StatusOK)
}

// PutStudent creates or replaces s.
func (c *Client) PutStudent(ctx context.Context, orgID string, s Student) error {
	body := studentBody{
		ID:           s.ID,
		OrgID:        orgID,
		ClassID:      s.ClassID,
		Name:         s.Name,
		Age:          s.Age,
		CustomFields: map[string]string{"club": s.Club},
	}
	return c.do(ctx, http.MethodPost, "/students", body, nil, http.StatusOK)
}

// PostResponse submits one questionnaire response. want is the expected
// status, 201 for a first submission and 409 for a repeat.
func (c *Client) PostResponse(ctx context.Context, r model.RawResponse, want int) error {
	body := responseBody{StudentID: r.StudentID, Instrument: r.Instrument, Answers: r.Answers}
	return c.do(ctx, http.MethodPost, "/responses", body, nil, want)
}

// submitStudents creates the students and their responses using a pool of
// cfg.Workers goroutines.
func submitStudents(ctx context.Context, cfg Config, c *Client, students []Student, stats *Stats) {
	log := logger.Get().Named("seed")
	log.Info(ctx, "submitting students", logger.Int("students", len(students)), logger.Int("workers", cfg.Workers))

	var created, failed, submitted, rejected int64

	jobs := make(chan Student, cfg.Workers*2)
	var wg sync.WaitGroup

	for i := 0; i < cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for s := range jobs {
				if err := c.PutStudent(ctx, cfg.OrgID, s); err != nil {
					log.Warn(ctx, "failed to create student", logger.String("student", s.ID), logger.Error(err))
					atomic.AddInt64(&failed, 1)
					continue
				}
				atomic.AddInt64(&created, 1)

				rs, err := profiletest.Responses(s.ID, s.Traits)
				if err != nil {
					log.Warn(ctx, "failed to compose responses", logger.String("student", s.ID), logger.Error(err))
					continue
				}
				for _, inst := range model.Instruments {
					r, ok := rs[inst]
					if !ok {
						continue
					}
					if err := c.PostResponse(ctx, r, http.StatusCreated); err != nil {
						log.Warn(ctx, "failed to submit response",
							logger.String("student", s.ID), logger.String("instrument", string(inst)), logger.Error(err))
						atomic.AddInt64(&rejected, 1)
						continue
					}
					atomic.AddInt64(&submitted, 1)
				}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, s := range students {
			select {
			case <-ctx.Done():
				return
			case jobs <- s:
			}
		}
	}()

	wg.Wait()

	stats.StudentsCreated = int(atomic.LoadInt64(&created))
	stats.StudentsFailed = int(atomic.LoadInt64(&failed))
	stats.ResponsesSubmitted = int(atomic.LoadInt64(&submitted))
	stats.ResponsesFailed = int(atomic.LoadInt64(&rejected))

	log.Info(ctx, "submission completed",
		logger.Int("created", stats.StudentsCreated),
		logger.Int("failed", stats.StudentsFailed),
		logger.Int("responses", stats.ResponsesSubmitted),
		logger.Int("responsesFailed", stats.ResponsesFailed))
}
