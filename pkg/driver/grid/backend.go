package grid

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/kong-job/kong/pkg/driver/batchbase"
	"github.com/kong-job/kong/pkg/model"
)

// pandaTask is the subset of Panda's monitoring JSON this driver
// reads per task, mirroring the fields prun_driver.py's
// bulk_sync_status inspects.
type pandaTask struct {
	JediTaskID int    `json:"jeditaskid"`
	Status     string `json:"status"`
	DSInfo     *struct {
		NFilesFailed int `json:"nfilesfailed"`
	} `json:"dsinfo"`
	ScoutingHasCritFailures bool `json:"scoutinghascritfailures"`
}

// Backend queries Panda's monitoring HTTP API for task status.
// HTTPClient and BaseURL are overridable seams for tests; SubmitOne
// and CancelOne do not call out at all — see doc.go.
type Backend struct {
	HTTPClient *http.Client
	BaseURL    string // e.g. https://bigpanda.cern.ch
	Get        func(ctx context.Context, url string) ([]byte, error)
}

// NewBackend returns a Backend querying the real Panda monitor at
// baseURL.
func NewBackend(baseURL string) *Backend {
	b := &Backend{HTTPClient: http.DefaultClient, BaseURL: baseURL}
	b.Get = b.httpGet
	return b
}

func (b *Backend) httpGet(ctx context.Context, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := b.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("panda monitor: unexpected status %s", resp.Status)
	}
	return io.ReadAll(resp.Body)
}

// SubmitOne never calls out: Panda task submission happens externally
// via pathena/prun before a job ever reaches Kong, so there is nothing
// to submit here, and it always returns an error. Nothing calls it:
// grid.go's createOne takes the Panda jeditaskid from
// JobSpec.Extra["task_id"], and Submit just flips CREATED to
// SUBMITTED, matching the original driver's own submit().
func (b *Backend) SubmitOne(ctx context.Context, jobID int64, batchFile string) (string, error) {
	return "", fmt.Errorf("grid: submit_one is not supported; task ids are assigned externally")
}

// QueryMany calls Panda's task-query endpoint once for the whole
// jeditaskid batch (pipe-joined, matching the original's "|".join),
// then applies the dsinfo/scoutinghascritfailures failure-escalation
// rules the original's bulk_sync_status applies before status
// mapping.
func (b *Backend) QueryMany(ctx context.Context, batchJobIDs []string) ([]batchbase.BackendStatus, error) {
	if len(batchJobIDs) == 0 {
		return nil, nil
	}
	q := url.Values{}
	q.Set("jeditaskid", strings.Join(batchJobIDs, "|"))
	u := fmt.Sprintf("%s/tasks/?%s&json", strings.TrimRight(b.BaseURL, "/"), q.Encode())

	out, err := b.Get(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("panda monitor query: %w", err)
	}

	var tasks []pandaTask
	if err := json.Unmarshal(out, &tasks); err != nil {
		return nil, fmt.Errorf("panda monitor: parsing response: %w", err)
	}

	results := make([]batchbase.BackendStatus, 0, len(tasks))
	for _, t := range tasks {
		status := t.Status
		if t.DSInfo != nil && t.DSInfo.NFilesFailed > 0 {
			status = "failed"
		}
		if t.ScoutingHasCritFailures {
			status = "failed"
		}
		results = append(results, batchbase.BackendStatus{
			BatchJobID: strconv.Itoa(t.JediTaskID),
			RawStatus:  status,
		})
	}
	return results, nil
}

// CancelOne is not supported: the original driver's kill()/bulk_kill()
// both raise NotImplementedError — Panda task abort is an operator
// action taken through bigpanda.cern.ch, not exposed here.
func (b *Backend) CancelOne(ctx context.Context, batchJobID string) error {
	return fmt.Errorf("grid: cancel_one is not supported for Panda tasks")
}

// MapStatus applies the Panda task-state table (see statusmap.go).
func (b *Backend) MapStatus(s batchbase.BackendStatus) (model.Status, *int) {
	return mapStatus(s)
}

func (b *Backend) DefaultPollInterval() time.Duration {
	return time.Minute
}

var _ batchbase.Backend = (*Backend)(nil)
