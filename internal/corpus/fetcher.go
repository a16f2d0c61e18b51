package corpus

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	apperrors "github.com/Conceptual-Machines/composer-api/internal/errors"
	"github.com/Conceptual-Machines/composer-api/internal/logger"
	"github.com/Conceptual-Machines/composer-api/internal/score"
)

const (
	DefaultTimeout = 10 * time.Second

	// upper bound on a single downloaded file
	maxFileSize = 8 << 20
)

// Fetcher downloads movement MIDI files laid out as {base}/{work}/{work}-{mm}.mid
type Fetcher struct {
	baseURL    string
	httpClient *http.Client
}

func NewFetcher(baseURL string, timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Fetcher{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// URL is where a movement of w is expected to live
func (f *Fetcher) URL(w Work, movement int) string {
	return fmt.Sprintf("%s/%s/%s-%02d.mid", f.baseURL, w.ID, w.ID, movement)
}

// Fetch downloads and parses one movement
func (f *Fetcher) Fetch(ctx context.Context, w Work, movement int) (*score.Score, error) {
	url := f.URL(w, movement)
	if f.baseURL == "" {
		return nil, apperrors.NewResourceError(url, "fetch", fmt.Errorf("no corpus base URL configured"))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, apperrors.NewResourceError(url, "fetch", err)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.NewResourceError(url, "fetch", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.NewResourceError(url, "fetch", fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxFileSize))
	if err != nil {
		return nil, apperrors.NewResourceError(url, "fetch", err)
	}

	s, err := score.ReadMIDI(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	if s.Metadata.Title == "" {
		s.Metadata.Title = w.Title
	}
	s.Metadata.Key = w.Key
	return s, nil
}

// FetchPeriod loads the first movement of every work of a period. Works that
// fail are logged and skipped; when none load the built-in samples are
// returned. Only a cancelled context is reported as an error.
func (f *Fetcher) FetchPeriod(ctx context.Context, period Period) (map[string]*score.Score, error) {
	loaded := make(map[string]*score.Score)
	for _, w := range ByPeriod(period) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		s, err := f.Fetch(ctx, w, 1)
		if err != nil {
			logger.Warn("⚠️ Corpus work unavailable", logger.Fields{
				"work":  w.ID,
				"error": err.Error(),
			})
			continue
		}
		loaded[w.ID] = s
		logger.Info("✅ Loaded corpus work", logger.Fields{"work": w.ID, "title": w.Title})
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(loaded) == 0 {
		logger.Info("📚 No corpus available, using built-in samples", logger.Fields{"period": string(period)})
		return Samples(), nil
	}
	return loaded, nil
}
