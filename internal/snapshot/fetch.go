// internal/snapshot/fetch.go

// Package snapshot pulls, parses and cleans the caregiver population
// snapshot the pipeline scores.
package snapshot

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/wecare247/churnwatch/internal/common/config"
	stderrors "github.com/wecare247/churnwatch/internal/common/errors"
	commonhttp "github.com/wecare247/churnwatch/internal/common/http"
	"github.com/wecare247/churnwatch/internal/common/logger"
)

// Fetcher downloads the population snapshot as CSV. The canonical
// source is a Google Sheets CSV export; a local file path short-circuits
// the download for offline and test runs.
type Fetcher struct {
	client *commonhttp.Client
	logger logger.Logger
}

func NewFetcher(client *commonhttp.Client, log logger.Logger) *Fetcher {
	return &Fetcher{
		client: client,
		logger: log,
	}
}

// Fetch returns the raw CSV bytes of the current snapshot. Failures
// are transient: the stage fails but nothing already written is
// affected.
func (f *Fetcher) Fetch(ctx context.Context, cfg config.SnapshotConfig) ([]byte, error) {
	if cfg.Path != "" {
		raw, err := os.ReadFile(cfg.Path)
		if err != nil {
			return nil, stderrors.NewSnapshotFetchFailedError(err)
		}
		f.logger.Info("snapshot read from file", map[string]interface{}{
			"path":  cfg.Path,
			"bytes": len(raw),
		})
		return raw, nil
	}

	raw, err := f.fetchURL(ctx, cfg.ExportURL())
	if err != nil {
		return nil, err
	}

	f.logger.Info("snapshot fetched", map[string]interface{}{
		"sheetId": cfg.SheetID,
		"bytes":   len(raw),
	})
	return raw, nil
}

func (f *Fetcher) fetchURL(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, stderrors.NewSnapshotFetchFailedError(err)
	}

	resp, err := f.client.DoWithContext(ctx, req)
	if err != nil {
		return nil, stderrors.NewSnapshotFetchFailedError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, stderrors.NewSnapshotFetchFailedError(
			fmt.Errorf("sheet export returned status %d", resp.StatusCode))
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, stderrors.NewSnapshotFetchFailedError(err)
	}
	if len(raw) == 0 {
		return nil, stderrors.NewSnapshotFetchFailedError(fmt.Errorf("sheet export returned empty body"))
	}
	return raw, nil
}
