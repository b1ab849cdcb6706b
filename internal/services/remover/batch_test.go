package remover

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eleblu/bluswipe/internal/models"
)

func batchInput(t *testing.T, name string) BatchInput {
	t.Helper()
	return BatchInput{
		OriginalFilename: name,
		ContentType:      "image/png",
		Data:             pngBytes(t, 3, 3, color.NRGBA{R: 80, A: 255}),
	}
}

func TestProcessBatchKeepsOrderAndIsolatesFailures(t *testing.T) {
	svc, store := newTestService(t, newFakeSession(), Config{MaxBatchFiles: 10})

	items := []BatchInput{
		batchInput(t, "a.png"),
		batchInput(t, "b.png"),
		{OriginalFilename: "notes.txt", ContentType: "text/plain", Data: []byte("plain text")},
		batchInput(t, "c.png"),
		{OriginalFilename: "broken.png", ContentType: "image/png", Data: []byte("corrupt bytes")},
	}

	results, err := svc.ProcessBatch(context.Background(), items, Options{}, nil)
	require.NoError(t, err)
	require.Len(t, results, len(items))

	for i, item := range items {
		assert.Equal(t, item.OriginalFilename, results[i].OriginalFilename, "order must match submission")
	}

	assert.Equal(t, models.ItemStatusError, results[2].Status)
	assert.Equal(t, "Not an image file", results[2].Error)
	assert.Equal(t, models.ItemStatusError, results[4].Status)
	assert.NotEmpty(t, results[4].Error)

	for _, i := range []int{0, 1, 3} {
		res := results[i]
		assert.Equal(t, models.ItemStatusSuccess, res.Status, "item %d", i)
		assert.True(t, strings.HasPrefix(res.OutputFilename, "batch_"), "output name: %q", res.OutputFilename)
		assert.Equal(t, "/api/download/"+res.OutputFilename, res.DownloadURL)
		assert.Empty(t, res.PublicURL, "no mirror configured")

		if _, err := os.Stat(store.OutputPath(res.OutputFilename)); err != nil {
			t.Fatalf("output for item %d not on disk: %v", i, err)
		}
	}
}

func TestProcessBatchRejectsOversizedWholesale(t *testing.T) {
	svc, store := newTestService(t, newFakeSession(), Config{MaxBatchFiles: 2})

	items := []BatchInput{batchInput(t, "a.png"), batchInput(t, "b.png"), batchInput(t, "c.png")}
	_, err := svc.ProcessBatch(context.Background(), items, Options{}, nil)
	require.ErrorIs(t, err, ErrBatchTooLarge)
	assert.Contains(t, err.Error(), "maximum 2 files allowed")

	// Rejection happens before any item runs, so nothing reached disk.
	entries, readErr := os.ReadDir(filepath.Dir(store.OutputPath("x")))
	require.NoError(t, readErr)
	assert.Empty(t, entries)
}

func TestProcessBatchUnlimitedWhenZero(t *testing.T) {
	svc, _ := newTestService(t, newFakeSession(), Config{MaxBatchFiles: 0})

	items := []BatchInput{batchInput(t, "a.png"), batchInput(t, "b.png"), batchInput(t, "c.png")}
	results, err := svc.ProcessBatch(context.Background(), items, Options{}, nil)
	require.NoError(t, err)
	assert.Len(t, results, 3)
}

func TestProcessBatchReportsProgress(t *testing.T) {
	svc, _ := newTestService(t, newFakeSession(), Config{MaxBatchFiles: 10})

	items := []BatchInput{
		batchInput(t, "a.png"),
		{OriginalFilename: "bad.txt", ContentType: "text/plain"},
		batchInput(t, "c.png"),
	}

	type tick struct {
		completed, total int
		name             string
	}
	var ticks []tick
	_, err := svc.ProcessBatch(context.Background(), items, Options{}, func(completed, total int, name string) {
		ticks = append(ticks, tick{completed, total, name})
	})
	require.NoError(t, err)

	want := []tick{
		{1, 3, "a.png"},
		{2, 3, "bad.txt"},
		{3, 3, "c.png"},
	}
	assert.Equal(t, want, ticks, "progress fires after every item, failures included")
}

func TestProcessBatchItemTimeout(t *testing.T) {
	session := newFakeSession()
	var calls int
	session.removeFn = func(ctx context.Context, img image.Image) (image.Image, error) {
		calls++
		if calls == 1 {
			select {
			case <-time.After(5 * time.Second):
				return img, nil
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
		return img, nil
	}
	svc, _ := newTestService(t, session, Config{MaxBatchFiles: 10, ItemTimeout: 30 * time.Millisecond})

	items := []BatchInput{batchInput(t, "slow.png"), batchInput(t, "fast.png")}
	results, err := svc.ProcessBatch(context.Background(), items, Options{}, nil)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, models.ItemStatusError, results[0].Status)
	assert.Contains(t, results[0].Error, "context deadline exceeded")
	assert.Equal(t, models.ItemStatusSuccess, results[1].Status, "timeout is per item, not per batch")
}

func TestProcessBatchSwitchFailureMarksItems(t *testing.T) {
	svc, _ := newTestService(t, newFakeSession(), Config{MaxBatchFiles: 10})

	items := []BatchInput{batchInput(t, "a.png"), batchInput(t, "b.png")}
	results, err := svc.ProcessBatch(context.Background(), items, Options{Model: "vaporware"}, nil)
	require.NoError(t, err)
	require.Len(t, results, 2)

	for i, res := range results {
		assert.Equal(t, models.ItemStatusError, res.Status, "item %d", i)
		assert.Contains(t, res.Error, "unknown model")
	}
}

func TestBatchInputEmptyDataFailsItemOnly(t *testing.T) {
	svc, _ := newTestService(t, newFakeSession(), Config{MaxBatchFiles: 10})

	items := []BatchInput{
		{OriginalFilename: "empty.png", ContentType: "image/png"},
		batchInput(t, "ok.png"),
	}
	results, err := svc.ProcessBatch(context.Background(), items, Options{}, nil)
	require.NoError(t, err)
	assert.Equal(t, models.ItemStatusError, results[0].Status)
	assert.Equal(t, models.ItemStatusSuccess, results[1].Status)
	assert.Equal(t, fmt.Sprintf("/api/download/%s", results[1].OutputFilename), results[1].DownloadURL)
}
