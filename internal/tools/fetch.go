package tools

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/unidown/unidown/internal/utils"
)

const (
	maxFetchRetries  = 3
	progressInterval = 500 * time.Millisecond
)

// baseRetryDelay spaces out retry attempts. Tests shrink it.
var baseRetryDelay = time.Second

// progressFunc receives the byte count fetched so far and the expected
// total, or -1 when the server did not report a length.
type progressFunc func(done, total int64)

// fetchFile downloads url into dest through a .part staging file,
// resuming partial data between retries. The .part file is removed on
// cancellation and after the final failed attempt.
func fetchFile(ctx context.Context, client utils.HTTPDoer, url, dest string, progress progressFunc) error {
	partPath := dest + ".part"
	var lastErr error
	for attempt := 0; attempt < maxFetchRetries; attempt++ {
		if attempt > 0 {
			log.Warn().Str("op", "tools/fetch").Msgf("Retrying download for %s (attempt %d/%d)", dest, attempt+1, maxFetchRetries)
			select {
			case <-time.After(time.Duration(attempt+1) * baseRetryDelay):
			case <-ctx.Done():
				os.Remove(partPath)
				return ctx.Err()
			}
		}
		err := fetchAttempt(ctx, client, url, partPath, progress)
		if err == nil {
			return os.Rename(partPath, dest)
		}
		if ctx.Err() != nil {
			os.Remove(partPath)
			return ctx.Err()
		}
		lastErr = err
		log.Error().Str("op", "tools/fetch").Err(err).Msgf("Download attempt %d failed", attempt+1)
	}
	os.Remove(partPath)
	return fmt.Errorf("download failed after %d attempts: %w", maxFetchRetries, lastErr)
}

func fetchAttempt(ctx context.Context, client utils.HTTPDoer, url, partPath string, progress progressFunc) error {
	var resumeOffset int64
	fileMode := os.O_CREATE | os.O_WRONLY
	if info, err := os.Stat(partPath); err == nil {
		resumeOffset = info.Size()
		fileMode |= os.O_APPEND
	} else {
		fileMode |= os.O_TRUNC
	}
	outFile, err := os.OpenFile(partPath, fileMode, 0644)
	if err != nil {
		return fmt.Errorf("error creating staging file: %v", err)
	}
	// outFile is reassigned on a failed resume, so the deferred close has
	// to go through the variable.
	defer func() { outFile.Close() }()

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return fmt.Errorf("error creating GET request: %v", err)
	}
	if resumeOffset > 0 {
		req.Header.Set("Range", fmt.Sprintf("bytes=%d-", resumeOffset))
		log.Debug().Str("op", "tools/fetch").Msgf("Resuming download from offset %d", resumeOffset)
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	switch {
	case resumeOffset > 0 && resp.StatusCode == http.StatusPartialContent:
	case resumeOffset > 0 && resp.StatusCode == http.StatusOK:
		// full body despite the Range header, restart from scratch
		log.Warn().Str("op", "tools/fetch").Msg("Server does not support resume, restarting")
		outFile.Close()
		outFile, err = os.OpenFile(partPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
		if err != nil {
			return fmt.Errorf("error truncating staging file: %v", err)
		}
		resumeOffset = 0
	case resumeOffset == 0 && resp.StatusCode == http.StatusOK:
	default:
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	total := int64(-1)
	if resp.ContentLength >= 0 {
		total = resp.ContentLength + resumeOffset
	}
	done := resumeOffset
	lastReport := time.Time{}
	report := func(force bool) {
		if progress == nil {
			return
		}
		if force || time.Since(lastReport) >= progressInterval {
			progress(done, total)
			lastReport = time.Now()
		}
	}
	report(true)

	buffer := make([]byte, utils.DefaultBufferSize)
	for {
		bytesRead, readErr := resp.Body.Read(buffer)
		if bytesRead > 0 {
			if _, writeErr := outFile.Write(buffer[:bytesRead]); writeErr != nil {
				return fmt.Errorf("error writing staging file: %v", writeErr)
			}
			done += int64(bytesRead)
			report(false)
		}
		if readErr != nil {
			if readErr == io.EOF {
				break
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("%w: %v", ErrNetwork, readErr)
		}
	}
	report(true)
	return outFile.Sync()
}
