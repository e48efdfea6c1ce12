package logs

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"time"
)

const (
	pollInterval = 250 * time.Millisecond
	followWait   = 2 * time.Second
)

// TailOptions controls a single Tail call. A negative Offset reads the last
// Limit lines; otherwise reading starts at Offset.
type TailOptions struct {
	Offset int64
	Limit  int
	Follow bool
	Wait   time.Duration
	// Match keeps only lines containing this substring.
	Match string
}

// TailResult holds the lines read and the offset to resume from.
type TailResult struct {
	Lines  []string
	Offset int64
}

// Tail reads lines from path. A missing file yields no lines and offset 0.
func Tail(ctx context.Context, path string, opts TailOptions) (TailResult, error) {
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return TailResult{}, nil
	case err != nil:
		return TailResult{Offset: opts.Offset}, fmt.Errorf("stat log file: %w", err)
	case info.IsDir():
		return TailResult{Offset: opts.Offset}, fmt.Errorf("log path %q is a directory", path)
	}

	start := opts.Offset
	if start > info.Size() {
		// The file shrank underneath us; read it again from the top.
		start = 0
	}
	var result TailResult
	if start < 0 {
		result, err = readLast(path, opts.Limit, opts.Match)
	} else {
		result, err = readFrom(path, start, opts.Match)
	}
	if err != nil || len(result.Lines) > 0 || !opts.Follow || opts.Wait <= 0 {
		return result, err
	}
	return poll(ctx, path, result.Offset, opts.Wait, opts.Match)
}

// Follow emits the last limit lines and then every new line until ctx is done.
func Follow(ctx context.Context, path string, limit int, match string, emit func(string)) error {
	opts := TailOptions{Offset: -1, Limit: limit, Match: match}
	for {
		result, err := Tail(ctx, path, opts)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		for _, line := range result.Lines {
			emit(line)
		}
		if ctx.Err() != nil {
			return nil
		}
		opts = TailOptions{Offset: result.Offset, Follow: true, Wait: followWait, Match: match}
	}
}

// scan calls fn with every complete line after offset and returns the offset
// just past the last newline. A trailing partial line is left unread.
func scan(path string, offset int64, fn func(line string)) (int64, error) {
	file, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return offset, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	if _, err := file.Seek(offset, io.SeekStart); err != nil {
		return offset, fmt.Errorf("seek log file: %w", err)
	}
	reader := bufio.NewReaderSize(file, 64*1024)
	for {
		raw, err := reader.ReadString('\n')
		if errors.Is(err, io.EOF) {
			return offset, nil
		}
		if err != nil {
			return offset, fmt.Errorf("read log file: %w", err)
		}
		offset += int64(len(raw))
		fn(strings.TrimRight(raw, "\r\n"))
	}
}

func matcher(match string, into *[]string) func(string) {
	return func(line string) {
		if match == "" || strings.Contains(line, match) {
			*into = append(*into, line)
		}
	}
}

func readFrom(path string, offset int64, match string) (TailResult, error) {
	var lines []string
	next, err := scan(path, offset, matcher(match, &lines))
	return TailResult{Lines: lines, Offset: next}, err
}

// readLast keeps a window of the newest limit matching lines.
func readLast(path string, limit int, match string) (TailResult, error) {
	var lines []string
	collect := matcher(match, &lines)
	next, err := scan(path, 0, func(line string) {
		collect(line)
		if limit > 0 && len(lines) > 2*limit {
			lines = append(lines[:0], lines[len(lines)-limit:]...)
		}
	})
	if err != nil {
		return TailResult{}, err
	}
	switch {
	case limit <= 0:
		lines = nil
	case len(lines) > limit:
		lines = lines[len(lines)-limit:]
	}
	return TailResult{Lines: lines, Offset: next}, nil
}

func poll(ctx context.Context, path string, offset int64, wait time.Duration, match string) (TailResult, error) {
	deadline := time.Now().Add(wait)
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return TailResult{Offset: offset}, ctx.Err()
		case <-ticker.C:
		}
		result, err := readFrom(path, offset, match)
		if err != nil || len(result.Lines) > 0 || time.Now().After(deadline) {
			return result, err
		}
		offset = result.Offset
	}
}
