package health

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/jeanpaul/cookbook/internal/codec"
)

type Status struct {
	BaseURL    string
	Reachable  bool
	Blocked    bool // the host answered but refused us
	StatusCode int
	Error      string
	Latency    time.Duration
}

// Check verifies that the game host is reachable and not refusing our
// requests, without spending a combine call.
func Check(ctx context.Context, baseURL, referer string) Status {
	s := Status{BaseURL: baseURL}
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	url := strings.TrimRight(baseURL, "/") + "/"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		s.Error = err.Error()
		return s
	}
	if referer != "" {
		req.Header.Set("Referer", referer)
	}

	resp, err := http.DefaultClient.Do(req)
	s.Latency = time.Since(start)
	if err != nil {
		s.Error = fmt.Sprintf("cannot reach %s: %s", baseURL, friendlyError(err))
		return s
	}
	defer resp.Body.Close()

	s.Reachable = true
	s.StatusCode = resp.StatusCode
	switch {
	case resp.StatusCode == http.StatusForbidden:
		s.Blocked = true
		s.Error = "host refused the request (HTTP 403), scans would be aborted"
	case resp.StatusCode == http.StatusTooManyRequests:
		s.Blocked = true
		s.Error = "host is rate limiting us (HTTP 429), wait before scanning"
	case resp.StatusCode >= 500:
		s.Error = fmt.Sprintf("host returned HTTP %d", resp.StatusCode)
	}
	return s
}

type CollectionStatus struct {
	Path      string
	Exists    bool
	Loadable  bool
	Items     int
	Exhausted int
	Size      int64
	Error     string
}

// CheckCollection reports whether the collection file exists and loads.
// A missing file is not an error: the first scan creates it.
func CheckCollection(path string, ratio int) CollectionStatus {
	s := CollectionStatus{Path: path}
	info, err := os.Stat(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.Error = err.Error()
		}
		return s
	}
	s.Exists = true
	s.Size = info.Size()

	st, err := codec.NewFile(codec.New(codec.DefaultLevel, nil), path, ratio).Load()
	if err != nil {
		s.Error = err.Error()
		return s
	}
	s.Loadable = true
	s.Items = st.Len()
	s.Exhausted = len(st.Exhausted())
	return s
}

func friendlyError(err error) string {
	msg := err.Error()
	if strings.Contains(msg, "connection refused") {
		return "connection refused (is the service running?)"
	}
	if strings.Contains(msg, "no such host") {
		return "host not found (check the URL)"
	}
	if strings.Contains(msg, "timeout") || strings.Contains(msg, "deadline exceeded") {
		return "connection timed out"
	}
	return msg
}
