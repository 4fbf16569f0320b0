// Package fetch resolves artifact references that may be http(s) URLs into
// local files.
package fetch

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
)

type Client struct {
	rest *resty.Client
}

// New returns a client that retries transport errors and 5xx responses.
func New(timeout time.Duration) *Client {
	r := resty.New()
	if timeout > 0 {
		r.SetTimeout(timeout)
	} else {
		r.SetTimeout(time.Minute) // default fallback
	}
	r.SetRetryCount(2)
	r.SetRetryWaitTime(500 * time.Millisecond)
	r.AddRetryCondition(func(resp *resty.Response, err error) bool {
		return resp != nil && resp.StatusCode() >= 500
	})
	return &Client{rest: r}
}

// IsRemote reports whether ref is an http or https URL.
func IsRemote(ref string) bool {
	return strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://")
}

// Resolve returns ref unchanged when it is a local path. A URL is downloaded
// into dir as <role>_<last path element> and the local path returned, so
// artifacts of different roles never share a file.
func (c *Client) Resolve(ctx context.Context, ref, dir, role string) (string, error) {
	if !IsRemote(ref) {
		return ref, nil
	}

	u, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("parse artifact url: %w", err)
	}
	name := path.Base(u.Path)
	if name == "/" || name == "." {
		name = "artifact"
	}
	dest := filepath.Join(dir, role+"_"+name)

	start := time.Now()
	resp, err := c.rest.R().
		SetContext(ctx).
		SetOutput(dest).
		Get(ref)
	if err != nil {
		os.Remove(dest)
		return "", fmt.Errorf("download %s: %w", ref, err)
	}
	if resp.IsError() {
		os.Remove(dest)
		return "", fmt.Errorf("download %s: %s", ref, resp.Status())
	}

	log.Info().
		Str("url", ref).
		Str("path", dest).
		Dur("duration", time.Since(start)).
		Msg("Artifact downloaded")
	return dest, nil
}
