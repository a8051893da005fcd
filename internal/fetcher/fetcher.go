// Package fetcher opens CRM export files from a local directory, an HTTP(S)
// base URL, or an FTP server, and parses their CSV and XLSX content.
package fetcher

import (
	"context"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

// Fetcher downloads a remote resource.
type Fetcher interface {
	// Download fetches the URL and returns the response body.
	Download(ctx context.Context, url string) (io.ReadCloser, error)
}

// Options configures the remote fetchers behind an Opener.
type Options struct {
	Timeout    time.Duration
	UserAgent  string
	MaxRetries int
	// RateLimit caps HTTP requests per second. Zero means unlimited.
	RateLimit float64
}

// Opener resolves file names against a base location: a directory, an
// http(s):// URL, or an ftp:// URL.
type Opener struct {
	base   string
	scheme string
	remote Fetcher
}

// NewOpener builds an Opener for base.
func NewOpener(base string, opts Options) (*Opener, error) {
	if base == "" {
		return nil, eris.New("fetcher: empty base location")
	}
	o := &Opener{base: base}

	if u, err := url.Parse(base); err == nil && u.Scheme != "" && len(u.Scheme) > 1 {
		o.scheme = u.Scheme
	}

	switch o.scheme {
	case "":
	case "http", "https":
		limit := rate.Inf
		if opts.RateLimit > 0 {
			limit = rate.Limit(opts.RateLimit)
		}
		o.remote = NewHTTPFetcher(HTTPOptions{
			UserAgent:  opts.UserAgent,
			Timeout:    opts.Timeout,
			MaxRetries: opts.MaxRetries,
			Limiter:    rate.NewLimiter(limit, 1),
		})
	case "ftp":
		o.remote = NewFTPFetcher(FTPOptions{Timeout: opts.Timeout})
	default:
		return nil, eris.Errorf("fetcher: unsupported scheme %q", o.scheme)
	}
	return o, nil
}

// Remote reports whether the base location is a URL.
func (o *Opener) Remote() bool {
	return o.remote != nil
}

// Location returns the full path or URL for name.
func (o *Opener) Location(name string) string {
	if o.remote == nil {
		return filepath.Join(o.base, name)
	}
	u, _ := url.Parse(o.base)
	u.Path = path.Join("/", u.Path, name)
	return u.String()
}

// Open opens name under the base location.
func (o *Opener) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	loc := o.Location(name)
	if o.remote == nil {
		f, err := os.Open(loc)
		if err != nil {
			return nil, eris.Wrapf(err, "fetcher: open %s", loc)
		}
		return f, nil
	}
	rc, err := o.remote.Download(ctx, loc)
	if err != nil {
		return nil, eris.Wrapf(err, "fetcher: download %s", redact(loc))
	}
	return rc, nil
}

// redact strips credentials from a URL before it is logged or wrapped.
func redact(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return raw
	}
	u.User = nil
	return strings.Replace(u.String(), "//", "//***@", 1)
}
