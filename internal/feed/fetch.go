package feed

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/alfredjeanlab/beadgraph/internal/model"
	"golang.org/x/sync/errgroup"
)

// Fetcher loads the initial dataset from the backend's REST API.
type Fetcher struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewFetcher targets baseURL (e.g. "http://localhost:4010"). When token is
// non-empty an Authorization header is set on every request.
func NewFetcher(baseURL, token string) *Fetcher {
	return &Fetcher{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Fetch retrieves /api/nodes and /api/links in parallel. A backend that
// serves links inside the nodes document, or has no links endpoint, yields
// nil links so they are derived from each node's link list.
func (f *Fetcher) Fetch(ctx context.Context) (model.Dataset, error) {
	var (
		nodesDoc []byte
		linksDoc []byte
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		nodesDoc, err = f.get(gctx, "/api/nodes", false)
		return err
	})
	g.Go(func() error {
		var err error
		linksDoc, err = f.get(gctx, "/api/links", true)
		return err
	})
	if err := g.Wait(); err != nil {
		return model.Dataset{}, err
	}

	var d model.Dataset
	if err := decodeCollection(nodesDoc, "nodes", &d.Nodes); err != nil {
		return model.Dataset{}, fmt.Errorf("decoding /api/nodes: %w", err)
	}
	if !isArray(nodesDoc) {
		if err := decodeCollection(nodesDoc, "links", &d.Links); err != nil {
			return model.Dataset{}, fmt.Errorf("decoding links in /api/nodes: %w", err)
		}
	}
	if linksDoc != nil {
		var links []model.Link
		if err := decodeCollection(linksDoc, "links", &links); err != nil {
			return model.Dataset{}, fmt.Errorf("decoding /api/links: %w", err)
		}
		d.Links = links
	}
	return d, nil
}

// get returns the response body. With optional set, a 404 yields nil.
func (f *Fetcher) get(ctx context.Context, path string, optional bool) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if f.token != "" {
		req.Header.Set("Authorization", "Bearer "+f.token)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	if optional && resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if resp.StatusCode >= 400 {
		msg := strings.TrimSpace(string(body))
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return nil, fmt.Errorf("GET %s: HTTP %d: %s", path, resp.StatusCode, msg)
	}
	return body, nil
}
