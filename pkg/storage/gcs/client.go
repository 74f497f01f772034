package gcs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/angelmondragon/membercards/pkg/config"
	pkgerrors "github.com/angelmondragon/membercards/pkg/errors"
	"github.com/angelmondragon/membercards/pkg/logger"
	"github.com/angelmondragon/membercards/pkg/storage"
)

const (
	defaultBaseURL = "https://storage.googleapis.com"
	pingTimeout    = 5 * time.Second
	listPageSize   = 1000
)

// Client persists card documents as objects in one GCS bucket under a prefix.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	bucket      string
	prefix      string
	tokenSource *tokenSource
	logg        *logger.Logger
}

var _ storage.Store = (*Client)(nil)

// Option customizes a Client.
type Option func(*Client)

// WithBaseURL points the client at an alternate JSON API host.
func WithBaseURL(base string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(base, "/") }
}

// WithHTTPClient overrides the transport used for API and token calls.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func NewClient(ctx context.Context, cfg config.GCSConfig, gcp config.GCPConfig, logg *logger.Logger, opts ...Option) (*Client, error) {
	if cfg.BucketName == "" {
		return nil, errors.New("gcs bucket name is required")
	}
	if logg == nil {
		logg = logger.Nop()
	}

	client := &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    defaultBaseURL,
		bucket:     cfg.BucketName,
		prefix:     strings.Trim(cfg.Prefix, "/"),
		logg:       logg,
	}
	for _, opt := range opts {
		opt(client)
	}

	var err error
	switch {
	case gcp.CredentialsJSON != "":
		client.tokenSource, err = newServiceAccountTokenSource(client.httpClient, gcp.CredentialsJSON)
	case gcp.ApplicationCredentials != "":
		raw, readErr := os.ReadFile(gcp.ApplicationCredentials)
		if readErr != nil {
			return nil, fmt.Errorf("reading credentials file: %w", readErr)
		}
		client.tokenSource, err = newServiceAccountTokenSource(client.httpClient, string(raw))
	default:
		client.tokenSource = newMetadataTokenSource(client.httpClient, "")
	}
	if err != nil {
		return nil, err
	}

	if err := client.Ping(ctx); err != nil {
		return nil, fmt.Errorf("gcs health check failed: %w", err)
	}

	logg.Info(logg.WithFields(ctx, map[string]any{"bucket": client.bucket, "prefix": client.prefix}), "gcs client initialized")
	return client, nil
}

// Bucket returns the configured bucket name.
func (c *Client) Bucket() string {
	if c == nil {
		return ""
	}
	return c.bucket
}

// Ping lists at most one object, which requires storage.objects.list.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.tokenSource == nil {
		return errors.New("gcs client not initialized")
	}
	if c.bucket == "" {
		return errors.New("gcs bucket not configured")
	}

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	q := url.Values{}
	q.Set("maxResults", "1")
	resp, err := c.do(ctx, http.MethodGet, c.bucketURL("/o", q), nil, "")
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return statusError("gcs object check failed", resp)
	}
	return nil
}

type objectResource struct {
	Name        string `json:"name"`
	Size        string `json:"size"`
	TimeCreated string `json:"timeCreated"`
	Updated     string `json:"updated"`
}

// Save renders the document into memory and uploads it in one media request.
func (c *Client) Save(ctx context.Context, name, contentType string, write func(io.Writer) error) (*storage.Document, error) {
	if err := storage.CheckSaveName(name); err != nil {
		return nil, err
	}
	if write == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "document writer required")
	}

	var buf bytes.Buffer
	if err := write(&buf); err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeIO, err, "writing document")
	}

	q := url.Values{}
	q.Set("uploadType", "media")
	q.Set("name", c.objectName(name))
	endpoint := c.baseURL + "/upload/storage/v1/b/" + url.PathEscape(c.bucket) + "/o?" + q.Encode()

	resp, err := c.do(ctx, http.MethodPost, endpoint, &buf, contentType)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeIO, err, "uploading document")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, pkgerrors.Wrap(pkgerrors.CodeIO, statusError("gcs upload failed", resp), "uploading document")
	}

	var obj objectResource
	if err := json.NewDecoder(resp.Body).Decode(&obj); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeIO, err, "decoding upload response")
	}
	doc := c.document(obj)
	return &doc, nil
}

// List pages through every object under the prefix, newest first.
func (c *Client) List(ctx context.Context) ([]storage.Document, error) {
	docs := []storage.Document{}
	pageToken := ""
	for {
		q := url.Values{}
		q.Set("maxResults", strconv.Itoa(listPageSize))
		if c.prefix != "" {
			q.Set("prefix", c.prefix+"/")
		}
		if pageToken != "" {
			q.Set("pageToken", pageToken)
		}

		page, err := c.listPage(ctx, q)
		if err != nil {
			return nil, err
		}
		for _, obj := range page.Items {
			leaf := strings.TrimPrefix(obj.Name, c.prefix+"/")
			if c.prefix == "" {
				leaf = obj.Name
			}
			if !storage.IsLeafName(leaf) {
				continue
			}
			docs = append(docs, c.document(obj))
		}
		if page.NextPageToken == "" {
			break
		}
		pageToken = page.NextPageToken
	}
	storage.SortNewestFirst(docs)
	return docs, nil
}

type listResponse struct {
	Items         []objectResource `json:"items"`
	NextPageToken string           `json:"nextPageToken"`
}

func (c *Client) listPage(ctx context.Context, q url.Values) (*listResponse, error) {
	resp, err := c.do(ctx, http.MethodGet, c.bucketURL("/o", q), nil, "")
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeIO, err, "listing documents")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, pkgerrors.Wrap(pkgerrors.CodeIO, statusError("gcs list failed", resp), "listing documents")
	}
	var page listResponse
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeIO, err, "decoding list response")
	}
	return &page, nil
}

// Open fetches object metadata, then streams the media body.
func (c *Client) Open(ctx context.Context, name string) (io.ReadCloser, *storage.Document, error) {
	if err := storage.CheckOpenName(name); err != nil {
		return nil, nil, err
	}
	objectPath := "/o/" + url.PathEscape(c.objectName(name))

	meta, err := c.do(ctx, http.MethodGet, c.bucketURL(objectPath, nil), nil, "")
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeIO, err, "fetching document metadata")
	}
	defer func() { _ = meta.Body.Close() }()

	switch meta.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, nil, pkgerrors.New(pkgerrors.CodeNotFound, "document not found")
	default:
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeIO, statusError("gcs metadata failed", meta), "fetching document metadata")
	}
	var obj objectResource
	if err := json.NewDecoder(meta.Body).Decode(&obj); err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeIO, err, "decoding document metadata")
	}

	q := url.Values{}
	q.Set("alt", "media")
	body, err := c.do(ctx, http.MethodGet, c.bucketURL(objectPath, q), nil, "")
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeIO, err, "downloading document")
	}
	switch body.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		_ = body.Body.Close()
		return nil, nil, pkgerrors.New(pkgerrors.CodeNotFound, "document not found")
	default:
		defer func() { _ = body.Body.Close() }()
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeIO, statusError("gcs download failed", body), "downloading document")
	}

	doc := c.document(obj)
	return body.Body, &doc, nil
}

func (c *Client) do(ctx context.Context, method, endpoint string, body io.Reader, contentType string) (*http.Response, error) {
	token, err := c.tokenSource.Token(ctx)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	return c.httpClient.Do(req)
}

func (c *Client) bucketURL(suffix string, q url.Values) string {
	u := c.baseURL + "/storage/v1/b/" + url.PathEscape(c.bucket) + suffix
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	return u
}

func (c *Client) objectName(name string) string {
	if c.prefix == "" {
		return name
	}
	return c.prefix + "/" + name
}

func (c *Client) document(obj objectResource) storage.Document {
	size, _ := strconv.ParseInt(obj.Size, 10, 64)
	created, err := time.Parse(time.RFC3339Nano, obj.Updated)
	if err != nil || obj.Updated == "" {
		created, _ = time.Parse(time.RFC3339Nano, obj.TimeCreated)
	}
	return storage.Document{
		FileName:  path.Base(obj.Name),
		FilePath:  "gs://" + c.bucket + "/" + obj.Name,
		SizeBytes: size,
		CreatedAt: created.UTC(),
	}
}

func statusError(prefix string, resp *http.Response) error {
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	if msg := strings.TrimSpace(string(b)); msg != "" {
		return fmt.Errorf("%s: %s: %s", prefix, resp.Status, msg)
	}
	return fmt.Errorf("%s: %s", prefix, resp.Status)
}
