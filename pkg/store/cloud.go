package store

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"tableflip.dev/daily/pkg/memory"
)

const (
	defaultUploadURL   = "https://api.cloudinary.com"
	defaultDeliveryURL = "https://res.cloudinary.com"
	maxReplySize       = 8 << 20
)

// Cloud stores entries on a Cloudinary-compatible media host. Metadata rides
// along as the resource's context; entries are found again by tag.
type Cloud struct {
	cfg     CloudConfig
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
	logger  *zap.Logger
	now     func() time.Time
}

var _ Persistence = (*Cloud)(nil)

// NewCloud builds a client for cfg. Only the cloud name is mandatory; writes
// additionally need either an unsigned upload preset or a key and secret.
func NewCloud(cfg CloudConfig, logger *zap.Logger) (*Cloud, error) {
	if cfg.Name == "" {
		return nil, errors.New("store: cloud.name required")
	}
	if cfg.Tag == "" {
		cfg.Tag = defaultCloudTag
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultCloudTimeout
	}
	if cfg.UploadURL == "" {
		cfg.UploadURL = defaultUploadURL
	}
	if cfg.DeliveryURL == "" {
		cfg.DeliveryURL = defaultDeliveryURL
	}
	cfg.UploadURL = strings.TrimRight(cfg.UploadURL, "/")
	cfg.DeliveryURL = strings.TrimRight(cfg.DeliveryURL, "/")

	logger = logger.Named("cloud")
	return &Cloud{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "cloud:" + cfg.Name,
			MaxRequests: 1,
			Interval:    time.Minute,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 3
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logger.Info("circuit breaker state changed",
					zap.String("breaker", name),
					zap.Stringer("from", from),
					zap.Stringer("to", to))
			},
		}),
		logger: logger,
		now:    time.Now,
	}, nil
}

type listReply struct {
	Resources []resource `json:"resources"`
}

type resource struct {
	PublicID  string `json:"public_id"`
	Version   int64  `json:"version"`
	Format    string `json:"format"`
	CreatedAt string `json:"created_at"`
	Context   struct {
		Custom map[string]string `json:"custom"`
	} `json:"context"`
}

type reply struct {
	status int
	body   []byte
}

func (c *Cloud) FetchAll(ctx context.Context) ([]*memory.Entry, error) {
	u := fmt.Sprintf("%s/%s/image/list/%s.json", c.cfg.DeliveryURL, url.PathEscape(c.cfg.Name), url.PathEscape(c.cfg.Tag))
	r, err := c.do(ctx, "list", func() (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	})
	if err != nil {
		return nil, err
	}
	// The list endpoint answers 404 until the tag has at least one resource.
	if r.status == http.StatusNotFound {
		return []*memory.Entry{}, nil
	}
	if r.status/100 != 2 {
		return nil, &memory.TransportError{Op: "list", Err: replyError(r)}
	}

	var lr listReply
	if err := json.Unmarshal(r.body, &lr); err != nil {
		return nil, &memory.TransportError{Op: "list", Err: fmt.Errorf("decode: %w", err)}
	}
	all := make([]*memory.Entry, 0, len(lr.Resources))
	for _, res := range lr.Resources {
		all = append(all, c.toEntry(res))
	}
	c.logger.Debug("listed resources", zap.Int("count", len(all)))
	return all, nil
}

func (c *Cloud) toEntry(res resource) *memory.Entry {
	custom := res.Context.Custom
	created, _ := time.Parse(time.RFC3339, res.CreatedAt)

	date := custom["date"]
	if date == "" && len(res.CreatedAt) >= len(memory.DateLayout) {
		date = res.CreatedAt[:len(memory.DateLayout)]
	}
	ts, err := strconv.ParseInt(custom["timestamp"], 10, 64)
	if err != nil {
		ts = created.UnixMilli()
	}
	return &memory.Entry{
		ID:         res.PublicID,
		Date:       date,
		Caption:    custom["caption"],
		CapturedAt: ts,
		Image: memory.ImageRef{
			URL: fmt.Sprintf("%s/%s/image/upload/v%d/%s.%s", c.cfg.DeliveryURL, c.cfg.Name, res.Version, res.PublicID, res.Format),
		},
	}
}

func (c *Cloud) Create(ctx context.Context, e *memory.Entry) (string, error) {
	id := fmt.Sprintf("memory_%s_%d", e.Date, e.CapturedAt)
	if err := c.upload(ctx, "create", id, e, false); err != nil {
		return "", err
	}
	return id, nil
}

func (c *Cloud) Replace(ctx context.Context, id string, e *memory.Entry) error {
	if c.cfg.Secret == "" {
		return errors.New("store: cloud replace requires cloud.key and cloud.secret")
	}
	return c.upload(ctx, "replace", id, e, true)
}

func (c *Cloud) Delete(ctx context.Context, id string) error {
	if c.cfg.Secret == "" {
		return errors.New("store: cloud delete requires cloud.key and cloud.secret")
	}
	params := c.sign(map[string]string{"public_id": id})
	form := url.Values{}
	for k, v := range params {
		form.Set(k, v)
	}
	u := fmt.Sprintf("%s/v1_1/%s/image/destroy", c.cfg.UploadURL, url.PathEscape(c.cfg.Name))
	r, err := c.do(ctx, "delete", func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, strings.NewReader(form.Encode()))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		return req, nil
	})
	if err != nil {
		return err
	}
	if r.status/100 != 2 {
		return &memory.TransportError{Op: "delete", Err: replyError(r)}
	}
	var out struct {
		Result string `json:"result"`
	}
	if err := json.Unmarshal(r.body, &out); err != nil {
		return &memory.TransportError{Op: "delete", Err: fmt.Errorf("decode: %w", err)}
	}
	switch out.Result {
	case "ok":
		c.logger.Debug("destroyed resource", zap.String("id", id))
		return nil
	case "not found":
		return &memory.NotFoundError{ID: id}
	default:
		return &memory.TransportError{Op: "delete", Err: fmt.Errorf("unexpected result %q", out.Result)}
	}
}

func (c *Cloud) upload(ctx context.Context, op, publicID string, e *memory.Entry, overwrite bool) error {
	params := map[string]string{
		"public_id": publicID,
		"tags":      fmt.Sprintf("%s,date_%s", c.cfg.Tag, e.Date),
		"context": strings.Join([]string{
			"caption=" + escapeContext(e.Caption),
			"date=" + e.Date,
			"timestamp=" + strconv.FormatInt(e.CapturedAt, 10),
		}, "|"),
	}
	switch {
	case c.cfg.Secret != "":
		if overwrite {
			params["overwrite"] = "true"
			params["invalidate"] = "true"
		}
		params = c.sign(params)
	case c.cfg.Preset != "":
		params["upload_preset"] = c.cfg.Preset
	default:
		return errors.New("store: cloud upload requires cloud.preset or cloud.key and cloud.secret")
	}

	u := fmt.Sprintf("%s/v1_1/%s/image/upload", c.cfg.UploadURL, url.PathEscape(c.cfg.Name))
	r, err := c.do(ctx, op, func() (*http.Request, error) {
		body, contentType, err := multipartBody(params, publicID, e.Image)
		if err != nil {
			return nil, err
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, body)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", contentType)
		return req, nil
	})
	if err != nil {
		return err
	}
	if r.status/100 != 2 {
		return &memory.TransportError{Op: op, Err: replyError(r)}
	}
	c.logger.Debug("uploaded resource", zap.String("op", op), zap.String("id", publicID))
	return nil
}

// do runs one HTTP exchange through the circuit breaker. Network failures and
// 5xx replies count against the breaker; other statuses are left to callers.
func (c *Cloud) do(ctx context.Context, op string, build func() (*http.Request, error)) (*reply, error) {
	out, err := c.breaker.Execute(func() (interface{}, error) {
		req, err := build()
		if err != nil {
			return nil, err
		}
		resp, err := c.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		body, err := io.ReadAll(io.LimitReader(resp.Body, maxReplySize))
		if err != nil {
			return nil, err
		}
		r := &reply{status: resp.StatusCode, body: body}
		if resp.StatusCode >= 500 {
			return nil, replyError(r)
		}
		return r, nil
	})
	if err != nil {
		c.logger.Debug("cloud request failed", zap.String("op", op), zap.Error(err))
		return nil, &memory.TransportError{Op: op, Err: err}
	}
	return out.(*reply), nil
}

// sign adds api_key, timestamp and the SHA-1 signature over the sorted
// parameters, as the host's signed upload API expects.
func (c *Cloud) sign(params map[string]string) map[string]string {
	signed := make(map[string]string, len(params)+3)
	for k, v := range params {
		signed[k] = v
	}
	signed["timestamp"] = strconv.FormatInt(c.now().Unix(), 10)
	signed["signature"] = signature(signed, c.cfg.Secret)
	signed["api_key"] = c.cfg.Key
	return signed
}

func signature(params map[string]string, secret string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		switch k {
		case "file", "api_key", "signature", "resource_type":
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, len(keys))
	for i, k := range keys {
		pairs[i] = k + "=" + params[k]
	}
	sum := sha1.Sum([]byte(strings.Join(pairs, "&") + secret))
	return hex.EncodeToString(sum[:])
}

func multipartBody(params map[string]string, name string, img memory.ImageRef) (io.Reader, string, error) {
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := w.WriteField(k, params[k]); err != nil {
			return nil, "", err
		}
	}
	if img.Inline() {
		part, err := w.CreateFormFile("file", name)
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(img.Data); err != nil {
			return nil, "", err
		}
	} else if err := w.WriteField("file", img.URL); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf, w.FormDataContentType(), nil
}

// escapeContext escapes the context separators inside a value.
func escapeContext(s string) string {
	s = strings.ReplaceAll(s, `=`, `\=`)
	return strings.ReplaceAll(s, `|`, `\|`)
}

func replyError(r *reply) error {
	var body struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(r.body, &body); err == nil && body.Error.Message != "" {
		return fmt.Errorf("status %d: %s", r.status, body.Error.Message)
	}
	return fmt.Errorf("status %d", r.status)
}
