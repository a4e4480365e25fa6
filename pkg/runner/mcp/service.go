// Package mcp provides the Model Context Protocol server integration for daily.
package mcp

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"tableflip.dev/daily/pkg/calendar"
	"tableflip.dev/daily/pkg/journal"
	"tableflip.dev/daily/pkg/memory"
	"tableflip.dev/daily/pkg/timeline"
)

// ErrNoMemory is returned when no canonical memory exists for a date.
var ErrNoMemory = errors.New("no memory for that date")

var errNoJournal = errors.New("journal is not configured")

// Service adapts the journal to transport-friendly values shared by the
// MCP tools and resources.
type Service struct {
	Journal *journal.Service
}

// CaptureOptions carries a capture request as received over MCP. Exactly one
// of ImageURL or ImageBase64 should be set.
type CaptureOptions struct {
	Date        string
	Caption     string
	ImageURL    string
	ImageBase64 string
	ReplaceID   string
}

// MemoryDTO is a transport-friendly projection of an entry. Inline image
// bytes are never sent; only their size.
type MemoryDTO struct {
	ID           string `json:"id"`
	Date         string `json:"date"`
	Caption      string `json:"caption,omitempty"`
	ImageURL     string `json:"imageUrl,omitempty"`
	ImageBytes   int    `json:"imageBytes,omitempty"`
	CapturedISO  string `json:"captured"`
	CapturedUnix int64  `json:"capturedUnixMilli"`
}

// GroupDTO is one month of the timeline.
type GroupDTO struct {
	Key      string      `json:"key"`
	Label    string      `json:"label"`
	Count    int         `json:"count"`
	Memories []MemoryDTO `json:"memories"`
}

// TimelineDTO is the grouped timeline.
type TimelineDTO struct {
	Order        string     `json:"order"`
	Today        string     `json:"today"`
	NeedsCapture bool       `json:"needsCapture"`
	Unavailable  bool       `json:"unavailable,omitempty"`
	Groups       []GroupDTO `json:"groups"`
}

// DayDTO is one calendar day.
type DayDTO struct {
	Date       string `json:"date"`
	MemoryID   string `json:"memoryId,omitempty"`
	Future     bool   `json:"future,omitempty"`
	Today      bool   `json:"today,omitempty"`
	Capturable bool   `json:"capturable"`
}

// MonthDTO is a month grid.
type MonthDTO struct {
	Month       string   `json:"month"`
	Count       int      `json:"count"`
	CanNext     bool     `json:"canNext"`
	Unavailable bool     `json:"unavailable,omitempty"`
	Days        []DayDTO `json:"days"`
}

// MonthCellDTO is one month of a year overview.
type MonthCellDTO struct {
	Month    string `json:"month"`
	Count    int    `json:"count"`
	Disabled bool   `json:"disabled"`
}

// YearDTO is the twelve-month overview.
type YearDTO struct {
	Year        int            `json:"year"`
	Unavailable bool           `json:"unavailable,omitempty"`
	Months      []MonthCellDTO `json:"months"`
}

// NewService builds a service wrapper around the journal.
func NewService(j *journal.Service) *Service {
	return &Service{Journal: j}
}

// ListMemories returns the canonical set in ascending date order.
func (s *Service) ListMemories(ctx context.Context) ([]MemoryDTO, bool, error) {
	if s.Journal == nil {
		return nil, false, errNoJournal
	}
	snap := s.Journal.Load(ctx)
	entries := snap.Set.Entries()
	out := make([]MemoryDTO, 0, len(entries))
	for _, e := range entries {
		out = append(out, toDTO(e))
	}
	return out, snap.Unavailable, nil
}

// MemoryByDate returns the canonical memory for date.
func (s *Service) MemoryByDate(ctx context.Context, date string) (*MemoryDTO, error) {
	if s.Journal == nil {
		return nil, errNoJournal
	}
	date = strings.TrimSpace(date)
	if !memory.ValidDate(date) {
		return nil, fmt.Errorf("date must be YYYY-MM-DD, got %q", date)
	}
	snap := s.Journal.Load(ctx)
	if snap.Unavailable {
		return nil, fmt.Errorf("memories unavailable: %w", snap.Err)
	}
	e, ok := snap.Set.Lookup(date)
	if !ok {
		return nil, fmt.Errorf("%s: %w", date, ErrNoMemory)
	}
	dto := toDTO(e)
	return &dto, nil
}

// ImageDTO is the photo of one memory: inline bytes as base64, or the URL
// the remote host serves it from.
type ImageDTO struct {
	ID       string `json:"id"`
	Date     string `json:"date"`
	MIMEType string `json:"mimeType,omitempty"`
	Base64   string `json:"base64,omitempty"`
	URL      string `json:"url,omitempty"`
}

// ImageByDate returns the photo of the canonical memory for date.
func (s *Service) ImageByDate(ctx context.Context, date string) (*ImageDTO, error) {
	if s.Journal == nil {
		return nil, errNoJournal
	}
	date = strings.TrimSpace(date)
	if !memory.ValidDate(date) {
		return nil, fmt.Errorf("date must be YYYY-MM-DD, got %q", date)
	}
	snap := s.Journal.Load(ctx)
	if snap.Unavailable {
		return nil, fmt.Errorf("memories unavailable: %w", snap.Err)
	}
	e, ok := snap.Set.Lookup(date)
	if !ok {
		return nil, fmt.Errorf("%s: %w", date, ErrNoMemory)
	}
	out := &ImageDTO{ID: e.ID, Date: e.Date}
	switch {
	case e.Image.Inline():
		out.MIMEType = http.DetectContentType(e.Image.Data)
		out.Base64 = base64.StdEncoding.EncodeToString(e.Image.Data)
	case e.Image.URL != "":
		out.URL = e.Image.URL
	default:
		return nil, fmt.Errorf("%s has no image", date)
	}
	return out, nil
}

// Timeline groups the canonical set by month.
func (s *Service) Timeline(ctx context.Context, ascending bool) (*TimelineDTO, error) {
	if s.Journal == nil {
		return nil, errNoJournal
	}
	dir := timeline.Descending
	if ascending {
		dir = timeline.Ascending
	}
	snap := s.Journal.Load(ctx)
	today := s.Journal.Today()

	groups := timeline.Build(snap.Set, dir)
	out := &TimelineDTO{
		Order:        dir.String(),
		Today:        today,
		NeedsCapture: timeline.NeedsCapture(snap.Set, today),
		Unavailable:  snap.Unavailable,
		Groups:       make([]GroupDTO, 0, len(groups)),
	}
	for _, g := range groups {
		gd := GroupDTO{Key: g.Key, Label: g.Label, Count: len(g.Entries), Memories: make([]MemoryDTO, 0, len(g.Entries))}
		for _, e := range g.Entries {
			gd.Memories = append(gd.Memories, toDTO(e))
		}
		out.Groups = append(out.Groups, gd)
	}
	return out, nil
}

// Calendar lays out month (YYYY-MM, empty for the current month).
func (s *Service) Calendar(ctx context.Context, month string) (*MonthDTO, error) {
	if s.Journal == nil {
		return nil, errNoJournal
	}
	nav := calendar.NewNavigator(s.Journal.Clock)
	if month = strings.TrimSpace(month); month != "" {
		t, err := time.ParseInLocation("2006-01", month, time.Local)
		if err != nil {
			return nil, fmt.Errorf("month must be YYYY-MM, got %q", month)
		}
		if err := nav.Set(t); err != nil {
			return nil, err
		}
	}

	snap := s.Journal.Load(ctx)
	m := calendar.BuildMonth(snap.Set, nav.Month(), nav.Today())
	out := &MonthDTO{
		Month:       m.Start.Format("2006-01"),
		Count:       m.Count(),
		CanNext:     nav.CanNext(),
		Unavailable: snap.Unavailable,
		Days:        make([]DayDTO, 0, len(m.Days)),
	}
	for _, d := range m.Days {
		dd := DayDTO{Date: d.Date, Future: d.Future, Today: d.Today, Capturable: d.Capturable()}
		if d.Entry != nil {
			dd.MemoryID = d.Entry.ID
		}
		out.Days = append(out.Days, dd)
	}
	return out, nil
}

// Year summarises a year month by month.
func (s *Service) Year(ctx context.Context, year int) (*YearDTO, error) {
	if s.Journal == nil {
		return nil, errNoJournal
	}
	if year < 1 {
		return nil, fmt.Errorf("invalid year %d", year)
	}
	snap := s.Journal.Load(ctx)
	cells := calendar.BuildYear(snap.Set, year, s.Journal.Now())
	out := &YearDTO{Year: year, Unavailable: snap.Unavailable, Months: make([]MonthCellDTO, 0, len(cells))}
	for _, c := range cells {
		out.Months = append(out.Months, MonthCellDTO{Month: c.Month.String(), Count: c.Count, Disabled: c.Disabled})
	}
	return out, nil
}

// Capture stores a memory from a URL or base64 image payload.
func (s *Service) Capture(ctx context.Context, opts CaptureOptions) (*MemoryDTO, error) {
	if s.Journal == nil {
		return nil, errNoJournal
	}
	img, err := decodeImage(opts.ImageURL, opts.ImageBase64)
	if err != nil {
		return nil, err
	}
	date := strings.TrimSpace(opts.Date)
	if date == "" || date == "today" {
		date = s.Journal.Today()
	}
	e, err := s.Journal.Capture(ctx, journal.CaptureRequest{
		Date:      date,
		Image:     img,
		Caption:   strings.TrimSpace(opts.Caption),
		ReplaceID: strings.TrimSpace(opts.ReplaceID),
	})
	if err != nil {
		return nil, err
	}
	dto := toDTO(e)
	return &dto, nil
}

// Remove deletes a raw record by id.
func (s *Service) Remove(ctx context.Context, id string) error {
	if s.Journal == nil {
		return errNoJournal
	}
	return s.Journal.Remove(ctx, strings.TrimSpace(id))
}

// maxImageBytes is the decoded size limit for image_base64.
var maxImageBytes = memory.MaxImageBytes

func imageTooLarge() error {
	return &memory.ValidationError{Fields: []string{fmt.Sprintf("image is larger than %d bytes", maxImageBytes)}}
}

// decodeImage accepts plain base64 or a data: URL.
func decodeImage(url, payload string) (memory.ImageRef, error) {
	url = strings.TrimSpace(url)
	payload = strings.TrimSpace(payload)
	switch {
	case url != "" && payload != "":
		return memory.ImageRef{}, errors.New("provide either image_url or image_base64, not both")
	case url != "":
		return memory.ImageRef{URL: url}, nil
	case payload == "":
		return memory.ImageRef{}, nil
	}
	if strings.HasPrefix(payload, "data:") {
		i := strings.Index(payload, ",")
		if i < 0 {
			return memory.ImageRef{}, errors.New("malformed data URL")
		}
		payload = payload[i+1:]
	}
	// DecodedLen over-counts padding by up to two bytes.
	if base64.StdEncoding.DecodedLen(len(payload)) > maxImageBytes+2 {
		return memory.ImageRef{}, imageTooLarge()
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return memory.ImageRef{}, fmt.Errorf("invalid image_base64: %w", err)
	}
	if len(data) > maxImageBytes {
		return memory.ImageRef{}, imageTooLarge()
	}
	return memory.ImageRef{Data: data}, nil
}

func toDTO(e *memory.Entry) MemoryDTO {
	dto := MemoryDTO{
		ID:           e.ID,
		Date:         e.Date,
		Caption:      e.Caption,
		ImageURL:     e.Image.URL,
		ImageBytes:   len(e.Image.Data),
		CapturedUnix: e.CapturedAt,
	}
	if e.CapturedAt > 0 {
		dto.CapturedISO = e.Captured().UTC().Format(time.RFC3339)
	}
	return dto
}
