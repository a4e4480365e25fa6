package memory

import (
	"fmt"
	"time"
)

// DateLayout is the calendar-date form every entry is keyed by.
const DateLayout = "2006-01-02"

// MaxImageBytes bounds the inline image accepted for a single capture.
const MaxImageBytes = 32 << 20

// ImageRef points at the photo for an entry. Exactly one of Data or URL is
// normally set: local stores hold the bytes, the remote host hands out URLs.
type ImageRef struct {
	Data []byte `json:"-"`
	URL  string `json:"url,omitempty"`
}

// Empty reports whether the reference carries neither bytes nor a URL.
func (r ImageRef) Empty() bool {
	return len(r.Data) == 0 && r.URL == ""
}

// Inline reports whether the image bytes are held locally.
func (r ImageRef) Inline() bool {
	return len(r.Data) > 0
}

// Entry is a single daily memory.
type Entry struct {
	ID         string   `json:"id"`
	Date       string   `json:"date"`
	Image      ImageRef `json:"image"`
	Caption    string   `json:"caption,omitempty"`
	CapturedAt int64    `json:"timestamp"`
}

// Day parses Date in the local timezone.
func (e *Entry) Day() (time.Time, error) {
	return ParseDate(e.Date)
}

// Captured returns CapturedAt as a time.
func (e *Entry) Captured() time.Time {
	return time.UnixMilli(e.CapturedAt)
}

// Clone returns a deep copy, image bytes included.
func (e *Entry) Clone() *Entry {
	if e == nil {
		return nil
	}
	c := *e
	if e.Image.Data != nil {
		c.Image.Data = append([]byte(nil), e.Image.Data...)
	}
	return &c
}

func (e *Entry) String() string {
	if e.Caption == "" {
		return fmt.Sprintf("%s [%s]", e.Date, e.ID)
	}
	return fmt.Sprintf("%s [%s] %s", e.Date, e.ID, e.Caption)
}

// ParseDate parses a YYYY-MM-DD date at local midnight.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, time.Local)
}

// FormatDate renders t as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// ValidDate reports whether s is a well formed calendar date.
func ValidDate(s string) bool {
	_, err := ParseDate(s)
	return err == nil
}

// Today truncates now to local midnight.
func Today(now time.Time) time.Time {
	y, m, d := now.In(time.Local).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.Local)
}
