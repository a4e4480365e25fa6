package capture

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/fatih/color"
	homedir "github.com/mitchellh/go-homedir"

	"tableflip.dev/daily/pkg/journal"
	"tableflip.dev/daily/pkg/memory"
	"tableflip.dev/daily/pkg/printers"
)

// MaxImageBytes bounds how much a single capture reads from disk or stdin.
const MaxImageBytes = memory.MaxImageBytes

type Capture struct {
	Journal   *journal.Service
	Source    string
	Date      string
	Caption   string
	ReplaceID string
	ShowID    bool
	JSON      bool
	// Images prints an openable handle for the stored photo.
	Images *printers.ImageResolver

	// Stdin is read when Source is "-".
	Stdin io.Reader
	Out   io.Writer
}

func (n *Capture) Do(ctx context.Context) error {
	if n.Journal == nil {
		return errors.New("can not capture, no journal")
	}

	img, err := n.image()
	if err != nil {
		return err
	}

	date := strings.TrimSpace(n.Date)
	if date == "" || date == "today" {
		date = n.Journal.Today()
	}

	e, err := n.Journal.Capture(ctx, journal.CaptureRequest{
		Date:      date,
		Image:     img,
		Caption:   strings.TrimSpace(n.Caption),
		ReplaceID: n.ReplaceID,
	})
	if err != nil {
		return err
	}

	out := n.Out
	if out == nil {
		out = color.Output
	}
	if n.JSON {
		b, err := json.Marshal(e)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintln(out, string(b))
		return nil
	}

	pp := printers.PrettyPrint{ShowID: n.ShowID, Images: n.Images, Out: out}
	if n.ReplaceID != "" {
		pp.Title("Replaced")
	} else {
		pp.Title("Captured")
	}
	pp.Detail(e)
	return nil
}

// image turns Source into an ImageRef: absolute http(s) URLs are kept as
// references, "-" reads stdin and anything else is a file path.
func (n *Capture) image() (memory.ImageRef, error) {
	src := strings.TrimSpace(n.Source)
	switch {
	case src == "":
		return memory.ImageRef{}, nil
	case isRemote(src):
		return memory.ImageRef{URL: src}, nil
	case src == "-":
		in := n.Stdin
		if in == nil {
			in = os.Stdin
		}
		data, err := readLimited(in)
		if err != nil {
			return memory.ImageRef{}, fmt.Errorf("capture: reading stdin: %w", err)
		}
		return memory.ImageRef{Data: data}, nil
	}

	path, err := homedir.Expand(src)
	if err != nil {
		return memory.ImageRef{}, err
	}
	f, err := os.Open(path)
	if err != nil {
		return memory.ImageRef{}, fmt.Errorf("capture: %w", err)
	}
	defer f.Close()
	data, err := readLimited(f)
	if err != nil {
		return memory.ImageRef{}, fmt.Errorf("capture: reading %s: %w", path, err)
	}
	return memory.ImageRef{Data: data}, nil
}

func isRemote(src string) bool {
	u, err := url.Parse(src)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func readLimited(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxImageBytes+1))
	if err != nil {
		return nil, err
	}
	if len(data) > MaxImageBytes {
		return nil, fmt.Errorf("image is larger than %d bytes", MaxImageBytes)
	}
	return data, nil
}
