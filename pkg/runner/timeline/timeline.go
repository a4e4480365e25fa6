package timeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/fatih/color"

	"tableflip.dev/daily/pkg/journal"
	"tableflip.dev/daily/pkg/memory"
	"tableflip.dev/daily/pkg/printers"
	tl "tableflip.dev/daily/pkg/timeline"
)

type Timeline struct {
	Journal   *journal.Service
	Ascending bool
	ShowID    bool
	JSON      bool
	// Images, when set, lists openable handles instead of image labels.
	Images *printers.ImageResolver
	Out    io.Writer
}

type jsonGroup struct {
	Key     string          `json:"key"`
	Label   string          `json:"label"`
	Entries []*memory.Entry `json:"entries"`
}

type jsonTimeline struct {
	Order        string      `json:"order"`
	Groups       []jsonGroup `json:"groups"`
	NeedsCapture bool        `json:"needsCapture"`
	Unavailable  bool        `json:"unavailable,omitempty"`
	// Images maps entry ids to openable handles when resolving.
	Images map[string]string `json:"images,omitempty"`
}

func (n *Timeline) Do(ctx context.Context) error {
	if n.Journal == nil {
		return errors.New("can not show timeline, no journal")
	}
	out := n.Out
	if out == nil {
		out = color.Output
	}

	dir := tl.Descending
	if n.Ascending {
		dir = tl.Ascending
	}

	snap := n.Journal.Load(ctx)
	today := n.Journal.Today()
	groups := tl.Build(snap.Set, dir)
	needs := tl.NeedsCapture(snap.Set, today)

	if n.JSON {
		doc := jsonTimeline{
			Order:        dir.String(),
			Groups:       make([]jsonGroup, 0, len(groups)),
			NeedsCapture: needs,
			Unavailable:  snap.Unavailable,
		}
		for _, g := range groups {
			doc.Groups = append(doc.Groups, jsonGroup{Key: g.Key, Label: g.Label, Entries: g.Entries})
			if n.Images == nil {
				continue
			}
			for _, e := range g.Entries {
				h, err := n.Images.Resolve(e)
				if err != nil {
					return err
				}
				if h == "" {
					continue
				}
				if doc.Images == nil {
					doc.Images = make(map[string]string)
				}
				doc.Images[e.ID] = h
			}
		}
		b, err := json.Marshal(doc)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintln(out, string(b))
		return nil
	}

	pp := printers.PrettyPrint{ShowID: n.ShowID, Images: n.Images, Out: out}
	pp.NewLine()
	if snap.Unavailable {
		pp.Unavailable(snap.Err)
		pp.NewLine()
	}
	if needs {
		pp.CaptureHint(today)
	}
	pp.Timeline(groups)
	return nil
}
