package info

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"

	"tableflip.dev/daily/pkg/journal"
	"tableflip.dev/daily/pkg/printers"
	"tableflip.dev/daily/pkg/store"
	"tableflip.dev/daily/pkg/timeutil"
)

type Info struct {
	Config  *store.FileConfig
	Journal *journal.Service
	Out     io.Writer
}

func (n *Info) Do(ctx context.Context) error {
	out := n.Out
	if out == nil {
		out = color.Output
	}

	if override := os.Getenv("DAILY_CONFIG_PATH"); override != "" {
		_, _ = fmt.Fprintln(out, "DAILY_CONFIG_PATH found on env, using", override)
	} else {
		_, _ = fmt.Fprintln(out, "DAILY_CONFIG_PATH env var not set")
	}

	if n.Config == nil {
		var err error
		n.Config, err = store.LoadConfig()
		if err != nil {
			return err
		}
	}

	bold := color.New(color.Bold)
	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.AddRow(bold.Sprint("backend"), n.Config.Backend())
	switch n.Config.Backend() {
	case store.BackendCloud:
		cloud := n.Config.Cloud()
		tbl.AddRow(bold.Sprint("cloud"), cloud.Name)
		tbl.AddRow(bold.Sprint("tag"), cloud.Tag)
		tbl.AddRow(bold.Sprint("signed"), fmt.Sprint(cloud.Secret != ""))
	default:
		tbl.AddRow(bold.Sprint("path"), n.Config.BasePath())
	}
	tbl.AddRow(bold.Sprint("slideshow"), timeutil.FormatInterval(n.Config.SlideInterval()))
	images := n.Config.ImageDir()
	if images == "" {
		images = printers.DefaultImageDir()
	}
	tbl.AddRow(bold.Sprint("images"), images)
	tbl.AddRow(bold.Sprint("log level"), n.Config.LogLevel())

	if n.Journal != nil {
		snap := n.Journal.Load(ctx)
		if snap.Unavailable {
			tbl.AddRow(bold.Sprint("memories"), color.YellowString("unavailable: %v", snap.Err))
		} else {
			tbl.AddRow(bold.Sprint("memories"), fmt.Sprint(snap.Set.Len()))
			if entries := snap.Set.Entries(); len(entries) > 0 {
				tbl.AddRow(bold.Sprint("first"), entries[0].Date)
				tbl.AddRow(bold.Sprint("latest"), entries[len(entries)-1].Date)
			}
		}
	}

	_, _ = fmt.Fprintln(out, tbl)
	return nil
}
