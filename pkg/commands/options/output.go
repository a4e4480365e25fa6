package options

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"tableflip.dev/daily/pkg/memory"
)

// OutputOptions
type OutputOptions struct {
	JSON bool

	Out io.Writer
}

func (o *OutputOptions) out() io.Writer {
	if o.Out != nil {
		return o.Out
	}
	return color.Output
}

func AddOutputArg(cmd *cobra.Command, po *OutputOptions) {
	cmd.Flags().BoolVar(&po.JSON, "json", false,
		"Output as JSON.")
}

// ErrReported marks a failure that was already written to the output. The
// caller should exit non-zero without printing it again.
var ErrReported = errors.New("error reported")

// HandleError prints err as a JSON object when --json is set, classifying
// the journal's typed errors, and returns ErrReported. Otherwise err is
// returned.
func (o *OutputOptions) HandleError(err error) error {
	if o.JSON && err != nil {
		out := map[string]string{
			"error": err.Error(),
			"kind":  ErrorKind(err),
		}
		b, err := json.Marshal(out)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintln(o.out(), string(b))
		return ErrReported
	}
	return err
}

// ErrorKind names the class of a journal error.
func ErrorKind(err error) string {
	var (
		verr *memory.ValidationError
		terr *memory.TransportError
	)
	switch {
	case errors.As(err, &verr):
		return "validation"
	case errors.Is(err, memory.ErrNotFound):
		return "not_found"
	case errors.As(err, &terr):
		return "transport"
	default:
		return "error"
	}
}
