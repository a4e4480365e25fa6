package commands

import (
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"tableflip.dev/daily/pkg/journal"
	"tableflip.dev/daily/pkg/runner/mcp"
)

// mcpOptions are the flags of `daily mcp`.
type mcpOptions struct {
	Transport string
	Host      string
	Port      int
	Path      string
	TLSCert   string
	TLSKey    string
}

func addMCP(topLevel *cobra.Command) {
	mo := &mcpOptions{}

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Let AI agents browse and capture memories over MCP.",
		Long: `Serves the journal to AI agents through the Model Context Protocol.

Agents can read the memories, the timeline and the calendar, and can capture
or remove memories. Use --transport stdio when the agent launches daily
itself.`,
		Example: `
daily mcp --transport stdio
daily mcp --http-port 0
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			s, err := openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			r, err := mo.runner(s.Journal, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			return r.Do(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&mo.Transport, "transport", string(mcp.TransportHTTP), "How agents reach the journal: http, or stdio when launched by the agent.")
	cmd.Flags().StringVar(&mo.Host, "http-host", "127.0.0.1", "Interface to listen on. Keep the loopback default unless agents run elsewhere.")
	cmd.Flags().IntVar(&mo.Port, "http-port", 8080, "Port to listen on, 0 picks a free one.")
	cmd.Flags().StringVar(&mo.Path, "http-path", "/mcp", "URL path agents post MCP messages to.")
	cmd.Flags().StringVar(&mo.TLSCert, "http-tls-cert", "", "Certificate file; with --http-tls-key serves https.")
	cmd.Flags().StringVar(&mo.TLSKey, "http-tls-key", "", "Private key file for --http-tls-cert.")

	topLevel.AddCommand(cmd)
}

// runner turns the flags into a configured server. The listening address is
// announced on out once the HTTP listener is bound.
func (o *mcpOptions) runner(j *journal.Service, out io.Writer) (mcp.Runner, error) {
	r := mcp.Runner{
		Journal:          j,
		Name:             "daily",
		Version:          version,
		HTTPEndpointPath: endpointPath(o.Path),
		HTTPServerCert:   strings.TrimSpace(o.TLSCert),
		HTTPServerKey:    strings.TrimSpace(o.TLSKey),
	}

	switch mcp.Transport(strings.ToLower(strings.TrimSpace(o.Transport))) {
	case "", mcp.TransportHTTP:
		if o.Port < 0 || o.Port > 65535 {
			return r, fmt.Errorf("invalid http-port %d", o.Port)
		}
		host := strings.TrimSpace(o.Host)
		if host == "" {
			host = "127.0.0.1"
		}
		secure := r.HTTPServerCert != "" && r.HTTPServerKey != ""
		r.Transport = mcp.TransportHTTP
		r.HTTPListenAddr = net.JoinHostPort(host, strconv.Itoa(o.Port))
		r.OnHTTPListening = func(a net.Addr) {
			_, _ = fmt.Fprintf(out, "Serving memories over MCP at %s\n", listenURL(a, host, r.HTTPEndpointPath, secure))
		}
	case mcp.TransportStdio:
		r.Transport = mcp.TransportStdio
	default:
		return r, fmt.Errorf("unsupported transport %q (expected http or stdio)", o.Transport)
	}
	return r, nil
}

func endpointPath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "/mcp"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return p
}

// listenURL is the address agents should use. A wildcard host is replaced by
// the bound IP, or loopback when that is unspecified too.
func listenURL(a net.Addr, host, path string, secure bool) string {
	scheme := "http"
	if secure {
		scheme = "https"
	}
	tcp, ok := a.(*net.TCPAddr)
	if !ok {
		return scheme + "://" + a.String() + path
	}
	switch host {
	case "", "0.0.0.0", "::":
		host = "127.0.0.1"
		if tcp.IP != nil && !tcp.IP.IsUnspecified() {
			host = tcp.IP.String()
		}
	}
	return fmt.Sprintf("%s://%s%s", scheme, net.JoinHostPort(host, strconv.Itoa(tcp.Port)), path)
}
