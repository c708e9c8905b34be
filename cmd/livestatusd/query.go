package main

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
)

type queryOptions struct {
	socket  string
	tcp     string
	timeout time.Duration
	pretty  bool
}

func newQueryCommand() *cobra.Command {
	var opts queryOptions
	cmd := &cobra.Command{
		Use:   "query [LINE...]",
		Short: "Send an LQL request and print the response",
		Long: `Send an LQL request to a running server. Each argument is one request
line; without arguments the request is read from stdin.

Example:
  livestatusd query 'GET hosts' 'Columns: name state' 'OutputFormat: json' --pretty`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var lines []string
			if len(args) > 0 {
				lines = args
			} else {
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return err
				}
				lines = strings.Split(strings.TrimRight(string(data), "\n"), "\n")
			}
			return runQuery(cmd.OutOrStdout(), lines, opts)
		},
	}
	cmd.Flags().StringVar(&opts.socket, "socket", "/var/run/livestatusd/live", "Unix socket of the server")
	cmd.Flags().StringVar(&opts.tcp, "tcp", "", "TCP address of the server (takes precedence over --socket)")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 30*time.Second, "Overall request timeout")
	cmd.Flags().BoolVar(&opts.pretty, "pretty", false, "Indent JSON responses")
	return cmd
}

func runQuery(out io.Writer, lines []string, opts queryOptions) error {
	network, addr := "unix", opts.socket
	if opts.tcp != "" {
		network, addr = "tcp", opts.tcp
	}
	conn, err := net.DialTimeout(network, addr, opts.timeout)
	if err != nil {
		return fmt.Errorf("connect %s: %w", addr, err)
	}
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(opts.timeout))

	if _, err := io.WriteString(conn, buildRequest(lines)); err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	if isCommand(lines) {
		return nil
	}

	code, body, err := readResponse(bufio.NewReader(conn))
	if err != nil {
		return err
	}
	if code != 200 {
		return fmt.Errorf("server returned %d: %s", code, strings.TrimSpace(string(body)))
	}
	if opts.pretty {
		body = prettyJSON(body)
	}
	_, err = out.Write(body)
	return err
}

func isCommand(lines []string) bool {
	return len(lines) > 0 && strings.HasPrefix(lines[0], "COMMAND ")
}

// buildRequest terminates the request and asks for a fixed16 header unless
// the caller chose one already.
func buildRequest(lines []string) string {
	var b strings.Builder
	header := false
	for _, line := range lines {
		line = strings.TrimRight(line, "\r")
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "ResponseHeader:") {
			header = true
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	if !header && !isCommand(lines) {
		b.WriteString("ResponseHeader: fixed16\n")
	}
	b.WriteByte('\n')
	return b.String()
}

// readResponse decodes a fixed16 response: a 3 digit status code, a space,
// the body length padded to 11 characters and a newline.
func readResponse(r *bufio.Reader) (int, []byte, error) {
	header := make([]byte, 16)
	if _, err := io.ReadFull(r, header); err != nil {
		return 0, nil, fmt.Errorf("read response header: %w", err)
	}
	if header[3] != ' ' || header[15] != '\n' {
		return 0, nil, fmt.Errorf("malformed response header %q", header)
	}
	code, err := strconv.Atoi(strings.TrimSpace(string(header[:3])))
	if err != nil {
		return 0, nil, fmt.Errorf("malformed status code %q", header[:3])
	}
	length, err := strconv.Atoi(strings.TrimSpace(string(header[4:15])))
	if err != nil || length < 0 {
		return 0, nil, fmt.Errorf("malformed body length %q", header[4:15])
	}
	body := make([]byte, length)
	if _, err := io.ReadFull(r, body); err != nil {
		return 0, nil, fmt.Errorf("read response body: %w", err)
	}
	return code, body, nil
}

// prettyJSON indents body if it is JSON and returns it unchanged otherwise.
func prettyJSON(body []byte) []byte {
	var v any
	if err := json.Unmarshal(body, &v); err != nil {
		return body
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintln(os.Stderr, "pretty print:", err)
		return body
	}
	return buf.Bytes()
}
