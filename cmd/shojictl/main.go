// Package main implements shojictl, the control client for the shoji
// daemon. It sends one command line over the unix socket and prints the
// reply payload.
package main

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"charm.land/lipgloss/v2"
	"charm.land/lipgloss/v2/table"
	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	"github.com/shoji-wm/shoji/internal/config"
	"github.com/shoji-wm/shoji/internal/proto"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
	builtBy = "unknown"
)

var socketPath string

func main() {
	rootCmd := &cobra.Command{
		Use:   "shojictl <command> [args...]",
		Short: "Control client for the shoji window manager",
		Long: `shojictl sends commands to a running shoji daemon.

Any arguments are joined into one command line and written to the control
socket; the reply payload is printed and the exit status reflects the
terminator.`,
		Example: `  # Arm a preselection on the focused leaf
  shojictl preselect vertical 0.3 first

  # Dump the trees
  shojictl query tree

  # Switch desktop by name
  shojictl desktop II`,
		Version: version,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return send(strings.Join(args, " "))
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&socketPath, "socket", "", "Control socket path (defaults to the runtime dir)")

	stateCmd := &cobra.Command{
		Use:   "state",
		Short: "Show desktops and focus in a table",
		RunE: func(cmd *cobra.Command, args []string) error {
			return showState()
		},
	}
	rootCmd.AddCommand(stateCmd)

	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(fmt.Sprintf("%s\nCommit: %s\nBuilt: %s\nBy: %s", version, commit, date, builtBy)),
	); err != nil {
		os.Exit(1)
	}
}

func socket() string {
	if socketPath != "" {
		return socketPath
	}
	return config.DefaultSocketPath()
}

// roundTrip sends one command line and collects the reply payload. A
// terminator of ERR becomes an error carrying the daemon's reason.
func roundTrip(conn net.Conn, reader *bufio.Reader, line string) ([]string, error) {
	if _, err := fmt.Fprintln(conn, line); err != nil {
		return nil, fmt.Errorf("write command: %w", err)
	}

	var payload []string
	for {
		raw, err := reader.ReadString('\n')
		if err != nil {
			return nil, fmt.Errorf("read reply: %w", err)
		}
		raw = strings.TrimRight(raw, "\n")
		if proto.IsTerminator(raw) {
			if strings.HasPrefix(raw, proto.ReplyErr) {
				return payload, fmt.Errorf("%s", strings.TrimPrefix(raw, proto.ReplyErr+" "))
			}
			return payload, nil
		}
		payload = append(payload, raw)
	}
}

func dial() (net.Conn, *bufio.Reader, error) {
	conn, err := net.DialTimeout("unix", socket(), 2*time.Second)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to %s (is shoji running?): %w", socket(), err)
	}
	return conn, bufio.NewReader(conn), nil
}

func send(line string) error {
	conn, reader, err := dial()
	if err != nil {
		return err
	}
	defer conn.Close()

	payload, err := roundTrip(conn, reader, line)
	for _, l := range payload {
		fmt.Println(l)
	}
	return err
}

// showState renders query desktops and query focus as a table.
func showState() error {
	conn, reader, err := dial()
	if err != nil {
		return err
	}
	defer conn.Close()

	desktops, err := roundTrip(conn, reader, "query desktops")
	if err != nil {
		return err
	}
	focus, err := roundTrip(conn, reader, "query focus")
	if err != nil {
		return err
	}

	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	cellStyle := lipgloss.NewStyle().Padding(0, 1)

	var rows [][]string
	for _, line := range desktops {
		// "* 1 I windows=2"
		fields := strings.Fields(line)
		current := ""
		if strings.HasPrefix(line, "*") {
			current = "*"
		} else {
			fields = append([]string{""}, fields...)
		}
		if len(fields) < 4 {
			continue
		}
		rows = append(rows, []string{current, fields[1], fields[2], strings.TrimPrefix(fields[3], "windows=")})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("8"))).
		Headers("", "Desktop", "Name", "Windows").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			return cellStyle
		})

	fmt.Println(t.Render())
	for _, line := range focus {
		fmt.Println(line)
	}
	return nil
}
