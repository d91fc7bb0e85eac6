package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/charmbracelet/lipgloss"

	"pilot/internal/ipc"
)

var (
	okStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("42"))

	errorStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("196"))

	keyStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("243"))

	valueStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("255"))
)

var errRejected = errors.New("daemon rejected the command")

// render prints reply and turns a failed reply into an error so the exit
// status reflects it.
func render(w io.Writer, reply ipc.Reply, raw bool) error {
	if raw {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(reply); err != nil {
			return err
		}
	} else {
		if reply.Message != "" {
			style := okStyle
			if !reply.OK {
				style = errorStyle
			}
			fmt.Fprintln(w, style.Render(reply.Message))
		}
		keys := make([]string, 0, len(reply.Data))
		for k := range reply.Data {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(w, "%s %s\n", keyStyle.Render(k+":"), valueStyle.Render(fmt.Sprint(reply.Data[k])))
		}
	}

	if !reply.OK {
		return errRejected
	}
	return nil
}
