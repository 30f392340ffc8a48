package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/AE-MS/AE-SearchME/internal/api"
	"github.com/AE-MS/AE-SearchME/internal/config"
	"github.com/AE-MS/AE-SearchME/internal/dialog"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func localComponents() (*components, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load configuration %s: %w", configPath, err)
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(zerolog.WarnLevel).
		With().Timestamp().Logger()
	return buildComponents(cfg, nil, logger)
}

func runSearch(cmd *cobra.Command, args []string) error {
	c, err := localComponents()
	if err != nil {
		return err
	}

	result, err := c.search.Search(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	resp := api.NewSearchResponse(args[0], result)
	out := cmd.OutOrStdout()
	if output == "table" {
		printSearchTable(out, resp)
		return nil
	}
	return printOutput(out, resp)
}

func runDialog(cmd *cobra.Command, args []string) error {
	phase, _ := cmd.Flags().GetString("phase")
	if phase != string(dialog.PhaseFetch) && phase != string(dialog.PhaseSubmit) {
		return fmt.Errorf("invalid phase %q (want fetch or submit)", phase)
	}

	c, err := localComponents()
	if err != nil {
		return err
	}

	desc := c.dispatcher.Dispatch(cmd.Context(), parsePayload(args[0]), dialog.Phase(phase))

	resp, err := api.NewDialogResponse(desc)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if output == "table" {
		printDialogTable(out, resp)
		return nil
	}
	return printOutput(out, resp)
}

// parsePayload reads arg as JSON when it is valid JSON and as a bare string
// otherwise, so both `1` and `requestUrl` work.
func parsePayload(arg string) interface{} {
	var v interface{}
	if err := json.Unmarshal([]byte(arg), &v); err == nil {
		return v
	}
	return arg
}

func printOutput(w io.Writer, data interface{}) error {
	switch output {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(data)
	case "yaml":
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return enc.Encode(data)
	default:
		return fmt.Errorf("unknown output format %q", output)
	}
}

func printSearchTable(out io.Writer, resp *api.SearchResponse) {
	if resp.Prompt != nil {
		fmt.Fprintf(out, "%s prompt: %s\n", resp.Prompt.Kind, firstNonEmpty(resp.Prompt.URL, resp.Prompt.Text))
		return
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TITLE\tDESCRIPTION\tACTIONS")
	for _, card := range resp.Cards {
		triggers := make([]string, 0, len(card.Actions))
		for _, a := range card.Actions {
			triggers = append(triggers, a.Trigger)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", card.Title, truncate(card.Subtitle, 60), strings.Join(triggers, ","))
	}
	w.Flush()
}

func printDialogTable(out io.Writer, resp *api.DialogResponse) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Kind:\t%s\n", resp.Kind)
	if resp.Title != "" {
		fmt.Fprintf(w, "Title:\t%s\n", resp.Title)
	}
	if resp.URL != "" {
		fmt.Fprintf(w, "URL:\t%s\n", resp.URL)
	}
	if resp.FallbackURL != "" {
		fmt.Fprintf(w, "Fallback URL:\t%s\n", resp.FallbackURL)
	}
	if resp.Width > 0 {
		fmt.Fprintf(w, "Size:\t%dx%d\n", resp.Width, resp.Height)
	}
	if resp.Card != nil {
		fmt.Fprintf(w, "Card:\t%s %q (%d actions)\n", resp.Card.Type, resp.Card.Heading(), len(resp.Card.Actions))
	}
	if resp.Text != "" {
		fmt.Fprintf(w, "Text:\t%s\n", resp.Text)
	}
	w.Flush()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-3]) + "..."
}
