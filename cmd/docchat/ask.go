package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bull/docchat/internal/app"
	"github.com/bull/docchat/internal/chat"
)

// sourcePreviewChars bounds each printed source passage.
const sourcePreviewChars = 200

var askCmd = &cobra.Command{
	Use:   "ask <document> <question>",
	Short: "Ask one question about a document",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runAsk,
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	// Environment check
	for _, envVar := range app.MissingCredentials(a.Config) {
		fmt.Fprintf(out, "Warning: %s is not set; requests to the model provider will fail.\n", envVar)
	}

	info, err := a.Ingest(ctx, args[0])
	if err != nil {
		return fmt.Errorf("Ingestion failed: %w", err)
	}
	fmt.Fprintf(out, "Loaded %s: %d pages, %d chunks\n\n", info.FilePath, info.Pages, info.Chunks)

	question := strings.Join(args[1:], " ")
	ans, err := a.Session.Ask(ctx, question)
	if err != nil {
		fmt.Fprintln(out, chat.FailureMessage(err))
		return errors.New("question could not be answered")
	}

	printAnswer(out, ans)
	return nil
}

func printAnswer(out io.Writer, ans *chat.Answer) {
	fmt.Fprintln(out, ans.Text)
	if len(ans.Sources) == 0 {
		return
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Sources:")
	for _, s := range chat.FormatSectionedSources(ans.Sources, ans.Sections, sourcePreviewChars) {
		fmt.Fprintf(out, "  %s\n", s)
	}
}
