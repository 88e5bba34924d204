package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bull/docchat/internal/chat"
	"github.com/bull/docchat/internal/session"
)

var showSources bool

var chatCmd = &cobra.Command{
	Use:   "chat <document>",
	Short: "Chat interactively about a document",
	Long: `Loads a document and answers questions until /quit.

Commands:
  /history  show the conversation so far
  /clear    forget the conversation, keep the document
  /quit     exit`,
	Args: cobra.ExactArgs(1),
	RunE: runChat,
}

func init() {
	chatCmd.Flags().BoolVar(&showSources, "sources", false, "print the source passages after each answer")
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	fmt.Fprintf(out, "Processing %s...\n", args[0])
	info, err := a.Ingest(ctx, args[0])
	if err != nil {
		return fmt.Errorf("Ingestion failed: %w", err)
	}
	fmt.Fprintf(out, "Document processed: %d pages split into %d chunks. Ask me anything about it!\n",
		info.Pages, info.Chunks)
	fmt.Fprintln(out, "Type /history, /clear or /quit.")

	return chatLoop(ctx, cmd.InOrStdin(), out, a.Session, showSources)
}

// chatLoop reads questions line by line until /quit, EOF or cancellation.
func chatLoop(ctx context.Context, in io.Reader, out io.Writer, sess *session.Session, sources bool) error {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "\n> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		if ctx.Err() != nil {
			return nil
		}

		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "/quit", "/exit":
			return nil
		case "/clear":
			sess.ClearHistory()
			fmt.Fprintln(out, "Conversation cleared.")
			continue
		case "/history":
			history := sess.History()
			if len(history) == 0 {
				fmt.Fprintln(out, "No conversation yet.")
			}
			for _, turn := range history {
				fmt.Fprintln(out, turn.String())
			}
			continue
		}

		ans, err := sess.Ask(ctx, line)
		if err != nil {
			fmt.Fprintln(out, chat.FailureMessage(err))
			continue
		}
		if sources {
			printAnswer(out, ans)
		} else {
			fmt.Fprintln(out, ans.Text)
		}
	}
}
