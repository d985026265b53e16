// cmd/gitnote/chat.go
package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/julianshen/gitnote/internal/chat"
)

func chatCmd() *cobra.Command {
	var (
		articleFlag string
		langFlag    string
	)

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Ask questions about a generated article",
		Long: `Start an interactive chat scoped to an article. Answers are limited to the
article's content. Type /exit or press Ctrl-D to leave.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			article, err := os.ReadFile(articleFlag)
			if err != nil {
				return fmt.Errorf("reading article: %w", err)
			}

			a, err := setup()
			if err != nil {
				return err
			}

			lang := langFlag
			if lang == "" {
				lang = a.cfg.Analysis.Language
			}
			sess := a.chatSession(string(article), lang, modelFlag)
			return runChatREPL(cmd.Context(), sess, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&articleFlag, "article", "", "path to the Markdown article")
	cmd.Flags().StringVar(&langFlag, "lang", "", "conversation language code (default from config)")
	_ = cmd.MarkFlagRequired("article")

	return cmd
}

func (a *app) chatSession(article, lang, modelID string) *chat.Session {
	return chat.NewSession(article, a.resolver, a.newProvider,
		chat.WithLanguage(lang),
		chat.WithModel(modelID),
		chat.WithHistoryLimit(a.cfg.Chat.HistoryLimit),
		chat.WithGeneration(a.cfg.Chat.MaxTokens, a.cfg.Chat.Temperature),
		chat.WithLogger(a.logger),
	)
}

// streamPrinter writes the growing tail of the newest AI message as
// snapshots arrive.
type streamPrinter struct {
	mu      sync.Mutex
	out     io.Writer
	id      string
	printed int
}

func (p *streamPrinter) onSnapshot(snap chat.Snapshot) {
	if len(snap.Messages) == 0 {
		return
	}
	last := snap.Messages[len(snap.Messages)-1]
	if last.Sender != chat.SenderAI {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if last.ID != p.id {
		p.id = last.ID
		p.printed = 0
	}
	if len(last.Text) > p.printed {
		fmt.Fprint(p.out, last.Text[p.printed:])
		p.printed = len(last.Text)
	}
}

// runChatREPL reads one question per line from in and streams each answer
// to out until EOF or /exit.
func runChatREPL(ctx context.Context, sess *chat.Session, in io.Reader, out io.Writer) error {
	printer := &streamPrinter{out: out}
	unsubscribe := sess.Subscribe(printer.onSnapshot)
	defer unsubscribe()

	fmt.Fprintln(out, "Ask about the article. Type /exit to quit.")
	sc := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !sc.Scan() {
			fmt.Fprintln(out)
			return sc.Err()
		}
		line := strings.TrimSpace(sc.Text())
		switch line {
		case "":
			continue
		case "/exit", "/quit":
			return nil
		}

		if err := sess.Send(ctx, line); err != nil {
			fmt.Fprintf(out, "\nerror: %v\n", err)
			continue
		}
		fmt.Fprintln(out)
	}
}
