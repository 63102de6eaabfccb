package cli

import (
	"bufio"
	"fmt"
	"os"
	"runtime/debug"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/kurator/internal/adapters/driving/tui"
	"github.com/custodia-labs/kurator/internal/core/ports/driving"
)

var chatPlain bool

// isTerminal reports whether stdin is interactive. Swapped in tests.
var isTerminal = func() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Ask questions interactively",
	Long: `Start an interactive question session against the current index store.

On a terminal this opens the full-screen chat. With --plain, or when input
is piped, questions are read one per line and answered in turn.

Controls (full-screen):
  enter   - Ask
  ctrl+s  - Toggle sources for the last answer
  pgup/dn - Scroll the transcript
  ctrl+l  - Clear the transcript
  esc     - Quit`,
	Aliases: []string{"tui"},
	RunE:    runChat,
}

func init() {
	chatCmd.Flags().BoolVar(&chatPlain, "plain", false, "line-based mode without the full-screen UI")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, _ []string) error {
	query, err := openQueryService(commandContext(cmd))
	if err != nil {
		return err
	}

	if chatPlain || !isTerminal() {
		return chatLines(cmd, query)
	}
	return chatTUI(cmd, query)
}

func chatTUI(cmd *cobra.Command, query driving.QueryService) (err error) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
			err = fmt.Errorf("panic in chat: %v", r)
		}
	}()

	app, err := tui.NewApp(&tui.Ports{Query: query})
	if err != nil {
		return fmt.Errorf("failed to create chat: %w", err)
	}
	app.WithContext(commandContext(cmd))

	if err := app.Run(); err != nil {
		return fmt.Errorf("chat error: %w", err)
	}
	return nil
}

// chatLines answers one question per input line until EOF, "exit" or "quit".
func chatLines(cmd *cobra.Command, query driving.AnswerService) error {
	ctx := commandContext(cmd)
	scanner := bufio.NewScanner(cmd.InOrStdin())
	out := cmd.OutOrStdout()

	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(line) {
		case "":
			continue
		case "exit", "quit":
			return nil
		}

		rec, err := query.Answer(ctx, line)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			cmd.PrintErrf("Error: %v\n", err)
			continue
		}
		printAnswer(out, rec)
		fmt.Fprintln(out)
	}
}
