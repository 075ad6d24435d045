package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/sitin/internal/assistant"
	"github.com/fyrsmithlabs/sitin/internal/services"
)

var (
	askLocal bool
	askJSON  bool
)

func init() {
	askCmd.Flags().BoolVar(&askLocal, "local", false, "answer in-process instead of calling sitind")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "print the answer with its cards as JSON")
	rootCmd.AddCommand(askCmd)
}

// askCmd asks the course assistant one question
var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask the course assistant",
	Long: `Ask the course assistant which courses fit a question.

Examples:
  # Ask a running sitind
  sitin ask "small evening CS classes on Tuesday"

  # Answer locally from the configured providers
  sitin ask --local "classes after 6pm in CENTR"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	question := strings.Join(args, " ")

	var answerer assistant.Answerer
	if askLocal {
		s, err := openSession(ctx, services.Needs{Assistant: true})
		if err != nil {
			return err
		}
		defer s.Close()
		answerer = s.reg.Assistant()
	} else {
		answerer = assistant.NewClient(serverURL, 90*time.Second)
	}

	answer, err := answerer.Answer(ctx, question)
	if err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), assistant.ErrorReply)
		return err
	}
	return printAnswer(cmd.OutOrStdout(), answer, askJSON)
}

func printAnswer(w io.Writer, answer *assistant.Answer, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(answer)
	}
	_, err := fmt.Fprintln(w, strings.TrimSpace(answer.Text))
	return err
}
