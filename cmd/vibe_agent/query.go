package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/vaibhav-asynq/vibe-shopping/internal/types"
)

var (
	queryConfig      string
	queryVerbose     bool
	queryInteractive bool
)

var queryCmd = &cobra.Command{
	Use:   "query <text>",
	Short: "Run a single query through the pipeline",
	Long:  "Run one shopping query through extraction, matching, and ranking without starting the server, printing the turn result as JSON. With --interactive, keep the session open and read follow-up messages from stdin.",
	Args:  cobra.ExactArgs(1),
	RunE:  runQuery,
}

func init() {
	queryCmd.Flags().StringVarP(&queryConfig, "config", "c", "", "Path to JSON config file")
	queryCmd.Flags().BoolVarP(&queryVerbose, "verbose", "v", false, "Enable debug logging")
	queryCmd.Flags().BoolVarP(&queryInteractive, "interactive", "i", false, "Continue the conversation on stdin")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(queryConfig)
	if err != nil {
		return err
	}

	log := newLogger(queryVerbose || cfg.Verbose)
	ctx := context.Background()

	a, err := buildAgent(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("failed to build agent: %w", err)
	}
	defer a.Close()

	state := types.NewConversationState(uuid.New().String(), args[0])
	if err := printTurn(ctx, a, args[0], state); err != nil {
		return err
	}

	if !queryInteractive {
		return nil
	}

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Fprint(os.Stderr, "> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" || input == "quit" || input == "exit" {
			return nil
		}
		if err := printTurn(ctx, a, input, state); err != nil {
			return err
		}
	}
}

func printTurn(ctx context.Context, a *agent, input string, state *types.ConversationState) error {
	turn, turnLog := a.manager.ProcessTurn(ctx, input, state)
	for _, line := range turnLog {
		a.log.Debug().Msg(line)
	}

	out, err := json.MarshalIndent(turn, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal turn: %w", err)
	}
	fmt.Println(string(out))
	return nil
}
