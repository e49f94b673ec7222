// Package chatcmder provides the chat command for interactive conversation
// against a running engram server.
package chatcmder

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/engramlabs/engram/pkg/cliui"
	"github.com/engramlabs/engram/pkg/dotdir"
	"github.com/engramlabs/engram/pkg/logger"
	"github.com/engramlabs/engram/pkg/memory"
	"github.com/engramlabs/engram/pkg/utils"
)

var (
	userPrompt      = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Bold(true).Render("you> ")
	assistantPrompt = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Render("assistant> ")
)

type chatCommander struct {
	apiTarget  string
	userID     string
	sessionID  string
	newSession bool
	plain      bool
	debug      bool

	logger *slog.Logger
}

// chatRequest is the body sent to the server's chat endpoint.
type chatRequest struct {
	UserID    string `json:"user_id"`
	SessionID string `json:"session_id,omitempty"`
	Message   string `json:"message"`
}

const chatLongDesc string = `Start an interactive chat session against a running engram server.

Each message runs a full memory-composition turn on the server: the reply
is generated from the short-term window, long-term summaries, and recalled
episodic facts, and the turn feeds back into all three tiers.

The session identity (user and session) persists in .engram/session.json so
repeated invocations continue the same conversation. Use --new-session to
start a fresh session.

Examples:
  engram chat --user alice
  engram chat --user alice --session project-planning
  engram chat --user alice --new-session`

const chatShortDesc string = "Interactive chat against a running engram server"

func NewChatCmd() *cobra.Command {
	cmder := &chatCommander{}

	cmd := &cobra.Command{
		Use:   "chat",
		Short: chatShortDesc,
		Long:  chatLongDesc,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}

			return cmder.run()
		},
	}

	cmd.Flags().StringVarP(&cmder.apiTarget, "api-target", "a", "http://localhost:8080", "Engram server URL")
	cmd.Flags().StringVarP(&cmder.userID, "user", "u", "", "User identity to chat as (defaults to the saved session)")
	cmd.Flags().StringVar(&cmder.sessionID, "session", "", "Session to continue (defaults to the saved session)")
	cmd.Flags().BoolVar(&cmder.newSession, "new-session", false, "Start a fresh session")
	cmd.Flags().BoolVar(&cmder.plain, "plain", false, "Print replies without markdown rendering")

	return cmd
}

func (c *chatCommander) run() error {
	c.logger = logger.New(logger.WithDebug(c.debug), logger.WithPretty(true))

	ddm := dotdir.NewManager()
	if err := c.resolveSession(ddm); err != nil {
		return err
	}

	fmt.Println()
	fmt.Printf("  %s %s  %s %s\n",
		cliui.KeyStyle.Render("User:"),
		cliui.NameStyle.Render(c.userID),
		cliui.KeyStyle.Render("Session:"),
		cliui.NameStyle.Render(c.sessionID),
	)
	fmt.Printf("  %s\n\n", cliui.DimStyle.Render("Type your message and press Enter. /exit or Ctrl+D to quit."))

	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Print(userPrompt)
		if !scanner.Scan() {
			// EOF or error
			break
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if input == "/exit" {
			break
		}

		var result *memory.TurnResult
		err := cliui.Step(os.Stdout, "composing reply", func() error {
			var sendErr error
			result, sendErr = c.sendTurn(input)
			return sendErr
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "  %v\n", err)
			continue
		}

		c.printReply(result)
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading input: %w", err)
	}

	fmt.Println()
	return nil
}

// resolveSession fills userID and sessionID from flags and the saved
// session state, then persists the resolved identity.
func (c *chatCommander) resolveSession(ddm *dotdir.Manager) error {
	state, err := ddm.LoadSessionState("")
	if err != nil {
		return fmt.Errorf("loading session state: %w", err)
	}

	if c.userID == "" {
		if state != nil {
			c.userID = state.UserID
		} else {
			c.userID = "local"
		}
	}

	switch {
	case c.newSession:
		c.sessionID = uuid.NewString()
	case c.sessionID != "":
		// Explicit session wins.
	case state != nil && state.UserID == c.userID:
		c.sessionID = state.SessionID
	default:
		c.sessionID = memory.DefaultSessionID
	}

	if err := ddm.SaveSession(&dotdir.SessionState{
		UserID:    c.userID,
		SessionID: c.sessionID,
	}, ""); err != nil {
		return fmt.Errorf("saving session state: %w", err)
	}

	return nil
}

// sendTurn posts one message to the server and decodes the turn result.
func (c *chatCommander) sendTurn(message string) (*memory.TurnResult, error) {
	body, err := json.Marshal(chatRequest{
		UserID:    c.userID,
		SessionID: c.sessionID,
		Message:   message,
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	c.logger.Debug("sending chat turn",
		"api_target", c.apiTarget,
		"user_id", c.userID,
		"session_id", c.sessionID,
		"message", utils.Truncate(message, 80),
	)

	url := c.apiTarget + "/api/chat"
	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{
		// LLM responses can be slow
		Timeout: 5 * time.Minute,
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var result memory.TurnResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	return &result, nil
}

func (c *chatCommander) printReply(result *memory.TurnResult) {
	fmt.Print(assistantPrompt)

	if c.plain {
		fmt.Println(result.Reply)
	} else {
		rendered, err := cliui.RenderMarkdown(result.Reply)
		if err != nil {
			fmt.Println(result.Reply)
		} else {
			fmt.Print(rendered)
		}
	}

	fmt.Printf("  %s\n\n", cliui.DimStyle.Render(fmt.Sprintf(
		"(%d recalled facts, window %d)",
		len(result.EpisodicFacts),
		result.ShortTermCount,
	)))
}
