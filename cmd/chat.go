package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/gookit/color"
	"github.com/samber/lo"
	"github.com/urfave/cli/v2"

	"github.com/retrueque/internal/chat"
	"github.com/retrueque/internal/client"
	"github.com/retrueque/internal/config"
	"github.com/retrueque/internal/poller"
)

// ChatCommand returns the CLI command for the terminal chat client
func ChatCommand() *cli.Command {
	return &cli.Command{
		Name:  "chat",
		Usage: "Open a terminal chat client against a running server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "server",
				Usage: "Base URL of the Retrueque server",
				Value: "http://localhost:3000",
			},
			&cli.StringFlag{
				Name:     "email",
				Usage:    "Account email",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "password",
				Usage:    "Account password",
				Required: true,
			},
		},
		Action: runChat,
	}
}

func runChat(c *cli.Context) error {
	cfg, err := config.LoadConfig(c.String("config"))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	api := client.NewClient(c.String("server"))

	user, err := api.Login(c.Context, c.String("email"), c.String("password"))
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}
	color.Green.Printf("Hola, %s (user %d)\n", user.Name, user.ID)

	view := &terminalView{selfID: user.ID}
	session := poller.NewSession(user.ID, api, view, cfg.Chat.PollInterval)
	defer session.Close()

	session.RefreshChats(c.Context)
	fmt.Println("Commands: /chats, /open <id>, /close, /quit. Anything else sends a message.")

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
			continue
		case line == "/quit":
			return nil
		case line == "/chats":
			session.RefreshChats(c.Context)
		case line == "/close":
			session.Close()
			fmt.Println("Chat closed.")
		case strings.HasPrefix(line, "/open "):
			id, err := strconv.ParseInt(strings.TrimSpace(strings.TrimPrefix(line, "/open ")), 10, 64)
			if err != nil {
				color.Red.Println("Usage: /open <chat id>")
				continue
			}
			session.Open(id)
		default:
			if err := session.Send(c.Context, line); err != nil {
				continue
			}
		}
	}
	return scanner.Err()
}

// terminalView renders chat state to stdout
type terminalView struct {
	selfID int64
}

func (v *terminalView) ShowMessages(chatID int64, messages []chat.Message) {
	fmt.Printf("--- chat %d ---\n", chatID)
	for _, msg := range messages {
		line := fmt.Sprintf("[%s] %s", msg.CreatedAt.Format("15:04"), renderContent(msg.Content))
		if msg.Sender != nil {
			line = fmt.Sprintf("[%s] %s: %s", msg.CreatedAt.Format("15:04"), msg.Sender.Name, renderContent(msg.Content))
		}
		if msg.SenderID == v.selfID {
			color.Cyan.Println(line)
		} else {
			color.White.Println(line)
		}
	}
}

func (v *terminalView) ShowChats(chats []chat.ChatSummary) {
	if len(chats) == 0 {
		fmt.Println("No tienes mensajes aún.")
		return
	}
	lines := lo.Map(chats, func(s chat.ChatSummary, _ int) string {
		last := "Inicio del chat"
		if s.LastMessage != nil {
			last = s.LastMessage.Content
		}
		subject := "Chat General"
		if s.Item != nil {
			subject = s.Item.Title
		}
		return fmt.Sprintf("#%d %s — %s — %s", s.ID, s.OtherUser.Name, subject, last)
	})
	fmt.Println(strings.Join(lines, "\n"))
}

func (v *terminalView) ClearInput() {
	// Stdin is line buffered; nothing to clear.
}

func (v *terminalView) Notify(err error) {
	color.Red.Printf("Error: %v\n", err)
}

// renderContent tags non-text content the way the web client renders it
// inline.
func renderContent(content string) string {
	switch chat.ClassifyContent(content) {
	case chat.ContentImage:
		return fmt.Sprintf("[imagen] %s", content)
	case chat.ContentLink:
		return fmt.Sprintf("[enlace] %s", content)
	default:
		return content
	}
}
