package main

import (
	"context"
	goerrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/gookit/color"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"

	pb "group-chat/proto/chat"
)

// Exit codes for the client application.
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

type Config struct {
	ServerAddress string        `env:"CHAT_SERVER_ADDR,default=localhost:50051"`
	Token         string        `env:"CHAT_TOKEN,required=true"`
	LogLevel      string        `env:"LOG_LEVEL,default=INFO"`
	CallTimeout   time.Duration `env:"CHAT_CALL_TIMEOUT,default=10s"`
}

const usage = `usage: client <command> <group> [args]
  send      <group> <text...>
  list      <group> [cursor]
  subscribe <group> [since]
  delivered <group> <message-id...>
  read      <group> <message-id...>
  unread    <group>
  search    <group> <query...>`

func main() {
	code, err := run(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Client error: %v\n", err)
	}
	os.Exit(code)
}

func run(args []string) (int, error) {
	if len(args) < 2 {
		return exitConfig, goerrors.New(usage)
	}

	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+config.Token)

	conn, err := grpc.NewClient(config.ServerAddress, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return exitRuntime, fmt.Errorf("could not connect to server at %s: %w", config.ServerAddress, err)
	}
	defer func() {
		log.Debug("Closing connection...")
		_ = conn.Close()
	}()

	c := commands{log: log, client: pb.NewChatServiceClient(conn), timeout: config.CallTimeout}
	command, group, rest := args[0], args[1], args[2:]

	switch command {
	case "send":
		err = c.send(ctx, group, strings.Join(rest, " "))
	case "list":
		err = c.list(ctx, group, optional(rest))
	case "subscribe":
		err = c.subscribe(ctx, group, optional(rest))
	case "delivered":
		err = c.mark(ctx, group, rest, false)
	case "read":
		err = c.mark(ctx, group, rest, true)
	case "unread":
		err = c.unread(ctx, group)
	case "search":
		err = c.search(ctx, group, strings.Join(rest, " "))
	default:
		return exitConfig, fmt.Errorf("unknown command %q\n%s", command, usage)
	}
	if err != nil {
		return exitRuntime, err
	}
	return exitOK, nil
}

type commands struct {
	log     *slog.Logger
	client  pb.ChatServiceClient
	timeout time.Duration
}

func (c commands) send(ctx context.Context, group, text string) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	now := time.Now()
	resp, err := c.client.SendMessage(ctx, &pb.SendMessageRequest{
		Group:        group,
		Body:         pb.Body{Text: text},
		ClientSentAt: &now,
	})
	if err != nil {
		return err
	}
	color.Green.Printf("sent %s (cursor %s)\n", resp.Message.ID, resp.Message.Cursor)
	return nil
}

func (c commands) list(ctx context.Context, group string, cursor *string) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	resp, err := c.client.ListMessages(ctx, &pb.ListMessagesRequest{
		Group:     group,
		Cursor:    cursor,
		Direction: pb.DirectionNewest,
	})
	if err != nil {
		return err
	}
	for i := len(resp.Messages) - 1; i >= 0; i-- {
		printMessage(resp.Messages[i])
	}
	if resp.Next != nil {
		color.Gray.Printf("older messages: list %s %s\n", group, *resp.Next)
	}
	return nil
}

// subscribe prints the live stream until the user interrupts it.
func (c commands) subscribe(ctx context.Context, group string, since *string) error {
	stream, err := c.client.Subscribe(ctx, &pb.SubscribeRequest{Group: group, Since: since})
	if err != nil {
		return err
	}
	color.Cyan.Printf(">>> Listening to %s (Ctrl+C to quit)...\n", group)
	for {
		e, err := stream.Recv()
		switch {
		case err == nil:
		case goerrors.Is(err, io.EOF), ctx.Err() != nil:
			return nil
		default:
			return fmt.Errorf("stream error: %w", err)
		}
		if e.Kind == "updated" {
			color.Gray.Printf("  %s delivered=%v read=%v\n", e.Message.ID, e.Message.DeliveredTo, e.Message.ReadBy)
			continue
		}
		printMessage(e.Message)
	}
}

func (c commands) mark(ctx context.Context, group string, ids []string, read bool) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	req := &pb.MarkRequest{Group: group, MessageIDs: ids}
	var (
		resp *pb.MarkResponse
		err  error
	)
	if read {
		resp, err = c.client.MarkRead(ctx, req)
	} else {
		resp, err = c.client.MarkDelivered(ctx, req)
	}
	if err != nil {
		return err
	}
	color.Green.Printf("%d receipt(s) recorded %v\n", len(resp.Changed), resp.Changed)
	return nil
}

func (c commands) unread(ctx context.Context, group string) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	resp, err := c.client.UnreadCount(ctx, &pb.UnreadCountRequest{Group: group})
	if err != nil {
		return err
	}
	color.Yellow.Printf("%d unread in %s\n", resp.Count, group)
	return nil
}

func (c commands) search(ctx context.Context, group, query string) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	resp, err := c.client.SearchMessages(ctx, &pb.SearchMessagesRequest{Group: group, Query: query})
	if err != nil {
		return err
	}
	for _, m := range resp.Messages {
		printMessage(m)
	}
	return nil
}

func printMessage(m pb.Message) {
	color.Gray.Printf("[%s] ", m.CreatedAt.Local().Format(time.TimeOnly))
	color.Bold.Printf("%s", m.SenderID)
	fmt.Printf(": %s", describe(m.Body))
	color.Gray.Printf("  #%s\n", m.ID)
}

func describe(b pb.Body) string {
	parts := make([]string, 0, 3)
	if b.Text != "" {
		parts = append(parts, b.Text)
	}
	if b.Media != nil {
		parts = append(parts, fmt.Sprintf("<%s %s>", b.Media.Kind, b.Media.URL))
	}
	if b.Expense != nil {
		parts = append(parts, fmt.Sprintf("<expense %q %.2f / %d>", b.Expense.Title, b.Expense.Amount, b.Expense.ParticipantCount))
	}
	return strings.Join(parts, " ")
}

func optional(args []string) *string {
	if len(args) == 0 {
		return nil
	}
	return &args[0]
}
