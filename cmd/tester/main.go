package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"pair-chat/domain/chat"

	"github.com/gookit/color"
	"github.com/gorilla/websocket"
	"github.com/mama165/sdk-go/logs"
	"github.com/spf13/pflag"
)

// Exit codes for the client application.
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

type options struct {
	addr      string
	clientID  string
	autoStart bool
	logLevel  string
}

func main() {
	code, err := run(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Tester error: %v\n", err)
	}
	os.Exit(code)
}

// run connects to a pair-chat server and bridges stdin and the socket.
// Lines starting with "/" are commands: /start, /next, /quit. Anything else is chat.
func run(args []string) (int, error) {
	var opts options
	flags := pflag.NewFlagSet("tester", pflag.ContinueOnError)
	flags.StringVarP(&opts.addr, "addr", "a", "localhost:8080", "pair-chat server address")
	flags.StringVarP(&opts.clientID, "id", "i", "", "client id, generated by the server when empty")
	flags.BoolVarP(&opts.autoStart, "start", "s", true, "request a partner right after connecting")
	flags.StringVar(&opts.logLevel, "log-level", "WARN", "log level")
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return exitOK, nil
		}
		return exitConfig, err
	}
	log := logs.GetLoggerFromString(opts.logLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	target := url.URL{Scheme: "ws", Host: opts.addr, Path: "/ws"}
	if opts.clientID != "" {
		target.RawQuery = url.Values{"client_id": {opts.clientID}}.Encode()
	}
	ws, _, err := websocket.DefaultDialer.DialContext(ctx, target.String(), nil)
	if err != nil {
		return exitRuntime, fmt.Errorf("could not connect to %s: %w", target.String(), err)
	}
	defer func() {
		log.Info("Closing connection...")
		_ = ws.Close()
	}()
	color.Info.Printf(">>> Connected to %s (/start, /next, /quit)\n", opts.addr)

	if opts.autoStart {
		if err := write(ws, chat.Start{}); err != nil {
			return exitRuntime, err
		}
	}

	closed := make(chan error, 1)
	go func() { closed <- receive(ws) }()

	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	for {
		select {
		case <-ctx.Done():
			return exitOK, leave(ws)
		case err := <-closed:
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return exitOK, nil
			}
			return exitRuntime, err
		case line, ok := <-lines:
			if !ok {
				return exitOK, leave(ws)
			}
			msg, quit := parse(line)
			if msg == nil {
				continue
			}
			if err := write(ws, msg); err != nil {
				return exitRuntime, err
			}
			if quit {
				// Give the server a moment to acknowledge before the socket closes.
				select {
				case <-closed:
				case <-time.After(time.Second):
				}
				return exitOK, nil
			}
		}
	}
}

// parse maps an input line to a message. quit is true for /quit.
func parse(line string) (msg chat.Inbound, quit bool) {
	switch strings.TrimSpace(line) {
	case "":
		return nil, false
	case "/start":
		return chat.Start{}, false
	case "/next":
		return chat.Next{}, false
	case "/quit":
		return chat.Disconnect{}, true
	default:
		return chat.Chat{Text: line}, false
	}
}

func receive(ws *websocket.Conn) error {
	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			return err
		}
		msg, err := chat.DecodeOutbound(data)
		if err != nil {
			color.Error.Printf("!! %v\n", err)
			continue
		}
		fmt.Println(render(msg))
	}
}

func render(msg chat.Outbound) string {
	switch m := msg.(type) {
	case chat.Matched:
		return color.Success.Render("*** You are now chatting with a stranger")
	case chat.Chat:
		return color.Cyan.Render("stranger: ") + m.Text
	case chat.System:
		return color.Gray.Render("--- " + m.Text)
	case chat.Ended:
		return color.Warn.Render("*** Your partner left, type /start to meet someone else")
	case chat.DisconnectAck:
		return color.Gray.Render("--- disconnected")
	case chat.Counts:
		return color.Gray.Render(fmt.Sprintf("--- %d online, %d idle", m.Online, m.Idle))
	default:
		return fmt.Sprintf("%v", m)
	}
}

func write(ws *websocket.Conn, msg chat.Inbound) error {
	data, err := chat.EncodeInbound(msg)
	if err != nil {
		return err
	}
	return ws.WriteMessage(websocket.TextMessage, data)
}

func leave(ws *websocket.Conn) error {
	if err := write(ws, chat.Disconnect{}); err != nil {
		return err
	}
	return ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}
