package e2e

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"testing"
	"time"

	"pair-chat/domain/chat"

	"github.com/gookit/color"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/suite"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

type BaseSuite struct {
	suite.Suite
	Config Config
}

// SetupSuite loads the environment configuration before running tests
func (s *BaseSuite) SetupSuite() {
	var err error
	s.Config, err = LoadConfig()
	s.Require().NoError(err)
	if s.Config.ChatAddr == "" {
		s.T().Skip("E2E_CHAT_ADDR is not set")
	}
}

// Step prints a colorized header for a test step
func (s *BaseSuite) Step(t *testing.T, name string) {
	header := fmt.Sprintf("  ====== %s ======", name)
	if s.Config.Colours {
		header = color.New(color.BgBlack, color.FgGreen).Render(header)
	}
	t.Log(header)
}

// Client is one websocket participant.
type Client struct {
	s  *BaseSuite
	ID string
	ws *websocket.Conn
}

// Dial opens a chat connection and consumes the initial presence snapshot.
func (s *BaseSuite) Dial(clientID string) *Client {
	target := url.URL{Scheme: "ws", Host: s.Config.ChatAddr, Path: "/ws", RawQuery: url.Values{"client_id": {clientID}}.Encode()}
	ws, _, err := websocket.DefaultDialer.Dial(target.String(), nil)
	s.Require().NoError(err, "Failed to connect to pair-chat at "+target.String())
	c := &Client{s: s, ID: clientID, ws: ws}
	s.T().Cleanup(func() { _ = ws.Close() })
	s.Require().IsType(chat.Counts{}, c.read())
	return c
}

func (c *Client) Send(msg chat.Inbound) {
	data, err := chat.EncodeInbound(msg)
	c.s.Require().NoError(err)
	c.s.Require().NoError(c.ws.WriteMessage(websocket.TextMessage, data))
}

// Next returns the next message that is not a presence broadcast.
func (c *Client) Next() chat.Outbound {
	for {
		msg := c.read()
		if _, ok := msg.(chat.Counts); !ok {
			return msg
		}
	}
}

// Closed reports whether the server dropped the socket within a few seconds.
func (c *Client) Closed() bool {
	_ = c.ws.SetReadDeadline(time.Now().Add(5 * time.Second))
	for {
		if _, _, err := c.ws.ReadMessage(); err != nil {
			var netErr net.Error
			return !errors.As(err, &netErr) || !netErr.Timeout()
		}
	}
}

func (c *Client) read() chat.Outbound {
	c.s.Require().NoError(c.ws.SetReadDeadline(time.Now().Add(5 * time.Second)))
	_, data, err := c.ws.ReadMessage()
	c.s.Require().NoError(err, c.ID+" read failed")
	if c.s.Config.DebugJSON {
		c.s.T().Logf("%s <- %s", c.ID, data)
	}
	msg, err := chat.DecodeOutbound(data)
	c.s.Require().NoError(err)
	return msg
}

// WithHealth provides a gRPC connection to the health service within a contextual test step
func (s *BaseSuite) WithHealth(name string, fn func(ctx context.Context, conn *grpc.ClientConn)) {
	if s.Config.HealthAddr == "" {
		s.T().Skip("E2E_HEALTH_ADDR is not set")
	}
	s.Step(s.T(), name)
	conn, err := grpc.NewClient(s.Config.HealthAddr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	s.Require().NoError(err, "Failed to connect to gRPC server at "+s.Config.HealthAddr)
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	fn(ctx, conn)
}
