package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/vovakirdan/wireroom-server/internal/proto"
	"github.com/vovakirdan/wireroom-server/internal/store"
)

type frame struct {
	Type  string          `json:"type"`
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
	Error *proto.Error    `json:"error"`
}

func main() {
	if err := run(); err != nil {
		log.Printf("ws_smoke: %v", err)
		os.Exit(1)
	}
}

func run() error {
	base := flag.String("base", "http://localhost:8080", "server base URL")
	user := flag.String("user", "tester", "user id and display name")
	room := flag.String("room", "", "room code (created when empty)")
	text := flag.String("text", "hello from smoke test", "message text to send")
	timeout := flag.Duration("timeout", 5*time.Second, "total timeout for the run")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	code := *room
	if code == "" {
		created, err := createRoom(ctx, *base, *user)
		if err != nil {
			return err
		}
		code = created
		fmt.Printf("Created room %s\n", code)
	}

	wsURL := strings.Replace(*base, "http", "ws", 1) + "/ws"
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	mustSend := func(typ string, v any) error {
		payload, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("marshal %s: %w", typ, err)
		}
		if err := wsjson.Write(ctx, conn, proto.Inbound{Type: typ, Data: payload}); err != nil {
			return fmt.Errorf("send %s: %w", typ, err)
		}
		return nil
	}

	userID, _ := json.Marshal(*user)
	if err := mustSend(proto.InboundJoinRoom, proto.JoinRoomData{RoomID: code, UserID: userID, UserName: *user}); err != nil {
		return err
	}
	if err := mustSend(proto.InboundSendMessage, proto.MessageData{Text: *text}); err != nil {
		return err
	}

	for {
		var out frame
		if err := wsjson.Read(ctx, conn, &out); err != nil {
			return fmt.Errorf("read: %w", err)
		}

		fmt.Printf("Received outbound: type=%s", out.Type)
		if out.Event != "" {
			fmt.Printf(" event=%s", out.Event)
		}
		fmt.Println()

		if out.Error != nil {
			return fmt.Errorf("server error %s: %s", out.Error.Code, out.Error.Msg)
		}

		switch out.Event {
		case proto.EventReceiveMessage:
			var msg store.Message
			if err := json.Unmarshal(out.Data, &msg); err != nil {
				fmt.Printf("Raw data: %s\n", out.Data)
				return fmt.Errorf("unmarshal message: %w", err)
			}
			fmt.Printf("Message: room=%s user=%s text=%q at=%s\n", msg.RoomCode, msg.UserName, msg.Text, msg.CreatedAt.Format(time.RFC3339))
			return nil
		case proto.EventRoomParticipants:
			var participants []store.Participant
			if err := json.Unmarshal(out.Data, &participants); err == nil {
				fmt.Printf("Joined: %d participant(s)\n", len(participants))
			}
		default:
			// keep looping for the echo
		}
	}
}

func createRoom(ctx context.Context, base, user string) (string, error) {
	body, _ := json.Marshal(map[string]string{"creatorId": user})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, base+"/api/rooms", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("create room: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("create room: status %d", resp.StatusCode)
	}
	var created struct {
		RoomID string `json:"roomId"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return "", fmt.Errorf("decode room: %w", err)
	}
	return created.RoomID, nil
}
