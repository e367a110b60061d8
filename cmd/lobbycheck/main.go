package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/park285/chess-hub/pkg/protocol"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

func main() {
	wsURL := os.Getenv("CHESSD_WS_URL")
	if wsURL == "" {
		wsURL = "ws://localhost:8080/ws"
	}
	window := 10 * time.Second
	if v := os.Getenv("WATCH_SEC"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			window = time.Duration(n) * time.Second
		}
	}

	dctx, dcancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer dcancel()
	conn, _, err := websocket.Dial(dctx, wsURL, &websocket.DialOptions{
		CompressionMode: websocket.CompressionNoContextTakeover,
	})
	if err != nil {
		log.Fatalf("dial %s: %v", wsURL, err)
	}
	defer func() { _ = conn.Close(websocket.StatusNormalClosure, "done") }()
	log.Printf("connected to %s", wsURL)

	ctx, cancel := context.WithTimeout(context.Background(), window)
	defer cancel()
	if err := wsjson.Write(ctx, conn, map[string]string{"type": protocol.TypeFetchLobby}); err != nil {
		log.Fatalf("fetchLobby: %v", err)
	}

	// Observe for a short window
	for {
		var frame map[string]any
		if err := wsjson.Read(ctx, conn, &frame); err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Printf("read error: %v", err)
			return
		}
		switch frame["type"] {
		case protocol.TypeLobbyData:
			games, _ := frame["games"].([]any)
			tours, _ := frame["tournaments"].([]any)
			fmt.Printf("lobby games=%d tournaments=%d\n", len(games), len(tours))
			for _, g := range games {
				fmt.Printf("  game %v\n", g)
			}
			for _, t := range tours {
				fmt.Printf("  tournament %v\n", t)
			}
		default:
			fmt.Printf("frame %v\n", frame)
		}
	}
}
