package capture

import (
	"bytes"
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/kbukum/minutes/logger"
	"github.com/kbukum/minutes/voice/bridge"
)

// TestManagerKeepsLeadingMediaFromGateway streams media immediately after
// the speaking signal and expects every byte in the clip.
func TestManagerKeepsLeadingMediaFromGateway(t *testing.T) {
	chunks := [][]byte{
		{1, 2, 3, 4, 5, 6},
		{7, 8, 9, 10, 11, 12},
		{13, 14, 15, 16, 17, 18},
		{19, 20, 21, 22, 23, 24},
	}
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		_ = ws.WriteJSON(map[string]any{"event": "ready", "codec": testFormat.Codec, "sample_rate": testFormat.SampleRate, "channels": testFormat.Channels})
		_ = ws.WriteJSON(map[string]any{"event": "speaking", "speaker_id": "9"})
		for _, c := range chunks {
			_ = ws.WriteJSON(map[string]any{"event": "media", "speaker_id": "9", "payload": base64.StdEncoding.EncodeToString(c)})
		}
		// hold the socket open until the client closes it
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	src := bridge.New(bridge.Config{URL: "ws" + strings.TrimPrefix(srv.URL, "http")}, logger.NewNop())
	conn, err := src.Connect(context.Background(), "page-1")
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}

	outcome := make(chan Outcome, 1)
	mgr := NewManager(conn, Options{
		Dir:        t.TempDir(),
		Silence:    150 * time.Millisecond,
		Transcoder: catTranscoder(),
		OnClosed:   func(_ context.Context, out Outcome) { outcome <- out },
	})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go mgr.Listen(ctx)

	var out Outcome
	select {
	case out = <-outcome:
	case <-time.After(waitTimeout):
		t.Fatal("timed out waiting for capture to close")
	}
	_ = conn.Close()
	mgr.Wait()

	if err := out.Err(); err != nil {
		t.Fatalf("unexpected pipeline errors: %v", err)
	}
	want := bytes.Join(chunks, nil)
	got, err := os.ReadFile(out.ClipPath)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Errorf("clip has %d bytes, want %d", len(got), len(want))
	}
}
