package handler

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"repo2pipe/internal/analyzer"
)

const (
	streamWriteWait = 10 * time.Second
	streamPongWait  = 60 * time.Second
	streamPingEvery = (streamPongWait * 9) / 10
)

var streamUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		return true
	},
}

type streamMessage struct {
	Type     string             `json:"type"`
	Message  string             `json:"message,omitempty"`
	Response *analyzer.Response `json:"response,omitempty"`
}

// handleStream runs an analysis and streams its journal over a WebSocket,
// finishing with a "result" (or "error") message.
func (s *Service) handleStream(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req, err := analyzeBody{
		Repository: q.Get("repository"),
		Branch:     q.Get("branch"),
		Type:       q.Get("type"),
	}.request()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	conn, err := streamUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	if err := conn.SetReadDeadline(time.Now().Add(streamPongWait)); err != nil {
		log.Printf("gateway: stream set read deadline: %v", err)
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(streamPongWait))
	})
	// Client frames are ignored; reading keeps pong handling alive and
	// notices a closed connection.
	go func() {
		for {
			if _, _, err := conn.NextReader(); err != nil {
				cancel()
				return
			}
		}
	}()

	writeCh := make(chan streamMessage, 64)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		ticker := time.NewTicker(streamPingEvery)
		defer ticker.Stop()
		for {
			select {
			case out, ok := <-writeCh:
				if !ok {
					return
				}
				if err := conn.SetWriteDeadline(time.Now().Add(streamWriteWait)); err != nil {
					cancel()
					return
				}
				if err := conn.WriteJSON(out); err != nil {
					cancel()
					return
				}
			case <-ticker.C:
				if err := conn.SetWriteDeadline(time.Now().Add(streamWriteWait)); err != nil {
					cancel()
					return
				}
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					cancel()
					return
				}
			}
		}
	}()

	obs := analyzer.ObserverFunc(func(e analyzer.Event) {
		pushStream(ctx, writeCh, streamMessage{Type: e.Type.String(), Message: e.Message})
	})
	resp, err := s.run(ctx, req, obs)
	if err != nil {
		pushStream(ctx, writeCh, streamMessage{Type: "error", Message: err.Error()})
	} else {
		pushStream(ctx, writeCh, streamMessage{Type: "result", Response: resp})
	}
	close(writeCh)
	<-writerDone

	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(streamWriteWait))
}

func pushStream(ctx context.Context, writeCh chan<- streamMessage, out streamMessage) {
	select {
	case writeCh <- out:
	case <-ctx.Done():
	}
}
