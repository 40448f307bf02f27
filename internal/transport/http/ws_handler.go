package http

import (
	"context"
	"errors"
	"io"
	stdhttp "net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wireroom-server/internal/auth"
	"github.com/vovakirdan/wireroom-server/internal/core"
	"github.com/vovakirdan/wireroom-server/internal/proto"
	"github.com/vovakirdan/wireroom-server/internal/store"
	"github.com/vovakirdan/wireroom-server/internal/utils"
)

// WSOptions configures the event channel endpoint.
type WSOptions struct {
	JWT          *auth.JWTConfig
	AuthRequired bool
	// ReadLimit caps a single inbound message in bytes.
	ReadLimit          int64
	SendBuffer         int
	RateLimitPerMinute int
}

// WSHandler upgrades HTTP connections and bridges them to core.Client.
type WSHandler struct {
	ctrl *core.Controller
	opts WSOptions
	log  *zerolog.Logger
}

// NewWSHandler builds a new WebSocket handler.
func NewWSHandler(ctrl *core.Controller, opts WSOptions, logger *zerolog.Logger) stdhttp.Handler {
	return &WSHandler{ctrl: ctrl, opts: opts, log: logger}
}

func (h *WSHandler) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	ctx := r.Context()

	userID, name, err := h.identify(r)
	if err != nil {
		h.log.Debug().Err(err).Msg("ws handshake rejected")
		stdhttp.Error(w, "unauthorized", stdhttp.StatusUnauthorized)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "internal error")
	if h.opts.ReadLimit > 0 {
		conn.SetReadLimit(h.opts.ReadLimit)
	}

	client := core.NewClient(utils.NewID(), userID, name, h.opts.SendBuffer)
	h.ctrl.Connect(client)
	defer h.ctrl.Disconnect(client)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	limiter := newRateLimiter(h.opts.RateLimitPerMinute)
	limiter.startReset(ctx.Done())

	errCh := make(chan error, 2)
	go func() {
		errCh <- h.readLoop(ctx, conn, client, limiter)
	}()
	go func() {
		errCh <- h.writeLoop(ctx, conn, client)
	}()

	err = <-errCh
	cancel() // stop the other goroutine
	<-errCh

	status := websocket.StatusNormalClosure
	reason := "closing"
	if err != nil && !errors.Is(err, context.Canceled) {
		if errors.Is(err, io.EOF) {
			err = nil
		}
		if s := websocket.CloseStatus(err); s != -1 {
			status = s
		}
		if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
			err = nil
		}
		if err != nil {
			if status == websocket.StatusNormalClosure {
				status = websocket.StatusInternalError
			}
			reason = err.Error()
			h.log.Warn().Err(err).Str("conn_id", client.ID).Msg("ws connection closed with error")
		}
	}

	conn.Close(status, reason)
}

// identify resolves the caller from ?token= or the Authorization header.
// Without a verifier every caller is anonymous.
func (h *WSHandler) identify(r *stdhttp.Request) (store.UserID, string, error) {
	if !h.opts.JWT.Enabled() {
		return "", "", nil
	}
	token := r.URL.Query().Get("token")
	if token == "" {
		token = auth.BearerToken(r.Header.Get("Authorization"))
	}
	claims, err := auth.ValidateToken(h.opts.JWT, token)
	if errors.Is(err, auth.ErrMissingToken) && !h.opts.AuthRequired {
		return "", "", nil
	}
	if err != nil {
		return "", "", err
	}
	return store.UserID(claims.Subject), claims.Name, nil
}

func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn, client *core.Client, limiter *rateLimiter) error {
	for {
		var inbound proto.Inbound
		if err := wsjson.Read(ctx, conn, &inbound); err != nil {
			h.log.Debug().Err(err).Str("conn_id", client.ID).Msg("read ws inbound")
			return err
		}

		if !limiter.allow() {
			h.reject(client, &proto.Error{Code: core.ErrCodeRateLimited, Msg: "too many messages"})
			continue
		}

		cmd, protoErr := inboundToCommand(inbound)
		if protoErr != nil {
			h.log.Debug().Str("conn_id", client.ID).Str("type", inbound.Type).Str("code", protoErr.Code).Msg("failed to map inbound")
			h.reject(client, protoErr)
			continue
		}
		h.ctrl.Handle(ctx, client, cmd)
	}
}

// reject queues a protocol error on the client's own event channel so the
// write loop stays the only writer.
func (h *WSHandler) reject(client *core.Client, perr *proto.Error) {
	h.ctrl.Send(client.ID, &core.Event{
		Kind:  core.EventError,
		Room:  client.Room(),
		Error: &core.CoreError{Code: perr.Code, Message: perr.Msg},
	})
}

func (h *WSHandler) writeLoop(ctx context.Context, conn *websocket.Conn, client *core.Client) error {
	for {
		select {
		case event, ok := <-client.Events:
			if !ok {
				return nil
			}
			if err := wsjson.Write(ctx, conn, outboundFromEvent(event)); err != nil {
				h.log.Error().Err(err).Str("conn_id", client.ID).Msg("write ws event")
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
