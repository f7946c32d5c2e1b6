package server

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/TrevorS/hclust"
	"github.com/TrevorS/hclust/errors"
	"github.com/TrevorS/hclust/logger"
)

// session serves one connection. Requests are handled one at a time on the
// read goroutine; only the pinger writes concurrently, so writes hold writeMu.
type session struct {
	id     string
	server *Server
	conn   *websocket.Conn
	logger *zap.SugaredLogger

	writeMu sync.Mutex

	// mines limits mine requests; nil means unlimited.
	mines *rate.Limiter

	// last is the most recent mining result, kept for save.
	last *hclust.Dendrogram
}

func newSession(s *Server, conn *websocket.Conn, remote string) *session {
	id := uuid.NewString()
	c := &session{
		id:     id,
		server: s,
		conn:   conn,
		logger: s.logger.With(logger.FieldSession, id, logger.FieldRemote, remote),
	}
	if n := s.cfg.Server.MinesPerMinute; n > 0 {
		c.mines = rate.NewLimiter(rate.Limit(float64(n)/60.0), n)
	}
	return c
}

func (c *session) run(parent context.Context) {
	ctx, cancel := context.WithCancel(logger.WithSession(parent, c.id))
	pinger := make(chan struct{})
	go func() {
		defer close(pinger)
		c.keepAlive(ctx, parent)
	}()
	defer func() {
		cancel()
		<-pinger
		c.conn.Close()
		c.logger.Infow("Session closed")
	}()

	c.logger.Infow("Session opened")

	if err := c.send(Response{Type: TypeHello, Session: c.id}); err != nil {
		return
	}

	wait := c.server.readWait
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(wait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(wait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			c.handleReadError(err)
			return
		}

		var req Request
		if err := json.Unmarshal(raw, &req); err != nil {
			c.logger.Warnw("JSON unmarshal error", logger.FieldError, err)
			c.reply(errors.NewInvalidRequestError("malformed message: %v", err))
			continue
		}

		if done := c.route(ctx, &req); done {
			return
		}
		// Pongs are not read while a request is handled, so a long mine
		// must not count against the peer.
		c.conn.SetReadDeadline(time.Now().Add(wait))
	}
}

// keepAlive pings the peer until ctx ends. When the session ends because
// parent was canceled it tells the peer the server is going away.
func (c *session) keepAlive(ctx, parent context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			if parent.Err() == nil {
				return
			}
			c.logger.Debugw("Closing session for server shutdown")
			c.writeMu.Lock()
			msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down")
			_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
			c.writeMu.Unlock()
			c.conn.Close()
			return
		case <-ticker.C:
			c.writeMu.Lock()
			err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
			c.writeMu.Unlock()
			if err != nil {
				return
			}
		}
	}
}

// handleReadError logs unexpected WebSocket read errors.
// Expected closure codes (going away, abnormal, no status) are silently ignored.
func (c *session) handleReadError(err error) {
	if websocket.IsUnexpectedCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseAbnormalClosure,
		websocket.CloseNoStatusReceived,
	) {
		c.logger.Warnw("WebSocket read error", logger.FieldError, err)
	}
}

// route handles one request and reports whether the session is over.
func (c *session) route(ctx context.Context, req *Request) bool {
	switch req.Type {
	case TypeTables:
		c.handleTables(ctx)
	case TypeMine:
		c.handleMine(ctx, req)
	case TypeSave:
		c.handleSave(ctx, req)
	case TypeFiles:
		c.handleFiles(ctx)
	case TypeLoad:
		c.handleLoad(ctx, req)
	case TypeHome:
		c.last = nil
		c.send(Response{Type: TypeHome})
	case TypeClose:
		c.send(Response{Type: TypeBye})
		c.writeMu.Lock()
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
		c.writeMu.Unlock()
		return true
	default:
		c.reply(errors.NewInvalidRequestError("unknown message type %q", req.Type))
	}
	return false
}

func (c *session) handleTables(ctx context.Context) {
	names, err := c.server.tables.Tables(ctx)
	if err != nil {
		c.reply(err)
		return
	}
	c.send(Response{Type: TypeTables, Tables: names})
}

func (c *session) handleMine(ctx context.Context, req *Request) {
	start := time.Now()
	cfg := c.server.cfg

	if req.Table == "" {
		c.reply(errors.NewInvalidRequestError("mine requires a table"))
		return
	}
	if req.Depth < 1 {
		c.reply(errors.NewInvalidRequestError("depth must be >= 1, got %d", req.Depth))
		return
	}
	if c.mines != nil && !c.mines.Allow() {
		c.reply(errors.Wrapf(errRateLimited, "limit is %d per minute", cfg.Server.MinesPerMinute))
		return
	}
	linkage, err := c.linkage(req)
	if err != nil {
		c.reply(errors.Mark(err, errors.ErrInvalidRequest))
		return
	}

	depth := req.Depth
	if limit := cfg.Mining.MaxDepth; limit > 0 && depth > limit {
		c.logger.Infow("Capping requested depth", logger.FieldDepth, depth, "max_depth", limit)
		depth = limit
	}

	data, err := c.server.tables.Load(ctx, req.Table, cfg.Metric())
	if err != nil {
		c.reply(err)
		return
	}

	mcfg := hclust.DefaultConfig()
	mcfg.Depth = depth
	mcfg.Linkage = linkage
	mcfg.Workers = cfg.Mining.Workers
	mcfg.Logger = c.logger.Named("miner")
	d, err := hclust.Mine(data, mcfg)
	if err != nil {
		c.reply(err)
		return
	}
	c.last = d

	c.logger.Infow("Mined dendrogram",
		logger.FieldTable, req.Table,
		logger.FieldDepth, d.Depth(),
		logger.FieldLinkage, linkage.Name(),
		logger.FieldCount, data.Count(),
		logger.FieldDurationMS, time.Since(start).Milliseconds(),
	)
	c.send(Response{
		Type:       TypeDendrogram,
		Text:       d.String(),
		Examples:   d.Format(data),
		Depth:      d.Depth(),
		Linkage:    d.Linkage(),
		Dendrogram: d,
	})
}

// linkage picks link_mode when set, then the linkage name, then the
// configured default.
func (c *session) linkage(req *Request) (hclust.Linkage, error) {
	switch {
	case req.LinkMode != 0:
		return hclust.LinkageByMode(req.LinkMode)
	case req.Linkage != "":
		return hclust.LinkageByName(req.Linkage)
	default:
		return c.server.cfg.Linkage(), nil
	}
}

func (c *session) handleSave(ctx context.Context, req *Request) {
	if c.last == nil {
		c.reply(errors.NewInvalidRequestError("nothing to save: mine a table first"))
		return
	}
	if err := c.server.store.Save(ctx, req.Name, c.last); err != nil {
		c.reply(err)
		return
	}
	c.send(Response{Type: TypeSaved, Name: req.Name})
}

func (c *session) handleFiles(ctx context.Context) {
	names, err := c.server.store.List(ctx)
	if err != nil {
		c.reply(err)
		return
	}
	if names == nil {
		names = []string{}
	}
	c.send(Response{Type: TypeFiles, Files: names})
}

func (c *session) handleLoad(ctx context.Context, req *Request) {
	d, err := c.server.store.Load(ctx, req.Name)
	if err != nil {
		c.reply(err)
		return
	}
	c.send(Response{
		Type:       TypeDendrogram,
		Name:       req.Name,
		Text:       d.String(),
		Depth:      d.Depth(),
		Linkage:    d.Linkage(),
		Dendrogram: d,
	})
}

// reply sends err to the client, logging anything that is not the client's
// fault.
func (c *session) reply(err error) {
	resp := errorResponse(err)
	if resp.Code == CodeInternal {
		c.logger.Errorw("Request failed", logger.FieldError, err)
	} else {
		c.logger.Debugw("Request rejected", logger.FieldError, err, "code", resp.Code)
	}
	c.send(resp)
}

func (c *session) send(resp Response) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.conn.WriteJSON(resp); err != nil {
		c.logger.Debugw("Write failed", logger.FieldError, err)
		return err
	}
	return nil
}
