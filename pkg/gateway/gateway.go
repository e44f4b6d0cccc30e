// Package gateway implements the Fan-out Gateway (C7): a websocket server
// holding per-connection subscription state and room membership, replaying
// a snapshot on first subscribe and broadcasting new-pair/swap/batch events
// to room subscribers.
package gateway

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/solana-zh/pulsefeed/pkg/filter"
	"github.com/solana-zh/pulsefeed/pkg/model"
	"github.com/solana-zh/pulsefeed/pkg/store"
)

// Room names (spec.md §4.7/§8 scenario, matching the join-room/broadcast
// naming the distilled spec and original_source's Room enum both use).
const (
	RoomNewPair       = "new-pair"
	RoomUpdatePulse   = "update-pulse"
	RoomUpdatePulseV2 = "update_pulse_v2"
)

func swapRoom(poolAddress string) string { return "s:" + poolAddress }

// PulseStore is the subset of store.Client the gateway needs to compute a
// subscribe-snapshot.
type PulseStore interface {
	Pulse(ctx context.Context, q store.PulseQuery) ([]model.PulseDataResponse, error)
}

// frame is the generic outbound envelope. Every server→client event on this
// package's wire format is {channel, data} — the table in spec.md §6 shows
// this explicitly for "error" and "update_pulse_v2"; this package applies
// the same envelope uniformly so a plain websocket connection (no
// socket.io-style event multiplexing) can still distinguish event types.
type frame struct {
	Channel string `json:"channel"`
	Data    any    `json:"data"`
}

type pongBody struct {
	OK bool `json:"ok"`
}

type subscriptionDescriptor struct {
	Type string `json:"type"`
}

type subscriptionResponseBody struct {
	Method       string                  `json:"method"`
	Subscription subscriptionDescriptor `json:"subscription"`
}

type updatePulseBody struct {
	IsSnapshot bool                       `json:"isSnapshot"`
	Content    []model.PulseDataResponse `json:"content"`
}

// inboundEnvelope is the client→server message shape. "join" carries a room
// name, or one of the tags "NewPair"/"UpdatePulse", which resolve to
// RoomNewPair/RoomUpdatePulse; "message" carries a method (ping/subscribe)
// plus its payload.
type inboundEnvelope struct {
	Method       string                   `json:"method"`
	Room         string                   `json:"room"`
	Subscription *subscriptionDescriptor `json:"subscription"`
}

// Gateway owns the room registry and serves websocket upgrades.
type Gateway struct {
	pulse    PulseStore
	upgrader websocket.Upgrader
	log      *logrus.Entry

	mu    sync.RWMutex
	rooms map[string]map[*conn]struct{}
}

// New builds a Gateway. pulse supplies the snapshot query on first
// subscribe (spec.md §4.7 step 3).
func New(pulse PulseStore, log *logrus.Logger) *Gateway {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Gateway{
		pulse: pulse,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		log:   log.WithField("component", "gateway"),
		rooms: make(map[string]map[*conn]struct{}),
	}
}

// ServeHTTP upgrades the request to a websocket connection and runs its
// read loop until the connection closes.
func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.log.WithError(err).Warn("gateway: upgrade failed")
		return
	}
	c := &conn{
		id:            uuid.NewString(),
		ws:            ws,
		gw:            g,
		subscriptions: make(map[string]bool),
		joinedRooms:   make(map[string]bool),
	}
	c.readLoop(r.Context())
}

func (g *Gateway) join(c *conn, room string) {
	g.mu.Lock()
	set, ok := g.rooms[room]
	if !ok {
		set = make(map[*conn]struct{})
		g.rooms[room] = set
	}
	set[c] = struct{}{}
	g.mu.Unlock()
	c.joinedRooms[room] = true
}

func (g *Gateway) leaveAll(c *conn) {
	g.mu.Lock()
	for room := range c.joinedRooms {
		if set, ok := g.rooms[room]; ok {
			delete(set, c)
			if len(set) == 0 {
				delete(g.rooms, room)
			}
		}
	}
	g.mu.Unlock()
}

// broadcast sends channel/data to every connection currently in room.
// Per-connection send failures are logged and otherwise ignored — a slow
// or dead connection never blocks or fails the broadcast for anyone else
// (spec.md §5 cancellation semantics: a dropped connection only discards
// its own in-flight emits).
func (g *Gateway) broadcast(room, channel string, data any) {
	g.mu.RLock()
	set := g.rooms[room]
	targets := make([]*conn, 0, len(set))
	for c := range set {
		targets = append(targets, c)
	}
	g.mu.RUnlock()

	for _, c := range targets {
		if err := c.send(channel, data); err != nil {
			g.log.WithError(err).WithField("conn_id", c.id).Debug("gateway: send failed, dropping")
		}
	}
}

// EmitNewPair implements ingest.Broadcaster: one enriched new-pool record
// broadcast to room "new-pair" (spec.md §4.4 step 4, §8 scenario S1).
func (g *Gateway) EmitNewPair(resp model.PulseDataResponse) {
	g.broadcast(RoomNewPair, "new-pair", resp)
}

// EmitSwap implements ingest.Broadcaster: the raw swap broadcast to its
// per-pool room (spec.md §4.4 step 5).
func (g *Gateway) EmitSwap(poolAddress string, swap model.SwapWire) {
	channel := swapRoom(poolAddress)
	g.broadcast(channel, channel, swap)
}

// EmitUpdatePulseBatch implements batch.Sink: one batched update broadcast
// to room "update_pulse_v2" (spec.md §4.6).
func (g *Gateway) EmitUpdatePulseBatch(content []model.PulseDataResponse) {
	g.broadcast(RoomUpdatePulseV2, "update_pulse_v2", updatePulseBody{IsSnapshot: false, Content: content})
}

// conn is one client connection's state. Per spec.md §5, subscriptions and
// joinedRooms are mutated only by this connection's own goroutine; the
// shared room registry (gw.rooms) is mutated under gw.mu from any
// goroutine that calls join/leaveAll for this conn, which is always this
// conn's own goroutine in practice (joins happen in readLoop; leaveAll
// happens once, on readLoop exit).
type conn struct {
	id  string
	ws  *websocket.Conn
	gw  *Gateway
	wmu sync.Mutex // serializes writes; gorilla requires one writer at a time

	subscriptions map[string]bool
	joinedRooms   map[string]bool
}

func (c *conn) send(channel string, data any) error {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	return c.ws.WriteJSON(frame{Channel: channel, Data: data})
}

func (c *conn) sendError(msg string) {
	if err := c.send("error", msg); err != nil {
		c.gw.log.WithError(err).WithField("conn_id", c.id).Debug("gateway: error-frame send failed")
	}
}

func (c *conn) readLoop(ctx context.Context) {
	defer func() {
		c.gw.leaveAll(c)
		c.ws.Close()
	}()
	for {
		var env inboundEnvelope
		if err := c.ws.ReadJSON(&env); err != nil {
			return
		}
		c.handle(ctx, env)
	}
}

func (c *conn) handle(ctx context.Context, env inboundEnvelope) {
	switch env.Method {
	case "ping":
		if err := c.send("pong", pongBody{OK: true}); err != nil {
			c.gw.log.WithError(err).WithField("conn_id", c.id).Debug("gateway: pong send failed")
		}
	case "subscribe":
		c.handleSubscribe(ctx, env.Subscription)
	case "join":
		room := env.Room
		switch room {
		case "NewPair":
			room = RoomNewPair
		case "UpdatePulse":
			room = RoomUpdatePulse
		}
		c.gw.join(c, room)
	}
}

func (c *conn) handleSubscribe(ctx context.Context, sub *subscriptionDescriptor) {
	if sub == nil || sub.Type == "" {
		c.sendError("subscribe requires a subscription type")
		return
	}
	if c.subscriptions[sub.Type] {
		c.sendError(fmt.Sprintf("Already subscribed: %s", sub.Type))
		return
	}
	c.subscriptions[sub.Type] = true
	c.gw.join(c, RoomUpdatePulseV2)

	if err := c.send("subscriptionResponse", subscriptionResponseBody{
		Method:       "subscribe",
		Subscription: *sub,
	}); err != nil {
		c.gw.log.WithError(err).WithField("conn_id", c.id).Debug("gateway: subscriptionResponse send failed")
		return
	}

	// Snapshot: a permissive default filter against NewPairs (spec.md
	// §4.7 step 3). A failure here still leaves the subscription recorded.
	q, err := filter.Build(filter.Default())
	if err != nil {
		c.sendError("failed to build snapshot query: " + err.Error())
		return
	}
	content, err := c.gw.pulse.Pulse(ctx, q)
	if err != nil {
		c.sendError("failed to compute snapshot: " + err.Error())
		return
	}
	if err := c.send("update_pulse_v2", updatePulseBody{IsSnapshot: true, Content: content}); err != nil {
		c.gw.log.WithError(err).WithField("conn_id", c.id).Debug("gateway: snapshot send failed")
	}
}
