package netio

import (
	"context"
	"crypto/rand"
	"log"
	"net/http"
	"sync"
	"time"

	"arenasrv/internal/arena"
	"arenasrv/internal/catalog"
	"arenasrv/internal/entity"
	"arenasrv/internal/eventlog"
	"arenasrv/internal/moderation"
	"arenasrv/internal/observability"
	"arenasrv/internal/wire"

	"github.com/gorilla/websocket"
)

// HubConfig bundles the knobs the multiplexer needs beyond the arena
// itself, adapted from the teacher's WebSocketHub construction.
type HubConfig struct {
	MaxConnectionsTotal int
	MaxConnectionsPerIP int
	AllowedOrigins      []string
	RateLimit           RateLimitConfig
}

// DefaultHubConfig mirrors production-safe defaults from the teacher's
// ratelimit/websocket stack.
func DefaultHubConfig() HubConfig {
	return HubConfig{
		MaxConnectionsTotal: 2000,
		MaxConnectionsPerIP: 4,
		RateLimit:           DefaultRateLimitConfig,
	}
}

// Hub owns every live Connection for one Arena and the upgrade/handshake
// pipeline feeding it (§4.9 "connection multiplexer").
type Hub struct {
	arena  *arena.Arena
	config HubConfig

	guard *ConnectionGuard

	upgrader websocket.Upgrader

	mu          sync.RWMutex
	connections map[uint32]*Connection // keyed by entity ID
	byUID       map[string]bool

	moderation *moderation.Handler

	logger *log.Logger
}

// NewHub wires a connection multiplexer around an already-constructed
// arena.
func NewHub(a *arena.Arena, cfg HubConfig, logger *log.Logger) *Hub {
	if logger == nil {
		logger = log.Default()
	}
	h := &Hub{
		arena:       a,
		config:      cfg,
		guard:       NewConnectionGuard(cfg.RateLimit, cfg.MaxConnectionsPerIP),
		connections: make(map[uint32]*Connection),
		byUID:       make(map[string]bool),
		moderation:  moderation.NewHandler(moderation.DefaultRateLimitConfig()),
		logger:      logger,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

func (h *Hub) checkOrigin(r *http.Request) bool {
	if len(h.config.AllowedOrigins) == 0 {
		return true
	}
	origin := r.Header.Get("Origin")
	for _, allowed := range h.config.AllowedOrigins {
		if allowed == origin {
			return true
		}
	}
	return false
}

// ConnectionCount reports the number of currently registered sockets.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections)
}

// HandleUpgrade is the http.HandlerFunc performing the WebSocket upgrade
// and handshake, grounded on the teacher's HandleWebSocket: connection
// limits and origin check first, then protocol handshake, matching
// internal/api/websocket.go's ordering.
func (h *Hub) HandleUpgrade(w http.ResponseWriter, r *http.Request) {
	ip := GetClientIP(r)

	if !h.guard.AllowHandshake(ip) {
		observability.RecordConnectionRejected("rate_limit")
		http.Error(w, "rate limited", http.StatusTooManyRequests)
		return
	}
	if h.ConnectionCount() >= h.config.MaxConnectionsTotal {
		observability.RecordConnectionRejected("capacity")
		http.Error(w, "server full", http.StatusServiceUnavailable)
		return
	}
	if !h.guard.ReserveSlot(ip) {
		observability.RecordConnectionRejected("per_ip_limit")
		http.Error(w, "too many connections from this address", http.StatusTooManyRequests)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.guard.ReleaseSlot(ip)
		h.logger.Printf("netio: upgrade failed from %s: %v", ip, err)
		return
	}

	c := NewConnection(conn, ip)
	go h.runConnection(c)
}

// runConnection drives one client through the cipher handshake, the spawn
// packet, and then forwards decoded input frames until the socket closes
// (§4.9).
func (h *Hub) runConnection(c *Connection) {
	defer func() {
		h.guard.ReleaseSlot(c.IP)
		c.Close()
		h.unregister(c)
	}()

	if err := SendCipherHandshake(c, cryptoRandomBytes); err != nil {
		h.logger.Printf("netio: handshake write failed for %s: %v", c.IP, err)
		return
	}

	_, raw, err := c.Socket.ReadMessage()
	if err != nil {
		return
	}
	wire.Transcode(raw, c.Cipher)

	in := wire.FromBytes(raw)
	opcode, err := in.ReadU8()
	if err != nil || opcode != uint8(wire.ServerBoundSpawn) {
		observability.RecordConnectionRejected("bad_spawn")
		h.guard.RecordViolation(c.IP)
		return
	}
	req, err := ParseSpawn(in)
	if err != nil {
		observability.RecordConnectionRejected("bad_spawn")
		h.guard.RecordViolation(c.IP)
		return
	}

	uid, err := h.resolveIdentity(req.AuthToken, c.IP)
	if err != nil {
		uid = ""
	}

	h.mu.Lock()
	existing := make(map[string]bool, len(h.byUID))
	for k := range h.byUID {
		existing[k] = true
	}
	h.mu.Unlock()

	if err := ValidateSpawn(h.arena, req, uid, existing); err != nil {
		observability.RecordConnectionRejected("duplicate_uid")
		h.guard.RecordViolation(c.IP)
		return
	}

	id := h.arena.NextEntityID()
	priv := entity.Privilege{Kind: entity.PrivilegePlayer}
	t := SpawnTank(h.arena, id, req, uid, priv)
	c.EntityID = t.ID
	c.UserID = uid
	c.Nickname = req.Nickname
	c.Fingerprint = req.Fingerprint
	c.HandshakeOK = true
	h.guard.ResetViolations(c.IP)

	h.register(c)
	observability.SetConnectionsActive(h.ConnectionCount())

	h.readLoop(c)
}

func (h *Hub) resolveIdentity(token, ip string) (string, error) {
	if h.arena.Identity == nil || token == "" {
		return "", nil
	}
	if h.arena.Proxy != nil {
		if suspicious, err := h.arena.Proxy.Check(context.Background(), ip); err == nil && suspicious {
			return "", &ErrProtocolViolation{Reason: "proxy reputation"}
		}
	}
	return h.arena.Identity.Resolve(context.Background(), token)
}

func (h *Hub) register(c *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.connections[c.EntityID] = c
	if c.UserID != "" {
		h.byUID[c.UserID] = true
	}
}

func (h *Hub) unregister(c *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.connections, c.EntityID)
	if c.UserID != "" {
		delete(h.byUID, c.UserID)
	}
	if c.EntityID != 0 {
		h.arena.Lock()
		h.arena.ForfeitRanked(c.EntityID)
		h.arena.MarkForDeletion(c.EntityID)
		h.arena.EmitEvent(eventlog.TypeTankLeave, c.EntityID, eventlog.JoinPayload{Name: c.Nickname})
		h.arena.Unlock()
	}
	observability.SetConnectionsActive(len(h.connections))
}

// readLoop forwards every subsequent client frame into the tank's mutable
// input state under the arena lock, until the socket errors out.
func (h *Hub) readLoop(c *Connection) {
	for {
		_, raw, err := c.Socket.ReadMessage()
		if err != nil {
			return
		}
		wire.Transcode(raw, c.Cipher)
		h.handleFrame(c, raw)
	}
}

func (h *Hub) handleFrame(c *Connection, raw []byte) {
	in := wire.FromBytes(raw)
	opByte, err := in.ReadU8()
	if err != nil {
		return
	}
	op, ok := wire.ParseServerBound(opByte)
	if !ok {
		observability.RecordConnectionRejected("bad_opcode")
		return
	}

	h.arena.Lock()
	defer h.arena.Unlock()

	t, ok := h.arena.Tanks[c.EntityID]
	if !ok {
		return
	}
	c.LastTick = h.arena.Ticks

	switch op {
	case wire.ServerBoundInput:
		flags, err := in.ReadVaruint()
		if err != nil {
			return
		}
		mx, err1 := in.ReadF32()
		my, err2 := in.ReadF32()
		if err1 != nil || err2 != nil {
			return
		}
		t.InputFlags = flags
		t.Mouse.X = float64(mx)
		t.Mouse.Y = float64(my)
	case wire.ServerBoundReady:
		t.Ready = true
	case wire.ServerBoundPing:
		c.Enqueue(pongFrame(c.Cipher))
	case wire.ServerBoundChat:
		text, err := in.ReadStringSafe(wire.MaxMessageLength, wire.StringSafeBound, true)
		if err != nil {
			return
		}
		h.dispatchChat(c, t, text)
	case wire.ServerBoundStat:
		h.handleStat(t, in)
	case wire.ServerBoundUpgrades:
		h.handleUpgrades(t, in)
	case wire.ServerBoundClan:
		h.handleClan(c, in)
	case wire.ServerBoundArenaUpdate:
		h.handleArenaUpdate(t, in)
	}
}

// handleStat is the Stat opcode (§6): rejected in Ranked mode and while
// dead, otherwise invests one point in the named stat.
func (h *Hub) handleStat(t *entity.Tank, in *wire.Stream) {
	if h.arena.Config.GameMode == arena.ModeRanked {
		return
	}
	id, err := in.ReadU8()
	if err != nil || !t.Alive {
		return
	}
	t.ApplyStat(wire.UpgradeStats(id), catalog.Lookup(t.IdentityID))
}

// handleUpgrades is the Upgrades opcode (§6): rejected in Ranked mode,
// otherwise switches the tank to the chosen reachable identity.
func (h *Hub) handleUpgrades(t *entity.Tank, in *wire.Stream) {
	if h.arena.Config.GameMode == arena.ModeRanked {
		return
	}
	index, err := in.ReadU8()
	if err != nil {
		return
	}
	t.ApplyUpgrade(int(index), catalog.Lookup(t.IdentityID))
}

// handleClan dispatches the Clan opcode's six subtypes (§6), rejected
// entirely in Ranked mode.
func (h *Hub) handleClan(c *Connection, in *wire.Stream) {
	if h.arena.Config.GameMode == arena.ModeRanked {
		return
	}
	subtype, err := in.ReadU8()
	if err != nil {
		return
	}
	switch wire.ClanIncomingPacketType(subtype) {
	case wire.ClanCreate:
		name, err := in.ReadStringSafe(wire.MaxClanNameLength, wire.StringSafeBound, true)
		if err != nil {
			return
		}
		h.arena.CreateClan(c.EntityID, name)
	case wire.ClanJoin:
		slot, err := in.ReadU8()
		if err != nil {
			return
		}
		h.arena.RequestJoinClan(c.EntityID, int(slot))
	case wire.ClanLeave:
		h.arena.LeaveClan(c.EntityID, h.arena.Ticks)
	case wire.ClanAcceptDecline:
		playerID, err1 := in.ReadU32()
		accept, err2 := in.ReadU8()
		if err1 != nil || err2 != nil {
			return
		}
		h.arena.RespondToJoinRequest(c.EntityID, playerID, accept != 0)
	case wire.ClanKick:
		playerID, err := in.ReadU32()
		if err != nil {
			return
		}
		h.arena.KickFromClan(c.EntityID, playerID, h.arena.Ticks)
	case wire.ClanDistress:
		h.arena.SetDistress(c.EntityID)
	}
}

// handleArenaUpdate is the ArenaUpdate opcode (§6): only the connection
// holding host privilege may reconfigure the running arena. bot_count is
// parsed but intentionally discarded, matching the upstream host-reconfig
// path's own quirk of never applying it from this packet.
func (h *Hub) handleArenaUpdate(t *entity.Tank, in *wire.Stream) {
	if t.Privilege.Kind != entity.PrivilegeHost {
		return
	}
	size, err1 := in.ReadF32()
	wantedShapes, err2 := in.ReadU32()
	_, err3 := in.ReadU8() // bot_count, discarded
	disableLevelUp, err4 := in.ReadU8()
	disableSwitchTank, err5 := in.ReadU8()
	disableGodMode, err6 := in.ReadU8()
	lastManStanding, err7 := in.ReadU8()
	private, err8 := in.ReadU8()
	if err1 != nil || err2 != nil || err3 != nil || err4 != nil || err5 != nil || err6 != nil || err7 != nil || err8 != nil {
		return
	}

	h.arena.Config.ArenaSize = float64(size)
	h.arena.Config.WantedShapeCount = int(wantedShapes)
	h.arena.Config.DisabledFlags[0] = disableLevelUp == 0
	h.arena.Config.DisabledFlags[1] = disableSwitchTank == 0
	h.arena.Config.DisabledFlags[2] = disableGodMode == 0
	h.arena.Config.Private = private != 0
	if lastManStanding != 0 {
		h.arena.Config.GameMode = arena.ModeLastManStanding
	}
}

// dispatchChat routes a chat-opcode payload through the moderation command
// parser, enqueuing any resulting notification to the issuer or, for
// Broadcast, to every connected client.
func (h *Hub) dispatchChat(c *Connection, t *entity.Tank, text string) {
	result, err := h.moderation.Dispatch(h.arena, c.EntityID, text, time.Now())
	if err != nil || result.Text == "" {
		return
	}
	if result.Broadcast {
		h.broadcastNotification(result.Text)
		return
	}
	c.Enqueue(notificationFrame(c.Cipher, result.Text))
}

func notificationFrame(cipher uint32, text string) []byte {
	s := wire.NewStream()
	s.WriteU8(uint8(wire.ClientBoundNotification))
	s.WriteString(text)
	s.Transcode(cipher)
	return s.Bytes()
}

func (h *Hub) broadcastNotification(text string) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.connections {
		c.Enqueue(notificationFrame(c.Cipher, text))
	}
}

// statFrame is the Stat opcode's reply (§4.4): available points plus every
// stat's current investment and identity-defined cap.
func statFrame(t *entity.Tank, ident *catalog.Identity, cipher uint32) []byte {
	s := wire.NewStreamWithCapacity(3 + wire.UpgradeStatsCount*2)
	s.WriteU8(uint8(wire.ClientBoundStat))
	s.WriteU8(uint8(t.StatPoints))
	s.WriteU8(uint8(wire.UpgradeStatsCount))
	for i := 0; i < wire.UpgradeStatsCount; i++ {
		s.WriteU8(uint8(t.Stats[i]))
		s.WriteU8(uint8(ident.MaxStatPerStat[i]))
	}
	s.Transcode(cipher)
	return s.Bytes()
}

// upgradesFrame is the Upgrades opcode's reply: the identity IDs currently
// reachable from this tank's identity (§4.4 item 8).
func upgradesFrame(ident *catalog.Identity, cipher uint32) []byte {
	s := wire.NewStreamWithCapacity(2 + len(ident.Upgrades))
	s.WriteU8(uint8(wire.ClientBoundUpgrades))
	s.WriteU8(uint8(len(ident.Upgrades)))
	for _, id := range ident.Upgrades {
		s.WriteU8(uint8(id))
	}
	s.Transcode(cipher)
	return s.Bytes()
}

func pongFrame(cipher uint32) []byte {
	s := wire.NewStream()
	s.WriteU8(uint8(wire.ClientBoundPong))
	s.Transcode(cipher)
	return s.Bytes()
}

// DrainTick builds this tick's Update snapshot for every connected tank
// (§4.10) and flushes every connection's outbound queue (§4.9 "per-tick
// outbound queue drain"), dropping connections whose write fails.
func (h *Hub) DrainTick() {
	h.mu.RLock()
	conns := make([]*Connection, 0, len(h.connections))
	for _, c := range h.connections {
		conns = append(conns, c)
	}
	h.mu.RUnlock()

	h.arena.Lock()
	for _, c := range conns {
		t, ok := h.arena.Tanks[c.EntityID]
		if !ok {
			continue
		}
		c.Enqueue(BuildUpdatePacket(t, h.arena, c.Cipher))

		if t.SendStatInfo {
			c.Enqueue(statFrame(t, catalog.Lookup(t.IdentityID), c.Cipher))
			t.SendStatInfo = false
		}
		if t.SendUpgradesInfo {
			if h.arena.Config.GameMode != arena.ModeRanked {
				c.Enqueue(upgradesFrame(catalog.Lookup(t.IdentityID), c.Cipher))
			}
			t.SendUpgradesInfo = false
		}
	}
	h.arena.Unlock()

	for _, c := range conns {
		if err := c.DrainOutbox(); err != nil {
			h.unregister(c)
			c.Close()
		}
	}
}

// SweepTimeouts force-closes connections silent past the disconnect
// timeout (§6 DisconnectTimeoutTicks).
func (h *Hub) SweepTimeouts(currentTick uint64) {
	h.mu.RLock()
	conns := make([]*Connection, 0, len(h.connections))
	for _, c := range h.connections {
		conns = append(conns, c)
	}
	h.mu.RUnlock()

	for _, c := range conns {
		if DisconnectTimeoutExceeded(c.LastTick, currentTick) {
			h.unregister(c)
			c.Close()
		}
	}
}

// Stop releases the hub's background goroutines (rate limiter cleanup,
// moderation rate limiter cleanup). Connections are left for the caller to
// close.
func (h *Hub) Stop() {
	h.guard.Stop()
	h.moderation.Stop()
}

func cryptoRandomBytes(n int) []byte {
	b := make([]byte, n)
	rand.Read(b)
	return b
}
