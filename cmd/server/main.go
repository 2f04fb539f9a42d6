package main

import (
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"arenasrv/internal/arena"
	"arenasrv/internal/config"
	"arenasrv/internal/eventlog"
	"arenasrv/internal/httpapi"
	"arenasrv/internal/netio"
	"arenasrv/internal/observability"
	"arenasrv/internal/services"

	"github.com/joho/godotenv"
)

const defaultArenaKey = "main"

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using environment variables only")
	}

	log.Println("arena server starting")

	appConfig := config.Load()

	registry := newArenaRegistry()
	mainArena := buildArena(appConfig.Arena)

	events := eventlog.NewEventLog()
	eventLogPath := os.Getenv("EVENT_LOG_PATH")
	if err := events.Start(eventLogPath); err != nil {
		log.Printf("event log disabled: %v", err)
	} else {
		mainArena.Events = events
	}

	hub := netio.NewHub(mainArena, netio.DefaultHubConfig(), nil)
	registry.register(defaultArenaKey, mainArena, hub)

	go runTickLoop(mainArena, hub)

	if os.Getenv("DISABLE_DEBUG_SERVER") != "true" {
		debugCfg := observability.DefaultConfig()
		debugCfg.ListenAddr = "127.0.0.1:" + strconv.Itoa(appConfig.Server.DebugPort)
		if err := observability.StartDebugServer(debugCfg); err != nil {
			log.Printf("debug server disabled: %v", err)
		}
	}

	controlServer := httpapi.NewServer(httpapi.RouterConfig{
		Arenas: registry,
		Hubs:   registry.hubs(),
	}, nil)

	go func() {
		addr := ":" + strconv.Itoa(appConfig.Server.ControlPort)
		log.Printf("control plane listening on %s", addr)
		if err := controlServer.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("control plane failed: %v", err)
		}
	}()

	gameMux := http.NewServeMux()
	gameMux.HandleFunc("/ws", hub.HandleUpgrade)
	go func() {
		addr := ":" + strconv.Itoa(appConfig.Server.GamePort)
		log.Printf("game socket listening on %s", addr)
		if err := http.ListenAndServe(addr, gameMux); err != nil && err != http.ErrServerClosed {
			log.Fatalf("game socket failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	log.Println("ready")
	<-quit

	log.Println("shutting down")
	controlServer.Stop()
	hub.Stop()
	events.Stop()
}

func buildArena(cfg config.ArenaConfig) *arena.Arena {
	acfg := arena.DefaultConfig(defaultArenaKey)
	acfg.ArenaSize = cfg.ArenaSize
	acfg.WantedShapeCount = cfg.WantedShapeCount
	acfg.DisabledFlags = cfg.DisabledFlags
	acfg.Private = cfg.Private
	acfg.MaxPlayers = cfg.MaxPlayers
	acfg.BotCount = cfg.BotCount
	acfg.TicksPerSecond = cfg.TicksPerSecond
	acfg.GameMode = gameModeFromString(cfg.GameMode)

	a := arena.New(acfg, nil)
	a.Proxy = services.NoopProxyReputation{}
	return a
}

func gameModeFromString(s string) arena.GameMode {
	switch s {
	case "sandbox":
		return arena.ModeSandbox
	case "lms":
		return arena.ModeLastManStanding
	case "ranked":
		return arena.ModeRanked
	default:
		return arena.ModeFFA
	}
}

// runTickLoop drives the arena at its configured tick rate, draining the
// hub's outbound queues and disconnect sweep once per tick, matching §5's
// "coarse-grained mutex held only for the duration of a tick" model.
func runTickLoop(a *arena.Arena, hub *netio.Hub) {
	rate := a.Config.TicksPerSecond
	if rate <= 0 {
		rate = 25
	}
	ticker := time.NewTicker(time.Second / time.Duration(rate))
	defer ticker.Stop()

	for range ticker.C {
		start := time.Now()

		a.Lock()
		a.Tick()
		tick := a.Ticks
		a.Unlock()

		hub.SweepTimeouts(tick)
		hub.DrainTick()

		observability.RecordTick(time.Since(start))
	}
}

// arenaRegistry is the process-local implementation of httpapi.ArenaSource.
type arenaRegistry struct {
	mu      sync.RWMutex
	arenas  map[string]*arena.Arena
	hubsMap map[string]*netio.Hub
}

func newArenaRegistry() *arenaRegistry {
	return &arenaRegistry{
		arenas:  make(map[string]*arena.Arena),
		hubsMap: make(map[string]*netio.Hub),
	}
}

func (r *arenaRegistry) register(key string, a *arena.Arena, h *netio.Hub) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.arenas[key] = a
	r.hubsMap[key] = h
}

func (r *arenaRegistry) Get(key string) (*arena.Arena, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.arenas[key]
	return a, ok
}

func (r *arenaRegistry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]string, 0, len(r.arenas))
	for k := range r.arenas {
		keys = append(keys, k)
	}
	return keys
}

func (r *arenaRegistry) hubs() map[string]*netio.Hub {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]*netio.Hub, len(r.hubsMap))
	for k, v := range r.hubsMap {
		out[k] = v
	}
	return out
}
