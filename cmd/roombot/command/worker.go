package command

import (
	"fmt"

	"github.com/pixil98/go-service"

	"github.com/pixil98/go-roombot/internal/bot"
	"github.com/pixil98/go-roombot/internal/commands"
	"github.com/pixil98/go-roombot/internal/driver"
	"github.com/pixil98/go-roombot/internal/events"
	"github.com/pixil98/go-roombot/internal/games"
	"github.com/pixil98/go-roombot/internal/metrics"
	"github.com/pixil98/go-roombot/internal/roommap"
	"github.com/pixil98/go-roombot/internal/session"
	"github.com/pixil98/go-roombot/internal/storage"
	"github.com/pixil98/go-roombot/internal/transport"
)

func BuildWorkers(config interface{}) (service.WorkerList, error) {
	cfg, ok := config.(*Config)
	if !ok {
		return nil, fmt.Errorf("unable to cast config")
	}

	stores, err := cfg.Storage.BuildStores()
	if err != nil {
		return nil, fmt.Errorf("loading storage: %w", err)
	}

	// Every notification and trigger callback runs on one queue
	queue := events.NewQueue()
	bus := events.NewBus(events.WithQueue(queue))
	engine := roommap.NewEngine(roommap.WithDispatch(bus.Post))

	sess := session.New(cfg.Account.credentials(),
		session.WithBus(bus),
		session.WithEngine(engine),
		session.WithLeaveVocabulary(cfg.LeaveReasons.vocabulary()),
	)

	workers := service.WorkerList{
		"queue":   queue,
		"session": sess,
	}

	// Transport observers
	m := metrics.NewMetrics()
	taps := []transport.Tap{m.Tap()}
	if cfg.Journal.enabled() {
		j := cfg.Journal.buildJournal()
		taps = append(taps, j.Tap())
		workers["journal"] = j
	}

	client, err := cfg.Server.BuildClient(sess, taps...)
	if err != nil {
		return nil, err
	}
	sess.Attach(client)
	workers["transport"] = client

	// Games
	gm := games.NewManager(sess, bus, engine, games.WithParserOpts(cfg.Commands.parserOpts()...))
	lobby, err := cfg.Game.BuildLobby(commandStore(stores), triggerStore(stores))
	if err != nil {
		return nil, fmt.Errorf("building lobby: %w", err)
	}
	if err := gm.Register(games.LobbyKey, games.NewLobby(lobby)); err != nil {
		return nil, fmt.Errorf("registering lobby: %w", err)
	}

	var botOpts []bot.Opt
	if stores.Rooms != nil {
		botOpts = append(botOpts, bot.WithPresets(stores.Rooms))
	}
	b := bot.New(bot.Settings{
		Profile:  cfg.Account.profile(),
		Room:     cfg.Room.Definition,
		Game:     cfg.Game.key(),
		PresetID: cfg.Room.Preset,
	}, sess, gm, client, botOpts...)
	workers["bot"] = b

	// Admin boundary
	natsServer, err := cfg.Nats.buildNatsServer()
	if err != nil {
		return nil, fmt.Errorf("creating nats server: %w", err)
	}
	bridge := cfg.Nats.buildBridge(natsServer, bus, b)
	workers["nats"] = natsServer
	workers["bridge"] = bridge

	if cfg.Metrics.enabled() {
		workers["metrics"] = cfg.Metrics.buildServer(m)
	}

	// Setup the bot driver
	var driverOpts []driver.DriverOpt
	if d := cfg.tickLength(); d > 0 {
		driverOpts = append(driverOpts, driver.WithTickLength(d))
	}
	workers["driver"] = driver.NewDriver(map[string]driver.Manager{
		"games":   b,
		"status":  bridge,
		"metrics": m.Sampler(b),
	}, driverOpts...)

	return workers, nil
}

// commandStore and triggerStore keep a nil *FileStore from becoming a
// non-nil interface.
func commandStore(st *Stores) storage.Storer[*commands.Command] {
	if st.Commands == nil {
		return nil
	}
	return st.Commands
}

func triggerStore(st *Stores) storage.Storer[*roommap.TriggerSet] {
	if st.Triggers == nil {
		return nil
	}
	return st.Triggers
}
