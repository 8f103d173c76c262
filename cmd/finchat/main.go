package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"finchat/internal/adapter/agent"
	"finchat/internal/adapter/store"
	"finchat/internal/domain"
	"finchat/internal/infra/config"
	"finchat/internal/infra/logger"
	"finchat/internal/infra/tracer"
	"finchat/internal/usecase"
	"finchat/internal/usecase/eventbus"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "finchat:", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to YAML config file")
	userID := flag.String("user", "", "user identity (overrides config)")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if *userID != "" {
		cfg.Agent.UserID = *userID
	}
	if cfg.Agent.UserID == "" {
		return domain.ErrNoIdentity
	}

	log, closeLog, err := logger.New(cfg.Logger)
	if err != nil {
		return err
	}
	defer closeLog()

	shutdownTracer, err := tracer.Setup(context.Background(), cfg.Tracer)
	if err != nil {
		return err
	}
	defer shutdownTracer(context.Background())

	var logStore domain.LogStore
	if cfg.Store.Backend == "sqlite" {
		s, err := store.NewSQLiteStore(cfg.Store.Path)
		if err != nil {
			return err
		}
		defer s.Close()
		logStore = s
	} else {
		logStore = store.NewMemoryStore()
	}

	bus := eventbus.New(log)
	defer bus.Close()

	msgLog := usecase.NewMessageLog(logStore, cfg.Agent.UserID, usecase.NewULIDGenerator(), log)
	status := usecase.NewStatusTracker(bus, log)
	usage := usecase.NewAccountant()
	asm := usecase.NewAssembler(usecase.AssemblerDeps{
		Log:    msgLog,
		Usage:  usage,
		Status: status,
		Bus:    bus,
		Logger: log,
	})

	client := agent.New(agent.Deps{
		Endpoint:          cfg.Agent.Endpoint,
		UserID:            cfg.Agent.UserID,
		Token:             cfg.Agent.Token,
		Theme:             cfg.Agent.Theme,
		Model:             cfg.Agent.Model,
		Sink:              asm,
		Log:               msgLog,
		Status:            status,
		ShouldReconnect:   func() bool { return true },
		HeartbeatInterval: cfg.Agent.Heartbeat(),
		ReconnectBase:     cfg.Agent.Backoff(),
		MaxReconnects:     cfg.Agent.MaxReconnects,
		Logger:            log,
	})

	// Print each appended entry as the log changes. Change callbacks
	// fire on both the stdin and read-loop goroutines, so the cursor is
	// guarded.
	var printMu sync.Mutex
	printed := 0
	msgLog.OnChange(func() {
		printMu.Lock()
		defer printMu.Unlock()
		entries := msgLog.Entries()
		for ; printed < len(entries); printed++ {
			e := entries[printed]
			fmt.Printf("[%s] %s\n", e.Role, e.Content)
		}
	})

	client.Connect()
	defer client.Disconnect()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		client.Disconnect()
		os.Exit(0)
	}()

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "/quit":
			return nil
		case line == "/cancel":
			client.CancelRun()
		case line == "/clear":
			msgLog.Clear()
			asm.Reset()
			usage.Reset()
			printMu.Lock()
			printed = 0
			printMu.Unlock()
		case line == "/usage":
			last, session := usage.Last(), usage.Session()
			fmt.Printf("last: %d tokens (%s), session: %d tokens\n",
				last.TotalTokens, last.Model, session.TotalTokens)
		default:
			client.SendMessage(line)
		}
	}
	return scanner.Err()
}
