// Command tracker records paths from a local GPS receiver, an NMEA log, or a
// simulated walk straight into the path database.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/jengzang/pathtrack-backend-go/internal/database"
	"github.com/jengzang/pathtrack-backend-go/internal/provider"
	"github.com/jengzang/pathtrack-backend-go/internal/repository"
	"github.com/jengzang/pathtrack-backend-go/internal/session"
	"github.com/jengzang/pathtrack-backend-go/internal/tracking"
)

func main() {
	var (
		port       = flag.String("port", "", "serial port of an NMEA receiver, e.g. /dev/ttyUSB0")
		baud       = flag.Int("baud", 9600, "serial baud rate")
		replay     = flag.String("replay", "", "replay an NMEA log file instead of reading a port")
		demo       = flag.Int("demo", 0, "generate this many simulated fixes instead of reading a receiver")
		userID     = flag.String("user", "local", "user id the recorded paths belong to")
		dbPath     = flag.String("db", "./data/paths/paths.db", "sqlite database path")
		thresholds = flag.String("thresholds", "", "optional thresholds YAML file")
		verbose    = flag.Bool("v", false, "log every fix outcome")
	)
	flag.Parse()

	th, err := tracking.LoadThresholds(*thresholds)
	if err != nil {
		log.Fatalf("Failed to load thresholds: %v", err)
	}

	src, err := openProvider(*port, *baud, *replay, *demo)
	if err != nil {
		log.Fatalf("Failed to open provider: %v", err)
	}
	if err := src.Connect(); err != nil {
		log.Fatalf("Failed to connect %s: %v", src.Name(), err)
	}
	defer src.Close()

	if err := os.MkdirAll(filepath.Dir(*dbPath), 0o755); err != nil {
		log.Fatalf("Failed to create database directory: %v", err)
	}
	conn, err := database.Open(database.Config{Path: *dbPath})
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer conn.Close()
	if err := database.Migrate(conn); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	manager := session.NewManager(tracking.NewEngine(th), repository.NewPathRepository(conn), session.DefaultRetryPolicy)
	sess, err := manager.Start(*userID, src.Name())
	if err != nil {
		log.Fatalf("Failed to start session: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fixes := make(chan tracking.LocationFix)
	readErr := make(chan error, 1)
	go func() {
		defer close(fixes)
		for {
			fix, err := src.Read()
			if err != nil {
				readErr <- err
				return
			}
			select {
			case fixes <- fix:
			case <-ctx.Done():
				return
			}
		}
	}()

loop:
	for {
		select {
		case <-ctx.Done():
			log.Println("[Tracker] Interrupted")
			break loop
		case fix, ok := <-fixes:
			if !ok {
				break loop
			}
			out, err := sess.Process(fix)
			if err != nil {
				log.Printf("[Tracker] %v", err)
				break loop
			}
			if *verbose || out.Accepted {
				logOutcome(out)
			}
		}
	}

	select {
	case err := <-readErr:
		if !errors.Is(err, io.EOF) {
			log.Printf("[Tracker] Provider stopped: %v", err)
		}
	default:
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	summary, err := manager.Stop(stopCtx, sess.ID)
	fmt.Printf("session %s: %d fixes, %d accepted, %d paths saved, %d pending, %d short buffers discarded\n",
		summary.SessionID, summary.Processed, summary.Accepted, len(summary.PathsSaved), summary.PathsPending, summary.BuffersDiscarded)
	if err != nil {
		log.Fatalf("Failed to save all paths: %v", err)
	}
}

func openProvider(port string, baud int, replay string, demo int) (provider.Provider, error) {
	switch {
	case demo > 0:
		return provider.NewSimulated(provider.SimulatedConfig{
			StartLat: 48.8566,
			StartLon: 2.3522,
			Interval: 2 * time.Second,
			Fixes:    demo,
			Seed:     time.Now().UnixNano(),
		}), nil
	case replay != "":
		f, err := os.Open(replay)
		if err != nil {
			return nil, err
		}
		return provider.NewNMEAReader(filepath.Base(replay), f), nil
	case port != "":
		return provider.NewNMEA(provider.NMEAConfig{PortPath: port, BaudRate: baud}), nil
	default:
		return nil, errors.New("one of -port, -replay or -demo is required")
	}
}

func logOutcome(out session.Outcome) {
	if !out.Accepted {
		log.Printf("[Tracker] %s rejected: %s (tier=%s motion=%s)",
			out.Timestamp.Format(time.RFC3339), out.Reason, out.Decision.QualityTier, out.Motion)
		return
	}
	msg := fmt.Sprintf("[Tracker] %s accepted %.6f,%.6f ±%.1fm",
		out.Timestamp.Format(time.RFC3339), out.Point.Latitude, out.Point.Longitude, out.Point.Accuracy)
	if out.Point.Bearing != nil {
		msg += fmt.Sprintf(" bearing=%.0f", *out.Point.Bearing)
	}
	if out.Flushed != "" {
		msg += " flushed=" + out.Flushed
	}
	log.Println(msg)
}
