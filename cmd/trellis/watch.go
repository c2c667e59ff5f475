package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"

	"github.com/alderkin/trellis/internal/config"
	"github.com/alderkin/trellis/internal/events"
	"github.com/alderkin/trellis/internal/ui"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Tail graph events from NATS",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if cfg.NATSURL == "" {
			return fmt.Errorf("TRELLIS_NATS_URL is required for watch")
		}

		sub, err := events.NewNATSSubscriber(cfg.NATSURL,
			nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
				log.Printf("nats: disconnected: %v", err)
			}),
			nats.ReconnectHandler(func(_ *nats.Conn) {
				log.Printf("nats: reconnected")
			}),
		)
		if err != nil {
			return fmt.Errorf("connecting to NATS: %w", err)
		}
		defer sub.Close()

		ch, cancel, err := sub.Subscribe("trellis.>")
		if err != nil {
			return fmt.Errorf("subscribing to events: %w", err)
		}
		defer cancel()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		fmt.Fprintln(os.Stderr, ui.RenderMuted("watching trellis.> (ctrl-c to stop)"))

		for {
			select {
			case <-ctx.Done():
				return nil
			case data, ok := <-ch:
				if !ok {
					return nil
				}
				printEvent(data)
			}
		}
	},
}

func printEvent(data []byte) {
	if jsonOutput {
		os.Stdout.Write(append(data, '\n'))
		return
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, data, "", "  "); err != nil {
		os.Stdout.Write(append(data, '\n'))
		return
	}
	ts := time.Now().Format("15:04:05")
	fmt.Printf("%s %s\n", ui.RenderAccent(ts), buf.String())
}
