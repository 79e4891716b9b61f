package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"

	"github.com/robotalks/wake.go/pkg/comm"
	"github.com/robotalks/wake.go/pkg/comm/serial"
	ws "github.com/robotalks/wake.go/pkg/comm/websocket"
	"github.com/robotalks/wake.go/pkg/framework"
	"github.com/robotalks/wake.go/pkg/wake"
)

var (
	listenAddr string
	dumpFile   string
)

func init() {
	serial.SetupFlags()
	flag.StringVar(&listenAddr, "listen", listenAddr,
		"HTTP listen address serving the live view at /live, empty to disable.")
	flag.StringVar(&dumpFile, "file", dumpFile,
		"Decode a recorded dump file instead of a device.")
}

func logPacket(_ context.Context, pkt *wake.Packet) {
	switch {
	case pkt.Address != nil:
		log.Printf("@%02x cmd %02x data % x", *pkt.Address, pkt.Command, pkt.Data)
	case len(pkt.Data) > 0:
		log.Printf("cmd %02x data % x", pkt.Command, pkt.Data)
	default:
		log.Printf("cmd %02x", pkt.Command)
	}
}

func decodeDump(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var splitter comm.Splitter
	for _, b := range data {
		frame := splitter.Feed(b)
		if frame == nil {
			continue
		}
		pkt, err := wake.Decode(frame)
		if err != nil {
			log.Printf("drop %d byte frame: %v", len(frame), err)
			continue
		}
		logPacket(context.Background(), pkt)
	}
	return nil
}

func main() {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds)

	if dumpFile != "" {
		if err := decodeDump(dumpFile); err != nil {
			log.Fatalln(err)
		}
		return
	}

	link, err := serial.Default().NewLink()
	if err != nil {
		log.Fatalln(err)
	}
	handler := comm.PacketHandler(comm.HandlePacketFunc(logPacket))

	runner := framework.NewRunner().HandleSignals()
	if listenAddr != "" {
		hub := ws.NewHub()
		handler = comm.PacketHandlers(handler, hub)
		mux := http.NewServeMux()
		mux.Handle("/live", hub.Handler())
		server := &http.Server{Addr: listenAddr, Handler: mux}
		runner.Go(framework.NamedRun("http", framework.RunFunc(func(ctx context.Context) error {
			return framework.RunWithContextCloser(ctx, server, func() error {
				if err := server.ListenAndServe(); err != http.ErrServerClosed {
					return err
				}
				return nil
			})
		})))
	}
	link.Handler = handler
	runner.Go(framework.NamedRun("link", link))
	err = runner.Wait()
	stats := link.Stats()
	log.Printf("received %d frames, dropped %d", stats.Received, stats.Dropped)
	if err != nil {
		log.Fatalln(err)
	}
}
