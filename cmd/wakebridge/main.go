package main

//go-build: CGO_ENABLED=0

import (
	"flag"
	"log"
	"os"

	"github.com/robotalks/wake.go/pkg/bridge"
	"github.com/robotalks/wake.go/pkg/comm/mqtt"
	"github.com/robotalks/wake.go/pkg/comm/serial"
	"github.com/robotalks/wake.go/pkg/framework"
)

var (
	mqttURL    = "mqtt://localhost:1883/wake/"
	deviceName = "device0"
)

func init() {
	if val := os.Getenv("WAKE_MQTT_URL"); val != "" {
		mqttURL = val
	}
	if val := os.Getenv("WAKE_NAME"); val != "" {
		deviceName = val
	}
	flag.StringVar(&mqttURL, "mqtt", mqttURL, "MQTT broker URL.")
	flag.StringVar(&deviceName, "name", deviceName, "Device name in MQTT topics.")
	serial.SetupFlags()
}

func main() {
	flag.Parse()

	link, err := serial.Default().NewLink()
	if err != nil {
		log.Fatalln(err)
	}
	q, err := mqtt.NewQueueFromURL(mqttURL)
	if err != nil {
		log.Fatalln(err)
	}
	token := q.Connect()
	token.Wait()
	if err = token.Error(); err != nil {
		log.Fatalln(err)
	}
	rw := mqtt.NewFrameReadWriter(q).ForDevice(deviceName)
	b := bridge.New(link, rw)

	err = framework.NewRunner().HandleSignals().Go(
		framework.NamedRun("mqtt", rw),
		framework.NamedRun("link", link),
		framework.NamedRun("bridge", b),
	).Wait()
	q.Close()
	if err != nil {
		log.Fatalln(err)
	}
}
