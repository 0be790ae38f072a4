package main

import (
	"flag"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/robotalks/serial.go/pkg/l1/msgs"
	"github.com/robotalks/serial.go/pkg/l1/tap/mqtt"
)

var (
	mqttURL = "mqtt://localhost:1883/serial/"
	board   = "+"

	boardStyle = lipgloss.NewStyle().Bold(true)
	dirStyles  = map[string]lipgloss.Style{
		msgs.DirectionTX: lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		msgs.DirectionRX: lipgloss.NewStyle().Foreground(lipgloss.Color("12")),
	}
	errStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

func init() {
	if val := os.Getenv("SERIAL_MQTT_URL"); val != "" {
		mqttURL = val
	}
	flag.StringVar(&mqttURL, "mqtt", mqttURL, "MQTT broker URL.")
	flag.StringVar(&board, "board", board, "Board ID to monitor, + for all.")
}

func render(frame *msgs.LineFrame) string {
	return strings.Join([]string{
		boardStyle.Render(frame.Board),
		dirStyles[frame.Direction].Render(strings.ToUpper(frame.Direction)),
		"#" + strconv.FormatUint(frame.Sequence, 10),
		strconv.Quote(string(frame.Payload)),
	}, " ")
}

func main() {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds)

	q, err := mqtt.NewQueueFromURL(mqttURL)
	if err != nil {
		log.Fatalln(err)
	}

	handler := mqtt.Handler(func(topic string, payload []byte) {
		frame, err := msgs.DecodeLineFrame(payload)
		if err != nil {
			log.Printf("%s: %s", topic, errStyle.Render("bad frame: "+err.Error()))
			return
		}
		log.Print(render(frame))
	})
	q.Sub(board+"/"+mqtt.TopicTX, handler)
	q.Sub(board+"/"+mqtt.TopicRX, handler)

	token := q.Connect()
	if token.Wait(); token.Error() != nil {
		log.Fatalln(token.Error())
	}
	<-(chan struct{})(nil)
}
