package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/spf13/cobra"
	"github.com/zberg/go-daikin/pkg/daikin"
)

// controlState is the JSON payload published on the controlinfo topic.
type controlState struct {
	Power             bool     `json:"power"`
	Mode              string   `json:"mode"`
	TargetTemperature *float64 `json:"targetTemperature,omitempty"`
	FanRate           string   `json:"fanRate"`
	FanDirection      string   `json:"fanDirection"`
	LastUpdate        string   `json:"lastUpdate"` // HH:MM:SS
}

var bridgeCmd = &cobra.Command{
	Use:   "bridge",
	Short: "Publish unit state to MQTT and accept set commands",
	Long: `Polls the configured units and publishes their state as retained MQTT
topics. Commands published under <prefix>/<unit>/set/ are applied to the
unit:

  <prefix>/<unit>/set/power        on|off
  <prefix>/<unit>/set/temp         degrees, e.g. 22.5
  <prefix>/<unit>/set/mode         auto|dry|cool|heat|fan
  <prefix>/<unit>/set/fan          auto|silent|1-5
  <prefix>/<unit>/set/swing        off|vertical|horizontal|3d`,
	Run: func(cmd *cobra.Command, args []string) {
		broker, _ := cmd.Flags().GetString("broker")
		username, _ := cmd.Flags().GetString("username")
		password, _ := cmd.Flags().GetString("password")
		clientID, _ := cmd.Flags().GetString("client-id")
		prefix, _ := cmd.Flags().GetString("topic-prefix")
		interval, _ := cmd.Flags().GetDuration("interval")

		units, err := exportTargets()
		if err != nil {
			fmt.Printf("Error resolving units: %v\n", err)
			os.Exit(1)
		}

		logger := newLogger()
		clients := make(map[string]*daikin.Client, len(units))
		for label, host := range units {
			c, err := daikin.NewClient(host, daikin.WithLogger(logger))
			if err != nil {
				fmt.Printf("Error creating client for %s: %v\n", label, err)
				os.Exit(1)
			}
			clients[label] = c
		}

		opts := mqtt.NewClientOptions()
		opts.AddBroker(broker)
		opts.SetClientID(clientID)
		if username != "" {
			opts.SetUsername(username)
			opts.SetPassword(password)
		}
		opts.SetAutoReconnect(true)
		opts.OnConnectionLost = func(_ mqtt.Client, err error) {
			fmt.Printf("MQTT connection lost: %v\n", err)
		}

		mq := mqtt.NewClient(opts)
		if token := mq.Connect(); token.Wait() && token.Error() != nil {
			fmt.Printf("Error connecting to MQTT broker: %v\n", token.Error())
			os.Exit(1)
		}

		for label, client := range clients {
			topic := prefix + "/" + label + "/set/#"
			token := mq.Subscribe(topic, 0, func(_ mqtt.Client, msg mqtt.Message) {
				handleBridgeCommand(mq, prefix, label, client, msg)
			})
			if token.Wait() && token.Error() != nil {
				fmt.Printf("Error subscribing to %s: %v\n", topic, token.Error())
				os.Exit(1)
			}
		}

		fmt.Printf("Bridging %d unit(s) to %s every %v\n", len(clients), broker, interval)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			for label, client := range clients {
				publishUnitState(mq, prefix, label, client)
			}
			<-ticker.C
		}
	},
}

func init() {
	bridgeCmd.Flags().String("broker", "tcp://localhost:1883", "MQTT broker URL")
	bridgeCmd.Flags().String("username", "", "MQTT username")
	bridgeCmd.Flags().String("password", "", "MQTT password")
	bridgeCmd.Flags().String("client-id", "daikin-bridge", "MQTT client ID")
	bridgeCmd.Flags().String("topic-prefix", "daikin", "topic prefix")
	bridgeCmd.Flags().Duration("interval", time.Minute, "poll interval")
}

func publishUnitState(mq mqtt.Client, prefix, label string, client *daikin.Client) {
	ctx := context.Background()

	si, err := client.SensorInfo(ctx)
	if err != nil {
		fmt.Printf("Sensor probe of %s failed: %v\n", label, err)
		return
	}
	if si.InsideTemperature != nil {
		mq.Publish(prefix+"/"+label+"/temperature", 0, true,
			strconv.FormatFloat(*si.InsideTemperature, 'f', 1, 64))
	}
	if si.OutsideTemperature != nil {
		mq.Publish(prefix+"/"+label+"/outsidetemperature", 0, true,
			strconv.FormatFloat(*si.OutsideTemperature, 'f', 1, 64))
	}

	ci, err := client.ControlInfo(ctx)
	if err != nil {
		fmt.Printf("Control probe of %s failed: %v\n", label, err)
		return
	}
	state := controlState{
		Power:             ci.Power,
		Mode:              ci.Mode.String(),
		TargetTemperature: ci.TargetTemperature,
		FanRate:           ci.FanRate.String(),
		FanDirection:      ci.FanDirection.String(),
		LastUpdate:        time.Now().Format("15:04:05"),
	}
	payload, err := json.Marshal(state)
	if err != nil {
		fmt.Printf("Error encoding state for %s: %v\n", label, err)
		return
	}
	mq.Publish(prefix+"/"+label+"/controlinfo", 0, true, payload)
}

func handleBridgeCommand(mq mqtt.Client, prefix, label string, client *daikin.Client, msg mqtt.Message) {
	control := msg.Topic()[strings.LastIndex(msg.Topic(), "/")+1:]
	payload := string(msg.Payload())

	var patch daikin.ControlPatch
	switch control {
	case "power":
		on := payload == "on" || payload == "true" || payload == "1"
		patch.Power = &on
	case "temp":
		temp, err := strconv.ParseFloat(payload, 64)
		if err != nil {
			fmt.Printf("Bad temperature %q for %s\n", payload, label)
			return
		}
		patch.TargetTemperature = &temp
	case "mode":
		m, err := daikin.ParseMode(payload)
		if err != nil {
			fmt.Printf("Bad mode %q for %s\n", payload, label)
			return
		}
		patch.Mode = &m
	case "fan":
		r, err := daikin.ParseFanRate(payload)
		if err != nil {
			fmt.Printf("Bad fan rate %q for %s\n", payload, label)
			return
		}
		patch.FanRate = &r
	case "swing":
		d, err := daikin.ParseFanDirection(payload)
		if err != nil {
			fmt.Printf("Bad swing %q for %s\n", payload, label)
			return
		}
		patch.FanDirection = &d
	default:
		fmt.Printf("Unknown command %q for %s\n", control, label)
		return
	}

	if err := client.SetControl(context.Background(), patch); err != nil {
		fmt.Printf("Error applying %s to %s: %v\n", control, label, err)
		return
	}
	// publish the fresh state straight away
	publishUnitState(mq, prefix, label, client)
}
