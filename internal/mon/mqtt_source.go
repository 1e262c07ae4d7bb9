package mon

import (
	"encoding/json"
	"fmt"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// SubscribeWireRecords connects to broker and invokes handle for each
// WireRecord JSON message received on topic. This is the monitor
// binary's counterpart to MQTTSink.Publish.
func SubscribeWireRecords(broker, clientID, topic string, handle func(WireRecord)) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions().AddBroker(broker).SetClientID(clientID)
	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("connecting to MQTT broker %s: %w", broker, token.Error())
	}

	token := client.Subscribe(topic, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var rec WireRecord
		if err := json.Unmarshal(msg.Payload(), &rec); err != nil {
			return
		}
		handle(rec)
	})
	token.Wait()
	if token.Error() != nil {
		return nil, fmt.Errorf("subscribing to %s: %w", topic, token.Error())
	}
	return client, nil
}
