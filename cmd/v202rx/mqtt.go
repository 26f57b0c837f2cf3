// Copyright 2026 by Thorsten von Eicken, see LICENSE file

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"
	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// publisher is what the receive loop needs from a broker connection.
type publisher interface {
	Publish(topic string, payload interface{})
}

// mq is a handle onto a MQTT broker connection.
type mq struct {
	conn   mqtt.Client // broker connection
	prefix string      // prepended to all topics
	log    *log.Logger
}

// newMQ connects to a broker and returns a new mq object. The connection is persistent, i.e.,
// re-establishes itself if there is a disconnect. The will marks the receiver as offline when
// the connection drops.
func newMQ(conf MqttConfig, logger *log.Logger) (*mq, error) {
	hostname, _ := os.Hostname()
	id := "v202rx-" + hostname
	logger.Debugf("Configuring MQTT with client id %s, broker %s:%d", id, conf.Host, conf.Port)
	mqtt.ERROR = logger.StandardLog(log.StandardLogOptions{ForceLevel: log.ErrorLevel})
	opts := mqtt.NewClientOptions().
		AddBroker(fmt.Sprintf("tcp://%s:%d", conf.Host, conf.Port)).
		SetAutoReconnect(true).
		SetWill(conf.Prefix+"/online", "false", 1, true)
	opts.ClientID = id
	opts.Username = conf.User
	opts.Password = conf.Password

	conn := mqtt.NewClient(opts)
	token := conn.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return nil, fmt.Errorf("mqtt: timeout connecting to %s:%d", conf.Host, conf.Port)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt: %w", err)
	}
	conn.Publish(conf.Prefix+"/online", 1, true, "true")

	logger.Infof("MQTT connected to %s:%d", conf.Host, conf.Port)
	return &mq{conn: conn, prefix: conf.Prefix, log: logger}, nil
}

// Publish sends the payload JSON encoded to prefix/topic. It does not wait for the broker,
// the receive loop must not block.
func (mq *mq) Publish(topic string, payload interface{}) {
	jsonPayload, err := json.Marshal(payload)
	if err != nil {
		mq.log.Errorf("cannot json encode payload for %s: %s", topic, err)
		return
	}
	mq.conn.Publish(mq.prefix+"/"+topic, 0, false, jsonPayload)
}

// Close marks the receiver offline and disconnects.
func (mq *mq) Close() {
	mq.conn.Publish(mq.prefix+"/online", 1, true, "false").WaitTimeout(time.Second)
	mq.conn.Disconnect(250)
}
