// Copyright 2026 by Thorsten von Eicken, see LICENSE file

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/execuc/v202-receiver/ibus"
	"github.com/execuc/v202-receiver/v202"
)

// link is the state of the radio link as reported to the outside.
type link string

const (
	linkUnbound link = "unbound" // waiting for a bind frame
	linkBinding link = "binding" // bound to an id, not synchronized yet
	linkUp      link = "up"      // receiving values
	linkLost    link = "lost"    // bound, but no values for longer than the failsafe time
)

// linkStatus is published to MQTT whenever the link changes and periodically with the stats.
type linkStatus struct {
	Link    link       `json:"link"`
	TxID    string     `json:"txid,omitempty"`
	Channel byte       `json:"channel"`
	Stats   v202.Stats `json:"stats"`
}

// rxLoop drives the decoder and hands the values to the outputs. Outputs may be nil.
type rxLoop struct {
	dec  *v202.Decoder
	ibus *ibus.Port
	mq   publisher
	log  *log.Logger

	failsafe  time.Duration // time without values until the link is declared lost
	pubEvery  time.Duration // minimum time between sticks publications
	statEvery time.Duration // time between periodic status publications, 0 for none
	now       func() time.Time

	sticks     v202.Sticks
	link       link
	lastValues time.Time
	lastPub    time.Time
	lastStat   time.Time
}

func newRxLoop(dec *v202.Decoder, conf Config, logger *log.Logger) *rxLoop {
	return &rxLoop{
		dec:       dec,
		log:       logger,
		failsafe:  conf.Loop.Failsafe,
		pubEvery:  conf.Mqtt.Interval,
		statEvery: conf.Mqtt.Stats,
		now:       time.Now,
		link:      linkUnbound,
	}
}

// step runs the decoder once and processes the outcome.
func (l *rxLoop) step() v202.Status {
	now := l.now()
	st := l.dec.Step(&l.sticks)

	newLink := l.link
	switch st {
	case v202.BoundNewValues:
		l.lastValues = now
		newLink = linkUp
		if l.ibus != nil {
			l.ibus.Set(ibus.FromSticks(l.sticks))
		}
		if l.mq != nil && now.Sub(l.lastPub) >= l.pubEvery {
			l.mq.Publish("sticks", l.sticks)
			l.lastPub = now
		}
	case v202.BoundNoValues:
		if l.link == linkUp && now.Sub(l.lastValues) > l.failsafe {
			newLink = linkLost
		}
	case v202.BindInProgress:
		newLink = linkBinding
	case v202.NotBound:
		newLink = linkUnbound
	}

	if newLink != l.link {
		l.link = newLink
		l.log.Info("link "+string(newLink), "state", l.dec.State(), "channel", l.dec.Channel())
		if newLink != linkUp && l.ibus != nil {
			l.ibus.Hold()
		}
		l.publishStatus(now)
	} else if l.statEvery > 0 && now.Sub(l.lastStat) >= l.statEvery {
		l.publishStatus(now)
	}
	return st
}

func (l *rxLoop) status() linkStatus {
	s := linkStatus{Link: l.link, Channel: l.dec.Channel(), Stats: l.dec.Stats()}
	if l.link != linkUnbound {
		id := l.dec.TxID()
		s.TxID = fmt.Sprintf("%02x%02x%02x", id[0], id[1], id[2])
	}
	return s
}

func (l *rxLoop) publishStatus(now time.Time) {
	l.lastStat = now
	if l.mq != nil {
		l.mq.Publish("status", l.status())
	}
}

// run steps the decoder every poll interval until the context is canceled.
func (l *rxLoop) run(ctx context.Context, poll time.Duration) error {
	tick := time.NewTicker(poll)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			st := l.status()
			l.log.Info("receive loop stopped", "link", st.Link, "stats", fmt.Sprintf("%+v", st.Stats))
			return nil
		case <-tick.C:
			l.step()
		}
	}
}
