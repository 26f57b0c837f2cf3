// Copyright 2026 by Thorsten von Eicken, see LICENSE file

// The v202 package decodes the 2.4GHz protocol of WLToys V202 style RC transmitters received
// with an nRF24L01+ radio.
//
// A transmitter hops over 16 channels derived from its 3-byte id. To bind, the receiver parks on
// one of 8 probe channels at a time until it catches a bind frame, which carries the id. It then
// derives the transmitter's hop table, waits on the first hop channel for any valid frame and from
// there on follows the transmitter, moving to the next channel after each reception. When frames
// stop arriving it first nudges ahead by one channel after 10ms and then keeps stepping every
// 140ms until it catches the transmitter again.
//
// The Decoder is driven by calling Step from the application's control loop. Step never sleeps:
// it polls the radio, drains its FIFO and returns. It must be called more often than every 10ms
// for the channel hunting timeouts to mean anything. A Decoder is not safe for concurrent use.
package v202

import (
	"time"
)

// Transport is the radio as seen by the decoder. nrf24.Radio implements it, so does
// simradio.Radio.
type Transport interface {
	RxMode(channel byte) error  // configure for v202 reception and start receiving
	SwitchChannel(channel byte) // retune
	RxFlag() bool               // a frame has arrived since the last ResetRxFlag
	ResetRxFlag()               // acknowledge the arrival
	RxEmpty() bool              // nothing left in the receive FIFO
	ReadPayload(buf []byte)     // pop one frame off the FIFO
	FlushRx()                   // drop everything in the receive FIFO
	FlushTx()                   // drop everything in the transmit FIFO
}

// Clock returns a monotonic time in milliseconds. It is expected to wrap around.
type Clock interface {
	Millis() uint32
}

// systemClock counts milliseconds since it was created.
type systemClock struct{ start time.Time }

func (c systemClock) Millis() uint32 { return uint32(time.Since(c.start).Milliseconds()) }

// SystemClock returns a Clock based on the Go runtime's monotonic clock.
func SystemClock() Clock { return systemClock{time.Now()} }

// LogPrintf is a function used by the decoder to print logging info.
type LogPrintf func(format string, v ...interface{})

// State is the state of the decoder's state machine.
type State byte

const (
	NoBind           State = iota // waiting for a bind frame on the probe channels
	WaitFirstSynchro              // bound to an id, waiting for the first frame on the hop table
	Bound                         // following the transmitter's hops
	SignalLost                    // not entered at the moment
)

func (s State) String() string {
	switch s {
	case NoBind:
		return "no-bind"
	case WaitFirstSynchro:
		return "wait-first-synchro"
	case Bound:
		return "bound"
	case SignalLost:
		return "signal-lost"
	default:
		return "unknown"
	}
}

// Status is returned by Step.
type Status byte

const (
	BoundNewValues  Status = iota // bound, new stick values were decoded
	BoundNoValues                 // bound, no new frame
	NotBound                      // waiting for a bind frame
	BindInProgress                // id captured, waiting to lock onto the hop sequence
	ErrorSignalLost               // reserved
	Unknown
)

func (s Status) String() string {
	switch s {
	case BoundNewValues:
		return "bound-new-values"
	case BoundNoValues:
		return "bound-no-values"
	case NotBound:
		return "not-bound"
	case BindInProgress:
		return "bind-in-progress"
	case ErrorSignalLost:
		return "signal-lost"
	default:
		return "unknown"
	}
}

const (
	probeDwell   = 128 // ms on each probe channel, the time a transmitter takes to cycle all 16 hops
	nudgeTimeout = 10  // ms without a frame before trying the next hop once
	huntTimeout  = 140 // ms between further hops while the signal stays lost
	maxDrain     = 8   // payloads read per step at most, the chip FIFO holds 3
)

// Stats counts what the decoder has seen. It is informational only.
type Stats struct {
	Frames      uint32 `json:"frames"`       // payloads read from the radio
	BadChecksum uint32 `json:"bad_checksum"` // payloads dropped for a checksum mismatch
	WrongTx     uint32 `json:"wrong_tx"`     // valid payloads from another transmitter
	BindFrames  uint32 `json:"bind_frames"`  // valid bind frames seen
	Decoded     uint32 `json:"decoded"`      // data frames decoded into sticks
	Hops        uint32 `json:"hops"`         // channel changes after a reception
	Hunts       uint32 `json:"hunts"`        // channel changes due to a timeout
	Binds       uint32 `json:"binds"`        // transmitter ids captured
}

// Opts contains options used when initializing a Decoder.
type Opts struct {
	Clock  Clock     // defaults to SystemClock()
	Logger LogPrintf // function to use for logging
}

// Decoder is the v202 receive state machine.
type Decoder struct {
	radio Transport
	clock Clock
	log   LogPrintf

	state      State
	txid       TxID
	hops       HopTable
	probes     ProbeTable
	chNum      int    // index into probes while unbound, into hops otherwise
	frame      Frame  // receive buffer
	lastSignal uint32 // time of the last channel switch or valid frame
	errCnt     int    // timeouts since the last valid frame, saturates at 1
	stats      Stats
}

// New sets the radio up for reception on the first probe channel and returns a Decoder
// waiting for a bind frame.
func New(radio Transport, opts Opts) (*Decoder, error) {
	if radio == nil {
		return nil, ErrNilTransport
	}
	d := &Decoder{
		radio:  radio,
		clock:  opts.Clock,
		log:    func(format string, v ...interface{}) {},
		state:  NoBind,
		probes: BindProbeTable(),
	}
	if d.clock == nil {
		d.clock = SystemClock()
	}
	if opts.Logger != nil {
		d.log = func(format string, v ...interface{}) {
			opts.Logger("v202: "+format, v...)
		}
	}
	if err := radio.RxMode(d.probes[0]); err != nil {
		return nil, err
	}
	d.lastSignal = d.clock.Millis()
	d.log("probing for bind frames on channels %#x", d.probes[:])
	return d, nil
}

// Step runs the state machine once. When it returns BoundNewValues the decoded values have
// been stored in sticks, otherwise sticks is left untouched.
func (d *Decoder) Step(sticks *Sticks) Status {
	switch d.state {
	case NoBind:
		return d.stepNoBind()
	case WaitFirstSynchro:
		d.stepWaitFirstSynchro()
		return BindInProgress
	case Bound:
		return d.stepBound(sticks)
	case SignalLost:
		return BindInProgress
	default:
		return Unknown
	}
}

// stepNoBind listens for a bind frame, cycling through the probe channels.
func (d *Decoder) stepNoBind() Status {
	now := d.clock.Millis()
	if !d.radio.RxFlag() {
		if now-d.lastSignal > probeDwell {
			d.chNum = (d.chNum + 1) % NumProbes
			d.radio.SwitchChannel(d.probes[d.chNum])
			d.lastSignal = now
		}
		return NotBound
	}

	d.radio.ResetRxFlag()
	for n := 0; n < maxDrain && !d.radio.RxEmpty(); n++ {
		if !d.read() || !d.frame.IsBind() {
			continue
		}
		d.stats.BindFrames++
		d.bind(d.frame.TxID())
		d.lastSignal = now
		return BindInProgress
	}
	return NotBound
}

// bind captures a transmitter id and moves to the start of its hop table.
func (d *Decoder) bind(id TxID) {
	d.txid = id
	d.hops = DeriveHopTable(id)
	d.chNum = 0
	d.radio.SwitchChannel(d.hops[0])
	d.radio.FlushRx()
	d.state = WaitFirstSynchro
	d.stats.Binds++
	d.log("bind frame from tx %#x, hop table %#x", id[:], d.hops[:])
}

// stepWaitFirstSynchro waits on the current hop channel for the transmitter to come by. The id
// is not checked: any valid frame on this channel is assumed to be ours.
func (d *Decoder) stepWaitFirstSynchro() {
	if !d.radio.RxFlag() {
		return
	}
	now := d.clock.Millis()
	d.radio.ResetRxFlag()
	got := false
	for n := 0; n < maxDrain && !d.radio.RxEmpty(); n++ {
		if d.read() {
			got = true
		}
	}
	if got {
		d.state = Bound
		d.lastSignal = now
		d.nextHop()
		d.stats.Hops++
		d.log("synchronized with tx %#x", d.txid[:])
	}
}

// stepBound follows the transmitter, hunting for it when frames stop coming.
func (d *Decoder) stepBound(sticks *Sticks) Status {
	now := d.clock.Millis()
	status := BoundNoValues

	if d.radio.RxFlag() {
		d.radio.ResetRxFlag()
		got := false
		for n := 0; n < maxDrain && !d.radio.RxEmpty(); n++ {
			if !d.read() {
				continue
			}
			if !d.frame.FromTx(d.txid) {
				d.stats.WrongTx++
				continue
			}
			got = true
			d.errCnt = 0
			if d.frame.IsBind() {
				d.stats.BindFrames++
				continue
			}
			*sticks = d.frame.Sticks()
			d.stats.Decoded++
			status = BoundNewValues
		}
		if got {
			d.lastSignal = now
			d.nextHop()
			d.stats.Hops++
		}
		return status
	}

	// Nothing received: first try the next channel quickly in case we're just a tad late,
	// then step slowly until the transmitter comes by.
	switch elapsed := now - d.lastSignal; {
	case d.errCnt == 0 && elapsed > nudgeTimeout:
		d.errCnt++
		d.lastSignal = now
		d.nextHop()
		d.stats.Hunts++
	case d.errCnt >= 1 && elapsed > huntTimeout:
		d.lastSignal = now
		d.nextHop()
		d.stats.Hunts++
	}
	return status
}

// read pops a frame into the buffer and returns whether its checksum is good.
func (d *Decoder) read() bool {
	d.radio.ReadPayload(d.frame[:])
	d.stats.Frames++
	if !d.frame.ChecksumOK() {
		d.stats.BadChecksum++
		return false
	}
	return true
}

func (d *Decoder) nextHop() {
	d.chNum = (d.chNum + 1) % NumHops
	d.radio.SwitchChannel(d.hops[d.chNum])
}

// State returns the current state.
func (d *Decoder) State() State { return d.state }

// TxID returns the id of the transmitter bound to, it is zero while in NoBind.
func (d *Decoder) TxID() TxID { return d.txid }

// HopTable returns the hop table of the transmitter bound to.
func (d *Decoder) HopTable() HopTable { return d.hops }

// Channel returns the channel the radio is tuned to.
func (d *Decoder) Channel() byte {
	if d.state == NoBind {
		return d.probes[d.chNum]
	}
	return d.hops[d.chNum]
}

// Stats returns a copy of the frame counters.
func (d *Decoder) Stats() Stats { return d.stats }
