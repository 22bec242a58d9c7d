package emulated

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/leiter/jami-kmp/internal/daemon"
	"go.uber.org/zap"
)

// Wire codes for call states, in native enum order.
const (
	wireCallIncoming   = 1
	wireCallConnecting = 2
	wireCallRinging    = 3
	wireCallCurrent    = 4
	wireCallHungup     = 5
	wireCallHold       = 8
	wireCallUnhold     = 9
)

// callSim is a session-scoped emulated call.
type callSim struct {
	id         string
	accountID  string
	peerURI    string
	hasVideo   bool
	state      int
	audioMuted bool
	videoMuted bool
	confID     string
}

func (c *callSim) terminal() bool {
	return c.state == wireCallHungup
}

// PlaceCall starts an outgoing call. The emulated peer rings immediately
// and stays ringing until accepted through SimulatePeerAnswer or torn down.
func (d *Daemon) PlaceCall(_ context.Context, accountID, uri string, withVideo bool) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.ensureRunning(); err != nil {
		return "", err
	}
	if ok, err := d.db.hasAccount(accountID); err != nil {
		return "", err
	} else if !ok {
		return "", fmt.Errorf("no such account %q", accountID)
	}
	id := uuid.NewString()
	d.calls[id] = &callSim{
		id:        id,
		accountID: accountID,
		peerURI:   uri,
		hasVideo:  withVideo,
		state:     wireCallRinging,
	}
	d.logger.Info("call placed", zap.String("call_id", id), zap.String("peer", uri))
	d.emit(daemon.CallStateChanged{AccountID: accountID, CallID: id, State: wireCallConnecting})
	d.emit(daemon.CallStateChanged{AccountID: accountID, CallID: id, State: wireCallRinging})
	return id, nil
}

// AcceptCall answers an incoming call.
func (d *Daemon) AcceptCall(_ context.Context, accountID, callID string, withVideo bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	c, err := d.liveCall(callID)
	if err != nil {
		return err
	}
	c.hasVideo = c.hasVideo || withVideo
	c.state = wireCallCurrent
	d.emit(daemon.CallStateChanged{AccountID: accountID, CallID: callID, State: wireCallCurrent})
	return nil
}

func (d *Daemon) RefuseCall(_ context.Context, accountID, callID string) error {
	return d.endCall(accountID, callID)
}

func (d *Daemon) HangUp(_ context.Context, accountID, callID string) error {
	return d.endCall(accountID, callID)
}

func (d *Daemon) endCall(accountID, callID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	c, err := d.liveCall(callID)
	if err != nil {
		return err
	}
	c.state = wireCallHungup
	d.emit(daemon.CallStateChanged{AccountID: accountID, CallID: callID, State: wireCallHungup})
	return nil
}

func (d *Daemon) HoldCall(_ context.Context, accountID, callID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	c, err := d.liveCall(callID)
	if err != nil {
		return err
	}
	if c.state != wireCallCurrent {
		return fmt.Errorf("call %q is not active", callID)
	}
	c.state = wireCallHold
	d.emit(daemon.CallStateChanged{AccountID: accountID, CallID: callID, State: wireCallHold})
	return nil
}

func (d *Daemon) UnholdCall(_ context.Context, accountID, callID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	c, err := d.liveCall(callID)
	if err != nil {
		return err
	}
	if c.state != wireCallHold {
		return fmt.Errorf("call %q is not on hold", callID)
	}
	c.state = wireCallCurrent
	d.emit(daemon.CallStateChanged{AccountID: accountID, CallID: callID, State: wireCallUnhold})
	d.emit(daemon.CallStateChanged{AccountID: accountID, CallID: callID, State: wireCallCurrent})
	return nil
}

func (d *Daemon) MuteAudio(_ context.Context, accountID, callID string, muted bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	c, err := d.liveCall(callID)
	if err != nil {
		return err
	}
	c.audioMuted = muted
	d.emit(daemon.AudioMuted{CallID: callID, Muted: muted})
	return nil
}

func (d *Daemon) MuteVideo(_ context.Context, accountID, callID string, muted bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	c, err := d.liveCall(callID)
	if err != nil {
		return err
	}
	c.videoMuted = muted
	d.emit(daemon.VideoMuted{CallID: callID, Muted: muted})
	return nil
}

func (d *Daemon) CallDetails(_ context.Context, accountID, callID string) (map[string]string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.ensureRunning(); err != nil {
		return nil, err
	}
	c, ok := d.calls[callID]
	if !ok {
		return nil, fmt.Errorf("no such call %q", callID)
	}
	return map[string]string{
		"PEER_NUMBER":  c.peerURI,
		"ACCOUNTID":    c.accountID,
		"CALL_STATE":   fmt.Sprintf("%d", c.state),
		"VIDEO_SOURCE": fmt.Sprintf("%t", c.hasVideo),
		"CONF_ID":      c.confID,
	}, nil
}

func (d *Daemon) ActiveCalls(_ context.Context, accountID string) ([]string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.ensureRunning(); err != nil {
		return nil, err
	}
	var ids []string
	for id, c := range d.calls {
		if c.accountID == accountID && !c.terminal() {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// SwitchCamera rotates through the capture device list.
func (d *Daemon) SwitchCamera(_ context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.ensureRunning(); err != nil {
		return err
	}
	for i, dev := range videoDevices {
		if dev == d.videoDevice {
			d.videoDevice = videoDevices[(i+1)%len(videoDevices)]
			return nil
		}
	}
	d.videoDevice = videoDevices[0]
	return nil
}

func (d *Daemon) SwitchAudioOutput(_ context.Context, useSpeaker bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.ensureRunning()
}

// liveCall resolves a known, non-terminal call. Caller holds d.mu.
func (d *Daemon) liveCall(callID string) (*callSim, error) {
	if err := d.ensureRunning(); err != nil {
		return nil, err
	}
	c, ok := d.calls[callID]
	if !ok {
		return nil, fmt.Errorf("no such call %q", callID)
	}
	if c.terminal() {
		return nil, fmt.Errorf("call %q already ended", callID)
	}
	return c, nil
}
