package emulated

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/leiter/jami-kmp/internal/daemon"
	"github.com/leiter/jami-kmp/internal/model"
)

// confSim is a session-scoped emulated conference.
type confSim struct {
	id           string
	accountID    string
	state        string
	layout       model.ConferenceLayout
	participants []string
	muted        map[string]bool
}

func (c *confSim) infos() []map[string]string {
	out := make([]map[string]string, 0, len(c.participants))
	for _, uri := range c.participants {
		out = append(out, map[string]string{
			"uri":        uri,
			"audioMuted": fmt.Sprintf("%t", c.muted[uri]),
		})
	}
	return out
}

// CreateConference merges the given peers into a new conference.
func (d *Daemon) CreateConference(_ context.Context, accountID string, participantURIs []string) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.ensureRunning(); err != nil {
		return "", err
	}
	if len(participantURIs) == 0 {
		return "", fmt.Errorf("no participants")
	}
	id := uuid.NewString()
	conf := &confSim{
		id:           id,
		accountID:    accountID,
		state:        "ACTIVE_ATTACHED",
		layout:       model.LayoutGrid,
		participants: append([]string(nil), participantURIs...),
		muted:        make(map[string]bool),
	}
	d.confs[id] = conf
	d.emit(daemon.ConferenceCreated{AccountID: accountID, ConferenceID: id})
	d.emit(daemon.ConferenceInfoUpdated{ConferenceID: id, ParticipantInfos: conf.infos()})
	return id, nil
}

// JoinParticipant merges two live calls into a conference.
func (d *Daemon) JoinParticipant(_ context.Context, accountID, callID, accountID2, callID2 string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	first, err := d.liveCall(callID)
	if err != nil {
		return err
	}
	second, err := d.liveCall(callID2)
	if err != nil {
		return err
	}
	id := uuid.NewString()
	conf := &confSim{
		id:           id,
		accountID:    accountID,
		state:        "ACTIVE_ATTACHED",
		layout:       model.LayoutGrid,
		participants: []string{first.peerURI, second.peerURI},
		muted:        make(map[string]bool),
	}
	d.confs[id] = conf
	first.confID = id
	second.confID = id
	d.emit(daemon.ConferenceCreated{AccountID: accountID, ConferenceID: id})
	d.emit(daemon.ConferenceInfoUpdated{ConferenceID: id, ParticipantInfos: conf.infos()})
	return nil
}

// AddParticipant moves a live call into an existing conference.
func (d *Daemon) AddParticipant(_ context.Context, accountID, callID, confAccountID, conferenceID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	c, err := d.liveCall(callID)
	if err != nil {
		return err
	}
	conf, err := d.conference(conferenceID)
	if err != nil {
		return err
	}
	c.confID = conferenceID
	conf.participants = append(conf.participants, c.peerURI)
	d.emit(daemon.ConferenceChanged{AccountID: confAccountID, ConferenceID: conferenceID, State: conf.state})
	d.emit(daemon.ConferenceInfoUpdated{ConferenceID: conferenceID, ParticipantInfos: conf.infos()})
	return nil
}

// HangUpConference ends the conference and every call merged into it.
func (d *Daemon) HangUpConference(_ context.Context, accountID, conferenceID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, err := d.conference(conferenceID); err != nil {
		return err
	}
	for _, c := range d.calls {
		if c.confID == conferenceID && !c.terminal() {
			c.state = wireCallHungup
			d.emit(daemon.CallStateChanged{AccountID: c.accountID, CallID: c.id, State: wireCallHungup})
		}
	}
	delete(d.confs, conferenceID)
	d.emit(daemon.ConferenceRemoved{AccountID: accountID, ConferenceID: conferenceID})
	return nil
}

func (d *Daemon) ConferenceDetails(_ context.Context, accountID, conferenceID string) (map[string]string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	conf, err := d.conference(conferenceID)
	if err != nil {
		return nil, err
	}
	return map[string]string{
		"ID":           conf.id,
		"STATE":        conf.state,
		"LAYOUT":       string(conf.layout),
		"PARTICIPANTS": fmt.Sprintf("%d", len(conf.participants)),
	}, nil
}

func (d *Daemon) ConferenceParticipants(_ context.Context, accountID, conferenceID string) ([]string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	conf, err := d.conference(conferenceID)
	if err != nil {
		return nil, err
	}
	return append([]string(nil), conf.participants...), nil
}

func (d *Daemon) ConferenceInfos(_ context.Context, accountID, conferenceID string) ([]map[string]string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	conf, err := d.conference(conferenceID)
	if err != nil {
		return nil, err
	}
	return conf.infos(), nil
}

func (d *Daemon) SetConferenceLayout(_ context.Context, accountID, conferenceID string, layout model.ConferenceLayout) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	conf, err := d.conference(conferenceID)
	if err != nil {
		return err
	}
	conf.layout = layout
	d.emit(daemon.ConferenceInfoUpdated{ConferenceID: conferenceID, ParticipantInfos: conf.infos()})
	return nil
}

func (d *Daemon) MuteParticipant(_ context.Context, accountID, conferenceID, participantURI string, muted bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	conf, err := d.conference(conferenceID)
	if err != nil {
		return err
	}
	conf.muted[participantURI] = muted
	d.emit(daemon.ConferenceInfoUpdated{ConferenceID: conferenceID, ParticipantInfos: conf.infos()})
	return nil
}

// HangUpParticipant drops one peer from the conference without ending it.
func (d *Daemon) HangUpParticipant(_ context.Context, accountID, conferenceID, participantURI, deviceID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	conf, err := d.conference(conferenceID)
	if err != nil {
		return err
	}
	for i, uri := range conf.participants {
		if uri == participantURI {
			conf.participants = append(conf.participants[:i], conf.participants[i+1:]...)
			break
		}
	}
	delete(conf.muted, participantURI)
	for _, c := range d.calls {
		if c.confID == conferenceID && c.peerURI == participantURI && !c.terminal() {
			c.state = wireCallHungup
			d.emit(daemon.CallStateChanged{AccountID: c.accountID, CallID: c.id, State: wireCallHungup})
		}
	}
	d.emit(daemon.ConferenceInfoUpdated{ConferenceID: conferenceID, ParticipantInfos: conf.infos()})
	return nil
}

// conference resolves a known conference. Caller holds d.mu.
func (d *Daemon) conference(conferenceID string) (*confSim, error) {
	if err := d.ensureRunning(); err != nil {
		return nil, err
	}
	conf, ok := d.confs[conferenceID]
	if !ok {
		return nil, fmt.Errorf("no such conference %q", conferenceID)
	}
	return conf, nil
}
