package bridge

import (
	"github.com/leiter/jami-kmp/internal/errors"
	"github.com/leiter/jami-kmp/internal/model"
)

// CreateConference merges calls to the given participants into a new
// conference and returns its id.
func (b *Bridge) CreateConference(accountID string, participantURIs []string) (string, error) {
	if err := b.requireAccount(accountID); err != nil {
		return "", err
	}
	if len(participantURIs) == 0 {
		return "", errors.New(errors.InvalidArgument, "no participants")
	}
	ctx, cancel := b.callCtx()
	defer cancel()
	id, err := b.d.CreateConference(ctx, accountID, participantURIs)
	if err != nil {
		return "", daemonErr("create conference", err)
	}
	b.reg.EnsureConference(model.Conference{
		ID:           id,
		AccountID:    accountID,
		Layout:       model.LayoutGrid,
		Participants: participantURIs,
	})
	return id, nil
}

// JoinParticipant merges two ongoing calls into a conference. The daemon
// reports the result through a conference-created event.
func (b *Bridge) JoinParticipant(accountID, callID, accountID2, callID2 string) error {
	if err := b.requireLiveCall(accountID, callID); err != nil {
		return err
	}
	if err := b.requireLiveCall(accountID2, callID2); err != nil {
		return err
	}
	ctx, cancel := b.callCtx()
	defer cancel()
	return daemonErr("join participant", b.d.JoinParticipant(ctx, accountID, callID, accountID2, callID2))
}

// AddParticipant folds an ongoing call into an existing conference.
func (b *Bridge) AddParticipant(accountID, callID, confAccountID, conferenceID string) error {
	if err := b.requireLiveCall(accountID, callID); err != nil {
		return err
	}
	if err := b.requireConference(confAccountID, conferenceID); err != nil {
		return err
	}
	ctx, cancel := b.callCtx()
	defer cancel()
	return daemonErr("add participant", b.d.AddParticipant(ctx, accountID, callID, confAccountID, conferenceID))
}

// HangUpConference ends a conference. The removal arrives as a
// conference-removed event.
func (b *Bridge) HangUpConference(accountID, conferenceID string) error {
	if err := b.requireConference(accountID, conferenceID); err != nil {
		return err
	}
	ctx, cancel := b.callCtx()
	defer cancel()
	return daemonErr("hang up conference", b.d.HangUpConference(ctx, accountID, conferenceID))
}

// ConferenceDetails returns the daemon's detail map for a conference.
func (b *Bridge) ConferenceDetails(accountID, conferenceID string) (map[string]string, error) {
	if err := b.requireConference(accountID, conferenceID); err != nil {
		return nil, err
	}
	ctx, cancel := b.callCtx()
	defer cancel()
	details, err := b.d.ConferenceDetails(ctx, accountID, conferenceID)
	if err != nil {
		return nil, daemonErr("conference details", err)
	}
	return details, nil
}

// ConferenceParticipants returns the conference's participant uris.
func (b *Bridge) ConferenceParticipants(accountID, conferenceID string) ([]string, error) {
	if err := b.requireConference(accountID, conferenceID); err != nil {
		return nil, err
	}
	ctx, cancel := b.callCtx()
	defer cancel()
	uris, err := b.d.ConferenceParticipants(ctx, accountID, conferenceID)
	if err != nil {
		return nil, daemonErr("conference participants", err)
	}
	return uris, nil
}

// ConferenceInfos returns the per-participant layout info list.
func (b *Bridge) ConferenceInfos(accountID, conferenceID string) ([]map[string]string, error) {
	if err := b.requireConference(accountID, conferenceID); err != nil {
		return nil, err
	}
	ctx, cancel := b.callCtx()
	defer cancel()
	infos, err := b.d.ConferenceInfos(ctx, accountID, conferenceID)
	if err != nil {
		return nil, daemonErr("conference infos", err)
	}
	b.reg.SetConferenceInfos(conferenceID, infos)
	return infos, nil
}

// SetConferenceLayout selects the conference video layout.
func (b *Bridge) SetConferenceLayout(accountID, conferenceID string, layout model.ConferenceLayout) error {
	if err := b.requireConference(accountID, conferenceID); err != nil {
		return err
	}
	switch layout {
	case model.LayoutGrid, model.LayoutOneBig, model.LayoutOneBigSmall:
	default:
		return errors.New(errors.InvalidArgument, "unknown layout %q", layout)
	}
	ctx, cancel := b.callCtx()
	defer cancel()
	if err := b.d.SetConferenceLayout(ctx, accountID, conferenceID, layout); err != nil {
		return daemonErr("set conference layout", err)
	}
	b.reg.SetConferenceLayout(conferenceID, layout)
	return nil
}

// MuteParticipant toggles a participant's audio in the conference mix.
func (b *Bridge) MuteParticipant(accountID, conferenceID, participantURI string, muted bool) error {
	if err := b.requireConference(accountID, conferenceID); err != nil {
		return err
	}
	if participantURI == "" {
		return errors.New(errors.InvalidArgument, "empty participant uri")
	}
	ctx, cancel := b.callCtx()
	defer cancel()
	if err := b.d.MuteParticipant(ctx, accountID, conferenceID, participantURI, muted); err != nil {
		return daemonErr("mute participant", err)
	}
	b.reg.SetParticipantMuted(conferenceID, participantURI, muted)
	return nil
}

// HangUpParticipant drops a single participant device from the conference.
func (b *Bridge) HangUpParticipant(accountID, conferenceID, participantURI, deviceID string) error {
	if err := b.requireConference(accountID, conferenceID); err != nil {
		return err
	}
	if participantURI == "" {
		return errors.New(errors.InvalidArgument, "empty participant uri")
	}
	ctx, cancel := b.callCtx()
	defer cancel()
	return daemonErr("hang up participant", b.d.HangUpParticipant(ctx, accountID, conferenceID, participantURI, deviceID))
}

// requireConference validates a conference reference without contacting
// the daemon.
func (b *Bridge) requireConference(accountID, conferenceID string) error {
	if err := b.requireAccount(accountID); err != nil {
		return err
	}
	if conferenceID == "" {
		return errors.New(errors.InvalidArgument, "empty conference id")
	}
	if _, ok := b.reg.Conference(conferenceID); !ok {
		return errors.New(errors.NotFound, "unknown conference %q", conferenceID)
	}
	return nil
}
