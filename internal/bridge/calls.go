package bridge

import (
	"github.com/leiter/jami-kmp/internal/errors"
	"github.com/leiter/jami-kmp/internal/model"
	"github.com/leiter/jami-kmp/internal/state"
)

// PlaceCall starts an outgoing call and returns its id immediately. State
// transitions (ringing, current, terminal) arrive as call-state events.
func (b *Bridge) PlaceCall(accountID, uri string, withVideo bool) (string, error) {
	if err := b.requireAccount(accountID); err != nil {
		return "", err
	}
	if uri == "" {
		return "", errors.New(errors.InvalidArgument, "empty uri")
	}
	ctx, cancel := b.callCtx()
	defer cancel()
	callID, err := b.d.PlaceCall(ctx, accountID, uri, withVideo)
	if err != nil {
		return "", daemonErr("place call", err)
	}
	b.reg.EnsureCall(model.Call{
		ID:        callID,
		AccountID: accountID,
		PeerURI:   uri,
		HasVideo:  withVideo,
		State:     state.CallConnecting,
	})
	return callID, nil
}

// AcceptCall answers an incoming call.
func (b *Bridge) AcceptCall(accountID, callID string, withVideo bool) error {
	if err := b.requireLiveCall(accountID, callID); err != nil {
		return err
	}
	ctx, cancel := b.callCtx()
	defer cancel()
	return daemonErr("accept call", b.d.AcceptCall(ctx, accountID, callID, withVideo))
}

// RefuseCall rejects an incoming call. The terminal state arrives as a
// call-state event.
func (b *Bridge) RefuseCall(accountID, callID string) error {
	if err := b.requireLiveCall(accountID, callID); err != nil {
		return err
	}
	ctx, cancel := b.callCtx()
	defer cancel()
	return daemonErr("refuse call", b.d.RefuseCall(ctx, accountID, callID))
}

// HangUp ends a call. Like all cancellations, the effect is observed via
// the subsequent terminal call-state event, not an immediate acknowledgment.
func (b *Bridge) HangUp(accountID, callID string) error {
	if err := b.requireLiveCall(accountID, callID); err != nil {
		return err
	}
	ctx, cancel := b.callCtx()
	defer cancel()
	return daemonErr("hang up", b.d.HangUp(ctx, accountID, callID))
}

// HoldCall puts a call on hold.
func (b *Bridge) HoldCall(accountID, callID string) error {
	if err := b.requireLiveCall(accountID, callID); err != nil {
		return err
	}
	ctx, cancel := b.callCtx()
	defer cancel()
	return daemonErr("hold call", b.d.HoldCall(ctx, accountID, callID))
}

// UnholdCall resumes a held call.
func (b *Bridge) UnholdCall(accountID, callID string) error {
	if err := b.requireLiveCall(accountID, callID); err != nil {
		return err
	}
	ctx, cancel := b.callCtx()
	defer cancel()
	return daemonErr("unhold call", b.d.UnholdCall(ctx, accountID, callID))
}

// MuteAudio toggles the call's audio. Confirmation arrives as an
// audio-muted event.
func (b *Bridge) MuteAudio(accountID, callID string, muted bool) error {
	if err := b.requireLiveCall(accountID, callID); err != nil {
		return err
	}
	ctx, cancel := b.callCtx()
	defer cancel()
	return daemonErr("mute audio", b.d.MuteAudio(ctx, accountID, callID, muted))
}

// MuteVideo toggles the call's video.
func (b *Bridge) MuteVideo(accountID, callID string, muted bool) error {
	if err := b.requireLiveCall(accountID, callID); err != nil {
		return err
	}
	ctx, cancel := b.callCtx()
	defer cancel()
	return daemonErr("mute video", b.d.MuteVideo(ctx, accountID, callID, muted))
}

// CallDetails returns the daemon's detail map for a call. Terminal calls
// remain queryable for the rest of the session.
func (b *Bridge) CallDetails(accountID, callID string) (map[string]string, error) {
	if err := b.requireAccount(accountID); err != nil {
		return nil, err
	}
	if _, ok := b.reg.Call(callID); !ok {
		return nil, errors.New(errors.NotFound, "unknown call %q", callID)
	}
	ctx, cancel := b.callCtx()
	defer cancel()
	details, err := b.d.CallDetails(ctx, accountID, callID)
	if err != nil {
		return nil, daemonErr("call details", err)
	}
	return details, nil
}

// ActiveCalls returns the account's live call ids.
func (b *Bridge) ActiveCalls(accountID string) ([]string, error) {
	if err := b.requireAccount(accountID); err != nil {
		return nil, err
	}
	ctx, cancel := b.callCtx()
	defer cancel()
	ids, err := b.d.ActiveCalls(ctx, accountID)
	if err != nil {
		return nil, daemonErr("active calls", err)
	}
	return ids, nil
}

// SwitchCamera flips between available capture devices.
func (b *Bridge) SwitchCamera() error {
	if err := b.ensureRunning(); err != nil {
		return err
	}
	ctx, cancel := b.callCtx()
	defer cancel()
	return daemonErr("switch camera", b.d.SwitchCamera(ctx))
}

// SwitchAudioOutput routes call audio to the speaker or the earpiece.
func (b *Bridge) SwitchAudioOutput(useSpeaker bool) error {
	if err := b.ensureRunning(); err != nil {
		return err
	}
	ctx, cancel := b.callCtx()
	defer cancel()
	return daemonErr("switch audio output", b.d.SwitchAudioOutput(ctx, useSpeaker))
}

// requireLiveCall validates a call command precondition: the call must be
// cached and not yet terminal.
func (b *Bridge) requireLiveCall(accountID, callID string) error {
	if err := b.requireAccount(accountID); err != nil {
		return err
	}
	if callID == "" {
		return errors.New(errors.InvalidArgument, "empty call id")
	}
	c, ok := b.reg.Call(callID)
	if !ok {
		return errors.New(errors.NotFound, "unknown call %q", callID)
	}
	if c.State.Terminal() {
		return errors.New(errors.InvalidArgument, "call %q already ended", callID)
	}
	return nil
}
