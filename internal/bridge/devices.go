package bridge

import "github.com/leiter/jami-kmp/internal/errors"

// VideoDevices lists available capture devices.
func (b *Bridge) VideoDevices() ([]string, error) {
	if err := b.ensureRunning(); err != nil {
		return nil, err
	}
	ctx, cancel := b.callCtx()
	defer cancel()
	devices, err := b.d.VideoDevices(ctx)
	if err != nil {
		return nil, daemonErr("video devices", err)
	}
	return devices, nil
}

// CurrentVideoDevice returns the selected capture device id.
func (b *Bridge) CurrentVideoDevice() (string, error) {
	if err := b.ensureRunning(); err != nil {
		return "", err
	}
	ctx, cancel := b.callCtx()
	defer cancel()
	id, err := b.d.CurrentVideoDevice(ctx)
	if err != nil {
		return "", daemonErr("current video device", err)
	}
	return id, nil
}

// SetVideoDevice selects the capture device.
func (b *Bridge) SetVideoDevice(deviceID string) error {
	if err := b.ensureRunning(); err != nil {
		return err
	}
	if deviceID == "" {
		return errors.New(errors.InvalidArgument, "empty device id")
	}
	ctx, cancel := b.callCtx()
	defer cancel()
	return daemonErr("set video device", b.d.SetVideoDevice(ctx, deviceID))
}

// StartVideo opens the local capture pipeline.
func (b *Bridge) StartVideo() error {
	if err := b.ensureRunning(); err != nil {
		return err
	}
	ctx, cancel := b.callCtx()
	defer cancel()
	return daemonErr("start video", b.d.StartVideo(ctx))
}

// StopVideo closes the local capture pipeline.
func (b *Bridge) StopVideo() error {
	if err := b.ensureRunning(); err != nil {
		return err
	}
	ctx, cancel := b.callCtx()
	defer cancel()
	return daemonErr("stop video", b.d.StopVideo(ctx))
}

// AudioOutputDevices lists playback devices.
func (b *Bridge) AudioOutputDevices() ([]string, error) {
	if err := b.ensureRunning(); err != nil {
		return nil, err
	}
	ctx, cancel := b.callCtx()
	defer cancel()
	devices, err := b.d.AudioOutputDevices(ctx)
	if err != nil {
		return nil, daemonErr("audio output devices", err)
	}
	return devices, nil
}

// AudioInputDevices lists capture devices.
func (b *Bridge) AudioInputDevices() ([]string, error) {
	if err := b.ensureRunning(); err != nil {
		return nil, err
	}
	ctx, cancel := b.callCtx()
	defer cancel()
	devices, err := b.d.AudioInputDevices(ctx)
	if err != nil {
		return nil, daemonErr("audio input devices", err)
	}
	return devices, nil
}

// SetAudioOutputDevice selects a playback device by index.
func (b *Bridge) SetAudioOutputDevice(index int) error {
	if err := b.ensureRunning(); err != nil {
		return err
	}
	if index < 0 {
		return errors.New(errors.InvalidArgument, "negative device index")
	}
	ctx, cancel := b.callCtx()
	defer cancel()
	return daemonErr("set audio output device", b.d.SetAudioOutputDevice(ctx, index))
}

// SetAudioInputDevice selects a capture device by index.
func (b *Bridge) SetAudioInputDevice(index int) error {
	if err := b.ensureRunning(); err != nil {
		return err
	}
	if index < 0 {
		return errors.New(errors.InvalidArgument, "negative device index")
	}
	ctx, cancel := b.callCtx()
	defer cancel()
	return daemonErr("set audio input device", b.d.SetAudioInputDevice(ctx, index))
}
