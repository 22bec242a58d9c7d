package emulated

import (
	"context"
	"fmt"
)

// Fixed device inventory of the emulated host.
var (
	videoDevices       = []string{"camera-front", "camera-back"}
	audioOutputDevices = []string{"speaker", "earpiece", "headset"}
	audioInputDevices  = []string{"mic-builtin", "mic-headset"}
)

func (d *Daemon) VideoDevices(_ context.Context) ([]string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.ensureRunning(); err != nil {
		return nil, err
	}
	return append([]string(nil), videoDevices...), nil
}

func (d *Daemon) CurrentVideoDevice(_ context.Context) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.ensureRunning(); err != nil {
		return "", err
	}
	return d.videoDevice, nil
}

func (d *Daemon) SetVideoDevice(_ context.Context, deviceID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.ensureRunning(); err != nil {
		return err
	}
	for _, dev := range videoDevices {
		if dev == deviceID {
			d.videoDevice = deviceID
			return nil
		}
	}
	return fmt.Errorf("no such video device %q", deviceID)
}

func (d *Daemon) StartVideo(_ context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.ensureRunning(); err != nil {
		return err
	}
	d.videoRunning = true
	return nil
}

func (d *Daemon) StopVideo(_ context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.ensureRunning(); err != nil {
		return err
	}
	d.videoRunning = false
	return nil
}

func (d *Daemon) AudioOutputDevices(_ context.Context) ([]string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.ensureRunning(); err != nil {
		return nil, err
	}
	return append([]string(nil), audioOutputDevices...), nil
}

func (d *Daemon) AudioInputDevices(_ context.Context) ([]string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.ensureRunning(); err != nil {
		return nil, err
	}
	return append([]string(nil), audioInputDevices...), nil
}

func (d *Daemon) SetAudioOutputDevice(_ context.Context, index int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.ensureRunning(); err != nil {
		return err
	}
	if index < 0 || index >= len(audioOutputDevices) {
		return fmt.Errorf("audio output index %d out of range", index)
	}
	return nil
}

func (d *Daemon) SetAudioInputDevice(_ context.Context, index int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.ensureRunning(); err != nil {
		return err
	}
	if index < 0 || index >= len(audioInputDevices) {
		return fmt.Errorf("audio input index %d out of range", index)
	}
	return nil
}
