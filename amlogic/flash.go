package amlogic

import (
	"bytes"
	"context"
	"fmt"

	"github.com/cenkalti/backoff/v4"
	log "github.com/sirupsen/logrus"
)

// Flasher runs the whole recovery sequence against the first matching device on Host.
type Flasher struct {
	Host Host
	Log  log.FieldLogger
	// Timer paces status polls; nil uses a real timer.
	Timer backoff.Timer
}

func (f *Flasher) logger() log.FieldLogger {
	if f.Log == nil {
		return log.StandardLogger()
	}
	return f.Log
}

// Flash locates the device, writes the image at cfg.BaseAddress and sends the boot command.
// It returns ErrDeviceNotFound, before touching any device, when nothing matches cfg.
func (f *Flasher) Flash(ctx context.Context, cfg Config, opts ...WriteOption) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	logger := f.logger()

	refs, err := f.Host.Devices()
	if err != nil {
		return transportError("list devices", err)
	}
	ref, found, err := Locate(refs, cfg.Identity())
	if err != nil {
		return err
	}
	if !found {
		return ErrDeviceNotFound
	}
	logger.WithField("device", ref.String()).Infof("Found amlogic device %s", cfg.Identity())

	h, err := f.Host.Open(ref)
	if err != nil {
		return transportError(fmt.Sprintf("open %s", ref), err)
	}
	defer func() {
		if cerr := h.Close(); cerr != nil {
			logger.WithError(cerr).Warn("Closing device failed")
		}
	}()

	data, info, err := ReadImage(cfg.ImagePath, cfg.ChunkPolicy())
	if err != nil {
		return err
	}
	logger.WithField("image", cfg.ImagePath).Info(info.String())

	poller := &Poller{
		Interval: cfg.PollInterval,
		MaxPolls: cfg.MaxPolls,
		Timer:    f.Timer,
		Log:      logger,
	}
	opts = append([]WriteOption{WithChunkPolicy(cfg.ChunkPolicy()), WithPoller(poller)}, opts...)
	res, err := WriteMemory(ctx, h, cfg.BaseAddress, bytes.NewReader(data), opts...)
	if err != nil {
		return err
	}
	logger.WithFields(log.Fields{"chunks": res.Chunks, "bytes": res.Bytes}).Info("Image written")

	if err := BulkCmd(ctx, h, cfg.Command(), poller); err != nil {
		return err
	}
	logger.Infof("Device executing from 0x%08x", cfg.BaseAddress)
	return nil
}

// Found is a device recognised by Survey.
type Found struct {
	Ref      DeviceRef
	Identity Identity
	Mode     Mode
}

// Survey reports every attached device whose identity belongs to a known boot mode.
func Survey(h Host) ([]Found, error) {
	refs, err := h.Devices()
	if err != nil {
		return nil, transportError("list devices", err)
	}
	var res []Found
	for _, ref := range refs {
		id, err := ref.Identity()
		if err != nil {
			return res, transportError(fmt.Sprintf("read descriptor of %s", ref), err)
		}
		if mode := Classify(id); mode != ModeUnknown {
			res = append(res, Found{Ref: ref, Identity: id, Mode: mode})
		}
	}
	return res, nil
}
