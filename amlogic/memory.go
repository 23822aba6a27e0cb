package amlogic

import (
	"context"
	"errors"
	"fmt"
	"io"

	log "github.com/sirupsen/logrus"
)

// ChunkPolicy decides what happens to a trailing chunk shorter than ChunkSize.
type ChunkPolicy int

const (
	// DropPartial stops at the last full chunk; trailing bytes are not sent.
	DropPartial ChunkPolicy = iota
	// PadPartial zero-fills the trailing chunk and sends it.
	PadPartial
)

func (c ChunkPolicy) String() string {
	switch c {
	case DropPartial:
		return "drop"
	case PadPartial:
		return "pad"
	}
	return fmt.Sprintf("ChunkPolicy(%d)", int(c))
}

// Progress is passed to the progress callback after every chunk.
type Progress struct {
	Chunk   int
	Address uint32
	// Bytes counts image bytes sent so far, padding excluded.
	Bytes int
}

type ProgressFunc func(Progress)

type writeConfig struct {
	policy   ChunkPolicy
	progress ProgressFunc
	poller   *Poller
}

// WriteOption configures WriteMemory.
type WriteOption func(*writeConfig)

func WithChunkPolicy(policy ChunkPolicy) WriteOption {
	return func(c *writeConfig) {
		c.policy = policy
	}
}

func WithProgress(fn ProgressFunc) WriteOption {
	return func(c *writeConfig) {
		c.progress = fn
	}
}

// WithPoller sets the poller used for the completion wait after the last chunk.
func WithPoller(p *Poller) WriteOption {
	return func(c *writeConfig) {
		c.poller = p
	}
}

// WriteResult describes what WriteMemory put on the wire.
type WriteResult struct {
	Chunks int
	Bytes  int
	// Dropped is the number of trailing bytes left unsent under DropPartial.
	Dropped int
}

// WriteMemory streams r into device memory starting at base, one ChunkSize control transfer
// per chunk, then waits for the device to acknowledge the whole image.
//
// A failed transfer aborts the write and leaves device memory partially written.
func WriteMemory(ctx context.Context, h Handle, base uint32, r io.Reader, opts ...WriteOption) (WriteResult, error) {
	cfg := writeConfig{policy: DropPartial}
	for _, opt := range opts {
		opt(&cfg)
	}
	logger := cfg.poller.logger()

	var res WriteResult
	chunk := make([]byte, ChunkSize)
	offset := uint32(0)
	for {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		n, err := io.ReadFull(r, chunk)
		if errors.Is(err, io.EOF) {
			break
		}
		last := false
		if errors.Is(err, io.ErrUnexpectedEOF) {
			if cfg.policy == DropPartial {
				res.Dropped = n
				logger.WithField("bytes", n).Warn("Trailing partial chunk not sent")
				break
			}
			for i := n; i < len(chunk); i++ {
				chunk[i] = 0
			}
			last = true
		} else if err != nil {
			return res, fmt.Errorf("read image at offset %#x: %w", offset, err)
		}

		addr := base + offset
		value, index := splitAddress(addr)
		if _, err := h.Control(RequestTypeVendorOut, uint8(ReqWriteMem), value, index, chunk, ControlTimeout); err != nil {
			return res, transportError(fmt.Sprintf("write chunk %d at 0x%08x", res.Chunks, addr), err)
		}
		res.Chunks++
		res.Bytes += n
		offset += ChunkSize

		logger.WithFields(log.Fields{"addr": fmt.Sprintf("0x%08x", addr), "chunk": res.Chunks}).Trace("Chunk written")
		if cfg.progress != nil {
			cfg.progress(Progress{Chunk: res.Chunks, Address: addr, Bytes: res.Bytes})
		}
		if last {
			break
		}
	}

	logger.WithFields(log.Fields{
		"base":   fmt.Sprintf("0x%08x", base),
		"chunks": res.Chunks,
		"bytes":  res.Bytes,
	}).Info("Image sent, waiting for device")

	if err := cfg.poller.Wait(ctx, h); err != nil {
		return res, fmt.Errorf("write memory at 0x%08x: %w", base, err)
	}
	return res, nil
}
