package amlogic

import (
	"context"
	"fmt"
)

// BulkCmd sends a text command to the ROM and blocks until the device reports completion.
func BulkCmd(ctx context.Context, h Handle, command string, p *Poller) error {
	p.logger().WithField("cmd", command).Info("Sending command")

	data := []byte(command)
	if _, err := h.Control(RequestTypeVendorOut, uint8(ReqBulkCmd), 0, BulkCmdIndex, data, ControlTimeout); err != nil {
		return transportError(fmt.Sprintf("send command %q", command), err)
	}

	if err := p.Wait(ctx, h); err != nil {
		return fmt.Errorf("command %q: %w", command, err)
	}
	return nil
}
