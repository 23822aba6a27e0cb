// Copyright © 2019 Marcus Mengs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gosuri/uiprogress"
	"github.com/mame82/amlboot/amlogic"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var (
	tmpConfigPath   = ""
	tmpImagePath    = amlogic.DefaultImagePath
	tmpBaseAddress  = amlogic.DefaultBaseAddress
	tmpVendorID     = amlogic.BurnIdentity.Vendor
	tmpProductID    = amlogic.BurnIdentity.Product
	tmpBootCommand  = ""
	tmpPadPartial   = false
	tmpPollInterval = amlogic.DefaultPollInterval
	tmpMaxPolls     = 0
	tmpTimeout      time.Duration
	tmpNoProgress   = false
)

// pollTimer paces status polls; nil uses a real timer.
var pollTimer backoff.Timer

// flashConfig starts from the config file (or the defaults) and applies every flag given on the command line.
func flashConfig(flags *pflag.FlagSet) (amlogic.Config, error) {
	cfg := amlogic.DefaultConfig()
	if tmpConfigPath != "" {
		var err error
		if cfg, err = amlogic.LoadConfig(tmpConfigPath); err != nil {
			return cfg, err
		}
	}

	if flags.Changed("image") {
		cfg.ImagePath = tmpImagePath
	}
	if flags.Changed("base") {
		cfg.BaseAddress = tmpBaseAddress
	}
	if flags.Changed("vid") {
		cfg.VendorID = tmpVendorID
	}
	if flags.Changed("pid") {
		cfg.ProductID = tmpProductID
	}
	if flags.Changed("boot-cmd") {
		cfg.BootCommand = tmpBootCommand
	}
	if flags.Changed("pad") {
		cfg.PadPartial = tmpPadPartial
	}
	if flags.Changed("poll-interval") {
		cfg.PollInterval = tmpPollInterval
	}
	if flags.Changed("max-polls") {
		cfg.MaxPolls = tmpMaxPolls
	}
	return cfg, cfg.Validate()
}

// progressBar renders the write progress in image bytes. It returns nil when the image size is unknown.
func progressBar(path string) (*uiprogress.Progress, amlogic.ProgressFunc) {
	fi, err := os.Stat(path)
	if err != nil || fi.Size() == 0 {
		return nil, nil
	}
	p := uiprogress.New()
	bar := p.AddBar(int(fi.Size())).PrependFunc(func(b *uiprogress.Bar) string {
		return "   write:  " + path
	}).AppendCompleted()
	return p, func(pr amlogic.Progress) {
		bar.Set(pr.Bytes)
	}
}

func FlashImage(ctx context.Context, host amlogic.Host, cfg amlogic.Config, showProgress bool) error {
	var opts []amlogic.WriteOption
	if showProgress {
		if p, fn := progressBar(cfg.ImagePath); p != nil {
			p.Start()
			defer p.Stop()
			opts = append(opts, amlogic.WithProgress(fn))
		}
	}

	f := &amlogic.Flasher{
		Host:  host,
		Log:   log.StandardLogger(),
		Timer: pollTimer,
	}
	return f.Flash(ctx, cfg, opts...)
}

var flashCmd = &cobra.Command{
	Use:   "flash",
	Short: "Write a bootloader image to device RAM and start it",
	Long: `Writes the image to device memory at the base address in 64 byte chunks, waits
for the ROM to acknowledge it and sends the boot command ("go <base>" unless
--boot-cmd is given).

Settings come from --config when given, flags override single values.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := flashConfig(cmd.Flags())
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		if tmpTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, tmpTimeout)
			defer cancel()
		}

		host, err := newHost()
		if err != nil {
			return fmt.Errorf("can not access USB: %w", err)
		}
		defer host.Close()

		return FlashImage(ctx, host, cfg, !tmpNoProgress && !verbose)
	},
}

func init() {
	rootCmd.AddCommand(flashCmd)
	flashCmd.Flags().StringVarP(&tmpConfigPath, "config", "c", "", "YAML file with flash settings")
	flashCmd.Flags().StringVarP(&tmpImagePath, "image", "i", tmpImagePath, "path to the bootloader image")
	flashCmd.Flags().Uint32VarP(&tmpBaseAddress, "base", "b", tmpBaseAddress, "load address in device memory")
	flashCmd.Flags().Uint16Var(&tmpVendorID, "vid", tmpVendorID, "USB vendor ID of the device in burn mode")
	flashCmd.Flags().Uint16Var(&tmpProductID, "pid", tmpProductID, "USB product ID of the device in burn mode")
	flashCmd.Flags().StringVar(&tmpBootCommand, "boot-cmd", "", "command sent after the write (default \"go <base>\")")
	flashCmd.Flags().BoolVar(&tmpPadPartial, "pad", false, "zero-pad and send a trailing partial chunk instead of dropping it")
	flashCmd.Flags().DurationVar(&tmpPollInterval, "poll-interval", tmpPollInterval, "wait between status reads")
	flashCmd.Flags().IntVar(&tmpMaxPolls, "max-polls", 0, "give up after this many status reads per step (0 polls forever)")
	flashCmd.Flags().DurationVar(&tmpTimeout, "timeout", 0, "abort the whole run after this long")
	flashCmd.Flags().BoolVar(&tmpNoProgress, "no-progress", false, "do not draw a progress bar")
}
