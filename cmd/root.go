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
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/mame82/amlboot/amlogic"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const (
	exitOK       = 0
	exitNotFound = 1
	exitFailure  = 2
)

var verbose bool

// newHost opens the USB host; replaced in tests.
var newHost = func() (amlogic.Host, error) {
	return amlogic.NewUSBHost(), nil
}

var rootCmd = &cobra.Command{
	Use:   "amlboot",
	Short: "Load and start a bootloader on Amlogic SoCs in USB burn mode",
	Long: `amlboot talks to the mask ROM of an Amlogic SoC that enumerated in USB burn mode
(1b8e:c003). It writes a bootloader image into device RAM and tells the ROM to
jump to it.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
		if verbose {
			log.SetLevel(log.DebugLevel)
		} else {
			log.SetLevel(log.InfoLevel)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print every poll and transfer")
}

// Execute runs the command line and returns the process exit status.
func Execute() int {
	return execute(os.Args[1:], os.Stderr)
}

func execute(args []string, stderr io.Writer) int {
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, amlogic.ErrDeviceNotFound):
		fmt.Fprintln(stderr, "No amlogic device found")
		return exitNotFound
	}
	fmt.Fprintf(stderr, "Error: %v\n", err)
	return exitFailure
}
