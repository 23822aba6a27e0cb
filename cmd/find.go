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
	"fmt"

	"github.com/google/gousb/usbid"
	"github.com/mame82/amlboot/amlogic"
	"github.com/spf13/cobra"
)

var findCmd = &cobra.Command{
	Use:   "find",
	Short: "List attached Amlogic devices and their boot mode",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		host, err := newHost()
		if err != nil {
			return fmt.Errorf("can not access USB: %w", err)
		}
		defer host.Close()

		found, err := amlogic.Survey(host)
		if err != nil {
			return err
		}
		if len(found) == 0 {
			return amlogic.ErrDeviceNotFound
		}
		out := cmd.OutOrStdout()
		for _, f := range found {
			fmt.Fprintf(out, "%s: %s", f.Ref, f.Mode)
			if dev, ok := f.Ref.(*amlogic.USBDevice); ok {
				fmt.Fprintf(out, " (%s)", usbid.Describe(dev.Desc))
			}
			fmt.Fprintln(out)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(findCmd)
}
