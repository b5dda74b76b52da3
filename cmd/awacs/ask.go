package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/OpenRadar/awacs/internal/api"
	"github.com/spf13/cobra"
)

var serverURL string

var askCmd = &cobra.Command{
	Use:   "ask <radio call>",
	Short: "Send a radio command to a running controller",
	Example: `  awacs ask "Viper 1-1 picture"
  awacs ask Viper 1-1 bogey dope`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reply, err := api.New(serverURL).Ask(strings.Join(args, " "))
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), reply)
		return nil
	},
}

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Print the status and recent log of a running controller",
	RunE: func(cmd *cobra.Command, _ []string) error {
		st, err := api.New(serverURL).State()
		if err != nil {
			return err
		}
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(st)
		}

		out := cmd.OutOrStdout()
		s := st.Status
		fmt.Fprintf(out, "connected=%t simTime=%.1f weaponsFree=%t mission=%q\n", s.Connected, s.SimTime, st.WeaponsFree, s.Mission)
		fmt.Fprintf(out, "air=%d friendly=%d hostile=%d unknown=%d missiles=%d bullseye=%t capSites=%d push=%t\n",
			s.Air, s.Friendly, s.Hostile, s.Unknown, s.Missiles, s.Bullseye, s.CAPSites, s.PushActive)
		for _, line := range st.Log {
			printAlert(out, line)
		}
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{askCmd, stateCmd} {
		c.Flags().StringVar(&serverURL, "server", "http://127.0.0.1:8088", "controller API base URL")
	}
	stateCmd.Flags().Bool("json", false, "print the raw JSON response")
}
