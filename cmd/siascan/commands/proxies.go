package commands

import (
	"errors"
	"fmt"
	"os"

	"courseatlas-backend/lib/proxypool"
	"courseatlas-backend/lib/serviceutil"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var proxiesAll *bool

func init() {
	proxiesAll = proxiesListCmd.Flags().Bool("all", false, "Bypass health filters and print the whole pool.")
	proxiesCmd.AddCommand(proxiesAddCmd)
	proxiesCmd.AddCommand(proxiesListCmd)
	rootCmd.AddCommand(proxiesCmd)
}

var proxiesCmd = &cobra.Command{
	Use:   "proxies",
	Short: "Manages the outbound proxy pool.",
}

var proxiesAddCmd = &cobra.Command{
	Use:   "add <host:port> [<host:port> ...]",
	Short: "Registers proxies in the pool.",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		registry := proxypool.NewRegistry(openStore(), proxypool.DefaultOptions())
		for _, address := range args {
			err := registry.Put(cmd.Context(), proxypool.Proxy{Address: address})
			if err != nil {
				serviceutil.Fatal("failed to register proxy", err)
			}
			fmt.Println("registered", address)
		}
	},
}

var proxiesListCmd = &cobra.Command{
	Use:   "list [--all]",
	Short: "Prints usable proxies with their health counters.",
	Run: func(cmd *cobra.Command, args []string) {
		registry := proxypool.NewRegistry(openStore(), proxypool.DefaultOptions())
		registry.Debug = *proxiesAll

		proxies, err := registry.ListUsable(cmd.Context())
		if errors.Is(err, proxypool.ErrNoProxies) {
			fmt.Fprintln(os.Stderr, "no proxies registered")
			return
		}
		if err != nil {
			serviceutil.Fatal("failed to list proxies", err)
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Address", "Score", "Dead", "Alive", "Timeout (s)", "Disabled"})
		for _, p := range proxies {
			t.AppendRow(table.Row{
				p.Address,
				fmt.Sprintf("%.2f", p.Score()),
				p.TimesDead,
				p.TimesAlive,
				fmt.Sprintf("%.1f", p.Timeout),
				p.Disabled,
			})
		}
		t.SetStyle(table.StyleRounded)
		t.Render()
	},
}
