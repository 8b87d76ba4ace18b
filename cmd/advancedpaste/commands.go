package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/neptotech/betteradvancedpaste/ai/secret"
	"github.com/neptotech/betteradvancedpaste/internal/version"
	"github.com/neptotech/betteradvancedpaste/server"
)

var (
	optionsCmd = &cobra.Command{
		Use:   "options",
		Short: "Print the palette options as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			instanceProfile, err := loadProfile(cmd, nil)
			if err != nil {
				return err
			}
			sess, err := newSession(instanceProfile, false)
			if err != nil {
				return err
			}
			defer sess.Close()
			return printJSON(cmd.OutOrStdout(), sess.Paste.Options(cmd.Context()))
		},
	}

	serveCmd = &cobra.Command{
		Use:   "serve [folder]",
		Short: "Serve the palette API on localhost",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runServe,
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.StringFull())
		},
	}

	keyCmd = &cobra.Command{
		Use:   "key",
		Short: "Manage the hosted API key in the system keyring",
	}

	keySetCmd = &cobra.Command{
		Use:   "set [key]",
		Short: "Store the API key (read from stdin when omitted)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			value := ""
			if len(args) == 1 {
				value = args[0]
			} else {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("read key: %w", err)
				}
				value = line
			}
			if err := secret.NewKeyring().Set(strings.TrimSpace(value)); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "API key saved")
			return nil
		},
	}

	keyClearCmd = &cobra.Command{
		Use:   "clear",
		Short: "Remove the stored API key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := secret.NewKeyring().Clear(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "API key cleared")
			return nil
		},
	}

	keyStatusCmd = &cobra.Command{
		Use:   "status",
		Short: "Report whether an API key is stored",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			key, err := secret.NewKeyring().Get()
			if err != nil {
				return err
			}
			if key == "" {
				fmt.Fprintln(cmd.OutOrStdout(), "no API key stored")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), "API key stored")
			return nil
		},
	}
)

func init() {
	serveCmd.Flags().String("addr", "127.0.0.1", "address to listen on")
	serveCmd.Flags().Int("port", 28090, "port to listen on")
	if err := viper.BindPFlag("addr", serveCmd.Flags().Lookup("addr")); err != nil {
		panic(err)
	}
	if err := viper.BindPFlag("port", serveCmd.Flags().Lookup("port")); err != nil {
		panic(err)
	}

	keyCmd.AddCommand(keySetCmd, keyClearCmd, keyStatusCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	instanceProfile, err := loadProfile(cmd, args)
	if err != nil {
		return err
	}
	instanceProfile.Addr = viper.GetString("addr")
	instanceProfile.Port = viper.GetInt("port")

	sess, err := newSession(instanceProfile, true)
	if err != nil {
		return err
	}
	defer sess.Close()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	s, err := server.NewServer(ctx, instanceProfile, sess.Paste, sess.Metrics)
	if err != nil {
		return err
	}
	if err := s.Start(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Better Advanced Paste %s listening on http://%s\n", instanceProfile.Version, s.Addr())

	c := make(chan os.Signal, 1)
	signal.Notify(c, terminationSignals...)
	defer signal.Stop(c)

	select {
	case <-c:
	case <-ctx.Done():
	}
	s.Shutdown(context.Background())
	return nil
}
