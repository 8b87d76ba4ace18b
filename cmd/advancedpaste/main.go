package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/neptotech/betteradvancedpaste/ai/paste"
)

var (
	rootCmd = &cobra.Command{
		Use:   "advancedpaste [folder]",
		Short: `Rewrite the clipboard text with a completion model and save the result as a file.`,
		Long: `Captures the clipboard once, runs the chosen instruction against a local
completion server or a hosted chat-completion API, and writes the result to a
file in folder (default: the working directory). Without --action or --text
the palette options are printed.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// A missing .env is fine.
			_ = godotenv.Load()
			setupLogger(cmd.ErrOrStderr(), viper.GetBool("debug"))
			return nil
		},
		RunE: runRoot,
	}
)

func init() {
	rootCmd.PersistentFlags().String("config", "", "path to conf.json (default: next to the executable)")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	rootCmd.PersistentFlags().String("driver", "", `prompt store driver, "file" or "sqlite"`)
	rootCmd.PersistentFlags().String("dsn", "", "sqlite database path")
	rootCmd.PersistentFlags().Bool("save-history", false, "remember submitted instructions as palette options")
	rootCmd.Flags().String("action", "", "run the palette option with this title")
	rootCmd.Flags().String("text", "", "run a free-text instruction")
	rootCmd.MarkFlagsMutuallyExclusive("action", "text")

	for _, name := range []string{"config", "debug", "driver", "dsn", "save-history"} {
		if err := viper.BindPFlag(name, rootCmd.PersistentFlags().Lookup(name)); err != nil {
			panic(err)
		}
	}
	for _, name := range []string{"action", "text"} {
		if err := viper.BindPFlag(name, rootCmd.Flags().Lookup(name)); err != nil {
			panic(err)
		}
	}

	rootCmd.AddCommand(optionsCmd, serveCmd, keyCmd, versionCmd)
}

func runRoot(cmd *cobra.Command, args []string) error {
	instanceProfile, err := loadProfile(cmd, args)
	if err != nil {
		return err
	}

	sess, err := newSession(instanceProfile, true)
	if err != nil {
		return err
	}
	defer sess.Close()

	ctx := cmd.Context()
	var result paste.Result
	switch {
	case cmd.Flags().Changed("action"):
		result = sess.Paste.Action(ctx, viper.GetString("action"))
	case cmd.Flags().Changed("text"):
		result = sess.Paste.SubmitText(ctx, viper.GetString("text"))
	default:
		return printJSON(cmd.OutOrStdout(), sess.Paste.Options(ctx))
	}
	sess.Paste.Wait()

	if err := printJSON(cmd.OutOrStdout(), result); err != nil {
		return err
	}
	if result.Status != paste.StatusOK {
		return errRewriteFailed
	}
	return nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		if err != errRewriteFailed {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}
