package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"github.com/go-gum/phpserial"
	"github.com/go-gum/phpserial/internal/logutil"
	"github.com/spf13/cobra"
	"io"
	"os"
)

func NewCLI() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "phpunserialize [file]",
		Short: "Decode data written by php's serialize()",
		Long:  "Decode data written by php's serialize() from a file or stdin and print it as json or in var_dump format",
		Args:  cobra.MaximumNArgs(1),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Disable usage printing on errors
			cmd.SilenceUsage = true
		},
		RunE: RunHandler,
	}

	rootCmd.Flags().StringP("format", "f", "json", "Output format (json, dump)")
	rootCmd.Flags().Int("max-depth", phpserial.DefaultMaxDepth, "Maximum array nesting, 0 disables the limit")
	rootCmd.Flags().Bool("unsigned-only", false, "Reject integers with a sign")
	rootCmd.Flags().Bool("allow-binary", false, "Accept strings that are not valid utf-8")
	rootCmd.Flags().BoolP("verbose", "v", false, "Log parse details to stderr")
	rootCmd.Flags().Bool("trace", false, "Log even more parse details to stderr")

	return rootCmd
}

func RunHandler(cmd *cobra.Command, args []string) error {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return err
	}

	if format != "json" && format != "dump" {
		return fmt.Errorf("unknown format %q", format)
	}

	maxDepth, err := cmd.Flags().GetInt("max-depth")
	if err != nil {
		return err
	}

	unsignedOnly, err := cmd.Flags().GetBool("unsigned-only")
	if err != nil {
		return err
	}

	allowBinary, err := cmd.Flags().GetBool("allow-binary")
	if err != nil {
		return err
	}

	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		return err
	}

	trace, err := cmd.Flags().GetBool("trace")
	if err != nil {
		return err
	}

	logger := logutil.NewLogger(cmd.ErrOrStderr(), logutil.Level(verbose, trace))

	input, name, err := readInput(cmd, args)
	if err != nil {
		return err
	}

	logger.Debug("read input", "source", name, "bytes", len(input))

	parser := phpserial.NewParser().WithMaxDepth(maxDepth)
	if unsignedOnly {
		parser = parser.UnsignedOnly()
	}

	if allowBinary {
		parser = parser.AllowBinaryStrings()
	}

	logutil.Trace(logger, "parser configured", "max_depth", parser.MaxDepth(), "unsigned_only", unsignedOnly, "allow_binary", allowBinary)

	// serialized data written to a file usually ends with a newline
	value, err := parser.ParseAll(bytes.TrimRight(input, "\r\n"))
	if err != nil {
		return fmt.Errorf("parse %s: %w", name, err)
	}

	logger.Debug("parsed value", "kind", value.Kind())

	out := cmd.OutOrStdout()

	switch format {
	case "dump":
		return phpserial.Dump(out, value)

	default:
		return writeJSON(out, value)
	}
}

func readInput(cmd *cobra.Command, args []string) ([]byte, string, error) {
	if len(args) == 0 || args[0] == "-" {
		input, err := io.ReadAll(cmd.InOrStdin())
		return input, "stdin", err
	}

	input, err := os.ReadFile(args[0])
	return input, args[0], err
}

func writeJSON(w io.Writer, value phpserial.Value) error {
	encoded, err := json.Marshal(value)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := json.Indent(&buf, encoded, "", "  "); err != nil {
		return err
	}

	buf.WriteByte('\n')

	_, err = buf.WriteTo(w)
	return err
}
