package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"go-base64vlq/vlq"
)

// Longest stdin line accepted. A mappings field of a bundled file easily
// runs to several megabytes on one line.
const maxInputLine = 64 * 1024 * 1024

func newDecodeCmd(a *app) *cobra.Command {
	var mappings bool

	cmd := &cobra.Command{
		Use:   "decode [segment...]",
		Short: "Decode Base64 VLQ segments",
		Long: `Decode each argument, or each line of standard input when no arguments
are given, and print the decoded integers separated by spaces.`,
		Example: `  vlq decode AAAA SAAQ hB
  echo 'AAAA,SAAQ;AACA' | vlq decode --mappings`,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			if len(args) > 0 {
				for i, input := range args {
					if err := decodeInput(a, out, input, mappings); err != nil {
						return fmt.Errorf("argument %d: %w", i+1, err)
					}
				}
				return nil
			}

			scanner := bufio.NewScanner(cmd.InOrStdin())
			scanner.Buffer(make([]byte, 0, 64*1024), maxInputLine)
			for n := 1; scanner.Scan(); n++ {
				if err := decodeInput(a, out, strings.TrimSpace(scanner.Text()), mappings); err != nil {
					return fmt.Errorf("line %d: %w", n, err)
				}
			}
			return scanner.Err()
		},
	}

	cmd.Flags().BoolVarP(&mappings, "mappings", "m", false, "Treat input as a source map mappings field (';' between lines, ',' between segments)")

	return cmd
}

func decodeInput(a *app, out io.Writer, input string, mappings bool) error {
	a.logger.Debug("Decoding", "length", len(input), "mappings", mappings)

	if !mappings {
		values, err := vlq.Decode(input)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, formatValues(values))
		return err
	}

	lines, err := vlq.DecodeMappings(input)
	if err != nil {
		return err
	}

	a.logger.Debug("Decoded mappings", "lines", len(lines))
	if len(lines) == 0 {
		// Keep one output line per blank input, as in plain mode.
		_, err = fmt.Fprintln(out)
		return err
	}
	for _, segments := range lines {
		if _, err := fmt.Fprintln(out, formatSegments(segments)); err != nil {
			return err
		}
	}

	return nil
}

func formatValues(values []int) string {
	fields := make([]string, len(values))
	for i, v := range values {
		fields[i] = strconv.Itoa(v)
	}

	return strings.Join(fields, " ")
}

func formatSegments(segments [][]int) string {
	fields := make([]string, len(segments))
	for i, values := range segments {
		fields[i] = formatValues(values)
	}

	return strings.Join(fields, ", ")
}
