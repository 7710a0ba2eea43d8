package cmd

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// confirmPrompt asks a yes/no question on the command's output and reads the
// answer from its input. Anything but an explicit yes declines; so does a
// closed input stream.
func confirmPrompt(cmd *cobra.Command, question string) (bool, error) {
	_, err := fmt.Fprintf(cmd.OutOrStdout(), "%s [y/N] ", question)
	if err != nil {
		return false, err
	}

	reader := bufio.NewReader(cmd.InOrStdin())
	answer, err := reader.ReadString('\n')
	if err != nil && answer == "" {
		return false, nil
	}

	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes", nil
}
