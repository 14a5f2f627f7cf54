package display

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

// EnvOutput selects the output mode when no flag is given ("json" or "text")
const EnvOutput = "CHRONICLE_OUTPUT"

// ShouldOutputJSON determines if a command should output JSON based on flags
// and the CHRONICLE_OUTPUT environment variable
func ShouldOutputJSON(cmd *cobra.Command) bool {
	if cmd == nil {
		return os.Getenv(EnvOutput) == "json"
	}

	// An explicit --json on the command wins either way
	if cmd.Flags().Changed("json") {
		jsonFlag, _ := cmd.Flags().GetBool("json")
		return jsonFlag
	}

	if globalFlag, _ := cmd.Root().PersistentFlags().GetBool("json"); globalFlag {
		return true
	}

	return os.Getenv(EnvOutput) == "json"
}

// OutputJSON marshals v with MarshalJSON and prints it to w
func OutputJSON(w io.Writer, v interface{}) error {
	data, err := MarshalJSON(v)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
