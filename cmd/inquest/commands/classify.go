package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/inquesthq/inquest/internal/analysis"
	"github.com/inquesthq/inquest/internal/logging"
	"github.com/spf13/cobra"
)

var (
	classifyMessage  string
	classifyCode     string
	classifyCritical bool
	classifySource   string
)

var classifyCmd = &cobra.Command{
	Use:   "classify",
	Short: "Classify an error without running the analysis pipeline",
	Long: `Classify derives the error type, severity, and originating domain for a
single error record and prints the classification as JSON.`,
	Run: runClassify,
}

func init() {
	classifyCmd.Flags().StringVar(&classifyMessage, "message", "", "Error message to classify (required)")
	classifyCmd.Flags().StringVar(&classifyCode, "code", "", "Machine error code (e.g. ETIMEDOUT)")
	classifyCmd.Flags().BoolVar(&classifyCritical, "critical", false, "Mark the error as critical")
	classifyCmd.Flags().StringVar(&classifySource, "source", "", "Component that raised the error")
}

func runClassify(cmd *cobra.Command, args []string) {
	if err := setupLog(logLevelFlags); err != nil {
		HandleError(err, "Failed to setup logging")
	}
	logging.SetOutput(os.Stderr)
	if classifyMessage == "" {
		HandleError(fmt.Errorf("--message is required"), "Invalid arguments")
	}

	rec := analysis.ErrorRecord{
		Message:  classifyMessage,
		Code:     classifyCode,
		Critical: classifyCritical,
	}
	cls := analysis.Classify(rec, &analysis.AnalysisContext{Source: classifySource})

	out, err := json.MarshalIndent(cls, "", "  ")
	HandleError(err, "Failed to encode classification")
	fmt.Println(string(out))
}
