package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/saturnino-fabrica-de-software/classroll/internal/domain"
)

var recognizeCmd = &cobra.Command{
	Use:   "recognize",
	Short: "Show which enrolled students the recognizer finds in an image",
	Long: `Runs the same recognition as attendance marking, without recording anything.

Examples:
  classrollctl recognize --image ./class.jpg
  classrollctl recognize --image ./class.jpg --json`,
	RunE: runRecognize,
}

func init() {
	rootCmd.AddCommand(recognizeCmd)

	recognizeCmd.Flags().String("image", "", "Path to the image")
	recognizeCmd.Flags().Bool("json", false, "Output as JSON")
	_ = recognizeCmd.MarkFlagRequired("image")
}

func runRecognize(cmd *cobra.Command, args []string) error {
	image, err := os.ReadFile(mustGetString(cmd, "image"))
	if err != nil {
		return fmt.Errorf("read image: %w", err)
	}

	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	result, err := a.faces.Recognize(ctx, image)
	if err != nil {
		return err
	}

	if mustGetBool(cmd, "json") {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	printRecognition(cmd.OutOrStdout(), result)
	return nil
}

func printRecognition(w io.Writer, result *domain.RecognitionResult) {
	fmt.Fprintf(w, "%s\n", result.Message)
	fmt.Fprintf(w, "Faces detected: %d, recognized: %d, unrecognized: %d\n",
		result.FacesDetected, result.FacesRecognized, result.FacesUnrecognized)

	if len(result.RecognizedStudents) == 0 {
		return
	}

	fmt.Fprintln(w)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "FACE\tSTUDENT\tSIMILARITY\tBOX")
	for _, m := range result.RecognizedStudents {
		fmt.Fprintf(tw, "%d\t%s\t%.4f\t%d,%d %dx%d\n",
			m.FaceIndex, m.StudentID, m.SimilarityScore,
			m.Location.X, m.Location.Y, m.Location.Width, m.Location.Height)
	}
	_ = tw.Flush()
}
