package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/kozaktomas/facebank/internal/config"
	"github.com/kozaktomas/facebank/internal/constants"
	"github.com/kozaktomas/facebank/internal/pipeline"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var identifyCmd = &cobra.Command{
	Use:   "identify <image>...",
	Short: "Identify the people in one or more images",
	Long: `Detect every face in each image and resolve it against the face bank.
A face that fails to embed is reported on its own; a retrieval failure fails
the whole image.

Examples:
  # Identify everyone in a photo
  facebank identify party.jpg

  # Only the largest face, with a stricter threshold, as JSON
  facebank identify portrait.jpg --single --threshold 0.8 --json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIdentify,
}

func init() {
	rootCmd.AddCommand(identifyCmd)

	identifyCmd.Flags().Bool("json", false, "Output results as JSON")
	identifyCmd.Flags().Bool("single", false, "Identify only the largest face in each image")
	addPolicyFlags(identifyCmd)
}

// imageResult is the outcome for one input file.
type imageResult struct {
	File   string           `json:"file"`
	Result *pipeline.Result `json:"result,omitempty"`
	Error  string           `json:"error,omitempty"`
}

// readImage reads an image file, refusing files above MaxImageReadSize.
func readImage(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if info.Size() > constants.MaxImageReadSize {
		return nil, fmt.Errorf("%s is too large (%d bytes, max %d)", path, info.Size(), constants.MaxImageReadSize)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}

func runIdentify(cmd *cobra.Command, args []string) error {
	jsonOutput := mustGetBool(cmd, "json")
	single := mustGetBool(cmd, "single")

	cfg := config.Load()
	applyPolicyFlags(cmd, cfg)
	ctx := context.Background()

	b, err := openBackends(ctx, cfg, true)
	if err != nil {
		return err
	}
	defer b.Close()

	p, closeRecognizer, err := newPipeline(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeRecognizer()

	var bar *progressbar.ProgressBar
	if !jsonOutput && len(args) > 1 {
		bar = progressbar.NewOptions(len(args),
			progressbar.OptionSetDescription("Identifying"),
			progressbar.OptionShowCount(),
			progressbar.OptionShowIts(),
			progressbar.OptionSetItsString("images"),
			progressbar.OptionShowElapsedTimeOnFinish(),
			progressbar.OptionFullWidth(),
		)
	}

	results := make([]imageResult, 0, len(args))
	failed := 0
	for _, path := range args {
		res := identifyFile(ctx, p, path, single)
		if res.Error != "" {
			failed++
		}
		results = append(results, res)
		if bar != nil {
			bar.Add(1)
		}
	}
	if bar != nil {
		fmt.Println()
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(results); err != nil {
			return fmt.Errorf("failed to encode results: %w", err)
		}
	} else {
		for i := range results {
			printImageResult(&results[i])
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d images failed", failed, len(args))
	}
	return nil
}

func identifyFile(ctx context.Context, p *pipeline.Pipeline, path string, single bool) imageResult {
	res := imageResult{File: path}
	data, err := readImage(path)
	if err != nil {
		res.Error = err.Error()
		return res
	}

	if single {
		res.Result, err = p.IdentifySingle(ctx, data)
	} else {
		res.Result, err = p.Identify(ctx, data)
	}
	if err != nil {
		res.Error = err.Error()
	}
	return res
}

func printImageResult(res *imageResult) {
	if res.Error != "" {
		fmt.Printf("%s: error: %s\n", res.File, res.Error)
		return
	}
	r := res.Result
	fmt.Printf("%s: %d faces, %d identified, %d failed (threshold %.2f)\n",
		res.File, len(r.Faces), r.Identified(), r.Failed(), r.Threshold)

	for _, f := range r.Faces {
		box := fmt.Sprintf("[%.0f %.0f %.0f %.0f]", f.BBox[0], f.BBox[1], f.BBox[2], f.BBox[3])
		switch {
		case f.Error != "":
			fmt.Printf("  #%d %s error: %s\n", f.Index, box, f.Error)
		case f.Identity != nil:
			fmt.Printf("  #%d %s %s (%s) confidence %.3f\n",
				f.Index, box, f.Identity.Person.Name, f.Identity.Person.ID, f.Identity.Confidence)
		case f.Vote.HasWinner():
			fmt.Printf("  #%d %s unidentified (best %s at %.3f)\n", f.Index, box, f.Vote.PersonID, f.Vote.Confidence)
		default:
			fmt.Printf("  #%d %s unidentified\n", f.Index, box)
		}
	}
}
