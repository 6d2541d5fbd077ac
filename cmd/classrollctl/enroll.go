package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
}

var enrollCmd = &cobra.Command{
	Use:   "enroll",
	Short: "Store the reference face of one registry student",
	Long: `Reads an image, extracts its face embedding and stores it for the student.
A student that already has a face encoding gets it replaced.

Examples:
  classrollctl enroll --student 2024CS001 --image ./photos/2024CS001.jpg`,
	RunE: runEnroll,
}

var enrollDirCmd = &cobra.Command{
	Use:   "enroll-dir DIR",
	Short: "Enroll every photo of a directory",
	Long: `Enrolls each image in DIR. The file name without extension is the student id,
so ./photos/2024CS001.jpg enrolls student 2024CS001.

Students missing from the registry are reported and skipped.

Examples:
  classrollctl enroll-dir ./photos
  classrollctl enroll-dir ./photos --concurrency 2`,
	Args: cobra.ExactArgs(1),
	RunE: runEnrollDir,
}

func init() {
	rootCmd.AddCommand(enrollCmd)
	rootCmd.AddCommand(enrollDirCmd)

	enrollCmd.Flags().String("student", "", "Registry student id")
	enrollCmd.Flags().String("image", "", "Path to the image")
	_ = enrollCmd.MarkFlagRequired("student")
	_ = enrollCmd.MarkFlagRequired("image")

	enrollDirCmd.Flags().Int("concurrency", 4, "Number of parallel workers")
}

func runEnroll(cmd *cobra.Command, args []string) error {
	studentID := mustGetString(cmd, "student")
	imagePath := mustGetString(cmd, "image")

	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	replaced, err := a.enroll(ctx, studentID, imagePath)
	if err != nil {
		return err
	}

	if replaced {
		fmt.Printf("Replaced face encoding of %s\n", studentID)
	} else {
		fmt.Printf("Stored face encoding of %s\n", studentID)
	}
	return nil
}

// enroll reports whether an existing encoding was replaced
func (a *app) enroll(ctx context.Context, studentID, imagePath string) (bool, error) {
	image, err := os.ReadFile(imagePath)
	if err != nil {
		return false, fmt.Errorf("read image: %w", err)
	}

	student, err := a.students.Get(ctx, operator, studentID)
	if err != nil {
		return false, fmt.Errorf("student %s: %w", studentID, err)
	}

	if student.HasFaceEncoding() {
		return true, a.students.ReplacePhoto(ctx, operator, studentID, image)
	}
	return false, a.students.UploadPhoto(ctx, operator, studentID, image)
}

func runEnrollDir(cmd *cobra.Command, args []string) error {
	concurrency := mustGetInt(cmd, "concurrency")
	if concurrency < 1 {
		concurrency = 1
	}

	files, err := listImages(args[0])
	if err != nil {
		return err
	}
	if len(files) == 0 {
		fmt.Println("No images found")
		return nil
	}

	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	fmt.Printf("Images to enroll: %d\n\n", len(files))

	bar := progressbar.NewOptions(len(files),
		progressbar.OptionSetDescription("Enrolling faces"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("photos"),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionFullWidth(),
	)

	var stored, replaced int
	var failures []string
	var mu sync.Mutex

	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup

	for _, file := range files {
		wg.Add(1)
		go func(path string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			studentID := studentIDFromPath(path)
			wasReplaced, err := a.enroll(ctx, studentID, path)

			mu.Lock()
			switch {
			case err != nil:
				failures = append(failures, fmt.Sprintf("%s: %v", filepath.Base(path), err))
			case wasReplaced:
				replaced++
			default:
				stored++
			}
			mu.Unlock()
			_ = bar.Add(1)
		}(file)
	}

	wg.Wait()
	fmt.Println()

	sort.Strings(failures)
	fmt.Printf("\nCompleted: %d stored, %d replaced, %d failed\n", stored, replaced, len(failures))
	for _, f := range failures {
		fmt.Printf("  %s\n", f)
	}

	if len(failures) > 0 {
		return fmt.Errorf("%d images failed", len(failures))
	}
	return nil
}

// listImages returns the image files directly under dir, sorted by name
func listImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read directory: %w", err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if imageExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

func studentIDFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
