package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/docask/docask-cli/internal/core/ports/driving"
)

var (
	uploadStore    string
	uploadName     string
	uploadType     string
	uploadCategory string
	uploadTags     []string
	uploadFields   []string

	uploadDirStore     string
	uploadDirRecursive bool
)

var uploadCmd = &cobra.Command{
	Use:   "upload [file]",
	Short: "Upload a document to a store",
	Long: `Uploads a local document to the backend and records it in a store.
Supported formats: pdf, txt, docx, html, md.`,
	Args: cobra.ExactArgs(1),
	RunE: runUpload,
}

var uploadDirCmd = &cobra.Command{
	Use:   "upload-dir [directory]",
	Short: "Upload every supported document in a directory",
	Args:  cobra.ExactArgs(1),
	RunE:  runUploadDir,
}

func init() {
	uploadCmd.Flags().StringVarP(&uploadStore, "store", "s", "", "target store (default from config)")
	uploadCmd.Flags().StringVar(&uploadName, "name", "", "display name (default: file name)")
	uploadCmd.Flags().StringVar(&uploadType, "type", "", "document type label")
	uploadCmd.Flags().StringVar(&uploadCategory, "category", "", "category label")
	uploadCmd.Flags().StringSliceVar(&uploadTags, "tag", nil, "tag (repeatable)")
	uploadCmd.Flags().StringArrayVar(&uploadFields, "field", nil, "custom metadata field key=value (repeatable)")

	uploadDirCmd.Flags().StringVarP(&uploadDirStore, "store", "s", "", "target store (default from config)")
	uploadDirCmd.Flags().BoolVarP(&uploadDirRecursive, "recursive", "r", false, "descend into subdirectories")

	rootCmd.AddCommand(uploadCmd)
	rootCmd.AddCommand(uploadDirCmd)
}

func runUpload(cmd *cobra.Command, args []string) error {
	if uploadService == nil {
		return errors.New("upload service not configured")
	}

	opts, err := buildUploadOptions()
	if err != nil {
		return err
	}

	store := uploadStore
	if store == "" {
		store = defaultStoreName
	}

	rec, err := uploadService.Upload(context.Background(), args[0], store, opts)
	if err != nil {
		return fmt.Errorf("upload failed: %w", err)
	}

	cmd.Printf("Uploaded %q to store %q (%s)\n", rec.DisplayName, store, rec.HandleID)
	return nil
}

func runUploadDir(cmd *cobra.Command, args []string) error {
	if uploadService == nil {
		return errors.New("upload service not configured")
	}

	store := uploadDirStore
	if store == "" {
		store = defaultStoreName
	}

	results, err := uploadService.UploadDirectory(
		context.Background(), args[0], store, uploadDirRecursive, driving.UploadOptions{})
	if err != nil {
		return fmt.Errorf("upload directory failed: %w", err)
	}

	var ok, failed int
	for _, r := range results {
		if r.Err != nil {
			failed++
			cmd.Printf("  FAILED %s: %v\n", r.Path, r.Err)
			continue
		}
		ok++
		cmd.Printf("  OK     %s (%s)\n", r.Path, r.Record.HandleID)
	}

	cmd.Printf("Uploaded %d of %d files to store %q.\n", ok, ok+failed, store)
	return nil
}

// buildUploadOptions assembles upload metadata from the flags.
// Numeric --field values become numbers, everything else strings.
func buildUploadOptions() (driving.UploadOptions, error) {
	opts := driving.UploadOptions{
		DisplayName:  uploadName,
		DocumentType: uploadType,
		Category:     uploadCategory,
		Tags:         uploadTags,
	}

	if len(uploadFields) > 0 {
		opts.CustomFields = make(map[string]any, len(uploadFields))
		for _, field := range uploadFields {
			key, value, found := strings.Cut(field, "=")
			if !found || key == "" {
				return driving.UploadOptions{}, fmt.Errorf("invalid --field %q: expected key=value", field)
			}
			if num, err := strconv.ParseFloat(value, 64); err == nil {
				opts.CustomFields[key] = num
			} else {
				opts.CustomFields[key] = value
			}
		}
	}

	return opts, nil
}
