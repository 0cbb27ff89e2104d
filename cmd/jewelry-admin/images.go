package main

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/alexalbu001/iguanas-jewelry-admin/internal/gallery"
	"github.com/alexalbu001/iguanas-jewelry-admin/internal/upload"
)

func newImagesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "images",
		Short: "Manage a product's image gallery",
	}
	cmd.PersistentFlags().StringVarP(&productFlag, "product", "p", "", "Product id the gallery belongs to")
	_ = cmd.MarkPersistentFlagRequired("product")
	cmd.AddCommand(
		newImagesListCmd(),
		newImagesUploadCmd(),
		newImagesPromoteCmd(),
		newImagesDeleteCmd(),
		newImagesReorderCmd(),
	)
	return cmd
}

func loadGallery(cmd *cobra.Command) (*app, *gallery.Manager, error) {
	ctx := cmd.Context()
	application, err := buildApp(ctx)
	if err != nil {
		return nil, nil, err
	}
	manager, err := gallery.NewManager(application.api, application.productID, nil)
	if err != nil {
		return nil, nil, err
	}
	if err := manager.Load(ctx); err != nil {
		return nil, nil, fmt.Errorf("load gallery: %w", err)
	}
	return application, manager, nil
}

func newImagesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show the gallery in display order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, manager, err := loadGallery(cmd)
			if err != nil {
				return err
			}
			printGallery(manager)
			return nil
		},
	}
}

func newImagesUploadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "upload <file>...",
		Short: "Upload image files to the product gallery",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			application, manager, err := loadGallery(cmd)
			if err != nil {
				return err
			}

			transport, err := upload.NewTransport(application.cfg.Upload, application.api)
			if err != nil {
				return err
			}

			callbacks := upload.Callbacks{
				OnTasks: printProgress(),
				OnImage: manager.Append,
				OnError: func(fileName, message string) {
					if fileName == "" {
						// whole-batch rejections surface through Enqueue's error
						return
					}
					fmt.Fprintf(os.Stderr, "  %s: %s\n", fileName, message)
				},
			}
			queue, err := upload.NewQueue(application.cfg.Upload, transport, application.productID, manager.Count, callbacks, application.logg)
			if err != nil {
				return err
			}
			defer queue.Close()

			sources := make([]upload.Source, 0, len(args))
			for _, path := range args {
				src, err := upload.FromPath(path)
				if err != nil {
					return err
				}
				sources = append(sources, src)
			}

			if err := queue.Enqueue(sources); err != nil {
				return err
			}
			queue.Wait()

			printGallery(manager)
			return nil
		},
	}
}

func newImagesPromoteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "promote <image-id>",
		Short: "Make an image the product's primary image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			imageID, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid image id %q: %w", args[0], err)
			}
			_, manager, err := loadGallery(cmd)
			if err != nil {
				return err
			}
			if err := manager.Promote(cmd.Context(), imageID); err != nil {
				return err
			}
			printGallery(manager)
			return nil
		},
	}
}

func newImagesDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <image-id>",
		Short: "Delete an image from the gallery",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			imageID, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid image id %q: %w", args[0], err)
			}
			_, manager, err := loadGallery(cmd)
			if err != nil {
				return err
			}
			if err := manager.Delete(cmd.Context(), imageID); err != nil {
				return err
			}
			printGallery(manager)
			return nil
		},
	}
}

func newImagesReorderCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reorder <image-id>...",
		Short: "Rewrite the gallery's display order",
		Long: `Reorder takes the complete list of the product's image ids in the desired
display order, stages the new order as a draft and commits it in one step.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			order := make([]uuid.UUID, len(args))
			for i, raw := range args {
				id, err := uuid.Parse(raw)
				if err != nil {
					return fmt.Errorf("invalid image id %q: %w", raw, err)
				}
				order[i] = id
			}

			_, manager, err := loadGallery(cmd)
			if err != nil {
				return err
			}
			if len(order) != manager.Count() {
				return fmt.Errorf("reorder needs all %d image ids, got %d", manager.Count(), len(order))
			}

			if err := manager.BeginReorder(); err != nil {
				return err
			}
			for target, id := range order {
				current := indexOf(manager, id)
				if current < 0 {
					manager.CancelReorder()
					return fmt.Errorf("image %s is not in the gallery", id)
				}
				if err := manager.Move(current, target); err != nil {
					manager.CancelReorder()
					return err
				}
			}
			if err := manager.CommitReorder(cmd.Context()); err != nil {
				manager.CancelReorder()
				return err
			}

			printGallery(manager)
			return nil
		},
	}
}

func indexOf(manager *gallery.Manager, imageID uuid.UUID) int {
	for i, img := range manager.Images() {
		if img.ID == imageID {
			return i
		}
	}
	return -1
}

// printProgress renders the task list as it changes: a moving percentage per
// uploading file and one final line per terminal state.
func printProgress() func(tasks []upload.Task) {
	reported := make(map[uuid.UUID]bool)
	return func(tasks []upload.Task) {
		for _, task := range tasks {
			switch {
			case task.Status == upload.StatusUploading:
				fmt.Fprintf(os.Stdout, "\r  %-30s %3d%%", task.FileName, task.Progress)
			case task.Status.Terminal() && !reported[task.ID]:
				reported[task.ID] = true
				if task.Status == upload.StatusSuccess {
					fmt.Fprintf(os.Stdout, "\r  %-30s done\n", task.FileName)
				} else {
					fmt.Fprintf(os.Stdout, "\r  %-30s failed: %s\n", task.FileName, task.Message)
				}
			}
		}
	}
}

func printGallery(manager *gallery.Manager) {
	imgs := manager.Images()
	if len(imgs) == 0 {
		fmt.Println("gallery is empty")
		return
	}
	for _, img := range imgs {
		marker := " "
		if img.IsMain {
			marker = "*"
		}
		fmt.Printf("%s %2d  %s  %s\n", marker, img.DisplayOrder, img.ID, img.URL)
	}
}
