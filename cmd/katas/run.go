package main

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/algorisys-oss/python-opencv-katas/internal/executor"
)

var (
	assetFlag  string
	outputFlag string
)

var runCmd = &cobra.Command{
	Use:   "run <file.py>",
	Short: "Run a kata file once and print the result",
	Long: `Run a Python kata file through the execution backend.

Code that uses cv2.VideoCapture is launched on the desktop with real camera
access; everything else runs in the time-limited sandbox.

Examples:
  katas run blur.py
  katas run threshold.py --image cat.png --output result.png`,
	Args: cobra.ExactArgs(1),
	RunE: runRun,
}

func init() {
	runCmd.Flags().StringVar(&assetFlag, "image", "", "Image file to upload alongside the code")
	runCmd.Flags().StringVarP(&outputFlag, "output", "o", "", "Where to write a produced image (default: discard)")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	code, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading %s: %w", args[0], err)
	}

	req := executor.Request{Code: string(code)}
	if assetFlag != "" {
		data, err := os.ReadFile(assetFlag)
		if err != nil {
			return fmt.Errorf("reading %s: %w", assetFlag, err)
		}
		req.Files = append(req.Files, executor.UploadedFile{Name: filepath.Base(assetFlag), Data: data})
	}

	var res executor.Result
	if executor.NeedsDesktop(req.Code) {
		registry := executor.NewRegistry(cfg.Executor.StopGrace())
		events, cancel := registry.Subscribe()
		defer cancel()

		res = executor.NewDesktop(cfg.Executor.Python, registry).Launch(req)
		if res.Error == "" {
			fmt.Println(res.Logs)
			// Unlike the server, the CLI stays attached so the scratch
			// directory cleanup runs before we exit.
			for ev := range events {
				if ev.Type == executor.EventExited {
					break
				}
			}
			return nil
		}
	} else {
		sandbox := executor.NewSandbox(cfg.Executor.Python, cfg.Executor.RunnerScript, cfg.Executor.Timeout())
		res = sandbox.Run(context.Background(), req)
	}

	if res.Logs != "" {
		fmt.Println(res.Logs)
	}
	if res.Error != "" {
		return fmt.Errorf("%s", res.Error)
	}
	if res.ImageB64 != "" {
		if outputFlag == "" {
			fmt.Println("(image produced; pass --output to save it)")
			return nil
		}
		img, err := base64.StdEncoding.DecodeString(res.ImageB64)
		if err != nil {
			return fmt.Errorf("decoding produced image: %w", err)
		}
		if err := os.WriteFile(outputFlag, img, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", outputFlag, err)
		}
		fmt.Printf("Image written to %s\n", outputFlag)
	}
	return nil
}
