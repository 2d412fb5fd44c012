package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/algorisys-oss/python-opencv-katas/internal/config"
	"github.com/algorisys-oss/python-opencv-katas/internal/executor"
)

func main() {
	s := server.NewMCPServer("kata-runner", "0.1.0")

	s.AddTool(mcp.Tool{
		Name:        "kata_run",
		Description: "Execute a Python/OpenCV snippet in the katas sandbox. Only cv2 and numpy imports are allowed; output is captured and produced images are returned as base64.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"code": map[string]any{
					"type":        "string",
					"description": "Python source code to execute",
				},
				"image_path": map[string]any{
					"type":        "string",
					"description": "Local image file to make available in the working directory (optional)",
				},
			},
			Required: []string{"code"},
		},
	}, handleKataRun)

	if err := server.ServeStdio(s); err != nil {
		fmt.Printf("server error: %v\n", err)
	}
}

func handleKataRun(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, _ := request.Params.Arguments.(map[string]any)
	if args == nil {
		return errResult("error: invalid arguments"), nil
	}

	code, _ := args["code"].(string)
	imagePath, _ := args["image_path"].(string)

	if code == "" {
		return errResult("error: 'code' is required"), nil
	}

	cfg, err := config.Load()
	if err != nil {
		return errResult(fmt.Sprintf("error: %v", err)), nil
	}

	req := executor.Request{Code: code}
	if imagePath != "" {
		data, err := os.ReadFile(imagePath)
		if err != nil {
			return errResult(fmt.Sprintf("error: reading %s: %v", imagePath, err)), nil
		}
		req.Files = append(req.Files, executor.UploadedFile{Name: filepath.Base(imagePath), Data: data})
	}

	sandbox := executor.NewSandbox(cfg.Executor.Python, cfg.Executor.RunnerScript, cfg.Executor.Timeout())
	result := sandbox.Run(ctx, req)

	var output strings.Builder
	if result.Logs != "" {
		output.WriteString(result.Logs)
	}
	if result.Error != "" {
		if output.Len() > 0 {
			output.WriteString("\n")
		}
		output.WriteString("ERROR:\n" + result.Error)
	}
	if result.ImageB64 != "" {
		if output.Len() > 0 {
			output.WriteString("\n")
		}
		output.WriteString("IMAGE (base64):\n" + result.ImageB64)
	}

	text := output.String()
	if len(text) > 4000 {
		text = text[:4000] + "\n... (output truncated)"
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: text}},
		IsError: result.Error != "",
	}, nil
}

func errResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: text}},
		IsError: true,
	}
}
