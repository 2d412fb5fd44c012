package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/algorisys-oss/python-opencv-katas/internal/executor"
)

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Interactively write and run kata code",
	Long: `Start an interactive prompt for kata code.

Type Python lines, then :run to execute the buffer in the sandbox.
Other commands: :show, :clear, :quit.`,
	RunE: runRepl,
}

func init() {
	rootCmd.AddCommand(replCmd)
}

func runRepl(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	sandbox := executor.NewSandbox(cfg.Executor.Python, cfg.Executor.RunnerScript, cfg.Executor.Timeout())

	fmt.Println("OpenCV Katas REPL")
	fmt.Println("Type code, :run to execute, :quit to exit")
	fmt.Println()

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "\033[36m>>>\033[0m ",
		HistoryFile:     "/tmp/katas_history",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("readline: %w", err)
	}
	defer rl.Close()

	var buf []string
	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			buf = nil
			continue
		}
		if err == io.EOF {
			return nil
		}

		switch strings.TrimSpace(line) {
		case ":quit", ":q":
			return nil
		case ":clear":
			buf = nil
			continue
		case ":show":
			fmt.Println(strings.Join(buf, "\n"))
			continue
		case ":run":
			if len(buf) == 0 {
				fmt.Println("(nothing to run)")
				continue
			}
			res := sandbox.Run(context.Background(), executor.Request{Code: strings.Join(buf, "\n")})
			printResult(res)
			buf = nil
			continue
		}

		buf = append(buf, line)
	}
}

func printResult(res executor.Result) {
	if res.Logs != "" {
		fmt.Println(res.Logs)
	}
	if res.Error != "" {
		fmt.Printf("\033[31m%s\033[0m\n", res.Error)
	}
	if res.ImageB64 != "" {
		fmt.Printf("(image produced, %d bytes base64; use `katas run -o out.png` to save images)\n", len(res.ImageB64))
	}
}
