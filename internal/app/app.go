// Package app はCLIのエントリーポイントと依存関係のワイヤリングを提供する。
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli"

	"github.com/hitoshi/pingone-tools/internal/security"
)

// 終了コード
const (
	ExitOK      = 0
	ExitFailure = 1
	ExitUsage   = 2
)

// exitError は終了コードを伴うエラー。
// urfave/cliのExitCoderを実装するとcli側でプロセスが終了してしまうため、
// 終了コードはExitCodeで取り出す。
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }

func (e *exitError) Unwrap() error { return e.err }

func usageError(err error) error {
	return &exitError{code: ExitUsage, err: err}
}

func failure(err error) error {
	return &exitError{code: ExitFailure, err: err}
}

// ExitCode はRunが返したエラーに対応するプロセスの終了コードを返す。
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var exitErr *exitError
	if errors.As(err, &exitErr) {
		return exitErr.code
	}
	return ExitFailure
}

// environment はコマンドの実行環境。テストでは出力先とHTTPクライアントを差し替える。
type environment struct {
	stdout     io.Writer
	stderr     io.Writer
	httpClient func(timeout time.Duration) *http.Client
}

func defaultEnvironment(stdout, stderr io.Writer) *environment {
	return &environment{
		stdout:     stdout,
		stderr:     stderr,
		httpClient: security.NewSafeClient,
	}
}

// Run はアプリケーションのメインエントリーポイント。
// argsにはos.Args[1:]を渡す。コンソール出力はstdoutに、JSON構造化ログはstderrに書き出す。
// SIGINTまたはSIGTERMを受信すると実行中のリクエストをキャンセルして終了する。
func Run(stdout, stderr io.Writer, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return run(ctx, defaultEnvironment(stdout, stderr), args)
}

func run(ctx context.Context, env *environment, args []string) error {
	app := newApp(ctx, env)
	return app.Run(append([]string{app.Name}, expandMultiValueFlags(args)...))
}

// newApp はCLIアプリケーションを構築する。
// ルートのアクションが一括削除、provisionサブコマンドがサンプル環境の作成。
func newApp(ctx context.Context, env *environment) *cli.App {
	app := cli.NewApp()
	app.Name = "pingone-tools"
	app.Usage = "Bulk-delete users from a PingOne environment"
	app.Version = "1.0.0"
	app.Writer = env.stdout
	app.ErrWriter = env.stderr
	app.Flags = bulkDeleteFlags()
	app.OnUsageError = onUsageError(env)
	app.Action = func(c *cli.Context) error {
		cfg, err := bulkDeleteConfigFrom(c)
		if err != nil {
			fmt.Fprintf(env.stderr, "Incorrect Usage: %v\n\n", err)
			cli.ShowAppHelp(c)
			return usageError(err)
		}
		return runBulkDelete(ctx, env, cfg)
	}
	app.Commands = []cli.Command{
		{
			Name:         "provision",
			Usage:        "Create a sandbox environment with a population and sample users",
			Flags:        provisionFlags(),
			OnUsageError: onUsageError(env),
			Action: func(c *cli.Context) error {
				cfg, err := provisionConfigFrom(c)
				if err != nil {
					fmt.Fprintf(env.stderr, "Incorrect Usage: %v\n\n", err)
					cli.ShowCommandHelp(c, "provision")
					return usageError(err)
				}
				return runProvision(ctx, env, cfg)
			},
		},
	}
	return app
}

func onUsageError(env *environment) cli.OnUsageErrorFunc {
	return func(c *cli.Context, err error, isSubcommand bool) error {
		fmt.Fprintf(env.stderr, "Incorrect Usage: %v\n", err)
		return usageError(err)
	}
}
