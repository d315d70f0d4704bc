package app

import (
	"fmt"
	"strings"

	"github.com/urfave/cli"

	"github.com/hitoshi/pingone-tools/internal/config"
)

// multiValueFlags は1つのフラグの後に複数の値を並べて指定できるフラグ。
var multiValueFlags = map[string]bool{
	"w": true, "skip": true,
	"q": true, "query": true,
}

// expandMultiValueFlags は "-w u1 u2" を "-w u1 -w u2" に展開する。
// 値の並びは次のフラグ（"-"で始まる引数）か "--" で終わる。
// サブコマンドの引数は展開しない。
func expandMultiValueFlags(args []string) []string {
	if len(args) == 0 || !strings.HasPrefix(args[0], "-") {
		return args
	}

	out := make([]string, 0, len(args))
	var pending string
	needValue := false
	for i, arg := range args {
		if arg == "--" {
			return append(out, args[i:]...)
		}
		if strings.HasPrefix(arg, "-") {
			out = append(out, arg)
			pending = ""
			needValue = false
			if multiValueFlags[strings.TrimLeft(arg, "-")] {
				pending = arg
				needValue = true
			}
			continue
		}
		if pending != "" && !needValue {
			out = append(out, pending)
		}
		needValue = false
		out = append(out, arg)
	}
	return out
}

// checkNoArgs は位置引数が残っていないことを確認する。
// 残っていればフラグの解析がそこで止まり、後続のフラグが無視されている。
func checkNoArgs(c *cli.Context) error {
	if c.NArg() > 0 {
		return fmt.Errorf("%w: unexpected argument %q; pass values with -w/-q or quote them", config.ErrInvalid, c.Args().First())
	}
	return nil
}

// commonFlags は両方のコマンドで共通のフラグ。
func commonFlags() []cli.Flag {
	return []cli.Flag{
		cli.StringFlag{
			Name:  "api-url",
			Usage: "base URL of the PingOne management API",
			Value: config.DefaultAPIBaseURL,
		},
		cli.StringFlag{
			Name:  "auth-url",
			Usage: "base URL of the PingOne authorization server",
			Value: config.DefaultAuthBaseURL,
		},
		cli.DurationFlag{
			Name:  "timeout",
			Usage: "HTTP request timeout (0 disables)",
			Value: config.DefaultTimeout,
		},
		cli.StringFlag{
			Name:  "metrics-file",
			Usage: "write Prometheus metrics to this file when the run finishes",
		},
		cli.StringFlag{
			Name:  "log-level",
			Usage: "structured log level (debug, info, warn, error)",
			Value: config.DefaultLogLevel,
		},
	}
}

// bulkDeleteFlags は一括削除のフラグ。
func bulkDeleteFlags() []cli.Flag {
	flags := []cli.Flag{
		cli.BoolFlag{
			Name:  "quiet, x",
			Usage: "reduces output verbosity",
		},
		cli.StringFlag{
			Name:  "environment, e",
			Usage: "<REQUIRED> the ID of the environment in which the users you wish to delete are stored",
		},
		cli.StringFlag{
			Name:  "client, c",
			Usage: "<REQUIRED> the ID of an app configured with the ability to delete users",
		},
		cli.StringFlag{
			Name:  "secret, s",
			Usage: "<REQUIRED> the corresponding secret of an app configured with the ability to delete users",
		},
		cli.StringFlag{
			Name:  "population, p",
			Usage: "the ID of the population in which the users you wish to delete are stored",
		},
		cli.StringSliceFlag{
			Name:  "query, q",
			Usage: "a SCIM 2.0 filter; one or more fragments, joined with spaces",
		},
		cli.StringSliceFlag{
			Name:  "skip, w",
			Usage: "one or more user IDs to be skipped during deletion",
		},
	}
	return append(flags, commonFlags()...)
}

// provisionFlags はprovisionサブコマンドのフラグ。
func provisionFlags() []cli.Flag {
	flags := []cli.Flag{
		cli.StringFlag{
			Name:  "organization, o",
			Usage: "<REQUIRED> the ID of the organization in which to create the environment",
		},
		cli.StringFlag{
			Name:  "environment, e",
			Usage: "<REQUIRED> the ID of the environment where the app is registered",
		},
		cli.StringFlag{
			Name:  "client, c",
			Usage: "<REQUIRED> the ID of an app using client_secret_post",
		},
		cli.StringFlag{
			Name:  "secret, s",
			Usage: "<REQUIRED> the corresponding secret of the app",
		},
		cli.StringFlag{
			Name:  "admin-environment",
			Usage: "the ID of the environment where the admin user is",
		},
		cli.StringFlag{
			Name:  "admin-user",
			Usage: "the ID of an admin user to grant Identity Data Admin on the new environment",
		},
		cli.IntFlag{
			Name:  "users, n",
			Usage: "number of sample users to create",
			Value: config.DefaultUserCount,
		},
		cli.StringFlag{
			Name:  "region",
			Usage: "region of the new environment (NA, EU, AP, CA)",
			Value: config.DefaultRegion,
		},
	}
	return append(flags, commonFlags()...)
}

func commonFrom(c *cli.Context, base config.Common) config.Common {
	base.APIBaseURL = c.String("api-url")
	base.AuthBaseURL = c.String("auth-url")
	base.Timeout = c.Duration("timeout")
	base.MetricsFile = c.String("metrics-file")
	base.LogLevel = c.String("log-level")
	return base
}

// bulkDeleteConfigFrom はフラグからBulkDeleteConfigを組み立てて検証する。
func bulkDeleteConfigFrom(c *cli.Context) (config.BulkDeleteConfig, error) {
	if err := checkNoArgs(c); err != nil {
		return config.BulkDeleteConfig{}, err
	}
	cfg := config.DefaultBulkDelete()
	cfg.Common = commonFrom(c, cfg.Common)
	cfg.EnvironmentID = c.String("environment")
	cfg.ClientID = c.String("client")
	cfg.ClientSecret = c.String("secret")
	cfg.PopulationID = c.String("population")
	cfg.Query = c.StringSlice("query")
	cfg.Skip = c.StringSlice("skip")
	cfg.Quiet = c.Bool("quiet")

	if err := cfg.Validate(); err != nil {
		return config.BulkDeleteConfig{}, err
	}
	return cfg, nil
}

// provisionConfigFrom はフラグからProvisionConfigを組み立てて検証する。
func provisionConfigFrom(c *cli.Context) (config.ProvisionConfig, error) {
	if err := checkNoArgs(c); err != nil {
		return config.ProvisionConfig{}, err
	}
	cfg := config.DefaultProvision()
	cfg.Common = commonFrom(c, cfg.Common)
	cfg.OrganizationID = c.String("organization")
	cfg.EnvironmentID = c.String("environment")
	cfg.ClientID = c.String("client")
	cfg.ClientSecret = c.String("secret")
	cfg.AdminEnvironmentID = c.String("admin-environment")
	cfg.AdminUserID = c.String("admin-user")
	cfg.Users = c.Int("users")
	cfg.Region = c.String("region")

	if err := cfg.Validate(); err != nil {
		return config.ProvisionConfig{}, err
	}
	return cfg, nil
}
