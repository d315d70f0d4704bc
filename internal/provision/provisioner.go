// Package provision はテスト用のPingOne環境を作成する。
// 新しい環境と母集団を作り、管理者にIdentity Data Adminロールを割り当て、
// サンプルユーザーを投入する。いずれかの手順が失敗した時点で中断する。
package provision

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hitoshi/pingone-tools/internal/model"
	"github.com/hitoshi/pingone-tools/internal/pingone"
)

const (
	// IdentityDataAdminRoleID はIdentity Data AdminロールのID。
	IdentityDataAdminRoleID = "0bd9c966-7664-4ac1-b059-0ff9293908e2"

	// DefaultPassword はサンプルユーザーの初期パスワード。
	DefaultPassword = "change_Password1"

	environmentType  = "SANDBOX"
	scopeEnvironment = "ENVIRONMENT"
	timestampLayout  = "01/02/06-15.04.05.000000"
)

// API はプロビジョニングに使うPingOne APIの操作。
type API interface {
	CreateEnvironment(ctx context.Context, organizationID string, env pingone.Environment) (pingone.Environment, error)
	CreatePopulation(ctx context.Context, environmentID string, pop pingone.Population) (pingone.Population, error)
	AssignRole(ctx context.Context, environmentID, userID string, ra pingone.RoleAssignment) (pingone.RoleAssignment, error)
	CreateUser(ctx context.Context, environmentID string, user pingone.NewUser) (pingone.CreatedUser, error)
}

// TokenAcquirer はアクセストークンを取得する。
type TokenAcquirer interface {
	Acquire(ctx context.Context) (model.Credential, error)
}

// Console は利用者向けの出力先。
type Console interface {
	Printf(format string, args ...interface{})
	Error(description string, err error)
}

// Options はプロビジョニングの内容。
type Options struct {
	OrganizationID     string
	AdminEnvironmentID string
	AdminUserID        string // 空ならロール割り当てをしない
	Users              int
	Region             string
}

// Result は作成したリソース。
type Result struct {
	Environment  pingone.Environment
	Population   pingone.Population
	RoleAssigned bool
	Users        []pingone.CreatedUser
}

// Provisioner は環境のプロビジョニングを行う。
type Provisioner struct {
	tokens  TokenAcquirer
	api     API
	console Console
	logger  *slog.Logger
	opts    Options
	now     func() time.Time
}

// New はProvisionerを生成する。
func New(tokens TokenAcquirer, api API, console Console, logger *slog.Logger, opts Options) *Provisioner {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Region == "" {
		opts.Region = "NA"
	}
	return &Provisioner{
		tokens:  tokens,
		api:     api,
		console: console,
		logger:  logger,
		opts:    opts,
		now:     time.Now,
	}
}

// Run は全手順を順に実行する。途中で失敗した場合はそれまでに作成したリソースと
// エラーを返す。作成済みのリソースは削除しない。
func (p *Provisioner) Run(ctx context.Context) (Result, error) {
	var result Result

	if _, err := p.tokens.Acquire(ctx); err != nil {
		p.console.Error("Couldn't retrieve the access token", err)
		return result, fmt.Errorf("failed to retrieve access token: %w", err)
	}
	p.console.Printf("Access token successfully retrieved.")

	env, err := p.api.CreateEnvironment(ctx, p.opts.OrganizationID, pingone.Environment{
		Name:        "Environment-" + p.timestamp(),
		Region:      strings.ToUpper(p.opts.Region),
		Type:        environmentType,
		Description: "New environment from script",
	})
	if err != nil {
		p.console.Error("Couldn't create a new environment", err)
		return result, fmt.Errorf("failed to create environment: %w", err)
	}
	result.Environment = env
	p.logger.Info("environment created", slog.String("environment_id", env.ID), slog.String("name", env.Name))
	p.console.Printf("New environment created: %s", env.Name)

	pop, err := p.api.CreatePopulation(ctx, env.ID, pingone.Population{
		Name:        "Population_" + p.timestamp(),
		Description: "New population from script.",
	})
	if err != nil {
		p.console.Error("Couldn't create a new population", err)
		return result, fmt.Errorf("failed to create population: %w", err)
	}
	result.Population = pop
	p.logger.Info("population created", slog.String("population_id", pop.ID), slog.String("name", pop.Name))
	p.console.Printf("New population created: %s", pop.Name)

	if p.opts.AdminUserID != "" {
		if _, err := p.api.AssignRole(ctx, p.opts.AdminEnvironmentID, p.opts.AdminUserID, pingone.RoleAssignment{
			Role:  pingone.Reference{ID: IdentityDataAdminRoleID},
			Scope: pingone.RoleScope{ID: env.ID, Type: scopeEnvironment},
		}); err != nil {
			p.console.Error("Couldn't assign the Identity Data Admin role", err)
			return result, fmt.Errorf("failed to assign role to admin user %s: %w", p.opts.AdminUserID, err)
		}
		result.RoleAssigned = true
		p.console.Printf("Identity Data Admin added to admin user (id:%s).", p.opts.AdminUserID)
	}

	for i := 0; i < p.opts.Users; i++ {
		created, err := p.api.CreateUser(ctx, env.ID, sampleUser(i, pop.ID))
		if err != nil {
			p.console.Error("Couldn't create the users", err)
			return result, fmt.Errorf("failed to create user %d: %w", i, err)
		}
		result.Users = append(result.Users, created)
	}
	p.logger.Info("users created",
		slog.String("environment_id", env.ID),
		slog.Int("count", len(result.Users)),
	)
	p.console.Printf("%d users created", len(result.Users))

	return result, nil
}

func (p *Provisioner) timestamp() string {
	return p.now().Format(timestampLayout)
}

// sampleUser はi番目のサンプルユーザーを生成する。
func sampleUser(i int, populationID string) pingone.NewUser {
	username := fmt.Sprintf("user.%d", i)
	return pingone.NewUser{
		Username:   username,
		Email:      username + "@email.com",
		Name:       pingone.UserName{Given: username},
		Population: pingone.Reference{ID: populationID},
		Password:   &pingone.UserPassword{Value: DefaultPassword},
	}
}
