// Package containers provisions throwaway MySQL servers for integration tests and local development.
package containers

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"
	"github.com/docker/go-connections/nat"
	_ "github.com/go-sql-driver/mysql"
	"github.com/localnerve/sqcb-service/data"
	"github.com/sirupsen/logrus"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// Options describe the server and accounts to provision
type Options struct {
	Image        string
	RootPassword string
	Database     string
	AppUser      string
	AppPassword  string
	User         string
	Password     string
}

// WithDefaults fills empty options with development values
func (o Options) WithDefaults() Options {
	defaults := Options{
		Image:        "mysql:8.4",
		RootPassword: "root-secret",
		Database:     "sqcb",
		AppUser:      "sqcb_app",
		AppPassword:  "sqcb-app-secret",
		User:         "sqcb_user",
		Password:     "sqcb-user-secret",
	}
	fill := func(v *string, d string) {
		if *v == "" {
			*v = d
		}
	}
	fill(&o.Image, defaults.Image)
	fill(&o.RootPassword, defaults.RootPassword)
	fill(&o.Database, defaults.Database)
	fill(&o.AppUser, defaults.AppUser)
	fill(&o.AppPassword, defaults.AppPassword)
	fill(&o.User, defaults.User)
	fill(&o.Password, defaults.Password)
	return o
}

// MySQL is a running, initialized server
type MySQL struct {
	Container testcontainers.Container
	Host      string
	Port      nat.Port
	Options   Options
}

// StartMySQL starts a server, creates the database and both pool accounts, and loads the schema
func StartMySQL(ctx context.Context, opts Options) (*MySQL, error) {
	opts = opts.WithDefaults()

	if present, err := ImageAvailable(ctx, opts.Image); err != nil {
		logrus.WithError(err).Debug("Could not list local images")
	} else if !present {
		logrus.WithField("image", opts.Image).Info("Pulling database image")
	}

	tcpPort, err := nat.NewPort("tcp", "3306")
	if err != nil {
		return nil, err
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        opts.Image,
			ExposedPorts: []string{string(tcpPort)},
			Env: map[string]string{
				"MYSQL_ROOT_PASSWORD": opts.RootPassword,
				"MYSQL_DATABASE":      opts.Database,
			},
			WaitingFor: wait.ForListeningPort(tcpPort).WithStartupTimeout(90 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start database container: %w", err)
	}

	m := &MySQL{Container: container, Options: opts}
	if m.Host, err = container.Host(ctx); err != nil {
		m.Terminate(ctx)
		return nil, err
	}
	if m.Port, err = container.MappedPort(ctx, tcpPort); err != nil {
		m.Terminate(ctx)
		return nil, err
	}

	if err := m.initialize(ctx); err != nil {
		m.Terminate(ctx)
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"host": m.Host,
		"port": m.Port.Port(),
	}).Info("MySQL container ready")
	return m, nil
}

// Env returns the configuration variables that point the service at this server
func (m *MySQL) Env() map[string]string {
	return map[string]string{
		"DB_TYPE":         "mysql",
		"DB_HOST":         m.Host,
		"DB_PORT":         m.Port.Port(),
		"DB_DATABASE":     m.Options.Database,
		"DB_APP_USER":     m.Options.AppUser,
		"DB_APP_PASSWORD": m.Options.AppPassword,
		"DB_USER":         m.Options.User,
		"DB_PASSWORD":     m.Options.Password,
		"DB_AUTO_MIGRATE": "false",
	}
}

// Terminate stops and removes the container
func (m *MySQL) Terminate(ctx context.Context) {
	if m.Container == nil {
		return
	}
	if err := m.Container.Terminate(ctx); err != nil {
		logrus.WithError(err).Warn("Failed to terminate MySQL container")
	}
}

func (m *MySQL) initialize(ctx context.Context) error {
	dsn := fmt.Sprintf("root:%s@tcp(%s:%s)/%s?multiStatements=false", m.Options.RootPassword, m.Host, m.Port.Port(), m.Options.Database)
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	// The port opens before the server accepts logins
	deadline := time.Now().Add(60 * time.Second)
	for {
		if err = db.PingContext(ctx); err == nil {
			break
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("database never became ready: %w", err)
		}
		time.Sleep(time.Second)
	}

	for _, account := range [][2]string{
		{m.Options.AppUser, m.Options.AppPassword},
		{m.Options.User, m.Options.Password},
	} {
		stmt := fmt.Sprintf("CREATE USER IF NOT EXISTS '%s'@'%%' IDENTIFIED BY '%s'", account[0], account[1])
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create user %s: %w", account[0], err)
		}
	}

	if err := ExecScript(ctx, db, data.InitdbMySQLTables); err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}

	privileges := strings.NewReplacer(
		"{{DATABASE}}", m.Options.Database,
		"{{APP_USER}}", m.Options.AppUser,
		"{{USER}}", m.Options.User,
	).Replace(data.InitdbMySQLPrivileges)
	if err := ExecScript(ctx, db, privileges); err != nil {
		return fmt.Errorf("failed to grant privileges: %w", err)
	}

	return nil
}

// ImageAvailable reports whether the docker daemon already has the image locally
func ImageAvailable(ctx context.Context, imageName string) (bool, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return false, err
	}
	defer cli.Close()

	images, err := cli.ImageList(ctx, image.ListOptions{})
	if err != nil {
		return false, err
	}

	for _, img := range images {
		for _, tag := range img.RepoTags {
			if tag == imageName {
				return true, nil
			}
		}
	}
	return false, nil
}
