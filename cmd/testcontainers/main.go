package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/localnerve/sqcb-service/internal/config"
	"github.com/localnerve/sqcb-service/internal/containers"
	"github.com/sirupsen/logrus"
)

func main() {
	var showHelp bool
	flag.BoolVar(&showHelp, "h", false, "show help")
	var envFilename string
	flag.StringVar(&envFilename, "f", "", "path to the .env file")
	flag.Parse()

	usage := `
Run a MySQL testcontainer loaded with the sqcb schema and print the
environment that points the service at it.

Usage:

testcontainers [-h] [-f ENV_FILE_PATH]

ENV_FILE_PATH: path to a .env file. DB_IMAGE, DB_DATABASE, DB_APP_USER,
DB_APP_PASSWORD, DB_USER, DB_PASSWORD and DB_ROOT_PASSWORD override the
container defaults.

example
  testcontainers -f /path/to/something/.env
`
	// if -h flag print usage and return
	if showHelp {
		fmt.Println(usage)
		return
	}

	if envFilename != "" {
		logrus.Infof("Loading environment variables from %s", envFilename)
		if err := config.LoadEnvFile(envFilename); err != nil {
			logrus.Fatalf("Failed to load environment variables: %v", err)
		}
	} else {
		logrus.Info("No environment file specified, using current environment variables")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	server, err := containers.StartMySQL(ctx, containers.Options{
		Image:        os.Getenv("DB_IMAGE"),
		RootPassword: os.Getenv("DB_ROOT_PASSWORD"),
		Database:     os.Getenv("DB_DATABASE"),
		AppUser:      os.Getenv("DB_APP_USER"),
		AppPassword:  os.Getenv("DB_APP_PASSWORD"),
		User:         os.Getenv("DB_USER"),
		Password:     os.Getenv("DB_PASSWORD"),
	})
	if err != nil {
		logrus.Fatalf("Failed to create test container: %v", err)
	}

	env := server.Env()
	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Printf("%s=%s\n", k, env[k])
	}

	<-ctx.Done()
	logrus.Info("Received signal, terminating test container...")
	server.Terminate(context.Background())
}
