// Command authctl is the operator tool for the auth service: it hashes and
// calibrates passwords, seeds users straight into the store, and obtains or
// renews tokens either from a running service or locally with the signing
// secret.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
)

const (
	appName = "jwtauth"
	svcName = "authsvc"
	cmdName = "authctl"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	configPrefix := strings.ToUpper(strings.Join([]string{appName, svcName}, "_"))
	app := newApp(os.Stdin, os.Stdout, os.Stderr, configPrefix)

	code := app.run(ctx, os.Args[1:])

	stop()

	if code != 0 {
		fmt.Fprintf(os.Stderr, "%s: exit status %d\n", cmdName, code)
	}

	os.Exit(code)
}
