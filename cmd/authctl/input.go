package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

var errEmptyPassword = errors.New("empty password")

// promptPassword reads a password without echo when stdin is a terminal and
// falls back to a plain line read otherwise, so the tool can be scripted.
func (a *app) promptPassword(prompt string) (string, error) {
	fmt.Fprint(a.errOut, prompt)

	var (
		raw []byte
		err error
	)

	if fd := int(os.Stdin.Fd()); a.isTerminal(fd) {
		raw, err = a.readPassword(fd)
		fmt.Fprintln(a.errOut)
	} else {
		raw, err = readLine(a.in)
	}

	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}

	if len(raw) == 0 {
		return "", errEmptyPassword
	}

	return string(raw), nil
}

func readLine(r *bufio.Reader) ([]byte, error) {
	line, err := r.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return nil, err
	}

	return []byte(strings.TrimRight(line, "\r\n")), nil
}

// defaults for app; overridden in tests
var (
	readPassword = term.ReadPassword
	isTerminal   = term.IsTerminal
)
