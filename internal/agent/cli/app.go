// Package cli contains the interactive command loop of the enrollment
// agent: login, status, enroll, retry.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/avigen/faceguard/internal/agent/enroll"
	"github.com/avigen/faceguard/internal/agent/profilesync"
	"github.com/avigen/faceguard/internal/agent/remote"
	"github.com/avigen/faceguard/internal/faceerr"
	"github.com/avigen/faceguard/internal/logging"
)

// Conn is the connectivity surface the CLI shows in its status line.
type Conn interface {
	Online() bool
}

type App struct {
	client     *remote.Client
	manager    *profilesync.Manager
	controller *enroll.Controller
	conn       Conn
	log        logging.Logger
	reader     *bufio.Reader
	userID     string
}

func NewApp(client *remote.Client, manager *profilesync.Manager, controller *enroll.Controller, conn Conn, log logging.Logger) *App {
	return &App{
		client:     client,
		manager:    manager,
		controller: controller,
		conn:       conn,
		log:        log.With("component", "cli"),
		reader:     bufio.NewReader(os.Stdin),
	}
}

func (a *App) isLoggedIn() bool {
	return a.userID != ""
}

func (a *App) status() string {
	state := "offline"
	if a.conn.Online() {
		state = "online"
	}
	if !a.isLoggedIn() {
		return state
	}
	return fmt.Sprintf("%s %s", a.userID, state)
}

// Run starts the command loop and blocks until the user exits or ctx is
// cancelled.
func (a *App) Run(ctx context.Context) {
	scanner := bufio.NewScanner(os.Stdin)
	runREPL(ctx, a, a.status, scanner)
}

// Login authenticates against the profile service, binds the sync manager
// to the identity, and triggers the initial profile load.
func (a *App) Login(ctx context.Context) error {
	id, err := readLine(a.reader, "user id: ")
	if err != nil {
		return err
	}
	password, err := readPassword(a.reader, "password: ")
	if err != nil {
		return err
	}

	if err := a.client.Login(ctx, id, password); err != nil {
		printlnFn(faceerr.Category(err))
		return err
	}

	a.userID = id
	a.manager.SetIdentity(id)
	a.manager.Load(ctx)
	printlnFn("logged in")
	return nil
}

// Logout drops the token and the held profile.
func (a *App) Logout(ctx context.Context) error {
	a.client.Logout()
	a.manager.SetIdentity("")
	a.userID = ""
	printlnFn("logged out")
	return nil
}

// Status prints the held profile and the outcome of the last read.
func (a *App) Status(ctx context.Context) error {
	outcome := a.manager.Outcome()
	profile := a.manager.Profile()

	if outcome.Offline() {
		printlnFn("note: " + faceerr.Category(faceerr.ErrUnavailable))
	}
	if outcome.Status == profilesync.StatusError && !outcome.Offline() {
		printlnFn("error: " + faceerr.Category(outcome.Err))
	}

	if profile == nil {
		printlnFn("no profile loaded")
		return nil
	}

	printlnFn(fmt.Sprintf("name:       %s", profile.Name))
	printlnFn(fmt.Sprintf("email:      %s", profile.Email))
	printlnFn(fmt.Sprintf("employee:   %s", profile.EmployeeID))
	printlnFn(fmt.Sprintf("department: %s", profile.Department))
	printlnFn(fmt.Sprintf("face:       registered=%v", profile.FaceRegistered))
	return nil
}

// Retry re-invokes the profile load regardless of current state.
func (a *App) Retry(ctx context.Context) error {
	a.manager.Retry(ctx)
	return a.Status(ctx)
}

// Enroll drives the full pipeline interactively.
func (a *App) Enroll(ctx context.Context) error {
	if !a.isLoggedIn() {
		printlnFn("log in first")
		return nil
	}

	if err := a.controller.BeginCapture(ctx, a.userID); err != nil {
		printlnFn(faceerr.Category(err))
		return err
	}

	if _, err := readLine(a.reader, "camera ready, press enter to capture... "); err != nil {
		_ = a.controller.Cancel(ctx)
		return err
	}

	if err := a.controller.Capture(ctx); err != nil {
		printlnFn(faceerr.Category(err))
		return err
	}

	printlnFn("follow the requested actions")
	if err := a.controller.StartLivenessChallenge(ctx); err != nil {
		var rejected *faceerr.LivenessRejectedError
		if errors.As(err, &rejected) && len(rejected.Missing) > 0 {
			printlnFn(fmt.Sprintf("actions not confirmed: %v", rejected.Missing))
		}
		printlnFn(faceerr.Category(err))
		return err
	}

	result, err := a.controller.Complete(ctx)
	if err != nil {
		printlnFn(faceerr.Category(err))
		return err
	}
	if err := a.controller.Reset(); err != nil {
		return err
	}

	printlnFn(fmt.Sprintf("enrolled, image at %s", result.FaceImageURL))
	return nil
}
